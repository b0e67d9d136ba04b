package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"typeb/internal/adapter/http/dto"
	"typeb/internal/adapter/http/mapper"
	"typeb/internal/adapter/http/middleware"
	"typeb/internal/core/domain"
	"typeb/internal/core/ports"
	"typeb/pkg/apierrors"
)

type ValidationHandler struct {
	validationService ports.ValidationService
}

func NewValidationHandler(validationService ports.ValidationService) *ValidationHandler {
	return &ValidationHandler{validationService: validationService}
}

// SubmitPhoto completes a photo-requiring task with its proof attached; the
// task lands completed with validation pending.
func (h *ValidationHandler) SubmitPhoto(c *gin.Context) {
	lang := middleware.GetLang(c)

	actor := middleware.GetActor(c)
	if actor == "" {
		c.JSON(
			http.StatusUnauthorized,
			apierrors.CreateError(http.StatusUnauthorized, apierrors.MsgMissingActor, lang),
		)
		return
	}

	taskID := c.Param("id")
	var req dto.SubmitPhotoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(
			http.StatusBadRequest,
			apierrors.CreateError(http.StatusBadRequest, apierrors.MsgInvalidTaskPayload, lang),
		)
		return
	}

	task, err := h.validationService.SubmitForValidation(c.Request.Context(), taskID, actor, req.PhotoURL)
	h.respond(c, lang, task, taskID, err)
}

// Validate records a manager's approve/reject decision.
func (h *ValidationHandler) Validate(c *gin.Context) {
	lang := middleware.GetLang(c)

	actor := middleware.GetActor(c)
	if actor == "" {
		c.JSON(
			http.StatusUnauthorized,
			apierrors.CreateError(http.StatusUnauthorized, apierrors.MsgMissingActor, lang),
		)
		return
	}

	taskID := c.Param("id")
	var req dto.ValidateTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(
			http.StatusBadRequest,
			apierrors.CreateError(http.StatusBadRequest, apierrors.MsgInvalidTaskPayload, lang),
		)
		return
	}

	task, err := h.validationService.Validate(c.Request.Context(), taskID, actor, *req.Approved, req.Notes)
	h.respond(c, lang, task, taskID, err)
}

func (h *ValidationHandler) respond(c *gin.Context, lang string, task domain.Task, taskID string, err error) {
	switch {
	case err == nil:
		c.JSON(http.StatusOK, mapper.ToTaskItem(task))
	case errors.Is(err, domain.ErrAlreadyProcessed):
		c.JSON(http.StatusOK, mapper.ToTaskItem(task))
	case errors.Is(err, domain.ErrTaskNotFound):
		c.JSON(
			http.StatusNotFound,
			apierrors.CreateError(http.StatusNotFound, apierrors.MsgTaskNotFound, lang),
		)
	case errors.Is(err, domain.ErrNotAuthorized):
		c.JSON(
			http.StatusForbidden,
			apierrors.CreateError(http.StatusForbidden, apierrors.MsgNotAuthorized, lang),
		)
	case errors.Is(err, domain.ErrInvalidTransition):
		c.JSON(
			http.StatusConflict,
			apierrors.CreateError(http.StatusConflict, apierrors.MsgInvalidTransition, lang),
		)
	case errors.Is(err, domain.ErrPhotoRequired):
		c.JSON(
			http.StatusUnprocessableEntity,
			apierrors.CreateError(http.StatusUnprocessableEntity, apierrors.MsgPhotoRequired, lang),
		)
	case errors.Is(err, domain.ErrStoreConflict):
		c.JSON(
			http.StatusConflict,
			apierrors.CreateError(http.StatusConflict, apierrors.MsgTaskAlreadyUpdated, lang),
		)
	default:
		zap.L().Error("failed to process validation", zap.String("task_id", taskID), zap.Error(err))
		c.JSON(
			http.StatusInternalServerError,
			apierrors.CreateError(http.StatusInternalServerError, apierrors.MsgFailValidateTask, lang),
		)
	}
}
