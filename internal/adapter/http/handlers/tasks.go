package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"typeb/internal/adapter/http/dto"
	"typeb/internal/adapter/http/mapper"
	"typeb/internal/adapter/http/middleware"
	"typeb/internal/adapter/http/validation"
	"typeb/internal/core/domain"
	"typeb/internal/core/ports"
	"typeb/pkg/apierrors"
)

type TaskHandler struct {
	taskService ports.TaskService
}

func NewTaskHandler(taskService ports.TaskService) *TaskHandler {
	return &TaskHandler{taskService: taskService}
}

func (h *TaskHandler) CreateTask(c *gin.Context) {
	lang := middleware.GetLang(c)

	actor := middleware.GetActor(c)
	if actor == "" {
		c.JSON(
			http.StatusUnauthorized,
			apierrors.CreateError(http.StatusUnauthorized, apierrors.MsgMissingActor, lang),
		)
		return
	}

	var req dto.CreateTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(
			http.StatusBadRequest,
			apierrors.CreateError(http.StatusBadRequest, apierrors.MsgInvalidTaskPayload, lang),
		)
		return
	}

	input, err := validation.BuildCreateTaskInput(req, actor)
	if err != nil {
		msgKey := apierrors.MsgInvalidTaskPayload
		if errors.Is(err, domain.ErrInvalidRecurrence) {
			msgKey = apierrors.MsgInvalidRecurrence
		}
		c.JSON(
			http.StatusBadRequest,
			apierrors.CreateError(http.StatusBadRequest, msgKey, lang),
		)
		return
	}

	task, err := h.taskService.CreateTask(c.Request.Context(), input)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidRecurrence) {
			c.JSON(
				http.StatusBadRequest,
				apierrors.CreateError(http.StatusBadRequest, apierrors.MsgInvalidRecurrence, lang),
			)
			return
		}

		zap.L().Error("failed to create task", zap.Error(err))
		c.JSON(
			http.StatusInternalServerError,
			apierrors.CreateError(http.StatusInternalServerError, apierrors.MsgFailCreateTask, lang),
		)
		return
	}

	c.JSON(http.StatusCreated, mapper.ToTaskItem(task))
}

func (h *TaskHandler) GetTask(c *gin.Context) {
	lang := middleware.GetLang(c)

	taskID := c.Param("id")
	if taskID == "" {
		c.JSON(
			http.StatusBadRequest,
			apierrors.CreateError(http.StatusBadRequest, apierrors.MsgInvalidTaskID, lang),
		)
		return
	}

	task, err := h.taskService.GetTask(c.Request.Context(), taskID)
	if err != nil {
		if errors.Is(err, domain.ErrTaskNotFound) {
			c.JSON(
				http.StatusNotFound,
				apierrors.CreateError(http.StatusNotFound, apierrors.MsgTaskNotFound, lang),
			)
			return
		}

		zap.L().Error("failed to get task", zap.String("task_id", taskID), zap.Error(err))
		c.JSON(
			http.StatusInternalServerError,
			apierrors.CreateError(http.StatusInternalServerError, apierrors.MsgFailListTasks, lang),
		)
		return
	}

	c.JSON(http.StatusOK, mapper.ToTaskItem(task))
}

func (h *TaskHandler) ListFamilyTasks(c *gin.Context) {
	lang := middleware.GetLang(c)

	familyID := c.Param("familyId")
	if familyID == "" {
		c.JSON(
			http.StatusBadRequest,
			apierrors.CreateError(http.StatusBadRequest, apierrors.MsgInvalidTaskID, lang),
		)
		return
	}

	tasks, err := h.taskService.ListFamilyTasks(c.Request.Context(), familyID)
	if err != nil {
		zap.L().Error("failed to list family tasks", zap.String("family_id", familyID), zap.Error(err))
		c.JSON(
			http.StatusInternalServerError,
			apierrors.CreateError(http.StatusInternalServerError, apierrors.MsgFailListTasks, lang),
		)
		return
	}

	if view := c.Query("status"); view != "" {
		tasks = filterTasksByView(tasks, view, time.Now().UTC())
	}

	c.JSON(http.StatusOK, mapper.ToTaskItems(tasks))
}

// filterTasksByView narrows a family listing to a status view. Besides the
// literal statuses, "overdue" selects non-terminal tasks past their due date.
func filterTasksByView(tasks []domain.Task, view string, now time.Time) []domain.Task {
	filtered := make([]domain.Task, 0, len(tasks))
	for _, task := range tasks {
		switch view {
		case "overdue":
			if !task.Status.IsTerminal() && task.DueDate != nil && task.DueDate.Before(now) {
				filtered = append(filtered, task)
			}
		default:
			if string(task.Status) == view {
				filtered = append(filtered, task)
			}
		}
	}
	return filtered
}

func (h *TaskHandler) StartTask(c *gin.Context) {
	h.transitionTask(c, func(c *gin.Context, taskID, actor string) (domain.Task, error) {
		return h.taskService.Start(c.Request.Context(), taskID, actor)
	})
}

func (h *TaskHandler) CompleteTask(c *gin.Context) {
	lang := middleware.GetLang(c)

	var req dto.CompleteTaskRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(
				http.StatusBadRequest,
				apierrors.CreateError(http.StatusBadRequest, apierrors.MsgInvalidTaskPayload, lang),
			)
			return
		}
	}

	h.transitionTask(c, func(c *gin.Context, taskID, actor string) (domain.Task, error) {
		return h.taskService.Complete(c.Request.Context(), taskID, actor, req.PhotoURL)
	})
}

func (h *TaskHandler) CancelTask(c *gin.Context) {
	h.transitionTask(c, func(c *gin.Context, taskID, actor string) (domain.Task, error) {
		return h.taskService.Cancel(c.Request.Context(), taskID, actor)
	})
}

func (h *TaskHandler) transitionTask(c *gin.Context, apply func(c *gin.Context, taskID, actor string) (domain.Task, error)) {
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
	if taskID == "" {
		c.JSON(
			http.StatusBadRequest,
			apierrors.CreateError(http.StatusBadRequest, apierrors.MsgInvalidTaskID, lang),
		)
		return
	}

	task, err := apply(c, taskID, actor)
	switch {
	case err == nil:
		c.JSON(http.StatusOK, mapper.ToTaskItem(task))
	case errors.Is(err, domain.ErrAlreadyProcessed):
		// Idempotent convergence: the intent already holds; answer with the
		// task's current state rather than an error.
		c.JSON(http.StatusOK, mapper.ToTaskItem(task))
	case errors.Is(err, domain.ErrTaskNotFound):
		c.JSON(
			http.StatusNotFound,
			apierrors.CreateError(http.StatusNotFound, apierrors.MsgTaskNotFound, lang),
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
		zap.L().Error("failed to transition task", zap.String("task_id", taskID), zap.Error(err))
		c.JSON(
			http.StatusInternalServerError,
			apierrors.CreateError(http.StatusInternalServerError, apierrors.MsgFailTransitionTask, lang),
		)
	}
}
