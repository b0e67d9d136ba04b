package tests

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"typeb/internal/adapter/http/dto"
	"typeb/internal/adapter/http/handlers"
	"typeb/internal/adapter/http/middleware"
	"typeb/internal/core/domain"
	"typeb/pkg/apierrors"
	"typeb/pkg/translator"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type taskServiceMock struct {
	mock.Mock
}

func (m *taskServiceMock) CreateTask(ctx context.Context, input domain.CreateTaskInput) (domain.Task, error) {
	args := m.Called(ctx, input)
	return args.Get(0).(domain.Task), args.Error(1)
}

func (m *taskServiceMock) GetTask(ctx context.Context, id string) (domain.Task, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(domain.Task), args.Error(1)
}

func (m *taskServiceMock) ListFamilyTasks(ctx context.Context, familyID string) ([]domain.Task, error) {
	args := m.Called(ctx, familyID)

	var tasks []domain.Task
	if value := args.Get(0); value != nil {
		tasks = value.([]domain.Task)
	}
	return tasks, args.Error(1)
}

func (m *taskServiceMock) Start(ctx context.Context, taskID, actor string) (domain.Task, error) {
	args := m.Called(ctx, taskID, actor)
	return args.Get(0).(domain.Task), args.Error(1)
}

func (m *taskServiceMock) Complete(ctx context.Context, taskID, actor string, photoURL *string) (domain.Task, error) {
	args := m.Called(ctx, taskID, actor, photoURL)
	return args.Get(0).(domain.Task), args.Error(1)
}

func (m *taskServiceMock) Cancel(ctx context.Context, taskID, actor string) (domain.Task, error) {
	args := m.Called(ctx, taskID, actor)
	return args.Get(0).(domain.Task), args.Error(1)
}

func (m *taskServiceMock) Reopen(ctx context.Context, taskID string) (domain.Task, error) {
	args := m.Called(ctx, taskID)
	return args.Get(0).(domain.Task), args.Error(1)
}

func newTaskRouter(handler *handlers.TaskHandler) *gin.Engine {
	router := gin.New()
	api := router.Group("/api", middleware.LanguageMiddleware(), middleware.ActorMiddleware())
	api.POST("/tasks", handler.CreateTask)
	api.GET("/tasks/:id", handler.GetTask)
	api.GET("/families/:familyId/tasks", handler.ListFamilyTasks)
	api.POST("/tasks/:id/start", handler.StartTask)
	api.POST("/tasks/:id/complete", handler.CompleteTask)
	api.POST("/tasks/:id/cancel", handler.CancelTask)
	return router
}

func sampleTask(status domain.TaskStatus) domain.Task {
	createdAt := time.Date(2026, 3, 2, 10, 20, 30, 0, time.UTC)
	return domain.Task{
		ID:               "5f0c1a6e-9d3e-4f75-9a68-0f1fb5a0c001",
		FamilyID:         "family-1",
		Title:            "Take out the trash",
		AssignedTo:       "kid-1",
		AssignedBy:       "parent-1",
		CreatedBy:        "parent-1",
		Status:           status,
		Priority:         domain.TaskPriorityMedium,
		ValidationStatus: domain.ValidationNone,
		Points:           10,
		Revision:         1,
		CreatedAt:        createdAt,
		UpdatedAt:        createdAt,
	}
}

func TestTaskHandler_CreateTask_Success(t *testing.T) {
	task := sampleTask(domain.TaskStatusPending)
	dueDate := time.Date(2026, 3, 2, 18, 0, 0, 0, time.UTC)
	task.DueDate = &dueDate

	serviceMock := new(taskServiceMock)
	serviceMock.On("CreateTask", mock.Anything, mock.MatchedBy(func(input domain.CreateTaskInput) bool {
		return input.FamilyID == "family-1" &&
			input.Title == "Take out the trash" &&
			input.AssignedTo == "kid-1" &&
			input.AssignedBy == "parent-1" &&
			input.CreatedBy == "parent-1" &&
			input.Points == 10
	})).Return(task, nil).Once()
	handler := handlers.NewTaskHandler(serviceMock)

	body := `{
		"family_id": "family-1",
		"title": "Take out the trash",
		"assigned_to": "kid-1",
		"due_date": "2026-03-02T18:00:00Z",
		"points": 10
	}`
	req := httptest.NewRequest(http.MethodPost, "/api/tasks", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept-Language", translator.LanguageEn)
	req.Header.Set("X-Member-ID", "parent-1")
	rec := httptest.NewRecorder()

	newTaskRouter(handler).ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)

	var got dto.TaskItem
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	require.Equal(t, task.ID, got.ID)
	require.Equal(t, "pending", got.Status)
	require.Equal(t, "medium", got.Priority)
	require.Equal(t, "2026-03-02T18:00:00Z", *got.DueDate)
	serviceMock.AssertExpectations(t)
}

func TestTaskHandler_CreateTask_MissingActor(t *testing.T) {
	serviceMock := new(taskServiceMock)
	handler := handlers.NewTaskHandler(serviceMock)

	body := `{"family_id": "family-1", "title": "Take out the trash", "assigned_to": "kid-1"}`
	req := httptest.NewRequest(http.MethodPost, "/api/tasks", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept-Language", translator.LanguageEn)
	rec := httptest.NewRecorder()

	newTaskRouter(handler).ServeHTTP(rec, req)

	require.Equal(t, http.StatusUnauthorized, rec.Code)

	var got apierrors.JsonErr
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	require.Equal(t, http.StatusUnauthorized, got.ErrDetails.Code)
	require.Equal(t, "Missing member identification", got.ErrDetails.Message)
}

func TestTaskHandler_CreateTask_InvalidPayload(t *testing.T) {
	serviceMock := new(taskServiceMock)
	handler := handlers.NewTaskHandler(serviceMock)

	// missing required title
	body := `{"family_id": "family-1", "assigned_to": "kid-1"}`
	req := httptest.NewRequest(http.MethodPost, "/api/tasks", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept-Language", translator.LanguageEn)
	req.Header.Set("X-Member-ID", "parent-1")
	rec := httptest.NewRecorder()

	newTaskRouter(handler).ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)

	var got apierrors.JsonErr
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	require.Equal(t, "Invalid task payload", got.ErrDetails.Message)
}

func TestTaskHandler_CreateTask_RecurrenceWithoutDueDate(t *testing.T) {
	serviceMock := new(taskServiceMock)
	handler := handlers.NewTaskHandler(serviceMock)

	body := `{
		"family_id": "family-1",
		"title": "Feed the cat",
		"assigned_to": "kid-1",
		"recurrence": {"frequency": "daily"}
	}`
	req := httptest.NewRequest(http.MethodPost, "/api/tasks", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept-Language", translator.LanguageEn)
	req.Header.Set("X-Member-ID", "parent-1")
	rec := httptest.NewRecorder()

	newTaskRouter(handler).ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)

	var got apierrors.JsonErr
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	require.Equal(t, "The recurrence schedule is invalid", got.ErrDetails.Message)
}

func TestTaskHandler_GetTask_NotFound(t *testing.T) {
	serviceMock := new(taskServiceMock)
	serviceMock.On("GetTask", mock.Anything, "missing").Return(domain.Task{}, domain.ErrTaskNotFound).Once()
	handler := handlers.NewTaskHandler(serviceMock)

	req := httptest.NewRequest(http.MethodGet, "/api/tasks/missing", nil)
	req.Header.Set("Accept-Language", translator.LanguageEn)
	rec := httptest.NewRecorder()

	newTaskRouter(handler).ServeHTTP(rec, req)

	require.Equal(t, http.StatusNotFound, rec.Code)

	var got apierrors.JsonErr
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	require.Equal(t, http.StatusNotFound, got.ErrDetails.Code)
	require.Equal(t, "Task not found", got.ErrDetails.Message)
	serviceMock.AssertExpectations(t)
}

func TestTaskHandler_ListFamilyTasks_Success(t *testing.T) {
	serviceMock := new(taskServiceMock)
	serviceMock.On("ListFamilyTasks", mock.Anything, "family-1").Return(
		[]domain.Task{sampleTask(domain.TaskStatusPending), sampleTask(domain.TaskStatusCompleted)},
		nil,
	).Once()
	handler := handlers.NewTaskHandler(serviceMock)

	req := httptest.NewRequest(http.MethodGet, "/api/families/family-1/tasks", nil)
	req.Header.Set("Accept-Language", translator.LanguageEn)
	rec := httptest.NewRecorder()

	newTaskRouter(handler).ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var got []dto.TaskItem
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	require.Len(t, got, 2)
	require.Equal(t, "pending", got[0].Status)
	require.Equal(t, "completed", got[1].Status)
	serviceMock.AssertExpectations(t)
}

func TestTaskHandler_ListFamilyTasks_StatusViews(t *testing.T) {
	pastDue := time.Now().UTC().Add(-2 * time.Hour)
	overdue := sampleTask(domain.TaskStatusPending)
	overdue.ID = "overdue-1"
	overdue.DueDate = &pastDue

	completed := sampleTask(domain.TaskStatusCompleted)
	completed.ID = "completed-1"
	completed.DueDate = &pastDue

	serviceMock := new(taskServiceMock)
	serviceMock.On("ListFamilyTasks", mock.Anything, "family-1").Return(
		[]domain.Task{overdue, completed, sampleTask(domain.TaskStatusPending)},
		nil,
	).Twice()
	handler := handlers.NewTaskHandler(serviceMock)
	router := newTaskRouter(handler)

	req := httptest.NewRequest(http.MethodGet, "/api/families/family-1/tasks?status=overdue", nil)
	req.Header.Set("Accept-Language", translator.LanguageEn)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var got []dto.TaskItem
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	require.Len(t, got, 1)
	require.Equal(t, "overdue-1", got[0].ID)

	req = httptest.NewRequest(http.MethodGet, "/api/families/family-1/tasks?status=completed", nil)
	req.Header.Set("Accept-Language", translator.LanguageEn)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	require.Len(t, got, 1)
	require.Equal(t, "completed-1", got[0].ID)
	serviceMock.AssertExpectations(t)
}

func TestTaskHandler_ListFamilyTasks_Error(t *testing.T) {
	serviceMock := new(taskServiceMock)
	serviceMock.On("ListFamilyTasks", mock.Anything, "family-1").Return(nil, errors.New("db is down")).Once()
	handler := handlers.NewTaskHandler(serviceMock)

	req := httptest.NewRequest(http.MethodGet, "/api/families/family-1/tasks", nil)
	req.Header.Set("Accept-Language", translator.LanguageEn)
	rec := httptest.NewRecorder()

	newTaskRouter(handler).ServeHTTP(rec, req)

	require.Equal(t, http.StatusInternalServerError, rec.Code)

	var got apierrors.JsonErr
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	require.Equal(t, "Failed to list the tasks", got.ErrDetails.Message)
	serviceMock.AssertExpectations(t)
}

func TestTaskHandler_StartTask_Success(t *testing.T) {
	serviceMock := new(taskServiceMock)
	serviceMock.On("Start", mock.Anything, "task-1", "kid-1").Return(sampleTask(domain.TaskStatusInProgress), nil).Once()
	handler := handlers.NewTaskHandler(serviceMock)

	req := httptest.NewRequest(http.MethodPost, "/api/tasks/task-1/start", nil)
	req.Header.Set("Accept-Language", translator.LanguageEn)
	req.Header.Set("X-Member-ID", "kid-1")
	rec := httptest.NewRecorder()

	newTaskRouter(handler).ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var got dto.TaskItem
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	require.Equal(t, "in_progress", got.Status)
	serviceMock.AssertExpectations(t)
}

func TestTaskHandler_CompleteTask_WithPhoto(t *testing.T) {
	photo := "https://cdn.example.com/proof.jpg"
	task := sampleTask(domain.TaskStatusCompleted)
	task.PhotoURL = &photo
	task.ValidationStatus = domain.ValidationPending

	serviceMock := new(taskServiceMock)
	serviceMock.On("Complete", mock.Anything, "task-1", "kid-1", &photo).Return(task, nil).Once()
	handler := handlers.NewTaskHandler(serviceMock)

	body := `{"photo_url": "https://cdn.example.com/proof.jpg"}`
	req := httptest.NewRequest(http.MethodPost, "/api/tasks/task-1/complete", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept-Language", translator.LanguageEn)
	req.Header.Set("X-Member-ID", "kid-1")
	rec := httptest.NewRecorder()

	newTaskRouter(handler).ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var got dto.TaskItem
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	require.Equal(t, "completed", got.Status)
	require.Equal(t, "pending", got.ValidationStatus)
	serviceMock.AssertExpectations(t)
}

func TestTaskHandler_CompleteTask_AlreadyCompletedConverges(t *testing.T) {
	winner := "kid-2"
	task := sampleTask(domain.TaskStatusCompleted)
	task.CompletedBy = &winner

	serviceMock := new(taskServiceMock)
	serviceMock.On("Complete", mock.Anything, "task-1", "kid-1", (*string)(nil)).
		Return(task, domain.ErrAlreadyProcessed).Once()
	handler := handlers.NewTaskHandler(serviceMock)

	req := httptest.NewRequest(http.MethodPost, "/api/tasks/task-1/complete", nil)
	req.Header.Set("Accept-Language", translator.LanguageEn)
	req.Header.Set("X-Member-ID", "kid-1")
	rec := httptest.NewRecorder()

	newTaskRouter(handler).ServeHTTP(rec, req)

	// Re-completing is not an error: the caller receives the winner's state.
	require.Equal(t, http.StatusOK, rec.Code)

	var got dto.TaskItem
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	require.Equal(t, "completed", got.Status)
	require.Equal(t, "kid-2", *got.CompletedBy)
	serviceMock.AssertExpectations(t)
}

func TestTaskHandler_CompleteTask_PhotoRequired(t *testing.T) {
	serviceMock := new(taskServiceMock)
	serviceMock.On("Complete", mock.Anything, "task-1", "kid-1", (*string)(nil)).
		Return(domain.Task{}, domain.ErrPhotoRequired).Once()
	handler := handlers.NewTaskHandler(serviceMock)

	req := httptest.NewRequest(http.MethodPost, "/api/tasks/task-1/complete", nil)
	req.Header.Set("Accept-Language", translator.LanguageEn)
	req.Header.Set("X-Member-ID", "kid-1")
	rec := httptest.NewRecorder()

	newTaskRouter(handler).ServeHTTP(rec, req)

	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	var got apierrors.JsonErr
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	require.Equal(t, "A photo proof is required to complete this task", got.ErrDetails.Message)
	serviceMock.AssertExpectations(t)
}

func TestTaskHandler_CancelTask_InvalidTransition(t *testing.T) {
	serviceMock := new(taskServiceMock)
	serviceMock.On("Cancel", mock.Anything, "task-1", "parent-1").
		Return(domain.Task{}, domain.ErrInvalidTransition).Once()
	handler := handlers.NewTaskHandler(serviceMock)

	req := httptest.NewRequest(http.MethodPost, "/api/tasks/task-1/cancel", nil)
	req.Header.Set("Accept-Language", translator.LanguageEn)
	req.Header.Set("X-Member-ID", "parent-1")
	rec := httptest.NewRecorder()

	newTaskRouter(handler).ServeHTTP(rec, req)

	require.Equal(t, http.StatusConflict, rec.Code)

	var got apierrors.JsonErr
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	require.Equal(t, "This action is not allowed in the task's current state", got.ErrDetails.Message)
	serviceMock.AssertExpectations(t)
}

func TestTaskHandler_StartTask_StoreConflict_Fr(t *testing.T) {
	serviceMock := new(taskServiceMock)
	serviceMock.On("Start", mock.Anything, "task-1", "kid-1").
		Return(domain.Task{}, domain.ErrStoreConflict).Once()
	handler := handlers.NewTaskHandler(serviceMock)

	req := httptest.NewRequest(http.MethodPost, "/api/tasks/task-1/start", nil)
	req.Header.Set("Accept-Language", translator.LanguageFr)
	req.Header.Set("X-Member-ID", "kid-1")
	rec := httptest.NewRecorder()

	newTaskRouter(handler).ServeHTTP(rec, req)

	require.Equal(t, http.StatusConflict, rec.Code)

	var got apierrors.JsonErr
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	require.Equal(t, http.StatusConflict, got.ErrDetails.Code)
	serviceMock.AssertExpectations(t)
}
