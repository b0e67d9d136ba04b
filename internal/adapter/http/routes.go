package http

import (
	"typeb/internal/adapter/http/handlers"
	"typeb/internal/adapter/http/middleware"

	"github.com/gin-gonic/gin"
)

func RegisterRoutes(r *gin.Engine, healthHandler *handlers.HealthHandler, taskHandler *handlers.TaskHandler, validationHandler *handlers.ValidationHandler) {
	api := r.Group("/api")
	api.Use(middleware.LanguageMiddleware(), middleware.ActorMiddleware())
	{
		api.GET("/health", healthHandler.CheckHealth)
		api.GET("/health/report", healthHandler.CheckHealthReport)

		api.POST("/tasks", taskHandler.CreateTask)
		api.GET("/tasks/:id", taskHandler.GetTask)
		api.GET("/families/:familyId/tasks", taskHandler.ListFamilyTasks)

		api.POST("/tasks/:id/start", taskHandler.StartTask)
		api.POST("/tasks/:id/complete", taskHandler.CompleteTask)
		api.POST("/tasks/:id/cancel", taskHandler.CancelTask)

		api.POST("/tasks/:id/photo", validationHandler.SubmitPhoto)
		api.POST("/tasks/:id/validate", validationHandler.Validate)
	}
}
