package http

import "github.com/gin-gonic/gin"

// RegisterTaskRoutes registra las rutas HTTP del contexto Task.
func RegisterTaskRoutes(r *gin.Engine, handler *TaskHandler) {
	tasks := r.Group("/api/tasks")
	{
		tasks.POST("", handler.CreateTask)
		tasks.GET("", handler.ListTasks)
		tasks.GET("/search", handler.SearchTasks)
		tasks.GET("/overdue", handler.OverdueTasks)
		tasks.GET("/archive", handler.ArchivedTasks)
		tasks.GET("/stats", handler.Stats)

		tasks.GET("/:id", handler.GetTask)
		tasks.PUT("/:id", handler.UpdateTask)
		tasks.DELETE("/:id", handler.DeleteTask)

		tasks.POST("/:id/transition", handler.TransitionTask)
		tasks.POST("/:id/complete", handler.CompleteTask)
		tasks.PUT("/:id/assignee", handler.AssignTask)
		tasks.DELETE("/:id/assignee", handler.UnassignTask)
		tasks.PUT("/:id/due-date", handler.UpdateDueDate)
		tasks.GET("/:id/days-until-due", handler.DaysUntilDue)
	}

	r.GET("/api/users/:id/tasks", handler.TasksForUser)
}
