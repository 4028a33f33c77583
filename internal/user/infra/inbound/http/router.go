package http

import "github.com/gin-gonic/gin"

func RegisterUserRoutes(r *gin.Engine, handler *UserHandler) {
	users := r.Group("/api/users")
	{
		users.POST("", handler.CreateUser)
		users.GET("", handler.ListUsers)
		users.GET("/:id", handler.GetUser)
		users.PUT("/:id", handler.UpdateUser)
		users.DELETE("/:id", handler.DeleteUser)
		users.POST("/:id/activate", handler.ActivateUser)
		users.POST("/:id/deactivate", handler.DeactivateUser)
	}
}
