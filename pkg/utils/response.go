package utils

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// ErrorResponse define la estructura estándar para las respuestas de error.
type ErrorResponse struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

// SendSuccess envía una respuesta exitosa con un payload de datos.
func SendSuccess(c *gin.Context, statusCode int, data interface{}) {
	c.JSON(statusCode, gin.H{
		"data": data,
	})
}

// SendPage envía una lista paginada.
func SendPage(c *gin.Context, data interface{}, limit, offset int) {
	c.JSON(http.StatusOK, gin.H{
		"data":   data,
		"limit":  limit,
		"offset": offset,
	})
}

// SendError envía una respuesta de error con un formato estandarizado.
func SendError(c *gin.Context, statusCode int, message string) {
	SendErrorWithCode(c, statusCode, "", message)
}

// SendErrorWithCode añade un código de error estable para los clientes.
func SendErrorWithCode(c *gin.Context, statusCode int, code, message string) {
	c.JSON(statusCode, gin.H{
		"error": ErrorResponse{
			Message: message,
			Code:    code,
		},
	})
}

// --- Helpers específicos para errores comunes ---

func SendBadRequest(c *gin.Context, message string) {
	SendError(c, http.StatusBadRequest, message)
}

func SendNotFound(c *gin.Context, message string) {
	SendError(c, http.StatusNotFound, message)
}

func SendInternalServerError(c *gin.Context, message string) {
	SendError(c, http.StatusInternalServerError, message)
}
