package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/davicafu/hexatask/internal/task/application"
	taskDomain "github.com/davicafu/hexatask/internal/task/domain"
	"github.com/davicafu/hexatask/pkg/utils"
)

// writeError traduce errores de dominio a códigos HTTP.
func writeError(c *gin.Context, log *zap.Logger, err error) {
	var (
		validation *taskDomain.ValidationError
		transition *taskDomain.InvalidStateTransition
		rejected   *taskDomain.AssignmentRejected
	)

	switch {
	case errors.As(err, &validation):
		utils.SendErrorWithCode(c, http.StatusBadRequest, "validation_error", validation.Error())
	case errors.As(err, &transition):
		utils.SendErrorWithCode(c, http.StatusConflict, "invalid_state_transition", transition.Error())
	case errors.As(err, &rejected):
		utils.SendErrorWithCode(c, http.StatusUnprocessableEntity, "assignment_rejected", rejected.Error())
	case errors.Is(err, taskDomain.ErrNoDueDateSet):
		utils.SendErrorWithCode(c, http.StatusUnprocessableEntity, "no_due_date", err.Error())
	case errors.Is(err, taskDomain.ErrTaskNotFound):
		utils.SendErrorWithCode(c, http.StatusNotFound, "task_not_found", "task not found")
	case errors.Is(err, taskDomain.ErrUserNotFound):
		utils.SendErrorWithCode(c, http.StatusNotFound, "user_not_found", "user not found")
	case errors.Is(err, taskDomain.ErrTaskVersionConflict):
		utils.SendErrorWithCode(c, http.StatusConflict, "version_conflict", err.Error())
	case errors.Is(err, application.ErrAnalyticsUnavailable):
		utils.SendErrorWithCode(c, http.StatusServiceUnavailable, "analytics_unavailable", err.Error())
	default:
		log.Error("Unhandled task error", zap.String("path", c.FullPath()), zap.Error(err))
		utils.SendInternalServerError(c, "internal server error")
	}
}
