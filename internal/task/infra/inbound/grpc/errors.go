package grpc

import (
	"errors"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	taskDomain "github.com/davicafu/hexatask/internal/task/domain"
)

// toStatus traduce errores de dominio a códigos gRPC.
func toStatus(err error) error {
	switch {
	case errors.Is(err, taskDomain.ErrValidation):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, taskDomain.ErrInvalidStateTransition),
		errors.Is(err, taskDomain.ErrAssignmentRejected),
		errors.Is(err, taskDomain.ErrNoDueDateSet):
		return status.Error(codes.FailedPrecondition, err.Error())
	case errors.Is(err, taskDomain.ErrTaskNotFound), errors.Is(err, taskDomain.ErrUserNotFound):
		return status.Error(codes.NotFound, err.Error())
	case errors.Is(err, taskDomain.ErrTaskVersionConflict):
		return status.Error(codes.Aborted, err.Error())
	default:
		return status.Error(codes.Internal, "internal error")
	}
}
