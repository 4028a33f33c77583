package domain

import (
	"errors"
	"fmt"
)

// Errores base. Los errores tipados de abajo los envuelven para poder usar errors.Is.
var (
	ErrValidation             = errors.New("validation failed")
	ErrInvalidStateTransition = errors.New("invalid state transition")
	ErrAssignmentRejected     = errors.New("assignment rejected")
	ErrNoDueDateSet           = errors.New("task has no due date")

	ErrTaskNotFound        = errors.New("task not found")
	ErrTaskAlreadyExists   = errors.New("task already exists")
	ErrTaskVersionConflict = errors.New("task was modified concurrently")
	ErrUserNotFound        = errors.New("user not found")
)

// ValidationError indica un campo que viola las reglas de la tarea.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// InvalidStateTransition identifica el estado actual y el pedido.
type InvalidStateTransition struct {
	From TaskStatus
	To   TaskStatus
}

func (e *InvalidStateTransition) Error() string {
	return fmt.Sprintf("cannot transition task from %s to %s", e.From, e.To)
}

func (e *InvalidStateTransition) Unwrap() error { return ErrInvalidStateTransition }

// AssignmentRejected recoge por qué no se pudo asignar.
type AssignmentRejected struct {
	TaskStatus TaskStatus
	UserActive bool
}

func (e *AssignmentRejected) Error() string {
	switch {
	case e.TaskStatus == StatusDone:
		return "cannot assign a completed task"
	case !e.UserActive:
		return "cannot assign a task to an inactive user"
	default:
		return "assignment rejected"
	}
}

func (e *AssignmentRejected) Unwrap() error { return ErrAssignmentRejected }
