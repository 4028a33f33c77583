package events

import (
	"time"

	"github.com/google/uuid"
)

// Contratos de integración del contexto Task. Son planos a propósito: no son entidades.

type TaskCreated struct {
	ID         uuid.UUID  `json:"id"`
	Title      string     `json:"title"`
	Priority   string     `json:"priority"`
	Status     string     `json:"status"`
	DueDate    *time.Time `json:"dueDate,omitempty"`
	AssigneeID *uuid.UUID `json:"assigneeId,omitempty"`
	CreatedAt  time.Time  `json:"createdAt"`
}

type TaskStatusChanged struct {
	ID        uuid.UUID `json:"id"`
	From      string    `json:"from"`
	To        string    `json:"to"`
	ChangedAt time.Time `json:"changedAt"`
}

type TaskAssigned struct {
	ID         uuid.UUID  `json:"id"`
	AssigneeID *uuid.UUID `json:"assigneeId,omitempty"`
	AssignedAt time.Time  `json:"assignedAt"`
}

type TaskDeleted struct {
	ID uuid.UUID `json:"id"`
}

type TaskUpdated struct {
	ID          uuid.UUID  `json:"id"`
	Title       string     `json:"title"`
	Description *string    `json:"description,omitempty"`
	Priority    string     `json:"priority"`
	Status      string     `json:"status"`
	DueDate     *time.Time `json:"dueDate,omitempty"`
	AssigneeID  *uuid.UUID `json:"assigneeId,omitempty"`
	Version     int        `json:"version"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}
