package http

import (
	"time"

	"github.com/google/uuid"
)

// TaskDTO es la representación JSON de una tarea.
type TaskDTO struct {
	ID          uuid.UUID  `json:"id"`
	Title       string     `json:"title"`
	Description *string    `json:"description,omitempty"`
	Priority    string     `json:"priority"`
	Status      string     `json:"status"`
	CreatedDate time.Time  `json:"createdDate"`
	DueDate     *time.Time `json:"dueDate,omitempty"`
	AssigneeID  *uuid.UUID `json:"assigneeId,omitempty"`
	UpdatedAt   time.Time  `json:"updatedAt"`
	Version     int        `json:"version"`
	Overdue     bool       `json:"overdue"`
}

type TaskCreateDTO struct {
	Title       string     `json:"title" binding:"required"`
	Description *string    `json:"description"`
	Priority    string     `json:"priority"` // MEDIUM si se omite
	DueDate     *time.Time `json:"dueDate"`
	AssigneeID  *uuid.UUID `json:"assigneeId"`
}

// TaskUpdateDTO reemplaza todos los campos editables; los opcionales a null se borran.
type TaskUpdateDTO struct {
	Title       string     `json:"title" binding:"required"`
	Description *string    `json:"description"`
	Priority    string     `json:"priority" binding:"required"`
	Status      string     `json:"status" binding:"required"`
	DueDate     *time.Time `json:"dueDate"`
	AssigneeID  *uuid.UUID `json:"assigneeId"`
	Version     *int       `json:"version"`
}

type transitionRequest struct {
	Status string `json:"status" binding:"required"`
}

type assigneeRequest struct {
	AssigneeID *uuid.UUID `json:"assigneeId" binding:"required"`
}

type dueDateRequest struct {
	DueDate *time.Time `json:"dueDate"`
}

type daysUntilDueResponse struct {
	Days int `json:"days"`
}

type archivedTaskDTO struct {
	Task       TaskDTO   `json:"task"`
	ArchivedAt time.Time `json:"archivedAt"`
}

type dailyTrendDTO struct {
	Day       string `json:"day"`
	Created   int    `json:"created"`
	Completed int    `json:"completed"`
}

type statsDTO struct {
	AverageCompletionSeconds float64         `json:"averageCompletionSeconds"`
	Trend                    []dailyTrendDTO `json:"trend"`
}
