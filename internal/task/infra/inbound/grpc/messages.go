package grpc

import (
	"time"

	taskDomain "github.com/davicafu/hexatask/internal/task/domain"
)

type CreateTaskRequest struct {
	Title       string     `json:"title"`
	Description *string    `json:"description,omitempty"`
	Priority    string     `json:"priority,omitempty"`
	DueDate     *time.Time `json:"due_date,omitempty"`
	AssigneeID  string     `json:"assignee_id,omitempty"`
}

type GetTaskRequest struct {
	ID string `json:"id"`
}

type TransitionTaskRequest struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}

type AssignTaskRequest struct {
	ID         string `json:"id"`
	AssigneeID string `json:"assignee_id"`
}

// TaskReply es la respuesta común de todos los métodos.
type TaskReply struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Description *string    `json:"description,omitempty"`
	Priority    string     `json:"priority"`
	Status      string     `json:"status"`
	CreatedDate time.Time  `json:"created_date"`
	DueDate     *time.Time `json:"due_date,omitempty"`
	AssigneeID  string     `json:"assignee_id,omitempty"`
	Version     int        `json:"version"`
	Overdue     bool       `json:"overdue"`
}

func toReply(t *taskDomain.Task, now time.Time) *TaskReply {
	reply := &TaskReply{
		ID:          t.ID.String(),
		Title:       t.Title,
		Description: t.Description,
		Priority:    t.Priority.String(),
		Status:      t.Status.String(),
		CreatedDate: t.CreatedAt,
		DueDate:     t.DueDate,
		Version:     t.Version,
		Overdue:     t.IsOverdue(now),
	}
	if t.AssigneeID != nil {
		reply.AssigneeID = t.AssigneeID.String()
	}
	return reply
}
