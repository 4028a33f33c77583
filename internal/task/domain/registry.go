package domain

import (
	"reflect"

	"github.com/google/uuid"

	sharedEvents "github.com/davicafu/hexatask/internal/shared/domain/events"
)

const AggregateType = "task"

// Tipos de evento de integración del contexto Task.
const (
	TaskCreated       = "task.created"
	TaskUpdated       = "task.updated"
	TaskStatusChanged = "task.status_changed"
	TaskAssigned      = "task.assigned"
	TaskDeleted       = "task.deleted"
)

const TaskTopic = "task.events"

func NewEventRegistry() map[string]sharedEvents.EventMetadata {
	return map[string]sharedEvents.EventMetadata{
		TaskCreated: {
			Type:  reflect.TypeOf(sharedEvents.TaskCreated{}),
			Topic: TaskTopic,
		},
		TaskUpdated: {
			Type:  reflect.TypeOf(sharedEvents.TaskUpdated{}),
			Topic: TaskTopic,
		},
		TaskStatusChanged: {
			Type:  reflect.TypeOf(sharedEvents.TaskStatusChanged{}),
			Topic: TaskTopic,
		},
		TaskAssigned: {
			Type:  reflect.TypeOf(sharedEvents.TaskAssigned{}),
			Topic: TaskTopic,
		},
		TaskDeleted: {
			Type:  reflect.TypeOf(sharedEvents.TaskDeleted{}),
			Topic: TaskTopic,
		},
	}
}

// --- Constructores de payload ---

func CreatedEvent(t *Task) sharedEvents.TaskCreated {
	return sharedEvents.TaskCreated{
		ID:         t.ID,
		Title:      t.Title,
		Priority:   t.Priority.String(),
		Status:     t.Status.String(),
		DueDate:    t.DueDate,
		AssigneeID: t.AssigneeID,
		CreatedAt:  t.CreatedAt,
	}
}

// UpdatedEvent lleva la versión que tendrá la tarea tras guardarse.
func UpdatedEvent(t *Task) sharedEvents.TaskUpdated {
	return sharedEvents.TaskUpdated{
		ID:          t.ID,
		Title:       t.Title,
		Description: t.Description,
		Priority:    t.Priority.String(),
		Status:      t.Status.String(),
		DueDate:     t.DueDate,
		AssigneeID:  t.AssigneeID,
		Version:     t.Version + 1,
		UpdatedAt:   t.UpdatedAt,
	}
}

func StatusChangedEvent(t *Task, from TaskStatus) sharedEvents.TaskStatusChanged {
	return sharedEvents.TaskStatusChanged{
		ID:        t.ID,
		From:      from.String(),
		To:        t.Status.String(),
		ChangedAt: t.UpdatedAt,
	}
}

func AssignedEvent(t *Task) sharedEvents.TaskAssigned {
	return sharedEvents.TaskAssigned{
		ID:         t.ID,
		AssigneeID: t.AssigneeID,
		AssignedAt: t.UpdatedAt,
	}
}

func DeletedEvent(id uuid.UUID) sharedEvents.TaskDeleted {
	return sharedEvents.TaskDeleted{ID: id}
}
