package application

import (
	"time"

	"github.com/google/uuid"

	sharedDomain "github.com/davicafu/hexatask/internal/shared/domain"
	taskDomain "github.com/davicafu/hexatask/internal/task/domain"
)

// CreateTaskInput son los datos de alta ya parseados por el transporte.
type CreateTaskInput struct {
	Title       string
	Description *string
	Priority    taskDomain.TaskPriority
	DueDate     *time.Time
	AssigneeID  *uuid.UUID
}

// UpdateTaskInput reemplaza los campos editables. Version, si viene, debe coincidir
// con la almacenada.
type UpdateTaskInput struct {
	Title       string
	Description *string
	Priority    taskDomain.TaskPriority
	Status      taskDomain.TaskStatus
	DueDate     *time.Time
	AssigneeID  *uuid.UUID
	Version     *int
}

// TaskFilter agrupa los filtros opcionales de un listado.
type TaskFilter struct {
	Status      *taskDomain.TaskStatus
	Priority    *taskDomain.TaskPriority
	AssigneeID  *uuid.UUID
	Keyword     string
	DueBefore   *time.Time
	DueAfter    *time.Time
	CreatedFrom *time.Time
	CreatedTo   *time.Time
}

// Criteria traduce el filtro a criterios neutrales.
func (f TaskFilter) Criteria() sharedDomain.Criteria {
	var crits []sharedDomain.Criteria
	if f.Status != nil {
		crits = append(crits, taskDomain.StatusCriteria{Status: *f.Status})
	}
	if f.Priority != nil {
		crits = append(crits, taskDomain.PriorityCriteria{Priority: *f.Priority})
	}
	if f.AssigneeID != nil {
		crits = append(crits, taskDomain.AssigneeIDCriteria{ID: *f.AssigneeID})
	}
	if f.Keyword != "" {
		crits = append(crits, taskDomain.KeywordCriteria{Keyword: f.Keyword})
	}
	if f.DueBefore != nil || f.DueAfter != nil {
		crits = append(crits, taskDomain.DueDateRangeCriteria{Before: f.DueBefore, After: f.DueAfter})
	}
	if f.CreatedFrom != nil || f.CreatedTo != nil {
		crits = append(crits, taskDomain.CreatedAtRangeCriteria{Start: f.CreatedFrom, End: f.CreatedTo})
	}
	return sharedDomain.And(crits...)
}

// BuildTask construye la tarea de un alta. assignee debe ser el usuario de
// in.AssigneeID, o nil si no se pide asignación.
func BuildTask(in CreateTaskInput, assignee taskDomain.AssignableUser, now time.Time) (*taskDomain.Task, error) {
	task, err := taskDomain.NewTask(in.Title, in.Description, in.Priority, now)
	if err != nil {
		return nil, err
	}
	if in.DueDate != nil {
		task.UpdateDueDate(in.DueDate, now)
	}
	if in.AssigneeID != nil {
		if err := task.AssignTo(assignee, now); err != nil {
			return nil, err
		}
	}
	return task, nil
}

// ApplyUpdate aplica in sobre t por las operaciones del modelo.
// Es todo o nada: si algo falla, t queda como estaba.
func ApplyUpdate(t *taskDomain.Task, in UpdateTaskInput, assignee taskDomain.AssignableUser, now time.Time) error {
	work := *t

	if err := work.UpdateDetails(in.Title, in.Description, now); err != nil {
		return err
	}
	if err := work.ChangePriority(in.Priority, now); err != nil {
		return err
	}
	if in.Status != work.Status {
		if err := work.TransitionTo(in.Status, now); err != nil {
			return err
		}
	}
	work.UpdateDueDate(in.DueDate, now)

	switch {
	case in.AssigneeID == nil:
		if work.AssigneeID != nil {
			work.Unassign(now)
		}
	case work.AssigneeID == nil || *work.AssigneeID != *in.AssigneeID:
		if err := work.AssignTo(assignee, now); err != nil {
			return err
		}
	}

	*t = work
	return nil
}

// assigneeChanged indica si la actualización pide un responsable distinto.
func assigneeChanged(t *taskDomain.Task, requested *uuid.UUID) bool {
	if requested == nil {
		return false
	}
	return t.AssigneeID == nil || *t.AssigneeID != *requested
}
