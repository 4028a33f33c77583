package domain

import (
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
)

const (
	MaxTitleLength       = 100
	MaxDescriptionLength = 500
)

// Task es una unidad de trabajo. Es un valor plano: sin locks ni I/O.
// Las mutaciones pasan por los métodos, que reciben el instante actual.
type Task struct {
	ID          uuid.UUID // uuid.Nil hasta que se persiste
	Title       string
	Description *string
	Priority    TaskPriority
	Status      TaskStatus
	CreatedAt   time.Time
	DueDate     *time.Time
	AssigneeID  *uuid.UUID
	UpdatedAt   time.Time
	Version     int // control optimista; lo gestiona el repositorio
}

// Clock devuelve el instante actual. En producción es time.Now.
type Clock func() time.Time

// AssignableUser es la capacidad mínima que la tarea necesita de un usuario.
type AssignableUser interface {
	UserID() uuid.UUID
	IsActive() bool
}

// NewTask valida los campos y crea la tarea en TODO y sin asignar.
func NewTask(title string, description *string, priority TaskPriority, now time.Time) (*Task, error) {
	if err := validateTitle(title); err != nil {
		return nil, err
	}
	if err := validateDescription(description); err != nil {
		return nil, err
	}
	if !priority.Valid() {
		return nil, &ValidationError{Field: "priority", Reason: "must be one of LOW, MEDIUM, HIGH"}
	}

	return &Task{
		Title:       title,
		Description: copyString(description),
		Priority:    priority,
		Status:      StatusTodo,
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}

// Clone copia también los campos opcionales.
func (t *Task) Clone() *Task {
	c := *t
	c.Description = copyString(t.Description)
	if t.DueDate != nil {
		d := *t.DueDate
		c.DueDate = &d
	}
	if t.AssigneeID != nil {
		id := *t.AssigneeID
		c.AssigneeID = &id
	}
	return &c
}

// --- Predicados ---

// IsOverdue: hay fecha límite, no está terminada y la fecha ya pasó.
func (t *Task) IsOverdue(now time.Time) bool {
	if t.DueDate == nil || t.Status == StatusDone {
		return false
	}
	return t.DueDate.Before(now)
}

// DaysUntilDue cuenta días completos hasta la fecha límite, truncando hacia cero.
// Es negativo si la fecha ya pasó.
func (t *Task) DaysUntilDue(now time.Time) (int, error) {
	if t.DueDate == nil {
		return 0, ErrNoDueDateSet
	}
	return int(t.DueDate.Sub(now) / (24 * time.Hour)), nil
}

// CanBeAssignedTo no muta la tarea.
func (t *Task) CanBeAssignedTo(user AssignableUser) bool {
	return t.Status != StatusDone && user != nil && user.IsActive()
}

// --- Mutaciones ---

func (t *Task) AssignTo(user AssignableUser, now time.Time) error {
	if !t.CanBeAssignedTo(user) {
		return &AssignmentRejected{
			TaskStatus: t.Status,
			UserActive: user != nil && user.IsActive(),
		}
	}
	id := user.UserID()
	t.AssigneeID = &id
	t.UpdatedAt = now
	return nil
}

func (t *Task) Unassign(now time.Time) {
	t.AssigneeID = nil
	t.UpdatedAt = now
}

// TransitionTo aplica la máquina de estados. Si falla, la tarea no cambia.
func (t *Task) TransitionTo(next TaskStatus, now time.Time) error {
	if !next.Valid() {
		return &ValidationError{Field: "status", Reason: "must be one of TODO, IN_PROGRESS, DONE"}
	}
	if !t.Status.CanTransitionTo(next) {
		return &InvalidStateTransition{From: t.Status, To: next}
	}
	t.Status = next
	t.UpdatedAt = now
	return nil
}

func (t *Task) Start(now time.Time) error {
	return t.TransitionTo(StatusInProgress, now)
}

func (t *Task) Complete(now time.Time) error {
	return t.TransitionTo(StatusDone, now)
}

// Reopen retrocede un paso: DONE -> IN_PROGRESS o IN_PROGRESS -> TODO.
func (t *Task) Reopen(now time.Time) error {
	prev, ok := t.Status.previous()
	if !ok {
		return &InvalidStateTransition{From: t.Status, To: prev}
	}
	return t.TransitionTo(prev, now)
}

// UpdateDueDate reemplaza la fecha límite sin restricciones; nil la elimina.
func (t *Task) UpdateDueDate(due *time.Time, now time.Time) {
	if due == nil {
		t.DueDate = nil
	} else {
		d := *due
		t.DueDate = &d
	}
	t.UpdatedAt = now
}

// UpdateDetails valida ambos campos antes de tocar nada.
func (t *Task) UpdateDetails(title string, description *string, now time.Time) error {
	if err := validateTitle(title); err != nil {
		return err
	}
	if err := validateDescription(description); err != nil {
		return err
	}
	t.Title = title
	t.Description = copyString(description)
	t.UpdatedAt = now
	return nil
}

func (t *Task) ChangePriority(p TaskPriority, now time.Time) error {
	if !p.Valid() {
		return &ValidationError{Field: "priority", Reason: "must be one of LOW, MEDIUM, HIGH"}
	}
	t.Priority = p
	t.UpdatedAt = now
	return nil
}

// --- Validación ---

func validateTitle(title string) error {
	if title == "" {
		return &ValidationError{Field: "title", Reason: "must not be empty"}
	}
	if utf8.RuneCountInString(title) > MaxTitleLength {
		return &ValidationError{Field: "title", Reason: "must be at most 100 characters"}
	}
	return nil
}

func validateDescription(description *string) error {
	if description != nil && utf8.RuneCountInString(*description) > MaxDescriptionLength {
		return &ValidationError{Field: "description", Reason: "must be at most 500 characters"}
	}
	return nil
}

func copyString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}
