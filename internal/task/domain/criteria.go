package domain

import (
	"time"

	"github.com/google/uuid"

	shared "github.com/davicafu/hexatask/internal/shared/domain"
)

// Campos neutrales que entienden los adaptadores de persistencia.
const (
	FieldID          = "id"
	FieldTitle       = "title"
	FieldDescription = "description"
	FieldPriority    = "priority"
	FieldStatus      = "status"
	FieldCreatedAt   = "created_at"
	FieldUpdatedAt   = "updated_at"
	FieldDueDate     = "due_date"
	FieldAssigneeID  = "assignee_id"
)

// SortableFields son los campos por los que se puede ordenar un listado.
// La prioridad no se incluye: su orden lexicográfico no es su orden de urgencia.
var SortableFields = map[string]bool{
	FieldTitle:     true,
	FieldStatus:    true,
	FieldCreatedAt: true,
	FieldUpdatedAt: true,
	FieldDueDate:   true,
}

// --- Criterios específicos para Task ---

// StatusCriteria busca tareas por estado.
type StatusCriteria struct {
	Status TaskStatus
}

func (c StatusCriteria) ToConditions() []shared.Criterion {
	return []shared.Criterion{
		{Field: FieldStatus, Op: shared.OpEq, Value: c.Status},
	}
}

// NotDoneCriteria excluye las tareas terminadas.
type NotDoneCriteria struct{}

func (NotDoneCriteria) ToConditions() []shared.Criterion {
	return []shared.Criterion{
		{Field: FieldStatus, Op: shared.OpNe, Value: StatusDone},
	}
}

// -----------------------------------------------------------

type PriorityCriteria struct {
	Priority TaskPriority
}

func (c PriorityCriteria) ToConditions() []shared.Criterion {
	return []shared.Criterion{
		{Field: FieldPriority, Op: shared.OpEq, Value: c.Priority},
	}
}

// -----------------------------------------------------------

// AssigneeIDCriteria busca tareas asignadas a un usuario.
type AssigneeIDCriteria struct {
	ID uuid.UUID
}

func (c AssigneeIDCriteria) ToConditions() []shared.Criterion {
	return []shared.Criterion{
		{Field: FieldAssigneeID, Op: shared.OpEq, Value: c.ID},
	}
}

// -----------------------------------------------------------

// KeywordCriteria busca el texto en el título o en la descripción, sin distinguir mayúsculas.
type KeywordCriteria struct {
	Keyword string
}

func (c KeywordCriteria) ToConditions() []shared.Criterion {
	pattern := "%" + shared.EscapeLike(c.Keyword) + "%"
	return shared.Or(
		fieldCriteria{Field: FieldTitle, Op: shared.OpILike, Value: pattern},
		fieldCriteria{Field: FieldDescription, Op: shared.OpILike, Value: pattern},
	).ToConditions()
}

// -----------------------------------------------------------

// DueDateRangeCriteria filtra por fecha límite. Ambos extremos son opcionales y exclusivos.
// Las tareas sin fecha límite nunca coinciden.
type DueDateRangeCriteria struct {
	After  *time.Time
	Before *time.Time
}

func (c DueDateRangeCriteria) ToConditions() []shared.Criterion {
	var conds []shared.Criterion
	if c.After != nil {
		conds = append(conds, shared.Criterion{Field: FieldDueDate, Op: shared.OpGt, Value: *c.After})
	}
	if c.Before != nil {
		conds = append(conds, shared.Criterion{Field: FieldDueDate, Op: shared.OpLt, Value: *c.Before})
	}
	return conds
}

// CreatedAtRangeCriteria busca tareas creadas en un rango de fechas (inclusivo).
type CreatedAtRangeCriteria struct {
	Start *time.Time
	End   *time.Time
}

func (c CreatedAtRangeCriteria) ToConditions() []shared.Criterion {
	var conds []shared.Criterion
	if c.Start != nil {
		conds = append(conds, shared.Criterion{Field: FieldCreatedAt, Op: shared.OpGte, Value: *c.Start})
	}
	if c.End != nil {
		conds = append(conds, shared.Criterion{Field: FieldCreatedAt, Op: shared.OpLte, Value: *c.End})
	}
	return conds
}

// OverdueCriteria es la versión consultable de Task.IsOverdue.
type OverdueCriteria struct {
	Now time.Time
}

func (c OverdueCriteria) ToConditions() []shared.Criterion {
	return shared.And(
		DueDateRangeCriteria{Before: &c.Now},
		NotDoneCriteria{},
	).ToConditions()
}

// -----------------------------------------------------------

type fieldCriteria shared.Criterion

func (c fieldCriteria) ToConditions() []shared.Criterion {
	return []shared.Criterion{shared.Criterion(c)}
}
