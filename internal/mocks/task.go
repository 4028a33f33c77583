package mocks

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	sharedDomain "github.com/davicafu/hexatask/internal/shared/domain"
	sharedQuery "github.com/davicafu/hexatask/internal/shared/infra/platform/query"
	taskDomain "github.com/davicafu/hexatask/internal/task/domain"
)

// InMemoryTaskRepo simula TaskRepository con outbox y control de versión.
// Guarda copias: mutar la tarea devuelta no cambia el repositorio.
type InMemoryTaskRepo struct {
	Tasks  map[uuid.UUID]*taskDomain.Task
	Outbox []sharedDomain.OutboxEvent
	mu     sync.Mutex

	// FailNext hace que la siguiente operación devuelva este error.
	FailNext error
}

func NewInMemoryTaskRepo() *InMemoryTaskRepo {
	return &InMemoryTaskRepo{
		Tasks:  make(map[uuid.UUID]*taskDomain.Task),
		Outbox: []sharedDomain.OutboxEvent{},
	}
}

var _ taskDomain.TaskRepository = (*InMemoryTaskRepo)(nil)

func (r *InMemoryTaskRepo) takeFailure() error {
	err := r.FailNext
	r.FailNext = nil
	return err
}

func (r *InMemoryTaskRepo) Create(ctx context.Context, t *taskDomain.Task, evt sharedDomain.OutboxEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.takeFailure(); err != nil {
		return err
	}
	if _, ok := r.Tasks[t.ID]; ok {
		return taskDomain.ErrTaskAlreadyExists
	}
	t.Version = 1
	r.Tasks[t.ID] = t.Clone()
	r.Outbox = append(r.Outbox, evt)
	return nil
}

func (r *InMemoryTaskRepo) GetByID(ctx context.Context, id uuid.UUID) (*taskDomain.Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.takeFailure(); err != nil {
		return nil, err
	}
	t, ok := r.Tasks[id]
	if !ok {
		return nil, taskDomain.ErrTaskNotFound
	}
	return t.Clone(), nil
}

func (r *InMemoryTaskRepo) Update(ctx context.Context, t *taskDomain.Task, evt sharedDomain.OutboxEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.takeFailure(); err != nil {
		return err
	}
	stored, ok := r.Tasks[t.ID]
	if !ok {
		return taskDomain.ErrTaskNotFound
	}
	if stored.Version != t.Version {
		return taskDomain.ErrTaskVersionConflict
	}
	t.Version++
	r.Tasks[t.ID] = t.Clone()
	r.Outbox = append(r.Outbox, evt)
	return nil
}

func (r *InMemoryTaskRepo) DeleteByID(ctx context.Context, id uuid.UUID, evt sharedDomain.OutboxEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.takeFailure(); err != nil {
		return err
	}
	if _, ok := r.Tasks[id]; !ok {
		return taskDomain.ErrTaskNotFound
	}
	delete(r.Tasks, id)
	r.Outbox = append(r.Outbox, evt)
	return nil
}

func (r *InMemoryTaskRepo) ListByCriteria(
	ctx context.Context,
	criteria sharedDomain.Criteria,
	pagination sharedQuery.Pagination,
	sorts sharedQuery.Sort,
) ([]*taskDomain.Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.takeFailure(); err != nil {
		return nil, err
	}

	var conds []sharedDomain.Criterion
	if criteria != nil {
		conds = criteria.ToConditions()
	}

	list := []*taskDomain.Task{}
	for _, task := range r.Tasks {
		if matchAll(task, conds) {
			list = append(list, task.Clone())
		}
	}

	sort.SliceStable(list, func(i, j int) bool {
		return compareTasks(list[i], list[j], sorts.Field, sorts.Desc)
	})

	if p, ok := pagination.(sharedQuery.OffsetPagination); ok {
		start := p.Offset
		if start > len(list) {
			return []*taskDomain.Task{}, nil
		}
		end := start + p.Limit
		if end > len(list) {
			end = len(list)
		}
		return list[start:end], nil
	}
	return list, nil
}

// EventTypes devuelve los tipos de evento del outbox en orden.
func (r *InMemoryTaskRepo) EventTypes() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	types := make([]string, 0, len(r.Outbox))
	for _, evt := range r.Outbox {
		types = append(types, evt.EventType)
	}
	return types
}

// --- Lógica de filtrado y ordenamiento del mock ---

func matchAll(t *taskDomain.Task, conds []sharedDomain.Criterion) bool {
	for _, cond := range conds {
		if !matchCriterion(t, cond) {
			return false
		}
	}
	return true
}

func matchCriterion(t *taskDomain.Task, cond sharedDomain.Criterion) bool {
	if cond.IsGroup() {
		for _, alt := range cond.AnyOf {
			if matchCriterion(t, alt) {
				return true
			}
		}
		return false
	}

	switch cond.Field {
	case taskDomain.FieldStatus:
		return compareOrdered(string(t.Status), fmt.Sprintf("%v", cond.Value), cond.Op)
	case taskDomain.FieldPriority:
		return compareOrdered(string(t.Priority), fmt.Sprintf("%v", cond.Value), cond.Op)
	case taskDomain.FieldAssigneeID:
		id, ok := cond.Value.(uuid.UUID)
		return ok && t.AssigneeID != nil && compareOrdered(t.AssigneeID.String(), id.String(), cond.Op)
	case taskDomain.FieldTitle:
		return matchText(&t.Title, cond)
	case taskDomain.FieldDescription:
		return matchText(t.Description, cond)
	case taskDomain.FieldCreatedAt:
		return matchTime(&t.CreatedAt, cond)
	case taskDomain.FieldUpdatedAt:
		return matchTime(&t.UpdatedAt, cond)
	case taskDomain.FieldDueDate:
		return matchTime(t.DueDate, cond)
	default:
		return false
	}
}

// matchText reproduce LIKE/ILIKE de SQL: NULL nunca coincide.
func matchText(field *string, cond sharedDomain.Criterion) bool {
	if field == nil {
		return false
	}
	pattern, ok := cond.Value.(string)
	if !ok {
		return false
	}
	switch cond.Op {
	case sharedDomain.OpLike:
		return strings.Contains(*field, likeLiteral(pattern))
	case sharedDomain.OpILike:
		return strings.Contains(strings.ToLower(*field), strings.ToLower(likeLiteral(pattern)))
	default:
		return compareOrdered(*field, pattern, cond.Op)
	}
}

var likeUnescaper = strings.NewReplacer(`\\`, `\`, `\%`, `%`, `\_`, `_`)

// likeLiteral quita el % de cada extremo y deshace el escape del contenido.
// Los patrones de los criterios siempre llegan como %texto%.
func likeLiteral(pattern string) string {
	pattern = strings.TrimSuffix(strings.TrimPrefix(pattern, "%"), "%")
	return likeUnescaper.Replace(pattern)
}

func matchTime(field *time.Time, cond sharedDomain.Criterion) bool {
	if field == nil {
		return false
	}
	v, ok := cond.Value.(time.Time)
	if !ok {
		return false
	}
	c := field.Compare(v)
	switch cond.Op {
	case sharedDomain.OpEq:
		return c == 0
	case sharedDomain.OpNe:
		return c != 0
	case sharedDomain.OpGt:
		return c > 0
	case sharedDomain.OpGte:
		return c >= 0
	case sharedDomain.OpLt:
		return c < 0
	case sharedDomain.OpLte:
		return c <= 0
	default:
		return false
	}
}

func compareOrdered(a, b string, op sharedDomain.Operator) bool {
	switch op {
	case sharedDomain.OpEq:
		return a == b
	case sharedDomain.OpNe:
		return a != b
	case sharedDomain.OpGt:
		return a > b
	case sharedDomain.OpGte:
		return a >= b
	case sharedDomain.OpLt:
		return a < b
	case sharedDomain.OpLte:
		return a <= b
	default:
		return false
	}
}

func compareTasks(t1, t2 *taskDomain.Task, field string, desc bool) bool {
	var result bool
	switch field {
	case taskDomain.FieldTitle:
		result = t1.Title < t2.Title
	case taskDomain.FieldStatus:
		result = t1.Status < t2.Status
	case taskDomain.FieldUpdatedAt:
		result = t1.UpdatedAt.Before(t2.UpdatedAt)
	case taskDomain.FieldDueDate:
		result = dueBefore(t1.DueDate, t2.DueDate)
	default: // created_at, como los repositorios reales
		result = t1.CreatedAt.Before(t2.CreatedAt)
	}
	if desc {
		return !result
	}
	return result
}

// dueBefore ordena las fechas nulas al final.
func dueBefore(a, b *time.Time) bool {
	switch {
	case a == nil:
		return false
	case b == nil:
		return true
	default:
		return a.Before(*b)
	}
}
