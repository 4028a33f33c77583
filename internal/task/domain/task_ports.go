package domain

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	sharedDomain "github.com/davicafu/hexatask/internal/shared/domain"
	sharedQuery "github.com/davicafu/hexatask/internal/shared/infra/platform/query"
)

// --- Repositorio de Tasks ---

// TaskRepository persiste tareas y su evento de outbox en la misma transacción.
//
// Create fija Version a 1. Update solo escribe si la versión almacenada coincide con
// t.Version y, si lo consigue, la incrementa en t; si no coincide devuelve
// ErrTaskVersionConflict.
type TaskRepository interface {
	Create(ctx context.Context, t *Task, evt sharedDomain.OutboxEvent) error
	Update(ctx context.Context, t *Task, evt sharedDomain.OutboxEvent) error
	GetByID(ctx context.Context, id uuid.UUID) (*Task, error)
	ListByCriteria(ctx context.Context, criteria sharedDomain.Criteria, pagination sharedQuery.Pagination, sort sharedQuery.Sort) ([]*Task, error)
	DeleteByID(ctx context.Context, id uuid.UUID, evt sharedDomain.OutboxEvent) error
}

// --- Analítica ---

// DailyTaskTrend transporta los resultados de la consulta de tendencia.
type DailyTaskTrend struct {
	Day            time.Time
	CreatedCount   int
	CompletedCount int
}

// LifecycleEntry es una fila del registro de cambios de estado.
type LifecycleEntry struct {
	TaskID     uuid.UUID
	FromStatus TaskStatus // vacío en la creación
	ToStatus   TaskStatus
	Priority   TaskPriority
	CreatedAt  time.Time
	ChangedAt  time.Time
}

// NewLifecycleEntry captura el estado actual de la tarea tras un cambio.
func NewLifecycleEntry(t *Task, from TaskStatus) LifecycleEntry {
	return LifecycleEntry{
		TaskID:     t.ID,
		FromStatus: from,
		ToStatus:   t.Status,
		Priority:   t.Priority,
		CreatedAt:  t.CreatedAt,
		ChangedAt:  t.UpdatedAt,
	}
}

type TaskAnalyticsRepository interface {
	LogBatch(ctx context.Context, entries []LifecycleEntry) error
	GetAverageCompletionTime(ctx context.Context, start, end time.Time) (time.Duration, error)
	GetDailyTrend(ctx context.Context, start, end time.Time) ([]DailyTaskTrend, error)
}

// --- Archivo de tareas borradas ---

type ArchivedTask struct {
	Task       *Task
	ArchivedAt time.Time
}

type TaskArchive interface {
	Archive(ctx context.Context, t *Task, archivedAt time.Time) error
	List(ctx context.Context) ([]ArchivedTask, error)
}

// --- Colaborador de usuarios ---

// UserDirectory resuelve usuarios asignables. Devuelve ErrUserNotFound si no existe.
type UserDirectory interface {
	GetAssignable(ctx context.Context, id uuid.UUID) (AssignableUser, error)
}

// ---------- Helpers comunes ----------

func TaskCacheKeyByID(id uuid.UUID) string {
	return fmt.Sprintf("task:id:%s", id.String())
}
