package application

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	sharedDomain "github.com/davicafu/hexatask/internal/shared/domain"
	sharedCache "github.com/davicafu/hexatask/internal/shared/infra/platform/cache"
	sharedQuery "github.com/davicafu/hexatask/internal/shared/infra/platform/query"
	sharedUtils "github.com/davicafu/hexatask/internal/shared/infra/utils"
	taskDomain "github.com/davicafu/hexatask/internal/task/domain"
)

const (
	defaultCacheTTL   = 120 // segundos
	maxVersionRetries = 3
	loadAttempts      = 3
	loadRetryDelay    = 100 * time.Millisecond
)

// TaskService define los casos de uso de Task.
// Incorpora repositorio, directorio de usuarios, caché y logger; analítica y archivo son opcionales.
type TaskService struct {
	repo      taskDomain.TaskRepository
	users     taskDomain.UserDirectory
	cache     sharedCache.Cache
	analytics taskDomain.TaskAnalyticsRepository
	archive   taskDomain.TaskArchive
	clock     taskDomain.Clock
	cacheTTL  int
	group     singleflight.Group
	log       *zap.Logger
}

type Option func(*TaskService)

func WithAnalytics(a taskDomain.TaskAnalyticsRepository) Option {
	return func(s *TaskService) { s.analytics = a }
}

func WithArchive(a taskDomain.TaskArchive) Option {
	return func(s *TaskService) { s.archive = a }
}

func WithClock(c taskDomain.Clock) Option {
	return func(s *TaskService) { s.clock = c }
}

// WithCacheTTL fija el TTL en segundos de las entradas cacheadas.
func WithCacheTTL(secs int) Option {
	return func(s *TaskService) {
		if secs > 0 {
			s.cacheTTL = secs
		}
	}
}

func NewTaskService(repo taskDomain.TaskRepository, users taskDomain.UserDirectory, cache sharedCache.Cache, log *zap.Logger, opts ...Option) *TaskService {
	s := &TaskService{
		repo:     repo,
		users:    users,
		cache:    cache,
		clock:    time.Now,
		cacheTTL: defaultCacheTTL,
		log:      log,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *TaskService) now() time.Time {
	return s.clock().UTC()
}

// CreateTask valida la petición, resuelve el responsable y guarda la tarea con su evento.
func (s *TaskService) CreateTask(ctx context.Context, in CreateTaskInput) (*taskDomain.Task, error) {
	var assignee taskDomain.AssignableUser
	if in.AssigneeID != nil {
		user, err := s.users.GetAssignable(ctx, *in.AssigneeID)
		if err != nil {
			return nil, err
		}
		assignee = user
	}

	task, err := BuildTask(in, assignee, s.now())
	if err != nil {
		return nil, err
	}
	task.ID = uuid.New()

	evt := sharedDomain.NewOutboxEvent(taskDomain.AggregateType, task.ID.String(), taskDomain.TaskCreated, taskDomain.CreatedEvent(task))
	if err := s.repo.Create(ctx, task, evt); err != nil {
		s.log.Error("Failed to create task", zap.String("task_id", task.ID.String()), zap.Error(err))
		return nil, err
	}

	s.logLifecycle(ctx, task, "")
	s.log.Info("✅ Task created", zap.String("task_id", task.ID.String()))
	return task, nil
}

// GetTaskByID usa cache-aside; los misses concurrentes de la misma clave comparten una sola lectura.
func (s *TaskService) GetTaskByID(ctx context.Context, id uuid.UUID) (*taskDomain.Task, error) {
	key := taskDomain.TaskCacheKeyByID(id)

	if s.cache != nil {
		var cached taskDomain.Task
		hit, err := s.cache.Get(ctx, key, &cached)
		if err != nil {
			s.log.Warn("Cache read failed", zap.String("key", key), zap.Error(err))
		}
		if hit {
			return &cached, nil
		}
	}

	v, err, _ := s.group.Do(key, func() (interface{}, error) {
		task, err := s.load(ctx, id)
		if err != nil {
			return nil, err
		}
		sharedCache.AsyncCacheSet(s.cache, key, task, s.cacheTTL, s.log)
		return task, nil
	})
	if err != nil {
		if errors.Is(err, taskDomain.ErrTaskNotFound) {
			s.log.Warn("Task not found", zap.String("task_id", id.String()))
		} else {
			s.log.Error("Failed to fetch task", zap.String("task_id", id.String()), zap.Error(err))
		}
		return nil, err
	}

	// copia: el resultado de singleflight se comparte entre llamantes
	task := v.(*taskDomain.Task).Clone()
	return task, nil
}

// UpdateTask reemplaza los campos editables. Si in.Version viene, debe coincidir con la almacenada.
func (s *TaskService) UpdateTask(ctx context.Context, id uuid.UUID, in UpdateTaskInput) (*taskDomain.Task, error) {
	return s.mutate(ctx, id, in.Version, func(t *taskDomain.Task, now time.Time) (string, interface{}, error) {
		var assignee taskDomain.AssignableUser
		if assigneeChanged(t, in.AssigneeID) {
			user, err := s.users.GetAssignable(ctx, *in.AssigneeID)
			if err != nil {
				return "", nil, err
			}
			assignee = user
		}
		if err := ApplyUpdate(t, in, assignee, now); err != nil {
			return "", nil, err
		}
		return taskDomain.TaskUpdated, taskDomain.UpdatedEvent(t), nil
	})
}

// DeleteTask archiva la tarea (sin bloquear si falla) y la elimina con su evento.
func (s *TaskService) DeleteTask(ctx context.Context, id uuid.UUID) error {
	task, err := s.load(ctx, id)
	if err != nil {
		return err
	}

	if s.archive != nil {
		if err := s.archive.Archive(ctx, task, s.now()); err != nil {
			s.log.Warn("⚠️ Failed to archive task", zap.String("task_id", id.String()), zap.Error(err))
		}
	}

	evt := sharedDomain.NewOutboxEvent(taskDomain.AggregateType, id.String(), taskDomain.TaskDeleted, taskDomain.DeletedEvent(id))
	if err := s.repo.DeleteByID(ctx, id, evt); err != nil {
		s.log.Error("Failed to delete task", zap.String("task_id", id.String()), zap.Error(err))
		return err
	}

	sharedCache.Invalidate(s.cache, taskDomain.TaskCacheKeyByID(id), s.log)
	return nil
}

// --- Operaciones del ciclo de vida ---

func (s *TaskService) AssignTask(ctx context.Context, id, userID uuid.UUID) (*taskDomain.Task, error) {
	return s.mutate(ctx, id, nil, func(t *taskDomain.Task, now time.Time) (string, interface{}, error) {
		user, err := s.users.GetAssignable(ctx, userID)
		if err != nil {
			return "", nil, err
		}
		if err := t.AssignTo(user, now); err != nil {
			return "", nil, err
		}
		return taskDomain.TaskAssigned, taskDomain.AssignedEvent(t), nil
	})
}

func (s *TaskService) UnassignTask(ctx context.Context, id uuid.UUID) (*taskDomain.Task, error) {
	return s.mutate(ctx, id, nil, func(t *taskDomain.Task, now time.Time) (string, interface{}, error) {
		t.Unassign(now)
		return taskDomain.TaskAssigned, taskDomain.AssignedEvent(t), nil
	})
}

func (s *TaskService) TransitionTask(ctx context.Context, id uuid.UUID, next taskDomain.TaskStatus) (*taskDomain.Task, error) {
	return s.mutate(ctx, id, nil, func(t *taskDomain.Task, now time.Time) (string, interface{}, error) {
		from := t.Status
		if err := t.TransitionTo(next, now); err != nil {
			return "", nil, err
		}
		return taskDomain.TaskStatusChanged, taskDomain.StatusChangedEvent(t, from), nil
	})
}

func (s *TaskService) CompleteTask(ctx context.Context, id uuid.UUID) (*taskDomain.Task, error) {
	return s.TransitionTask(ctx, id, taskDomain.StatusDone)
}

// UpdateDueDate reemplaza la fecha límite; nil la elimina.
func (s *TaskService) UpdateDueDate(ctx context.Context, id uuid.UUID, due *time.Time) (*taskDomain.Task, error) {
	return s.mutate(ctx, id, nil, func(t *taskDomain.Task, now time.Time) (string, interface{}, error) {
		t.UpdateDueDate(due, now)
		return taskDomain.TaskUpdated, taskDomain.UpdatedEvent(t), nil
	})
}

// DaysUntilDue lee del repositorio y no de la caché: una entrada cacheada puede
// llevar una fecha límite anterior.
func (s *TaskService) DaysUntilDue(ctx context.Context, id uuid.UUID) (int, error) {
	task, err := s.load(ctx, id)
	if err != nil {
		return 0, err
	}
	return task.DaysUntilDue(s.now())
}

// ReleaseTasksOfUser desasigna las tareas abiertas de un usuario. Devuelve cuántas liberó.
func (s *TaskService) ReleaseTasksOfUser(ctx context.Context, userID uuid.UUID) (int, error) {
	criteria := sharedDomain.And(
		taskDomain.AssigneeIDCriteria{ID: userID},
		taskDomain.NotDoneCriteria{},
	)
	tasks, err := s.repo.ListByCriteria(ctx, criteria, nil, sharedQuery.Sort{Field: taskDomain.FieldCreatedAt})
	if err != nil {
		return 0, err
	}

	released := 0
	var errs []error
	for _, t := range tasks {
		_, err := s.mutate(ctx, t.ID, nil, func(t *taskDomain.Task, now time.Time) (string, interface{}, error) {
			t.Unassign(now)
			return taskDomain.TaskAssigned, taskDomain.AssignedEvent(t), nil
		})
		switch {
		case err == nil:
			released++
		case errors.Is(err, taskDomain.ErrTaskNotFound):
			// borrada entre el listado y la escritura
		default:
			errs = append(errs, err)
		}
	}

	s.log.Info("Released tasks of user",
		zap.String("user_id", userID.String()),
		zap.Int("released", released))
	return released, errors.Join(errs...)
}

// --- Helpers internos ---

// mutation cambia la tarea cargada y devuelve el tipo y payload del evento a guardar.
type mutation func(t *taskDomain.Task, now time.Time) (string, interface{}, error)

// mutate carga, aplica y guarda. Sin versión esperada, un conflicto de versión
// se reintenta sobre la tarea recién leída.
func (s *TaskService) mutate(ctx context.Context, id uuid.UUID, expectedVersion *int, fn mutation) (*taskDomain.Task, error) {
	attempts := maxVersionRetries
	if expectedVersion != nil {
		attempts = 1
	}

	for attempt := 1; ; attempt++ {
		task, err := s.load(ctx, id)
		if err != nil {
			return nil, err
		}
		if expectedVersion != nil && *expectedVersion != task.Version {
			return nil, taskDomain.ErrTaskVersionConflict
		}

		from := task.Status
		eventType, payload, err := fn(task, s.now())
		if err != nil {
			return nil, err
		}

		evt := sharedDomain.NewOutboxEvent(taskDomain.AggregateType, id.String(), eventType, payload)
		err = s.repo.Update(ctx, task, evt)
		if errors.Is(err, taskDomain.ErrTaskVersionConflict) && attempt < attempts {
			s.log.Debug("Version conflict, retrying",
				zap.String("task_id", id.String()),
				zap.Int("attempt", attempt))
			continue
		}
		if err != nil {
			if !errors.Is(err, taskDomain.ErrTaskVersionConflict) {
				s.log.Error("Failed to update task", zap.String("task_id", id.String()), zap.Error(err))
			}
			return nil, err
		}

		sharedCache.Invalidate(s.cache, taskDomain.TaskCacheKeyByID(id), s.log)
		if task.Status != from {
			s.logLifecycle(ctx, task, from)
		}
		return task, nil
	}
}

// load lee del repositorio, reintentando solo fallos transitorios.
func (s *TaskService) load(ctx context.Context, id uuid.UUID) (*taskDomain.Task, error) {
	var task *taskDomain.Task
	err := sharedUtils.Retry(ctx, loadAttempts, loadRetryDelay, isTransient, func() error {
		var errRetry error
		task, errRetry = s.repo.GetByID(ctx, id)
		return errRetry
	})
	return task, err
}

func isTransient(err error) bool {
	return !errors.Is(err, taskDomain.ErrTaskNotFound) &&
		!errors.Is(err, context.Canceled) &&
		!errors.Is(err, context.DeadlineExceeded)
}

// logLifecycle registra el cambio de estado en analítica. Un fallo solo se registra.
func (s *TaskService) logLifecycle(ctx context.Context, t *taskDomain.Task, from taskDomain.TaskStatus) {
	if s.analytics == nil {
		return
	}
	entry := taskDomain.NewLifecycleEntry(t, from)
	if err := s.analytics.LogBatch(ctx, []taskDomain.LifecycleEntry{entry}); err != nil {
		s.log.Warn("⚠️ Failed to log task lifecycle", zap.String("task_id", t.ID.String()), zap.Error(err))
	}
}

// Now expone el reloj del servicio a los adaptadores que calculan predicados.
func (s *TaskService) Now() time.Time {
	return s.now()
}
