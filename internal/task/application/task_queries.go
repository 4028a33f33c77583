package application

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	sharedQuery "github.com/davicafu/hexatask/internal/shared/infra/platform/query"
	taskDomain "github.com/davicafu/hexatask/internal/task/domain"
)

// ErrAnalyticsUnavailable indica que el servicio se construyó sin analítica.
var ErrAnalyticsUnavailable = errors.New("task analytics not configured")

// TaskStats resume la analítica de un rango de fechas.
type TaskStats struct {
	AverageCompletion time.Duration
	Trend             []taskDomain.DailyTaskTrend
}

// ListTasks aplica filtros, paginación y orden sobre el repositorio.
func (s *TaskService) ListTasks(ctx context.Context, filter TaskFilter, page sharedQuery.OffsetPagination, sort sharedQuery.Sort) ([]*taskDomain.Task, error) {
	if sort.Field == "" {
		sort.Field = taskDomain.FieldCreatedAt
	}
	if !taskDomain.SortableFields[sort.Field] {
		return nil, &taskDomain.ValidationError{Field: "sort_field", Reason: "unsupported sort field " + sort.Field}
	}
	return s.repo.ListByCriteria(ctx, filter.Criteria(), page.Normalize(), sort)
}

// SearchTasks busca la palabra clave en título o descripción.
func (s *TaskService) SearchTasks(ctx context.Context, keyword string, page sharedQuery.OffsetPagination) ([]*taskDomain.Task, error) {
	keyword = strings.TrimSpace(keyword)
	if keyword == "" {
		return nil, &taskDomain.ValidationError{Field: "keyword", Reason: "must not be empty"}
	}
	return s.ListTasks(ctx, TaskFilter{Keyword: keyword}, page, sharedQuery.Sort{})
}

// GetOverdueTasks ordena por fecha límite, las más antiguas primero.
func (s *TaskService) GetOverdueTasks(ctx context.Context, page sharedQuery.OffsetPagination) ([]*taskDomain.Task, error) {
	criteria := taskDomain.OverdueCriteria{Now: s.now()}
	return s.repo.ListByCriteria(ctx, criteria, page.Normalize(), sharedQuery.Sort{Field: taskDomain.FieldDueDate})
}

// GetTasksForUser falla con ErrUserNotFound si el usuario no existe.
func (s *TaskService) GetTasksForUser(ctx context.Context, userID uuid.UUID, page sharedQuery.OffsetPagination) ([]*taskDomain.Task, error) {
	if _, err := s.users.GetAssignable(ctx, userID); err != nil {
		return nil, err
	}
	return s.ListTasks(ctx, TaskFilter{AssigneeID: &userID}, page, sharedQuery.Sort{})
}

// ListArchived devuelve las tareas borradas; vacío si no hay archivo configurado.
func (s *TaskService) ListArchived(ctx context.Context) ([]taskDomain.ArchivedTask, error) {
	if s.archive == nil {
		return []taskDomain.ArchivedTask{}, nil
	}
	return s.archive.List(ctx)
}

// Stats consulta el tiempo medio de finalización y la tendencia diaria en [from, to).
func (s *TaskService) Stats(ctx context.Context, from, to time.Time) (*TaskStats, error) {
	if s.analytics == nil {
		return nil, ErrAnalyticsUnavailable
	}
	if !from.Before(to) {
		return nil, &taskDomain.ValidationError{Field: "from", Reason: "must be before to"}
	}

	avg, err := s.analytics.GetAverageCompletionTime(ctx, from, to)
	if err != nil {
		s.log.Error("Failed to query average completion time", zap.Error(err))
		return nil, err
	}
	trend, err := s.analytics.GetDailyTrend(ctx, from, to)
	if err != nil {
		s.log.Error("Failed to query daily trend", zap.Error(err))
		return nil, err
	}
	return &TaskStats{AverageCompletion: avg, Trend: trend}, nil
}
