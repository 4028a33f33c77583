package mocks

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	taskDomain "github.com/davicafu/hexatask/internal/task/domain"
)

// MockTaskAnalytics registra las entradas del ciclo de vida.
type MockTaskAnalytics struct {
	mock.Mock
}

func (m *MockTaskAnalytics) LogBatch(ctx context.Context, entries []taskDomain.LifecycleEntry) error {
	args := m.Called(ctx, entries)
	return args.Error(0)
}

func (m *MockTaskAnalytics) GetAverageCompletionTime(ctx context.Context, start, end time.Time) (time.Duration, error) {
	args := m.Called(ctx, start, end)
	return args.Get(0).(time.Duration), args.Error(1)
}

func (m *MockTaskAnalytics) GetDailyTrend(ctx context.Context, start, end time.Time) ([]taskDomain.DailyTaskTrend, error) {
	args := m.Called(ctx, start, end)
	trend, _ := args.Get(0).([]taskDomain.DailyTaskTrend)
	return trend, args.Error(1)
}

// MockTaskArchive simula el archivo de tareas borradas.
type MockTaskArchive struct {
	mock.Mock
}

func (m *MockTaskArchive) Archive(ctx context.Context, t *taskDomain.Task, archivedAt time.Time) error {
	args := m.Called(ctx, t, archivedAt)
	return args.Error(0)
}

func (m *MockTaskArchive) List(ctx context.Context) ([]taskDomain.ArchivedTask, error) {
	args := m.Called(ctx)
	list, _ := args.Get(0).([]taskDomain.ArchivedTask)
	return list, args.Error(1)
}

var (
	_ taskDomain.TaskAnalyticsRepository = (*MockTaskAnalytics)(nil)
	_ taskDomain.TaskArchive             = (*MockTaskArchive)(nil)
)
