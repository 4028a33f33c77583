package application

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/davicafu/hexatask/internal/mocks"
	sharedDomain "github.com/davicafu/hexatask/internal/shared/domain"
	sharedQuery "github.com/davicafu/hexatask/internal/shared/infra/platform/query"
	taskDomain "github.com/davicafu/hexatask/internal/task/domain"
	userDomain "github.com/davicafu/hexatask/internal/user/domain"
)

var fixedNow = time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)

func fixedClock() time.Time { return fixedNow }

type fixture struct {
	repo     *mocks.InMemoryTaskRepo
	cache    *mocks.DummyCache
	users    *mocks.StaticUserDirectory
	active   *userDomain.User
	inactive *userDomain.User
	svc      *TaskService
}

func newFixture(t *testing.T, opts ...Option) *fixture {
	t.Helper()
	active, err := userDomain.NewUser("ana@example.com", "Ana", fixedNow)
	require.NoError(t, err)
	active.ID = uuid.New()
	inactive, err := userDomain.NewUser("bob@example.com", "Bob", fixedNow)
	require.NoError(t, err)
	inactive.ID = uuid.New()
	inactive.Deactivate(fixedNow)

	f := &fixture{
		repo:     mocks.NewInMemoryTaskRepo(),
		cache:    mocks.NewDummyCache(),
		users:    mocks.NewStaticUserDirectory(active, inactive),
		active:   active,
		inactive: inactive,
	}
	opts = append([]Option{WithClock(fixedClock)}, opts...)
	f.svc = NewTaskService(f.repo, f.users, f.cache, zap.NewNop(), opts...)
	return f
}

func (f *fixture) create(t *testing.T, title string) *taskDomain.Task {
	t.Helper()
	task, err := f.svc.CreateTask(context.Background(), CreateTaskInput{Title: title, Priority: taskDomain.PriorityMedium})
	require.NoError(t, err)
	return task
}

func TestCreateTask_PersistsWithOutboxEvent(t *testing.T) {
	// Arrange
	f := newFixture(t)
	ctx := context.Background()
	due := fixedNow.Add(48 * time.Hour)

	// Act
	task, err := f.svc.CreateTask(ctx, CreateTaskInput{
		Title:      "Write report",
		Priority:   taskDomain.PriorityHigh,
		DueDate:    &due,
		AssigneeID: &f.active.ID,
	})

	// Assert
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, task.ID)
	assert.Equal(t, 1, task.Version)
	assert.Equal(t, taskDomain.StatusTodo, task.Status)
	assert.Equal(t, fixedNow, task.CreatedAt)
	assert.Equal(t, f.active.ID, *task.AssigneeID)
	assert.Equal(t, []string{taskDomain.TaskCreated}, f.repo.EventTypes())
	assert.Equal(t, task.ID.String(), f.repo.Outbox[0].AggregateID)
}

func TestCreateTask_Rejections(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	missing := uuid.New()

	_, err := f.svc.CreateTask(ctx, CreateTaskInput{Title: "", Priority: taskDomain.PriorityLow})
	assert.ErrorIs(t, err, taskDomain.ErrValidation)

	_, err = f.svc.CreateTask(ctx, CreateTaskInput{Title: "x", Priority: taskDomain.PriorityLow, AssigneeID: &f.inactive.ID})
	assert.ErrorIs(t, err, taskDomain.ErrAssignmentRejected)

	_, err = f.svc.CreateTask(ctx, CreateTaskInput{Title: "x", Priority: taskDomain.PriorityLow, AssigneeID: &missing})
	assert.ErrorIs(t, err, taskDomain.ErrUserNotFound)

	assert.Empty(t, f.repo.Tasks)
	assert.Empty(t, f.repo.Outbox)
}

func TestGetTaskByID_CacheAside(t *testing.T) {
	// Arrange
	f := newFixture(t)
	ctx := context.Background()
	task := f.create(t, "cached")
	key := taskDomain.TaskCacheKeyByID(task.ID)

	// Act: primer acceso va al repositorio y rellena la caché en segundo plano
	got, err := f.svc.GetTaskByID(ctx, task.ID)
	require.NoError(t, err)
	assert.Equal(t, task.Title, got.Title)
	assert.Eventually(t, func() bool { return f.cache.Has(key) }, time.Second, 10*time.Millisecond)

	// Act: el segundo acceso se sirve aunque el repositorio falle
	f.repo.FailNext = errors.New("db down")
	got, err = f.svc.GetTaskByID(ctx, task.ID)

	// Assert
	require.NoError(t, err)
	assert.Equal(t, task.ID, got.ID)
	assert.Equal(t, task.Version, got.Version)
}

func TestGetTaskByID_NotFound(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.GetTaskByID(context.Background(), uuid.New())

	assert.ErrorIs(t, err, taskDomain.ErrTaskNotFound)
}

func TestGetTaskByID_RetriesTransientErrors(t *testing.T) {
	f := newFixture(t)
	task := f.create(t, "flaky")
	f.repo.FailNext = errors.New("timeout")

	got, err := f.svc.GetTaskByID(context.Background(), task.ID)

	require.NoError(t, err)
	assert.Equal(t, task.ID, got.ID)
}

func TestUpdateTask_AppliesAllFieldsAndInvalidatesCache(t *testing.T) {
	// Arrange
	f := newFixture(t)
	ctx := context.Background()
	task := f.create(t, "old")
	key := taskDomain.TaskCacheKeyByID(task.ID)
	require.NoError(t, f.cache.Set(ctx, key, task, 0))
	desc := "new description"
	due := fixedNow.Add(24 * time.Hour)
	version := task.Version

	// Act
	updated, err := f.svc.UpdateTask(ctx, task.ID, UpdateTaskInput{
		Title:       "new",
		Description: &desc,
		Priority:    taskDomain.PriorityHigh,
		Status:      taskDomain.StatusInProgress,
		DueDate:     &due,
		AssigneeID:  &f.active.ID,
		Version:     &version,
	})

	// Assert
	require.NoError(t, err)
	assert.Equal(t, "new", updated.Title)
	assert.Equal(t, desc, *updated.Description)
	assert.Equal(t, taskDomain.PriorityHigh, updated.Priority)
	assert.Equal(t, taskDomain.StatusInProgress, updated.Status)
	assert.Equal(t, due, *updated.DueDate)
	assert.Equal(t, f.active.ID, *updated.AssigneeID)
	assert.Equal(t, 2, updated.Version)
	assert.False(t, f.cache.Has(key))
	assert.Equal(t, []string{taskDomain.TaskCreated, taskDomain.TaskUpdated}, f.repo.EventTypes())
}

func TestUpdateTask_StaleVersionIsRejected(t *testing.T) {
	f := newFixture(t)
	task := f.create(t, "versioned")
	stale := 7

	_, err := f.svc.UpdateTask(context.Background(), task.ID, UpdateTaskInput{
		Title:    "x",
		Priority: taskDomain.PriorityLow,
		Status:   taskDomain.StatusTodo,
		Version:  &stale,
	})

	assert.ErrorIs(t, err, taskDomain.ErrTaskVersionConflict)
	assert.Equal(t, "versioned", f.repo.Tasks[task.ID].Title)
}

func TestUpdateTask_InvalidTransitionLeavesTaskUntouched(t *testing.T) {
	f := newFixture(t)
	task := f.create(t, "stays")

	_, err := f.svc.UpdateTask(context.Background(), task.ID, UpdateTaskInput{
		Title:    "changed",
		Priority: taskDomain.PriorityHigh,
		Status:   taskDomain.StatusDone,
	})

	var transition *taskDomain.InvalidStateTransition
	require.ErrorAs(t, err, &transition)
	stored := f.repo.Tasks[task.ID]
	assert.Equal(t, "stays", stored.Title)
	assert.Equal(t, taskDomain.PriorityMedium, stored.Priority)
	assert.Equal(t, 1, stored.Version)
}

func TestUpdateTask_StatusAppliesBeforeAssignee(t *testing.T) {
	// Arrange
	f := newFixture(t)
	ctx := context.Background()
	task := f.create(t, "close and hand over")
	_, err := f.svc.TransitionTask(ctx, task.ID, taskDomain.StatusInProgress)
	require.NoError(t, err)

	// Act: la tarea ya está DONE cuando se intenta asignar
	_, err = f.svc.UpdateTask(ctx, task.ID, UpdateTaskInput{
		Title:      task.Title,
		Priority:   task.Priority,
		Status:     taskDomain.StatusDone,
		AssigneeID: &f.active.ID,
	})

	// Assert
	assert.ErrorIs(t, err, taskDomain.ErrAssignmentRejected)
	stored := f.repo.Tasks[task.ID]
	assert.Equal(t, taskDomain.StatusInProgress, stored.Status)
	assert.Nil(t, stored.AssigneeID)

	// en dos pasos sí funciona
	_, err = f.svc.AssignTask(ctx, task.ID, f.active.ID)
	require.NoError(t, err)
	done, err := f.svc.CompleteTask(ctx, task.ID)
	require.NoError(t, err)
	assert.Equal(t, taskDomain.StatusDone, done.Status)
	assert.Equal(t, f.active.ID, *done.AssigneeID)
}

func TestTransitionTask_FollowsStateMachine(t *testing.T) {
	// Arrange
	analytics := new(mocks.MockTaskAnalytics)
	analytics.On("LogBatch", mock.Anything, mock.Anything).Return(nil)
	f := newFixture(t, WithAnalytics(analytics))
	ctx := context.Background()
	task := f.create(t, "flow")

	// Act + Assert
	_, err := f.svc.CompleteTask(ctx, task.ID)
	assert.ErrorIs(t, err, taskDomain.ErrInvalidStateTransition)

	started, err := f.svc.TransitionTask(ctx, task.ID, taskDomain.StatusInProgress)
	require.NoError(t, err)
	assert.Equal(t, taskDomain.StatusInProgress, started.Status)

	done, err := f.svc.CompleteTask(ctx, task.ID)
	require.NoError(t, err)
	assert.Equal(t, taskDomain.StatusDone, done.Status)
	assert.Equal(t, 3, done.Version)

	// creación + dos cambios de estado
	analytics.AssertNumberOfCalls(t, "LogBatch", 3)
	last := analytics.Calls[2].Arguments.Get(1).([]taskDomain.LifecycleEntry)
	assert.Equal(t, taskDomain.StatusInProgress, last[0].FromStatus)
	assert.Equal(t, taskDomain.StatusDone, last[0].ToStatus)
}

func TestTransitionTask_AnalyticsFailureDoesNotFailWrite(t *testing.T) {
	analytics := new(mocks.MockTaskAnalytics)
	analytics.On("LogBatch", mock.Anything, mock.Anything).Return(errors.New("clickhouse down"))
	f := newFixture(t, WithAnalytics(analytics))
	task := f.create(t, "resilient")

	got, err := f.svc.TransitionTask(context.Background(), task.ID, taskDomain.StatusInProgress)

	require.NoError(t, err)
	assert.Equal(t, taskDomain.StatusInProgress, got.Status)
}

func TestAssignTask(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	task := f.create(t, "assign me")

	_, err := f.svc.AssignTask(ctx, task.ID, f.inactive.ID)
	var rejected *taskDomain.AssignmentRejected
	require.ErrorAs(t, err, &rejected)
	assert.False(t, rejected.UserActive)

	_, err = f.svc.AssignTask(ctx, task.ID, uuid.New())
	assert.ErrorIs(t, err, taskDomain.ErrUserNotFound)

	assigned, err := f.svc.AssignTask(ctx, task.ID, f.active.ID)
	require.NoError(t, err)
	assert.Equal(t, f.active.ID, *assigned.AssigneeID)

	unassigned, err := f.svc.UnassignTask(ctx, task.ID)
	require.NoError(t, err)
	assert.Nil(t, unassigned.AssigneeID)
	assert.Equal(t, []string{taskDomain.TaskCreated, taskDomain.TaskAssigned, taskDomain.TaskAssigned}, f.repo.EventTypes())
}

func TestDueDateOperations(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	task := f.create(t, "dated")

	_, err := f.svc.DaysUntilDue(ctx, task.ID)
	assert.ErrorIs(t, err, taskDomain.ErrNoDueDateSet)

	due := fixedNow.Add(73 * time.Hour)
	_, err = f.svc.UpdateDueDate(ctx, task.ID, &due)
	require.NoError(t, err)

	days, err := f.svc.DaysUntilDue(ctx, task.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, days)

	cleared, err := f.svc.UpdateDueDate(ctx, task.ID, nil)
	require.NoError(t, err)
	assert.Nil(t, cleared.DueDate)
}

// conflictOnceRepo simula un escritor concurrente antes de la primera actualización.
type conflictOnceRepo struct {
	*mocks.InMemoryTaskRepo
	fired bool
}

func (r *conflictOnceRepo) Update(ctx context.Context, t *taskDomain.Task, evt sharedDomain.OutboxEvent) error {
	if !r.fired {
		r.fired = true
		r.Tasks[t.ID].Version++
	}
	return r.InMemoryTaskRepo.Update(ctx, t, evt)
}

func TestMutations_RetryOnVersionConflict(t *testing.T) {
	// Arrange
	f := newFixture(t)
	task := f.create(t, "contended")
	repo := &conflictOnceRepo{InMemoryTaskRepo: f.repo}
	svc := NewTaskService(repo, f.users, f.cache, zap.NewNop(), WithClock(fixedClock))

	// Act
	got, err := svc.TransitionTask(context.Background(), task.ID, taskDomain.StatusInProgress)

	// Assert
	require.NoError(t, err)
	assert.True(t, repo.fired)
	assert.Equal(t, 3, got.Version)
}

func TestDeleteTask_ArchivesAndRemoves(t *testing.T) {
	// Arrange
	archive := new(mocks.MockTaskArchive)
	archive.On("Archive", mock.Anything, mock.Anything, fixedNow).Return(nil)
	f := newFixture(t, WithArchive(archive))
	ctx := context.Background()
	task := f.create(t, "bye")

	// Act
	err := f.svc.DeleteTask(ctx, task.ID)

	// Assert
	require.NoError(t, err)
	archive.AssertExpectations(t)
	assert.Empty(t, f.repo.Tasks)
	assert.Equal(t, taskDomain.TaskDeleted, f.repo.EventTypes()[1])

	assert.ErrorIs(t, f.svc.DeleteTask(ctx, task.ID), taskDomain.ErrTaskNotFound)
}

func TestDeleteTask_ArchiveFailureIsNotFatal(t *testing.T) {
	archive := new(mocks.MockTaskArchive)
	archive.On("Archive", mock.Anything, mock.Anything, mock.Anything).Return(errors.New("disk full"))
	f := newFixture(t, WithArchive(archive))
	task := f.create(t, "bye")

	require.NoError(t, f.svc.DeleteTask(context.Background(), task.ID))
	assert.Empty(t, f.repo.Tasks)
}

func TestListTasks_FiltersAndSorts(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := f.create(t, "alpha")
	f.create(t, "beta")
	_, err := f.svc.TransitionTask(ctx, a.ID, taskDomain.StatusInProgress)
	require.NoError(t, err)

	status := taskDomain.StatusInProgress
	list, err := f.svc.ListTasks(ctx, TaskFilter{Status: &status}, sharedQuery.OffsetPagination{}, sharedQuery.Sort{})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, a.ID, list[0].ID)

	list, err = f.svc.ListTasks(ctx, TaskFilter{}, sharedQuery.OffsetPagination{Limit: 1}, sharedQuery.Sort{Field: taskDomain.FieldTitle, Desc: true})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "beta", list[0].Title)

	_, err = f.svc.ListTasks(ctx, TaskFilter{}, sharedQuery.OffsetPagination{}, sharedQuery.Sort{Field: "priority"})
	assert.ErrorIs(t, err, taskDomain.ErrValidation)
}

func TestSearchTasks(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.create(t, "Quarterly REPORT")
	f.create(t, "groceries")

	list, err := f.svc.SearchTasks(ctx, "report", sharedQuery.OffsetPagination{})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "Quarterly REPORT", list[0].Title)

	_, err = f.svc.SearchTasks(ctx, "  ", sharedQuery.OffsetPagination{})
	assert.ErrorIs(t, err, taskDomain.ErrValidation)
}

func TestGetOverdueTasks(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	late := f.create(t, "late")
	onTime := f.create(t, "on time")
	past := fixedNow.Add(-time.Hour)
	future := fixedNow.Add(time.Hour)
	_, err := f.svc.UpdateDueDate(ctx, late.ID, &past)
	require.NoError(t, err)
	_, err = f.svc.UpdateDueDate(ctx, onTime.ID, &future)
	require.NoError(t, err)

	list, err := f.svc.GetOverdueTasks(ctx, sharedQuery.OffsetPagination{})

	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, late.ID, list[0].ID)
	assert.True(t, list[0].IsOverdue(fixedNow))
}

func TestGetTasksForUser(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	task := f.create(t, "mine")
	_, err := f.svc.AssignTask(ctx, task.ID, f.active.ID)
	require.NoError(t, err)
	f.create(t, "nobody's")

	list, err := f.svc.GetTasksForUser(ctx, f.active.ID, sharedQuery.OffsetPagination{})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, task.ID, list[0].ID)

	_, err = f.svc.GetTasksForUser(ctx, uuid.New(), sharedQuery.OffsetPagination{})
	assert.ErrorIs(t, err, taskDomain.ErrUserNotFound)
}

func TestReleaseTasksOfUser_SkipsDoneTasks(t *testing.T) {
	// Arrange
	f := newFixture(t)
	ctx := context.Background()
	open := f.create(t, "open")
	finished := f.create(t, "finished")
	for _, id := range []uuid.UUID{open.ID, finished.ID} {
		_, err := f.svc.AssignTask(ctx, id, f.active.ID)
		require.NoError(t, err)
	}
	_, err := f.svc.TransitionTask(ctx, finished.ID, taskDomain.StatusInProgress)
	require.NoError(t, err)
	_, err = f.svc.CompleteTask(ctx, finished.ID)
	require.NoError(t, err)

	// Act
	released, err := f.svc.ReleaseTasksOfUser(ctx, f.active.ID)

	// Assert
	require.NoError(t, err)
	assert.Equal(t, 1, released)
	assert.Nil(t, f.repo.Tasks[open.ID].AssigneeID)
	assert.Equal(t, f.active.ID, *f.repo.Tasks[finished.ID].AssigneeID)
}

func TestStats(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	from, to := fixedNow.Add(-24*time.Hour), fixedNow

	_, err := f.svc.Stats(ctx, from, to)
	assert.ErrorIs(t, err, ErrAnalyticsUnavailable)

	analytics := new(mocks.MockTaskAnalytics)
	analytics.On("GetAverageCompletionTime", mock.Anything, from, to).Return(90*time.Minute, nil)
	analytics.On("GetDailyTrend", mock.Anything, from, to).Return([]taskDomain.DailyTaskTrend{{Day: from, CreatedCount: 2, CompletedCount: 1}}, nil)
	f.svc.analytics = analytics

	stats, err := f.svc.Stats(ctx, from, to)
	require.NoError(t, err)
	assert.Equal(t, 90*time.Minute, stats.AverageCompletion)
	assert.Len(t, stats.Trend, 1)

	_, err = f.svc.Stats(ctx, to, from)
	assert.ErrorIs(t, err, taskDomain.ErrValidation)
}

func TestListArchived_WithoutArchive(t *testing.T) {
	f := newFixture(t)

	list, err := f.svc.ListArchived(context.Background())

	require.NoError(t, err)
	assert.Empty(t, list)
}
