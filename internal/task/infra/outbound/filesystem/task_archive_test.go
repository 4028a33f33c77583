package filesystem

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	taskDomain "github.com/davicafu/hexatask/internal/task/domain"
)

func newArchivedTask(title string) *taskDomain.Task {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	desc := "desc"
	assignee := uuid.New()
	return &taskDomain.Task{
		ID: uuid.New(), Title: title, Description: &desc,
		Priority: taskDomain.PriorityHigh, Status: taskDomain.StatusDone,
		CreatedAt: now, UpdatedAt: now, DueDate: &now, AssigneeID: &assignee, Version: 4,
	}
}

func TestJSONTaskArchive_ListEmptyWhenFileMissing(t *testing.T) {
	archive := NewJSONTaskArchive(filepath.Join(t.TempDir(), "archive.json"))

	list, err := archive.List(context.Background())

	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestJSONTaskArchive_ArchiveAndList(t *testing.T) {
	// Arrange
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "archive.json")
	archive := NewJSONTaskArchive(path)
	first := newArchivedTask("first")
	second := newArchivedTask("second")
	at := time.Date(2025, 3, 2, 8, 0, 0, 0, time.UTC)

	// Act
	require.NoError(t, archive.Archive(ctx, first, at))
	require.NoError(t, archive.Archive(ctx, second, at.Add(time.Minute)))
	list, err := NewJSONTaskArchive(path).List(ctx)

	// Assert
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, first, list[0].Task)
	assert.Equal(t, at, list[0].ArchivedAt)
	assert.Equal(t, "second", list[1].Task.Title)
}

func TestJSONTaskArchive_CorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "archive.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	_, err := NewJSONTaskArchive(path).List(context.Background())

	assert.Error(t, err)
}

func TestJSONTaskArchive_ConcurrentArchive(t *testing.T) {
	ctx := context.Background()
	archive := NewJSONTaskArchive(filepath.Join(t.TempDir(), "archive.json"))

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, archive.Archive(ctx, newArchivedTask("t"), time.Now()))
		}()
	}
	wg.Wait()

	list, err := archive.List(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 10)
}
