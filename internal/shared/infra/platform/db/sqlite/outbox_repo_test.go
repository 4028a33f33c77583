package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	sharedDomain "github.com/davicafu/hexatask/internal/shared/domain"
)

func openTestDB(t *testing.T) *OutboxRepoSQLite {
	t.Helper()
	ctx := context.Background()
	db, err := Open(ctx, filepath.Join(t.TempDir(), "outbox.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, InitOutboxSchema(ctx, db))
	return NewOutboxRepoSQLite(db)
}

func insert(t *testing.T, repo *OutboxRepoSQLite, evt sharedDomain.OutboxEvent) {
	t.Helper()
	ctx := context.Background()
	tx, err := repo.db.BeginTx(ctx, nil)
	require.NoError(t, err)
	require.NoError(t, InsertOutboxTx(ctx, tx, evt))
	require.NoError(t, tx.Commit())
}

func TestOutbox_FetchAndMark(t *testing.T) {
	// Arrange
	repo := openTestDB(t)
	ctx := context.Background()
	first := sharedDomain.NewOutboxEvent("task", uuid.NewString(), "task.created", map[string]string{"title": "a"})
	second := sharedDomain.NewOutboxEvent("task", uuid.NewString(), "task.deleted", map[string]string{"id": "b"})
	second.CreatedAt = first.CreatedAt.Add(time.Second)
	insert(t, repo, second)
	insert(t, repo, first)

	// Act
	pending, err := repo.FetchPendingOutbox(ctx, 10)

	// Assert
	require.NoError(t, err)
	require.Len(t, pending, 2)
	assert.Equal(t, first.ID, pending[0].ID)
	assert.Equal(t, "a", pending[0].Payload.(map[string]interface{})["title"])
	assert.True(t, first.CreatedAt.Equal(pending[0].CreatedAt))

	require.NoError(t, repo.MarkOutboxProcessed(ctx, first.ID))
	pending, err = repo.FetchPendingOutbox(ctx, 10)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, second.ID, pending[0].ID)

	assert.Error(t, repo.MarkOutboxProcessed(ctx, uuid.New()))
}

func TestTimeHelpers(t *testing.T) {
	ts := time.Date(2025, 1, 2, 3, 4, 5, 6, time.FixedZone("CET", 3600))

	s := FormatTime(ts)
	assert.Equal(t, "2025-01-02T02:04:05.000000006Z", s)

	back, err := ParseTime(s)
	require.NoError(t, err)
	assert.True(t, ts.Equal(back))

	assert.Nil(t, FormatTimePtr(nil))
	_, err = ParseTime("yesterday")
	assert.Error(t, err)
}
