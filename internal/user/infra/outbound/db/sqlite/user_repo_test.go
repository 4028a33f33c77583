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
	sharedSQLite "github.com/davicafu/hexatask/internal/shared/infra/platform/db/sqlite"
	sharedQuery "github.com/davicafu/hexatask/internal/shared/infra/platform/query"
	"github.com/davicafu/hexatask/internal/user/domain"
)

var baseTime = time.Date(2025, 4, 1, 9, 0, 0, 0, time.UTC)

func newTestRepo(t *testing.T) (*UserRepoSQLite, *sharedSQLite.OutboxRepoSQLite) {
	t.Helper()
	ctx := context.Background()
	db, err := sharedSQLite.Open(ctx, filepath.Join(t.TempDir(), "users.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, InitSchema(ctx, db))
	return NewUserRepoSQLite(db), sharedSQLite.NewOutboxRepoSQLite(db)
}

func newUser(t *testing.T, email, name string, created time.Time) *domain.User {
	t.Helper()
	u, err := domain.NewUser(email, name, created)
	require.NoError(t, err)
	u.ID = uuid.New()
	return u
}

func evt(u *domain.User, eventType string) sharedDomain.OutboxEvent {
	return sharedDomain.NewOutboxEvent(domain.AggregateType, u.ID.String(), eventType, domain.CreatedEvent(u))
}

func TestUserRepoSQLite_CreateGetUpdate(t *testing.T) {
	// Arrange
	repo, outbox := newTestRepo(t)
	ctx := context.Background()
	u := newUser(t, "ana@example.com", "Ana", baseTime)

	// Act
	require.NoError(t, repo.Create(ctx, u, evt(u, domain.UserCreated)))
	u.Deactivate(baseTime.Add(time.Hour))
	require.NoError(t, repo.Update(ctx, u, evt(u, domain.UserDeactivated)))
	got, err := repo.GetByID(ctx, u.ID)

	// Assert
	require.NoError(t, err)
	assert.Equal(t, u, got)
	pending, err := outbox.FetchPendingOutbox(ctx, 10)
	require.NoError(t, err)
	require.Len(t, pending, 2)
	assert.Equal(t, domain.UserDeactivated, pending[1].EventType)
}

func TestUserRepoSQLite_DuplicateEmail(t *testing.T) {
	repo, _ := newTestRepo(t)
	ctx := context.Background()
	first := newUser(t, "dup@example.com", "Uno", baseTime)
	require.NoError(t, repo.Create(ctx, first, evt(first, domain.UserCreated)))

	second := newUser(t, "dup@example.com", "Dos", baseTime)
	err := repo.Create(ctx, second, evt(second, domain.UserCreated))

	assert.ErrorIs(t, err, domain.ErrUserAlreadyExists)
}

func TestUserRepoSQLite_NotFound(t *testing.T) {
	repo, _ := newTestRepo(t)
	ctx := context.Background()
	ghost := newUser(t, "ghost@example.com", "Ghost", baseTime)

	_, err := repo.GetByID(ctx, ghost.ID)
	assert.ErrorIs(t, err, domain.ErrUserNotFound)
	assert.ErrorIs(t, repo.Update(ctx, ghost, evt(ghost, domain.UserUpdated)), domain.ErrUserNotFound)
	assert.ErrorIs(t, repo.DeleteByID(ctx, ghost.ID, evt(ghost, domain.UserDeleted)), domain.ErrUserNotFound)
}

func TestUserRepoSQLite_ListByCriteria(t *testing.T) {
	// Arrange
	repo, _ := newTestRepo(t)
	ctx := context.Background()
	for i, n := range []string{"Carla", "Alberto", "Berta"} {
		u := newUser(t, n+"@example.com", n, baseTime.Add(time.Duration(i)*time.Minute))
		if n == "Carla" {
			u.Deactivate(baseTime)
		}
		require.NoError(t, repo.Create(ctx, u, evt(u, domain.UserCreated)))
	}
	criteria := sharedDomain.And(domain.ActiveCriteria{Active: true}, domain.NameLikeCriteria{Name: "ert"})

	// Act
	list, err := repo.ListByCriteria(ctx, criteria, sharedQuery.OffsetPagination{Limit: 10}, sharedQuery.Sort{Field: domain.FieldName})

	// Assert
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "Alberto", list[0].Name)
	assert.Equal(t, "Berta", list[1].Name)
}
