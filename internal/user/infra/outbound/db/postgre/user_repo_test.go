package postgres

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	sharedDomain "github.com/davicafu/hexatask/internal/shared/domain"
	sharedPostgres "github.com/davicafu/hexatask/internal/shared/infra/platform/db/postgres"
	sharedQuery "github.com/davicafu/hexatask/internal/shared/infra/platform/query"
	userDomain "github.com/davicafu/hexatask/internal/user/domain"
)

// newTestRepo necesita DATABASE_URL apuntando a una base desechable.
func newTestRepo(t *testing.T) *UserRepoPostgres {
	t.Helper()
	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		t.Skip("DATABASE_URL not set")
	}
	ctx := context.Background()
	db, err := sharedPostgres.Open(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, InitSchema(ctx, db))
	_, err = db.ExecContext(ctx, `TRUNCATE users, outbox`)
	require.NoError(t, err)
	return NewUserRepoPostgres(db)
}

func newUser(t *testing.T, email string) *userDomain.User {
	t.Helper()
	u, err := userDomain.NewUser(email, "Name", time.Now().UTC().Truncate(time.Microsecond))
	require.NoError(t, err)
	u.ID = uuid.New()
	return u
}

func evt(u *userDomain.User, eventType string) sharedDomain.OutboxEvent {
	return sharedDomain.NewOutboxEvent(userDomain.AggregateType, u.ID.String(), eventType, userDomain.CreatedEvent(u))
}

func TestUserRepoPostgres_CRUD(t *testing.T) {
	// Arrange
	repo := newTestRepo(t)
	ctx := context.Background()
	u := newUser(t, "ana@example.com")

	// Act
	require.NoError(t, repo.Create(ctx, u, evt(u, userDomain.UserCreated)))
	u.Deactivate(u.CreatedAt.Add(time.Minute))
	require.NoError(t, repo.Update(ctx, u, evt(u, userDomain.UserDeactivated)))
	got, err := repo.GetByID(ctx, u.ID)

	// Assert
	require.NoError(t, err)
	assert.Equal(t, u, got)
	assert.ErrorIs(t, repo.Create(ctx, newUser(t, "ana@example.com"), evt(u, userDomain.UserCreated)), userDomain.ErrUserAlreadyExists)

	list, err := repo.ListByCriteria(ctx, userDomain.ActiveCriteria{Active: false}, sharedQuery.OffsetPagination{Limit: 5}, sharedQuery.Sort{})
	require.NoError(t, err)
	assert.Len(t, list, 1)

	require.NoError(t, repo.DeleteByID(ctx, u.ID, evt(u, userDomain.UserDeleted)))
	_, err = repo.GetByID(ctx, u.ID)
	assert.ErrorIs(t, err, userDomain.ErrUserNotFound)
}
