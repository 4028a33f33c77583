package users

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	taskDomain "github.com/davicafu/hexatask/internal/task/domain"
	userDomain "github.com/davicafu/hexatask/internal/user/domain"
)

type stubGetter struct {
	user *userDomain.User
	err  error
}

func (s stubGetter) GetUser(ctx context.Context, id uuid.UUID) (*userDomain.User, error) {
	return s.user, s.err
}

func TestGetAssignable_Found(t *testing.T) {
	u, err := userDomain.NewUser("ana@example.com", "Ana", time.Now())
	require.NoError(t, err)
	u.ID = uuid.New()

	got, err := NewUserDirectory(stubGetter{user: u}).GetAssignable(context.Background(), u.ID)

	require.NoError(t, err)
	assert.Equal(t, u.ID, got.UserID())
	assert.True(t, got.IsActive())
}

func TestGetAssignable_TranslatesNotFound(t *testing.T) {
	_, err := NewUserDirectory(stubGetter{err: userDomain.ErrUserNotFound}).GetAssignable(context.Background(), uuid.New())

	assert.ErrorIs(t, err, taskDomain.ErrUserNotFound)
}

func TestGetAssignable_PropagatesOtherErrors(t *testing.T) {
	boom := errors.New("db down")

	_, err := NewUserDirectory(stubGetter{err: boom}).GetAssignable(context.Background(), uuid.New())

	assert.ErrorIs(t, err, boom)
}
