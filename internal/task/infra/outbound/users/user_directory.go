package users

import (
	"context"
	"errors"

	"github.com/google/uuid"

	taskDomain "github.com/davicafu/hexatask/internal/task/domain"
	userDomain "github.com/davicafu/hexatask/internal/user/domain"
)

// UserGetter es lo único que el directorio necesita del contexto User.
type UserGetter interface {
	GetUser(ctx context.Context, id uuid.UUID) (*userDomain.User, error)
}

// UserDirectory adapta el contexto User al puerto que consume Task.
type UserDirectory struct {
	users UserGetter
}

func NewUserDirectory(users UserGetter) *UserDirectory {
	return &UserDirectory{users: users}
}

func (d *UserDirectory) GetAssignable(ctx context.Context, id uuid.UUID) (taskDomain.AssignableUser, error) {
	u, err := d.users.GetUser(ctx, id)
	if err != nil {
		if errors.Is(err, userDomain.ErrUserNotFound) {
			return nil, taskDomain.ErrUserNotFound
		}
		return nil, err
	}
	return u, nil
}

var _ taskDomain.UserDirectory = (*UserDirectory)(nil)
