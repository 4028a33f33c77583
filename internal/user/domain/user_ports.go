package domain

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	sharedDomain "github.com/davicafu/hexatask/internal/shared/domain"
	sharedQuery "github.com/davicafu/hexatask/internal/shared/infra/platform/query"
)

// ---------- Errores de dominio ----------
var (
	ErrUserNotFound      = errors.New("user not found")
	ErrUserAlreadyExists = errors.New("user already exists")
	ErrInvalidUser       = errors.New("invalid user")
	ErrInvalidSortField  = errors.New("invalid sort field")
)

// ---------- Interfaces (Ports) ----------

// UserRepository define las operaciones persistentes para User.
type UserRepository interface {
	// Devuelve ErrUserAlreadyExists si el email ya está registrado.
	Create(ctx context.Context, u *User, evt sharedDomain.OutboxEvent) error

	// Devuelve ErrUserNotFound si no existe.
	GetByID(ctx context.Context, id uuid.UUID) (*User, error)

	// Devuelve ErrUserNotFound si no existe.
	Update(ctx context.Context, u *User, evt sharedDomain.OutboxEvent) error

	// Devuelve ErrUserNotFound si no existe.
	DeleteByID(ctx context.Context, id uuid.UUID, evt sharedDomain.OutboxEvent) error

	ListByCriteria(ctx context.Context, criteria sharedDomain.Criteria, pagination sharedQuery.Pagination, sort sharedQuery.Sort) ([]*User, error)
}

// ---------- Helpers comunes (cache keys, etc.) ----------

// CacheKeyByID forma una key consistente para cache usando ID.
func CacheKeyByID(id uuid.UUID) string {
	return fmt.Sprintf("user:id:%s", id.String())
}
