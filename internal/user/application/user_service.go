package application

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	sharedDomain "github.com/davicafu/hexatask/internal/shared/domain"
	sharedEvents "github.com/davicafu/hexatask/internal/shared/domain/events"
	sharedCache "github.com/davicafu/hexatask/internal/shared/infra/platform/cache"
	sharedQuery "github.com/davicafu/hexatask/internal/shared/infra/platform/query"
	sharedUtils "github.com/davicafu/hexatask/internal/shared/infra/utils"
	"github.com/davicafu/hexatask/internal/user/domain"
)

const (
	userCacheTTL   = 60 // segundos
	loadAttempts   = 3
	loadRetryDelay = 100 * time.Millisecond
)

// UserService define los casos de uso relacionados con User.
type UserService struct {
	repo  domain.UserRepository
	cache sharedCache.Cache
	clock func() time.Time
	log   *zap.Logger
}

func NewUserService(repo domain.UserRepository, cache sharedCache.Cache, log *zap.Logger) *UserService {
	return &UserService{
		repo:  repo,
		cache: cache,
		clock: time.Now,
		log:   log,
	}
}

// WithClock sustituye el reloj; se usa en tests.
func (s *UserService) WithClock(clock func() time.Time) *UserService {
	s.clock = clock
	return s
}

func (s *UserService) now() time.Time {
	return s.clock().UTC()
}

// UserFilter agrupa los filtros opcionales del listado.
type UserFilter struct {
	Email  string
	Name   string
	Active *bool
}

func (f UserFilter) Criteria() sharedDomain.Criteria {
	var criterias []sharedDomain.Criteria
	if f.Email != "" {
		criterias = append(criterias, domain.EmailCriteria{Email: strings.ToLower(strings.TrimSpace(f.Email))})
	}
	if f.Name != "" {
		criterias = append(criterias, domain.NameLikeCriteria{Name: f.Name})
	}
	if f.Active != nil {
		criterias = append(criterias, domain.ActiveCriteria{Active: *f.Active})
	}
	return sharedDomain.And(criterias...)
}

func (s *UserService) CreateUser(ctx context.Context, email, name string) (*domain.User, error) {
	user, err := domain.NewUser(email, name, s.now())
	if err != nil {
		return nil, err
	}
	user.ID = uuid.New()

	evt := sharedDomain.NewOutboxEvent(domain.AggregateType, user.ID.String(), domain.UserCreated, domain.CreatedEvent(user))
	if err := s.repo.Create(ctx, user, evt); err != nil {
		s.log.Error("Failed to create user", zap.String("email", user.Email), zap.Error(err))
		return nil, err
	}

	s.log.Info("✅ User created", zap.String("user_id", user.ID.String()))
	return user, nil
}

// GetUser obtiene un usuario, primero desde cache.
func (s *UserService) GetUser(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	key := domain.CacheKeyByID(id)
	if s.cache != nil {
		var cached domain.User
		hit, err := s.cache.Get(ctx, key, &cached)
		if err != nil {
			s.log.Warn("Cache read failed", zap.String("key", key), zap.Error(err))
		}
		if hit {
			return &cached, nil
		}
	}

	user, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	sharedCache.AsyncCacheSet(s.cache, key, user, userCacheTTL, s.log)
	return user, nil
}

func (s *UserService) UpdateUser(ctx context.Context, id uuid.UUID, email, name string) (*domain.User, error) {
	user, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := user.UpdateDetails(email, name, s.now()); err != nil {
		return nil, err
	}

	evt := sharedDomain.NewOutboxEvent(domain.AggregateType, id.String(), domain.UserUpdated, domain.UpdatedEvent(user))
	if err := s.repo.Update(ctx, user, evt); err != nil {
		s.log.Error("Failed to update user", zap.String("user_id", id.String()), zap.Error(err))
		return nil, err
	}
	sharedCache.Invalidate(s.cache, domain.CacheKeyByID(id), s.log)
	return user, nil
}

// ActivateUser no escribe nada si el usuario ya estaba activo.
func (s *UserService) ActivateUser(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	user, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !user.Activate(s.now()) {
		return user, nil
	}

	evt := sharedDomain.NewOutboxEvent(domain.AggregateType, id.String(), domain.UserUpdated, domain.UpdatedEvent(user))
	if err := s.repo.Update(ctx, user, evt); err != nil {
		return nil, err
	}
	sharedCache.Invalidate(s.cache, domain.CacheKeyByID(id), s.log)
	return user, nil
}

// DeactivateUser publica user.deactivated para que se liberen sus tareas abiertas.
func (s *UserService) DeactivateUser(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	user, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !user.Deactivate(s.now()) {
		return user, nil
	}

	evt := sharedDomain.NewOutboxEvent(domain.AggregateType, id.String(), domain.UserDeactivated, domain.DeactivatedEvent(user))
	if err := s.repo.Update(ctx, user, evt); err != nil {
		return nil, err
	}
	sharedCache.Invalidate(s.cache, domain.CacheKeyByID(id), s.log)
	s.log.Info("🚫 User deactivated", zap.String("user_id", id.String()))
	return user, nil
}

func (s *UserService) DeleteUser(ctx context.Context, id uuid.UUID) error {
	evt := sharedDomain.NewOutboxEvent(domain.AggregateType, id.String(), domain.UserDeleted, sharedEvents.UserDeleted{ID: id})
	if err := s.repo.DeleteByID(ctx, id, evt); err != nil {
		if !errors.Is(err, domain.ErrUserNotFound) {
			s.log.Error("Failed to delete user", zap.String("user_id", id.String()), zap.Error(err))
		}
		return err
	}
	sharedCache.Invalidate(s.cache, domain.CacheKeyByID(id), s.log)
	return nil
}

// ListUsers ordena por created_at si no se indica campo.
func (s *UserService) ListUsers(ctx context.Context, f UserFilter, page sharedQuery.OffsetPagination, sort sharedQuery.Sort) ([]*domain.User, error) {
	if sort.Field == "" {
		sort.Field = domain.FieldCreatedAt
	}
	if !domain.SortableFields[sort.Field] {
		return nil, domain.ErrInvalidSortField
	}
	return s.repo.ListByCriteria(ctx, f.Criteria(), page.Normalize(), sort)
}

func (s *UserService) load(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	var user *domain.User
	err := sharedUtils.Retry(ctx, loadAttempts, loadRetryDelay, isTransient, func() error {
		var errRetry error
		user, errRetry = s.repo.GetByID(ctx, id)
		return errRetry
	})
	return user, err
}

func isTransient(err error) bool {
	return !errors.Is(err, domain.ErrUserNotFound) &&
		!errors.Is(err, context.Canceled) &&
		!errors.Is(err, context.DeadlineExceeded)
}
