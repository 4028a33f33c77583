package mocks

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"

	sharedDomain "github.com/davicafu/hexatask/internal/shared/domain"
	sharedQuery "github.com/davicafu/hexatask/internal/shared/infra/platform/query"
	taskDomain "github.com/davicafu/hexatask/internal/task/domain"
	userDomain "github.com/davicafu/hexatask/internal/user/domain"
)

// InMemoryUserRepo simula UserRepository con outbox incluido.
type InMemoryUserRepo struct {
	Users  map[uuid.UUID]*userDomain.User
	Outbox []sharedDomain.OutboxEvent
	mu     sync.Mutex
}

func NewInMemoryUserRepo() *InMemoryUserRepo {
	return &InMemoryUserRepo{
		Users:  make(map[uuid.UUID]*userDomain.User),
		Outbox: []sharedDomain.OutboxEvent{},
	}
}

var _ userDomain.UserRepository = (*InMemoryUserRepo)(nil)

func (r *InMemoryUserRepo) Create(ctx context.Context, u *userDomain.User, evt sharedDomain.OutboxEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.Users[u.ID]; ok {
		return userDomain.ErrUserAlreadyExists
	}
	for _, existing := range r.Users {
		if existing.Email == u.Email {
			return userDomain.ErrUserAlreadyExists
		}
	}
	cp := *u
	r.Users[u.ID] = &cp
	r.Outbox = append(r.Outbox, evt)
	return nil
}

func (r *InMemoryUserRepo) GetByID(ctx context.Context, id uuid.UUID) (*userDomain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.Users[id]
	if !ok {
		return nil, userDomain.ErrUserNotFound
	}
	cp := *u
	return &cp, nil
}

func (r *InMemoryUserRepo) Update(ctx context.Context, u *userDomain.User, evt sharedDomain.OutboxEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.Users[u.ID]; !ok {
		return userDomain.ErrUserNotFound
	}
	cp := *u
	r.Users[u.ID] = &cp
	r.Outbox = append(r.Outbox, evt)
	return nil
}

func (r *InMemoryUserRepo) DeleteByID(ctx context.Context, id uuid.UUID, evt sharedDomain.OutboxEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.Users[id]; !ok {
		return userDomain.ErrUserNotFound
	}
	delete(r.Users, id)
	r.Outbox = append(r.Outbox, evt)
	return nil
}

func (r *InMemoryUserRepo) ListByCriteria(ctx context.Context, criteria sharedDomain.Criteria, pagination sharedQuery.Pagination, s sharedQuery.Sort) ([]*userDomain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var conds []sharedDomain.Criterion
	if criteria != nil {
		conds = criteria.ToConditions()
	}

	list := []*userDomain.User{}
	for _, u := range r.Users {
		if matchUser(u, conds) {
			cp := *u
			list = append(list, &cp)
		}
	}
	sort.SliceStable(list, func(i, j int) bool {
		var less bool
		switch s.Field {
		case userDomain.FieldEmail:
			less = list[i].Email < list[j].Email
		case userDomain.FieldName:
			less = list[i].Name < list[j].Name
		default:
			less = list[i].CreatedAt.Before(list[j].CreatedAt)
		}
		if s.Desc {
			return !less
		}
		return less
	})

	if p, ok := pagination.(sharedQuery.OffsetPagination); ok {
		if p.Offset > len(list) {
			return []*userDomain.User{}, nil
		}
		end := p.Offset + p.Limit
		if end > len(list) {
			end = len(list)
		}
		return list[p.Offset:end], nil
	}
	return list, nil
}

func matchUser(u *userDomain.User, conds []sharedDomain.Criterion) bool {
	for _, c := range conds {
		var ok bool
		switch c.Field {
		case userDomain.FieldEmail:
			ok = u.Email == c.Value
		case userDomain.FieldName:
			pattern, _ := c.Value.(string)
			ok = strings.Contains(strings.ToLower(u.Name), strings.ToLower(likeLiteral(pattern)))
		case userDomain.FieldActive:
			ok = u.Active == c.Value
		}
		if !ok {
			return false
		}
	}
	return true
}

// StaticUserDirectory resuelve usuarios asignables desde un mapa fijo.
type StaticUserDirectory struct {
	Users map[uuid.UUID]*userDomain.User
}

func NewStaticUserDirectory(users ...*userDomain.User) *StaticUserDirectory {
	d := &StaticUserDirectory{Users: make(map[uuid.UUID]*userDomain.User)}
	for _, u := range users {
		d.Users[u.ID] = u
	}
	return d
}

func (d *StaticUserDirectory) GetAssignable(ctx context.Context, id uuid.UUID) (taskDomain.AssignableUser, error) {
	u, ok := d.Users[id]
	if !ok {
		return nil, taskDomain.ErrUserNotFound
	}
	return u, nil
}

var _ taskDomain.UserDirectory = (*StaticUserDirectory)(nil)
