package domain

import (
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"
)

// User representa un usuario del sistema. Los usuarios nuevos nacen activos.
type User struct {
	ID        uuid.UUID `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewUser valida email y nombre. El ID lo asigna el servicio antes de persistir.
func NewUser(email, name string, now time.Time) (*User, error) {
	u := &User{Active: true, CreatedAt: now}
	if err := u.setDetails(email, name, now); err != nil {
		return nil, err
	}
	return u, nil
}

// UserID e IsActive cubren la capacidad que necesita una tarea para ser asignada.
func (u *User) UserID() uuid.UUID { return u.ID }
func (u *User) IsActive() bool    { return u.Active }

// UpdateDetails cambia email y nombre; si falla, el usuario no cambia.
func (u *User) UpdateDetails(email, name string, now time.Time) error {
	return u.setDetails(email, name, now)
}

// Activate devuelve true si el estado cambió.
func (u *User) Activate(now time.Time) bool {
	if u.Active {
		return false
	}
	u.Active = true
	u.UpdatedAt = now
	return true
}

// Deactivate devuelve true si el estado cambió.
func (u *User) Deactivate(now time.Time) bool {
	if !u.Active {
		return false
	}
	u.Active = false
	u.UpdatedAt = now
	return true
}

func (u *User) setDetails(email, name string, now time.Time) error {
	email = strings.ToLower(strings.TrimSpace(email))
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return fmt.Errorf("%w: malformed email %q", ErrInvalidUser, email)
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return fmt.Errorf("%w: name must not be empty", ErrInvalidUser)
	}
	u.Email = email
	u.Name = name
	u.UpdatedAt = now
	return nil
}
