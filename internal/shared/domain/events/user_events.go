package events

import (
	"time"

	"github.com/google/uuid"
)

// Contratos de integración del contexto User.

type UserCreated struct {
	ID        uuid.UUID `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"createdAt"`
}

type UserUpdated struct {
	ID     uuid.UUID `json:"id"`
	Email  string    `json:"email"`
	Name   string    `json:"name"`
	Active bool      `json:"active"`
}

type UserDeactivated struct {
	ID            uuid.UUID `json:"id"`
	DeactivatedAt time.Time `json:"deactivatedAt"`
}

type UserDeleted struct {
	ID uuid.UUID `json:"id"`
}
