package domain

import (
	"reflect"

	sharedEvents "github.com/davicafu/hexatask/internal/shared/domain/events"
)

const AggregateType = "user"

// Las constantes de los tipos de evento se definen aquí, como valores string.
const (
	UserCreated     = "user.created"
	UserUpdated     = "user.updated"
	UserDeactivated = "user.deactivated"
	UserDeleted     = "user.deleted"
)

const UserTopic = "user.events"

func NewEventRegistry() map[string]sharedEvents.EventMetadata {
	return map[string]sharedEvents.EventMetadata{
		UserCreated: {
			Type:  reflect.TypeOf(sharedEvents.UserCreated{}),
			Topic: UserTopic,
		},
		UserUpdated: {
			Type:  reflect.TypeOf(sharedEvents.UserUpdated{}),
			Topic: UserTopic,
		},
		UserDeactivated: {
			Type:  reflect.TypeOf(sharedEvents.UserDeactivated{}),
			Topic: UserTopic,
		},
		UserDeleted: {
			Type:  reflect.TypeOf(sharedEvents.UserDeleted{}),
			Topic: UserTopic,
		},
	}
}

func CreatedEvent(u *User) sharedEvents.UserCreated {
	return sharedEvents.UserCreated{ID: u.ID, Email: u.Email, Name: u.Name, Active: u.Active, CreatedAt: u.CreatedAt}
}

func UpdatedEvent(u *User) sharedEvents.UserUpdated {
	return sharedEvents.UserUpdated{ID: u.ID, Email: u.Email, Name: u.Name, Active: u.Active}
}

func DeactivatedEvent(u *User) sharedEvents.UserDeactivated {
	return sharedEvents.UserDeactivated{ID: u.ID, DeactivatedAt: u.UpdatedAt}
}
