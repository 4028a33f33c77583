package domain

import (
	sharedDomain "github.com/davicafu/hexatask/internal/shared/domain"
)

const (
	FieldEmail     = "email"
	FieldName      = "name"
	FieldActive    = "active"
	FieldCreatedAt = "created_at"
)

var SortableFields = map[string]bool{
	FieldEmail:     true,
	FieldName:      true,
	FieldCreatedAt: true,
}

// Filtrado por email exacto
type EmailCriteria struct {
	Email string
}

func (c EmailCriteria) ToConditions() []sharedDomain.Criterion {
	return []sharedDomain.Criterion{{Field: FieldEmail, Op: sharedDomain.OpEq, Value: c.Email}}
}

// Filtrado por nombre, sin distinguir mayúsculas
type NameLikeCriteria struct {
	Name string
}

func (c NameLikeCriteria) ToConditions() []sharedDomain.Criterion {
	return []sharedDomain.Criterion{{Field: FieldName, Op: sharedDomain.OpILike, Value: "%" + sharedDomain.EscapeLike(c.Name) + "%"}}
}

type ActiveCriteria struct {
	Active bool
}

func (c ActiveCriteria) ToConditions() []sharedDomain.Criterion {
	return []sharedDomain.Criterion{{Field: FieldActive, Op: sharedDomain.OpEq, Value: c.Active}}
}
