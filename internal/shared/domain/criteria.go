package domain

import "strings"

// ---------------- Operadores ----------------

type Operator string

const (
	OpEq    Operator = "="
	OpNe    Operator = "<>"
	OpGt    Operator = ">"
	OpGte   Operator = ">="
	OpLt    Operator = "<"
	OpLte   Operator = "<="
	OpLike  Operator = "LIKE"
	OpILike Operator = "ILIKE"
)

type LogicalOperator string

const (
	OpAnd LogicalOperator = "AND"
	OpOr  LogicalOperator = "OR"
)

// LikeEscape es el carácter de escape de los patrones LIKE.
const LikeEscape = `\`

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// EscapeLike escapa los comodines de s para que un LIKE lo busque literal.
func EscapeLike(s string) string {
	return likeEscaper.Replace(s)
}

// ---------------- Criterion ----------------

// Criterion describe una condición neutral de filtrado.
// Si AnyOf no está vacío, el criterio es un grupo OR y Field/Op/Value se ignoran.
type Criterion struct {
	Field string
	Op    Operator
	Value interface{}
	AnyOf []Criterion
}

// IsGroup indica si el criterio agrupa alternativas.
func (c Criterion) IsGroup() bool {
	return len(c.AnyOf) > 0
}

// ---------------- Criteria interface ----------------

// Criteria permite transformar filtros a condiciones neutrales.
// Las condiciones devueltas se combinan siempre con AND.
type Criteria interface {
	ToConditions() []Criterion
}

// ---------------- Composite Criteria ----------------

type CompositeCriteria struct {
	Operator  LogicalOperator
	Criterias []Criteria
}

func (c CompositeCriteria) ToConditions() []Criterion {
	var all []Criterion
	for _, crit := range c.Criterias {
		if crit == nil {
			continue
		}
		all = append(all, crit.ToConditions()...)
	}
	if c.Operator == OpOr && len(all) > 1 {
		return []Criterion{{AnyOf: all}}
	}
	return all
}

// ---------------- Helpers ----------------

// And crea un CompositeCriteria con operador AND
func And(criterias ...Criteria) CompositeCriteria {
	return CompositeCriteria{Operator: OpAnd, Criterias: criterias}
}

// Or crea un CompositeCriteria con operador OR
func Or(criterias ...Criteria) CompositeCriteria {
	return CompositeCriteria{Operator: OpOr, Criterias: criterias}
}
