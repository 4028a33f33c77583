// Package sqlcriteria traduce criterios neutrales del dominio a cláusulas WHERE.
// Solo acepta campos y operadores conocidos: nada del criterio llega crudo al SQL.
package sqlcriteria

import (
	"fmt"
	"strings"

	sharedDomain "github.com/davicafu/hexatask/internal/shared/domain"
)

// Dialect describe las diferencias entre motores.
type Dialect struct {
	// Placeholder devuelve el marcador del argumento n (empezando en 1).
	Placeholder func(n int) string
	// Columns mapea campos del criterio a columnas permitidas.
	Columns map[string]string
	// ILike es el operador de búsqueda insensible a mayúsculas del motor.
	ILike string
	// Value convierte valores de dominio al tipo que entiende el driver. Opcional.
	Value func(v interface{}) interface{}
}

// Question es el placeholder de SQLite/MySQL.
func Question(int) string { return "?" }

// Dollar es el placeholder de Postgres.
func Dollar(n int) string { return fmt.Sprintf("$%d", n) }

// UnknownFieldError se devuelve cuando un criterio referencia una columna no permitida.
type UnknownFieldError struct {
	Field string
}

func (e *UnknownFieldError) Error() string {
	return fmt.Sprintf("unknown criteria field %q", e.Field)
}

// Build genera la cláusula (sin WHERE) y sus argumentos. argStart es el número de
// argumentos ya usados en la consulta.
func Build(criteria sharedDomain.Criteria, d Dialect, argStart int) (string, []interface{}, error) {
	if criteria == nil {
		return "", nil, nil
	}
	b := builder{d: d, n: argStart}
	clauses := make([]string, 0)
	for _, c := range criteria.ToConditions() {
		clause, err := b.condition(c)
		if err != nil {
			return "", nil, err
		}
		clauses = append(clauses, clause)
	}
	return strings.Join(clauses, " AND "), b.args, nil
}

type builder struct {
	d    Dialect
	n    int
	args []interface{}
}

func (b *builder) condition(c sharedDomain.Criterion) (string, error) {
	if c.IsGroup() {
		parts := make([]string, 0, len(c.AnyOf))
		for _, alt := range c.AnyOf {
			p, err := b.condition(alt)
			if err != nil {
				return "", err
			}
			parts = append(parts, p)
		}
		return "(" + strings.Join(parts, " OR ") + ")", nil
	}

	col, ok := b.d.Columns[c.Field]
	if !ok {
		return "", &UnknownFieldError{Field: c.Field}
	}

	op, err := b.operator(c.Op)
	if err != nil {
		return "", err
	}

	b.n++
	value := c.Value
	if b.d.Value != nil {
		value = b.d.Value(value)
	}
	b.args = append(b.args, value)
	if c.Op == sharedDomain.OpLike || c.Op == sharedDomain.OpILike {
		return fmt.Sprintf("%s %s %s ESCAPE '%s'", col, op, b.d.Placeholder(b.n), sharedDomain.LikeEscape), nil
	}
	return fmt.Sprintf("%s %s %s", col, op, b.d.Placeholder(b.n)), nil
}

func (b *builder) operator(op sharedDomain.Operator) (string, error) {
	switch op {
	case sharedDomain.OpEq, sharedDomain.OpNe, sharedDomain.OpGt, sharedDomain.OpGte,
		sharedDomain.OpLt, sharedDomain.OpLte, sharedDomain.OpLike:
		return string(op), nil
	case sharedDomain.OpILike:
		if b.d.ILike == "" {
			return string(sharedDomain.OpLike), nil
		}
		return b.d.ILike, nil
	default:
		return "", fmt.Errorf("unsupported criteria operator %q", op)
	}
}

// OrderBy valida el campo de orden contra las columnas permitidas.
// Un campo vacío usa fallback.
func OrderBy(field string, desc bool, columns map[string]string, fallback string) (string, error) {
	col := fallback
	if field != "" {
		c, ok := columns[field]
		if !ok {
			return "", &UnknownFieldError{Field: field}
		}
		col = c
	}
	dir := "ASC"
	if desc {
		dir = "DESC"
	}
	return col + " " + dir, nil
}
