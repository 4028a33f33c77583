package sqlcriteria

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	sharedDomain "github.com/davicafu/hexatask/internal/shared/domain"
)

type conds []sharedDomain.Criterion

func (c conds) ToConditions() []sharedDomain.Criterion { return c }

var columns = map[string]string{
	"status":      "status",
	"title":       "title",
	"description": "description",
	"due_date":    "due_date",
}

func TestBuild_Postgres(t *testing.T) {
	crit := conds{
		{Field: "status", Op: sharedDomain.OpEq, Value: "TODO"},
		{AnyOf: []sharedDomain.Criterion{
			{Field: "title", Op: sharedDomain.OpILike, Value: "%x%"},
			{Field: "description", Op: sharedDomain.OpILike, Value: "%x%"},
		}},
	}

	where, args, err := Build(crit, Dialect{Placeholder: Dollar, Columns: columns, ILike: "ILIKE"}, 0)

	require.NoError(t, err)
	assert.Equal(t, `status = $1 AND (title ILIKE $2 ESCAPE '\' OR description ILIKE $3 ESCAPE '\')`, where)
	assert.Equal(t, []interface{}{"TODO", "%x%", "%x%"}, args)
}

func TestBuild_SQLiteFallsBackToLike(t *testing.T) {
	crit := conds{{Field: "title", Op: sharedDomain.OpILike, Value: "%x%"}}

	where, _, err := Build(crit, Dialect{Placeholder: Question, Columns: columns}, 0)

	require.NoError(t, err)
	assert.Equal(t, `title LIKE ? ESCAPE '\'`, where)
}

func TestBuild_ArgStartAndValueConversion(t *testing.T) {
	crit := conds{{Field: "due_date", Op: sharedDomain.OpLt, Value: 7}}
	d := Dialect{Placeholder: Dollar, Columns: columns, Value: func(v interface{}) interface{} { return v.(int) * 2 }}

	where, args, err := Build(crit, d, 2)

	require.NoError(t, err)
	assert.Equal(t, "due_date < $3", where)
	assert.Equal(t, []interface{}{14}, args)
}

func TestBuild_RejectsUnknownField(t *testing.T) {
	crit := conds{{Field: "1=1; DROP TABLE tasks", Op: sharedDomain.OpEq, Value: 1}}

	_, _, err := Build(crit, Dialect{Placeholder: Question, Columns: columns}, 0)

	var unknown *UnknownFieldError
	assert.True(t, errors.As(err, &unknown))
}

func TestBuild_NilCriteria(t *testing.T) {
	where, args, err := Build(nil, Dialect{Placeholder: Question, Columns: columns}, 0)
	require.NoError(t, err)
	assert.Empty(t, where)
	assert.Nil(t, args)
}

func TestOrderBy(t *testing.T) {
	got, err := OrderBy("", false, columns, "created_at")
	require.NoError(t, err)
	assert.Equal(t, "created_at ASC", got)

	got, err = OrderBy("due_date", true, columns, "created_at")
	require.NoError(t, err)
	assert.Equal(t, "due_date DESC", got)

	_, err = OrderBy("nope", true, columns, "created_at")
	assert.Error(t, err)
}
