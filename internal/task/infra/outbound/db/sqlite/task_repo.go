package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	sharedDomain "github.com/davicafu/hexatask/internal/shared/domain"
	"github.com/davicafu/hexatask/internal/shared/infra/platform/db/sqlcriteria"
	sharedSQLite "github.com/davicafu/hexatask/internal/shared/infra/platform/db/sqlite"
	sharedQuery "github.com/davicafu/hexatask/internal/shared/infra/platform/query"
	taskDomain "github.com/davicafu/hexatask/internal/task/domain"
)

const taskColumns = "id, title, description, priority, status, created_at, updated_at, due_date, assignee_id, version"

// columns es la lista blanca de campos filtrables y ordenables.
var columns = map[string]string{
	taskDomain.FieldID:          "id",
	taskDomain.FieldTitle:       "title",
	taskDomain.FieldDescription: "description",
	taskDomain.FieldPriority:    "priority",
	taskDomain.FieldStatus:      "status",
	taskDomain.FieldCreatedAt:   "created_at",
	taskDomain.FieldUpdatedAt:   "updated_at",
	taskDomain.FieldDueDate:     "due_date",
	taskDomain.FieldAssigneeID:  "assignee_id",
}

// LIKE de SQLite ya ignora mayúsculas en ASCII, por eso ILike queda vacío.
var dialect = sqlcriteria.Dialect{
	Placeholder: sqlcriteria.Question,
	Columns:     columns,
	Value:       toDBValue,
}

// TaskRepoSQLite implementa taskDomain.TaskRepository sobre SQLite.
type TaskRepoSQLite struct {
	db *sql.DB
}

func NewTaskRepoSQLite(db *sql.DB) *TaskRepoSQLite {
	return &TaskRepoSQLite{db: db}
}

// InitSchema crea la tabla tasks y el outbox compartido.
func InitSchema(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, `
    CREATE TABLE IF NOT EXISTS tasks (
        id TEXT PRIMARY KEY,
        title TEXT NOT NULL,
        description TEXT,
        priority TEXT NOT NULL,
        status TEXT NOT NULL,
        created_at TEXT NOT NULL,
        updated_at TEXT NOT NULL,
        due_date TEXT,
        assignee_id TEXT,
        version INTEGER NOT NULL DEFAULT 1
    );
    CREATE INDEX IF NOT EXISTS idx_tasks_status ON tasks (status);
    CREATE INDEX IF NOT EXISTS idx_tasks_assignee ON tasks (assignee_id);
    CREATE INDEX IF NOT EXISTS idx_tasks_due_date ON tasks (due_date);`)
	if err != nil {
		return fmt.Errorf("failed to create tasks table: %w", err)
	}
	return sharedSQLite.InitOutboxSchema(ctx, db)
}

// ------------------ CRUD + Outbox ------------------

func (r *TaskRepoSQLite) Create(ctx context.Context, t *taskDomain.Task, evt sharedDomain.OutboxEvent) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin tx: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO tasks (`+taskColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, 1)`,
		t.ID.String(), t.Title, t.Description, string(t.Priority), string(t.Status),
		sharedSQLite.FormatTime(t.CreatedAt), sharedSQLite.FormatTime(t.UpdatedAt),
		sharedSQLite.FormatTimePtr(t.DueDate), uuidPtr(t.AssigneeID),
	)
	if err != nil {
		if isPrimaryKeyViolation(err) {
			return taskDomain.ErrTaskAlreadyExists
		}
		return fmt.Errorf("db error: %w", err)
	}

	if err := sharedSQLite.InsertOutboxTx(ctx, tx, evt); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	t.Version = 1
	return nil
}

// Update escribe solo si la versión almacenada coincide con t.Version.
func (r *TaskRepoSQLite) Update(ctx context.Context, t *taskDomain.Task, evt sharedDomain.OutboxEvent) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin tx: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		`UPDATE tasks SET title=?, description=?, priority=?, status=?, updated_at=?, due_date=?, assignee_id=?, version=version+1
		 WHERE id=? AND version=?`,
		t.Title, t.Description, string(t.Priority), string(t.Status), sharedSQLite.FormatTime(t.UpdatedAt),
		sharedSQLite.FormatTimePtr(t.DueDate), uuidPtr(t.AssigneeID),
		t.ID.String(), t.Version,
	)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get RowsAffected: %w", err)
	}
	if rows == 0 {
		return missingOrStale(ctx, tx, t.ID)
	}

	if err := sharedSQLite.InsertOutboxTx(ctx, tx, evt); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	t.Version++
	return nil
}

func (r *TaskRepoSQLite) DeleteByID(ctx context.Context, id uuid.UUID, evt sharedDomain.OutboxEvent) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin tx: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `DELETE FROM tasks WHERE id=?`, id.String())
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	rows, _ := res.RowsAffected()
	if rows == 0 {
		return taskDomain.ErrTaskNotFound
	}

	if err := sharedSQLite.InsertOutboxTx(ctx, tx, evt); err != nil {
		return err
	}
	return tx.Commit()
}

// ------------------ Lectura ------------------

func (r *TaskRepoSQLite) GetByID(ctx context.Context, id uuid.UUID) (*taskDomain.Task, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+taskColumns+` FROM tasks WHERE id=?`, id.String())
	t, err := scanTask(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, taskDomain.ErrTaskNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("db scan error: %w", err)
	}
	return t, nil
}

// ListByCriteria aplica filtros, orden y paginación. Sin paginación devuelve todo.
func (r *TaskRepoSQLite) ListByCriteria(ctx context.Context, criteria sharedDomain.Criteria, pagination sharedQuery.Pagination, sort sharedQuery.Sort) ([]*taskDomain.Task, error) {
	whereSQL, args, err := sqlcriteria.Build(criteria, dialect, 0)
	if err != nil {
		return nil, err
	}

	query := `SELECT ` + taskColumns + ` FROM tasks`
	if whereSQL != "" {
		query += " WHERE " + whereSQL
	}

	order, err := sqlcriteria.OrderBy(sort.Field, sort.Desc, columns, "created_at")
	if err != nil {
		return nil, err
	}
	if sort.Field == taskDomain.FieldDueDate {
		// SQLite ordena los NULL primero; las tareas sin fecha van al final
		order = "due_date IS NULL, " + order
	}
	query += " ORDER BY " + order + ", id"

	if p, ok := pagination.(sharedQuery.OffsetPagination); ok {
		query += " LIMIT ? OFFSET ?"
		args = append(args, p.Limit, p.Offset)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	tasks := []*taskDomain.Task{}
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, t)
	}
	return tasks, rows.Err()
}

// ------------------ Helpers ------------------

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanTask(s scanner) (*taskDomain.Task, error) {
	var (
		t                      taskDomain.Task
		id, created, updated   string
		priority, status       string
		description, due, user sql.NullString
	)
	if err := s.Scan(&id, &t.Title, &description, &priority, &status, &created, &updated, &due, &user, &t.Version); err != nil {
		return nil, err
	}

	var err error
	if t.ID, err = uuid.Parse(id); err != nil {
		return nil, fmt.Errorf("invalid task id %q: %w", id, err)
	}
	t.Priority = taskDomain.TaskPriority(priority)
	t.Status = taskDomain.TaskStatus(status)
	if description.Valid {
		d := description.String
		t.Description = &d
	}
	if t.CreatedAt, err = sharedSQLite.ParseTime(created); err != nil {
		return nil, err
	}
	if t.UpdatedAt, err = sharedSQLite.ParseTime(updated); err != nil {
		return nil, err
	}
	if t.DueDate, err = sharedSQLite.ParseNullTime(due); err != nil {
		return nil, err
	}
	if user.Valid {
		assignee, err := uuid.Parse(user.String)
		if err != nil {
			return nil, fmt.Errorf("invalid assignee id %q: %w", user.String, err)
		}
		t.AssigneeID = &assignee
	}
	return &t, nil
}

// missingOrStale distingue una tarea inexistente de una versión obsoleta.
func missingOrStale(ctx context.Context, tx *sql.Tx, id uuid.UUID) error {
	var one int
	err := tx.QueryRowContext(ctx, `SELECT 1 FROM tasks WHERE id=?`, id.String()).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return taskDomain.ErrTaskNotFound
	}
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return taskDomain.ErrTaskVersionConflict
}

func toDBValue(v interface{}) interface{} {
	switch x := v.(type) {
	case taskDomain.TaskStatus:
		return string(x)
	case taskDomain.TaskPriority:
		return string(x)
	case uuid.UUID:
		return x.String()
	case time.Time:
		return sharedSQLite.FormatTime(x)
	default:
		return v
	}
}

func uuidPtr(id *uuid.UUID) interface{} {
	if id == nil {
		return nil
	}
	return id.String()
}

// isPrimaryKeyViolation acepta el código primario o el extendido.
func isPrimaryKeyViolation(err error) bool {
	var se *sqlite.Error
	return errors.As(err, &se) && se.Code()&0xff == sqlite3.SQLITE_CONSTRAINT
}

var _ taskDomain.TaskRepository = (*TaskRepoSQLite)(nil)
