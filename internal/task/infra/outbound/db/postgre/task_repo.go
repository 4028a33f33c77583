package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"

	sharedDomain "github.com/davicafu/hexatask/internal/shared/domain"
	sharedPostgres "github.com/davicafu/hexatask/internal/shared/infra/platform/db/postgres"
	"github.com/davicafu/hexatask/internal/shared/infra/platform/db/sqlcriteria"
	sharedQuery "github.com/davicafu/hexatask/internal/shared/infra/platform/query"
	taskDomain "github.com/davicafu/hexatask/internal/task/domain"
)

// uniqueViolation es el SQLSTATE de clave duplicada.
const uniqueViolation = "23505"

const taskColumns = "id, title, description, priority, status, created_at, updated_at, due_date, assignee_id, version"

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

var dialect = sqlcriteria.Dialect{
	Placeholder: sqlcriteria.Dollar,
	Columns:     columns,
	ILike:       "ILIKE",
	Value:       toDBValue,
}

// TaskRepoPostgres implementa la interfaz TaskRepository para PostgreSQL.
type TaskRepoPostgres struct {
	db *sql.DB
}

func NewTaskRepoPostgres(db *sql.DB) *TaskRepoPostgres {
	return &TaskRepoPostgres{db: db}
}

// ------------------ Inicialización del Esquema ------------------

// InitSchema crea la tabla tasks y el outbox compartido si no existen.
func InitSchema(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, `
    CREATE TABLE IF NOT EXISTS tasks (
        id UUID PRIMARY KEY,
        title VARCHAR(100) NOT NULL,
        description VARCHAR(500),
        priority TEXT NOT NULL,
        status TEXT NOT NULL,
        created_at TIMESTAMP WITH TIME ZONE NOT NULL,
        updated_at TIMESTAMP WITH TIME ZONE NOT NULL,
        due_date TIMESTAMP WITH TIME ZONE,
        assignee_id UUID,
        version INTEGER NOT NULL DEFAULT 1
    )`)
	if err != nil {
		return fmt.Errorf("failed to create tasks table: %w", err)
	}
	for _, stmt := range []string{
		`CREATE INDEX IF NOT EXISTS idx_tasks_status ON tasks (status)`,
		`CREATE INDEX IF NOT EXISTS idx_tasks_assignee ON tasks (assignee_id)`,
		`CREATE INDEX IF NOT EXISTS idx_tasks_due_date ON tasks (due_date)`,
	} {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to create tasks index: %w", err)
		}
	}
	return sharedPostgres.InitOutboxSchema(ctx, db)
}

// ------------------ CRUD + Outbox ------------------

// Create inserta una tarea y su evento en una transacción.
func (r *TaskRepoPostgres) Create(ctx context.Context, t *taskDomain.Task, evt sharedDomain.OutboxEvent) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin tx: %w", err)
	}
	defer tx.Rollback() // Se ignora si el Commit() es exitoso

	_, err = tx.ExecContext(ctx,
		`INSERT INTO tasks (`+taskColumns+`) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, 1)`,
		t.ID, t.Title, t.Description, string(t.Priority), string(t.Status),
		t.CreatedAt, t.UpdatedAt, t.DueDate, t.AssigneeID,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return taskDomain.ErrTaskAlreadyExists
		}
		return fmt.Errorf("db error: %w", err)
	}

	if err := sharedPostgres.InsertOutboxTx(ctx, tx, evt); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	t.Version = 1
	return nil
}

// Update escribe solo si la versión almacenada coincide con t.Version.
func (r *TaskRepoPostgres) Update(ctx context.Context, t *taskDomain.Task, evt sharedDomain.OutboxEvent) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin tx: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		`UPDATE tasks SET title=$1, description=$2, priority=$3, status=$4, updated_at=$5, due_date=$6, assignee_id=$7, version=version+1
		 WHERE id=$8 AND version=$9`,
		t.Title, t.Description, string(t.Priority), string(t.Status), t.UpdatedAt, t.DueDate, t.AssigneeID,
		t.ID, t.Version,
	)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get RowsAffected: %w", err)
	}
	if rows == 0 {
		var exists bool
		if err := tx.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM tasks WHERE id=$1)`, t.ID).Scan(&exists); err != nil {
			return fmt.Errorf("db error: %w", err)
		}
		if !exists {
			return taskDomain.ErrTaskNotFound
		}
		return taskDomain.ErrTaskVersionConflict
	}

	if err := sharedPostgres.InsertOutboxTx(ctx, tx, evt); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	t.Version++
	return nil
}

// DeleteByID elimina una tarea y crea un evento en una transacción.
func (r *TaskRepoPostgres) DeleteByID(ctx context.Context, id uuid.UUID, evt sharedDomain.OutboxEvent) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin tx: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `DELETE FROM tasks WHERE id=$1`, id)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}

	rows, _ := res.RowsAffected()
	if rows == 0 {
		return taskDomain.ErrTaskNotFound
	}

	if err := sharedPostgres.InsertOutboxTx(ctx, tx, evt); err != nil {
		return err
	}
	return tx.Commit()
}

// ------------------ Lectura ------------------

func (r *TaskRepoPostgres) GetByID(ctx context.Context, id uuid.UUID) (*taskDomain.Task, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+taskColumns+` FROM tasks WHERE id=$1`, id)
	t, err := scanTask(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, taskDomain.ErrTaskNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("db scan error: %w", err)
	}
	return t, nil
}

// ListByCriteria recupera tareas aplicando filtros, paginación y ordenamiento.
func (r *TaskRepoPostgres) ListByCriteria(ctx context.Context, criteria sharedDomain.Criteria, pagination sharedQuery.Pagination, sort sharedQuery.Sort) ([]*taskDomain.Task, error) {
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
	query += " ORDER BY " + order + " NULLS LAST, id"

	if p, ok := pagination.(sharedQuery.OffsetPagination); ok {
		query += fmt.Sprintf(" LIMIT $%d OFFSET $%d", len(args)+1, len(args)+2)
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
		t                taskDomain.Task
		priority, status string
		description      sql.NullString
		due              sql.NullTime
		assignee         uuid.NullUUID
	)
	err := s.Scan(&t.ID, &t.Title, &description, &priority, &status, &t.CreatedAt, &t.UpdatedAt, &due, &assignee, &t.Version)
	if err != nil {
		return nil, err
	}

	t.Priority = taskDomain.TaskPriority(priority)
	t.Status = taskDomain.TaskStatus(status)
	t.CreatedAt = t.CreatedAt.UTC()
	t.UpdatedAt = t.UpdatedAt.UTC()
	if description.Valid {
		d := description.String
		t.Description = &d
	}
	if due.Valid {
		d := due.Time.UTC()
		t.DueDate = &d
	}
	if assignee.Valid {
		id := assignee.UUID
		t.AssigneeID = &id
	}
	return &t, nil
}

func toDBValue(v interface{}) interface{} {
	switch x := v.(type) {
	case taskDomain.TaskStatus:
		return string(x)
	case taskDomain.TaskPriority:
		return string(x)
	default:
		return v
	}
}

var _ taskDomain.TaskRepository = (*TaskRepoPostgres)(nil)
