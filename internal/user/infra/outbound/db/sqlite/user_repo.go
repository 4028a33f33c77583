package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	sharedDomain "github.com/davicafu/hexatask/internal/shared/domain"
	"github.com/davicafu/hexatask/internal/shared/infra/platform/db/sqlcriteria"
	sharedSQLite "github.com/davicafu/hexatask/internal/shared/infra/platform/db/sqlite"
	sharedQuery "github.com/davicafu/hexatask/internal/shared/infra/platform/query"
	sharedUtils "github.com/davicafu/hexatask/internal/shared/infra/utils"
	"github.com/davicafu/hexatask/internal/user/domain"
)

const userColumns = "id, email, name, active, created_at, updated_at"

var columns = map[string]string{
	domain.FieldEmail:     "email",
	domain.FieldName:      "name",
	domain.FieldActive:    "active",
	domain.FieldCreatedAt: "created_at",
}

var dialect = sqlcriteria.Dialect{
	Placeholder: sqlcriteria.Question,
	Columns:     columns,
	Value:       toDBValue,
}

type UserRepoSQLite struct {
	db *sql.DB
}

func NewUserRepoSQLite(db *sql.DB) *UserRepoSQLite {
	return &UserRepoSQLite{db: db}
}

// InitSchema crea la tabla users y el outbox compartido.
func InitSchema(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, `
    CREATE TABLE IF NOT EXISTS users (
        id TEXT PRIMARY KEY,
        email TEXT NOT NULL UNIQUE,
        name TEXT NOT NULL,
        active INTEGER NOT NULL DEFAULT 1,
        created_at TEXT NOT NULL,
        updated_at TEXT NOT NULL
    );`)
	if err != nil {
		return fmt.Errorf("failed to create users table: %w", err)
	}
	return sharedSQLite.InitOutboxSchema(ctx, db)
}

// ------------------ Métodos ------------------

// Create inserta usuario y evento en transacción
func (r *UserRepoSQLite) Create(ctx context.Context, u *domain.User, evt sharedDomain.OutboxEvent) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin tx: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO users (`+userColumns+`) VALUES (?, ?, ?, ?, ?, ?)`,
		u.ID.String(), u.Email, u.Name, toDBValue(u.Active),
		sharedSQLite.FormatTime(u.CreatedAt), sharedSQLite.FormatTime(u.UpdatedAt),
	)
	if err != nil {
		if isConstraintViolation(err) {
			return domain.ErrUserAlreadyExists
		}
		return fmt.Errorf("db error: %w", err)
	}

	if err := sharedSQLite.InsertOutboxTx(ctx, tx, evt); err != nil {
		return err
	}
	return tx.Commit()
}

// Update actualiza usuario y crea evento Outbox en transacción
func (r *UserRepoSQLite) Update(ctx context.Context, u *domain.User, evt sharedDomain.OutboxEvent) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin tx: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		`UPDATE users SET email=?, name=?, active=?, updated_at=? WHERE id=?`,
		u.Email, u.Name, toDBValue(u.Active), sharedSQLite.FormatTime(u.UpdatedAt), u.ID.String(),
	)
	if err != nil {
		if isConstraintViolation(err) {
			return domain.ErrUserAlreadyExists
		}
		return fmt.Errorf("db error: %w", err)
	}
	rows, _ := res.RowsAffected()
	if rows == 0 {
		return domain.ErrUserNotFound
	}

	if err := sharedSQLite.InsertOutboxTx(ctx, tx, evt); err != nil {
		return err
	}
	return tx.Commit()
}

// DeleteByID elimina usuario y crea evento Outbox en transacción
func (r *UserRepoSQLite) DeleteByID(ctx context.Context, id uuid.UUID, evt sharedDomain.OutboxEvent) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin tx: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `DELETE FROM users WHERE id=?`, id.String())
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	rows, _ := res.RowsAffected()
	if rows == 0 {
		return domain.ErrUserNotFound
	}

	if err := sharedSQLite.InsertOutboxTx(ctx, tx, evt); err != nil {
		return err
	}
	return tx.Commit()
}

func (r *UserRepoSQLite) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id=?`, id.String())
	u, err := scanUser(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("db scan error: %w", err)
	}
	return u, nil
}

func (r *UserRepoSQLite) ListByCriteria(ctx context.Context, criteria sharedDomain.Criteria, pagination sharedQuery.Pagination, sort sharedQuery.Sort) ([]*domain.User, error) {
	whereSQL, args, err := sqlcriteria.Build(criteria, dialect, 0)
	if err != nil {
		return nil, err
	}

	query := `SELECT ` + userColumns + ` FROM users`
	if whereSQL != "" {
		query += " WHERE " + whereSQL
	}
	order, err := sqlcriteria.OrderBy(sort.Field, sort.Desc, columns, "created_at")
	if err != nil {
		return nil, err
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

	users := []*domain.User{}
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

// ------------------ Helpers ------------------

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanUser(s scanner) (*domain.User, error) {
	var (
		u                    domain.User
		id, created, updated string
	)
	if err := s.Scan(&id, &u.Email, &u.Name, &u.Active, &created, &updated); err != nil {
		return nil, err
	}

	var err error
	if u.ID, err = uuid.Parse(id); err != nil {
		return nil, fmt.Errorf("invalid UUID in DB: %w", err)
	}
	if u.CreatedAt, err = sharedSQLite.ParseTime(created); err != nil {
		return nil, err
	}
	if u.UpdatedAt, err = sharedSQLite.ParseTime(updated); err != nil {
		return nil, err
	}
	return &u, nil
}

func toDBValue(v interface{}) interface{} {
	if b, ok := v.(bool); ok {
		return sharedUtils.Ternary(b, 1, 0)
	}
	return v
}

// isConstraintViolation cubre la clave primaria y el email único.
func isConstraintViolation(err error) bool {
	var se *sqlite.Error
	return errors.As(err, &se) && se.Code()&0xff == sqlite3.SQLITE_CONSTRAINT
}

var _ domain.UserRepository = (*UserRepoSQLite)(nil)
