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
	userDomain "github.com/davicafu/hexatask/internal/user/domain"
)

const uniqueViolation = "23505"

const userColumns = "id, email, name, active, created_at, updated_at"

var columns = map[string]string{
	userDomain.FieldEmail:     "email",
	userDomain.FieldName:      "name",
	userDomain.FieldActive:    "active",
	userDomain.FieldCreatedAt: "created_at",
}

var dialect = sqlcriteria.Dialect{
	Placeholder: sqlcriteria.Dollar,
	Columns:     columns,
	ILike:       "ILIKE",
}

type UserRepoPostgres struct {
	db *sql.DB
}

func NewUserRepoPostgres(db *sql.DB) *UserRepoPostgres {
	return &UserRepoPostgres{db: db}
}

// InitSchema crea la tabla users y el outbox compartido si no existen.
func InitSchema(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, `
    CREATE TABLE IF NOT EXISTS users (
        id UUID PRIMARY KEY,
        email TEXT NOT NULL UNIQUE,
        name TEXT NOT NULL,
        active BOOLEAN NOT NULL DEFAULT TRUE,
        created_at TIMESTAMP WITH TIME ZONE NOT NULL,
        updated_at TIMESTAMP WITH TIME ZONE NOT NULL
    )`)
	if err != nil {
		return fmt.Errorf("failed to create users table: %w", err)
	}
	return sharedPostgres.InitOutboxSchema(ctx, db)
}

// ------------------ CRUD + Outbox ------------------

func (r *UserRepoPostgres) Create(ctx context.Context, u *userDomain.User, evt sharedDomain.OutboxEvent) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin tx: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO users (`+userColumns+`) VALUES ($1, $2, $3, $4, $5, $6)`,
		u.ID, u.Email, u.Name, u.Active, u.CreatedAt, u.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return userDomain.ErrUserAlreadyExists
		}
		return fmt.Errorf("db error: %w", err)
	}

	if err := sharedPostgres.InsertOutboxTx(ctx, tx, evt); err != nil {
		return err
	}
	return tx.Commit()
}

func (r *UserRepoPostgres) Update(ctx context.Context, u *userDomain.User, evt sharedDomain.OutboxEvent) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin tx: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		`UPDATE users SET email=$1, name=$2, active=$3, updated_at=$4 WHERE id=$5`,
		u.Email, u.Name, u.Active, u.UpdatedAt, u.ID,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return userDomain.ErrUserAlreadyExists
		}
		return fmt.Errorf("db error: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get RowsAffected: %w", err)
	}
	if rows == 0 {
		return userDomain.ErrUserNotFound
	}

	if err := sharedPostgres.InsertOutboxTx(ctx, tx, evt); err != nil {
		return err
	}
	return tx.Commit()
}

func (r *UserRepoPostgres) DeleteByID(ctx context.Context, id uuid.UUID, evt sharedDomain.OutboxEvent) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin tx: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `DELETE FROM users WHERE id=$1`, id)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	rows, _ := res.RowsAffected()
	if rows == 0 {
		return userDomain.ErrUserNotFound
	}

	if err := sharedPostgres.InsertOutboxTx(ctx, tx, evt); err != nil {
		return err
	}
	return tx.Commit()
}

// ------------------ Lectura ------------------

func (r *UserRepoPostgres) GetByID(ctx context.Context, id uuid.UUID) (*userDomain.User, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id=$1`, id)
	u, err := scanUser(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, userDomain.ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("db scan error: %w", err)
	}
	return u, nil
}

func (r *UserRepoPostgres) ListByCriteria(ctx context.Context, criteria sharedDomain.Criteria, pagination sharedQuery.Pagination, sort sharedQuery.Sort) ([]*userDomain.User, error) {
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
		query += fmt.Sprintf(" LIMIT $%d OFFSET $%d", len(args)+1, len(args)+2)
		args = append(args, p.Limit, p.Offset)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	users := []*userDomain.User{}
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

func scanUser(s scanner) (*userDomain.User, error) {
	var u userDomain.User
	if err := s.Scan(&u.ID, &u.Email, &u.Name, &u.Active, &u.CreatedAt, &u.UpdatedAt); err != nil {
		return nil, err
	}
	u.CreatedAt = u.CreatedAt.UTC()
	u.UpdatedAt = u.UpdatedAt.UTC()
	return &u, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}

var _ userDomain.UserRepository = (*UserRepoPostgres)(nil)
