package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	// _ "github.com/mattn/go-sqlite3" // mejor rendimiento pero requiere gcc
	_ "modernc.org/sqlite"
)

// TimeLayout es de ancho fijo en UTC: el orden lexicográfico coincide con el temporal,
// así que las comparaciones y ORDER BY sobre TEXT funcionan.
const TimeLayout = "2006-01-02T15:04:05.000000000Z"

// Open abre la base con WAL, claves foráneas y espera ante bloqueos.
// SQLite admite un solo escritor: el pool se limita a una conexión.
func Open(ctx context.Context, path string) (*sql.DB, error) {
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=foreign_keys(1)", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}
	return db, nil
}

func FormatTime(t time.Time) string {
	return t.UTC().Format(TimeLayout)
}

// FormatTimePtr devuelve nil (NULL) si t es nil.
func FormatTimePtr(t *time.Time) interface{} {
	if t == nil {
		return nil
	}
	return FormatTime(*t)
}

func ParseTime(s string) (time.Time, error) {
	t, err := time.Parse(TimeLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid timestamp %q: %w", s, err)
	}
	return t, nil
}

func ParseNullTime(s sql.NullString) (*time.Time, error) {
	if !s.Valid {
		return nil, nil
	}
	t, err := ParseTime(s.String)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
