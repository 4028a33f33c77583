package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	sharedDomain "github.com/davicafu/hexatask/internal/shared/domain"
)

// OutboxRepoSQLite implementa sharedDomain.OutboxRepository.
type OutboxRepoSQLite struct {
	db *sql.DB
}

func NewOutboxRepoSQLite(db *sql.DB) *OutboxRepoSQLite {
	return &OutboxRepoSQLite{db: db}
}

// InitOutboxSchema crea la tabla outbox compartida por todos los agregados.
func InitOutboxSchema(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, `
    CREATE TABLE IF NOT EXISTS outbox (
        id TEXT PRIMARY KEY,
        aggregate_type TEXT NOT NULL,
        aggregate_id TEXT NOT NULL,
        event_type TEXT NOT NULL,
        payload TEXT NOT NULL,
        created_at TEXT NOT NULL,
        processed INTEGER NOT NULL DEFAULT 0
    );
    CREATE INDEX IF NOT EXISTS idx_outbox_pending ON outbox (processed, created_at);`)
	if err != nil {
		return fmt.Errorf("failed to create outbox table: %w", err)
	}
	return nil
}

// InsertOutboxTx escribe el evento dentro de la transacción del agregado.
func InsertOutboxTx(ctx context.Context, tx *sql.Tx, evt sharedDomain.OutboxEvent) error {
	payloadBytes, err := json.Marshal(evt.Payload)
	if err != nil {
		return fmt.Errorf("failed to marshal outbox payload: %w", err)
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO outbox (id, aggregate_type, aggregate_id, event_type, payload, created_at, processed)
		 VALUES (?, ?, ?, ?, ?, ?, 0)`,
		evt.ID.String(), evt.AggregateType, evt.AggregateID, evt.EventType, string(payloadBytes), FormatTime(evt.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to insert outbox event: %w", err)
	}
	return nil
}

// FetchPendingOutbox obtiene los eventos no procesados en orden de creación.
func (r *OutboxRepoSQLite) FetchPendingOutbox(ctx context.Context, limit int) ([]sharedDomain.OutboxEvent, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, aggregate_type, aggregate_id, event_type, payload, created_at
         FROM outbox
         WHERE processed = 0
         ORDER BY created_at
         LIMIT ?`, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []sharedDomain.OutboxEvent
	for rows.Next() {
		var (
			evt        sharedDomain.OutboxEvent
			idStr      string
			payloadStr string
			createdStr string
		)
		if err := rows.Scan(&idStr, &evt.AggregateType, &evt.AggregateID, &evt.EventType, &payloadStr, &createdStr); err != nil {
			return nil, err
		}

		if evt.ID, err = uuid.Parse(idStr); err != nil {
			return nil, fmt.Errorf("invalid UUID in outbox row: %w", err)
		}
		if evt.CreatedAt, err = ParseTime(createdStr); err != nil {
			return nil, err
		}

		var payload map[string]interface{}
		if err := json.Unmarshal([]byte(payloadStr), &payload); err != nil {
			return nil, fmt.Errorf("invalid JSON payload in outbox row %s: %w", evt.ID, err)
		}
		evt.Payload = payload

		events = append(events, evt)
	}

	return events, rows.Err()
}

// MarkOutboxProcessed marca un evento como procesado.
func (r *OutboxRepoSQLite) MarkOutboxProcessed(ctx context.Context, id uuid.UUID) error {
	res, err := r.db.ExecContext(ctx, `UPDATE outbox SET processed = 1 WHERE id = ?`, id.String())
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get RowsAffected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("outbox event not found: %s", id)
	}
	return nil
}

var _ sharedDomain.OutboxRepository = (*OutboxRepoSQLite)(nil)
