package clickhouse

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2"

	taskDomain "github.com/davicafu/hexatask/internal/task/domain"
)

const lifecycleTable = "task_lifecycle_log"

// TaskAnalyticsRepo implementa la interfaz TaskAnalyticsRepository para ClickHouse.
type TaskAnalyticsRepo struct {
	db *sql.DB
}

func NewTaskAnalyticsRepo(ctx context.Context, addr, dbName string) (*TaskAnalyticsRepo, error) {
	conn := clickhouse.OpenDB(&clickhouse.Options{
		Addr: []string{addr},
		Auth: clickhouse.Auth{
			Database: dbName,
		},
		Settings: clickhouse.Settings{
			"max_execution_time": 60,
		},
		DialTimeout: 5 * time.Second,
	})

	if err := conn.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("could not ping clickhouse: %w", err)
	}

	return &TaskAnalyticsRepo{db: conn}, nil
}

// NewTaskAnalyticsRepoFromDB reutiliza una conexión ya abierta.
func NewTaskAnalyticsRepoFromDB(db *sql.DB) *TaskAnalyticsRepo {
	return &TaskAnalyticsRepo{db: db}
}

// InitSchema crea la tabla de cambios de estado, particionada por mes.
func (r *TaskAnalyticsRepo) InitSchema(ctx context.Context) error {
	query := `
		CREATE TABLE IF NOT EXISTS ` + lifecycleTable + ` (
			task_id     UUID,
			from_status LowCardinality(String),
			to_status   LowCardinality(String),
			priority    LowCardinality(String),
			created_at  DateTime64(3, 'UTC'),
			changed_at  DateTime64(3, 'UTC')
		) ENGINE = MergeTree()
		PARTITION BY toYYYYMM(changed_at)
		ORDER BY (to_status, changed_at, task_id)
	`
	_, err := r.db.ExecContext(ctx, query)
	return err
}

// LogBatch inserta el lote en una sola transacción: o entran todas las filas o ninguna.
func (r *TaskAnalyticsRepo) LogBatch(ctx context.Context, entries []taskDomain.LifecycleEntry) error {
	if len(entries) == 0 {
		return nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}

	stmt, err := tx.PrepareContext(ctx, "INSERT INTO "+lifecycleTable+" (task_id, from_status, to_status, priority, created_at, changed_at)")
	if err != nil {
		tx.Rollback()
		return err
	}
	defer stmt.Close()

	for _, e := range entries {
		if _, err := stmt.ExecContext(ctx, entryArgs(e)...); err != nil {
			tx.Rollback()
			return fmt.Errorf("failed to exec statement for task %s: %w", e.TaskID, err)
		}
	}

	return tx.Commit()
}

// GetDailyTrend cuenta por día las creaciones y las llegadas a DONE dentro de [start, end).
func (r *TaskAnalyticsRepo) GetDailyTrend(ctx context.Context, start, end time.Time) ([]taskDomain.DailyTaskTrend, error) {
	query := `
		SELECT
			toStartOfDay(changed_at) AS day,
			countIf(from_status = '') AS created,
			countIf(to_status = ?) AS completed
		FROM ` + lifecycleTable + `
		WHERE changed_at >= ? AND changed_at < ?
		GROUP BY day
		ORDER BY day
	`
	rows, err := r.db.QueryContext(ctx, query, string(taskDomain.StatusDone), start.UTC(), end.UTC())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	trends := []taskDomain.DailyTaskTrend{}
	for rows.Next() {
		var (
			trend              taskDomain.DailyTaskTrend
			created, completed uint64
		)
		if err := rows.Scan(&trend.Day, &created, &completed); err != nil {
			return nil, err
		}
		trend.Day = trend.Day.UTC()
		trend.CreatedCount = int(created)
		trend.CompletedCount = int(completed)
		trends = append(trends, trend)
	}
	return trends, rows.Err()
}

// GetAverageCompletionTime promedia el tiempo entre creación y DONE de las tareas terminadas en el rango.
func (r *TaskAnalyticsRepo) GetAverageCompletionTime(ctx context.Context, start, end time.Time) (time.Duration, error) {
	query := `
		SELECT avg(dateDiff('millisecond', created_at, changed_at))
		FROM ` + lifecycleTable + `
		WHERE to_status = ? AND changed_at >= ? AND changed_at < ?
	`
	var avgMillis sql.NullFloat64
	err := r.db.QueryRowContext(ctx, query, string(taskDomain.StatusDone), start.UTC(), end.UTC()).Scan(&avgMillis)
	if err != nil {
		return 0, err
	}
	return millisToDuration(avgMillis), nil
}

func entryArgs(e taskDomain.LifecycleEntry) []interface{} {
	return []interface{}{
		e.TaskID,
		string(e.FromStatus),
		string(e.ToStatus),
		string(e.Priority),
		e.CreatedAt.UTC(),
		e.ChangedAt.UTC(),
	}
}

// millisToDuration devuelve 0 cuando no hay filas (avg da NULL o NaN).
func millisToDuration(v sql.NullFloat64) time.Duration {
	if !v.Valid || v.Float64 != v.Float64 {
		return 0
	}
	return time.Duration(v.Float64 * float64(time.Millisecond))
}

// Verificación estática de la interfaz.
var _ taskDomain.TaskAnalyticsRepository = (*TaskAnalyticsRepo)(nil)
