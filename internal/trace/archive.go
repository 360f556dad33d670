// File: internal/trace/archive.go
package trace

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	json "github.com/json-iterator/go"
	"go.uber.org/zap"

	"github.com/xkilldash9x/warden-cli/api/schemas"
)

// DBPool abstracts the pgxpool.Pool so the archive can be mocked in tests.
type DBPool interface {
	Ping(ctx context.Context) error
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	CopyFrom(ctx context.Context, tableName pgx.Identifier, columnNames []string, rowSrc pgx.CopyFromSource) (int64, error)
}

// Archive bulk-loads trace records into Postgres for offline analysis of
// large evaluation logs. The JSONL file stays the source of truth; the
// archive is a read-optimized copy and never feeds back into execution.
type Archive struct {
	pool DBPool
	log  *zap.Logger
}

// NewArchive creates an archive instance and verifies the connection.
func NewArchive(ctx context.Context, pool DBPool, logger *zap.Logger) (*Archive, error) {
	if pool == nil {
		return nil, fmt.Errorf("database pool cannot be nil")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger cannot be nil")
	}
	if err := pool.Ping(ctx); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return &Archive{pool: pool, log: logger.Named("trace.archive")}, nil
}

const createTraceTableSQL = `
CREATE TABLE IF NOT EXISTS trace_records (
    id           BIGSERIAL PRIMARY KEY,
    ts           TIMESTAMPTZ NOT NULL,
    mode         TEXT NOT NULL,
    window_title TEXT,
    focused      TEXT,
    action       JSONB NOT NULL,
    violations   TEXT[],
    status       TEXT NOT NULL,
    error        TEXT,
    context      JSONB,
    duration_ms  BIGINT
)`

// EnsureSchema creates the trace_records table if it does not exist.
func (a *Archive) EnsureSchema(ctx context.Context) error {
	if _, err := a.pool.Exec(ctx, createTraceTableSQL); err != nil {
		return fmt.Errorf("failed to create trace_records table: %w", err)
	}
	return nil
}

// ArchiveRecords copies the records into Postgres in one bulk operation.
func (a *Archive) ArchiveRecords(ctx context.Context, records []schemas.TraceRecord) error {
	if len(records) == 0 {
		return nil
	}

	rows := make([][]any, len(records))
	for i, r := range records {
		actionJSON, err := json.Marshal(r.Action)
		if err != nil {
			return fmt.Errorf("failed to marshal action for archive: %w", err)
		}
		contextJSON, err := json.Marshal(r.Context)
		if err != nil {
			return fmt.Errorf("failed to marshal context for archive: %w", err)
		}

		rows[i] = []any{
			r.Timestamp.UTC(), string(r.Mode), r.WindowTitle, r.FocusedWindow,
			actionJSON, r.Violations, r.Status, r.Error,
			contextJSON, r.DurationMS,
		}
	}

	copyCount, err := a.pool.CopyFrom(
		ctx,
		pgx.Identifier{"trace_records"},
		[]string{"ts", "mode", "window_title", "focused", "action", "violations", "status", "error", "context", "duration_ms"},
		pgx.CopyFromRows(rows),
	)
	if err != nil {
		return fmt.Errorf("failed to copy trace records: %w", err)
	}
	if int(copyCount) != len(records) {
		return fmt.Errorf("mismatch in archived record count: expected %d, got %d", len(records), copyCount)
	}

	a.log.Info("Archived trace records", zap.Int("count", len(records)))
	return nil
}
