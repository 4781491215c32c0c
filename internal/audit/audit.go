// Package audit keeps an append-only log of administrative and lifecycle
// actions. Recording is best-effort: failures are logged and never propagate
// to the operation being recorded.
package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Entry is a single audit record.
type Entry struct {
	ActorID    string
	Action     string
	EntityType string
	EntityID   string
	Details    map[string]any
	CreatedAt  time.Time
}

type Recorder interface {
	Record(ctx context.Context, e Entry)
}

type pgxRecorder struct {
	pool *pgxpool.Pool
}

func NewPgxRecorder(pool *pgxpool.Pool) Recorder {
	return &pgxRecorder{pool: pool}
}

func (r *pgxRecorder) Record(ctx context.Context, e Entry) {
	if err := r.record(ctx, e); err != nil {
		log.Printf("audit: record %s failed: %v", e.Action, err)
	}
}

func (r *pgxRecorder) record(ctx context.Context, e Entry) error {
	var details []byte
	if e.Details != nil {
		b, err := json.Marshal(e.Details)
		if err != nil {
			return fmt.Errorf("marshal details failed: %w", err)
		}
		details = b
	}

	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	query, args, err := psql.Insert("public.audit_log").
		Columns("actor_id", "action", "entity_type", "entity_id", "details").
		Values(e.ActorID, e.Action, e.EntityType, e.EntityID, details).
		ToSql()
	if err != nil {
		return fmt.Errorf("build audit insert failed: %w", err)
	}

	if _, err := r.pool.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("insert audit entry failed: %w", err)
	}
	return nil
}

// LogRecorder writes entries to the process log. Used when auditing to the
// database is not wanted, and in tests.
type LogRecorder struct{}

func NewLogRecorder() *LogRecorder {
	return &LogRecorder{}
}

func (LogRecorder) Record(_ context.Context, e Entry) {
	log.Printf("audit: actor=%s action=%s %s=%s", e.ActorID, e.Action, e.EntityType, e.EntityID)
}
