package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/wonny/compsync/internal/contracts"
)

const createSnapshotsTable = `
CREATE TABLE IF NOT EXISTS comp_snapshots (
	run_id         TEXT PRIMARY KEY,
	comp_id        TEXT NOT NULL,
	comp_name      TEXT NOT NULL,
	avg_placement  DOUBLE PRECISION NOT NULL,
	sample_size    BIGINT NOT NULL,
	top4_rate      DOUBLE PRECISION NOT NULL,
	record         JSONB NOT NULL,
	created_at     TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_comp_snapshots_comp_created
	ON comp_snapshots (comp_id, created_at DESC);
`

// Snapshot is one stored run
type Snapshot struct {
	RunID     string                     `json:"run_id"`
	CreatedAt time.Time                  `json:"created_at"`
	Record    contracts.NormalizedRecord `json:"record"`
}

// SnapshotRepository keeps the history of every persisted record in Postgres
type SnapshotRepository struct {
	pool *pgxpool.Pool
}

// NewSnapshotRepository creates a new repository
func NewSnapshotRepository(pool *pgxpool.Pool) *SnapshotRepository {
	return &SnapshotRepository{pool: pool}
}

// EnsureSchema creates the snapshot table if it does not exist
func (r *SnapshotRepository) EnsureSchema(ctx context.Context) error {
	if _, err := r.pool.Exec(ctx, createSnapshotsTable); err != nil {
		return fmt.Errorf("create comp_snapshots: %w", err)
	}
	return nil
}

// Name implements contracts.RecordSink
func (r *SnapshotRepository) Name() string {
	return "postgres"
}

// Publish implements contracts.RecordSink
func (r *SnapshotRepository) Publish(ctx context.Context, runID string, record *contracts.NormalizedRecord) error {
	body, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}

	query := `
		INSERT INTO comp_snapshots (run_id, comp_id, comp_name, avg_placement, sample_size, top4_rate, record)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (run_id) DO NOTHING
	`

	_, err = r.pool.Exec(ctx, query,
		runID,
		record.CompID.String(),
		record.CompName,
		record.Performance.AvgPlacement,
		record.Performance.SampleSize,
		record.Performance.EstimatedTop4Rate,
		body,
	)
	if err != nil {
		return fmt.Errorf("insert snapshot: %w", err)
	}

	return nil
}

// History returns the most recent snapshots for compID, newest first
func (r *SnapshotRepository) History(ctx context.Context, compID string, limit int) ([]Snapshot, error) {
	query := `
		SELECT run_id, created_at, record
		FROM comp_snapshots
		WHERE comp_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`

	rows, err := r.pool.Query(ctx, query, compID, limit)
	if err != nil {
		return nil, fmt.Errorf("query snapshots: %w", err)
	}
	defer rows.Close()

	snapshots := make([]Snapshot, 0, limit)
	for rows.Next() {
		var (
			s    Snapshot
			body []byte
		)
		if err := rows.Scan(&s.RunID, &s.CreatedAt, &body); err != nil {
			return nil, fmt.Errorf("scan snapshot: %w", err)
		}
		if err := json.Unmarshal(body, &s.Record); err != nil {
			return nil, fmt.Errorf("decode snapshot %s: %w", s.RunID, err)
		}
		snapshots = append(snapshots, s)
	}

	return snapshots, rows.Err()
}
