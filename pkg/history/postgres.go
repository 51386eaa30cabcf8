package history

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresBackend keeps the ledger in a shared database so several
// planners can trend the same feeder.
type PostgresBackend struct {
	pool *pgxpool.Pool
}

const createSnapshotsSQL = `
CREATE TABLE IF NOT EXISTS feeder_snapshots (
    id UUID PRIMARY KEY,
    ts BIGINT NOT NULL,
    network TEXT NOT NULL,
    source_kv DOUBLE PRECISION NOT NULL,
    scale DOUBLE PRECISION NOT NULL,
    total_load_kva DOUBLE PRECISION NOT NULL,
    total_loss_kw DOUBLE PRECISION NOT NULL,
    min_per_unit DOUBLE PRECISION NOT NULL,
    efficiency_percent DOUBLE PRECISION NOT NULL,
    node_count INTEGER NOT NULL,
    edge_count INTEGER NOT NULL,
    violation_count INTEGER NOT NULL,
    critical_count INTEGER NOT NULL
)`

// NewPostgresBackend connects a pgx pool and creates the snapshot
// table when missing.
func NewPostgresBackend(ctx context.Context, dsn string) (*PostgresBackend, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to postgres: %w", err)
	}

	if _, err := pool.Exec(ctx, createSnapshotsSQL); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ensure snapshot table: %w", err)
	}

	return &PostgresBackend{pool: pool}, nil
}

// Close releases the pool resources.
func (b *PostgresBackend) Close() {
	if b.pool != nil {
		b.pool.Close()
	}
}

const insertSnapshotSQL = `
INSERT INTO feeder_snapshots (
    id, ts, network, source_kv, scale,
    total_load_kva, total_loss_kw, min_per_unit, efficiency_percent,
    node_count, edge_count, violation_count, critical_count
) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)`

func (b *PostgresBackend) Append(ctx context.Context, s Snapshot) error {
	_, err := b.pool.Exec(ctx, insertSnapshotSQL,
		s.ID, s.Timestamp, s.Network, s.SourceKV, s.Scale,
		s.TotalLoadKVA, s.TotalLossKW, s.MinPerUnit, s.EfficiencyPercent,
		s.NodeCount, s.EdgeCount, s.ViolationCount, s.CriticalCount,
	)
	return err
}

const loadSnapshotsSQL = `
SELECT id, ts, network, source_kv, scale,
       total_load_kva, total_loss_kw, min_per_unit, efficiency_percent,
       node_count, edge_count, violation_count, critical_count
FROM feeder_snapshots
ORDER BY ts DESC
LIMIT $1`

func (b *PostgresBackend) Load(ctx context.Context, n int) ([]Snapshot, error) {
	rows, err := b.pool.Query(ctx, loadSnapshotsSQL, n)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	history := make([]Snapshot, 0, n)
	for rows.Next() {
		var s Snapshot
		if err := rows.Scan(
			&s.ID, &s.Timestamp, &s.Network, &s.SourceKV, &s.Scale,
			&s.TotalLoadKVA, &s.TotalLossKW, &s.MinPerUnit, &s.EfficiencyPercent,
			&s.NodeCount, &s.EdgeCount, &s.ViolationCount, &s.CriticalCount,
		); err != nil {
			return nil, err
		}
		history = append(history, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	// The query walks newest-first; callers expect chronological order.
	for i, j := 0, len(history)-1; i < j; i, j = i+1, j-1 {
		history[i], history[j] = history[j], history[i]
	}
	return history, nil
}
