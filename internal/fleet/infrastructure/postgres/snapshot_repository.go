package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	fleet "solarfleet/internal/fleet/domain"
)

const defaultSnapshotTable = "fleet_snapshots"

// SnapshotRepository is a Postgres archive for fleet snapshot summaries.
type SnapshotRepository struct {
	db    *sql.DB
	table string
}

// NewSnapshotRepository constructs a repository with default table name.
func NewSnapshotRepository(db *sql.DB, opts ...RepositoryOption) *SnapshotRepository {
	repo := &SnapshotRepository{db: db, table: defaultSnapshotTable}
	for _, opt := range opts {
		opt(repo)
	}
	return repo
}

// RepositoryOption configures the repository.
type RepositoryOption func(*SnapshotRepository)

// WithTable overrides the default table name.
func WithTable(table string) RepositoryOption {
	return func(repo *SnapshotRepository) {
		if table != "" {
			repo.table = table
		}
	}
}

// InsertSnapshot archives one snapshot summary.
func (r *SnapshotRepository) InsertSnapshot(ctx context.Context, snap fleet.Snapshot) error {
	if r == nil || r.db == nil {
		return errors.New("snapshot repo: nil db")
	}
	if snap.GeneratedAt.IsZero() {
		return errors.New("snapshot repo: zero generated_at")
	}

	query := fmt.Sprintf(`
INSERT INTO %s (
	production_kw,
	consumption_kw,
	grid_kw,
	total_plants,
	alert_count,
	generated_at
) VALUES (
	$1, $2, $3, $4, $5, $6
)
ON CONFLICT (generated_at) DO NOTHING`, r.table)

	_, err := r.db.ExecContext(
		ctx,
		query,
		snap.ProductionKW,
		snap.ConsumptionKW,
		snap.GridKW,
		snap.TotalPlants,
		len(snap.Alerts),
		snap.GeneratedAt,
	)
	return err
}

// ListRecent returns the newest archived snapshot summaries.
func (r *SnapshotRepository) ListRecent(ctx context.Context, limit int) ([]fleet.ArchivedSnapshot, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("snapshot repo: nil db")
	}
	if limit <= 0 {
		limit = 50
	}

	query := fmt.Sprintf(`
SELECT
	production_kw,
	consumption_kw,
	grid_kw,
	total_plants,
	alert_count,
	generated_at
FROM %s
ORDER BY generated_at DESC
LIMIT $1`, r.table)

	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []fleet.ArchivedSnapshot
	for rows.Next() {
		var row fleet.ArchivedSnapshot
		if err := rows.Scan(
			&row.ProductionKW,
			&row.ConsumptionKW,
			&row.GridKW,
			&row.TotalPlants,
			&row.AlertCount,
			&row.GeneratedAt,
		); err != nil {
			return nil, err
		}
		out = append(out, row)
	}
	return out, rows.Err()
}
