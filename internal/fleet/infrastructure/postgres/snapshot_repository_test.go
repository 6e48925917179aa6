package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"testing"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	fleet "solarfleet/internal/fleet/domain"
)

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	dsn := os.Getenv("PG_DSN")
	if dsn == "" {
		t.Skip("PG_DSN not set, skipping integration test")
	}
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	if err := db.Ping(); err != nil {
		t.Fatalf("ping db: %v", err)
	}
	return db
}

func migrate(t *testing.T, db *sql.DB, table string) {
	t.Helper()
	ddl := fmt.Sprintf(`
CREATE TABLE IF NOT EXISTS %s (
	production_kw  DOUBLE PRECISION NOT NULL,
	consumption_kw DOUBLE PRECISION NOT NULL,
	grid_kw        DOUBLE PRECISION NOT NULL,
	total_plants   INTEGER NOT NULL,
	alert_count    INTEGER NOT NULL,
	generated_at   TIMESTAMPTZ NOT NULL PRIMARY KEY
)`, table)
	if _, err := db.Exec(ddl); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	t.Cleanup(func() {
		_, _ = db.Exec(fmt.Sprintf("DROP TABLE IF EXISTS %s", table))
	})
}

func TestSnapshotRepository_InsertAndList(t *testing.T) {
	db := openTestDB(t)
	table := fmt.Sprintf("fleet_snapshots_test_%d", time.Now().UnixNano())
	migrate(t, db, table)

	repo := NewSnapshotRepository(db, WithTable(table))
	ctx := context.Background()

	base := time.Now().UTC().Truncate(time.Second)
	for i := 0; i < 3; i++ {
		snap := fleet.Snapshot{
			ProductionKW:  float64(i + 1),
			ConsumptionKW: 1,
			GridKW:        0.5,
			TotalPlants:   2,
			Alerts:        []fleet.Alert{{Severity: fleet.SeverityMinor, Message: "m"}},
			GeneratedAt:   base.Add(time.Duration(i) * time.Minute),
		}
		if err := repo.InsertSnapshot(ctx, snap); err != nil {
			t.Fatalf("insert %d: %v", i, err)
		}
	}

	rows, err := repo.ListRecent(ctx, 2)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(rows))
	}
	if rows[0].ProductionKW != 3 {
		t.Fatalf("expected newest first, got %+v", rows[0])
	}
	if rows[0].AlertCount != 1 {
		t.Fatalf("alert count not persisted: %+v", rows[0])
	}
}

func TestSnapshotRepository_DuplicateGeneratedAtIgnored(t *testing.T) {
	db := openTestDB(t)
	table := fmt.Sprintf("fleet_snapshots_test_%d", time.Now().UnixNano())
	migrate(t, db, table)

	repo := NewSnapshotRepository(db, WithTable(table))
	ctx := context.Background()

	snap := fleet.Snapshot{ProductionKW: 1, TotalPlants: 1, GeneratedAt: time.Now().UTC().Truncate(time.Second)}
	if err := repo.InsertSnapshot(ctx, snap); err != nil {
		t.Fatalf("first insert: %v", err)
	}
	snap.ProductionKW = 99
	if err := repo.InsertSnapshot(ctx, snap); err != nil {
		t.Fatalf("duplicate insert should be a no-op: %v", err)
	}

	rows, err := repo.ListRecent(ctx, 10)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(rows) != 1 || rows[0].ProductionKW != 1 {
		t.Fatalf("duplicate timestamp must not overwrite: %+v", rows)
	}
}

func TestSnapshotRepository_RejectsZeroTimestamp(t *testing.T) {
	repo := NewSnapshotRepository(nil)
	if err := repo.InsertSnapshot(context.Background(), fleet.Snapshot{}); err == nil {
		t.Fatalf("expected error")
	}
}
