package sqlite

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
)

const schema = `
CREATE TABLE IF NOT EXISTS material_lots (
	id                     TEXT NOT NULL,
	batch_id               TEXT NOT NULL,
	material_code          TEXT NOT NULL,
	intake_date            TEXT NOT NULL,
	intake_seq             INTEGER NOT NULL,
	unit_price             TEXT NOT NULL,
	origin_country         TEXT NOT NULL,
	has_origin_certificate INTEGER NOT NULL,
	quantity_imported      TEXT NOT NULL,
	quantity_available     TEXT NOT NULL,
	status                 INTEGER NOT NULL,
	PRIMARY KEY (batch_id, id)
);
CREATE INDEX IF NOT EXISTS idx_lots_material ON material_lots (batch_id, material_code);

CREATE TABLE IF NOT EXISTS consumption_requirements (
	id                    TEXT NOT NULL,
	batch_id              TEXT NOT NULL,
	sku_code              TEXT NOT NULL,
	material_code         TEXT NOT NULL,
	hs_heading            TEXT NOT NULL,
	norm_per_unit         TEXT NOT NULL,
	units_of_sku          TEXT NOT NULL,
	total_quantity_needed TEXT NOT NULL,
	quantity_allocated    TEXT NOT NULL,
	status                INTEGER NOT NULL,
	PRIMARY KEY (batch_id, id)
);
CREATE INDEX IF NOT EXISTS idx_requirements_sku ON consumption_requirements (batch_id, sku_code);

CREATE TABLE IF NOT EXISTS allocations (
	id                     TEXT NOT NULL,
	batch_id               TEXT NOT NULL,
	requirement_id         TEXT NOT NULL,
	lot_id                 TEXT NOT NULL,
	allocated_quantity     TEXT NOT NULL,
	unit_price             TEXT NOT NULL,
	value                  TEXT NOT NULL,
	origin_country         TEXT NOT NULL,
	has_origin_certificate INTEGER NOT NULL,
	sequence_number        INTEGER NOT NULL,
	created_at             TEXT NOT NULL,
	PRIMARY KEY (batch_id, id)
);
CREATE INDEX IF NOT EXISTS idx_allocations_requirement ON allocations (batch_id, requirement_id);
CREATE INDEX IF NOT EXISTS idx_allocations_lot ON allocations (batch_id, lot_id);

CREATE TABLE IF NOT EXISTS sku_verdicts (
	batch_id              TEXT NOT NULL,
	sku_code              TEXT NOT NULL,
	criterion             INTEGER NOT NULL,
	fob_value             TEXT NOT NULL,
	originating_value     TEXT NOT NULL,
	non_originating_value TEXT NOT NULL,
	rvc_percentage        TEXT NOT NULL,
	ctc_satisfied         INTEGER NOT NULL,
	final_origin_code     TEXT NOT NULL,
	result                INTEGER NOT NULL,
	computed_at           TEXT NOT NULL,
	PRIMARY KEY (batch_id, sku_code)
);

CREATE TABLE IF NOT EXISTS bom_lines (
	sku_code      TEXT NOT NULL,
	material_code TEXT NOT NULL,
	hs_heading    TEXT NOT NULL,
	norm_per_unit TEXT NOT NULL,
	PRIMARY KEY (sku_code, material_code)
);

CREATE TABLE IF NOT EXISTS sku_declarations (
	batch_id          TEXT NOT NULL,
	sku_code          TEXT NOT NULL,
	quantity          TEXT NOT NULL,
	fob_value         TEXT NOT NULL,
	criterion         INTEGER NOT NULL,
	rvc_threshold     TEXT NOT NULL,
	hs_heading        TEXT NOT NULL,
	final_origin_code TEXT NOT NULL,
	PRIMARY KEY (batch_id, sku_code)
);
`

// Store wraps the sqlite connection shared by the persistent repositories.
// Quantities and values are stored as decimal strings so no precision is
// lost crossing the database boundary.
type Store struct {
	db *sqlx.DB
}

// Open connects to the sqlite database at the given DSN and ensures the
// schema exists. Use ":memory:" for an ephemeral store.
func Open(ctx context.Context, dsn string) (*Store, error) {
	db, err := sqlx.ConnectContext(ctx, "sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database %s: %w", dsn, err)
	}

	if _, err := db.ExecContext(ctx, "PRAGMA foreign_keys = ON; PRAGMA busy_timeout = 5000;"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to set sqlite pragmas: %w", err)
	}

	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	return &Store{db: db}, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Lots returns the persistent lot repository.
func (s *Store) Lots() *LotRepository {
	return &LotRepository{db: s.db}
}

// Requirements returns the persistent requirement repository.
func (s *Store) Requirements() *RequirementRepository {
	return &RequirementRepository{db: s.db}
}

// Allocations returns the persistent allocation ledger.
func (s *Store) Allocations() *AllocationRepository {
	return &AllocationRepository{db: s.db}
}

// Verdicts returns the persistent verdict repository.
func (s *Store) Verdicts() *VerdictRepository {
	return &VerdictRepository{db: s.db}
}

// BOMs returns the persistent BOM repository.
func (s *Store) BOMs() *BOMRepository {
	return &BOMRepository{db: s.db}
}

// Declarations returns the persistent declaration repository.
func (s *Store) Declarations() *DeclarationRepository {
	return &DeclarationRepository{db: s.db}
}
