// Package store keeps a local SQLite copy of completed work order costs.
package store

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/theirongolddev/costcmp/internal/model"

	_ "modernc.org/sqlite" // register sqlite driver
)

// Store provides SQLite-backed record storage.
type Store struct {
	db *sql.DB
}

// FileInfo holds the tracked mtime and size for an imported file.
type FileInfo struct {
	MtimeNs   int64
	SizeBytes int64
}

// Dir returns the platform-appropriate data directory.
func Dir() string {
	if xdg := os.Getenv("XDG_DATA_HOME"); xdg != "" {
		return filepath.Join(xdg, "costcmp")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".local", "share", "costcmp")
}

// DefaultPath returns the full path to the record database.
func DefaultPath() string {
	return filepath.Join(Dir(), "records.db")
}

// Open opens or creates the database at dbPath and migrates it.
func Open(dbPath string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o750); err != nil {
		return nil, fmt.Errorf("creating data dir: %w", err)
	}
	if err := RunMigrations(dbPath); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(wal)&_pragma=synchronous(normal)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening record db: %w", err)
	}
	return &Store{db: db}, nil
}

// New wraps an already migrated database handle.
func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Upsert inserts or replaces records, tagging them with origin
// ("import", "api", "postgres"). Records without an id are keyed by content.
func (s *Store) Upsert(ctx context.Context, records []model.CostRecord, origin string) (int, error) {
	if len(records) == 0 {
		return 0, nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, `INSERT OR REPLACE INTO cost_records
		(record_key, id, completed_at_ms, total_planned_cost, total_actual_cost,
		 actual_labor_cost, actual_lubricant_cost, actual_outsource_cost,
		 garage_id, workshop_id, equipment_category_id, origin, stored_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return 0, err
	}
	defer func() { _ = stmt.Close() }()

	now := time.Now().UTC().Format(time.RFC3339)
	for _, r := range records {
		var completed sql.NullInt64
		if r.Completed() {
			completed = sql.NullInt64{Int64: r.CompletedAt.UnixMilli(), Valid: true}
		}
		_, err := stmt.ExecContext(ctx,
			recordKey(r), string(r.ID), completed,
			nullText(string(r.TotalPlannedCost)), nullText(string(r.TotalActualCost)),
			nullText(string(r.ActualLaborCost)), nullText(string(r.ActualLubricantCost)),
			nullText(string(r.ActualOutsourceCost)),
			nullText(string(r.GarageID)), nullText(string(r.WorkshopID)),
			nullText(string(r.EquipmentCategoryID)),
			origin, now,
		)
		if err != nil {
			return 0, fmt.Errorf("storing record %q: %w", r.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return len(records), nil
}

// Fetch returns records completed within r, bounds included, oldest first.
// Records without a completion time are never returned.
func (s *Store) Fetch(ctx context.Context, r model.DateRange) ([]model.CostRecord, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT
		id, completed_at_ms, total_planned_cost, total_actual_cost,
		actual_labor_cost, actual_lubricant_cost, actual_outsource_cost,
		garage_id, workshop_id, equipment_category_id
		FROM cost_records
		WHERE completed_at_ms BETWEEN ? AND ?
		ORDER BY completed_at_ms, id`,
		r.Start.UnixMilli(), r.End.UnixMilli(),
	)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var out []model.CostRecord
	for rows.Next() {
		var (
			rec                                       model.CostRecord
			id                                        string
			completed                                 sql.NullInt64
			planned, actual, labor, lubricant, outsrc sql.NullString
			garage, workshop, category                sql.NullString
		)
		if err := rows.Scan(&id, &completed, &planned, &actual, &labor, &lubricant, &outsrc,
			&garage, &workshop, &category); err != nil {
			return nil, err
		}
		rec.ID = model.Key(id)
		if completed.Valid {
			t := time.UnixMilli(completed.Int64).UTC()
			rec.CompletedAt = &t
		}
		rec.TotalPlannedCost = model.RawAmount(planned.String)
		rec.TotalActualCost = model.RawAmount(actual.String)
		rec.ActualLaborCost = model.RawAmount(labor.String)
		rec.ActualLubricantCost = model.RawAmount(lubricant.String)
		rec.ActualOutsourceCost = model.RawAmount(outsrc.String)
		rec.GarageID = model.Key(garage.String)
		rec.WorkshopID = model.Key(workshop.String)
		rec.EquipmentCategoryID = model.Key(category.String)
		out = append(out, rec)
	}
	return out, rows.Err()
}

// Count returns the number of stored records.
func (s *Store) Count(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM cost_records").Scan(&n)
	return n, err
}

// Bounds returns the earliest and latest completion times in the store.
// ok is false when no completed record exists.
func (s *Store) Bounds(ctx context.Context) (first, last time.Time, ok bool, err error) {
	var lo, hi sql.NullInt64
	err = s.db.QueryRowContext(ctx,
		"SELECT MIN(completed_at_ms), MAX(completed_at_ms) FROM cost_records").Scan(&lo, &hi)
	if err != nil || !lo.Valid {
		return time.Time{}, time.Time{}, false, err
	}
	return time.UnixMilli(lo.Int64).UTC(), time.UnixMilli(hi.Int64).UTC(), true, nil
}

// GetTrackedFiles returns file_path -> FileInfo for every imported file.
func (s *Store) GetTrackedFiles(ctx context.Context) (map[string]FileInfo, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT file_path, mtime_ns, size_bytes FROM file_tracker")
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	result := make(map[string]FileInfo)
	for rows.Next() {
		var path string
		var fi FileInfo
		if err := rows.Scan(&path, &fi.MtimeNs, &fi.SizeBytes); err != nil {
			return nil, err
		}
		result[path] = fi
	}
	return result, rows.Err()
}

// TrackFile records that path was imported at the given mtime and size.
func (s *Store) TrackFile(ctx context.Context, path string, fi FileInfo) error {
	_, err := s.db.ExecContext(ctx,
		"INSERT OR REPLACE INTO file_tracker (file_path, mtime_ns, size_bytes) VALUES (?, ?, ?)",
		path, fi.MtimeNs, fi.SizeBytes)
	return err
}

// GetState returns a stored sync value, or "" if unset.
func (s *Store) GetState(ctx context.Context, key string) (string, error) {
	var v string
	err := s.db.QueryRowContext(ctx, "SELECT value FROM sync_state WHERE key = ?", key).Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	return v, err
}

// SetState stores a sync value.
func (s *Store) SetState(ctx context.Context, key, value string) error {
	_, err := s.db.ExecContext(ctx,
		"INSERT OR REPLACE INTO sync_state (key, value) VALUES (?, ?)", key, value)
	return err
}

func recordKey(r model.CostRecord) string {
	if r.ID != "" {
		return "id:" + string(r.ID)
	}
	data, _ := json.Marshal(r)
	sum := sha256.Sum256(data)
	return "sha:" + hex.EncodeToString(sum[:12])
}

func nullText(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
