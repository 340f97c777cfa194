// Package pgsource reads completed work orders straight from the maintenance
// backend's PostgreSQL database.
package pgsource

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/theirongolddev/costcmp/internal/model"
)

// fetchSQL selects completed work orders in a range. Amount and key columns
// are cast to text so numeric precision survives untouched.
const fetchSQL = `SELECT id::text, completed_at,
	total_planned_cost::text, total_actual_cost::text,
	actual_labor_cost::text, actual_lubricant_cost::text, actual_outsource_cost::text,
	garage_id::text, workshop_id::text, equipment_category_id::text
	FROM work_orders
	WHERE completed_at IS NOT NULL AND completed_at BETWEEN $1 AND $2
	ORDER BY completed_at, id`

type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// Source is a Postgres-backed record source.
type Source struct {
	q    querier
	pool *pgxpool.Pool
}

// Open connects to dsn and verifies the connection.
func Open(ctx context.Context, dsn string) (*Source, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("pgsource: connecting: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pgsource: ping: %w", err)
	}
	return &Source{q: pool, pool: pool}, nil
}

// Close releases the connection pool.
func (s *Source) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

// Fetch returns work orders completed within r, bounds included.
func (s *Source) Fetch(ctx context.Context, r model.DateRange) ([]model.CostRecord, error) {
	rows, err := s.q.Query(ctx, fetchSQL, r.Start.UTC(), r.End.UTC())
	if err != nil {
		return nil, fmt.Errorf("pgsource: querying work orders: %w", err)
	}
	defer rows.Close()

	var records []model.CostRecord
	for rows.Next() {
		var w workOrderRow
		if err := rows.Scan(
			&w.ID, &w.CompletedAt,
			&w.Planned, &w.Actual,
			&w.Labor, &w.Lubricant, &w.Outsource,
			&w.Garage, &w.Workshop, &w.Category,
		); err != nil {
			return nil, fmt.Errorf("pgsource: scanning work order: %w", err)
		}
		records = append(records, w.record())
	}
	return records, rows.Err()
}

// workOrderRow mirrors one result row; NULL columns scan as nil.
type workOrderRow struct {
	ID          *string
	CompletedAt *time.Time
	Planned     *string
	Actual      *string
	Labor       *string
	Lubricant   *string
	Outsource   *string
	Garage      *string
	Workshop    *string
	Category    *string
}

func (w workOrderRow) record() model.CostRecord {
	return model.CostRecord{
		ID:                  model.Key(deref(w.ID)),
		CompletedAt:         w.CompletedAt,
		TotalPlannedCost:    model.RawAmount(deref(w.Planned)),
		TotalActualCost:     model.RawAmount(deref(w.Actual)),
		ActualLaborCost:     model.RawAmount(deref(w.Labor)),
		ActualLubricantCost: model.RawAmount(deref(w.Lubricant)),
		ActualOutsourceCost: model.RawAmount(deref(w.Outsource)),
		GarageID:            model.Key(deref(w.Garage)),
		WorkshopID:          model.Key(deref(w.Workshop)),
		EquipmentCategoryID: model.Key(deref(w.Category)),
	}
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
