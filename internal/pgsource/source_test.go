package pgsource

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/theirongolddev/costcmp/internal/model"
)

// fakeRows serves canned rows through the pgx.Rows interface.
type fakeRows struct {
	rows    [][]any
	idx     int
	err     error
	scanErr error
	closed  bool
}

func (f *fakeRows) Close()                                       { f.closed = true }
func (f *fakeRows) Err() error                                   { return f.err }
func (f *fakeRows) CommandTag() pgconn.CommandTag                { return pgconn.CommandTag{} }
func (f *fakeRows) FieldDescriptions() []pgconn.FieldDescription { return nil }
func (f *fakeRows) RawValues() [][]byte                          { return nil }
func (f *fakeRows) Conn() *pgx.Conn                              { return nil }

func (f *fakeRows) Next() bool {
	if f.idx >= len(f.rows) {
		return false
	}
	f.idx++
	return true
}

func (f *fakeRows) Values() ([]any, error) { return f.rows[f.idx-1], nil }

func (f *fakeRows) Scan(dest ...any) error {
	if f.scanErr != nil {
		return f.scanErr
	}
	row := f.rows[f.idx-1]
	if len(dest) != len(row) {
		return fmt.Errorf("scan: %d destinations for %d columns", len(dest), len(row))
	}
	for i, d := range dest {
		switch p := d.(type) {
		case **string:
			if row[i] == nil {
				*p = nil
				continue
			}
			s := row[i].(string)
			*p = &s
		case **time.Time:
			if row[i] == nil {
				*p = nil
				continue
			}
			t := row[i].(time.Time)
			*p = &t
		default:
			return fmt.Errorf("scan: unsupported destination %T", d)
		}
	}
	return nil
}

type fakeQuerier struct {
	rows *fakeRows
	err  error
	sql  string
	args []any
}

func (q *fakeQuerier) Query(_ context.Context, sql string, args ...any) (pgx.Rows, error) {
	q.sql, q.args = sql, args
	if q.err != nil {
		return nil, q.err
	}
	return q.rows, nil
}

func TestFetch_MapsRows(t *testing.T) {
	loc := time.FixedZone("EAT", 3*60*60)
	completed := time.Date(2024, 3, 5, 9, 30, 0, 0, time.UTC)
	q := &fakeQuerier{rows: &fakeRows{rows: [][]any{
		{"42", completed, "100.00", "120.50", "60", nil, "60.50", "7", "W1", nil},
		{"43", completed, nil, nil, nil, nil, nil, nil, nil, nil},
	}}}
	s := &Source{q: q}

	r := model.NewDayRange(time.Date(2024, 3, 1, 0, 0, 0, 0, loc), time.Date(2024, 3, 31, 0, 0, 0, 0, loc))
	records, err := s.Fetch(context.Background(), r)
	require.NoError(t, err)
	require.Len(t, records, 2)

	assert.Contains(t, q.sql, "BETWEEN $1 AND $2")
	require.Len(t, q.args, 2)
	assert.Equal(t, r.Start.UTC(), q.args[0])
	assert.Equal(t, r.End.UTC(), q.args[1])

	first := records[0]
	assert.Equal(t, model.Key("42"), first.ID)
	assert.True(t, first.CompletedAt.Equal(completed))
	assert.Equal(t, "120.5", first.TotalActualCost.Value().String())
	assert.True(t, first.ActualLubricantCost.IsZero())
	assert.Equal(t, model.Key("7"), first.GarageID)
	assert.Empty(t, first.EquipmentCategoryID)

	assert.True(t, records[1].TotalActualCost.Value().IsZero())
	assert.True(t, q.rows.closed, "rows must be closed")
}

func TestFetch_Errors(t *testing.T) {
	boom := errors.New("connection reset")
	r := model.NewDayRange(time.Now(), time.Now())

	_, err := (&Source{q: &fakeQuerier{err: boom}}).Fetch(context.Background(), r)
	assert.ErrorIs(t, err, boom)

	rows := &fakeRows{rows: [][]any{{"1"}}, scanErr: boom}
	_, err = (&Source{q: &fakeQuerier{rows: rows}}).Fetch(context.Background(), r)
	assert.ErrorIs(t, err, boom)

	rows = &fakeRows{err: boom}
	_, err = (&Source{q: &fakeQuerier{rows: rows}}).Fetch(context.Background(), r)
	assert.ErrorIs(t, err, boom)
}
