package pipeline

import (
	"testing"
	"time"

	"github.com/theirongolddev/costcmp/internal/model"
)

func mustTime(t *testing.T, s string) time.Time {
	t.Helper()
	for _, layout := range []string{time.RFC3339Nano, "2006-01-02"} {
		if v, err := time.Parse(layout, s); err == nil {
			return v
		}
	}
	t.Fatalf("bad time %q", s)
	return time.Time{}
}

func at(t *testing.T, s string) *time.Time {
	t.Helper()
	v := mustTime(t, s)
	return &v
}

func dayRange(t *testing.T, from, to string) model.DateRange {
	t.Helper()
	return model.NewDayRange(mustTime(t, from), mustTime(t, to))
}

func assertDecimal(t *testing.T, name string, got interface{ String() string }, want string) {
	t.Helper()
	if got.String() != want {
		t.Errorf("%s = %s, want %s", name, got.String(), want)
	}
}
