package budget

import (
	"fmt"
	"strings"
	"time"

	"github.com/mtlprog/finledger/internal/domain"
)

// Window is the half-open date range [Start, End).
type Window struct {
	Start domain.Date `json:"start"`
	End   domain.Date `json:"end"`
}

// MonthWindow covers the calendar month from its first day to the first day of the next.
func MonthWindow(year int, month time.Month) Window {
	start := domain.NewDate(year, month, 1)
	return Window{Start: start, End: start.AddMonths(1)}
}

// CurrentMonth is the month window containing now.
func CurrentMonth(now time.Time) Window {
	return MonthWindow(now.Year(), now.Month())
}

// ParseMonth parses "YYYY-MM" into its month window. Empty input means the month of now.
func ParseMonth(s string, now time.Time) (Window, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return CurrentMonth(now), nil
	}
	t, err := time.Parse("2006-01", s)
	if err != nil {
		return Window{}, fmt.Errorf("invalid month %q: %w", s, err)
	}
	return MonthWindow(t.Year(), t.Month()), nil
}

// Contains reports whether d lies in the window. The zero date lies in no window.
func (w Window) Contains(d domain.Date) bool {
	return !d.IsZero() && !d.Before(w.Start) && d.Before(w.End)
}
