package aggregation

import (
	"fmt"
	"time"

	apperr "github.com/aevon-lab/asc-analytics/internal/core/errors"
)

const DateLayout = "2006-01-02"

// DateWindow is an inclusive range of calendar dates.
type DateWindow struct {
	Start time.Time // midnight UTC
	End   time.Time // midnight UTC
}

// NewDateWindow truncates start and end to their calendar dates.
func NewDateWindow(start, end time.Time) (DateWindow, error) {
	w := DateWindow{Start: dateOf(start), End: dateOf(end)}
	if w.End.Before(w.Start) {
		return DateWindow{}, fmt.Errorf("window end %s before start %s", w.End.Format(DateLayout), w.Start.Format(DateLayout))
	}
	return w, nil
}

// Contains reports whether day lies within [Start, End], both ends inclusive.
func (w DateWindow) Contains(day time.Time) bool {
	day = dateOf(day)
	return !day.Before(w.Start) && !day.After(w.End)
}

func (w DateWindow) String() string {
	return w.Start.Format(DateLayout) + ".." + w.End.Format(DateLayout)
}

// ParseRowDate takes the first 10 characters of a Date cell as YYYY-MM-DD.
func ParseRowDate(raw string) (string, time.Time, error) {
	if len(raw) < len(DateLayout) {
		return "", time.Time{}, &apperr.ParseError{Column: "Date", Value: raw, Err: fmt.Errorf("too short for %s", DateLayout)}
	}
	s := raw[:len(DateLayout)]
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return "", time.Time{}, &apperr.ParseError{Column: "Date", Value: raw, Err: err}
	}
	return s, t, nil
}

func dateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
