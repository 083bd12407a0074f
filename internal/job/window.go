package job

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrInvalidWindow is returned when a window bound is not a "M/D" date.
var ErrInvalidWindow = errors.New("invalid date window")

// MonthDay is a calendar date without a year.
type MonthDay struct {
	Month int
	Day   int
}

// key orders dates within a year.
func (d MonthDay) key() int {
	return d.Month*100 + d.Day
}

// ParseMonthDay parses "M/D" (surrounding whitespace allowed).
func ParseMonthDay(s string) (MonthDay, bool) {
	parts := strings.Split(strings.TrimSpace(s), "/")
	if len(parts) != 2 {
		return MonthDay{}, false
	}
	month, err := strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil {
		return MonthDay{}, false
	}
	day, err := strconv.Atoi(strings.TrimSpace(parts[1]))
	if err != nil {
		return MonthDay{}, false
	}
	return MonthDay{Month: month, Day: day}, true
}

// Window is an inclusive month/day range.
type Window struct {
	Start    string
	End      string
	startKey int
	endKey   int
}

// NewWindow parses both bounds.
func NewWindow(start, end string) (Window, error) {
	s, ok := ParseMonthDay(start)
	if !ok {
		return Window{}, fmt.Errorf("%w: start %q", ErrInvalidWindow, start)
	}
	e, ok := ParseMonthDay(end)
	if !ok {
		return Window{}, fmt.Errorf("%w: end %q", ErrInvalidWindow, end)
	}
	return Window{
		Start:    strings.TrimSpace(start),
		End:      strings.TrimSpace(end),
		startKey: s.key(),
		endKey:   e.key(),
	}, nil
}

// Contains reports whether date falls within the window. Dates that do not
// parse are outside every window.
func (w Window) Contains(date string) bool {
	d, ok := ParseMonthDay(date)
	if !ok {
		return false
	}
	k := d.key()
	return w.startKey <= k && k <= w.endKey
}
