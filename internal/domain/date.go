package domain

import (
	"time"

	"github.com/jonboulle/clockwork"
)

// dateLayout is the wire and storage format for calendar dates.
const dateLayout = "2006-01-02"

// Date is a calendar date in ISO "YYYY-MM-DD" form. The representation is
// chosen so that lexicographic comparison equals chronological comparison;
// ledger range queries rely on this.
type Date string

// Today returns the current calendar date in the clock's local time.
func Today(clock clockwork.Clock) Date {
	return Date(clock.Now().Format(dateLayout))
}

// DateOf converts a time to its calendar date.
func DateOf(t time.Time) Date {
	return Date(t.Format(dateLayout))
}

// Valid reports whether d parses as an ISO calendar date.
func (d Date) Valid() bool {
	_, err := time.Parse(dateLayout, string(d))
	return err == nil
}

// MonthStart returns the first day of d's month. Callers must pass a valid
// date; the result for malformed input is undefined.
func (d Date) MonthStart() Date {
	if len(d) < 8 {
		return d
	}
	return d[:8] + "01"
}

// Before reports whether d sorts strictly earlier than other.
func (d Date) Before(other Date) bool { return d < other }

// After reports whether d sorts strictly later than other.
func (d Date) After(other Date) bool { return d > other }

func (d Date) String() string { return string(d) }

// Interval is an inclusive [Start, End] validity range of calendar dates.
type Interval struct {
	Start Date `json:"start"`
	End   Date `json:"end"`
}
