package analyzer

import (
	"fmt"
	"time"
)

// ISOWeek returns the ISO-8601 week key ("2024-W01") of t's calendar date in
// loc, and the Monday that starts that week at midnight.
func ISOWeek(t time.Time, loc *time.Location) (string, time.Time) {
	if loc == nil {
		loc = time.Local
	}
	t = t.In(loc)
	day := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)

	// ISOWeek already applies the Thursday rule.
	year, week := day.ISOWeek()

	// Monday = 0 ... Sunday = 6
	offset := (int(day.Weekday()) + 6) % 7
	start := day.AddDate(0, 0, -offset)

	return fmt.Sprintf("%d-W%02d", year, week), start
}
