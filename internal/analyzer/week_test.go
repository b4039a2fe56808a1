package analyzer

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 10, 0, 0, 0, time.UTC)
}

func TestISOWeekBoundaries(t *testing.T) {
	tests := []struct {
		name  string
		in    time.Time
		key   string
		start string
	}{
		{"first monday of 2024", date(2024, time.January, 1), "2024-W01", "2024-01-01"},
		{"mid week", date(2024, time.January, 3), "2024-W01", "2024-01-01"},
		{"sunday closes the week", date(2024, time.January, 7), "2024-W01", "2024-01-01"},
		{"late december in week 52", date(2024, time.December, 29), "2024-W52", "2024-12-23"},
		{"monday after final thursday is next year", date(2024, time.December, 30), "2025-W01", "2024-12-30"},
		{"new year's eve", date(2024, time.December, 31), "2025-W01", "2024-12-30"},
		{"early january in week 53", date(2021, time.January, 3), "2020-W53", "2020-12-28"},
		{"first monday of 2021", date(2021, time.January, 4), "2021-W01", "2021-01-04"},
		{"thursday new year", date(2026, time.January, 1), "2026-W01", "2025-12-29"},
		{"friday new year belongs to 53", date(2027, time.January, 1), "2026-W53", "2026-12-28"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			key, start := ISOWeek(tt.in, time.UTC)
			assert.Equal(t, tt.key, key)
			assert.Equal(t, tt.start, start.Format("2006-01-02"))
			assert.Equal(t, time.Monday, start.Weekday())
		})
	}
}

func TestISOWeekNonDecreasing(t *testing.T) {
	day := date(2019, time.December, 1)
	prev, _ := ISOWeek(day, time.UTC)
	for i := 0; i < 4*366; i++ {
		day = day.AddDate(0, 0, 1)
		key, start := ISOWeek(day, time.UTC)
		if key < prev {
			t.Fatalf("week key went backwards at %s: %s after %s", day.Format("2006-01-02"), key, prev)
		}
		if day.Sub(start) >= 7*24*time.Hour {
			t.Fatalf("start %s is more than a week before %s", start, day)
		}
		prev = key
	}
}

func TestISOWeekUsesLocationCalendarDate(t *testing.T) {
	// Sunday evening in New York is already Monday in UTC.
	ny, err := time.LoadLocation("America/New_York")
	if err != nil {
		t.Skip("tzdata unavailable")
	}
	ts := time.Date(2024, time.January, 1, 2, 0, 0, 0, time.UTC)

	keyUTC, _ := ISOWeek(ts, time.UTC)
	keyNY, startNY := ISOWeek(ts, ny)

	assert.Equal(t, "2024-W01", keyUTC)
	assert.Equal(t, "2023-W52", keyNY)
	assert.Equal(t, "2023-12-25", startNY.Format("2006-01-02"))
}
