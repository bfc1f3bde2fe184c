package types

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestElapsedMonths(t *testing.T) {
	tests := []struct {
		name  string
		start time.Time
		now   time.Time
		want  int
	}{
		{"same month", date(2025, time.January, 1), date(2025, time.January, 28), 0},
		{"one month later", date(2025, time.January, 1), date(2025, time.February, 1), 1},
		{"four months later", date(2025, time.January, 1), date(2025, time.May, 1), 4},
		{"year boundary", date(2024, time.November, 15), date(2025, time.February, 2), 3},
		{"day of month ignored", date(2025, time.January, 31), date(2025, time.February, 1), 1},
		{"multiple years", date(2023, time.March, 1), date(2025, time.March, 1), 24},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ElapsedMonths(tt.start, tt.now))
		})
	}
}

func TestAddClampedDate(t *testing.T) {
	tests := []struct {
		name   string
		start  time.Time
		months int
		want   time.Time
	}{
		{"simple month add", date(2025, time.January, 1), 1, date(2025, time.February, 1)},
		{"clamped to february", date(2025, time.January, 31), 1, date(2025, time.February, 28)},
		{"leap year february", date(2024, time.January, 31), 1, date(2024, time.February, 29)},
		{"year rollover", date(2025, time.November, 15), 3, date(2026, time.February, 15)},
		{"many months", date(2025, time.January, 1), 25, date(2027, time.February, 1)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, AddClampedDate(tt.start, 0, tt.months, 0))
		})
	}
}

func TestFormatYearMonth(t *testing.T) {
	assert.Equal(t, "2025-03", FormatYearMonth(date(2025, time.March, 14)))
	assert.Equal(t, "2026-12", FormatYearMonth(date(2026, time.December, 1)))
}
