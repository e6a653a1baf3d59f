package schedule

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func fixedNow(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func TestBusinessDateAt(t *testing.T) {
	resolver := NewResolver(6, nil)

	tests := []struct {
		name string
		at   time.Time
		want string
	}{
		{
			name: "afternoon is today",
			at:   time.Date(2025, 3, 14, 15, 30, 0, 0, time.UTC),
			want: "2025-03-14",
		},
		{
			name: "before rollover belongs to previous day",
			at:   time.Date(2025, 3, 14, 2, 0, 0, 0, time.UTC),
			want: "2025-03-13",
		},
		{
			name: "exactly at rollover starts the new day",
			at:   time.Date(2025, 3, 14, 6, 0, 0, 0, time.UTC),
			want: "2025-03-14",
		},
		{
			name: "rollover across month boundary",
			at:   time.Date(2025, 3, 1, 1, 0, 0, 0, time.UTC),
			want: "2025-02-28",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := resolver.BusinessDateAt(tc.at)
			assert.Equal(t, tc.want, got.Format(DayFormat))
			// Дата нормализована к полуночи
			assert.Equal(t, 0, got.Hour())
			assert.Equal(t, 0, got.Minute())
		})
	}
}

func TestCurrentBusinessDate(t *testing.T) {
	night := time.Date(2025, 3, 14, 3, 0, 0, 0, time.UTC)
	resolver := NewResolver(6, fixedNow(night))

	assert.Equal(t, "2025-03-13", resolver.BusinessDayString())
}

func TestZeroRolloverIsCalendarDay(t *testing.T) {
	midnightPlus := time.Date(2025, 3, 14, 0, 5, 0, 0, time.UTC)
	resolver := NewResolver(0, fixedNow(midnightPlus))

	assert.Equal(t, "2025-03-14", resolver.BusinessDayString())
}

func TestInvalidRolloverFallsBackToZero(t *testing.T) {
	at := time.Date(2025, 3, 14, 1, 0, 0, 0, time.UTC)
	resolver := NewResolver(30, fixedNow(at))

	assert.Equal(t, "2025-03-14", resolver.BusinessDayString())
}
