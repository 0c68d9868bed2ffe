package ontime

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func date(s string) *time.Time {
	t, _ := time.Parse("2006-01-02", s)
	return &t
}

func TestClassify(t *testing.T) {
	t.Parallel()

	today := *date("2024-01-05")
	later := *date("2024-01-15")

	tests := []struct {
		name   string
		due    *time.Time
		actual *time.Time
		now    time.Time
		want   Status
	}{
		{name: "no dates", now: today, want: Pending},
		{name: "no due, actual present", actual: date("2024-01-08"), now: today, want: Pending},
		{name: "due in future, not delivered", due: date("2024-01-10"), now: today, want: Pending},
		{name: "due passed, not delivered", due: date("2024-01-10"), now: later, want: Delay},
		{name: "due today, not delivered", due: date("2024-01-10"), now: *date("2024-01-10"), want: Pending},
		{name: "early", due: date("2024-01-10"), actual: date("2024-01-08"), now: later, want: Early},
		{name: "on time", due: date("2024-01-10"), actual: date("2024-01-10"), now: later, want: OnTime},
		{name: "delay", due: date("2024-01-10"), actual: date("2024-01-12"), now: later, want: Delay},
		{name: "zero due", due: &time.Time{}, now: today, want: Pending},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, Classify(tt.due, tt.actual, tt.now))
		})
	}
}

func TestClassify_IgnoresTimeOfDay(t *testing.T) {
	t.Parallel()

	due := time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC)
	lateSameDay := time.Date(2024, 1, 10, 23, 59, 0, 0, time.UTC)
	assert.Equal(t, OnTime, Classify(&due, &lateSameDay, due))

	denver := time.FixedZone("MST", -7*3600)
	// 2024-01-10 20:00 in Denver is 2024-01-11 03:00 UTC.
	evening := time.Date(2024, 1, 10, 20, 0, 0, 0, denver)
	assert.Equal(t, Delay, Classify(&due, &evening, due))
}

func TestClassifyRaw(t *testing.T) {
	t.Parallel()

	now := *date("2024-01-15")

	assert.Equal(t, Pending, ClassifyRaw("", "", now))
	assert.Equal(t, Pending, ClassifyRaw("not-a-date", "2024-01-10", now))
	assert.Equal(t, Pending, ClassifyRaw("2024-01-10", "garbage", now))
	assert.Equal(t, Delay, ClassifyRaw("2024-01-10", "", now))
	assert.Equal(t, Early, ClassifyRaw("2024-01-10", "2024-01-08", now))
	assert.Equal(t, OnTime, ClassifyRaw("2024-01-10T00:00:00Z", "2024-01-10T18:30:00Z", now))
	assert.Equal(t, Delay, ClassifyRaw("2024-01-10", "2024-01-12", now))
}

func TestDiffDays(t *testing.T) {
	t.Parallel()

	a := time.Date(2024, 3, 9, 0, 0, 0, 0, time.UTC)
	b := time.Date(2024, 3, 12, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, 3, DiffDays(a, b))
	assert.Equal(t, -3, DiffDays(b, a))
	assert.Equal(t, 3, DiffDays(a, b.Add(-time.Hour)))
}
