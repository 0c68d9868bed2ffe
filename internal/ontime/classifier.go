// Package ontime classifies a due/actual date pair as early, on time, delayed
// or still pending.
package ontime

import (
	"math"
	"strings"
	"time"
)

// Status is the outcome of a classification.
type Status string

const (
	Early   Status = "early"
	OnTime  Status = "on_time"
	Delay   Status = "delay"
	Pending Status = "pending"
)

// Statuses lists every status in report order.
var Statuses = []Status{Early, OnTime, Delay, Pending}

const day = 24 * time.Hour

// Classify compares an actual date against a due date. Both dates and now are
// truncated to UTC midnight first. Only the calendar day matters:
//
//	actual before due -> early
//	actual on due     -> on_time
//	actual after due  -> delay
//
// Without an actual date the pair is a delay once the due day has passed,
// pending otherwise.
func Classify(due, actual *time.Time, now time.Time) Status {
	if due == nil || due.IsZero() {
		return Pending
	}
	dueDay := Midnight(*due)

	if actual == nil || actual.IsZero() {
		if dueDay.Before(Midnight(now)) {
			return Delay
		}
		return Pending
	}

	switch diff := DiffDays(dueDay, Midnight(*actual)); {
	case diff < 0:
		return Early
	case diff == 0:
		return OnTime
	default:
		return Delay
	}
}

// ClassifyRaw parses the two dates and classifies them. An unparseable due
// date, or a non-empty actual date that does not parse, yields Pending.
func ClassifyRaw(due, actual string, now time.Time) Status {
	d, ok := ParseDate(due)
	if !ok {
		return Pending
	}
	if strings.TrimSpace(actual) == "" {
		return Classify(&d, nil, now)
	}
	a, ok := ParseDate(actual)
	if !ok {
		return Pending
	}
	return Classify(&d, &a, now)
}

// DiffDays returns to - from in whole days, rounded to absorb DST drift.
func DiffDays(from, to time.Time) int {
	return int(math.Round(float64(to.Sub(from)) / float64(day)))
}

// Midnight truncates t to 00:00 UTC of its UTC calendar day.
func Midnight(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}

var layouts = []string{
	"2006-01-02",
	time.RFC3339,
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
}

// ParseDate accepts a calendar date or a timestamp.
func ParseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, l := range layouts {
		if t, err := time.Parse(l, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// ParseDatePtr is ParseDate returning nil on failure.
func ParseDatePtr(s string) *time.Time {
	t, ok := ParseDate(s)
	if !ok {
		return nil
	}
	return &t
}
