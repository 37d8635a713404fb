package domain

import (
	"math"
	"strconv"
	"strings"
	"time"
)

const day = 24 * time.Hour

// deadlineLayouts lists the accepted textual deadline formats, day-first
// formats before ISO ones.
var deadlineLayouts = []string{
	"02/01/2006 15:04",
	"02/01/2006 15:04:05",
	"02/01/2006",
	"2/1/2006 15:04",
	"2/1/2006",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02T15:04:05",
	"2006-01-02",
	time.RFC3339,
}

// excelEpoch is day zero of the 1900 spreadsheet date system.
var excelEpoch = time.Date(1899, time.December, 30, 0, 0, 0, 0, time.UTC)

// StartOfDay returns midnight of t's calendar day in t's location.
func StartOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// EvaluateDeadline compares a deadline with the start of now's calendar day.
// Comparison granularity is whole days: a deadline earlier today is not
// overdue until the day rolls over. daysOverdue is always 0 when overdue is
// false.
func EvaluateDeadline(deadline *time.Time, now time.Time) (overdue bool, daysOverdue int) {
	if deadline == nil || deadline.IsZero() {
		return false, 0
	}

	midnight := StartOfDay(now)
	if !deadline.Before(midnight) {
		return false, 0
	}

	// Count calendar days on wall-clock fields so daylight saving shifts in
	// the location do not shorten or lengthen a day.
	elapsed := wallClock(midnight, midnight.Location()).Sub(wallClock(*deadline, midnight.Location()))
	return true, int(elapsed / day)
}

// wallClock returns t's wall-clock reading in loc as a UTC instant.
func wallClock(t time.Time, loc *time.Location) time.Time {
	t = t.In(loc)
	y, m, d := t.Date()
	return time.Date(y, m, d, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), time.UTC)
}

// ParseDeadline parses raw deadline text in loc. Empty or unparseable input
// returns nil; a parse failure never fails the row.
func ParseDeadline(raw string, loc *time.Location) *time.Time {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	if loc == nil {
		loc = time.UTC
	}

	for _, layout := range deadlineLayouts {
		if t, err := time.ParseInLocation(layout, raw, loc); err == nil {
			return &t
		}
	}

	// Spreadsheet cells read without formatting carry a serial day number.
	if serial, err := strconv.ParseFloat(raw, 64); err == nil && serial > 0 && serial < 2958466 {
		whole, frac := math.Modf(serial)
		base := excelEpoch.AddDate(0, 0, int(whole))
		offset := time.Duration(math.Round(frac*float64(day)/float64(time.Second))) * time.Second
		t := time.Date(base.Year(), base.Month(), base.Day(), 0, 0, 0, 0, loc).Add(offset)
		return &t
	}

	return nil
}
