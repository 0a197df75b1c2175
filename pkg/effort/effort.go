// Package effort holds the pure shop-floor arithmetic: the effort score
// (SP) of a task and the overdue predicate on its planned day.
package effort

import (
	"fmt"
	"math"
	"regexp"
	"time"
)

// DayLayout is the storage and wire format of a calendar day.
const DayLayout = "2006-01-02"

// ShiftHours is the nominal length of a shift used for the hours-per-SP metric.
const ShiftHours = 10.5

// Score returns (impostsPerItem + 1) * qtyItems.
func Score(impostsPerItem, qtyItems int) int {
	return (impostsPerItem + 1) * qtyItems
}

// EndOfDay returns 23:59:59.999 of day, in day's location.
func EndOfDay(day time.Time) time.Time {
	y, m, d := day.Date()
	return time.Date(y, m, d, 23, 59, 59, int(999*time.Millisecond), day.Location())
}

// StartOfDay returns 00:00:00 of day, in day's location.
func StartOfDay(day time.Time) time.Time {
	y, m, d := day.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, day.Location())
}

// IsOverdue reports whether asOf is past the end of plannedDay. The check is
// date-only; callers decide whether a Done task should still be flagged.
func IsOverdue(plannedDay, asOf time.Time) bool {
	return asOf.After(EndOfDay(plannedDay))
}

// IsOverdueDay is IsOverdue for a stored YYYY-MM-DD day in loc.
// An unparsable day is never overdue.
func IsOverdueDay(day string, loc *time.Location, asOf time.Time) bool {
	d, err := ParseDay(day, loc)
	if err != nil {
		return false
	}
	return IsOverdue(d, asOf)
}

// DayKey formats t as the YYYY-MM-DD day it falls on in loc.
func DayKey(t time.Time, loc *time.Location) string {
	return t.In(loc).Format(DayLayout)
}

// ParseDay parses YYYY-MM-DD as midnight in loc.
func ParseDay(s string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.UTC
	}
	return time.ParseInLocation(DayLayout, s, loc)
}

var dottedDay = regexp.MustCompile(`^(\d{2})\.(\d{2})\.(\d{4})$`)

// NormalizeDay accepts YYYY-MM-DD or DD.MM.YYYY and returns YYYY-MM-DD.
func NormalizeDay(s string) (string, error) {
	if m := dottedDay.FindStringSubmatch(s); m != nil {
		s = m[3] + "-" + m[2] + "-" + m[1]
	}
	if _, err := time.Parse(DayLayout, s); err != nil {
		return "", fmt.Errorf("invalid date %q (expected YYYY-MM-DD or DD.MM.YYYY)", s)
	}
	return s, nil
}

// HoursPerSP returns ShiftHours/sp rounded to two decimals, or nil when
// nothing was done.
func HoursPerSP(sp int) *float64 {
	if sp <= 0 {
		return nil
	}
	v := math.Round(ShiftHours/float64(sp)*100) / 100
	return &v
}
