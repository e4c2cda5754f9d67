package ledger

import (
	"time"

	"github.com/jottaiandra/lunnor-finance-hub-sub000/models"
)

// Period scopes totals to a window around "now".
type Period string

const (
	PeriodNone  Period = ""
	PeriodToday Period = "today"
	PeriodWeek  Period = "week"
	PeriodMonth Period = "month"
	PeriodYear  Period = "year"
)

// ParsePeriod accepts the period names used by the dashboard. "all" and "" mean PeriodNone.
func ParsePeriod(s string) (Period, bool) {
	switch p := Period(s); p {
	case PeriodNone, PeriodToday, PeriodWeek, PeriodMonth, PeriodYear:
		return p, true
	case "all":
		return PeriodNone, true
	}
	return PeriodNone, false
}

// Bounds returns the inclusive first and last day of p relative to now. Weeks start on Sunday
// and end today; months and years run to their last calendar day. ok is false for PeriodNone
// and for unknown periods.
func (p Period) Bounds(now time.Time) (start, end models.Date, ok bool) {
	today := models.DateOf(now)
	year, month, _ := today.Date()

	switch p {
	case PeriodToday:
		return today, today, true
	case PeriodWeek:
		return today.AddDays(-int(today.Weekday())), today, true
	case PeriodMonth:
		first := models.NewDate(year, month, 1)
		return first, models.NewDate(year, month+1, 0), true
	case PeriodYear:
		return models.NewDate(year, time.January, 1), models.NewDate(year, time.December, 31), true
	}
	return models.Date{}, models.Date{}, false
}

// Contains reports whether d falls inside p. PeriodNone contains every date; unknown periods
// contain none.
func (p Period) Contains(d models.Date, now time.Time) bool {
	if p == PeriodNone {
		return true
	}
	start, end, ok := p.Bounds(now)
	if !ok || d.IsZero() {
		return false
	}
	return !d.Before(start) && !d.After(end)
}
