package service

import (
	"fmt"
	"time"
)

// CreatedScope selects users by the calendar period of their creation time.
type CreatedScope string

const (
	ScopeToday     CreatedScope = "today"
	ScopeYesterday CreatedScope = "yesterday"
	ScopeThisWeek  CreatedScope = "this_week"
	ScopeLastWeek  CreatedScope = "last_week"
	ScopeThisMonth CreatedScope = "this_month"
	ScopeLastMonth CreatedScope = "last_month"
	ScopeThisYear  CreatedScope = "this_year"
)

// Range returns the half-open interval [from, to) of the scope relative to now, in now's
// location. Weeks start on Monday.
func (s CreatedScope) Range(now time.Time) (from, to time.Time, err error) {
	day := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	week := day.AddDate(0, 0, -((int(day.Weekday()) + 6) % 7))
	month := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	switch s {
	case ScopeToday:
		return day, day.AddDate(0, 0, 1), nil
	case ScopeYesterday:
		return day.AddDate(0, 0, -1), day, nil
	case ScopeThisWeek:
		return week, week.AddDate(0, 0, 7), nil
	case ScopeLastWeek:
		return week.AddDate(0, 0, -7), week, nil
	case ScopeThisMonth:
		return month, month.AddDate(0, 1, 0), nil
	case ScopeLastMonth:
		return month.AddDate(0, -1, 0), month, nil
	case ScopeThisYear:
		year := time.Date(now.Year(), 1, 1, 0, 0, 0, 0, now.Location())
		return year, year.AddDate(1, 0, 0), nil
	}
	return time.Time{}, time.Time{}, fmt.Errorf("unknown created scope %q", string(s))
}
