// Package registry computes the completion-time windows used to filter the
// chore registry.
package registry

import (
	"fmt"
	"time"
)

type Filter string

const (
	FilterToday     Filter = "today"
	FilterYesterday Filter = "yesterday"
	FilterThisWeek  Filter = "thisWeek"
	FilterLastWeek  Filter = "lastWeek"
	FilterThisMonth Filter = "thisMonth"
	FilterAll       Filter = "all"
)

// Filters lists every accepted filter value.
var Filters = []Filter{FilterToday, FilterYesterday, FilterThisWeek, FilterLastWeek, FilterThisMonth, FilterAll}

// ParseFilter maps an empty string to FilterAll.
func ParseFilter(s string) (Filter, error) {
	if s == "" {
		return FilterAll, nil
	}
	for _, f := range Filters {
		if string(f) == s {
			return f, nil
		}
	}
	return "", fmt.Errorf("unknown filter %q", s)
}

// Window returns the half-open range [start, end) selected by f, computed
// in now's location. Weeks start on Sunday. FilterAll returns zero times.
func Window(f Filter, now time.Time) (start, end time.Time) {
	today := startOfDay(now)

	switch f {
	case FilterToday:
		return today, today.AddDate(0, 0, 1)
	case FilterYesterday:
		return today.AddDate(0, 0, -1), today
	case FilterThisWeek:
		sunday := today.AddDate(0, 0, -int(today.Weekday()))
		return sunday, sunday.AddDate(0, 0, 7)
	case FilterLastWeek:
		sunday := today.AddDate(0, 0, -int(today.Weekday())-7)
		return sunday, sunday.AddDate(0, 0, 7)
	case FilterThisMonth:
		first := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
		return first, first.AddDate(0, 1, 0)
	default:
		return time.Time{}, time.Time{}
	}
}

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
