// Package week computes Monday-anchored budget weeks and pro-rated budgets.
//
// All calculations use the location of the time passed in, so callers decide
// which zone a "day" belongs to.
package week

import (
	"fmt"
	"math"
	"time"

	"saveit/internal/money"
)

// DayKeyLayout is the calendar-day key format stored in days_marked_done.
const DayKeyLayout = "2006-01-02"

// Length is the number of days in a budget week.
const Length = 7

// Start returns Monday 00:00:00.000 of the week containing ref.
func Start(ref time.Time) time.Time {
	wd := int(ref.Weekday())
	offset := 1 - wd
	if wd == int(time.Sunday) {
		offset = -6
	}
	y, m, d := ref.Date()
	return time.Date(y, m, d+offset, 0, 0, 0, 0, ref.Location())
}

// End returns the last instant of the week that begins at start:
// start + 6 days at 23:59:59.999.
func End(start time.Time) time.Time {
	y, m, d := start.Date()
	return time.Date(y, m, d+6, 23, 59, 59, int(999*time.Millisecond), start.Location())
}

// Bounds returns Start(ref) and its End.
func Bounds(ref time.Time) (time.Time, time.Time) {
	s := Start(ref)
	return s, End(s)
}

// DaysRemaining is ceil((end - now) / 24h). It goes negative once now is
// past end.
func DaysRemaining(now, end time.Time) int {
	return int(math.Ceil(end.Sub(now).Hours() / 24))
}

// ProRate scales a weekly budget down to the days left in the week. A full
// week (or more) keeps the weekly amount.
func ProRate(weeklyCents int64, now, end time.Time) int64 {
	days := DaysRemaining(now, end)
	if days >= Length {
		return weeklyCents
	}
	if days < 0 {
		days = 0
	}
	return money.RoundRatio(weeklyCents, int64(days), Length)
}

// DayKey formats t as a calendar-day key in t's location.
func DayKey(t time.Time) string {
	return t.Format(DayKeyLayout)
}

// ParseDayKey parses a calendar-day key into midnight of that day in loc.
func ParseDayKey(key string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.Local
	}
	t, err := time.ParseInLocation(DayKeyLayout, key, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid day key %q: %w", key, err)
	}
	return t, nil
}

// Contains reports whether the day named by key falls within [start, end].
func Contains(start, end time.Time, key string) bool {
	day, err := ParseDayKey(key, start.Location())
	if err != nil {
		return false
	}
	return !day.Before(startOfDay(start)) && !day.After(end)
}

// Days returns the seven day keys of the week beginning at start.
func Days(start time.Time) []string {
	keys := make([]string, Length)
	y, m, d := start.Date()
	for i := range keys {
		keys[i] = DayKey(time.Date(y, m, d+i, 0, 0, 0, 0, start.Location()))
	}
	return keys
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
