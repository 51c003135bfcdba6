package metrics

import (
	"sort"
	"time"

	"saveit/internal/models"
	"saveit/internal/week"
)

// DayInfo describes one day of the current week for a day-logging view.
type DayInfo struct {
	Date       time.Time `json:"date"`
	DayKey     string    `json:"day_key"`
	DayName    string    `json:"day_name"`
	DayNumber  int       `json:"day_number"`
	IsComplete bool      `json:"is_complete"`
	IsToday    bool      `json:"is_today"`
}

// WeekDays lists the seven days of p in now's location.
func WeekDays(p *models.Period, now time.Time) []DayInfo {
	if p == nil {
		return []DayInfo{}
	}
	loc := now.Location()
	start := p.StartDate.In(loc)
	today := week.DayKey(now)

	days := make([]DayInfo, 0, week.Length)
	y, m, d := start.Date()
	for i := 0; i < week.Length; i++ {
		day := time.Date(y, m, d+i, 0, 0, 0, 0, loc)
		key := week.DayKey(day)
		days = append(days, DayInfo{
			Date:       day,
			DayKey:     key,
			DayName:    day.Format("Mon"),
			DayNumber:  day.Day(),
			IsComplete: p.DaysMarkedDone.Has(key),
			IsToday:    key == today,
		})
	}
	return days
}

// ConsecutiveDays counts the run of consecutive logged days ending at the
// most recent one.
func ConsecutiveDays(days []string) int {
	if len(days) == 0 {
		return 0
	}
	sorted := append([]string(nil), days...)
	sort.Strings(sorted)

	run := 1
	for i := len(sorted) - 1; i > 0; i-- {
		cur, err1 := week.ParseDayKey(sorted[i], time.UTC)
		prev, err2 := week.ParseDayKey(sorted[i-1], time.UTC)
		if err1 != nil || err2 != nil {
			break
		}
		if cur.Sub(prev) != 24*time.Hour {
			break
		}
		run++
	}
	return run
}
