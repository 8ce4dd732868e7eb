// Package derive computes display-time values from domain records: task
// visibility, completion percentages, counts and relative timestamps. Every
// function takes "now" or "today" explicitly and never reads the clock.
package derive

import (
	"fmt"
	"time"
)

// DateLayout is the YYYY-MM-DD form tasks are dated with
const DateLayout = "2006-01-02"

// RelativeTime describes how long before now created happened.
//
// Buckets use whole units rounded down: under a minute, minutes, hours,
// days (under a week). Anything older shows month/day in now's location.
func RelativeTime(created, now time.Time) string {
	elapsed := now.Sub(created)
	mins := int(elapsed / time.Minute)
	hours := mins / 60
	days := hours / 24

	switch {
	case mins < 1:
		return "刚刚"
	case mins < 60:
		return fmt.Sprintf("%d分钟前", mins)
	case hours < 24:
		return fmt.Sprintf("%d小时前", hours)
	case days < 7:
		return fmt.Sprintf("%d天前", days)
	}

	local := created.In(now.Location())
	return fmt.Sprintf("%d/%d", int(local.Month()), local.Day())
}

// FormatDate renders t as YYYY-MM-DD in t's own location
func FormatDate(t time.Time) string {
	return t.Format(DateLayout)
}

// ShiftDate moves a YYYY-MM-DD date by days. Invalid input is returned as is.
func ShiftDate(date string, days int) string {
	t, err := time.Parse(DateLayout, date)
	if err != nil {
		return date
	}
	return t.AddDate(0, 0, days).Format(DateLayout)
}
