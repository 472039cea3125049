package utils

import (
	"fmt"
	"time"
)

// FormatChatTime renders a history timestamp as "<todayLabel>, 15:04" for
// times on the same calendar day as now, and "2006-01-02, 15:04" otherwise.
// Both times are compared in now's location.
func FormatChatTime(t, now time.Time, todayLabel string) string {
	t = t.In(now.Location())
	clock := t.Format("15:04")
	y1, m1, d1 := t.Date()
	y2, m2, d2 := now.Date()
	if y1 == y2 && m1 == m2 && d1 == d2 {
		return todayLabel + ", " + clock
	}
	return t.Format("2006-01-02") + ", " + clock
}

// FormatDuration formats a duration for humans.
// Examples: "850ms", "5s", "2m 30s", "1h 15m"
func FormatDuration(d time.Duration) string {
	if d < 0 {
		return "unknown"
	}
	if d < time.Second {
		return fmt.Sprintf("%dms", d.Milliseconds())
	}

	totalSecs := int(d.Seconds())
	if totalSecs < 60 {
		return fmt.Sprintf("%ds", totalSecs)
	}

	minutes := totalSecs / 60
	secs := totalSecs % 60
	if minutes < 60 {
		if secs == 0 {
			return fmt.Sprintf("%dm", minutes)
		}
		return fmt.Sprintf("%dm %ds", minutes, secs)
	}

	hours := minutes / 60
	mins := minutes % 60
	if mins == 0 {
		return fmt.Sprintf("%dh", hours)
	}
	return fmt.Sprintf("%dh %dm", hours, mins)
}
