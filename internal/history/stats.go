package history

import (
	"strings"
	"time"

	"tubefocus/internal/models"
)

// DayStats summarizes one day of the session history for the popup.
type DayStats struct {
	CompletedWork  int
	FocusMinutes   int
	CompletionRate int // percent of work attempts that completed
}

// StatsForDay computes the dashboard numbers from raw history entries.
// Work segments with a suffix count as attempts but not completions.
func StatsForDay(sessions []models.SessionRecord, day time.Time) DayStats {
	date := day.Format("2006-01-02")

	var stats DayStats
	workAttempts := 0
	focusMs := int64(0)

	for _, session := range sessions {
		if time.UnixMilli(session.Timestamp).Format("2006-01-02") != date {
			continue
		}
		if strings.HasPrefix(session.Mode, string(models.ModeWork)) {
			workAttempts++
		}
		if session.Completed && session.Mode == string(models.ModeWork) {
			stats.CompletedWork++
			focusMs += session.DurationMs
		}
	}

	stats.FocusMinutes = int(focusMs / 60000)
	if workAttempts > 0 {
		stats.CompletionRate = stats.CompletedWork * 100 / workAttempts
	}
	return stats
}
