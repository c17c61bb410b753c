package streak

import (
	"time"

	"github.com/osse101/CatchLog_Go/internal/utils"
)

// ConsecutiveWeeks counts the run of consecutive non-empty ISO weeks ending at the
// most recent week that has a catch. Weeks start Monday 00:00 in each timestamp's
// own location, so callers pass timestamps in the account's local zone.
func ConsecutiveWeeks(timestamps []time.Time) int {
	if len(timestamps) == 0 {
		return 0
	}

	weeks := make(map[string]struct{}, len(timestamps))
	var latest time.Time
	for i, ts := range timestamps {
		start := utils.WeekStart(ts)
		weeks[start.Format(time.DateOnly)] = struct{}{}
		if i == 0 || start.After(latest) {
			latest = start
		}
	}

	count := 0
	for week := latest; ; week = week.AddDate(0, 0, -7) {
		if _, ok := weeks[week.Format(time.DateOnly)]; !ok {
			break
		}
		count++
	}
	return count
}
