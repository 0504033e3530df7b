package feed

import (
	"fmt"
	"time"
)

// FormatTimestamp renders a post's age as a compact relative label:
// under a minute "now", then whole minutes "5m", hours "2h", days "3d".
// Ages are floored, and days have no upper bound.
func FormatTimestamp(createdAt, now time.Time) string {
	diff := now.Sub(createdAt)
	if diff < time.Minute {
		return "now"
	}
	if diff < time.Hour {
		return fmt.Sprintf("%dm", int(diff.Minutes()))
	}
	if diff < 24*time.Hour {
		return fmt.Sprintf("%dh", int(diff.Hours()))
	}
	return fmt.Sprintf("%dd", int(diff.Hours()/24))
}
