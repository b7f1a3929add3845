package batch

import (
	"fmt"
	"time"
)

// WindowPolicy decides where the lookback window starts.
type WindowPolicy string

const (
	// WindowTrailing starts the window a fixed number of days before now.
	WindowTrailing WindowPolicy = "trailing"
	// WindowMonth starts the window at midnight on the first of the current month.
	WindowMonth WindowPolicy = "month"

	DefaultLookbackDays = 30
)

func WindowStart(now time.Time, policy WindowPolicy, days int) (time.Time, error) {
	switch policy {
	case WindowTrailing:
		if days <= 0 {
			return time.Time{}, fmt.Errorf("lookback days must be positive, got %d", days)
		}
		return now.AddDate(0, 0, -days), nil
	case WindowMonth:
		return time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location()), nil
	default:
		return time.Time{}, fmt.Errorf("unknown window policy %q", policy)
	}
}
