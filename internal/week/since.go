package week

import (
	"fmt"
	"time"
)

// ParseSince parses a --since value in one of three formats:
//   - Relative: "7d" (days before now)
//   - Absolute: "2025-12-15" (YYYY-MM-DD, UTC midnight)
//   - Week: "2025-W28" (start of that week)
func ParseSince(since string, now time.Time) (time.Time, error) {
	if since == "" {
		return time.Time{}, fmt.Errorf("since date cannot be empty")
	}

	if since[len(since)-1] == 'd' {
		days := 0
		if _, err := fmt.Sscanf(since, "%dd", &days); err != nil {
			return time.Time{}, fmt.Errorf("invalid relative date format '%s': expected format like '7d'", since)
		}
		if days < 0 {
			return time.Time{}, fmt.Errorf("days cannot be negative: %d", days)
		}
		return now.AddDate(0, 0, -days), nil
	}

	if idPattern.MatchString(since) {
		w, err := Parse(since)
		if err != nil {
			return time.Time{}, err
		}
		return w.Start(), nil
	}

	parsed, err := time.Parse("2006-01-02", since)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date format '%s': expected 'YYYY-MM-DD', 'YYYY-WNN' or relative format like '7d'", since)
	}
	return parsed, nil
}
