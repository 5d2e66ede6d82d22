package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

const day = 24 * time.Hour

// ParseDuration parses a Go duration that may start with a whole number of
// days: "30s", "2m", "1d", "1d12h". Negative values are rejected.
func ParseDuration(s string) (time.Duration, error) {
	value := strings.TrimSpace(s)
	if value == "" {
		return 0, fmt.Errorf("duration is empty")
	}

	var days time.Duration
	if idx := strings.IndexByte(value, 'd'); idx > 0 {
		n, err := strconv.ParseUint(value[:idx], 10, 32)
		if err != nil {
			return 0, fmt.Errorf("invalid day count in %q", s)
		}
		days = time.Duration(n) * day
		value = value[idx+1:]
		if value == "" {
			return days, nil
		}
	}

	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, err
	}
	if d < 0 {
		return 0, fmt.Errorf("duration %q must not be negative", s)
	}
	return days + d, nil
}
