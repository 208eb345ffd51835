package window

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/bashkirian/repair-order-pipeline/pkg/models"
)

// offsetPattern matches calendar offset aliases such as "1D", "6H" or "15min".
var offsetPattern = regexp.MustCompile(`^(\d*)\s*([A-Za-z]+)$`)

// W is a plain seven days on the epoch grid, so weekly windows start on
// Thursdays rather than being anchored to a weekday.
var offsetUnits = map[string]time.Duration{
	"W":   7 * 24 * time.Hour,
	"D":   24 * time.Hour,
	"d":   24 * time.Hour,
	"H":   time.Hour,
	"h":   time.Hour,
	"T":   time.Minute,
	"min": time.Minute,
	"S":   time.Second,
	"s":   time.Second,
	"L":   time.Millisecond,
	"ms":  time.Millisecond,
}

// ParseWidth reads a window width. Both Go durations ("1h30m") and calendar
// offset aliases with an optional multiple ("1D", "6H", "15min", "D") are
// accepted. The width must be positive.
func ParseWidth(spec string) (time.Duration, error) {
	spec = strings.TrimSpace(spec)
	if spec == "" {
		return 0, fmt.Errorf("empty window width: %w", models.ErrInvalidWindow)
	}
	if d, err := time.ParseDuration(spec); err == nil {
		if d <= 0 {
			return 0, fmt.Errorf("window width %q: %w", spec, models.ErrInvalidWindow)
		}
		return d, nil
	}
	m := offsetPattern.FindStringSubmatch(spec)
	if m == nil {
		return 0, fmt.Errorf("window width %q: unrecognised format: %w", spec, models.ErrInvalidWindow)
	}
	unit, ok := offsetUnits[m[2]]
	if !ok {
		return 0, fmt.Errorf("window width %q: unknown unit %q: %w", spec, m[2], models.ErrInvalidWindow)
	}
	n := 1
	if m[1] != "" {
		var err error
		if n, err = strconv.Atoi(m[1]); err != nil {
			return 0, fmt.Errorf("window width %q: %w", spec, models.ErrInvalidWindow)
		}
	}
	if n <= 0 || int64(n) > math.MaxInt64/int64(unit) {
		return 0, fmt.Errorf("window width %q: %w", spec, models.ErrInvalidWindow)
	}
	return time.Duration(n) * unit, nil
}
