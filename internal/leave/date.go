package leave

import (
	"strings"
	"time"

	leaveerrors "go-leave/internal/leave/errors"
)

const (
	LayoutDMY = "02-01-2006"
	LayoutISO = "2006-01-02"
)

// Accepted input layouts, tried in order.
var dateLayouts = []string{LayoutDMY, LayoutISO}

// ParseDate accepts DD-MM-YYYY or YYYY-MM-DD; the first layout that parses
// wins. The result is midnight UTC.
func ParseDate(field, value string) (time.Time, error) {
	v := strings.TrimSpace(value)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, v); err == nil {
			return t, nil
		}
	}
	return time.Time{}, leaveerrors.InvalidDate(field, value)
}

// DaysBetween counts both ends of the range.
func DaysBetween(start, end time.Time) int {
	return int(end.Sub(start).Hours()/24) + 1
}

func formatDatePtr(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.Format(LayoutISO)
	return &s
}
