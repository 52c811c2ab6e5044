package tasks

import (
	"fmt"
	"strings"
	"time"
)

// InputLayouts are the accepted due-date formats, tried in order.
// Layouts without a zone are read in the caller's location.
var InputLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04",
	"2006-01-02T15:04",
	"2006-01-02",
}

// ParseDue reads a user-supplied due date
func ParseDue(s string, loc *time.Location) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, fmt.Errorf("due date is required")
	}
	if loc == nil {
		loc = time.Local
	}
	for _, layout := range InputLayouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized due date %q (want RFC3339 or YYYY-MM-DD HH:MM)", s)
}
