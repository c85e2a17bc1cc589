package utils

import (
	"fmt"
	"strings"
	"time"
)

var dateLayouts = []string{
	"2006-01-02",
	"02/01/2006",
	"2006/01/02",
	"2006-01-02T15:04:05Z07:00",
}

// ParseDate accepts the date formats found in sales spreadsheets and returns
// the calendar day in UTC. An empty string yields nil.
func ParseDate(dateStr string) (*time.Time, error) {
	dateStr = strings.TrimSpace(dateStr)
	if dateStr == "" {
		return nil, nil
	}

	for _, layout := range dateLayouts {
		parsed, err := time.Parse(layout, dateStr)
		if err != nil {
			continue
		}

		y, m, d := parsed.Date()
		date := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
		return &date, nil
	}

	return nil, fmt.Errorf("unrecognized date %q", dateStr)
}
