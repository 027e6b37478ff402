// Package csvfile reads the pipeline's CSV inputs and writes its CSV outputs.
package csvfile

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// nullFloat reads blank and NaN cells as NaN and writes NaN as a blank cell.
type nullFloat float64

func (f *nullFloat) UnmarshalCSV(s string) error {
	s = strings.TrimSpace(s)
	switch strings.ToLower(s) {
	case "", "nan", "na", "null":
		*f = nullFloat(math.NaN())
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return fmt.Errorf("parse number %q: %w", s, err)
	}
	*f = nullFloat(v)
	return nil
}

func (f nullFloat) MarshalCSV() (string, error) {
	v := float64(f)
	if math.IsNaN(v) {
		return "", nil
	}
	return strconv.FormatFloat(v, 'g', -1, 64), nil
}

var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05Z07:00",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
}

// timestamp accepts the ISO-like layouts found in sensor and climate exports.
// Values without a zone are read as UTC.
type timestamp struct{ time.Time }

func (t *timestamp) UnmarshalCSV(s string) error {
	s = strings.TrimSpace(s)
	for _, layout := range timeLayouts {
		if v, err := time.Parse(layout, s); err == nil {
			t.Time = v
			return nil
		}
	}
	return fmt.Errorf("parse time %q: unsupported layout", s)
}

func (t timestamp) MarshalCSV() (string, error) {
	return t.UTC().Format(time.RFC3339), nil
}
