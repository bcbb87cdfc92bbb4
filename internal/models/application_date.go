package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

const (
	displayDateLayout = "Jan 2, 2006"
	formDateLayout    = "2006-01-02"
)

var dateLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	formDateLayout,
	"2006-01-02 15:04:05",
	"01/02/2006",
}

// ApplicationDate holds either a real timestamp or whatever free-form string
// the record was saved with. Older records carry plain strings.
type ApplicationDate struct {
	Time time.Time
	Raw  string
}

func DateFromTime(t time.Time) ApplicationDate {
	return ApplicationDate{Time: t}
}

// ParseApplicationDate keeps unparseable input as a raw string instead of failing.
func ParseApplicationDate(s string) ApplicationDate {
	s = strings.TrimSpace(s)
	if s == "" {
		return ApplicationDate{}
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return ApplicationDate{Time: t}
		}
	}
	return ApplicationDate{Raw: s}
}

func (d ApplicationDate) IsZero() bool {
	return d.Time.IsZero() && d.Raw == ""
}

// Display normalizes the date for the table.
func (d ApplicationDate) Display() string {
	switch {
	case !d.Time.IsZero():
		return d.Time.Format(displayDateLayout)
	case d.Raw != "":
		return d.Raw
	default:
		return "-"
	}
}

// FormValue is what a date input should be prefilled with.
func (d ApplicationDate) FormValue() string {
	if !d.Time.IsZero() {
		return d.Time.Format(formDateLayout)
	}
	return d.Raw
}

func (d ApplicationDate) String() string {
	if !d.Time.IsZero() {
		return d.Time.UTC().Format(time.RFC3339)
	}
	return d.Raw
}

func (d ApplicationDate) Value() (driver.Value, error) {
	if d.IsZero() {
		return nil, nil
	}
	return d.String(), nil
}

func (d *ApplicationDate) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		*d = ApplicationDate{}
	case time.Time:
		*d = ApplicationDate{Time: v}
	case string:
		*d = ParseApplicationDate(v)
	case []byte:
		*d = ParseApplicationDate(string(v))
	default:
		return fmt.Errorf("application date: unsupported scan type %T", src)
	}
	return nil
}

func (d ApplicationDate) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(d.String())
}

// document-store timestamp shape, e.g. {"seconds": 1700000000, "nanoseconds": 0}
type storeTimestamp struct {
	Seconds     *int64 `json:"seconds"`
	Nanoseconds int64  `json:"nanoseconds"`
}

func (d *ApplicationDate) UnmarshalJSON(data []byte) error {
	trimmed := strings.TrimSpace(string(data))
	if trimmed == "null" || trimmed == "" {
		*d = ApplicationDate{}
		return nil
	}

	if strings.HasPrefix(trimmed, "{") {
		var ts storeTimestamp
		if err := json.Unmarshal(data, &ts); err != nil {
			return fmt.Errorf("application date: %w", err)
		}
		if ts.Seconds == nil {
			return fmt.Errorf("application date: timestamp object without seconds")
		}
		*d = ApplicationDate{Time: time.Unix(*ts.Seconds, ts.Nanoseconds).UTC()}
		return nil
	}

	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("application date: %w", err)
	}
	*d = ParseApplicationDate(s)
	return nil
}
