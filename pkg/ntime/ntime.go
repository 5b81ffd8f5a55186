package ntime

import (
	"database/sql/driver"
	"fmt"
	"strings"
	"time"
)

// NTime represents a nullable time.Time.
// It can be used as a scan destination and can be marshalled to JSON.
type NTime struct {
	time    time.Time
	isValid bool // false when the time is null
}

// layout fixes the fractional seconds at nine digits; RFC3339Nano trims trailing zeroes,
// which breaks the lexicographic ordering SQLite applies to text stored dates
const layout = "2006-01-02T15:04:05.000000000Z07:00"

// UnmarshalJSON parses a RFC3339 time string into a time.Time object.
func (nt *NTime) UnmarshalJSON(b []byte) error {
	var encoded = strings.Trim(string(b), `"`)
	if encoded == "null" {
		*nt = NTime{}
		return nil
	}
	parsedTime, err := time.Parse(time.RFC3339Nano, encoded)
	if err != nil {
		return err
	}
	*nt = NTime{parsedTime, true}
	return nil
}

// MarshalJSON implements the Marshaller interface and operates on values rather than pointers, given NTime's heft.
func (nt NTime) MarshalJSON() ([]byte, error) {
	if nt.isValid {
		return []byte(fmt.Sprintf("%q", nt.time.UTC().Format(layout))), nil
	}
	return []byte("null"), nil
}

// Scan implements the Scanner interface.
func (nt *NTime) Scan(value any) error {
	switch v := value.(type) {
	case time.Time:
		nt.time, nt.isValid = v, true
	case string:
		// sqlite stores the RFC3339 string produced by Value
		parsed, err := time.Parse(time.RFC3339Nano, v)
		if err != nil {
			return err
		}
		nt.time, nt.isValid = parsed, true
	case []byte:
		parsed, err := time.Parse(time.RFC3339Nano, string(v))
		if err != nil {
			return err
		}
		nt.time, nt.isValid = parsed, true
	default:
		nt.time, nt.isValid = time.Time{}, false
	}
	return nil
}

// Value implements the driver Valuer interface.
func (nt NTime) Value() (driver.Value, error) {
	if nt.isValid {
		return driver.Value(nt.time.UTC().Format(layout)), nil
	}
	return nil, nil
}

func Now() NTime {
	return NTime{time: time.Now().UTC(), isValid: true}
}

// FromTime wraps an existing time.Time into a valid NTime.
func FromTime(t time.Time) NTime {
	return NTime{time: t.UTC(), isValid: true}
}

func (nt NTime) Before(compared NTime) bool {
	return nt.time.Before(compared.time)
}

func (nt NTime) Equal(compared NTime) bool {
	return nt.isValid == compared.isValid && nt.time.Equal(compared.time)
}

// Time returns the wrapped time value, zero when null.
func (nt NTime) Time() time.Time {
	return nt.time
}

// IsValid reports whether the time holds an actual value rather than null.
func (nt NTime) IsValid() bool {
	return nt.isValid
}
