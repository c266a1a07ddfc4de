package schema

import (
	"encoding/json"
	"time"
)

// DateLayout is the persisted date format.
const DateLayout = "2006-01-02"

// Date is a calendar date read from a spreadsheet. A value that could not be
// parsed keeps its raw text and is flagged Unparseable instead of being
// replaced with a default.
type Date struct {
	Time        time.Time
	Raw         string
	Unparseable bool
}

// ParsedDate wraps a known time.
func ParsedDate(t time.Time) Date {
	return Date{Time: t}
}

// UnparseableDate records raw text that is not a date.
func UnparseableDate(raw string) Date {
	return Date{Raw: raw, Unparseable: true}
}

// Valid reports whether the date holds a usable time.
func (d Date) Valid() bool {
	return !d.Unparseable && !d.Time.IsZero()
}

// IsZero reports a date that was never set.
func (d Date) IsZero() bool {
	return !d.Unparseable && d.Time.IsZero()
}

// Period returns the YYYY-MM bucket of a valid date, or "".
func (d Date) Period() string {
	if !d.Valid() {
		return ""
	}
	return d.Time.Format("2006-01")
}

// String renders the date for keys and diagnostics.
func (d Date) String() string {
	switch {
	case d.Unparseable:
		return d.Raw
	case d.Time.IsZero():
		return ""
	default:
		return d.Time.Format(DateLayout)
	}
}

type unparseableJSON struct {
	Raw         string `json:"raw"`
	Unparseable bool   `json:"unparseable"`
}

// MarshalJSON writes valid dates as "YYYY-MM-DD", unset dates as null and
// unparseable dates as {"raw": ..., "unparseable": true}.
func (d Date) MarshalJSON() ([]byte, error) {
	switch {
	case d.Unparseable:
		return json.Marshal(unparseableJSON{Raw: d.Raw, Unparseable: true})
	case d.Time.IsZero():
		return []byte("null"), nil
	default:
		return json.Marshal(d.Time.Format(DateLayout))
	}
}

// UnmarshalJSON accepts every form MarshalJSON produces.
func (d *Date) UnmarshalJSON(data []byte) error {
	*d = Date{}
	if string(data) == "null" {
		return nil
	}
	if len(data) > 0 && data[0] == '{' {
		var u unparseableJSON
		if err := json.Unmarshal(data, &u); err != nil {
			return err
		}
		*d = UnparseableDate(u.Raw)
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	if s == "" {
		return nil
	}
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return err
	}
	d.Time = t
	return nil
}
