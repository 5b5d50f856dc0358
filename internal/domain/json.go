package domain

import (
	"bytes"
	"encoding/json"
	"maps"
	"reflect"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Persisted records were written by several generations of clients, so numbers may arrive as
// strings, ids as numbers and timestamps as either. The flex* types below decode all of those
// shapes without failing and re-encode in the current canonical form.

// flexDecimal decodes a JSON number or numeric string. Valid is false for null, missing or
// non-numeric input. It encodes as a bare JSON number.
type flexDecimal struct {
	Value decimal.Decimal
	Valid bool
}

func someDecimal(d decimal.Decimal) flexDecimal { return flexDecimal{Value: d, Valid: true} }

func optionalDecimal(d *decimal.Decimal) flexDecimal {
	if d == nil {
		return flexDecimal{}
	}
	return someDecimal(*d)
}

func (f flexDecimal) ptr() *decimal.Decimal {
	if !f.Valid {
		return nil
	}
	v := f.Value
	return &v
}

func (f *flexDecimal) UnmarshalJSON(b []byte) error {
	*f = flexDecimal{}
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		return nil
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return nil
		}
		if d, ok := ParseAmount(s); ok {
			*f = someDecimal(d)
		}
		return nil
	}
	if d, err := decimal.NewFromString(string(b)); err == nil {
		*f = someDecimal(d)
	}
	return nil
}

func (f flexDecimal) MarshalJSON() ([]byte, error) {
	if !f.Valid {
		return []byte("null"), nil
	}
	return []byte(f.Value.String()), nil
}

// flexString decodes a JSON string or number into its textual form.
type flexString string

func (f *flexString) UnmarshalJSON(b []byte) error {
	*f = ""
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		return nil
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err == nil {
			*f = flexString(strings.TrimSpace(s))
		}
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err == nil {
		*f = flexString(n.String())
	}
	return nil
}

// flexBool decodes a JSON boolean, "true"/"false" or a number (non-zero is true).
type flexBool bool

func (f *flexBool) UnmarshalJSON(b []byte) error {
	*f = false
	b = bytes.TrimSpace(b)
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return nil
		}
		b = []byte(strings.TrimSpace(s))
	}
	if v, err := strconv.ParseBool(string(b)); err == nil {
		*f = flexBool(v)
		return nil
	}
	if d, err := decimal.NewFromString(string(b)); err == nil {
		*f = flexBool(!d.IsZero())
	}
	return nil
}

// flexTime decodes an RFC 3339 string or a millisecond epoch number. It encodes as RFC 3339
// and as null when zero.
type flexTime time.Time

func (f *flexTime) UnmarshalJSON(b []byte) error {
	*f = flexTime{}
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		return nil
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return nil
		}
		if t, ok := parseTimestamp(s); ok {
			*f = flexTime(t)
		}
		return nil
	}
	if ms, err := strconv.ParseInt(string(b), 10, 64); err == nil {
		*f = flexTime(time.UnixMilli(ms).UTC())
	}
	return nil
}

func (f flexTime) MarshalJSON() ([]byte, error) {
	t := time.Time(f)
	if t.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(t.UTC().Format(time.RFC3339Nano))
}

func parseTimestamp(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	for _, layout := range []string{time.RFC3339Nano, "2006-01-02T15:04:05", "2006-01-02 15:04:05", dateLayout} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// extraFields holds the keys of a stored object that its record type does not model.
// They are written back unchanged so a rewrite never drops data another client stored.
type extraFields map[string]json.RawMessage

// captureExtra returns the keys of object b that are not in known (lower-cased).
func captureExtra(b []byte, known map[string]bool) extraFields {
	var all map[string]json.RawMessage
	if err := json.Unmarshal(b, &all); err != nil {
		return nil
	}
	var extra extraFields
	for k, v := range all {
		if known[strings.ToLower(k)] {
			continue
		}
		if extra == nil {
			extra = extraFields{}
		}
		extra[k] = v
	}
	return extra
}

// with returns x overlaid by over.
func (x extraFields) with(over extraFields) extraFields {
	if len(x) == 0 {
		return over
	}
	merged := maps.Clone(x)
	maps.Copy(merged, over)
	return merged
}

// appendTo adds the extra keys, sorted, to the end of the encoded object data.
func (x extraFields) appendTo(data []byte) []byte {
	if len(x) == 0 || len(data) < 2 || data[len(data)-1] != '}' {
		return data
	}
	out := slices.Clone(data[:len(data)-1])
	for _, k := range slices.Sorted(maps.Keys(x)) {
		if len(bytes.TrimSpace(out)) > 1 {
			out = append(out, ',')
		}
		key, _ := json.Marshal(k)
		out = append(out, key...)
		out = append(out, ':')
		out = append(out, x[k]...)
	}
	return append(out, '}')
}

// jsonKeys lists the lower-cased JSON names of the fields of struct v.
func jsonKeys(v any) map[string]bool {
	t := reflect.TypeOf(v)
	keys := make(map[string]bool, t.NumField())
	for i := range t.NumField() {
		f := t.Field(i)
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "" || name == "-" {
			name = f.Name
		}
		keys[strings.ToLower(name)] = true
	}
	return keys
}
