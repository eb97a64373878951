package dbf

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"
	"time"
)

const (
	flagLive    = ' '
	flagDeleted = '*'

	logicalTrue  = 'T'
	logicalFalse = 'F'
)

// TimestampFormat is the canonical storage form of a date/time inside a
// Character field. An empty value means "no date" and sorts before any real
// timestamp.
const TimestampFormat = "20060102150405"

// FormatTimestamp renders t in the canonical storage form. The zero time
// encodes as the empty string.
func FormatTimestamp(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(TimestampFormat)
}

// ParseTimestamp parses a stored timestamp. Empty or malformed input yields
// the zero time and ok=false rather than an error.
func ParseTimestamp(s string) (t time.Time, ok bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	t, err := time.ParseInLocation(TimestampFormat, s, time.Local)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// MaxNumeric returns the largest value representable by a numeric field of
// the given width, 10^width - 1.
func MaxNumeric(width int) int {
	max := 1
	for i := 0; i < width; i++ {
		max *= 10
	}
	return max - 1
}

// encodeField appends the fixed-width encoding of value to buf. A value that
// cannot be represented at the declared width is an error; rows are never
// silently truncated.
func encodeField(buf []byte, f Field, value string) ([]byte, error) {
	switch f.Type {
	case Character:
		if len(value) > f.Width {
			return nil, fmt.Errorf("value %q exceeds width %d of field %s", value, f.Width, f.Name)
		}
		buf = append(buf, value...)
		for i := len(value); i < f.Width; i++ {
			buf = append(buf, ' ')
		}
		return buf, nil

	case Numeric:
		n := 0
		if s := strings.TrimSpace(value); s != "" {
			var err error
			n, err = strconv.Atoi(s)
			if err != nil {
				return nil, fmt.Errorf("field %s: %q is not numeric", f.Name, value)
			}
		}
		if n < 0 || n > MaxNumeric(f.Width) {
			return nil, fmt.Errorf("field %s: %d out of range for width %d", f.Name, n, f.Width)
		}
		s := strconv.Itoa(n)
		for i := len(s); i < f.Width; i++ {
			buf = append(buf, '0')
		}
		return append(buf, s...), nil

	case Logical:
		if value == "T" || value == "true" {
			return append(buf, logicalTrue), nil
		}
		return append(buf, logicalFalse), nil

	default:
		return nil, fmt.Errorf("field %s: unknown type %q", f.Name, byte(f.Type))
	}
}

// decodeField extracts one field value from its fixed-width region. A
// malformed field degrades to a deterministic fallback instead of failing
// the row: "0" for numeric, "F" for logical, "?" for an unknown type.
func decodeField(f Field, raw []byte) string {
	switch f.Type {
	case Character:
		return string(bytes.TrimRight(raw, " "))

	case Numeric:
		s := strings.TrimSpace(strings.TrimLeft(string(raw), "0 "))
		if s == "" {
			return "0"
		}
		if _, err := strconv.Atoi(s); err != nil {
			return "0"
		}
		return s

	case Logical:
		if len(raw) > 0 && raw[0] == logicalTrue {
			return "T"
		}
		return "F"

	default:
		return "?"
	}
}

// encodeRow renders a live row for the given record. Fields absent from the
// record encode as their zero value (empty text, 0, false).
func (scm *Schema) encodeRow(rec Record) ([]byte, error) {
	buf := make([]byte, 1, scm.rowLen)
	buf[0] = flagLive
	var err error
	for _, f := range scm.fields {
		buf, err = encodeField(buf, f, rec[f.Name])
		if err != nil {
			return nil, err
		}
	}
	return buf, nil
}

// decodeRow splits an encoded row into a record and its delete flag.
func (scm *Schema) decodeRow(row []byte) (Record, bool) {
	rec := make(Record, len(scm.fields))
	for i, f := range scm.fields {
		off := scm.offsets[i]
		rec[f.Name] = decodeField(f, row[off:off+f.Width])
	}
	return rec, row[0] == flagDeleted
}
