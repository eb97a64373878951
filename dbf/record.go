package dbf

import (
	"strconv"
	"time"
)

// Record maps field names to their raw text values. The store does not keep
// the delete flag here; it is maintained on disk only.
type Record map[string]string

func (rec Record) Get(name string) string {
	return rec[name]
}

func (rec Record) Set(name, value string) {
	rec[name] = value
}

// Int returns the value of a numeric field, 0 when absent or malformed.
func (rec Record) Int(name string) int {
	n, err := strconv.Atoi(rec[name])
	if err != nil {
		return 0
	}
	return n
}

func (rec Record) SetInt(name string, n int) {
	rec[name] = strconv.Itoa(n)
}

// Bool returns the value of a logical field.
func (rec Record) Bool(name string) bool {
	return rec[name] == "T"
}

func (rec Record) SetBool(name string, v bool) {
	if v {
		rec[name] = "T"
	} else {
		rec[name] = "F"
	}
}

// Time returns the value of a timestamp field, the zero time when unset.
func (rec Record) Time(name string) time.Time {
	t, _ := ParseTimestamp(rec[name])
	return t
}

func (rec Record) SetTime(name string, t time.Time) {
	rec[name] = FormatTimestamp(t)
}

func (rec Record) clone() Record {
	dup := make(Record, len(rec))
	for k, v := range rec {
		dup[k] = v
	}
	return dup
}
