package dbf

import (
	"errors"
	"fmt"
	"strings"
)

// ErrDuplicateKey is returned when an insert or update would store a second
// live row under the same unique index key. It is always wrapped in a
// *TableError naming the offending index.
var ErrDuplicateKey = errors.New("duplicate key")

// TableError annotates a failure with the table, and optionally the index
// and encoded key, it occurred on.
type TableError struct {
	Table string
	Index string
	Key   []byte
	Msg   string
	Err   error
}

func tableErrf(table, index string, key []byte, err error, format string, args ...any) error {
	return &TableError{table, index, key, fmt.Sprintf(format, args...), err}
}

func (e *TableError) Unwrap() error {
	return e.Err
}

func (e *TableError) Error() string {
	var buf strings.Builder
	buf.WriteString(e.Table)
	if e.Index != "" {
		buf.WriteByte('.')
		buf.WriteString(e.Index)
	}
	if e.Key != nil {
		buf.WriteByte('/')
		buf.WriteString(strings.TrimRight(string(e.Key), " "))
	}
	if e.Msg != "" {
		buf.WriteString(": ")
		buf.WriteString(e.Msg)
		if e.Err != nil {
			buf.WriteString(": ")
			buf.WriteString(e.Err.Error())
		}
	} else if e.Err != nil {
		buf.WriteString(": ")
		buf.WriteString(e.Err.Error())
	}
	return buf.String()
}
