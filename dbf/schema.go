package dbf

import (
	"fmt"
	"strings"
)

// FieldType identifies the storage encoding of a field.
type FieldType byte

const (
	// Character fields hold left-justified, space-padded text.
	Character FieldType = 'C'
	// Numeric fields hold right-justified, zero-padded decimal digits.
	Numeric FieldType = 'N'
	// Logical fields hold a single T or F byte.
	Logical FieldType = 'L'
)

func (ft FieldType) String() string {
	switch ft {
	case Character:
		return "Character"
	case Numeric:
		return "Numeric"
	case Logical:
		return "Logical"
	default:
		return fmt.Sprintf("FieldType(%q)", byte(ft))
	}
}

// Field describes one fixed-width column of a table. Immutable once the
// schema is built.
type Field struct {
	Name  string
	Type  FieldType
	Width int
	Dec   int // decimal places, numeric fields only
}

// Schema is an ordered list of fields. The byte length of an encoded row is
// the sum of the field widths plus the one-byte delete flag.
type Schema struct {
	fields  []Field
	byName  map[string]int
	offsets []int // field offset within the row, after the delete flag
	rowLen  int   // including the delete flag
}

// NewSchema builds a schema from an ordered field list. Invalid definitions
// are programmer errors and panic.
func NewSchema(fields ...Field) *Schema {
	scm := &Schema{
		fields:  fields,
		byName:  make(map[string]int, len(fields)),
		offsets: make([]int, len(fields)),
		rowLen:  1,
	}
	for i, f := range fields {
		if f.Name == "" {
			panic(fmt.Errorf("dbf: field %d has no name", i))
		}
		if f.Width <= 0 {
			panic(fmt.Errorf("dbf: field %s has invalid width %d", f.Name, f.Width))
		}
		if f.Type == Logical && f.Width != 1 {
			panic(fmt.Errorf("dbf: logical field %s must have width 1", f.Name))
		}
		if f.Type != Character && f.Type != Numeric && f.Type != Logical {
			panic(fmt.Errorf("dbf: field %s has unknown type %q", f.Name, byte(f.Type)))
		}
		if _, dup := scm.byName[f.Name]; dup {
			panic(fmt.Errorf("dbf: duplicate field name %s", f.Name))
		}
		scm.byName[f.Name] = i
		scm.offsets[i] = scm.rowLen
		scm.rowLen += f.Width
	}
	return scm
}

// Fields returns a copy of the ordered field list.
func (scm *Schema) Fields() []Field {
	return append([]Field(nil), scm.fields...)
}

// Field looks up a field by name.
func (scm *Schema) Field(name string) (Field, bool) {
	i, ok := scm.byName[name]
	if !ok {
		return Field{}, false
	}
	return scm.fields[i], true
}

// RowLen is the on-disk row length including the delete flag byte.
func (scm *Schema) RowLen() int {
	return scm.rowLen
}

func (scm *Schema) fieldOffset(name string) (off, width int) {
	i, ok := scm.byName[name]
	if !ok {
		panic(fmt.Errorf("dbf: no field named %s", name))
	}
	return scm.offsets[i], scm.fields[i].Width
}

// fingerprint is a stable text form of the schema, stored in the table state
// so that a code-side schema change forces an index rebuild.
func (scm *Schema) fingerprint() string {
	var buf strings.Builder
	for i, f := range scm.fields {
		if i > 0 {
			buf.WriteByte('|')
		}
		fmt.Fprintf(&buf, "%s:%c:%d:%d", f.Name, byte(f.Type), f.Width, f.Dec)
	}
	return buf.String()
}
