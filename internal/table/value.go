// Package table holds the in-memory tabular model the cleaning pipeline
// operates on: typed cells, rows that remember their source position, and an
// immutable Table whose operations always return a new Table.
package table

import (
	"math"
	"strconv"
	"time"
)

// DateLayout is the canonical text form of a Date cell.
const DateLayout = "2006-01-02"

// Kind identifies the dynamic type held by a Value.
type Kind uint8

const (
	KindNull Kind = iota
	KindText
	KindNumber
	KindInt
	KindDate
)

func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindText:
		return "text"
	case KindNumber:
		return "number"
	case KindInt:
		return "int"
	case KindDate:
		return "date"
	default:
		return "kind(" + strconv.Itoa(int(k)) + ")"
	}
}

// Value is a single cell. The zero Value is Null.
type Value struct {
	kind Kind
	text string
	num  float64
	i    int
	date time.Time
}

// Null returns the absent marker.
func Null() Value { return Value{} }

// Text wraps a string cell.
func Text(s string) Value { return Value{kind: KindText, text: s} }

// Number wraps a floating point cell.
func Number(f float64) Value { return Value{kind: KindNumber, num: f} }

// Int wraps an integer cell.
func Int(i int) Value { return Value{kind: KindInt, i: i} }

// Date wraps a calendar date. The time of day and location are discarded.
func Date(t time.Time) Value {
	y, m, d := t.Date()
	return Value{kind: KindDate, date: time.Date(y, m, d, 0, 0, 0, 0, time.UTC)}
}

func (v Value) Kind() Kind   { return v.kind }
func (v Value) IsNull() bool { return v.kind == KindNull }

// Text returns the string payload when v is a text cell.
func (v Value) Text() (string, bool) {
	if v.kind != KindText {
		return "", false
	}
	return v.text, true
}

// Number returns the numeric payload for number and int cells.
func (v Value) Number() (float64, bool) {
	switch v.kind {
	case KindNumber:
		return v.num, true
	case KindInt:
		return float64(v.i), true
	}
	return 0, false
}

// Int returns the payload when v is an int cell.
func (v Value) Int() (int, bool) {
	if v.kind != KindInt {
		return 0, false
	}
	return v.i, true
}

// Date returns the payload when v is a date cell.
func (v Value) Date() (time.Time, bool) {
	if v.kind != KindDate {
		return time.Time{}, false
	}
	return v.date, true
}

// IsEmpty reports whether v is Null or empty text.
func (v Value) IsEmpty() bool {
	return v.kind == KindNull || (v.kind == KindText && v.text == "")
}

// String renders v the way it is written to CSV output and diagnostics.
// Null renders as the empty string.
func (v Value) String() string {
	switch v.kind {
	case KindText:
		return v.text
	case KindNumber:
		if v.num == math.Trunc(v.num) && math.Abs(v.num) < 1e15 {
			return strconv.FormatFloat(v.num, 'f', -1, 64)
		}
		return strconv.FormatFloat(v.num, 'g', -1, 64)
	case KindInt:
		return strconv.Itoa(v.i)
	case KindDate:
		return v.date.Format(DateLayout)
	default:
		return ""
	}
}

// Any converts v to the plain Go value storage drivers expect:
// nil, string, float64, int or time.Time.
func (v Value) Any() any {
	switch v.kind {
	case KindText:
		return v.text
	case KindNumber:
		return v.num
	case KindInt:
		return v.i
	case KindDate:
		return v.date
	default:
		return nil
	}
}

// Equal reports whether v and o hold the same kind and payload.
func (v Value) Equal(o Value) bool {
	if v.kind != o.kind {
		return false
	}
	switch v.kind {
	case KindNull:
		return true
	case KindText:
		return v.text == o.text
	case KindNumber:
		return v.num == o.num || (math.IsNaN(v.num) && math.IsNaN(o.num))
	case KindInt:
		return v.i == o.i
	case KindDate:
		return v.date.Equal(o.date)
	}
	return false
}
