package types

import (
	"strconv"
)

const DefaultPrecision = 2

type valueKind uint8

const (
	valueAbsent valueKind = iota
	valueString
	valueInt
	valueFloat
)

// Value is optional event field: absent, string, integer or float with decimal precision.
// Zero Value is absent.
type Value struct {
	kind      valueKind
	s         string
	i         int64
	f         float64
	precision int
}

func Str(s string) Value { return Value{kind: valueString, s: s} }
func Int(i int64) Value  { return Value{kind: valueInt, i: i} }

// Float renders with DefaultPrecision digits after decimal point.
func Float(f float64) Value { return FloatPrecision(f, DefaultPrecision) }

// Negative precision means DefaultPrecision.
func FloatPrecision(f float64, precision int) Value {
	if precision < 0 {
		precision = DefaultPrecision
	}
	return Value{kind: valueFloat, f: f, precision: precision}
}

func (v Value) IsSet() bool { return v.kind != valueAbsent }

// Wire form. Absent value renders as "".
func (v Value) String() string {
	switch v.kind {
	case valueString:
		return v.s
	case valueInt:
		return strconv.FormatInt(v.i, 10)
	case valueFloat:
		return strconv.FormatFloat(v.f, 'f', v.precision, 64)
	default:
		return ""
	}
}

// GoString helps reading test failures.
func (v Value) GoString() string {
	switch v.kind {
	case valueString:
		return "Str(" + strconv.Quote(v.s) + ")"
	case valueInt:
		return "Int(" + v.String() + ")"
	case valueFloat:
		return "FloatPrecision(" + v.String() + ", " + strconv.Itoa(v.precision) + ")"
	default:
		return "Value{}"
	}
}

// ParseValue reads command line form: integer, then float with given precision, otherwise string.
// Empty s is absent.
func ParseValue(s string, precision int) Value {
	if s == "" {
		return Value{}
	}
	if i, err := strconv.ParseInt(s, 10, 64); err == nil {
		return Int(i)
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return FloatPrecision(f, precision)
	}
	return Str(s)
}
