package params

import (
	"errors"
	"strconv"
)

// ValueKind tags the runtime type held by a Value.
type ValueKind int

const (
	KindEmpty ValueKind = iota
	KindString
	KindInt
	KindFloat
	KindBoolean
	KindBuffer
)

// ErrInvalidCoercion means a Value accessor was asked for an incompatible type.
var ErrInvalidCoercion = errors.New("params: invalid value coercion")

// Value is the polymorphic payload of a parameter. The original text form is
// retained so files round-trip byte-for-byte even when the numeric parse
// normalises the representation.
type Value struct {
	kind ValueKind
	raw  string
	i    int64
	f    float64
	b    bool
	buf  []byte
}

// ParseValue infers the kind of a textual value by attempting integer, float
// and boolean parses in that order, falling back to a plain string.
func ParseValue(text string) Value {
	if text == "" {
		return Value{}
	}
	if i, err := strconv.ParseInt(text, 10, 64); err == nil {
		return Value{kind: KindInt, raw: text, i: i}
	}
	if f, err := strconv.ParseFloat(text, 64); err == nil {
		return Value{kind: KindFloat, raw: text, f: f}
	}
	switch text {
	case "true", "false":
		return Value{kind: KindBoolean, raw: text, b: text == "true"}
	}
	return Value{kind: KindString, raw: text}
}

// ParseValueAs parses text with an explicitly declared XML type. Unknown
// declared types fall back to inference.
func ParseValueAs(text, xsdType string) Value {
	switch xsdType {
	case "xsd:string":
		return Value{kind: KindString, raw: text}
	case "xsd:int", "xsd:integer", "xsd:long", "xsd:nonNegativeInteger", "xsd:positiveInteger":
		if i, err := strconv.ParseInt(text, 10, 64); err == nil {
			return Value{kind: KindInt, raw: text, i: i}
		}
	case "xsd:float", "xsd:double", "xsd:decimal":
		if f, err := strconv.ParseFloat(text, 64); err == nil {
			return Value{kind: KindFloat, raw: text, f: f}
		}
	case "xsd:boolean":
		if b, err := strconv.ParseBool(text); err == nil {
			return Value{kind: KindBoolean, raw: text, b: b}
		}
	}
	return ParseValue(text)
}

// Int wraps an integer.
func Int(i int64) Value {
	return Value{kind: KindInt, raw: strconv.FormatInt(i, 10), i: i}
}

// Float wraps a float.
func Float(f float64) Value {
	return Value{kind: KindFloat, raw: strconv.FormatFloat(f, 'g', -1, 64), f: f}
}

// Boolean wraps a bool.
func Boolean(b bool) Value {
	return Value{kind: KindBoolean, raw: strconv.FormatBool(b), b: b}
}

// Str wraps a plain string.
func Str(s string) Value {
	if s == "" {
		return Value{}
	}
	return Value{kind: KindString, raw: s}
}

// Buffer wraps raw bytes.
func Buffer(p []byte) Value {
	return Value{kind: KindBuffer, buf: p}
}

// Kind returns the tagged discriminant.
func (v Value) Kind() ValueKind { return v.kind }

// IsEmpty reports whether the value carries no payload.
func (v Value) IsEmpty() bool { return v.kind == KindEmpty }

// String returns the original text form.
func (v Value) String() string { return v.raw }

// Int64 returns an integer, coercing a lossless float when possible.
func (v Value) Int64() (int64, error) {
	switch v.kind {
	case KindInt:
		return v.i, nil
	case KindFloat:
		if v.f == float64(int64(v.f)) {
			return int64(v.f), nil
		}
	}
	return 0, ErrInvalidCoercion
}

// Float64 returns a float, widening an integer when needed.
func (v Value) Float64() (float64, error) {
	switch v.kind {
	case KindFloat:
		return v.f, nil
	case KindInt:
		return float64(v.i), nil
	}
	return 0, ErrInvalidCoercion
}

// Bool returns a boolean.
func (v Value) Bool() (bool, error) {
	if v.kind == KindBoolean {
		return v.b, nil
	}
	return false, ErrInvalidCoercion
}

// Bytes returns the raw buffer for buffer-kinded values, otherwise the text
// bytes.
func (v Value) Bytes() []byte {
	if v.kind == KindBuffer {
		return v.buf
	}
	return []byte(v.raw)
}
