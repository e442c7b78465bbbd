package vm

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

type Value interface {
	isValue()
	AsBool() bool
	String() string
}

// DecimalValue is the only numeric kind. Arithmetic is exact decimal
// arithmetic, never binary floating point.
type DecimalValue struct {
	decimal.Decimal
}

func (DecimalValue) isValue() {}

// String keeps the scale of the value, so 1.50 prints as 1.50.
func (d DecimalValue) String() string {
	if exp := d.Exponent(); exp < 0 {
		return d.StringFixed(-exp)
	}
	return d.Decimal.String()
}

// Quotient divides a by b rounding to places, then drops trailing zeros
// down to the scale of a less the scale of b (never below zero).
func Quotient(a, b DecimalValue, places int32) DecimalValue {
	q := a.DivRound(b.Decimal, places)
	ideal := max(-a.Exponent()-(-b.Exponent()), 0)
	trimmed := decimal.RequireFromString(q.String())
	if -trimmed.Exponent() < ideal {
		trimmed = decimal.RequireFromString(q.StringFixed(ideal))
	}
	return DecimalValue{trimmed}
}

func (d DecimalValue) AsBool() bool {
	return !d.IsZero()
}

func Dec(i int64) DecimalValue {
	return DecimalValue{decimal.NewFromInt(i)}
}

func ParseDecimal(s string) (DecimalValue, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return DecimalValue{}, fmt.Errorf("invalid number %q", s)
	}
	return DecimalValue{d}, nil
}

type BoolValue bool

func (BoolValue) isValue() {}

var (
	BoolTrue  = BoolValue(true)
	BoolFalse = BoolValue(false)
)

func (b BoolValue) AsBool() bool {
	return bool(b)
}

func (b BoolValue) String() string {
	if b {
		return "true"
	}
	return "false"
}

type StrValue string

func (StrValue) isValue() {}
func (s StrValue) AsBool() bool {
	return s != ""
}

func (s StrValue) String() string {
	return string(s)
}

// ArrayValue is a script list. It is shared by reference, so methods like
// Add are visible to every holder.
type ArrayValue struct {
	Elems []Value
}

func NewArray(elems ...Value) *ArrayValue {
	return &ArrayValue{Elems: elems}
}

func (*ArrayValue) isValue() {}
func (a *ArrayValue) AsBool() bool {
	return len(a.Elems) > 0
}

func (a *ArrayValue) String() string {
	parts := make([]string, len(a.Elems))
	for i, e := range a.Elems {
		parts[i] = e.String()
	}
	return "{" + strings.Join(parts, ", ") + "}"
}

type NoneValue struct{}

func (NoneValue) isValue()       {}
func (NoneValue) AsBool() bool   { return false }
func (NoneValue) String() string { return "" }

var None = NoneValue{}

// ObjectValue is an opaque handle to a host object. Class names the entry
// in the class registry used for method dispatch.
type ObjectValue struct {
	Class    string
	Instance any
}

func (*ObjectValue) isValue()     {}
func (*ObjectValue) AsBool() bool { return true }

func (o *ObjectValue) String() string {
	if s, ok := o.Instance.(fmt.Stringer); ok {
		return s.String()
	}
	return "<" + o.Class + ">"
}

// TypeName returns the name used for method dispatch and diagnostics.
func TypeName(v Value) string {
	switch v := v.(type) {
	case DecimalValue:
		return "number"
	case BoolValue:
		return "bool"
	case StrValue:
		return "string"
	case *ArrayValue:
		return "list"
	case NoneValue:
		return "none"
	case *ObjectValue:
		return v.Class
	case *FutureValue:
		return "future"
	default:
		return fmt.Sprintf("%T", v)
	}
}

// Equal is the generic equality used by `=` and `!=` when the operands are
// not both numbers.
func Equal(a, b Value) bool {
	switch a := a.(type) {
	case DecimalValue:
		b, ok := b.(DecimalValue)
		return ok && a.Equal(b.Decimal)
	case BoolValue:
		b, ok := b.(BoolValue)
		return ok && a == b
	case StrValue:
		b, ok := b.(StrValue)
		return ok && a == b
	case NoneValue:
		_, ok := b.(NoneValue)
		return ok
	case *ArrayValue:
		b, ok := b.(*ArrayValue)
		if !ok || len(a.Elems) != len(b.Elems) {
			return false
		}
		for i := range a.Elems {
			if !Equal(a.Elems[i], b.Elems[i]) {
				return false
			}
		}
		return true
	case *ObjectValue:
		b, ok := b.(*ObjectValue)
		return ok && a == b
	case *FutureValue:
		b, ok := b.(*FutureValue)
		return ok && a == b
	}
	return false
}

// FromGo converts a plain Go value returned by host code into a Value.
// Integers and floats become decimals.
func FromGo(v any) Value {
	switch v := v.(type) {
	case nil:
		return None
	case Value:
		return v
	case bool:
		return BoolValue(v)
	case string:
		return StrValue(v)
	case int:
		return Dec(int64(v))
	case int32:
		return Dec(int64(v))
	case int64:
		return Dec(v)
	case float32:
		return DecimalValue{decimal.NewFromFloat32(v)}
	case float64:
		return DecimalValue{decimal.NewFromFloat(v)}
	case decimal.Decimal:
		return DecimalValue{v}
	case []Value:
		return NewArray(v...)
	case []any:
		out := make([]Value, len(v))
		for i, e := range v {
			out[i] = FromGo(e)
		}
		return NewArray(out...)
	default:
		return &ObjectValue{Class: fmt.Sprintf("%T", v), Instance: v}
	}
}
