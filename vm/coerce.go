package vm

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/shopspring/decimal"
)

var ErrCoerce = errors.New("cannot convert")

// Kind is a parameter type used when binding script arguments to native
// functions.
type Kind int

const (
	Any Kind = iota
	Int
	Number
	Bool
	Char
	Chars
	String
)

func (k Kind) String() string {
	switch k {
	case Any:
		return "any"
	case Int:
		return "int"
	case Number:
		return "number"
	case Bool:
		return "bool"
	case Char:
		return "char"
	case Chars:
		return "char[]"
	case String:
		return "string"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

func coerceErr(k Kind, v Value) error {
	return fmt.Errorf("%w %s %q to %s", ErrCoerce, TypeName(v), v.String(), k)
}

// Coerce converts v to the requested kind. Integers round half to even.
func Coerce(k Kind, v Value) (Value, error) {
	switch k {
	case Any:
		return v, nil
	case Int:
		switch v := v.(type) {
		case DecimalValue:
			return DecimalValue{v.RoundBank(0)}, nil
		case StrValue:
			i, err := strconv.ParseInt(strings.TrimSpace(string(v)), 10, 64)
			if err != nil {
				return nil, coerceErr(k, v)
			}
			return Dec(i), nil
		case BoolValue:
			if v {
				return Dec(1), nil
			}
			return Dec(0), nil
		case NoneValue:
			return Dec(0), nil
		}
	case Number:
		switch v := v.(type) {
		case DecimalValue:
			return v, nil
		case StrValue:
			d, err := decimal.NewFromString(strings.TrimSpace(string(v)))
			if err != nil {
				return nil, coerceErr(k, v)
			}
			return DecimalValue{d}, nil
		case BoolValue:
			if v {
				return Dec(1), nil
			}
			return Dec(0), nil
		case NoneValue:
			return Dec(0), nil
		}
	case Bool:
		switch v := v.(type) {
		case BoolValue:
			return v, nil
		case DecimalValue:
			return BoolValue(!v.IsZero()), nil
		case StrValue:
			switch strings.ToLower(strings.TrimSpace(string(v))) {
			case "true":
				return BoolTrue, nil
			case "false":
				return BoolFalse, nil
			}
		case NoneValue:
			return BoolFalse, nil
		}
	case Char:
		switch v := v.(type) {
		case StrValue:
			if utf8.RuneCountInString(string(v)) == 1 {
				return v, nil
			}
		case DecimalValue:
			if v.IsInteger() && v.Sign() >= 0 && v.IntPart() <= utf8.MaxRune {
				return StrValue(rune(v.IntPart())), nil
			}
		}
	case Chars:
		c, err := Coerce(Char, v)
		if err != nil {
			return nil, err
		}
		return NewArray(c), nil
	case String:
		return StrValue(v.String()), nil
	}
	return nil, coerceErr(k, v)
}

// CoerceArgs binds args positionally to params. Extra arguments on either
// side are ignored.
func CoerceArgs(params []Kind, args []Value) ([]Value, error) {
	n := min(len(params), len(args))
	out := make([]Value, n)
	for i := 0; i < n; i++ {
		v, err := Coerce(params[i], args[i])
		if err != nil {
			return nil, fmt.Errorf("argument %d: %w", i+1, err)
		}
		out[i] = v
	}
	return out, nil
}

func AsInt(v Value) (int, error) {
	c, err := Coerce(Int, v)
	if err != nil {
		return 0, err
	}
	return int(c.(DecimalValue).IntPart()), nil
}

func AsString(v Value) string {
	return v.String()
}
