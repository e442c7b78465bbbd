package vm

import (
	"context"
	"fmt"
	"time"
	"unicode/utf8"
)

// Native is a host function callable from script code. Arguments are
// coerced to Params before Fn sees them. Variadic natives receive the
// arguments unchanged.
type Native struct {
	Params   []Kind
	Variadic bool
	Fn       func(ctx context.Context, args []Value) (Value, error)
}

func (n Native) call(ctx context.Context, args []Value) (Value, error) {
	if !n.Variadic {
		if len(args) != len(n.Params) {
			return nil, fmt.Errorf("expects %d arguments, got %d", len(n.Params), len(args))
		}
		var err error
		args, err = CoerceArgs(n.Params, args)
		if err != nil {
			return nil, err
		}
	}
	v, err := n.Fn(ctx, args)
	if err != nil {
		return nil, err
	}
	if v == nil {
		return None, nil
	}
	return v, nil
}

// Mangle builds the lookup key for a function with the given arity.
func Mangle(name string, arity int) string {
	return fmt.Sprintf("%s/%d", name, arity)
}

// defaultBuiltins are looked up before user functions, keyed by mangled
// name.
func defaultBuiltins() map[string]Native {
	return map[string]Native{
		Mangle("Delay", 1): {Params: []Kind{Int}, Fn: builtinDelay},
		Mangle("Len", 1):   {Params: []Kind{Any}, Fn: builtinLen},
		Mangle("Str", 1):   {Params: []Kind{String}, Fn: identity},
		Mangle("Num", 1):   {Params: []Kind{Number}, Fn: identity},
	}
}

// builtinDelay returns a future that resolves after the given number of
// milliseconds.
func builtinDelay(ctx context.Context, args []Value) (Value, error) {
	ms, err := AsInt(args[0])
	if err != nil {
		return nil, err
	}
	if ms < 0 {
		return nil, fmt.Errorf("Delay() needs a non-negative duration, got %d", ms)
	}
	return After(ctx, time.Duration(ms)*time.Millisecond), nil
}

type lengther interface {
	Len() int
}

func builtinLen(_ context.Context, args []Value) (Value, error) {
	switch v := args[0].(type) {
	case StrValue:
		return Dec(int64(utf8.RuneCountInString(string(v)))), nil
	case *ArrayValue:
		return Dec(int64(len(v.Elems))), nil
	case *ObjectValue:
		if l, ok := v.Instance.(lengther); ok {
			return Dec(int64(l.Len())), nil
		}
	}
	return nil, fmt.Errorf("Len() of unsized %s", TypeName(args[0]))
}

func identity(_ context.Context, args []Value) (Value, error) {
	return args[0], nil
}
