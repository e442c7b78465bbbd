// Package starext loads host extensions written in Starlark. Every
// top-level callable in a loaded file becomes a host function scripts can
// call by name.
package starext

import (
	"context"
	"fmt"
	"os"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"github.com/timewinder-dev/sol/vm"
	"go.starlark.net/starlark"
	"go.starlark.net/syntax"
)

// Registrar accepts host functions. vm.Natives implements it.
type Registrar interface {
	RegisterHost(name string, nat vm.Native)
}

// LoadFile reads and loads a Starlark extension file.
func LoadFile(reg Registrar, path string) ([]string, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Load(reg, path, src)
}

// Load executes src and registers its top-level callables. It returns the
// registered names in sorted order.
func Load(reg Registrar, filename string, src []byte) ([]string, error) {
	thread := newThread(filename)
	opts := syntax.FileOptions{}
	globals, err := starlark.ExecFileOptions(&opts, thread, filename, src, nil)
	if err != nil {
		return nil, fmt.Errorf("loading extension %s: %w", filename, err)
	}
	var names []string
	for _, name := range globals.Keys() {
		fn, ok := globals[name].(starlark.Callable)
		if !ok {
			continue
		}
		reg.RegisterHost(name, vm.Native{Variadic: true, Fn: bind(filename, fn)})
		names = append(names, name)
	}
	log.Debug().Str("file", filename).Strs("functions", names).Msg("loaded extension")
	return names, nil
}

func newThread(name string) *starlark.Thread {
	return &starlark.Thread{
		Name: name,
		Print: func(t *starlark.Thread, msg string) {
			log.Info().Str("ext", t.Name).Msg(msg)
		},
	}
}

func bind(filename string, fn starlark.Callable) func(context.Context, []vm.Value) (vm.Value, error) {
	return func(ctx context.Context, args []vm.Value) (vm.Value, error) {
		tuple := make(starlark.Tuple, len(args))
		for i, a := range args {
			v, err := ToStarlark(a)
			if err != nil {
				return nil, fmt.Errorf("%s: argument %d: %w", fn.Name(), i+1, err)
			}
			tuple[i] = v
		}
		thread := newThread(filename)
		stop := context.AfterFunc(ctx, func() { thread.Cancel(ctx.Err().Error()) })
		defer stop()
		out, err := starlark.Call(thread, fn, tuple, nil)
		if err != nil {
			return nil, err
		}
		return FromStarlark(out)
	}
}

// ToStarlark converts a script value. Integral decimals become Starlark
// ints, other decimals floats.
func ToStarlark(v vm.Value) (starlark.Value, error) {
	switch v := v.(type) {
	case vm.NoneValue:
		return starlark.None, nil
	case vm.BoolValue:
		return starlark.Bool(v), nil
	case vm.StrValue:
		return starlark.String(v), nil
	case vm.DecimalValue:
		if v.IsInteger() {
			return starlark.MakeBigInt(v.BigInt()), nil
		}
		return starlark.Float(v.InexactFloat64()), nil
	case *vm.ArrayValue:
		return toList(v.Elems)
	case *vm.ObjectValue:
		if l, ok := v.Instance.(*vm.List); ok {
			return toList(l.Items)
		}
	}
	return nil, fmt.Errorf("cannot pass %s to starlark", vm.TypeName(v))
}

func toList(elems []vm.Value) (starlark.Value, error) {
	out := make([]starlark.Value, len(elems))
	for i, e := range elems {
		v, err := ToStarlark(e)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return starlark.NewList(out), nil
}

// FromStarlark converts a Starlark result back into a script value.
func FromStarlark(v starlark.Value) (vm.Value, error) {
	switch v := v.(type) {
	case starlark.NoneType:
		return vm.None, nil
	case starlark.Bool:
		return vm.BoolValue(v), nil
	case starlark.String:
		return vm.StrValue(v), nil
	case starlark.Int:
		return vm.DecimalValue{Decimal: decimal.NewFromBigInt(v.BigInt(), 0)}, nil
	case starlark.Float:
		return vm.DecimalValue{Decimal: decimal.NewFromFloat(float64(v))}, nil
	case starlark.Indexable:
		elems := make([]vm.Value, v.Len())
		for i := range elems {
			e, err := FromStarlark(v.Index(i))
			if err != nil {
				return nil, err
			}
			elems[i] = e
		}
		return vm.NewArray(elems...), nil
	}
	return nil, fmt.Errorf("cannot convert starlark %s", v.Type())
}
