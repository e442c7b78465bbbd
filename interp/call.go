package interp

import (
	"context"
	"errors"

	"github.com/rs/zerolog/log"
	"github.com/timewinder-dev/sol/lexer"
	"github.com/timewinder-dev/sol/vm"
)

// call evaluates `name(args...)`. Builtins win over user functions, which
// win over host extensions.
func (f *Frame) call(ctx context.Context) (vm.Value, error) {
	awaited := f.prev.Kind == lexer.Await
	name := f.cur.Text
	if err := f.eat(lexer.Ident); err != nil {
		return nil, err
	}
	args, err := f.args(ctx)
	if err != nil {
		return nil, err
	}
	key := vm.Mangle(name, len(args))
	log.Trace().Str("function", key).Bool("await", awaited).Msg("  CALL")

	var v vm.Value
	switch bridge := f.rt.bridge; {
	case bridge.IsBuiltin(key):
		v, err = bridge.CallBuiltin(ctx, key, args)
		if err != nil {
			return nil, f.errorf("%s: %s", name, err)
		}
	case f.lookupFunc(key) != nil:
		v, err = f.invoke(ctx, f.lookupFunc(key), args, awaited)
		if err != nil {
			return nil, err
		}
	default:
		var found bool
		v, found, err = bridge.CallHost(ctx, name, args)
		if err != nil {
			return nil, f.errorf("%s: %s", name, err)
		}
		if !found {
			return nil, f.errorf("Function not found: %s%s", name, vm.Suggest(name, f.callableNames()))
		}
	}
	return f.chain(ctx, v)
}

func (f *Frame) callableNames() []string {
	names := f.functionNames()
	if n, ok := f.rt.bridge.(interface{ HostNames() []string }); ok {
		names = append(names, n.HostNames()...)
	}
	return names
}

// invoke runs a user function with fresh locals, the caller's view and
// imports, and positional arguments bound to its parameters.
func (f *Frame) invoke(ctx context.Context, fn *Frame, args []vm.Value, awaited bool) (vm.Value, error) {
	if awaited && !fn.async {
		return nil, f.errorf("%s is not awaitable function", fn.name)
	}
	if fn.running {
		clone, err := f.rt.cloneFrame(fn)
		if err != nil {
			return nil, f.fault(err)
		}
		fn = clone
	}
	fn.resetLocals()
	f.inherit(fn)
	for i, p := range fn.params {
		if i >= len(args) {
			break
		}
		fn.setLocal(p, args[i])
	}
	if fn.async && !awaited {
		return f.rt.spawn(ctx, fn), nil
	}
	if err := fn.run(ctx); err != nil {
		return nil, err
	}
	return fn.Result, nil
}

func (f *Frame) args(ctx context.Context) ([]vm.Value, error) {
	if err := f.eat(lexer.LParen); err != nil {
		return nil, err
	}
	var out []vm.Value
	for {
		if err := f.skipNewlines(); err != nil {
			return nil, err
		}
		switch f.cur.Kind {
		case lexer.RParen:
			return out, f.advance()
		case lexer.Comma:
			if err := f.advance(); err != nil {
				return nil, err
			}
			continue
		case lexer.EOF:
			return nil, f.errorf("expected ) but found %s", f.cur)
		}
		v, err := f.value(ctx)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
}

// memberCall evaluates `id.method(args...)` and any further chained calls.
func (f *Frame) memberCall(ctx context.Context) (vm.Value, error) {
	recv := f.lookupVar(f.cur.Text)
	if err := f.eat(lexer.Ident); err != nil {
		return nil, err
	}
	return f.chain(ctx, recv)
}

func (f *Frame) chain(ctx context.Context, recv vm.Value) (vm.Value, error) {
	for f.cur.Kind == lexer.Dot {
		if err := f.advance(); err != nil {
			return nil, err
		}
		method := f.cur.Text
		if err := f.eat(lexer.Ident); err != nil {
			return nil, err
		}
		args, err := f.args(ctx)
		if err != nil {
			return nil, err
		}
		recv, err = f.rt.bridge.Invoke(ctx, recv, method, args)
		if err != nil {
			return nil, f.bridgeError(err)
		}
	}
	return recv, nil
}

// construct evaluates `new Class(args...)`.
func (f *Frame) construct(ctx context.Context) (vm.Value, error) {
	if err := f.eat(lexer.New); err != nil {
		return nil, err
	}
	class := f.cur.Text
	if err := f.eat(lexer.Ident); err != nil {
		return nil, err
	}
	args, err := f.args(ctx)
	if err != nil {
		return nil, err
	}
	obj, err := f.rt.bridge.Construct(ctx, class, args)
	if err != nil {
		return nil, f.bridgeError(err)
	}
	return f.chain(ctx, obj)
}

func (f *Frame) bridgeError(err error) error {
	if errors.Is(err, context.Canceled) {
		return err
	}
	return &lexer.SyntaxError{File: f.file, Line: f.cur.Line, Msg: err.Error(), Err: err}
}
