package interp

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/timewinder-dev/sol/lexer"
	"github.com/timewinder-dev/sol/vm"
)

// run executes the frame from the top of its region. Locals survive
// between runs; the cursor, Result and the break/return flags do not.
func (f *Frame) run(ctx context.Context) error {
	f.running = true
	defer func() { f.running = false }()
	f.state = Running
	f.Result = vm.None
	f.Break = false
	f.returned = false
	f.lex.Reset()
	if err := f.advance(); err != nil {
		return f.fail(err)
	}
	if err := f.runImports(ctx); err != nil {
		return f.fail(err)
	}
	for f.cur.Kind != lexer.EOF {
		if err := ctx.Err(); err != nil {
			f.state = Faulted
			return err
		}
		if err := f.statement(ctx); err != nil {
			return f.fail(err)
		}
		if f.Break || f.returned {
			break
		}
	}
	switch {
	case f.returned:
		f.state = Returned
	case f.Break:
		f.state = Broken
	default:
		f.state = Completed
	}
	return nil
}

// runImports executes each imported frame once, before the first
// statement of the importing frame.
func (f *Frame) runImports(ctx context.Context) error {
	if f.importsDone {
		return nil
	}
	f.importsDone = true
	for _, im := range f.imports {
		log.Debug().Str("file", im.file).Str("importer", f.file).Msg("running import")
		if err := im.run(ctx); err != nil {
			return err
		}
	}
	return nil
}

func (f *Frame) fail(err error) error {
	f.state = Faulted
	return f.fault(err)
}

// fault converts any error into a SyntaxError at the current token, unless
// it already is one.
func (f *Frame) fault(err error) error {
	var se *lexer.SyntaxError
	if errors.As(err, &se) || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return &lexer.SyntaxError{File: f.file, Line: f.cur.Line, Msg: err.Error(), Err: err}
}

func (f *Frame) errorf(format string, args ...any) error {
	return &lexer.SyntaxError{File: f.file, Line: f.cur.Line, Msg: fmt.Sprintf(format, args...)}
}

func (f *Frame) advance() error {
	t, err := f.lex.Next()
	if err != nil {
		return err
	}
	f.prev, f.cur = f.cur, t
	return nil
}

func (f *Frame) skipNewlines() error {
	for f.cur.Kind == lexer.Newline {
		if err := f.advance(); err != nil {
			return err
		}
	}
	return nil
}

// eat consumes a token of the given kind, skipping newlines first unless a
// newline is what is expected.
func (f *Frame) eat(k lexer.Kind) error {
	if k != lexer.Newline {
		if err := f.skipNewlines(); err != nil {
			return err
		}
	}
	if f.cur.Kind != k {
		return f.errorf("expected %s but found %s", k, f.cur)
	}
	return f.advance()
}

// endStatement accepts a semicolon, or a newline, comment or end of input
// left for the statement loop.
func (f *Frame) endStatement() error {
	switch f.cur.Kind {
	case lexer.Semi:
		return f.advance()
	case lexer.Newline, lexer.EOF, lexer.DoubleSlash, lexer.LBlockComment:
		return nil
	}
	return f.errorf("expected ; but found %s", f.cur)
}

func (f *Frame) statement(ctx context.Context) error {
	log.Trace().Str("file", f.file).Int("line", f.cur.Line).Stringer("token", f.cur).Msg("statement")
	switch f.cur.Kind {
	case lexer.Ident:
		switch {
		case f.lex.PeekIs('='):
			return f.assignment(ctx)
		case f.lex.PeekIs('('):
			if _, err := f.call(ctx); err != nil {
				return err
			}
			return f.endStatement()
		case f.lex.PeekIs('.'):
			if _, err := f.memberCall(ctx); err != nil {
				return err
			}
			return f.endStatement()
		case f.lex.PeekIs('+'), f.lex.PeekIs('-'):
			if err := f.incDec(); err != nil {
				return err
			}
			return f.endStatement()
		}
		return f.errorf("unexpected identifier %s", f.cur.Text)
	case lexer.Function, lexer.Async:
		return f.defineFunction()
	case lexer.Return:
		return f.returnStatement(ctx)
	case lexer.For:
		return f.forLoop(ctx)
	case lexer.While:
		return f.whileLoop(ctx)
	case lexer.Foreach:
		return f.foreachLoop(ctx)
	case lexer.If:
		return f.ifStatement(ctx, true)
	case lexer.Await:
		if _, err := f.await(ctx); err != nil {
			return err
		}
		return f.endStatement()
	case lexer.Break:
		if err := f.advance(); err != nil {
			return err
		}
		f.Break = true
		return f.endStatement()
	case lexer.Condition:
		if err := f.advance(); err != nil {
			return err
		}
		v, err := f.relation(ctx, true)
		if err != nil {
			return err
		}
		f.Result = v
		return nil
	case lexer.DoubleSlash, lexer.Import:
		f.lex.SkipLine()
		return f.advance()
	case lexer.LBlockComment:
		f.lex.SkipBlockComment()
		return f.advance()
	case lexer.Semi, lexer.Newline:
		return f.advance()
	}
	return f.errorf("unexpected %s", f.cur)
}

func (f *Frame) assignment(ctx context.Context) error {
	name := f.cur.Text
	if err := f.eat(lexer.Ident); err != nil {
		return err
	}
	if err := f.eat(lexer.Assign); err != nil {
		return err
	}
	v, err := f.value(ctx)
	if err != nil {
		return err
	}
	f.assign(name, v)
	log.Trace().Str("variable", name).Stringer("value", v).Msg("  ASSIGN")
	return f.endStatement()
}

// incDec handles `id++` and `id--`.
func (f *Frame) incDec() error {
	name := f.cur.Text
	if err := f.eat(lexer.Ident); err != nil {
		return err
	}
	op := f.cur.Kind
	if err := f.eat(op); err != nil {
		return err
	}
	if err := f.eat(op); err != nil {
		return err
	}
	cur := f.lookupVar(name)
	if c, ok := f.globalVars[name]; ok {
		cur = c.v
	}
	d, ok := cur.(vm.DecimalValue)
	if !ok {
		return f.errorf("cannot apply %s%s to %s", op, op, vm.TypeName(cur))
	}
	if op == lexer.Plus {
		f.assign(name, vm.DecimalValue{Decimal: d.Add(vm.Dec(1).Decimal)})
	} else {
		f.assign(name, vm.DecimalValue{Decimal: d.Sub(vm.Dec(1).Decimal)})
	}
	return nil
}

func (f *Frame) returnStatement(ctx context.Context) error {
	if err := f.advance(); err != nil {
		return err
	}
	v := vm.Value(vm.None)
	switch f.cur.Kind {
	case lexer.Semi, lexer.Newline, lexer.EOF:
	default:
		var err error
		if v, err = f.value(ctx); err != nil {
			return err
		}
	}
	f.Result = v
	f.returned = true
	return f.endStatement()
}

func (f *Frame) defineFunction() error {
	async := false
	if f.cur.Kind == lexer.Async {
		async = true
		if err := f.advance(); err != nil {
			return err
		}
	}
	site := fmt.Sprintf("%s@%d", f.region, f.cur.Pos)
	if err := f.eat(lexer.Function); err != nil {
		return err
	}
	name := f.cur.Text
	if err := f.eat(lexer.Ident); err != nil {
		return err
	}
	if err := f.eat(lexer.LParen); err != nil {
		return err
	}
	var params []string
	for f.cur.Kind != lexer.RParen {
		if f.cur.Kind == lexer.Comma {
			if err := f.advance(); err != nil {
				return err
			}
			continue
		}
		params = append(params, f.cur.Text)
		if err := f.eat(lexer.Ident); err != nil {
			return err
		}
	}
	if err := f.eat(lexer.RParen); err != nil {
		return err
	}

	key := vm.Mangle(name, len(params))
	if old, ok := f.funcs[key]; ok && old.site != site {
		return f.errorf("duplicated function %s", key)
	}
	region, err := f.braceBody()
	if err != nil {
		return err
	}
	fn, err := f.rt.frameFor(region)
	if err != nil {
		return err
	}
	fn.name, fn.params, fn.async, fn.site = name, params, async, site
	f.funcs[key] = fn
	log.Debug().Str("function", key).Bool("async", async).Str("region", fn.region.String()).Msg("defined function")
	return nil
}
