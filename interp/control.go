package interp

import (
	"context"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/timewinder-dev/sol/cas"
	"github.com/timewinder-dev/sol/lexer"
)

// braceBody extracts the `{ ... }` body at the cursor and interns it as a
// region.
func (f *Frame) braceBody() (cas.Hash, error) {
	if err := f.skipNewlines(); err != nil {
		return 0, err
	}
	if f.cur.Kind != lexer.LBrace {
		return 0, f.errorf("expected { but found %s", f.cur)
	}
	return f.readBody(true)
}

// body is braceBody, or a single statement running to the end of the line.
func (f *Frame) body() (cas.Hash, error) {
	if err := f.skipNewlines(); err != nil {
		return 0, err
	}
	return f.readBody(f.cur.Kind == lexer.LBrace)
}

func (f *Frame) readBody(hasBrace bool) (cas.Hash, error) {
	text, line, err := f.lex.ReadBody(f.cur, hasBrace)
	if err != nil {
		return 0, err
	}
	h, err := f.rt.intern(f.file, line, text)
	if err != nil {
		return 0, err
	}
	return h, f.advance()
}

// capture returns the raw text from just after the previous token up to
// the closing paren, or the next semicolon when stopAtSemi, at paren depth
// zero. The cursor is left on that delimiter.
func (f *Frame) capture(stopAtSemi bool) (string, int, error) {
	start, line := f.prev.Pos+1, f.prev.Line
	depth := 0
	for {
		switch f.cur.Kind {
		case lexer.EOF:
			return "", line, f.errorf("expected ) but found %s", f.cur)
		case lexer.LParen:
			depth++
		case lexer.RParen:
			if depth == 0 {
				return f.lex.Slice(start, f.cur.Pos), line, nil
			}
			depth--
		case lexer.Semi:
			if stopAtSemi && depth == 0 {
				return f.lex.Slice(start, f.cur.Pos), line, nil
			}
		}
		if err := f.advance(); err != nil {
			return "", line, err
		}
	}
}

// conditionFunc wraps raw condition text in a predicate. Every call
// refreshes the condition frame's view from f, so writes made by the
// previous iteration are visible.
func (f *Frame) conditionFunc(text string, line int) (func(context.Context) (bool, error), error) {
	if strings.TrimSpace(text) == "" {
		return func(context.Context) (bool, error) { return true, nil }, nil
	}
	cond, err := f.rt.conditionFrame(f.file, line, text)
	if err != nil {
		return nil, err
	}
	return func(ctx context.Context) (bool, error) {
		f.inherit(cond)
		if err := cond.run(ctx); err != nil {
			return false, err
		}
		return cond.Result.AsBool(), nil
	}, nil
}

// stepFunc wraps the raw step clause of a for loop.
func (f *Frame) stepFunc(text string, line int) (func(context.Context) error, error) {
	if strings.TrimSpace(text) == "" {
		return func(context.Context) error { return nil }, nil
	}
	h, err := f.rt.intern(f.file, line, text)
	if err != nil {
		return nil, err
	}
	step, err := f.rt.frameFor(h)
	if err != nil {
		return nil, err
	}
	return func(ctx context.Context) error {
		f.inherit(step)
		return step.run(ctx)
	}, nil
}

// forLoop handles `for (init; cond; step) body`.
func (f *Frame) forLoop(ctx context.Context) error {
	if err := f.eat(lexer.For); err != nil {
		return err
	}
	if err := f.eat(lexer.LParen); err != nil {
		return err
	}
	switch {
	case f.cur.Kind == lexer.Semi:
		if err := f.advance(); err != nil {
			return err
		}
	case f.cur.Kind == lexer.Ident && f.lex.PeekIs('='):
		if err := f.assignment(ctx); err != nil {
			return err
		}
		if f.prev.Kind != lexer.Semi {
			return f.errorf("expected ; but found %s", f.cur)
		}
	default:
		return f.errorf("unexpected %s in for", f.cur)
	}

	condText, condLine, err := f.capture(true)
	if err != nil {
		return err
	}
	if err := f.eat(lexer.Semi); err != nil {
		return err
	}
	stepText, stepLine, err := f.capture(false)
	if err != nil {
		return err
	}
	if err := f.eat(lexer.RParen); err != nil {
		return err
	}
	region, err := f.body()
	if err != nil {
		return err
	}

	cond, err := f.conditionFunc(condText, condLine)
	if err != nil {
		return err
	}
	step, err := f.stepFunc(stepText, stepLine)
	if err != nil {
		return err
	}
	body, err := f.rt.frameFor(region)
	if err != nil {
		return err
	}
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		ok, err := cond(ctx)
		if err != nil || !ok {
			return err
		}
		f.inherit(body)
		if err := body.run(ctx); err != nil {
			return err
		}
		if f.absorb(body) {
			return nil
		}
		if err := step(ctx); err != nil {
			return err
		}
	}
}

// whileLoop handles `while (cond) body`.
func (f *Frame) whileLoop(ctx context.Context) error {
	if err := f.eat(lexer.While); err != nil {
		return err
	}
	if err := f.eat(lexer.LParen); err != nil {
		return err
	}
	condText, condLine, err := f.capture(false)
	if err != nil {
		return err
	}
	if err := f.eat(lexer.RParen); err != nil {
		return err
	}
	region, err := f.body()
	if err != nil {
		return err
	}

	cond, err := f.conditionFunc(condText, condLine)
	if err != nil {
		return err
	}
	body, err := f.rt.frameFor(region)
	if err != nil {
		return err
	}
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		ok, err := cond(ctx)
		if err != nil || !ok {
			return err
		}
		f.inherit(body)
		if err := body.run(ctx); err != nil {
			return err
		}
		if f.absorb(body) {
			return nil
		}
	}
}

// foreachLoop handles `foreach (id in expr) body`.
func (f *Frame) foreachLoop(ctx context.Context) error {
	if err := f.eat(lexer.Foreach); err != nil {
		return err
	}
	if err := f.eat(lexer.LParen); err != nil {
		return err
	}
	name := f.cur.Text
	if err := f.eat(lexer.Ident); err != nil {
		return err
	}
	if err := f.eat(lexer.In); err != nil {
		return err
	}
	v, err := f.value(ctx)
	if err != nil {
		return err
	}
	if err := f.eat(lexer.RParen); err != nil {
		return err
	}
	region, err := f.body()
	if err != nil {
		return err
	}

	it, err := NewIterator(v)
	if err != nil {
		return f.errorf("%s", err)
	}
	defer it.Close()
	body, err := f.rt.frameFor(region)
	if err != nil {
		return err
	}
	for it.Next() {
		if err := ctx.Err(); err != nil {
			return err
		}
		body.setLocal(name, it.Value())
		f.inherit(body)
		if err := body.run(ctx); err != nil {
			return err
		}
		if f.absorb(body) {
			return nil
		}
	}
	return nil
}

// ifStatement handles `if (cond) body [else if ... | else body]`. When run
// is false the whole chain is consumed without evaluating anything.
func (f *Frame) ifStatement(ctx context.Context, run bool) error {
	if err := f.eat(lexer.If); err != nil {
		return err
	}
	if err := f.eat(lexer.LParen); err != nil {
		return err
	}
	taken := false
	if run {
		v, err := f.relation(ctx, true)
		if err != nil {
			return err
		}
		taken = v.AsBool()
	} else if _, _, err := f.capture(false); err != nil {
		return err
	}
	if err := f.eat(lexer.RParen); err != nil {
		return err
	}
	if err := f.branch(ctx, taken); err != nil {
		return err
	}

	if err := f.skipNewlines(); err != nil {
		return err
	}
	if f.cur.Kind != lexer.Else {
		return nil
	}
	if err := f.advance(); err != nil {
		return err
	}
	if err := f.skipNewlines(); err != nil {
		return err
	}
	if f.cur.Kind == lexer.If {
		return f.ifStatement(ctx, run && !taken)
	}
	return f.branch(ctx, run && !taken)
}

// branch reads one if/else body and runs it when taken.
func (f *Frame) branch(ctx context.Context, taken bool) error {
	region, err := f.body()
	if err != nil || !taken {
		return err
	}
	body, err := f.rt.frameFor(region)
	if err != nil {
		return err
	}
	f.inherit(body)
	if err := body.run(ctx); err != nil {
		return err
	}
	if body.returned {
		f.Result, f.returned = body.Result, true
	}
	if body.Break {
		f.Break = true
	}
	return nil
}

// absorb folds a finished loop body into f and reports whether the loop
// must stop.
func (f *Frame) absorb(body *Frame) bool {
	switch {
	case body.returned:
		log.Trace().Str("region", body.region.String()).Msg("return out of loop")
		f.Result, f.returned = body.Result, true
		return true
	case body.Break:
		return true
	}
	return false
}
