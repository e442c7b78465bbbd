package interp

import (
	"context"

	"github.com/rs/zerolog/log"
	"github.com/timewinder-dev/sol/lexer"
	"github.com/timewinder-dev/sol/vm"
)

// divisionPlaces matches the scale of a 128-bit decimal quotient.
const divisionPlaces = 28

// value parses a full expression, comparisons included.
func (f *Frame) value(ctx context.Context) (vm.Value, error) {
	return f.relation(ctx, false)
}

// relation parses `expr [op-set expr]`. The operator tokens = ! < > may
// appear in any order and combine as a bit-set. In a bare condition with no
// operator before the closing paren or end of input, the result is whether
// the value equals true.
func (f *Frame) relation(ctx context.Context, bare bool) (vm.Value, error) {
	l, err := f.expr(ctx)
	if err != nil {
		return nil, err
	}
	var op compOp
loop:
	for {
		switch f.cur.Kind {
		case lexer.Assign:
			op |= opEqual
		case lexer.Not:
			op |= opNot
		case lexer.LessThan:
			op |= opLess
		case lexer.GreaterThan:
			op |= opGreater
		default:
			break loop
		}
		if err := f.advance(); err != nil {
			return nil, err
		}
	}
	if op == 0 {
		if !bare {
			return l, nil
		}
		if f.cur.Kind == lexer.RParen || f.cur.Kind == lexer.EOF {
			return vm.BoolValue(vm.Equal(l, vm.BoolTrue)), nil
		}
		return nil, f.errorf("expected comparison operator but found %s", f.cur)
	}
	r, err := f.expr(ctx)
	if err != nil {
		return nil, err
	}
	return f.compare(op, l, r)
}

func (f *Frame) compare(op compOp, l, r vm.Value) (vm.Value, error) {
	ld, lok := l.(vm.DecimalValue)
	rd, rok := r.(vm.DecimalValue)
	if lok && rok {
		c := ld.Cmp(rd.Decimal)
		switch {
		case op.has(opEqual | opLess):
			return vm.BoolValue(c <= 0), nil
		case op.has(opEqual | opGreater):
			return vm.BoolValue(c >= 0), nil
		case op.has(opEqual | opNot):
			return vm.BoolValue(c != 0), nil
		case op.has(opEqual):
			return vm.BoolValue(c == 0), nil
		case op.has(opLess):
			return vm.BoolValue(c < 0), nil
		case op.has(opGreater):
			return vm.BoolValue(c > 0), nil
		}
		return nil, f.errorf("Not allowed operator")
	}
	switch op {
	case opEqual:
		return vm.BoolValue(vm.Equal(l, r)), nil
	case opEqual | opNot:
		return vm.BoolValue(!vm.Equal(l, r)), nil
	}
	return nil, f.errorf("Not allowed operator between %s and %s", vm.TypeName(l), vm.TypeName(r))
}

// expr parses the additive level.
func (f *Frame) expr(ctx context.Context) (vm.Value, error) {
	l, err := f.term(ctx)
	if err != nil {
		return nil, err
	}
	for f.cur.Kind == lexer.Plus || f.cur.Kind == lexer.Minus {
		op := f.cur.Kind
		if err := f.advance(); err != nil {
			return nil, err
		}
		r, err := f.term(ctx)
		if err != nil {
			return nil, err
		}
		if op == lexer.Plus {
			l = add(l, r)
			continue
		}
		ld, lok := l.(vm.DecimalValue)
		rd, rok := r.(vm.DecimalValue)
		if !lok || !rok {
			return nil, f.errorf("Invalid Minus: %s - %s", vm.TypeName(l), vm.TypeName(r))
		}
		l = vm.DecimalValue{Decimal: ld.Sub(rd.Decimal)}
	}
	return l, nil
}

// add concatenates when the left side is a string, sums two numbers, and
// concatenates the text of anything else.
func add(l, r vm.Value) vm.Value {
	if s, ok := l.(vm.StrValue); ok {
		return s + vm.StrValue(r.String())
	}
	ld, lok := l.(vm.DecimalValue)
	rd, rok := r.(vm.DecimalValue)
	if lok && rok {
		return vm.DecimalValue{Decimal: ld.Add(rd.Decimal)}
	}
	return vm.StrValue(l.String() + r.String())
}

// term parses the multiplicative level.
func (f *Frame) term(ctx context.Context) (vm.Value, error) {
	l, err := f.factor(ctx)
	if err != nil {
		return nil, err
	}
	for f.cur.Kind == lexer.Mul || f.cur.Kind == lexer.Div || f.cur.Kind == lexer.Modulo {
		op := f.cur.Kind
		if err := f.advance(); err != nil {
			return nil, err
		}
		r, err := f.factor(ctx)
		if err != nil {
			return nil, err
		}
		ld, lok := l.(vm.DecimalValue)
		rd, rok := r.(vm.DecimalValue)
		if !lok || !rok {
			return nil, f.errorf("invalid operands for %s: %s and %s", op, vm.TypeName(l), vm.TypeName(r))
		}
		switch op {
		case lexer.Mul:
			l = vm.DecimalValue{Decimal: ld.Mul(rd.Decimal)}
		case lexer.Div:
			if rd.IsZero() {
				return nil, f.errorf("division by zero")
			}
			l = vm.Quotient(ld, rd, divisionPlaces)
		case lexer.Modulo:
			if rd.IsZero() {
				return nil, f.errorf("division by zero")
			}
			l = vm.DecimalValue{Decimal: ld.Mod(rd.Decimal)}
		}
	}
	return l, nil
}

func (f *Frame) factor(ctx context.Context) (vm.Value, error) {
	switch f.cur.Kind {
	case lexer.Decimal:
		d, err := vm.ParseDecimal(f.cur.Text)
		if err != nil {
			return nil, f.errorf("%s", err)
		}
		return d, f.advance()
	case lexer.Minus:
		if err := f.advance(); err != nil {
			return nil, err
		}
		v, err := f.factor(ctx)
		if err != nil {
			return nil, err
		}
		d, ok := v.(vm.DecimalValue)
		if !ok {
			return nil, f.errorf("Invalid Minus: -%s", vm.TypeName(v))
		}
		return vm.DecimalValue{Decimal: d.Neg()}, nil
	case lexer.True:
		return vm.BoolTrue, f.advance()
	case lexer.False:
		return vm.BoolFalse, f.advance()
	case lexer.Not:
		if err := f.advance(); err != nil {
			return nil, err
		}
		v, err := f.factor(ctx)
		if err != nil {
			return nil, err
		}
		return vm.BoolValue(!v.AsBool()), nil
	case lexer.LParen:
		if err := f.advance(); err != nil {
			return nil, err
		}
		v, err := f.value(ctx)
		if err != nil {
			return nil, err
		}
		return v, f.eat(lexer.RParen)
	case lexer.Ident:
		switch {
		case f.lex.PeekIs('('):
			return f.call(ctx)
		case f.lex.PeekIs('.'):
			return f.memberCall(ctx)
		}
		name := f.cur.Text
		v := f.lookupVar(name)
		log.Trace().Str("variable", name).Stringer("value", v).Msg("  GETVAL")
		return v, f.advance()
	case lexer.Quote:
		return f.str()
	case lexer.LBrace:
		return f.array(ctx)
	case lexer.Await:
		return f.await(ctx)
	case lexer.New:
		return f.construct(ctx)
	}
	return nil, f.errorf("unexpected %s", f.cur)
}

func (f *Frame) str() (vm.Value, error) {
	if err := f.eat(lexer.Quote); err != nil {
		return nil, err
	}
	if f.cur.Kind == lexer.Quote {
		return vm.StrValue(""), f.advance()
	}
	if f.cur.Kind != lexer.Ident {
		return nil, f.errorf("unterminated string")
	}
	s := vm.StrValue(f.cur.Text)
	if err := f.advance(); err != nil {
		return nil, err
	}
	if f.cur.Kind != lexer.Quote {
		return nil, f.errorf("unterminated string")
	}
	return s, f.advance()
}

func (f *Frame) array(ctx context.Context) (vm.Value, error) {
	if err := f.eat(lexer.LBrace); err != nil {
		return nil, err
	}
	var elems []vm.Value
	for {
		if err := f.skipNewlines(); err != nil {
			return nil, err
		}
		switch f.cur.Kind {
		case lexer.RBrace:
			return vm.NewArray(elems...), f.advance()
		case lexer.Comma:
			if err := f.advance(); err != nil {
				return nil, err
			}
			continue
		}
		v, err := f.value(ctx)
		if err != nil {
			return nil, err
		}
		elems = append(elems, v)
	}
}

// await evaluates the expression after `await` and, when it is a pending
// future, suspends until it resolves.
func (f *Frame) await(ctx context.Context) (vm.Value, error) {
	if err := f.eat(lexer.Await); err != nil {
		return nil, err
	}
	v, err := f.expr(ctx)
	if err != nil {
		return nil, err
	}
	fut, ok := v.(*vm.FutureValue)
	if !ok {
		return v, nil
	}
	return f.rt.await(ctx, fut)
}
