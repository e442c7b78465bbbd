package vm

import (
	"context"
	"fmt"
	"iter"
	"slices"
	"strings"
	"time"
)

// Constructor is one overload of a class constructor.
type Constructor struct {
	Params []Kind
	New    func(ctx context.Context, args []Value) (any, error)
}

// Class describes a host type scripts can instantiate with `new`.
type Class struct {
	Name         string
	Constructors []Constructor
	Methods      MethodTable
}

// Iterable is implemented by host instances that `foreach` can walk.
type Iterable interface {
	All() iter.Seq[Value]
}

func defaultClasses() []*Class {
	return []*Class{listClass(), stringBuilderClass(), stopwatchClass()}
}

// List is the host-side growable collection.
type List struct {
	Items []Value
}

func (l *List) All() iter.Seq[Value] {
	return slices.Values(l.Items)
}

func (l *List) Len() int {
	return len(l.Items)
}

func (l *List) String() string {
	return NewArray(l.Items...).String()
}

func (l *List) index(v Value) (int, error) {
	i, err := AsInt(v)
	if err != nil {
		return 0, err
	}
	if i < 0 || i >= len(l.Items) {
		return 0, fmt.Errorf("index %d out of range for length %d", i, len(l.Items))
	}
	return i, nil
}

func listClass() *Class {
	self := func(s any) *List { return s.(*List) }
	return &Class{
		Name: "List",
		Constructors: []Constructor{
			{New: func(context.Context, []Value) (any, error) { return &List{}, nil }},
			{Params: []Kind{Any}, New: func(_ context.Context, args []Value) (any, error) {
				arr, ok := args[0].(*ArrayValue)
				if !ok {
					return nil, fmt.Errorf("%w %s to list", ErrCoerce, TypeName(args[0]))
				}
				return &List{Items: slices.Clone(arr.Elems)}, nil
			}},
		},
		Methods: MethodTable{
			"Add": {{Params: []Kind{Any}, Fn: func(_ context.Context, s any, args []Value) (Value, error) {
				l := self(s)
				l.Items = append(l.Items, args[0])
				return None, nil
			}}},
			"Get": {{Params: []Kind{Int}, Fn: func(_ context.Context, s any, args []Value) (Value, error) {
				l := self(s)
				i, err := l.index(args[0])
				if err != nil {
					return nil, err
				}
				return l.Items[i], nil
			}}},
			"Set": {{Params: []Kind{Int, Any}, Fn: func(_ context.Context, s any, args []Value) (Value, error) {
				l := self(s)
				i, err := l.index(args[0])
				if err != nil {
					return nil, err
				}
				l.Items[i] = args[1]
				return None, nil
			}}},
			"Remove": {{Params: []Kind{Int}, Fn: func(_ context.Context, s any, args []Value) (Value, error) {
				l := self(s)
				i, err := l.index(args[0])
				if err != nil {
					return nil, err
				}
				v := l.Items[i]
				l.Items = slices.Delete(l.Items, i, i+1)
				return v, nil
			}}},
			"Contains": {{Params: []Kind{Any}, Fn: func(_ context.Context, s any, args []Value) (Value, error) {
				return BoolValue(slices.ContainsFunc(self(s).Items, func(v Value) bool { return Equal(v, args[0]) })), nil
			}}},
			"Count": {{Fn: func(_ context.Context, s any, _ []Value) (Value, error) {
				return Dec(int64(self(s).Len())), nil
			}}},
		},
	}
}

func stringBuilderClass() *Class {
	self := func(s any) *strings.Builder { return s.(*strings.Builder) }
	return &Class{
		Name: "StringBuilder",
		Constructors: []Constructor{
			{New: func(context.Context, []Value) (any, error) { return &strings.Builder{}, nil }},
			{Params: []Kind{String}, New: func(_ context.Context, args []Value) (any, error) {
				b := &strings.Builder{}
				b.WriteString(args[0].String())
				return b, nil
			}},
		},
		Methods: MethodTable{
			"Append": {{Params: []Kind{String}, Fn: func(_ context.Context, s any, args []Value) (Value, error) {
				self(s).WriteString(args[0].String())
				return None, nil
			}}},
			"Length": {{Fn: func(_ context.Context, s any, _ []Value) (Value, error) {
				return Dec(int64(self(s).Len())), nil
			}}},
			"ToString": {{Fn: func(_ context.Context, s any, _ []Value) (Value, error) {
				return StrValue(self(s).String()), nil
			}}},
		},
	}
}

// Stopwatch measures elapsed wall time for scripts.
type Stopwatch struct {
	started time.Time
	elapsed time.Duration
	running bool
}

func (s *Stopwatch) Start() {
	if !s.running {
		s.started = time.Now()
		s.running = true
	}
}

func (s *Stopwatch) Stop() {
	if s.running {
		s.elapsed += time.Since(s.started)
		s.running = false
	}
}

func (s *Stopwatch) Elapsed() time.Duration {
	if s.running {
		return s.elapsed + time.Since(s.started)
	}
	return s.elapsed
}

func stopwatchClass() *Class {
	self := func(s any) *Stopwatch { return s.(*Stopwatch) }
	return &Class{
		Name: "Stopwatch",
		Constructors: []Constructor{
			{New: func(context.Context, []Value) (any, error) { return &Stopwatch{}, nil }},
		},
		Methods: MethodTable{
			"Start": {{Fn: func(_ context.Context, s any, _ []Value) (Value, error) {
				self(s).Start()
				return None, nil
			}}},
			"Stop": {{Fn: func(_ context.Context, s any, _ []Value) (Value, error) {
				self(s).Stop()
				return None, nil
			}}},
			"Reset": {{Fn: func(_ context.Context, s any, _ []Value) (Value, error) {
				*self(s) = Stopwatch{}
				return None, nil
			}}},
			"ElapsedMilliseconds": {{Fn: func(_ context.Context, s any, _ []Value) (Value, error) {
				return Dec(self(s).Elapsed().Milliseconds()), nil
			}}},
		},
	}
}
