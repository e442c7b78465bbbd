package vm

import (
	"context"
	"errors"
	"fmt"
	"io"
	"maps"
	"os"
	"slices"
	"strings"
	"sync"

	"github.com/sahilm/fuzzy"
)

var ErrNotFound = errors.New("not found")

// Bridge is everything the interpreter needs from the host.
type Bridge interface {
	IsBuiltin(mangled string) bool
	CallBuiltin(ctx context.Context, mangled string, args []Value) (Value, error)
	// CallHost reports found=false when no host extension has that name.
	CallHost(ctx context.Context, name string, args []Value) (v Value, found bool, err error)
	Construct(ctx context.Context, class string, args []Value) (Value, error)
	Invoke(ctx context.Context, recv Value, method string, args []Value) (Value, error)
}

// Natives is the registry-backed Bridge. Registration is safe while
// scripts run.
type Natives struct {
	Out io.Writer

	mu       sync.RWMutex
	builtins map[string]Native
	host     map[string]Native
	classes  map[string]*Class
	methods  map[string]MethodTable
}

var _ Bridge = (*Natives)(nil)

// NewNatives returns a bridge with the default builtins, host extensions
// and classes. Script output goes to out, or stdout when out is nil.
func NewNatives(out io.Writer) *Natives {
	if out == nil {
		out = os.Stdout
	}
	n := &Natives{
		Out:      out,
		builtins: defaultBuiltins(),
		host:     defaultHost(out),
		classes:  make(map[string]*Class),
		methods:  valueMethods(),
	}
	for _, c := range defaultClasses() {
		n.classes[c.Name] = c
	}
	return n
}

func (n *Natives) RegisterBuiltin(name string, nat Native) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.builtins[Mangle(name, len(nat.Params))] = nat
}

func (n *Natives) RegisterHost(name string, nat Native) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.host[name] = nat
}

func (n *Natives) RegisterClass(c *Class) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.classes[c.Name] = c
}

// HostNames lists the registered host extensions.
func (n *Natives) HostNames() []string {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return slices.Sorted(maps.Keys(n.host))
}

func (n *Natives) IsBuiltin(mangled string) bool {
	n.mu.RLock()
	defer n.mu.RUnlock()
	_, ok := n.builtins[mangled]
	return ok
}

func (n *Natives) CallBuiltin(ctx context.Context, mangled string, args []Value) (Value, error) {
	n.mu.RLock()
	b, ok := n.builtins[mangled]
	n.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: builtin %s", ErrNotFound, mangled)
	}
	v, err := b.call(ctx, args)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", mangled, err)
	}
	return v, nil
}

func (n *Natives) CallHost(ctx context.Context, name string, args []Value) (Value, bool, error) {
	n.mu.RLock()
	h, ok := n.host[name]
	n.mu.RUnlock()
	if !ok {
		return nil, false, nil
	}
	v, err := h.call(ctx, args)
	if err != nil {
		return nil, true, fmt.Errorf("%s: %w", name, err)
	}
	return v, true, nil
}

func (n *Natives) Construct(ctx context.Context, class string, args []Value) (Value, error) {
	n.mu.RLock()
	c, ok := n.classes[class]
	names := slices.Collect(maps.Keys(n.classes))
	n.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: class %s%s", ErrNotFound, class, Suggest(class, names))
	}
	var lastErr error
	for _, ctor := range c.Constructors {
		if len(ctor.Params) != len(args) {
			continue
		}
		bound, err := CoerceArgs(ctor.Params, args)
		if err != nil {
			lastErr = err
			continue
		}
		inst, err := ctor.New(ctx, bound)
		if err != nil {
			if errors.Is(err, ErrCoerce) {
				lastErr = err
				continue
			}
			return nil, fmt.Errorf("new %s: %w", class, err)
		}
		return &ObjectValue{Class: class, Instance: inst}, nil
	}
	if lastErr != nil {
		return nil, fmt.Errorf("new %s: %w", class, lastErr)
	}
	return nil, fmt.Errorf("%w: constructor %s with %d arguments", ErrNotFound, class, len(args))
}

func (n *Natives) Invoke(ctx context.Context, recv Value, method string, args []Value) (Value, error) {
	var (
		table MethodTable
		self  any = recv
		owner     = TypeName(recv)
	)
	n.mu.RLock()
	if obj, ok := recv.(*ObjectValue); ok {
		self = obj.Instance
		if c, ok := n.classes[obj.Class]; ok {
			table = c.Methods
		}
	} else {
		table = n.methods[owner]
	}
	n.mu.RUnlock()

	overloads, ok := table[method]
	if !ok {
		return nil, fmt.Errorf("%w: method %s.%s%s", ErrNotFound, owner, method, Suggest(method, slices.Collect(maps.Keys(table))))
	}
	var lastErr error
	for _, m := range overloads {
		if len(m.Params) != len(args) {
			continue
		}
		bound, err := CoerceArgs(m.Params, args)
		if err != nil {
			lastErr = err
			continue
		}
		v, err := m.Fn(ctx, self, bound)
		if err != nil {
			return nil, fmt.Errorf("%s.%s: %w", owner, method, err)
		}
		if v == nil {
			v = None
		}
		return v, nil
	}
	if lastErr != nil {
		return nil, fmt.Errorf("%s.%s: %w", owner, method, lastErr)
	}
	return nil, fmt.Errorf("%w: method %s.%s with %d arguments", ErrNotFound, owner, method, len(args))
}

// Suggest returns a " (did you mean X?)" hint for the closest candidate,
// or an empty string.
func Suggest(name string, candidates []string) string {
	if name == "" || len(candidates) == 0 {
		return ""
	}
	matches := fuzzy.Find(strings.ToLower(name), lower(candidates))
	if len(matches) == 0 {
		return ""
	}
	return fmt.Sprintf(" (did you mean %s?)", candidates[matches[0].Index])
}

func lower(in []string) []string {
	out := make([]string, len(in))
	for i, s := range in {
		out[i] = strings.ToLower(s)
	}
	return out
}
