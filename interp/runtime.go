package interp

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"slices"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/timewinder-dev/sol/cas"
	"github.com/timewinder-dev/sol/lexer"
	"github.com/timewinder-dev/sol/vm"
)

// DefaultCacheSize is the number of regions kept decoded in the read cache.
const DefaultCacheSize = 1024

// Runtime owns everything frames share: the native bridge, the filesystem
// scripts and imports are read from, the region store and the execution
// token.
type Runtime struct {
	bridge vm.Bridge
	fsys   fs.FS
	store  cas.CAS
	sched  *scheduler
}

type Option func(*Runtime)

func WithBridge(b vm.Bridge) Option {
	return func(rt *Runtime) { rt.bridge = b }
}

// WithFS sets the filesystem script paths are resolved against.
func WithFS(fsys fs.FS) Option {
	return func(rt *Runtime) { rt.fsys = fsys }
}

func WithStore(c cas.CAS) Option {
	return func(rt *Runtime) { rt.store = c }
}

func NewRuntime(opts ...Option) *Runtime {
	rt := &Runtime{sched: newScheduler()}
	for _, o := range opts {
		o(rt)
	}
	if rt.bridge == nil {
		rt.bridge = vm.NewNatives(os.Stdout)
	}
	if rt.fsys == nil {
		rt.fsys = os.DirFS(".")
	}
	if rt.store == nil {
		rt.store = cas.NewLRUCache(cas.NewMemoryCAS(), DefaultCacheSize)
	}
	return rt
}

func (rt *Runtime) Store() cas.CAS {
	return rt.store
}

func (rt *Runtime) Bridge() vm.Bridge {
	return rt.bridge
}

// LoadFile builds the root frame for a script file, resolving its imports
// recursively. Import paths are relative to the importing file.
func (rt *Runtime) LoadFile(name string) (*Frame, error) {
	return rt.load(path.Clean(name), nil)
}

// Load builds a root frame over in-memory source. Imports still resolve
// against the runtime's filesystem.
func (rt *Runtime) Load(name, text string) (*Frame, error) {
	return rt.build(path.Clean(name), lexer.Normalize(text), nil)
}

func (rt *Runtime) load(name string, chain []string) (*Frame, error) {
	if slices.Contains(chain, name) {
		return nil, &lexer.SyntaxError{
			File: chain[len(chain)-1],
			Msg:  "import cycle: " + strings.Join(append(chain, name), " -> "),
		}
	}
	data, err := fs.ReadFile(rt.fsys, name)
	if err != nil {
		return nil, fmt.Errorf("loading %s: %w", name, err)
	}
	return rt.build(name, lexer.Normalize(string(data)), chain)
}

func (rt *Runtime) build(name, text string, chain []string) (*Frame, error) {
	h, err := rt.intern(name, 1, text)
	if err != nil {
		return nil, err
	}
	f, err := rt.frameFor(h)
	if err != nil {
		return nil, err
	}
	chain = append(slices.Clone(chain), name)
	for _, p := range lexer.ScanImports(text) {
		im, err := rt.load(path.Join(path.Dir(name), p), chain)
		if err != nil {
			return nil, err
		}
		log.Debug().Str("file", name).Str("import", im.file).Msg("resolved import")
		f.imports = append(f.imports, im)
	}
	return f, nil
}

func (rt *Runtime) intern(file string, line int, text string) (cas.Hash, error) {
	return rt.store.Put(&cas.Region{File: file, Line: line, Text: text})
}

// frameFor builds a fresh frame over a stored region.
func (rt *Runtime) frameFor(h cas.Hash) (*Frame, error) {
	r, err := cas.Retrieve[*cas.Region](rt.store, h)
	if err != nil {
		return nil, err
	}
	f := &Frame{
		rt:     rt,
		region: h,
		file:   r.File,
		lex:    lexer.NewAt(r.File, r.Text, r.Line),
		Result: vm.None,
	}
	f.resetLocals()
	return f, nil
}

func (rt *Runtime) conditionFrame(file string, line int, text string) (*Frame, error) {
	h, err := rt.intern(file, line, text)
	if err != nil {
		return nil, err
	}
	f, err := rt.frameFor(h)
	if err != nil {
		return nil, err
	}
	f.lex = lexer.NewCondition(file, text, line)
	return f, nil
}

// cloneFrame makes a second activation of a function frame.
func (rt *Runtime) cloneFrame(fn *Frame) (*Frame, error) {
	c, err := rt.frameFor(fn.region)
	if err != nil {
		return nil, err
	}
	c.name, c.params, c.async, c.site = fn.name, fn.params, fn.async, fn.site
	return c, nil
}

// Run executes a root frame to completion. Detached async calls still in
// flight when it returns are cancelled.
func (rt *Runtime) Run(ctx context.Context, f *Frame) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	t := rt.sched.root()
	if err := t.acquire(ctx); err != nil {
		return err
	}
	defer t.yield()
	log.Debug().Str("file", f.file).Msg("run")
	return f.run(withTask(ctx, t))
}

// RunFile loads and runs a script, returning its root frame.
func (rt *Runtime) RunFile(ctx context.Context, name string) (*Frame, error) {
	f, err := rt.LoadFile(name)
	if err != nil {
		return nil, err
	}
	return f, rt.Run(ctx, f)
}

// spawn starts fn on a new goroutine that borrows the caller's token until
// fn first suspends or finishes.
func (rt *Runtime) spawn(ctx context.Context, fn *Frame) *vm.FutureValue {
	fut := vm.NewFuture()
	t := rt.sched.borrow()
	log.Debug().Str("function", fn.name).Str("future", fut.ID).Msg("detached call")
	go func() {
		var err error
		defer func() {
			if r := recover(); r != nil {
				err = fmt.Errorf("panic in %s: %v", fn.name, r)
			}
			if err != nil {
				fut.Resolve(nil, err)
				if !errors.Is(err, context.Canceled) {
					log.Warn().Err(err).Str("function", fn.name).Str("future", fut.ID).Msg("detached call faulted")
				}
			} else {
				fut.Resolve(fn.Result, nil)
			}
			t.yield()
		}()
		err = fn.run(withTask(ctx, t))
	}()
	<-t.handoff
	return fut
}

// await suspends the current task until fut resolves.
func (rt *Runtime) await(ctx context.Context, fut *vm.FutureValue) (vm.Value, error) {
	if fut.Ready() {
		return fut.Wait(ctx)
	}
	t := taskFrom(ctx)
	if t == nil {
		return fut.Wait(ctx)
	}
	log.Trace().Str("future", fut.ID).Msg("  SUSPEND")
	t.yield()
	v, err := fut.Wait(ctx)
	if aerr := t.acquire(ctx); aerr != nil {
		return nil, aerr
	}
	log.Trace().Str("future", fut.ID).Msg("  RESUME")
	return v, err
}
