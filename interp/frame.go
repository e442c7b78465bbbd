package interp

import (
	"fmt"
	"maps"
	"strings"

	"github.com/timewinder-dev/sol/cas"
	"github.com/timewinder-dev/sol/lexer"
	"github.com/timewinder-dev/sol/vm"
)

// Frame is one unit of scope and execution: a lexer over a source region,
// the region's local variables and functions, and a view of whatever the
// creator handed in before running it. Frames parse and evaluate one
// statement at a time; compound bodies become child Frames over their raw
// text.
type Frame struct {
	rt     *Runtime
	region cas.Hash
	file   string
	lex    *lexer.Lexer
	cur    lexer.Token
	prev   lexer.Token

	vars        map[string]*cell
	funcs       map[string]*Frame
	imports     []*Frame
	importsDone bool

	globalVars  map[string]*cell
	globalFuncs map[string]*Frame

	// set on function frames
	name   string
	params []string
	async  bool
	site   string

	Result   vm.Value
	Break    bool
	returned bool
	state    State
	running  bool
}

func (f *Frame) State() State {
	return f.state
}

// Region is the store key of the source this frame runs.
func (f *Frame) Region() cas.Hash {
	return f.region
}

func (f *Frame) File() string {
	return f.file
}

func (f *Frame) lookupVar(name string) vm.Value {
	if c, ok := f.vars[name]; ok {
		return c.v
	}
	if c, ok := f.globalVars[name]; ok {
		return c.v
	}
	for _, im := range f.imports {
		if c, ok := im.vars[name]; ok {
			return c.v
		}
	}
	return vm.None
}

func (f *Frame) lookupFunc(key string) *Frame {
	if fn, ok := f.funcs[key]; ok {
		return fn
	}
	if fn, ok := f.globalFuncs[key]; ok {
		return fn
	}
	for _, im := range f.imports {
		if fn, ok := im.funcs[key]; ok {
			return fn
		}
	}
	return nil
}

// Lookup resolves a variable the way script code in this frame would.
func (f *Frame) Lookup(name string) vm.Value {
	return f.lookupVar(name)
}

// assign writes a binding in the global view when the name exists there,
// else the local, creating it if needed.
func (f *Frame) assign(name string, v vm.Value) {
	if c, ok := f.globalVars[name]; ok {
		c.v = v
		return
	}
	f.setLocal(name, v)
}

func (f *Frame) setLocal(name string, v vm.Value) {
	if c, ok := f.vars[name]; ok {
		c.v = v
		return
	}
	f.vars[name] = &cell{v: v}
}

// SetVariable binds a local variable, typically before the first run.
func (f *Frame) SetVariable(name string, v vm.Value) {
	f.setLocal(name, v)
}

// visibleVars is the flattened view handed to children: the global view
// overlaid by locals.
func (f *Frame) visibleVars() map[string]*cell {
	out := make(map[string]*cell, len(f.globalVars)+len(f.vars))
	maps.Copy(out, f.globalVars)
	maps.Copy(out, f.vars)
	return out
}

func (f *Frame) visibleFuncs() map[string]*Frame {
	out := make(map[string]*Frame, len(f.globalFuncs)+len(f.funcs))
	maps.Copy(out, f.globalFuncs)
	maps.Copy(out, f.funcs)
	return out
}

func (f *Frame) setGlobal(vars map[string]*cell, funcs map[string]*Frame) {
	f.globalVars = vars
	f.globalFuncs = funcs
}

// inherit gives a child this frame's view and imports.
func (f *Frame) inherit(child *Frame) {
	child.imports = f.imports
	child.importsDone = true
	child.setGlobal(f.visibleVars(), f.visibleFuncs())
}

func (f *Frame) resetLocals() {
	f.vars = make(map[string]*cell)
	f.funcs = make(map[string]*Frame)
}

// Variables returns the values of every variable visible to the frame.
func (f *Frame) Variables() map[string]vm.Value {
	out := make(map[string]vm.Value)
	for k, c := range f.visibleVars() {
		out[k] = c.v
	}
	return out
}

func (f *Frame) Snapshot() *vm.Snapshot {
	return vm.NewSnapshot(f.Variables())
}

// functionNames lists visible user function names without their arity.
func (f *Frame) functionNames() []string {
	var out []string
	for k := range f.visibleFuncs() {
		name, _, _ := strings.Cut(k, "/")
		out = append(out, name)
	}
	for _, im := range f.imports {
		for k := range im.funcs {
			name, _, _ := strings.Cut(k, "/")
			out = append(out, name)
		}
	}
	return out
}

func (f *Frame) String() string {
	if f.name != "" {
		return fmt.Sprintf("function %s (%s:%d)", f.name, f.file, f.lex.Line())
	}
	return fmt.Sprintf("frame %s (%s)", f.region, f.file)
}
