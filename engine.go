// Package sol wires a project's configuration into a runnable script
// engine.
package sol

import (
	"context"
	"io"
	"os"
	"path/filepath"

	"github.com/rs/zerolog/log"
	"github.com/timewinder-dev/sol/cas"
	"github.com/timewinder-dev/sol/interp"
	"github.com/timewinder-dev/sol/starext"
	"github.com/timewinder-dev/sol/vm"
)

type Engine struct {
	Project *Project
	Natives *vm.Natives
	Store   *cas.LRUCache
	Runtime *interp.Runtime
}

// NewEngine builds the natives, loads the project's extensions and sets up
// a runtime rooted at the project's working directory. Script output goes
// to out.
func NewEngine(p *Project, out io.Writer) (*Engine, error) {
	n := vm.NewNatives(out)
	for _, path := range p.ExtensionPaths() {
		names, err := starext.LoadFile(n, path)
		if err != nil {
			return nil, err
		}
		log.Debug().Str("extension", path).Int("functions", len(names)).Msg("registered extension")
	}
	size := p.Cache.Regions
	if size <= 0 {
		size = interp.DefaultCacheSize
	}
	store := cas.NewLRUCache(cas.NewMemoryCAS(), size)
	rt := interp.NewRuntime(
		interp.WithBridge(n),
		interp.WithFS(os.DirFS(p.Script.Workdir)),
		interp.WithStore(store),
	)
	return &Engine{Project: p, Natives: n, Store: store, Runtime: rt}, nil
}

// Run executes the project's entry script once.
func (e *Engine) Run(ctx context.Context) (*interp.Frame, error) {
	return e.Runtime.RunFile(ctx, filepath.ToSlash(e.Project.Script.File))
}

// DumpState stores a snapshot of the frame's visible variables and
// returns its key.
func (e *Engine) DumpState(f *interp.Frame) (cas.Hash, *vm.Snapshot, error) {
	snap := f.Snapshot()
	h, err := e.Store.Put(snap)
	if err != nil {
		return 0, nil, err
	}
	return h, snap, nil
}
