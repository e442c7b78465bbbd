package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"time"

	"github.com/gookit/color"
	"github.com/pkg/profile"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/timewinder-dev/sol"
	"github.com/timewinder-dev/sol/lexer"
)

var (
	configFlag  string
	workdirFlag string
	extFlags    []string
	dumpState   bool
	profileFlag string
	timeFlag    bool
)

var runCmd = &cobra.Command{
	Use:   "run [SCRIPT]",
	Short: "Run a script once",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runCommand,
}

func init() {
	runCmd.Flags().StringVar(&configFlag, "config", "", "Project file (default sol.toml when present)")
	runCmd.Flags().StringVar(&workdirFlag, "workdir", "", "Directory scripts and imports are resolved in")
	runCmd.Flags().StringArrayVar(&extFlags, "ext", nil, "Starlark extension file to load (repeatable)")
	runCmd.Flags().BoolVar(&dumpState, "dump-state", false, "Print the root variables and their snapshot hash after the run")
	runCmd.Flags().StringVar(&profileFlag, "profile", "", "Profile the run (cpu, mem)")
	runCmd.Flags().BoolVar(&timeFlag, "time", false, "Print the execution time")
}

// errFault is returned after a script fault has already been reported.
var errFault = errors.New("script faulted")

var profileModes = map[string]func(*profile.Profile){
	"cpu": profile.CPUProfile,
	"mem": profile.MemProfile,
}

// loadProject picks the project file, then applies flag overrides.
func loadProject(cmd *cobra.Command, args []string) (*sol.Project, error) {
	path := configFlag
	if path == "" {
		if _, err := os.Stat(sol.DefaultProjectFile); err == nil {
			path = sol.DefaultProjectFile
		}
	}
	var p *sol.Project
	if path != "" {
		var err error
		if p, err = sol.LoadProject(path); err != nil {
			return nil, err
		}
		log.Debug().Str("project", path).Msg("loaded project")
	} else {
		p = sol.DefaultProject(".")
	}
	if workdirFlag != "" {
		p.Script.Workdir = workdirFlag
	}
	if len(args) == 1 {
		script := args[0]
		if workdirFlag != "" {
			script = filepath.Join(workdirFlag, script)
		}
		p.SetScript(script)
	}
	p.Extensions.Starlark = append(p.Extensions.Starlark, extFlags...)
	if p.Log.Level != "" && !cmd.Flags().Changed("log-level") {
		setupLogging(p.Log.Level)
	}
	return p, nil
}

func runCommand(cmd *cobra.Command, args []string) error {
	p, err := loadProject(cmd, args)
	if err != nil {
		return err
	}
	if profileFlag != "" {
		mode, ok := profileModes[profileFlag]
		if !ok {
			return fmt.Errorf("unknown profile mode %q", profileFlag)
		}
		defer profile.Start(mode, profile.ProfilePath("."), profile.Quiet).Stop()
	}

	engine, err := sol.NewEngine(p, os.Stdout)
	if err != nil {
		return err
	}
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	log.Debug().Str("script", p.ScriptPath()).Msg("running")
	start := time.Now()
	f, err := engine.Run(ctx)
	elapsed := time.Since(start)
	stats := engine.Store.Stats()
	log.Debug().
		Int("regions", stats.Size).
		Int("hits", stats.Hits).
		Int("misses", stats.Misses).
		Msg("region cache")
	if err != nil {
		var se *lexer.SyntaxError
		if errors.As(err, &se) {
			fmt.Fprintln(os.Stderr, color.Red.Sprint(se.Error()))
			return errFault
		}
		return err
	}
	if timeFlag {
		fmt.Fprintln(os.Stderr, color.Cyan.Sprintf("Execute Time: %dms", elapsed.Milliseconds()))
	}
	if dumpState {
		h, snap, err := engine.DumpState(f)
		if err != nil {
			return err
		}
		vals, err := snap.Values()
		if err != nil {
			return err
		}
		fmt.Fprintln(os.Stderr, color.Green.Sprintf("State %s", h))
		for _, name := range snap.Names() {
			fmt.Fprintf(os.Stderr, "  %s = %s\n", name, vals[name])
		}
	}
	return nil
}
