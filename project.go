package sol

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/goccy/go-yaml"
)

const (
	DefaultProjectFile = "sol.toml"
	DefaultScript      = "test.sol"
)

// Project is the contents of a sol.toml or sol.yaml file.
type Project struct {
	Script     ScriptConfig    `toml:"script" yaml:"script"`
	Extensions ExtensionConfig `toml:"extensions" yaml:"extensions"`
	Log        LogConfig       `toml:"log" yaml:"log"`
	Cache      CacheConfig     `toml:"cache" yaml:"cache"`
}

type ScriptConfig struct {
	// File is the entry script, relative to Workdir.
	File    string `toml:"file,omitempty" yaml:"file,omitempty"`
	Workdir string `toml:"workdir,omitempty" yaml:"workdir,omitempty"`
}

type ExtensionConfig struct {
	Starlark []string `toml:"starlark,omitempty" yaml:"starlark,omitempty"`
}

type LogConfig struct {
	Level string `toml:"level,omitempty" yaml:"level,omitempty"`
}

type CacheConfig struct {
	Regions int `toml:"regions,omitempty" yaml:"regions,omitempty"`
}

func parseProject(r io.Reader, format string) (*Project, error) {
	var out Project
	switch format {
	case ".toml":
		if _, err := toml.NewDecoder(r).Decode(&out); err != nil {
			return nil, err
		}
	case ".yaml", ".yml":
		if err := yaml.NewDecoder(r).Decode(&out); err != nil && err != io.EOF {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("unknown project format %q", format)
	}
	return &out, nil
}

// LoadProject reads a project file. The working directory is resolved
// against the file's directory, and an empty script name defaults to the
// project file's name with a .sol extension.
func LoadProject(path string) (*Project, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	ext := filepath.Ext(path)
	p, err := parseProject(f, ext)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	if p.Script.File == "" {
		p.Script.File = strings.TrimSuffix(filepath.Base(path), ext) + ".sol"
	}
	p.Script.Workdir = filepath.Clean(filepath.Join(filepath.Dir(path), p.Script.Workdir))
	return p, nil
}

// DefaultProject is used when there is no project file.
func DefaultProject(workdir string) *Project {
	if workdir == "" {
		workdir = "."
	}
	return &Project{Script: ScriptConfig{File: DefaultScript, Workdir: workdir}}
}

// SetScript points the project at a script path given relative to the
// current directory, moving the working directory to the script's.
func (p *Project) SetScript(path string) {
	p.Script.Workdir = filepath.Dir(path)
	p.Script.File = filepath.Base(path)
}

// ScriptPath is the entry script's path relative to the current directory.
func (p *Project) ScriptPath() string {
	return filepath.Join(p.Script.Workdir, p.Script.File)
}

// ExtensionPaths resolves the Starlark extension files against Workdir.
func (p *Project) ExtensionPaths() []string {
	out := make([]string, len(p.Extensions.Starlark))
	for i, e := range p.Extensions.Starlark {
		if filepath.IsAbs(e) {
			out[i] = e
			continue
		}
		out[i] = filepath.Join(p.Script.Workdir, e)
	}
	return out
}
