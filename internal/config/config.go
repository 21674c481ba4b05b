package config

import (
	"fmt"
	"path/filepath"
	"slices"
	"strings"

	"github.com/roach88/wasmpack/internal/process"
)

// Build profiles.
const (
	ProfileRelease = "release"
	ProfileDebug   = "debug"
)

// OptimizeLevels lists the optimizer levels accepted by wasm-opt.
var OptimizeLevels = []string{"Os", "Oz", "O", "O0", "O1", "O2", "O3", "O4"}

// Config is the full description of one wasmpack build.
type Config struct {
	Package         string    `json:"package" yaml:"package"`
	Toolchain       string    `json:"toolchain" yaml:"toolchain"` // "" means the default toolchain
	Target          string    `json:"target" yaml:"target"`
	DefaultFeatures bool      `json:"default_features" yaml:"default_features"`
	Profile         string    `json:"profile" yaml:"profile"` // "release" | "debug"
	Compiler        string    `json:"compiler" yaml:"compiler"`
	TargetDir       string    `json:"target_dir" yaml:"target_dir"`
	KeepBinary      bool      `json:"keep_binary" yaml:"keep_binary"`
	Journal         string    `json:"journal" yaml:"journal"` // build journal database, "" disables
	Optimizer       Optimizer `json:"optimizer" yaml:"optimizer"`
	Paths           Paths     `json:"paths" yaml:"paths"`

	// BaseDir anchors relative paths. Set by the loader.
	BaseDir string `json:"-" yaml:"-"`

	// Source is the file the config was loaded from, "" for defaults.
	Source string `json:"-" yaml:"-"`
}

// Optimizer configures the optional size optimization stage.
type Optimizer struct {
	Enabled bool     `json:"enabled" yaml:"enabled"`
	Command string   `json:"command" yaml:"command"`
	Level   string   `json:"level" yaml:"level"`
	Flags   []string `json:"flags" yaml:"flags"`
}

// Paths are the fixed filesystem locations of a pipeline run.
type Paths struct {
	// SourceRoot is the working directory of the compiler.
	SourceRoot string `json:"source_root" yaml:"source_root"`

	// Binary is where the compiler leaves the Binary Artifact.
	// Empty means derive it from TargetDir, Target, Profile and Package.
	Binary string `json:"binary" yaml:"binary"`

	// Optimized is the intermediate Optimized Artifact.
	Optimized string `json:"optimized" yaml:"optimized"`

	// Module is the Generated Module, the only durable output.
	Module string `json:"module" yaml:"module"`
}

// Default returns the stock configuration. Its base directory is empty,
// which Resolve treats as the current working directory.
func Default() *Config {
	return &Config{
		Package:         "substrate-lite-js",
		Toolchain:       "1.48.0",
		Target:          "wasm32-wasi",
		DefaultFeatures: false,
		Profile:         ProfileRelease,
		Compiler:        "cargo",
		TargetDir:       "../../../target",
		Optimizer: Optimizer{
			Enabled: true,
			Command: "wasm-opt",
			Level:   "Os",
			Flags:   []string{"--strip-debug", "--vacuum", "--dce"},
		},
		Paths: Paths{
			SourceRoot: ".",
			Optimized:  "autogen/tmp.wasm",
			Module:     "autogen/wasm.js",
		},
	}
}

// Validate checks the configuration for values no pipeline run could use.
func (c *Config) Validate() error {
	switch {
	case strings.TrimSpace(c.Package) == "":
		return &Error{Field: "package", Message: "package is required"}
	case strings.TrimSpace(c.Target) == "":
		return &Error{Field: "target", Message: "target is required"}
	case strings.TrimSpace(c.Compiler) == "":
		return &Error{Field: "compiler", Message: "compiler is required"}
	case c.Profile != ProfileRelease && c.Profile != ProfileDebug:
		return &Error{Field: "profile", Message: fmt.Sprintf("invalid profile %q: must be %q or %q", c.Profile, ProfileRelease, ProfileDebug)}
	case c.Paths.Optimized == "":
		return &Error{Field: "paths.optimized", Message: "optimized artifact path is required"}
	case c.Paths.Module == "":
		return &Error{Field: "paths.module", Message: "module path is required"}
	case c.Paths.Binary == "" && c.TargetDir == "":
		return &Error{Field: "paths.binary", Message: "either paths.binary or target_dir is required"}
	}

	if c.Optimizer.Enabled {
		if strings.TrimSpace(c.Optimizer.Command) == "" {
			return &Error{Field: "optimizer.command", Message: "optimizer command is required when the optimizer is enabled"}
		}
		if !slices.Contains(OptimizeLevels, c.Optimizer.Level) {
			return &Error{Field: "optimizer.level", Message: fmt.Sprintf("invalid level %q: must be one of %v", c.Optimizer.Level, OptimizeLevels)}
		}
	}

	paths, err := c.Resolve()
	if err != nil {
		return err
	}
	if paths.Optimized == paths.Binary {
		return &Error{Field: "paths.optimized", Message: "optimized artifact must not overwrite the binary artifact"}
	}
	if paths.Module == paths.Binary || paths.Module == paths.Optimized {
		return &Error{Field: "paths.module", Message: "module path must differ from the artifact paths"}
	}
	return nil
}

// BinaryFileName is the file name the compiler gives the Binary Artifact.
// Cargo replaces dashes in package names with underscores.
func (c *Config) BinaryFileName() string {
	return strings.ReplaceAll(c.Package, "-", "_") + ".wasm"
}

// Resolve returns the run's paths as absolute, cleaned paths.
func (c *Config) Resolve() (Paths, error) {
	base := c.BaseDir
	if base == "" {
		base = "."
	}
	base, err := filepath.Abs(base)
	if err != nil {
		return Paths{}, fmt.Errorf("resolving base directory: %w", err)
	}

	binary := c.Paths.Binary
	if binary == "" {
		binary = filepath.Join(c.TargetDir, c.Target, c.Profile, c.BinaryFileName())
	}

	sourceRoot := c.Paths.SourceRoot
	if sourceRoot == "" {
		sourceRoot = "."
	}

	return Paths{
		SourceRoot: anchor(base, sourceRoot),
		Binary:     anchor(base, binary),
		Optimized:  anchor(base, c.Paths.Optimized),
		Module:     anchor(base, c.Paths.Module),
	}, nil
}

func anchor(base, path string) string {
	if filepath.IsAbs(path) {
		return filepath.Clean(path)
	}
	return filepath.Join(base, path)
}

// CompileCommand builds the compiler invocation, e.g.
//
//	cargo +1.48.0 build --package substrate-lite-js --target wasm32-wasi --no-default-features --release
func (c *Config) CompileCommand(paths Paths) process.Command {
	var args []string
	if c.Toolchain != "" {
		args = append(args, "+"+c.Toolchain)
	}
	args = append(args, "build", "--package", c.Package, "--target", c.Target)
	if !c.DefaultFeatures {
		args = append(args, "--no-default-features")
	}
	if c.Profile == ProfileRelease {
		args = append(args, "--release")
	}
	return process.Command{Name: c.Compiler, Args: args, Dir: paths.SourceRoot}
}

// OptimizeCommand builds the optimizer invocation, e.g.
//
//	wasm-opt -o autogen/tmp.wasm -Os --strip-debug --vacuum --dce target/.../pkg.wasm
func (c *Config) OptimizeCommand(paths Paths) process.Command {
	args := []string{"-o", paths.Optimized, "-" + c.Optimizer.Level}
	args = append(args, c.Optimizer.Flags...)
	args = append(args, paths.Binary)

	return process.Command{Name: c.Optimizer.Command, Args: args, Dir: c.BaseDir}
}

// JournalPath returns the journal database path resolved against BaseDir,
// or "" when journaling is disabled.
func (c *Config) JournalPath() string {
	if c.Journal == "" {
		return ""
	}
	base := c.BaseDir
	if base == "" {
		base = "."
	}
	if abs, err := filepath.Abs(base); err == nil {
		base = abs
	}
	return anchor(base, c.Journal)
}
