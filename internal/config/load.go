package config

import (
	"bytes"
	_ "embed"
	"fmt"
	"os"
	"path/filepath"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"gopkg.in/yaml.v3"
)

//go:embed schema.cue
var schemaCUE string

// File names probed by Discover, in order.
var DiscoverNames = []string{"wasmpack.cue", "wasmpack.yaml", "wasmpack.yml"}

// Load reads a configuration file. The format is chosen by extension:
// .cue files are unified with the embedded schema, .yaml/.yml files are
// decoded over Default().
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &Error{Field: "file", Message: fmt.Sprintf("reading config: %v", err)}
	}

	var cfg *Config
	switch filepath.Ext(path) {
	case ".cue":
		cfg, err = parseCUE(path, data)
	case ".yaml", ".yml":
		cfg, err = parseYAML(data)
	default:
		return nil, &Error{Field: "file", Message: fmt.Sprintf("unsupported config format %q: use .cue, .yaml or .yml", filepath.Ext(path))}
	}
	if err != nil {
		return nil, err
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolving config path: %w", err)
	}
	cfg.Source = abs
	cfg.BaseDir = filepath.Dir(abs)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Discover looks for a configuration file in dir. If none exists it returns
// Default() anchored at dir.
func Discover(dir string) (*Config, error) {
	for _, name := range DiscoverNames {
		path := filepath.Join(dir, name)
		if _, err := os.Stat(path); err == nil {
			return Load(path)
		}
	}

	cfg := Default()
	cfg.BaseDir = dir
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// parseCUE unifies the user's file with #Config and decodes the result.
func parseCUE(path string, data []byte) (*Config, error) {
	ctx := cuecontext.New()

	schema := ctx.CompileString(schemaCUE, cue.Filename("schema.cue"))
	if err := schema.Err(); err != nil {
		return nil, fmt.Errorf("compiling embedded schema: %w", err)
	}

	user := ctx.CompileBytes(data, cue.Filename(path))
	if err := user.Err(); err != nil {
		return nil, fromCUEError(err)
	}

	value := schema.LookupPath(cue.ParsePath("#Config")).Unify(user)
	if err := value.Validate(cue.Concrete(true)); err != nil {
		return nil, fromCUEError(err)
	}

	var cfg Config
	if err := value.Decode(&cfg); err != nil {
		return nil, fromCUEError(err)
	}
	return &cfg, nil
}

// parseYAML decodes data over the defaults with strict field validation
// (catches typos like "optimiser:" vs "optimizer:").
func parseYAML(data []byte) (*Config, error) {
	cfg := Default()
	if len(bytes.TrimSpace(data)) == 0 {
		return cfg, nil
	}

	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(cfg); err != nil {
		return nil, &Error{Field: "yaml", Message: err.Error()}
	}
	return cfg, nil
}
