// Package config loads hirindex.toml.
//
// The file is optional. Values it sets override the defaults; command-line
// flags override both.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"slices"
	"strings"

	"github.com/BurntSushi/toml"

	"hirindex/internal/hir"
	"hirindex/internal/trace"
)

// FileName is the name Find looks for.
const FileName = "hirindex.toml"

var ErrInvalid = errors.New("invalid configuration")

type Config struct {
	Hashing HashingConfig `toml:"hashing"`
	Driver  DriverConfig  `toml:"driver"`
	Cache   CacheConfig   `toml:"cache"`
	Trace   TraceConfig   `toml:"trace"`

	// Path is the file the config was read from, empty for defaults.
	Path string `toml:"-"`
}

type HashingConfig struct {
	// Spans includes source positions in fingerprints.
	Spans bool        `toml:"spans"`
	Remap []RemapRule `toml:"remap"`
}

// RemapRule rewrites a file path prefix before it is hashed.
type RemapRule struct {
	From string `toml:"from"`
	To   string `toml:"to"`
}

type DriverConfig struct {
	// Jobs bounds parallel indexing. Zero means GOMAXPROCS.
	Jobs int `toml:"jobs"`
}

type CacheConfig struct {
	Enabled bool   `toml:"enabled"`
	Dir     string `toml:"dir"`
}

type TraceConfig struct {
	Level  string `toml:"level"`
	Mode   string `toml:"mode"`
	Output string `toml:"output"`
}

// Default returns the configuration used when no file is present.
func Default() Config {
	return Config{
		Cache: CacheConfig{Enabled: true},
		Trace: TraceConfig{Level: "off", Mode: "stream"},
	}
}

// Find walks up from startDir looking for hirindex.toml.
func Find(startDir string) (string, bool, error) {
	if startDir == "" {
		startDir = "."
	}
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", false, fmt.Errorf("failed to resolve start directory: %w", err)
	}
	for {
		candidate := filepath.Join(dir, FileName)
		if _, err := os.Stat(candidate); err == nil {
			return candidate, true, nil
		} else if !errors.Is(err, os.ErrNotExist) {
			return "", false, fmt.Errorf("failed to stat %q: %w", candidate, err)
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return "", false, nil
}

// Load reads the config at path on top of the defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	meta, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return Config{}, fmt.Errorf("%s: failed to parse TOML: %w", path, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, 0, len(undecoded))
		for _, k := range undecoded {
			keys = append(keys, k.String())
		}
		slices.Sort(keys)
		return Config{}, fmt.Errorf("%s: %w: unknown keys %s", path, ErrInvalid, strings.Join(keys, ", "))
	}
	cfg.Path = path
	if cfg.Cache.Dir != "" && !filepath.IsAbs(cfg.Cache.Dir) {
		cfg.Cache.Dir = filepath.Join(filepath.Dir(path), cfg.Cache.Dir)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Discover loads the nearest hirindex.toml above startDir, or the defaults
// when there is none.
func Discover(startDir string) (Config, error) {
	path, ok, err := Find(startDir)
	if err != nil {
		return Config{}, err
	}
	if !ok {
		return Default(), nil
	}
	return Load(path)
}

func (c Config) Validate() error {
	if c.Driver.Jobs < 0 {
		return fmt.Errorf("%w: driver.jobs must not be negative, got %d", ErrInvalid, c.Driver.Jobs)
	}
	for i, r := range c.Hashing.Remap {
		if r.From == "" {
			return fmt.Errorf("%w: hashing.remap[%d].from is empty", ErrInvalid, i)
		}
	}
	if _, err := trace.ParseLevel(c.Trace.Level); err != nil {
		return fmt.Errorf("%w: trace.level: %w", ErrInvalid, err)
	}
	if _, err := trace.ParseMode(c.Trace.Mode); err != nil {
		return fmt.Errorf("%w: trace.mode: %w", ErrInvalid, err)
	}
	return nil
}

// Jobs returns the effective parallelism.
func (c Config) Jobs() int {
	if c.Driver.Jobs <= 0 {
		return runtime.GOMAXPROCS(0)
	}
	return c.Driver.Jobs
}

// PathRemaps converts the remap rules for the hashing context.
func (c Config) PathRemaps() []hir.PathRemap {
	if len(c.Hashing.Remap) == 0 {
		return nil
	}
	out := make([]hir.PathRemap, len(c.Hashing.Remap))
	for i, r := range c.Hashing.Remap {
		out[i] = hir.PathRemap{From: r.From, To: r.To}
	}
	return out
}

// TracerConfig builds the tracer configuration.
func (c Config) TracerConfig() (trace.Config, error) {
	level, err := trace.ParseLevel(c.Trace.Level)
	if err != nil {
		return trace.Config{}, err
	}
	mode, err := trace.ParseMode(c.Trace.Mode)
	if err != nil {
		return trace.Config{}, err
	}
	return trace.Config{Level: level, Mode: mode, OutputPath: c.Trace.Output}, nil
}
