package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"hirindex/internal/trace"
)

func writeConfig(t *testing.T, dir, body string) string {
	t.Helper()
	path := filepath.Join(dir, FileName)
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := writeConfig(t, dir, `
[hashing]
spans = true

[[hashing.remap]]
from = "/home/ci/src"
to = "src"

[driver]
jobs = 3

[cache]
dir = ".hircache"

[trace]
level = "detail"
mode = "ring"
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if !cfg.Hashing.Spans {
		t.Error("spans not set")
	}
	if got := cfg.PathRemaps(); len(got) != 1 || got[0].From != "/home/ci/src" || got[0].To != "src" {
		t.Errorf("remaps = %+v", got)
	}
	if cfg.Jobs() != 3 {
		t.Errorf("jobs = %d", cfg.Jobs())
	}
	// untouched keys keep their defaults
	if !cfg.Cache.Enabled {
		t.Error("cache should stay enabled")
	}
	if want := filepath.Join(dir, ".hircache"); cfg.Cache.Dir != want {
		t.Errorf("cache dir = %q, want %q", cfg.Cache.Dir, want)
	}
	tc, err := cfg.TracerConfig()
	if err != nil {
		t.Fatal(err)
	}
	if tc.Level != trace.LevelDetail || tc.Mode != trace.ModeRing {
		t.Errorf("tracer config = %+v", tc)
	}
	if cfg.Path != path {
		t.Errorf("path = %q", cfg.Path)
	}
}

func TestLoadRejectsBadFiles(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		invalid bool
	}{
		{name: "syntax", body: "[driver\njobs = 1\n"},
		{name: "unknown key", body: "[driver]\nworkers = 4\n", invalid: true},
		{name: "negative jobs", body: "[driver]\njobs = -1\n", invalid: true},
		{name: "empty remap", body: "[[hashing.remap]]\nto = \"x\"\n", invalid: true},
		{name: "bad level", body: "[trace]\nlevel = \"loud\"\n", invalid: true},
		{name: "bad mode", body: "[trace]\nmode = \"tape\"\n", invalid: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeConfig(t, t.TempDir(), tt.body)
			_, err := Load(path)
			if err == nil {
				t.Fatal("expected an error")
			}
			if got := errors.Is(err, ErrInvalid); got != tt.invalid {
				t.Fatalf("errors.Is(ErrInvalid) = %v for %v", got, err)
			}
		})
	}
}

func TestDiscoverWalksUp(t *testing.T) {
	root := t.TempDir()
	writeConfig(t, root, "[driver]\njobs = 2\n")
	nested := filepath.Join(root, "a", "b")
	if err := os.MkdirAll(nested, 0o755); err != nil {
		t.Fatal(err)
	}
	cfg, err := Discover(nested)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Driver.Jobs != 2 {
		t.Fatalf("jobs = %d", cfg.Driver.Jobs)
	}
}

func TestDefaultsAreValid(t *testing.T) {
	cfg := Default()
	if err := cfg.Validate(); err != nil {
		t.Fatal(err)
	}
	if cfg.Jobs() < 1 {
		t.Fatalf("jobs = %d", cfg.Jobs())
	}
	if cfg.PathRemaps() != nil {
		t.Fatal("no remaps expected")
	}
}
