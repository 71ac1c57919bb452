package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"hirindex/internal/bug"
	"hirindex/internal/config"
	"hirindex/internal/diag"
	"hirindex/internal/diagfmt"
	"hirindex/internal/driver"
	"hirindex/internal/source"
	"hirindex/internal/version"
)

// errReported is returned after the diagnostics explaining a failure were
// printed, so main exits non-zero without printing it again.
var errReported = errors.New("errors reported")

// loadConfig reads hirindex.toml (--config, or the nearest one above
// crateFile) and applies the flags the user set explicitly.
func loadConfig(cmd *cobra.Command, crateFile string) (config.Config, error) {
	flags := cmd.Flags()
	path, err := flags.GetString("config")
	if err != nil {
		return config.Config{}, fmt.Errorf("failed to get config flag: %w", err)
	}

	var cfg config.Config
	if path != "" {
		cfg, err = config.Load(path)
	} else {
		cfg, err = config.Discover(filepath.Dir(crateFile))
	}
	if err != nil {
		return config.Config{}, err
	}

	if flags.Changed("jobs") {
		if cfg.Driver.Jobs, err = flags.GetInt("jobs"); err != nil {
			return config.Config{}, err
		}
	}
	if flags.Changed("spans") {
		if cfg.Hashing.Spans, err = flags.GetBool("spans"); err != nil {
			return config.Config{}, err
		}
	}
	if flags.Changed("cache-dir") {
		if cfg.Cache.Dir, err = flags.GetString("cache-dir"); err != nil {
			return config.Config{}, err
		}
	}
	if noCache, _ := flags.GetBool("no-cache"); noCache {
		cfg.Cache.Enabled = false
	}
	if out, _ := flags.GetString("trace"); out != "" {
		cfg.Trace.Output = out
		// a trace file without a level means the default detail level
		if cfg.Trace.Level == "" || cfg.Trace.Level == "off" {
			cfg.Trace.Level = "detail"
		}
	}
	if flags.Changed("trace-level") {
		cfg.Trace.Level, _ = flags.GetString("trace-level")
	}
	if flags.Changed("trace-mode") {
		cfg.Trace.Mode, _ = flags.GetString("trace-mode")
	}
	if err := cfg.Validate(); err != nil {
		return config.Config{}, err
	}
	return cfg, nil
}

// openSession loads crateFile into a new session. The returned close
// function prints timings and diagnostics and flushes the tracer.
func openSession(cmd *cobra.Command, crateFile string) (*driver.Session, func(), error) {
	cfg, err := loadConfig(cmd, crateFile)
	if err != nil {
		return nil, nil, err
	}
	cleanupTrace, ring, err := setupTracing(cmd, cfg)
	if err != nil {
		return nil, nil, err
	}

	s := driver.NewSession(cmd.Context(), cfg)
	closeFn := func() {
		s.Close()
		if timings, _ := cmd.Flags().GetBool("timings"); timings {
			fmt.Fprint(cmd.ErrOrStderr(), s.Timer.Summary())
		}
		printDiagnostics(cmd, s)
		if s.Bag.HasICE() {
			dumpRing(cmd.ErrOrStderr(), ring)
		}
		cleanupTrace()
	}

	if err := s.LoadCrate(cmd.Context(), crateFile); err != nil {
		closeFn()
		if s.Bag.HasErrors() {
			return nil, nil, errReported
		}
		return nil, nil, err
	}
	return s, closeFn, nil
}

func printDiagnostics(cmd *cobra.Command, s *driver.Session) {
	format, err := readDiagFormat(cmd)
	if err != nil {
		fmt.Fprintln(cmd.ErrOrStderr(), errorColor.Sprint("error: ")+err.Error())
		format = diagfmt.FormatShort
	}
	out := cmd.ErrOrStderr()
	s.Bag.Sort()
	switch format {
	case diagfmt.FormatJSON:
		opts := diagfmt.JSONOpts{IncludePositions: true, IncludeNotes: true}
		if err := diagfmt.JSON(out, s.Bag, s.Files, opts); err != nil {
			fmt.Fprintln(out, errorColor.Sprint("error: ")+err.Error())
		}
		return
	case diagfmt.FormatSarif:
		meta := diagfmt.SarifRunMeta{ToolName: "hirindex", ToolVersion: version.Version, InvocationArgs: os.Args[1:]}
		if err := diagfmt.Sarif(out, s.Bag, s.Files, meta); err != nil {
			fmt.Fprintln(out, errorColor.Sprint("error: ")+err.Error())
		}
		return
	}

	if s.Bag.Len() == 0 {
		return
	}
	quiet, _ := cmd.Flags().GetBool("quiet")
	items := s.Bag.Items()
	if quiet {
		kept := items[:0:0]
		for _, d := range items {
			if d.Severity.AtLeast(diag.SevError) {
				kept = append(kept, d)
			}
		}
		items = kept
	}
	for _, d := range items {
		fmt.Fprint(out, severityColor(d.Severity).Sprint(diag.FormatShort([]diag.Diagnostic{d}, s.Files, true)))
	}
}

func readDiagFormat(cmd *cobra.Command) (diagfmt.Format, error) {
	value, err := cmd.Flags().GetString("diag-format")
	if err != nil {
		return diagfmt.FormatShort, fmt.Errorf("failed to get diag-format flag: %w", err)
	}
	return diagfmt.ParseFormat(value)
}

// openCache opens the fingerprint cache. It returns nil when the cache is
// disabled or cannot be opened; the latter is reported as a warning.
func openCache(s *driver.Session) *driver.DiskCache {
	if !s.Config.Cache.Enabled {
		return nil
	}
	c, err := driver.OpenDiskCache(s.Config.Cache.Dir, "hirindex")
	if err != nil {
		s.Bag.Add(diag.New(diag.SevWarning, diag.IOCacheReadError, source.DummySpan,
			fmt.Sprintf("fingerprint cache unavailable: %v", err)))
		return nil
	}
	return c
}

// withSession opens crateFile, runs fn and closes the session. An ICE is
// reported through the session bag, so it only turns into a non-zero exit.
func withSession(cmd *cobra.Command, crateFile string, fn func(s *driver.Session) error) error {
	s, closeFn, err := openSession(cmd, crateFile)
	if err != nil {
		return err
	}
	defer closeFn()
	if err := fn(s); err != nil {
		var ice *bug.ICE
		if errors.As(err, &ice) {
			return errReported
		}
		return err
	}
	if s.Bag.HasErrors() {
		return errReported
	}
	return nil
}
