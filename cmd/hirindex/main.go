package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"hirindex/internal/prof"
	"hirindex/internal/version"
)

var rootCmd = &cobra.Command{
	Use:   "hirindex",
	Short: "Index and fingerprint lowered crates",
	Long: `hirindex lowers a YAML crate description into HIR, numbers the nodes of
every owner, and computes the stable fingerprints incremental compilation
relies on.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := setupColor(cmd); err != nil {
			return err
		}
		return startProfiling(cmd)
	},
}

// profiling is the active profile set, stopped by main after Execute.
var profiling *prof.Session

func startProfiling(cmd *cobra.Command) error {
	flags := cmd.Flags()
	var opts prof.Options
	opts.CPU, _ = flags.GetString("cpu-profile")
	opts.Mem, _ = flags.GetString("mem-profile")
	opts.Trace, _ = flags.GetString("runtime-trace")
	if !opts.Enabled() {
		return nil
	}
	s, err := prof.Start(opts)
	if err != nil {
		return err
	}
	profiling = s
	return nil
}

// main registers the subcommands and persistent flags, then executes the
// root command. Any error exits with status 1.
func main() {
	rootCmd.Version = version.Version

	rootCmd.AddCommand(indexCmd)
	rootCmd.AddCommand(hashCmd)
	rootCmd.AddCommand(itemsCmd)
	rootCmd.AddCommand(queryCmd)
	rootCmd.AddCommand(diffCmd)
	rootCmd.AddCommand(manifestCmd)
	rootCmd.AddCommand(dumpCmd)
	rootCmd.AddCommand(versionCmd)

	// глобальные флаги
	flags := rootCmd.PersistentFlags()
	flags.String("config", "", "path to hirindex.toml (default: search upwards from the crate file)")
	flags.String("color", "auto", "colorize output (auto|on|off)")
	flags.String("diag-format", "short", "diagnostics format (short|json|sarif)")
	flags.Bool("quiet", false, "suppress non-essential output")
	flags.Bool("timings", false, "show timing information")
	flags.Int("jobs", 0, "parallel indexing workers (0 = config or GOMAXPROCS)")
	flags.Bool("spans", false, "include source spans in fingerprints")
	flags.String("cache-dir", "", "fingerprint cache directory")
	flags.Bool("no-cache", false, "do not read or write the fingerprint cache")
	flags.String("trace", "", "trace output file (- for stderr)")
	flags.String("trace-level", "", "trace level (off|error|phase|detail|debug)")
	flags.String("trace-mode", "", "trace storage mode (stream|ring|both)")
	flags.Int("trace-ring-size", 4096, "ring buffer size for ring trace mode")
	flags.String("cpu-profile", "", "write a CPU profile to this file")
	flags.String("mem-profile", "", "write a heap profile to this file on exit")
	flags.String("runtime-trace", "", "write a Go runtime trace to this file")

	err := rootCmd.Execute()
	if profiling != nil {
		if stopErr := profiling.Stop(); stopErr != nil {
			fmt.Fprintln(os.Stderr, warningColor.Sprint("warning: ")+stopErr.Error())
		}
	}
	if err != nil {
		if !errors.Is(err, errReported) {
			fmt.Fprintln(os.Stderr, errorColor.Sprint("error: ")+err.Error())
		}
		os.Exit(1)
	}
}

// isTerminal проверяет, является ли файл терминалом
func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}
