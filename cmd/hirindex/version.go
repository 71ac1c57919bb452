package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"hirindex/internal/driver"
	"hirindex/internal/fingerprint"
	"hirindex/internal/version"
)

// versionInfo carries the build stamp and the on-disk formats this binary
// reads and writes. Two builds with equal formats share caches.
type versionInfo struct {
	Version        string
	GitCommit      string
	BuildDate      string
	HashVersion    byte
	SnapshotSchema uint16
}

type versionPayload struct {
	Tool           string `json:"tool"`
	Version        string `json:"version"`
	HashAlgorithm  string `json:"hash_algorithm"`
	HashVersion    byte   `json:"hash_version"`
	SnapshotSchema uint16 `json:"snapshot_schema"`
	GitCommit      string `json:"git_commit,omitempty"`
	BuildDate      string `json:"build_date,omitempty"`
}

type versionOptions struct {
	json  bool
	build bool
}

const hashAlgorithm = "sha256"

var (
	versionFormat string
	versionBuild  bool
)

func init() {
	versionCmd.Flags().BoolVar(&versionBuild, "build", false, "include git commit and build date")
	versionCmd.Flags().StringVar(&versionFormat, "format", "pretty", "output format (pretty|json)")
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show the hirindex version and the fingerprint and cache formats it uses",
	RunE: func(cmd *cobra.Command, args []string) error {
		opts := versionOptions{build: versionBuild}
		switch strings.ToLower(versionFormat) {
		case "pretty":
		case "json":
			opts.json = true
		default:
			return fmt.Errorf("unsupported format %q (must be pretty or json)", versionFormat)
		}

		info := collectVersionInfo()
		if opts.json {
			return renderVersionJSON(cmd.OutOrStdout(), info, opts)
		}
		renderVersionPretty(cmd.OutOrStdout(), info, opts)
		return nil
	},
}

func collectVersionInfo() versionInfo {
	v := strings.TrimSpace(version.Version)
	if v == "" {
		v = "dev"
	}
	return versionInfo{
		Version:        v,
		GitCommit:      strings.TrimSpace(version.GitCommit),
		BuildDate:      strings.TrimSpace(version.BuildDate),
		HashVersion:    fingerprint.HashVersion,
		SnapshotSchema: driver.SnapshotSchemaVersion,
	}
}

func renderVersionPretty(out io.Writer, info versionInfo, opts versionOptions) {
	v := info.Version
	if v == version.Version {
		v = version.Colored()
	}
	fmt.Fprintf(out, "hirindex %s\n", v)
	fmt.Fprintf(out, "fingerprints: %s v%d\n", hashAlgorithm, info.HashVersion)
	fmt.Fprintf(out, "snapshots:    schema %d\n", info.SnapshotSchema)
	if opts.build {
		fmt.Fprintf(out, "commit:       %s\n", valueOrUnknown(info.GitCommit))
		fmt.Fprintf(out, "built:        %s\n", valueOrUnknown(info.BuildDate))
	}
}

func renderVersionJSON(out io.Writer, info versionInfo, opts versionOptions) error {
	payload := versionPayload{
		Tool:           "hirindex",
		Version:        info.Version,
		HashAlgorithm:  hashAlgorithm,
		HashVersion:    info.HashVersion,
		SnapshotSchema: info.SnapshotSchema,
	}
	if opts.build {
		payload.GitCommit = valueOrUnknown(info.GitCommit)
		payload.BuildDate = valueOrUnknown(info.BuildDate)
	}
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(payload)
}

func valueOrUnknown(s string) string {
	if s == "" {
		return "unknown"
	}
	return s
}
