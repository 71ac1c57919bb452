// Package diagfmt renders a diagnostic bag for machines: a JSON document
// for scripts and SARIF for code-scanning tools.
package diagfmt

import (
	"fmt"
	"strings"
)

// Format selects how the CLI prints diagnostics.
type Format uint8

const (
	// FormatShort is the one-line text form of diag.FormatShort.
	FormatShort Format = iota
	FormatJSON
	FormatSarif
)

// ParseFormat parses a --diag-format value.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "short":
		return FormatShort, nil
	case "json":
		return FormatJSON, nil
	case "sarif":
		return FormatSarif, nil
	}
	return FormatShort, fmt.Errorf("unknown diagnostic format %q (expected short|json|sarif)", s)
}

// PathMode specifies how file paths are displayed.
type PathMode uint8

const (
	// PathModeAsIs prints the path the file was loaded under.
	PathModeAsIs PathMode = iota
	PathModeBasename
	// PathModeRelative prints paths relative to JSONOpts.BaseDir when
	// possible.
	PathModeRelative
)

// JSONOpts configures JSON output of diagnostics.
type JSONOpts struct {
	IncludePositions bool // добавить line/col
	PathMode         PathMode
	BaseDir          string
	Max              int // обрезка вывода, не Bag
	IncludeNotes     bool
}

// SarifRunMeta provides metadata for SARIF output.
type SarifRunMeta struct {
	ToolName       string
	ToolVersion    string
	InvocationArgs []string
}
