package diag

import (
	"fmt"
	"strings"

	"hirindex/internal/source"
)

// FormatShort renders diagnostics one per line as
// "path:line:col: SEVERITY ID message", followed by indented notes.
// Diagnostics without a location print "<unknown>" instead of a position.
func FormatShort(diags []Diagnostic, fs *source.FileSet, withNotes bool) string {
	var sb strings.Builder
	for _, d := range diags {
		sb.WriteString(position(fs, d.Primary))
		fmt.Fprintf(&sb, ": %s %s %s\n", d.Severity, d.Code.ID(), d.Message)
		if !withNotes {
			continue
		}
		for _, n := range d.Notes {
			fmt.Fprintf(&sb, "    note: %s: %s\n", position(fs, n.Span), n.Msg)
		}
	}
	return sb.String()
}

func position(fs *source.FileSet, sp source.Span) string {
	f := fs.Get(sp.File)
	if f == nil {
		return "<unknown>"
	}
	start, _ := fs.Resolve(sp)
	return fmt.Sprintf("%s:%d:%d", f.Path, start.Line, start.Col)
}
