package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/fatih/color"
	"github.com/mattn/go-runewidth"
	"github.com/spf13/cobra"

	"hirindex/internal/diag"
	"hirindex/internal/driver"
)

var (
	errorColor   = color.New(color.FgRed, color.Bold)
	warningColor = color.New(color.FgYellow)
	infoColor    = color.New(color.FgCyan)
	addedColor   = color.New(color.FgGreen)
	removedColor = color.New(color.FgRed)
	changedColor = color.New(color.FgYellow)

	headerStyle = lipgloss.NewStyle().Bold(true).Underline(true)
	// useColor is decided once per run by setupColor.
	useColor = true
)

// setupColor applies --color. auto colors only when stdout is a terminal.
func setupColor(cmd *cobra.Command) error {
	mode, err := cmd.Flags().GetString("color")
	if err != nil {
		return fmt.Errorf("failed to get color flag: %w", err)
	}
	switch strings.ToLower(mode) {
	case "", "auto":
		useColor = isTerminal(os.Stdout)
	case "on":
		useColor = true
	case "off":
		useColor = false
	default:
		return fmt.Errorf("invalid --color value %q (expected auto|on|off)", mode)
	}
	color.NoColor = !useColor
	return nil
}

func severityColor(sev diag.Severity) *color.Color {
	switch sev {
	case diag.SevError:
		return errorColor
	case diag.SevWarning:
		return warningColor
	default:
		return infoColor
	}
}

func changeColor(k driver.ChangeKind) *color.Color {
	switch k {
	case driver.Added:
		return addedColor
	case driver.Removed:
		return removedColor
	default:
		return changedColor
	}
}

// table renders rows as left-aligned columns. Widths are measured in
// terminal cells so non-ASCII def paths line up.
type table struct {
	header []string
	rows   [][]string
}

func newTable(header ...string) *table { return &table{header: header} }

func (t *table) add(cells ...string) { t.rows = append(t.rows, cells) }

func (t *table) write(w io.Writer) error {
	widths := make([]int, len(t.header))
	for i, h := range t.header {
		widths[i] = runewidth.StringWidth(h)
	}
	for _, r := range t.rows {
		for i, c := range r {
			if i < len(widths) {
				widths[i] = max(widths[i], runewidth.StringWidth(c))
			}
		}
	}

	line := func(cells []string, style func(string) string) string {
		var sb strings.Builder
		for i, c := range cells {
			if i > 0 {
				sb.WriteString("  ")
			}
			cell := c
			if i < len(cells)-1 {
				cell = runewidth.FillRight(c, widths[i])
			}
			sb.WriteString(style(cell))
		}
		return strings.TrimRight(sb.String(), " ") + "\n"
	}

	plain := func(s string) string { return s }
	head := plain
	if useColor {
		head = func(s string) string { return headerStyle.Render(s) }
	}
	if _, err := io.WriteString(w, line(t.header, head)); err != nil {
		return err
	}
	for _, r := range t.rows {
		if _, err := io.WriteString(w, line(r, plain)); err != nil {
			return err
		}
	}
	return nil
}
