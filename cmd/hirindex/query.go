package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"hirindex/internal/driver"
	"hirindex/internal/hir"
	"hirindex/internal/source"
)

var queryCmd = &cobra.Command{
	Use:   "query",
	Short: "Run a single HIR query against one definition",
}

// defQuery answers one query for def and writes the result to w.
type defQuery func(w io.Writer, s *driver.Session, def hir.DefID)

func newQueryCmd(use, short string, run defQuery) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <crate.yaml> <def-path>",
		Short: short,
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, args[0], func(s *driver.Session) error {
				def, err := s.Resolve(args[1])
				if err != nil {
					return err
				}
				return s.Guard(func() { run(cmd.OutOrStdout(), s, def) })
			})
		},
	}
}

func init() {
	queryCmd.AddCommand(
		newQueryCmd("parent", "Print the node an owner hangs off", queryParent),
		newQueryCmd("attrs", "Print the attributes of every node of an owner", queryAttrs),
		newQueryCmd("args", "Print the parameter names of a function", queryArgs),
		newQueryCmd("kind", "Print the definition kind", queryKind),
		newQueryCmd("span", "Print the definition and head spans", querySpan),
	)
}

func queryParent(w io.Writer, s *driver.Session, def hir.DefID) {
	q := s.Query()
	defs := s.Crate().Defs
	id := q.HirOwnerParent(def)
	label := "-"
	if n, ok := s.Map().Find(id); ok {
		label = hir.NewPrinter(io.Discard, s.Crate()).Label(n)
	}
	fmt.Fprintf(w, "parent  %s@%d  %s\n", defs.DefPath(id.Owner), id.Local, label)
	fmt.Fprintf(w, "module  %s\n", defs.DefPath(q.ParentModuleFromDefID(def)))
}

func queryAttrs(w io.Writer, s *driver.Session, def hir.DefID) {
	attrs := s.Query().HirAttrs(def)
	p := hir.NewPrinter(io.Discard, s.Crate())
	for _, e := range attrs.Entries() {
		rendered := make([]string, len(e.Attrs))
		for i, a := range e.Attrs {
			rendered[i] = p.Attr(a)
		}
		fmt.Fprintf(w, "@%d %s\n", e.Local, strings.Join(rendered, " "))
	}
}

func queryArgs(w io.Writer, s *driver.Session, def hir.DefID) {
	names := s.Query().FnArgNames(def)
	for i, id := range names {
		name := s.Crate().Text(id)
		if name == "" {
			name = "_"
		}
		fmt.Fprintf(w, "%d %s\n", i, name)
	}
}

func queryKind(w io.Writer, s *driver.Session, def hir.DefID) {
	kind, ok := s.Query().OptDefKind(def)
	if !ok {
		fmt.Fprintln(w, "none")
		return
	}
	fmt.Fprintln(w, kind)
}

func querySpan(w io.Writer, s *driver.Session, def hir.DefID) {
	q := s.Query()
	files := s.Files
	pos := func(name string, id hir.DefID, span func(hir.DefID) source.Span) {
		sp := span(id)
		f := files.Get(sp.File)
		if f == nil {
			fmt.Fprintf(w, "%-6s <unknown>\n", name)
			return
		}
		start, end := files.Resolve(sp)
		fmt.Fprintf(w, "%-6s %s:%d:%d-%d:%d\n", name, f.Path, start.Line, start.Col, end.Line, end.Col)
	}
	pos("source", def, q.SourceSpan)
	pos("def", def, q.DefSpan)
	if expn := q.ExpnThatDefined(def); expn != hir.RootExpn {
		fmt.Fprintf(w, "expn   %d\n", expn)
	}
}
