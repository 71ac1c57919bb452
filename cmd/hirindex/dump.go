package main

import (
	"bufio"
	"fmt"

	"github.com/spf13/cobra"

	"hirindex/internal/driver"
	"hirindex/internal/hir"
)

var dumpCmd = &cobra.Command{
	Use:   "dump <crate.yaml> [def-path]",
	Short: "Print the indexed nodes of every owner, or of one",
	Args:  cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSession(cmd, args[0], func(s *driver.Session) error {
			defs := s.Crate().OwnerDefs()
			if len(args) == 2 {
				def, err := s.Resolve(args[1])
				if err != nil {
					return err
				}
				defs = []hir.DefID{def}
			}

			w := bufio.NewWriter(cmd.OutOrStdout())
			defer w.Flush()
			p := hir.NewPrinter(w, s.Crate())
			var printErr error
			err := s.Guard(func() {
				for i, def := range defs {
					ix, ok := s.Query().IndexHir(def)
					if !ok {
						fmt.Fprintf(w, "%s: not an owner\n", s.Crate().Defs.DefPath(def))
						continue
					}
					if i > 0 {
						fmt.Fprintln(w)
					}
					if printErr = p.PrintOwner(def, ix); printErr != nil {
						return
					}
				}
			})
			if err != nil {
				return err
			}
			return printErr
		})
	},
}
