package main

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"hirindex/internal/bug"
	"hirindex/internal/driver"
	"hirindex/internal/hir"
)

var itemsCmd = &cobra.Command{
	Use:   "items <crate.yaml>",
	Short: "List the definitions of every module",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSession(cmd, args[0], func(s *driver.Session) error {
			m := s.Map()
			var mods []hir.DefID
			if err := s.Guard(func() { mods = m.Modules() }); err != nil {
				return err
			}

			// modules render in parallel and print in DefID order
			var mu sync.Mutex
			blocks := make(map[hir.DefID]string, len(mods))
			err := m.ParForEachModule(cmd.Context(), s.Config.Jobs(), func(_ context.Context, mod hir.DefID) error {
				var block string
				if ice := bug.Catch(func() { block = renderModule(s, mod) }); ice != nil {
					return ice
				}
				mu.Lock()
				blocks[mod] = block
				mu.Unlock()
				return nil
			})
			if err != nil {
				var ice *bug.ICE
				if errors.As(err, &ice) {
					s.ReportICE(ice)
				}
				return err
			}
			for _, mod := range mods {
				fmt.Fprint(cmd.OutOrStdout(), blocks[mod])
			}
			return nil
		})
	},
}

func renderModule(s *driver.Session, mod hir.DefID) string {
	defs := s.Crate().Defs
	mi := s.Query().HirModuleItems(mod)

	var sb strings.Builder
	fmt.Fprintf(&sb, "%s\n", defs.DefPath(mod))
	section := func(name string, ids []hir.DefID) {
		if len(ids) == 0 {
			return
		}
		fmt.Fprintf(&sb, "  %s:\n", name)
		for _, id := range ids {
			kind, _ := defs.OptDefKind(id)
			fmt.Fprintf(&sb, "    %-12s %s\n", kind, defs.DefPath(id))
		}
	}
	section("submodules", mi.Submodules)
	section("items", mi.Items)
	section("trait items", mi.TraitItems)
	section("impl items", mi.ImplItems)
	section("foreign items", mi.ForeignItems)
	return sb.String()
}
