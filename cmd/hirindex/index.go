package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"hirindex/internal/driver"
)

var (
	indexUI     string
	indexNoSave bool
)

func init() {
	indexCmd.Flags().StringVar(&indexUI, "ui", "auto", "progress view (auto|on|off)")
	indexCmd.Flags().BoolVar(&indexNoSave, "no-save", false, "do not store the fingerprints for the next diff")
}

var indexCmd = &cobra.Command{
	Use:   "index <crate.yaml>",
	Short: "Index every owner and print its fingerprints",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		mode, err := readUIMode(indexUI)
		if err != nil {
			return err
		}
		return withSession(cmd, args[0], func(s *driver.Session) error {
			quiet, _ := cmd.Flags().GetBool("quiet")
			var owners []driver.OwnerSummary
			if !quiet && shouldUseTUI(mode) {
				owners, err = runIndexWithUI(cmd.Context(), s)
			} else {
				owners, err = s.IndexAll(cmd.Context())
			}
			if err != nil {
				return err
			}
			fp, err := s.CrateHash()
			if err != nil {
				return err
			}

			t := newTable("DEF PATH", "KIND", "NODES", "HASH", "NODE HASH", "PARENT")
			for _, o := range owners {
				parent := "-"
				if o.Def != o.Parent.Owner || !o.Parent.IsOwner() {
					parent = s.Crate().Defs.DefPath(o.Parent.Owner) + "@" + strconv.FormatUint(uint64(o.Parent.Local), 10)
				}
				t.add(o.Path, o.Kind.String(), strconv.Itoa(o.Nodes), o.Hash.Short(), o.NodeHash.Short(), parent)
			}
			if err := t.write(cmd.OutOrStdout()); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "\ncrate %s %s\n", s.Crate().Name, fp.Hex())

			if indexNoSave {
				return nil
			}
			if c := openCache(s); c != nil {
				snap := driver.NewSnapshot(s.ID.String(), s.Crate().Name, s.Config.Hashing.Spans, fp, owners)
				if err := c.Put(snap); err != nil {
					return fmt.Errorf("store fingerprints: %w", err)
				}
			}
			return nil
		})
	},
}
