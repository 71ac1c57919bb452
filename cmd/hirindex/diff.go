package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"hirindex/internal/driver"
)

var diffDryRun bool

func init() {
	diffCmd.Flags().BoolVar(&diffDryRun, "dry-run", false, "compare without storing the new fingerprints")
}

var diffCmd = &cobra.Command{
	Use:   "diff <crate.yaml>",
	Short: "Report owners whose fingerprints changed since the last run",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSession(cmd, args[0], func(s *driver.Session) error {
			c := openCache(s)
			if c == nil {
				return errors.New("diff needs the fingerprint cache (remove --no-cache)")
			}
			prev, ok, err := c.Get(s.Crate().Name)
			if err != nil {
				return fmt.Errorf("read fingerprints: %w", err)
			}
			if !ok {
				prev = nil
			}

			owners, err := s.IndexAll(cmd.Context())
			if err != nil {
				return err
			}
			fp, err := s.CrateHash()
			if err != nil {
				return err
			}
			cur := driver.NewSnapshot(s.ID.String(), s.Crate().Name, s.Config.Hashing.Spans, fp, owners)
			rep := driver.Diff(prev, cur)

			out := cmd.OutOrStdout()
			if prev == nil {
				fmt.Fprintf(out, "no previous fingerprints for %s\n", s.Crate().Name)
			}
			if rep.Incomparable {
				fmt.Fprintln(out, warningColor.Sprint("span hashing changed since the last run; every owner differs"))
			}
			for _, ch := range rep.Changes {
				fmt.Fprintf(out, "%s %s\n", changeColor(ch.Kind).Sprintf("%-9s", ch.Kind), ch.Path)
			}
			if rep.Empty() {
				fmt.Fprintf(out, "crate %s unchanged (%d owners)\n", s.Crate().Name, rep.Unchanged)
			} else {
				fmt.Fprintf(out, "%d added, %d removed, %d changed, %d signature, %d unchanged\n",
					rep.Count(driver.Added), rep.Count(driver.Removed), rep.Count(driver.Changed),
					rep.Count(driver.SignatureChanged), rep.Unchanged)
			}

			if diffDryRun {
				return nil
			}
			if err := c.Put(cur); err != nil {
				return fmt.Errorf("store fingerprints: %w", err)
			}
			return nil
		})
	},
}
