package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"hirindex/internal/driver"
)

var manifestOut string

func init() {
	manifestCmd.Flags().StringVarP(&manifestOut, "output", "o", "", "write the manifest to a file instead of stdout")
}

var manifestCmd = &cobra.Command{
	Use:   "manifest <crate.yaml>",
	Short: "Write the crate fingerprints as canonical CBOR",
	Long: `manifest indexes the crate and writes one canonical CBOR document with the
crate hash and every owner fingerprint. Equal crates produce byte-identical
manifests.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSession(cmd, args[0], func(s *driver.Session) error {
			owners, err := s.IndexAll(cmd.Context())
			if err != nil {
				return err
			}
			fp, err := s.CrateHash()
			if err != nil {
				return err
			}
			snap := driver.NewSnapshot(s.ID.String(), s.Crate().Name, s.Config.Hashing.Spans, fp, owners)

			var w io.Writer = cmd.OutOrStdout()
			if manifestOut != "" {
				f, err := os.Create(manifestOut)
				if err != nil {
					return fmt.Errorf("create manifest: %w", err)
				}
				defer f.Close()
				w = f
			}
			return driver.WriteManifest(w, snap)
		})
	},
}
