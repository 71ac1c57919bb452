package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"hirindex/internal/driver"
)

var hashShort bool

func init() {
	hashCmd.Flags().BoolVar(&hashShort, "short", false, "print the abbreviated hash")
}

var hashCmd = &cobra.Command{
	Use:   "hash <crate.yaml>",
	Short: "Print the crate fingerprint",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSession(cmd, args[0], func(s *driver.Session) error {
			fp, err := s.CrateHash()
			if err != nil {
				return err
			}
			if hashShort {
				fmt.Fprintln(cmd.OutOrStdout(), fp.Short())
			} else {
				fmt.Fprintln(cmd.OutOrStdout(), fp.Hex())
			}
			return nil
		})
	},
}
