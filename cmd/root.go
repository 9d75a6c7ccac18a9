// Package cmd implements C9, the thin CLI surface enumerated in spec.md
// §4.9: every subcommand here does nothing but parse flags, build the
// component(s) it needs out of core/rawconfig's path layout, and call
// straight into C1-C8. It follows the teacher's cobra-generator layout
// (one file per subcommand, a package-level *cobra.Command wired into its
// parent from an init()), in place of the teacher's opensvc-specific
// object/selector command framework, which has no equivalent in this
// system's single-flat-database domain.
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "ivxv-admin",
	Short: "IVXV collector management control plane",
	Long: `ivxv-admin is the control-plane CLI for a distributed internet-voting
collector fleet: it loads signed command artifacts, drives the management
database, and pushes configuration and voter lists out to the fleet over
SSH.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command, exiting 1 on any failure per spec.md §6
// "CLI exit codes: 0 success; 1 any validation, signature, or
// remote-execution failure."
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
