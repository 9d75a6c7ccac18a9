package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"ivxv.ee/collector-admin/core/ballotbox"
)

var exportVotesConsolidated bool

var exportVotesCmd = &cobra.Command{
	Use:   "export-votes",
	Short: "Export the collected ballot box to a ZIP bundle for the downstream processor",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := loadConfig()
		binary := "ivxv-votes-export"
		if exportVotesConsolidated {
			binary = "ivxv-votes-export-consolidated"
		}
		exporter := &ballotbox.Exporter{Dir: cfg.Paths.BallotBox, Binary: binary}
		filename, err := exporter.Start()
		if err != nil {
			return err
		}
		for {
			state, err := exporter.State()
			if err != nil {
				return err
			}
			if !state.Running {
				fmt.Println(state.Log)
				break
			}
			time.Sleep(1 * time.Second)
		}
		fmt.Printf("exported to %s\n", filename)
		return nil
	},
}

func init() {
	exportVotesCmd.Flags().BoolVar(&exportVotesConsolidated, "consolidated", false, "produce the consolidated (deduplicated) ballot box")
	rootCmd.AddCommand(exportVotesCmd)
}
