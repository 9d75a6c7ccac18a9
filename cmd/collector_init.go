package cmd

import "github.com/spf13/cobra"

var collectorInitCmd = &cobra.Command{
	Use:   "collector-init",
	Short: "Reset the management database to its default row set and initialize the event log",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := loadConfig()
		db := openStore(cfg, "collector-init")
		if err := db.Reset(); err != nil {
			return err
		}
		events := openEvents(cfg)
		return events.Init()
	},
}

func init() {
	rootCmd.AddCommand(collectorInitCmd)
}
