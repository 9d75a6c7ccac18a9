package cmd

import "github.com/spf13/cobra"

var dbResetCmd = &cobra.Command{
	Use:   "db-reset",
	Short: "Empty the database and restore the default row set",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := loadConfig()
		db := openStore(cfg, "db-reset")
		return db.Reset()
	},
}

func init() {
	rootCmd.AddCommand(dbResetCmd)
}
