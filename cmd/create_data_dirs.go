package cmd

import "github.com/spf13/cobra"

var createDataDirsCmd = &cobra.Command{
	Use:   "create-data-dirs",
	Short: "Create the IVXV_ADMIN_DATA_PATH directory layout",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := loadConfig()
		return cfg.CreateDataDirs()
	},
}

func init() {
	rootCmd.AddCommand(createDataDirsCmd)
}
