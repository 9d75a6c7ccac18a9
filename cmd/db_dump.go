package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

var dbDumpCmd = &cobra.Command{
	Use:   "db-dump",
	Short: "Print the entire management database as JSON",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := loadConfig()
		db := openStore(cfg, "db-dump")
		rows, err := db.All("")
		if err != nil {
			return err
		}
		b, err := json.MarshalIndent(rows, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(b))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(dbDumpCmd)
}
