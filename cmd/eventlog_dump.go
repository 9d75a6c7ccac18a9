package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var eventlogDumpCmd = &cobra.Command{
	Use:   "eventlog-dump",
	Short: "Print every recorded event as a JSON array",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := loadConfig()
		events := openEvents(cfg)
		entries, err := events.Dump()
		if err != nil {
			return err
		}
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(entries); err != nil {
			return err
		}
		fmt.Fprintf(os.Stderr, "%d events\n", len(entries))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(eventlogDumpCmd)
}
