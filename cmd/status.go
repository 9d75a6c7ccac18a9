package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"ivxv.ee/collector-admin/core/collstate"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Generate the collector status snapshot and print/refresh status.json",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := loadConfig()
		db := openStore(cfg, "status")
		rows, err := db.All("")
		if err != nil {
			return err
		}
		snap, err := collstate.Generate(time.Now().UTC(), rows, cfg.Paths.Commands, cfg.Paths.DebPkg)
		if err != nil {
			return err
		}
		b, err := json.MarshalIndent(snap, "", "  ")
		if err != nil {
			return err
		}
		if err := os.WriteFile(filepath.Join(cfg.Paths.AdminUIData, "status.json"), b, 0o640); err != nil {
			return err
		}
		fmt.Println(string(b))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(statusCmd)
}
