package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"ivxv.ee/collector-admin/core/commandfile"
)

var (
	cmdLoadType      string
	cmdLoadFile      string
	cmdLoadAutoapply bool
)

var cmdLoadCmd = &cobra.Command{
	Use:   "cmd-load",
	Short: "Verify, validate, and register a signed command artifact",
	RunE: func(cmd *cobra.Command, args []string) error {
		t := commandfile.Type(cmdLoadType)
		if !commandfile.Valid(t) {
			return fmt.Errorf("unknown command type %q", cmdLoadType)
		}
		cfg := loadConfig()
		db := openStore(cfg, "cmd-load")
		events := openEvents(cfg)
		loader := newLoader(cfg, db, events)

		result, err := loader.Load(context.Background(), t, cmdLoadFile, cmdLoadAutoapply, false)
		if err != nil {
			return err
		}
		fmt.Printf("loaded %s version %q\n", t, result.Version)
		return nil
	},
}

func init() {
	cmdLoadCmd.Flags().StringVar(&cmdLoadType, "type", "", "command type (trust|technical|election|choices|districts|voters|user)")
	cmdLoadCmd.Flags().StringVar(&cmdLoadFile, "file", "", "path to the signed command container")
	cmdLoadCmd.Flags().BoolVar(&cmdLoadAutoapply, "autoapply", false, "let the agent loop apply this command automatically once loaded")
	cmdLoadCmd.MarkFlagRequired("type")
	cmdLoadCmd.MarkFlagRequired("file")
	rootCmd.AddCommand(cmdLoadCmd)
}
