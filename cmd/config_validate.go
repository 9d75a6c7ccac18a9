package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"ivxv.ee/collector-admin/core/commandfile"
)

var (
	configValidateType string
	configValidateFile string
)

var configValidateCmd = &cobra.Command{
	Use:   "config-validate",
	Short: "Validate a command artifact's payload without registering it",
	RunE: func(cmd *cobra.Command, args []string) error {
		t := commandfile.Type(configValidateType)
		if !commandfile.Valid(t) {
			return fmt.Errorf("unknown command type %q", configValidateType)
		}
		_, raw, err := commandfile.ExtractPayload(t, configValidateFile)
		if err != nil {
			return err
		}
		if _, err := commandfile.ParseAndValidate(t, raw); err != nil {
			return err
		}
		fmt.Println("OK")
		return nil
	},
}

func init() {
	configValidateCmd.Flags().StringVar(&configValidateType, "type", "", "command type to validate")
	configValidateCmd.Flags().StringVar(&configValidateFile, "file", "", "path to the command container")
	configValidateCmd.MarkFlagRequired("type")
	configValidateCmd.MarkFlagRequired("file")
	rootCmd.AddCommand(configValidateCmd)
}
