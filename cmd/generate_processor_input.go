package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"ivxv.ee/collector-admin/core/processorinput"
)

var generateProcessorInputOut string

var generateProcessorInputCmd = &cobra.Command{
	Use:   "generate-processor-input",
	Short: "Build the input ZIP bundle for the downstream vote-counting processor",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := loadConfig()
		db := openStore(cfg, "generate-processor-input")
		builder := &processorinput.Builder{DB: db, ActiveDir: cfg.Paths.Active}

		f, err := os.Create(generateProcessorInputOut)
		if err != nil {
			return err
		}
		defer f.Close()
		if err := builder.Build(f); err != nil {
			return err
		}
		fmt.Printf("wrote %s\n", generateProcessorInputOut)
		return nil
	},
}

func init() {
	generateProcessorInputCmd.Flags().StringVar(&generateProcessorInputOut, "out", "processor-input.zip", "output ZIP path")
	rootCmd.AddCommand(generateProcessorInputCmd)
}
