package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"ivxv.ee/collector-admin/core/commandfile"
)

var (
	voterListDownloadChangeset int
	voterListDownloadOut       string
)

var voterListDownloadCmd = &cobra.Command{
	Use:   "voter-list-download",
	Short: "Copy the active command container for a loaded voter changeset to a local file",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := loadConfig()
		path := commandfile.ActivePath(cfg.Paths.Active, commandfile.TypeVoters, voterListDownloadChangeset)
		src, err := os.Open(path)
		if err != nil {
			return fmt.Errorf("changeset %04d is not currently active: %w", voterListDownloadChangeset, err)
		}
		defer src.Close()
		dst, err := os.Create(voterListDownloadOut)
		if err != nil {
			return err
		}
		defer dst.Close()
		if _, err := io.Copy(dst, src); err != nil {
			return err
		}
		fmt.Printf("wrote %s\n", voterListDownloadOut)
		return nil
	},
}

func init() {
	voterListDownloadCmd.Flags().IntVar(&voterListDownloadChangeset, "changeset", 0, "voter list changeset number")
	voterListDownloadCmd.Flags().StringVar(&voterListDownloadOut, "out", "voters.zip", "output path")
	rootCmd.AddCommand(voterListDownloadCmd)
}
