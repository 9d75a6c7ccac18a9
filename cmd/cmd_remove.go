package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"ivxv.ee/collector-admin/core/commandfile"
	"ivxv.ee/collector-admin/core/dbkey"
)

var (
	cmdRemoveType      string
	cmdRemoveChangeset int
)

// cmdRemoveCmd undoes a registered-but-not-yet-applied command: it drops
// the active-directory symlink and, for voter-list changesets, the topmost
// PENDING registration. It refuses a voter-list changeset that is not
// PENDING or has a later changeset registered after it; configuration and
// other list registrations are removed without checking whether they were
// applied.
var cmdRemoveCmd = &cobra.Command{
	Use:   "cmd-remove",
	Short: "Remove a pending, not-yet-applied command registration",
	RunE: func(cmd *cobra.Command, args []string) error {
		t := commandfile.Type(cmdRemoveType)
		if !commandfile.Valid(t) {
			return fmt.Errorf("unknown command type %q", cmdRemoveType)
		}
		cfg := loadConfig()
		db := openStore(cfg, "cmd-remove")

		if t == commandfile.TypeVoters {
			stateKey := dbkey.VoterList(cmdRemoveChangeset, "state")
			state, ok, err := db.Get(stateKey)
			if err != nil {
				return err
			}
			if !ok {
				return fmt.Errorf("voters changeset %04d is not registered", cmdRemoveChangeset)
			}
			if state != "PENDING" {
				return fmt.Errorf("voters changeset %04d is %s, only a PENDING changeset can be removed", cmdRemoveChangeset, state)
			}
			if _, later, err := db.Get(dbkey.VoterList(cmdRemoveChangeset+1, "state")); err != nil {
				return err
			} else if later {
				return fmt.Errorf("voters changeset %04d is not the topmost registration, cannot remove", cmdRemoveChangeset)
			}
			if err := db.Delete(stateKey); err != nil {
				return err
			}
			if err := db.Delete(dbkey.VoterList(cmdRemoveChangeset, "")); err != nil {
				return err
			}
		} else if commandfile.IsCfgType(t) {
			if err := db.Delete(dbkey.Config(string(t))); err != nil {
				return err
			}
		} else {
			if err := db.Delete("list/" + string(t)); err != nil {
				return err
			}
			if err := db.Delete("list/" + string(t) + "-loaded"); err != nil {
				return err
			}
		}

		active := commandfile.ActivePath(cfg.Paths.Active, t, cmdRemoveChangeset)
		if err := os.Remove(active); err != nil && !os.IsNotExist(err) {
			return err
		}
		fmt.Printf("removed %s registration\n", t)
		return nil
	},
}

func init() {
	cmdRemoveCmd.Flags().StringVar(&cmdRemoveType, "type", "", "command type to remove")
	cmdRemoveCmd.Flags().IntVar(&cmdRemoveChangeset, "changeset", 0, "voter-list changeset number (type=voters only)")
	cmdRemoveCmd.MarkFlagRequired("type")
	rootCmd.AddCommand(cmdRemoveCmd)
}
