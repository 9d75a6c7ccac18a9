package cmd

import (
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"ivxv.ee/collector-admin/core/dbkey"
)

var usersListCmd = &cobra.Command{
	Use:   "users-list",
	Short: "List every registered user and their roles",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := loadConfig()
		db := openStore(cfg, "users-list")
		rows, err := db.All("user/")
		if err != nil {
			return err
		}
		var cns []string
		for k := range rows {
			cns = append(cns, dbkey.Parse(k).Name)
		}
		sort.Strings(cns)
		for _, cn := range cns {
			roles := rows[dbkey.User(cn)]
			if roles == "" {
				roles = "none"
			}
			fmt.Printf("%s\t%s\n", cn, strings.ReplaceAll(roles, ",", ", "))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(usersListCmd)
}
