package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var dbCmd = &cobra.Command{
	Use:   "db",
	Short: "Read or write individual management database keys",
}

var dbGetCmd = &cobra.Command{
	Use:   "get <key>",
	Short: "Print one database key's value",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := loadConfig()
		db := openStore(cfg, "db")
		val, ok, err := db.Get(args[0])
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("key %q is not set", args[0])
		}
		fmt.Println(val)
		return nil
	},
}

var dbSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set one database key's value",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := loadConfig()
		db := openStore(cfg, "db")
		return db.Set(args[0], args[1])
	},
}

var dbDeleteCmd = &cobra.Command{
	Use:   "delete <key>",
	Short: "Delete one database key",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := loadConfig()
		db := openStore(cfg, "db")
		return db.Delete(args[0])
	},
}

var dbKeysCmd = &cobra.Command{
	Use:   "keys",
	Short: "List every database key",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := loadConfig()
		db := openStore(cfg, "db")
		keys, err := db.Keys()
		if err != nil {
			return err
		}
		for _, k := range keys {
			fmt.Println(k)
		}
		return nil
	},
}

func init() {
	dbCmd.AddCommand(dbGetCmd, dbSetCmd, dbDeleteCmd, dbKeysCmd)
	rootCmd.AddCommand(dbCmd)
}
