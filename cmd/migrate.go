package cmd

import (
	"fmt"

	"moodtune/db"
	"moodtune/logger"

	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "创建或更新数据库表结构",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadRuntime()
		if err != nil {
			return err
		}
		defer logger.Sync()

		gdb, err := db.Open(cfg)
		if err != nil {
			return err
		}
		defer db.Close(gdb)

		if err := db.Migrate(gdb); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "数据库 %s 迁移完成\n", cfg.DBName)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}
