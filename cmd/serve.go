package cmd

import (
	"moodtune/logger"
	"moodtune/server"

	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:     "serve",
	Aliases: []string{"server"},
	Short:   "启动moodtune服务器",
	Long:    `启动moodtune的HTTP服务器，提供认证、歌曲、媒体流和情绪预测API，并托管Web界面`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadRuntime()
		if err != nil {
			return err
		}
		defer logger.Sync()
		return server.Start(cfg)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}
