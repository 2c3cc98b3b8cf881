package cmd

import (
	"context"
	"fmt"
	"time"

	"moodtune/db"

	"github.com/spf13/cobra"
)

var redisCmd = &cobra.Command{
	Use:   "redis",
	Short: "Redis连接测试",
	Long:  `测试预测缓存使用的Redis连接是否成功，并进行基本读写操作。`,
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		fmt.Fprintln(out, "开始测试Redis连接...")

		cfg, err := loadRuntime()
		if err != nil {
			return err
		}
		if !cfg.RedisEnabled() {
			return fmt.Errorf("REDIS_HOST is not set")
		}
		fmt.Fprintf(out, "Redis配置: %s:%s, DB: %d\n", cfg.RedisHost, cfg.RedisPort, cfg.RedisDB)

		client, err := db.ConnectRedis(cfg)
		if err != nil {
			return fmt.Errorf("无法连接到Redis: %w", err)
		}
		defer client.Close()
		fmt.Fprintln(out, "Redis连接成功！")

		fmt.Fprintln(out, "开始测试Redis基本操作...")
		ctx, cancel := context.WithTimeout(cmd.Context(), 5*time.Second)
		defer cancel()
		if err := db.CheckRedis(ctx, client); err != nil {
			return fmt.Errorf("Redis操作测试失败: %w", err)
		}
		fmt.Fprintln(out, "Redis基本操作测试成功！")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(redisCmd)
}
