package cmd

import (
	"fmt"
	"strconv"

	"moodtune/storage"

	"github.com/spf13/cobra"
)

var (
	minioPrefix string
	minioStats  bool
)

var minioCmd = &cobra.Command{
	Use:   "minio",
	Short: "MinIO存储桶管理",
	Long:  `查看MinIO存储桶中保存的歌曲音频和封面，支持按前缀过滤和统计信息。`,
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		cfg, err := loadRuntime()
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "MinIO配置: %s, Bucket: %s\n", cfg.MinioEndpoint, cfg.MinioBucket)

		client, err := storage.NewMinioClient(cfg)
		if err != nil {
			return fmt.Errorf("创建MinIO客户端失败: %w", err)
		}

		objects, stats, err := storage.ListBucketObjects(cmd.Context(), client, cfg.MinioBucket, minioPrefix)
		if err != nil {
			return fmt.Errorf("列出文件失败: %w", err)
		}

		if minioStats {
			last := "-"
			if !stats.LastModified.IsZero() {
				last = stats.LastModified.Local().Format("2006-01-02 15:04:05")
			}
			fmt.Fprintln(out, renderTable(
				[]string{"Objects", "Songs", "Size", "Last Modified"},
				[][]string{{strconv.FormatInt(stats.TotalObjects, 10), strconv.Itoa(stats.SongCount), formatBytes(stats.TotalSize), last}},
				[]columnAlignment{alignRight, alignRight, alignRight, alignLeft},
			))
			return nil
		}

		if len(objects) == 0 {
			fmt.Fprintln(out, "存储桶中没有匹配的文件")
			return nil
		}
		rows := make([][]string, 0, len(objects))
		for _, o := range objects {
			rows = append(rows, []string{o.Key, formatBytes(o.Size), o.ContentType, o.LastModified.Local().Format("2006-01-02 15:04:05")})
		}
		fmt.Fprintln(out, renderTable(
			[]string{"Key", "Size", "Type", "Last Modified"},
			rows,
			[]columnAlignment{alignLeft, alignRight, alignLeft, alignLeft},
		))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(minioCmd)

	// flags
	minioCmd.Flags().StringVarP(&minioPrefix, "prefix", "p", "", "按前缀过滤文件，例如 songs/<id>/")
	minioCmd.Flags().BoolVarP(&minioStats, "stats", "s", false, "显示存储桶统计信息")

	minioCmd.Example = `  # 列出所有文件
  moodtune minio

  # 只看一首歌
  moodtune minio -p "songs/5f0c.../"

  # 显示存储桶统计信息
  moodtune minio -s`
}
