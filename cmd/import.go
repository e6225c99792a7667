package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"trackviz/core/dataset"
	"trackviz/db"
	"trackviz/logger"
	"trackviz/repository"
)

var importCSV string

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "把 CSV 数据集导入数据库",
	Long:  `读取 CSV 数据集并替换数据库中的全部曲目，之后可以用 DATA_SOURCE=db 启动服务器。`,
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		path := importCSV
		if path == "" {
			path = cfg.DataPath
		}
		tracks, err := dataset.ReadCSVFile(path)
		if err != nil {
			return err
		}

		gdb, err := db.Open(cfg)
		if err != nil {
			return err
		}
		defer func() {
			if err := db.Close(gdb); err != nil {
				logger.Warn("failed to close database", logger.ErrorField(err))
			}
		}()

		n, err := repository.NewGormTrackRepository(gdb).ReplaceAll(context.Background(), tracks)
		if err != nil {
			return err
		}
		fmt.Printf("imported %d tracks from %s (%d rows read)\n", n, path, len(tracks))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(importCmd)
	importCmd.Flags().StringVar(&importCSV, "csv", "", "CSV 文件路径，默认使用 DATA_PATH")
}
