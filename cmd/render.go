package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"trackviz/core/chart"
	"trackviz/logger"
	"trackviz/storage"
)

var (
	renderOut      string
	renderUpload   bool
	renderCommands []string
)

var renderCmd = &cobra.Command{
	Use:   "render",
	Short: "把三张图表渲染为 SVG 文件",
	Long: `加载数据集并把散点图、直方图和调式双柱图写成 SVG 文件。
--command 可以多次指定，按顺序先执行重绘命令再输出，输出的 SVG 包含最后一次过渡动画。`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		store, closeStore, err := openStore(ctx, cfg)
		if err != nil {
			return err
		}
		defer closeStore()

		board, err := chart.NewBoard(store.Current().Tracks)
		if err != nil {
			return err
		}
		for _, name := range renderCommands {
			c, err := chart.LookupCommand(name)
			if err != nil {
				return err
			}
			if _, err := board.Dispatch(c); err != nil {
				return err
			}
		}

		if err := os.MkdirAll(renderOut, 0755); err != nil {
			return fmt.Errorf("failed to create %s: %w", renderOut, err)
		}

		var snapshots storage.SnapshotStore
		if renderUpload {
			if snapshots, err = storage.NewMinioSnapshotStore(ctx, cfg); err != nil {
				return err
			}
		}

		for _, kind := range chart.ChartKinds {
			path := filepath.Join(renderOut, string(kind)+".svg")
			if err := writeChart(board, kind, path); err != nil {
				return err
			}
			fmt.Println(path)

			if snapshots != nil {
				body, err := os.ReadFile(path)
				if err != nil {
					return err
				}
				id := uuid.NewString()
				if err := snapshots.Put(ctx, id, string(kind), body); err != nil {
					return err
				}
				fmt.Printf("  uploaded as %s\n", storage.ObjectName(id))
			}
		}
		return nil
	},
}

func writeChart(board *chart.Board, kind chart.ChartKind, path string) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()
	if err := board.Render(kind, f); err != nil {
		return err
	}
	logger.Debug("chart written", logger.String("chart", string(kind)), logger.String("path", path))
	return nil
}

func init() {
	rootCmd.AddCommand(renderCmd)

	renderCmd.Flags().StringVarP(&renderOut, "out", "o", "out", "输出目录")
	renderCmd.Flags().BoolVarP(&renderUpload, "upload", "u", false, "同时上传到 MinIO")
	renderCmd.Flags().StringSliceVarP(&renderCommands, "command", "c", nil, "渲染前执行的重绘命令，例如 loudnessBar")

	renderCmd.Example = `  # 输出初始图表
  trackviz render -o out

  # 先切换到响度，再输出并上传
  trackviz render -c loudnessScatter -c loudnessBar -u`
}
