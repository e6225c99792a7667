package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"trackviz/storage"
)

var minioPrefix string

var minioCmd = &cobra.Command{
	Use:   "minio",
	Short: "列出 MinIO 中的图表快照",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		fmt.Printf("MinIO配置: %s, Bucket: %s\n", cfg.MinioEndpoint, cfg.MinioBucket)

		store, err := storage.NewMinioSnapshotStore(ctx, cfg)
		if err != nil {
			return fmt.Errorf("无法连接到MinIO: %w", err)
		}
		objects, err := store.List(ctx, minioPrefix)
		if err != nil {
			return err
		}

		t := table.NewWriter()
		t.SetOutputMirror(os.Stdout)
		t.SetStyle(table.StyleLight)
		t.AppendHeader(table.Row{"Key", "Chart", "Size", "Modified"})
		var total int64
		for _, o := range objects {
			t.AppendRow(table.Row{o.Key, o.Chart, humanize.Bytes(uint64(o.Size)), humanize.Time(o.LastModified)})
			total += o.Size
		}
		t.AppendFooter(table.Row{fmt.Sprintf("%d objects", len(objects)), "", humanize.Bytes(uint64(total)), ""})
		t.Render()
		return nil
	},
}

func init() {
	rootCmd.AddCommand(minioCmd)

	minioCmd.Flags().StringVarP(&minioPrefix, "prefix", "p", "", "按前缀过滤快照，相对于 snapshots/")

	minioCmd.Example = `  # 列出所有快照
  trackviz minio

  # 按前缀过滤
  trackviz minio -p "3f2a"`
}
