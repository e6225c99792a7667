package cmd

import (
	"context"
	"os"
	"strconv"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"trackviz/core/chart"
	"trackviz/core/histogram"
	"trackviz/model"
)

var (
	bucketsField string
	bucketsWidth float64
)

var bucketsCmd = &cobra.Command{
	Use:   "buckets",
	Short: "按字段和宽度打印直方图分组",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		field, err := model.ParseField(bucketsField)
		if err != nil {
			return err
		}
		if err := (chart.Command{Chart: chart.ChartBar, Field: field, Width: bucketsWidth}).Validate(); err != nil {
			return err
		}

		store, closeStore, err := openStore(context.Background(), cfg)
		if err != nil {
			return err
		}
		defer closeStore()

		tracks := store.Current().Tracks
		if err := histogram.CheckWidth(tracks, field, bucketsWidth); err != nil {
			return err
		}
		buckets := histogram.GroupData(tracks, field, bucketsWidth)

		t := table.NewWriter()
		t.SetOutputMirror(os.Stdout)
		t.SetStyle(table.StyleLight)
		t.AppendHeader(table.Row{"Start", "End", "Count"})
		total := 0
		for _, b := range buckets {
			t.AppendRow(table.Row{fmtFloat(b.Start), fmtFloat(b.End), b.Count()})
			total += b.Count()
		}
		t.AppendFooter(table.Row{"", "Total", total})
		t.Render()
		return nil
	},
}

func fmtFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

func init() {
	rootCmd.AddCommand(bucketsCmd)

	bucketsCmd.Flags().StringVarP(&bucketsField, "field", "f", "tempo", "tempo, loudness or acousticness")
	bucketsCmd.Flags().Float64VarP(&bucketsWidth, "width", "w", 20, "bucket width")
}
