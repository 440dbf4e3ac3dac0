package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"chartboard/internal/exporter"
	"chartboard/internal/util"
)

var (
	exportFormat string
	exportOut    string
	exportOpen   bool
)

var exportCmd = &cobra.Command{
	Use:   "export <dashboard-id>",
	Short: "Export a persisted dashboard as png, pdf or xlsx",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		format, err := exporter.ParseFormat(exportFormat)
		if err != nil {
			return err
		}

		a, err := openApp(cfg, false, logger)
		if err != nil {
			return err
		}
		defer a.Close()

		exp := exporter.NewExporter(a.dashboards, exporter.Options{
			PixelRatio:    cfg.Export.PixelRatio,
			CanvasWidth:   cfg.Export.CanvasWidth,
			CanvasHeight:  cfg.Export.CanvasHeight,
			MaxCanvasSide: cfg.Export.MaxCanvasSide,
		}, logger)
		art, err := exp.Export(args[0], format, nil)
		if err != nil {
			return err
		}

		out := exportOut
		if out == "" {
			out = art.FileName
		}
		if err := os.WriteFile(out, art.Data, 0644); err != nil {
			return fmt.Errorf("write %s: %w", out, err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Exported %s (%d bytes)\n", out, len(art.Data))

		if exportOpen {
			if err := util.Open(out); err != nil {
				fmt.Fprintf(cmd.ErrOrStderr(), "无法打开 %s: %v\n", out, err)
			}
		}
		return nil
	},
}

func init() {
	exportCmd.Flags().StringVar(&exportFormat, "format", "png", "导出格式: png|pdf|xlsx")
	exportCmd.Flags().StringVar(&exportOut, "out", "", "输出文件路径（默认 dashboard-<id>.<ext>）")
	exportCmd.Flags().BoolVar(&exportOpen, "open", false, "导出后用系统默认程序打开")
}
