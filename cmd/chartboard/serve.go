package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	v1 "chartboard/internal/api/v1"
	"chartboard/internal/analysis"
	"chartboard/internal/exporter"
	"chartboard/internal/importer"
	"chartboard/internal/server"
	"chartboard/internal/service/dashboard"
	"chartboard/internal/util"
)

var (
	servePort   int
	serveDev    bool
	serveMemory bool
	serveOpen   bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Println("==========================================")
		fmt.Println("  Chartboard - 图表仪表板")
		fmt.Println("==========================================")

		// 命令行参数覆盖配置；port 仅在配置文件未显式设置时生效
		if servePort > 0 && !cfgInfo.PortSpecified {
			cfg.Server.Port = servePort
		}
		if serveDev {
			cfg.Server.DevMode = true
		}

		a, err := openApp(cfg, serveMemory, logger)
		if err != nil {
			return err
		}
		defer a.Close()
		fmt.Printf("数据目录: %s\n", a.dataDir)

		a.dashboards.AddObserver(dashboard.ObserverFunc(func(c dashboard.Change) {
			logger.Debug("state transition",
				zap.String("op", c.Op),
				zap.String("active_id", c.State.ActiveID),
				zap.Int("dashboards", len(c.State.Dashboards)),
			)
		}))
		if d, created := a.dashboards.EnsureDefault(); created {
			logger.Info("created default dashboard", zap.String("dashboard_id", d.ID))
		}

		client := analysis.NewClient(cfg.Analysis.Endpoint, cfg.AnalysisTimeout(), logger)
		coordinator := importer.NewCoordinator(a.dashboards, client, logger)
		exp := exporter.NewExporter(a.dashboards, exporter.Options{
			PixelRatio:    cfg.Export.PixelRatio,
			CanvasWidth:   cfg.Export.CanvasWidth,
			CanvasHeight:  cfg.Export.CanvasHeight,
			MaxCanvasSide: cfg.Export.MaxCanvasSide,
		}, logger)
		handler := v1.NewHandler(a.dashboards, coordinator, exp, filepath.Join(a.dataDir, "exports"), logger)
		srv := server.NewServer(handler, cfg.Server.DevMode, logger)

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		addr := fmt.Sprintf(":%d", cfg.Server.Port)
		url := fmt.Sprintf("http://localhost:%d/api/state", cfg.Server.Port)
		fmt.Printf("服务启动中，监听端口 %d ...\n", cfg.Server.Port)
		if serveOpen {
			if err := util.Open(url); err != nil {
				fmt.Printf("无法自动打开浏览器，请手动访问: %s\n", url)
			}
		}
		fmt.Println("\n按 Ctrl+C 停止服务...")

		if err := srv.Run(ctx, addr); err != nil {
			return fmt.Errorf("server: %w", err)
		}
		fmt.Println("\n服务已关闭")
		return nil
	},
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "服务端口 (config.toml 优先；仅当未显式配置 port 时生效)")
	serveCmd.Flags().BoolVar(&serveDev, "dev", false, "开发模式")
	serveCmd.Flags().BoolVar(&serveMemory, "memory", false, "仅在内存中保存仪表板（不写数据库）")
	serveCmd.Flags().BoolVar(&serveOpen, "open", false, "启动后在浏览器中打开")
}
