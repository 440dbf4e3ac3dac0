package v1

import (
	"os"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"chartboard/internal/exporter"
	"chartboard/internal/importer"
	"chartboard/internal/service/dashboard"
)

// Handler V1 API 处理器
type Handler struct {
	dashboards *dashboard.Manager
	importer   *importer.Coordinator
	exporter   *exporter.Exporter
	exportDir  string
	downloads  *exportDownloadStore
	log        *zap.Logger
}

// NewHandler 创建 V1 API 处理器。exportDir 为空时导出文件写入系统临时目录。
func NewHandler(dashboards *dashboard.Manager, coordinator *importer.Coordinator, exp *exporter.Exporter, exportDir string, log *zap.Logger) *Handler {
	if log == nil {
		log = zap.NewNop()
	}
	if exportDir == "" {
		exportDir = os.TempDir()
	}
	return &Handler{
		dashboards: dashboards,
		importer:   coordinator,
		exporter:   exp,
		exportDir:  exportDir,
		downloads:  newExportDownloadStore(),
		log:        log,
	}
}

// RegisterRoutes 注册 V1 API 路由
func (h *Handler) RegisterRoutes(router *gin.RouterGroup) {
	// 应用状态
	router.GET("/state", h.GetState)

	// 仪表板
	router.POST("/dashboards", h.CreateDashboard)
	router.PATCH("/dashboards/:id", h.RenameDashboard)
	router.DELETE("/dashboards/:id", h.RemoveDashboard)
	router.POST("/dashboards/:id/select", h.SelectDashboard)

	// 组件（作用于当前仪表板）
	router.POST("/widgets/chart", h.AddChartWidget)
	router.POST("/widgets/text", h.AddTextWidget)
	router.PATCH("/widgets/:wid", h.UpdateWidget)
	router.DELETE("/widgets/:wid", h.RemoveWidget)

	// 数据导入与规范化
	router.POST("/import", h.Import)
	router.POST("/normalize", h.Normalize)
	router.GET("/dashboards/:id/widgets/:wid/chart", h.GetChart)

	// 导出
	router.POST("/dashboards/:id/export", h.Export)
	router.GET("/export/download/:token", h.DownloadExport)
}
