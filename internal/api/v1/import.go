package v1

import (
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"chartboard/internal/importer"
)

// maxUploadBytes 上传文件大小上限
const maxUploadBytes = 32 << 20

// Import 上传文件并导入分析结果
// POST /api/import（multipart: file, query, chartType, dashboardId）
// 带 ?stream=1 时以 SSE 推送进度事件，否则返回 JSON 结果。
func (h *Handler) Import(c *gin.Context) {
	fh, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "未找到上传文件"})
		return
	}
	if fh.Size > maxUploadBytes {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "上传文件过大"})
		return
	}
	f, err := fh.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "读取上传文件失败"})
		return
	}
	data, err := io.ReadAll(f)
	_ = f.Close()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "读取上传文件失败"})
		return
	}

	req := importer.Request{
		DashboardID: c.PostForm("dashboardId"),
		FileName:    fh.Filename,
		File:        data,
		Query:       c.PostForm("query"),
		ChartType:   c.PostForm("chartType"),
	}
	if req.DashboardID == "" {
		req.DashboardID = h.dashboards.ActiveID()
	}

	if !wantsStream(c) {
		res, err := h.importer.Import(c.Request.Context(), req)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"result": res, "state": h.dashboards.Snapshot()})
		return
	}

	send := startSSE(c)
	if send == nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "不支持流式响应"})
		return
	}
	req.Progress = func(e importer.ProgressEvent) { send(e) }

	_, err = h.importer.Import(c.Request.Context(), req)
	// 守卫之前被拒绝的调用不会产生进度事件
	if errors.Is(err, importer.ErrNoActiveDashboard) || errors.Is(err, importer.ErrImportInFlight) {
		send(importer.ProgressEvent{
			Type:      "error",
			Message:   err.Error(),
			Data:      gin.H{"status": errorStatus(err)},
			Timestamp: time.Now(),
		})
	}
	if err != nil {
		h.log.Debug("streamed import ended with error", zap.Error(err))
	}
}
