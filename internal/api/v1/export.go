package v1

import (
	"fmt"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"chartboard/internal/exporter"
)

type exportProgressEvent struct {
	Type      string      `json:"type"`
	Message   string      `json:"message"`
	Data      interface{} `json:"data"`
	Timestamp time.Time   `json:"timestamp"`
}

// Export 导出仪表板并生成一次性下载地址
// POST /api/dashboards/:id/export?format=png|pdf|xlsx
// 带 ?stream=1 时以 SSE 推送进度，最后一个事件携带 downloadUrl。
func (h *Handler) Export(c *gin.Context) {
	format, err := exporter.ParseFormat(c.DefaultQuery("format", string(exporter.FormatPNG)))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	id := c.Param("id")

	if !wantsStream(c) {
		art, err := h.exporter.Export(id, format, nil)
		if err != nil {
			writeError(c, err)
			return
		}
		downloadURL, err := h.stageDownload(c, art)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"downloadUrl": downloadURL, "fileName": art.FileName})
		return
	}

	send := startSSE(c)
	if send == nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "不支持流式响应"})
		return
	}
	send(exportProgressEvent{Type: "start", Message: "export started", Data: gin.H{"format": format}, Timestamp: time.Now()})

	lastPercent := -1
	art, err := h.exporter.Export(id, format, func(p exporter.ProgressEvent) {
		if p.Percent == lastPercent {
			return
		}
		lastPercent = p.Percent
		send(exportProgressEvent{Type: "progress", Message: p.Stage, Data: gin.H{"percent": p.Percent}, Timestamp: time.Now()})
	})
	if err == nil {
		var downloadURL string
		if downloadURL, err = h.stageDownload(c, art); err == nil {
			send(exportProgressEvent{
				Type:      "done",
				Message:   "export completed",
				Data:      gin.H{"percent": 100, "downloadUrl": downloadURL, "fileName": art.FileName},
				Timestamp: time.Now(),
			})
			return
		}
	}
	send(exportProgressEvent{Type: "error", Message: err.Error(), Data: gin.H{}, Timestamp: time.Now()})
}

// stageDownload 将导出结果写入临时文件并登记下载令牌
func (h *Handler) stageDownload(c *gin.Context, art *exporter.Artifact) (string, error) {
	f, err := os.CreateTemp(h.exportDir, "chartboard_export_*")
	if err != nil {
		return "", &exporter.ExportFailedError{Stage: "stage download", Cause: err}
	}
	if _, err := f.Write(art.Data); err != nil {
		_ = f.Close()
		_ = os.Remove(f.Name())
		return "", &exporter.ExportFailedError{Stage: "stage download", Cause: err}
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(f.Name())
		return "", &exporter.ExportFailedError{Stage: "stage download", Cause: err}
	}

	token := h.downloads.put(exportDownload{
		filePath:    f.Name(),
		fileName:    art.FileName,
		contentType: art.ContentType,
	}, exportTTL)

	prefix := "/api"
	if strings.HasPrefix(c.Request.URL.Path, "/api/v1/") {
		prefix = "/api/v1"
	}
	return fmt.Sprintf("%s/export/download/%s", prefix, token), nil
}

// DownloadExport 下载导出文件（一次性）
// GET /api/export/download/:token
func (h *Handler) DownloadExport(c *gin.Context) {
	token := c.Param("token")
	if token == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "缺少 token"})
		return
	}

	item, ok := h.downloads.take(token)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "下载链接已失效"})
		return
	}
	defer func() {
		if err := os.Remove(item.filePath); err != nil && !os.IsNotExist(err) {
			h.log.Warn("remove export file failed", zap.String("path", item.filePath), zap.Error(err))
		}
	}()

	if _, err := os.Stat(item.filePath); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "导出文件不存在"})
		return
	}

	c.Header("Content-Disposition", buildContentDisposition(item.fileName))
	c.Header("Content-Type", item.contentType)
	c.File(item.filePath)
}

func buildContentDisposition(fileName string) string {
	return fmt.Sprintf("attachment; filename=\"%s\"; filename*=UTF-8''%s", fileName, url.PathEscape(fileName))
}
