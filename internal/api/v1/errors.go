package v1

import (
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"chartboard/internal/exporter"
	"chartboard/internal/importer"
)

// errorStatus 领域错误到 HTTP 状态码的映射
func errorStatus(err error) int {
	var importFailed *importer.ImportFailedError
	var exportFailed *exporter.ExportFailedError
	switch {
	case errors.Is(err, importer.ErrNoActiveDashboard):
		return http.StatusConflict
	case errors.Is(err, importer.ErrImportInFlight):
		return http.StatusTooManyRequests
	case errors.Is(err, importer.ErrUnsupportedFile):
		return http.StatusBadRequest
	case errors.As(err, &importFailed):
		return http.StatusBadGateway
	case errors.Is(err, exporter.ErrDashboardNotFound):
		return http.StatusNotFound
	case errors.As(err, &exportFailed):
		return http.StatusInternalServerError
	}
	return http.StatusInternalServerError
}

func writeError(c *gin.Context, err error) {
	c.JSON(errorStatus(err), gin.H{"error": err.Error()})
}

// bindOptionalJSON 允许空请求体
func bindOptionalJSON(c *gin.Context, v any) error {
	if c.Request.Body == nil {
		return nil
	}
	err := c.ShouldBindJSON(v)
	if err == nil || errors.Is(err, io.EOF) {
		return nil
	}
	return fmt.Errorf("invalid request body: %w", err)
}
