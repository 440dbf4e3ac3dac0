package exporter

import (
	"bytes"
	"errors"
	"fmt"
	"image/png"
	"strings"

	"go.uber.org/zap"

	"chartboard/internal/model"
)

// Format 导出格式
type Format string

const (
	FormatPNG  Format = "png"
	FormatPDF  Format = "pdf"
	FormatXLSX Format = "xlsx"
)

// ParseFormat 解析导出格式，大小写不敏感
func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimSpace(s))) {
	case FormatPNG:
		return FormatPNG, nil
	case FormatPDF:
		return FormatPDF, nil
	case FormatXLSX:
		return FormatXLSX, nil
	}
	return "", fmt.Errorf("unsupported export format %q", s)
}

// ContentType 响应头使用的 MIME 类型
func (f Format) ContentType() string {
	switch f {
	case FormatPNG:
		return "image/png"
	case FormatPDF:
		return "application/pdf"
	default:
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	}
}

// FileName 导出文件名：dashboard-<id>.<ext>
func FileName(dashboardID string, f Format) string {
	return fmt.Sprintf("dashboard-%s.%s", dashboardID, f)
}

// ErrDashboardNotFound 导出的仪表板不存在
var ErrDashboardNotFound = errors.New("dashboard not found")

// ExportFailedError 导出失败（渲染或编码）。不影响仪表板状态。
type ExportFailedError struct {
	Stage string
	Cause error
}

func (e *ExportFailedError) Error() string {
	return fmt.Sprintf("export failed at %s: %v", e.Stage, e.Cause)
}

func (e *ExportFailedError) Unwrap() error { return e.Cause }

// DashboardSource 导出读取的仪表板来源
type DashboardSource interface {
	Dashboard(id string) (model.Dashboard, bool)
}

// Options 画布参数。MaxCanvasSide 限制乘以像素比之后的画布边长（像素）。
type Options struct {
	PixelRatio    float64
	CanvasWidth   int
	CanvasHeight  int
	MaxCanvasSide int
}

// DefaultMaxCanvasSide 默认画布边长上限，16384² RGBA 约 1GiB
const DefaultMaxCanvasSide = 16384

func (o Options) withDefaults() Options {
	if o.PixelRatio <= 0 {
		o.PixelRatio = 2
	}
	if o.CanvasWidth <= 0 {
		o.CanvasWidth = 1600
	}
	if o.CanvasHeight <= 0 {
		o.CanvasHeight = 1000
	}
	if o.MaxCanvasSide <= 0 {
		o.MaxCanvasSide = DefaultMaxCanvasSide
	}
	return o
}

// Artifact 导出结果
type Artifact struct {
	FileName    string
	ContentType string
	Data        []byte
}

// Exporter 仪表板导出器：PNG 画布快照、单页 PDF、带原生图表的 xlsx
type Exporter struct {
	source DashboardSource
	opts   Options
	log    *zap.Logger
}

// NewExporter 创建导出器
func NewExporter(source DashboardSource, opts Options, log *zap.Logger) *Exporter {
	if log == nil {
		log = zap.NewNop()
	}
	return &Exporter{
		source: source,
		opts:   opts.withDefaults(),
		log:    log,
	}
}

// Export 导出指定仪表板
func (e *Exporter) Export(dashboardID string, format Format, progress func(ProgressEvent)) (*Artifact, error) {
	d, ok := e.source.Dashboard(dashboardID)
	if !ok {
		return nil, &ExportFailedError{Stage: "load", Cause: fmt.Errorf("%w: %s", ErrDashboardNotFound, dashboardID)}
	}
	reportProgress(progress, 5, "loaded")

	var (
		data []byte
		err  error
	)
	switch format {
	case FormatPNG:
		data, err = e.encodePNG(d, progress)
	case FormatPDF:
		data, err = e.encodePDF(d, progress)
	case FormatXLSX:
		data, err = writeWorkbook(d, progress)
	default:
		err = &ExportFailedError{Stage: "format", Cause: fmt.Errorf("unsupported export format %q", format)}
	}
	if err != nil {
		e.log.Error("export failed",
			zap.String("dashboard_id", dashboardID),
			zap.String("format", string(format)),
			zap.Error(err),
		)
		return nil, err
	}

	reportProgress(progress, 100, "done")
	e.log.Info("dashboard exported",
		zap.String("dashboard_id", dashboardID),
		zap.String("format", string(format)),
		zap.Int("bytes", len(data)),
	)
	return &Artifact{
		FileName:    FileName(d.ID, format),
		ContentType: format.ContentType(),
		Data:        data,
	}, nil
}

func (e *Exporter) encodePNG(d model.Dashboard, progress func(ProgressEvent)) ([]byte, error) {
	img, err := renderCanvas(d, e.opts, e.log, progress)
	if err != nil {
		return nil, &ExportFailedError{Stage: "render", Cause: err}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, &ExportFailedError{Stage: "encode png", Cause: err}
	}
	reportProgress(progress, 90, "encoded")
	return buf.Bytes(), nil
}

func (e *Exporter) encodePDF(d model.Dashboard, progress func(ProgressEvent)) ([]byte, error) {
	img, err := renderCanvas(d, e.opts, e.log, progress)
	if err != nil {
		return nil, &ExportFailedError{Stage: "render", Cause: err}
	}
	data, err := writePDF(img)
	if err != nil {
		return nil, &ExportFailedError{Stage: "compose pdf", Cause: err}
	}
	reportProgress(progress, 90, "composed")
	return data, nil
}
