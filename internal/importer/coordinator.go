package importer

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"chartboard/internal/analysis"
	"chartboard/internal/model"
	"chartboard/internal/normalize"
	"chartboard/internal/service/dashboard"
)

var (
	// ErrNoActiveDashboard 未选择目标仪表板
	ErrNoActiveDashboard = errors.New("no active dashboard")
	// ErrImportInFlight 已有导入在进行中，本次调用被拒绝（不排队）
	ErrImportInFlight = errors.New("an import is already in progress")
	// ErrDashboardGone 导入期间目标仪表板被删除
	ErrDashboardGone = errors.New("target dashboard no longer exists")
)

// ImportFailedError 导入失败：网络、非 2xx、响应畸形或文件不可读。仪表板状态保持不变。
type ImportFailedError struct {
	Stage string
	Cause error
}

func (e *ImportFailedError) Error() string {
	return fmt.Sprintf("import failed at %s: %v", e.Stage, e.Cause)
}

func (e *ImportFailedError) Unwrap() error { return e.Cause }

// FallbackSeriesName 分析服务在数据不完整时返回的占位序列名
const FallbackSeriesName = "Fallback Series"

// Analyzer 远程分析协作者
type Analyzer interface {
	Analyze(ctx context.Context, req analysis.Request) (model.RawPayload, error)
}

// ProgressEvent 进度事件
type ProgressEvent struct {
	Type      string      `json:"type"`    // start/inspect/analyze/normalize/done/error
	Message   string      `json:"message"` // 事件消息
	Data      interface{} `json:"data"`    // 附加数据
	Timestamp time.Time   `json:"timestamp"`
}

// Request 导入请求
type Request struct {
	DashboardID string
	FileName    string
	File        []byte
	Query       string
	ChartType   string
	Progress    func(ProgressEvent)
}

// Result 导入结果
type Result struct {
	Payload     model.CleanPayload `json:"payload"`
	DashboardID string             `json:"dashboardId"`
	WidgetID    string             `json:"widgetId"`
	HistoryID   string             `json:"historyId"`
	ChartType   model.ChartType    `json:"chartType"`
	Workbook    *WorkbookInfo      `json:"workbook,omitempty"`
	Warning     string             `json:"warning,omitempty"`
}

// Coordinator 导入协调器：上传分析 → 规范化 → 原子写入仪表板
type Coordinator struct {
	dashboards *dashboard.Manager
	analyzer   Analyzer
	log        *zap.Logger
	now        func() time.Time
}

// NewCoordinator 创建导入协调器
func NewCoordinator(dashboards *dashboard.Manager, analyzer Analyzer, log *zap.Logger) *Coordinator {
	if log == nil {
		log = zap.NewNop()
	}
	return &Coordinator{
		dashboards: dashboards,
		analyzer:   analyzer,
		log:        log,
		now:        time.Now,
	}
}

// Import 执行导入。同一进程内同时只允许一个导入，第二个调用立即返回 ErrImportInFlight。
func (c *Coordinator) Import(ctx context.Context, req Request) (Result, error) {
	if req.DashboardID == "" {
		return Result{}, ErrNoActiveDashboard
	}
	if !c.dashboards.TryBeginImport() {
		c.log.Warn("import rejected: another import in flight", zap.String("file", req.FileName))
		return Result{}, ErrImportInFlight
	}
	defer c.dashboards.EndImport()

	res, err := c.doImport(ctx, req)
	if err != nil {
		c.emit(req, ProgressEvent{Type: "error", Message: err.Error()})
		c.log.Error("import failed",
			zap.String("dashboard_id", req.DashboardID),
			zap.String("file", req.FileName),
			zap.Error(err),
		)
		return Result{}, err
	}
	return res, nil
}

func (c *Coordinator) doImport(ctx context.Context, req Request) (Result, error) {
	c.emit(req, ProgressEvent{
		Type:    "start",
		Message: "import started",
		Data:    map[string]string{"filename": req.FileName},
	})

	workbook, err := Inspect(req.FileName, req.File)
	if err != nil {
		return Result{}, &ImportFailedError{Stage: "inspect", Cause: err}
	}
	if workbook != nil {
		c.emit(req, ProgressEvent{Type: "inspect", Message: fmt.Sprintf("found %d sheets", len(workbook.Sheets)), Data: workbook})
	}

	c.emit(req, ProgressEvent{Type: "analyze", Message: "waiting for analysis service"})
	raw, err := c.analyzer.Analyze(ctx, analysis.Request{
		FileName:  req.FileName,
		File:      req.File,
		Query:     req.Query,
		ChartType: req.ChartType,
	})
	if err != nil {
		return Result{}, &ImportFailedError{Stage: "analyze", Cause: err}
	}

	cleaned := normalize.Normalize(raw)
	c.emit(req, ProgressEvent{
		Type:    "normalize",
		Message: fmt.Sprintf("normalized %d series", len(cleaned.Data)),
		Data:    map[string]int{"series": len(cleaned.Data), "categories": len(cleaned.Labels())},
	})

	hint := cleaned.ChartType
	if hint == "" {
		hint = req.ChartType
	}
	chartType := normalize.Classify(hint)

	commit, ok := c.dashboards.CommitImport(req.DashboardID, req.FileName, cleaned, chartType, c.now())
	if !ok {
		return Result{}, &ImportFailedError{Stage: "commit", Cause: ErrDashboardGone}
	}

	res := Result{
		Payload:     cleaned,
		DashboardID: req.DashboardID,
		WidgetID:    commit.Widget.ID,
		HistoryID:   commit.History.ID,
		ChartType:   chartType,
		Workbook:    workbook,
		Warning:     warningFor(cleaned),
	}
	c.emit(req, ProgressEvent{Type: "done", Message: "import completed", Data: res})
	c.log.Info("import completed",
		zap.String("dashboard_id", req.DashboardID),
		zap.String("widget_id", res.WidgetID),
		zap.String("chart_type", string(chartType)),
		zap.Int("series", len(cleaned.Data)),
	)
	return res, nil
}

func warningFor(p model.CleanPayload) string {
	switch {
	case len(p.Data) == 0:
		return "analysis returned no series"
	case len(p.Data) == 1 && p.Data[0].Series == FallbackSeriesName:
		return "incomplete data, displaying minimal chart"
	}
	return ""
}

func (c *Coordinator) emit(req Request, evt ProgressEvent) {
	if req.Progress == nil {
		return
	}
	evt.Timestamp = c.now()
	req.Progress(evt)
}
