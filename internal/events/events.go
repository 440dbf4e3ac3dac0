package events

import (
	"context"

	"chartboard/internal/model"
)

// 事件主题（不含前缀），完整主题为 <prefix>.<topic>
const (
	TopicDashboardCreated  = "dashboard.created"
	TopicDashboardRenamed  = "dashboard.renamed"
	TopicDashboardRemoved  = "dashboard.removed"
	TopicDashboardSelected = "dashboard.selected"
	TopicWidgetAdded       = "widget.added"
	TopicWidgetUpdated     = "widget.updated"
	TopicWidgetRemoved     = "widget.removed"
	TopicImportCompleted   = "import.completed"
)

// DashboardChanged 仪表板级事件
type DashboardChanged struct {
	DashboardID string `json:"dashboard_id"`
	Name        string `json:"name,omitempty"`
	ActiveID    string `json:"active_id,omitempty"`
}

// WidgetChanged 组件级事件
type WidgetChanged struct {
	DashboardID string           `json:"dashboard_id"`
	WidgetID    string           `json:"widget_id"`
	Kind        model.WidgetKind `json:"kind,omitempty"`
}

// ImportCompleted 导入完成事件
type ImportCompleted struct {
	DashboardID string          `json:"dashboard_id"`
	WidgetID    string          `json:"widget_id"`
	HistoryID   string          `json:"history_id"`
	FileName    string          `json:"file_name"`
	ChartType   model.ChartType `json:"chart_type"`
	SeriesCount int             `json:"series_count"`
}

// Publisher 事件发布接口
type Publisher interface {
	Publish(ctx context.Context, topic string, event any) error
	Close() error
}
