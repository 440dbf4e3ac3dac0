package dashboard

import (
	"chartboard/internal/model"
)

// 默认几何
var (
	defaultChartBase = model.WidgetBase{X: 240, Y: 120, W: 720, H: 420, ZIndex: 1}
	defaultTextBase  = model.WidgetBase{X: 300, Y: 560, W: 360, H: 180, ZIndex: 1}
)

const (
	// DefaultName 名称为空时使用
	DefaultName = "Untitled"
	// FirstDashboardName 首次启动时自动创建的仪表板
	FirstDashboardName = "My First Dashboard"
	// PlaceholderText 新文本组件的占位文字
	PlaceholderText = "Type your notes here…"
	// CascadeStep 导入组件的级联偏移
	CascadeStep = 20
)

// 以下转换函数都是纯函数：返回新的 State，不修改入参共享的切片。

func createDashboard(s model.State, id, name string) (model.State, model.Dashboard) {
	if name == "" {
		name = DefaultName
	}
	d := model.Dashboard{
		ID:        id,
		Name:      name,
		ChartType: model.ChartBar,
		Widgets:   model.Widgets{},
		History:   []model.HistoryItem{},
	}
	next := model.State{
		Dashboards: append([]model.Dashboard{d}, s.Dashboards...),
		ActiveID:   id,
	}
	return next, d
}

func renameDashboard(s model.State, id, name string) (model.State, bool) {
	return mapDashboard(s, id, func(d model.Dashboard) model.Dashboard {
		d.Name = name
		return d
	})
}

func removeDashboard(s model.State, id string) (model.State, bool) {
	if _, _, ok := s.Find(id); !ok {
		return s, false
	}
	next := model.State{
		Dashboards: make([]model.Dashboard, 0, len(s.Dashboards)-1),
		ActiveID:   s.ActiveID,
	}
	for _, d := range s.Dashboards {
		if d.ID != id {
			next.Dashboards = append(next.Dashboards, d)
		}
	}
	if next.ActiveID == id {
		next.ActiveID = ""
	}
	return next, true
}

func selectDashboard(s model.State, id string) (model.State, bool) {
	if id != "" {
		if _, _, ok := s.Find(id); !ok {
			return s, false
		}
	}
	return model.State{Dashboards: s.Dashboards, ActiveID: id}, true
}

func addWidget(s model.State, dashboardID string, w model.Widget) (model.State, bool) {
	return mapDashboard(s, dashboardID, func(d model.Dashboard) model.Dashboard {
		d.Widgets = appendWidget(d.Widgets, w)
		return d
	})
}

func updateWidget(s model.State, dashboardID, widgetID string, patch model.WidgetPatch) (model.State, model.Widget, bool) {
	d, _, ok := s.Find(dashboardID)
	if !ok {
		return s, nil, false
	}
	current, idx, ok := d.Widgets.Find(widgetID)
	if !ok {
		return s, nil, false
	}
	updated, ok := patch.Apply(current)
	if !ok {
		return s, nil, false
	}
	next, _ := mapDashboard(s, dashboardID, func(d model.Dashboard) model.Dashboard {
		widgets := make(model.Widgets, len(d.Widgets))
		copy(widgets, d.Widgets)
		widgets[idx] = updated
		d.Widgets = widgets
		return d
	})
	return next, updated, true
}

func removeWidget(s model.State, dashboardID, widgetID string) (model.State, bool) {
	d, _, ok := s.Find(dashboardID)
	if !ok {
		return s, false
	}
	if _, _, ok := d.Widgets.Find(widgetID); !ok {
		return s, false
	}
	return mapDashboard(s, dashboardID, func(d model.Dashboard) model.Dashboard {
		widgets := make(model.Widgets, 0, len(d.Widgets)-1)
		for _, w := range d.Widgets {
			if w.Base().ID != widgetID {
				widgets = append(widgets, w)
			}
		}
		d.Widgets = widgets
		return d
	})
}

// applyImport 一次性更新目标仪表板：图表类型、当前数据、导入记录（前插）与新组件（级联定位后追加）
func applyImport(s model.State, dashboardID string, item model.HistoryItem, widget model.ChartWidget, chartType model.ChartType) (model.State, model.ChartWidget, bool) {
	d, _, ok := s.Find(dashboardID)
	if !ok {
		return s, model.ChartWidget{}, false
	}
	offset := float64(CascadeStep * len(d.Widgets))
	widget.X += offset
	widget.Y += offset

	next, _ := mapDashboard(s, dashboardID, func(d model.Dashboard) model.Dashboard {
		payload := item.Payload.Clone()
		d.ChartType = chartType
		d.Payload = &payload
		d.History = append([]model.HistoryItem{item}, d.History...)
		d.Widgets = appendWidget(d.Widgets, widget)
		return d
	})
	return next, widget, true
}

func mapDashboard(s model.State, id string, fn func(model.Dashboard) model.Dashboard) (model.State, bool) {
	_, idx, ok := s.Find(id)
	if !ok {
		return s, false
	}
	dashboards := make([]model.Dashboard, len(s.Dashboards))
	copy(dashboards, s.Dashboards)
	dashboards[idx] = fn(dashboards[idx])
	return model.State{Dashboards: dashboards, ActiveID: s.ActiveID}, true
}

func appendWidget(ws model.Widgets, w model.Widget) model.Widgets {
	out := make(model.Widgets, len(ws), len(ws)+1)
	copy(out, ws)
	return append(out, w)
}
