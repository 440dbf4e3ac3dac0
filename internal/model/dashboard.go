package model

// HistoryItem 一次完成的导入记录，创建后不再修改
type HistoryItem struct {
	ID        string       `json:"id"`
	FileName  string       `json:"fileName"`
	Timestamp int64        `json:"timestamp"` // 毫秒时间戳
	Payload   CleanPayload `json:"payload"`
}

// Dashboard 仪表板聚合
type Dashboard struct {
	ID        string        `json:"id"`
	Name      string        `json:"name"`
	ChartType ChartType     `json:"chartType"`
	Payload   *CleanPayload `json:"payload,omitempty"`
	Widgets   Widgets       `json:"widgets"`
	History   []HistoryItem `json:"history"` // 新记录在前
}

// State 应用状态：仪表板列表 + 当前激活的仪表板
type State struct {
	Dashboards []Dashboard `json:"dashboards"`
	ActiveID   string      `json:"activeId,omitempty"`
}

// Find 按 id 查找仪表板
func (s State) Find(id string) (Dashboard, int, bool) {
	for i, d := range s.Dashboards {
		if d.ID == id {
			return d, i, true
		}
	}
	return Dashboard{}, -1, false
}

// Active 当前激活的仪表板
func (s State) Active() (Dashboard, bool) {
	if s.ActiveID == "" {
		return Dashboard{}, false
	}
	d, _, ok := s.Find(s.ActiveID)
	return d, ok
}
