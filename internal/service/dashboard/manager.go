package dashboard

import (
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"chartboard/internal/events"
	"chartboard/internal/idgen"
	"chartboard/internal/model"
	"chartboard/internal/normalize"
)

// Persister 持久化协作者：两个独立的键值槽位
type Persister interface {
	LoadDashboards() ([]model.Dashboard, error)
	SaveDashboards(dashboards []model.Dashboard) error
	LoadActiveID() (string, error)
	SaveActiveID(id string) error
}

// Manager 仪表板管理器：持有应用状态，串行执行状态转换，并在每次转换后通知观察者
type Manager struct {
	log *zap.Logger

	mu        sync.Mutex
	state     model.State
	observers []Observer

	importing atomic.Bool
}

// NewManager 从持久化层恢复状态。读取失败时以空状态继续运行。
func NewManager(persister Persister, publisher events.Publisher, log *zap.Logger) *Manager {
	if log == nil {
		log = zap.NewNop()
	}
	m := &Manager{log: log}

	dashboards, err := persister.LoadDashboards()
	if err != nil {
		log.Error("load dashboards failed, starting empty", zap.Error(err))
		dashboards = []model.Dashboard{}
	}
	activeID, err := persister.LoadActiveID()
	if err != nil {
		log.Error("load active dashboard failed", zap.Error(err))
		activeID = ""
	}

	m.state = model.State{Dashboards: dashboards, ActiveID: activeID}
	if activeID != "" {
		if _, _, ok := m.state.Find(activeID); !ok {
			log.Warn("persisted active dashboard no longer exists", zap.String("dashboard_id", activeID))
			m.state.ActiveID = ""
		}
	}

	m.observers = append(m.observers, &persistObserver{persister: persister, log: log})
	if publisher != nil {
		m.observers = append(m.observers, &eventObserver{publisher: publisher, log: log})
	}
	return m
}

// AddObserver 注册额外的观察者
func (m *Manager) AddObserver(o Observer) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.observers = append(m.observers, o)
}

// commitLocked 替换状态并通知观察者（持有锁时调用，保证通知顺序与转换顺序一致）
func (m *Manager) commitLocked(next model.State, c Change) {
	prev := m.state
	m.state = next
	c.State = next
	c.DashboardsChanged = !sameDashboards(prev.Dashboards, next.Dashboards)
	c.ActiveChanged = prev.ActiveID != next.ActiveID
	for _, o := range m.observers {
		o.Observe(c)
	}
}

// Snapshot 当前状态快照
func (m *Manager) Snapshot() model.State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// ActiveID 当前仪表板 ID，没有时为空串
func (m *Manager) ActiveID() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state.ActiveID
}

// Dashboard 按 id 获取仪表板
func (m *Manager) Dashboard(id string) (model.Dashboard, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, _, ok := m.state.Find(id)
	return d, ok
}

// Active 当前仪表板
func (m *Manager) Active() (model.Dashboard, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state.Active()
}

// EnsureDefault 没有任何仪表板时创建默认仪表板
func (m *Manager) EnsureDefault() (model.Dashboard, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.state.Dashboards) > 0 {
		return model.Dashboard{}, false
	}
	return m.createLocked(FirstDashboardName), true
}

// CreateDashboard 新建仪表板（插入到最前）并设为当前
func (m *Manager) CreateDashboard(name string) model.Dashboard {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.createLocked(name)
}

func (m *Manager) createLocked(name string) model.Dashboard {
	next, d := createDashboard(m.state, idgen.Dashboard(), name)
	m.commitLocked(next, Change{
		Op:    "createDashboard",
		Topic: events.TopicDashboardCreated,
		Event: events.DashboardChanged{DashboardID: d.ID, Name: d.Name, ActiveID: d.ID},
	})
	m.log.Debug("dashboard created", zap.String("dashboard_id", d.ID), zap.String("name", d.Name))
	return d
}

// RenameDashboard 重命名；id 不存在时不做任何事
func (m *Manager) RenameDashboard(id, name string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	next, ok := renameDashboard(m.state, id, name)
	if !ok {
		m.noop("renameDashboard", zap.String("dashboard_id", id))
		return false
	}
	m.commitLocked(next, Change{
		Op:    "renameDashboard",
		Topic: events.TopicDashboardRenamed,
		Event: events.DashboardChanged{DashboardID: id, Name: name},
	})
	return true
}

// RemoveDashboard 删除仪表板；若为当前仪表板则清空当前指针
func (m *Manager) RemoveDashboard(id string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	next, ok := removeDashboard(m.state, id)
	if !ok {
		m.noop("removeDashboard", zap.String("dashboard_id", id))
		return false
	}
	m.commitLocked(next, Change{
		Op:    "removeDashboard",
		Topic: events.TopicDashboardRemoved,
		Event: events.DashboardChanged{DashboardID: id, ActiveID: next.ActiveID},
	})
	return true
}

// SelectDashboard 切换当前仪表板；空串表示取消选择
func (m *Manager) SelectDashboard(id string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	next, ok := selectDashboard(m.state, id)
	if !ok {
		m.noop("selectDashboard", zap.String("dashboard_id", id))
		return false
	}
	m.commitLocked(next, Change{
		Op:    "selectDashboard",
		Topic: events.TopicDashboardSelected,
		Event: events.DashboardChanged{DashboardID: id, ActiveID: id},
	})
	return true
}

// realign 外部传入的载荷重新过一遍归一化，保证所有序列共享同一组有序类目
func realign(p model.CleanPayload) model.CleanPayload {
	return normalize.Normalize(model.FromClean(p))
}

// realignPatch 图表补丁携带载荷时同样重新归一化
func realignPatch(patch model.WidgetPatch) model.WidgetPatch {
	switch p := patch.(type) {
	case model.ChartPatch:
		if p.Payload != nil {
			clean := realign(*p.Payload)
			p.Payload = &clean
		}
		return p
	case *model.ChartPatch:
		if p != nil && p.Payload != nil {
			cp := *p
			clean := realign(*p.Payload)
			cp.Payload = &clean
			return cp
		}
	}
	return patch
}

// AddChartWidget 向指定（或当前）仪表板追加图表组件
func (m *Manager) AddChartWidget(dashboardID string, payload *model.CleanPayload) (model.ChartWidget, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	target := dashboardID
	if target == "" {
		target = m.state.ActiveID
	}
	if target == "" {
		m.noop("addChartWidget", zap.String("reason", "no target dashboard"))
		return model.ChartWidget{}, false
	}

	w := model.ChartWidget{WidgetBase: defaultChartBase, Payload: model.EmptyPayload()}
	w.ID = idgen.Widget()
	if payload != nil {
		w.Payload = realign(*payload)
	}

	next, ok := addWidget(m.state, target, w)
	if !ok {
		m.noop("addChartWidget", zap.String("dashboard_id", target))
		return model.ChartWidget{}, false
	}
	m.commitLocked(next, Change{
		Op:    "addChartWidget",
		Topic: events.TopicWidgetAdded,
		Event: events.WidgetChanged{DashboardID: target, WidgetID: w.ID, Kind: model.KindChart},
	})
	return w, true
}

// AddTextWidget 向当前仪表板追加文本组件
func (m *Manager) AddTextWidget() (model.TextWidget, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	target := m.state.ActiveID
	if target == "" {
		m.noop("addTextWidget", zap.String("reason", "no active dashboard"))
		return model.TextWidget{}, false
	}

	w := model.TextWidget{WidgetBase: defaultTextBase, Text: PlaceholderText}
	w.ID = idgen.Widget()

	next, ok := addWidget(m.state, target, w)
	if !ok {
		m.noop("addTextWidget", zap.String("dashboard_id", target))
		return model.TextWidget{}, false
	}
	m.commitLocked(next, Change{
		Op:    "addTextWidget",
		Topic: events.TopicWidgetAdded,
		Event: events.WidgetChanged{DashboardID: target, WidgetID: w.ID, Kind: model.KindText},
	})
	return w, true
}

// UpdateWidget 对当前仪表板中的组件做部分更新；kind 不可改变，跨类型字段被拒绝
func (m *Manager) UpdateWidget(widgetID string, patch model.WidgetPatch) (model.Widget, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	target := m.state.ActiveID
	if target == "" {
		m.noop("updateWidget", zap.String("reason", "no active dashboard"), zap.String("widget_id", widgetID))
		return nil, false
	}
	if patch == nil {
		m.noop("updateWidget", zap.String("reason", "empty patch"), zap.String("widget_id", widgetID))
		return nil, false
	}

	next, updated, ok := updateWidget(m.state, target, widgetID, realignPatch(patch))
	if !ok {
		m.noop("updateWidget", zap.String("dashboard_id", target), zap.String("widget_id", widgetID))
		return nil, false
	}
	m.commitLocked(next, Change{
		Op:    "updateWidget",
		Topic: events.TopicWidgetUpdated,
		Event: events.WidgetChanged{DashboardID: target, WidgetID: widgetID, Kind: updated.Kind()},
	})
	return updated, true
}

// RemoveWidget 从当前仪表板删除组件
func (m *Manager) RemoveWidget(widgetID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	target := m.state.ActiveID
	if target == "" {
		m.noop("removeWidget", zap.String("reason", "no active dashboard"), zap.String("widget_id", widgetID))
		return false
	}

	next, ok := removeWidget(m.state, target, widgetID)
	if !ok {
		m.noop("removeWidget", zap.String("dashboard_id", target), zap.String("widget_id", widgetID))
		return false
	}
	m.commitLocked(next, Change{
		Op:    "removeWidget",
		Topic: events.TopicWidgetRemoved,
		Event: events.WidgetChanged{DashboardID: target, WidgetID: widgetID},
	})
	return true
}

// TryBeginImport 获取全局唯一的导入令牌；已有导入进行中时返回 false
func (m *Manager) TryBeginImport() bool {
	return m.importing.CompareAndSwap(false, true)
}

// EndImport 释放导入令牌
func (m *Manager) EndImport() {
	m.importing.Store(false)
}

// Importing 是否有导入正在进行
func (m *Manager) Importing() bool {
	return m.importing.Load()
}

// ImportCommit 导入写入仪表板的结果
type ImportCommit struct {
	Widget  model.ChartWidget
	History model.HistoryItem
}

// CommitImport 原子地将导入结果写入仪表板：设置图表类型与数据、前插导入记录、追加级联定位的新组件。
// 仪表板已不存在时返回 false，状态不变。
func (m *Manager) CommitImport(dashboardID, fileName string, payload model.CleanPayload, chartType model.ChartType, at time.Time) (ImportCommit, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	item := model.HistoryItem{
		ID:        idgen.History(),
		FileName:  fileName,
		Timestamp: at.UnixMilli(),
		Payload:   payload.Clone(),
	}
	w := model.ChartWidget{WidgetBase: defaultChartBase, Payload: payload.Clone()}
	w.ID = idgen.Widget()

	next, placed, ok := applyImport(m.state, dashboardID, item, w, chartType)
	if !ok {
		m.noop("commitImport", zap.String("dashboard_id", dashboardID))
		return ImportCommit{}, false
	}
	m.commitLocked(next, Change{
		Op:    "importAnalysis",
		Topic: events.TopicImportCompleted,
		Event: events.ImportCompleted{
			DashboardID: dashboardID,
			WidgetID:    placed.ID,
			HistoryID:   item.ID,
			FileName:    fileName,
			ChartType:   chartType,
			SeriesCount: len(payload.Data),
		},
	})
	return ImportCommit{Widget: placed, History: item}, true
}

func (m *Manager) noop(op string, fields ...zap.Field) {
	m.log.Warn(op+": skipped", fields...)
}

// sameDashboards 判断转换是否替换了仪表板列表（按底层数组身份比较）
func sameDashboards(a, b []model.Dashboard) bool {
	if len(a) != len(b) {
		return false
	}
	if len(a) == 0 {
		return true
	}
	return &a[0] == &b[0]
}
