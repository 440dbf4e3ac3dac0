package dashboard

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"chartboard/internal/model"
	"chartboard/internal/store"
)

type recordingPublisher struct {
	mu     sync.Mutex
	topics []string
}

func (p *recordingPublisher) Publish(ctx context.Context, topic string, event any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.topics = append(p.topics, topic)
	return nil
}

func (p *recordingPublisher) Close() error { return nil }

type failingPersister struct {
	store.MemoryStore
	loadErr error
	saveErr error
}

func (f *failingPersister) LoadDashboards() ([]model.Dashboard, error) {
	if f.loadErr != nil {
		return nil, f.loadErr
	}
	return f.MemoryStore.LoadDashboards()
}

func (f *failingPersister) SaveDashboards(d []model.Dashboard) error {
	if f.saveErr != nil {
		return f.saveErr
	}
	return f.MemoryStore.SaveDashboards(d)
}

func newTestManager(t *testing.T) (*Manager, *store.MemoryStore) {
	t.Helper()
	mem := store.NewMemoryStore()
	return NewManager(mem, nil, zap.NewNop()), mem
}

func TestCreateRenameRemove(t *testing.T) {
	m, mem := newTestManager(t)

	d := m.CreateDashboard("")
	if d.Name != DefaultName || m.ActiveID() != d.ID {
		t.Fatalf("unexpected dashboard: %+v active=%s", d, m.ActiveID())
	}
	if !m.RenameDashboard(d.ID, "renamed") {
		t.Fatalf("rename failed")
	}
	if got, _ := m.Dashboard(d.ID); got.Name != "renamed" {
		t.Fatalf("rename not applied: %q", got.Name)
	}
	if m.RenameDashboard("d_missing", "x") {
		t.Fatalf("rename of unknown id should be a no-op")
	}

	persisted, _ := mem.LoadDashboards()
	if len(persisted) != 1 || persisted[0].Name != "renamed" {
		t.Fatalf("state not persisted: %+v", persisted)
	}
	if id, _ := mem.LoadActiveID(); id != d.ID {
		t.Fatalf("active id not persisted: %q", id)
	}

	if !m.RemoveDashboard(d.ID) {
		t.Fatalf("remove failed")
	}
	if m.ActiveID() != "" {
		t.Fatalf("active should be cleared after removing it")
	}
	if id, _ := mem.LoadActiveID(); id != "" {
		t.Fatalf("cleared active id not persisted: %q", id)
	}
	if m.RemoveDashboard(d.ID) {
		t.Fatalf("second remove should be a no-op")
	}
}

func TestWidgetOperationsWithoutActiveDashboardAreNoops(t *testing.T) {
	m, mem := newTestManager(t)

	if _, ok := m.AddChartWidget("", nil); ok {
		t.Fatalf("addChartWidget without target should be a no-op")
	}
	if _, ok := m.AddTextWidget(); ok {
		t.Fatalf("addTextWidget without active should be a no-op")
	}
	x := 1.0
	if _, ok := m.UpdateWidget("w_x", model.GeometryPatch{X: &x}); ok {
		t.Fatalf("updateWidget without active should be a no-op")
	}
	if m.RemoveWidget("w_x") {
		t.Fatalf("removeWidget without active should be a no-op")
	}
	if mem.Saves() != 0 {
		t.Fatalf("no-ops must not persist, got %d saves", mem.Saves())
	}
}

func TestAddWidgets(t *testing.T) {
	m, _ := newTestManager(t)
	d := m.CreateDashboard("a")

	chart, ok := m.AddChartWidget("", nil)
	if !ok {
		t.Fatalf("add chart widget failed")
	}
	if chart.X != 240 || chart.Y != 120 || chart.W != 720 || chart.H != 420 || chart.ZIndex != 1 {
		t.Fatalf("unexpected geometry: %+v", chart.WidgetBase)
	}
	if chart.Payload.ChartType != "bar" || len(chart.Payload.Data) != 0 {
		t.Fatalf("unexpected default payload: %+v", chart.Payload)
	}

	text, ok := m.AddTextWidget()
	if !ok || text.Text != PlaceholderText || text.X != 300 || text.Y != 560 || text.W != 360 || text.H != 180 {
		t.Fatalf("unexpected text widget: %+v", text)
	}

	// 显式指定非当前仪表板
	other := m.CreateDashboard("b")
	payload := model.CleanPayload{Data: []model.CleanSeries{{Series: "S", Data: []model.CleanPoint{}}}}
	if _, ok := m.AddChartWidget(d.ID, &payload); !ok {
		t.Fatalf("add to explicit dashboard failed")
	}
	if _, ok := m.AddChartWidget("d_missing", nil); ok {
		t.Fatalf("add to unknown dashboard should be a no-op")
	}

	got, _ := m.Dashboard(d.ID)
	if len(got.Widgets) != 3 {
		t.Fatalf("expected 3 widgets, got %d", len(got.Widgets))
	}
	if o, _ := m.Dashboard(other.ID); len(o.Widgets) != 0 {
		t.Fatalf("widgets leaked to active dashboard")
	}
}

func TestUpdateAndRemoveWidget(t *testing.T) {
	m, _ := newTestManager(t)
	m.CreateDashboard("a")
	text, _ := m.AddTextWidget()
	chart, _ := m.AddChartWidget("", nil)

	x, body := 42.0, "hello"
	updated, ok := m.UpdateWidget(text.ID, model.TextPatch{GeometryPatch: model.GeometryPatch{X: &x}, Text: &body})
	if !ok {
		t.Fatalf("update failed")
	}
	tw := updated.(model.TextWidget)
	if tw.X != 42 || tw.Text != "hello" || tw.Y != text.Y {
		t.Fatalf("unexpected update result: %+v", tw)
	}

	if _, ok := m.UpdateWidget(chart.ID, model.TextPatch{Text: &body}); ok {
		t.Fatalf("cross-kind patch should be rejected")
	}

	before, _ := m.Active()
	if m.RemoveWidget("w_unknown") {
		t.Fatalf("unknown widget removal should be a no-op")
	}
	after, _ := m.Active()
	if len(after.Widgets) != len(before.Widgets) {
		t.Fatalf("widget list changed on no-op")
	}
	for i := range before.Widgets {
		if before.Widgets[i].Base().ID != after.Widgets[i].Base().ID {
			t.Fatalf("widget identity changed on no-op")
		}
	}

	if !m.RemoveWidget(chart.ID) {
		t.Fatalf("remove failed")
	}
	after, _ = m.Active()
	if len(after.Widgets) != 1 || after.Widgets[0].Base().ID != text.ID {
		t.Fatalf("unexpected widgets after remove: %+v", after.Widgets)
	}
}

func TestUpdateWidgetOnlyTouchesActiveDashboard(t *testing.T) {
	m, _ := newTestManager(t)
	first := m.CreateDashboard("a")
	w, _ := m.AddTextWidget()
	m.CreateDashboard("b")

	body := "x"
	if _, ok := m.UpdateWidget(w.ID, model.TextPatch{Text: &body}); ok {
		t.Fatalf("widget on inactive dashboard should not be updated")
	}
	if m.RemoveWidget(w.ID) {
		t.Fatalf("widget on inactive dashboard should not be removed")
	}
	if d, _ := m.Dashboard(first.ID); len(d.Widgets) != 1 {
		t.Fatalf("inactive dashboard changed")
	}
}

func TestSelectDashboard(t *testing.T) {
	m, mem := newTestManager(t)
	a := m.CreateDashboard("a")
	m.CreateDashboard("b")

	saves := mem.Saves()
	if !m.SelectDashboard(a.ID) || m.ActiveID() != a.ID {
		t.Fatalf("select failed")
	}
	if mem.Saves() != saves {
		t.Fatalf("selecting should only persist the active id")
	}
	if id, _ := mem.LoadActiveID(); id != a.ID {
		t.Fatalf("active id not persisted")
	}
	if m.SelectDashboard("d_missing") || m.ActiveID() != a.ID {
		t.Fatalf("selecting unknown id should be a no-op")
	}
	if !m.SelectDashboard("") || m.ActiveID() != "" {
		t.Fatalf("clearing selection failed")
	}
}

func TestRehydrateAndEnsureDefault(t *testing.T) {
	mem := store.NewMemoryStore()
	m := NewManager(mem, nil, zap.NewNop())

	d, created := m.EnsureDefault()
	if !created || d.Name != FirstDashboardName || m.ActiveID() != d.ID {
		t.Fatalf("default dashboard not created: %+v", d)
	}
	if _, created := m.EnsureDefault(); created {
		t.Fatalf("default dashboard created twice")
	}
	m.AddTextWidget()

	reloaded := NewManager(mem, nil, zap.NewNop())
	got, ok := reloaded.Active()
	if !ok || got.ID != d.ID || len(got.Widgets) != 1 {
		t.Fatalf("state not rehydrated: %+v", got)
	}
	if _, isText := got.Widgets[0].(model.TextWidget); !isText {
		t.Fatalf("widget kind lost on reload: %T", got.Widgets[0])
	}
}

func TestRehydrateDropsDanglingActiveID(t *testing.T) {
	mem := store.NewMemoryStore()
	_ = mem.SaveActiveID("d_gone")

	m := NewManager(mem, nil, zap.NewNop())
	if m.ActiveID() != "" {
		t.Fatalf("dangling active id kept: %q", m.ActiveID())
	}
}

func TestPersistenceFailuresAreSwallowed(t *testing.T) {
	p := &failingPersister{loadErr: errors.New("corrupt"), saveErr: errors.New("disk full")}
	m := NewManager(p, nil, zap.NewNop())

	if len(m.Snapshot().Dashboards) != 0 {
		t.Fatalf("expected empty state after load failure")
	}
	d := m.CreateDashboard("a")
	if got, ok := m.Dashboard(d.ID); !ok || got.Name != "a" {
		t.Fatalf("in-memory state lost after save failure")
	}
}

func TestEventsPublishedPerTransition(t *testing.T) {
	pub := &recordingPublisher{}
	m := NewManager(store.NewMemoryStore(), pub, zap.NewNop())

	d := m.CreateDashboard("a")
	w, _ := m.AddTextWidget()
	m.RemoveWidget(w.ID)
	m.RemoveWidget("w_unknown")
	m.RemoveDashboard(d.ID)

	want := []string{"dashboard.created", "widget.added", "widget.removed", "dashboard.removed"}
	if len(pub.topics) != len(want) {
		t.Fatalf("unexpected topics: %v", pub.topics)
	}
	for i := range want {
		if pub.topics[i] != want[i] {
			t.Fatalf("topic %d = %s, want %s", i, pub.topics[i], want[i])
		}
	}
}

func TestImportGuardIsSingleFlight(t *testing.T) {
	m, _ := newTestManager(t)

	if !m.TryBeginImport() {
		t.Fatalf("first begin should succeed")
	}
	if m.TryBeginImport() {
		t.Fatalf("second begin should be rejected")
	}
	m.EndImport()
	if !m.TryBeginImport() {
		t.Fatalf("begin after release should succeed")
	}
	m.EndImport()
}

func TestCommitImport(t *testing.T) {
	m, _ := newTestManager(t)
	d := m.CreateDashboard("a")
	m.AddTextWidget()

	payload := model.CleanPayload{Data: []model.CleanSeries{{Series: "S", Data: []model.CleanPoint{{Label: "a", Value: 1}}}}}
	at := time.UnixMilli(1700000000123)
	commit, ok := m.CommitImport(d.ID, "f.xlsx", payload, model.ChartPie, at)
	if !ok {
		t.Fatalf("commit failed")
	}
	if commit.Widget.X != 260 || commit.Widget.Y != 140 {
		t.Fatalf("unexpected cascade: %+v", commit.Widget.WidgetBase)
	}
	if commit.History.Timestamp != 1700000000123 || commit.History.FileName != "f.xlsx" {
		t.Fatalf("unexpected history item: %+v", commit.History)
	}

	got, _ := m.Dashboard(d.ID)
	if got.ChartType != model.ChartPie || len(got.History) != 1 || len(got.Widgets) != 2 {
		t.Fatalf("dashboard not updated: %+v", got)
	}

	m.RemoveDashboard(d.ID)
	if _, ok := m.CommitImport(d.ID, "f.xlsx", payload, model.ChartPie, at); ok {
		t.Fatalf("commit into removed dashboard should fail")
	}
}

func TestChartPayloadsAreRealigned(t *testing.T) {
	m, _ := newTestManager(t)
	m.CreateDashboard("a")

	misaligned := model.CleanPayload{
		ChartType: "line",
		Data: []model.CleanSeries{
			{Series: "A", Data: []model.CleanPoint{{Label: "x", Value: 1}, {Label: "y", Value: 2}}},
			{Series: "B", Data: []model.CleanPoint{{Label: "z", Value: 3}}},
		},
	}
	assertAligned := func(t *testing.T, p model.CleanPayload) {
		t.Helper()
		if len(p.Data) != 2 {
			t.Fatalf("expected 2 series, got %+v", p.Data)
		}
		want := []string{"x", "y", "z"}
		for _, s := range p.Data {
			if len(s.Data) != len(want) {
				t.Fatalf("series %s not aligned: %+v", s.Series, s.Data)
			}
			for i, label := range want {
				if s.Data[i].Label != label {
					t.Fatalf("series %s label %d = %q, want %q", s.Series, i, s.Data[i].Label, label)
				}
			}
		}
		if p.Data[1].Data[0].Value != 0 || p.Data[1].Data[2].Value != 3 {
			t.Fatalf("missing categories should be zero-filled: %+v", p.Data[1].Data)
		}
		if p.ChartType != "line" {
			t.Fatalf("chart type lost: %q", p.ChartType)
		}
	}

	added, ok := m.AddChartWidget("", &misaligned)
	if !ok {
		t.Fatalf("add chart widget failed")
	}
	assertAligned(t, added.Payload)
	if len(misaligned.Data[1].Data) != 1 {
		t.Fatalf("caller payload must not be mutated")
	}

	chart, _ := m.AddChartWidget("", nil)
	updated, ok := m.UpdateWidget(chart.ID, model.ChartPatch{Payload: &misaligned})
	if !ok {
		t.Fatalf("chart patch failed")
	}
	assertAligned(t, updated.(model.ChartWidget).Payload)

	updated, ok = m.UpdateWidget(chart.ID, &model.ChartPatch{Payload: &misaligned})
	if !ok {
		t.Fatalf("chart patch by pointer failed")
	}
	assertAligned(t, updated.(model.ChartWidget).Payload)

	d, _ := m.Dashboard(m.ActiveID())
	for _, w := range d.Widgets {
		assertAligned(t, w.(model.ChartWidget).Payload)
	}
}

func TestAddObserverReceivesChanges(t *testing.T) {
	m, _ := newTestManager(t)

	var ops []string
	m.AddObserver(ObserverFunc(func(c Change) {
		ops = append(ops, c.Op)
		if c.State.ActiveID == "" {
			t.Errorf("%s: observer saw state without active dashboard", c.Op)
		}
	}))

	d := m.CreateDashboard("a")
	m.RenameDashboard(d.ID, "b")
	m.RenameDashboard("d_missing", "c")
	m.AddTextWidget()

	want := []string{"createDashboard", "renameDashboard", "addTextWidget"}
	if len(ops) != len(want) {
		t.Fatalf("expected ops %v, got %v", want, ops)
	}
	for i := range want {
		if ops[i] != want[i] {
			t.Fatalf("expected ops %v, got %v", want, ops)
		}
	}
}
