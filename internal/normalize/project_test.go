package normalize

import (
	"reflect"
	"testing"

	"chartboard/internal/model"
)

func TestProject_Empty(t *testing.T) {
	t.Parallel()

	for _, p := range []*model.CleanPayload{nil, {Data: []model.CleanSeries{}}} {
		got := Project(p)
		if len(got.Categories) != 0 || len(got.Series) != 0 {
			t.Fatalf("expected empty projection, got %+v", got)
		}
		if got.Categories == nil || got.Series == nil {
			t.Fatalf("expected non-nil slices for JSON output")
		}
	}
}

func TestProject_FlattensAlignedSeries(t *testing.T) {
	t.Parallel()

	payload := Normalize(model.RawPayload{Data: []model.RawSeries{
		{Series: model.StringScalar("A"), Data: []model.RawPoint{
			{Label: model.StringScalar("x"), Value: model.NumberScalar(1)},
			{Label: model.StringScalar("y"), Value: model.NumberScalar(2)},
		}},
		{Series: model.StringScalar("B"), Data: []model.RawPoint{
			{Label: model.StringScalar("y"), Value: model.NumberScalar(3)},
		}},
	}})

	got := Project(&payload)
	want := Projection{
		Categories: []string{"x", "y"},
		Series: []ChartSeries{
			{Name: "A", Data: []float64{1, 2}},
			{Name: "B", Data: []float64{0, 3}},
		},
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("unexpected projection:\n got: %+v\nwant: %+v", got, want)
	}
}

func TestWidgetChartType(t *testing.T) {
	t.Parallel()

	if got := WidgetChartType(model.CleanPayload{ChartType: "Donut chart"}, model.ChartLine); got != model.ChartDonut {
		t.Fatalf("expected donut from payload hint, got %s", got)
	}
	if got := WidgetChartType(model.CleanPayload{}, model.ChartLine); got != model.ChartLine {
		t.Fatalf("expected dashboard fallback, got %s", got)
	}
	if got := WidgetChartType(model.CleanPayload{}, ""); got != model.ChartBar {
		t.Fatalf("expected bar default, got %s", got)
	}
}
