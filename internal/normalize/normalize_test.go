package normalize

import (
	"reflect"
	"testing"

	"chartboard/internal/model"
)

func decode(t *testing.T, body string) model.RawPayload {
	t.Helper()
	raw, err := model.DecodeRawPayload([]byte(body))
	if err != nil {
		t.Fatalf("decode raw payload: %v", err)
	}
	return raw
}

func labelsOf(s model.CleanSeries) []string {
	out := make([]string, len(s.Data))
	for i, p := range s.Data {
		out[i] = p.Label
	}
	return out
}

func valuesOf(s model.CleanSeries) []float64 {
	out := make([]float64, len(s.Data))
	for i, p := range s.Data {
		out[i] = p.Value
	}
	return out
}

func assertAligned(t *testing.T, p model.CleanPayload) {
	t.Helper()
	if len(p.Data) == 0 {
		return
	}
	want := labelsOf(p.Data[0])
	for _, s := range p.Data[1:] {
		if got := labelsOf(s); !reflect.DeepEqual(got, want) {
			t.Fatalf("series %q not aligned: %v vs %v", s.Series, got, want)
		}
	}
}

func TestNormalize_EndToEnd(t *testing.T) {
	t.Parallel()

	raw := decode(t, `{"data":[
		{"series":"Revenue","data":[{"label":"Jan","value":"1,000"},{"label":"Feb","value":100}]},
		{"series":"Cost","data":[{"label":"Feb","value":50}]}
	]}`)
	got := Normalize(raw)

	if len(got.Data) != 2 {
		t.Fatalf("expected 2 series, got %d", len(got.Data))
	}
	assertAligned(t, got)

	// Jan/Feb 不是月份全称，按字母序排列
	wantLabels := []string{"Feb", "Jan"}
	if l := labelsOf(got.Data[0]); !reflect.DeepEqual(l, wantLabels) {
		t.Fatalf("unexpected categories: %v", l)
	}
	byLabel := func(s model.CleanSeries) map[string]float64 {
		m := map[string]float64{}
		for _, p := range s.Data {
			m[p.Label] = p.Value
		}
		return m
	}
	rev, cost := byLabel(got.Data[0]), byLabel(got.Data[1])
	if got.Data[0].Series != "Revenue" || rev["Jan"] != 1000 || rev["Feb"] != 100 {
		t.Fatalf("unexpected revenue series: %+v", got.Data[0])
	}
	if got.Data[1].Series != "Cost" || cost["Jan"] != 0 || cost["Feb"] != 50 {
		t.Fatalf("unexpected cost series: %+v", got.Data[1])
	}
}

func TestNormalize_NumericCoercion(t *testing.T) {
	t.Parallel()

	raw := decode(t, `{"data":[{"series":"S","data":[
		{"label":"a","value":"1,234"},
		{"label":"b","value":"abc"},
		{"label":"c","value":null},
		{"label":"d"},
		{"label":"e","value":" 2 500.5 "},
		{"label":"f","value":-3.25},
		{"label":"g","value":"Infinity"},
		{"label":"h","value":true},
		{"label":"i","value":""}
	]}]}`)
	got := Normalize(raw)

	want := map[string]float64{"a": 1234, "b": 0, "c": 0, "d": 0, "e": 2500.5, "f": -3.25, "g": 0, "h": 0, "i": 0}
	for _, p := range got.Data[0].Data {
		if w, ok := want[p.Label]; !ok || p.Value != w {
			t.Errorf("label %s: value=%v want %v", p.Label, p.Value, w)
		}
	}
	if len(got.Data[0].Data) != len(want) {
		t.Fatalf("expected %d points, got %d", len(want), len(got.Data[0].Data))
	}
}

func TestNormalize_DropsBlankLabels(t *testing.T) {
	t.Parallel()

	raw := decode(t, `{"data":[{"series":"  ","data":[
		{"label":"  ","value":1},
		{"value":2},
		{"label":" x ","value":3}
	]}]}`)
	got := Normalize(raw)

	if got.Data[0].Series != DefaultSeriesName {
		t.Fatalf("expected default series name, got %q", got.Data[0].Series)
	}
	if l := labelsOf(got.Data[0]); !reflect.DeepEqual(l, []string{"x"}) {
		t.Fatalf("unexpected labels: %v", l)
	}
}

func TestNormalize_MonthOrdering(t *testing.T) {
	t.Parallel()

	raw := decode(t, `{"data":[{"series":"S","data":[
		{"label":"March","value":3},
		{"label":"January","value":1},
		{"label":"April","value":4},
		{"label":"February","value":2}
	]}]}`)
	got := Normalize(raw)

	want := []string{"January", "February", "March", "April"}
	if l := labelsOf(got.Data[0]); !reflect.DeepEqual(l, want) {
		t.Fatalf("unexpected month order: %v", l)
	}
	if v := valuesOf(got.Data[0]); !reflect.DeepEqual(v, []float64{1, 2, 3, 4}) {
		t.Fatalf("values did not follow labels: %v", v)
	}
}

func TestNormalize_MonthOrderingWithOtherLabels(t *testing.T) {
	t.Parallel()

	raw := decode(t, `{"data":[{"series":"S","data":[
		{"label":"May","value":5},
		{"label":"Total","value":0},
		{"label":"January","value":1},
		{"label":"June","value":6},
		{"label":"average","value":0},
		{"label":"March","value":3}
	]}]}`)
	got := Normalize(raw)

	want := []string{"average", "Total", "January", "March", "May", "June"}
	if l := labelsOf(got.Data[0]); !reflect.DeepEqual(l, want) {
		t.Fatalf("unexpected order: %v", l)
	}
}

func TestNormalize_TooFewMonthsFallsBackToLexicographic(t *testing.T) {
	t.Parallel()

	raw := decode(t, `{"data":[{"series":"S","data":[
		{"label":"March","value":3},
		{"label":"January","value":1},
		{"label":"February","value":2}
	]}]}`)
	got := Normalize(raw)

	want := []string{"February", "January", "March"}
	if l := labelsOf(got.Data[0]); !reflect.DeepEqual(l, want) {
		t.Fatalf("unexpected order: %v", l)
	}
}

func TestNormalize_LexicographicCaseInsensitive(t *testing.T) {
	t.Parallel()

	raw := decode(t, `{"data":[{"series":"S","data":[
		{"label":"Zeta","value":1},
		{"label":"alpha","value":2},
		{"label":"Beta","value":3}
	]}]}`)
	got := Normalize(raw)

	want := []string{"alpha", "Beta", "Zeta"}
	if l := labelsOf(got.Data[0]); !reflect.DeepEqual(l, want) {
		t.Fatalf("unexpected order: %v", l)
	}
}

func TestNormalize_AlignmentAndDuplicates(t *testing.T) {
	t.Parallel()

	raw := decode(t, `{"data":[
		{"series":"A","data":[{"label":"x","value":1},{"label":"x","value":9},{"label":"y","value":2}]},
		{"series":"B","data":[{"label":"z","value":5}]},
		{"series":"C","data":[]},
		{"series":"D"}
	]}`)
	got := Normalize(raw)

	if len(got.Data) != 4 {
		t.Fatalf("expected 4 series, got %d", len(got.Data))
	}
	assertAligned(t, got)

	if v := valuesOf(got.Data[0]); !reflect.DeepEqual(v, []float64{9, 2, 0}) {
		t.Fatalf("last duplicate should win: %v", v)
	}
	if v := valuesOf(got.Data[1]); !reflect.DeepEqual(v, []float64{0, 0, 5}) {
		t.Fatalf("unexpected B values: %v", v)
	}
	for _, s := range got.Data[2:] {
		if v := valuesOf(s); !reflect.DeepEqual(v, []float64{0, 0, 0}) {
			t.Fatalf("empty series %s should be all zeros: %v", s.Series, v)
		}
	}
}

func TestNormalize_EmptyAndMalformed(t *testing.T) {
	t.Parallel()

	for _, body := range []string{`{}`, `{"data":null}`, `{"data":"nope"}`, `{"data":[]}`} {
		got := Normalize(decode(t, body))
		if got.Data == nil || len(got.Data) != 0 {
			t.Errorf("%s: expected empty non-nil data, got %#v", body, got.Data)
		}
	}

	if _, err := model.DecodeRawPayload([]byte(`[1,2]`)); err == nil {
		t.Fatalf("expected error for non-object body")
	}
}

func TestNormalize_PassThroughMetadata(t *testing.T) {
	t.Parallel()

	got := Normalize(decode(t, `{"data":[],"summary":"sum","reasoning":"why","chartType":"Line"}`))
	if got.Summary != "sum" || got.Reasoning != "why" || got.ChartType != "Line" {
		t.Fatalf("metadata not passed through: %+v", got)
	}
}

func TestNormalize_Idempotent(t *testing.T) {
	t.Parallel()

	inputs := []string{
		`{"data":[{"series":"Revenue","data":[{"label":"Jan","value":"1,000"},{"label":"Feb","value":100}]},{"series":"Cost","data":[{"label":"Feb","value":50}]}],"summary":"s"}`,
		`{"data":[{"series":"S","data":[{"label":"May","value":5},{"label":"x","value":1},{"label":"January","value":1},{"label":"June","value":6},{"label":"X","value":2},{"label":"March","value":3}]}]}`,
		`{"data":[{"series":"S","data":[{"label":"b","value":1},{"label":"B","value":2},{"label":"a","value":3}]},{"data":[{"label":12,"value":"7"}]}]}`,
	}
	for _, body := range inputs {
		first := Normalize(decode(t, body))
		second := Normalize(model.FromClean(first))
		if !reflect.DeepEqual(first, second) {
			t.Errorf("not idempotent:\nfirst:  %+v\nsecond: %+v", first, second)
		}
	}
}
