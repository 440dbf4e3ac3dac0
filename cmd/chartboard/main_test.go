package main

import (
	"testing"

	"chartboard/internal/model"
)

func TestNormalizeDocument(t *testing.T) {
	t.Parallel()

	out, err := normalizeDocument([]byte(`{"data":[{"series":"S","data":[{"label":"March","value":"3"},{"label":"January","value":1}]}],"chartType":"Bar"}`))
	if err != nil {
		t.Fatalf("normalize: %v", err)
	}
	if out.ChartType != model.ChartBar {
		t.Fatalf("unexpected chart type %s", out.ChartType)
	}
	if len(out.Projection.Categories) != 2 || out.Projection.Series[0].Data[1] != 3 {
		t.Fatalf("unexpected projection: %+v", out.Projection)
	}

	if _, err := normalizeDocument([]byte(`"just a string"`)); err == nil {
		t.Fatalf("expected error for non-object input")
	}
}
