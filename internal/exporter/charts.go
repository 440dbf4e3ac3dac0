package exporter

import (
	"bytes"
	"fmt"
	"image"
	"image/png"
	"math"

	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"chartboard/internal/model"
	"chartboard/internal/normalize"
)

var palette = []drawing.Color{
	drawing.ColorFromHex("4e79a7"),
	drawing.ColorFromHex("f28e2b"),
	drawing.ColorFromHex("e15759"),
	drawing.ColorFromHex("76b7b2"),
	drawing.ColorFromHex("59a14f"),
	drawing.ColorFromHex("edc948"),
	drawing.ColorFromHex("b07aa1"),
	drawing.ColorFromHex("ff9da7"),
}

func seriesColor(i int) drawing.Color {
	return palette[i%len(palette)]
}

// maxAxisTicks 类目轴最多标注的刻度数
const maxAxisTicks = 12

// renderChart 将投影渲染为 w×h 的位图。
// pie/donut/radialBar 画扇形；line/area/scatter/bubble 画连续序列；其余按柱状图绘制。
func renderChart(p normalize.Projection, typ model.ChartType, w, h int) (image.Image, error) {
	if len(p.Categories) == 0 || len(p.Series) == 0 {
		return placeholder(w, h, "No data"), nil
	}

	var (
		buf bytes.Buffer
		err error
	)
	switch typ {
	case model.ChartPie, model.ChartDonut, model.ChartRadialBar:
		values := pieValues(p)
		if len(values) == 0 {
			return placeholder(w, h, "No positive values"), nil
		}
		pc := chart.PieChart{Width: w, Height: h, Values: values}
		err = pc.Render(chart.PNG, &buf)
	case model.ChartLine, model.ChartArea, model.ChartScatter, model.ChartBubble:
		err = lineChart(p, typ, w, h).Render(chart.PNG, &buf)
	default:
		err = renderBars(p, w, h, &buf)
	}
	if err != nil {
		return nil, fmt.Errorf("render %s chart: %w", typ, err)
	}

	img, err := png.Decode(&buf)
	if err != nil {
		return nil, fmt.Errorf("decode %s chart: %w", typ, err)
	}
	if typ == model.ChartDonut {
		img = punchHole(img)
	}
	return img, nil
}

// pieValues 扇形图只取第一个序列中的正值
func pieValues(p normalize.Projection) []chart.Value {
	values := make([]chart.Value, 0, len(p.Categories))
	for i, v := range p.Series[0].Data {
		if v <= 0 || math.IsNaN(v) {
			continue
		}
		values = append(values, chart.Value{
			Label: p.Categories[i],
			Value: v,
			Style: chart.Style{FillColor: seriesColor(i), StrokeColor: drawing.ColorWhite},
		})
	}
	return values
}

func valueRange(p normalize.Projection) (lo, hi float64) {
	lo, hi = 0, 0
	for _, s := range p.Series {
		for _, v := range s.Data {
			lo = math.Min(lo, v)
			hi = math.Max(hi, v)
		}
	}
	if hi-lo == 0 {
		hi = lo + 1
	}
	return lo, hi + (hi-lo)*0.05
}

func categoryTicks(categories []string) []chart.Tick {
	step := 1
	if len(categories) > maxAxisTicks {
		step = int(math.Ceil(float64(len(categories)) / maxAxisTicks))
	}
	ticks := make([]chart.Tick, 0, len(categories)/step+1)
	for i := 0; i < len(categories); i += step {
		ticks = append(ticks, chart.Tick{Value: float64(i), Label: categories[i]})
	}
	return ticks
}

func lineChart(p normalize.Projection, typ model.ChartType, w, h int) chart.Chart {
	xs := make([]float64, len(p.Categories))
	for i := range xs {
		xs[i] = float64(i)
	}

	series := make([]chart.Series, 0, len(p.Series))
	for i, s := range p.Series {
		col := seriesColor(i)
		var st chart.Style
		switch typ {
		case model.ChartArea:
			st = chart.Style{StrokeColor: col, StrokeWidth: 2, FillColor: col.WithAlpha(64)}
		case model.ChartScatter, model.ChartBubble:
			st = chart.Style{StrokeWidth: 0, DotWidth: 4, DotColor: col}
		default:
			st = chart.Style{StrokeColor: col, StrokeWidth: 2}
		}
		series = append(series, chart.ContinuousSeries{Name: s.Name, XValues: xs, YValues: s.Data, Style: st})
	}

	lo, hi := valueRange(p)
	ch := chart.Chart{
		Width:      w,
		Height:     h,
		Background: chart.Style{Padding: chart.Box{Top: 24, Left: 16, Right: 16, Bottom: 16}},
		XAxis: chart.XAxis{
			Ticks: categoryTicks(p.Categories),
			Range: &chart.ContinuousRange{Min: 0, Max: math.Max(float64(len(xs)-1), 1)},
		},
		YAxis:  chart.YAxis{Range: &chart.ContinuousRange{Min: lo, Max: hi}},
		Series: series,
	}
	ch.Elements = []chart.Renderable{chart.Legend(&ch)}
	return ch
}

// renderBars 单序列画柱状图；go-chart 不支持分组柱状图，多序列退化为折线
func renderBars(p normalize.Projection, w, h int, buf *bytes.Buffer) error {
	if len(p.Series) > 1 {
		return lineChart(p, model.ChartLine, w, h).Render(chart.PNG, buf)
	}
	lo, hi := valueRange(p)
	bars := make([]chart.Value, len(p.Categories))
	for i, label := range p.Categories {
		bars[i] = chart.Value{Label: label, Value: p.Series[0].Data[i], Style: chart.Style{FillColor: seriesColor(0), StrokeColor: seriesColor(0)}}
	}
	bc := chart.BarChart{
		Width:      w,
		Height:     h,
		BarWidth:   barWidth(w, len(bars)),
		Background: chart.Style{Padding: chart.Box{Top: 24}},
		YAxis:      chart.YAxis{Range: &chart.ContinuousRange{Min: lo, Max: hi}},
		Bars:       bars,
	}
	return bc.Render(chart.PNG, buf)
}

func barWidth(w, n int) int {
	bw := w / (2 * n)
	if bw < 4 {
		return 4
	}
	if bw > 60 {
		return 60
	}
	return bw
}

// punchHole 在扇形图中心挖空，得到环形图
func punchHole(img image.Image) image.Image {
	b := img.Bounds()
	out := image.NewRGBA(b)
	cx, cy := float64(b.Min.X+b.Dx()/2), float64(b.Min.Y+b.Dy()/2)
	r := math.Min(float64(b.Dx()), float64(b.Dy())) / 5
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			dx, dy := float64(x)-cx, float64(y)-cy
			if dx*dx+dy*dy <= r*r {
				out.Set(x, y, cardBackground)
				continue
			}
			out.Set(x, y, img.At(x, y))
		}
	}
	return out
}
