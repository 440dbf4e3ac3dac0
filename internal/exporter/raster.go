package exporter

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"math"
	"sort"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"chartboard/internal/model"
	"chartboard/internal/normalize"
)

var (
	canvasBackground = color.RGBA{R: 248, G: 250, B: 252, A: 255}
	cardBackground   = color.RGBA{R: 255, G: 255, B: 255, A: 255}
	cardBorder       = color.RGBA{R: 226, G: 232, B: 240, A: 255}
	textColor        = color.RGBA{R: 30, G: 41, B: 59, A: 255}
	mutedTextColor   = color.RGBA{R: 148, G: 163, B: 184, A: 255}
)

// canvasMargin 画布右侧与底部留白（CSS 像素）
const canvasMargin = 40

// ErrCanvasTooLarge 组件几何超出画布上限
var ErrCanvasTooLarge = errors.New("canvas too large")

// canvasSize 计算画布像素尺寸；几何非有限值或超过 MaxCanvasSide 时报错
func canvasSize(d model.Dashboard, opts Options) (int, int, error) {
	width, height := float64(opts.CanvasWidth), float64(opts.CanvasHeight)
	for _, w := range d.Widgets {
		b := w.Base()
		for _, v := range []float64{b.X, b.Y, b.W, b.H} {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return 0, 0, fmt.Errorf("widget %s has non-finite geometry", b.ID)
			}
		}
		width = math.Max(width, b.X+b.W+canvasMargin)
		height = math.Max(height, b.Y+b.H+canvasMargin)
	}
	limit := float64(opts.MaxCanvasSide)
	pw, ph := width*opts.PixelRatio, height*opts.PixelRatio
	if pw > limit || ph > limit {
		return 0, 0, fmt.Errorf("%w: %.0fx%.0f exceeds %d px per side", ErrCanvasTooLarge, pw, ph, opts.MaxCanvasSide)
	}
	return scaled(width, opts.PixelRatio), scaled(height, opts.PixelRatio), nil
}

// renderCanvas 按组件几何把整个仪表板画到一张位图上，尺寸乘以像素比。
// 组件按 zIndex 升序绘制，同层保持列表顺序。
func renderCanvas(d model.Dashboard, opts Options, log *zap.Logger, progress func(ProgressEvent)) (*image.RGBA, error) {
	cw, ch, err := canvasSize(d, opts)
	if err != nil {
		return nil, err
	}
	ratio := opts.PixelRatio
	canvas := image.NewRGBA(image.Rect(0, 0, cw, ch))
	draw.Draw(canvas, canvas.Bounds(), image.NewUniform(canvasBackground), image.Point{}, draw.Src)

	widgets := append(model.Widgets(nil), d.Widgets...)
	sort.SliceStable(widgets, func(i, j int) bool {
		return widgets[i].Base().ZIndex < widgets[j].Base().ZIndex
	})

	for i, w := range widgets {
		b := w.Base()
		rect := image.Rect(scaled(b.X, ratio), scaled(b.Y, ratio), scaled(b.X+b.W, ratio), scaled(b.Y+b.H, ratio))
		if rect.Empty() {
			continue
		}
		drawCard(canvas, rect)

		switch v := w.(type) {
		case model.ChartWidget:
			typ := normalize.WidgetChartType(v.Payload, d.ChartType)
			img, err := renderChart(normalize.Project(&v.Payload), typ, rect.Dx(), rect.Dy())
			if err != nil {
				log.Warn("render chart widget failed, drawing placeholder",
					zap.String("widget_id", v.ID),
					zap.String("chart_type", string(typ)),
					zap.Error(err),
				)
				img = placeholder(rect.Dx(), rect.Dy(), "Chart unavailable")
			}
			draw.Draw(canvas, rect, img, img.Bounds().Min, draw.Over)
		case model.TextWidget:
			drawText(canvas, rect.Inset(scaled(12, ratio)), v.Text)
		}
		reportProgress(progress, 10+70*(i+1)/len(widgets), "rendering")
	}
	return canvas, nil
}

func scaled(v, ratio float64) int {
	return int(math.Round(v * ratio))
}

func drawCard(dst *image.RGBA, rect image.Rectangle) {
	draw.Draw(dst, rect, image.NewUniform(cardBorder), image.Point{}, draw.Src)
	draw.Draw(dst, rect.Inset(1), image.NewUniform(cardBackground), image.Point{}, draw.Src)
}

// drawText 在矩形内按单词折行绘制文本，超出部分截断
func drawText(dst *image.RGBA, rect image.Rectangle, text string) {
	face := basicfont.Face7x13
	lineHeight := face.Metrics().Height.Ceil() + 4
	dr := &font.Drawer{Dst: dst, Src: image.NewUniform(textColor), Face: face}

	y := rect.Min.Y + face.Metrics().Ascent.Ceil()
	for _, line := range wrapText(dr, text, rect.Dx()) {
		if y > rect.Max.Y {
			return
		}
		dr.Dot = fixed.Point26_6{X: fixed.I(rect.Min.X), Y: fixed.I(y)}
		dr.DrawString(line)
		y += lineHeight
	}
}

func wrapText(dr *font.Drawer, text string, maxWidth int) []string {
	var lines []string
	for _, para := range strings.Split(text, "\n") {
		words := strings.Fields(para)
		if len(words) == 0 {
			lines = append(lines, "")
			continue
		}
		line := words[0]
		for _, word := range words[1:] {
			candidate := line + " " + word
			if dr.MeasureString(candidate).Ceil() > maxWidth {
				lines = append(lines, line)
				line = word
				continue
			}
			line = candidate
		}
		lines = append(lines, line)
	}
	return lines
}

// placeholder 无数据或渲染失败时的占位图
func placeholder(w, h int, label string) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(img, img.Bounds(), image.NewUniform(cardBackground), image.Point{}, draw.Src)

	face := basicfont.Face7x13
	dr := &font.Drawer{Dst: img, Src: image.NewUniform(mutedTextColor), Face: face}
	tw := dr.MeasureString(label).Ceil()
	x := (w - tw) / 2
	y := (h + face.Metrics().Ascent.Ceil()) / 2
	dr.Dot = fixed.Point26_6{X: fixed.I(x), Y: fixed.I(y)}
	dr.DrawString(label)
	return img
}
