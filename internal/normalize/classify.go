package normalize

import (
	"strings"

	"chartboard/internal/model"
)

// classifyRules 按优先级排列，首个命中即返回
var classifyRules = []struct {
	keywords []string
	chart    model.ChartType
}{
	{[]string{"line"}, model.ChartLine},
	{[]string{"area"}, model.ChartArea},
	{[]string{"pie"}, model.ChartPie},
	{[]string{"donut"}, model.ChartDonut},
	{[]string{"radialbar", "radial"}, model.ChartRadialBar},
	{[]string{"scatter"}, model.ChartScatter},
	{[]string{"bubble"}, model.ChartBubble},
	{[]string{"heatmap"}, model.ChartHeatmap},
	{[]string{"candle"}, model.ChartCandlestick},
}

// Classify 将自由文本的图表类型提示映射为固定的图表类型，无法识别时为 bar
func Classify(hint string) model.ChartType {
	x := strings.ToLower(hint)
	if x == "" {
		return model.ChartBar
	}
	for _, rule := range classifyRules {
		for _, kw := range rule.keywords {
			if strings.Contains(x, kw) {
				return rule.chart
			}
		}
	}
	return model.ChartBar
}
