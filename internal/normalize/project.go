package normalize

import "chartboard/internal/model"

// ChartSeries 渲染器使用的命名序列
type ChartSeries struct {
	Name string    `json:"name"`
	Data []float64 `json:"data"`
}

// Projection 渲染器输入：类目 + 序列
type Projection struct {
	Categories []string      `json:"categories"`
	Series     []ChartSeries `json:"series"`
}

// Project 将 CleanPayload 展平为 (类目, 序列)。类目取自第一个序列，对齐后所有序列相同。
func Project(payload *model.CleanPayload) Projection {
	if payload == nil || len(payload.Data) == 0 {
		return Projection{Categories: []string{}, Series: []ChartSeries{}}
	}
	series := make([]ChartSeries, len(payload.Data))
	for i, s := range payload.Data {
		values := make([]float64, len(s.Data))
		for j, p := range s.Data {
			values[j] = p.Value
		}
		series[i] = ChartSeries{Name: s.Series, Data: values}
	}
	return Projection{Categories: payload.Labels(), Series: series}
}

// WidgetChartType 图表组件的渲染类型：优先取数据自带的提示，否则使用仪表板的图表类型
func WidgetChartType(payload model.CleanPayload, fallback model.ChartType) model.ChartType {
	if payload.ChartType != "" {
		return Classify(payload.ChartType)
	}
	if fallback == "" {
		return model.ChartBar
	}
	return fallback
}
