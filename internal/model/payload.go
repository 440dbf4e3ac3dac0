package model

import (
	"bytes"
	"encoding/json"
	"errors"
	"strconv"
)

// ChartType 图表类型（封闭集合）
type ChartType string

const (
	ChartBar         ChartType = "bar"
	ChartLine        ChartType = "line"
	ChartArea        ChartType = "area"
	ChartPie         ChartType = "pie"
	ChartDonut       ChartType = "donut"
	ChartRadialBar   ChartType = "radialBar"
	ChartScatter     ChartType = "scatter"
	ChartBubble      ChartType = "bubble"
	ChartHeatmap     ChartType = "heatmap"
	ChartCandlestick ChartType = "candlestick"
)

// ChartTypes 全部图表类型，顺序与前端下拉框一致
var ChartTypes = []ChartType{
	ChartBar, ChartLine, ChartArea, ChartPie, ChartDonut,
	ChartRadialBar, ChartScatter, ChartBubble, ChartHeatmap, ChartCandlestick,
}

// CleanPoint 规范化后的数据点
type CleanPoint struct {
	Label string  `json:"label"`
	Value float64 `json:"value"`
}

// CleanSeries 规范化后的序列
type CleanSeries struct {
	Series string       `json:"series"`
	Data   []CleanPoint `json:"data"`
}

// CleanPayload 规范化后的分析结果：所有序列共享同一组有序类目
type CleanPayload struct {
	Data      []CleanSeries `json:"data"`
	Summary   string        `json:"summary,omitempty"`
	Reasoning string        `json:"reasoning,omitempty"`
	ChartType string        `json:"chartType,omitempty"`
}

// EmptyPayload 新建图表组件时的默认数据
func EmptyPayload() CleanPayload {
	return CleanPayload{Data: []CleanSeries{}, ChartType: string(ChartBar)}
}

// Labels 返回第一个序列的类目序列
func (p CleanPayload) Labels() []string {
	if len(p.Data) == 0 {
		return []string{}
	}
	labels := make([]string, len(p.Data[0].Data))
	for i, pt := range p.Data[0].Data {
		labels[i] = pt.Label
	}
	return labels
}

// Clone 深拷贝，避免状态快照之间共享切片
func (p CleanPayload) Clone() CleanPayload {
	out := p
	out.Data = make([]CleanSeries, len(p.Data))
	for i, s := range p.Data {
		out.Data[i] = CleanSeries{Series: s.Series, Data: append([]CleanPoint(nil), s.Data...)}
		if out.Data[i].Data == nil {
			out.Data[i].Data = []CleanPoint{}
		}
	}
	return out
}

// RawScalar 宽松标量：接受 JSON 数字、字符串、布尔、null 或任意其它值
type RawScalar struct {
	text    string
	number  bool
	present bool
}

// NumberScalar 构造数值标量（测试与回灌使用）
func NumberScalar(v float64) *RawScalar {
	return &RawScalar{text: strconv.FormatFloat(v, 'g', -1, 64), number: true, present: true}
}

// StringScalar 构造字符串标量
func StringScalar(s string) *RawScalar {
	return &RawScalar{text: s, present: true}
}

// UnmarshalJSON 从不返回错误，无法识别的值按原始文本保存
func (r *RawScalar) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	*r = RawScalar{}
	switch {
	case len(b) == 0 || bytes.Equal(b, []byte("null")):
		return nil
	case b[0] == '"':
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			r.text, r.present = string(b), true
			return nil
		}
		r.text, r.present = s, true
	case b[0] == '-' || (b[0] >= '0' && b[0] <= '9'):
		r.text, r.number, r.present = string(b), true, true
	default:
		r.text, r.present = string(b), true
	}
	return nil
}

// MarshalJSON 数值按数字输出，其它按字符串输出
func (r RawScalar) MarshalJSON() ([]byte, error) {
	if !r.present {
		return []byte("null"), nil
	}
	if r.number {
		return []byte(r.text), nil
	}
	return json.Marshal(r.text)
}

// String 字符串化；缺失或 null 为空串
func (r *RawScalar) String() string {
	if r == nil || !r.present {
		return ""
	}
	return r.text
}

// IsNumber JSON 原始值是否为数字
func (r *RawScalar) IsNumber() bool {
	return r != nil && r.present && r.number
}

// RawPoint 分析服务返回的数据点，字段均可缺失
type RawPoint struct {
	Label *RawScalar `json:"label,omitempty"`
	Value *RawScalar `json:"value,omitempty"`
}

// RawSeries 分析服务返回的序列
type RawSeries struct {
	Series *RawScalar `json:"series,omitempty"`
	Data   []RawPoint `json:"data,omitempty"`
}

// RawPayload 分析服务的原始响应，结构宽松
type RawPayload struct {
	Data      []RawSeries `json:"data,omitempty"`
	Summary   string      `json:"summary,omitempty"`
	Reasoning string      `json:"reasoning,omitempty"`
	ChartType string      `json:"chartType,omitempty"`
}

// ErrNotAnObject 响应体不是 JSON 对象
var ErrNotAnObject = errors.New("analysis response is not a JSON object")

// DecodeRawPayload 宽松解码：只要求顶层是 JSON 对象，字段类型不符时按缺失处理
func DecodeRawPayload(b []byte) (RawPayload, error) {
	var top map[string]json.RawMessage
	if err := json.Unmarshal(b, &top); err != nil || top == nil {
		return RawPayload{}, ErrNotAnObject
	}

	raw := RawPayload{
		Summary:   looseString(top["summary"]),
		Reasoning: looseString(top["reasoning"]),
		ChartType: looseString(top["chartType"]),
	}

	var series []json.RawMessage
	if err := json.Unmarshal(top["data"], &series); err != nil {
		return raw, nil
	}
	for _, item := range series {
		var fields map[string]json.RawMessage
		if err := json.Unmarshal(item, &fields); err != nil || fields == nil {
			// 非对象的序列项视为空序列
			raw.Data = append(raw.Data, RawSeries{})
			continue
		}
		rs := RawSeries{Series: looseScalar(fields["series"])}

		var points []json.RawMessage
		if err := json.Unmarshal(fields["data"], &points); err == nil {
			for _, p := range points {
				var pf map[string]json.RawMessage
				if err := json.Unmarshal(p, &pf); err != nil || pf == nil {
					continue
				}
				rs.Data = append(rs.Data, RawPoint{
					Label: looseScalar(pf["label"]),
					Value: looseScalar(pf["value"]),
				})
			}
		}
		raw.Data = append(raw.Data, rs)
	}
	return raw, nil
}

// FromClean 将规范化结果回灌为原始结构
func FromClean(p CleanPayload) RawPayload {
	raw := RawPayload{
		Summary:   p.Summary,
		Reasoning: p.Reasoning,
		ChartType: p.ChartType,
	}
	for _, s := range p.Data {
		rs := RawSeries{Series: StringScalar(s.Series)}
		for _, pt := range s.Data {
			rs.Data = append(rs.Data, RawPoint{Label: StringScalar(pt.Label), Value: NumberScalar(pt.Value)})
		}
		raw.Data = append(raw.Data, rs)
	}
	return raw
}

func looseScalar(b json.RawMessage) *RawScalar {
	if len(b) == 0 {
		return nil
	}
	var s RawScalar
	_ = s.UnmarshalJSON(b)
	if !s.present {
		return nil
	}
	return &s
}

func looseString(b json.RawMessage) string {
	var s string
	if len(b) == 0 || json.Unmarshal(b, &s) != nil {
		return ""
	}
	return s
}
