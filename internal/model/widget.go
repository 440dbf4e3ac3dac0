package model

import (
	"encoding/json"
	"fmt"
)

// WidgetKind 组件种类，创建后不可变
type WidgetKind string

const (
	KindChart WidgetKind = "chart"
	KindText  WidgetKind = "text"
)

// WidgetBase 组件公共属性（画布几何 + 层级）
type WidgetBase struct {
	ID     string  `json:"id"`
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	W      float64 `json:"w"`
	H      float64 `json:"h"`
	ZIndex int     `json:"zIndex"`
}

// Widget 组件：ChartWidget 或 TextWidget
type Widget interface {
	Kind() WidgetKind
	Base() WidgetBase
	widget()
}

// ChartWidget 图表组件
type ChartWidget struct {
	WidgetBase
	Payload CleanPayload `json:"payload"`
}

// TextWidget 文本组件
type TextWidget struct {
	WidgetBase
	Text string `json:"text"`
}

func (ChartWidget) Kind() WidgetKind   { return KindChart }
func (w ChartWidget) Base() WidgetBase { return w.WidgetBase }
func (ChartWidget) widget()            {}

func (TextWidget) Kind() WidgetKind   { return KindText }
func (w TextWidget) Base() WidgetBase { return w.WidgetBase }
func (TextWidget) widget()            {}

// MarshalJSON 输出时附带 kind 标签
func (w ChartWidget) MarshalJSON() ([]byte, error) {
	type plain ChartWidget
	return json.Marshal(struct {
		Kind WidgetKind `json:"kind"`
		plain
	}{KindChart, plain(w)})
}

// MarshalJSON 输出时附带 kind 标签
func (w TextWidget) MarshalJSON() ([]byte, error) {
	type plain TextWidget
	return json.Marshal(struct {
		Kind WidgetKind `json:"kind"`
		plain
	}{KindText, plain(w)})
}

// Widgets 有序组件列表，按 kind 标签解码
type Widgets []Widget

// UnmarshalJSON 根据 kind 字段分派具体类型
func (ws *Widgets) UnmarshalJSON(b []byte) error {
	var items []json.RawMessage
	if err := json.Unmarshal(b, &items); err != nil {
		return err
	}
	out := make(Widgets, 0, len(items))
	for _, item := range items {
		var head struct {
			Kind WidgetKind `json:"kind"`
		}
		if err := json.Unmarshal(item, &head); err != nil {
			return err
		}
		switch head.Kind {
		case KindChart:
			var w ChartWidget
			if err := json.Unmarshal(item, &w); err != nil {
				return err
			}
			if w.Payload.Data == nil {
				w.Payload.Data = []CleanSeries{}
			}
			out = append(out, w)
		case KindText:
			var w TextWidget
			if err := json.Unmarshal(item, &w); err != nil {
				return err
			}
			out = append(out, w)
		default:
			return fmt.Errorf("unknown widget kind %q", head.Kind)
		}
	}
	*ws = out
	return nil
}

// Find 按 id 查找组件
func (ws Widgets) Find(id string) (Widget, int, bool) {
	for i, w := range ws {
		if w.Base().ID == id {
			return w, i, true
		}
	}
	return nil, -1, false
}

// GeometryPatch 几何字段的部分更新，适用于任意组件
type GeometryPatch struct {
	X      *float64 `json:"x,omitempty"`
	Y      *float64 `json:"y,omitempty"`
	W      *float64 `json:"w,omitempty"`
	H      *float64 `json:"h,omitempty"`
	ZIndex *int     `json:"zIndex,omitempty"`
}

// WidgetPatch 组件部分更新。实现方只能修改与自身 kind 匹配的字段，kind 本身不可修改。
type WidgetPatch interface {
	// Apply 返回更新后的组件；kind 不匹配时 ok 为 false
	Apply(w Widget) (Widget, bool)
}

// ChartPatch 图表组件更新：几何 + 数据
type ChartPatch struct {
	GeometryPatch
	Payload *CleanPayload `json:"payload,omitempty"`
}

// TextPatch 文本组件更新：几何 + 文本
type TextPatch struct {
	GeometryPatch
	Text *string `json:"text,omitempty"`
}

func (p GeometryPatch) merge(b WidgetBase) WidgetBase {
	if p.X != nil {
		b.X = *p.X
	}
	if p.Y != nil {
		b.Y = *p.Y
	}
	if p.W != nil {
		b.W = *p.W
	}
	if p.H != nil {
		b.H = *p.H
	}
	if p.ZIndex != nil {
		b.ZIndex = *p.ZIndex
	}
	return b
}

// Apply 仅修改几何字段
func (p GeometryPatch) Apply(w Widget) (Widget, bool) {
	switch v := w.(type) {
	case ChartWidget:
		v.WidgetBase = p.merge(v.WidgetBase)
		return v, true
	case TextWidget:
		v.WidgetBase = p.merge(v.WidgetBase)
		return v, true
	}
	return w, false
}

// Apply 只作用于图表组件
func (p ChartPatch) Apply(w Widget) (Widget, bool) {
	v, ok := w.(ChartWidget)
	if !ok {
		return w, false
	}
	v.WidgetBase = p.merge(v.WidgetBase)
	if p.Payload != nil {
		v.Payload = p.Payload.Clone()
	}
	return v, true
}

// Apply 只作用于文本组件
func (p TextPatch) Apply(w Widget) (Widget, bool) {
	v, ok := w.(TextWidget)
	if !ok {
		return w, false
	}
	v.WidgetBase = p.merge(v.WidgetBase)
	if p.Text != nil {
		v.Text = *p.Text
	}
	return v, true
}
