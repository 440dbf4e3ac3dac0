package normalize

import (
	"math"
	"sort"
	"strconv"
	"strings"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"chartboard/internal/model"
)

// DefaultSeriesName 序列名为空时使用的名称
const DefaultSeriesName = "Series"

// Normalize 将分析服务的原始响应转换为对齐的 CleanPayload。
// 任意畸形输入都会回落到默认值，从不失败。
func Normalize(raw model.RawPayload) model.CleanPayload {
	cleaned := make([]model.CleanSeries, 0, len(raw.Data))
	for _, s := range raw.Data {
		name := strings.TrimSpace(scalarText(s.Series))
		if name == "" {
			name = DefaultSeriesName
		}
		points := make([]model.CleanPoint, 0, len(s.Data))
		for _, p := range s.Data {
			label := strings.TrimSpace(scalarText(p.Label))
			if label == "" {
				continue
			}
			points = append(points, model.CleanPoint{Label: label, Value: coerceValue(p.Value)})
		}
		cleaned = append(cleaned, model.CleanSeries{Series: name, Data: points})
	}

	categories := unionCategories(cleaned)
	sortCategories(categories)

	aligned := make([]model.CleanSeries, 0, len(cleaned))
	for _, s := range cleaned {
		lookup := make(map[string]float64, len(s.Data))
		for _, p := range s.Data {
			lookup[p.Label] = p.Value
		}
		data := make([]model.CleanPoint, len(categories))
		for i, label := range categories {
			data[i] = model.CleanPoint{Label: label, Value: lookup[label]}
		}
		aligned = append(aligned, model.CleanSeries{Series: s.Series, Data: data})
	}

	return model.CleanPayload{
		Data:      aligned,
		Summary:   raw.Summary,
		Reasoning: raw.Reasoning,
		ChartType: raw.ChartType,
	}
}

func unionCategories(series []model.CleanSeries) []string {
	seen := make(map[string]struct{})
	categories := []string{}
	for _, s := range series {
		for _, p := range s.Data {
			if _, ok := seen[p.Label]; ok {
				continue
			}
			seen[p.Label] = struct{}{}
			categories = append(categories, p.Label)
		}
	}
	return categories
}

// sortCategories 月份为主时按日历排序（非月份类目排在前面，彼此按字母序），
// 否则按不区分大小写的字母序排序；比较相等时按字节序决胜，保证结果确定。
func sortCategories(categories []string) {
	col := collate.New(language.Und, collate.IgnoreCase, collate.IgnoreDiacritics)
	lexLess := func(a, b string) bool {
		if c := col.CompareString(a, b); c != 0 {
			return c < 0
		}
		return a < b
	}

	if mostlyMonths(categories) {
		rank := func(s string) int {
			if i, ok := monthIndex[s]; ok {
				return i
			}
			return -1
		}
		sort.SliceStable(categories, func(i, j int) bool {
			ri, rj := rank(categories[i]), rank(categories[j])
			if ri != rj {
				return ri < rj
			}
			return lexLess(categories[i], categories[j])
		})
		return
	}

	sort.SliceStable(categories, func(i, j int) bool {
		return lexLess(categories[i], categories[j])
	})
}

// coerceValue 数字原样使用；其它值去掉逗号与空格后解析，非有限值为 0
func coerceValue(v *model.RawScalar) float64 {
	if v == nil {
		return 0
	}
	text := v.String()
	if !v.IsNumber() {
		text = strings.NewReplacer(",", "", " ", "").Replace(text)
		text = strings.TrimSpace(text)
		if text == "" {
			return 0
		}
	}
	n, err := strconv.ParseFloat(text, 64)
	if err != nil || math.IsNaN(n) || math.IsInf(n, 0) {
		return 0
	}
	return n
}

// scalarText 标量的文本形式；数字按十进制最短形式输出
func scalarText(v *model.RawScalar) string {
	if v == nil {
		return ""
	}
	if v.IsNumber() {
		if n, err := strconv.ParseFloat(v.String(), 64); err == nil && math.Abs(n) < 1e21 {
			return strconv.FormatFloat(n, 'f', -1, 64)
		}
	}
	return v.String()
}
