package exporter

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"chartboard/internal/model"
	"chartboard/internal/normalize"
)

const overviewSheet = "Dashboard"

// excelChartTypes 图表类型到 Excel 原生图表的映射；未列出的按簇状柱形图
var excelChartTypes = map[model.ChartType]excelize.ChartType{
	model.ChartLine:    excelize.Line,
	model.ChartArea:    excelize.Area,
	model.ChartPie:     excelize.Pie,
	model.ChartDonut:   excelize.Doughnut,
	model.ChartScatter: excelize.Scatter,
	model.ChartBubble:  excelize.Scatter,
}

func excelChartType(t model.ChartType) excelize.ChartType {
	if ct, ok := excelChartTypes[t]; ok {
		return ct
	}
	return excelize.Col
}

// writeWorkbook 导出 xlsx：总览页列出组件，每个图表组件一页数据 + 一个原生图表
func writeWorkbook(d model.Dashboard, progress func(ProgressEvent)) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	fail := func(stage string, err error) ([]byte, error) {
		return nil, &ExportFailedError{Stage: stage, Cause: err}
	}

	if err := f.SetSheetName("Sheet1", overviewSheet); err != nil {
		return fail("write overview", err)
	}
	rows := [][]interface{}{
		{"Dashboard", d.Name},
		{"ID", d.ID},
		{"Chart type", string(d.ChartType)},
		{},
		{"Widget", "Kind", "X", "Y", "W", "H", "Z", "Content"},
	}

	chartIndex := 0
	for i, w := range d.Widgets {
		b := w.Base()
		content := ""
		switch v := w.(type) {
		case model.TextWidget:
			content = v.Text
		case model.ChartWidget:
			chartIndex++
			sheet := fmt.Sprintf("Chart %d", chartIndex)
			content = sheet
			if err := writeChartSheet(f, sheet, v, normalize.WidgetChartType(v.Payload, d.ChartType)); err != nil {
				return fail("write "+sheet, err)
			}
		}
		rows = append(rows, []interface{}{b.ID, string(w.Kind()), b.X, b.Y, b.W, b.H, b.ZIndex, content})
		reportProgress(progress, 10+70*(i+1)/len(d.Widgets), "writing")
	}

	for i, row := range rows {
		cell, _ := excelize.CoordinatesToCellName(1, i+1)
		r := row
		if err := f.SetSheetRow(overviewSheet, cell, &r); err != nil {
			return fail("write overview", err)
		}
	}
	f.SetActiveSheet(0)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return fail("encode xlsx", err)
	}
	reportProgress(progress, 90, "encoded")
	return buf.Bytes(), nil
}

// writeChartSheet 写入类目 × 序列的数据表，并在右侧插入图表。空数据只写表头。
func writeChartSheet(f *excelize.File, sheet string, w model.ChartWidget, typ model.ChartType) error {
	if _, err := f.NewSheet(sheet); err != nil {
		return err
	}
	p := normalize.Project(&w.Payload)

	header := []interface{}{"Category"}
	for _, s := range p.Series {
		header = append(header, s.Name)
	}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return err
	}
	for i, label := range p.Categories {
		row := []interface{}{label}
		for _, s := range p.Series {
			row = append(row, s.Data[i])
		}
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return err
		}
	}
	if len(p.Categories) == 0 || len(p.Series) == 0 {
		return nil
	}

	ct := excelChartType(typ)
	last := len(p.Categories) + 1
	var series []excelize.ChartSeries
	for i := range p.Series {
		col, _ := excelize.ColumnNumberToName(i + 2)
		series = append(series, excelize.ChartSeries{
			Name:       fmt.Sprintf("'%s'!$%s$1", sheet, col),
			Categories: fmt.Sprintf("'%s'!$A$2:$A$%d", sheet, last),
			Values:     fmt.Sprintf("'%s'!$%s$2:$%s$%d", sheet, col, col, last),
		})
		if ct == excelize.Pie || ct == excelize.Doughnut {
			break
		}
	}

	anchor, _ := excelize.CoordinatesToCellName(len(p.Series)+3, 1)
	title := w.Payload.Summary
	if title == "" {
		title = sheet
	}
	return f.AddChart(sheet, anchor, &excelize.Chart{
		Type:   ct,
		Series: series,
		Title:  []excelize.RichTextRun{{Text: title}},
		Legend: excelize.ChartLegend{Position: "bottom"},
	})
}
