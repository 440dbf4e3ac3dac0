package importer

import (
	"bytes"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"
)

// ErrUnsupportedFile 不支持的文件类型
var ErrUnsupportedFile = errors.New("unsupported file type")

// AcceptedExtensions 可导入的文件扩展名
var AcceptedExtensions = []string{".xlsx", ".xls", ".csv"}

// SheetInfo 工作表概要
type SheetInfo struct {
	Name string `json:"name"`
	Rows int    `json:"rows"`
}

// WorkbookInfo 上传工作簿概要
type WorkbookInfo struct {
	Sheets []SheetInfo `json:"sheets"`
}

// Inspect 校验上传文件。xlsx 会用 excelize 打开并统计各 Sheet 行数；
// xls / csv 只校验扩展名，由分析服务解析。
func Inspect(fileName string, data []byte) (*WorkbookInfo, error) {
	ext := strings.ToLower(filepath.Ext(fileName))
	accepted := false
	for _, a := range AcceptedExtensions {
		if ext == a {
			accepted = true
			break
		}
	}
	if !accepted {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFile, fileName)
	}
	if len(data) == 0 {
		return nil, errors.New("uploaded file is empty")
	}
	if ext != ".xlsx" {
		return nil, nil
	}

	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	info := &WorkbookInfo{Sheets: []SheetInfo{}}
	for _, name := range f.GetSheetList() {
		rows, err := f.GetRows(name)
		if err != nil {
			return nil, fmt.Errorf("read sheet %s: %w", name, err)
		}
		info.Sheets = append(info.Sheets, SheetInfo{Name: name, Rows: len(rows)})
	}
	return info, nil
}
