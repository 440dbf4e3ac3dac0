package exporter

import (
	"bytes"
	"image"
	"image/png"
	"math"

	"github.com/go-pdf/fpdf"
)

// writePDF 将画布位图放入一页 A4 横向 PDF：等比缩放到 min(页宽/图宽, 页高/图高) 并居中
func writePDF(img image.Image) ([]byte, error) {
	var raw bytes.Buffer
	if err := png.Encode(&raw, img); err != nil {
		return nil, err
	}

	pdf := fpdf.New("L", "pt", "A4", "")
	pdf.SetMargins(0, 0, 0)
	pdf.SetAutoPageBreak(false, 0)
	pdf.AddPage()

	opts := fpdf.ImageOptions{ImageType: "PNG"}
	pdf.RegisterImageOptionsReader("dashboard", opts, &raw)

	pageW, pageH := pdf.GetPageSize()
	w, h := fitPage(img.Bounds().Dx(), img.Bounds().Dy(), pageW, pageH)
	pdf.ImageOptions("dashboard", (pageW-w)/2, (pageH-h)/2, w, h, false, opts, 0, "")

	var out bytes.Buffer
	if err := pdf.Output(&out); err != nil {
		return nil, err
	}
	return out.Bytes(), nil
}

func fitPage(imgW, imgH int, pageW, pageH float64) (float64, float64) {
	if imgW <= 0 || imgH <= 0 {
		return 0, 0
	}
	ratio := math.Min(pageW/float64(imgW), pageH/float64(imgH))
	return float64(imgW) * ratio, float64(imgH) * ratio
}
