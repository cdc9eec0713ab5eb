package reports

import (
	"encoding/csv"
	"fmt"
	"io"

	"github.com/phpdave11/gofpdf"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// WriteCSV: Excel がそのまま開けるよう UTF-8 BOM 付きで書く
func WriteCSV(w io.Writer, t *Table) error {
	tw := transform.NewWriter(w, unicode.UTF8BOM.NewEncoder())
	cw := csv.NewWriter(tw)
	if err := cw.Write(t.Header); err != nil {
		return err
	}
	if err := cw.WriteAll(t.Rows); err != nil {
		return err
	}
	return tw.Close()
}

const bottomMargin = 12

// WritePDF: A4 横の表。列幅はヘッダと値の文字数から配分する
func WritePDF(w io.Writer, t *Table) error {
	pdf := gofpdf.New("L", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("") // core フォントは cp1252
	pdf.SetMargins(10, 10, 10)
	pdf.SetAutoPageBreak(true, bottomMargin)
	pdf.SetFooterFunc(func() {
		pdf.SetY(-10)
		pdf.SetFont("Arial", "I", 7)
		pdf.CellFormat(0, 5, fmt.Sprintf("%d", pdf.PageNo()), "", 0, "R", false, 0, "")
	})

	widths := columnWidths(t, 277)
	header := func() {
		pdf.SetFont("Arial", "B", 8)
		pdf.SetFillColor(230, 230, 230)
		for i, h := range t.Header {
			pdf.CellFormat(widths[i], 6, tr(h), "1", 0, "L", true, 0, "")
		}
		pdf.Ln(-1)
		pdf.SetFont("Arial", "", 7)
	}

	pdf.AddPage()
	pdf.SetFont("Arial", "B", 14)
	pdf.CellFormat(0, 8, tr(t.Title), "", 1, "L", false, 0, "")
	pdf.SetFont("Arial", "", 8)
	pdf.CellFormat(0, 5, fmt.Sprintf("Generated %s UTC  |  %d rows", fmtTime(t.GeneratedAt), len(t.Rows)), "", 1, "L", false, 0, "")
	pdf.Ln(2)
	header()

	_, pageH := pdf.GetPageSize()
	for _, row := range t.Rows {
		if pdf.GetY()+5 > pageH-bottomMargin-2 {
			pdf.AddPage()
			header()
		}
		for i, v := range row {
			pdf.CellFormat(widths[i], 5, fit(pdf, tr(v), widths[i]-1), "1", 0, "L", false, 0, "")
		}
		pdf.Ln(-1)
	}
	if err := pdf.Error(); err != nil {
		return err
	}
	return pdf.Output(w)
}

func columnWidths(t *Table, total float64) []float64 {
	weights := make([]float64, len(t.Header))
	sum := 0.0
	for i, h := range t.Header {
		n := len(h)
		for _, row := range t.Rows {
			if i < len(row) && len(row[i]) > n {
				n = len(row[i])
			}
		}
		// 長い列が全体を占有しないよう上限
		weights[i] = float64(min(max(n, 4), 40))
		sum += weights[i]
	}
	out := make([]float64, len(weights))
	for i, wt := range weights {
		out[i] = total * wt / sum
	}
	return out
}

// fit: セル幅に収まるよう末尾を切り詰める（s は変換済みの 1 バイト文字列）
func fit(pdf *gofpdf.Fpdf, s string, width float64) string {
	if pdf.GetStringWidth(s) <= width {
		return s
	}
	for len(s) > 0 && pdf.GetStringWidth(s+"...") > width {
		s = s[:len(s)-1]
	}
	return s + "..."
}
