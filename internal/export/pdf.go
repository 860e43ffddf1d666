package export

import (
	"io"
	"strings"
	"time"

	"github.com/hyp3rd/ewrap/pkg/ewrap"
	"github.com/phpdave11/gofpdf"
)

const (
	pdfMargin     = 10.0
	pdfRowHeight  = 6.0
	pdfFontSize   = 8.0
	pdfTitleSize  = 14.0
	pdfCellMargin = 1.0
)

// WritePDF writes a landscape A4 table, repeating the header on every page.
func (e Exporter[T]) WritePDF(w io.Writer, rows []T) error {
	pdf := gofpdf.New("L", "mm", "A4", "")
	pdf.SetMargins(pdfMargin, pdfMargin, pdfMargin)
	pdf.SetAutoPageBreak(false, pdfMargin)

	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pageW, pageH := pdf.GetPageSize()
	colW := (pageW - 2*pdfMargin) / float64(len(e.Columns))

	header := func() {
		pdf.SetFont("Helvetica", "B", pdfFontSize)
		pdf.SetFillColor(230, 230, 230)

		for _, c := range e.Columns {
			pdf.CellFormat(colW, pdfRowHeight, fit(pdf, tr, c.Header, colW), "1", 0, "L", true, 0, "")
		}

		pdf.Ln(-1)
		pdf.SetFont("Helvetica", "", pdfFontSize)
	}

	pdf.AddPage()
	pdf.SetFont("Helvetica", "B", pdfTitleSize)
	pdf.CellFormat(0, 10, tr(e.title()), "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", pdfFontSize)
	pdf.CellFormat(0, 5, tr("Generated "+e.now().Format(time.RFC1123)), "", 1, "L", false, 0, "")
	pdf.Ln(2)
	header()

	for _, row := range rows {
		if pdf.GetY()+pdfRowHeight > pageH-pdfMargin {
			pdf.AddPage()
			header()
		}

		for _, value := range e.Record(row) {
			pdf.CellFormat(colW, pdfRowHeight, fit(pdf, tr, value, colW), "1", 0, "L", false, 0, "")
		}

		pdf.Ln(-1)
	}

	if err := pdf.Output(w); err != nil {
		return ewrap.Wrap(err, "writing pdf")
	}

	return nil
}

// fit translates text to the core font encoding, truncating it with "..."
// so it fits a cell of width w.
func fit(pdf *gofpdf.Fpdf, tr func(string) string, text string, w float64) string {
	text = strings.Join(strings.Fields(text), " ")
	limit := w - 2*pdfCellMargin

	if pdf.GetStringWidth(tr(text)) <= limit {
		return tr(text)
	}

	const ellipsis = "..."

	runes := []rune(text)
	for len(runes) > 0 && pdf.GetStringWidth(tr(string(runes)+ellipsis)) > limit {
		runes = runes[:len(runes)-1]
	}

	return tr(string(runes) + ellipsis)
}
