package render

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/jung-kurt/gofpdf"

	"pagedoc/internal/docmodel"
)

const (
	pdfMargin   = 20.0
	pdfBodySize = 11.0
	pdfCodeSize = 9.0
	pdfLineH    = 5.5
	pdfCodeH    = 4.5
	pdfCellPad  = 1.5
)

var pdfHeadingSizes = map[int]float64{1: 20, 2: 16, 3: 14, 4: 12}

// PDFWriter lays blocks out top to bottom on A4 pages.
type PDFWriter struct {
	pdf        *gofpdf.Fpdf
	bodyFont   string
	codeFont   string
	tr         func(string) string
	numbered   int
	inNumbered bool
}

func NewPDFWriter(opts Options) (*PDFWriter, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(pdfMargin, pdfMargin, pdfMargin)
	pdf.SetAutoPageBreak(true, pdfMargin)
	pdf.SetTitle(opts.Title, true)
	pdf.SetCreator("pagedoc", true)
	pdf.SetCreationDate(opts.Created)

	w := &PDFWriter{pdf: pdf, bodyFont: "Helvetica", codeFont: "Courier"}
	if opts.PDFFont != "" {
		pdf.AddUTF8Font("body", "", opts.PDFFont)
		pdf.AddUTF8Font("body", "B", opts.PDFFont)
		if pdf.Err() {
			return nil, fmt.Errorf("load pdf font %s: %w", opts.PDFFont, pdf.Error())
		}
		w.bodyFont = "body"
		w.codeFont = "body"
		w.tr = func(s string) string { return s }
	} else {
		w.tr = pdf.UnicodeTranslatorFromDescriptor("")
	}
	pdf.AddPage()
	pdf.SetFont(w.bodyFont, "", pdfBodySize)
	return w, nil
}

func (w *PDFWriter) contentWidth() float64 {
	pageW, _ := w.pdf.GetPageSize()
	left, _, right, _ := w.pdf.GetMargins()
	return pageW - left - right
}

func (w *PDFWriter) endNumbered() {
	w.inNumbered = false
}

func (w *PDFWriter) AddHeading(level int, text string) {
	w.endNumbered()
	size, ok := pdfHeadingSizes[level]
	if !ok {
		size = pdfBodySize
	}
	w.pdf.Ln(size * 0.2)
	w.pdf.SetFont(w.bodyFont, "B", size)
	w.pdf.MultiCell(0, size*0.5, w.tr(text), "", "L", false)
	w.pdf.SetFont(w.bodyFont, "", pdfBodySize)
	w.pdf.Ln(1)
}

func (w *PDFWriter) AddParagraph(runs []docmodel.TextRun) {
	w.endNumbered()
	for _, r := range runs {
		if r.Text == "" {
			continue
		}
		style := ""
		if r.Bold {
			style = "B"
		}
		w.pdf.SetFont(w.bodyFont, style, pdfBodySize)
		w.pdf.Write(pdfLineH, w.tr(r.Text))
	}
	w.pdf.SetFont(w.bodyFont, "", pdfBodySize)
	w.pdf.Ln(pdfLineH)
}

func (w *PDFWriter) listItem(marker, text string) {
	const indent = 6.0
	left, _, _, _ := w.pdf.GetMargins()
	w.pdf.SetX(left)
	w.pdf.CellFormat(indent, pdfLineH, w.tr(marker), "", 0, "R", false, 0, "")
	w.pdf.SetLeftMargin(left + indent + 1)
	w.pdf.MultiCell(0, pdfLineH, w.tr(text), "", "L", false)
	w.pdf.SetLeftMargin(left)
	w.pdf.SetX(left)
}

func (w *PDFWriter) AddBulletItem(text string) {
	w.endNumbered()
	w.listItem("•", text)
}

func (w *PDFWriter) AddNumberedItem(text string) {
	if !w.inNumbered {
		w.inNumbered = true
		w.numbered = 0
	}
	w.numbered++
	w.listItem(strconv.Itoa(w.numbered)+".", text)
}

func (w *PDFWriter) AddCodeLine(text string) {
	w.endNumbered()
	w.pdf.SetFont(w.codeFont, "", pdfCodeSize)
	w.pdf.SetFillColor(242, 242, 242)
	if text == "" {
		text = " "
	}
	w.pdf.MultiCell(0, pdfCodeH, w.tr(strings.ReplaceAll(text, "\t", "    ")), "", "L", true)
	w.pdf.SetFont(w.bodyFont, "", pdfBodySize)
}

func (w *PDFWriter) AddTable(rows [][]string) {
	w.endNumbered()
	t := docmodel.Table{Rows: rows}
	width := t.Width()
	if width == 0 {
		return
	}
	colW := w.contentWidth() / float64(width)
	left, _, _, bottom := w.pdf.GetMargins()
	_, pageH := w.pdf.GetPageSize()

	for i, row := range t.Normalized() {
		style := ""
		if i == 0 {
			style = "B"
		}
		w.pdf.SetFont(w.bodyFont, style, pdfBodySize)

		lines := make([][]string, len(row))
		maxLines := 1
		for j, cell := range row {
			lines[j] = w.pdf.SplitText(w.tr(cell), colW-2*pdfCellPad)
			if len(lines[j]) > maxLines {
				maxLines = len(lines[j])
			}
		}
		rowH := float64(maxLines)*pdfLineH + pdfCellPad
		if w.pdf.GetY()+rowH > pageH-bottom {
			w.pdf.AddPage()
		}
		y := w.pdf.GetY()
		for j := range row {
			x := left + float64(j)*colW
			w.pdf.Rect(x, y, colW, rowH, "D")
			for k, line := range lines[j] {
				w.pdf.SetXY(x+pdfCellPad, y+pdfCellPad/2+float64(k)*pdfLineH)
				w.pdf.CellFormat(colW-2*pdfCellPad, pdfLineH, line, "", 0, "L", false, 0, "")
			}
		}
		w.pdf.SetXY(left, y+rowH)
	}
	w.pdf.SetFont(w.bodyFont, "", pdfBodySize)
	w.pdf.Ln(2)
}

func (w *PDFWriter) AddBlankParagraph() {
	w.endNumbered()
	w.pdf.Ln(pdfLineH)
}

func (w *PDFWriter) AddPageBreak() {
	w.endNumbered()
	w.pdf.AddPage()
}

func (w *PDFWriter) Save(out io.Writer) error {
	if w.pdf.Err() {
		return w.pdf.Error()
	}
	return w.pdf.Output(out)
}
