package render

import (
	"fmt"
	"io"

	"github.com/gomutex/godocx"
	"github.com/gomutex/godocx/docx"

	"pagedoc/internal/docmodel"
)

// DOCXWriter plays blocks into a godocx document built from its default
// template. Each contiguous run of numbered items gets its own list instance
// so numbering restarts at 1.
type DOCXWriter struct {
	doc   *docx.RootDoc
	numID int
}

// decimalList is godocx's built-in decimal multilevel definition.
const decimalList = 1

func NewDOCXWriter(opts Options) (*DOCXWriter, error) {
	doc, err := godocx.NewDocument()
	if err != nil {
		return nil, fmt.Errorf("failed to create docx document: %w", err)
	}
	return &DOCXWriter{doc: doc}, nil
}

func (d *DOCXWriter) AddHeading(level int, text string) {
	d.numID = 0
	if level < 1 {
		level = 1
	}
	if level > 4 {
		level = 4
	}
	d.doc.AddHeading(text, uint(level))
}

func (d *DOCXWriter) AddParagraph(runs []docmodel.TextRun) {
	d.numID = 0
	p := d.doc.AddEmptyParagraph()
	for _, r := range runs {
		if r.Text == "" {
			continue
		}
		run := p.AddText(r.Text)
		if r.Bold {
			run.Bold(true)
		}
	}
}

func (d *DOCXWriter) AddBulletItem(text string) {
	d.numID = 0
	d.doc.AddParagraph(text).Style("ListBullet")
}

func (d *DOCXWriter) AddNumberedItem(text string) {
	if d.numID == 0 {
		d.numID = d.doc.NewListInstance(decimalList)
	}
	p := d.doc.AddParagraph(text)
	p.Style("ListNumber")
	p.Numbering(d.numID, 0)
}

func (d *DOCXWriter) AddCodeLine(text string) {
	d.numID = 0
	p := d.doc.AddEmptyParagraph()
	p.Style("MacroText")
	run := p.AddText(text)
	run.Font("Courier New")
	run.Size(9)
}

// AddTable sizes the grid by the first row; longer rows are cut and shorter
// rows padded.
func (d *DOCXWriter) AddTable(rows [][]string) {
	d.numID = 0
	t := docmodel.Table{Rows: rows}
	if t.Width() == 0 {
		return
	}
	tbl := d.doc.AddTable()
	tbl.Style("TableGrid")
	for _, row := range t.Normalized() {
		tr := tbl.AddRow()
		for _, cell := range row {
			tr.AddCell().AddParagraph(cell)
		}
	}
}

func (d *DOCXWriter) AddBlankParagraph() {
	d.numID = 0
	d.doc.AddEmptyParagraph()
}

func (d *DOCXWriter) AddPageBreak() {
	d.numID = 0
	d.doc.AddPageBreak()
}

func (d *DOCXWriter) Save(w io.Writer) error {
	if err := d.doc.Write(w); err != nil {
		return fmt.Errorf("failed to write docx: %w", err)
	}
	return nil
}
