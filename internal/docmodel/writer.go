package docmodel

// Writer receives a document one block at a time, in order.
type Writer interface {
	AddHeading(level int, text string)
	AddParagraph(runs []TextRun)
	AddBulletItem(text string)
	AddNumberedItem(text string)
	// AddCodeLine is called once per physical line; grouping consecutive lines into
	// one monospaced region is up to the writer.
	AddCodeLine(text string)
	// AddTable receives rows that may differ in width. Writers size the table by
	// the first row.
	AddTable(rows [][]string)
	AddBlankParagraph()
	AddPageBreak()
}

// Play replays doc into w.
func Play(doc Document, w Writer) {
	for _, b := range doc {
		switch v := b.(type) {
		case Heading:
			w.AddHeading(v.Level, v.Text)
		case Paragraph:
			w.AddParagraph(v.Runs)
		case BulletItem:
			w.AddBulletItem(v.Text)
		case NumberedItem:
			w.AddNumberedItem(v.Text)
		case CodeLine:
			w.AddCodeLine(v.Text)
		case Table:
			w.AddTable(v.Rows)
		case Blank:
			w.AddBlankParagraph()
		case PageBreak:
			w.AddPageBreak()
		}
	}
}

// Recorder is a Writer that collects the calls back into a Document.
type Recorder struct {
	Doc Document
}

func (r *Recorder) AddHeading(level int, text string) {
	r.Doc = append(r.Doc, Heading{Level: level, Text: text})
}

func (r *Recorder) AddParagraph(runs []TextRun) {
	r.Doc = append(r.Doc, Paragraph{Runs: runs})
}

func (r *Recorder) AddBulletItem(text string) {
	r.Doc = append(r.Doc, BulletItem{Text: text})
}

func (r *Recorder) AddNumberedItem(text string) {
	r.Doc = append(r.Doc, NumberedItem{Text: text})
}

func (r *Recorder) AddCodeLine(text string) {
	r.Doc = append(r.Doc, CodeLine{Text: text})
}

func (r *Recorder) AddTable(rows [][]string) {
	r.Doc = append(r.Doc, Table{Rows: rows})
}

func (r *Recorder) AddBlankParagraph() {
	r.Doc = append(r.Doc, Blank{})
}

func (r *Recorder) AddPageBreak() {
	r.Doc = append(r.Doc, PageBreak{})
}
