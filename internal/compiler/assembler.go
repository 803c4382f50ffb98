package compiler

import (
	"strings"

	"pagedoc/internal/docmodel"
)

// Separator controls how CompilePages joins pages.
type Separator string

const (
	// SeparatorRule joins page texts with a horizontal-rule line before compiling.
	SeparatorRule Separator = "rule"
	// SeparatorBreak compiles pages one by one and puts a PageBreak block between them.
	SeparatorBreak Separator = "break"
	// SeparatorNone joins page texts with a blank line.
	SeparatorNone Separator = "none"
)

// PageRule is placed between page texts under SeparatorRule.
const PageRule = "\n\n---\n\n"

// assembler owns all state of one compile run.
type assembler struct {
	w     docmodel.Writer
	mode  Mode
	table tableAccumulator
}

func (a *assembler) feed(line string) {
	l := Classify(line, a.currentMode())

	if l.Kind == KindFence {
		// A fence ends any pending table so block order follows line order.
		a.flushTable()
		if a.mode == InCodeBlock {
			a.mode = Normal
		} else {
			a.mode = InCodeBlock
		}
		return
	}
	if l.Kind == KindCodeLine {
		a.w.AddCodeLine(l.Text)
		return
	}
	if l.Kind.IsTableRow() {
		a.table.add(l.Cells)
		return
	}

	a.flushTable()
	a.emit(l)
}

func (a *assembler) currentMode() Mode {
	if a.mode == InCodeBlock {
		return InCodeBlock
	}
	if a.table.pending() {
		return InTable
	}
	return Normal
}

func (a *assembler) emit(l Line) {
	switch l.Kind {
	case KindHeading:
		a.w.AddHeading(l.Level, l.Text)
	case KindBullet:
		a.w.AddBulletItem(l.Text)
	case KindNumbered:
		a.w.AddNumberedItem(l.Text)
	case KindBoldParagraph, KindParagraph:
		a.w.AddParagraph(l.Runs)
	case KindBlank:
		a.w.AddBlankParagraph()
	}
}

func (a *assembler) flushTable() {
	if tbl, ok := a.table.finalize(); ok {
		a.w.AddTable(tbl.Rows)
	}
}

// finish finalizes a trailing table. A dangling fence is left open.
func (a *assembler) finish() {
	a.flushTable()
}

// CompileTo plays the blocks of text into w. Empty text produces no calls.
func CompileTo(text string, w docmodel.Writer) {
	if text == "" {
		return
	}
	text = strings.ReplaceAll(text, "\r\n", "\n")
	a := &assembler{w: w}
	for _, line := range strings.Split(text, "\n") {
		a.feed(line)
	}
	a.finish()
}

// Compile returns the block document for text.
func Compile(text string) docmodel.Document {
	rec := &docmodel.Recorder{}
	CompileTo(text, rec)
	return rec.Doc
}

// CompilePages compiles the texts of consecutive pages. Callers that recognize
// pages concurrently must pass them back in page order.
func CompilePages(pages []string, sep Separator) docmodel.Document {
	switch sep {
	case SeparatorBreak:
		rec := &docmodel.Recorder{}
		for i, p := range pages {
			if i > 0 {
				rec.AddPageBreak()
			}
			CompileTo(p, rec)
		}
		return rec.Doc
	case SeparatorNone:
		return Compile(strings.Join(pages, "\n\n"))
	default:
		return Compile(JoinPages(pages))
	}
}

// JoinPages concatenates page texts with PageRule between them.
func JoinPages(pages []string) string {
	return strings.Join(pages, PageRule)
}
