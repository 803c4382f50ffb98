// Package docmodel defines the block document produced by the compiler and the
// structural writer contract renderers implement.
package docmodel

import "strings"

// Document is an ordered sequence of blocks.
type Document []Block

// Block is one structural unit of a document. The set of variants is closed.
type Block interface {
	blockKind() string
}

// Heading is a level 1..4 heading.
type Heading struct {
	Level int
	Text  string
}

// Paragraph is a line of text split into styled runs.
type Paragraph struct {
	Runs []TextRun
}

// BulletItem is an unordered list entry.
type BulletItem struct {
	Text string
}

// NumberedItem is an ordered list entry. The source number is not kept;
// writers renumber.
type NumberedItem struct {
	Text string
}

// CodeLine is one physical line inside a fenced region, verbatim.
type CodeLine struct {
	Text string
}

// Table holds rows of cells. Rows may have differing widths.
type Table struct {
	Rows [][]string
}

// Blank is an empty paragraph kept for vertical spacing.
type Blank struct{}

// PageBreak separates source pages. The compiler never emits it.
type PageBreak struct{}

// TextRun is a span of text sharing one formatting attribute.
type TextRun struct {
	Text string `json:"text"`
	Bold bool   `json:"bold,omitempty"`
}

const (
	KindHeading   = "heading"
	KindParagraph = "paragraph"
	KindBullet    = "bullet"
	KindNumbered  = "numbered"
	KindCode      = "code"
	KindTable     = "table"
	KindBlank     = "blank"
	KindPageBreak = "page_break"
)

func (Heading) blockKind() string      { return KindHeading }
func (Paragraph) blockKind() string    { return KindParagraph }
func (BulletItem) blockKind() string   { return KindBullet }
func (NumberedItem) blockKind() string { return KindNumbered }
func (CodeLine) blockKind() string     { return KindCode }
func (Table) blockKind() string        { return KindTable }
func (Blank) blockKind() string        { return KindBlank }
func (PageBreak) blockKind() string    { return KindPageBreak }

// Kind returns the JSON discriminator of b.
func Kind(b Block) string {
	if b == nil {
		return ""
	}
	return b.blockKind()
}

// Text returns the paragraph's visible text with markers removed.
func (p Paragraph) Text() string {
	var sb strings.Builder
	for _, r := range p.Runs {
		sb.WriteString(r.Text)
	}
	return sb.String()
}

// Width is the column count writers use: the first row's.
func (t Table) Width() int {
	if len(t.Rows) == 0 {
		return 0
	}
	return len(t.Rows[0])
}

// Normalized returns the rows resized to Width, padding short rows with empty
// cells and dropping extra cells from long ones.
func (t Table) Normalized() [][]string {
	width := t.Width()
	out := make([][]string, 0, len(t.Rows))
	for _, row := range t.Rows {
		fixed := make([]string, width)
		copy(fixed, row)
		out = append(out, fixed)
	}
	return out
}

// Text concatenates the visible text of every block, one line per block.
func (d Document) Text() string {
	var sb strings.Builder
	for _, b := range d {
		switch v := b.(type) {
		case Heading:
			sb.WriteString(v.Text)
		case Paragraph:
			sb.WriteString(v.Text())
		case BulletItem:
			sb.WriteString(v.Text)
		case NumberedItem:
			sb.WriteString(v.Text)
		case CodeLine:
			sb.WriteString(v.Text)
		case Table:
			for i, row := range v.Rows {
				if i > 0 {
					sb.WriteByte('\n')
				}
				sb.WriteString(strings.Join(row, "\t"))
			}
		}
		sb.WriteByte('\n')
	}
	return sb.String()
}

// Stats counts blocks by kind.
func (d Document) Stats() map[string]int {
	counts := make(map[string]int)
	for _, b := range d {
		counts[Kind(b)]++
	}
	return counts
}
