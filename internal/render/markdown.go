package render

import (
	"io"
	"strconv"
	"strings"

	"pagedoc/internal/docmodel"
)

// MarkdownWriter serializes blocks back to the line-oriented markdown the
// compiler reads. Compiling String() or the saved file reproduces the same
// blocks.
type MarkdownWriter struct {
	lines    []string
	inCode   bool
	numbered int
}

func NewMarkdownWriter() *MarkdownWriter {
	return &MarkdownWriter{}
}

// String returns the markdown written so far.
func (m *MarkdownWriter) String() string {
	m.closeCode()
	return strings.Join(m.lines, "\n")
}

func (m *MarkdownWriter) closeCode() {
	if m.inCode {
		m.lines = append(m.lines, "```")
		m.inCode = false
	}
}

func (m *MarkdownWriter) emit(line string) {
	m.closeCode()
	m.numbered = 0
	m.lines = append(m.lines, line)
}

func (m *MarkdownWriter) AddHeading(level int, text string) {
	m.emit(strings.Repeat("#", level) + " " + text)
}

func (m *MarkdownWriter) AddParagraph(runs []docmodel.TextRun) {
	var b strings.Builder
	for _, r := range runs {
		if r.Bold {
			b.WriteString("**" + r.Text + "**")
		} else {
			b.WriteString(r.Text)
		}
	}
	m.emit(b.String())
}

func (m *MarkdownWriter) AddBulletItem(text string) {
	m.emit("- " + text)
}

func (m *MarkdownWriter) AddNumberedItem(text string) {
	n := m.numbered + 1
	m.emit(strconv.Itoa(n) + ". " + text)
	m.numbered = n
}

func (m *MarkdownWriter) AddCodeLine(text string) {
	m.numbered = 0
	if !m.inCode {
		m.lines = append(m.lines, "```")
		m.inCode = true
	}
	m.lines = append(m.lines, text)
}

// AddTable keeps ragged rows as they are; width reconciliation belongs to the
// final output formats.
func (m *MarkdownWriter) AddTable(rows [][]string) {
	for i, row := range rows {
		m.emit("| " + strings.Join(row, " | ") + " |")
		if i == 0 {
			sep := make([]string, len(row))
			for j := range sep {
				sep[j] = "---"
			}
			m.emit("| " + strings.Join(sep, " | ") + " |")
		}
	}
}

func (m *MarkdownWriter) AddBlankParagraph() {
	m.emit("")
}

func (m *MarkdownWriter) AddPageBreak() {
	m.emit("---")
}

// Save writes String() as is. A trailing newline would compile to an extra
// Blank block, so none is added.
func (m *MarkdownWriter) Save(w io.Writer) error {
	_, err := io.WriteString(w, m.String())
	return err
}
