// Package compiler turns markdown-flavored recognition output into a block
// document in a single pass over its lines.
package compiler

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"pagedoc/internal/docmodel"
)

// Mode is the assembler state a line is classified under.
type Mode int

const (
	Normal Mode = iota
	InCodeBlock
	// InTable is Normal with pending table rows.
	InTable
)

func (m Mode) String() string {
	switch m {
	case InCodeBlock:
		return "in_code_block"
	case InTable:
		return "in_table"
	default:
		return "normal"
	}
}

// LineKind is the construct a line belongs to.
type LineKind int

const (
	KindFence LineKind = iota
	KindCodeLine
	KindTableRow
	KindTableSeparator
	KindHeading
	KindBullet
	KindNumbered
	KindBoldParagraph
	KindParagraph
	KindBlank
)

var kindNames = [...]string{
	KindFence:          "fence",
	KindCodeLine:       "code_line",
	KindTableRow:       "table_row",
	KindTableSeparator: "table_separator",
	KindHeading:        "heading",
	KindBullet:         "bullet",
	KindNumbered:       "numbered",
	KindBoldParagraph:  "bold_paragraph",
	KindParagraph:      "paragraph",
	KindBlank:          "blank",
}

func (k LineKind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "unknown"
}

// IsTableRow reports whether the line belongs to table context.
func (k LineKind) IsTableRow() bool {
	return k == KindTableRow || k == KindTableSeparator
}

// Line is a classified line together with its parsed payload.
type Line struct {
	Kind  LineKind
	Level int
	Text  string
	Cells []string
	Runs  []docmodel.TextRun
}

const fenceMarker = "```"

var headingMarkers = [...]string{"# ", "## ", "### ", "#### "}

// Classify decides which construct line belongs to. Rules apply in a fixed
// order and the first match wins. Leaving table context is not decided here:
// the assembler finalizes a pending table when a pending run meets a line whose
// kind is not a table row.
func Classify(line string, mode Mode) Line {
	trimmed := strings.TrimSpace(line)

	if strings.HasPrefix(trimmed, fenceMarker) {
		return Line{Kind: KindFence}
	}
	if mode == InCodeBlock {
		return Line{Kind: KindCodeLine, Text: line}
	}

	if strings.HasPrefix(trimmed, "|") {
		cells := splitCells(line)
		if isSeparator(cells) {
			return Line{Kind: KindTableSeparator, Cells: cells}
		}
		return Line{Kind: KindTableRow, Cells: cells}
	}

	for i, marker := range headingMarkers {
		if strings.HasPrefix(trimmed, marker) {
			return Line{Kind: KindHeading, Level: i + 1, Text: strings.TrimSpace(trimmed[len(marker):])}
		}
	}

	if strings.HasPrefix(trimmed, "- ") || strings.HasPrefix(trimmed, "* ") {
		return Line{Kind: KindBullet, Text: strings.TrimSpace(trimmed[2:])}
	}

	if startsWithDigit(trimmed) {
		if _, after, ok := strings.Cut(trimmed, ". "); ok {
			return Line{Kind: KindNumbered, Text: strings.TrimSpace(after)}
		}
	}

	if strings.Contains(trimmed, boldMarker) {
		return Line{Kind: KindBoldParagraph, Runs: SplitBold(trimmed)}
	}

	if trimmed != "" {
		return Line{Kind: KindParagraph, Runs: []docmodel.TextRun{{Text: trimmed}}}
	}
	return Line{Kind: KindBlank}
}

func startsWithDigit(s string) bool {
	r, size := utf8.DecodeRuneInString(s)
	return size > 0 && unicode.IsDigit(r)
}

// splitCells splits a pipe row, dropping the artifact before the leading pipe
// and the empty artifact after a trailing pipe, and trims every cell.
func splitCells(line string) []string {
	parts := strings.Split(line, "|")
	parts = parts[1:]
	if n := len(parts); n > 0 && strings.TrimSpace(parts[n-1]) == "" {
		parts = parts[:n-1]
	}
	cells := make([]string, len(parts))
	for i, p := range parts {
		cells[i] = strings.TrimSpace(p)
	}
	return cells
}
