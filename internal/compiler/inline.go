package compiler

import (
	"strings"

	"pagedoc/internal/docmodel"
)

const boldMarker = "**"

// SplitBold splits text on the bold marker. Segments alternate plain and bold,
// starting plain. An unmatched trailing marker leaves the final segment bold;
// it is not closed. Empty segments are kept so the alternation stays intact.
func SplitBold(text string) []docmodel.TextRun {
	parts := strings.Split(text, boldMarker)
	runs := make([]docmodel.TextRun, len(parts))
	for i, part := range parts {
		runs[i] = docmodel.TextRun{Text: part, Bold: i%2 == 1}
	}
	return runs
}
