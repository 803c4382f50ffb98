package compiler

import (
	"strings"

	"pagedoc/internal/docmodel"
)

// tableAccumulator collects a contiguous run of pipe rows. It is owned by a
// single assembler run.
type tableAccumulator struct {
	rows [][]string
}

func (t *tableAccumulator) start(row []string) {
	t.rows = [][]string{row}
}

func (t *tableAccumulator) append(row []string) {
	t.rows = append(t.rows, row)
}

// add starts or extends the pending table. Separator rows and rows without
// cells are dropped.
func (t *tableAccumulator) add(row []string) {
	if len(row) == 0 || isSeparator(row) {
		return
	}
	if len(t.rows) == 0 {
		t.start(row)
		return
	}
	t.append(row)
}

func (t *tableAccumulator) pending() bool {
	return len(t.rows) > 0
}

// finalize returns the pending table and clears the accumulator. ok is false
// when no rows are pending.
func (t *tableAccumulator) finalize() (docmodel.Table, bool) {
	if len(t.rows) == 0 {
		return docmodel.Table{}, false
	}
	tbl := docmodel.Table{Rows: t.rows}
	t.rows = nil
	return tbl, true
}

// isSeparator reports whether every cell is made of dashes and whitespace.
func isSeparator(cells []string) bool {
	if len(cells) == 0 {
		return false
	}
	for _, c := range cells {
		if strings.TrimSpace(strings.ReplaceAll(c, "-", "")) != "" {
			return false
		}
	}
	return true
}
