package compiler

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsSeparator(t *testing.T) {
	assert.True(t, isSeparator([]string{"---", "---"}))
	assert.True(t, isSeparator([]string{"-", " - "}))
	assert.True(t, isSeparator([]string{"", ""}))
	assert.False(t, isSeparator([]string{":---", "---:"}))
	assert.False(t, isSeparator([]string{"---", "x"}))
	assert.False(t, isSeparator(nil))
}

func TestTableAccumulator(t *testing.T) {
	var acc tableAccumulator
	_, ok := acc.finalize()
	assert.False(t, ok)

	acc.add([]string{"---"})
	assert.False(t, acc.pending(), "separator does not start a table")

	acc.add([]string{"A", "B"})
	acc.add([]string{"---", "---"})
	acc.add([]string{"1", "2"})
	acc.add(nil)
	assert.True(t, acc.pending())

	tbl, ok := acc.finalize()
	assert.True(t, ok)
	assert.Equal(t, [][]string{{"A", "B"}, {"1", "2"}}, tbl.Rows)
	assert.False(t, acc.pending())
}
