package docmodel

import (
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleDoc() Document {
	return Document{
		Heading{Level: 1, Text: "Title"},
		Paragraph{Runs: []TextRun{{Text: "Some "}, {Text: "bold", Bold: true}, {Text: " text."}}},
		Table{Rows: [][]string{{"A", "B"}, {"1", "2"}}},
		BulletItem{Text: "item one"},
		NumberedItem{Text: "step"},
		CodeLine{Text: "  fmt.Println()"},
		Blank{},
		PageBreak{},
	}
}

func TestPlay_RecorderRoundTrip(t *testing.T) {
	doc := sampleDoc()
	rec := &Recorder{}
	Play(doc, rec)
	assert.Equal(t, doc, rec.Doc)
}

func TestDocumentJSON_ValidatesAndRoundTrips(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "blocks.json")
	require.NoError(t, SaveJSON(path, sampleDoc()))

	loaded, err := LoadJSON(path)
	require.NoError(t, err)
	assert.Equal(t, sampleDoc(), loaded)
}

func TestValidateJSON_RejectsBadHeadingLevel(t *testing.T) {
	raw := []byte(`{"schema_version":"v1","blocks":[{"type":"heading","level":7,"text":"x"}]}`)
	err := ValidateJSON(raw)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "schema validation")
}

func TestValidateJSON_RejectsUnknownType(t *testing.T) {
	raw := []byte(`{"schema_version":"v1","blocks":[{"type":"image"}]}`)
	require.Error(t, ValidateJSON(raw))
}

func TestMarshalJSON_EmptyTextIsKept(t *testing.T) {
	raw, err := json.Marshal(Document{CodeLine{Text: ""}})
	require.NoError(t, err)
	assert.JSONEq(t, `{"schema_version":"v1","blocks":[{"type":"code","text":""}]}`, string(raw))
	require.NoError(t, ValidateJSON(raw))
}

func TestTable_Normalized(t *testing.T) {
	tbl := Table{Rows: [][]string{{"a", "b"}, {"1"}, {"x", "y", "z"}}}
	assert.Equal(t, 2, tbl.Width())
	assert.Equal(t, [][]string{{"a", "b"}, {"1", ""}, {"x", "y"}}, tbl.Normalized())
}

func TestDocument_Stats(t *testing.T) {
	stats := sampleDoc().Stats()
	assert.Equal(t, 1, stats[KindHeading])
	assert.Equal(t, 1, stats[KindTable])
	assert.Equal(t, 1, stats[KindPageBreak])
}
