package docmodel

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	jsonschema "github.com/santhosh-tekuri/jsonschema/v5"
)

const SchemaVersion = "v1"

const schemaURL = "https://pagedoc.local/blocks.schema.json"

//go:embed blocks.schema.json
var schemaSource string

var (
	schemaOnce     sync.Once
	compiledSchema *jsonschema.Schema
	schemaErr      error
)

type documentJSON struct {
	SchemaVersion string      `json:"schema_version"`
	Blocks        []blockJSON `json:"blocks"`
}

type blockJSON struct {
	Type  string     `json:"type"`
	Level int        `json:"level,omitempty"`
	Text  *string    `json:"text,omitempty"`
	Runs  []TextRun  `json:"runs,omitempty"`
	Rows  [][]string `json:"rows,omitempty"`
}

func strPtr(s string) *string { return &s }

func (d Document) MarshalJSON() ([]byte, error) {
	out := documentJSON{SchemaVersion: SchemaVersion, Blocks: make([]blockJSON, 0, len(d))}
	for i, b := range d {
		bj := blockJSON{Type: Kind(b)}
		switch v := b.(type) {
		case Heading:
			bj.Level = v.Level
			bj.Text = strPtr(v.Text)
		case Paragraph:
			bj.Runs = v.Runs
			if bj.Runs == nil {
				bj.Runs = []TextRun{}
			}
		case BulletItem:
			bj.Text = strPtr(v.Text)
		case NumberedItem:
			bj.Text = strPtr(v.Text)
		case CodeLine:
			bj.Text = strPtr(v.Text)
		case Table:
			bj.Rows = v.Rows
		case Blank, PageBreak:
		default:
			return nil, fmt.Errorf("block %d: unknown block type %T", i, b)
		}
		out.Blocks = append(out.Blocks, bj)
	}
	return json.Marshal(out)
}

func (d *Document) UnmarshalJSON(raw []byte) error {
	var in documentJSON
	if err := json.Unmarshal(raw, &in); err != nil {
		return err
	}
	doc := make(Document, 0, len(in.Blocks))
	for i, bj := range in.Blocks {
		text := ""
		if bj.Text != nil {
			text = *bj.Text
		}
		switch bj.Type {
		case KindHeading:
			doc = append(doc, Heading{Level: bj.Level, Text: text})
		case KindParagraph:
			doc = append(doc, Paragraph{Runs: bj.Runs})
		case KindBullet:
			doc = append(doc, BulletItem{Text: text})
		case KindNumbered:
			doc = append(doc, NumberedItem{Text: text})
		case KindCode:
			doc = append(doc, CodeLine{Text: text})
		case KindTable:
			doc = append(doc, Table{Rows: bj.Rows})
		case KindBlank:
			doc = append(doc, Blank{})
		case KindPageBreak:
			doc = append(doc, PageBreak{})
		default:
			return fmt.Errorf("block %d: unknown type %q", i, bj.Type)
		}
	}
	*d = doc
	return nil
}

// ValidateJSON checks raw against the embedded block document schema.
func ValidateJSON(raw []byte) error {
	schema, err := loadSchema()
	if err != nil {
		return fmt.Errorf("failed to compile block schema: %w", err)
	}
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return fmt.Errorf("failed to decode block document: %w", err)
	}
	if err := schema.Validate(v); err != nil {
		return fmt.Errorf("block document schema validation failed: %w", err)
	}
	return nil
}

func loadSchema() (*jsonschema.Schema, error) {
	schemaOnce.Do(func() {
		compiler := jsonschema.NewCompiler()
		if err := compiler.AddResource(schemaURL, strings.NewReader(schemaSource)); err != nil {
			schemaErr = err
			return
		}
		compiledSchema, schemaErr = compiler.Compile(schemaURL)
	})
	return compiledSchema, schemaErr
}

// SaveJSON validates doc and writes it to path.
func SaveJSON(path string, doc Document) error {
	b, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return err
	}
	if err := ValidateJSON(b); err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	b = append(b, '\n')
	return os.WriteFile(path, b, 0644)
}

// LoadJSON reads a document written by SaveJSON.
func LoadJSON(path string) (Document, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if err := ValidateJSON(b); err != nil {
		return nil, err
	}
	var doc Document
	if err := json.Unmarshal(b, &doc); err != nil {
		return nil, err
	}
	return doc, nil
}
