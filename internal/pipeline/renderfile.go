package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"pagedoc/internal/compiler"
	"pagedoc/internal/docmodel"
	"pagedoc/internal/render"
	"pagedoc/internal/source"
)

type RenderRequest struct {
	Input      string
	Output     string
	Format     render.Format
	BlocksJSON string
}

// RenderFile compiles an existing markdown file and renders it without any
// recognition step.
func (c *Converter) RenderFile(ctx context.Context, req RenderRequest) (*Result, error) {
	data, err := os.ReadFile(req.Input)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", req.Input, err)
	}
	if req.Output == "" {
		req.Output = filepath.Join(filepath.Dir(req.Input), source.Stem(req.Input)+".docx")
	}

	report := NewReport("render", req.Input)
	stage := report.BeginStage("compile")
	doc := compiler.Compile(string(data))
	report.Blocks = doc.Stats()
	report.EndStage(stage, "ok", map[string]float64{"blocks": float64(len(doc))}, nil, nil)

	if req.BlocksJSON != "" {
		if err := docmodel.SaveJSON(req.BlocksJSON, doc); err != nil {
			return nil, fmt.Errorf("write blocks json: %w", err)
		}
	}

	stage = report.BeginStage("render")
	format, err := c.renderTo(doc, ConvertRequest{Input: req.Input, Output: req.Output, Format: req.Format})
	report.EndStage(stage, "ok", nil, nil, err)
	if err != nil {
		return nil, err
	}
	report.Output = req.Output
	return &Result{Output: req.Output, Format: format, Document: doc, Report: report}, nil
}
