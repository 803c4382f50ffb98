package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"pagedoc/internal/source"
)

const combinedName = "all_combined.txt"

type OCRRequest struct {
	Patterns []string
	// Output is the text file for a single image input. Default <stem>_ocr.txt.
	Output string
	// OutputDir collects per-image files for multiple inputs. Default ocr_results.
	OutputDir  string
	ReportPath string
}

type OCRItem struct {
	Image  string
	Output string
	Chars  int
	Err    error
}

type OCRResult struct {
	Items     []OCRItem
	Combined  string
	Succeeded int
	Report    *Report
}

// RecognizeImages writes the recognized text of each image to its own file.
// A single file input writes one file; anything else writes one file per
// image into a directory plus a combined file of all successful pages.
func (c *Converter) RecognizeImages(ctx context.Context, req OCRRequest) (res *OCRResult, retErr error) {
	if c.recognizer == nil {
		return nil, fmt.Errorf("no recognizer configured")
	}
	report := NewReport("ocr", strings.Join(req.Patterns, " "))
	report.Recognizer = c.recognizer.Name()
	defer func() {
		if retErr != nil {
			report.AddSignal("ocr_failed", "ocr", "critical", retErr.Error(), 1)
		}
		if req.ReportPath == "" {
			return
		}
		if err := report.Save(req.ReportPath); err != nil {
			c.log.Warn("failed to write report", "path", req.ReportPath, "error", err)
		}
	}()

	stage := report.BeginStage("expand_images")
	images, err := source.ExpandImages(req.Patterns)
	if err != nil {
		report.EndStage(stage, "error", nil, nil, err)
		return nil, err
	}
	report.EndStage(stage, "ok", map[string]float64{"images": float64(len(images))}, nil, nil)

	single := len(req.Patterns) == 1 && len(images) == 1 && isFile(req.Patterns[0])

	outDir := req.OutputDir
	if !single {
		if outDir == "" {
			outDir = "ocr_results"
		}
		if err := os.MkdirAll(outDir, 0755); err != nil {
			return nil, err
		}
	}

	outcomes, err := c.recognizeAll(ctx, images, report)
	if err != nil {
		return nil, err
	}

	res = &OCRResult{Report: report}
	stage = report.BeginStage("write_text")
	var combined strings.Builder
	for _, o := range outcomes {
		item := OCRItem{Image: o.path, Err: o.err}
		if o.err == nil {
			item.Output = ocrOutputPath(o.path, req.Output, outDir, single)
			if err := os.WriteFile(item.Output, []byte(o.text), 0644); err != nil {
				item.Err = err
				item.Output = ""
			} else {
				item.Chars = len([]rune(o.text))
				res.Succeeded++
				fmt.Fprintf(&combined, "=== %s ===\n\n%s\n\n%s\n\n", filepath.Base(o.path), o.text, strings.Repeat("=", 50))
			}
		}
		res.Items = append(res.Items, item)
	}

	if !single {
		res.Combined = filepath.Join(outDir, combinedName)
		if err := os.WriteFile(res.Combined, []byte(combined.String()), 0644); err != nil {
			report.EndStage(stage, "error", nil, nil, err)
			return res, err
		}
	}
	report.EndStage(stage, "ok", map[string]float64{"written": float64(res.Succeeded)}, nil, nil)

	if res.Succeeded == 0 {
		return res, fmt.Errorf("%w: %d images", ErrAllPagesFailed, len(images))
	}
	return res, nil
}

func ocrOutputPath(image, output, outDir string, single bool) string {
	name := source.Stem(image) + "_ocr.txt"
	if single {
		if output != "" {
			return output
		}
		if outDir != "" {
			return filepath.Join(outDir, name)
		}
		return name
	}
	return filepath.Join(outDir, name)
}

func isFile(path string) bool {
	st, err := os.Stat(path)
	return err == nil && !st.IsDir()
}
