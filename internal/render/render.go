package render

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"pagedoc/internal/docmodel"
)

var ErrUnsupportedFormat = errors.New("unsupported output format")

type Format string

const (
	FormatDOCX     Format = "docx"
	FormatPDF      Format = "pdf"
	FormatMarkdown Format = "md"
)

// Renderer is a docmodel.Writer that can serialize what it received.
type Renderer interface {
	docmodel.Writer
	Save(w io.Writer) error
}

type Options struct {
	Title   string
	Created time.Time
	// PDFFont is an optional UTF-8 TrueType font. Without it the PDF writer
	// uses the core fonts, which cannot show CJK text.
	PDFFont string
}

func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimPrefix(strings.TrimSpace(s), ".")) {
	case "docx":
		return FormatDOCX, nil
	case "pdf":
		return FormatPDF, nil
	case "md", "markdown", "txt":
		return FormatMarkdown, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, s)
	}
}

// FormatFromPath picks the format from the output file extension.
func FormatFromPath(path string) (Format, error) {
	ext := filepath.Ext(path)
	if ext == "" {
		return "", fmt.Errorf("%w: %s has no extension", ErrUnsupportedFormat, path)
	}
	return ParseFormat(ext)
}

func New(format Format, opts Options) (Renderer, error) {
	if opts.Created.IsZero() {
		opts.Created = time.Now().UTC()
	}
	switch format {
	case FormatDOCX:
		return NewDOCXWriter(opts)
	case FormatPDF:
		return NewPDFWriter(opts)
	case FormatMarkdown:
		return NewMarkdownWriter(), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, string(format))
	}
}

// SaveFile writes r to path through a temporary file so a failed save never
// leaves a truncated document behind.
func SaveFile(r Renderer, path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, ".pagedoc-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if err := tmp.Chmod(0644); err != nil {
		tmp.Close()
		return err
	}
	if err := r.Save(tmp); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmpName, path)
}
