//go:build tesseract

package recognize

import (
	"context"
	"fmt"
	"strings"

	"github.com/otiai10/gosseract/v2"
)

// TesseractRecognizer runs the local tesseract engine. Its output is plain
// text; the compiler treats every line as a paragraph.
type TesseractRecognizer struct {
	languages []string
}

func NewTesseractRecognizer(opts Options) (*TesseractRecognizer, error) {
	lang := strings.TrimSpace(opts.Language)
	if lang == "" {
		lang = "eng"
	}
	return &TesseractRecognizer{languages: strings.Split(lang, "+")}, nil
}

func (t *TesseractRecognizer) Name() string {
	return "tesseract:" + strings.Join(t.languages, "+")
}

func (t *TesseractRecognizer) Recognize(ctx context.Context, img Image) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	client := gosseract.NewClient()
	defer client.Close()

	if err := client.SetLanguage(t.languages...); err != nil {
		return "", fmt.Errorf("tesseract language: %w", err)
	}
	if err := client.SetImageFromBytes(img.Data); err != nil {
		return "", fmt.Errorf("tesseract image: %w", err)
	}
	text, err := client.Text()
	if err != nil {
		return "", fmt.Errorf("tesseract recognize: %w", err)
	}
	return CleanText(text)
}
