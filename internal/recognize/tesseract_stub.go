//go:build !tesseract

package recognize

import (
	"context"
	"errors"
)

var errTesseractUnavailable = errors.New("tesseract support not compiled in; rebuild with -tags tesseract")

type TesseractRecognizer struct{}

func NewTesseractRecognizer(opts Options) (*TesseractRecognizer, error) {
	return nil, errTesseractUnavailable
}

func (t *TesseractRecognizer) Name() string { return "tesseract" }

func (t *TesseractRecognizer) Recognize(ctx context.Context, img Image) (string, error) {
	return "", errTesseractUnavailable
}
