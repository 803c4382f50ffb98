// Package recognize transcribes page images into markdown-flavored text using
// vision models or a local OCR engine.
package recognize

import (
	"context"
	"errors"
)

var (
	// ErrNoText is returned when a model answers with nothing usable.
	ErrNoText = errors.New("recognizer returned no text")
	// ErrUnknownModel is returned for a model alias that is not in the catalog
	// and does not look like a full model id.
	ErrUnknownModel = errors.New("unknown model")
)

// Image is one page image handed to a recognizer.
type Image struct {
	Path string
	MIME string
	Data []byte
}

// Recognizer turns a page image into text.
type Recognizer interface {
	Recognize(ctx context.Context, img Image) (string, error)
	// Name identifies provider and model; it is part of the cache key.
	Name() string
}

// Options configures a recognizer built by New.
type Options struct {
	Provider    string
	Model       string
	APIKey      string
	BaseURL     string
	Prompt      string
	TimeoutSecs int
	MaxTokens   int
	Temperature float64
	Language    string
}

func (o Options) prompt() string {
	if o.Prompt != "" {
		return o.Prompt
	}
	return DefaultPrompt
}
