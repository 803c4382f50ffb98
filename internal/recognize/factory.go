package recognize

import (
	"context"
	"fmt"
	"strings"
)

// New builds the recognizer for opts.Provider.
func New(ctx context.Context, opts Options) (Recognizer, error) {
	provider := strings.ToLower(strings.TrimSpace(opts.Provider))
	if provider == "" {
		provider = "openrouter"
	}

	switch provider {
	case "openrouter":
		r, err := NewOpenRouterRecognizer(opts)
		if err != nil {
			return nil, err
		}
		return r, nil
	case "gemini":
		r, err := NewGeminiRecognizer(ctx, opts)
		if err != nil {
			return nil, err
		}
		return r, nil
	case "ollama":
		return NewOllamaRecognizer(opts), nil
	case "tesseract":
		r, err := NewTesseractRecognizer(opts)
		if err != nil {
			return nil, err
		}
		return r, nil
	default:
		return nil, fmt.Errorf("unsupported recognizer provider: %s", opts.Provider)
	}
}
