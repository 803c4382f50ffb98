package recognize

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/genai"
)

// GeminiRecognizer sends the page as inline image bytes to a Gemini model.
type GeminiRecognizer struct {
	client      *genai.Client
	model       string
	prompt      string
	maxTokens   int
	temperature float64
}

func NewGeminiRecognizer(ctx context.Context, opts Options) (*GeminiRecognizer, error) {
	if strings.TrimSpace(opts.APIKey) == "" {
		return nil, fmt.Errorf("gemini api key is required")
	}
	cc := &genai.ClientConfig{
		APIKey:  opts.APIKey,
		Backend: genai.BackendGeminiAPI,
	}
	if opts.BaseURL != "" {
		cc.HTTPOptions = genai.HTTPOptions{BaseURL: opts.BaseURL}
	}
	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}
	return &GeminiRecognizer{
		client:      client,
		model:       opts.Model,
		prompt:      opts.prompt(),
		maxTokens:   opts.MaxTokens,
		temperature: opts.Temperature,
	}, nil
}

func (r *GeminiRecognizer) Name() string {
	return "gemini:" + r.model
}

func (r *GeminiRecognizer) Recognize(ctx context.Context, img Image) (string, error) {
	mime := img.MIME
	if mime == "" {
		mime = "image/png"
	}
	contents := []*genai.Content{
		genai.NewContentFromParts([]*genai.Part{
			genai.NewPartFromText(r.prompt),
			genai.NewPartFromBytes(img.Data, mime),
		}, genai.RoleUser),
	}
	cfg := &genai.GenerateContentConfig{}
	if r.temperature > 0 {
		cfg.Temperature = genai.Ptr(float32(r.temperature))
	}
	if r.maxTokens > 0 {
		cfg.MaxOutputTokens = int32(r.maxTokens)
	}

	resp, err := r.client.Models.GenerateContent(ctx, r.model, contents, cfg)
	if err != nil {
		return "", fmt.Errorf("gemini generate content failed: %w", err)
	}
	return CleanText(resp.Text())
}
