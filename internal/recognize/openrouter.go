package recognize

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

const defaultOpenRouterURL = "https://openrouter.ai/api/v1"

// OpenRouterRecognizer calls an OpenAI-compatible chat completions API with the
// page attached as a data URL image part.
type OpenRouterRecognizer struct {
	client      openai.Client
	model       string
	prompt      string
	maxTokens   int
	temperature float64
}

func NewOpenRouterRecognizer(opts Options) (*OpenRouterRecognizer, error) {
	if strings.TrimSpace(opts.APIKey) == "" {
		return nil, fmt.Errorf("openrouter api key is required")
	}
	model, err := ResolveModel(opts.Model)
	if err != nil {
		return nil, err
	}
	baseURL := strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/")
	if baseURL == "" {
		baseURL = defaultOpenRouterURL
	}
	timeout := time.Duration(opts.TimeoutSecs) * time.Second
	if timeout <= 0 {
		timeout = 120 * time.Second
	}

	client := openai.NewClient(
		option.WithAPIKey(opts.APIKey),
		option.WithBaseURL(baseURL+"/"),
		option.WithHeader("HTTP-Referer", "https://github.com/pagedoc"),
		option.WithHeader("X-Title", "pagedoc"),
		option.WithRequestTimeout(timeout),
		// RetryPolicy owns retries so attempts show up in the run report.
		option.WithMaxRetries(0),
	)
	return &OpenRouterRecognizer{
		client:      client,
		model:       model,
		prompt:      opts.prompt(),
		maxTokens:   opts.MaxTokens,
		temperature: opts.Temperature,
	}, nil
}

func (r *OpenRouterRecognizer) Name() string {
	return "openrouter:" + r.model
}

func (r *OpenRouterRecognizer) Recognize(ctx context.Context, img Image) (string, error) {
	mime := img.MIME
	if mime == "" {
		mime = "image/png"
	}
	dataURL := "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(img.Data)

	params := openai.ChatCompletionNewParams{
		Model: openai.ChatModel(r.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage([]openai.ChatCompletionContentPartUnionParam{
				openai.TextContentPart(r.prompt),
				openai.ImageContentPart(openai.ChatCompletionContentPartImageImageURLParam{URL: dataURL}),
			}),
		},
	}
	if r.maxTokens > 0 {
		params.MaxTokens = openai.Int(int64(r.maxTokens))
	}
	if r.temperature > 0 {
		params.Temperature = openai.Float(r.temperature)
	}

	resp, err := r.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("openrouter chat request failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", ErrNoText
	}
	return CleanText(resp.Choices[0].Message.Content)
}
