package recognize

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// OllamaRecognizer talks to a local Ollama server hosting a vision model.
type OllamaRecognizer struct {
	client      *http.Client
	model       string
	endpoint    string
	prompt      string
	temperature float64
}

type ollamaChatRequest struct {
	Model    string              `json:"model"`
	Messages []ollamaChatMessage `json:"messages"`
	Stream   bool                `json:"stream"`
	Options  map[string]any      `json:"options,omitempty"`
}

type ollamaChatMessage struct {
	Role    string   `json:"role"`
	Content string   `json:"content"`
	Images  []string `json:"images,omitempty"`
}

type ollamaChatResponse struct {
	Message ollamaChatMessage `json:"message"`
	Error   string            `json:"error,omitempty"`
}

func NewOllamaRecognizer(opts Options) *OllamaRecognizer {
	url := strings.TrimSpace(opts.BaseURL)
	if url == "" {
		url = "http://127.0.0.1:11434"
	}
	url = strings.TrimRight(url, "/")
	if !strings.HasSuffix(url, "/api/chat") {
		url += "/api/chat"
	}
	timeout := time.Duration(opts.TimeoutSecs) * time.Second
	if timeout <= 0 {
		timeout = 120 * time.Second
	}

	return &OllamaRecognizer{
		client: &http.Client{
			Timeout: timeout,
		},
		model:       opts.Model,
		endpoint:    url,
		prompt:      opts.prompt(),
		temperature: opts.Temperature,
	}
}

func (o *OllamaRecognizer) Name() string {
	return "ollama:" + o.model
}

func (o *OllamaRecognizer) Recognize(ctx context.Context, img Image) (string, error) {
	if strings.TrimSpace(o.model) == "" {
		return "", fmt.Errorf("ollama vision model is required")
	}
	reqBody := ollamaChatRequest{
		Model: o.model,
		Messages: []ollamaChatMessage{
			{
				Role:    "user",
				Content: o.prompt,
				Images:  []string{base64.StdEncoding.EncodeToString(img.Data)},
			},
		},
		Stream: false,
	}
	if o.temperature > 0 {
		reqBody.Options = map[string]any{"temperature": o.temperature}
	}
	body, err := json.Marshal(reqBody)
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, o.endpoint, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := o.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("ollama chat request failed (%d): %s", resp.StatusCode, strings.TrimSpace(string(raw)))
	}

	var parsed ollamaChatResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return "", err
	}
	if parsed.Error != "" {
		return "", fmt.Errorf("ollama chat request failed: %s", parsed.Error)
	}
	return CleanText(parsed.Message.Content)
}
