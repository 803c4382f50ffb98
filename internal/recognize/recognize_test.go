package recognize

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/openai/openai-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCleanText(t *testing.T) {
	text, err := CleanText("```markdown\n# Title\nbody\n```")
	require.NoError(t, err)
	assert.Equal(t, "# Title\nbody", text)

	// A code block that is only part of the answer is kept.
	text, err = CleanText("intro\n```\ncode\n```")
	require.NoError(t, err)
	assert.Equal(t, "intro\n```\ncode\n```", text)

	// Decomposed kana is recomposed.
	text, err = CleanText("\u30cf\u309a")
	require.NoError(t, err)
	assert.Equal(t, "\u30d1", text)

	_, err = CleanText("  \n ")
	assert.ErrorIs(t, err, ErrNoText)
}

func TestResolveModel(t *testing.T) {
	id, err := ResolveModel("qwen-72b-free")
	require.NoError(t, err)
	assert.Equal(t, "qwen/qwen2.5-vl-72b-instruct:free", id)

	id, err = ResolveModel("openai/gpt-4o-mini")
	require.NoError(t, err)
	assert.Equal(t, "openai/gpt-4o-mini", id)

	_, err = ResolveModel("nonsense")
	assert.ErrorIs(t, err, ErrUnknownModel)
}

func TestCatalog_FreeFirst(t *testing.T) {
	models := Catalog()
	require.NotEmpty(t, models)
	seenPaid := false
	for _, m := range models {
		if !m.Free {
			seenPaid = true
		}
		assert.False(t, seenPaid && m.Free, "free model %s listed after a paid one", m.Alias)
	}
}

func TestOllamaRecognizer_Recognize(t *testing.T) {
	var got ollamaChatRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/chat", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_ = json.NewEncoder(w).Encode(ollamaChatResponse{Message: ollamaChatMessage{Role: "assistant", Content: "# Page\n\ntext"}})
	}))
	defer srv.Close()

	r := NewOllamaRecognizer(Options{Model: "qwen2.5vl", BaseURL: srv.URL, Prompt: "read it"})
	text, err := r.Recognize(context.Background(), Image{Data: []byte("png-bytes"), MIME: "image/png"})
	require.NoError(t, err)
	assert.Equal(t, "# Page\n\ntext", text)

	assert.Equal(t, "qwen2.5vl", got.Model)
	require.Len(t, got.Messages, 1)
	assert.Equal(t, "read it", got.Messages[0].Content)
	assert.Equal(t, []string{base64.StdEncoding.EncodeToString([]byte("png-bytes"))}, got.Messages[0].Images)
	assert.Equal(t, "ollama:qwen2.5vl", r.Name())
}

func TestOllamaRecognizer_HTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model not found", http.StatusNotFound)
	}))
	defer srv.Close()

	r := NewOllamaRecognizer(Options{Model: "missing", BaseURL: srv.URL})
	_, err := r.Recognize(context.Background(), Image{Data: []byte("x")})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "404")
}

func TestOpenRouterRecognizer_Recognize(t *testing.T) {
	var body map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		assert.Equal(t, "pagedoc", r.Header.Get("X-Title"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"1","object":"chat.completion","created":1,"model":"m","choices":[{"index":0,"finish_reason":"stop","message":{"role":"assistant","content":"## Heading\n- item"}}]}`))
	}))
	defer srv.Close()

	r, err := NewOpenRouterRecognizer(Options{APIKey: "test-key", Model: "qwen-32b-free", BaseURL: srv.URL, MaxTokens: 4000, Temperature: 0.1})
	require.NoError(t, err)

	text, err := r.Recognize(context.Background(), Image{Data: []byte("img"), MIME: "image/jpeg"})
	require.NoError(t, err)
	assert.Equal(t, "## Heading\n- item", text)

	assert.Equal(t, "qwen/qwen2.5-vl-32b-instruct:free", body["model"])
	assert.EqualValues(t, 4000, body["max_tokens"])
	raw, _ := json.Marshal(body["messages"])
	assert.Contains(t, string(raw), "data:image/jpeg;base64,"+base64.StdEncoding.EncodeToString([]byte("img")))
}

func TestNewOpenRouterRecognizer_RequiresKey(t *testing.T) {
	_, err := NewOpenRouterRecognizer(Options{Model: "qwen-72b-free"})
	assert.Error(t, err)
}

func TestNew_UnknownProvider(t *testing.T) {
	_, err := New(context.Background(), Options{Provider: "fax"})
	assert.Error(t, err)
}

type scriptedRecognizer struct {
	errs  []error
	calls int
}

func (s *scriptedRecognizer) Name() string { return "scripted" }

func (s *scriptedRecognizer) Recognize(ctx context.Context, img Image) (string, error) {
	i := s.calls
	s.calls++
	if i < len(s.errs) && s.errs[i] != nil {
		return "", s.errs[i]
	}
	return "ok", nil
}

func TestRetryPolicy_RetriesTransient(t *testing.T) {
	r := &scriptedRecognizer{errs: []error{errors.New("503 service unavailable"), ErrNoText}}
	p := RetryPolicy{MaxAttempts: 3, BaseBackoff: time.Millisecond}

	text, attempts, err := p.Do(context.Background(), r, Image{})
	require.NoError(t, err)
	assert.Equal(t, "ok", text)
	assert.Equal(t, 3, attempts)
}

func TestRetryPolicy_StopsOnPermanentError(t *testing.T) {
	r := &scriptedRecognizer{errs: []error{errors.New("401 unauthorized")}}
	p := RetryPolicy{MaxAttempts: 3, BaseBackoff: time.Millisecond}

	_, attempts, err := p.Do(context.Background(), r, Image{})
	require.Error(t, err)
	assert.Equal(t, 1, attempts)
}

func TestIsRetryable_StatusCodes(t *testing.T) {
	for msg, want := range map[string]bool{
		"ollama chat request failed (503): loading model": true,
		"429 too many requests":                           true,
		"status 502":                                      true,
		"max_tokens 5000 exceeded":                        false,
		"ollama chat request failed (400): bad request":   false,
		"request id 45003 rejected":                       false,
		"401 unauthorized":                                false,
	} {
		assert.Equal(t, want, isRetryable(errors.New(msg)), msg)
	}

	assert.True(t, isRetryable(fmt.Errorf("read body: %w", io.ErrUnexpectedEOF)))
	assert.False(t, isRetryable(errors.New("geoff returned nothing")))
}

func TestIsRetryable_OpenAIError(t *testing.T) {
	assert.True(t, isRetryable(&openai.Error{StatusCode: http.StatusServiceUnavailable}))
	assert.True(t, isRetryable(&openai.Error{StatusCode: http.StatusTooManyRequests}))
	assert.False(t, isRetryable(&openai.Error{StatusCode: http.StatusBadRequest}))
}

func TestRetryPolicy_GivesUp(t *testing.T) {
	r := &scriptedRecognizer{errs: []error{ErrNoText, ErrNoText}}
	p := RetryPolicy{MaxAttempts: 2, BaseBackoff: time.Millisecond}

	_, attempts, err := p.Do(context.Background(), r, Image{})
	assert.ErrorIs(t, err, ErrNoText)
	assert.Equal(t, 2, attempts)
}

func TestRetryPolicy_Backoff(t *testing.T) {
	p := RetryPolicy{BaseBackoff: time.Second, MaxBackoff: 3 * time.Second}
	assert.Equal(t, time.Second, p.backoff(1))
	assert.Equal(t, 2*time.Second, p.backoff(2))
	assert.Equal(t, 3*time.Second, p.backoff(3))
}
