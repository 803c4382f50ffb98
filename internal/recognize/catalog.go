package recognize

import (
	"fmt"
	"sort"
	"strings"
)

// Model is a vision model known by a short alias.
type Model struct {
	Alias string
	ID    string
	Free  bool
	Note  string
}

var catalog = []Model{
	{Alias: "qwen-72b-free", ID: "qwen/qwen2.5-vl-72b-instruct:free", Free: true, Note: "best quality, Japanese OCR"},
	{Alias: "qwen-32b-free", ID: "qwen/qwen2.5-vl-32b-instruct:free", Free: true, Note: "balanced, Japanese OCR"},
	{Alias: "llama-vision-free", ID: "meta-llama/llama-3.2-11b-vision-instruct:free", Free: true, Note: "general purpose, English OCR"},
	{Alias: "kimi-vl-free", ID: "moonshotai/kimi-vl-a3b-thinking:free", Free: true, Note: "lightweight, fast"},
	{Alias: "gemma-4b-free", ID: "google/gemma-3-4b-it:free", Free: true, Note: "very small, fast"},
	{Alias: "gemma-12b-free", ID: "google/gemma-3-12b-it:free", Free: true, Note: "medium size"},
	{Alias: "gemma-27b-free", ID: "google/gemma-3-27b-it:free", Free: true, Note: "English OCR"},
	{Alias: "llama-3.2-90b", ID: "meta-llama/llama-3.2-90b-vision-instruct"},
	{Alias: "llama-3.2-11b", ID: "meta-llama/llama-3.2-11b-vision-instruct"},
	{Alias: "gpt-4-vision", ID: "openai/gpt-4-vision-preview"},
	{Alias: "gpt-4o", ID: "openai/gpt-4o"},
	{Alias: "claude-3.5-sonnet", ID: "anthropic/claude-3.5-sonnet"},
	{Alias: "gemini-1.5-pro", ID: "google/gemini-pro-1.5"},
	{Alias: "pixtral-12b", ID: "mistralai/pixtral-12b-2409"},
}

// Catalog returns the known models, free ones first, then by alias.
func Catalog() []Model {
	out := make([]Model, len(catalog))
	copy(out, catalog)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Free != out[j].Free {
			return out[i].Free
		}
		return out[i].Alias < out[j].Alias
	})
	return out
}

// ResolveModel maps an alias to its model id. Values containing a slash are
// taken as full OpenRouter ids and returned unchanged.
func ResolveModel(aliasOrID string) (string, error) {
	name := strings.TrimSpace(aliasOrID)
	for _, m := range catalog {
		if m.Alias == name {
			return m.ID, nil
		}
	}
	if strings.Contains(name, "/") {
		return name, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownModel, aliasOrID)
}
