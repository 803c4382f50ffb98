package main

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"pagedoc/internal/config"
)

func TestApplyFlags(t *testing.T) {
	t.Setenv("PAGEDOC_API_KEY", "")
	t.Setenv("GEMINI_API_KEY", "gem-key")
	t.Cleanup(func() { flags = runFlags{} })

	cfg := config.Default()
	cfg.OCR.APIKey = "router-key"
	flags = runFlags{provider: "gemini", dpi: 300, deleteImages: true, noCache: true, separator: "break"}

	applyFlags(cfg)
	cfg.Finalize()

	assert.Equal(t, "gemini", cfg.OCR.Provider)
	assert.Equal(t, "gemini-2.5-flash", cfg.OCR.Model)
	assert.Equal(t, "gem-key", cfg.OCR.APIKey)
	assert.Equal(t, 300, cfg.Source.DPI)
	assert.False(t, cfg.KeepImages())
	assert.False(t, cfg.CacheEnabled())
	assert.Equal(t, "break", cfg.Render.PageSeparator)
}

func TestApplyFlags_SameProviderKeepsModel(t *testing.T) {
	t.Cleanup(func() { flags = runFlags{} })

	cfg := config.Default()
	cfg.OCR.Provider = "openrouter"
	cfg.OCR.Model = "gpt-4o"
	cfg.OCR.APIKey = "k"
	flags = runFlags{provider: "OpenRouter"}

	applyFlags(cfg)
	assert.Equal(t, "gpt-4o", cfg.OCR.Model)
	assert.Equal(t, "k", cfg.OCR.APIKey)
}
