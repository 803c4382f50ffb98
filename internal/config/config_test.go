package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	for _, k := range []string{"PAGEDOC_API_KEY", "OPENROUTER_API_KEY", "GEMINI_API_KEY", "PAGEDOC_OCR_PROVIDER", "PAGEDOC_OCR_MODEL", "PAGEDOC_LOG_MODE"} {
		t.Setenv(k, "")
	}
}

func TestLoadConfig_MissingFileUsesDefaults(t *testing.T) {
	clearEnv(t)
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "openrouter", cfg.OCR.Provider)
	assert.Equal(t, "qwen-72b-free", cfg.OCR.Model)
	assert.Equal(t, 120, cfg.OCR.TimeoutSeconds)
	assert.Equal(t, 4000, cfg.OCR.MaxTokens)
	assert.Equal(t, 0.1, cfg.OCR.Temperature)
	assert.Equal(t, 200, cfg.Source.DPI)
	assert.Equal(t, "rule", cfg.Render.PageSeparator)
	assert.True(t, cfg.KeepImages())
	assert.True(t, cfg.CacheEnabled())
}

func TestLoadConfig_YAMLAndEnvOverride(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
ocr:
  provider: gemini
  model: gemini-2.5-pro
  concurrency: 2
source:
  dpi: 300
  keep_images: false
render:
  page_separator: break
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	t.Setenv("GEMINI_API_KEY", "g-key")
	t.Setenv("PAGEDOC_OCR_MODEL", "gemini-2.5-flash")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "gemini", cfg.OCR.Provider)
	assert.Equal(t, "gemini-2.5-flash", cfg.OCR.Model)
	assert.Equal(t, "g-key", cfg.OCR.APIKey)
	assert.Equal(t, 2, cfg.OCR.Concurrency)
	assert.Equal(t, 300, cfg.Source.DPI)
	assert.False(t, cfg.KeepImages())
	assert.Equal(t, "break", cfg.Render.PageSeparator)
	assert.NoError(t, cfg.Validate())
}

func TestLoadConfig_GenericKeyWins(t *testing.T) {
	clearEnv(t)
	t.Setenv("OPENROUTER_API_KEY", "or-key")
	t.Setenv("PAGEDOC_API_KEY", "generic")

	cfg, err := LoadConfig("")
	require.NoError(t, err)
	assert.Equal(t, "generic", cfg.OCR.APIKey)
}

func TestValidate(t *testing.T) {
	clearEnv(t)

	cfg := Default()
	assert.ErrorIs(t, cfg.Validate(), ErrMissingAPIKey)

	cfg.OCR.Provider = "ollama"
	assert.NoError(t, cfg.Validate())

	cfg.OCR.Provider = "carrier-pigeon"
	assert.Error(t, cfg.Validate())

	cfg.OCR.Provider = "textlayer"
	cfg.Render.PageSeparator = "zigzag"
	assert.Error(t, cfg.Validate())
}

func TestLoadConfig_BadYAML(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("ocr: [unclosed"), 0644))
	_, err := LoadConfig(path)
	assert.Error(t, err)
}

func TestFinalize_ReresolvesForNewProvider(t *testing.T) {
	clearEnv(t)
	t.Setenv("GEMINI_API_KEY", "gem-key")

	cfg := Default()
	assert.Equal(t, "openrouter", cfg.OCR.Provider)
	assert.Empty(t, cfg.OCR.APIKey)

	cfg.OCR.Provider = "Gemini"
	cfg.OCR.Model = ""
	cfg.Finalize()
	assert.Equal(t, "gemini", cfg.OCR.Provider)
	assert.Equal(t, "gemini-2.5-flash", cfg.OCR.Model)
	assert.Equal(t, "gem-key", cfg.OCR.APIKey)
	assert.NoError(t, cfg.Validate())
}
