package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

var ErrMissingAPIKey = errors.New("api key is not configured")

type Config struct {
	OCR struct {
		Provider       string  `yaml:"provider"`
		Model          string  `yaml:"model"` // catalog alias or full model id
		APIKey         string  `yaml:"api_key"`
		BaseURL        string  `yaml:"base_url"`
		Prompt         string  `yaml:"prompt"`
		TimeoutSeconds int     `yaml:"timeout_seconds"`
		MaxTokens      int     `yaml:"max_tokens"`
		Temperature    float64 `yaml:"temperature"`
		MaxAttempts    int     `yaml:"max_attempts"`
		Concurrency    int     `yaml:"concurrency"`
		Language       string  `yaml:"language"` // tesseract only
	} `yaml:"ocr"`
	Render struct {
		Format        string `yaml:"format"`
		PageSeparator string `yaml:"page_separator"`
		PDFFont       string `yaml:"pdf_font"`
	} `yaml:"render"`
	Source struct {
		DPI          int    `yaml:"dpi"`
		KeepImages   *bool  `yaml:"keep_images"`
		ImageDir     string `yaml:"image_dir"`
		PdftoppmPath string `yaml:"pdftoppm_path"`
		PdfinfoPath  string `yaml:"pdfinfo_path"`
	} `yaml:"source"`
	Cache struct {
		Enabled *bool  `yaml:"enabled"`
		Path    string `yaml:"path"`
	} `yaml:"cache"`
	Log struct {
		Mode string `yaml:"mode"`
	} `yaml:"log"`
}

// LoadConfig reads .env (if present), then the YAML file at path (if present),
// then environment overrides, then fills defaults.
func LoadConfig(path string) (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if path != "" {
		file, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(file, &cfg); err != nil {
				return nil, fmt.Errorf("failed to parse %s: %w", path, err)
			}
		case !errors.Is(err, os.ErrNotExist):
			return nil, err
		}
	}

	cfg.applyEnv()
	cfg.applyDefaults()
	return &cfg, nil
}

// Default returns a config with only defaults and environment overrides.
func Default() *Config {
	var cfg Config
	cfg.applyEnv()
	cfg.applyDefaults()
	return &cfg
}

func (c *Config) applyEnv() {
	if v := os.Getenv("PAGEDOC_OCR_PROVIDER"); v != "" {
		c.OCR.Provider = v
	}
	if v := os.Getenv("PAGEDOC_OCR_MODEL"); v != "" {
		c.OCR.Model = v
	}
	if v := os.Getenv("PAGEDOC_LOG_MODE"); v != "" {
		c.Log.Mode = v
	}
	if v := os.Getenv("PAGEDOC_API_KEY"); v != "" {
		c.OCR.APIKey = v
		return
	}
	if c.OCR.APIKey == "" {
		c.OCR.APIKey = providerKey(c.OCR.Provider)
	}
}

func providerKey(provider string) string {
	if v := os.Getenv("PAGEDOC_API_KEY"); v != "" {
		return v
	}
	switch strings.ToLower(strings.TrimSpace(provider)) {
	case "gemini":
		return os.Getenv("GEMINI_API_KEY")
	case "", "openrouter":
		return os.Getenv("OPENROUTER_API_KEY")
	}
	return ""
}

// Finalize re-resolves provider-dependent settings after fields were changed
// in code, e.g. by command-line flags. An empty API key is looked up again
// for the current provider.
func (c *Config) Finalize() {
	c.OCR.Provider = strings.ToLower(strings.TrimSpace(c.OCR.Provider))
	if c.OCR.APIKey == "" {
		c.OCR.APIKey = providerKey(c.OCR.Provider)
	}
	c.applyDefaults()
}

func (c *Config) applyDefaults() {
	c.OCR.Provider = strings.ToLower(strings.TrimSpace(c.OCR.Provider))
	if c.OCR.Provider == "" {
		c.OCR.Provider = "openrouter"
	}
	if c.OCR.Model == "" {
		switch c.OCR.Provider {
		case "gemini":
			c.OCR.Model = "gemini-2.5-flash"
		case "ollama":
			c.OCR.Model = "qwen2.5vl"
		default:
			c.OCR.Model = "qwen-72b-free"
		}
	}
	if c.OCR.TimeoutSeconds <= 0 {
		c.OCR.TimeoutSeconds = 120
	}
	if c.OCR.MaxTokens <= 0 {
		c.OCR.MaxTokens = 4000
	}
	if c.OCR.Temperature == 0 {
		c.OCR.Temperature = 0.1
	}
	if c.OCR.MaxAttempts <= 0 {
		c.OCR.MaxAttempts = 2
	}
	if c.OCR.Concurrency <= 0 {
		c.OCR.Concurrency = 4
	}
	if c.OCR.Language == "" {
		c.OCR.Language = "jpn+eng"
	}
	c.Render.Format = strings.ToLower(strings.TrimSpace(c.Render.Format))
	if c.Render.PageSeparator == "" {
		c.Render.PageSeparator = "rule"
	}
	if c.Source.DPI <= 0 {
		c.Source.DPI = 200
	}
	if c.Source.KeepImages == nil {
		keep := true
		c.Source.KeepImages = &keep
	}
	if c.Source.PdftoppmPath == "" {
		c.Source.PdftoppmPath = "pdftoppm"
	}
	if c.Source.PdfinfoPath == "" {
		c.Source.PdfinfoPath = "pdfinfo"
	}
	if c.Cache.Enabled == nil {
		enabled := true
		c.Cache.Enabled = &enabled
	}
	if c.Cache.Path == "" {
		c.Cache.Path = filepath.Join(".pagedoc", "cache.db")
	}
	if c.Log.Mode == "" {
		c.Log.Mode = "dev"
	}
}

// NeedsAPIKey reports whether the configured provider calls a keyed remote API.
func (c *Config) NeedsAPIKey() bool {
	return c.OCR.Provider == "openrouter" || c.OCR.Provider == "gemini"
}

func (c *Config) Validate() error {
	switch c.OCR.Provider {
	case "openrouter", "gemini", "ollama", "tesseract", "textlayer":
	default:
		return fmt.Errorf("unsupported ocr provider: %s", c.OCR.Provider)
	}
	switch c.Render.PageSeparator {
	case "rule", "break", "none":
	default:
		return fmt.Errorf("unsupported page separator: %s", c.Render.PageSeparator)
	}
	if c.Source.DPI <= 0 {
		return fmt.Errorf("dpi must be positive, got %d", c.Source.DPI)
	}
	if c.NeedsAPIKey() && strings.TrimSpace(c.OCR.APIKey) == "" {
		return fmt.Errorf("%s: %w", c.OCR.Provider, ErrMissingAPIKey)
	}
	return nil
}

func (c *Config) KeepImages() bool {
	return c.Source.KeepImages == nil || *c.Source.KeepImages
}

func (c *Config) CacheEnabled() bool {
	return c.Cache.Enabled == nil || *c.Cache.Enabled
}
