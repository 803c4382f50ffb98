package main

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"pagedoc/internal/config"
	"pagedoc/internal/logger"
	"pagedoc/internal/pipeline"
	"pagedoc/internal/recognize"
	"pagedoc/internal/source"
	"pagedoc/internal/storage"
)

type app struct {
	cfg        *config.Config
	log        *logger.Logger
	recognizer recognize.Recognizer
	cache      *storage.SQLiteCache
	converter  *pipeline.Converter
}

func (rt *app) recognizerName() string {
	if rt.recognizer == nil {
		return rt.cfg.OCR.Provider
	}
	return rt.recognizer.Name()
}

func (rt *app) close() {
	if rt.cache != nil {
		_ = rt.cache.Close()
	}
	rt.log.Sync()
}

// applyFlags copies explicitly set command-line values over the config.
func applyFlags(cfg *config.Config) {
	if flags.provider != "" {
		if !strings.EqualFold(cfg.OCR.Provider, flags.provider) {
			// model and key configured for the old provider do not carry over
			cfg.OCR.Model = ""
			cfg.OCR.APIKey = ""
		}
		cfg.OCR.Provider = strings.ToLower(flags.provider)
	}
	if flags.model != "" {
		cfg.OCR.Model = flags.model
	}
	if flags.apiKey != "" {
		cfg.OCR.APIKey = flags.apiKey
	}
	if flags.baseURL != "" {
		cfg.OCR.BaseURL = flags.baseURL
	}
	if flags.prompt != "" {
		cfg.OCR.Prompt = flags.prompt
	}
	if flags.concurrency > 0 {
		cfg.OCR.Concurrency = flags.concurrency
	}
	if flags.dpi > 0 {
		cfg.Source.DPI = flags.dpi
	}
	if flags.deleteImages {
		keep := false
		cfg.Source.KeepImages = &keep
	}
	if flags.noCache {
		enabled := false
		cfg.Cache.Enabled = &enabled
	}
	if flags.separator != "" {
		cfg.Render.PageSeparator = flags.separator
	}
}

// setup loads configuration and builds the converter. withRecognizer is
// false for commands that never recognize pages.
func setup(ctx context.Context, withRecognizer bool) (*app, error) {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	applyFlags(cfg)
	cfg.Finalize()

	log, err := logger.New(cfg.Log.Mode)
	if err != nil {
		return nil, err
	}
	rt := &app{cfg: cfg, log: log}

	if !withRecognizer {
		rt.converter = pipeline.NewConverter(cfg, nil, nil, nil, log)
		return rt, nil
	}

	if err := cfg.Validate(); err != nil {
		if errors.Is(err, config.ErrMissingAPIKey) {
			return nil, fmt.Errorf("%w: set it in config.yaml, .env, the provider's environment variable, or --api-key", err)
		}
		return nil, err
	}

	if cfg.OCR.Provider != "textlayer" {
		rt.recognizer, err = recognize.New(ctx, recognize.Options{
			Provider:    cfg.OCR.Provider,
			Model:       cfg.OCR.Model,
			APIKey:      cfg.OCR.APIKey,
			BaseURL:     cfg.OCR.BaseURL,
			Prompt:      cfg.OCR.Prompt,
			TimeoutSecs: cfg.OCR.TimeoutSeconds,
			MaxTokens:   cfg.OCR.MaxTokens,
			Temperature: cfg.OCR.Temperature,
			Language:    cfg.OCR.Language,
		})
		if err != nil {
			return nil, err
		}
	}

	if cfg.CacheEnabled() && rt.recognizer != nil {
		rt.cache, err = storage.NewSQLiteCache(cfg.Cache.Path)
		if err != nil {
			log.Warn("page cache unavailable", "path", cfg.Cache.Path, "error", err)
			rt.cache = nil
		}
	}

	rasterizer := source.NewRasterizer(log, cfg.Source.PdftoppmPath, cfg.Source.PdfinfoPath)
	var cache storage.PageCache
	if rt.cache != nil {
		cache = rt.cache
	}
	rt.converter = pipeline.NewConverter(cfg, rt.recognizer, rasterizer, cache, log)
	if cfg.OCR.Prompt != "" {
		rt.converter.SetCacheScope(storage.PageKey([]byte(cfg.OCR.Prompt))[:12])
	}
	log.Debug("runtime ready", "provider", cfg.OCR.Provider, "model", cfg.OCR.Model, "api_key", cfg.OCR.APIKey)
	return rt, nil
}

func imageDirFor(input, configured string) string {
	if configured != "" {
		return configured
	}
	return source.ImageDir(input)
}
