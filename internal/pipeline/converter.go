package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"pagedoc/internal/compiler"
	"pagedoc/internal/config"
	"pagedoc/internal/docmodel"
	"pagedoc/internal/logger"
	"pagedoc/internal/recognize"
	"pagedoc/internal/render"
	"pagedoc/internal/source"
	"pagedoc/internal/storage"
)

var ErrAllPagesFailed = errors.New("no page could be recognized")

// Rasterizer turns a PDF into page images.
type Rasterizer interface {
	Render(ctx context.Context, pdfPath, outDir string, dpi int) ([]string, error)
}

// ProgressFunc is called once per finished page, serialized.
type ProgressFunc func(done, total int, page PageMetric)

type Converter struct {
	cfg        *config.Config
	recognizer recognize.Recognizer
	rasterizer Rasterizer
	cache      storage.PageCache
	retry      recognize.RetryPolicy
	log        *logger.Logger
	progress   ProgressFunc
	cacheScope string
}

// NewConverter wires a converter. recognizer may be nil when the configured
// provider is textlayer; cache may be nil to disable caching.
func NewConverter(cfg *config.Config, recognizer recognize.Recognizer, rasterizer Rasterizer, cache storage.PageCache, log *logger.Logger) *Converter {
	if log == nil {
		log = logger.Nop()
	}
	retry := recognize.DefaultRetryPolicy()
	if cfg.OCR.MaxAttempts > 0 {
		retry.MaxAttempts = cfg.OCR.MaxAttempts
	}
	return &Converter{
		cfg:        cfg,
		recognizer: recognizer,
		rasterizer: rasterizer,
		cache:      cache,
		retry:      retry,
		log:        log.With("service", "Converter"),
	}
}

func (c *Converter) SetRetryPolicy(p recognize.RetryPolicy) { c.retry = p }

func (c *Converter) SetProgress(fn ProgressFunc) { c.progress = fn }

// SetCacheScope separates cache entries produced under different prompts.
func (c *Converter) SetCacheScope(scope string) { c.cacheScope = scope }

type ConvertRequest struct {
	Input  string
	Output string
	// Format overrides the format implied by Output's extension.
	Format    render.Format
	Separator compiler.Separator
	// BlocksJSON, when set, also writes the compiled blocks as JSON.
	BlocksJSON string
	ReportPath string
}

type Result struct {
	Output     string
	Format     render.Format
	Fallback   bool
	Pages      int
	Recognized int
	Document   docmodel.Document
	Report     *Report
}

// DefaultOutput is <input-stem>.docx next to the input.
func DefaultOutput(input string) string {
	return filepath.Join(filepath.Dir(input), source.Stem(input)+".docx")
}

// Convert acquires the pages of req.Input, recognizes them, compiles the
// joined text and renders it. Failed pages are skipped; the run fails only
// when no page could be recognized.
func (c *Converter) Convert(ctx context.Context, req ConvertRequest) (res *Result, retErr error) {
	if _, err := os.Stat(req.Input); err != nil {
		return nil, fmt.Errorf("input not found: %w", err)
	}
	if req.Output == "" {
		req.Output = DefaultOutput(req.Input)
	}
	sep := req.Separator
	if sep == "" {
		sep = compiler.Separator(c.cfg.Render.PageSeparator)
	}

	report := NewReport("convert", req.Input)
	if c.recognizer != nil {
		report.Recognizer = c.recognizer.Name()
	}
	defer func() {
		if retErr != nil {
			report.AddSignal("convert_failed", "convert", "critical", retErr.Error(), 1)
		}
		if req.ReportPath == "" {
			return
		}
		if err := report.Save(req.ReportPath); err != nil {
			c.log.Warn("failed to write report", "path", req.ReportPath, "error", err)
		}
	}()

	texts, images, imageDir, err := c.acquireAndRecognize(ctx, req.Input, report)
	// Runs before the report is saved, including when no page was recognized.
	defer func() {
		if len(images) == 0 || c.cfg.KeepImages() {
			return
		}
		stage := report.BeginStage("cleanup")
		err := source.Cleanup(imageDir, images)
		report.EndStage(stage, "ok", map[string]float64{"images": float64(len(images))}, nil, err)
		if err != nil {
			c.log.Warn("failed to remove page images", "dir", imageDir, "error", err)
		}
	}()
	if err != nil {
		return nil, err
	}

	stage := report.BeginStage("compile")
	doc := compiler.CompilePages(texts, sep)
	report.Blocks = doc.Stats()
	report.EndStage(stage, "ok", map[string]float64{"blocks": float64(len(doc))}, []string{"separator=" + string(sep)}, nil)

	if req.BlocksJSON != "" {
		stage = report.BeginStage("save_blocks")
		err := docmodel.SaveJSON(req.BlocksJSON, doc)
		report.EndStage(stage, "ok", nil, nil, err)
		if err != nil {
			c.log.Warn("failed to write blocks json", "path", req.BlocksJSON, "error", err)
		}
	}

	res = &Result{
		Pages:      len(report.Pages),
		Recognized: len(texts),
		Document:   doc,
		Report:     report,
	}
	if res.Pages == 0 {
		res.Pages = len(texts)
	}

	stage = report.BeginStage("render")
	format, rerr := c.renderTo(doc, req)
	if rerr != nil {
		report.EndStage(stage, "error", nil, nil, rerr)
		report.AddSignal("render_fallback", "render", "warning", "Renderer failed; wrote markdown instead.", 1)
		c.log.Warn("render failed, writing markdown fallback", "output", req.Output, "error", rerr)

		stage = report.BeginStage("fallback")
		fallback := fallbackPath(req.Output)
		if err := writeFallback(fallback, texts); err != nil {
			report.EndStage(stage, "error", nil, nil, err)
			return nil, fmt.Errorf("render failed (%v) and markdown fallback failed: %w", rerr, err)
		}
		report.EndStage(stage, "ok", nil, []string{fallback}, nil)
		res.Output = fallback
		res.Format = render.FormatMarkdown
		res.Fallback = true
	} else {
		report.EndStage(stage, "ok", nil, []string{string(format)}, nil)
		res.Output = req.Output
		res.Format = format
	}
	report.Output = res.Output
	report.Fallback = res.Fallback

	return res, nil
}

// acquireAndRecognize returns the recognized texts in page order together
// with the page images it created, if any. Created images are returned even
// when recognition fails so the caller can remove them.
func (c *Converter) acquireAndRecognize(ctx context.Context, input string, report *Report) ([]string, []string, string, error) {
	if c.cfg.OCR.Provider == "textlayer" {
		stage := report.BeginStage("text_layer")
		texts, err := source.TextLayer(input)
		if err != nil {
			report.EndStage(stage, "error", nil, nil, err)
			if errors.Is(err, source.ErrNoPages) {
				return nil, nil, "", fmt.Errorf("%w: pdf has no text layer", ErrAllPagesFailed)
			}
			return nil, nil, "", err
		}
		report.EndStage(stage, "ok", map[string]float64{"pages": float64(len(texts))}, nil, nil)
		for i, t := range texts {
			report.AddPage(PageMetric{Index: i, Status: "ok", Chars: len([]rune(t)), Attempts: 1})
		}
		return texts, nil, "", nil
	}

	if c.recognizer == nil {
		return nil, nil, "", fmt.Errorf("no recognizer configured")
	}

	var (
		images   []string
		imageDir string
		created  bool
	)
	stage := report.BeginStage("acquire_pages")
	switch {
	case source.IsPDF(input):
		if c.rasterizer == nil {
			err := fmt.Errorf("no rasterizer configured")
			report.EndStage(stage, "error", nil, nil, err)
			return nil, nil, "", err
		}
		imageDir = c.cfg.Source.ImageDir
		if imageDir == "" {
			imageDir = source.ImageDir(input)
		}
		paths, err := c.rasterizer.Render(ctx, input, imageDir, c.cfg.Source.DPI)
		if err != nil {
			report.EndStage(stage, "error", nil, nil, err)
			return nil, nil, "", fmt.Errorf("rasterize %s: %w", input, err)
		}
		images = paths
		created = true
	default:
		paths, err := source.ExpandImages([]string{input})
		if err != nil {
			report.EndStage(stage, "error", nil, nil, err)
			return nil, nil, "", err
		}
		images = paths
	}
	report.EndStage(stage, "ok", map[string]float64{
		"pages": float64(len(images)),
		"dpi":   float64(c.cfg.Source.DPI),
	}, nil, nil)
	c.log.Info("pages acquired", "input", input, "pages", len(images))

	owned, ownedDir := []string(nil), ""
	if created {
		owned, ownedDir = images, imageDir
	}

	outcomes, err := c.recognizeAll(ctx, images, report)
	if err != nil {
		return nil, owned, ownedDir, err
	}
	var texts []string
	for _, o := range outcomes {
		if o.err == nil {
			texts = append(texts, o.text)
		}
	}
	if len(texts) == 0 {
		return nil, owned, ownedDir, fmt.Errorf("%w: %d pages", ErrAllPagesFailed, len(images))
	}
	return texts, owned, ownedDir, nil
}

type pageOutcome struct {
	path string
	text string
	err  error
}

// recognizeAll recognizes images concurrently and returns outcomes in input
// order. Page failures are recorded, not returned; only cancellation aborts.
func (c *Converter) recognizeAll(ctx context.Context, images []string, report *Report) ([]pageOutcome, error) {
	stage := report.BeginStage("recognize")
	outcomes := make([]pageOutcome, len(images))
	metrics := make([]PageMetric, len(images))

	limit := c.cfg.OCR.Concurrency
	if limit < 1 {
		limit = 1
	}
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)

	var (
		mu   sync.Mutex
		done int
	)
	for i, path := range images {
		i, path := i, path
		g.Go(func() error {
			if gctx.Err() != nil {
				return gctx.Err()
			}
			text, m, err := c.recognizePage(gctx, i, path)
			outcomes[i] = pageOutcome{path: path, text: text, err: err}
			metrics[i] = m
			if err != nil {
				if gctx.Err() != nil {
					return gctx.Err()
				}
				c.log.Warn("page recognition failed", "page", i+1, "path", path, "attempts", m.Attempts, "error", err)
			}
			if c.progress != nil {
				mu.Lock()
				done++
				c.progress(done, len(images), m)
				mu.Unlock()
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		report.EndStage(stage, "error", nil, nil, err)
		return nil, err
	}

	failed, cached := 0, 0
	for _, m := range metrics {
		report.AddPage(m)
		if m.Status != "ok" {
			failed++
			report.AddSignal("page_failed", fmt.Sprintf("page_%d", m.Index+1), "warning", m.Error, float64(m.Attempts))
		}
		if m.Cached {
			cached++
		}
	}
	report.EndStage(stage, "ok", map[string]float64{
		"pages":       float64(len(images)),
		"failed":      float64(failed),
		"cached":      float64(cached),
		"concurrency": float64(limit),
	}, nil, nil)
	return outcomes, nil
}

func (c *Converter) recognizePage(ctx context.Context, index int, path string) (string, PageMetric, error) {
	started := time.Now()
	m := PageMetric{Index: index, Path: path}
	finish := func(text string, err error) (string, PageMetric, error) {
		m.DurationMS = time.Since(started).Milliseconds()
		if err != nil {
			m.Status = "error"
			m.Error = err.Error()
			return "", m, err
		}
		m.Status = "ok"
		m.Chars = len([]rune(text))
		return text, m, nil
	}

	page, err := source.LoadPage(index, path)
	if err != nil {
		return finish("", err)
	}

	key := storage.PageKey(page.Data)
	model := c.recognizer.Name()
	if c.cacheScope != "" {
		model += "#" + c.cacheScope
	}
	if c.cache != nil {
		text, err := c.cache.Get(ctx, key, model)
		if err == nil {
			m.Cached = true
			return finish(text, nil)
		}
		if !errors.Is(err, storage.ErrCacheMiss) {
			c.log.Debug("cache lookup failed", "page", index+1, "error", err)
		}
	}

	text, attempts, err := c.retry.Do(ctx, c.recognizer, recognize.Image{Path: page.Path, MIME: page.MIME, Data: page.Data})
	m.Attempts = attempts
	if err != nil {
		return finish("", err)
	}
	if c.cache != nil {
		if err := c.cache.Put(ctx, key, model, text); err != nil {
			c.log.Debug("cache store failed", "page", index+1, "error", err)
		}
	}
	return finish(text, nil)
}

func (c *Converter) renderTo(doc docmodel.Document, req ConvertRequest) (render.Format, error) {
	format := req.Format
	if format == "" && c.cfg.Render.Format != "" {
		f, err := render.ParseFormat(c.cfg.Render.Format)
		if err != nil {
			return "", err
		}
		format = f
	}
	if format == "" {
		f, err := render.FormatFromPath(req.Output)
		if err != nil {
			return "", err
		}
		format = f
	}

	r, err := render.New(format, render.Options{Title: source.Stem(req.Input), PDFFont: c.cfg.Render.PDFFont})
	if err != nil {
		return "", err
	}
	docmodel.Play(doc, r)
	if err := render.SaveFile(r, req.Output); err != nil {
		return "", err
	}
	return format, nil
}

// fallbackPath is <output-stem>.md next to output. An output that already
// ends in .md gets a .fallback.md suffix so the failed file is not reused.
func fallbackPath(output string) string {
	dir := filepath.Dir(output)
	stem := source.Stem(output)
	if strings.EqualFold(filepath.Ext(output), ".md") {
		return filepath.Join(dir, stem+".fallback.md")
	}
	return filepath.Join(dir, stem+".md")
}

func writeFallback(path string, texts []string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	return os.WriteFile(path, []byte(compiler.JoinPages(texts)), 0644)
}
