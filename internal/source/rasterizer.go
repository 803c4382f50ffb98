package source

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"pagedoc/internal/logger"
)

var pageImageRe = regexp.MustCompile(`^page-(\d+)\.png$`)

// Rasterizer turns PDF pages into PNG images with poppler's pdftoppm.
//
// Required binaries: pdftoppm and pdfinfo (poppler-utils).
type Rasterizer struct {
	log          *logger.Logger
	pdftoppmPath string
	pdfinfoPath  string
	timeout      time.Duration
}

func NewRasterizer(log *logger.Logger, pdftoppmPath, pdfinfoPath string) *Rasterizer {
	if log == nil {
		log = logger.Nop()
	}
	if pdftoppmPath == "" {
		pdftoppmPath = "pdftoppm"
	}
	if pdfinfoPath == "" {
		pdfinfoPath = "pdfinfo"
	}
	return &Rasterizer{
		log:          log.With("service", "Rasterizer"),
		pdftoppmPath: pdftoppmPath,
		pdfinfoPath:  pdfinfoPath,
		timeout:      10 * time.Minute,
	}
}

func (r *Rasterizer) AssertReady(ctx context.Context) error {
	for _, bin := range []string{r.pdftoppmPath, r.pdfinfoPath} {
		if _, err := exec.LookPath(bin); err != nil {
			return fmt.Errorf("missing required binary %q in PATH: %w", bin, err)
		}
	}
	return nil
}

func (r *Rasterizer) CountPages(ctx context.Context, pdfPath string) (int, error) {
	if pdfPath == "" {
		return 0, fmt.Errorf("pdfPath required")
	}
	if _, err := exec.LookPath(r.pdfinfoPath); err != nil {
		return 0, fmt.Errorf("pdfinfo not found in PATH: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	out, err := exec.CommandContext(ctx, r.pdfinfoPath, pdfPath).CombinedOutput()
	if err != nil {
		return 0, fmt.Errorf("pdfinfo failed: %w; out=%s", err, string(out))
	}
	return parsePDFInfoPages(string(out))
}

func parsePDFInfoPages(out string) (int, error) {
	for _, line := range strings.Split(out, "\n") {
		line = strings.TrimSpace(line)
		if !strings.HasPrefix(line, "Pages:") {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) < 2 {
			continue
		}
		n, err := strconv.Atoi(fields[len(fields)-1])
		if err != nil || n < 0 {
			continue
		}
		return n, nil
	}
	return 0, fmt.Errorf("pdfinfo output missing Pages field")
}

// Render writes one PNG per page into outDir and returns the image paths in
// page order. Stale page images from an earlier run are removed first.
func (r *Rasterizer) Render(ctx context.Context, pdfPath, outDir string, dpi int) ([]string, error) {
	if err := r.AssertReady(ctx); err != nil {
		return nil, err
	}
	if pdfPath == "" {
		return nil, fmt.Errorf("pdfPath required")
	}
	if outDir == "" {
		return nil, fmt.Errorf("outDir required")
	}
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return nil, fmt.Errorf("mkdir outDir: %w", err)
	}
	if dpi <= 0 {
		dpi = 200
	}

	stale, _ := pageImages(outDir)
	for _, p := range stale {
		_ = os.Remove(p)
	}

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	started := time.Now()
	args := []string{"-r", strconv.Itoa(dpi), "-png", pdfPath, filepath.Join(outDir, "page")}
	out, err := exec.CommandContext(ctx, r.pdftoppmPath, args...).CombinedOutput()
	if err != nil {
		return nil, fmt.Errorf("pdftoppm failed: %w; out=%s", err, string(out))
	}

	paths, err := pageImages(outDir)
	if err != nil {
		return nil, err
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("%w: pdftoppm produced no images; out=%s", ErrNoPages, string(out))
	}
	if want, err := r.CountPages(ctx, pdfPath); err == nil && want != len(paths) {
		r.log.Warn("page image count differs from pdfinfo", "pdf", pdfPath, "pages", want, "images", len(paths))
	}
	r.log.Debug("rasterized pdf", "pdf", pdfPath, "pages", len(paths), "dpi", dpi, "elapsed_ms", time.Since(started).Milliseconds())
	return paths, nil
}

// pageImages lists page-N.png files in dir ordered by page number. pdftoppm
// zero-pads numbers to the width of the page count, so lexical order is not
// reliable across runs.
func pageImages(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	type numbered struct {
		n    int
		path string
	}
	var found []numbered
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		m := pageImageRe.FindStringSubmatch(strings.ToLower(e.Name()))
		if m == nil {
			continue
		}
		n, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}
		found = append(found, numbered{n: n, path: filepath.Join(dir, e.Name())})
	}
	sort.Slice(found, func(i, j int) bool { return found[i].n < found[j].n })
	out := make([]string, 0, len(found))
	for _, f := range found {
		out = append(out, f.path)
	}
	return out, nil
}
