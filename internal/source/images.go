package source

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// ErrNoPages is returned when an input yields nothing to recognize.
var ErrNoPages = errors.New("no pages found")

var imageMIME = map[string]string{
	".png":  "image/png",
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".gif":  "image/gif",
	".webp": "image/webp",
	".bmp":  "image/bmp",
	".tif":  "image/tiff",
	".tiff": "image/tiff",
}

// Page is one image handed to a recognizer. Index is zero-based.
type Page struct {
	Index int
	Path  string
	MIME  string
	Data  []byte
}

func IsImage(path string) bool {
	_, ok := imageMIME[strings.ToLower(filepath.Ext(path))]
	return ok
}

func IsPDF(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".pdf")
}

// MIMEType maps a file extension to its image MIME type, defaulting to PNG.
func MIMEType(path string) string {
	if m, ok := imageMIME[strings.ToLower(filepath.Ext(path))]; ok {
		return m
	}
	return "image/png"
}

// ExpandImages resolves files, directories (their direct image children) and
// glob patterns (including **) into a sorted, de-duplicated list of images.
func ExpandImages(patterns []string) ([]string, error) {
	seen := map[string]bool{}
	var out []string
	add := func(p string) {
		if !IsImage(p) {
			return
		}
		p = filepath.Clean(p)
		if seen[p] {
			return
		}
		seen[p] = true
		out = append(out, p)
	}

	for _, pattern := range patterns {
		pattern = strings.TrimSpace(pattern)
		if pattern == "" {
			continue
		}
		info, err := os.Stat(pattern)
		switch {
		case err == nil && info.IsDir():
			entries, err := os.ReadDir(pattern)
			if err != nil {
				return nil, fmt.Errorf("read dir %s: %w", pattern, err)
			}
			for _, e := range entries {
				if !e.IsDir() {
					add(filepath.Join(pattern, e.Name()))
				}
			}
		case err == nil:
			add(pattern)
		default:
			matches, gerr := doublestar.FilepathGlob(pattern)
			if gerr != nil {
				return nil, fmt.Errorf("bad pattern %q: %w", pattern, gerr)
			}
			for _, m := range matches {
				if st, err := os.Stat(m); err == nil && !st.IsDir() {
					add(m)
				}
			}
		}
	}

	if len(out) == 0 {
		return nil, ErrNoPages
	}
	sort.Strings(out)
	return out, nil
}

// LoadPage reads an image and normalizes formats that remote models reject.
func LoadPage(index int, path string) (Page, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Page{}, fmt.Errorf("read image %s: %w", path, err)
	}
	mime := MIMEType(path)
	data, mime, err = NormalizeImage(data, mime)
	if err != nil {
		return Page{}, fmt.Errorf("normalize %s: %w", path, err)
	}
	return Page{Index: index, Path: path, MIME: mime, Data: data}, nil
}

// NormalizeImage re-encodes BMP, TIFF and WebP images as PNG. Other formats
// are returned unchanged.
func NormalizeImage(data []byte, mime string) ([]byte, string, error) {
	switch mime {
	case "image/bmp", "image/tiff", "image/webp":
	default:
		return data, mime, nil
	}
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, "", err
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, "", err
	}
	return buf.Bytes(), "image/png", nil
}
