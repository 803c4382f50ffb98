package source

import (
	"os"
	"path/filepath"
	"strings"
)

// Stem is the file name without directory or extension.
func Stem(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// ImageDir is where page images of input are written: <stem>_images next to
// the input.
func ImageDir(input string) string {
	return filepath.Join(filepath.Dir(input), Stem(input)+"_images")
}

// Cleanup removes the given images and then dir if it is left empty.
func Cleanup(dir string, paths []string) error {
	var firstErr error
	for _, p := range paths {
		if err := os.Remove(p); err != nil && !os.IsNotExist(err) && firstErr == nil {
			firstErr = err
		}
	}
	if dir == "" {
		return firstErr
	}
	entries, err := os.ReadDir(dir)
	if err == nil && len(entries) == 0 {
		if err := os.Remove(dir); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
