// Package finder enumerates and validates candidate image files for batch
// processing.
package finder

import (
	"fmt"
	"image"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	// Register decoders for the supported formats so DecodeConfig can
	// verify file headers. BMP and TIFF are not in the standard library.
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
)

// Supported image file extensions (lowercase, with leading dot).
var imageExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".bmp":  true,
	".tiff": true,
	".tif":  true,
}

// Find returns the image paths under inputPath. A single file is returned
// only if its extension is supported; a directory is walked (recursively
// when recursive is true), matched case-insensitively against the supported
// extensions, deduplicated, and sorted for deterministic processing order.
func Find(inputPath string, recursive bool) ([]string, error) {
	info, err := os.Stat(inputPath)
	if err != nil {
		return nil, fmt.Errorf("cannot access input path: %w", err)
	}

	if !info.IsDir() {
		if isImagePath(inputPath) {
			return []string{inputPath}, nil
		}
		return nil, nil
	}

	seen := make(map[string]bool)
	var paths []string
	err = filepath.WalkDir(inputPath, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if !recursive && path != inputPath {
				return filepath.SkipDir
			}
			return nil
		}
		if isImagePath(path) && !seen[path] {
			seen[path] = true
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("directory walk failed: %w", err)
	}

	sort.Strings(paths)
	return paths, nil
}

// Validate filters paths down to files that exist, are non-empty, and carry
// a well-formed image header. Invalid entries are dropped silently; this is
// a best-effort filter, not a fail-fast check.
func Validate(paths []string) []string {
	valid := make([]string, 0, len(paths))
	for _, path := range paths {
		if isValidImage(path) {
			valid = append(valid, path)
		}
	}
	return valid
}

func isImagePath(path string) bool {
	return imageExtensions[strings.ToLower(filepath.Ext(path))]
}

func isValidImage(path string) bool {
	info, err := os.Stat(path)
	if err != nil || info.IsDir() || info.Size() == 0 {
		return false
	}

	f, err := os.Open(path)
	if err != nil {
		return false
	}
	defer f.Close()

	_, _, err = image.DecodeConfig(f)
	return err == nil
}
