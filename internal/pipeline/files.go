package pipeline

import (
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/standardbeagle/remedy/internal/errors"
	"github.com/standardbeagle/remedy/internal/lexical"
)

// scanFiles walks root and returns the relative slash-separated paths
// of candidate source files, in walk order. Include patterns narrow
// the set when present; exclude patterns always win. maxFiles of 0
// means unlimited.
func scanFiles(root string, include, exclude []string, maxFiles int) ([]string, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, errors.NewRootNotFound(root, err)
	}
	if !info.IsDir() {
		return nil, errors.NewRootNotFound(root, errors.New("not a directory"))
	}

	var files []string
	walkErr := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			// Unreadable subtrees are skipped, not fatal.
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		rel, relErr := filepath.Rel(root, path)
		if relErr != nil {
			return nil
		}
		rel = filepath.ToSlash(rel)

		if d.IsDir() {
			if rel != "." && matchesAny(exclude, rel+"/") {
				return filepath.SkipDir
			}
			return nil
		}

		if !lexical.Supported(path) {
			return nil
		}
		if matchesAny(exclude, rel) {
			return nil
		}
		if len(include) > 0 && !matchesAny(include, rel) {
			return nil
		}

		files = append(files, rel)
		if maxFiles > 0 && len(files) >= maxFiles {
			return fs.SkipAll
		}
		return nil
	})
	if walkErr != nil {
		return nil, errors.NewRootNotFound(root, walkErr)
	}
	return files, nil
}

func matchesAny(patterns []string, rel string) bool {
	for _, p := range patterns {
		if ok, err := doublestar.Match(p, rel); err == nil && ok {
			return true
		}
		// Directory patterns like "**/node_modules/**" also exclude
		// the directory itself.
		if strings.HasSuffix(rel, "/") {
			if ok, err := doublestar.Match(p, rel+"x"); err == nil && ok {
				return true
			}
		}
	}
	return false
}

// looksBinary reports whether content is something other than text.
// NUL bytes in the first block are a reliable enough signal for source
// trees.
func looksBinary(content []byte) bool {
	limit := len(content)
	if limit > 8000 {
		limit = 8000
	}
	for _, b := range content[:limit] {
		if b == 0 {
			return true
		}
	}
	return false
}
