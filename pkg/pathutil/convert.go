// Package pathutil provides utilities for converting between absolute and relative paths.
//
// The pipeline uses root-relative slash-separated paths internally so
// change records and review items are portable across machines.
// Compiler reports, however, may spell file paths absolutely or with
// platform separators. This package is the conversion layer at that
// input boundary.
package pathutil

import (
	"path/filepath"
	"strings"

	"github.com/standardbeagle/remedy/internal/types"
)

// ToRelative converts an absolute path to relative based on a root directory.
// Falls back to the original path if conversion fails or path is already relative.
//
// Examples:
//   - ToRelative("/home/user/project/src/main.ts", "/home/user/project") → "src/main.ts"
//   - ToRelative("/other/location/file.ts", "/home/user/project") → "/other/location/file.ts" (outside root)
//   - ToRelative("src/main.ts", "/home/user/project") → "src/main.ts" (already relative)
func ToRelative(absPath, rootDir string) string {
	if absPath == "" || rootDir == "" {
		return absPath
	}

	if !filepath.IsAbs(absPath) {
		return absPath
	}

	absPath = filepath.Clean(absPath)
	rootDir = filepath.Clean(rootDir)

	relPath, err := filepath.Rel(rootDir, absPath)
	if err != nil {
		// Conversion failed (e.g., different drives on Windows) - return absolute
		return absPath
	}

	// A ".." prefix means the file is outside the root; the absolute
	// path is clearer in that case.
	if strings.HasPrefix(relPath, "..") {
		return absPath
	}

	return relPath
}

// Normalize converts a report-spelled path to the pipeline's internal
// form: root-relative where possible, slash-separated, cleaned.
func Normalize(path, rootDir string) string {
	return filepath.ToSlash(filepath.Clean(ToRelative(path, rootDir)))
}

// NormalizeDiagnostics rewrites the file paths of a classified batch to
// the internal form. Creates a new slice without modifying the
// original batch.
func NormalizeDiagnostics(batch []types.CategorizedDiagnostic, rootDir string) []types.CategorizedDiagnostic {
	if len(batch) == 0 {
		return batch
	}

	converted := make([]types.CategorizedDiagnostic, len(batch))
	copy(converted, batch)

	for i := range converted {
		converted[i].File = Normalize(converted[i].File, rootDir)
	}

	return converted
}
