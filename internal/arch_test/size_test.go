package arch_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const (
	maxFilesPerPackage = 12
	maxLinesPerFile    = 400
)

// TestPackageFileCount keeps packages small enough to read in one sitting.
func TestPackageFileCount(t *testing.T) {
	t.Parallel()

	dir := internalDirPath(t)
	for _, pkg := range internalPackages(t) {
		if n := len(goFilesIn(t, filepath.Join(dir, pkg))); n > maxFilesPerPackage {
			t.Errorf("package %s has %d .go files (limit: %d); consider splitting", pkg, n, maxFilesPerPackage)
		}
	}
}

// TestFileLineCount checks every .go file under internal/, tests included.
func TestFileLineCount(t *testing.T) {
	t.Parallel()

	root := repoRoot(t)
	dir := internalDirPath(t)
	for _, pkg := range internalPackages(t) {
		entries, err := os.ReadDir(filepath.Join(dir, pkg))
		if err != nil {
			t.Fatalf("reading %s: %v", pkg, err)
		}
		for _, e := range entries {
			if e.IsDir() || !strings.HasSuffix(e.Name(), ".go") {
				continue
			}
			path := filepath.Join(dir, pkg, e.Name())
			if n := lineCount(t, path); n > maxLinesPerFile {
				rel, _ := filepath.Rel(root, path)
				t.Errorf("%s has %d lines (limit: %d); consider decomposing", rel, n, maxLinesPerFile)
			}
		}
	}
}
