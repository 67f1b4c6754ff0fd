// Package safeio reads module sources and config files without following
// paths outside the directories the caller named.
package safeio

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// ReadFileUnder reads targetPath only if it resolves under rootDir. Module
// and config reads go through here so a crafted path cannot escape the
// project root.
func ReadFileUnder(rootDir, targetPath string) ([]byte, error) {
	rootAbs, err := filepath.Abs(rootDir)
	if err != nil {
		return nil, fmt.Errorf("resolve root path: %w", err)
	}
	targetAbs, err := filepath.Abs(targetPath)
	if err != nil {
		return nil, fmt.Errorf("resolve target path: %w", err)
	}

	rel, err := filepath.Rel(rootAbs, targetAbs)
	if err != nil {
		return nil, fmt.Errorf("compute relative path: %w", err)
	}
	if rel == ".." || strings.HasPrefix(rel, ".."+string(os.PathSeparator)) {
		return nil, fmt.Errorf("path escapes root: %s", targetPath)
	}

	root, err := os.OpenRoot(rootAbs)
	if err != nil {
		return nil, fmt.Errorf("open root: %w", err)
	}
	defer root.Close()

	file, err := root.Open(filepath.Clean(rel))
	if err != nil {
		return nil, err
	}
	defer file.Close()

	return io.ReadAll(file)
}

// ReadFile reads the exact targetPath by opening its parent directory as a
// root, for explicitly-passed paths that may sit outside the project.
func ReadFile(targetPath string) ([]byte, error) {
	targetAbs, err := filepath.Abs(targetPath)
	if err != nil {
		return nil, fmt.Errorf("resolve target path: %w", err)
	}

	root, err := os.OpenRoot(filepath.Dir(targetAbs))
	if err != nil {
		return nil, fmt.Errorf("open parent root: %w", err)
	}
	defer root.Close()

	file, err := root.Open(filepath.Base(targetAbs))
	if err != nil {
		return nil, err
	}
	defer file.Close()

	return io.ReadAll(file)
}
