// Package document reads and writes the LaTeX files at the edges of the
// pipeline. Documents are held fully in memory; segmentation offsets index
// into Text directly.
package document

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Suffixes appended to the input's base name for the two output artifacts.
const (
	CorrectedSuffix = "_corrected.tex"
	DiffSuffix      = "_diff.tex"
)

// Document is a loaded input file.
type Document struct {
	Path string
	Text string
	Size int
}

// Read loads the document at path as UTF-8 text.
func Read(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read input file: %w", err)
	}
	return &Document{Path: path, Text: string(data), Size: len(data)}, nil
}

// Write stores text at path, creating parent directories as needed.
func Write(path, text string) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
	}
	if err := os.WriteFile(path, []byte(text), 0644); err != nil {
		return fmt.Errorf("failed to write output file: %w", err)
	}
	return nil
}

// OutputPaths derives the sibling artifact names for an input file:
// <base>_corrected.tex for the proofread document and <base>_diff.tex for
// the latexdiff output, both in the input's directory.
func OutputPaths(inputPath string) (corrected, diff string) {
	dir := filepath.Dir(inputPath)
	base := filepath.Base(inputPath)
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	return filepath.Join(dir, stem+CorrectedSuffix), filepath.Join(dir, stem+DiffSuffix)
}
