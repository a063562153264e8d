package proofreader

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLoadInstruction_Default(t *testing.T) {
	got, err := LoadInstruction("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != DefaultInstruction {
		t.Error("expected the default instruction")
	}
}

func TestLoadInstruction_FromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "brief.txt")
	if err := os.WriteFile(path, []byte("Fix spelling only.\n"), 0644); err != nil {
		t.Fatal(err)
	}

	got, err := LoadInstruction(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "Fix spelling only." {
		t.Errorf("expected trimmed file contents, got %q", got)
	}
}

func TestLoadInstruction_MissingFile(t *testing.T) {
	_, err := LoadInstruction(filepath.Join(t.TempDir(), "absent.txt"))
	if err == nil {
		t.Error("expected error for missing file")
	}
}

func TestLoadInstruction_EmptyFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.txt")
	if err := os.WriteFile(path, []byte("   \n"), 0644); err != nil {
		t.Fatal(err)
	}

	_, err := LoadInstruction(path)
	if err == nil {
		t.Error("expected error for empty file")
	}
}

func TestDefaultInstruction_Content(t *testing.T) {
	for _, want := range []string{"British English", `\cite`, "braces"} {
		if !strings.Contains(DefaultInstruction, want) {
			t.Errorf("default instruction should mention %q", want)
		}
	}
}
