package resume

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestLoad(t *testing.T) {
	dir := t.TempDir()

	pdf := filepath.Join(dir, "resume.PDF")
	if err := os.WriteFile(pdf, []byte("%PDF-1.4"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}

	file, err := Load(pdf)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if file.Name != "resume.PDF" || string(file.Content) != "%PDF-1.4" {
		t.Fatalf("unexpected file: %+v", file)
	}

	file, err = Load("  ")
	if err != nil || file != nil {
		t.Fatalf("expected nil file for empty path, got %v, %v", file, err)
	}
}

func TestLoadRejects(t *testing.T) {
	dir := t.TempDir()

	txt := filepath.Join(dir, "resume.txt")
	if err := os.WriteFile(txt, []byte("plain"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}

	if _, err := Load(txt); !errors.Is(err, ErrUnsupportedType) {
		t.Fatalf("expected unsupported type error, got %v", err)
	}

	empty := filepath.Join(dir, "empty.docx")
	if err := os.WriteFile(empty, nil, 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}

	if _, err := Load(empty); err == nil {
		t.Fatalf("expected error for empty file")
	}

	if _, err := Load(filepath.Join(dir, "missing.pdf")); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected not exist error, got %v", err)
	}
}
