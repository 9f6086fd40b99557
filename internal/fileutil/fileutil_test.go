package fileutil

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestWriteTempFile(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path, cleanup, err := WriteTempFile(dir, "<html></html>", "html")
	if err != nil {
		t.Fatalf("WriteTempFile() error = %v", err)
	}
	if filepath.Dir(path) != dir || !strings.HasSuffix(path, ".html") {
		t.Errorf("path = %q, want .html file in %q", path, dir)
	}
	got, err := os.ReadFile(path)
	if err != nil || string(got) != "<html></html>" {
		t.Errorf("content = %q, %v", got, err)
	}
	cleanup()
	if FileExists(path) {
		t.Error("cleanup did not remove the file")
	}
}

func TestValidateExtension(t *testing.T) {
	t.Parallel()

	tests := []struct {
		ext     string
		wantErr error
	}{
		{"pdf", nil},
		{"tmp.pdf", nil},
		{"", ErrExtensionEmpty},
		{"../x", ErrExtensionPathTraversal},
		{`a\b`, ErrExtensionPathTraversal},
		{"a\x00", ErrExtensionPathTraversal},
	}
	for _, tt := range tests {
		if err := ValidateExtension(tt.ext); !errors.Is(err, tt.wantErr) {
			t.Errorf("ValidateExtension(%q) = %v, want %v", tt.ext, err, tt.wantErr)
		}
	}
	if _, _, err := WriteTempFile(t.TempDir(), "x", "a/b"); !errors.Is(err, ErrExtensionPathTraversal) {
		t.Errorf("WriteTempFile() bad extension error = %v", err)
	}
}

func TestStageAndPublish(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	final := filepath.Join(dir, "习题册.pdf")
	if err := os.WriteFile(final, []byte("old"), 0o644); err != nil {
		t.Fatal(err)
	}

	staged, err := StagePath(final)
	if err != nil {
		t.Fatalf("StagePath() error = %v", err)
	}
	if filepath.Dir(staged) != dir || !strings.HasSuffix(staged, ".tmp.pdf") {
		t.Errorf("staged = %q", staged)
	}
	other, err := StagePath(final)
	if err != nil || other == staged {
		t.Errorf("second StagePath() = %q, %v, want a distinct path", other, err)
	}
	_ = os.Remove(other)

	if err := os.WriteFile(staged, []byte("new"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := Publish(staged, final); err != nil {
		t.Fatalf("Publish() error = %v", err)
	}
	if got, _ := os.ReadFile(final); string(got) != "new" {
		t.Errorf("final = %q, want new", got)
	}
	if FileExists(staged) {
		t.Error("staged file still present")
	}

	if _, err := StagePath(filepath.Join(dir, "noext")); !errors.Is(err, ErrExtensionEmpty) {
		t.Errorf("StagePath(noext) error = %v", err)
	}
}

func TestCopyFile(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	src := filepath.Join(dir, "a.png")
	if err := os.WriteFile(src, []byte{1, 2, 3}, 0o644); err != nil {
		t.Fatal(err)
	}
	dst := filepath.Join(dir, "b.png")
	if err := CopyFile(src, dst); err != nil {
		t.Fatal(err)
	}
	if got, _ := os.ReadFile(dst); len(got) != 3 {
		t.Errorf("copied %d bytes, want 3", len(got))
	}
	if err := CopyFile(filepath.Join(dir, "missing"), dst); err == nil {
		t.Error("expected error for missing source")
	}
}

func TestFileExists(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	file := filepath.Join(dir, "f")
	if err := os.WriteFile(file, nil, 0o644); err != nil {
		t.Fatal(err)
	}
	if !FileExists(file) {
		t.Error("FileExists(file) = false")
	}
	if FileExists(dir) {
		t.Error("FileExists(dir) = true")
	}
	if FileExists(filepath.Join(dir, "missing")) {
		t.Error("FileExists(missing) = true")
	}
}
