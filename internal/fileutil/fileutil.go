// Package fileutil provides the staging and publishing helpers of the
// assembly run.
package fileutil

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// Sentinel errors for file utility operations.
var (
	ErrExtensionEmpty         = errors.New("extension cannot be empty")
	ErrExtensionPathTraversal = errors.New("extension contains path separator or null byte")
)

// WriteTempFile writes content to a new temporary file in dir (the system
// temp directory when empty) named with the given extension. It returns the
// path and a cleanup function removing the file.
func WriteTempFile(dir, content, extension string) (path string, cleanup func(), err error) {
	if err := ValidateExtension(extension); err != nil {
		return "", nil, err
	}

	tmpFile, err := os.CreateTemp(dir, "workbook-*."+extension)
	if err != nil {
		return "", nil, fmt.Errorf("creating temp file: %w", err)
	}

	path = tmpFile.Name()
	cleanup = func() { _ = os.Remove(path) }

	if _, err := tmpFile.WriteString(content); err != nil {
		_ = tmpFile.Close()
		cleanup()
		return "", nil, fmt.Errorf("writing temp file: %w", err)
	}
	if err := tmpFile.Close(); err != nil {
		cleanup()
		return "", nil, fmt.Errorf("closing temp file: %w", err)
	}
	return path, cleanup, nil
}

// StagePath reserves a unique empty file next to final, so that a later
// rename stays on one filesystem. The name keeps final's extension.
func StagePath(final string) (string, error) {
	dir, base := filepath.Split(final)
	if dir == "" {
		dir = "."
	}
	ext := filepath.Ext(base)
	if ext == "" {
		return "", ErrExtensionEmpty
	}
	f, err := os.CreateTemp(dir, "."+strings.TrimSuffix(base, ext)+".*.tmp"+ext)
	if err != nil {
		return "", fmt.Errorf("creating staging file: %w", err)
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(f.Name())
		return "", fmt.Errorf("closing staging file: %w", err)
	}
	return f.Name(), nil
}

// Publish moves staged to final, replacing final. It falls back to a copy
// when rename fails across devices.
func Publish(staged, final string) error {
	if err := os.Rename(staged, final); err == nil {
		return nil
	}
	if err := CopyFile(staged, final); err != nil {
		return fmt.Errorf("publishing %s: %w", final, err)
	}
	_ = os.Remove(staged)
	return nil
}

// CopyFile copies src to dst, creating or truncating dst.
func CopyFile(src, dst string) (err error) {
	in, err := os.Open(src) // #nosec G304 -- caller controlled path
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644) // #nosec G304 -- caller controlled path
	if err != nil {
		return err
	}
	defer func() {
		if cerr := out.Close(); err == nil {
			err = cerr
		}
	}()

	_, err = io.Copy(out, in)
	return err
}

// ValidateExtension checks that the extension is safe for use in temp file
// names.
func ValidateExtension(extension string) error {
	if extension == "" {
		return ErrExtensionEmpty
	}
	if strings.ContainsAny(extension, "/\\\x00") {
		return ErrExtensionPathTraversal
	}
	return nil
}

// FileExists returns true if the path exists and is a regular file.
func FileExists(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return info.Mode().IsRegular()
}
