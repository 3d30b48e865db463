package fileutil

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// WriteFileAtomic stages data in a hidden sibling of path and renames it into
// place once it is synced, so a crash never leaves a truncated image behind.
// Missing parent directories are created.
func WriteFileAtomic(path string, data []byte, mode os.FileMode) (err error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("atomic write %s: %w", path, err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.part")
	if err != nil {
		return fmt.Errorf("atomic write %s: %w", path, err)
	}
	staged := tmp.Name()
	defer func() {
		if err != nil {
			_ = tmp.Close()
			_ = os.Remove(staged)
		}
	}()

	steps := []struct {
		name string
		run  func() error
	}{
		{"write", func() error { _, err := tmp.Write(data); return err }},
		{"sync", tmp.Sync},
		{"chmod", func() error { return tmp.Chmod(mode) }},
		{"close", tmp.Close},
		{"rename", func() error { return os.Rename(staged, path) }},
	}
	for _, step := range steps {
		if err := step.run(); err != nil {
			return fmt.Errorf("atomic write %s: %s: %w", path, step.name, err)
		}
	}
	return nil
}

// WriteFileExclusive writes data to path only if nothing exists there yet.
// The name is claimed with O_EXCL before the content is written atomically,
// so of two concurrent writers exactly one succeeds; the other gets an error
// matching fs.ErrExist.
func WriteFileExclusive(path string, data []byte, mode os.FileMode) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("exclusive write %s: %w", path, err)
	}
	claim, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, mode)
	if err != nil {
		return fmt.Errorf("exclusive write %s: %w", path, err)
	}
	if err := claim.Close(); err != nil {
		_ = os.Remove(path)
		return fmt.Errorf("exclusive write %s: %w", path, err)
	}
	if err := WriteFileAtomic(path, data, mode); err != nil {
		_ = os.Remove(path)
		return err
	}
	return nil
}

// HashFile returns the lowercase hex SHA-256 digest of the file at path.
func HashFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", fmt.Errorf("hash %s: %w", path, err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
