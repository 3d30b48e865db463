package testsupport

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"
)

// ImageBytes returns deterministic fake image content. Different seeds give
// different bytes.
func ImageBytes(seed string, size int) []byte {
	if size <= 0 {
		size = 1
	}
	prefix := []byte(fmt.Sprintf("\xff\xd8\xff fake jpeg %s ", seed))
	data := make([]byte, 0, len(prefix)+size)
	data = append(data, prefix...)
	for i := 0; i < size; i++ {
		data = append(data, byte(i%251))
	}
	return data
}

// WriteFile writes data to path, creating parent directories.
func WriteFile(t testing.TB, path string, data []byte) {
	t.Helper()

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", path, err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

// CountFiles returns the number of regular files directly inside dir,
// ignoring the index database and its sidecar files.
func CountFiles(t testing.TB, dir string) int {
	t.Helper()

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("read dir %s: %v", dir, err)
	}
	count := 0
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		switch filepath.Ext(entry.Name()) {
		case ".db", ".db-wal", ".db-shm":
			continue
		}
		count++
	}
	return count
}
