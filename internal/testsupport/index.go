package testsupport

import (
	"context"
	"testing"

	"apod/internal/config"
	"apod/internal/imagecache"
	"apod/internal/logging"
)

// MustOpenIndex opens the cache index described by cfg and registers cleanup.
func MustOpenIndex(t testing.TB, cfg *config.Config) *imagecache.Index {
	t.Helper()

	index, err := imagecache.OpenIndex(context.Background(), cfg.DatabasePath(), logging.NewNop())
	if err != nil {
		t.Fatalf("imagecache.OpenIndex: %v", err)
	}
	t.Cleanup(func() {
		index.Close()
	})
	return index
}

// MustOpenService opens a cache service backed by fetcher and registers cleanup.
func MustOpenService(t testing.TB, cfg *config.Config, fetcher imagecache.Fetcher) *imagecache.Service {
	t.Helper()

	svc, err := imagecache.Open(context.Background(), imagecache.OptionsFromConfig(cfg), fetcher, logging.NewNop())
	if err != nil {
		t.Fatalf("imagecache.Open: %v", err)
	}
	t.Cleanup(func() {
		svc.Close()
	})
	return svc
}
