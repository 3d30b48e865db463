package testsupport

import (
	"context"
	"errors"
	"sync"
	"time"

	"apod/internal/apod"
	"apod/internal/services"
)

// StubFetcher serves canned APOD items keyed by date and records every call.
type StubFetcher struct {
	mu    sync.Mutex
	items map[string]*apod.Item
	errs  map[string]error
	calls []string
}

// NewStubFetcher returns an empty stub.
func NewStubFetcher() *StubFetcher {
	return &StubFetcher{
		items: make(map[string]*apod.Item),
		errs:  make(map[string]error),
	}
}

// Add registers an image entry for date.
func (f *StubFetcher) Add(date, title, sourceURL string, data []byte) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.items[date] = &apod.Item{
		Info: apod.Info{
			Date:        date,
			Title:       title,
			Explanation: "Explanation of " + title,
			MediaType:   apod.MediaImage,
			URL:         sourceURL,
		},
		SourceURL: sourceURL,
		Data:      data,
	}
}

// Fail makes fetches for date return err.
func (f *StubFetcher) Fail(date string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.errs[date] = err
}

// Fetch implements imagecache.Fetcher.
func (f *StubFetcher) Fetch(_ context.Context, date time.Time) (*apod.Item, error) {
	key := apod.FormatDate(date)
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, key)
	if err, ok := f.errs[key]; ok {
		return nil, err
	}
	item, ok := f.items[key]
	if !ok {
		return nil, services.Wrap(services.ErrFetch, "stub", "fetch", key, errors.New("no entry"))
	}
	copyItem := *item
	return &copyItem, nil
}

// Calls returns the dates fetched so far.
func (f *StubFetcher) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}
