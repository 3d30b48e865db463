package main

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"
	"testing"

	"apod/internal/config"
	"apod/internal/testsupport"
)

type fakeEntry struct {
	Date         string `json:"date"`
	Title        string `json:"title"`
	Explanation  string `json:"explanation"`
	MediaType    string `json:"media_type"`
	URL          string `json:"url,omitempty"`
	HDURL        string `json:"hdurl,omitempty"`
	ThumbnailURL string `json:"thumbnail_url,omitempty"`
}

// fakeAPOD mimics the APOD API plus an image host on one test server.
type fakeAPOD struct {
	server *httptest.Server

	mu      sync.Mutex
	entries map[string]fakeEntry
	images  map[string][]byte
}

func newFakeAPOD(t *testing.T) *fakeAPOD {
	t.Helper()
	f := &fakeAPOD{
		entries: make(map[string]fakeEntry),
		images:  make(map[string][]byte),
	}
	f.server = httptest.NewServer(http.HandlerFunc(f.serve))
	t.Cleanup(f.server.Close)
	return f
}

func (f *fakeAPOD) baseURL() string {
	return f.server.URL + "/planetary/apod"
}

// addImage registers an image entry whose bytes are served at /img/<name>.
func (f *fakeAPOD) addImage(date, title, name string, data []byte) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.images[name] = data
	f.entries[date] = fakeEntry{
		Date:        date,
		Title:       title,
		Explanation: "About " + title,
		MediaType:   "image",
		HDURL:       f.server.URL + "/img/" + name,
	}
}

func (f *fakeAPOD) addVideo(date, title string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.entries[date] = fakeEntry{Date: date, Title: title, MediaType: "video", URL: "https://video.example/embed"}
}

func (f *fakeAPOD) serve(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if strings.HasPrefix(r.URL.Path, "/img/") {
		data, ok := f.images[strings.TrimPrefix(r.URL.Path, "/img/")]
		if !ok {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write(data)
		return
	}

	q := r.URL.Query()
	if q.Get("api_key") == "" {
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`{"error":{"code":"API_KEY_MISSING","message":"No api_key was supplied."}}`))
		return
	}
	switch {
	case q.Get("date") != "":
		entry, ok := f.entries[q.Get("date")]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"code":404,"msg":"No data available for date"}`))
			return
		}
		_ = json.NewEncoder(w).Encode(entry)
	case q.Get("start_date") != "":
		start, end := q.Get("start_date"), q.Get("end_date")
		_ = json.NewEncoder(w).Encode(f.sortedEntries(func(date string) bool { return date >= start && date <= end }))
	case q.Get("count") != "":
		n, _ := strconv.Atoi(q.Get("count"))
		all := f.sortedEntries(func(string) bool { return true })
		if n < len(all) {
			all = all[:n]
		}
		_ = json.NewEncoder(w).Encode(all)
	default:
		http.Error(w, "unsupported query", http.StatusBadRequest)
	}
}

func (f *fakeAPOD) sortedEntries(keep func(string) bool) []fakeEntry {
	out := make([]fakeEntry, 0, len(f.entries))
	for date, entry := range f.entries {
		if keep(date) {
			out = append(out, entry)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date < out[j].Date })
	return out
}

type cliTestEnv struct {
	cfg        *config.Config
	api        *fakeAPOD
	configPath string
}

func setupCLITestEnv(t *testing.T) *cliTestEnv {
	t.Helper()

	api := newFakeAPOD(t)
	cfg := testsupport.NewConfig(t, testsupport.WithAPIBaseURL(api.baseURL()))
	base := testsupport.BaseDir(cfg)

	homeDir := filepath.Join(base, "home")
	if err := os.MkdirAll(homeDir, 0o755); err != nil {
		t.Fatalf("mkdir home: %v", err)
	}
	t.Setenv("HOME", homeDir)
	t.Setenv("APOD_API_KEY", "")
	t.Setenv("NASA_API_KEY", "")

	configPath := filepath.Join(base, "apod.toml")
	writeTestConfig(t, configPath, cfg)

	return &cliTestEnv{cfg: cfg, api: api, configPath: configPath}
}

func writeTestConfig(t *testing.T, path string, cfg *config.Config) {
	t.Helper()
	encoded, err := cfg.Encode()
	if err != nil {
		t.Fatalf("encode config: %v", err)
	}
	if err := os.WriteFile(path, []byte(encoded), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
}

func runCLI(t *testing.T, args []string, configPath string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	flags := []string{"--log-level", "error"}
	if configPath != "" {
		flags = append(flags, "--config", configPath)
	}
	cmd.SetArgs(append(flags, args...))
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func requireContains(t *testing.T, output, substr string) {
	t.Helper()
	if !strings.Contains(output, substr) {
		t.Fatalf("expected %q to contain %q", output, substr)
	}
}
