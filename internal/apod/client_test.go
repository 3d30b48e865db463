package apod

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"apod/internal/config"
	"apod/internal/services"
)

func newTestClient(t *testing.T, server *httptest.Server) *Client {
	t.Helper()
	client, err := New("TEST_KEY", server.URL+"/planetary/apod/", WithHTTPClient(server.Client()))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return client
}

func TestClientInfoSendsQuery(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/planetary/apod" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		q := r.URL.Query()
		if q.Get("api_key") != "TEST_KEY" || q.Get("date") != "2024-01-02" || q.Get("thumbs") != "true" {
			t.Errorf("unexpected query %s", r.URL.RawQuery)
		}
		fmt.Fprint(w, `{"date":"2024-01-02","title":"Orion Nebula","explanation":"Gas.","media_type":"image","url":"https://img/orion.jpg","hdurl":"https://img/orion_hd.jpg"}`)
	}))
	defer server.Close()

	client := newTestClient(t, server)
	info, err := client.Info(context.Background(), time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("Info: %v", err)
	}
	if info.Title != "Orion Nebula" || info.MediaType != MediaImage || info.HDURL != "https://img/orion_hd.jpg" {
		t.Fatalf("unexpected info %+v", info)
	}
}

func TestClientInfoErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		fmt.Fprint(w, `{"code":400,"msg":"Date must be between Jun 16, 1995 and today."}`)
	}))
	defer server.Close()

	client := newTestClient(t, server)
	_, err := client.Info(context.Background(), time.Now())
	if !errors.Is(err, services.ErrFetch) {
		t.Fatalf("expected ErrFetch, got %v", err)
	}
	if !strings.Contains(err.Error(), "400") || !strings.Contains(err.Error(), "Date must be between") {
		t.Fatalf("expected status and api message in error, got %q", err.Error())
	}
}

func TestClientRangeAndRandom(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		switch {
		case q.Get("count") == "2":
			fmt.Fprint(w, `[{"date":"2001-01-01","media_type":"image"},{"date":"2002-02-02","media_type":"video"}]`)
		case q.Get("start_date") == "2024-01-01" && q.Get("end_date") == "2024-01-03":
			fmt.Fprint(w, `[{"date":"2024-01-01"},{"date":"2024-01-02"},{"date":"2024-01-03"}]`)
		default:
			http.Error(w, "bad query", http.StatusBadRequest)
		}
	}))
	defer server.Close()

	client := newTestClient(t, server)
	ctx := context.Background()
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	infos, err := client.Range(ctx, start, start.AddDate(0, 0, 2))
	if err != nil {
		t.Fatalf("Range: %v", err)
	}
	if len(infos) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(infos))
	}

	random, err := client.Random(ctx, 2)
	if err != nil {
		t.Fatalf("Random: %v", err)
	}
	if len(random) != 2 || random[1].MediaType != MediaVideo {
		t.Fatalf("unexpected random entries %+v", random)
	}

	if _, err := client.Range(ctx, start, start.AddDate(0, 0, -1)); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error for reversed range, got %v", err)
	}
	if _, err := client.Random(ctx, 0); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error for zero count, got %v", err)
	}
}

func TestClientFetchDownloadsBestImage(t *testing.T) {
	var server *httptest.Server
	server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/planetary/apod":
			fmt.Fprintf(w, `{"date":"2024-01-02","title":"Orion","media_type":"image","url":"%[1]s/img/small.jpg","hdurl":"%[1]s/img/hd.jpg"}`, server.URL)
		case "/img/hd.jpg":
			fmt.Fprint(w, "hd-bytes")
		default:
			http.NotFound(w, r)
		}
	}))
	defer server.Close()

	client := newTestClient(t, server)
	item, err := client.Fetch(context.Background(), time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if string(item.Data) != "hd-bytes" {
		t.Fatalf("unexpected data %q", item.Data)
	}
	if item.SourceURL != server.URL+"/img/hd.jpg" {
		t.Fatalf("unexpected source url %q", item.SourceURL)
	}
}

func TestClientFetchInfoWithoutImage(t *testing.T) {
	client, err := New("KEY", "https://example.invalid")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	_, err = client.FetchInfo(context.Background(), Info{Date: "2024-01-02", MediaType: MediaVideo, URL: "https://youtube"})
	if !errors.Is(err, services.ErrFetch) || !errors.Is(err, ErrNoImage) {
		t.Fatalf("expected fetch error wrapping ErrNoImage, got %v", err)
	}
}

func TestClientDownloadErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	defer server.Close()

	client := newTestClient(t, server)
	if _, err := client.Download(context.Background(), server.URL+"/missing.jpg"); !errors.Is(err, services.ErrFetch) {
		t.Fatalf("expected ErrFetch, got %v", err)
	}
}

func TestNewFromConfigRequiresKey(t *testing.T) {
	cfg := config.Default()
	cfg.APOD.APIKey = ""
	if _, err := NewFromConfig(&cfg, nil); !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}
	cfg.APOD.APIKey = "KEY"
	if _, err := NewFromConfig(&cfg, nil); err != nil {
		t.Fatalf("NewFromConfig: %v", err)
	}
}
