package apod

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"apod/internal/config"
	"apod/internal/logging"
	"apod/internal/services"
)

const (
	defaultTimeout = 30 * time.Second
	// maxImageBytes bounds a single download.
	maxImageBytes = 128 << 20
	// maxErrorBody bounds how much of a failed response is read for diagnostics.
	maxErrorBody   = 4 << 10
	maxRandomCount = 100
)

// HTTPDoer describes the HTTP client used by the APOD client.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Item is an APOD entry together with the downloaded image bytes.
type Item struct {
	Info      Info
	SourceURL string
	Data      []byte
}

// Client fetches APOD metadata and images.
type Client struct {
	apiKey     string
	baseURL    string
	thumbnails bool
	timeout    time.Duration
	httpClient HTTPDoer
	logger     *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client HTTPDoer) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithLogger attaches a logger to the client.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		c.logger = logging.NewComponentLogger(logger, "apod")
	}
}

// WithTimeout sets the per-request timeout. Zero disables it.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		c.timeout = timeout
	}
}

// WithThumbnails controls whether video entries request a thumbnail URL.
func WithThumbnails(enabled bool) Option {
	return func(c *Client) {
		c.thumbnails = enabled
	}
}

// New creates an APOD client.
func New(apiKey, baseURL string, opts ...Option) (*Client, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, services.Wrap(services.ErrConfiguration, "apod", "new client", "api key required", nil)
	}
	baseURL = strings.TrimSpace(baseURL)
	if baseURL == "" {
		return nil, services.Wrap(services.ErrConfiguration, "apod", "new client", "base url required", nil)
	}
	client := &Client{
		apiKey:     apiKey,
		baseURL:    strings.TrimRight(baseURL, "/"),
		thumbnails: true,
		timeout:    defaultTimeout,
		httpClient: http.DefaultClient,
		logger:     logging.NewComponentLogger(nil, "apod"),
	}
	for _, opt := range opts {
		opt(client)
	}
	return client, nil
}

// NewFromConfig builds a client from the [apod] configuration section.
func NewFromConfig(cfg *config.Config, logger *slog.Logger, opts ...Option) (*Client, error) {
	if cfg == nil {
		return nil, services.Wrap(services.ErrConfiguration, "apod", "new client", "config required", nil)
	}
	base := []Option{
		WithLogger(logger),
		WithTimeout(cfg.RequestTimeout()),
		WithThumbnails(cfg.APOD.Thumbnails),
	}
	return New(cfg.APOD.APIKey, cfg.APOD.BaseURL, append(base, opts...)...)
}

// Info returns the entry published on date.
func (c *Client) Info(ctx context.Context, date time.Time) (Info, error) {
	params := url.Values{}
	params.Set("date", FormatDate(date))

	var info Info
	if err := c.getJSON(ctx, "info", params, &info); err != nil {
		return Info{}, err
	}
	if strings.TrimSpace(info.Date) == "" {
		info.Date = FormatDate(date)
	}
	return info, nil
}

// Range returns every entry published between start and end inclusive.
func (c *Client) Range(ctx context.Context, start, end time.Time) ([]Info, error) {
	if end.Before(start) {
		return nil, services.Wrap(services.ErrValidation, "apod", "range",
			fmt.Sprintf("end %s is before start %s", FormatDate(end), FormatDate(start)), nil)
	}
	params := url.Values{}
	params.Set("start_date", FormatDate(start))
	params.Set("end_date", FormatDate(end))

	var infos []Info
	if err := c.getJSON(ctx, "range", params, &infos); err != nil {
		return nil, err
	}
	return infos, nil
}

// Random returns count randomly chosen entries.
func (c *Client) Random(ctx context.Context, count int) ([]Info, error) {
	if count <= 0 || count > maxRandomCount {
		return nil, services.Wrap(services.ErrValidation, "apod", "random",
			fmt.Sprintf("count must be between 1 and %d, got %d", maxRandomCount, count), nil)
	}
	params := url.Values{}
	params.Set("count", strconv.Itoa(count))

	var infos []Info
	if err := c.getJSON(ctx, "random", params, &infos); err != nil {
		return nil, err
	}
	return infos, nil
}

// Download retrieves the raw bytes at rawURL.
func (c *Client) Download(ctx context.Context, rawURL string) ([]byte, error) {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, services.Wrap(services.ErrFetch, "apod", "download", "build request", err)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	latency := time.Since(start)
	if err != nil {
		return nil, services.Wrap(services.ErrFetch, "apod", "download", fmt.Sprintf("get %s (latency=%v)", rawURL, latency), err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusMultipleChoices {
		return nil, services.Wrap(services.ErrFetch, "apod", "download",
			fmt.Sprintf("get %s returned %d", rawURL, resp.StatusCode), nil)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxImageBytes+1))
	if err != nil {
		return nil, services.Wrap(services.ErrFetch, "apod", "download", "read body", err)
	}
	if len(data) > maxImageBytes {
		return nil, services.Wrap(services.ErrFetch, "apod", "download",
			fmt.Sprintf("image exceeds %d bytes", maxImageBytes), nil)
	}
	if len(data) == 0 {
		return nil, services.Wrap(services.ErrFetch, "apod", "download", "empty response body", nil)
	}

	c.logger.Debug("image downloaded",
		logging.String("url", rawURL),
		logging.Int("bytes", len(data)),
		logging.Duration("latency", latency),
	)
	return data, nil
}

// Fetch retrieves the entry for date and downloads its image.
func (c *Client) Fetch(ctx context.Context, date time.Time) (*Item, error) {
	info, err := c.Info(ctx, date)
	if err != nil {
		return nil, err
	}
	return c.FetchInfo(ctx, info)
}

// FetchInfo downloads the image for an already retrieved entry.
func (c *Client) FetchInfo(ctx context.Context, info Info) (*Item, error) {
	imageURL, err := info.ImageURL()
	if err != nil {
		return nil, services.Wrap(services.ErrFetch, "apod", "fetch", info.Date, err)
	}
	data, err := c.Download(ctx, imageURL)
	if err != nil {
		return nil, err
	}
	return &Item{Info: info, SourceURL: imageURL, Data: data}, nil
}

func (c *Client) getJSON(ctx context.Context, operation string, params url.Values, dst any) error {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	endpoint, err := url.Parse(c.baseURL)
	if err != nil {
		return services.Wrap(services.ErrConfiguration, "apod", operation, "parse base url", err)
	}
	params.Set("api_key", c.apiKey)
	if c.thumbnails {
		params.Set("thumbs", "true")
	}
	endpoint.RawQuery = params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint.String(), nil)
	if err != nil {
		return services.Wrap(services.ErrFetch, "apod", operation, "build request", err)
	}
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	latency := time.Since(start)
	if err != nil {
		return services.Wrap(services.ErrFetch, "apod", operation, fmt.Sprintf("execute request (latency=%v)", latency), err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return services.Wrap(services.ErrFetch, "apod", operation, describeFailure(resp), nil)
	}
	if err := json.NewDecoder(resp.Body).Decode(dst); err != nil {
		return services.Wrap(services.ErrFetch, "apod", operation, "decode response", err)
	}

	c.logger.Debug("apod api request completed",
		logging.String(logging.FieldEventType, "apod_request"),
		logging.String("operation", operation),
		logging.Duration("latency", latency),
	)
	return nil
}

func (c *Client) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, c.timeout)
}

// apiError covers both error shapes the API returns: a flat {code,msg} body
// and the gateway's {error:{code,message}} envelope.
type apiError struct {
	Code  int    `json:"code"`
	Msg   string `json:"msg"`
	Error *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func describeFailure(resp *http.Response) string {
	status := fmt.Sprintf("api returned %d", resp.StatusCode)
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	if err != nil || len(body) == 0 {
		return status
	}
	var payload apiError
	if err := json.Unmarshal(body, &payload); err != nil {
		return status
	}
	switch {
	case strings.TrimSpace(payload.Msg) != "":
		return status + ": " + strings.TrimSpace(payload.Msg)
	case payload.Error != nil && strings.TrimSpace(payload.Error.Message) != "":
		return status + ": " + strings.TrimSpace(payload.Error.Message)
	default:
		return status
	}
}
