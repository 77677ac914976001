package feed

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"tarediiran-industries.com/transit-cancellations/internal/common"
)

// Endpoint labels used for metrics and logs.
const (
	EndpointRoot = "root"
	EndpointYear = "year"
	EndpointLine = "line"
)

const IndexFile = "index.json"

// Fetcher is the read side of the data source. *Client implements it.
type Fetcher interface {
	FetchRootIndex(ctx context.Context) (RootIndex, error)
	FetchYearIndex(ctx context.Context, year string) (YearIndex, error)
	FetchLineData(ctx context.Context, year, file string) ([]Cancellation, error)
}

type Client struct {
	BaseUrl string
	Client  *http.Client
	Metrics *common.Metrics
	Logger  zerolog.Logger
}

type ClientOption func(*Client)

func WithHTTPClient(httpClient *http.Client) ClientOption {
	return func(client *Client) { client.Client = httpClient }
}

func WithMetrics(metrics *common.Metrics) ClientOption {
	return func(client *Client) { client.Metrics = metrics }
}

func WithLogger(logger zerolog.Logger) ClientOption {
	return func(client *Client) { client.Logger = logger }
}

func NewClient(baseUrl string, options ...ClientOption) *Client {
	client := &Client{
		BaseUrl: strings.TrimRight(baseUrl, "/"),
		Client:  &http.Client{},
		Logger:  zerolog.Nop(),
	}
	for _, option := range options {
		option(client)
	}
	return client
}

func (client *Client) FetchRootIndex(ctx context.Context) (RootIndex, error) {
	var root RootIndex
	body, err := client.get(ctx, EndpointRoot, "/"+IndexFile)
	if err != nil {
		return RootIndex{}, err
	}
	if err := json.Unmarshal(body, &root); err != nil {
		return RootIndex{}, fmt.Errorf("decode %s: %w", "/"+IndexFile, err)
	}
	return root, nil
}

func (client *Client) FetchYearIndex(ctx context.Context, year string) (YearIndex, error) {
	var index YearIndex
	path := "/" + url.PathEscape(year) + "/" + IndexFile
	body, err := client.get(ctx, EndpointYear, path)
	if err != nil {
		return YearIndex{}, err
	}
	if err := json.Unmarshal(body, &index); err != nil {
		return YearIndex{}, fmt.Errorf("decode %s: %w", path, err)
	}
	return index, nil
}

// FetchLineData returns a *MalformedResponseError when the body is valid JSON
// but not an array.
func (client *Client) FetchLineData(ctx context.Context, year, file string) ([]Cancellation, error) {
	path := "/" + url.PathEscape(year) + "/" + url.PathEscape(file)
	body, err := client.get(ctx, EndpointLine, path)
	if err != nil {
		return nil, err
	}

	var raw json.RawMessage
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	if kind := jsonKind(raw); kind != "array" {
		return nil, &MalformedResponseError{Path: path, Kind: kind}
	}

	entries := []Cancellation{}
	if err := json.Unmarshal(raw, &entries); err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return entries, nil
}

func (client *Client) get(ctx context.Context, endpoint, path string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, client.BaseUrl+path, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := client.Client.Do(req)
	if err != nil {
		return nil, client.failure(ctx, endpoint, path, err)
	}
	defer resp.Body.Close()
	client.Metrics.ObserveTTFB(endpoint, time.Since(start))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		client.Metrics.IncFetchError(endpoint)
		return nil, &FetchError{Path: path, StatusCode: resp.StatusCode}
	}

	readStart := time.Now()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, client.failure(ctx, endpoint, path, err)
	}
	client.Metrics.ObserveBody(endpoint, time.Since(readStart), len(body))

	client.Logger.Debug().
		Str("endpoint", endpoint).
		Str("path", path).
		Int("bytes", len(body)).
		Dur("elapsed", time.Since(start)).
		Msg("fetched")

	return body, nil
}

func (client *Client) failure(ctx context.Context, endpoint, path string, err error) error {
	if ctx.Err() != nil {
		client.Logger.Debug().Str("path", path).Msg("request cancelled")
		return cancelled(path, ctx.Err())
	}
	client.Metrics.IncFetchError(endpoint)
	return fmt.Errorf("failed to fetch %s: %w", path, err)
}

func jsonKind(raw json.RawMessage) string {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return "empty"
	}
	switch trimmed[0] {
	case '[':
		return "array"
	case '{':
		return "object"
	case '"':
		return "string"
	case 'n':
		return "null"
	case 't', 'f':
		return "boolean"
	default:
		return "number"
	}
}
