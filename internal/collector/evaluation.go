package collector

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"StockLens/internal/metrics"
	"StockLens/internal/model"
)

// maxBodyBytes caps how much of an upstream response is read.
var maxBodyBytes int64 = 8 << 20

// EvaluationFetcher implements Fetcher against the stock evaluation service REST API.
type EvaluationFetcher struct {
	BaseURL     string
	AccessToken string
	Client      *http.Client
}

// NewEvaluationFetcher creates a fetcher with a bounded timeout and optional proxy support.
func NewEvaluationFetcher(baseURL, accessToken, proxyURL string, timeout time.Duration) *EvaluationFetcher {
	transport := &http.Transport{}
	if proxyURL != "" {
		if u, err := url.Parse(proxyURL); err == nil {
			transport.Proxy = http.ProxyURL(u)
		}
	}
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &EvaluationFetcher{
		BaseURL:     strings.TrimSuffix(baseURL, "/"),
		AccessToken: accessToken,
		Client: &http.Client{
			Timeout:   timeout,
			Transport: transport,
		},
	}
}

func (f *EvaluationFetcher) Name() string { return "evaluation-service" }

// FetchDirectory calls GET /stocks and expects {"stocks": {"<name>": "<ticker>"}}.
func (f *EvaluationFetcher) FetchDirectory(ctx context.Context) (model.StockDirectory, error) {
	body, err := f.get(ctx, "directory", f.BaseURL+"/stocks")
	if err != nil {
		return nil, err
	}

	var payload struct {
		Stocks json.RawMessage `json:"stocks"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("%w: decode stocks response: %v", model.ErrUpstream, err)
	}
	if len(payload.Stocks) == 0 || payload.Stocks[0] != '{' {
		return nil, fmt.Errorf("%w: invalid stocks response format", model.ErrUpstream)
	}
	var dir model.StockDirectory
	if err := json.Unmarshal(payload.Stocks, &dir); err != nil {
		return nil, fmt.Errorf("%w: invalid stocks response format: %v", model.ErrUpstream, err)
	}
	return dir, nil
}

// FetchPriceHistory calls GET /stocks/{ticker}?minutes=N. The service answers with either
// an array of samples or a single {"stock": {...}} object.
func (f *EvaluationFetcher) FetchPriceHistory(ctx context.Context, ticker string, minutes int) (model.PriceSeries, error) {
	endpoint := fmt.Sprintf("%s/stocks/%s?minutes=%d", f.BaseURL, url.PathEscape(ticker), minutes)
	body, err := f.get(ctx, "price_history", endpoint)
	if err != nil {
		return nil, err
	}
	series, err := decodePriceHistory(body)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", ticker, err)
	}
	return series, nil
}

func (f *EvaluationFetcher) get(ctx context.Context, endpoint, u string) ([]byte, error) {
	body, err := f.do(ctx, u)
	metrics.UpstreamRequestsTotal.WithLabelValues(endpoint, metrics.Outcome(err)).Inc()
	return body, err
}

func (f *EvaluationFetcher) do(ctx context.Context, u string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: create request: %v", model.ErrUpstream, err)
	}
	if f.AccessToken != "" {
		req.Header.Set("Authorization", "Bearer "+f.AccessToken)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := f.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", model.ErrUpstream, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes+1))
	if err != nil {
		return nil, fmt.Errorf("%w: read body: %v", model.ErrUpstream, err)
	}
	if int64(len(body)) > maxBodyBytes {
		return nil, fmt.Errorf("%w: response body exceeds %d bytes", model.ErrUpstream, maxBodyBytes)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: status %d, body: %s", model.ErrUpstream, resp.StatusCode, preview(body))
	}
	return body, nil
}

// rawSample keeps fields loosely typed so that a wrong type is reported per element
// instead of failing the whole decode.
type rawSample struct {
	Price         any `json:"price"`
	LastUpdatedAt any `json:"lastUpdatedAt"`
}

func decodePriceHistory(body []byte) (model.PriceSeries, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return nil, fmt.Errorf("%w: empty response", model.ErrInvalidData)
	}

	var raws []rawSample
	switch trimmed[0] {
	case '[':
		if err := json.Unmarshal(trimmed, &raws); err != nil {
			return nil, fmt.Errorf("%w: decode price array: %v", model.ErrInvalidData, err)
		}
	case '{':
		var wrapper struct {
			Stock *rawSample `json:"stock"`
		}
		if err := json.Unmarshal(trimmed, &wrapper); err != nil || wrapper.Stock == nil {
			return nil, fmt.Errorf("%w: unexpected response format", model.ErrInvalidData)
		}
		raws = []rawSample{*wrapper.Stock}
	default:
		return nil, fmt.Errorf("%w: unexpected response format", model.ErrInvalidData)
	}

	if len(raws) == 0 {
		return nil, fmt.Errorf("%w: no price samples", model.ErrInvalidData)
	}
	series := make(model.PriceSeries, len(raws))
	for i, r := range raws {
		s, err := r.toSample()
		if err != nil {
			return nil, fmt.Errorf("%w: sample %d: %v", model.ErrInvalidData, i, err)
		}
		series[i] = s
	}
	return series, nil
}

func (r rawSample) toSample() (model.PriceSample, error) {
	price, ok := r.Price.(float64)
	if !ok {
		return model.PriceSample{}, fmt.Errorf("price is not a number: %v", r.Price)
	}
	ts, ok := r.LastUpdatedAt.(string)
	if !ok {
		return model.PriceSample{}, fmt.Errorf("lastUpdatedAt is not a string: %v", r.LastUpdatedAt)
	}
	observedAt, err := parseTimestamp(ts)
	if err != nil {
		return model.PriceSample{}, err
	}
	return model.PriceSample{Price: price, ObservedAt: observedAt}, nil
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// parseTimestamp accepts ISO-8601 with or without a zone; zoneless values are UTC.
// A bare integer is read as Unix milliseconds.
func parseTimestamp(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	if ms, err := strconv.ParseInt(s, 10, 64); err == nil {
		return time.UnixMilli(ms).UTC(), nil
	}
	return time.Time{}, fmt.Errorf("unparseable lastUpdatedAt %q", s)
}

func preview(body []byte) string {
	const previewLen = 120
	if len(body) > previewLen {
		return string(body[:previewLen])
	}
	return string(body)
}
