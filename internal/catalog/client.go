// Package catalog fetches card data from the YGOPRODeck card database.
package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const (
	// DefaultBaseURL is the cardinfo endpoint of the YGOPRODeck v7 API.
	DefaultBaseURL = "https://db.ygoprodeck.com/api/v7/cardinfo.php"

	searchLimit   = 30
	metadataChunk = 20
)

// Config holds catalog client settings.
type Config struct {
	BaseURL string
	// RequestsPerSecond stays below the API's published limit of 20.
	RequestsPerSecond float64
	Timeout           time.Duration
	MaxRetries        int
	InitialBackoff    time.Duration
	MaxBackoff        time.Duration
	UserAgent         string
}

// DefaultConfig returns the production client settings.
func DefaultConfig() Config {
	return Config{
		BaseURL:           DefaultBaseURL,
		RequestsPerSecond: 15,
		Timeout:           30 * time.Second,
		MaxRetries:        3,
		InitialBackoff:    time.Second,
		MaxBackoff:        16 * time.Second,
		UserAgent:         "SolemnStats/1.0",
	}
}

// Client is a rate limited YGOPRODeck client.
type Client struct {
	cfg         Config
	httpClient  *http.Client
	rateLimiter *rate.Limiter
	logger      *zap.Logger
}

// NewClient creates a catalog client. Zero config fields take their defaults.
func NewClient(cfg Config, logger *zap.Logger) *Client {
	def := DefaultConfig()
	if cfg.BaseURL == "" {
		cfg.BaseURL = def.BaseURL
	}
	if cfg.RequestsPerSecond <= 0 {
		cfg.RequestsPerSecond = def.RequestsPerSecond
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = def.Timeout
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}
	if cfg.InitialBackoff <= 0 {
		cfg.InitialBackoff = def.InitialBackoff
	}
	if cfg.MaxBackoff <= 0 {
		cfg.MaxBackoff = def.MaxBackoff
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = def.UserAgent
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Client{
		cfg:         cfg,
		httpClient:  &http.Client{Timeout: cfg.Timeout},
		rateLimiter: rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), 1),
		logger:      logger.Named("catalog"),
	}
}

// Search returns up to 30 cards whose name contains query.
func (c *Client) Search(ctx context.Context, query string) ([]Card, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return []Card{}, nil
	}

	params := url.Values{}
	params.Set("fname", query)
	params.Set("num", strconv.Itoa(searchLimit))
	params.Set("offset", "0")

	cards, err := c.cardInfo(ctx, params)
	if errors.Is(err, ErrNoResults) {
		return []Card{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to search cards for %q: %w", query, err)
	}
	return cards, nil
}

// Metadata fetches exact-name metadata for names in chunks of 20, keyed by
// lower-cased card name. Rejected chunks are skipped. The returned map holds
// whatever was fetched; the error reports failed chunks, and once the
// catalog is unavailable the remaining chunks are not requested.
func (c *Client) Metadata(ctx context.Context, names []string) (map[string]Metadata, error) {
	result := make(map[string]Metadata)
	unique := dedupe(names)
	chunks := (len(unique) + metadataChunk - 1) / metadataChunk
	var errs []error

	for start := 0; start < len(unique); start += metadataChunk {
		end := min(start+metadataChunk, len(unique))
		chunk := unique[start:end]

		params := url.Values{}
		params.Set("name", strings.Join(chunk, "|"))

		cards, err := c.cardInfo(ctx, params)
		if err != nil {
			if ctx.Err() != nil {
				return result, ctx.Err()
			}
			if errors.Is(err, ErrNoResults) {
				continue
			}
			c.logger.Warn("metadata chunk failed",
				zap.Int("chunk_start", start),
				zap.Int("chunk_size", len(chunk)),
				zap.Error(err),
			)
			errs = append(errs, err)
			if errors.Is(err, ErrUnavailable) {
				break
			}
			continue
		}
		for _, card := range cards {
			result[strings.ToLower(card.Name)] = card.Metadata()
		}
	}
	if len(errs) > 0 {
		return result, fmt.Errorf("%d of %d metadata chunks failed: %w", len(errs), chunks, errors.Join(errs...))
	}
	return result, nil
}

// BestMatch finds the catalog card closest to name. It returns nil when the
// API has no candidate.
func (c *Client) BestMatch(ctx context.Context, name string) (*Card, error) {
	cards, err := c.Search(ctx, name)
	if err != nil {
		return nil, err
	}
	if len(cards) == 0 {
		return nil, nil
	}

	names := make([]string, len(cards))
	for i, card := range cards {
		names[i] = card.Name
	}
	matches := Rank(name, names, DefaultRankOptions())
	if len(matches) == 0 {
		return &cards[0], nil
	}
	return &cards[matches[0].Index], nil
}

func (c *Client) cardInfo(ctx context.Context, params url.Values) ([]Card, error) {
	var resp cardInfoResponse
	if err := c.doRequest(ctx, c.cfg.BaseURL+"?"+params.Encode(), &resp); err != nil {
		return nil, err
	}
	cards := make([]Card, len(resp.Data))
	for i, a := range resp.Data {
		cards[i] = a.toCard()
	}
	return cards, nil
}

// doRequest performs a GET with rate limiting, retrying network errors,
// 429 and 5xx responses with exponential backoff.
func (c *Client) doRequest(ctx context.Context, reqURL string, result any) error {
	var lastErr error
	backoff := c.cfg.InitialBackoff

	for attempt := 0; attempt <= c.cfg.MaxRetries; attempt++ {
		if attempt > 0 {
			if err := sleep(ctx, backoff); err != nil {
				return err
			}
			backoff = min(backoff*2, c.cfg.MaxBackoff)
		}

		if err := c.rateLimiter.Wait(ctx); err != nil {
			return fmt.Errorf("rate limiter error: %w", err)
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
		if err != nil {
			return fmt.Errorf("failed to create request: %w", err)
		}
		req.Header.Set("User-Agent", c.cfg.UserAgent)
		req.Header.Set("Accept", "application/json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			lastErr = fmt.Errorf("HTTP request failed: %w", err)
			c.logger.Debug("request failed, retrying", zap.Int("attempt", attempt), zap.Error(err))
			continue
		}

		retry, wait, err := c.handleResponse(resp, result)
		if !retry {
			return err
		}
		lastErr = err
		if wait > backoff {
			backoff = min(wait, c.cfg.MaxBackoff)
		}
	}

	return fmt.Errorf("%w: max retries exceeded: %w", ErrUnavailable, lastErr)
}

// handleResponse decodes resp into result. It reports whether the request
// should be retried and any server-requested wait.
func (c *Client) handleResponse(resp *http.Response, result any) (bool, time.Duration, error) {
	defer func() { _ = resp.Body.Close() }()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return true, 0, fmt.Errorf("failed to read response body: %w", err)
	}

	switch {
	case resp.StatusCode == http.StatusOK:
		if err := json.Unmarshal(body, result); err != nil {
			return false, 0, fmt.Errorf("failed to parse JSON response: %w", err)
		}
		return false, 0, nil

	case resp.StatusCode == http.StatusTooManyRequests:
		var wait time.Duration
		if secs, err := strconv.Atoi(resp.Header.Get("Retry-After")); err == nil {
			wait = time.Duration(secs) * time.Second
		}
		return true, wait, fmt.Errorf("rate limited (HTTP 429)")

	case resp.StatusCode >= 500:
		return true, 0, fmt.Errorf("server error (HTTP %d)", resp.StatusCode)
	}

	apiErr := &APIError{Status: resp.StatusCode}
	if err := json.Unmarshal(body, apiErr); err == nil && apiErr.Message != "" {
		if resp.StatusCode == http.StatusBadRequest && strings.Contains(strings.ToLower(apiErr.Message), "no card matching") {
			return false, 0, ErrNoResults
		}
		return false, 0, apiErr
	}
	return false, 0, fmt.Errorf("API request failed with status %d: %s", resp.StatusCode, string(body))
}

func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func dedupe(names []string) []string {
	seen := make(map[string]struct{}, len(names))
	out := make([]string, 0, len(names))
	for _, n := range names {
		n = strings.TrimSpace(n)
		k := strings.ToLower(n)
		if n == "" {
			continue
		}
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, n)
	}
	return out
}
