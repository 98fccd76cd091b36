// Package coinoswap is the REST client of the CoinoSwap aggregator admin API.
package coinoswap

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strconv"

	"coinoswap_admin/internal/domain"
	"coinoswap_admin/internal/infra"

	"github.com/google/uuid"
)

// Client handles CoinoSwap REST API communication.
// Safe for concurrent use; fan-out branches share one Client.
type Client struct {
	config     *infra.Config
	baseURL    string
	httpClient *http.Client
	limiter    *infra.RateLimiter
	breaker    *infra.CircuitBreaker
	backoff    infra.Backoff
	maxRetries int
}

// NewClient creates a client for cfg.API.BaseURL with the session cookie installed.
func NewClient(cfg *infra.Config) (*Client, error) {
	base, err := url.Parse(cfg.API.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid API base URL: %w", err)
	}

	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create cookie jar: %w", err)
	}
	if cfg.API.SessionCookie != "" {
		name := cfg.API.CookieName
		if name == "" {
			name = defaultSessionCookieKey
		}
		jar.SetCookies(base, []*http.Cookie{{Name: name, Value: cfg.API.SessionCookie, Path: "/"}})
	}

	return &Client{
		config:  cfg,
		baseURL: cfg.API.BaseURL,
		httpClient: &http.Client{
			Timeout: cfg.RequestTimeout(),
			Jar:     jar,
		},
		limiter:    infra.NewRateLimiter(cfg.API.RateLimit.Burst, cfg.API.RateLimit.PerSecond),
		breaker:    infra.NewCircuitBreaker(infra.CircuitBreakerConfigFrom("coinoswap-api", cfg)),
		backoff:    infra.DefaultBackoff,
		maxRetries: cfg.API.MaxRetries,
	}, nil
}

// BreakerState exposes the circuit breaker state for status output.
func (c *Client) BreakerState() infra.State {
	return c.breaker.GetState()
}

// SearchCoins queries the search endpoint of market.
func (c *Client) SearchCoins(ctx context.Context, market domain.Market, p domain.SearchParams) (*domain.SearchResponse, error) {
	var path string
	q := url.Values{}

	switch market {
	case domain.MarketBuy:
		path = pathBuySearch
		if p.SearchTerm != nil {
			q.Set("searchTerm", *p.SearchTerm)
		}
	case domain.MarketSwap:
		path = pathSwapSearch
		// The swap endpoint expects searchTerm even when empty.
		term := ""
		if p.SearchTerm != nil {
			term = *p.SearchTerm
		}
		q.Set("searchTerm", term)
		if p.Limit <= 0 {
			p.Limit = defaultSwapSearchLimit
		}
	default:
		return nil, fmt.Errorf("unknown market %q", market)
	}

	if p.IsFiat != nil {
		q.Set("isFiat", domain.BoolFlag(*p.IsFiat))
	}
	q.Set("isStandard", domain.BoolFlag(p.IsStandard))
	if p.Page <= 0 {
		p.Page = 1
	}
	q.Set("page", strconv.Itoa(p.Page))
	if p.Limit > 0 {
		q.Set("limit", strconv.Itoa(p.Limit))
	}

	var wire wireSearchResponse
	if err := c.do(ctx, http.MethodGet, path, q, nil, &wire); err != nil {
		return nil, err
	}

	out := &domain.SearchResponse{
		Success:    wire.Success,
		Coins:      make([]domain.Coin, 0, len(wire.Coins)),
		Pagination: wire.Pagination.toDomain(p.Page, p.Limit),
	}
	for _, wc := range wire.Coins {
		out.Coins = append(out.Coins, wc.toDomain())
	}
	return out, nil
}

// MergeCoinsToMapped attaches coins to a standard coin's mapped partners.
func (c *Client) MergeCoinsToMapped(ctx context.Context, req domain.MergeRequest) (*domain.MutationResponse, error) {
	return c.mutate(ctx, http.MethodPost, pathSwapMerge, req)
}

// UpdateStandardCoin applies a partial update (including the approval flag).
func (c *Client) UpdateStandardCoin(ctx context.Context, req domain.CoinUpdate) (*domain.MutationResponse, error) {
	return c.mutate(ctx, http.MethodPost, pathSwapUpdateCoin, req)
}

// CreateOrDeleteStandardCoin manages buy-side standard coins.
func (c *Client) CreateOrDeleteStandardCoin(ctx context.Context, req domain.StandardCoinRequest) (*domain.MutationResponse, error) {
	return c.mutate(ctx, http.MethodPost, pathBuyStandardCoin, req)
}

// UpdateNotifications replaces a mapped partner's pay-in/pay-out notices.
func (c *Client) UpdateNotifications(ctx context.Context, req domain.NotificationUpdate) (*domain.MutationResponse, error) {
	return c.mutate(ctx, http.MethodPost, pathSwapNotifications, req)
}

// ListSettings returns every admin setting.
func (c *Client) ListSettings(ctx context.Context) ([]domain.Setting, error) {
	var wire wireSettingsResponse
	if err := c.do(ctx, http.MethodGet, pathAdminSettings, nil, nil, &wire); err != nil {
		return nil, err
	}
	if wire.Settings != nil {
		return wire.Settings, nil
	}
	return wire.Data, nil
}

// GetSetting returns one admin setting by key.
func (c *Client) GetSetting(ctx context.Context, key string) (*domain.Setting, error) {
	var wire wireSettingResponse
	if err := c.do(ctx, http.MethodGet, pathAdminSettings+"/"+url.PathEscape(key), nil, nil, &wire); err != nil {
		return nil, err
	}
	if wire.Setting != nil {
		return wire.Setting, nil
	}
	if wire.Data != nil {
		return wire.Data, nil
	}
	return nil, &APIError{Status: http.StatusNotFound, Message: fmt.Sprintf("setting %q not found", key)}
}

// UpsertSetting creates or replaces an admin setting.
func (c *Client) UpsertSetting(ctx context.Context, req domain.SettingUpsert) (*domain.MutationResponse, error) {
	return c.mutate(ctx, http.MethodPost, pathAdminSettings, req)
}

// DeleteSetting removes an admin setting.
func (c *Client) DeleteSetting(ctx context.Context, key string) (*domain.MutationResponse, error) {
	return c.mutate(ctx, http.MethodDelete, pathAdminSettings+"/"+url.PathEscape(key), nil)
}

func (c *Client) mutate(ctx context.Context, method, path string, body any) (*domain.MutationResponse, error) {
	var resp domain.MutationResponse
	if err := c.do(ctx, method, path, nil, body, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// do performs a request through the breaker and limiter.
// Only GETs are retried; mutations are never replayed.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out any) error {
	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request body: %w", err)
		}
	}

	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	attempts := 1
	if method == http.MethodGet {
		attempts += c.maxRetries
	}

	var lastErr error
	for attempt := 0; attempt < attempts; attempt++ {
		if attempt > 0 {
			delay := c.backoff.Delay(attempt - 1)
			slog.Info("Retrying API request",
				slog.String("path", path),
				slog.Int("attempt", attempt),
				slog.Duration("delay", delay))
			if err := infra.Sleep(ctx, delay); err != nil {
				return err
			}
		}

		lastErr = c.breaker.Do(func() error {
			return c.once(ctx, method, endpoint, payload, out)
		}, countsAsFailure)
		if lastErr == nil {
			return nil
		}
		if !retryable(lastErr) {
			break
		}
		slog.Warn("API request attempt failed",
			slog.String("path", path),
			slog.Int("attempt", attempt+1),
			slog.Any("error", lastErr))
	}
	return lastErr
}

func (c *Client) once(ctx context.Context, method, endpoint string, payload []byte, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}

	var reader io.Reader
	if payload != nil {
		reader = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", contentTypeJSON)
	req.Header.Set("Accept", contentTypeJSON)
	req.Header.Set("User-Agent", infra.GetUserAgent())
	req.Header.Set(requestIDHeader, uuid.NewString())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return newAPIError(resp.StatusCode, data)
	}

	if len(bytes.TrimSpace(data)) == 0 {
		return nil
	}

	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	if env.Success != nil && !*env.Success {
		msg := env.Message
		if msg == "" {
			msg = "request failed"
		}
		return &APIError{Status: resp.StatusCode, Message: msg}
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
