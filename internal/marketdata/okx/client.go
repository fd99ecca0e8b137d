// Package okx fetches OHLC candles from the OKX public market-data API.
package okx

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/tidwall/gjson"

	"okx-analysis/internal/metrics"
	"okx-analysis/internal/model"
)

const (
	DefaultBaseURL = "https://app.okx.com"
	candlesPath    = "/api/v5/market/candles"

	defaultErrMsg = "failed to fetch candles"
)

// APIError is a non-success answer from the market-data endpoint, either an
// HTTP status outside 2xx or a JSON envelope whose code is not "0".
type APIError struct {
	Status int
	Code   string
	Msg    string
}

func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("okx: code %s: %s", e.Code, e.Msg)
	}
	return fmt.Sprintf("okx: http %d: %s", e.Status, e.Msg)
}

// Config holds client settings.
type Config struct {
	BaseURL      string
	Timeout      time.Duration
	MaxFailures  int
	ResetTimeout time.Duration
}

// Client implements model.CandleSource against the OKX REST API.
type Client struct {
	baseURL string
	http    *http.Client
	breaker *Breaker
	metrics *metrics.Metrics
	health  *metrics.HealthStatus
}

var _ model.CandleSource = (*Client)(nil)

// NewClient creates a client. m and health may be nil.
func NewClient(cfg Config, m *metrics.Metrics, health *metrics.HealthStatus) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.MaxFailures <= 0 {
		cfg.MaxFailures = 5
	}
	if cfg.ResetTimeout <= 0 {
		cfg.ResetTimeout = 30 * time.Second
	}

	c := &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		http:    &http.Client{Timeout: cfg.Timeout},
		breaker: NewBreaker(cfg.MaxFailures, cfg.ResetTimeout),
		metrics: m,
		health:  health,
	}
	if m != nil {
		c.breaker.OnStateChange = func(from, to BreakerState) {
			m.BreakerState.Set(float64(to))
			if to == StateOpen {
				m.BreakerTrips.Inc()
			}
		}
	}
	return c
}

// Breaker exposes the upstream circuit breaker.
func (c *Client) Breaker() *Breaker { return c.breaker }

// FetchCandles returns up to limit candles, oldest first.
func (c *Client) FetchCandles(ctx context.Context, instID string, bar model.Bar, limit int) ([]model.Candle, error) {
	if limit < 1 || limit > model.MaxCandleLimit {
		return nil, fmt.Errorf("okx: limit %d outside 1..%d", limit, model.MaxCandleLimit)
	}

	start := time.Now()
	var candles []model.Candle
	var rejected error
	err := c.breaker.Execute(func() error {
		var err error
		candles, err = c.fetch(ctx, instID, bar, limit)
		switch {
		case err == nil:
			return nil
		case ctx.Err() != nil:
			return Neutral(err)
		case !upstreamFault(err):
			// upstream answered, the request itself was bad
			rejected = err
			return nil
		}
		return err
	})
	if err == nil && rejected != nil {
		err = rejected
	}

	if c.metrics != nil {
		c.metrics.UpstreamFetchDur.Observe(time.Since(start).Seconds())
		if err != nil {
			c.metrics.UpstreamErrors.WithLabelValues(errReason(err)).Inc()
		} else {
			c.metrics.CandlesFetched.Add(float64(len(candles)))
		}
	}
	if c.health != nil {
		switch {
		case err == nil || rejected != nil:
			c.health.RecordFetch(true)
		case errors.Is(err, ErrCircuitOpen), ctx.Err() != nil:
		default:
			c.health.RecordFetch(false)
		}
	}
	if err != nil {
		return nil, err
	}
	return candles, nil
}

func (c *Client) fetch(ctx context.Context, instID string, bar model.Bar, limit int) ([]model.Candle, error) {
	q := url.Values{}
	q.Set("instId", instID)
	q.Set("bar", string(bar))
	q.Set("limit", strconv.Itoa(limit))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+candlesPath+"?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("okx: build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("okx: request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return nil, fmt.Errorf("okx: read body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg := gjson.GetBytes(body, "msg").String()
		if msg == "" {
			msg = http.StatusText(resp.StatusCode)
		}
		return nil, &APIError{Status: resp.StatusCode, Msg: msg}
	}

	if !gjson.ValidBytes(body) {
		return nil, fmt.Errorf("okx: malformed response body")
	}
	return parseCandles(body)
}

// parseCandles decodes a candles envelope. Rows arrive newest first as
// [ts, o, h, l, c, vol, ...] string arrays and are returned oldest first.
func parseCandles(body []byte) ([]model.Candle, error) {
	env := gjson.ParseBytes(body)
	if code := env.Get("code").String(); code != "0" {
		msg := env.Get("msg").String()
		if msg == "" {
			msg = defaultErrMsg
		}
		return nil, &APIError{Status: http.StatusOK, Code: code, Msg: msg}
	}

	rows := env.Get("data").Array()
	candles := make([]model.Candle, len(rows))
	for i, row := range rows {
		f := row.Array()
		if len(f) < 6 {
			return nil, fmt.Errorf("okx: row %d has %d fields, want at least 6", i, len(f))
		}
		ts, err := strconv.ParseInt(f[0].String(), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("okx: row %d ts: %w", i, err)
		}
		var vals [5]float64
		for j := range vals {
			vals[j], err = strconv.ParseFloat(f[j+1].String(), 64)
			if err != nil {
				return nil, fmt.Errorf("okx: row %d field %d: %w", i, j+1, err)
			}
		}
		candles[len(rows)-1-i] = model.Candle{
			TS:     ts,
			Open:   vals[0],
			High:   vals[1],
			Low:    vals[2],
			Close:  vals[3],
			Volume: vals[4],
		}
	}
	return candles, nil
}

// upstreamFaultCodes are the OKX codes that report trouble on the exchange
// side (service unavailable, timeout, rate limit, busy, system error).
// Every other code rejects the request itself.
var upstreamFaultCodes = map[string]bool{
	"50001": true,
	"50004": true,
	"50011": true,
	"50013": true,
	"50026": true,
}

// upstreamFault reports whether err counts against the circuit breaker.
func upstreamFault(err error) bool {
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		return true
	}
	if apiErr.Code != "" {
		return upstreamFaultCodes[apiErr.Code]
	}
	return apiErr.Status >= 500 || apiErr.Status == http.StatusTooManyRequests
}

func errReason(err error) string {
	switch e := err.(type) {
	case *APIError:
		if e.Code != "" {
			return "api"
		}
		return "http"
	}
	switch {
	case err == ErrCircuitOpen:
		return "breaker"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "canceled"
	}
	return "transport"
}
