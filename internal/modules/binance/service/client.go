package service

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"marketdesk/internal/models"
	"marketdesk/pkg/logger"

	"github.com/bytedance/sonic"
	"github.com/gorilla/websocket"
)

const (
	maxAttempts = 5
	backoffMin  = time.Second
	backoffCap  = 30 * time.Second
)

type Config struct {
	BaseURL         string
	WSURL           string
	Timeout         time.Duration
	QuoteAsset      string
	ExcludeSuffixes []string
}

// Client is the only component that talks to the venue. REST calls retry
// with capped exponential backoff and degrade to empty results; the depth
// stream reconnects forever.
type Client struct {
	cfg      Config
	http     *http.Client
	wsDialer *websocket.Dialer

	sleep func(time.Duration) // swapped out in tests
}

func NewClient(cfg Config) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.binance.com"
	}
	if cfg.WSURL == "" {
		cfg.WSURL = "wss://stream.binance.com:9443"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.QuoteAsset == "" {
		cfg.QuoteAsset = "USDT"
	}
	if len(cfg.ExcludeSuffixes) == 0 {
		cfg.ExcludeSuffixes = []string{"UPUSDT", "DOWNUSDT", "BULLUSDT", "BEARUSDT"}
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")

	return &Client{
		cfg:      cfg,
		http:     &http.Client{Timeout: cfg.Timeout},
		wsDialer: &websocket.Dialer{},
		sleep:    time.Sleep,
	}
}

func nextBackoff(d time.Duration) time.Duration {
	d *= 2
	if d > backoffCap {
		return backoffCap
	}
	return d
}

type rateLimitedError struct{ status int }

func (e rateLimitedError) Error() string { return fmt.Sprintf("rate limited: http %d", e.status) }

// getOnce performs a single GET and returns the raw body.
func (c *Client) getOnce(ctx context.Context, path string, q url.Values) ([]byte, error) {
	u := c.cfg.BaseURL + path
	if len(q) > 0 {
		u += "?" + q.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode == http.StatusTooManyRequests {
		// detected separately from generic transient errors, but backed
		// off identically (matches the reference behavior)
		return nil, rateLimitedError{status: resp.StatusCode}
	}
	if resp.StatusCode/100 != 2 {
		return nil, fmt.Errorf("http %d: %s", resp.StatusCode, string(body))
	}
	return body, nil
}

// getWithRetry retries up to maxAttempts with backoff 1s,2s,4s,... capped at
// 30s and returns nil after exhaustion. Errors never reach the caller.
func (c *Client) getWithRetry(ctx context.Context, path string, q url.Values) []byte {
	backoff := backoffMin
	for attempt := 0; attempt < maxAttempts; attempt++ {
		body, err := c.getOnce(ctx, path, q)
		if err == nil {
			return body
		}
		if ctx.Err() != nil {
			return nil
		}
		logger.Warn("venue GET %s failed (attempt %d/%d): %v", path, attempt+1, maxAttempts, err)
		c.sleep(backoff)
		backoff = nextBackoff(backoff)
	}
	return nil
}

// FetchKlines returns normalized OHLCV records, oldest first. Empty on failure.
func (c *Client) FetchKlines(ctx context.Context, symbol, interval string, limit int, startMS, endMS int64) []models.Kline {
	if limit > 1000 {
		limit = 1000
	}
	q := url.Values{}
	q.Set("symbol", strings.ToUpper(symbol))
	q.Set("interval", interval)
	q.Set("limit", strconv.Itoa(limit))
	if startMS > 0 {
		q.Set("startTime", strconv.FormatInt(startMS, 10))
	}
	if endMS > 0 {
		q.Set("endTime", strconv.FormatInt(endMS, 10))
	}

	body := c.getWithRetry(ctx, "/api/v3/klines", q)
	if body == nil {
		return nil
	}
	var rows [][]any
	if err := sonic.Unmarshal(body, &rows); err != nil {
		logger.Warn("klines %s %s: malformed payload: %v", symbol, interval, err)
		return nil
	}
	out := make([]models.Kline, 0, len(rows))
	for _, row := range rows {
		k, ok := normalizeKline(row)
		if !ok {
			continue // skip record, keep the rest of the batch
		}
		out = append(out, k)
	}
	return out
}

// FetchOrderBook returns a single depth snapshot or an empty result.
func (c *Client) FetchOrderBook(ctx context.Context, symbol string, depth int) (models.DepthUpdate, bool) {
	if depth > 5000 {
		depth = 5000
	}
	q := url.Values{}
	q.Set("symbol", strings.ToUpper(symbol))
	q.Set("limit", strconv.Itoa(depth))

	body := c.getWithRetry(ctx, "/api/v3/depth", q)
	if body == nil {
		return models.DepthUpdate{}, false
	}
	var payload struct {
		LastUpdateID int64      `json:"lastUpdateId"`
		Bids         [][]string `json:"bids"`
		Asks         [][]string `json:"asks"`
	}
	if err := sonic.Unmarshal(body, &payload); err != nil {
		logger.Warn("depth %s: malformed payload: %v", symbol, err)
		return models.DepthUpdate{}, false
	}
	return models.DepthUpdate{
		Bids:         parseLevels(payload.Bids, depth),
		Asks:         parseLevels(payload.Asks, depth),
		LastUpdateID: payload.LastUpdateID,
	}, true
}

// FetchPrices returns last prices for the given symbols. Empty map on failure.
func (c *Client) FetchPrices(ctx context.Context, symbols []string) map[string]float64 {
	out := make(map[string]float64, len(symbols))
	if len(symbols) == 0 {
		return out
	}
	q := url.Values{}
	q.Set("symbols", symbolsParam(symbols))

	body := c.getWithRetry(ctx, "/api/v3/ticker/price", q)
	if body == nil {
		return out
	}
	var rows []struct {
		Symbol string `json:"symbol"`
		Price  string `json:"price"`
	}
	if err := sonic.Unmarshal(body, &rows); err != nil {
		logger.Warn("ticker/price: malformed payload: %v", err)
		return out
	}
	for _, r := range rows {
		if r.Symbol == "" {
			continue
		}
		out[r.Symbol] = parseFloat(r.Price)
	}
	return out
}

// symbolsParam builds the venue's JSON-array query value: ["A","B"].
func symbolsParam(symbols []string) string {
	var b strings.Builder
	b.WriteByte('[')
	for i, s := range symbols {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteByte('"')
		b.WriteString(strings.ToUpper(s))
		b.WriteByte('"')
	}
	b.WriteByte(']')
	return b.String()
}

func parseLevels(raw [][]string, max int) []models.BookLevel {
	if len(raw) > max {
		raw = raw[:max]
	}
	out := make([]models.BookLevel, 0, len(raw))
	for _, lv := range raw {
		if len(lv) < 2 {
			continue
		}
		out = append(out, models.BookLevel{Price: parseFloat(lv[0]), Qty: parseFloat(lv[1])})
	}
	return out
}

func parseFloat(s string) float64 {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return v
}

// normalizeKline maps the venue kline array [openTime, o, h, l, c, vol,
// closeTime, ...] onto a typed record.
func normalizeKline(row []any) (models.Kline, bool) {
	if len(row) < 7 {
		return models.Kline{}, false
	}
	openTime, ok := asInt64(row[0])
	if !ok {
		return models.Kline{}, false
	}
	closeTime, _ := asInt64(row[6])
	return models.Kline{
		OpenTime:  openTime,
		Open:      asFloat(row[1]),
		High:      asFloat(row[2]),
		Low:       asFloat(row[3]),
		Close:     asFloat(row[4]),
		Volume:    asFloat(row[5]),
		CloseTime: closeTime,
	}, true
}

func asInt64(v any) (int64, bool) {
	switch t := v.(type) {
	case float64:
		return int64(t), true
	case int64:
		return t, true
	case string:
		n, err := strconv.ParseInt(t, 10, 64)
		return n, err == nil
	}
	return 0, false
}

func asFloat(v any) float64 {
	switch t := v.(type) {
	case float64:
		return t
	case string:
		return parseFloat(t)
	}
	return 0
}
