package service

import (
	"context"
	"net/url"
	"strings"

	"marketdesk/internal/models"
	"marketdesk/pkg/logger"

	"github.com/bytedance/sonic"
)

const statsBatchSize = 100 // venue caps the symbols list per 24h-stats request

type exchangeInfoSymbol struct {
	Symbol               string   `json:"symbol"`
	Status               string   `json:"status"`
	QuoteAsset           string   `json:"quoteAsset"`
	Permissions          []string `json:"permissions"`
	IsSpotTradingAllowed *bool    `json:"isSpotTradingAllowed"`
}

// FetchUniverse lists tradable spot instruments for the configured quote
// asset, excluding leveraged-token suffixes. Empty on failure; the caller
// owns the fallback.
func (c *Client) FetchUniverse(ctx context.Context) []string {
	body := c.getWithRetry(ctx, "/api/v3/exchangeInfo", nil)
	if body == nil {
		return nil
	}
	var payload struct {
		Symbols []exchangeInfoSymbol `json:"symbols"`
	}
	if err := sonic.Unmarshal(body, &payload); err != nil {
		logger.Warn("exchangeInfo: malformed payload: %v", err)
		return nil
	}

	out := make([]string, 0, len(payload.Symbols))
	for _, s := range payload.Symbols {
		if !c.tradable(s) {
			continue
		}
		out = append(out, s.Symbol)
	}
	return out
}

func (c *Client) tradable(s exchangeInfoSymbol) bool {
	if s.Symbol == "" || s.Status != "TRADING" || s.QuoteAsset != c.cfg.QuoteAsset {
		return false
	}
	// some gateways omit 'permissions'; treat isSpotTradingAllowed as sufficient
	if s.Permissions != nil && !contains(s.Permissions, "SPOT") {
		return false
	}
	if s.IsSpotTradingAllowed != nil && !*s.IsSpotTradingAllowed {
		return false
	}
	for _, sfx := range c.cfg.ExcludeSuffixes {
		if strings.HasSuffix(s.Symbol, sfx) {
			return false
		}
	}
	return true
}

func contains(ss []string, want string) bool {
	for _, s := range ss {
		if s == want {
			return true
		}
	}
	return false
}

// Fetch24hStats pulls 24-hour ticker statistics for every given symbol,
// batched to respect the venue's request-size limit. Partial results are
// possible when a batch fails.
func (c *Client) Fetch24hStats(ctx context.Context, symbols []string) []models.Ticker24h {
	if len(symbols) == 0 {
		return nil
	}
	out := make([]models.Ticker24h, 0, len(symbols))
	for i := 0; i < len(symbols); i += statsBatchSize {
		end := i + statsBatchSize
		if end > len(symbols) {
			end = len(symbols)
		}
		q := url.Values{}
		q.Set("symbols", symbolsParam(symbols[i:end]))

		body := c.getWithRetry(ctx, "/api/v3/ticker/24hr", q)
		if body == nil {
			continue
		}
		var rows []struct {
			Symbol             string `json:"symbol"`
			LastPrice          string `json:"lastPrice"`
			HighPrice          string `json:"highPrice"`
			LowPrice           string `json:"lowPrice"`
			PriceChangePercent string `json:"priceChangePercent"`
			QuoteVolume        string `json:"quoteVolume"`
		}
		if err := sonic.Unmarshal(body, &rows); err != nil {
			logger.Warn("ticker/24hr: malformed payload: %v", err)
			continue
		}
		for _, r := range rows {
			if r.Symbol == "" {
				continue
			}
			out = append(out, models.Ticker24h{
				Symbol:             r.Symbol,
				LastPrice:          parseFloat(r.LastPrice),
				HighPrice:          parseFloat(r.HighPrice),
				LowPrice:           parseFloat(r.LowPrice),
				PriceChangePercent: parseFloat(r.PriceChangePercent),
				QuoteVolume:        parseFloat(r.QuoteVolume),
			})
		}
	}
	return out
}
