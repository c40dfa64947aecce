package provider

import (
	"context"
	"fmt"

	"github.com/ewopara/market-screener/internal/model"
)

// Reference list endpoints per exchange.
var listPaths = map[string]string{
	"stocks":      "/api/v3/stock/list",
	"etf":         "/api/v3/etf/list",
	"crypto":      "/api/v3/symbol/available-cryptocurrencies",
	"forex":       "/api/v3/symbol/available-forex-currency-pairs",
	"commodities": "/api/v3/symbol/available-commodities",
}

const cotListPath = "/api/v4/commitment_of_traders_report/list"

// listEntry is the wire shape shared by the v3 symbol list endpoints.
type listEntry struct {
	Symbol string `json:"symbol"`
	Name   string `json:"name"`
}

// cotEntry is the wire shape of the commitment of traders list, which
// names its fields differently from every other list endpoint.
type cotEntry struct {
	TradingSymbol string `json:"trading_symbol"`
	ShortName     string `json:"short_name"`
}

// SymbolList fetches the full reference symbol list for one exchange.
func (c *Client) SymbolList(ctx context.Context, exchange string) ([]model.TickerEntry, error) {
	if exchange == "cot" {
		return c.cotList(ctx)
	}

	path, ok := listPaths[exchange]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedExchange, exchange)
	}

	var raw []listEntry
	if err := c.get(ctx, path, nil, &raw); err != nil {
		return nil, fmt.Errorf("get %s list: %w", exchange, err)
	}

	entries := make([]model.TickerEntry, 0, len(raw))
	for _, e := range raw {
		if e.Symbol == "" {
			continue
		}
		entries = append(entries, model.TickerEntry{Symbol: e.Symbol, Name: e.Name})
	}

	return entries, nil
}

// ListExchanges returns every exchange SymbolList understands.
func ListExchanges() []string {
	exchanges := make([]string, 0, len(listPaths)+1)
	for e := range listPaths {
		exchanges = append(exchanges, e)
	}
	return append(exchanges, "cot")
}

func (c *Client) cotList(ctx context.Context) ([]model.TickerEntry, error) {
	var raw []cotEntry
	if err := c.get(ctx, cotListPath, nil, &raw); err != nil {
		return nil, fmt.Errorf("get cot list: %w", err)
	}

	entries := make([]model.TickerEntry, 0, len(raw))
	for _, e := range raw {
		if e.TradingSymbol == "" {
			continue
		}
		entries = append(entries, model.TickerEntry{Symbol: e.TradingSymbol, Name: e.ShortName})
	}

	return entries, nil
}
