package provider

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
)

// IndicatorPoint is one bar of a technical indicator series, newest first.
// Only the field matching the requested indicator type is populated.
type IndicatorPoint struct {
	Date     string   `json:"date"`
	Close    *float64 `json:"close"`
	RSI      *float64 `json:"rsi"`
	ADX      *float64 `json:"adx"`
	Williams *float64 `json:"williams"`
}

// TechnicalIndicator fetches one indicator series for a symbol. The
// indicator name is the provider's type parameter: rsi, adx, or williams.
func (c *Client) TechnicalIndicator(ctx context.Context, symbol, timeframe, indicator string, period int) ([]IndicatorPoint, error) {
	query := url.Values{}
	query.Set("type", indicator)
	if period > 0 {
		query.Set("period", strconv.Itoa(period))
	}

	var points []IndicatorPoint
	path := "/api/v3/technical_indicator/" + timeframe + "/" + url.PathEscape(symbol)
	if err := c.get(ctx, path, query, &points); err != nil {
		return nil, fmt.Errorf("get %s for %s: %w", indicator, symbol, err)
	}

	return points, nil
}

// HistoricalBar is one daily close, newest first.
type HistoricalBar struct {
	Date  string  `json:"date"`
	Close float64 `json:"close"`
}

type historicalResponse struct {
	Symbol     string          `json:"symbol"`
	Historical []HistoricalBar `json:"historical"`
}

// HistoricalPrices fetches up to timeseries daily closes for a symbol.
func (c *Client) HistoricalPrices(ctx context.Context, symbol string, timeseries int) ([]HistoricalBar, error) {
	query := url.Values{}
	if timeseries > 0 {
		query.Set("timeseries", strconv.Itoa(timeseries))
	}

	var resp historicalResponse
	path := "/api/v3/historical-price-full/" + url.PathEscape(symbol)
	if err := c.get(ctx, path, query, &resp); err != nil {
		return nil, fmt.Errorf("get historical prices for %s: %w", symbol, err)
	}

	return resp.Historical, nil
}
