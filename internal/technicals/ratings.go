package technicals

import (
	"context"
	"log/slog"
	"sync"
	"time"

	movingaverage "github.com/RobinUS2/golang-moving-average"
	"golang.org/x/sync/semaphore"

	"github.com/ewopara/market-screener/internal/model"
	"github.com/ewopara/market-screener/internal/provider"
)

// Source fetches indicator and price series for one symbol.
type Source interface {
	TechnicalIndicator(ctx context.Context, symbol, timeframe, indicator string, period int) ([]provider.IndicatorPoint, error)
	HistoricalPrices(ctx context.Context, symbol string, timeseries int) ([]provider.HistoricalBar, error)
}

// Config holds rating computation configuration.
type Config struct {
	// Concurrency caps in-flight symbols; each symbol costs four
	// provider calls.
	Concurrency int64 `yaml:"concurrency"`
	// Timeframe is the provider bar interval, e.g. "1day".
	Timeframe string `yaml:"timeframe"`
	// Timeout bounds the work for a single symbol.
	Timeout time.Duration `yaml:"timeout"`
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		Concurrency: 8,
		Timeframe:   "1day",
		Timeout:     30 * time.Second,
	}
}

// Rater computes ratings for batches of symbols.
type Rater struct {
	cfg    Config
	source Source
	logger *slog.Logger
}

// NewRater creates a Rater over the given indicator source.
func NewRater(cfg Config, source Source, logger *slog.Logger) *Rater {
	def := DefaultConfig()
	if cfg.Concurrency == 0 {
		cfg.Concurrency = def.Concurrency
	}
	if cfg.Timeframe == "" {
		cfg.Timeframe = def.Timeframe
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = def.Timeout
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &Rater{cfg: cfg, source: source, logger: logger}
}

// Rate computes ratings for the given symbols with bounded concurrency.
// Symbols whose series cannot be fetched are omitted from the result
// rather than failing the batch.
func (r *Rater) Rate(ctx context.Context, symbols []string, period, timeseries int) (map[string]model.Rating, error) {
	sem := semaphore.NewWeighted(r.cfg.Concurrency)

	var mu sync.Mutex
	ratings := make(map[string]model.Rating, len(symbols))

	var wg sync.WaitGroup
	for _, symbol := range symbols {
		if err := sem.Acquire(ctx, 1); err != nil {
			wg.Wait()
			return nil, err
		}

		wg.Add(1)
		go func(symbol string) {
			defer wg.Done()
			defer sem.Release(1)

			rating, err := r.rateOne(ctx, symbol, period, timeseries)
			if err != nil {
				r.logger.Warn("rating failed", "symbol", symbol, "error", err)
				return
			}

			mu.Lock()
			ratings[symbol] = rating
			mu.Unlock()
		}(symbol)
	}

	wg.Wait()
	return ratings, ctx.Err()
}

// rateOne fetches all four series for one symbol and scores them.
func (r *Rater) rateOne(ctx context.Context, symbol string, period, timeseries int) (model.Rating, error) {
	ctx, cancel := context.WithTimeout(ctx, r.cfg.Timeout)
	defer cancel()

	rsi, err := r.source.TechnicalIndicator(ctx, symbol, r.cfg.Timeframe, "rsi", period)
	if err != nil {
		return model.Rating{}, err
	}
	adx, err := r.source.TechnicalIndicator(ctx, symbol, r.cfg.Timeframe, "adx", period)
	if err != nil {
		return model.Rating{}, err
	}
	williams, err := r.source.TechnicalIndicator(ctx, symbol, r.cfg.Timeframe, "williams", period)
	if err != nil {
		return model.Rating{}, err
	}
	bars, err := r.source.HistoricalPrices(ctx, symbol, timeseries)
	if err != nil {
		return model.Rating{}, err
	}

	score := scoreRSI(latestRSI(rsi)) +
		scoreADX(latestADX(adx)) +
		scoreWilliams(latestWilliams(williams)) +
		scoreTrend(bars, period)

	if score > 3 {
		score = 3
	}
	if score < -3 {
		score = -3
	}

	return model.Rating{Score: score, Rating: classifyScore(score)}, nil
}

// Oversold below 30, overbought above 70.
func scoreRSI(v *float64) int {
	switch {
	case v == nil:
		return 0
	case *v < 30:
		return 1
	case *v > 70:
		return -1
	default:
		return 0
	}
}

// ADX measures trend strength, not direction: a strong trend is treated
// as confirmation, a weak one as a penalty.
func scoreADX(v *float64) int {
	switch {
	case v == nil:
		return 0
	case *v >= 25:
		return 1
	case *v < 20:
		return -1
	default:
		return 0
	}
}

// Williams %R ranges -100..0; oversold below -80, overbought above -20.
func scoreWilliams(v *float64) int {
	switch {
	case v == nil:
		return 0
	case *v < -80:
		return 1
	case *v > -20:
		return -1
	default:
		return 0
	}
}

// scoreTrend compares the latest close against its moving average over
// period bars. Series arrive newest first.
func scoreTrend(bars []provider.HistoricalBar, period int) int {
	if period <= 0 || len(bars) < period {
		return 0
	}

	ma := movingaverage.New(period)
	for i := period - 1; i >= 0; i-- {
		ma.Add(bars[i].Close)
	}

	if bars[0].Close > ma.Avg() {
		return 1
	}
	return -1
}

func latestRSI(points []provider.IndicatorPoint) *float64 {
	if len(points) == 0 {
		return nil
	}
	return points[0].RSI
}

func latestADX(points []provider.IndicatorPoint) *float64 {
	if len(points) == 0 {
		return nil
	}
	return points[0].ADX
}

func latestWilliams(points []provider.IndicatorPoint) *float64 {
	if len(points) == 0 {
		return nil
	}
	return points[0].Williams
}

func classifyScore(score int) string {
	switch {
	case score >= 3:
		return "Strong Buy"
	case score == 2:
		return "Buy"
	case score == 1:
		return "Weak Buy"
	case score == 0:
		return "Neutral"
	case score == -1:
		return "Weak Sell"
	case score == -2:
		return "Sell"
	default:
		return "Strong Sell"
	}
}
