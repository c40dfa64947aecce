package httpapi

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"github.com/ewopara/market-screener/internal/hub"
	"github.com/ewopara/market-screener/internal/model"
	"github.com/ewopara/market-screener/internal/technicals"
	"github.com/ewopara/market-screener/internal/tickers"
	"github.com/ewopara/market-screener/internal/version"
)

// Config holds HTTP server configuration.
type Config struct {
	Addr        string        `yaml:"addr"`
	ReadTimeout time.Duration `yaml:"read_timeout"`
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		Addr:        ":8000",
		ReadTimeout: 10 * time.Second,
	}
}

// Server wires the screener's components onto HTTP routes.
type Server struct {
	cfg     Config
	hub     *hub.Hub
	tickers *tickers.Service
	rater   *technicals.Rater
	logger  *slog.Logger

	srv *http.Server
}

// New creates a Server; Start must be called to begin serving.
func New(cfg Config, h *hub.Hub, tickerSvc *tickers.Service, rater *technicals.Rater, logger *slog.Logger) *Server {
	def := DefaultConfig()
	if cfg.Addr == "" {
		cfg.Addr = def.Addr
	}
	if cfg.ReadTimeout == 0 {
		cfg.ReadTimeout = def.ReadTimeout
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &Server{
		cfg:     cfg,
		hub:     h,
		tickers: tickerSvc,
		rater:   rater,
		logger:  logger,
	}
}

// Handler builds the route table.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /{$}", s.handleRoot)
	mux.HandleFunc("GET /ping", s.handlePing)
	mux.HandleFunc("GET /ws", s.hub.Accept)

	mux.HandleFunc("POST /tickers/update-tickers", s.handleUpdateTickers)
	mux.HandleFunc("POST /tickers/update-cot", s.handleUpdateCOT)
	mux.HandleFunc("GET /tickers/{list}", s.handleTickerList)

	mux.HandleFunc("POST /technicals/{exchange}", s.handleTechnicals)

	return mux
}

// Start begins serving in the background.
func (s *Server) Start() error {
	// No WriteTimeout: it would sever long-lived websocket sessions.
	s.srv = &http.Server{
		Addr:        s.cfg.Addr,
		Handler:     s.Handler(),
		ReadTimeout: s.cfg.ReadTimeout,
	}

	go func() {
		if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("http server failed", "error", err)
		}
	}()

	s.logger.Info("http server started", "addr", s.cfg.Addr)
	return nil
}

// Shutdown drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.srv == nil {
		return nil
	}
	return s.srv.Shutdown(ctx)
}

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"service": "market-screener",
		"version": version.Version,
	})
}

func (s *Server) handlePing(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"message": "pong"})
}

func (s *Server) handleTickerList(w http.ResponseWriter, r *http.Request) {
	exchange, ok := strings.CutSuffix(r.PathValue("list"), "-list")
	if !ok {
		http.NotFound(w, r)
		return
	}

	entries, err := s.tickers.List(r.Context(), exchange)
	if err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	if entries == nil {
		entries = []model.TickerEntry{}
	}

	writeJSON(w, http.StatusOK, entries)
}

func (s *Server) handleUpdateTickers(w http.ResponseWriter, r *http.Request) {
	if err := s.tickers.RefreshAll(r.Context()); err != nil {
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "tickers updated"})
}

func (s *Server) handleUpdateCOT(w http.ResponseWriter, r *http.Request) {
	if err := s.tickers.Refresh(r.Context(), "cot"); err != nil {
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "cot updated"})
}

// handleTechnicals rates either the symbols passed in the query or, when
// none are given, the exchange's full cached list.
func (s *Server) handleTechnicals(w http.ResponseWriter, r *http.Request) {
	exchange := r.PathValue("exchange")

	period, err := queryInt(r, "period", 10)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	timeseries, err := queryInt(r, "timeseries", 50)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var symbols []string
	if raw := r.URL.Query().Get("symbols"); raw != "" {
		for _, sym := range strings.Split(raw, ",") {
			if sym = strings.TrimSpace(sym); sym != "" {
				symbols = append(symbols, sym)
			}
		}
	} else {
		entries, err := s.tickers.List(r.Context(), exchange)
		if err != nil {
			writeError(w, http.StatusNotFound, err.Error())
			return
		}
		for _, e := range entries {
			symbols = append(symbols, e.Symbol)
		}
	}

	if len(symbols) == 0 {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("no symbols to rate for %q", exchange))
		return
	}

	ratings, err := s.rater.Rate(r.Context(), symbols, period, timeseries)
	if err != nil {
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, ratings)
}

func queryInt(r *http.Request, key string, def int) (int, error) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v <= 0 {
		return 0, fmt.Errorf("%s must be a positive integer", key)
	}
	return v, nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, map[string]string{"detail": detail})
}
