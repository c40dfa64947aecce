package httpapi

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/gorilla/websocket"

	"github.com/ewopara/market-screener/internal/hub"
	"github.com/ewopara/market-screener/internal/model"
	"github.com/ewopara/market-screener/internal/provider"
	"github.com/ewopara/market-screener/internal/subscription"
	"github.com/ewopara/market-screener/internal/technicals"
	"github.com/ewopara/market-screener/internal/tickers"
)

// memStore is an in-memory tickers.Store.
type memStore struct {
	mu        sync.Mutex
	lists     map[string][]model.TickerEntry
	refreshed map[string]time.Time
}

func newMemStore() *memStore {
	return &memStore{
		lists:     make(map[string][]model.TickerEntry),
		refreshed: make(map[string]time.Time),
	}
}

func (s *memStore) List(_ context.Context, exchange string) ([]model.TickerEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lists[exchange], nil
}

func (s *memStore) LastRefreshed(_ context.Context, exchange string) (time.Time, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.refreshed[exchange], nil
}

func (s *memStore) ReplaceList(_ context.Context, exchange string, entries []model.TickerEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lists[exchange] = entries
	s.refreshed[exchange] = time.Now()
	return nil
}

// stubSource serves fixed symbol lists and indicator series.
type stubSource struct {
	lists map[string][]model.TickerEntry
	rsi   float64
}

func (s *stubSource) SymbolList(_ context.Context, exchange string) ([]model.TickerEntry, error) {
	return s.lists[exchange], nil
}

func (s *stubSource) TechnicalIndicator(_ context.Context, _, _, indicator string, _ int) ([]provider.IndicatorPoint, error) {
	p := provider.IndicatorPoint{}
	if indicator == "rsi" {
		p.RSI = &s.rsi
	}
	return []provider.IndicatorPoint{p}, nil
}

func (s *stubSource) HistoricalPrices(context.Context, string, int) ([]provider.HistoricalBar, error) {
	return nil, nil
}

func newTestServer(t *testing.T) (*httptest.Server, *stubSource) {
	t.Helper()

	source := &stubSource{
		lists: map[string][]model.TickerEntry{
			"stocks": {{Symbol: "AAPL", Name: "Apple Inc."}},
			"cot":    {{Symbol: "GC", Name: "Gold"}},
		},
		rsi: 25,
	}

	tickerSvc := tickers.NewService(tickers.Config{
		Exchanges: []string{"stocks", "cot"},
	}, newMemStore(), source, nil)
	rater := technicals.NewRater(technicals.DefaultConfig(), source, nil)
	h := hub.New(hub.DefaultConfig(), subscription.NewRegistry(), nil)

	s := New(DefaultConfig(), h, tickerSvc, rater, nil)
	srv := httptest.NewServer(s.Handler())
	t.Cleanup(srv.Close)

	return srv, source
}

func getJSON(t *testing.T, srv *httptest.Server, method, path string, wantStatus int, out any) {
	t.Helper()

	req, err := http.NewRequest(method, srv.URL+path, nil)
	if err != nil {
		t.Fatal(err)
	}
	resp, err := srv.Client().Do(req)
	if err != nil {
		t.Fatalf("%s %s failed: %v", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != wantStatus {
		t.Fatalf("%s %s status = %d, want %d", method, path, resp.StatusCode, wantStatus)
	}
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			t.Fatalf("decode %s response: %v", path, err)
		}
	}
}

func TestPing(t *testing.T) {
	srv, _ := newTestServer(t)

	var body map[string]string
	getJSON(t, srv, http.MethodGet, "/ping", http.StatusOK, &body)
	if body["message"] != "pong" {
		t.Errorf("ping body = %v", body)
	}
}

func TestRoot(t *testing.T) {
	srv, _ := newTestServer(t)

	var body map[string]string
	getJSON(t, srv, http.MethodGet, "/", http.StatusOK, &body)
	if body["service"] != "market-screener" {
		t.Errorf("root body = %v", body)
	}
}

func TestTickerList(t *testing.T) {
	srv, _ := newTestServer(t)

	// Cache is empty, so the first read refreshes from the source.
	var entries []model.TickerEntry
	getJSON(t, srv, http.MethodGet, "/tickers/stocks-list", http.StatusOK, &entries)
	if len(entries) != 1 || entries[0].Symbol != "AAPL" {
		t.Errorf("entries = %+v", entries)
	}
}

func TestTickerList_UnknownExchange(t *testing.T) {
	srv, _ := newTestServer(t)

	var body map[string]string
	getJSON(t, srv, http.MethodGet, "/tickers/bonds-list", http.StatusNotFound, &body)
	if body["detail"] == "" {
		t.Error("error response missing detail")
	}
}

func TestUpdateEndpoints(t *testing.T) {
	srv, _ := newTestServer(t)

	getJSON(t, srv, http.MethodPost, "/tickers/update-tickers", http.StatusOK, nil)
	getJSON(t, srv, http.MethodPost, "/tickers/update-cot", http.StatusOK, nil)

	// Refresh is POST-only.
	getJSON(t, srv, http.MethodGet, "/tickers/update-tickers", http.StatusMethodNotAllowed, nil)
}

func TestTechnicals(t *testing.T) {
	srv, _ := newTestServer(t)

	var ratings map[string]model.Rating
	getJSON(t, srv, http.MethodPost, "/technicals/stocks?period=10&timeseries=50", http.StatusOK, &ratings)

	r, ok := ratings["AAPL"]
	if !ok {
		t.Fatalf("ratings = %v, want AAPL", ratings)
	}
	// Oversold RSI is the only populated signal.
	if r.Score != 1 || r.Rating != "Weak Buy" {
		t.Errorf("AAPL rating = %+v, want score 1 Weak Buy", r)
	}
}

func TestTechnicals_ExplicitSymbols(t *testing.T) {
	srv, _ := newTestServer(t)

	var ratings map[string]model.Rating
	getJSON(t, srv, http.MethodPost, "/technicals/stocks?symbols=msft,goog", http.StatusOK, &ratings)
	if len(ratings) != 2 {
		t.Errorf("ratings = %v, want msft and goog", ratings)
	}
}

func TestTechnicals_BadPeriod(t *testing.T) {
	srv, _ := newTestServer(t)
	getJSON(t, srv, http.MethodPost, "/technicals/stocks?period=zero", http.StatusBadRequest, nil)
}

func TestWebsocketRoute(t *testing.T) {
	srv, _ := newTestServer(t)

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial /ws failed: %v", err)
	}
	defer conn.Close()

	conn.SetReadDeadline(time.Now().Add(3 * time.Second))
	_, data, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read greeting failed: %v", err)
	}
	if !strings.Contains(string(data), "status") {
		t.Errorf("greeting = %s", data)
	}
}
