package subscription

import (
	"sync"
	"testing"

	"github.com/google/uuid"

	"github.com/ewopara/market-screener/internal/model"
)

func TestRegistry_RegisterUnregister(t *testing.T) {
	r := NewRegistry()
	id := uuid.New()

	r.Register(id)
	if _, err := r.Update(id, "crypto", model.Filter{Ticker: []string{"btcusd"}}); err != nil {
		t.Fatalf("Update failed: %v", err)
	}

	r.Unregister(id)
	if got := r.DesiredSymbols("crypto"); len(got) != 0 {
		t.Errorf("DesiredSymbols after unregister = %v, want empty", got)
	}

	// Unregister is idempotent.
	r.Unregister(id)
}

func TestRegistry_Update_LowercasesTickers(t *testing.T) {
	r := NewRegistry()
	id := uuid.New()
	r.Register(id)

	stored, err := r.Update(id, "company", model.Filter{Ticker: []string{"AAPL", "Msft"}})
	if err != nil {
		t.Fatalf("Update failed: %v", err)
	}

	if stored.Ticker[0] != "aapl" || stored.Ticker[1] != "msft" {
		t.Errorf("stored tickers = %v, want lower-cased", stored.Ticker)
	}

	symbols := r.DesiredSymbols("company")
	if _, ok := symbols["aapl"]; !ok {
		t.Errorf("DesiredSymbols = %v, want to contain aapl", symbols)
	}
}

func TestRegistry_Update_InvalidExchangeKeepsPriorState(t *testing.T) {
	r := NewRegistry()
	id := uuid.New()
	r.Register(id)

	if _, err := r.Update(id, "crypto", model.Filter{Ticker: []string{"btcusd"}}); err != nil {
		t.Fatalf("Update failed: %v", err)
	}

	if _, err := r.Update(id, "", model.Filter{Ticker: []string{"ethusd"}}); err != ErrInvalidPayload {
		t.Fatalf("Update with empty exchange: err = %v, want ErrInvalidPayload", err)
	}

	symbols := r.DesiredSymbols("crypto")
	if _, ok := symbols["btcusd"]; !ok {
		t.Errorf("prior filter lost after rejected update: %v", symbols)
	}
	if _, ok := symbols["ethusd"]; ok {
		t.Error("rejected filter must not be stored")
	}
}

func TestRegistry_Update_UnknownSession(t *testing.T) {
	r := NewRegistry()

	if _, err := r.Update(uuid.New(), "crypto", model.Filter{}); err != ErrInvalidPayload {
		t.Errorf("Update for unknown session: err = %v, want ErrInvalidPayload", err)
	}
}

func TestRegistry_Update_StoresTickerlessFilter(t *testing.T) {
	r := NewRegistry()
	id := uuid.New()
	r.Register(id)

	min := 1000.0
	if _, err := r.Update(id, "company", model.Filter{VolumeMin: &min}); err != nil {
		t.Fatalf("Update failed: %v", err)
	}

	volume := 5000.0
	matched := r.MatchingClients(model.NormalizedTick{
		Ticker:   "aapl",
		Exchange: "company",
		Volume:   &volume,
	})
	if len(matched) != 1 || matched[0] != id {
		t.Errorf("MatchingClients = %v, want [%v]", matched, id)
	}
}

func TestRegistry_MatchingClients(t *testing.T) {
	r := NewRegistry()

	a, b, empty := uuid.New(), uuid.New(), uuid.New()
	r.Register(a)
	r.Register(b)
	r.Register(empty)

	if _, err := r.Update(a, "crypto", model.Filter{Ticker: []string{"btcusd"}}); err != nil {
		t.Fatal(err)
	}
	if _, err := r.Update(b, "crypto", model.Filter{Ticker: []string{"ethusd"}}); err != nil {
		t.Fatal(err)
	}

	tick := model.NormalizedTick{Ticker: "btcusd", Exchange: "crypto", Type: model.TickTrade}

	matched := r.MatchingClients(tick)
	if len(matched) != 1 || matched[0] != a {
		t.Errorf("MatchingClients = %v, want [%v]", matched, a)
	}

	// Session with an empty filter never matches.
	for _, id := range matched {
		if id == empty {
			t.Error("session with empty filter must never match")
		}
	}

	// Exchange must match.
	if got := r.MatchingClients(model.NormalizedTick{Ticker: "btcusd", Exchange: "forex"}); len(got) != 0 {
		t.Errorf("MatchingClients on wrong exchange = %v, want empty", got)
	}
}

func TestRegistry_Clear(t *testing.T) {
	r := NewRegistry()
	id := uuid.New()
	r.Register(id)

	if _, err := r.Update(id, "crypto", model.Filter{Ticker: []string{"btcusd"}}); err != nil {
		t.Fatal(err)
	}
	r.Clear(id)

	if got := r.DesiredSymbols("crypto"); len(got) != 0 {
		t.Errorf("DesiredSymbols after clear = %v, want empty", got)
	}
	if got := r.MatchingClients(model.NormalizedTick{Ticker: "btcusd", Exchange: "crypto"}); len(got) != 0 {
		t.Errorf("cleared session still matches: %v", got)
	}

	// Clear on an unknown session is a no-op.
	r.Clear(uuid.New())
}

func TestRegistry_DesiredSymbols_Union(t *testing.T) {
	r := NewRegistry()

	a, b := uuid.New(), uuid.New()
	r.Register(a)
	r.Register(b)

	r.Update(a, "forex", model.Filter{Ticker: []string{"eurusd", "gbpusd"}})
	r.Update(b, "forex", model.Filter{Ticker: []string{"gbpusd", "usdjpy"}})

	symbols := r.DesiredSymbols("forex")
	want := []string{"eurusd", "gbpusd", "usdjpy"}
	if len(symbols) != len(want) {
		t.Fatalf("DesiredSymbols = %v, want %v", symbols, want)
	}
	for _, s := range want {
		if _, ok := symbols[s]; !ok {
			t.Errorf("DesiredSymbols missing %q", s)
		}
	}

	r.Unregister(a)
	symbols = r.DesiredSymbols("forex")
	if _, ok := symbols["eurusd"]; ok {
		t.Error("eurusd should be gone after its only subscriber unregistered")
	}
	if _, ok := symbols["gbpusd"]; !ok {
		t.Error("gbpusd still has a subscriber and should remain")
	}
}

func TestRegistry_ConcurrentAccess(t *testing.T) {
	r := NewRegistry()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 200; j++ {
				id := uuid.New()
				r.Register(id)
				r.Update(id, "crypto", model.Filter{Ticker: []string{"btcusd"}})
				r.MatchingClients(model.NormalizedTick{Ticker: "btcusd", Exchange: "crypto"})
				r.DesiredSymbols("crypto")
				r.Clear(id)
				r.Unregister(id)
			}
		}()
	}
	wg.Wait()
}
