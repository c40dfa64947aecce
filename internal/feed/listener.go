package feed

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/ewopara/market-screener/internal/model"
	"github.com/ewopara/market-screener/internal/subscription"
)

// TickSink delivers matched ticks to downstream clients. Implementations
// must not block: a slow client cannot be allowed to stall the read loop.
type TickSink interface {
	PushTick(id uuid.UUID, tick model.NormalizedTick)
}

// Listener owns the streaming connection to one exchange's feed.
type Listener struct {
	cfg      Config
	registry subscription.Registry
	sink     TickSink
	logger   *slog.Logger

	// Symbols currently acknowledged upstream. Only the reconciliation
	// loop writes; Stats reads concurrently.
	subMu      sync.Mutex
	subscribed map[string]struct{}

	connected    atomic.Bool
	ticksRouted  atomic.Int64
	decodeErrors atomic.Int64
	reconnects   atomic.Int64

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewListener creates a listener for one exchange. An exchange with no
// endpoint mapping is rejected here, before any connection is attempted.
func NewListener(cfg Config, registry subscription.Registry, sink TickSink, logger *slog.Logger) (*Listener, error) {
	if cfg.Exchange == "" || cfg.URL == "" {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedExchange, cfg.Exchange)
	}

	def := DefaultConfig()
	if cfg.ReconcileInterval == 0 {
		cfg.ReconcileInterval = def.ReconcileInterval
	}
	if cfg.ReconnectBaseDelay == 0 {
		cfg.ReconnectBaseDelay = def.ReconnectBaseDelay
	}
	if cfg.ReconnectMaxDelay == 0 {
		cfg.ReconnectMaxDelay = def.ReconnectMaxDelay
	}
	if cfg.HandshakeTimeout == 0 {
		cfg.HandshakeTimeout = def.HandshakeTimeout
	}
	if cfg.WriteTimeout == 0 {
		cfg.WriteTimeout = def.WriteTimeout
	}
	if cfg.BufferSize == 0 {
		cfg.BufferSize = def.BufferSize
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &Listener{
		cfg:        cfg,
		registry:   registry,
		sink:       sink,
		logger:     logger.With("exchange", cfg.Exchange),
		subscribed: make(map[string]struct{}),
	}, nil
}

// Start begins the connect/stream/reconnect cycle in the background.
func (l *Listener) Start(ctx context.Context) error {
	l.ctx, l.cancel = context.WithCancel(ctx)

	l.wg.Add(1)
	go l.run()

	l.logger.Info("feed listener started", "url", l.cfg.URL)
	return nil
}

// Stop cancels both connection activities, then waits for the connection to
// be closed and the run loop to exit.
func (l *Listener) Stop(ctx context.Context) error {
	if l.cancel != nil {
		l.cancel()
	}

	done := make(chan struct{})
	go func() {
		l.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		l.logger.Info("feed listener stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Stats returns a point-in-time view of the listener.
func (l *Listener) Stats() ListenerStats {
	l.subMu.Lock()
	subscribed := len(l.subscribed)
	l.subMu.Unlock()

	return ListenerStats{
		Exchange:     l.cfg.Exchange,
		Connected:    l.connected.Load(),
		Subscribed:   subscribed,
		TicksRouted:  l.ticksRouted.Load(),
		DecodeErrors: l.decodeErrors.Load(),
		Reconnects:   l.reconnects.Load(),
	}
}

// run loops connection cycles until the listener is stopped. There is no
// terminal success state; every cycle ends in a reconnect unless the
// listener itself was cancelled.
func (l *Listener) run() {
	defer l.wg.Done()

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = l.cfg.ReconnectBaseDelay
	bo.MaxInterval = l.cfg.ReconnectMaxDelay

	for {
		if l.ctx.Err() != nil {
			return
		}

		streamed, err := l.cycle(l.ctx)
		if l.ctx.Err() != nil {
			return
		}
		if streamed {
			// The cycle reached the streaming state, so the endpoint is
			// healthy; start the backoff progression over.
			bo.Reset()
			l.reconnects.Add(1)
		}

		delay := bo.NextBackOff()
		l.logger.Warn("connection lost, reconnecting",
			"error", err,
			"retry_in", delay,
		)

		select {
		case <-l.ctx.Done():
			return
		case <-time.After(delay):
		}
	}
}

// cycle runs one full connection: dial, authenticate, then the
// reconciliation and read loops until either fails. Both loops are torn
// down before the connection is closed. The returned bool reports whether
// authentication succeeded.
func (l *Listener) cycle(ctx context.Context) (bool, error) {
	client := newWSClient(l.cfg, l.logger)
	if err := client.Connect(ctx); err != nil {
		return false, err
	}
	defer client.Close()

	if err := client.Authenticate(ctx); err != nil {
		return false, err
	}

	l.connected.Store(true)
	defer l.connected.Store(false)

	// The previous connection's subscriptions died with it.
	l.subMu.Lock()
	l.subscribed = make(map[string]struct{})
	l.subMu.Unlock()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return l.reconcileLoop(gctx, client) })
	g.Go(func() error { return l.readLoop(gctx, client) })

	return true, g.Wait()
}

// reconcileLoop aligns the upstream subscription set with the registry's
// desired symbols on a fixed interval.
func (l *Listener) reconcileLoop(ctx context.Context, client *wsClient) error {
	ticker := time.NewTicker(l.cfg.ReconcileInterval)
	defer ticker.Stop()

	l.reconcile(client)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			l.reconcile(client)
		}
	}
}

// reconcile computes and sends one round of subscription changes. Send
// errors are logged and retried on the next interval tick; a dead
// connection surfaces through the read loop instead.
func (l *Listener) reconcile(client *wsClient) {
	desired := l.registry.DesiredSymbols(l.cfg.Exchange)

	l.subMu.Lock()
	defer l.subMu.Unlock()

	var toAdd, toRemove []string
	for s := range desired {
		if _, ok := l.subscribed[s]; !ok {
			toAdd = append(toAdd, s)
		}
	}
	for s := range l.subscribed {
		if _, ok := desired[s]; !ok {
			toRemove = append(toRemove, s)
		}
	}

	if len(toAdd) > 0 {
		frame := symbolFrame{Event: "subscribe", Data: symbolData{Ticker: toAdd}}
		if err := client.SendJSON(frame); err != nil {
			l.logger.Warn("subscribe failed", "symbols", toAdd, "error", err)
		} else {
			for _, s := range toAdd {
				l.subscribed[s] = struct{}{}
			}
			l.logger.Info("subscribed", "symbols", toAdd)
		}
	}

	if len(toRemove) > 0 {
		frame := symbolFrame{Event: "unsubscribe", Data: symbolData{Ticker: toRemove}}
		if err := client.SendJSON(frame); err != nil {
			l.logger.Warn("unsubscribe failed", "symbols", toRemove, "error", err)
		} else {
			for _, s := range toRemove {
				delete(l.subscribed, s)
			}
			l.logger.Info("unsubscribed", "symbols", toRemove)
		}
	}
}

// readLoop consumes inbound messages in arrival order, so ticks from one
// exchange are matched and pushed in the order the feed delivered them.
func (l *Listener) readLoop(ctx context.Context, client *wsClient) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case err := <-client.Errors():
			return err
		case data := <-client.Messages():
			l.handleMessage(data)
		}
	}
}

// handleMessage decodes, normalizes, matches, and pushes a single inbound
// message. Errors here never terminate the connection.
func (l *Listener) handleMessage(data []byte) {
	var raw tickWire
	if err := json.Unmarshal(data, &raw); err != nil {
		l.decodeErrors.Add(1)
		l.logger.Warn("malformed message skipped", "error", err)
		return
	}

	if !isTickType(raw.Type) {
		return
	}

	tick, ok := normalizeTick(raw, l.cfg.Exchange)
	if !ok {
		l.logger.Debug("tick without symbol dropped")
		return
	}

	for _, id := range l.registry.MatchingClients(tick) {
		l.sink.PushTick(id, tick)
	}
	l.ticksRouted.Add(1)
}
