// Package feed provides a synthetic streaming price source.
//
// A Simulator models a quote-feed connection without any network dependency:
// start it, receive one enriched window per tick through the OnTick hook,
// stop it. Prices follow a bounded random walk from the seeded history.
package feed

import (
	"math/rand"
	"sort"
	"sync"
	"time"

	"chartfeed/internal/enrich"
	"chartfeed/internal/model"
	"chartfeed/internal/window"
)

const (
	// DefaultTickInterval is the cadence of simulated ticks.
	DefaultTickInterval = time.Second
	// DefaultConnectDelay models handshake latency before the first tick.
	DefaultConnectDelay = 1500 * time.Millisecond

	// maxChange is the per-tick fractional price change bound (±0.2%).
	maxChange = 0.002
)

// Config configures a Simulator.
type Config struct {
	// History seeds the window. Points beyond the window capacity are
	// evicted oldest-first.
	History []model.PricePoint

	// Capacity bounds the sliding window. Defaults to window.DefaultCapacity.
	Capacity int

	// TickInterval overrides the 1s tick cadence (tests use short values).
	TickInterval time.Duration

	// ConnectDelay overrides the simulated handshake latency.
	ConnectDelay time.Duration

	// Rand supplies the volatility source. Defaults to a time-seeded source.
	Rand *rand.Rand
}

func (c *Config) defaults() {
	if c.Capacity <= 0 {
		c.Capacity = window.DefaultCapacity
	}
	if c.TickInterval <= 0 {
		c.TickInterval = DefaultTickInterval
	}
	if c.ConnectDelay <= 0 {
		c.ConnectDelay = DefaultConnectDelay
	}
	if c.Rand == nil {
		c.Rand = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
}

// Simulator is a live feed session: Disconnected → Connecting → Connected,
// one tick per interval while connected, Disconnected again on Stop.
//
// Start while not Disconnected is a no-op; Stop is idempotent. Stop cancels
// both the connect timer and the tick loop before returning — no tick is
// delivered after Stop returns. At most one timer pair is ever active.
type Simulator struct {
	// OnTick, if set, receives a copy of the freshly re-enriched window
	// after every tick. Called from the tick goroutine; never after Stop
	// returns. Set before Start.
	OnTick func(points []model.EnrichedPoint)

	// OnStatus, if set, observes connection state transitions. Set before
	// Start.
	OnStatus func(status model.Status)

	cfg Config

	// notifyMu serializes state transitions with their OnStatus delivery,
	// so observers always see Connecting → Connected → Disconnected in
	// order. Always acquired before mu.
	notifyMu sync.Mutex

	mu       sync.Mutex
	status   model.Status
	ticks    int64
	win      *window.Window
	enriched []model.EnrichedPoint

	connectTimer *time.Timer
	ticker       *time.Ticker
	done         chan struct{}
	wg           sync.WaitGroup
}

// New creates a simulator seeded with cfg.History, already enriched.
func New(cfg Config) *Simulator {
	cfg.defaults()
	s := &Simulator{
		cfg: cfg,
		win: window.New(cfg.Capacity),
	}
	for _, p := range cfg.History {
		s.win.Push(p)
	}
	s.enriched = enrich.Enrich(s.win.Points())
	return s
}

// Start begins the connect handshake. No-op unless currently Disconnected —
// this guard prevents double subscriptions and leaked timers.
func (s *Simulator) Start() {
	s.notifyMu.Lock()
	defer s.notifyMu.Unlock()

	s.mu.Lock()
	if s.status != model.StatusDisconnected {
		s.mu.Unlock()
		return
	}
	s.status = model.StatusConnecting
	s.connectTimer = time.AfterFunc(s.cfg.ConnectDelay, s.connect)
	s.mu.Unlock()

	s.notify(model.StatusConnecting)
}

// connect fires when the simulated handshake delay elapses.
func (s *Simulator) connect() {
	s.notifyMu.Lock()
	defer s.notifyMu.Unlock()

	s.mu.Lock()
	if s.status != model.StatusConnecting {
		// Stopped while the handshake was pending
		s.mu.Unlock()
		return
	}
	s.connectTimer = nil
	s.status = model.StatusConnected
	s.ticker = time.NewTicker(s.cfg.TickInterval)
	s.done = make(chan struct{})
	s.wg.Add(1)
	go s.run(s.ticker, s.done)
	s.mu.Unlock()

	s.notify(model.StatusConnected)
}

func (s *Simulator) run(ticker *time.Ticker, done chan struct{}) {
	defer s.wg.Done()
	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			s.emit()
		}
	}
}

// Stop tears the session down: cancels any pending connect timer, stops the
// tick loop, and waits for it to exit, so no tick callback runs after Stop
// returns. Calling Stop when already disconnected is a no-op.
func (s *Simulator) Stop() {
	s.notifyMu.Lock()
	defer s.notifyMu.Unlock()

	s.mu.Lock()
	if s.status == model.StatusDisconnected {
		s.mu.Unlock()
		return
	}
	if s.connectTimer != nil {
		s.connectTimer.Stop()
		s.connectTimer = nil
	}
	if s.ticker != nil {
		s.ticker.Stop()
		s.ticker = nil
	}
	done := s.done
	s.done = nil
	s.status = model.StatusDisconnected
	s.mu.Unlock()

	if done != nil {
		close(done)
		s.wg.Wait()
	}
	s.notify(model.StatusDisconnected)
}

// Status returns the current connection state.
func (s *Simulator) Status() model.Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

// TickCount returns the number of ticks emitted so far. Monotonic for the
// lifetime of the simulator, including across restarts.
func (s *Simulator) TickCount() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ticks
}

// Snapshot returns a copy of the current enriched window, oldest first.
func (s *Simulator) Snapshot() []model.EnrichedPoint {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.EnrichedPoint, len(s.enriched))
	copy(out, s.enriched)
	return out
}

// emit produces one tick: walk the primary and each comparison price, append
// to the window (evicting oldest beyond capacity) and re-enrich the whole
// window. Full recompute is deliberate — the lookbacks (20, 14) are far
// smaller than the window, so recomputing is cheap and avoids incremental
// state drift.
func (s *Simulator) emit() {
	s.mu.Lock()
	if s.status != model.StatusConnected {
		// Raced with Stop — the teardown already owns the session.
		s.mu.Unlock()
		return
	}

	last, ok := s.win.Last()
	if !ok {
		last = model.PricePoint{Value: 100}
	}

	next := model.PricePoint{
		Date:  time.Now().UTC().Format(model.TimeFormat),
		Value: s.walk(last.Value),
	}
	if len(last.Compare) > 0 {
		next.Compare = make(map[string]float64, len(last.Compare))
		// Sorted keys keep the rand draw order stable run to run.
		keys := make([]string, 0, len(last.Compare))
		for k := range last.Compare {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			next.Compare[k] = s.walk(last.Compare[k])
		}
	}

	s.win.Push(next)
	s.enriched = enrich.Enrich(s.win.Points())
	s.ticks++

	var snapshot []model.EnrichedPoint
	if s.OnTick != nil {
		snapshot = make([]model.EnrichedPoint, len(s.enriched))
		copy(snapshot, s.enriched)
	}
	onTick := s.OnTick
	s.mu.Unlock()

	if onTick != nil {
		onTick(snapshot)
	}
}

// walk applies one random fractional change in [-maxChange, +maxChange]
// multiplicatively to the given price.
func (s *Simulator) walk(price float64) float64 {
	pct := (s.cfg.Rand.Float64()*2 - 1) * maxChange
	return price * (1 + pct)
}

func (s *Simulator) notify(st model.Status) {
	if s.OnStatus != nil {
		s.OnStatus(st)
	}
}
