// Package terminal runs the per-token scheduled content broadcaster: an
// independent repeating timer per token that generates entries, keeps a
// bounded live history plus a larger bounded archive, and fans new entries
// out to the token's subscribers.
package terminal

import (
	"context"
	"encoding/json"
	"log"
	"sync"
	"time"

	"token-launchpad/internal/domain"
	"token-launchpad/internal/hub"
	"token-launchpad/internal/observability"
)

// State is the terminal lifecycle state.
type State int

const (
	Stopped State = iota
	Running
)

// String returns the string representation of State.
func (s State) String() string {
	if s == Running {
		return "running"
	}
	return "stopped"
}

// Generator produces terminal content for a token.
type Generator interface {
	Generate(ctx context.Context, token *domain.Token, contentType domain.ContentType) (string, error)
}

// Default retention and scheduling parameters.
const (
	DefaultInterval   = 45 * time.Second
	DefaultHistoryCap = 50
	DefaultArchiveCap = 1000

	bootText     = "terminal online. watching the curve."
	fallbackText = "transmission lost. regaining signal."
)

// wireEntry is the broadcast envelope for a content entry.
type wireEntry struct {
	Kind  string               `json:"kind"`
	Entry *domain.ContentEntry `json:"entry"`
}

// Terminal is the per-token broadcaster state machine. Transitions are
// explicit: Start arms the timer, Stop cancels it. The round-robin content
// rotation and both retention buffers are owned state, guarded by mu.
type Terminal struct {
	token      *domain.Token
	generator  Generator
	feed       *hub.Hub
	interval   time.Duration
	historyCap int
	archiveCap int
	metrics    *observability.Metrics
	logger     *log.Logger

	mu       sync.Mutex
	state    State
	cancel   context.CancelFunc
	rotation int // index into domain.ContentRotation
	history  []*domain.ContentEntry
	archive  []*domain.ContentEntry

	wg sync.WaitGroup

	// now is swappable for tests; returns Unix milliseconds.
	now func() int64
}

// Config configures a Terminal.
type Config struct {
	Generator  Generator
	Feed       *hub.Hub      // per-token content hub, topic = mint
	Interval   time.Duration // default: DefaultInterval
	HistoryCap int           // default: DefaultHistoryCap
	ArchiveCap int           // default: DefaultArchiveCap
	Metrics    *observability.Metrics
	Logger     *log.Logger
}

// New creates a stopped terminal for a token.
func New(token *domain.Token, cfg Config) *Terminal {
	interval := cfg.Interval
	if interval == 0 {
		interval = DefaultInterval
	}
	historyCap := cfg.HistoryCap
	if historyCap == 0 {
		historyCap = DefaultHistoryCap
	}
	archiveCap := cfg.ArchiveCap
	if archiveCap == 0 {
		archiveCap = DefaultArchiveCap
	}
	logger := cfg.Logger
	if logger == nil {
		logger = log.Default()
	}

	return &Terminal{
		token:      token,
		generator:  cfg.Generator,
		feed:       cfg.Feed,
		interval:   interval,
		historyCap: historyCap,
		archiveCap: archiveCap,
		metrics:    cfg.Metrics,
		logger:     logger,
		now:        func() int64 { return time.Now().UnixMilli() },
	}
}

// Start transitions the terminal to running: appends a synthetic boot entry,
// performs one generation cycle immediately, then ticks on the interval.
// No-op if already running.
func (t *Terminal) Start(ctx context.Context) {
	t.mu.Lock()
	if t.state == Running {
		t.mu.Unlock()
		return
	}
	t.state = Running

	runCtx, cancel := context.WithCancel(ctx)
	t.cancel = cancel

	boot := &domain.ContentEntry{
		Mint:      t.token.Mint,
		Type:      domain.ContentTypeSystem,
		Text:      bootText,
		CreatedAt: t.now(),
	}
	t.appendLocked(boot)
	t.mu.Unlock()

	if t.metrics != nil {
		t.metrics.TerminalsRunning.Inc()
	}
	t.broadcast(boot)

	t.wg.Add(1)
	go t.loop(runCtx)
}

// Stop cancels the timer and transitions to stopped. A generation already in
// flight is discarded: the running-state check in append rejects its result.
// Idempotent.
func (t *Terminal) Stop() {
	t.mu.Lock()
	if t.state == Stopped {
		t.mu.Unlock()
		return
	}
	t.state = Stopped
	cancel := t.cancel
	t.cancel = nil
	t.mu.Unlock()

	if t.metrics != nil {
		t.metrics.TerminalsRunning.Dec()
	}
	if cancel != nil {
		cancel()
	}
	t.wg.Wait()
}

// State returns the current lifecycle state.
func (t *Terminal) State() State {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}

// History returns a copy of the live history, oldest first.
func (t *Terminal) History() []*domain.ContentEntry {
	t.mu.Lock()
	defer t.mu.Unlock()
	return copyEntries(t.history)
}

// Archive returns a copy of the archive, oldest first.
func (t *Terminal) Archive() []*domain.ContentEntry {
	t.mu.Lock()
	defer t.mu.Unlock()
	return copyEntries(t.archive)
}

// loop runs generation cycles until the context is cancelled. The first
// cycle runs immediately; subsequent ones on the ticker.
func (t *Terminal) loop(ctx context.Context) {
	defer t.wg.Done()

	t.cycle(ctx)

	ticker := time.NewTicker(t.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			t.cycle(ctx)
		}
	}
}

// cycle generates the next entry in the rotation, appends it to both
// buffers, and fans it out. Generation failures substitute a deterministic
// fallback entry so the history never has gaps.
func (t *Terminal) cycle(ctx context.Context) {
	t.mu.Lock()
	if t.state != Running {
		t.mu.Unlock()
		return
	}
	contentType := domain.ContentRotation[t.rotation%len(domain.ContentRotation)]
	t.rotation++
	t.mu.Unlock()

	if t.metrics != nil {
		t.metrics.TerminalCycles.Inc()
	}

	text, err := t.generator.Generate(ctx, t.token, contentType)
	if err != nil {
		t.logger.Printf("Generation failed for %s (%s): %v", t.token.Mint, contentType, err)
		if t.metrics != nil {
			t.metrics.ContentGenErrors.Inc()
		}
		text = fallbackText
	}

	entry := &domain.ContentEntry{
		Mint:      t.token.Mint,
		Type:      contentType,
		Text:      text,
		CreatedAt: t.now(),
	}

	// Discard results that arrive after Stop
	t.mu.Lock()
	if t.state != Running {
		t.mu.Unlock()
		return
	}
	t.appendLocked(entry)
	t.mu.Unlock()

	t.broadcast(entry)
}

// appendLocked pushes an entry into both bounded buffers, evicting the
// oldest beyond each cap. Caller must hold t.mu.
func (t *Terminal) appendLocked(entry *domain.ContentEntry) {
	t.history = append(t.history, entry)
	if len(t.history) > t.historyCap {
		t.history = t.history[len(t.history)-t.historyCap:]
	}
	t.archive = append(t.archive, entry)
	if len(t.archive) > t.archiveCap {
		t.archive = t.archive[len(t.archive)-t.archiveCap:]
	}
}

// broadcast fans an entry out to the token's current subscribers.
func (t *Terminal) broadcast(entry *domain.ContentEntry) {
	if t.feed == nil {
		return
	}
	msg, err := json.Marshal(wireEntry{Kind: "terminal", Entry: entry})
	if err != nil {
		t.logger.Printf("Marshal terminal entry: %v", err)
		return
	}
	t.feed.Broadcast(t.token.Mint, msg)
}

func copyEntries(entries []*domain.ContentEntry) []*domain.ContentEntry {
	result := make([]*domain.ContentEntry, len(entries))
	for i, e := range entries {
		cp := *e
		result[i] = &cp
	}
	return result
}
