package engine

import (
	"fmt"
	"log/slog"
	"math/rand/v2"
	"sync/atomic"
	"time"

	"github.com/lixenwraith/pixel-reveal/status"
	"github.com/lixenwraith/pixel-reveal/tile"
)

const (
	// DefaultDuration is the total time from first to last reveal window
	DefaultDuration = 5 * time.Second

	// DefaultSettleDelay lets the initial hide reach the screen before the first run
	DefaultSettleDelay = 150 * time.Millisecond
)

// GroupSource looks up the tile groups currently present on the rendering surface
type GroupSource interface {
	Groups() []tile.Group
}

// GroupSourceFunc adapts a function to GroupSource
type GroupSourceFunc func() []tile.Group

// Groups implements GroupSource
func (f GroupSourceFunc) Groups() []tile.Group { return f() }

// StatusSink receives the human-readable status line
type StatusSink interface {
	Store(string)
}

// Engine owns one reveal: the collected tiles, the schedule and the frame loop state
// All methods must run on the FrameScheduler goroutine
type Engine struct {
	source GroupSource
	frames FrameScheduler
	sink   StatusSink

	duration    time.Duration
	settleDelay time.Duration
	clock       TimeProvider
	rng         *rand.Rand
	logger      *slog.Logger

	onRun      func()
	onComplete func()

	// Current run
	tiles    []tile.Tile
	schedule Schedule
	state    State
	frameID  FrameID
	start    time.Time
	next     int // first schedule entry not yet revealed in this run

	// Cached metric pointers, nil without a registry
	statState    *status.AtomicString
	statTiles    *atomic.Int64
	statRevealed *atomic.Int64
	statRuns     *atomic.Int64
	statProgress *status.AtomicFloat
}

// Option configures an Engine
type Option func(*Engine)

// WithDuration sets the total reveal duration, non-positive values are ignored
func WithDuration(d time.Duration) Option {
	return func(e *Engine) {
		if d > 0 {
			e.duration = d
		}
	}
}

// WithSettleDelay sets the pause between Start and the first Run
func WithSettleDelay(d time.Duration) Option {
	return func(e *Engine) {
		if d >= 0 {
			e.settleDelay = d
		}
	}
}

// WithTimeProvider sets the clock used for run start timestamps
func WithTimeProvider(tp TimeProvider) Option {
	return func(e *Engine) {
		if tp != nil {
			e.clock = tp
		}
	}
}

// WithRand sets the random source used for shuffling
func WithRand(rng *rand.Rand) Option {
	return func(e *Engine) {
		if rng != nil {
			e.rng = rng
		}
	}
}

// WithSeed seeds a PCG source, zero keeps the random default
func WithSeed(seed uint64) Option {
	return func(e *Engine) {
		if seed != 0 {
			e.rng = rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
		}
	}
}

// WithLogger sets the logger, nil keeps the no-op default
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

// WithMetrics publishes run counters to the registry
func WithMetrics(reg *status.Registry) Option {
	return func(e *Engine) {
		if reg == nil {
			return
		}
		e.statState = reg.Strings.Get(status.KeyState)
		e.statTiles = reg.Ints.Get(status.KeyTiles)
		e.statRevealed = reg.Ints.Get(status.KeyRevealed)
		e.statRuns = reg.Ints.Get(status.KeyRuns)
		e.statProgress = reg.Floats.Get(status.KeyProgress)
	}
}

// WithOnRun registers a hook invoked at the start of every run
func WithOnRun(fn func()) Option {
	return func(e *Engine) { e.onRun = fn }
}

// WithOnComplete registers a hook invoked when a run reaches its duration
func WithOnComplete(fn func()) Option {
	return func(e *Engine) { e.onComplete = fn }
}

// New creates an idle engine
func New(source GroupSource, frames FrameScheduler, sink StatusSink, opts ...Option) *Engine {
	e := &Engine{
		source:      source,
		frames:      frames,
		sink:        sink,
		duration:    DefaultDuration,
		settleDelay: DefaultSettleDelay,
		clock:       SystemClock{},
		rng:         rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())),
		logger:      NopLogger(),
	}
	for _, opt := range opts {
		opt(e)
	}
	e.setState(StateIdle)
	return e
}

// Start collects the tiles, builds a fresh schedule and runs it after the settle delay
// An empty collection completes immediately with a status, without any frame request
func (e *Engine) Start() {
	e.cancelFrame()

	var groups []tile.Group
	if e.source != nil {
		groups = e.source.Groups()
	}
	tiles := tile.Collect(groups)

	if len(tiles) == 0 {
		e.logger.Info("reveal start: no tiles", "groups", len(groups))
		e.setState(StateComplete)
		e.report(StatusNoTiles)
		return
	}

	e.tiles = tiles
	e.hideAll()
	e.schedule = NewSchedule(tiles, e.duration, e.rng)
	e.next = 0
	e.setState(StateScheduled)
	e.publishCounts()
	e.report(fmt.Sprintf("%d pixels.", len(tiles)))

	e.logger.Info("reveal scheduled",
		"tiles", len(tiles),
		"groups", len(groups),
		"duration", e.duration,
		"settle", e.settleDelay,
	)

	// Not cancellable, a stale delayed Run restarts timing from its own timestamp
	e.frames.AfterFunc(e.settleDelay, e.Run)
}

// Run plays the current schedule from elapsed zero
// Any in-flight frame request is cancelled first so at most one loop is live
func (e *Engine) Run() {
	e.cancelFrame()

	if e.schedule.Len() == 0 {
		return
	}

	e.hideAll()
	e.next = 0
	e.start = e.clock.Now()
	e.setState(StateAnimating)
	e.publishProgress()
	if e.statRuns != nil {
		e.statRuns.Add(1)
	}
	e.report(StatusRevealing)

	if e.onRun != nil {
		e.onRun()
	}

	e.frameID = e.frames.RequestFrame(e.tick)
}

// Replay reruns the existing schedule without reshuffling
// Without a schedule (never started, or started with no tiles) it does nothing
func (e *Engine) Replay() {
	if e.schedule.Len() == 0 {
		return
	}
	e.logger.Debug("reveal replay", "tiles", e.schedule.Len())
	e.setState(StateScheduled)
	e.Run()
}

// Cancel drops the outstanding frame request and leaves tiles as they are
// The schedule is kept so Replay still works
func (e *Engine) Cancel() {
	e.cancelFrame()
	if e.state == StateAnimating {
		e.setState(StateIdle)
	}
}

// tick is the per-frame callback
func (e *Engine) tick(now time.Time) {
	e.frameID = 0
	elapsed := now.Sub(e.start)

	// Entries are ordered by reveal time, so the due set is a prefix
	for e.next < e.schedule.Len() && e.schedule.entries[e.next].RevealAt <= elapsed {
		e.schedule.entries[e.next].Tile.Reveal()
		e.next++
	}
	e.publishProgress()

	if elapsed < e.duration {
		e.frameID = e.frames.RequestFrame(e.tick)
		return
	}

	e.setState(StateComplete)
	e.report(StatusDone)
	e.logger.Info("reveal complete", "tiles", e.schedule.Len(), "elapsed", elapsed)

	if e.onComplete != nil {
		e.onComplete()
	}
}

func (e *Engine) cancelFrame() {
	if e.frameID != 0 {
		e.frames.CancelFrame(e.frameID)
		e.frameID = 0
	}
}

func (e *Engine) hideAll() {
	for _, t := range e.tiles {
		t.Hide()
	}
}

func (e *Engine) report(msg string) {
	if e.sink != nil {
		e.sink.Store(msg)
	}
}

func (e *Engine) setState(s State) {
	e.state = s
	if e.statState != nil {
		e.statState.Store(s.String())
	}
}

func (e *Engine) publishCounts() {
	if e.statTiles != nil {
		e.statTiles.Store(int64(len(e.tiles)))
	}
	e.publishProgress()
}

func (e *Engine) publishProgress() {
	if e.statRevealed == nil {
		return
	}
	e.statRevealed.Store(int64(e.next))
	if n := e.schedule.Len(); n > 0 {
		e.statProgress.Set(float64(e.next) / float64(n))
	}
}

// State returns the current run state
func (e *Engine) State() State {
	return e.state
}

// Schedule returns the current schedule, empty before the first non-empty Start
func (e *Engine) Schedule() Schedule {
	return e.schedule
}

// Revealed returns how many tiles the current run has revealed
func (e *Engine) Revealed() int {
	return e.next
}

// Duration returns the configured run duration
func (e *Engine) Duration() time.Duration {
	return e.duration
}

// Pending reports whether a frame request is outstanding
func (e *Engine) Pending() bool {
	return e.frameID != 0
}
