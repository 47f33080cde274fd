package main

import (
	"errors"
	"testing"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/lucasb-eyer/go-colorful"

	"github.com/lixenwraith/pixel-reveal/engine"
	"github.com/lixenwraith/pixel-reveal/render"
	"github.com/lixenwraith/pixel-reveal/status"
	"github.com/lixenwraith/pixel-reveal/tile"
)

// inlinePoster runs posted work immediately on the caller
type inlinePoster struct {
	posted int
}

func (p *inlinePoster) Post(fn func()) bool {
	p.posted++
	fn()
	return true
}

type fakeMuter struct {
	muted bool
}

func (m *fakeMuter) ToggleMute() bool {
	m.muted = !m.muted
	return m.muted
}

const settle = 10 * time.Millisecond

func newTestApp(t *testing.T) (*app, *engine.SteppedScheduler, *inlinePoster, *fakeMuter) {
	t.Helper()

	sched := engine.NewSteppedScheduler(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	g := tile.Group{Name: "dot", Width: 2, Height: 1}
	g.Tiles = append(g.Tiles,
		tile.NewRect(0, 0, 1, 1, colorful.Color{R: 1}),
		tile.NewRect(1, 0, 1, 1, colorful.Color{B: 1}),
	)
	groups := []tile.Group{g}

	var sink status.AtomicString
	eng := engine.New(
		engine.GroupSourceFunc(func() []tile.Group { return groups }),
		sched,
		&sink,
		engine.WithDuration(100*time.Millisecond),
		engine.WithSettleDelay(settle),
		engine.WithTimeProvider(sched.Clock()),
		engine.WithSeed(7),
	)

	p := &inlinePoster{}
	m := &fakeMuter{}
	return &app{loop: p, engine: eng, audio: m, logger: engine.NopLogger()}, sched, p, m
}

func key(k tcell.Key) *tcell.EventKey {
	return tcell.NewEventKey(k, 0, tcell.ModNone)
}

func char(r rune) *tcell.EventKey {
	return tcell.NewEventKey(tcell.KeyRune, r, tcell.ModNone)
}

func TestHandleEvent_QuitKeys(t *testing.T) {
	a, _, _, _ := newTestApp(t)
	for _, ev := range []tcell.Event{char('q'), char('Q'), key(tcell.KeyEscape), key(tcell.KeyCtrlC)} {
		if a.handleEvent(ev) {
			t.Errorf("Expected %v to quit", ev)
		}
	}
	if !a.handleEvent(char('x')) {
		t.Error("Unbound key must not quit")
	}
}

func TestHandleEvent_ShuffleStartsEngine(t *testing.T) {
	a, sched, p, _ := newTestApp(t)

	if !a.handleEvent(char('n')) {
		t.Fatal("Shuffle must not quit")
	}
	if p.posted != 1 {
		t.Errorf("Expected 1 posted task, got %d", p.posted)
	}
	if a.engine.State() != engine.StateScheduled {
		t.Fatalf("Expected scheduled, got %v", a.engine.State())
	}

	sched.Step(settle)
	if a.engine.State() != engine.StateAnimating {
		t.Errorf("Expected animating after settle delay, got %v", a.engine.State())
	}
}

func TestHandleEvent_ReplayWithoutScheduleIsNoop(t *testing.T) {
	a, sched, p, _ := newTestApp(t)

	a.handleEvent(key(tcell.KeyEnter))
	a.handleEvent(char('r'))
	if p.posted != 2 {
		t.Errorf("Expected 2 posted tasks, got %d", p.posted)
	}
	if a.engine.State() != engine.StateIdle {
		t.Errorf("Expected idle, got %v", a.engine.State())
	}
	if sched.PendingFrames() != 0 {
		t.Errorf("Expected no frame requests, got %d", sched.PendingFrames())
	}
}

func TestHandleEvent_ReplayKeepsOrder(t *testing.T) {
	a, sched, _, _ := newTestApp(t)

	a.handleEvent(char('n'))
	sched.RunUntilIdle(16*time.Millisecond, 100)
	if a.engine.State() != engine.StateComplete {
		t.Fatalf("Expected complete, got %v", a.engine.State())
	}
	before := a.engine.Schedule().Entries()

	a.handleEvent(char('r'))
	if a.engine.State() != engine.StateAnimating {
		t.Fatalf("Expected animating after replay, got %v", a.engine.State())
	}
	after := a.engine.Schedule().Entries()
	for i := range before {
		if before[i].Tile != after[i].Tile {
			t.Fatalf("Replay changed the order at %d", i)
		}
	}
}

func TestHandleEvent_Mute(t *testing.T) {
	a, _, p, m := newTestApp(t)

	a.handleEvent(char('m'))
	if !m.muted {
		t.Error("Expected muted after m")
	}
	a.handleEvent(char('M'))
	if m.muted {
		t.Error("Expected unmuted after second toggle")
	}
	if p.posted != 0 {
		t.Errorf("Mute must not touch the engine, posted %d", p.posted)
	}

	a.audio = nil
	if !a.handleEvent(char('m')) {
		t.Error("Mute without audio must not quit")
	}
}

func TestHandleEvent_Resize(t *testing.T) {
	a, _, _, _ := newTestApp(t)
	screen := tcell.NewSimulationScreen("UTF-8")
	if err := screen.Init(); err != nil {
		t.Fatal(err)
	}
	defer screen.Fini()
	a.screen = screen

	if !a.handleEvent(tcell.NewEventResize(40, 10)) {
		t.Error("Resize must not quit")
	}
}

type fakeReloader struct {
	groups []tile.Group
	err    error
	calls  int
}

func (r *fakeReloader) Reload() ([]tile.Group, error) {
	r.calls++
	return r.groups, r.err
}

func dotGroup(name string, n int) tile.Group {
	g := tile.Group{Name: name, Width: float64(n), Height: 1}
	for i := 0; i < n; i++ {
		g.Tiles = append(g.Tiles, tile.NewRect(float64(i), 0, 1, 1, colorful.Color{G: 1}))
	}
	return g
}

func TestHandleEvent_ReloadSwapsStageAndRestarts(t *testing.T) {
	sched := engine.NewSteppedScheduler(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	stage := render.NewStage([]tile.Group{dotGroup("old", 2)}, 4)
	var sink status.AtomicString
	eng := engine.New(stage, sched, &sink,
		engine.WithSettleDelay(settle),
		engine.WithTimeProvider(sched.Clock()),
		engine.WithSeed(1),
	)

	figures := &fakeReloader{groups: []tile.Group{dotGroup("a", 3), dotGroup("b", 4)}}
	p := &inlinePoster{}
	a := &app{loop: p, engine: eng, figures: figures, stage: stage, logger: engine.NopLogger()}

	a.handleEvent(char('n'))
	sched.Step(settle)
	if eng.State() != engine.StateAnimating {
		t.Fatalf("Expected animating before reload, got %v", eng.State())
	}

	if !a.handleEvent(char('l')) {
		t.Fatal("Reload must not quit")
	}
	if figures.calls != 1 {
		t.Errorf("Expected 1 reload, got %d", figures.calls)
	}
	if got := len(stage.Groups()); got != 2 {
		t.Fatalf("Expected 2 groups on stage, got %d", got)
	}
	if eng.State() != engine.StateScheduled {
		t.Errorf("Expected scheduled after reload, got %v", eng.State())
	}
	if eng.Schedule().Len() != 7 {
		t.Errorf("Expected 7 scheduled tiles, got %d", eng.Schedule().Len())
	}
	if sink.Load() != "7 pixels." {
		t.Errorf("Unexpected status %q", sink.Load())
	}

	// A failed reload keeps the stage
	figures.err = errors.New("disk gone")
	posted := p.posted
	a.handleEvent(char('l'))
	if p.posted != posted || len(stage.Groups()) != 2 {
		t.Error("Failed reload must not touch the stage or engine")
	}
}

func TestRun_StopsOnQuitOrNil(t *testing.T) {
	a, _, p, _ := newTestApp(t)

	events := make(chan tcell.Event, 4)
	events <- char('n')
	events <- char('q')
	events <- char('n')
	a.run(events)
	if p.posted != 1 {
		t.Errorf("Expected processing to stop at q, posted %d", p.posted)
	}

	events = make(chan tcell.Event, 2)
	events <- nil
	events <- char('n')
	a.run(events)
	if p.posted != 1 {
		t.Errorf("Expected processing to stop at nil event, posted %d", p.posted)
	}
}

func TestApplyFlags_OnlyExplicit(t *testing.T) {
	if _, err := loadConfig(defaultConfigPath + ".missing"); err == nil {
		t.Fatal("Expected error for a missing non-default config")
	}

	cfg, err := loadConfig(defaultConfigPath)
	if err != nil {
		t.Fatalf("Missing default config must fall back, got %v", err)
	}
	before := *cfg
	applyFlags(cfg)
	if cfg.Reveal.Duration != before.Reveal.Duration || cfg.Stage.AssetsDir != before.Stage.AssetsDir {
		t.Error("Unset flags must not override config")
	}
}

func TestSourcesFrom(t *testing.T) {
	if sourcesFrom(nil) != nil {
		t.Error("Expected nil sources for no figures")
	}
}
