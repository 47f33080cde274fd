package engine

import (
	"testing"
	"time"

	"github.com/lucasb-eyer/go-colorful"

	"github.com/lixenwraith/pixel-reveal/status"
	"github.com/lixenwraith/pixel-reveal/tile"
)

// recordingSink keeps every status line in order
type recordingSink struct {
	lines []string
}

func (s *recordingSink) Store(v string) { s.lines = append(s.lines, v) }

func (s *recordingSink) last() string {
	if len(s.lines) == 0 {
		return ""
	}
	return s.lines[len(s.lines)-1]
}

const testFrame = 16 * time.Millisecond

var testEpoch = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

type fixture struct {
	sched  *SteppedScheduler
	sink   *recordingSink
	engine *Engine
	rects  []*tile.Rect
	reg    *status.Registry
}

func newFixture(t *testing.T, groupSizes ...int) *fixture {
	t.Helper()

	f := &fixture{
		sched: NewSteppedScheduler(testEpoch),
		sink:  &recordingSink{},
		reg:   status.NewRegistry(),
	}

	var groups []tile.Group
	for gi, n := range groupSizes {
		g := tile.Group{Name: string(rune('a' + gi))}
		for i := 0; i < n; i++ {
			r := tile.NewRect(float64(i), float64(gi), 1, 1, colorful.Color{G: 1})
			r.Reveal() // start visible so hiding is observable
			f.rects = append(f.rects, r)
			g.Tiles = append(g.Tiles, r)
		}
		groups = append(groups, g)
	}

	f.engine = New(
		GroupSourceFunc(func() []tile.Group { return groups }),
		f.sched,
		f.sink,
		WithDuration(5000*time.Millisecond),
		WithSettleDelay(150*time.Millisecond),
		WithTimeProvider(f.sched.Clock()),
		WithSeed(1234),
		WithMetrics(f.reg),
	)
	return f
}

func (f *fixture) visible() int {
	n := 0
	for _, r := range f.rects {
		if r.Visible() {
			n++
		}
	}
	return n
}

// runToCompletion steps frames until the engine completes, bounded to avoid hangs
func (f *fixture) runToCompletion(t *testing.T) {
	t.Helper()
	for i := 0; i < 1000 && f.engine.State() != StateComplete; i++ {
		f.sched.Step(testFrame)
	}
	if f.engine.State() != StateComplete {
		t.Fatalf("Engine did not complete, state=%v", f.engine.State())
	}
}

func TestEngine_EmptyInput(t *testing.T) {
	tests := []struct {
		name  string
		sizes []int
	}{
		{"no groups", nil},
		{"empty groups", []int{0, 0, 0}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, tt.sizes...)
			f.engine.Start()

			if f.engine.State() != StateComplete {
				t.Errorf("Expected complete, got %v", f.engine.State())
			}
			if f.sink.last() != StatusNoTiles {
				t.Errorf("Expected %q, got %q", StatusNoTiles, f.sink.last())
			}
			if f.sched.PendingFrames() != 0 || f.sched.PendingTimers() != 0 {
				t.Error("Empty input must not schedule a frame loop")
			}

			f.sched.RunUntilIdle(testFrame, 100)
			if f.sched.Dispatched() != 0 {
				t.Errorf("Expected no frames, got %d", f.sched.Dispatched())
			}
		})
	}
}

func TestEngine_StartHidesAndSchedules(t *testing.T) {
	f := newFixture(t, 2, 3, 1)

	if f.engine.State() != StateIdle {
		t.Fatalf("Expected idle before start, got %v", f.engine.State())
	}

	f.engine.Start()

	if f.visible() != 0 {
		t.Errorf("Expected all tiles hidden after start, %d visible", f.visible())
	}
	if f.engine.State() != StateScheduled {
		t.Errorf("Expected scheduled, got %v", f.engine.State())
	}
	if f.sink.last() != "6 pixels." {
		t.Errorf("Expected \"6 pixels.\", got %q", f.sink.last())
	}
	if f.engine.Schedule().Len() != 6 {
		t.Errorf("Expected 6 entries, got %d", f.engine.Schedule().Len())
	}
	if f.sched.PendingFrames() != 0 {
		t.Error("No frame may be requested before the settle delay")
	}

	// Settle delay not yet elapsed
	f.sched.Step(100 * time.Millisecond)
	if f.engine.State() != StateScheduled {
		t.Errorf("Expected still scheduled at 100ms, got %v", f.engine.State())
	}

	f.sched.Step(50 * time.Millisecond)
	if f.engine.State() != StateAnimating {
		t.Errorf("Expected animating after settle delay, got %v", f.engine.State())
	}
}

func TestEngine_StatusTransitions(t *testing.T) {
	f := newFixture(t, 3)
	f.engine.Start()
	f.runToCompletion(t)

	want := []string{"3 pixels.", StatusRevealing, StatusDone}
	if len(f.sink.lines) != len(want) {
		t.Fatalf("Expected %v, got %v", want, f.sink.lines)
	}
	for i := range want {
		if f.sink.lines[i] != want[i] {
			t.Errorf("Status %d: expected %q, got %q", i, want[i], f.sink.lines[i])
		}
	}
}

func TestEngine_ThreeTileScenario(t *testing.T) {
	f := newFixture(t, 3)
	f.engine.Start()

	// Fire the settle timer; Run records its start at this instant
	f.sched.Clock().Advance(150 * time.Millisecond)
	f.sched.FireTimers()
	if f.visible() != 0 {
		t.Fatalf("Expected nothing revealed before the first frame, %d visible", f.visible())
	}

	for i := 0; i < 3; i++ {
		at := f.engine.Schedule().At(i).RevealAt
		want := RevealOffset(5*time.Second, int64(i), 3)
		if at != want {
			t.Errorf("Entry %d: expected %v, got %v", i, want, at)
		}
	}

	// Advance to exactly the duration in one frame
	f.sched.Step(5000 * time.Millisecond)

	if f.engine.State() != StateComplete {
		t.Errorf("Expected complete, got %v", f.engine.State())
	}
	if f.sink.last() != StatusDone {
		t.Errorf("Expected %q, got %q", StatusDone, f.sink.last())
	}
	if f.visible() != 3 {
		t.Errorf("Expected all 3 revealed, got %d", f.visible())
	}
	if f.sched.PendingFrames() != 0 {
		t.Error("No frame may be requested after completion")
	}
}

func TestEngine_RevealsOnSchedule(t *testing.T) {
	f := newFixture(t, 10)
	f.engine.Start()
	f.sched.Step(150 * time.Millisecond) // timer + first frame at elapsed 0

	sched := f.engine.Schedule()
	for elapsed := time.Duration(0); elapsed < 5*time.Second; elapsed += 250 * time.Millisecond {
		if elapsed > 0 {
			f.sched.Step(250 * time.Millisecond)
		}

		for i := 0; i < sched.Len(); i++ {
			e := sched.At(i)
			r := e.Tile.(*tile.Rect)
			due := e.RevealAt <= elapsed
			if r.Visible() != due {
				t.Fatalf("elapsed %v entry %d (at %v): visible=%v, want %v", elapsed, i, e.RevealAt, r.Visible(), due)
			}
		}
		if f.engine.Revealed() != sched.DueBy(elapsed) {
			t.Errorf("elapsed %v: Revealed()=%d, DueBy=%d", elapsed, f.engine.Revealed(), sched.DueBy(elapsed))
		}
	}
}

func TestEngine_Monotonic(t *testing.T) {
	f := newFixture(t, 20, 20)
	f.engine.Start()

	revealed := make(map[*tile.Rect]bool)
	for i := 0; i < 1000 && f.engine.State() != StateComplete; i++ {
		f.sched.Step(testFrame)
		for _, r := range f.rects {
			if revealed[r] && !r.Visible() {
				t.Fatal("Tile hidden again within a run")
			}
			if r.Visible() {
				revealed[r] = true
			}
		}
	}

	if len(revealed) != 40 {
		t.Errorf("Expected 40 revealed at completion, got %d", len(revealed))
	}
}

func TestEngine_ReplayBeforeStartIsNoop(t *testing.T) {
	f := newFixture(t, 4)

	f.engine.Replay()

	if len(f.sink.lines) != 0 {
		t.Errorf("Replay without a schedule must not report, got %v", f.sink.lines)
	}
	if f.engine.State() != StateIdle {
		t.Errorf("Expected idle, got %v", f.engine.State())
	}
	if f.sched.PendingFrames() != 0 {
		t.Error("Replay without a schedule must not request frames")
	}
}

func TestEngine_ReplayAfterEmptyStartIsNoop(t *testing.T) {
	f := newFixture(t)
	f.engine.Start()
	lines := len(f.sink.lines)

	f.engine.Replay()

	if len(f.sink.lines) != lines {
		t.Errorf("Replay after empty start changed status: %v", f.sink.lines)
	}
	if f.sched.PendingFrames() != 0 {
		t.Error("Replay after empty start must not request frames")
	}
}

func TestEngine_ReplayReusesSchedule(t *testing.T) {
	f := newFixture(t, 5, 5)
	f.engine.Start()
	f.runToCompletion(t)

	before := f.engine.Schedule().Entries()
	f.engine.Replay()

	if f.engine.State() != StateAnimating {
		t.Errorf("Expected animating after replay, got %v", f.engine.State())
	}
	if f.visible() != 0 {
		t.Errorf("Replay must re-hide all tiles, %d visible", f.visible())
	}
	if f.sink.last() != StatusRevealing {
		t.Errorf("Expected %q, got %q", StatusRevealing, f.sink.last())
	}

	after := f.engine.Schedule().Entries()
	if len(before) != len(after) {
		t.Fatalf("Schedule length changed: %d -> %d", len(before), len(after))
	}
	for i := range before {
		if before[i].Tile != after[i].Tile || before[i].RevealAt != after[i].RevealAt {
			t.Fatalf("Entry %d changed on replay", i)
		}
	}

	f.runToCompletion(t)
	if f.visible() != 10 {
		t.Errorf("Expected all revealed after replay, got %d", f.visible())
	}
}

func TestEngine_RunCancelsPreviousLoop(t *testing.T) {
	f := newFixture(t, 8)
	f.engine.Start()
	f.sched.Step(150 * time.Millisecond)
	f.sched.Step(time.Second)

	if f.sched.PendingFrames() != 1 {
		t.Fatalf("Expected one pending frame mid-run, got %d", f.sched.PendingFrames())
	}

	f.engine.Run()
	if f.sched.PendingFrames() != 1 {
		t.Errorf("Expected exactly one live loop after rerun, got %d", f.sched.PendingFrames())
	}

	f.engine.Replay()
	f.engine.Replay()
	if f.sched.PendingFrames() != 1 {
		t.Errorf("Expected exactly one live loop after replays, got %d", f.sched.PendingFrames())
	}

	// New run starts from zero: at most the zero-offset entry is due on the next frame
	f.sched.Step(0)
	if f.visible() > 1 {
		t.Errorf("Expected rerun to restart timing, %d visible", f.visible())
	}
}

func TestEngine_StaleSettleDelay(t *testing.T) {
	f := newFixture(t, 6)
	f.engine.Start()

	// Replay before the settle timer fires; the stale timer later restarts the run
	f.engine.Replay()
	f.sched.Step(100 * time.Millisecond)
	f.sched.Step(50 * time.Millisecond)

	if f.sched.PendingFrames() != 1 {
		t.Errorf("Expected one live loop, got %d", f.sched.PendingFrames())
	}

	f.runToCompletion(t)
	if f.visible() != 6 {
		t.Errorf("Expected all revealed, got %d", f.visible())
	}
}

func TestEngine_StartReshuffles(t *testing.T) {
	f := newFixture(t, 30)
	f.engine.Start()
	first := f.engine.Schedule().Entries()

	f.engine.Start()
	second := f.engine.Schedule().Entries()

	same := true
	for i := range first {
		if first[i].Tile != second[i].Tile {
			same = false
			break
		}
	}
	if same {
		t.Error("Expected a fresh permutation on a new start")
	}
}

func TestEngine_Cancel(t *testing.T) {
	f := newFixture(t, 4)
	f.engine.Start()
	f.sched.Step(150 * time.Millisecond)

	f.engine.Cancel()
	if f.engine.Pending() || f.sched.PendingFrames() != 0 {
		t.Error("Cancel must drop the outstanding frame")
	}
	if f.engine.State() != StateIdle {
		t.Errorf("Expected idle after cancel, got %v", f.engine.State())
	}

	// Cancel with nothing pending is safe
	f.engine.Cancel()

	f.engine.Replay()
	f.runToCompletion(t)
	if f.visible() != 4 {
		t.Errorf("Expected replay after cancel to complete, got %d visible", f.visible())
	}
}

func TestEngine_Hooks(t *testing.T) {
	f := newFixture(t, 2)
	runs, completes := 0, 0
	WithOnRun(func() { runs++ })(f.engine)
	WithOnComplete(func() { completes++ })(f.engine)

	f.engine.Start()
	f.runToCompletion(t)
	f.engine.Replay()
	f.runToCompletion(t)

	if runs != 2 || completes != 2 {
		t.Errorf("Expected 2 runs and 2 completions, got %d and %d", runs, completes)
	}
}

func TestEngine_Metrics(t *testing.T) {
	f := newFixture(t, 4)
	f.engine.Start()
	f.runToCompletion(t)

	snap := f.reg.Snapshot()
	if snap.Tiles != 4 || snap.Revealed != 4 {
		t.Errorf("Unexpected counters: %+v", snap)
	}
	if snap.Progress != 1 {
		t.Errorf("Expected progress 1, got %v", snap.Progress)
	}
	if snap.State != StateComplete.String() {
		t.Errorf("Expected state %q, got %q", StateComplete.String(), snap.State)
	}
	if snap.Runs != 1 {
		t.Errorf("Expected 1 run, got %d", snap.Runs)
	}
}

func TestEngine_IndependentInstances(t *testing.T) {
	a := newFixture(t, 3)
	b := newFixture(t, 5)

	a.engine.Start()
	b.engine.Start()
	a.runToCompletion(t)

	if b.engine.State() != StateScheduled {
		t.Errorf("Engine b affected by engine a, state=%v", b.engine.State())
	}
	if b.visible() != 0 {
		t.Errorf("Engine b tiles changed, %d visible", b.visible())
	}
}

func TestState_String(t *testing.T) {
	tests := map[State]string{
		StateIdle:      "idle",
		StateScheduled: "scheduled",
		StateAnimating: "animating",
		StateComplete:  "complete",
		State(99):      "unknown",
	}
	for s, want := range tests {
		if s.String() != want {
			t.Errorf("State %d: expected %q, got %q", int(s), want, s.String())
		}
	}
}
