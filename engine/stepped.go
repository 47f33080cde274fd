package engine

import (
	"sort"
	"time"
)

// SteppedScheduler is a FrameScheduler driven explicitly on a mock clock
// Each Step advances time, fires due timers, then dispatches one frame
// Used for offline export and tests; not safe for concurrent use
type SteppedScheduler struct {
	clock  *VirtualClock
	frames frameQueue
	timers []steppedTimer
	seq    int

	dispatched int
}

type steppedTimer struct {
	at  time.Time
	seq int
	fn  func()
}

// NewSteppedScheduler creates a scheduler whose clock starts at start
func NewSteppedScheduler(start time.Time) *SteppedScheduler {
	return &SteppedScheduler{
		clock: NewVirtualClock(start),
	}
}

// Clock returns the mock clock, pass it to the engine with WithTimeProvider
func (s *SteppedScheduler) Clock() *VirtualClock {
	return s.clock
}

// RequestFrame implements FrameScheduler
func (s *SteppedScheduler) RequestFrame(fn FrameCallback) FrameID {
	return s.frames.request(fn)
}

// CancelFrame implements FrameScheduler
func (s *SteppedScheduler) CancelFrame(id FrameID) {
	s.frames.cancel(id)
}

// AfterFunc implements FrameScheduler
func (s *SteppedScheduler) AfterFunc(d time.Duration, fn func()) {
	s.seq++
	s.timers = append(s.timers, steppedTimer{
		at:  s.clock.Now().Add(d),
		seq: s.seq,
		fn:  fn,
	})
}

// Step advances the clock by d, fires due timers in deadline order, then dispatches one frame
// Returns the number of frame callbacks run
func (s *SteppedScheduler) Step(d time.Duration) int {
	s.clock.Advance(d)
	s.FireTimers()
	return s.Frame()
}

// FireTimers runs every timer due at the current time
func (s *SteppedScheduler) FireTimers() {
	now := s.clock.Now()
	for {
		due := -1
		for i, t := range s.timers {
			if t.at.After(now) {
				continue
			}
			if due < 0 || t.at.Before(s.timers[due].at) ||
				(t.at.Equal(s.timers[due].at) && t.seq < s.timers[due].seq) {
				due = i
			}
		}
		if due < 0 {
			return
		}
		t := s.timers[due]
		s.timers = append(s.timers[:due], s.timers[due+1:]...)
		t.fn()
	}
}

// Frame dispatches one frame at the current time without advancing the clock
func (s *SteppedScheduler) Frame() int {
	n := s.frames.dispatch(s.clock.Now())
	s.dispatched += n
	return n
}

// RunUntilIdle steps by interval until no frames or timers remain, bounded by limit steps
// Returns the number of steps taken
func (s *SteppedScheduler) RunUntilIdle(interval time.Duration, limit int) int {
	steps := 0
	for steps < limit && (s.frames.len() > 0 || len(s.timers) > 0) {
		s.Step(interval)
		steps++
	}
	return steps
}

// PendingFrames returns the number of outstanding frame requests
func (s *SteppedScheduler) PendingFrames() int {
	return s.frames.len()
}

// PendingTimers returns the number of timers not yet fired
func (s *SteppedScheduler) PendingTimers() int {
	return len(s.timers)
}

// NextTimer returns the earliest timer deadline, ok is false when none is pending
func (s *SteppedScheduler) NextTimer() (time.Time, bool) {
	if len(s.timers) == 0 {
		return time.Time{}, false
	}
	ts := make([]time.Time, len(s.timers))
	for i, t := range s.timers {
		ts[i] = t.at
	}
	sort.Slice(ts, func(i, j int) bool { return ts[i].Before(ts[j]) })
	return ts[0], true
}

// Dispatched returns the total number of frame callbacks run
func (s *SteppedScheduler) Dispatched() int {
	return s.dispatched
}
