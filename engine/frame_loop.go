package engine

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/lixenwraith/pixel-reveal/core"
	"github.com/lixenwraith/pixel-reveal/status"
)

// DefaultFrameInterval is ~60 frames per second
const DefaultFrameInterval = 16 * time.Millisecond

// FrameLoop is the real-time FrameScheduler
// One goroutine owns every callback: posted tasks, fired timers and frame callbacks
// run strictly one after another, so engine state needs no locks
type FrameLoop struct {
	clock    TimeProvider
	interval time.Duration

	// Owned by the loop goroutine
	frames frameQueue

	// Called after each frame's callbacks, on the loop goroutine
	onFrame func(now time.Time)

	tasks chan func()

	// Control channels
	stopChan chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
	running  atomic.Bool

	frameCount atomic.Uint64
	statFrames *atomic.Int64
}

// NewFrameLoop creates a stopped loop ticking at interval
// reg may be nil; when set, the frame counter is published under status.KeyFrames
func NewFrameLoop(clock TimeProvider, interval time.Duration, reg *status.Registry) *FrameLoop {
	if clock == nil {
		clock = SystemClock{}
	}
	if interval <= 0 {
		interval = DefaultFrameInterval
	}

	fl := &FrameLoop{
		clock:    clock,
		interval: interval,
		tasks:    make(chan func(), 64),
		stopChan: make(chan struct{}),
	}
	if reg != nil {
		fl.statFrames = reg.Ints.Get(status.KeyFrames)
	}
	return fl
}

// SetFrameHook sets the per-frame hook (rendering), must be called before Start
func (fl *FrameLoop) SetFrameHook(fn func(now time.Time)) {
	fl.onFrame = fn
}

// Start begins the loop
func (fl *FrameLoop) Start() {
	if fl.running.CompareAndSwap(false, true) {
		fl.wg.Add(1)
		core.Go(fl.loop)
	}
}

// Stop halts the loop and waits for the current callback to return
// Pending tasks and frames are dropped
func (fl *FrameLoop) Stop() {
	fl.stopOnce.Do(func() {
		close(fl.stopChan)
		if fl.running.CompareAndSwap(true, false) {
			fl.wg.Wait()
		}
	})
}

// Post queues fn to run on the loop goroutine, safe from any goroutine
// Returns false once the loop is stopped
func (fl *FrameLoop) Post(fn func()) bool {
	select {
	case <-fl.stopChan:
		return false
	default:
	}

	select {
	case fl.tasks <- fn:
		return true
	case <-fl.stopChan:
		return false
	}
}

// RequestFrame implements FrameScheduler, loop goroutine only
func (fl *FrameLoop) RequestFrame(fn FrameCallback) FrameID {
	return fl.frames.request(fn)
}

// CancelFrame implements FrameScheduler, loop goroutine only
func (fl *FrameLoop) CancelFrame(id FrameID) {
	fl.frames.cancel(id)
}

// AfterFunc implements FrameScheduler
// The timer goroutine only posts; fn itself runs on the loop goroutine
func (fl *FrameLoop) AfterFunc(d time.Duration, fn func()) {
	time.AfterFunc(d, func() {
		fl.Post(fn)
	})
}

// Frames returns the number of frames dispatched so far
func (fl *FrameLoop) Frames() uint64 {
	return fl.frameCount.Load()
}

// Interval returns the frame interval
func (fl *FrameLoop) Interval() time.Duration {
	return fl.interval
}

func (fl *FrameLoop) loop() {
	defer fl.wg.Done()

	ticker := time.NewTicker(fl.interval)
	defer ticker.Stop()

	for {
		select {
		case <-fl.stopChan:
			return

		case fn := <-fl.tasks:
			fn()

		case <-ticker.C:
			fl.frame()
		}
	}
}

// frame dispatches one batch of frame callbacks followed by the frame hook
func (fl *FrameLoop) frame() {
	now := fl.clock.Now()
	fl.frames.dispatch(now)

	if fl.onFrame != nil {
		fl.onFrame(now)
	}

	n := fl.frameCount.Add(1)
	if fl.statFrames != nil {
		fl.statFrames.Store(int64(n))
	}
}
