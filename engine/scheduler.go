package engine

import "time"

// FrameID identifies one outstanding frame request
// Zero is never issued and means "no request"
type FrameID uint64

// FrameCallback receives the timestamp of the frame being dispatched
type FrameCallback func(now time.Time)

// FrameScheduler is the frame-synchronized callback primitive the engine runs on
// All methods are called from the scheduler's own goroutine
type FrameScheduler interface {
	// RequestFrame schedules fn for the next frame and returns its handle
	RequestFrame(fn FrameCallback) FrameID

	// CancelFrame drops a pending request, unknown or fired ids are ignored
	CancelFrame(id FrameID)

	// AfterFunc runs fn on the scheduler goroutine once d has elapsed
	AfterFunc(d time.Duration, fn func())
}

// frameQueue holds pending frame callbacks in request order
// Shared by FrameLoop and SteppedScheduler; not safe for concurrent use
type frameQueue struct {
	nextID  FrameID
	pending []pendingFrame
	running map[FrameID]bool // batch being dispatched, false once cancelled
}

type pendingFrame struct {
	id FrameID
	fn FrameCallback
}

func (q *frameQueue) request(fn FrameCallback) FrameID {
	q.nextID++
	q.pending = append(q.pending, pendingFrame{id: q.nextID, fn: fn})
	return q.nextID
}

func (q *frameQueue) cancel(id FrameID) {
	if id == 0 {
		return
	}
	if _, ok := q.running[id]; ok {
		q.running[id] = false
	}
	for i, p := range q.pending {
		if p.id == id {
			q.pending = append(q.pending[:i], q.pending[i+1:]...)
			return
		}
	}
}

// dispatch runs the callbacks requested before this frame began
// Callbacks requested while the batch runs land in the next frame
func (q *frameQueue) dispatch(now time.Time) int {
	batch := q.pending
	q.pending = nil
	if len(batch) == 0 {
		return 0
	}

	q.running = make(map[FrameID]bool, len(batch))
	for _, p := range batch {
		q.running[p.id] = true
	}

	n := 0
	for _, p := range batch {
		if !q.running[p.id] {
			continue
		}
		p.fn(now)
		n++
	}
	q.running = nil
	return n
}

func (q *frameQueue) len() int {
	return len(q.pending)
}
