package audio

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/speaker"
)

// Output abstracts the playback device so tests can run without one
type Output interface {
	Init(rate beep.SampleRate, bufferSize int) error
	Play(s beep.Streamer)
	Lock()
	Unlock()
	Close()
}

// speakerOutput plays through the system speaker
type speakerOutput struct{}

func (speakerOutput) Init(rate beep.SampleRate, bufferSize int) error {
	return speaker.Init(rate, bufferSize)
}
func (speakerOutput) Play(s beep.Streamer) { speaker.Play(s) }
func (speakerOutput) Lock()                { speaker.Lock() }
func (speakerOutput) Unlock()              { speaker.Unlock() }
func (speakerOutput) Close()               { speaker.Close() }

// Player mixes cues into a single output stream
// Safe for concurrent use; Play never blocks on the device
type Player struct {
	mu          sync.Mutex
	out         Output
	mixer       *beep.Mixer
	volume      float64
	initialized bool

	muted  atomic.Bool
	played atomic.Int64
}

// NewPlayer creates a player on out; nil selects the system speaker
func NewPlayer(out Output, volume float64) *Player {
	if out == nil {
		out = speakerOutput{}
	}
	return &Player{
		out:    out,
		mixer:  &beep.Mixer{},
		volume: volume,
	}
}

// Initialize opens the device and starts streaming the mixer
func (p *Player) Initialize() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.initialized {
		return nil
	}

	if err := p.out.Init(SampleRate, SampleRate.N(100*time.Millisecond)); err != nil {
		return err
	}

	p.out.Play(p.mixer)
	p.initialized = true
	return nil
}

// Close clears pending cues and releases the device
func (p *Player) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.initialized {
		return
	}

	p.out.Lock()
	p.mixer.Clear()
	p.out.Unlock()
	p.out.Close()
	p.initialized = false
}

// Play queues a cue, returning false when muted, uninitialized or unknown
func (p *Player) Play(c Cue) bool {
	if p.muted.Load() {
		return false
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.initialized {
		return false
	}
	s := CreateCue(c, p.volume)
	if s == nil {
		return false
	}

	p.out.Lock()
	p.mixer.Add(s)
	p.out.Unlock()
	p.played.Add(1)
	return true
}

// ToggleMute flips the mute state and returns the new value
func (p *Player) ToggleMute() bool {
	for {
		old := p.muted.Load()
		if p.muted.CompareAndSwap(old, !old) {
			return !old
		}
	}
}

// SetMuted sets the mute state
func (p *Player) SetMuted(muted bool) {
	p.muted.Store(muted)
}

// IsMuted reports the mute state
func (p *Player) IsMuted() bool {
	return p.muted.Load()
}

// IsRunning reports whether the device is open
func (p *Player) IsRunning() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.initialized
}

// Played returns the number of cues queued since construction
func (p *Player) Played() int64 {
	return p.played.Load()
}
