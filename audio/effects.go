// Package audio synthesizes and plays the reveal cues.
package audio

import (
	"math"
	"time"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/effects"
)

// SampleRate is the synthesis and playback rate
const SampleRate = beep.SampleRate(44100)

// WaveType defines oscillator wave shapes
type WaveType int

const (
	WaveSine WaveType = iota
	WaveSquare
	WaveTriangle
)

// Cue identifies a sound played at a reveal transition
type Cue int

const (
	CueStart Cue = iota // reveal animation begins
	CueDone             // every tile revealed
)

// String implements fmt.Stringer
func (c Cue) String() string {
	switch c {
	case CueStart:
		return "start"
	case CueDone:
		return "done"
	default:
		return "unknown"
	}
}

const (
	blipNoteDuration  = 60 * time.Millisecond
	blipAttack        = 5 * time.Millisecond
	blipRelease       = 30 * time.Millisecond
	chimeNoteDuration = 140 * time.Millisecond
	chimeLastDuration = 420 * time.Millisecond
	chimeAttack       = 8 * time.Millisecond
	chimeRelease      = 110 * time.Millisecond
	chimeLastRelease  = 350 * time.Millisecond
)

// oscillator generates a raw periodic wave for a fixed number of samples
type oscillator struct {
	freq     float64
	phase    float64
	duration int
	position int
	wave     WaveType
	rate     beep.SampleRate
}

// NewOscillator creates a new oscillator for wave generation
func NewOscillator(freq float64, duration time.Duration, wave WaveType, rate beep.SampleRate) beep.Streamer {
	return &oscillator{
		freq:     freq,
		duration: rate.N(duration),
		wave:     wave,
		rate:     rate,
	}
}

func (o *oscillator) Stream(samples [][2]float64) (n int, ok bool) {
	for i := range samples {
		if o.position >= o.duration {
			return i, i > 0
		}

		var val float64
		switch o.wave {
		case WaveSine:
			val = math.Sin(2 * math.Pi * o.phase)
		case WaveSquare:
			if o.phase < 0.5 {
				val = 1.0
			} else {
				val = -1.0
			}
		case WaveTriangle:
			val = 1 - 4*math.Abs(o.phase-0.5)
		}

		samples[i][0] = val
		samples[i][1] = val

		o.phase += o.freq / float64(o.rate)
		o.phase -= math.Floor(o.phase)
		o.position++
	}
	return len(samples), true
}

func (o *oscillator) Err() error { return nil }

// envelope applies linear attack/release shaping to a stream
type envelope struct {
	streamer       beep.Streamer
	position       int
	attackSamples  int
	releaseSamples int
	sustainSamples int
	totalSamples   int
}

// NewEnvelope creates an attack/sustain/release envelope over duration
func NewEnvelope(s beep.Streamer, duration, attack, release time.Duration, rate beep.SampleRate) beep.Streamer {
	total := rate.N(duration)
	att := rate.N(attack)
	rel := rate.N(release)
	sus := max(total-att-rel, 0)

	return &envelope{
		streamer:       s,
		attackSamples:  att,
		releaseSamples: rel,
		sustainSamples: sus,
		totalSamples:   total,
	}
}

func (e *envelope) Stream(samples [][2]float64) (n int, ok bool) {
	n, ok = e.streamer.Stream(samples)

	for i := 0; i < n; i++ {
		if e.position >= e.totalSamples {
			return i, i > 0
		}

		vol := 1.0
		if e.position < e.attackSamples && e.attackSamples > 0 {
			vol = float64(e.position) / float64(e.attackSamples)
		}
		releaseStart := e.attackSamples + e.sustainSamples
		if e.position >= releaseStart && e.releaseSamples > 0 {
			vol = max(float64(e.totalSamples-e.position)/float64(e.releaseSamples), 0)
		}

		samples[i][0] *= vol
		samples[i][1] *= vol
		e.position++
	}

	return n, ok
}

func (e *envelope) Err() error { return e.streamer.Err() }

// newVolume wraps s with a linear gain
// math.Log2(0) is -Inf, so zero volume maps to a silent effect
func newVolume(s beep.Streamer, vol float64) beep.Streamer {
	if vol <= 0 {
		return &effects.Volume{Streamer: s, Base: 2, Volume: 0, Silent: true}
	}
	return &effects.Volume{Streamer: s, Base: 2, Volume: math.Log2(vol), Silent: false}
}

// note is one enveloped tone with a quiet octave overtone
func note(freq float64, duration, attack, release time.Duration, wave WaveType) beep.Streamer {
	fund := NewEnvelope(NewOscillator(freq, duration, wave, SampleRate), duration, attack, release, SampleRate)
	over := NewEnvelope(NewOscillator(freq*2, duration, WaveSine, SampleRate), duration, attack, release/2, SampleRate)
	return beep.Mix(newVolume(fund, 0.75), newVolume(over, 0.25))
}

// CreateStartBlip generates a rising two-note blip (E5, A5)
func CreateStartBlip(volume float64) beep.Streamer {
	seq := beep.Seq(
		note(659.25, blipNoteDuration, blipAttack, blipRelease, WaveTriangle),
		note(880.00, blipNoteDuration, blipAttack, blipRelease, WaveTriangle),
	)
	return newVolume(seq, volume)
}

// CreateDoneChime generates a major arpeggio (C6, E6, G6) with a long final note
func CreateDoneChime(volume float64) beep.Streamer {
	seq := beep.Seq(
		note(1046.50, chimeNoteDuration, chimeAttack, chimeRelease, WaveSine),
		note(1318.51, chimeNoteDuration, chimeAttack, chimeRelease, WaveSine),
		note(1567.98, chimeLastDuration, chimeAttack, chimeLastRelease, WaveSine),
	)
	return newVolume(seq, volume)
}

// CueDuration returns the length of a cue
func CueDuration(c Cue) time.Duration {
	switch c {
	case CueStart:
		return 2 * blipNoteDuration
	case CueDone:
		return 2*chimeNoteDuration + chimeLastDuration
	default:
		return 0
	}
}

// CreateCue returns a fresh streamer for the cue, nil for unknown cues
func CreateCue(c Cue, volume float64) beep.Streamer {
	switch c {
	case CueStart:
		return CreateStartBlip(volume)
	case CueDone:
		return CreateDoneChime(volume)
	default:
		return nil
	}
}
