package engine

import (
	"math/rand/v2"
	"time"

	"github.com/lixenwraith/pixel-reveal/tile"
)

// Entry pairs a tile with the elapsed offset at which it becomes visible
type Entry struct {
	Tile     tile.Tile
	RevealAt time.Duration
}

// RevealAtMs returns the offset in fractional milliseconds
func (e Entry) RevealAtMs() float64 {
	return float64(e.RevealAt) / float64(time.Millisecond)
}

// Schedule is one run's tile-to-time assignment, ordered by reveal time
// Immutable once built; replays reuse it
type Schedule struct {
	entries  []Entry
	duration time.Duration
}

// NewSchedule shuffles tiles and spaces them evenly across duration
// Entry i of the permutation reveals at duration*i/n, so the set of times is
// fixed for a given n and only the assignment of tiles to times is random
func NewSchedule(tiles []tile.Tile, duration time.Duration, rng *rand.Rand) Schedule {
	order := Shuffle(tiles, rng)
	n := int64(len(order))

	entries := make([]Entry, len(order))
	for i, t := range order {
		entries[i] = Entry{
			Tile:     t,
			RevealAt: RevealOffset(duration, int64(i), n),
		}
	}

	return Schedule{entries: entries, duration: duration}
}

// RevealOffset returns duration*i/n
func RevealOffset(duration time.Duration, i, n int64) time.Duration {
	if n <= 0 {
		return 0
	}
	return time.Duration(int64(duration) * i / n)
}

// Shuffle returns a Fisher-Yates permutation of tiles, leaving the input untouched
func Shuffle(tiles []tile.Tile, rng *rand.Rand) []tile.Tile {
	out := make([]tile.Tile, len(tiles))
	copy(out, tiles)

	for i := len(out) - 1; i > 0; i-- {
		j := rng.IntN(i + 1)
		out[i], out[j] = out[j], out[i]
	}
	return out
}

// Len returns the number of entries
func (s Schedule) Len() int {
	return len(s.entries)
}

// At returns entry i
func (s Schedule) At(i int) Entry {
	return s.entries[i]
}

// Duration returns the total run duration the schedule was built for
func (s Schedule) Duration() time.Duration {
	return s.duration
}

// Entries returns a copy of the entries
func (s Schedule) Entries() []Entry {
	out := make([]Entry, len(s.entries))
	copy(out, s.entries)
	return out
}

// RevealTime returns the offset assigned to t, ok is false when t is not scheduled
func (s Schedule) RevealTime(t tile.Tile) (time.Duration, bool) {
	for _, e := range s.entries {
		if e.Tile == t {
			return e.RevealAt, true
		}
	}
	return 0, false
}

// DueBy returns how many leading entries are due at elapsed
func (s Schedule) DueBy(elapsed time.Duration) int {
	n := 0
	for n < len(s.entries) && s.entries[n].RevealAt <= elapsed {
		n++
	}
	return n
}
