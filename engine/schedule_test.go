package engine

import (
	"math"
	"math/rand/v2"
	"testing"
	"time"

	"github.com/lucasb-eyer/go-colorful"

	"github.com/lixenwraith/pixel-reveal/tile"
)

func makeTiles(n int) []tile.Tile {
	tiles := make([]tile.Tile, n)
	for i := range tiles {
		tiles[i] = tile.NewRect(float64(i), 0, 1, 1, colorful.Color{R: 1})
	}
	return tiles
}

func seeded(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed+1))
}

func TestNewSchedule_OneEntryPerTile(t *testing.T) {
	for _, n := range []int{1, 2, 3, 17, 256} {
		tiles := makeTiles(n)
		s := NewSchedule(tiles, 5*time.Second, seeded(uint64(n)))

		if s.Len() != n {
			t.Fatalf("n=%d: expected %d entries, got %d", n, n, s.Len())
		}

		seen := make(map[tile.Tile]bool, n)
		for i := 0; i < s.Len(); i++ {
			e := s.At(i)
			if seen[e.Tile] {
				t.Fatalf("n=%d: tile scheduled twice", n)
			}
			seen[e.Tile] = true
		}
		for _, tl := range tiles {
			if !seen[tl] {
				t.Fatalf("n=%d: tile missing from schedule", n)
			}
		}
	}
}

func TestNewSchedule_TimesAreArithmeticProgression(t *testing.T) {
	d := 5 * time.Second
	for seed := uint64(1); seed <= 20; seed++ {
		n := 7
		s := NewSchedule(makeTiles(n), d, seeded(seed))

		for i := 0; i < n; i++ {
			want := time.Duration(int64(d) * int64(i) / int64(n))
			got := s.At(i).RevealAt
			if got != want {
				t.Fatalf("seed %d entry %d: expected %v, got %v", seed, i, want, got)
			}
			if got < 0 || got >= d {
				t.Fatalf("seed %d entry %d: %v outside [0, %v)", seed, i, got, d)
			}
		}
	}
}

func TestNewSchedule_ThreeTiles(t *testing.T) {
	s := NewSchedule(makeTiles(3), 5000*time.Millisecond, seeded(42))

	wantMs := []float64{0, 1666.67, 3333.33}
	for i, want := range wantMs {
		got := s.At(i).RevealAtMs()
		if math.Abs(got-want) > 0.01 {
			t.Errorf("Entry %d: expected ~%.2fms, got %.4fms", i, want, got)
		}
	}
	if s.Duration() != 5*time.Second {
		t.Errorf("Expected duration 5s, got %v", s.Duration())
	}
}

func TestNewSchedule_Empty(t *testing.T) {
	s := NewSchedule(nil, time.Second, seeded(1))
	if s.Len() != 0 {
		t.Errorf("Expected empty schedule, got %d", s.Len())
	}
	if s.DueBy(time.Hour) != 0 {
		t.Error("Empty schedule must have nothing due")
	}
}

func TestShuffle_LeavesInputUntouched(t *testing.T) {
	tiles := makeTiles(10)
	orig := make([]tile.Tile, len(tiles))
	copy(orig, tiles)

	Shuffle(tiles, seeded(7))

	for i := range tiles {
		if tiles[i] != orig[i] {
			t.Fatal("Shuffle modified its input")
		}
	}
}

func TestShuffle_Uniform(t *testing.T) {
	tiles := makeTiles(3)
	rng := seeded(99)
	counts := make(map[[3]tile.Tile]int)

	const trials = 6000
	for i := 0; i < trials; i++ {
		p := Shuffle(tiles, rng)
		counts[[3]tile.Tile{p[0], p[1], p[2]}]++
	}

	if len(counts) != 6 {
		t.Fatalf("Expected all 6 permutations, got %d", len(counts))
	}
	for perm, c := range counts {
		if c < 800 || c > 1200 {
			t.Errorf("Permutation %v occurred %d times, expected ~1000", perm, c)
		}
	}
}

func TestSchedule_RevealTimeAndDueBy(t *testing.T) {
	tiles := makeTiles(4)
	s := NewSchedule(tiles, 4*time.Second, seeded(3))

	for _, tl := range tiles {
		at, ok := s.RevealTime(tl)
		if !ok {
			t.Fatal("Expected every tile to have a reveal time")
		}
		if at%time.Second != 0 {
			t.Errorf("Expected whole-second offsets for 4 tiles over 4s, got %v", at)
		}
	}

	if _, ok := s.RevealTime(tile.NewRect(0, 0, 1, 1, colorful.Color{})); ok {
		t.Error("Unscheduled tile must not have a reveal time")
	}

	tests := []struct {
		elapsed time.Duration
		want    int
	}{
		{-time.Millisecond, 0},
		{0, 1},
		{999 * time.Millisecond, 1},
		{time.Second, 2},
		{3 * time.Second, 4},
		{time.Hour, 4},
	}
	for _, tt := range tests {
		if got := s.DueBy(tt.elapsed); got != tt.want {
			t.Errorf("DueBy(%v): expected %d, got %d", tt.elapsed, tt.want, got)
		}
	}

	entries := s.Entries()
	entries[0].RevealAt = time.Hour
	if s.At(0).RevealAt == time.Hour {
		t.Error("Entries must return a copy")
	}
}

func TestRevealOffset_ZeroCount(t *testing.T) {
	if got := RevealOffset(time.Second, 0, 0); got != 0 {
		t.Errorf("Expected 0 for empty collection, got %v", got)
	}
}
