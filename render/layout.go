// Package render draws the reveal stage to a terminal and rasterizes it for export.
package render

import (
	"math"
	"sync"

	"github.com/lixenwraith/pixel-reveal/tile"
)

const (
	// DefaultFigureWidth is the terminal columns given to each figure
	DefaultFigureWidth = 30
	// FigureGap is the blank columns between figures on one row
	FigureGap = 4
	// RowGap is the blank rows between wrapped figure rows, below the captions
	RowGap = 1
)

// Stage is the set of figures on screen
// It is the engine's group source: the same tile instances are drawn and revealed
type Stage struct {
	mu          sync.RWMutex
	groups      []tile.Group
	figureWidth int
}

// NewStage creates a stage over groups with the given terminal column budget per figure
func NewStage(groups []tile.Group, figureWidth int) *Stage {
	if figureWidth <= 0 {
		figureWidth = DefaultFigureWidth
	}
	return &Stage{
		groups:      append([]tile.Group(nil), groups...),
		figureWidth: figureWidth,
	}
}

// Groups implements engine.GroupSource
func (s *Stage) Groups() []tile.Group {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]tile.Group(nil), s.groups...)
}

// SetGroups replaces the figures; the next engine Start picks them up
// Safe to call while a frame is drawn: every frame works on one Groups snapshot
func (s *Stage) SetGroups(groups []tile.Group) {
	s.mu.Lock()
	s.groups = append([]tile.Group(nil), groups...)
	s.mu.Unlock()
}

// FigureWidth returns the column budget per figure
func (s *Stage) FigureWidth() int {
	return s.figureWidth
}

// Placement positions one figure in cell coordinates relative to the stage origin
// Each cell holds two vertically stacked square sub-pixels
type Placement struct {
	Group  int        // index into the groups snapshot that was laid out
	Figure tile.Group // the laid out group itself, drawn without a second Groups read
	X, Y   int        // top-left cell
	Cols   int        // width in cells
	Rows   int        // height in cells, excluding the caption row
	Scale  float64    // figure units per sub-pixel
}

// CaptionY returns the row of the caption under the figure
func (p Placement) CaptionY() int {
	return p.Y + p.Rows
}

// Size returns the cell extent of a figure drawn cols wide
func Size(g tile.Group, cols int) (rows int, scale float64) {
	if cols <= 0 || g.Width <= 0 || g.Height <= 0 {
		return 0, 0
	}
	scale = g.Width / float64(cols)
	subRows := int(math.Ceil(g.Height/scale - 1e-9))
	rows = (subRows + 1) / 2
	return max(rows, 1), scale
}

// Layout flows figures left to right, wrapping to a new row when width is exceeded
// Each row is centered; returns placements and the total height in cells
func (s *Stage) Layout(width int) ([]Placement, int) {
	groups := s.Groups()
	if len(groups) == 0 || width <= 0 {
		return nil, 0
	}

	cols := min(s.figureWidth, width)
	placements := make([]Placement, 0, len(groups))

	var line []Placement
	lineWidth, lineHeight, y := 0, 0, 0

	flush := func() {
		if len(line) == 0 {
			return
		}
		offset := max((width-lineWidth)/2, 0)
		for _, p := range line {
			p.X += offset
			placements = append(placements, p)
		}
		y += lineHeight + 1 + RowGap // caption row plus gap
		line, lineWidth, lineHeight = nil, 0, 0
	}

	for i, g := range groups {
		rows, scale := Size(g, cols)
		if rows == 0 {
			continue
		}

		x := lineWidth
		if len(line) > 0 {
			x += FigureGap
		}
		if len(line) > 0 && x+cols > width {
			flush()
			x = 0
		}

		line = append(line, Placement{Group: i, Figure: g, X: x, Y: y, Cols: cols, Rows: rows, Scale: scale})
		lineWidth = x + cols
		lineHeight = max(lineHeight, rows)
	}
	flush()

	return placements, max(y-RowGap, 0)
}
