package render

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/gdamore/tcell/v2"
	"github.com/lucasb-eyer/go-colorful"
)

// Controls is the key legend drawn left of the status text
const Controls = "[r] Replay  [n] Shuffle  [l] Reload  [m] Mute  [q] Quit"

const (
	halfBlock     = '▀'
	progressWidth = 40
	titleRow      = 1
	stageTop      = 3
)

var (
	titleColor   = mustHex("#666666")
	captionColor = mustHex("#555555")
	textColor    = mustHex("#e0e0e0")
	dimColor     = mustHex("#666666")
	barColor     = mustHex("#888888")
	trackColor   = mustHex("#333333")
)

func mustHex(s string) colorful.Color {
	c, err := colorful.Hex(s)
	if err != nil {
		panic(err)
	}
	return c
}

// HUD is the text drawn around the stage
type HUD struct {
	Title    string
	Status   string
	Progress float64 // 0..1
	Muted    bool
}

// Terminal draws the stage and HUD onto a tcell screen
// Draw must be called from the goroutine that owns the engine
type Terminal struct {
	screen tcell.Screen
	stage  *Stage
	mode   ColorMode
	bg     colorful.Color
}

// NewTerminal creates a renderer for stage on screen
func NewTerminal(screen tcell.Screen, stage *Stage, mode ColorMode, bg colorful.Color) *Terminal {
	return &Terminal{
		screen: screen,
		stage:  stage,
		mode:   mode,
		bg:     bg,
	}
}

// Mode returns the colour mode in use
func (t *Terminal) Mode() ColorMode {
	return t.mode
}

func (t *Terminal) style(fg colorful.Color) tcell.Style {
	return tcell.StyleDefault.Background(ToTCell(t.bg, t.mode)).Foreground(ToTCell(fg, t.mode))
}

// Draw renders one complete frame and shows it
func (t *Terminal) Draw(h HUD) {
	w, sh := t.screen.Size()
	t.screen.Fill(' ', t.style(textColor))
	if w <= 0 || sh <= 0 {
		t.screen.Show()
		return
	}

	t.drawCentered(titleRow, w, h.Title, t.style(titleColor))

	placements, stageHeight := t.stage.Layout(w)

	// Center the stage in the space between title and controls
	avail := sh - stageTop - 3
	top := stageTop + max((avail-stageHeight)/2, 0)

	for _, p := range placements {
		g := p.Figure
		t.drawFigure(Resample(g, p.Cols, p.Rows*2, p.Scale, t.bg), p.X, top+p.Y)
		t.drawCaption(g.Caption, p, top)
	}

	controlsY := min(top+stageHeight+1, sh-2)
	t.drawControls(controlsY, w, h)
	t.drawProgress(controlsY+1, w, h.Progress)

	t.screen.Show()
}

func (t *Terminal) drawFigure(r *Raster, ox, oy int) {
	w, h := t.screen.Size()
	for row := 0; row*2 < r.Rows; row++ {
		y := oy + row
		if y < 0 || y >= h {
			continue
		}
		for col := 0; col < r.Cols; col++ {
			x := ox + col
			if x < 0 || x >= w {
				continue
			}
			top, topSet := r.At(col, row*2)
			bottom, bottomSet := r.At(col, row*2+1)
			if !topSet && !bottomSet {
				continue
			}
			if !topSet {
				top = t.bg
			}
			if !bottomSet {
				bottom = t.bg
			}
			style := tcell.StyleDefault.Foreground(ToTCell(top, t.mode)).Background(ToTCell(bottom, t.mode))
			t.screen.SetContent(x, y, halfBlock, nil, style)
		}
	}
}

func (t *Terminal) drawCaption(caption string, p Placement, top int) {
	if caption == "" {
		return
	}
	n := utf8.RuneCountInString(caption)
	if n > p.Cols {
		caption = string([]rune(caption)[:p.Cols])
		n = p.Cols
	}
	x := p.X + (p.Cols-n)/2
	t.drawText(x, top+p.CaptionY(), caption, t.style(captionColor))
}

func (t *Terminal) drawControls(y, w int, h HUD) {
	status := h.Status
	if h.Muted {
		status = strings.TrimSpace(status + "  (muted)")
	}
	line := Controls
	if status != "" {
		line += "   " + status
	}

	x := max((w-utf8.RuneCountInString(line))/2, 0)
	t.drawText(x, y, Controls, t.style(textColor))
	if status != "" {
		t.drawText(x+utf8.RuneCountInString(Controls)+3, y, status, t.style(dimColor))
	}
}

func (t *Terminal) drawProgress(y, w int, progress float64) {
	width := min(progressWidth, w-4)
	if width <= 0 {
		return
	}
	progress = min(max(progress, 0), 1)
	filled := int(progress*float64(width) + 0.5)

	x := (w - width) / 2
	bar := t.style(barColor)
	track := t.style(trackColor)
	for i := 0; i < width; i++ {
		if i < filled {
			t.screen.SetContent(x+i, y, '█', nil, bar)
		} else {
			t.screen.SetContent(x+i, y, '░', nil, track)
		}
	}
}

func (t *Terminal) drawCentered(y, w int, s string, style tcell.Style) {
	x := max((w-utf8.RuneCountInString(s))/2, 0)
	t.drawText(x, y, s, style)
}

func (t *Terminal) drawText(x, y int, s string, style tcell.Style) {
	w, h := t.screen.Size()
	if y < 0 || y >= h {
		return
	}
	for _, r := range s {
		if x >= w {
			return
		}
		if x >= 0 {
			t.screen.SetContent(x, y, r, nil, style)
		}
		x++
	}
}

// Describe returns a one-line summary of the stage for logs
func (t *Terminal) Describe() string {
	w, h := t.screen.Size()
	placements, height := t.stage.Layout(w)
	return fmt.Sprintf("%dx%d screen, %d figures, stage height %d, %s colour", w, h, len(placements), height, t.mode)
}
