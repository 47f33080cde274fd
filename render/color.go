package render

import (
	"os"
	"strings"

	"github.com/gdamore/tcell/v2"
	"github.com/lucasb-eyer/go-colorful"
)

// ColorMode selects how figure colours reach the terminal
type ColorMode int

const (
	ColorMode256 ColorMode = iota
	ColorModeTrueColor
)

// String implements fmt.Stringer
func (m ColorMode) String() string {
	if m == ColorModeTrueColor {
		return "truecolor"
	}
	return "256"
}

// ParseColorMode maps a config value to a mode; "auto" and unknown values detect from the environment
func ParseColorMode(s string) ColorMode {
	switch strings.ToLower(s) {
	case "truecolor", "24bit":
		return ColorModeTrueColor
	case "256":
		return ColorMode256
	default:
		return DetectColorMode()
	}
}

// DetectColorMode determines terminal color capability from environment
func DetectColorMode() ColorMode {
	colorterm := os.Getenv("COLORTERM")
	if colorterm == "truecolor" || colorterm == "24bit" {
		return ColorModeTrueColor
	}

	for _, env := range []string{"KITTY_WINDOW_ID", "KONSOLE_VERSION", "ITERM_SESSION_ID", "ALACRITTY_WINDOW_ID", "WEZTERM_PANE"} {
		if os.Getenv(env) != "" {
			return ColorModeTrueColor
		}
	}

	term := strings.ToLower(os.Getenv("TERM"))
	if strings.Contains(term, "truecolor") || strings.Contains(term, "24bit") || strings.Contains(term, "direct") {
		return ColorModeTrueColor
	}

	return ColorMode256
}

// cubeValues are the channel levels of the xterm 6x6x6 colour cube
var cubeValues = [6]int{0, 95, 135, 175, 215, 255}

// cubeIndex returns the nearest cube level for a channel value
func cubeIndex(v int) int {
	best, bestDist := 0, 256
	for i, cv := range cubeValues {
		if d := abs(v - cv); d < bestDist {
			best, bestDist = i, d
		}
	}
	return best
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}

// Cube256 returns the xterm 256-palette index for an RGB cube coordinate
// r, g, b must be in [0,5]; values outside that range are clamped
func Cube256(r, g, b int) int {
	r, g, b = min(max(r, 0), 5), min(max(g, 0), 5), min(max(b, 0), 5)
	return 16 + 36*r + 6*g + b
}

// RGBTo256 finds the nearest 256-color palette index, preferring the grayscale ramp for near-neutral colours
func RGBTo256(r, g, b uint8) int {
	ri, gi, bi := int(r), int(g), int(b)
	cr, cg, cb := cubeIndex(ri), cubeIndex(gi), cubeIndex(bi)
	cube := Cube256(cr, cg, cb)

	gray := (ri + gi + bi) / 3
	if max(abs(ri-gray), abs(gi-gray), abs(bi-gray)) >= 10 {
		return cube
	}
	if gray < 4 {
		return 16
	}
	if gray > 243 {
		return 231
	}

	grayIdx := min(232+(gray-8)/10, 255)
	level := 8 + (grayIdx-232)*10
	grayDist := abs(ri-level) + abs(gi-level) + abs(bi-level)
	cubeDist := abs(ri-cubeValues[cr]) + abs(gi-cubeValues[cg]) + abs(bi-cubeValues[cb])
	if grayDist < cubeDist {
		return grayIdx
	}
	return cube
}

// ToTCell converts a colour for the given mode
func ToTCell(c colorful.Color, mode ColorMode) tcell.Color {
	r, g, b := c.Clamped().RGB255()
	if mode == ColorModeTrueColor {
		return tcell.NewRGBColor(int32(r), int32(g), int32(b))
	}
	return tcell.PaletteColor(RGBTo256(r, g, b))
}

// Composite blends c with the given alpha over bg
func Composite(c colorful.Color, alpha float64, bg colorful.Color) colorful.Color {
	if alpha >= 1 {
		return c
	}
	if alpha <= 0 {
		return bg
	}
	return bg.BlendRgb(c, alpha)
}
