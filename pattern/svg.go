package pattern

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"

	"github.com/lucasb-eyer/go-colorful"

	"github.com/lixenwraith/pixel-reveal/tile"
)

var xmlDeclaration = regexp.MustCompile(`(?is)^\s*<\?xml.*?\?>\s*`)

// StripXMLDeclaration removes a leading <?xml ...?> prolog and surrounding whitespace
func StripXMLDeclaration(text string) string {
	return strings.TrimSpace(xmlDeclaration.ReplaceAllString(text, ""))
}

// named covers the keywords pixelated exports emit; anything else must be hex or rgb()
var named = map[string]string{
	"black":   "#000000",
	"white":   "#ffffff",
	"red":     "#ff0000",
	"green":   "#008000",
	"blue":    "#0000ff",
	"yellow":  "#ffff00",
	"gray":    "#808080",
	"grey":    "#808080",
	"silver":  "#c0c0c0",
	"orange":  "#ffa500",
	"purple":  "#800080",
	"cyan":    "#00ffff",
	"magenta": "#ff00ff",
}

var rgbFunc = regexp.MustCompile(`^rgba?\(\s*(\d+)\s*,\s*(\d+)\s*,\s*(\d+)\s*(?:,\s*([\d.]+)\s*)?\)$`)

// paint is the inheritable fill state of an element
type paint struct {
	fill    string
	opacity float64
}

// ParseSVG reads an SVG document and returns one tile per rendered rect
// Rects with fill "none", zero size, or zero opacity are skipped
func ParseSVG(r io.Reader, name string) (tile.Group, error) {
	dec := xml.NewDecoder(r)
	dec.Strict = false
	dec.AutoClose = xml.HTMLAutoClose
	dec.Entity = xml.HTMLEntity

	group := tile.Group{Name: name}
	stack := []paint{{fill: "#000000", opacity: 1}}
	sawRoot := false
	var minX, minY float64 // viewBox origin, rects are stored relative to it

	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return tile.Group{}, fmt.Errorf("svg %s: %w", name, err)
		}

		switch el := tok.(type) {
		case xml.StartElement:
			attrs := attrMap(el.Attr)
			cur := stack[len(stack)-1].inherit(attrs)

			switch el.Name.Local {
			case "svg":
				if !sawRoot {
					sawRoot = true
					minX, minY, group.Width, group.Height = svgExtent(attrs)
				}
			case "rect":
				if rect, ok := parseRect(attrs, cur, minX, minY); ok {
					group.Tiles = append(group.Tiles, rect)
				}
			}
			stack = append(stack, cur)

		case xml.EndElement:
			if len(stack) > 1 {
				stack = stack[:len(stack)-1]
			}
		}
	}

	if !sawRoot {
		return tile.Group{}, fmt.Errorf("svg %s: missing <svg> root element", name)
	}
	if len(group.Tiles) == 0 {
		return group, ErrNoTiles
	}

	// Fall back to the union of rect bounds when the document declares no extent
	if group.Width <= 0 || group.Height <= 0 {
		for _, r := range group.Rects() {
			_, _, x1, y1 := r.Bounds()
			group.Width = max(group.Width, x1)
			group.Height = max(group.Height, y1)
		}
	}
	return group, nil
}

// ParseSVGString is ParseSVG over an in-memory document, tolerating an XML prolog
func ParseSVGString(doc, name string) (tile.Group, error) {
	return ParseSVG(bytes.NewReader([]byte(StripXMLDeclaration(doc))), name)
}

func attrMap(attrs []xml.Attr) map[string]string {
	m := make(map[string]string, len(attrs))
	for _, a := range attrs {
		m[a.Name.Local] = strings.TrimSpace(a.Value)
	}
	// Inline style declarations override presentation attributes
	if style, ok := m["style"]; ok {
		for _, decl := range strings.Split(style, ";") {
			k, v, found := strings.Cut(decl, ":")
			if !found {
				continue
			}
			m[strings.TrimSpace(k)] = strings.TrimSpace(v)
		}
	}
	return m
}

func (p paint) inherit(attrs map[string]string) paint {
	if f, ok := attrs["fill"]; ok && f != "" && f != "inherit" {
		p.fill = f
	}
	if o, ok := attrs["opacity"]; ok {
		p.opacity *= parseOpacity(o)
	}
	return p
}

func parseRect(attrs map[string]string, p paint, minX, minY float64) (*tile.Rect, bool) {
	w := parseLength(attrs["width"])
	h := parseLength(attrs["height"])
	if w <= 0 || h <= 0 {
		return nil, false
	}

	fill := strings.ToLower(p.fill)
	if fill == "none" || fill == "transparent" {
		return nil, false
	}
	c, alpha, err := ParseColor(fill)
	if err != nil {
		return nil, false
	}

	alpha *= p.opacity
	if fo, ok := attrs["fill-opacity"]; ok {
		alpha *= parseOpacity(fo)
	}
	if alpha <= 0 {
		return nil, false
	}

	r := tile.NewRect(parseLength(attrs["x"])-minX, parseLength(attrs["y"])-minY, w, h, c)
	r.Alpha = alpha
	return r, true
}

// ParseColor parses a CSS colour as used in SVG fills: hex, rgb()/rgba() or a basic keyword
func ParseColor(s string) (colorful.Color, float64, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if hex, ok := named[s]; ok {
		s = hex
	}

	if m := rgbFunc.FindStringSubmatch(s); m != nil {
		r, _ := strconv.Atoi(m[1])
		g, _ := strconv.Atoi(m[2])
		b, _ := strconv.Atoi(m[3])
		alpha := 1.0
		if m[4] != "" {
			alpha = parseOpacity(m[4])
		}
		return colorful.Color{R: clamp01(float64(r) / 255), G: clamp01(float64(g) / 255), B: clamp01(float64(b) / 255)}, alpha, nil
	}

	// #rgb shorthand expands to #rrggbb
	if len(s) == 4 && s[0] == '#' {
		s = string([]byte{'#', s[1], s[1], s[2], s[2], s[3], s[3]})
	}
	c, err := colorful.Hex(s)
	if err != nil {
		return colorful.Color{}, 0, fmt.Errorf("invalid colour %q: %w", s, err)
	}
	return c, 1, nil
}

// svgExtent returns the user-space origin and size, preferring viewBox over width/height
// Without a valid viewBox the origin is 0,0
func svgExtent(attrs map[string]string) (minX, minY, w, h float64) {
	if vb, ok := attrs["viewBox"]; ok {
		f := strings.FieldsFunc(vb, func(r rune) bool { return r == ' ' || r == ',' || r == '\t' || r == '\n' })
		if len(f) == 4 {
			var vals [4]float64
			valid := true
			for i, s := range f {
				v, err := strconv.ParseFloat(s, 64)
				if err != nil {
					valid = false
					break
				}
				vals[i] = v
			}
			if valid && vals[2] > 0 && vals[3] > 0 {
				return vals[0], vals[1], vals[2], vals[3]
			}
		}
	}
	return 0, 0, parseLength(attrs["width"]), parseLength(attrs["height"])
}

// parseLength reads a number with an optional px suffix; percentages and bad input are 0
func parseLength(s string) float64 {
	s = strings.TrimSuffix(strings.TrimSpace(s), "px")
	if s == "" || strings.HasSuffix(s, "%") {
		return 0
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return v
}

func parseOpacity(s string) float64 {
	s = strings.TrimSpace(s)
	if pct, ok := strings.CutSuffix(s, "%"); ok {
		v, err := strconv.ParseFloat(pct, 64)
		if err != nil {
			return 1
		}
		return clamp01(v / 100)
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 1
	}
	return clamp01(v)
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
