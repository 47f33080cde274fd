package content

import (
	"embed"
	"fmt"

	"github.com/lixenwraith/pixel-reveal/pattern"
	"github.com/lixenwraith/pixel-reveal/tile"
)

//go:embed figures/*.svg
var demoFS embed.FS

// demoFigures lists the embedded figures in stage order
var demoFigures = []Source{
	{Name: "angel", Path: "figures/angel-silhouette-pixelated.svg", Caption: "Angel silhouette"},
	{Name: "two-figures", Path: "figures/two-figures-pixelated.svg", Caption: "Two figures"},
	{Name: "logo", Path: "figures/logo-pixelated.svg", Caption: "Logo"},
}

// Demo decodes the embedded demo figures into fresh tile groups
// Every call returns new tiles
func Demo() ([]tile.Group, error) {
	groups := make([]tile.Group, 0, len(demoFigures))
	for _, src := range demoFigures {
		data, err := demoFS.ReadFile(src.Path)
		if err != nil {
			return nil, fmt.Errorf("embedded figure %s: %w", src.Name, err)
		}
		g, err := pattern.ParseSVGString(string(data), src.Name)
		if err != nil {
			return nil, fmt.Errorf("embedded figure %s: %w", src.Name, err)
		}
		g.Caption = src.Caption
		groups = append(groups, g)
	}
	return groups, nil
}
