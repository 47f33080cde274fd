// Package content discovers figure assets and decodes them into tile groups.
package content

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"unicode"

	"github.com/lixenwraith/pixel-reveal/pattern"
	"github.com/lixenwraith/pixel-reveal/tile"
)

const (
	// DefaultAssetsDir is scanned when no directory is configured
	DefaultAssetsDir = "./assets"
	// DefaultGridColumns is the raster pixelation width when none is configured
	DefaultGridColumns = 48
)

// Source names one figure file and the caption shown under it
type Source struct {
	Name    string
	Path    string
	Caption string
}

// Manager handles discovery and loading of figure files
type Manager struct {
	assetsDir string
	columns   int
	sources   []Source
	logger    *slog.Logger
}

// NewManager creates a manager scanning assetsDir, pixelating rasters to columns
func NewManager(assetsDir string, columns int, logger *slog.Logger) *Manager {
	if assetsDir == "" {
		assetsDir = DefaultAssetsDir
	}
	if columns <= 0 {
		columns = DefaultGridColumns
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{
		assetsDir: assetsDir,
		columns:   columns,
		logger:    logger,
	}
}

// SetSources replaces discovery with an explicit figure list
func (m *Manager) SetSources(sources []Source) {
	m.sources = append([]Source(nil), sources...)
}

// Discover scans the assets directory for supported figure files
// A missing directory is not an error, it yields no sources
// Hidden files and subdirectories are skipped; results are sorted by file name
func (m *Manager) Discover() ([]Source, error) {
	if len(m.sources) > 0 {
		return append([]Source(nil), m.sources...), nil
	}

	entries, err := os.ReadDir(m.assetsDir)
	if errors.Is(err, fs.ErrNotExist) {
		m.logger.Info("assets directory does not exist", "dir", m.assetsDir)
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read assets directory: %w", err)
	}

	var found []Source
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}

		fileName := entry.Name()
		if strings.HasPrefix(fileName, ".") {
			m.logger.Debug("skipping hidden file", "file", fileName)
			continue
		}
		if !pattern.Supported(fileName) {
			continue
		}

		name := pattern.BaseName(fileName)
		found = append(found, Source{
			Name:    name,
			Path:    filepath.Join(m.assetsDir, fileName),
			Caption: CaptionFor(name),
		})
	}

	sort.Slice(found, func(i, j int) bool { return found[i].Path < found[j].Path })

	if len(found) == 0 {
		m.logger.Info("no figure files found", "dir", m.assetsDir)
	} else {
		m.logger.Info("discovered figure files", "dir", m.assetsDir, "count", len(found))
	}
	return found, nil
}

// Load decodes every source, skipping files that fail or contain no tiles
func (m *Manager) Load(sources []Source) []tile.Group {
	groups := make([]tile.Group, 0, len(sources))
	for _, src := range sources {
		g, err := pattern.LoadFile(src.Path, m.columns)
		if err != nil {
			m.logger.Warn("skipping figure", "path", src.Path, "error", err)
			continue
		}
		if src.Name != "" {
			g.Name = src.Name
		}
		g.Caption = src.Caption
		if g.Caption == "" {
			g.Caption = CaptionFor(g.Name)
		}
		groups = append(groups, g)
	}
	return groups
}

// LoadAll discovers and loads figures, falling back to the embedded demo set when nothing loads
func (m *Manager) LoadAll() ([]tile.Group, error) {
	sources, err := m.Discover()
	if err != nil {
		return nil, err
	}

	groups := m.Load(sources)
	if len(groups) > 0 {
		return groups, nil
	}

	m.logger.Info("using embedded demo figures")
	return Demo()
}

// CaptionFor turns a file base name into a caption: "two-figures-pixelated" -> "Two figures"
func CaptionFor(name string) string {
	name = strings.TrimSuffix(name, "-pixelated")
	name = strings.TrimSuffix(name, "_pixelated")
	words := strings.FieldsFunc(name, func(r rune) bool { return r == '-' || r == '_' || r == ' ' })
	if len(words) == 0 {
		return ""
	}
	caption := strings.ToLower(strings.Join(words, " "))
	r := []rune(caption)
	r[0] = unicode.ToUpper(r[0])
	return string(r)
}
