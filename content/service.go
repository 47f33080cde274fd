package content

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/lixenwraith/pixel-reveal/tile"
)

// Service owns the figure catalogue for the lifetime of the program
// Figures are loaded once at Init; the same tile instances are handed to every caller
type Service struct {
	mu      sync.RWMutex
	manager *Manager
	groups  []tile.Group
	logger  *slog.Logger
}

// NewService creates a new content service
func NewService(logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{logger: logger}
}

// Name implements service.Service
func (s *Service) Name() string {
	return "content"
}

// Dependencies implements service.Service
func (s *Service) Dependencies() []string {
	return nil
}

// Init implements service.Service
// args[0]: string - assets directory (optional)
// args[1]: int - raster grid columns (optional)
// args[2]: []Source - explicit figure list, disables discovery (optional)
func (s *Service) Init(args ...any) error {
	var (
		dir     string
		columns int
		sources []Source
	)
	if len(args) > 0 {
		if v, ok := args[0].(string); ok {
			dir = v
		}
	}
	if len(args) > 1 {
		if v, ok := args[1].(int); ok {
			columns = v
		}
	}
	if len(args) > 2 {
		if v, ok := args[2].([]Source); ok {
			sources = v
		}
	}

	m := NewManager(dir, columns, s.logger)
	if len(sources) > 0 {
		m.SetSources(sources)
	}

	groups, err := m.LoadAll()
	if err != nil {
		return fmt.Errorf("load figures: %w", err)
	}

	s.mu.Lock()
	s.manager = m
	s.groups = groups
	s.mu.Unlock()

	total := 0
	for _, g := range groups {
		total += g.Len()
	}
	s.logger.Info("figures loaded", "figures", len(groups), "tiles", total)
	return nil
}

// Start implements service.Service
func (s *Service) Start() error {
	return nil
}

// Stop implements service.Service
func (s *Service) Stop() error {
	return nil
}

// Reload rescans and decodes the figures with the Init settings
// On failure the previous figures are kept and returned with the error
func (s *Service) Reload() ([]tile.Group, error) {
	s.mu.RLock()
	m := s.manager
	s.mu.RUnlock()
	if m == nil {
		return nil, fmt.Errorf("content service not initialized")
	}

	groups, err := m.LoadAll()
	if err != nil {
		return s.Figures(), fmt.Errorf("reload figures: %w", err)
	}

	s.mu.Lock()
	s.groups = groups
	s.mu.Unlock()
	s.logger.Info("figures reloaded", "figures", len(groups))
	return append([]tile.Group(nil), groups...), nil
}

// Figures returns the loaded groups in stage order
func (s *Service) Figures() []tile.Group {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]tile.Group(nil), s.groups...)
}
