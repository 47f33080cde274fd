package audio

import (
	"log/slog"
	"sync/atomic"

	"github.com/lixenwraith/pixel-reveal/status"
)

// DefaultVolume is the cue gain when none is configured
const DefaultVolume = 0.4

// Service wraps Player as a service.Service
// Handles graceful degradation when no audio device is available
type Service struct {
	player   *Player
	out      Output
	disabled atomic.Bool
	logger   *slog.Logger
	registry *status.Registry
	off      bool // disabled by configuration, the device is never opened
}

// NewService creates a new audio service; out may be nil for the system speaker
func NewService(out Output, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{out: out, logger: logger}
}

// Name implements service.Service
func (s *Service) Name() string {
	return "audio"
}

// Dependencies implements service.Service
func (s *Service) Dependencies() []string {
	return []string{"status"}
}

// Init implements service.Service
// args[0]: bool - initial mute state (default unmuted)
// args[1]: float64 - volume in [0,1] (default DefaultVolume)
// args[2]: *status.Registry - publishes mute state (optional)
// args[3]: bool - enabled (default true); false keeps the device closed for the whole run
func (s *Service) Init(args ...any) error {
	muted := false
	volume := DefaultVolume

	if len(args) > 0 {
		if v, ok := args[0].(bool); ok {
			muted = v
		}
	}
	if len(args) > 1 {
		if v, ok := args[1].(float64); ok && v >= 0 && v <= 1 {
			volume = v
		}
	}
	if len(args) > 2 {
		if v, ok := args[2].(*status.Registry); ok {
			s.registry = v
		}
	}

	if len(args) > 3 {
		if v, ok := args[3].(bool); ok {
			s.off = !v
		}
	}

	s.player = NewPlayer(s.out, volume)
	s.player.SetMuted(muted)
	s.publishMute()
	return nil
}

// Start implements service.Service
// Opens the device; sets disabled on failure (no error returned)
func (s *Service) Start() error {
	if s.player == nil || s.off {
		s.disabled.Store(true)
		s.publishMute()
		return nil
	}
	if err := s.player.Initialize(); err != nil {
		s.logger.Warn("audio unavailable, continuing silently", "error", err)
		s.disabled.Store(true)
	}
	return nil
}

// Stop implements service.Service
func (s *Service) Stop() error {
	if s.player != nil {
		s.player.Close()
	}
	return nil
}

// IsDisabled returns true if audio is unavailable
func (s *Service) IsDisabled() bool {
	return s.disabled.Load()
}

// Play queues a cue; no-op when disabled or muted
func (s *Service) Play(c Cue) bool {
	if s.disabled.Load() || s.player == nil {
		return false
	}
	ok := s.player.Play(c)
	if ok {
		s.logger.Debug("cue played", "cue", c.String())
	}
	return ok
}

// ToggleMute flips the mute state and returns the new value
func (s *Service) ToggleMute() bool {
	if s.player == nil || s.disabled.Load() {
		return true
	}
	muted := s.player.ToggleMute()
	s.publishMute()
	return muted
}

// IsMuted reports the mute state; a disabled service is always muted
func (s *Service) IsMuted() bool {
	if s.disabled.Load() || s.player == nil {
		return true
	}
	return s.player.IsMuted()
}

// Player returns the underlying player (nil before Init)
func (s *Service) Player() *Player {
	return s.player
}

func (s *Service) publishMute() {
	if s.registry == nil || s.player == nil {
		return
	}
	s.registry.Bools.Get(status.KeyMuted).Store(s.IsMuted())
}
