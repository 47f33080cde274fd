package main

import (
	"log/slog"

	"github.com/gdamore/tcell/v2"

	"github.com/lixenwraith/pixel-reveal/engine"
	"github.com/lixenwraith/pixel-reveal/tile"
)

// poster runs work on the engine goroutine
type poster interface {
	Post(fn func()) bool
}

// muter toggles the audio cues
type muter interface {
	ToggleMute() bool
}

// reloader decodes the figure set again
type reloader interface {
	Reload() ([]tile.Group, error)
}

// groupSetter replaces the figures on the rendering surface
type groupSetter interface {
	SetGroups(groups []tile.Group)
}

// app maps terminal events onto engine and audio actions
type app struct {
	screen  tcell.Screen
	loop    poster
	engine  *engine.Engine
	audio   muter
	figures reloader
	stage   groupSetter
	logger  *slog.Logger
}

// handleEvent processes one terminal event, returns false when the user quits
func (a *app) handleEvent(ev tcell.Event) bool {
	switch ev := ev.(type) {
	case *tcell.EventKey:
		switch ev.Key() {
		case tcell.KeyEscape, tcell.KeyCtrlC:
			return false
		case tcell.KeyEnter:
			a.replay()
			return true
		case tcell.KeyRune:
		default:
			return true
		}

		switch ev.Rune() {
		case 'q', 'Q':
			return false
		case 'r', 'R', ' ':
			a.replay()
		case 'n', 'N':
			a.logger.Debug("reshuffle requested")
			a.loop.Post(a.engine.Start)
		case 'l', 'L':
			a.reload()
		case 'm', 'M':
			if a.audio != nil {
				muted := a.audio.ToggleMute()
				a.logger.Debug("mute toggled", "muted", muted)
			}
		}

	case *tcell.EventResize:
		if a.screen != nil {
			a.screen.Sync()
		}
	}
	return true
}

func (a *app) replay() {
	a.logger.Debug("replay requested")
	a.loop.Post(a.engine.Replay)
}

// reload decodes on the input goroutine and swaps the stage on the loop goroutine
// A failed reload keeps the current figures and run
func (a *app) reload() {
	if a.figures == nil || a.stage == nil {
		return
	}
	groups, err := a.figures.Reload()
	if err != nil {
		a.logger.Warn("reload failed", "error", err)
		return
	}
	a.loop.Post(func() {
		a.engine.Cancel()
		a.stage.SetGroups(groups)
		a.engine.Start()
	})
}

// run reads events until quit; PollEvent returns nil once the screen is finalized
func (a *app) run(events <-chan tcell.Event) {
	for ev := range events {
		if ev == nil || !a.handleEvent(ev) {
			return
		}
	}
}
