package engine

// State is the run lifecycle of one engine
type State int

const (
	StateIdle State = iota
	StateScheduled
	StateAnimating
	StateComplete
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateScheduled:
		return "scheduled"
	case StateAnimating:
		return "animating"
	case StateComplete:
		return "complete"
	default:
		return "unknown"
	}
}

// Status lines emitted through the sink
const (
	StatusNoTiles   = "No pixels found."
	StatusRevealing = "Revealing…"
	StatusDone      = "Done."
)
