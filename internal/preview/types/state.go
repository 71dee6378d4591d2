package types

// PlaybackState represents the playback lifecycle state.
type PlaybackState uint8

const (
	StateStopped PlaybackState = iota
	StatePlaying
	StatePaused
)

// String returns the string representation of PlaybackState
func (s PlaybackState) String() string {
	switch s {
	case StateStopped:
		return "stopped"
	case StatePlaying:
		return "playing"
	case StatePaused:
		return "paused"
	default:
		return "unknown"
	}
}

// CanTransition reports whether the lifecycle allows moving to next.
// Stopped → Playing, Playing ⇄ Paused, and any state → Stopped.
func (s PlaybackState) CanTransition(next PlaybackState) bool {
	if next == StateStopped {
		return true
	}
	switch s {
	case StateStopped:
		return next == StatePlaying
	case StatePlaying:
		return next == StatePaused
	case StatePaused:
		return next == StatePlaying
	default:
		return false
	}
}
