// Package playback provides the radio playback controller with its
// integrated song queue.
package playback

// State represents the playback state.
type State int

const (
	StateIdle    State = iota // No current song (nothing played yet or channel just switched)
	StatePlaying              // A song has been handed out and is current
)

// String returns the string representation of the state.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StatePlaying:
		return "playing"
	default:
		return "unknown"
	}
}
