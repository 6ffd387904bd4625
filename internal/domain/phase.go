package domain

// Phase represents the current phase of a room's round
type Phase string

const (
	PhaseCollecting Phase = "COLLECTING" // Players submitting and arranging clues
	PhaseRevealed   Phase = "REVEALED"   // Host has shown the result
)

// String returns the string representation of the phase
func (p Phase) String() string {
	return string(p)
}
