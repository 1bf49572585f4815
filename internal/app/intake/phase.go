package intake

import "github.com/PabloGalante/haven-intake/internal/domain"

// Phase is the dialogue stage derived from the user turn count.
type Phase int

const (
	PhaseEarly Phase = iota + 1
	PhaseMid
	PhaseClosing
)

func (p Phase) String() string {
	switch p {
	case PhaseEarly:
		return "early"
	case PhaseMid:
		return "mid"
	case PhaseClosing:
		return "closing"
	default:
		return "unknown"
	}
}

// PhaseFor maps a user turn count to its phase:
// 0-2 early, 3-5 mid, 6 and above closing.
func PhaseFor(userTurns int) Phase {
	switch {
	case userTurns <= 2:
		return PhaseEarly
	case userTurns < domain.SummaryThreshold:
		return PhaseMid
	default:
		return PhaseClosing
	}
}
