package domain

// SessionState is the intake lifecycle stage.
//
//	Idle -> Collecting -> Summarizing -> Resolved
type SessionState string

const (
	StateIdle        SessionState = "idle"
	StateCollecting  SessionState = "collecting"
	StateSummarizing SessionState = "summarizing"
	StateResolved    SessionState = "resolved"
)

// SummaryThreshold is the user turn count that closes the intake.
const SummaryThreshold = 6

// Session is one intake conversation. Messages live in a MessageStore.
type Session struct {
	ID        SessionID
	CreatedAt Timestamp
	UpdatedAt Timestamp

	State     SessionState
	UserTurns int

	// Summary is set once, on the Collecting -> Summarizing transition.
	Summary    *ReportSummary
	Visibility Visibility
}

// RecordUserTurn advances the state machine for one more user message and
// reports whether this turn is the one that must trigger summarization.
// It returns true at most once per session.
func (s *Session) RecordUserTurn() (summarize bool, err error) {
	switch s.State {
	case StateResolved:
		return false, ErrSessionResolved
	case StateIdle, "":
		s.State = StateCollecting
	}

	s.UserTurns++

	if s.State == StateCollecting && s.UserTurns >= SummaryThreshold {
		s.State = StateSummarizing
		return true, nil
	}
	return false, nil
}

// Resolve records the caller's visibility decision. Only a session holding a
// summary can be resolved, and only once.
func (s *Session) Resolve(v Visibility) error {
	if !v.Valid() {
		return ErrInvalidVisibility
	}
	switch s.State {
	case StateResolved:
		return ErrSessionResolved
	case StateSummarizing:
		s.State = StateResolved
		s.Visibility = v
		return nil
	default:
		return ErrSessionNotReady
	}
}
