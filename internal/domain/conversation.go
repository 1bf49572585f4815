package domain

import "strings"

// Message represents any message in an intake timeline (user or assistant).
// Once appended to a session it is never modified.
type Message struct {
	ID        MessageID
	SessionID SessionID
	Author    Role
	Text      string
	CreatedAt Timestamp

	// Kind is KindText unless the message announces a generated summary.
	Kind MessageKind
}

// UserTurnCount counts the messages authored by the user.
func UserTurnCount(history []*Message) int {
	n := 0
	for _, m := range history {
		if m != nil && m.Author == RoleUser {
			n++
		}
	}
	return n
}

// UserNarrative joins every user-authored text with single spaces.
// Message boundaries are intentionally discarded.
func UserNarrative(history []*Message) string {
	var parts []string
	for _, m := range history {
		if m != nil && m.Author == RoleUser {
			parts = append(parts, m.Text)
		}
	}
	return strings.Join(parts, " ")
}
