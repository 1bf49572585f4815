package domain

import "time"

type SessionID string
type MessageID string
type ReportID string

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// MessageKind tags what a message carries in the timeline.
type MessageKind string

const (
	KindText    MessageKind = "text"
	KindSummary MessageKind = "summary"
)

type Timestamp = time.Time
