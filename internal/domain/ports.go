package domain

import "context"

// GenerationParams tunes a single completion request.
type GenerationParams struct {
	Temperature *float32
	MaxTokens   *int

	// JSON asks the backend for a JSON object response when it supports it.
	JSON bool
}

// Completer is the generative backend: one prompt in, text out.
// It may fail or return an empty string.
type Completer interface {
	Complete(ctx context.Context, prompt string, params GenerationParams) (string, error)
}

// SessionStore defines session persistence.
type SessionStore interface {
	CreateSession(ctx context.Context, session *Session) error
	UpdateSession(ctx context.Context, session *Session) error
	GetSession(ctx context.Context, id SessionID) (*Session, error)
}

// MessageStore defines message persistence.
type MessageStore interface {
	AppendMessage(ctx context.Context, msg *Message) error
	GetMessagesBySession(ctx context.Context, sessionID SessionID, limit int) ([]*Message, error)
}

// ReportStore keeps the summaries users chose to share.
type ReportStore interface {
	SaveReport(ctx context.Context, report *Report) error
	GetReport(ctx context.Context, id ReportID) (*Report, error)
}
