package conversation

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/PabloGalante/haven-intake/internal/app/intake"
	"github.com/PabloGalante/haven-intake/internal/domain"
	"github.com/PabloGalante/haven-intake/internal/observability"
)

const (
	WelcomeMessage = "Hi, I'm here to help you report safely and anonymously. " +
		"Please tell me what happened, and I'll guide you through the process. " +
		"Take your time - this is a safe space."

	SummaryAnnouncement = "I've created a summary of your report based on our conversation. " +
		"Please review it below and let me know if you'd like to keep it private or share it publicly to help others."
)

var ErrEmptyMessage = errors.New("message text is empty")

type Service struct {
	engine       *intake.Engine
	sessionStore domain.SessionStore
	messageStore domain.MessageStore
	reportStore  domain.ReportStore
	now          func() time.Time
	newID        func() string
}

func NewService(
	engine *intake.Engine,
	sessionStore domain.SessionStore,
	messageStore domain.MessageStore,
	reportStore domain.ReportStore,
) *Service {
	return &Service{
		engine:       engine,
		sessionStore: sessionStore,
		messageStore: messageStore,
		reportStore:  reportStore,
		now:          time.Now,
		newID:        uuid.NewString,
	}
}

type StartSessionOutput struct {
	Session *domain.Session
	Welcome *domain.Message
}

func (s *Service) StartSession(ctx context.Context) (*StartSessionOutput, error) {
	now := s.now()

	session := &domain.Session{
		ID:        domain.SessionID(s.newID()),
		CreatedAt: now,
		UpdatedAt: now,
		State:     domain.StateIdle,
	}

	ctx = observability.WithSessionID(ctx, string(session.ID))
	log := observability.LoggerFromContext(ctx)
	log.Info("starting new session")

	if err := s.sessionStore.CreateSession(ctx, session); err != nil {
		log.Error("failed to create session", "error", err)
		return nil, err
	}

	welcome := &domain.Message{
		ID:        domain.MessageID(s.newID()),
		SessionID: session.ID,
		Author:    domain.RoleAssistant,
		Text:      WelcomeMessage,
		CreatedAt: now,
		Kind:      domain.KindText,
	}

	if err := s.messageStore.AppendMessage(ctx, welcome); err != nil {
		log.Error("failed to append welcome message", "error", err)
		return nil, err
	}

	log.Info("session started")

	return &StartSessionOutput{
		Session: session,
		Welcome: welcome,
	}, nil
}

type SendMessageInput struct {
	SessionID domain.SessionID
	Text      string
}

type SendMessageOutput struct {
	Session      *domain.Session
	UserMessage  *domain.Message
	AgentMessage *domain.Message

	// SummaryMessage and Summary are set only on the turn that closes the intake.
	SummaryMessage *domain.Message
	Summary        *domain.ReportSummary
}

// SendMessage records one user turn. The session update is the commit point:
// the turn count, the state transition and the summary are persisted together
// before any message is appended, so a retry after a later store failure can
// never summarize twice.
func (s *Service) SendMessage(ctx context.Context, in SendMessageInput) (*SendMessageOutput, error) {
	text := strings.TrimSpace(in.Text)
	if text == "" {
		return nil, ErrEmptyMessage
	}

	ctx = observability.WithSessionID(ctx, string(in.SessionID))
	log := observability.LoggerFromContext(ctx)

	session, err := s.sessionStore.GetSession(ctx, in.SessionID)
	if err != nil {
		return nil, err
	}

	history, err := s.messageStore.GetMessagesBySession(ctx, session.ID, 0)
	if err != nil {
		log.Error("failed to load history", "error", err)
		return nil, err
	}

	summarize, err := session.RecordUserTurn()
	if err != nil {
		log.Warn("rejected message", "state", session.State, "error", err)
		return nil, err
	}

	log = log.With("state", session.State, "user_turns", session.UserTurns)
	log.Info("sending message")

	userMsg := &domain.Message{
		ID:        domain.MessageID(s.newID()),
		SessionID: session.ID,
		Author:    domain.RoleUser,
		Text:      text,
		CreatedAt: s.now(),
		Kind:      domain.KindText,
	}

	// The summary reads only user turns, so it can be built before the reply.
	if summarize {
		full := append(append([]*domain.Message{}, history...), userMsg)
		summary := s.engine.Summarize(ctx, full)
		session.Summary = &summary
		log.Info("summary ready", "category", summary.Category, "severity", summary.Severity)
	}

	session.UpdatedAt = s.now()
	if err := s.sessionStore.UpdateSession(ctx, session); err != nil {
		log.Error("failed to update session", "error", err)
		return nil, err
	}

	if err := s.messageStore.AppendMessage(ctx, userMsg); err != nil {
		log.Error("failed to append user message", "error", err)
		return nil, err
	}

	agentMsg := s.engine.SubmitTurn(ctx, history, text)
	agentMsg.SessionID = session.ID

	if err := s.messageStore.AppendMessage(ctx, agentMsg); err != nil {
		log.Error("failed to append agent message", "error", err)
		return nil, err
	}

	out := &SendMessageOutput{
		Session:      session,
		UserMessage:  userMsg,
		AgentMessage: agentMsg,
	}

	if summarize {
		summaryMsg := &domain.Message{
			ID:        domain.MessageID(s.newID()),
			SessionID: session.ID,
			Author:    domain.RoleAssistant,
			Text:      SummaryAnnouncement,
			CreatedAt: s.now(),
			Kind:      domain.KindSummary,
		}
		if err := s.messageStore.AppendMessage(ctx, summaryMsg); err != nil {
			log.Error("failed to append summary message", "error", err)
			return nil, err
		}

		out.SummaryMessage = summaryMsg
		out.Summary = session.Summary
	}

	log.Info("send message completed")

	return out, nil
}

func (s *Service) GetSessionTimeline(
	ctx context.Context,
	sessionID domain.SessionID,
	limit int,
) (*domain.Session, []*domain.Message, error) {

	log := observability.LoggerFromContext(observability.WithSessionID(ctx, string(sessionID))).With(
		"limit", limit,
	)

	session, err := s.sessionStore.GetSession(ctx, sessionID)
	if err != nil {
		log.Error("failed to get session", "error", err)
		return nil, nil, err
	}

	msgs, err := s.messageStore.GetMessagesBySession(ctx, sessionID, limit)
	if err != nil {
		log.Error("failed to get messages", "error", err)
		return nil, nil, err
	}

	log.Info("fetched session timeline", "message_count", len(msgs))

	return session, msgs, nil
}

type ResolveSessionInput struct {
	SessionID  domain.SessionID
	Visibility domain.Visibility
}

type ResolveSessionOutput struct {
	Session *domain.Session
	// Report is nil when the user kept the summary private.
	Report *domain.Report
}

// ResolveSession records the user's visibility decision. Only public
// summaries are stored as reports.
func (s *Service) ResolveSession(ctx context.Context, in ResolveSessionInput) (*ResolveSessionOutput, error) {
	ctx = observability.WithSessionID(ctx, string(in.SessionID))
	log := observability.LoggerFromContext(ctx).With("visibility", in.Visibility)

	session, err := s.sessionStore.GetSession(ctx, in.SessionID)
	if err != nil {
		return nil, err
	}

	if session.State == domain.StateSummarizing && session.Summary == nil {
		return nil, domain.ErrSessionNotReady
	}
	if err := session.Resolve(in.Visibility); err != nil {
		log.Warn("cannot resolve session", "state", session.State, "error", err)
		return nil, err
	}

	out := &ResolveSessionOutput{Session: session}

	if in.Visibility == domain.VisibilityPublic {
		report := &domain.Report{
			ID:        domain.ReportID(s.newID()),
			SessionID: session.ID,
			Summary:   session.Summary.Clone(),
			IsPublic:  true,
			CreatedAt: s.now(),
		}
		if err := s.reportStore.SaveReport(ctx, report); err != nil {
			log.Error("failed to save report", "error", err)
			return nil, err
		}
		out.Report = report
	}

	session.UpdatedAt = s.now()
	if err := s.sessionStore.UpdateSession(ctx, session); err != nil {
		log.Error("failed to update session", "error", err)
		return nil, err
	}

	log.Info("session resolved", "report_stored", out.Report != nil)

	return out, nil
}
