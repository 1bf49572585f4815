package firestore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/PabloGalante/haven-intake/internal/domain"
)

type Store struct {
	client *firestore.Client
}

// NewStore creates a Firestore store.
// Uses the project passed (HAVEN_GCP_PROJECT).
func NewStore(ctx context.Context, projectID string) (*Store, error) {
	if projectID == "" {
		return nil, fmt.Errorf("projectID is required for Firestore store")
	}

	client, err := firestore.NewClient(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("creating firestore client: %w", err)
	}

	return &Store{client: client}, nil
}

func (s *Store) Close() error {
	return s.client.Close()
}

// ─────────────────────────────────────────
// Helpers
// ─────────────────────────────────────────

func (s *Store) sessionDoc(id domain.SessionID) *firestore.DocumentRef {
	return s.client.Collection("sessions").Doc(string(id))
}

func (s *Store) messagesCol(sessionID domain.SessionID) *firestore.CollectionRef {
	return s.sessionDoc(sessionID).Collection("messages")
}

func (s *Store) reportDoc(id domain.ReportID) *firestore.DocumentRef {
	return s.client.Collection("reports").Doc(string(id))
}

// ─────────────────────────────────────────
// Firestore Types
// ─────────────────────────────────────────

type sessionDoc struct {
	State      string                `firestore:"state"`
	UserTurns  int                   `firestore:"user_turns"`
	Summary    *domain.ReportSummary `firestore:"summary"`
	Visibility string                `firestore:"visibility"`
	CreatedAt  time.Time             `firestore:"created_at"`
	UpdatedAt  time.Time             `firestore:"updated_at"`

	// MessageSeq is the seq of the last appended message.
	MessageSeq int64 `firestore:"message_seq"`
}

type messageDoc struct {
	Seq       int64     `firestore:"seq"`
	SessionID string    `firestore:"session_id"`
	Author    string    `firestore:"author"`
	Text      string    `firestore:"text"`
	Kind      string    `firestore:"kind"`
	CreatedAt time.Time `firestore:"created_at"`
}

type reportDoc struct {
	SessionID string               `firestore:"session_id"`
	Summary   domain.ReportSummary `firestore:"summary"`
	IsPublic  bool                 `firestore:"is_public"`
	CreatedAt time.Time            `firestore:"created_at"`
}

func toSessionDoc(session *domain.Session) sessionDoc {
	return sessionDoc{
		State:      string(session.State),
		UserTurns:  session.UserTurns,
		Summary:    session.Summary,
		Visibility: string(session.Visibility),
		CreatedAt:  session.CreatedAt,
		UpdatedAt:  session.UpdatedAt,
	}
}

func fromSessionDoc(id domain.SessionID, doc sessionDoc) *domain.Session {
	return &domain.Session{
		ID:         id,
		State:      domain.SessionState(doc.State),
		UserTurns:  doc.UserTurns,
		Summary:    doc.Summary,
		Visibility: domain.Visibility(doc.Visibility),
		CreatedAt:  doc.CreatedAt,
		UpdatedAt:  doc.UpdatedAt,
	}
}

// ─────────────────────────────────────────
// SessionStore implementation
// ─────────────────────────────────────────

func (s *Store) CreateSession(ctx context.Context, session *domain.Session) error {
	_, err := s.sessionDoc(session.ID).Create(ctx, toSessionDoc(session))
	if err != nil {
		if status.Code(err) == codes.AlreadyExists {
			return domain.ErrSessionExists
		}
		return fmt.Errorf("firestore CreateSession: %w", err)
	}
	return nil
}

// UpdateSession writes the session fields only, leaving message_seq to AppendMessage.
func (s *Store) UpdateSession(ctx context.Context, session *domain.Session) error {
	_, err := s.sessionDoc(session.ID).Update(ctx, []firestore.Update{
		{Path: "state", Value: string(session.State)},
		{Path: "user_turns", Value: session.UserTurns},
		{Path: "summary", Value: session.Summary},
		{Path: "visibility", Value: string(session.Visibility)},
		{Path: "created_at", Value: session.CreatedAt},
		{Path: "updated_at", Value: session.UpdatedAt},
	})
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return domain.ErrSessionNotFound
		}
		return fmt.Errorf("firestore UpdateSession: %w", err)
	}
	return nil
}

func (s *Store) GetSession(ctx context.Context, id domain.SessionID) (*domain.Session, error) {
	snap, err := s.sessionDoc(id).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, domain.ErrSessionNotFound
		}
		return nil, fmt.Errorf("firestore GetSession: %w", err)
	}

	var doc sessionDoc
	if err := snap.DataTo(&doc); err != nil {
		return nil, fmt.Errorf("firestore GetSession decode: %w", err)
	}

	return fromSessionDoc(id, doc), nil
}

// ─────────────────────────────────────────
// MessageStore implementation
// ─────────────────────────────────────────

// AppendMessage stores msg with the next per-session sequence number, so
// messages written within the same clock tick keep insertion order.
func (s *Store) AppendMessage(ctx context.Context, msg *domain.Message) error {
	sessRef := s.sessionDoc(msg.SessionID)
	msgRef := s.messagesCol(msg.SessionID).Doc(string(msg.ID))

	doc := messageDoc{
		SessionID: string(msg.SessionID),
		Author:    string(msg.Author),
		Text:      msg.Text,
		Kind:      string(msg.Kind),
		CreatedAt: msg.CreatedAt,
	}

	err := s.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		snap, err := tx.Get(sessRef)
		if err != nil {
			return err
		}

		var sess sessionDoc
		if err := snap.DataTo(&sess); err != nil {
			return fmt.Errorf("decode sessionDoc: %w", err)
		}
		doc.Seq = sess.MessageSeq + 1

		if err := tx.Set(msgRef, doc); err != nil {
			return err
		}
		return tx.Update(sessRef, []firestore.Update{{Path: "message_seq", Value: doc.Seq}})
	})
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return domain.ErrSessionNotFound
		}
		return fmt.Errorf("firestore AppendMessage: %w", err)
	}
	return nil
}

// GetMessagesBySession returns the last `limit` messages in insertion order.
// If limit <= 0, returns all.
func (s *Store) GetMessagesBySession(ctx context.Context, sessionID domain.SessionID, limit int) ([]*domain.Message, error) {
	q := s.messagesCol(sessionID).OrderBy("seq", firestore.Desc)
	if limit > 0 {
		q = q.Limit(limit)
	}

	iter := q.Documents(ctx)
	defer iter.Stop()

	var out []*domain.Message
	for {
		snap, err := iter.Next()
		if err != nil {
			if errors.Is(err, iterator.Done) {
				break
			}
			return nil, fmt.Errorf("firestore GetMessagesBySession: %w", err)
		}

		var doc messageDoc
		if err := snap.DataTo(&doc); err != nil {
			return nil, fmt.Errorf("decode messageDoc: %w", err)
		}

		out = append(out, &domain.Message{
			ID:        domain.MessageID(snap.Ref.ID),
			SessionID: sessionID,
			Author:    domain.Role(doc.Author),
			Text:      doc.Text,
			Kind:      domain.MessageKind(doc.Kind),
			CreatedAt: doc.CreatedAt,
		})
	}

	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out, nil
}

// ─────────────────────────────────────────
// ReportStore implementation
// ─────────────────────────────────────────

func (s *Store) SaveReport(ctx context.Context, report *domain.Report) error {
	if report.ID == "" {
		return fmt.Errorf("firestore SaveReport: report ID is required")
	}

	doc := reportDoc{
		SessionID: string(report.SessionID),
		Summary:   report.Summary,
		IsPublic:  report.IsPublic,
		CreatedAt: report.CreatedAt,
	}

	if _, err := s.reportDoc(report.ID).Set(ctx, doc); err != nil {
		return fmt.Errorf("firestore SaveReport: %w", err)
	}
	return nil
}

func (s *Store) GetReport(ctx context.Context, id domain.ReportID) (*domain.Report, error) {
	snap, err := s.reportDoc(id).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, domain.ErrReportNotFound
		}
		return nil, fmt.Errorf("firestore GetReport: %w", err)
	}

	var doc reportDoc
	if err := snap.DataTo(&doc); err != nil {
		return nil, fmt.Errorf("firestore GetReport decode: %w", err)
	}

	return &domain.Report{
		ID:        id,
		SessionID: domain.SessionID(doc.SessionID),
		Summary:   doc.Summary,
		IsPublic:  doc.IsPublic,
		CreatedAt: doc.CreatedAt,
	}, nil
}
