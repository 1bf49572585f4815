package httpadapter

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/PabloGalante/haven-intake/internal/app/conversation"
	"github.com/PabloGalante/haven-intake/internal/app/intake"
	"github.com/PabloGalante/haven-intake/internal/app/reports"
	"github.com/PabloGalante/haven-intake/internal/domain"
	"github.com/PabloGalante/haven-intake/internal/observability"
)

const (
	maxMessageBytes = 32 << 10
	maxHistory      = 100
	maxBodyBytes    = (maxHistory + 1) * (maxMessageBytes + 512)
)

type Server struct {
	engine  *intake.Engine
	svc     *conversation.Service
	reports *reports.Service
}

// NewServer builds the HTTP API. gatherer may be nil, in which case
// /metrics is not served.
func NewServer(
	engine *intake.Engine,
	svc *conversation.Service,
	reportSvc *reports.Service,
	gatherer prometheus.Gatherer,
) http.Handler {
	s := &Server{engine: engine, svc: svc, reports: reportSvc}
	mux := http.NewServeMux()

	mux.HandleFunc("/healthz", s.handleHealthz)
	if gatherer != nil {
		mux.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	}

	// stateless engine endpoints; the caller sends the whole history
	mux.HandleFunc("/api/chat", s.handleChat)
	mux.HandleFunc("/api/summary", s.handleSummary)

	// /sessions → create session (POST)
	mux.HandleFunc("/sessions", s.handleSessions)

	// /sessions/{id}          →  GET: get session + messages
	// /sessions/{id}/messages → POST: send message
	// /sessions/{id}/resolve  → POST: keep private or share
	mux.HandleFunc("/sessions/", s.handleSessionWithID)

	// /reports/{id} → GET: a shared report
	mux.HandleFunc("/reports/", s.handleReport)

	return chainMiddlewares(mux, withCORS, withLogging, withRequestID)
}

// ─────────────────────────────────────────────
// DTOs (request/response)
// ─────────────────────────────────────────────

// historyEntry matches the chat widget's message shape.
type historyEntry struct {
	ID        string    `json:"id,omitempty"`
	Content   string    `json:"content"`
	Sender    string    `json:"sender"`
	Timestamp time.Time `json:"timestamp"`
	Type      string    `json:"type,omitempty"`
}

type chatRequest struct {
	Message             string         `json:"message"`
	ConversationHistory []historyEntry `json:"conversationHistory"`
}

type chatResponse struct {
	Response string `json:"response"`
}

type summaryRequest struct {
	ConversationHistory []historyEntry `json:"conversationHistory"`
}

type summaryResponse struct {
	Summary domain.ReportSummary `json:"summary"`
}

type createSessionResponse struct {
	Session sessionResponse  `json:"session"`
	Welcome *messageResponse `json:"welcome_message,omitempty"`
}

type sessionResponse struct {
	ID         string                `json:"id"`
	State      string                `json:"state"`
	UserTurns  int                   `json:"user_turns"`
	Summary    *domain.ReportSummary `json:"summary,omitempty"`
	Visibility string                `json:"visibility,omitempty"`
	CreatedAt  time.Time             `json:"created_at"`
	UpdatedAt  time.Time             `json:"updated_at"`
}

type messageResponse struct {
	ID        string    `json:"id"`
	SessionID string    `json:"session_id"`
	Author    string    `json:"author"`
	Text      string    `json:"text"`
	Kind      string    `json:"kind"`
	CreatedAt time.Time `json:"created_at"`
}

type sendMessageRequest struct {
	Text string `json:"text"`
}

type sendMessageResponse struct {
	Session        sessionResponse       `json:"session"`
	UserMessage    messageResponse       `json:"user_message"`
	AgentMessage   messageResponse       `json:"agent_message"`
	SummaryMessage *messageResponse      `json:"summary_message,omitempty"`
	Summary        *domain.ReportSummary `json:"summary,omitempty"`
}

type getSessionResponse struct {
	Session  sessionResponse   `json:"session"`
	Messages []messageResponse `json:"messages"`
}

type resolveRequest struct {
	Visibility string `json:"visibility"`
}

type reportResponse struct {
	ID        string               `json:"id"`
	SessionID string               `json:"session_id"`
	Summary   domain.ReportSummary `json:"summary"`
	IsPublic  bool                 `json:"is_public"`
	CreatedAt time.Time            `json:"created_at"`
}

type resolveResponse struct {
	Session sessionResponse `json:"session"`
	Report  *reportResponse `json:"report,omitempty"`
}

// ─────────────────────────────────────────────
// Basic routing
// ─────────────────────────────────────────────

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// /sessions
func (s *Server) handleSessions(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		s.handleCreateSession(w, r)
	default:
		methodNotAllowed(w)
	}
}

// /sessions/{id}, /sessions/{id}/messages or /sessions/{id}/resolve
func (s *Server) handleSessionWithID(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/sessions/")
	parts := strings.Split(path, "/")
	id := parts[0]

	if id == "" {
		http.NotFound(w, r)
		return
	}

	switch {
	case len(parts) == 1:
		if r.Method != http.MethodGet {
			methodNotAllowed(w)
			return
		}
		s.handleGetSession(w, r, domain.SessionID(id))

	case len(parts) == 2 && parts[1] == "messages":
		if r.Method != http.MethodPost {
			methodNotAllowed(w)
			return
		}
		s.handleSendMessage(w, r, domain.SessionID(id))

	case len(parts) == 2 && parts[1] == "resolve":
		if r.Method != http.MethodPost {
			methodNotAllowed(w)
			return
		}
		s.handleResolve(w, r, domain.SessionID(id))

	default:
		http.NotFound(w, r)
	}
}

// /reports/{id}
func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimPrefix(r.URL.Path, "/reports/")
	if id == "" || strings.Contains(id, "/") {
		http.NotFound(w, r)
		return
	}
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}

	report, err := s.reports.GetReport(r.Context(), domain.ReportID(id))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toReportResponse(report))
}

// ─────────────────────────────────────────────
// Concrete handlers
// ─────────────────────────────────────────────

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}

	var req chatRequest
	if !decodeBody(w, r, &req) {
		return
	}

	msg := strings.TrimSpace(req.Message)
	if msg == "" {
		badRequest(w, "message is required")
		return
	}
	if len(msg) > maxMessageBytes {
		badRequest(w, "message is too long")
		return
	}

	history, err := toDomainHistory(req.ConversationHistory)
	if err != nil {
		badRequest(w, err.Error())
		return
	}

	reply := s.engine.SubmitTurn(r.Context(), history, msg)
	writeJSON(w, http.StatusOK, chatResponse{Response: reply.Text})
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}

	var req summaryRequest
	if !decodeBody(w, r, &req) {
		return
	}

	history, err := toDomainHistory(req.ConversationHistory)
	if err != nil {
		badRequest(w, err.Error())
		return
	}

	summary := s.engine.Summarize(r.Context(), history)
	writeJSON(w, http.StatusOK, summaryResponse{Summary: summary})
}

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	out, err := s.svc.StartSession(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	welcome := toMessageResponse(out.Welcome)
	resp := createSessionResponse{
		Session: toSessionResponse(out.Session),
		Welcome: &welcome,
	}

	writeJSON(w, http.StatusCreated, resp)
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request, id domain.SessionID) {
	session, msgs, err := s.svc.GetSessionTimeline(r.Context(), id, 0)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	resp := getSessionResponse{
		Session:  toSessionResponse(session),
		Messages: toMessagesResponse(msgs),
	}

	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleSendMessage(w http.ResponseWriter, r *http.Request, sessionID domain.SessionID) {
	var req sendMessageRequest
	if !decodeBody(w, r, &req) {
		return
	}

	if strings.TrimSpace(req.Text) == "" {
		badRequest(w, "text is required")
		return
	}
	if len(req.Text) > maxMessageBytes {
		badRequest(w, "text is too long")
		return
	}

	out, err := s.svc.SendMessage(
		r.Context(),
		conversation.SendMessageInput{
			SessionID: sessionID,
			Text:      req.Text,
		},
	)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	resp := sendMessageResponse{
		Session:      toSessionResponse(out.Session),
		UserMessage:  toMessageResponse(out.UserMessage),
		AgentMessage: toMessageResponse(out.AgentMessage),
		Summary:      out.Summary,
	}
	if out.SummaryMessage != nil {
		m := toMessageResponse(out.SummaryMessage)
		resp.SummaryMessage = &m
	}

	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleResolve(w http.ResponseWriter, r *http.Request, sessionID domain.SessionID) {
	var req resolveRequest
	if !decodeBody(w, r, &req) {
		return
	}

	out, err := s.svc.ResolveSession(r.Context(), conversation.ResolveSessionInput{
		SessionID:  sessionID,
		Visibility: domain.Visibility(strings.ToLower(strings.TrimSpace(req.Visibility))),
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	resp := resolveResponse{Session: toSessionResponse(out.Session)}
	if out.Report != nil {
		rep := toReportResponse(out.Report)
		resp.Report = &rep
	}
	writeJSON(w, http.StatusOK, resp)
}

// ─────────────────────────────────────────────
// Conversation Helpers
// ─────────────────────────────────────────────

func toDomainHistory(entries []historyEntry) ([]*domain.Message, error) {
	if len(entries) > maxHistory {
		return nil, fmt.Errorf("conversationHistory is limited to %d entries", maxHistory)
	}

	out := make([]*domain.Message, 0, len(entries))
	for i, e := range entries {
		if len(e.Content) > maxMessageBytes {
			return nil, fmt.Errorf("conversationHistory[%d] is too long", i)
		}

		var author domain.Role
		switch strings.ToLower(e.Sender) {
		case "user":
			author = domain.RoleUser
		case "ai", "assistant":
			author = domain.RoleAssistant
		default:
			return nil, fmt.Errorf("conversationHistory[%d]: unknown sender %q", i, e.Sender)
		}

		kind := domain.KindText
		if e.Type == string(domain.KindSummary) {
			kind = domain.KindSummary
		}

		out = append(out, &domain.Message{
			ID:        domain.MessageID(e.ID),
			Author:    author,
			Text:      e.Content,
			CreatedAt: e.Timestamp,
			Kind:      kind,
		})
	}
	return out, nil
}

func toSessionResponse(s *domain.Session) sessionResponse {
	return sessionResponse{
		ID:         string(s.ID),
		State:      string(s.State),
		UserTurns:  s.UserTurns,
		Summary:    s.Summary,
		Visibility: string(s.Visibility),
		CreatedAt:  s.CreatedAt,
		UpdatedAt:  s.UpdatedAt,
	}
}

func toMessageResponse(m *domain.Message) messageResponse {
	return messageResponse{
		ID:        string(m.ID),
		SessionID: string(m.SessionID),
		Author:    string(m.Author),
		Text:      m.Text,
		Kind:      string(m.Kind),
		CreatedAt: m.CreatedAt,
	}
}

func toMessagesResponse(msgs []*domain.Message) []messageResponse {
	out := make([]messageResponse, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, toMessageResponse(m))
	}
	return out
}

func toReportResponse(r *domain.Report) reportResponse {
	return reportResponse{
		ID:        string(r.ID),
		SessionID: string(r.SessionID),
		Summary:   r.Summary,
		IsPublic:  r.IsPublic,
		CreatedAt: r.CreatedAt,
	}
}

// ─────────────────────────────────────────────
// HTTP Helpers
// ─────────────────────────────────────────────

func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeJSON(w, http.StatusRequestEntityTooLarge, map[string]string{
				"error": "request body too large",
			})
			return false
		}
		badRequest(w, "invalid JSON body")
		return false
	}
	return true
}

func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, domain.ErrSessionNotFound), errors.Is(err, domain.ErrReportNotFound):
		writeJSON(w, http.StatusNotFound, map[string]string{"error": err.Error()})
	case errors.Is(err, domain.ErrSessionResolved), errors.Is(err, domain.ErrSessionNotReady):
		writeJSON(w, http.StatusConflict, map[string]string{"error": err.Error()})
	case errors.Is(err, domain.ErrInvalidVisibility), errors.Is(err, conversation.ErrEmptyMessage):
		badRequest(w, err.Error())
	default:
		observability.LoggerFromContext(r.Context()).Error("request failed", "error", err)
		internalError(w)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func badRequest(w http.ResponseWriter, msg string) {
	writeJSON(w, http.StatusBadRequest, map[string]string{
		"error": msg,
	})
}

func internalError(w http.ResponseWriter) {
	writeJSON(w, http.StatusInternalServerError, map[string]string{
		"error": "internal server error",
	})
}

func methodNotAllowed(w http.ResponseWriter) {
	writeJSON(w, http.StatusMethodNotAllowed, map[string]string{
		"error": "method not allowed",
	})
}
