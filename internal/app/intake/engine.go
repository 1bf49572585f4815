// Package intake turns a harassment narrative, told over several turns, into
// a structured incident summary. The Engine holds no session state: callers
// pass the full history on every call. A generative backend is used when it
// answers well; otherwise rule-based fallbacks keep every call successful.
package intake

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/PabloGalante/haven-intake/internal/domain"
	"github.com/PabloGalante/haven-intake/internal/observability"
)

// DefaultBackendTimeout bounds a single backend call.
const DefaultBackendTimeout = 20 * time.Second

var errBackendDisabled = errors.New("no generative backend configured")

type Engine struct {
	completer domain.Completer
	selector  *Selector
	validator *Validator
	metrics   *observability.Metrics
	timeout   time.Duration
	now       func() time.Time
	newID     func() string
}

type Option func(*Engine)

// WithRand pins the fallback reply source, e.g. intake.NewRand(42) in tests.
func WithRand(rnd *rand.Rand) Option {
	return func(e *Engine) { e.selector = NewSelector(rnd) }
}

// WithTimeout sets the per-call backend timeout. Zero or negative keeps the default.
func WithTimeout(d time.Duration) Option {
	return func(e *Engine) {
		if d > 0 {
			e.timeout = d
		}
	}
}

func WithMetrics(m *observability.Metrics) Option {
	return func(e *Engine) { e.metrics = m }
}

func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// NewEngine builds an Engine on top of completer. A nil completer disables
// the backend and every call is served by the fallbacks.
func NewEngine(completer domain.Completer, opts ...Option) *Engine {
	e := &Engine{
		completer: completer,
		validator: NewValidator(),
		timeout:   DefaultBackendTimeout,
		now:       time.Now,
		newID:     uuid.NewString,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.selector == nil {
		e.selector = NewSelector(nil)
	}
	return e
}

// SubmitTurn produces the assistant's reply to newUserText. history holds the
// messages before newUserText; the phase counts newUserText as a user turn.
// The returned message has no SessionID; the caller owns the session.
func (e *Engine) SubmitTurn(ctx context.Context, history []*domain.Message, newUserText string) *domain.Message {
	turns := domain.UserTurnCount(history) + 1
	phase := PhaseFor(turns)

	log := observability.LoggerFromContext(ctx).With(
		"user_turns", turns,
		"phase", phase.String(),
	)
	log.Info("generating reply")

	reply := e.generateReply(ctx, newUserText, history, phase)

	return &domain.Message{
		ID:        domain.MessageID(e.newID()),
		Author:    domain.RoleAssistant,
		Text:      reply,
		CreatedAt: e.now(),
		Kind:      domain.KindText,
	}
}

// Summarize produces a ReportSummary from the user-authored messages in history.
// It always returns a summary that passes the Validator.
func (e *Engine) Summarize(ctx context.Context, history []*domain.Message) domain.ReportSummary {
	narrative := domain.UserNarrative(history)

	log := observability.LoggerFromContext(ctx).With(
		"user_turns", domain.UserTurnCount(history),
		"narrative_len", len(narrative),
	)
	log.Info("generating summary")

	return e.generateSummary(ctx, narrative)
}

// Validator exposes the summary contract used by the engine.
func (e *Engine) Validator() *Validator {
	return e.validator
}

type completion struct {
	text string
	err  error
}

// complete makes exactly one backend call bounded by e.timeout. The result is
// trimmed; failures come back as *domain.BackendError.
func (e *Engine) complete(ctx context.Context, op, prompt string, params domain.GenerationParams) (string, error) {
	if e.completer == nil {
		return "", &domain.BackendError{Kind: domain.BackendUnavailable, Op: op, Err: errBackendDisabled}
	}

	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	start := e.now()
	done := make(chan completion, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- completion{err: fmt.Errorf("backend panic: %v", r)}
			}
		}()
		text, err := e.completer.Complete(ctx, prompt, params)
		done <- completion{text: text, err: err}
	}()

	var res completion
	select {
	case res = <-done:
	case <-ctx.Done():
		res = completion{err: ctx.Err()}
	}
	e.metrics.ObserveBackendCall(op, e.now().Sub(start), res.err)

	if res.err != nil {
		return "", &domain.BackendError{Kind: domain.BackendUnavailable, Op: op, Err: res.err}
	}
	text := strings.TrimSpace(res.text)
	if text == "" {
		return "", &domain.BackendError{Kind: domain.BackendEmptyResponse, Op: op}
	}
	return text, nil
}

// recordFallback is the diagnostic hook for every fallback trigger.
// It never changes what the engine returns.
func (e *Engine) recordFallback(ctx context.Context, op string, err error) {
	reason := string(domain.BackendUnavailable)
	var be *domain.BackendError
	if errors.As(err, &be) {
		reason = string(be.Kind)
	}
	observability.LoggerFromContext(ctx).Warn("using fallback",
		"operation", op,
		"reason", reason,
		"error", err,
	)
	e.metrics.RecordFallback(op, reason)
}
