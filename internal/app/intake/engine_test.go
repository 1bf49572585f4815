package intake_test

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/PabloGalante/haven-intake/internal/adapters/llm"
	"github.com/PabloGalante/haven-intake/internal/app/intake"
	"github.com/PabloGalante/haven-intake/internal/domain"
	"github.com/PabloGalante/haven-intake/internal/observability"
)

func userMsg(text string) *domain.Message {
	return &domain.Message{Author: domain.RoleUser, Text: text, Kind: domain.KindText}
}

func assistantMsg(text string) *domain.Message {
	return &domain.Message{Author: domain.RoleAssistant, Text: text, Kind: domain.KindText}
}

// historyWithUserTurns alternates user and assistant messages.
func historyWithUserTurns(texts ...string) []*domain.Message {
	var h []*domain.Message
	for _, t := range texts {
		h = append(h, userMsg(t), assistantMsg("ok"))
	}
	return h
}

func failing(err error) llm.CompleterFunc {
	return func(ctx context.Context, prompt string, params domain.GenerationParams) (string, error) {
		return "", err
	}
}

func replying(text string) llm.CompleterFunc {
	return func(ctx context.Context, prompt string, params domain.GenerationParams) (string, error) {
		return text, nil
	}
}

func TestSubmitTurnUsesBackendTextTrimmed(t *testing.T) {
	e := intake.NewEngine(replying("  I'm so sorry. When did it start?\n"))

	msg := e.SubmitTurn(context.Background(), nil, "Something happened at work")

	assert.Equal(t, "I'm so sorry. When did it start?", msg.Text)
	assert.Equal(t, domain.RoleAssistant, msg.Author)
	assert.Equal(t, domain.KindText, msg.Kind)
	assert.NotEmpty(t, msg.ID)
}

func TestSubmitTurnFallsBackByPhase(t *testing.T) {
	cases := []struct {
		name      string
		userTurns int
		check     func(t *testing.T, reply string)
	}{
		{"early", 0, func(t *testing.T, reply string) {
			assert.NotContains(t, intake.FollowUpQuestions(), reply)
			assert.True(t, endsWithAny(reply, intake.FollowUpQuestions()), reply)
		}},
		{"mid", 3, func(t *testing.T, reply string) {
			assert.Contains(t, intake.FollowUpQuestions(), reply)
		}},
		{"closing", 5, func(t *testing.T, reply string) {
			assert.Equal(t, intake.ClosingReply, reply)
		}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			e := intake.NewEngine(failing(errors.New("connection refused")), intake.WithRand(intake.NewRand(7)))
			texts := make([]string, tc.userTurns)
			for i := range texts {
				texts[i] = "turn"
			}
			msg := e.SubmitTurn(context.Background(), historyWithUserTurns(texts...), "new message")
			tc.check(t, msg.Text)
		})
	}
}

func TestSubmitTurnFallbackIsReproducibleWithSeed(t *testing.T) {
	a := intake.NewEngine(nil, intake.WithRand(intake.NewRand(99)))
	b := intake.NewEngine(nil, intake.WithRand(intake.NewRand(99)))

	for i := 0; i < 5; i++ {
		assert.Equal(t,
			a.SubmitTurn(context.Background(), nil, "hi").Text,
			b.SubmitTurn(context.Background(), nil, "hi").Text,
		)
	}
}

func TestSubmitTurnEmptyBackendTextFallsBack(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := observability.NewMetrics(reg)
	e := intake.NewEngine(replying("   \n"), intake.WithMetrics(metrics))

	msg := e.SubmitTurn(context.Background(), historyWithUserTurns("a", "b", "c"), "d")

	assert.Contains(t, intake.FollowUpQuestions(), msg.Text)
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.FallbacksTotal.WithLabelValues(observability.OpReply, string(domain.BackendEmptyResponse))))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.BackendCallsTotal.WithLabelValues(observability.OpReply, observability.OutcomeSuccess)))
}

func TestSubmitTurnBackendTimeoutFallsBack(t *testing.T) {
	release := make(chan struct{})
	defer close(release)

	// Ignores ctx on purpose; the engine must still return.
	blocked := llm.CompleterFunc(func(ctx context.Context, prompt string, params domain.GenerationParams) (string, error) {
		<-release
		return "too late", nil
	})

	reg := prometheus.NewRegistry()
	metrics := observability.NewMetrics(reg)
	e := intake.NewEngine(blocked, intake.WithTimeout(20*time.Millisecond), intake.WithMetrics(metrics))

	start := time.Now()
	msg := e.SubmitTurn(context.Background(), historyWithUserTurns("a", "b", "c", "d", "e"), "f")

	assert.Less(t, time.Since(start), 2*time.Second)
	assert.Equal(t, intake.ClosingReply, msg.Text)
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.FallbacksTotal.WithLabelValues(observability.OpReply, string(domain.BackendUnavailable))))
}

func TestSubmitTurnBackendPanicFallsBack(t *testing.T) {
	e := intake.NewEngine(llm.CompleterFunc(func(ctx context.Context, prompt string, params domain.GenerationParams) (string, error) {
		panic("boom")
	}))

	msg := e.SubmitTurn(context.Background(), historyWithUserTurns("a", "b", "c"), "d")
	assert.Contains(t, intake.FollowUpQuestions(), msg.Text)
}

func TestSubmitTurnPromptCarriesLastSixEntries(t *testing.T) {
	var (
		mu     sync.Mutex
		prompt string
	)
	e := intake.NewEngine(llm.CompleterFunc(func(ctx context.Context, p string, params domain.GenerationParams) (string, error) {
		mu.Lock()
		prompt = p
		mu.Unlock()
		return "reply", nil
	}))

	history := []*domain.Message{
		userMsg("first-user"),
		assistantMsg("first-assistant"),
		userMsg("u2"), assistantMsg("a2"),
		userMsg("u3"), assistantMsg("a3"),
		userMsg("u4"), assistantMsg("a4"),
	}
	e.SubmitTurn(context.Background(), history, "the latest message")

	mu.Lock()
	defer mu.Unlock()
	assert.NotContains(t, prompt, "first-user")
	assert.NotContains(t, prompt, "first-assistant")
	assert.Contains(t, prompt, "User: u2\nAssistant: a2\n")
	assert.Contains(t, prompt, "Assistant: a4\n")
	assert.Contains(t, prompt, "User's latest message: the latest message")
}

func TestSummarizeUsesValidBackendSummary(t *testing.T) {
	payload := `{"title":"Harassment by a neighbour","summary":"A neighbour has repeatedly shouted insults.","category":"other","severity":"medium","keyPoints":["Repeated insults"]}`

	var gotJSON bool
	e := intake.NewEngine(llm.CompleterFunc(func(ctx context.Context, prompt string, params domain.GenerationParams) (string, error) {
		gotJSON = params.JSON
		return payload, nil
	}))

	s := e.Summarize(context.Background(), historyWithUserTurns("my neighbour shouts at me"))

	assert.True(t, gotJSON)
	assert.Equal(t, "Harassment by a neighbour", s.Title)
	assert.Equal(t, domain.CategoryOther, s.Category)
	assert.Equal(t, []string{"Repeated insults"}, s.KeyPoints)
}

func TestSummarizePromptJoinsUserTextsWithSpaces(t *testing.T) {
	var prompt string
	e := intake.NewEngine(llm.CompleterFunc(func(ctx context.Context, p string, params domain.GenerationParams) (string, error) {
		prompt = p
		return "", nil
	}))

	e.Summarize(context.Background(), historyWithUserTurns("one", "two", "three"))
	assert.Contains(t, prompt, "Conversation content: one two three\n")
}

func TestSummarizeFallsBackOnBadBackendOutput(t *testing.T) {
	cases := map[string]string{
		"not json":          "I cannot help with that.",
		"invalid category":  `{"title":"T","summary":"Something happened at work.","category":"finance","severity":"high","keyPoints":[]}`,
		"missing keyPoints": `{"title":"T","summary":"Something happened at work.","category":"workplace","severity":"high"}`,
		"empty":             "",
		"case-folded keys":  `{"TITLE":"T","SUMMARY":"Something happened at work.","CATEGORY":"workplace","SEVERITY":"high","KEYPOINTS":[]}`,
	}
	for name, payload := range cases {
		t.Run(name, func(t *testing.T) {
			reg := prometheus.NewRegistry()
			metrics := observability.NewMetrics(reg)
			e := intake.NewEngine(replying(payload), intake.WithMetrics(metrics))

			s := e.Summarize(context.Background(), historyWithUserTurns("my supervisor at work"))

			assert.Equal(t, intake.FallbackSummary("my supervisor at work"), s)
			assert.Equal(t, 1.0, testutil.ToFloat64(metrics.SummariesTotal.WithLabelValues("fallback", "workplace", "medium")))
		})
	}
}

func TestSummarizeMalformedIsCountedAsMalformed(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := observability.NewMetrics(reg)
	e := intake.NewEngine(replying(`{"title":""}`), intake.WithMetrics(metrics))

	e.Summarize(context.Background(), nil)

	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.FallbacksTotal.WithLabelValues(observability.OpSummary, string(domain.BackendMalformedResponse))))
}

func TestSummarizeEndToEndWithBackendDisabled(t *testing.T) {
	history := historyWithUserTurns(
		"I want to report something that keeps happening.",
		"My supervisor corners me in the break room.",
		"Last week he made a threat about my job.",
		"It has happened about four times now.",
		"I have not reported it yet.",
		"I just want it documented.",
	)
	require.Equal(t, 6, domain.UserTurnCount(history))

	e := intake.NewEngine(nil)
	s := e.Summarize(context.Background(), history)

	assert.Equal(t, domain.CategoryWorkplace, s.Category)
	assert.Equal(t, domain.SeverityHigh, s.Severity)
	assert.Equal(t, "Workplace Harassment Incident", s.Title)
	assert.NotEmpty(t, s.KeyPoints)
	assert.NoError(t, e.Validator().Validate(s))
}

func endsWithAny(s string, suffixes []string) bool {
	for _, suf := range suffixes {
		if strings.HasSuffix(s, suf) {
			return true
		}
	}
	return false
}
