package intake

import (
	"context"

	"github.com/PabloGalante/haven-intake/internal/domain"
	"github.com/PabloGalante/haven-intake/internal/observability"
)

var replyTemperature = float32(0.7)

// generateReply asks the backend once and accepts any non-empty text verbatim.
// On failure the Selector answers for the same phase.
func (e *Engine) generateReply(ctx context.Context, userMessage string, history []*domain.Message, phase Phase) string {
	prompt := buildReplyPrompt(userMessage, history, phase)

	text, err := e.complete(ctx, observability.OpReply, prompt, domain.GenerationParams{
		Temperature: &replyTemperature,
	})
	if err == nil {
		observability.LoggerFromContext(ctx).Info("using backend reply", "length", len(text))
		return text
	}

	e.recordFallback(ctx, observability.OpReply, err)
	return e.selector.Reply(phase)
}
