package intake

import (
	"fmt"
	"strings"

	"github.com/PabloGalante/haven-intake/internal/domain"
)

// replyContextWindow is how many trailing history entries the reply prompt carries.
const replyContextWindow = 6

const replySystemPrompt = `You are a compassionate assistant helping someone report harassment. Your role is to:
- Be empathetic, supportive, and non-judgmental
- Ask thoughtful follow-up questions to gather important details
- Validate their experience and emotions
- Never blame the victim
- Keep responses concise (2-3 sentences max)
- Focus on gathering information for their report`

const summaryPromptTemplate = `Analyze this harassment report conversation and provide a structured summary.

Conversation content: %s

Respond with ONLY a JSON object with exactly these fields and nothing else:
{
  "title": "Brief descriptive title for the incident",
  "summary": "2-3 sentence summary of what happened",
  "category": "one of: workplace, online, public, educational, other",
  "severity": "one of: low, medium, high",
  "keyPoints": ["array of 2-4 key points from the incident"]
}

Guidelines:
- Be factual and professional
- Focus on the key details provided
- Assess severity based on impact and nature of incidents
- Choose category based on where harassment occurred
- Key points should highlight important aspects like frequency, witnesses, evidence, etc.`

func phaseGuidance(p Phase) string {
	switch p {
	case PhaseEarly:
		return "The conversation has just started: acknowledge what they shared, then ask one gentle follow-up question."
	case PhaseMid:
		return "Ask one relevant follow-up question that helps them document the experience."
	case PhaseClosing:
		return "You have enough information: thank them and let them know you will now prepare a summary of their report for review."
	default:
		return ""
	}
}

// buildReplyPrompt embeds the latest user message and at most the last
// replyContextWindow history entries into the reply instructions.
func buildReplyPrompt(userMessage string, history []*domain.Message, phase Phase) string {
	if len(history) > replyContextWindow {
		history = history[len(history)-replyContextWindow:]
	}

	var b strings.Builder
	b.WriteString(replySystemPrompt)

	b.WriteString("\n\nUse these supportive responses when appropriate:\n")
	writeNumbered(&b, supportiveStatements[:])
	b.WriteString("\nUse these follow-up questions to guide the conversation:\n")
	writeNumbered(&b, followUpQuestions[:])

	b.WriteString("\nCurrent conversation context:\n")
	for _, m := range history {
		if m == nil {
			continue
		}
		b.WriteString(roleTag(m.Author))
		b.WriteString(": ")
		b.WriteString(m.Text)
		b.WriteString("\n")
	}

	b.WriteString("\nUser's latest message: ")
	b.WriteString(userMessage)
	b.WriteString("\n\n")
	b.WriteString(phaseGuidance(phase))
	return b.String()
}

func buildSummaryPrompt(narrative string) string {
	return fmt.Sprintf(summaryPromptTemplate, narrative)
}

func roleTag(r domain.Role) string {
	if r == domain.RoleUser {
		return "User"
	}
	return "Assistant"
}

func writeNumbered(b *strings.Builder, items []string) {
	for i, s := range items {
		fmt.Fprintf(b, "%d. %s\n", i+1, s)
	}
}
