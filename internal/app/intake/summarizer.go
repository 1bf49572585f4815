package intake

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/PabloGalante/haven-intake/internal/domain"
	"github.com/PabloGalante/haven-intake/internal/observability"
)

const (
	sourceBackend  = "backend"
	sourceFallback = "fallback"
)

var summaryTemperature = float32(0.2)

func (e *Engine) generateSummary(ctx context.Context, narrative string) domain.ReportSummary {
	log := observability.LoggerFromContext(ctx)

	text, err := e.complete(ctx, observability.OpSummary, buildSummaryPrompt(narrative), domain.GenerationParams{
		Temperature: &summaryTemperature,
		JSON:        true,
	})
	if err == nil {
		summary, perr := e.parseSummary(text)
		if perr == nil {
			log.Info("using backend summary",
				"category", summary.Category,
				"severity", summary.Severity,
			)
			e.metrics.RecordSummary(sourceBackend, string(summary.Category), string(summary.Severity))
			return summary
		}
		err = &domain.BackendError{Kind: domain.BackendMalformedResponse, Op: observability.OpSummary, Err: perr}
	}

	e.recordFallback(ctx, observability.OpSummary, err)
	summary := FallbackSummary(narrative)
	e.metrics.RecordSummary(sourceFallback, string(summary.Category), string(summary.Severity))
	return summary
}

// parseSummary decodes and validates a backend payload.
func (e *Engine) parseSummary(text string) (domain.ReportSummary, error) {
	summary, err := DecodeSummary(text)
	if err != nil {
		return domain.ReportSummary{}, err
	}
	if err := e.validator.Validate(summary); err != nil {
		return domain.ReportSummary{}, fmt.Errorf("validate summary: %w", err)
	}
	return summary, nil
}

// DecodeSummary strictly decodes a single JSON object carrying only the five
// summary fields. Keys must match exactly, including case, and each may
// appear at most once. One enclosing Markdown code fence is tolerated; any
// other surrounding text, unknown field or type mismatch is an error.
func DecodeSummary(text string) (domain.ReportSummary, error) {
	payload := stripCodeFence(strings.TrimSpace(text))
	dec := json.NewDecoder(strings.NewReader(payload))

	tok, err := dec.Token()
	if err != nil {
		return domain.ReportSummary{}, fmt.Errorf("decode summary: %w", err)
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return domain.ReportSummary{}, errors.New("decode summary: expected a JSON object")
	}

	var s domain.ReportSummary
	seen := make(map[string]bool, 5)
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return domain.ReportSummary{}, fmt.Errorf("decode summary: %w", err)
		}
		key, _ := tok.(string)

		target := summaryField(&s, key)
		if target == nil {
			return domain.ReportSummary{}, fmt.Errorf("decode summary: unknown field %q", key)
		}
		if seen[key] {
			return domain.ReportSummary{}, fmt.Errorf("decode summary: duplicate field %q", key)
		}
		seen[key] = true

		if err := dec.Decode(target); err != nil {
			return domain.ReportSummary{}, fmt.Errorf("decode summary field %q: %w", key, err)
		}
	}

	// closing brace
	if _, err := dec.Token(); err != nil {
		return domain.ReportSummary{}, fmt.Errorf("decode summary: %w", err)
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return domain.ReportSummary{}, errors.New("decode summary: unexpected data after JSON object")
	}
	return s, nil
}

// summaryField maps an exact JSON key to its destination in s.
func summaryField(s *domain.ReportSummary, key string) any {
	switch key {
	case "title":
		return &s.Title
	case "summary":
		return &s.Summary
	case "category":
		return &s.Category
	case "severity":
		return &s.Severity
	case "keyPoints":
		return &s.KeyPoints
	}
	return nil
}

func stripCodeFence(s string) string {
	if !strings.HasPrefix(s, "```") {
		return s
	}
	nl := strings.IndexByte(s, '\n')
	if nl < 0 {
		return s
	}
	body, ok := strings.CutSuffix(strings.TrimSpace(s[nl+1:]), "```")
	if !ok {
		return s
	}
	return strings.TrimSpace(body)
}
