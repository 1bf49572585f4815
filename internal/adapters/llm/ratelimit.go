package llm

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/time/rate"

	"github.com/PabloGalante/haven-intake/internal/domain"
)

var ErrRateLimited = errors.New("backend rate limit exceeded")

// RateLimited caps the request rate to an inner Completer. Calls over the
// limit fail immediately instead of queueing, so the engine can fall back.
type RateLimited struct {
	next    domain.Completer
	limiter *rate.Limiter
}

func NewRateLimited(next domain.Completer, perSecond float64, burst int) *RateLimited {
	if burst < 1 {
		burst = 1
	}
	return &RateLimited{
		next:    next,
		limiter: rate.NewLimiter(rate.Limit(perSecond), burst),
	}
}

func (r *RateLimited) Complete(ctx context.Context, prompt string, params domain.GenerationParams) (string, error) {
	if !r.limiter.Allow() {
		return "", fmt.Errorf("rate limited completer: %w", ErrRateLimited)
	}
	return r.next.Complete(ctx, prompt, params)
}
