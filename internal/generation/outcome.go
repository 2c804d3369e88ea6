package generation

import (
	"context"
	"fmt"
	"time"

	"pixelpost/internal/models"
)

// Media is the payload produced by a provider or the synthesizer.
type Media struct {
	Data        []byte
	ContentType string
	Thumbnail   []byte
}

// SkipClass tells the plan how to react to a skipped attempt.
type SkipClass int

const (
	// SkipTransient covers timeouts, 5xx and network errors: move on.
	SkipTransient SkipClass = iota + 1
	// SkipLoading is a model warming up: retry the same provider once after RetryAfter.
	SkipLoading
	// SkipRateLimited waits RetryAfter and then moves on.
	SkipRateLimited
	// SkipPermanent covers auth, payment, malformed responses and missing credentials.
	SkipPermanent
)

func (c SkipClass) String() string {
	switch c {
	case SkipTransient:
		return "transient"
	case SkipLoading:
		return "loading"
	case SkipRateLimited:
		return "rate_limited"
	case SkipPermanent:
		return "permanent"
	default:
		return "unknown"
	}
}

// Outcome is either Success or Skip.
type Outcome interface {
	isOutcome()
}

// Success carries the produced media and the provenance metadata.
type Success struct {
	Media    Media
	Metadata models.Metadata
}

// Skip explains why a provider produced nothing.
type Skip struct {
	Reason     string
	Class      SkipClass
	RetryAfter time.Duration
}

func (Success) isOutcome() {}
func (Skip) isOutcome()    {}

func skipf(class SkipClass, format string, args ...any) Skip {
	return Skip{Class: class, Reason: fmt.Sprintf(format, args...)}
}

// Provider is one external generation service.
type Provider interface {
	Name() string
	Source() models.GenerationSource
	Attempt(ctx context.Context, req Request, attempt int) Outcome
}
