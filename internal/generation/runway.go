package generation

import (
	"context"

	"pixelpost/internal/models"
)

// Runway holds the last slot in the video chain. Its API needs a paid plan, so it
// always skips.
type Runway struct {
	key string
}

func NewRunway(key string) *Runway { return &Runway{key: key} }

func (*Runway) Name() string                    { return "runway" }
func (*Runway) Source() models.GenerationSource { return models.SourceRunway }

func (p *Runway) Attempt(context.Context, Request, int) Outcome {
	if p.key == "" {
		return skipf(SkipPermanent, "no api key")
	}
	return skipf(SkipPermanent, "requires paid plan")
}
