package generation

import (
	"context"
	"time"

	"pixelpost/internal/models"
	"pixelpost/internal/synth"
)

// Synthesizer produces media locally when every provider skipped. It must not fail.
type Synthesizer func(ctx context.Context, req Request) (Media, models.Metadata)

var fallbackProvenance = provenance{
	serviceName: FallbackServiceName,
	serviceURL:  FallbackServiceURL,
	cost:        FallbackCost,
	reliability: ReliabilityFallback,
	priority:    3,
}

// SynthesizeImage renders the procedural PNG, or a flat PNG if that fails.
func SynthesizeImage(_ context.Context, req Request) (Media, models.Metadata) {
	prompt := req.FullPrompt()
	md := fallbackProvenance.metadata(prompt, time.Now(), models.Metadata{
		"note": "Fallback when all external APIs are unavailable",
	})

	data, err := synth.Image(prompt, req.Seed, req.Width, req.Height)
	if err != nil {
		md["variant"] = "flat"
		data = synth.Flat(req.Width, req.Height)
	}
	return Media{Data: data, ContentType: "image/png"}, md
}

// SynthesizeVideo renders the animated GIF and its first-frame thumbnail.
func SynthesizeVideo(_ context.Context, req Request) (Media, models.Metadata) {
	prompt := req.FullPrompt()
	md := fallbackProvenance.metadata(prompt, time.Now(), models.Metadata{
		"duration": req.Duration,
		"fps":      req.FPS,
		"quality":  req.Quality,
	})

	gifData, thumb, err := synth.Animation(prompt, req.Seed, req.Duration, req.FPS, req.Quality)
	if err != nil {
		md["variant"] = "flat"
		gifData, thumb = synth.FlatAnimation(synth.VideoSize(req.Quality))
	}
	md["frames"] = synth.FrameCount(req.Duration, req.FPS)
	return Media{Data: gifData, ContentType: "image/gif", Thumbnail: thumb}, md
}
