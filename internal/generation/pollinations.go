package generation

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"pixelpost/internal/models"
	"pixelpost/internal/synth"
)

const (
	pollinationsImageBaseURL = "https://image.pollinations.ai"
	pollinationsPageBaseURL  = "https://pollinations.ai"
	pollinationsDefaultSeed  = 42
	pollinationsImageTimeout = 30 * time.Second
	pollinationsVideoTimeout = 120 * time.Second
	pollinationsVideoMin     = 10000
)

var pollinationsProvenance = provenance{
	serviceName: "Pollinations AI",
	serviceURL:  "https://pollinations.ai/",
	cost:        "Free",
	reliability: ReliabilityMedium,
	priority:    2,
}

// PollinationsImage fetches an image rendered from the prompt in the URL path.
type PollinationsImage struct {
	http HTTPConfig
	now  func() time.Time
}

func NewPollinationsImage(hc HTTPConfig) *PollinationsImage {
	return &PollinationsImage{http: hc, now: time.Now}
}

func (*PollinationsImage) Name() string                    { return "pollinations" }
func (*PollinationsImage) Source() models.GenerationSource { return models.SourcePollinations }

func (p *PollinationsImage) Attempt(ctx context.Context, req Request, _ int) Outcome {
	prompt := req.FullPrompt()
	endpoint := fmt.Sprintf("%s/prompt/%s?width=%d&height=%d&seed=%d",
		p.http.base(pollinationsImageBaseURL), url.PathEscape(prompt),
		req.Width, req.Height, req.seedOr(pollinationsDefaultSeed))

	resp, err := p.http.do(ctx, pollinationsImageTimeout, http.MethodGet, endpoint, nil, nil)
	if err != nil {
		return transportSkip(err)
	}
	if resp.status != http.StatusOK {
		return statusSkip(resp, 0, 0)
	}
	contentType, ok := sniffImage(resp.body)
	if !ok {
		return skipf(SkipPermanent, "non-image response: %s", snippet(resp.body))
	}

	return Success{
		Media:    Media{Data: resp.body, ContentType: contentType},
		Metadata: pollinationsProvenance.metadata(prompt, p.now(), nil),
	}
}

// PollinationsVideo tries the mp4 render endpoint and then the page video endpoint.
type PollinationsVideo struct {
	http HTTPConfig
	now  func() time.Time
}

func NewPollinationsVideo(hc HTTPConfig) *PollinationsVideo {
	return &PollinationsVideo{http: hc, now: time.Now}
}

func (*PollinationsVideo) Name() string                    { return "pollinations" }
func (*PollinationsVideo) Source() models.GenerationSource { return models.SourcePollinations }

func (p *PollinationsVideo) Attempt(ctx context.Context, req Request, _ int) Outcome {
	prompt := req.FullPrompt()
	escaped := url.PathEscape(prompt)
	seed := req.seedOr(pollinationsDefaultSeed)
	endpoints := []string{
		fmt.Sprintf("%s/prompt/%s?width=512&height=512&seed=%d&model=flux&format=mp4",
			p.http.base(pollinationsImageBaseURL), escaped, seed),
		fmt.Sprintf("%s/p/%s?format=video&duration=%d&seed=%d",
			p.http.base(pollinationsPageBaseURL), escaped, req.Duration, seed),
	}

	last := skipf(SkipPermanent, "no endpoint produced video")
	for _, endpoint := range endpoints {
		resp, err := p.http.do(ctx, pollinationsVideoTimeout, http.MethodGet, endpoint, nil, nil)
		if err != nil {
			last = transportSkip(err)
			if ctx.Err() != nil {
				return last
			}
			continue
		}
		if resp.status != http.StatusOK {
			last = statusSkip(resp, 0, 0)
			continue
		}
		contentType, ok := sniffVideo(resp.body, resp.contentType, pollinationsVideoMin+1)
		if !ok {
			last = skipf(SkipPermanent, "no video from %s (%d bytes)", resp.contentType, len(resp.body))
			continue
		}

		thumb, _ := synth.Thumbnail(prompt)
		return Success{
			Media: Media{Data: resp.body, ContentType: contentType, Thumbnail: thumb},
			Metadata: pollinationsProvenance.metadata(prompt, p.now(), models.Metadata{
				"endpoint": endpoint,
				"duration": req.Duration,
			}),
		}
	}
	return last
}
