package generation

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"pixelpost/internal/models"
	"pixelpost/internal/synth"
)

const (
	falBaseURL  = "https://fal.run"
	falModel    = "fal-ai/fast-svd"
	falTimeout  = 180 * time.Second
	falDownload = 120 * time.Second
)

// Fal runs fast-svd and downloads the returned clip.
type Fal struct {
	key  string
	http HTTPConfig
	now  func() time.Time
}

func NewFal(key string, hc HTTPConfig) *Fal {
	return &Fal{key: key, http: hc, now: time.Now}
}

func (*Fal) Name() string                    { return "fal" }
func (*Fal) Source() models.GenerationSource { return models.SourceFal }

func (p *Fal) Attempt(ctx context.Context, req Request, _ int) Outcome {
	if p.key == "" {
		return skipf(SkipPermanent, "no api key")
	}

	size := "square"
	if req.Quality == models.VideoQualityHigh {
		size = "square_hd"
	}
	prompt := req.FullPrompt()
	frames := min(req.Duration*8, 25)

	resp, err := p.http.do(ctx, falTimeout, http.MethodPost, p.http.base(falBaseURL)+"/"+falModel,
		map[string]string{"Authorization": "Key " + p.key}, map[string]any{
			"prompt":     prompt,
			"video_size": size,
			"num_frames": frames,
			"seed":       req.randomSeed(),
		})
	if err != nil {
		return transportSkip(err)
	}
	if resp.status != http.StatusOK {
		return statusSkip(resp, 0, 0)
	}

	var result struct {
		Video struct {
			URL string `json:"url"`
		} `json:"video"`
	}
	if err := json.Unmarshal(resp.body, &result); err != nil || result.Video.URL == "" {
		return skipf(SkipPermanent, "no video url in response: %s", snippet(resp.body))
	}

	video, err := p.http.do(ctx, falDownload, http.MethodGet, result.Video.URL, nil, nil)
	if err != nil {
		return transportSkip(err)
	}
	if video.status != http.StatusOK {
		return statusSkip(video, 0, 0)
	}
	contentType, ok := sniffVideo(video.body, video.contentType, 1)
	if !ok {
		return skipf(SkipPermanent, "download is not a video: %s", video.contentType)
	}

	thumb, _ := synth.Thumbnail(prompt)
	return Success{
		Media: Media{Data: video.body, ContentType: contentType, Thumbnail: thumb},
		Metadata: provenance{
			serviceName: "Fal AI",
			serviceURL:  "https://fal.ai/",
			cost:        "Free tier",
			model:       falModel,
			reliability: ReliabilityMedium,
			priority:    2,
		}.metadata(prompt, p.now(), models.Metadata{"frames": frames, "video_size": size}),
	}
}
