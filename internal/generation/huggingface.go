package generation

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"pixelpost/internal/models"
	"pixelpost/internal/synth"
)

const huggingFaceBaseURL = "https://api-inference.huggingface.co/models"

const (
	sdxlModel       = "stabilityai/stable-diffusion-xl-base-1.0"
	sdxlNegative    = "blurry, bad quality, distorted, ugly, low resolution, extra limbs, deformed, malformed"
	hfImageTimeout  = 90 * time.Second
	hfImageLoading  = 10 * time.Second
	hfVideoTimeout  = 300 * time.Second
	hfVideoLoading  = 20 * time.Second
	hfVideoRate     = 30 * time.Second
	hfVideoMinBytes = 50000
)

// HuggingFaceImage calls the SDXL base model on the inference API.
type HuggingFaceImage struct {
	token string
	http  HTTPConfig
	now   func() time.Time
}

func NewHuggingFaceImage(token string, hc HTTPConfig) *HuggingFaceImage {
	return &HuggingFaceImage{token: token, http: hc, now: time.Now}
}

func (*HuggingFaceImage) Name() string                    { return "huggingface" }
func (*HuggingFaceImage) Source() models.GenerationSource { return models.SourceHuggingFace }

func (p *HuggingFaceImage) Attempt(ctx context.Context, req Request, _ int) Outcome {
	if p.token == "" {
		return skipf(SkipPermanent, "no api token")
	}

	prompt := req.FullPrompt()
	payload := map[string]any{
		"inputs": prompt,
		"parameters": map[string]any{
			"num_inference_steps": 25,
			"guidance_scale":      7.5,
			"width":               req.Width,
			"height":              req.Height,
			"negative_prompt":     sdxlNegative,
		},
		"options": map[string]any{"wait_for_model": true, "use_cache": false},
	}
	if req.Seed != nil {
		payload["parameters"].(map[string]any)["seed"] = *req.Seed
	}

	resp, err := p.http.do(ctx, hfImageTimeout, http.MethodPost,
		p.http.base(huggingFaceBaseURL)+"/"+sdxlModel,
		map[string]string{"Authorization": "Bearer " + p.token}, payload)
	if err != nil {
		return transportSkip(err)
	}
	if resp.status != http.StatusOK {
		return statusSkip(resp, hfImageLoading, hfImageLoading)
	}
	contentType, ok := sniffImage(resp.body)
	if !ok {
		return skipf(SkipPermanent, "non-image response: %s", snippet(resp.body))
	}

	return Success{
		Media: Media{Data: resp.body, ContentType: contentType},
		Metadata: provenance{
			serviceName: "Hugging Face",
			serviceURL:  "https://huggingface.co/",
			cost:        "Free",
			model:       sdxlModel,
			reliability: ReliabilityHigh,
			priority:    1,
		}.metadata(prompt, p.now(), nil),
	}
}

// HFVideoModel is one text-to-video model on the inference API.
type HFVideoModel struct {
	ID            string
	MaxFrames     int
	TokenRequired bool
}

// HFVideoModels lists the inference API video models in priority order.
var HFVideoModels = []HFVideoModel{
	{ID: "damo-vilab/text-to-video-ms-1.7b", MaxFrames: 16},
	{ID: "ali-vilab/text-to-video-ms-1.7b", MaxFrames: 16},
	{ID: "cerspense/zeroscope_v2_576w", MaxFrames: 24, TokenRequired: true},
}

// HuggingFaceVideo calls one video model. The anonymous models run without a token.
type HuggingFaceVideo struct {
	model HFVideoModel
	token string
	http  HTTPConfig
	now   func() time.Time
}

func NewHuggingFaceVideo(model HFVideoModel, token string, hc HTTPConfig) *HuggingFaceVideo {
	return &HuggingFaceVideo{model: model, token: token, http: hc, now: time.Now}
}

func (p *HuggingFaceVideo) Name() string                  { return "huggingface:" + p.model.ID }
func (*HuggingFaceVideo) Source() models.GenerationSource { return models.SourceHuggingFace }

func (p *HuggingFaceVideo) Attempt(ctx context.Context, req Request, _ int) Outcome {
	if p.model.TokenRequired && p.token == "" {
		return skipf(SkipPermanent, "no api token")
	}

	frames := min(req.Duration*4, p.model.MaxFrames)
	prompt := req.FullPrompt()
	payload := map[string]any{
		"inputs":     prompt,
		"parameters": map[string]any{"num_frames": frames, "seed": req.randomSeed()},
		"options":    map[string]any{"wait_for_model": true, "use_cache": false},
	}
	headers := map[string]string{}
	if p.token != "" {
		headers["Authorization"] = "Bearer " + p.token
	}

	resp, err := p.http.do(ctx, hfVideoTimeout, http.MethodPost,
		p.http.base(huggingFaceBaseURL)+"/"+p.model.ID, headers, payload)
	if err != nil {
		return transportSkip(err)
	}
	if resp.status != http.StatusOK {
		return statusSkip(resp, hfVideoLoading, hfVideoRate)
	}

	contentType, ok := sniffVideo(resp.body, resp.contentType, 0)
	if !ok && len(resp.body) > hfVideoMinBytes && !isTextual(baseType(resp.contentType)) {
		contentType, ok = "video/mp4", true
	}
	if !ok {
		return skipf(SkipPermanent, "no video in response: %s", apiError(resp.body))
	}

	thumb, _ := synth.Thumbnail(prompt)
	return Success{
		Media: Media{Data: resp.body, ContentType: contentType, Thumbnail: thumb},
		Metadata: provenance{
			serviceName: "Hugging Face",
			serviceURL:  "https://huggingface.co/",
			cost:        "Free",
			model:       p.model.ID,
			reliability: ReliabilityMedium,
			priority:    1,
		}.metadata(prompt, p.now(), models.Metadata{
			"frames":   frames,
			"duration": req.Duration,
			"quality":  req.Quality,
		}),
	}
}

// apiError pulls the "error" field out of a JSON error body.
func apiError(body []byte) string {
	var payload struct {
		Error string `json:"error"`
	}
	if json.Unmarshal(body, &payload) == nil && payload.Error != "" {
		return payload.Error
	}
	return snippet(body)
}
