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
	replicateBaseURL      = "https://api.replicate.com"
	replicateCallTimeout  = 30 * time.Second
	replicateDownload     = 120 * time.Second
	replicatePollInterval = 15 * time.Second
	replicatePollBackoff  = 10 * time.Second
	replicateMaxWait      = 300 * time.Second
)

// ReplicateModel pins a model version on Replicate.
type ReplicateModel struct {
	Name    string
	Owner   string
	Version string
}

// ReplicateModels lists the video models tried in order.
var ReplicateModels = []ReplicateModel{
	{Name: "zeroscope-v2-xl", Owner: "anotherjesse", Version: "9f747673945c62801b13b84701c783929c0ee784e4748ec062204894dda1a351"},
	{Name: "text-to-video", Owner: "cjwbw", Version: "1e205ea73084bd17a0a3b43396e49ba0d6bc2e754e9283b2df49fad2dcf95755"},
}

// Replicate creates a prediction and polls it until the output URL is ready.
type Replicate struct {
	model ReplicateModel
	token string
	http  HTTPConfig
	sleep Sleeper
	now   func() time.Time
}

func NewReplicate(model ReplicateModel, token string, hc HTTPConfig, sleep Sleeper) *Replicate {
	if sleep == nil {
		sleep = SleepContext
	}
	return &Replicate{model: model, token: token, http: hc, sleep: sleep, now: time.Now}
}

func (p *Replicate) Name() string                  { return "replicate:" + p.model.Name }
func (*Replicate) Source() models.GenerationSource { return models.SourceReplicate }

type replicatePrediction struct {
	ID     string          `json:"id"`
	Status string          `json:"status"`
	Error  any             `json:"error"`
	Output json.RawMessage `json:"output"`
	URLs   struct {
		Get string `json:"get"`
	} `json:"urls"`
}

func (p *Replicate) Attempt(ctx context.Context, req Request, _ int) Outcome {
	if p.token == "" {
		return skipf(SkipPermanent, "no api token")
	}
	auth := map[string]string{"Authorization": "Token " + p.token}
	prompt := req.FullPrompt()

	resp, err := p.http.do(ctx, replicateCallTimeout, http.MethodPost,
		p.http.base(replicateBaseURL)+"/v1/predictions", auth, map[string]any{
			"version": p.model.Version,
			"input": map[string]any{
				"prompt":     prompt,
				"num_frames": min(req.Duration*4, 24),
				"seed":       req.randomSeed(),
			},
		})
	if err != nil {
		return transportSkip(err)
	}
	if resp.status != http.StatusCreated {
		return statusSkip(resp, 0, 0)
	}

	var created replicatePrediction
	if err := json.Unmarshal(resp.body, &created); err != nil || created.ID == "" {
		return skipf(SkipPermanent, "malformed prediction: %s", snippet(resp.body))
	}
	pollURL := created.URLs.Get
	if pollURL == "" {
		pollURL = p.http.base(replicateBaseURL) + "/v1/predictions/" + created.ID
	}

	videoURL, skip := p.poll(ctx, pollURL, auth)
	if skip != nil {
		return *skip
	}

	video, err := p.http.do(ctx, replicateDownload, http.MethodGet, videoURL, nil, nil)
	if err != nil {
		return transportSkip(err)
	}
	if video.status != http.StatusOK {
		return statusSkip(video, 0, 0)
	}
	contentType, ok := sniffVideo(video.body, video.contentType, 1)
	if !ok {
		return skipf(SkipPermanent, "output is not a video: %s", video.contentType)
	}

	thumb, _ := synth.Thumbnail(prompt)
	return Success{
		Media: Media{Data: video.body, ContentType: contentType, Thumbnail: thumb},
		Metadata: provenance{
			serviceName: "Replicate",
			serviceURL:  "https://replicate.com/",
			cost:        "Pay per use",
			model:       p.model.Owner + "/" + p.model.Name,
			reliability: ReliabilityMedium,
			priority:    2,
		}.metadata(prompt, p.now(), models.Metadata{"prediction_id": created.ID}),
	}
}

// poll waits for the prediction to finish. The wait budget is counted in slept time,
// so an injected sleeper makes it instant.
func (p *Replicate) poll(ctx context.Context, pollURL string, auth map[string]string) (string, *Skip) {
	var waited time.Duration
	for waited < replicateMaxWait {
		delay := replicatePollBackoff

		resp, err := p.http.do(ctx, replicateCallTimeout, http.MethodGet, pollURL, auth, nil)
		switch {
		case err != nil:
			if ctx.Err() != nil {
				s := transportSkip(err)
				return "", &s
			}
		case resp.status == http.StatusOK:
			var pred replicatePrediction
			if err := json.Unmarshal(resp.body, &pred); err != nil {
				s := skipf(SkipPermanent, "malformed prediction: %s", snippet(resp.body))
				return "", &s
			}
			switch pred.Status {
			case "succeeded":
				if out := predictionOutput(pred.Output); out != "" {
					return out, nil
				}
				s := skipf(SkipPermanent, "prediction succeeded without output")
				return "", &s
			case "failed", "canceled":
				s := skipf(SkipPermanent, "prediction %s: %v", pred.Status, pred.Error)
				return "", &s
			}
			delay = replicatePollInterval
		case resp.status == http.StatusTooManyRequests || resp.status >= 500:
			// Keep polling; the prediction runs regardless of the status endpoint.
		default:
			s := statusSkip(resp, 0, 0)
			return "", &s
		}

		if err := p.sleep(ctx, delay); err != nil {
			s := skipf(SkipTransient, "cancelled while polling")
			return "", &s
		}
		waited += delay
	}
	s := skipf(SkipTransient, "prediction timed out")
	return "", &s
}

// predictionOutput accepts either a URL string or a list whose first item is the URL.
func predictionOutput(raw json.RawMessage) string {
	var single string
	if json.Unmarshal(raw, &single) == nil {
		return single
	}
	var list []string
	if json.Unmarshal(raw, &list) == nil && len(list) > 0 {
		return list[0]
	}
	return ""
}
