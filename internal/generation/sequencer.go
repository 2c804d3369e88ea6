package generation

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"pixelpost/internal/middleware"
	"pixelpost/internal/models"
	"pixelpost/internal/observability"
)

// Sleeper waits for d or until ctx is done, whichever comes first.
type Sleeper func(ctx context.Context, d time.Duration) error

// SleepContext is the production Sleeper.
func SleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Options tune a sequencer. The zero value is usable.
type Options struct {
	// MaxBackoff caps every wait between attempts; zero leaves them uncapped.
	MaxBackoff time.Duration
	Sleep      Sleeper
	// Enabled filters providers by source name; nil enables all.
	Enabled    func(source string) bool
	HTTPClient *http.Client
}

func (o Options) sleeper() Sleeper {
	if o.Sleep != nil {
		return o.Sleep
	}
	return SleepContext
}

// AttemptLog records one provider attempt.
type AttemptLog struct {
	Provider string        `json:"provider"`
	Attempt  int           `json:"attempt"`
	Outcome  string        `json:"outcome"`
	Reason   string        `json:"-"`
	Duration time.Duration `json:"duration"`
	Waited   time.Duration `json:"waited,omitempty"`
}

// Result is the outcome of Generate. Fallback results carry source mock.
type Result struct {
	Media    Media
	Source   models.GenerationSource
	Metadata models.Metadata
	Attempts []AttemptLog
	Fallback bool
}

// Sequencer tries providers in priority order and falls back to a synthesizer.
// It keeps no state between requests and is safe for concurrent use.
type Sequencer struct {
	kind      Kind
	providers []Provider
	fallback  Synthesizer
	opts      Options
}

// NewSequencer builds a sequencer over an explicit provider list.
func NewSequencer(kind Kind, providers []Provider, fallback Synthesizer, opts Options) *Sequencer {
	if fallback == nil {
		fallback = SynthesizeImage
		if kind == KindVideo {
			fallback = SynthesizeVideo
		}
	}
	return &Sequencer{kind: kind, providers: providers, fallback: fallback, opts: opts}
}

// ImageProviders returns the image chain: SDXL on Hugging Face, then Pollinations.
func ImageProviders(creds Credentials, opts Options) []Provider {
	hc := HTTPConfig{Client: opts.HTTPClient, MaxTimeout: creds.RequestTimeout}
	return []Provider{
		NewHuggingFaceImage(creds.HuggingFaceToken, hc),
		NewPollinationsImage(hc),
	}
}

// VideoProviders returns the video chain: Hugging Face models, Replicate models, Fal,
// Pollinations and Runway.
func VideoProviders(creds Credentials, opts Options) []Provider {
	hc := HTTPConfig{Client: opts.HTTPClient, MaxTimeout: creds.RequestTimeout}
	var out []Provider
	for _, m := range HFVideoModels {
		out = append(out, NewHuggingFaceVideo(m, creds.HuggingFaceToken, hc))
	}
	for _, m := range ReplicateModels {
		out = append(out, NewReplicate(m, creds.ReplicateToken, hc, opts.sleeper()))
	}
	return append(out,
		NewFal(creds.FalKey, hc),
		NewPollinationsVideo(hc),
		NewRunway(creds.RunwayKey),
	)
}

// NewImageSequencer wires the image chain from credentials.
func NewImageSequencer(creds Credentials, opts Options) *Sequencer {
	return NewSequencer(KindImage, ImageProviders(creds, opts), SynthesizeImage, opts)
}

// NewVideoSequencer wires the video chain from credentials.
func NewVideoSequencer(creds Credentials, opts Options) *Sequencer {
	return NewSequencer(KindVideo, VideoProviders(creds, opts), SynthesizeVideo, opts)
}

// Kind returns the media kind this sequencer produces.
func (s *Sequencer) Kind() Kind { return s.kind }

// Providers returns the providers that are currently enabled, in order.
func (s *Sequencer) Providers() []Provider {
	if s.opts.Enabled == nil {
		return s.providers
	}
	out := make([]Provider, 0, len(s.providers))
	for _, p := range s.providers {
		if s.opts.Enabled(string(p.Source())) {
			out = append(out, p)
		}
	}
	return out
}

// Generate always yields media: provider failures end in the synthesizer. The only
// error is cancellation of ctx.
func (s *Sequencer) Generate(ctx context.Context, req Request) (Result, error) {
	req.Kind = s.kind
	kind := string(s.kind)
	plan := NewPlan(s.Providers(), s.opts.MaxBackoff)
	sleep := s.opts.sleeper()

	var attempts []AttemptLog
	for {
		if err := ctx.Err(); err != nil {
			return Result{Attempts: attempts}, fmt.Errorf("generation cancelled: %w", err)
		}
		provider, n, ok := plan.Current()
		if !ok {
			break
		}

		start := time.Now()
		outcome := s.attempt(ctx, provider, req, n)
		entry := AttemptLog{Provider: provider.Name(), Attempt: n, Duration: time.Since(start)}
		switch o := outcome.(type) {
		case Success:
			entry.Outcome = "success"
		case Skip:
			entry.Outcome = o.Class.String()
			entry.Reason = o.Reason
		}
		observability.ObserveAttempt(kind, provider.Name(), entry.Outcome, start)

		var delay time.Duration
		switch step := plan.Next(outcome).(type) {
		case Done:
			attempts = append(attempts, entry)
			md := step.Success.Metadata
			if md == nil {
				md = models.Metadata{}
			}
			return Result{
				Media:    step.Success.Media,
				Source:   step.Provider.Source(),
				Metadata: md,
				Attempts: attempts,
			}, nil
		case Retry:
			delay = step.Delay
		case Advance:
			delay = step.Delay
		}

		if delay > 0 {
			entry.Waited = delay
			if err := sleep(ctx, delay); err != nil {
				attempts = append(attempts, entry)
				return Result{Attempts: attempts}, fmt.Errorf("generation cancelled: %w", err)
			}
		}
		attempts = append(attempts, entry)
	}

	observability.GenerationFallbacks.WithLabelValues(kind).Inc()
	middleware.Logger.WarnContext(ctx, "all providers skipped, using synthesizer",
		slog.String("kind", kind), slog.Int("attempts", len(attempts)))

	media, md := s.fallback(ctx, req)
	return Result{
		Media:    media,
		Source:   models.SourceMock,
		Metadata: md,
		Attempts: attempts,
		Fallback: true,
	}, nil
}

// attempt runs one provider call inside its own span. A panicking adapter counts as a
// permanent skip so Generate stays total.
func (s *Sequencer) attempt(ctx context.Context, p Provider, req Request, n int) (out Outcome) {
	span, ctx := observability.StartProviderSpan(ctx, string(s.kind), p.Name(), n)
	defer span.End()
	defer func() {
		if r := recover(); r != nil {
			out = skipf(SkipPermanent, "provider panicked: %v", r)
		}
		if skip, ok := out.(Skip); ok {
			span.Skip(skip.Class.String(), skip.Reason)
			middleware.Logger.WarnContext(ctx, "provider skipped",
				slog.String("provider", p.Name()),
				slog.Int("attempt", n),
				slog.String("class", skip.Class.String()),
				slog.String("reason", skip.Reason),
			)
			return
		}
		middleware.Logger.InfoContext(ctx, "provider succeeded",
			slog.String("provider", p.Name()), slog.Int("attempt", n))
	}()

	middleware.Logger.InfoContext(ctx, "provider attempt",
		slog.String("kind", string(s.kind)), slog.String("provider", p.Name()), slog.Int("attempt", n))
	out = p.Attempt(ctx, req, n)
	if out == nil {
		out = skipf(SkipTransient, "no outcome")
	}
	return out
}

// Notice summarizes a fallback result for the user, or returns "" on provider success.
func (r Result) Notice() string {
	if !r.Fallback {
		return ""
	}
	msg := "Generated using the fallback generator. External AI services may be temporarily unavailable."

	// One entry per provider, reporting its last outcome. Upstream error text stays in
	// the logs.
	var order []string
	last := make(map[string]string)
	for _, a := range r.Attempts {
		if _, ok := last[a.Provider]; !ok {
			order = append(order, a.Provider)
		}
		last[a.Provider] = a.Outcome
	}
	if len(order) == 0 {
		return msg
	}
	parts := make([]string, 0, len(order))
	for _, name := range order {
		parts = append(parts, fmt.Sprintf("%s (%s)", name, outcomeLabel(last[name])))
	}
	return msg + " Tried " + strings.Join(parts, ", ") + "."
}

func outcomeLabel(outcome string) string {
	switch outcome {
	case SkipTransient.String():
		return "unavailable"
	case SkipLoading.String():
		return "model loading"
	case SkipRateLimited.String():
		return "rate limited"
	case SkipPermanent.String():
		return "not usable"
	default:
		return outcome
	}
}
