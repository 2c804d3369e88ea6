package generation

import "time"

// Step is what the sequencer does after an attempt.
type Step interface {
	isStep()
}

// Done ends the plan with a provider success.
type Done struct {
	Provider Provider
	Success  Success
}

// Retry attempts the same provider again after Delay.
type Retry struct {
	Provider Provider
	Delay    time.Duration
}

// Advance moves to the next provider after Delay.
type Advance struct {
	Delay time.Duration
}

// Fallback means every provider skipped and the synthesizer must answer.
type Fallback struct{}

func (Done) isStep()     {}
func (Retry) isStep()    {}
func (Advance) isStep()  {}
func (Fallback) isStep() {}

// Plan walks an ordered provider list. A loading skip earns one retry of the same
// provider; every other skip advances. It holds no timers: delays are returned to
// the caller.
type Plan struct {
	providers  []Provider
	index      int
	attempt    int
	maxBackoff time.Duration
}

// NewPlan starts at the first provider. A maxBackoff of zero leaves delays uncapped.
func NewPlan(providers []Provider, maxBackoff time.Duration) *Plan {
	return &Plan{providers: providers, attempt: 1, maxBackoff: maxBackoff}
}

// Current returns the provider to try next and its 1-based attempt number.
func (p *Plan) Current() (Provider, int, bool) {
	if p.index >= len(p.providers) {
		return nil, 0, false
	}
	return p.providers[p.index], p.attempt, true
}

// Next consumes the outcome of the current attempt.
func (p *Plan) Next(o Outcome) Step {
	if p.index >= len(p.providers) {
		return Fallback{}
	}
	current := p.providers[p.index]

	var skip Skip
	switch o := o.(type) {
	case Success:
		p.index = len(p.providers)
		return Done{Provider: current, Success: o}
	case Skip:
		skip = o
	default:
		skip = Skip{Class: SkipTransient, Reason: "no outcome"}
	}

	if skip.Class == SkipLoading && p.attempt == 1 {
		p.attempt++
		return Retry{Provider: current, Delay: p.capDelay(skip.RetryAfter)}
	}

	p.index++
	p.attempt = 1
	if p.index >= len(p.providers) {
		return Fallback{}
	}
	if skip.Class == SkipRateLimited {
		return Advance{Delay: p.capDelay(skip.RetryAfter)}
	}
	return Advance{}
}

func (p *Plan) capDelay(d time.Duration) time.Duration {
	if d < 0 {
		return 0
	}
	if p.maxBackoff > 0 && d > p.maxBackoff {
		return p.maxBackoff
	}
	return d
}
