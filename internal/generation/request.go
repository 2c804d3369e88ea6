// Package generation turns a prompt into media by trying external providers in a fixed
// priority order and falling back to the local synthesizer when every provider skips.
package generation

import (
	"math/rand/v2"
	"strings"
	"time"
)

// Kind is the media kind a sequencer produces.
type Kind string

const (
	KindImage Kind = "image"
	KindVideo Kind = "video"
)

// Request describes one generation. Video fields are ignored for images.
type Request struct {
	Kind        Kind
	Prompt      string
	StyleSuffix string
	Width       int
	Height      int
	Seed        *int64
	Duration    int
	Quality     string
	FPS         int
}

// FullPrompt is the prompt with the style preset suffix appended.
func (r Request) FullPrompt() string {
	suffix := r.StyleSuffix
	if strings.TrimSpace(suffix) == "" {
		return r.Prompt
	}
	if !strings.HasPrefix(suffix, ",") && !strings.HasPrefix(suffix, " ") {
		suffix = ", " + suffix
	}
	return r.Prompt + suffix
}

// seedOr returns the request seed, or def when none was given.
func (r Request) seedOr(def int64) int64 {
	if r.Seed != nil {
		return *r.Seed
	}
	return def
}

// randomSeed returns the request seed or a fresh one in [1, 100000].
func (r Request) randomSeed() int64 {
	if r.Seed != nil {
		return *r.Seed
	}
	return rand.Int64N(100000) + 1
}

// Credentials are the provider secrets handed to the sequencer constructors.
// Empty values make the matching providers skip.
type Credentials struct {
	HuggingFaceToken string
	ReplicateToken   string
	FalKey           string
	RunwayKey        string
	// RequestTimeout caps every provider HTTP call on top of the provider's own timeout.
	RequestTimeout time.Duration
}
