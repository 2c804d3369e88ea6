package generation

import (
	"time"

	"pixelpost/internal/models"
)

// Reliability labels stored with every result.
const (
	ReliabilityHigh     = "High"
	ReliabilityMedium   = "Medium"
	ReliabilityLow      = "Low"
	ReliabilityFallback = "Fallback"
)

// Fallback provenance, shared by image and video.
const (
	FallbackServiceName = "Enhanced Mock Generator"
	FallbackServiceURL  = "Local fallback"
	FallbackCost        = "Free (local)"
)

type provenance struct {
	serviceName string
	serviceURL  string
	cost        string
	model       string
	reliability string
	priority    int
}

func (p provenance) metadata(prompt string, now time.Time, extra models.Metadata) models.Metadata {
	md := models.Metadata{
		"service_name": p.serviceName,
		"service_url":  p.serviceURL,
		"cost":         p.cost,
		"prompt":       prompt,
		"timestamp":    now.UTC().Format(time.RFC3339),
		"reliability":  p.reliability,
		"priority":     p.priority,
	}
	if p.model != "" {
		md["model"] = p.model
	}
	for k, v := range extra {
		md[k] = v
	}
	return md
}
