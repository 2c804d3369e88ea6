package models

// GenerationSource identifies which service produced a media file.
type GenerationSource string

const (
	SourcePollinations GenerationSource = "pollinations"
	SourceHuggingFace  GenerationSource = "huggingface"
	SourceDeepAI       GenerationSource = "deepai"
	SourceMock         GenerationSource = "mock"
	SourceReplicate    GenerationSource = "replicate"
	SourceFal          GenerationSource = "fal"
	SourceRunway       GenerationSource = "runway"
	SourceUnknown      GenerationSource = "unknown"
)

// ImageSources lists the values allowed on GeneratedImage.GenerationSource.
var ImageSources = []GenerationSource{
	SourcePollinations, SourceHuggingFace, SourceDeepAI, SourceMock, SourceReplicate, SourceUnknown,
}

// VideoSources lists the values allowed on GeneratedVideo.GenerationSource.
var VideoSources = []GenerationSource{
	SourceHuggingFace, SourceReplicate, SourceFal, SourcePollinations, SourceRunway, SourceMock, SourceUnknown,
}

var sourceDisplayNames = map[GenerationSource]string{
	SourcePollinations: "Pollinations AI",
	SourceHuggingFace:  "Hugging Face",
	SourceDeepAI:       "DeepAI",
	SourceMock:         "Mock Generator",
	SourceReplicate:    "Replicate",
	SourceFal:          "Fal AI",
	SourceRunway:       "Runway",
	SourceUnknown:      "Unknown Service",
}

// DisplayName returns the human readable service name.
func (s GenerationSource) DisplayName() string {
	if name, ok := sourceDisplayNames[s]; ok {
		return name
	}
	return sourceDisplayNames[SourceUnknown]
}

// Valid reports whether s is one of the allowed values in set.
func (s GenerationSource) Valid(set []GenerationSource) bool {
	for _, v := range set {
		if v == s {
			return true
		}
	}
	return false
}
