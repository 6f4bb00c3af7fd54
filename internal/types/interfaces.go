package types

import (
	"context"
)

// LLMClient defines the interface for text model interactions.
type LLMClient interface {
	Complete(ctx context.Context, prompt string) (string, error)
	CompleteWithSystem(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

// MultimodalClient is an LLMClient that can read images alongside the prompt.
type MultimodalClient interface {
	LLMClient
	CompleteWithImages(ctx context.Context, systemPrompt, userPrompt string, images []Image) (string, error)
}

// ImageModel generates and edits images.
type ImageModel interface {
	// Generate creates a new image from prompt, optionally guided by refs.
	// An empty aspectRatio lets the model choose.
	Generate(ctx context.Context, prompt string, refs []Image, aspectRatio string) (*GeneratedImage, error)
	// Edit modifies base according to prompt, optionally guided by refs.
	Edit(ctx context.Context, base Image, prompt string, refs []Image) (*GeneratedImage, error)
}

// Image is raw image bytes with their MIME type.
type Image struct {
	Name     string
	Data     []byte
	MIMEType string
}

// GeneratedImage is the result of an image model call. Text carries any
// commentary the model returned next to the image.
type GeneratedImage struct {
	Image
	Text string
}

// GroundingProvider is an optional interface for LLM clients that support
// Google Search grounding:
//
//	if gp, ok := client.(types.GroundingProvider); ok {
//	    sources := gp.GetLastGroundingSources()
//	}
type GroundingProvider interface {
	GetLastGroundingSources() []string
	IsGoogleSearchEnabled() bool
}
