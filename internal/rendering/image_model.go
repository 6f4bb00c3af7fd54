// Package rendering produces and edits renovation renderings and records
// each result in the session's asset version store.
package rendering

import (
	"context"
	"fmt"
	"iter"
	"strings"
	"time"

	"google.golang.org/genai"

	"renoplan/internal/logging"
	"renoplan/internal/perception"
	"renoplan/internal/types"
	"renoplan/internal/usage"
)

// streamGenerator is the slice of *genai.Models the image model uses.
type streamGenerator interface {
	GenerateContentStream(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) iter.Seq2[*genai.GenerateContentResponse, error]
}

// ImageModelConfig configures GeminiImageModel.
type ImageModelConfig struct {
	APIKey  string
	Model   string
	Timeout time.Duration
	Retry   perception.RetryPolicy
}

// GeminiImageModel implements types.ImageModel with a Gemini image model.
type GeminiImageModel struct {
	models streamGenerator
	config ImageModelConfig
}

// NewGeminiImageModel creates the image model client.
func NewGeminiImageModel(ctx context.Context, config ImageModelConfig) (*GeminiImageModel, error) {
	if config.APIKey == "" {
		return nil, fmt.Errorf("Gemini API key is required")
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  config.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create GenAI client: %w", err)
	}
	return newGeminiImageModel(client.Models, config), nil
}

func newGeminiImageModel(models streamGenerator, config ImageModelConfig) *GeminiImageModel {
	if config.Model == "" {
		config.Model = "gemini-2.5-flash-image"
	}
	return &GeminiImageModel{models: models, config: config}
}

// Generate renders prompt, with refs attached after the text.
func (m *GeminiImageModel) Generate(ctx context.Context, prompt string, refs []types.Image, aspectRatio string) (*types.GeneratedImage, error) {
	parts := []*genai.Part{genai.NewPartFromText(prompt)}
	parts = appendImages(parts, refs)
	return m.run(ctx, "generate", parts, aspectRatio)
}

// Edit modifies base. The base image comes first, then the instruction,
// then any refs.
func (m *GeminiImageModel) Edit(ctx context.Context, base types.Image, prompt string, refs []types.Image) (*types.GeneratedImage, error) {
	parts := appendImages(nil, []types.Image{base})
	parts = append(parts, genai.NewPartFromText(prompt))
	parts = appendImages(parts, refs)
	return m.run(ctx, "edit", parts, "")
}

func appendImages(parts []*genai.Part, images []types.Image) []*genai.Part {
	for _, img := range images {
		if len(img.Data) == 0 {
			continue
		}
		mime := img.MIMEType
		if mime == "" {
			mime = "image/png"
		}
		parts = append(parts, genai.NewPartFromBytes(img.Data, mime))
	}
	return parts
}

func (m *GeminiImageModel) run(ctx context.Context, op string, parts []*genai.Part, aspectRatio string) (*types.GeneratedImage, error) {
	if m.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, m.config.Timeout)
		defer cancel()
	}

	contents := []*genai.Content{genai.NewContentFromParts(parts, genai.RoleUser)}
	cfg := &genai.GenerateContentConfig{
		ResponseModalities: []string{string(genai.ModalityImage), string(genai.ModalityText)},
	}
	if aspectRatio != "" {
		cfg.ImageConfig = &genai.ImageConfig{AspectRatio: aspectRatio}
	}

	timer := logging.StartTimer(logging.CategoryAPI, "image "+op)
	defer timer.Stop()

	return perception.Retry(ctx, m.config.Retry, "image "+op, func(ctx context.Context) (*types.GeneratedImage, error) {
		return m.stream(ctx, contents, cfg)
	})
}

func (m *GeminiImageModel) stream(ctx context.Context, contents []*genai.Content, cfg *genai.GenerateContentConfig) (*types.GeneratedImage, error) {
	var text strings.Builder
	var out *types.GeneratedImage

	for chunk, err := range m.models.GenerateContentStream(ctx, m.config.Model, contents, cfg) {
		if err != nil {
			return nil, err
		}
		usage.FromContext(ctx).TrackResponse(ctx, m.config.Model, "image", chunk)
		if chunk == nil || len(chunk.Candidates) == 0 || chunk.Candidates[0].Content == nil {
			continue
		}
		for _, part := range chunk.Candidates[0].Content.Parts {
			if part == nil {
				continue
			}
			if part.InlineData != nil && len(part.InlineData.Data) > 0 && out == nil {
				out = &types.GeneratedImage{Image: types.Image{
					Data:     part.InlineData.Data,
					MIMEType: part.InlineData.MIMEType,
				}}
				continue
			}
			if part.Text != "" && !part.Thought {
				text.WriteString(part.Text)
			}
		}
	}

	if out == nil {
		if t := strings.TrimSpace(text.String()); t != "" {
			logging.APIWarn("image model returned text only: %s", t)
		}
		return nil, fmt.Errorf("%w: no image returned by %s", types.ErrExternalService, m.config.Model)
	}
	if out.MIMEType == "" {
		out.MIMEType = "image/png"
	}
	out.Text = strings.TrimSpace(text.String())
	logging.APIDebug("image model returned %d bytes (%s)", len(out.Data), out.MIMEType)
	return out, nil
}
