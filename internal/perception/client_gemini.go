package perception

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"google.golang.org/genai"

	"renoplan/internal/logging"
	"renoplan/internal/types"
	"renoplan/internal/usage"
)

// contentGenerator is the slice of *genai.Models the clients use.
type contentGenerator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// GeminiClient implements types.MultimodalClient on the Gemini API.
type GeminiClient struct {
	models contentGenerator
	config GeminiConfig

	mu                   sync.Mutex
	lastGroundingSources []string
}

// NewGeminiClient creates a client from config.
func NewGeminiClient(ctx context.Context, config GeminiConfig) (*GeminiClient, error) {
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
	return newGeminiClient(client.Models, config), nil
}

func newGeminiClient(models contentGenerator, config GeminiConfig) *GeminiClient {
	if strings.TrimSpace(config.Model) == "" {
		config.Model = DefaultGeminiConfig("").Model
	}
	return &GeminiClient{models: models, config: config}
}

// WithGoogleSearch returns a client sharing the connection with search
// grounding enabled.
func (c *GeminiClient) WithGoogleSearch() *GeminiClient {
	cfg := c.config
	cfg.EnableGoogleSearch = true
	return newGeminiClient(c.models, cfg)
}

// Complete sends prompt with the configured system prompt.
func (c *GeminiClient) Complete(ctx context.Context, prompt string) (string, error) {
	return c.CompleteWithImages(ctx, c.config.SystemPrompt, prompt, nil)
}

// CompleteWithSystem sends prompt with an explicit system prompt.
func (c *GeminiClient) CompleteWithSystem(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	return c.CompleteWithImages(ctx, systemPrompt, userPrompt, nil)
}

// CompleteWithImages sends the prompt followed by images as inline parts.
func (c *GeminiClient) CompleteWithImages(ctx context.Context, systemPrompt, userPrompt string, images []types.Image) (string, error) {
	if c.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.config.Timeout)
		defer cancel()
	}

	parts := []*genai.Part{genai.NewPartFromText(userPrompt)}
	for _, img := range images {
		if len(img.Data) == 0 {
			continue
		}
		parts = append(parts, genai.NewPartFromBytes(img.Data, img.MIMEType))
	}
	contents := []*genai.Content{genai.NewContentFromParts(parts, genai.RoleUser)}

	cfg := &genai.GenerateContentConfig{
		Temperature: genai.Ptr(c.config.Temperature),
	}
	if systemPrompt != "" {
		cfg.SystemInstruction = genai.NewContentFromText(systemPrompt, genai.RoleUser)
	}
	if c.config.EnableGoogleSearch {
		cfg.Tools = []*genai.Tool{{GoogleSearch: &genai.GoogleSearch{}}}
	}

	timer := logging.StartTimer(logging.CategoryAPI, "gemini "+c.config.Model)
	defer timer.Stop()

	resp, err := Retry(ctx, c.config.Retry, "gemini generate", func(ctx context.Context) (*genai.GenerateContentResponse, error) {
		return c.models.GenerateContent(ctx, c.config.Model, contents, cfg)
	})
	if err != nil {
		logging.APIError("gemini %s failed: %v", c.config.Model, err)
		return "", err
	}

	usage.FromContext(ctx).TrackResponse(ctx, c.config.Model, "text", resp)
	c.recordGrounding(resp)

	text := strings.TrimSpace(resp.Text())
	if text == "" {
		return "", fmt.Errorf("gemini %s: %w: empty response", c.config.Model, types.ErrExternalService)
	}
	logging.APIDebug("gemini %s returned %d chars", c.config.Model, len(text))
	return text, nil
}

func (c *GeminiClient) recordGrounding(resp *genai.GenerateContentResponse) {
	var sources []string
	if resp != nil && len(resp.Candidates) > 0 && resp.Candidates[0].GroundingMetadata != nil {
		for _, chunk := range resp.Candidates[0].GroundingMetadata.GroundingChunks {
			if chunk != nil && chunk.Web != nil && chunk.Web.URI != "" {
				sources = append(sources, chunk.Web.URI)
			}
		}
	}

	c.mu.Lock()
	c.lastGroundingSources = sources
	c.mu.Unlock()
}

// GetLastGroundingSources returns URLs used to ground the last response.
func (c *GeminiClient) GetLastGroundingSources() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.lastGroundingSources...)
}

// IsGoogleSearchEnabled reports whether search grounding is on.
func (c *GeminiClient) IsGoogleSearchEnabled() bool {
	return c.config.EnableGoogleSearch
}
