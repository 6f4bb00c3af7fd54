package shards

import (
	"context"
	"fmt"

	"renoplan/internal/logging"
	"renoplan/internal/types"
)

const searchSystemPrompt = `Use Google Search to find current renovation information: costs, materials, contractors and design trends.
Be concise and cite sources.`

// SearchShard is a helper the assessor consults for grounded facts. It is
// not a routing destination.
type SearchShard struct {
	llm types.LLMClient
}

// NewSearchShard wraps a search-grounded client.
func NewSearchShard(llm types.LLMClient) *SearchShard {
	return &SearchShard{llm: llm}
}

func (s *SearchShard) Name() string { return "search" }

// Research answers query and returns the grounding URLs when the client
// exposes them.
func (s *SearchShard) Research(ctx context.Context, query string) (string, []string, error) {
	text, err := s.llm.CompleteWithSystem(ctx, searchSystemPrompt, query)
	if err != nil {
		return "", nil, fmt.Errorf("search: %w", err)
	}
	var sources []string
	if gp, ok := s.llm.(types.GroundingProvider); ok && gp.IsGoogleSearchEnabled() {
		sources = gp.GetLastGroundingSources()
	}
	logging.ShardsDebug("search returned %d chars, %d sources", len(text), len(sources))
	return text, sources, nil
}
