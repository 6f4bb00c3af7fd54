package shards

import (
	"context"
	"fmt"
	"strings"

	"renoplan/internal/session"
	"renoplan/internal/types"
)

const infoSystemPrompt = `You are the Info Agent for a home renovation planner.
Keep answers brief and helpful (2-4 sentences).
The planner analyzes photos of the current space and inspiration images, plans the design,
estimates budget and timeline, and creates photorealistic renderings that can be refined.
If the user has not started a project, ask which room they want to renovate and invite photos.
Use the session context below to answer questions about existing renderings and images.`

// InfoShard answers general questions and greetings.
type InfoShard struct {
	llm types.LLMClient
}

// NewInfoShard creates an info shard.
func NewInfoShard(llm types.LLMClient) *InfoShard {
	return &InfoShard{llm: llm}
}

func (s *InfoShard) Name() string { return "info" }

// Handle answers from the model with the session listings as context.
func (s *InfoShard) Handle(ctx context.Context, sess *session.Session, req Request) (*Response, error) {
	var b strings.Builder
	b.WriteString(req.Text)
	b.WriteString("\n\n[Session context]\n")
	b.WriteString(sess.Versions.Describe())
	b.WriteString("\n")
	b.WriteString(sess.References.Describe())

	text, err := s.llm.CompleteWithSystem(ctx, infoSystemPrompt, b.String())
	if err != nil {
		return nil, fmt.Errorf("info: %w", err)
	}
	return &Response{Text: text}, nil
}
