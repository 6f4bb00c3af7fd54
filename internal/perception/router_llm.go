package perception

import (
	"context"
	"fmt"

	"renoplan/internal/articulation"
	"renoplan/internal/logging"
)

const cueSystemPrompt = `You extract intent signals from a message sent to a home renovation assistant.
Reply with one JSON object and nothing else:
{"edit_intent": bool, "new_project_intent": bool}

edit_intent: the user wants to change an existing image or rendering (colors, materials, adding or removing items, "make it darker").
new_project_intent: the user wants to plan, design or renovate a space, or start a new project.
Questions about costs, materials or the assistant itself set both to false.`

type llmCues struct {
	EditIntent       *bool `json:"edit_intent"`
	NewProjectIntent *bool `json:"new_project_intent"`
}

// LLMRouter asks the text model for intent cues and applies the same
// policy as the heuristic router. Any model failure falls back to it.
type LLMRouter struct {
	client   LLMClient
	fallback Router
}

// NewLLMRouter creates a model-backed router.
func NewLLMRouter(client LLMClient) *LLMRouter {
	return &LLMRouter{client: client, fallback: NewHeuristicRouter()}
}

// Route implements Router.
func (r *LLMRouter) Route(ctx context.Context, u Utterance) Decision {
	if r.client == nil {
		return r.fallback.Route(ctx, u)
	}

	prompt := fmt.Sprintf("Message: %q\nImage attached: %t\nPrior rendering exists: %t",
		u.Text, u.HasUploadedImage, u.HasPriorRendering)

	raw, err := r.client.CompleteWithSystem(ctx, cueSystemPrompt, prompt)
	if err != nil {
		logging.RoutingWarn("cue extraction failed, using heuristic: %v", err)
		return r.fallback.Route(ctx, u)
	}

	parsed, _, ok := articulation.DecodeFirst(raw, func(c llmCues) bool {
		return c.EditIntent != nil && c.NewProjectIntent != nil
	})
	if !ok {
		logging.RoutingWarn("unparseable cue response, using heuristic: %q", raw)
		return r.fallback.Route(ctx, u)
	}

	cues := Cues{Matched: []string{"llm"}}
	switch {
	case *parsed.EditIntent && *parsed.NewProjectIntent:
		cues.Tied = true
	case *parsed.EditIntent:
		cues.EditIntent = true
	case *parsed.NewProjectIntent:
		cues.NewProjectIntent = true
	}

	d := Decide(u, cues)
	logging.Routing("llm -> %s (%s)", d.Destination, d.Reason)
	return d
}
