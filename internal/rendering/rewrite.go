package rendering

import (
	"context"
	"fmt"
	"strings"

	"renoplan/internal/logging"
	"renoplan/internal/types"
)

const rewriteSystemPrompt = `You write prompts for a photorealistic interior image model.
Return only the prompt text, no preamble and no markdown.`

// PromptRewriter turns a short design description into a detailed image
// prompt using the text model.
type PromptRewriter struct {
	LLM types.LLMClient
}

// Rewrite enhances prompt. On any failure the original prompt is returned.
func (r *PromptRewriter) Rewrite(ctx context.Context, prompt, aspectRatio string, hasBase, hasRefs bool) string {
	if r == nil || r.LLM == nil {
		return prompt
	}

	var b strings.Builder
	if hasBase {
		fmt.Fprintf(&b, "Modify the provided base image according to this description: %s\n", prompt)
		b.WriteString("Keep the same room structure, layout, and perspective as the base image.\n")
		b.WriteString("Apply the requested changes while preserving the original composition.\n")
		if hasRefs {
			b.WriteString("Use the inspiration image to guide the style.\n")
		}
	} else {
		b.WriteString("Create a highly detailed, photorealistic prompt for generating an interior design image.\n")
		fmt.Fprintf(&b, "Original description: %s\n", prompt)
		b.WriteString("Enhance this to be a professional interior photography prompt.\n")
		if hasRefs {
			b.WriteString("Use the provided reference image(s) as inspiration.\n")
		}
	}
	if aspectRatio != "" {
		fmt.Fprintf(&b, "Aspect ratio: %s\n", aspectRatio)
	}

	out, err := r.LLM.CompleteWithSystem(ctx, rewriteSystemPrompt, b.String())
	if err != nil {
		logging.RenderingWarn("prompt rewrite failed, using original prompt: %v", err)
		return prompt
	}
	out = strings.TrimSpace(out)
	if out == "" {
		return prompt
	}
	logging.RenderingDebug("rewritten prompt: %s", out)
	return out
}
