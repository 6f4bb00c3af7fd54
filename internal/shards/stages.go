package shards

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"renoplan/internal/articulation"
	"renoplan/internal/assets"
	"renoplan/internal/estimate"
	"renoplan/internal/logging"
	"renoplan/internal/rendering"
	"renoplan/internal/session"
	"renoplan/internal/types"
)

const assessorSystemPrompt = `You are a visual renovation specialist. Analyze any attached images and detect their type.
For CURRENT ROOM images describe: room type, size estimate, condition, existing style, key problems, improvement opportunities.
For INSPIRATION images describe: style name, color palette, key materials, notable features.
If both are provided, compare them and list what must change to reach the inspiration look.
If only the current room is provided, suggest 2-3 style directions.
If a budget is mentioned, assess what is achievable.

End with this summary block:
ASSESSMENT COMPLETE
Images Provided:
- Current room photo: [Yes/No]
- Inspiration photo: [Yes/No]
Room Details:
- Type:
- Current Analysis:
- Desired Style:
- Key Issues:
- Improvement Opportunities:
- Budget Constraint:`

const designerSystemPrompt = `Create a specific, actionable renovation design plan from the assessment.
If a budget constraint exists, separate must-haves from nice-to-haves.
Specify layout, colors (exact paint names and codes), materials (specific products), flooring, lighting,
storage, appliances and key features. Match the inspiration aesthetic when one was provided.

End with this summary block:
DESIGN COMPLETE
Renovation Scope: [cosmetic/moderate/full/luxury]
Design Approach: [preserve_layout/reconfigure_layout]
Materials Summary:
Design Plan Summary:`

const coordinatorSystemPrompt = `Write the final, scannable renovation plan from the design:
## Renovation Plan (budget breakdown: materials, labor, permits, 10% contingency, total; timeline in phases; contractors needed)
## Design Summary (tight bullets)
## Action Checklist (numbered first steps)

Then request the rendering by appending exactly one JSON object:
{"asset_name": "<room>_<style>_renovation", "prompt": "<extremely detailed photorealistic interior photography prompt naming every color, material, fixture, flooring, lighting and layout detail>", "aspect_ratio": "16:9"}`

// VisualAssessor is the first planning stage.
type VisualAssessor struct {
	llm    types.MultimodalClient
	search *SearchShard
}

// NewVisualAssessor creates the assessment stage. search may be nil.
func NewVisualAssessor(llm types.MultimodalClient, search *SearchShard) *VisualAssessor {
	return &VisualAssessor{llm: llm, search: search}
}

func (a *VisualAssessor) Name() string { return "assessor" }

// Run analyzes the request and images, adding a rule-of-thumb estimate and
// grounded research when available. The request facts it detects travel
// with its output.
func (a *VisualAssessor) Run(ctx context.Context, sess *session.Session, in StageInput) (StageOutput, error) {
	text := in.Previous.Text
	facts := ProjectFacts{}
	room, hasRoom := estimate.DetectRoom(text)
	if hasRoom {
		facts.Room = room
	}
	if scope, ok := estimate.DetectScope(text); ok {
		facts.Scope = scope
	}

	var b strings.Builder
	b.WriteString(text)

	var notes []string
	if sqft, ok := estimate.DetectSqFt(text); ok {
		notes = append(notes, estimate.Cost(roomOr(room, hasRoom), facts.Scope, sqft).String())
	}
	if budget, ok := estimate.DetectBudget(text); ok {
		facts.Budget = budget
		notes = append(notes, fmt.Sprintf("Budget mentioned: $%d", budget))
	}
	if len(in.Images) > 0 {
		var names []string
		for _, img := range in.Images {
			cat, _ := sess.References.CategoryOf(img.Name)
			names = append(names, fmt.Sprintf("%s (%s)", img.Name, cat))
		}
		notes = append(notes, "Attached images: "+strings.Join(names, ", "))
	}

	var sources []string
	if a.search != nil {
		query := fmt.Sprintf("Current renovation costs, materials and design trends for a %s renovation", strings.ReplaceAll(roomOr(room, hasRoom), "_", " "))
		research, src, err := a.search.Research(ctx, query)
		if err != nil {
			logging.ShardsWarn("assessor research skipped: %v", err)
		} else {
			notes = append(notes, "Research:\n"+research)
			sources = src
		}
	}

	if len(notes) > 0 {
		b.WriteString("\n\n[Context]\n")
		b.WriteString(strings.Join(notes, "\n"))
	}

	out, err := a.llm.CompleteWithImages(ctx, assessorSystemPrompt, b.String(), in.Images)
	if err != nil {
		return StageOutput{}, err
	}
	if facts.Room == "" {
		if r, ok := estimate.DetectRoom(out); ok {
			facts.Room = r
		}
	}
	return StageOutput{Text: out, Facts: facts, Sources: sources}, nil
}

func roomOr(room string, ok bool) string {
	if !ok {
		return estimate.RoomLivingRoom
	}
	return room
}

// DesignPlanner is the second planning stage.
type DesignPlanner struct {
	llm types.LLMClient
}

// NewDesignPlanner creates the design stage.
func NewDesignPlanner(llm types.LLMClient) *DesignPlanner {
	return &DesignPlanner{llm: llm}
}

func (d *DesignPlanner) Name() string { return "designer" }

var scopeLine = regexp.MustCompile(`(?i)renovation scope:\s*\**\s*\[?([a-z]+)`)

// Run writes the design plan from the assessment and appends the timeline
// for its scope.
func (d *DesignPlanner) Run(ctx context.Context, _ *session.Session, in StageInput) (StageOutput, error) {
	facts := in.Previous.Facts
	prompt := "Assessment:\n" + in.Previous.Text
	if block := facts.describe(); block != "" {
		prompt += "\n\nProject facts:\n" + block
	}
	out, err := d.llm.CompleteWithSystem(ctx, designerSystemPrompt, prompt)
	if err != nil {
		return StageOutput{}, err
	}

	if m := scopeLine.FindStringSubmatch(out); m != nil {
		facts.Scope = estimate.NormalizeScope(m[1])
	}
	return StageOutput{Text: out + "\n\n" + estimate.TimelineText(facts.Scope), Facts: facts}, nil
}

func (f ProjectFacts) describe() string {
	var lines []string
	if f.Room != "" {
		lines = append(lines, "- Room: "+strings.ReplaceAll(f.Room, "_", " "))
	}
	if f.Scope != "" {
		lines = append(lines, "- Scope: "+f.Scope)
	}
	if f.Budget > 0 {
		lines = append(lines, fmt.Sprintf("- Budget: $%d", f.Budget))
	}
	return strings.Join(lines, "\n")
}

// ProjectCoordinator is the last planning stage. It writes the plan and
// produces the rendering.
type ProjectCoordinator struct {
	llm      types.MultimodalClient
	renderer *rendering.Service
}

// NewProjectCoordinator creates the coordination stage.
func NewProjectCoordinator(llm types.MultimodalClient, renderer *rendering.Service) *ProjectCoordinator {
	return &ProjectCoordinator{llm: llm, renderer: renderer}
}

func (c *ProjectCoordinator) Name() string { return "coordinator" }

// Run writes the plan from the design, extracts the rendering brief and
// generates it.
func (c *ProjectCoordinator) Run(ctx context.Context, sess *session.Session, in StageInput) (StageOutput, error) {
	design := in.Previous.Text
	facts := in.Previous.Facts
	prompt := "Design:\n" + design
	if block := facts.describe(); block != "" {
		prompt += "\n\nProject facts:\n" + block
	}

	out, err := c.llm.CompleteWithImages(ctx, coordinatorSystemPrompt, prompt, in.Images)
	if err != nil {
		return StageOutput{}, err
	}

	brief, prose, ok := articulation.ExtractBrief(out)
	if !ok {
		brief = articulation.RenderingBrief{
			AssetName:   rendering.DefaultAssetName,
			Prompt:      design,
			AspectRatio: articulation.DefaultAspectRatio,
		}
		if facts.Room != "" {
			brief.AssetName = facts.Room + "_renovation"
		}
		if strings.TrimSpace(brief.Prompt) == "" {
			brief.Prompt = "Photorealistic renovated interior"
		}
		logging.ShardsWarn("coordinator returned no rendering brief, using %s", brief.AssetName)
	}

	req := rendering.GenerateRequest{
		Prompt:      brief.Prompt,
		AssetName:   brief.AssetName,
		AspectRatio: brief.AspectRatio,
	}
	for _, img := range in.Images {
		if cat, _ := sess.References.CategoryOf(img.Name); cat == assets.CategoryCurrentRoom {
			req.CurrentRoom = img.Name
		} else {
			req.References = append(req.References, img.Name)
		}
	}

	res, err := c.renderer.Generate(ctx, sess, req)
	if err != nil {
		return StageOutput{}, err
	}

	text := strings.TrimSpace(prose)
	if text != "" {
		text += "\n\n"
	}
	text += "## 🎨 Visual Rendering\n\n" + res.Summary()
	return StageOutput{Text: text, Facts: facts, Rendering: res}, nil
}
