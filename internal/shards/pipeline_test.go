package shards

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"renoplan/internal/assets"
	"renoplan/internal/types"
)

func planner(t *testing.T, h *harness) *PlanningPipeline {
	t.Helper()
	s, err := h.manager.Get("PLAN")
	require.NoError(t, err)
	p, ok := s.(*PlanningPipeline)
	require.True(t, ok)
	return p
}

func TestPlanningPipeline_TextOnly(t *testing.T) {
	h := newHarness(t)
	h.llm.respond = plannerReplies
	p := planner(t, h)
	assert.Equal(t, []string{"assessor", "designer", "coordinator"}, p.Stages())

	resp, err := p.Handle(context.Background(), h.sess, h.request("Renovate my kitchen, about 150 sq ft"))
	require.NoError(t, err)

	require.NotNil(t, resp.Rendering)
	assert.Equal(t, "kitchen_modern_v1.png", resp.Rendering.Filename)
	assert.False(t, resp.Rendering.Edited)

	call := h.model.lastCall()
	assert.Equal(t, "generate", call.Op)
	assert.Equal(t, "photorealistic modern kitchen with white oak cabinets", call.Prompt)

	assert.Contains(t, resp.Text, "ASSESSMENT COMPLETE")
	assert.Contains(t, resp.Text, "⏱️ Estimated Timeline: 2-4 months (complete transformation)")
	assert.Contains(t, resp.Text, "## Renovation Plan")
	assert.Contains(t, resp.Text, "## 🎨 Visual Rendering")
	assert.NotContains(t, resp.Text, `"asset_name"`)

	assessor, ok := h.llm.callFor("You are a visual renovation specialist")
	require.True(t, ok)
	assert.Contains(t, assessor.User, "💰 Estimated Cost: $22,500 - $37,500")

	designer, ok := h.llm.callFor("Create a specific")
	require.True(t, ok)
	assert.Contains(t, designer.User, "ASSESSMENT COMPLETE")
	assert.Contains(t, designer.User, "- Room: kitchen")
	assert.NotContains(t, designer.User, "Renovate my kitchen")

	// Each stage sees only the stage before it.
	coordinator, ok := h.llm.callFor("Write the final")
	require.True(t, ok)
	assert.Contains(t, coordinator.User, "DESIGN COMPLETE")
	assert.Contains(t, coordinator.User, "- Scope: full")
	assert.NotContains(t, coordinator.User, "ASSESSMENT COMPLETE")
	assert.NotContains(t, coordinator.User, "Renovate my kitchen")
}

func TestPlanningPipeline_WithUploads(t *testing.T) {
	h := newHarness(t)
	h.llm.respond = plannerReplies
	h.upload(t, "kitchen.jpg", assets.CategoryCurrentRoom)
	h.upload(t, "inspo.png", assets.CategoryInspiration)

	resp, err := planner(t, h).Handle(context.Background(), h.sess, h.request("Renovate my kitchen to look like this"))
	require.NoError(t, err)

	assessor, ok := h.llm.callFor("You are a visual renovation specialist")
	require.True(t, ok)
	assert.Equal(t, []string{"kitchen.jpg", "inspo.png"}, assessor.Images)
	assert.Contains(t, assessor.User, "kitchen.jpg (current_room)")

	call := h.model.lastCall()
	assert.Equal(t, "edit", call.Op)
	assert.Equal(t, "kitchen.jpg", call.Base)
	assert.Equal(t, []string{"inspo.png"}, call.Refs)
	assert.Equal(t, "kitchen.jpg", resp.Rendering.Source)
}

func TestPlanningPipeline_StageFailureAborts(t *testing.T) {
	h := newHarness(t)
	h.llm.respond = func(system, user string) (string, error) {
		if strings.HasPrefix(system, "Create a specific") {
			return "", types.ErrExternalService
		}
		return plannerReplies(system, user)
	}

	resp, err := planner(t, h).Handle(context.Background(), h.sess, h.request("Renovate my kitchen"))
	require.Error(t, err)
	assert.Nil(t, resp)
	assert.True(t, errors.Is(err, types.ErrExternalService))
	assert.Contains(t, err.Error(), "designer")

	_, ok := h.llm.callFor("Write the final")
	assert.False(t, ok, "coordinator must not run after a failed stage")
	assert.Equal(t, 0, h.sess.Versions.Len())
	assert.Empty(t, h.model.calls)
}

func TestPlanningPipeline_MissingUploadAborts(t *testing.T) {
	h := newHarness(t)
	h.llm.respond = plannerReplies
	h.sess.References.Register("ghost.jpg", assets.CategoryCurrentRoom)

	_, err := planner(t, h).Handle(context.Background(), h.sess, h.request("Renovate my kitchen"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, types.ErrMissingSourceImage))
}

func TestProjectCoordinator_FallbackBrief(t *testing.T) {
	h := newHarness(t)
	h.llm.respond = func(system, user string) (string, error) {
		if strings.HasPrefix(system, "Write the final") {
			return "## Renovation Plan\nNo JSON here.", nil
		}
		return plannerReplies(system, user)
	}

	resp, err := planner(t, h).Handle(context.Background(), h.sess, h.request("Renovate my bathroom"))
	require.NoError(t, err)
	assert.Equal(t, "bathroom_renovation_v1.png", resp.Rendering.Filename)
	assert.Contains(t, h.model.lastCall().Prompt, "DESIGN COMPLETE")
}

func TestVisualAssessor_Search(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	h.llm.respond = plannerReplies

	t.Run("grounded", func(t *testing.T) {
		search := &scriptedLLM{respond: func(string, string) (string, error) {
			return "Quartz averages $60-$100 per sq ft.", nil
		}}
		out, err := NewVisualAssessor(h.llm, NewSearchShard(search)).Run(ctx, h.sess, StageInput{Previous: StageOutput{Text: "Update my kitchen"}})
		require.NoError(t, err)
		assert.Contains(t, out.Text, "ASSESSMENT COMPLETE")
		assert.Equal(t, "kitchen", out.Facts.Room)

		call, ok := h.llm.callFor("You are a visual renovation specialist")
		require.True(t, ok)
		assert.Contains(t, call.User, "Quartz averages")
		require.Len(t, search.calls, 1)
		assert.Contains(t, search.calls[0].User, "kitchen renovation")
	})

	t.Run("search failure is not fatal", func(t *testing.T) {
		search := &scriptedLLM{respond: func(string, string) (string, error) {
			return "", errors.New("quota exceeded")
		}}
		out, err := NewVisualAssessor(h.llm, NewSearchShard(search)).Run(ctx, h.sess, StageInput{Previous: StageOutput{Text: "Update my bedroom"}})
		require.NoError(t, err)
		assert.NotEmpty(t, out.Text)
	})
}

func TestDesignPlanner_ScopeFromFacts(t *testing.T) {
	h := newHarness(t)
	h.llm.respond = func(string, string) (string, error) { return "A plan without a scope line.", nil }

	out, err := NewDesignPlanner(h.llm).Run(context.Background(), h.sess, StageInput{
		Previous: StageOutput{Stage: "assessor", Text: "assessment", Facts: ProjectFacts{Room: "living_room", Scope: "cosmetic"}},
	})
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(out.Text, "⏱️ Estimated Timeline: 1-2 weeks (quick refresh)"))
	assert.Equal(t, ProjectFacts{Room: "living_room", Scope: "cosmetic"}, out.Facts)

	call, ok := h.llm.callFor("Create a specific")
	require.True(t, ok)
	assert.Equal(t, "Assessment:\nassessment\n\nProject facts:\n- Room: living room\n- Scope: cosmetic", call.User)
}

func TestDesignPlanner_ScopeLineWins(t *testing.T) {
	h := newHarness(t)
	h.llm.respond = func(string, string) (string, error) { return "DESIGN COMPLETE\nRenovation Scope: [luxury]", nil }

	out, err := NewDesignPlanner(h.llm).Run(context.Background(), h.sess, StageInput{
		Previous: StageOutput{Text: "assessment", Facts: ProjectFacts{Scope: "cosmetic"}},
	})
	require.NoError(t, err)
	assert.Equal(t, "luxury", out.Facts.Scope)
	assert.Contains(t, out.Text, "4-6 months")
}
