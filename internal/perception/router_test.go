package perception

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"renoplan/internal/types"
)

func TestHeuristicRouter_Scenarios(t *testing.T) {
	tests := []struct {
		name string
		u    Utterance
		want Destination
	}{
		{"edit with prior rendering", Utterance{Text: "make the cabinets cream", HasPriorRendering: true}, DestinationEdit},
		{"renovate request", Utterance{Text: "help me renovate my kitchen"}, DestinationPlan},
		{"edit with upload", Utterance{Text: "Can you make it darker?", HasUploadedImage: true}, DestinationEdit},
		{"paint with prior", Utterance{Text: "paint the walls sage green instead", HasPriorRendering: true}, DestinationEdit},
		{"upload without edit intent", Utterance{Text: "here is my bathroom", HasUploadedImage: true}, DestinationPlan},
		{"new space", Utterance{Text: "I want a new kitchen with an island"}, DestinationPlan},
		{"greeting", Utterance{Text: "hi"}, DestinationInfo},
		{"capabilities", Utterance{Text: "What can you do?"}, DestinationInfo},
		{"cost question", Utterance{Text: "How much does a kitchen remodel cost?"}, DestinationInfo},
		{"edit with nothing to edit", Utterance{Text: "make it darker"}, DestinationInfo},
		{"plan beats prior rendering", Utterance{Text: "let's remodel the bathroom next", HasPriorRendering: true}, DestinationPlan},
	}

	r := NewHeuristicRouter()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := r.Route(context.Background(), tt.u)
			assert.Equal(t, tt.want, d.Destination, "reason: %s, cues: %+v", d.Reason, d.Cues)
		})
	}
}

func TestRouter_Total(t *testing.T) {
	texts := []string{
		"", "   ", "?", "make", "renovate", "redo the kitchen and change the layout",
		"🙂", "kitchen_renovation_v2.png", "hello, please remodel and repaint",
	}
	valid := map[Destination]bool{DestinationInfo: true, DestinationEdit: true, DestinationPlan: true}

	r := NewHeuristicRouter()
	for _, text := range texts {
		for _, up := range []bool{false, true} {
			for _, prior := range []bool{false, true} {
				d := r.Route(context.Background(), Utterance{Text: text, HasUploadedImage: up, HasPriorRendering: prior})
				assert.True(t, valid[d.Destination], "text=%q up=%v prior=%v got %q", text, up, prior, d.Destination)
			}
		}
	}
}

func TestRouter_AmbiguousDefaultsToInfo(t *testing.T) {
	r := NewHeuristicRouter()

	d := r.Route(context.Background(), Utterance{Text: "", HasUploadedImage: true, HasPriorRendering: true})
	assert.Equal(t, DestinationInfo, d.Destination)
	assert.ErrorIs(t, d.Err(), types.ErrClassificationAmbiguous)

	// "redo" (plan, 3) ties with "change" (edit, 3).
	d = r.Route(context.Background(), Utterance{Text: "redo the kitchen and change the layout", HasPriorRendering: true})
	require.True(t, d.Cues.Tied, "%+v", d.Cues)
	assert.Equal(t, DestinationInfo, d.Destination)
	assert.ErrorIs(t, d.Err(), types.ErrClassificationAmbiguous)

	d = r.Route(context.Background(), Utterance{Text: "hello"})
	assert.NoError(t, d.Err())
}

func TestDecide_Priority(t *testing.T) {
	tests := []struct {
		name string
		u    Utterance
		c    Cues
		want Destination
	}{
		{"edit wins over upload", Utterance{Text: "x", HasUploadedImage: true}, Cues{EditIntent: true}, DestinationEdit},
		{"edit needs an image", Utterance{Text: "x"}, Cues{EditIntent: true}, DestinationInfo},
		{"plan without images", Utterance{Text: "x"}, Cues{NewProjectIntent: true}, DestinationPlan},
		{"upload alone plans", Utterance{Text: "x", HasUploadedImage: true}, Cues{}, DestinationPlan},
		{"prior rendering alone is info", Utterance{Text: "x", HasPriorRendering: true}, Cues{}, DestinationInfo},
		{"tie is info", Utterance{Text: "x", HasUploadedImage: true}, Cues{Tied: true}, DestinationInfo},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Decide(tt.u, tt.c).Destination)
		})
	}
}

func TestExtractCues(t *testing.T) {
	c := ExtractCues("make the cabinets cream")
	assert.True(t, c.EditIntent)
	assert.Contains(t, c.Matched, "make_it")

	c = ExtractCues("how much does a renovation cost?")
	assert.False(t, c.NewProjectIntent)
	assert.Greater(t, c.InfoScore, c.PlanScore)
}
