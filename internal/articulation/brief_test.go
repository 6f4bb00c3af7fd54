package articulation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractBrief(t *testing.T) {
	text := "## Budget\nAbout $35k.\n\n```json\n" +
		`{"asset_name": "Kitchen Renovation", "prompt": "bright kitchen, cream shaker cabinets", "aspect_ratio": "4:3"}` +
		"\n```\n\nEnjoy your new space."

	brief, prose, ok := ExtractBrief(text)
	require.True(t, ok)
	assert.Equal(t, RenderingBrief{
		AssetName:   "kitchen_renovation",
		Prompt:      "bright kitchen, cream shaker cabinets",
		AspectRatio: "4:3",
	}, brief)
	assert.Equal(t, "## Budget\nAbout $35k.\n\nEnjoy your new space.", prose)
}

func TestExtractBrief_SkipsDecoys(t *testing.T) {
	text := `Estimate: {"low": 10000, "high": 20000}. Then {"asset_name": "bath", "prompt": "spa bathroom", "aspect_ratio": "5:4"}`

	brief, _, ok := ExtractBrief(text)
	require.True(t, ok)
	assert.Equal(t, "bath", brief.AssetName)
	assert.Equal(t, DefaultAspectRatio, brief.AspectRatio)
}

func TestExtractBrief_Missing(t *testing.T) {
	_, prose, ok := ExtractBrief("  no structured request here  ")
	assert.False(t, ok)
	assert.Equal(t, "no structured request here", prose)
}

func TestDecodeFirst_Accept(t *testing.T) {
	type cue struct {
		Edit *bool `json:"edit_intent"`
	}
	v, _, ok := DecodeFirst(`{"x": 1} {"edit_intent": true}`, func(c cue) bool { return c.Edit != nil })
	require.True(t, ok)
	assert.True(t, *v.Edit)
}

func TestNormalizeAssetName(t *testing.T) {
	tests := map[string]string{
		"Kitchen Renovation":   "kitchen_renovation",
		"  bath--remodel!! ":   "bath_remodel",
		"living_room_v2":       "living_room_v2",
		"":                     "",
		"___":                  "",
		"Primary Bedroom (v1)": "primary_bedroom_v1",
	}
	for in, want := range tests {
		assert.Equal(t, want, NormalizeAssetName(in), in)
	}
}
