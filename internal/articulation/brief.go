package articulation

import "strings"

// DefaultAspectRatio is used when a brief omits one.
const DefaultAspectRatio = "16:9"

var validAspectRatios = map[string]bool{
	"1:1": true, "2:3": true, "3:2": true, "3:4": true,
	"4:3": true, "9:16": true, "16:9": true, "21:9": true,
}

// RenderingBrief is the structured request a planning stage embeds in its
// prose to ask for a rendering.
type RenderingBrief struct {
	AssetName   string `json:"asset_name"`
	Prompt      string `json:"prompt"`
	AspectRatio string `json:"aspect_ratio,omitempty"`
}

// ExtractBrief finds the first JSON object carrying a non-empty prompt.
// The returned prose is text without the object. Asset names are
// normalized to snake_case and an unsupported aspect ratio becomes the
// default.
func ExtractBrief(text string) (RenderingBrief, string, bool) {
	brief, prose, ok := DecodeFirst(text, func(b RenderingBrief) bool {
		return strings.TrimSpace(b.Prompt) != ""
	})
	if !ok {
		return RenderingBrief{}, prose, false
	}
	brief.AssetName = NormalizeAssetName(brief.AssetName)
	brief.Prompt = strings.TrimSpace(brief.Prompt)
	if !validAspectRatios[brief.AspectRatio] {
		brief.AspectRatio = DefaultAspectRatio
	}
	return brief, prose, true
}

// NormalizeAssetName lowercases name and collapses anything outside
// [a-z0-9] into single underscores.
func NormalizeAssetName(name string) string {
	var b strings.Builder
	underscore := false
	for _, r := range strings.ToLower(strings.TrimSpace(name)) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
			underscore = false
			continue
		}
		if !underscore && b.Len() > 0 {
			b.WriteByte('_')
			underscore = true
		}
	}
	return strings.TrimSuffix(b.String(), "_")
}
