package articulation

import (
	"encoding/json"
	"strings"
)

// DecodeFirst unmarshals the first JSON object in text that decodes into T
// and satisfies accept (nil accepts anything). The second return value is
// text with that object removed, trimmed.
func DecodeFirst[T any](text string, accept func(T) bool) (T, string, bool) {
	var zero T
	for _, candidate := range findJSONObjects(text) {
		var v T
		if err := json.Unmarshal([]byte(candidate), &v); err != nil {
			continue
		}
		if accept != nil && !accept(v) {
			continue
		}
		return v, stripSpan(text, candidate), true
	}
	return zero, strings.TrimSpace(text), false
}

// stripSpan removes span from text along with a surrounding ``` fence.
func stripSpan(text, span string) string {
	idx := strings.Index(text, span)
	if idx < 0 {
		return strings.TrimSpace(text)
	}
	before, after := text[:idx], text[idx+len(span):]

	trimmedBefore := strings.TrimRight(before, " \t\r\n")
	trimmedAfter := strings.TrimLeft(after, " \t\r\n")
	for _, fence := range []string{"```json", "```JSON", "```"} {
		if strings.HasSuffix(trimmedBefore, fence) && strings.HasPrefix(trimmedAfter, "```") {
			before = strings.TrimSuffix(trimmedBefore, fence)
			after = strings.TrimPrefix(trimmedAfter, "```")
			break
		}
	}

	return strings.TrimSpace(strings.TrimSpace(before) + "\n\n" + strings.TrimSpace(after))
}
