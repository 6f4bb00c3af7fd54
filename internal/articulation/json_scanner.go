// Package articulation turns free-form model output into structured values.
package articulation

// findJSONObjects returns every balanced top-level {...} span in s.
// String state is tracked only inside an object, so stray quotes in
// surrounding prose do not hide the JSON that follows them.
//
// Iterating bytes is safe for the ASCII delimiters because UTF-8 never
// uses ASCII bytes inside multi-byte sequences.
func findJSONObjects(s string) []string {
	var (
		objects  []string
		depth    int
		start    = -1
		inString bool
		escape   bool
	)

	for i := 0; i < len(s); i++ {
		b := s[i]

		if depth > 0 && inString {
			switch {
			case escape:
				escape = false
			case b == '\\':
				escape = true
			case b == '"':
				inString = false
			}
			continue
		}

		switch b {
		case '"':
			if depth > 0 {
				inString = true
			}
		case '{':
			if depth == 0 {
				start = i
			}
			depth++
		case '}':
			if depth == 0 {
				continue
			}
			depth--
			if depth == 0 {
				objects = append(objects, s[start:i+1])
				start = -1
			}
		}
	}

	return objects
}
