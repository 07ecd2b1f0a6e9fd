package insights

import "strings"

// cleanJSON strips code fences and any text around the outermost object,
// then repairs unquoted keys.
func cleanJSON(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```JSON")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	s = strings.TrimSpace(s)

	start := strings.IndexByte(s, '{')
	end := strings.LastIndexByte(s, '}')
	if start >= 0 && end > start {
		s = s[start : end+1]
	}
	return repairJSON(s)
}

// repairJSON quotes object keys that models sometimes emit bare
// (`{task: "x"}`) or with only the closing quote (`{task": "x"}`).
// String contents are never modified.
func repairJSON(s string) string {
	in := []rune(s)
	out := make([]rune, 0, len(in)+32)

	inString := false
	escaped := false
	for i := 0; i < len(in); i++ {
		ch := in[i]
		out = append(out, ch)

		if inString {
			switch {
			case escaped:
				escaped = false
			case ch == '\\':
				escaped = true
			case ch == '"':
				inString = false
			}
			continue
		}

		switch ch {
		case '"':
			inString = true
			continue
		case '{', ',':
		default:
			continue
		}

		// Copy whitespace following the delimiter
		j := i + 1
		for j < len(in) && isSpace(in[j]) {
			out = append(out, in[j])
			j++
		}
		if j >= len(in) || !isKeyStart(in[j]) {
			i = j - 1
			continue
		}

		keyStart := j
		for j < len(in) && isKeyChar(in[j]) {
			j++
		}
		key := in[keyStart:j]

		switch {
		case j+1 < len(in) && in[j] == '"' && in[j+1] == ':':
			// missing opening quote
			out = append(out, '"')
			out = append(out, key...)
			out = append(out, '"')
			i = j
		case followedByColon(in, j):
			out = append(out, '"')
			out = append(out, key...)
			out = append(out, '"')
			i = j - 1
		default:
			// a bare value such as null or true
			out = append(out, key...)
			i = j - 1
		}
	}
	return string(out)
}

func followedByColon(in []rune, j int) bool {
	for j < len(in) && isSpace(in[j]) {
		j++
	}
	return j < len(in) && in[j] == ':'
}

func isSpace(r rune) bool {
	return r == ' ' || r == '\n' || r == '\t' || r == '\r'
}

func isKeyStart(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || r == '_'
}

func isKeyChar(r rune) bool {
	return isKeyStart(r) || (r >= '0' && r <= '9')
}
