package interpret

import "encoding/json"

// ExtractJSONObject returns the first valid JSON object embedded in s.
func ExtractJSONObject(s string) (string, bool) {
	objs := JSONObjects(s)
	if len(objs) == 0 {
		return "", false
	}
	return objs[0], true
}

// JSONObjects returns every balanced {...} in s that is valid JSON, in the
// order they start. Models often wrap their answer in prose or markdown
// fences, and the prose may itself contain braces ("sure {here you go}"), so
// candidates that do not parse are skipped and the scan moves on. Braces
// inside JSON strings do not count towards balance. Objects nested in a
// returned object are not returned separately.
func JSONObjects(s string) []string {
	var out []string
	for start := 0; start < len(s); start++ {
		if s[start] != '{' {
			continue
		}
		end, ok := matchObject(s, start)
		if !ok {
			continue
		}
		candidate := s[start : end+1]
		if !json.Valid([]byte(candidate)) {
			continue
		}
		out = append(out, candidate)
		start = end
	}
	return out
}

// matchObject returns the index of the brace closing the object opened at start.
func matchObject(s string, start int) (int, bool) {
	depth := 0
	inString := false
	escaped := false

	for i := start; i < len(s); i++ {
		c := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return i, true
			}
		}
	}
	return 0, false
}
