package intent

import (
	"strings"

	"github.com/kaptinlin/jsonrepair"
)

// ExtractJSON pulls the first balanced JSON object or array out of a model
// reply. Models routinely wrap JSON in prose or markdown code fences; this
// scans for the first '{' or '[' and walks to its matching close, respecting
// string literals and escapes.
func ExtractJSON(reply string) (string, bool) {
	s := stripCodeFences(reply)

	start := -1
	var open, close byte
	for i := 0; i < len(s); i++ {
		if s[i] == '{' || s[i] == '[' {
			start = i
			open = s[i]
			if open == '{' {
				close = '}'
			} else {
				close = ']'
			}
			break
		}
	}
	if start < 0 {
		return "", false
	}

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
		case open:
			depth++
		case close:
			depth--
			if depth == 0 {
				return s[start : i+1], true
			}
		}
	}
	return "", false
}

// RepairJSON attempts to fix almost-JSON (trailing commas, single quotes,
// unquoted keys) the way models often emit it.
func RepairJSON(candidate string) (string, bool) {
	fixed, err := jsonrepair.JSONRepair(candidate)
	if err != nil {
		return "", false
	}
	return fixed, true
}

func stripCodeFences(s string) string {
	if !strings.Contains(s, "```") {
		return s
	}
	var out strings.Builder
	for _, line := range strings.Split(s, "\n") {
		if strings.HasPrefix(strings.TrimSpace(line), "```") {
			continue
		}
		out.WriteString(line)
		out.WriteByte('\n')
	}
	return out.String()
}
