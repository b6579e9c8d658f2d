package classify

import (
	"encoding/json"
	"strings"
)

// StripFences removes markdown code-fence markers that models wrap
// around JSON output, with or without a "json" language tag.
func StripFences(raw string) string {
	s := strings.TrimSpace(raw)
	s = strings.ReplaceAll(s, "```json", "")
	s = strings.ReplaceAll(s, "```", "")
	return strings.TrimSpace(s)
}

// ParseJSON strips fences and decodes the remainder into out. This is
// the single parsing contract shared by every consumer of structured
// model output.
func ParseJSON(raw string, out any) error {
	return json.Unmarshal([]byte(StripFences(raw)), out)
}

// coerceFloat converts loosely typed JSON values to a float64,
// defaulting to 0 when the value cannot be interpreted as a number.
func coerceFloat(v any) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case json.Number:
		f, err := n.Float64()
		if err != nil {
			return 0
		}
		return f
	case string:
		var f float64
		if err := json.Unmarshal([]byte(strings.TrimSpace(n)), &f); err != nil {
			return 0
		}
		return f
	default:
		return 0
	}
}

// coerceString converts a JSON value to a trimmed string, returning ""
// for non-strings and whitespace-only values.
func coerceString(v any) string {
	s, ok := v.(string)
	if !ok {
		return ""
	}
	return strings.TrimSpace(s)
}
