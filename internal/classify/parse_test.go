package classify

import (
	"encoding/json"
	"testing"
)

func TestStripFences(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{"bare", `{"a":1}`, `{"a":1}`},
		{"fenced", "```\n{\"a\":1}\n```", `{"a":1}`},
		{"fenced_json_tag", "```json\n{\"a\":1}\n```", `{"a":1}`},
		{"surrounding_space", "  {\"a\":1}  ", `{"a":1}`},
		{"empty", "", ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := StripFences(tc.in); got != tc.want {
				t.Fatalf("StripFences(%q) = %q, want %q", tc.in, got, tc.want)
			}
		})
	}
}

func TestParseJSONDecodesFencedObject(t *testing.T) {
	var out struct {
		Intent string `json:"intent"`
	}
	if err := ParseJSON("```json\n{\"intent\": \"greeting\"}\n```", &out); err != nil {
		t.Fatalf("ParseJSON() error = %v", err)
	}
	if out.Intent != "greeting" {
		t.Fatalf("intent = %q, want greeting", out.Intent)
	}
}

func TestCoerceFloat(t *testing.T) {
	cases := []struct {
		in   any
		want float64
	}{
		{0.85, 0.85},
		{json.Number("0.5"), 0.5},
		{"0.7", 0.7},
		{"not a number", 0},
		{nil, 0},
		{true, 0},
	}
	for _, tc := range cases {
		if got := coerceFloat(tc.in); got != tc.want {
			t.Fatalf("coerceFloat(%v) = %v, want %v", tc.in, got, tc.want)
		}
	}
}

func TestCoerceString(t *testing.T) {
	if got := coerceString("  Algebra  "); got != "Algebra" {
		t.Fatalf("coerceString = %q, want Algebra", got)
	}
	if got := coerceString(12); got != "" {
		t.Fatalf("coerceString(12) = %q, want empty", got)
	}
	if got := coerceString("   "); got != "" {
		t.Fatalf("coerceString(blank) = %q, want empty", got)
	}
}
