package quiz

import (
	"strings"
	"testing"
)

func TestNormalizeValidatesAnswerLetter(t *testing.T) {
	cases := []struct {
		name   string
		answer string
		want   string
	}{
		{"upper", "B", "B"},
		{"lower", "c", "C"},
		{"padded", " a ", "A"},
		{"out_of_range", "E", ""},
		{"word", "B) Paris", ""},
		{"empty", "", ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			q := Normalize(RawQuestion{
				Question: "q?",
				Options:  []string{"w", "x", "y", "z"},
				Answer:   tc.answer,
			})
			if q.CorrectOption != tc.want {
				t.Fatalf("CorrectOption = %q, want %q", q.CorrectOption, tc.want)
			}
		})
	}
}

func TestNormalizeTruncatesToFourOptions(t *testing.T) {
	q := Normalize(RawQuestion{
		Question: "q?",
		Options:  []string{"1", "2", "3", "4", "5", "6"},
		Answer:   "D",
	})
	if len(q.Options) != 4 {
		t.Fatalf("len(Options) = %d, want 4", len(q.Options))
	}
	if q.Options["D"] != "4" {
		t.Fatalf("Options[D] = %q, want 4", q.Options["D"])
	}
}

func TestFormatMCQFixedOrder(t *testing.T) {
	q := Normalize(RawQuestion{
		Question: "Capital of France?",
		Options:  []string{"Paris", "Rome"},
		Answer:   "A",
	})
	got := FormatMCQ(3, q)
	want := "Question 3: Capital of France?\nA) Paris\nB) Rome\nC) \nD) "
	if got != want {
		t.Fatalf("FormatMCQ() = %q, want %q", got, want)
	}
	if !strings.HasPrefix(got, "Question 3:") {
		t.Fatalf("missing index prefix: %q", got)
	}
}
