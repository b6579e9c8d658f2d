package quiz

import (
	"fmt"
	"strings"
)

// OptionLetters is the fixed rendering order for MCQ options.
var OptionLetters = []string{"A", "B", "C", "D"}

// RawQuestion is one record of the remote question document.
type RawQuestion struct {
	Question string   `json:"question"`
	Options  []string `json:"options"`
	Answer   string   `json:"answer"`
	Subject  string   `json:"subject,omitempty"`
	Topic    string   `json:"topic,omitempty"`
}

// Question is a raw record reshaped to the fixed four-option schema.
// CorrectOption is empty when the declared answer letter failed
// validation; such questions never enter a quiz.
type Question struct {
	Text          string            `json:"question"`
	Options       map[string]string `json:"options"`
	CorrectOption string            `json:"correct_option"`
}

// Normalize truncates the options to at most four, keyed A through D in
// source order, and validates the declared answer letter.
func Normalize(raw RawQuestion) Question {
	opts := raw.Options
	if len(opts) > 4 {
		opts = opts[:4]
	}
	options := make(map[string]string, len(opts))
	for i, val := range opts {
		options[OptionLetters[i]] = val
	}

	q := Question{Text: raw.Question, Options: options}
	answer := strings.ToUpper(strings.TrimSpace(raw.Answer))
	if len(answer) == 1 && strings.Contains("ABCD", answer) {
		q.CorrectOption = answer
	}
	return q
}

// FormatMCQ renders a question for the student. Options always appear
// in fixed A-D order, empty-valued when the source provided fewer.
func FormatMCQ(index int, q Question) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Question %d: %s", index, q.Text)
	for _, letter := range OptionLetters {
		fmt.Fprintf(&b, "\n%s) %s", letter, q.Options[letter])
	}
	return b.String()
}

// poolFacets collects the distinct lowercased subjects and topics
// present in a question pool.
func poolFacets(pool []RawQuestion) (subjects, topics map[string]bool) {
	subjects = make(map[string]bool)
	topics = make(map[string]bool)
	for _, q := range pool {
		if s := strings.ToLower(strings.TrimSpace(q.Subject)); s != "" {
			subjects[s] = true
		}
		if t := strings.ToLower(strings.TrimSpace(q.Topic)); t != "" {
			topics[t] = true
		}
	}
	return subjects, topics
}
