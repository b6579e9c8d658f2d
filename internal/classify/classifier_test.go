package classify

import (
	"context"
	"errors"
	"testing"

	"github.com/vishukulkarni/tutorflow/internal/llm"
)

func TestSubjectClassifierParsesReply(t *testing.T) {
	mock := llm.NewMockProvider(llm.MockResponse{
		Text: "```json\n{\"subject\": \"Math\", \"topic\": \"Algebra\", \"confidence\": 0.9}\n```",
	})
	c := NewSubjectClassifier(mock, nil, nil)

	got := c.Classify(context.Background(), "help me with linear equations")
	if got.Subject != "Math" || got.Topic != "Algebra" || got.Confidence != 0.9 {
		t.Fatalf("Classify() = %+v", got)
	}
}

func TestSubjectClassifierDefaultsOnGarbage(t *testing.T) {
	cases := []struct {
		name string
		resp llm.MockResponse
	}{
		{"not_json", llm.MockResponse{Text: "sure, that's about math!"}},
		{"provider_error", llm.MockResponse{Err: errors.New("boom")}},
		{"wrong_types", llm.MockResponse{Text: `{"subject": 3, "topic": null, "confidence": "high"}`}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c := NewSubjectClassifier(llm.NewMockProvider(tc.resp), nil, nil)
			got := c.Classify(context.Background(), "whatever")
			if got.Subject != "" || got.Topic != "" || got.Confidence != 0 {
				t.Fatalf("Classify() = %+v, want zero value", got)
			}
		})
	}
}

func TestSubjectClassifierIsIdempotentWithDeterministicBackend(t *testing.T) {
	reply := `{"subject": "Science", "topic": "Photosynthesis", "confidence": 0.8}`
	mock := llm.NewMockProvider().Always(reply)
	c := NewSubjectClassifier(mock, nil, nil)

	first := c.Classify(context.Background(), "how do plants make food?")
	second := c.Classify(context.Background(), "how do plants make food?")
	if first != second {
		t.Fatalf("classifications differ: %+v vs %+v", first, second)
	}
}

func TestIntentClassifierParsesReply(t *testing.T) {
	mock := llm.NewMockProvider(llm.MockResponse{
		Text: `{"intent": "request_quiz", "confidence": 0.95}`,
	})
	c := NewIntentClassifier(mock, nil, nil)

	intent, conf := c.Classify(context.Background(), "quiz me on fractions")
	if intent != IntentRequestQuiz {
		t.Fatalf("intent = %s, want %s", intent, IntentRequestQuiz)
	}
	if conf != 0.95 {
		t.Fatalf("confidence = %v, want 0.95", conf)
	}
}

func TestIntentClassifierDefaultsToOffTopic(t *testing.T) {
	cases := []struct {
		name string
		resp llm.MockResponse
	}{
		{"provider_error", llm.MockResponse{Err: errors.New("down")}},
		{"not_json", llm.MockResponse{Text: "hello!"}},
		{"missing_intent", llm.MockResponse{Text: `{"confidence": 0.4}`}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c := NewIntentClassifier(llm.NewMockProvider(tc.resp), nil, nil)
			intent, _ := c.Classify(context.Background(), "hmm")
			if intent != IntentOffTopic {
				t.Fatalf("intent = %s, want off_topic", intent)
			}
		})
	}
}

func TestIntentClassifierPassesUnknownIntentThrough(t *testing.T) {
	// Unknown labels reach the router untouched; its default branch
	// treats them like off_topic.
	c := NewIntentClassifier(llm.NewMockProvider(llm.MockResponse{
		Text: `{"intent": "existential_dread", "confidence": 0.2}`,
	}), nil, nil)
	intent, _ := c.Classify(context.Background(), "why")
	if intent != Intent("existential_dread") {
		t.Fatalf("intent = %s", intent)
	}
}
