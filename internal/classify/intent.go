package classify

import (
	"context"

	"github.com/vishukulkarni/tutorflow/internal/llm"
	"github.com/vishukulkarni/tutorflow/internal/observability"
)

// Intent is the classified purpose of a user message.
type Intent string

const (
	IntentGreeting         Intent = "greeting"
	IntentSmallTalk        Intent = "small_talk"
	IntentQuizAnswer       Intent = "quiz_answer"
	IntentQuizAnswerForced Intent = "quiz_answer_forced" // synthesized locally, never produced by the model
	IntentRequestQuiz      Intent = "request_quiz"
	IntentAcademicQuestion Intent = "academic_question"
	IntentOffTopic         Intent = "off_topic"
)

const intentInstruction = `You are an Intent Classification Agent.

Given a user's message, classify it into ONE of the following intents:

1. "greeting" - hi, hello, hey, good morning, thanks, bye, etc.
2. "small_talk" - casual or social conversation not related to learning
   or quizzes (e.g. "how is your day?", "what's up?").
3. "quiz_answer" - single-letter responses like "A", "B", "C", "D",
   short numeric answers, or simple variants like "I think it's B".
4. "request_quiz" - the user explicitly wants a quiz: "test me",
   "give me a quiz", "practice questions", "start MCQs".
5. "academic_question" - any learning, subject or topic question:
   "explain gravity", "what is photosynthesis?".
6. "off_topic" - anything else.

Output strictly valid JSON, not wrapped in backticks:
{"intent": "string", "confidence": 0.0}
The confidence score is between 0 and 1.`

// IntentClassifier maps a message to an Intent with a confidence score.
// Failures of any kind default to off_topic with zero confidence.
type IntentClassifier struct {
	provider llm.Provider
	metrics  *observability.Metrics
	tracer   observability.Tracer
}

func NewIntentClassifier(provider llm.Provider, metrics *observability.Metrics, tracer observability.Tracer) *IntentClassifier {
	if tracer == nil {
		tracer = observability.NopTracer{}
	}
	return &IntentClassifier{provider: provider, metrics: metrics, tracer: tracer}
}

func (c *IntentClassifier) Classify(ctx context.Context, msg string) (Intent, float64) {
	resp, err := c.provider.Generate(ctx, llm.Request{
		System: intentInstruction,
		Prompt: msg,
	})
	if err != nil {
		c.fail("provider error: %v", err)
		return IntentOffTopic, 0
	}

	var fields map[string]any
	if err := ParseJSON(resp.Text, &fields); err != nil {
		c.fail("unparseable reply %q: %v", resp.Text, err)
		return IntentOffTopic, 0
	}

	intent := Intent(coerceString(fields["intent"]))
	if intent == "" {
		intent = IntentOffTopic
	}
	conf := coerceFloat(fields["confidence"])

	// Confidence is recorded but does not gate routing yet.
	c.tracer.Trace("intent_classifier", "intent=%s conf=%.2f", intent, conf)
	return intent, conf
}

func (c *IntentClassifier) fail(format string, args ...any) {
	c.tracer.Trace("intent_classifier", format, args...)
	if c.metrics != nil {
		c.metrics.ClassifierFailures.WithLabelValues("intent").Inc()
	}
}
