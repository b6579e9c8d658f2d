package classify

import (
	"context"

	"github.com/vishukulkarni/tutorflow/internal/llm"
	"github.com/vishukulkarni/tutorflow/internal/observability"
)

// Classification is the result of subject/topic classification. Empty
// strings mean the classifier could not determine the field.
type Classification struct {
	Subject    string  `json:"subject"`
	Topic      string  `json:"topic"`
	Confidence float64 `json:"confidence"`
}

const subjectInstruction = `You are a Subject Classification Agent.

Your job is to read a student's question and classify it into:
1. The school subject (e.g. Math, Science, Physics, Chemistry)
2. The topic (e.g. Algebra, Photosynthesis, Electricity)
3. A confidence score between 0 and 1.

Keep the topic broad and general, not overly specific.

You MUST output ONLY a valid JSON object of the shape
{"subject": "...", "topic": "...", "confidence": 0.0}.
Do NOT wrap the JSON in backticks.`

// SubjectClassifier maps a student message to an academic subject and
// topic. It never returns an error: any provider or parse failure
// yields the zero Classification.
type SubjectClassifier struct {
	provider llm.Provider
	metrics  *observability.Metrics
	tracer   observability.Tracer
}

func NewSubjectClassifier(provider llm.Provider, metrics *observability.Metrics, tracer observability.Tracer) *SubjectClassifier {
	if tracer == nil {
		tracer = observability.NopTracer{}
	}
	return &SubjectClassifier{provider: provider, metrics: metrics, tracer: tracer}
}

func (c *SubjectClassifier) Classify(ctx context.Context, msg string) Classification {
	resp, err := c.provider.Generate(ctx, llm.Request{
		System: subjectInstruction,
		Prompt: msg,
	})
	if err != nil {
		c.fail("provider error: %v", err)
		return Classification{}
	}

	var fields map[string]any
	if err := ParseJSON(resp.Text, &fields); err != nil {
		c.fail("unparseable reply %q: %v", resp.Text, err)
		return Classification{}
	}

	out := Classification{
		Subject:    coerceString(fields["subject"]),
		Topic:      coerceString(fields["topic"]),
		Confidence: coerceFloat(fields["confidence"]),
	}
	c.tracer.Trace("subject_classifier", "subject=%q topic=%q conf=%.2f", out.Subject, out.Topic, out.Confidence)
	return out
}

func (c *SubjectClassifier) fail(format string, args ...any) {
	c.tracer.Trace("subject_classifier", format, args...)
	if c.metrics != nil {
		c.metrics.ClassifierFailures.WithLabelValues("subject").Inc()
	}
}
