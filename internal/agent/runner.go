package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/vishukulkarni/tutorflow/internal/classify"
	"github.com/vishukulkarni/tutorflow/internal/llm"
	"github.com/vishukulkarni/tutorflow/internal/observability"
)

// Tool is a capability the tutor model may invoke instead of answering
// directly. Tools never fail; they degrade to a user-readable message.
type Tool interface {
	Name() string
	Description() string
	Call(ctx context.Context, owner string, args map[string]any) string
}

// Runner drives one tutoring turn: it submits a stitched instruction to
// the completion provider and, when the model asks for a tool, executes
// it. The run is returned as an ordered event sequence; callers pull
// the final text out with ExtractFinalReply.
type Runner struct {
	provider llm.Provider
	tools    map[string]Tool
	order    []string
	tracer   observability.Tracer
}

func NewRunner(provider llm.Provider, tracer observability.Tracer, tools ...Tool) *Runner {
	r := &Runner{
		provider: provider,
		tools:    make(map[string]Tool, len(tools)),
		tracer:   tracer,
	}
	if r.tracer == nil {
		r.tracer = observability.NopTracer{}
	}
	for _, t := range tools {
		r.tools[t.Name()] = t
		r.order = append(r.order, t.Name())
	}
	return r
}

// toolCall is the wire shape the model uses to request a tool.
type toolCall struct {
	Tool string         `json:"tool"`
	Args map[string]any `json:"args"`
}

// Run executes a single turn for sessionID. It never returns an error;
// a failed provider call yields an empty event sequence and the caller
// falls back to its branch-specific message.
func (r *Runner) Run(ctx context.Context, sessionID, instruction string) []Event {
	resp, err := r.provider.Generate(ctx, llm.Request{
		System: r.systemPrompt(),
		Prompt: instruction,
	})
	if err != nil {
		r.tracer.Trace("tutor_run", "session=%s provider error: %v", sessionID, err)
		return nil
	}

	text := strings.TrimSpace(resp.Text)
	if text == "" {
		return nil
	}

	var call toolCall
	if err := classify.ParseJSON(text, &call); err == nil && call.Tool != "" {
		tool, ok := r.tools[call.Tool]
		if !ok {
			r.tracer.Trace("tutor_run", "session=%s unknown tool %q", sessionID, call.Tool)
			return []Event{TextEvent(text)}
		}
		r.tracer.Trace("tutor_run", "session=%s tool=%s", sessionID, call.Tool)
		result := tool.Call(ctx, sessionID, call.Args)
		return []Event{ReplyEvent(result)}
	}

	return []Event{TextEvent(text)}
}

func (r *Runner) systemPrompt() string {
	var b strings.Builder
	b.WriteString(`You are the primary Tutor Agent for a learning platform.
Teach concepts clearly and step-by-step with a friendly, encouraging tone.
Only you speak to the student.

When the instruction directs you to call a tool, you MUST answer with a
single JSON object and nothing else:

{"tool": "<name>", "args": {...}}

Available tools:
`)
	for _, name := range r.order {
		t := r.tools[name]
		fmt.Fprintf(&b, "- %s: %s\n", t.Name(), t.Description())
	}
	b.WriteString(`
For every other instruction, reply with plain text for the student.
Never generate quiz questions or score answers yourself; the quiz tools
own all quiz state.`)
	return b.String()
}

// argString pulls a string argument out of a tool-call payload.
func argString(args map[string]any, key string) string {
	if args == nil {
		return ""
	}
	if v, ok := args[key].(string); ok {
		return strings.TrimSpace(v)
	}
	return ""
}

// argInt pulls an integer argument, tolerating JSON float decoding.
func argInt(args map[string]any, key string, fallback int) int {
	if args == nil {
		return fallback
	}
	switch v := args[key].(type) {
	case float64:
		return int(v)
	case json.Number:
		if n, err := v.Int64(); err == nil {
			return int(n)
		}
	}
	return fallback
}
