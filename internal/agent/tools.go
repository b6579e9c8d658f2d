package agent

import (
	"context"
	"fmt"

	"github.com/vishukulkarni/tutorflow/internal/llm"
	"github.com/vishukulkarni/tutorflow/internal/quiz"
	"github.com/vishukulkarni/tutorflow/internal/search"
)

// StartQuizTool starts a quiz for the calling session.
type StartQuizTool struct {
	Engine *quiz.Engine
}

func (t *StartQuizTool) Name() string { return "start_quiz" }

func (t *StartQuizTool) Description() string {
	return `starts a multiple-choice quiz; args: {"topic": string, "difficulty": string, "num_questions": int}`
}

func (t *StartQuizTool) Call(ctx context.Context, owner string, args map[string]any) string {
	topic := argString(args, "topic")
	difficulty := argString(args, "difficulty")
	num := argInt(args, "num_questions", 5)
	return t.Engine.StartQuiz(ctx, owner, topic, difficulty, num)
}

// AnswerQuestionTool scores a quiz answer for the calling session.
type AnswerQuestionTool struct {
	Engine *quiz.Engine
}

func (t *AnswerQuestionTool) Name() string { return "answer_question" }

func (t *AnswerQuestionTool) Description() string {
	return `scores the student's quiz answer; args: {"user_answer": string}`
}

func (t *AnswerQuestionTool) Call(_ context.Context, owner string, args map[string]any) string {
	return t.Engine.AnswerQuestion(owner, argString(args, "user_answer"))
}

// WebSearchTool fetches fresh real-world snippets and teaches them in
// simple language. It is only used when the student explicitly asks
// for current information.
type WebSearchTool struct {
	Provider llm.Provider
	Searcher *search.Client
}

func (t *WebSearchTool) Name() string { return "web_search" }

func (t *WebSearchTool) Description() string {
	return `looks up current real-world information; args: {"query": string}`
}

func (t *WebSearchTool) Call(ctx context.Context, _ string, args map[string]any) string {
	query := argString(args, "query")
	snippets := t.Searcher.Snippets(ctx, query, 3)
	if t.Provider == nil {
		return snippets
	}

	resp, err := t.Provider.Generate(ctx, llm.Request{
		Prompt: fmt.Sprintf(`Using ONLY the search snippets below, teach the student about %q in simple, clear language.

Snippets:
%s`, query, snippets),
	})
	if err != nil || resp.Text == "" {
		return snippets
	}
	return resp.Text
}
