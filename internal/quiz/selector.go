package quiz

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/vishukulkarni/tutorflow/internal/classify"
	"github.com/vishukulkarni/tutorflow/internal/llm"
	"github.com/vishukulkarni/tutorflow/internal/search"
)

// Selector asks the completion provider to pick the most relevant
// questions for a topic, grounded by web-search snippets. It is a
// best-effort collaborator: the engine falls back to lexical matching
// when the ranking call fails or returns nothing usable.
type Selector struct {
	provider llm.Provider
	searcher *search.Client
}

func NewSelector(provider llm.Provider, searcher *search.Client) *Selector {
	return &Selector{provider: provider, searcher: searcher}
}

// Rank returns up to n questions from candidates judged most relevant
// to topic.
func (s *Selector) Rank(ctx context.Context, candidates []RawQuestion, topic string, n int) ([]RawQuestion, error) {
	if s == nil || s.provider == nil {
		return nil, fmt.Errorf("no ranking provider configured")
	}

	searchContext := "(Search unavailable.)"
	if s.searcher != nil {
		searchContext = s.searcher.Snippets(ctx, topic, 3)
	}

	encoded, err := json.MarshalIndent(candidates, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode candidates: %w", err)
	}

	prompt := fmt.Sprintf(`You are a quiz selector agent. Your job is to select the most relevant questions.

The user wants a quiz on: %q.
Select ONLY the most relevant %d questions.

Search context:
--------------------
%s
--------------------

Questions:
--------------------
%s
--------------------

Output ONLY a JSON list of selected questions.`, topic, n, searchContext, encoded)

	resp, err := s.provider.Generate(ctx, llm.Request{Prompt: prompt})
	if err != nil {
		return nil, fmt.Errorf("ranking call: %w", err)
	}

	var selected []RawQuestion
	if err := classify.ParseJSON(resp.Text, &selected); err != nil {
		return nil, fmt.Errorf("ranking reply %q: %w", truncate(resp.Text, 80), err)
	}
	if len(selected) == 0 {
		return nil, fmt.Errorf("ranking returned no questions")
	}
	if len(selected) > n {
		selected = selected[:n]
	}
	return selected, nil
}

func truncate(s string, n int) string {
	s = strings.TrimSpace(s)
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
