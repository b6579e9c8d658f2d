package quiz

import (
	"context"
	"fmt"
	"math/rand/v2"
	"sort"
	"strings"
	"sync"

	"github.com/vishukulkarni/tutorflow/internal/observability"
)

// State tracks one owner's quiz through its start/answer/score
// lifecycle. CurrentIndex is 1-based and points at the question
// currently awaiting an answer.
type State struct {
	Active               bool       `json:"active"`
	Topic                string     `json:"topic"`
	Difficulty           string     `json:"difficulty"`
	TotalQuestions       int        `json:"total_questions"`
	CurrentIndex         int        `json:"current_index"`
	CurrentCorrectOption string     `json:"current_correct_option"`
	Score                int        `json:"score"`
	Questions            []Question `json:"questions_list"`
}

// CompletionHook is called after the final question of a quiz is
// answered, outside the engine lock.
type CompletionHook func(owner string, final State)

// Engine runs multiple-choice quizzes. Quiz state is kept per owner id
// in an arena map, so one student starting a quiz never clobbers
// another's progress. State survives quiz completion for score
// readout; it is only replaced by the next StartQuiz.
type Engine struct {
	mu       sync.Mutex
	pool     []RawQuestion
	sessions map[string]*State

	selector   *Selector
	metrics    *observability.Metrics
	tracer     observability.Tracer
	onComplete CompletionHook
}

func NewEngine(pool []RawQuestion, selector *Selector, metrics *observability.Metrics, tracer observability.Tracer) *Engine {
	if tracer == nil {
		tracer = observability.NopTracer{}
	}
	return &Engine{
		pool:     pool,
		sessions: make(map[string]*State),
		selector: selector,
		metrics:  metrics,
		tracer:   tracer,
	}
}

// SetCompletionHook registers the callback fired when a quiz finishes.
func (e *Engine) SetCompletionHook(hook CompletionHook) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.onComplete = hook
}

// PoolSize reports how many raw questions were loaded at startup.
func (e *Engine) PoolSize() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.pool)
}

// Active reports whether owner has a quiz in progress.
func (e *Engine) Active(owner string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	st, ok := e.sessions[owner]
	return ok && st.Active
}

// ActiveAny reports whether any owner has a quiz in progress.
func (e *Engine) ActiveAny() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	for _, st := range e.sessions {
		if st.Active {
			return true
		}
	}
	return false
}

// Snapshot returns a copy of owner's quiz state.
func (e *Engine) Snapshot(owner string) State {
	e.mu.Lock()
	defer e.mu.Unlock()
	st, ok := e.sessions[owner]
	if !ok {
		return State{Difficulty: "easy"}
	}
	out := *st
	out.Questions = append([]Question(nil), st.Questions...)
	return out
}

// StartQuiz selects questions for topic and replaces owner's quiz
// state wholesale. It returns the text to show the student, which is
// either question #1 or a graceful failure message.
func (e *Engine) StartQuiz(ctx context.Context, owner, topic, difficulty string, numQuestions int) string {
	e.mu.Lock()
	pool := e.pool
	e.mu.Unlock()

	if len(pool) == 0 {
		return "Quiz data is unavailable. Please check the static question source."
	}
	if difficulty == "" {
		difficulty = "easy"
	}
	if numQuestions <= 0 {
		numQuestions = 5
	}

	subjects, topics := poolFacets(pool)
	cleanInput := strings.ToLower(strings.TrimSpace(topic))
	isSubjectOnly := subjects[cleanInput]

	candidates := pool
	if isSubjectOnly {
		candidates = make([]RawQuestion, 0, len(pool))
		for _, q := range pool {
			if strings.EqualFold(strings.TrimSpace(q.Subject), cleanInput) {
				candidates = append(candidates, q)
			}
		}
	}

	selected, err := e.selector.Rank(ctx, candidates, topic, numQuestions)
	if err != nil {
		e.tracer.Trace("quiz", "ranking fallback for %q: %v", topic, err)
		switch {
		case cleanInput != "" && !isSubjectOnly:
			var matched []RawQuestion
			for _, q := range pool {
				if strings.Contains(strings.ToLower(q.Topic), cleanInput) {
					matched = append(matched, q)
				}
			}
			if len(matched) == 0 {
				return fmt.Sprintf("I couldn't find any questions for %q. Try one of: %s.",
					strings.TrimSpace(topic), strings.Join(sortedHead(topics, 5), ", "))
			}
			selected = head(matched, numQuestions)
		case isSubjectOnly:
			selected = head(candidates, numQuestions)
		default:
			selected = sample(pool, numQuestions)
		}
	}

	normalized := make([]Question, 0, len(selected))
	for _, raw := range selected {
		if q := Normalize(raw); q.CorrectOption != "" {
			normalized = append(normalized, q)
		}
	}
	if len(normalized) == 0 {
		return fmt.Sprintf("No valid questions found for '%s'.", topic)
	}

	first := normalized[0]
	e.mu.Lock()
	e.sessions[owner] = &State{
		Active:               true,
		Topic:                topic,
		Difficulty:           difficulty,
		TotalQuestions:       len(normalized),
		CurrentIndex:         1,
		CurrentCorrectOption: first.CorrectOption,
		Score:                0,
		Questions:            normalized,
	}
	e.mu.Unlock()

	if e.metrics != nil {
		e.metrics.QuizEvents.WithLabelValues("started").Inc()
		e.metrics.ActiveQuizzes.Set(float64(e.activeCount()))
	}
	e.tracer.Trace("quiz", "owner=%s started topic=%q questions=%d", owner, topic, len(normalized))

	intro := fmt.Sprintf("Great! Let's start a %s quiz on **%s**.\nAnswer with A, B, C, or D.\n\n", difficulty, topic)
	return intro + FormatMCQ(1, first)
}

// AnswerQuestion scores owner's answer against the awaiting question.
// Invalid input re-prompts without mutating state.
func (e *Engine) AnswerQuestion(owner, userAnswer string) string {
	e.mu.Lock()
	st, ok := e.sessions[owner]
	if !ok || !st.Active {
		e.mu.Unlock()
		return "No active quiz. Ask me to start one!"
	}

	ans := strings.ToUpper(strings.TrimSpace(userAnswer))
	if len(ans) != 1 || !strings.Contains("ABCD", ans) {
		e.mu.Unlock()
		return "Please answer with a single letter: A, B, C, or D."
	}

	correct := st.CurrentCorrectOption
	var feedback string
	if ans == correct {
		st.Score++
		feedback = fmt.Sprintf("✅ Correct! Option %s was the right answer.", correct)
	} else {
		feedback = fmt.Sprintf("❌ Incorrect. The correct answer was **%s**.", correct)
	}

	if st.CurrentIndex >= st.TotalQuestions {
		st.Active = false
		final := *st
		final.Questions = append([]Question(nil), st.Questions...)
		hook := e.onComplete
		e.mu.Unlock()

		if e.metrics != nil {
			e.metrics.QuizEvents.WithLabelValues("completed").Inc()
			e.metrics.ActiveQuizzes.Set(float64(e.activeCount()))
		}
		if hook != nil {
			hook(owner, final)
		}
		return feedback + fmt.Sprintf("\n\n🎉 Quiz completed! Score: %d/%d.", final.Score, final.TotalQuestions)
	}

	st.CurrentIndex++
	next := st.Questions[st.CurrentIndex-1]
	st.CurrentCorrectOption = next.CorrectOption
	index := st.CurrentIndex
	e.mu.Unlock()

	return feedback + "\n\n" + FormatMCQ(index, next)
}

func (e *Engine) activeCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	n := 0
	for _, st := range e.sessions {
		if st.Active {
			n++
		}
	}
	return n
}

func head(qs []RawQuestion, n int) []RawQuestion {
	if n > len(qs) {
		n = len(qs)
	}
	return qs[:n]
}

func sample(qs []RawQuestion, n int) []RawQuestion {
	if n > len(qs) {
		n = len(qs)
	}
	out := make([]RawQuestion, 0, n)
	for _, i := range rand.Perm(len(qs))[:n] {
		out = append(out, qs[i])
	}
	return out
}

func sortedHead(set map[string]bool, n int) []string {
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	if n > len(keys) {
		n = len(keys)
	}
	return keys[:n]
}
