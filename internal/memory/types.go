package memory

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// Limits on how much short-term history is materialized per call.
const (
	LoadLimit    = 20
	SummaryLimit = 10
)

// Message is a single conversational turn. Immutable once appended;
// ordered by Timestamp with insertion order breaking ties.
type Message struct {
	Role      string  `json:"role"` // "user" or "assistant"
	Text      string  `json:"text"`
	Timestamp float64 `json:"ts"` // unix seconds
}

// UserState is the per-user memory snapshot handed to the router.
type UserState struct {
	CurrentSubject    string    `json:"current_subject"`
	CurrentTopic      string    `json:"current_topic"`
	LongTermSummary   string    `json:"long_term_summary"`
	ShortTermMessages []Message `json:"short_term_messages"`
}

// QuizAttempt records the outcome of a finished quiz.
type QuizAttempt struct {
	Topic      string    `json:"topic"`
	Difficulty string    `json:"difficulty"`
	Score      int       `json:"score"`
	Total      int       `json:"total"`
	TakenAt    time.Time `json:"taken_at"`
}

// Store persists per-user conversational state. Users are created
// implicitly on first write and never deleted.
type Store interface {
	// LoadUserState returns the state document plus up to LoadLimit
	// most recent messages in oldest-to-newest order.
	LoadUserState(ctx context.Context, uid string) (UserState, error)

	// SaveState upserts the academic context, leaving the long-term
	// summary untouched.
	SaveState(ctx context.Context, uid, subject, topic string) error

	// AppendMessage stores one short-term message.
	AppendMessage(ctx context.Context, uid, role, text string) error

	// SummarizeShortTerm renders the last SummaryLimit messages as a
	// plain-text recap for prompt stitching.
	SummarizeShortTerm(ctx context.Context, uid string) (string, error)

	// UpdateLongTermSummary overwrites the long-term summary field.
	UpdateLongTermSummary(ctx context.Context, uid, summary string) error

	// RecordQuizAttempt appends a finished quiz to the user's history.
	RecordQuizAttempt(ctx context.Context, uid string, attempt QuizAttempt) error

	Close() error
}

// FormatSummary renders messages as the recap text injected into
// academic-question prompts.
func FormatSummary(msgs []Message) string {
	if len(msgs) == 0 {
		return "No previous conversation found."
	}
	lines := make([]string, 0, len(msgs))
	for _, m := range msgs {
		lines = append(lines, fmt.Sprintf("%s: %s", m.Role, m.Text))
	}
	return "Summary of recent interactions:\n" + strings.Join(lines, "\n")
}
