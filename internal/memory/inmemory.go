package memory

import (
	"context"
	"sync"
	"time"
)

// InMemoryStore keeps user memory in process. Used for local runs and
// tests when no database is configured.
type InMemoryStore struct {
	mu    sync.RWMutex
	users map[string]*userRecord
}

type userRecord struct {
	subject  string
	topic    string
	summary  string
	messages []Message
	attempts []QuizAttempt
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{users: make(map[string]*userRecord)}
}

func (s *InMemoryStore) record(uid string) *userRecord {
	r, ok := s.users[uid]
	if !ok {
		r = &userRecord{}
		s.users[uid] = r
	}
	return r
}

func (s *InMemoryStore) LoadUserState(_ context.Context, uid string) (UserState, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	state := UserState{ShortTermMessages: []Message{}}
	r, ok := s.users[uid]
	if !ok {
		return state, nil
	}

	state.CurrentSubject = r.subject
	state.CurrentTopic = r.topic
	state.LongTermSummary = r.summary
	state.ShortTermMessages = lastN(r.messages, LoadLimit)
	return state, nil
}

func (s *InMemoryStore) SaveState(_ context.Context, uid, subject, topic string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	r := s.record(uid)
	r.subject = subject
	r.topic = topic
	return nil
}

func (s *InMemoryStore) AppendMessage(_ context.Context, uid, role, text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	r := s.record(uid)
	r.messages = append(r.messages, Message{
		Role:      role,
		Text:      text,
		Timestamp: float64(time.Now().UnixNano()) / float64(time.Second),
	})
	return nil
}

func (s *InMemoryStore) SummarizeShortTerm(_ context.Context, uid string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.users[uid]
	if !ok {
		return FormatSummary(nil), nil
	}
	return FormatSummary(lastN(r.messages, SummaryLimit)), nil
}

func (s *InMemoryStore) UpdateLongTermSummary(_ context.Context, uid, summary string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.record(uid).summary = summary
	return nil
}

func (s *InMemoryStore) RecordQuizAttempt(_ context.Context, uid string, attempt QuizAttempt) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if attempt.TakenAt.IsZero() {
		attempt.TakenAt = time.Now().UTC()
	}
	r := s.record(uid)
	r.attempts = append(r.attempts, attempt)
	return nil
}

func (s *InMemoryStore) Close() error { return nil }

func lastN(msgs []Message, n int) []Message {
	if n <= 0 || n > len(msgs) {
		n = len(msgs)
	}
	out := make([]Message, n)
	copy(out, msgs[len(msgs)-n:])
	return out
}
