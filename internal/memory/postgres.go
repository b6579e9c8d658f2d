package memory

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStore persists user memory in PostgreSQL.
type PostgresStore struct {
	pool *pgxpool.Pool
	seq  atomic.Uint64
}

func NewPostgresStore(ctx context.Context, databaseURL string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}

	if err := initSchema(ctx, pool); err != nil {
		pool.Close()
		return nil, err
	}

	return &PostgresStore{pool: pool}, nil
}

func initSchema(ctx context.Context, pool *pgxpool.Pool) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS tutor_state (
			user_id TEXT PRIMARY KEY,
			current_subject TEXT NOT NULL DEFAULT '',
			current_topic TEXT NOT NULL DEFAULT '',
			long_term_summary TEXT NOT NULL DEFAULT '',
			last_updated TIMESTAMPTZ NOT NULL DEFAULT now()
		);`,
		`CREATE TABLE IF NOT EXISTS tutor_messages (
			id TEXT PRIMARY KEY,
			user_id TEXT NOT NULL,
			role TEXT NOT NULL,
			text TEXT NOT NULL,
			ts DOUBLE PRECISION NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_tutor_messages_user_ts ON tutor_messages (user_id, ts DESC, id DESC);`,
		`CREATE TABLE IF NOT EXISTS tutor_quiz_attempts (
			id TEXT PRIMARY KEY,
			user_id TEXT NOT NULL,
			topic TEXT NOT NULL,
			difficulty TEXT NOT NULL,
			score INTEGER NOT NULL,
			total INTEGER NOT NULL,
			taken_at TIMESTAMPTZ NOT NULL
		);`,
	}

	for _, stmt := range stmts {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("init schema failed on %q: %w", stmt, err)
		}
	}
	return nil
}

func (s *PostgresStore) LoadUserState(ctx context.Context, uid string) (UserState, error) {
	state := UserState{ShortTermMessages: []Message{}}

	err := s.pool.QueryRow(ctx,
		`SELECT current_subject, current_topic, long_term_summary
		 FROM tutor_state WHERE user_id=$1`, uid,
	).Scan(&state.CurrentSubject, &state.CurrentTopic, &state.LongTermSummary)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return state, fmt.Errorf("load state: %w", err)
	}

	msgs, err := s.recentMessages(ctx, uid, LoadLimit)
	if err != nil {
		return state, err
	}
	state.ShortTermMessages = msgs
	return state, nil
}

func (s *PostgresStore) recentMessages(ctx context.Context, uid string, limit int) ([]Message, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT role, text, ts FROM tutor_messages
		 WHERE user_id=$1 ORDER BY ts DESC, id DESC LIMIT $2`,
		uid, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query messages: %w", err)
	}
	defer rows.Close()

	msgs := make([]Message, 0, limit)
	for rows.Next() {
		var m Message
		if err := rows.Scan(&m.Role, &m.Text, &m.Timestamp); err != nil {
			return nil, fmt.Errorf("scan message row: %w", err)
		}
		msgs = append(msgs, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate message rows: %w", err)
	}

	// Reverse into chronological order for prompt coherence.
	for i, j := 0, len(msgs)-1; i < j; i, j = i+1, j-1 {
		msgs[i], msgs[j] = msgs[j], msgs[i]
	}
	return msgs, nil
}

func (s *PostgresStore) SaveState(ctx context.Context, uid, subject, topic string) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO tutor_state (user_id, current_subject, current_topic, last_updated)
		 VALUES ($1, $2, $3, now())
		 ON CONFLICT (user_id) DO UPDATE SET
			current_subject=EXCLUDED.current_subject,
			current_topic=EXCLUDED.current_topic,
			last_updated=now()`,
		uid, subject, topic,
	)
	if err != nil {
		return fmt.Errorf("save state: %w", err)
	}
	return nil
}

func (s *PostgresStore) AppendMessage(ctx context.Context, uid, role, text string) error {
	now := time.Now()
	// Millisecond-prefixed ids keep insertion order even when two
	// messages land in the same millisecond.
	id := fmt.Sprintf("msg_%013d_%06d", now.UnixMilli(), s.seq.Add(1)%1000000)

	_, err := s.pool.Exec(ctx,
		`INSERT INTO tutor_messages (id, user_id, role, text, ts)
		 VALUES ($1, $2, $3, $4, $5)`,
		id, uid, role, text, float64(now.UnixNano())/float64(time.Second),
	)
	if err != nil {
		return fmt.Errorf("append message: %w", err)
	}
	return nil
}

func (s *PostgresStore) SummarizeShortTerm(ctx context.Context, uid string) (string, error) {
	msgs, err := s.recentMessages(ctx, uid, SummaryLimit)
	if err != nil {
		return "", err
	}
	return FormatSummary(msgs), nil
}

func (s *PostgresStore) UpdateLongTermSummary(ctx context.Context, uid, summary string) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO tutor_state (user_id, long_term_summary, last_updated)
		 VALUES ($1, $2, now())
		 ON CONFLICT (user_id) DO UPDATE SET
			long_term_summary=EXCLUDED.long_term_summary,
			last_updated=now()`,
		uid, summary,
	)
	if err != nil {
		return fmt.Errorf("update long term summary: %w", err)
	}
	return nil
}

func (s *PostgresStore) RecordQuizAttempt(ctx context.Context, uid string, attempt QuizAttempt) error {
	if attempt.TakenAt.IsZero() {
		attempt.TakenAt = time.Now().UTC()
	}
	_, err := s.pool.Exec(ctx,
		`INSERT INTO tutor_quiz_attempts (id, user_id, topic, difficulty, score, total, taken_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		uuid.NewString(), uid, attempt.Topic, attempt.Difficulty, attempt.Score, attempt.Total, attempt.TakenAt,
	)
	if err != nil {
		return fmt.Errorf("record quiz attempt: %w", err)
	}
	return nil
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}
