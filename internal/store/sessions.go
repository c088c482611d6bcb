package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/ayaan-rulhania/thor-acquisition/pkg/types"
)

// RecordUserQuery appends a feedback record used by the Topic Scheduler to
// up-weight user-driven discovery.
func (s *Store) RecordUserQuery(ctx context.Context, rec types.UserQueryRecord) error {
	if rec.ID == "" {
		rec.ID = uuid.New().String()
	}
	if rec.RecordedAt.IsZero() {
		rec.RecordedAt = time.Now().UTC()
	}

	topicsJSON, err := marshalTopics(rec.ExtractedTopics)
	if err != nil {
		return fmt.Errorf("marshal extracted topics: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO user_queries (id, query_text, extracted_topics, knowledge_was_found, needs_research, recorded_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, rec.ID, rec.QueryText, topicsJSON, boolToInt(rec.KnowledgeWasFound), boolToInt(rec.NeedsResearch), rec.RecordedAt)
	if err != nil {
		return fmt.Errorf("insert user query: %w", err)
	}
	return nil
}

// StartLearningSession opens a new session record and returns its id. Any
// session left open by a prior crash should be closed as aborted first via
// RecoverAbortedSessions.
func (s *Store) StartLearningSession(ctx context.Context) (string, error) {
	id := uuid.New().String()
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO learning_sessions (id, started_at) VALUES (?, ?)
	`, id, time.Now().UTC())
	if err != nil {
		return "", fmt.Errorf("start session: %w", err)
	}
	return id, nil
}

// RecoverAbortedSessions closes any session left with ended_at = NULL,
// marking it aborted. Run once at startup before StartLearningSession.
func (s *Store) RecoverAbortedSessions(ctx context.Context) (int, error) {
	res, err := s.db.ExecContext(ctx, `
		UPDATE learning_sessions SET ended_at = ?, aborted = 1
		WHERE ended_at IS NULL
	`, time.Now().UTC())
	if err != nil {
		return 0, fmt.Errorf("recover aborted sessions: %w", err)
	}
	n, err := res.RowsAffected()
	return int(n), err
}

// UpdateLearningSession applies additive deltas to a session's counters.
// Concurrent callers compose commutatively.
func (s *Store) UpdateLearningSession(ctx context.Context, sessionID string, topicsDelta, knowledgeDelta, errorsDelta int) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE learning_sessions
		SET topics_crawled = topics_crawled + ?,
		    knowledge_items_added = knowledge_items_added + ?,
		    errors_encountered = errors_encountered + ?
		WHERE id = ?
	`, topicsDelta, knowledgeDelta, errorsDelta, sessionID)
	if err != nil {
		return fmt.Errorf("update session counters: %w", err)
	}
	return nil
}

// EndLearningSession closes a session, marking it aborted if the process is
// shutting down uncleanly.
func (s *Store) EndLearningSession(ctx context.Context, sessionID string, aborted bool) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE learning_sessions SET ended_at = ?, aborted = ? WHERE id = ?
	`, time.Now().UTC(), boolToInt(aborted), sessionID)
	if err != nil {
		return fmt.Errorf("end session: %w", err)
	}
	return nil
}

// GetSession returns the persisted counters for a session.
func (s *Store) GetSession(ctx context.Context, sessionID string) (*types.LearningSession, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, started_at, ended_at, aborted, topics_crawled, knowledge_items_added, errors_encountered
		FROM learning_sessions WHERE id = ?
	`, sessionID)

	var sess types.LearningSession
	var endedAt sql.NullTime
	var aborted int
	if err := row.Scan(&sess.ID, &sess.StartedAt, &endedAt, &aborted,
		&sess.TopicsCrawled, &sess.KnowledgeItemsAdded, &sess.ErrorsEncountered); err != nil {
		return nil, fmt.Errorf("scan session: %w", err)
	}
	if endedAt.Valid {
		sess.EndedAt = &endedAt.Time
	}
	sess.Aborted = aborted != 0
	return &sess, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
