package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/ayaan-rulhania/thor-acquisition/pkg/types"
)

// NewTopic is the input shape for AddTopicsBatch: callers supply name,
// category, source, and priority; id/status/timestamps are assigned here.
type NewTopic struct {
	Name     string
	Category string
	Source   types.TopicSource
	Priority int
}

// AddTopicsBatch upserts topics by (name, source), returning how many were
// newly created vs. already present. Idempotent.
func (s *Store) AddTopicsBatch(ctx context.Context, items []NewTopic) (added, existing int, err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, 0, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	now := time.Now().UTC()
	for _, item := range items {
		res, err := tx.ExecContext(ctx, `
			INSERT INTO topics (id, name, category, source, priority, status, attempts, knowledge_count, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, 'pending', 0, 0, ?, ?)
			ON CONFLICT (name, source) DO NOTHING
		`, uuid.New().String(), item.Name, nullableString(item.Category), string(item.Source), item.Priority, now, now)
		if err != nil {
			return 0, 0, fmt.Errorf("upsert topic %q: %w", item.Name, err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return 0, 0, err
		}
		if n > 0 {
			added++
		} else {
			existing++
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, 0, fmt.Errorf("commit: %w", err)
	}
	return added, existing, nil
}

// GetNextTopic atomically claims one pending topic, preferring higher
// priority then older created_at then lower id, and transitions it to
// in_progress. Returns (nil, nil) when nothing is available.
func (s *Store) GetNextTopic(ctx context.Context) (*types.Topic, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	row := tx.QueryRowContext(ctx, `
		SELECT id, name, category, source, priority, status, attempts,
		       last_error, knowledge_count, created_at, updated_at
		FROM topics
		WHERE status = 'pending'
		ORDER BY priority DESC, created_at ASC, id ASC
		LIMIT 1
	`)

	topic, err := scanTopic(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scan topic: %w", err)
	}

	now := time.Now().UTC()
	if _, err := tx.ExecContext(ctx, `
		UPDATE topics SET status = 'in_progress', attempts = attempts + 1,
		       claimed_at = ?, updated_at = ?
		WHERE id = ? AND status = 'pending'
	`, now, now, topic.ID); err != nil {
		return nil, fmt.Errorf("claim topic: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}

	topic.Status = types.StatusInProgress
	topic.Attempts++
	return topic, nil
}

// UpdateTopicStatus sets a terminal status for a topic currently in_progress,
// along with optional knowledge_count and last_error fields.
func (s *Store) UpdateTopicStatus(ctx context.Context, topicID string, status types.TopicStatus, knowledgeCountDelta int, lastError string) error {
	now := time.Now().UTC()
	res, err := s.db.ExecContext(ctx, `
		UPDATE topics SET status = ?, last_error = ?,
		       knowledge_count = knowledge_count + ?, updated_at = ?
		WHERE id = ? AND status = 'in_progress'
	`, string(status), nullableString(lastError), knowledgeCountDelta, now, topicID)
	if err != nil {
		return fmt.Errorf("update topic status: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("topic %s not in in_progress state", topicID)
	}
	return nil
}

// AddRelatedTopic idempotently records an edge and lazily promotes
// toTopicName into a pending discovered Topic if none exists yet.
func (s *Store) AddRelatedTopic(ctx context.Context, fromTopicID, toTopicName string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	now := time.Now().UTC()
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO related_topics (from_topic_id, to_topic_name, created_at)
		VALUES (?, ?, ?)
		ON CONFLICT (from_topic_id, to_topic_name) DO NOTHING
	`, fromTopicID, toTopicName, now); err != nil {
		return fmt.Errorf("insert edge: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO topics (id, name, category, source, priority, status, attempts, knowledge_count, created_at, updated_at)
		VALUES (?, ?, NULL, 'discovered', 3, 'pending', 0, 0, ?, ?)
		ON CONFLICT (name, source) DO NOTHING
	`, uuid.New().String(), toTopicName, now, now); err != nil {
		return fmt.Errorf("promote discovered topic: %w", err)
	}

	return tx.Commit()
}

// GetUnansweredTopics returns topic names pulled from recent UserQueryRecords
// where no knowledge was found and no crawled topic of that name exists yet.
func (s *Store) GetUnansweredTopics(ctx context.Context, limit int) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT DISTINCT je.value
		FROM user_queries uq, json_each(uq.extracted_topics) je
		WHERE uq.knowledge_was_found = 0 AND uq.needs_research = 1
		AND NOT EXISTS (
			SELECT 1 FROM topics t
			WHERE t.name = je.value COLLATE NOCASE AND t.status = 'crawled'
		)
		ORDER BY uq.recorded_at DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("query unanswered topics: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

// GetDiscoveredPending returns up to limit topic names that originated as
// related-topic edges and are still pending, oldest first.
func (s *Store) GetDiscoveredPending(ctx context.Context, limit int) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT name FROM topics
		WHERE source = 'discovered' AND status = 'pending'
		ORDER BY created_at ASC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("query discovered topics: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

// SweepStaleClaims flips topics left in_progress past staleAfter back to
// pending. Run at startup to recover from a crashed process, and
// periodically thereafter.
func (s *Store) SweepStaleClaims(ctx context.Context, staleAfter time.Duration) (int, error) {
	cutoff := time.Now().UTC().Add(-staleAfter)
	res, err := s.db.ExecContext(ctx, `
		UPDATE topics SET status = 'pending', claimed_at = NULL, updated_at = ?
		WHERE status = 'in_progress' AND claimed_at IS NOT NULL AND claimed_at < ?
	`, time.Now().UTC(), cutoff)
	if err != nil {
		return 0, fmt.Errorf("sweep stale claims: %w", err)
	}
	n, err := res.RowsAffected()
	return int(n), err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTopic(row rowScanner) (*types.Topic, error) {
	var t types.Topic
	var category, lastError sql.NullString
	var source, status string

	if err := row.Scan(&t.ID, &t.Name, &category, &source, &t.Priority, &status,
		&t.Attempts, &lastError, &t.KnowledgeCount, &t.CreatedAt, &t.UpdatedAt); err != nil {
		return nil, err
	}

	t.Category = category.String
	t.Source = types.TopicSource(source)
	t.Status = types.TopicStatus(status)
	t.LastError = lastError.String
	return &t, nil
}

func nullableString(s string) any {
	if s == "" {
		return nil
	}
	return s
}
