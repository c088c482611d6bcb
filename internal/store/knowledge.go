package store

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/ayaan-rulhania/thor-acquisition/pkg/types"
)

// AddKnowledgeBatch upserts knowledge items, deduplicating on
// (topic_id, fingerprint). Returns how many were newly stored vs. rejected
// as duplicates.
func (s *Store) AddKnowledgeBatch(ctx context.Context, items []types.KnowledgeItem) (successful, duplicates int, err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, 0, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	for _, item := range items {
		if item.ID == "" {
			item.ID = uuid.New().String()
		}
		if item.LearnedAt.IsZero() {
			item.LearnedAt = time.Now().UTC()
		}

		res, err := tx.ExecContext(ctx, `
			INSERT INTO knowledge_items (id, topic_id, title, content, source_adapter, url, confidence, fingerprint, learned_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT (topic_id, fingerprint) DO NOTHING
		`, item.ID, item.TopicID, item.Title, item.Content, string(item.SourceAdapter),
			nullableString(item.URL), item.Confidence, item.Fingerprint, item.LearnedAt)
		if err != nil {
			return 0, 0, fmt.Errorf("insert knowledge item: %w", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return 0, 0, err
		}
		if n > 0 {
			successful++
		} else {
			duplicates++
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, 0, fmt.Errorf("commit: %w", err)
	}
	return successful, duplicates, nil
}

// ListKnowledgeByTopic returns stored knowledge items for a topic, most
// recent first. Used by the retrieval interface consumed by answer-shaping
// collaborators outside this module.
func (s *Store) ListKnowledgeByTopic(ctx context.Context, topicID string, limit int) ([]types.KnowledgeItem, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, topic_id, title, content, source_adapter, url, confidence, fingerprint, learned_at
		FROM knowledge_items
		WHERE topic_id = ?
		ORDER BY learned_at DESC
		LIMIT ?
	`, topicID, limit)
	if err != nil {
		return nil, fmt.Errorf("query knowledge items: %w", err)
	}
	defer rows.Close()

	var items []types.KnowledgeItem
	for rows.Next() {
		var item types.KnowledgeItem
		var url nullStringScan
		var adapter string
		if err := rows.Scan(&item.ID, &item.TopicID, &item.Title, &item.Content, &adapter,
			&url, &item.Confidence, &item.Fingerprint, &item.LearnedAt); err != nil {
			return nil, err
		}
		item.SourceAdapter = types.AdapterName(adapter)
		item.URL = url.value
		items = append(items, item)
	}
	return items, rows.Err()
}

type nullStringScan struct {
	value string
	valid bool
}

func (n *nullStringScan) Scan(src any) error {
	if src == nil {
		return nil
	}
	switch v := src.(type) {
	case string:
		n.value = v
		n.valid = true
	case []byte:
		n.value = string(v)
		n.valid = true
	default:
		return fmt.Errorf("unsupported scan type %T", src)
	}
	return nil
}
