package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/ayaan-rulhania/thor-acquisition/pkg/types"
)

// GetDatabaseStats returns totals and 24-hour windowed counters for
// operator-facing status reporting.
func (s *Store) GetDatabaseStats(ctx context.Context) (types.DatabaseStats, error) {
	var stats types.DatabaseStats
	since := time.Now().UTC().Add(-24 * time.Hour)

	row := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM topics`)
	if err := row.Scan(&stats.TotalTopics); err != nil {
		return stats, fmt.Errorf("count topics: %w", err)
	}

	row = s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM knowledge_items`)
	if err := row.Scan(&stats.TotalKnowledgeItems); err != nil {
		return stats, fmt.Errorf("count knowledge items: %w", err)
	}

	row = s.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM topics WHERE status = 'crawled' AND updated_at >= ?
	`, since)
	if err := row.Scan(&stats.TopicsCrawledLast24h); err != nil {
		return stats, fmt.Errorf("count recent crawled topics: %w", err)
	}

	row = s.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM knowledge_items WHERE learned_at >= ?
	`, since)
	if err := row.Scan(&stats.KnowledgeAddedLast24h); err != nil {
		return stats, fmt.Errorf("count recent knowledge: %w", err)
	}

	for status, dest := range map[string]*int{
		"pending":     &stats.PendingTopics,
		"in_progress": &stats.InProgressTopics,
		"error":       &stats.ErrorTopics,
	} {
		row := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM topics WHERE status = ?`, status)
		if err := row.Scan(dest); err != nil {
			return stats, fmt.Errorf("count %s topics: %w", status, err)
		}
	}

	return stats, nil
}

func marshalTopics(topics []string) (string, error) {
	if topics == nil {
		topics = []string{}
	}
	b, err := json.Marshal(topics)
	if err != nil {
		return "", err
	}
	return string(b), nil
}
