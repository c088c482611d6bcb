package store

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/ayaan-rulhania/thor-acquisition/pkg/types"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	dir := t.TempDir()
	s, err := Open(dir)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestAddTopicsBatchIsIdempotent(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	items := []NewTopic{
		{Name: "quantum computing", Source: types.SourceDictionary, Priority: 5},
		{Name: "python programming", Source: types.SourceDictionary, Priority: 5},
	}

	added, existing, err := s.AddTopicsBatch(ctx, items)
	require.NoError(t, err)
	require.Equal(t, 2, added)
	require.Equal(t, 0, existing)

	added, existing, err = s.AddTopicsBatch(ctx, items)
	require.NoError(t, err)
	require.Equal(t, 0, added)
	require.Equal(t, 2, existing)

	stats, err := s.GetDatabaseStats(ctx)
	require.NoError(t, err)
	require.Equal(t, 2, stats.TotalTopics)
}

func TestGetNextTopicUniqueClaimUnderConcurrency(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	var items []NewTopic
	for i := 0; i < 20; i++ {
		items = append(items, NewTopic{Name: string(rune('a' + i)), Source: types.SourceDictionary, Priority: 5})
	}
	_, _, err := s.AddTopicsBatch(ctx, items)
	require.NoError(t, err)

	seen := make(map[string]bool)
	var mu sync.Mutex
	var wg sync.WaitGroup

	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			topic, err := s.GetNextTopic(ctx)
			require.NoError(t, err)
			if topic == nil {
				return
			}
			mu.Lock()
			defer mu.Unlock()
			require.False(t, seen[topic.ID], "topic claimed twice: %s", topic.ID)
			seen[topic.ID] = true
			require.Equal(t, types.StatusInProgress, topic.Status)
		}()
	}
	wg.Wait()

	require.Len(t, seen, 20)
}

func TestAddKnowledgeBatchDedupesByFingerprint(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	_, _, err := s.AddTopicsBatch(ctx, []NewTopic{{Name: "go concurrency", Source: types.SourceManual, Priority: 5}})
	require.NoError(t, err)
	topic, err := s.GetNextTopic(ctx)
	require.NoError(t, err)
	require.NotNil(t, topic)

	item := types.KnowledgeItem{
		TopicID:       topic.ID,
		Title:         "Goroutines",
		Content:       "A goroutine is a lightweight thread managed by the Go runtime.",
		SourceAdapter: types.AdapterEncyclopedia,
		Confidence:    0.9,
		Fingerprint:   "abc123",
	}

	successful, duplicates, err := s.AddKnowledgeBatch(ctx, []types.KnowledgeItem{item, item})
	require.NoError(t, err)
	require.Equal(t, 1, successful)
	require.Equal(t, 1, duplicates)
}

func TestSweepStaleClaimsRestoresAbandonedTopics(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	_, _, err := s.AddTopicsBatch(ctx, []NewTopic{{Name: "stale topic", Source: types.SourceManual, Priority: 5}})
	require.NoError(t, err)
	topic, err := s.GetNextTopic(ctx)
	require.NoError(t, err)
	require.NotNil(t, topic)

	_, err = s.db.ExecContext(ctx, `UPDATE topics SET claimed_at = ? WHERE id = ?`,
		time.Now().UTC().Add(-2*time.Hour), topic.ID)
	require.NoError(t, err)

	n, err := s.SweepStaleClaims(ctx, time.Hour)
	require.NoError(t, err)
	require.Equal(t, 1, n)

	stats, err := s.GetDatabaseStats(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, stats.PendingTopics)
}

func TestLearningSessionCountersAreAdditive(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	id, err := s.StartLearningSession(ctx)
	require.NoError(t, err)

	require.NoError(t, s.UpdateLearningSession(ctx, id, 1, 3, 0))
	require.NoError(t, s.UpdateLearningSession(ctx, id, 1, 2, 1))

	sess, err := s.GetSession(ctx, id)
	require.NoError(t, err)
	require.Equal(t, 2, sess.TopicsCrawled)
	require.Equal(t, 5, sess.KnowledgeItemsAdded)
	require.Equal(t, 1, sess.ErrorsEncountered)

	require.NoError(t, s.EndLearningSession(ctx, id, false))
	sess, err = s.GetSession(ctx, id)
	require.NoError(t, err)
	require.NotNil(t, sess.EndedAt)
	require.False(t, sess.Aborted)
}
