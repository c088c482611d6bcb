package scheduler

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ayaan-rulhania/thor-acquisition/internal/logging"
	"github.com/ayaan-rulhania/thor-acquisition/internal/store"
	"github.com/ayaan-rulhania/thor-acquisition/pkg/types"
)

func newTestScheduler(t *testing.T) (*Scheduler, *store.Store) {
	t.Helper()
	st, err := store.Open(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	return New(st, DefaultWeights(), nil, logging.NewNop()), st
}

func TestRollBucketApproachesConfiguredWeights(t *testing.T) {
	s, _ := newTestScheduler(t)

	const n = 10000
	counts := map[types.TopicSource]int{}
	for i := 0; i < n; i++ {
		counts[s.rollBucket()]++
	}

	require.InDelta(t, 0.50, float64(counts[types.SourceDictionary])/n, 0.03)
	require.InDelta(t, 0.30, float64(counts[types.SourceUserQuery])/n, 0.03)
	require.InDelta(t, 0.15, float64(counts[types.SourceTrending])/n, 0.03)
	require.InDelta(t, 0.05, float64(counts[types.SourceDiscovered])/n, 0.03)
}

func TestSeedIsIdempotent(t *testing.T) {
	s, st := newTestScheduler(t)
	ctx := context.Background()

	dict := Dictionary{Topics: []string{"quantum computing", "python programming"}}
	require.NoError(t, s.Seed(ctx, dict))
	require.NoError(t, s.Seed(ctx, dict))

	stats, err := st.GetDatabaseStats(ctx)
	require.NoError(t, err)
	require.Equal(t, 2, stats.TotalTopics)
}

func TestNextReturnsSeededTopicsAndClaimsThem(t *testing.T) {
	s, _ := newTestScheduler(t)
	ctx := context.Background()

	require.NoError(t, s.Seed(ctx, Dictionary{Topics: []string{"quantum computing"}}))

	topic, err := s.Next(ctx)
	require.NoError(t, err)
	require.NotNil(t, topic)
	require.Equal(t, types.StatusInProgress, topic.Status)

	topic, err = s.Next(ctx)
	require.NoError(t, err)
	require.Nil(t, topic)
}

func TestGuessCategoryMatchesKeywords(t *testing.T) {
	require.Equal(t, "programming", GuessCategory("python programming basics", nil))
	require.Equal(t, "mathematics", GuessCategory("quantum mechanics", nil))
	require.Equal(t, "general", GuessCategory("a day at the beach", nil))
}
