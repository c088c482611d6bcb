package worker

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/ayaan-rulhania/thor-acquisition/internal/logging"
	"github.com/ayaan-rulhania/thor-acquisition/internal/ratelimit"
	"github.com/ayaan-rulhania/thor-acquisition/internal/retrieval"
	"github.com/ayaan-rulhania/thor-acquisition/internal/scheduler"
	"github.com/ayaan-rulhania/thor-acquisition/internal/store"
	"github.com/ayaan-rulhania/thor-acquisition/pkg/types"
)

type oneItemAdapter struct {
	calls int
}

func (a *oneItemAdapter) Name() types.AdapterName { return types.AdapterEncyclopedia }

func (a *oneItemAdapter) Search(ctx context.Context, query string, n int) ([]types.RawCandidate, error) {
	a.calls++
	return []types.RawCandidate{{
		Title:         query,
		Content:       fmt.Sprintf("%s is a well-established field with decades of research behind it.", query),
		SourceAdapter: types.AdapterEncyclopedia,
		Confidence:    0.9,
	}}, nil
}

func TestWorkerPoolCrawlsSeededTopicsToCompletion(t *testing.T) {
	st, err := store.Open(t.TempDir())
	require.NoError(t, err)
	defer st.Close()

	log := logging.NewNop()
	sched := scheduler.New(st, scheduler.DefaultWeights(), nil, log)
	require.NoError(t, sched.Seed(context.Background(), scheduler.Dictionary{
		Topics: []string{"quantum computing", "python programming"},
	}))

	adapter := &oneItemAdapter{}
	retriever := retrieval.New([]retrieval.Adapter{adapter}, ratelimit.New(nil), log)

	pool := New(Config{Size: 1, SearchInterval: 10 * time.Millisecond}, sched, retriever, st, log)

	ctx := context.Background()
	sessionID, err := st.StartLearningSession(ctx)
	require.NoError(t, err)

	pool.Start(ctx, sessionID)
	require.Eventually(t, func() bool {
		stats, err := st.GetDatabaseStats(ctx)
		require.NoError(t, err)
		return stats.TotalKnowledgeItems >= 2
	}, 2*time.Second, 10*time.Millisecond)

	require.True(t, pool.Stop(time.Second))

	stats, err := st.GetDatabaseStats(ctx)
	require.NoError(t, err)
	require.Equal(t, 2, stats.TotalTopics)
	require.Equal(t, 2, stats.TotalKnowledgeItems)

	sess, err := st.GetSession(ctx, sessionID)
	require.NoError(t, err)
	require.Equal(t, 2, sess.TopicsCrawled)
	require.Equal(t, 2, sess.KnowledgeItemsAdded)
	require.Equal(t, 0, sess.ErrorsEncountered)
}
