package retrieval

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/ayaan-rulhania/thor-acquisition/internal/logging"
	"github.com/ayaan-rulhania/thor-acquisition/internal/ratelimit"
	"github.com/ayaan-rulhania/thor-acquisition/pkg/types"
)

type mockAdapter struct {
	name    types.AdapterName
	results []types.RawCandidate
	delay   time.Duration
	err     error
}

func (m *mockAdapter) Name() types.AdapterName { return m.name }

func (m *mockAdapter) Search(ctx context.Context, query string, n int) ([]types.RawCandidate, error) {
	if m.delay > 0 {
		select {
		case <-time.After(m.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if m.err != nil {
		return nil, m.err
	}
	if len(m.results) > n {
		return m.results[:n], nil
	}
	return m.results, nil
}

func fourCandidates(adapter types.AdapterName) []types.RawCandidate {
	out := make([]types.RawCandidate, 0, 4)
	for i := 0; i < 4; i++ {
		out = append(out, types.RawCandidate{
			Title:         fmt.Sprintf("%s Title %d", adapter, i),
			Content:       fmt.Sprintf("This is a sufficiently long body of content about tcp and udp from %s, item %d.", adapter, i),
			SourceAdapter: adapter,
			Confidence:    0.7,
			AdapterIndex:  i,
		})
	}
	return out
}

func TestSearchReturnsTopKWithMultipleAdaptersRepresented(t *testing.T) {
	adapters := []Adapter{
		&mockAdapter{name: types.AdapterEngineA, results: fourCandidates(types.AdapterEngineA)},
		&mockAdapter{name: types.AdapterEngineB, results: fourCandidates(types.AdapterEngineB)},
		&mockAdapter{name: types.AdapterEngineC, results: fourCandidates(types.AdapterEngineC)},
	}
	r := New(adapters, ratelimit.New(nil), logging.NewNop())

	results := r.Search(context.Background(), "difference between tcp and udp", Options{})

	require.LessOrEqual(t, len(results), comparisonK)
	require.NotEmpty(t, results)

	seenAdapters := make(map[types.AdapterName]bool)
	for _, c := range results {
		seenAdapters[c.SourceAdapter] = true
	}
	require.GreaterOrEqual(t, len(seenAdapters), 2)

	seenTitles := make(map[string]bool)
	for _, c := range results {
		require.False(t, seenTitles[c.Title], "duplicate title in results: %s", c.Title)
		seenTitles[c.Title] = true
	}
}

func TestSearchIsolatesASlowAdapter(t *testing.T) {
	adapters := []Adapter{
		&mockAdapter{name: types.AdapterEngineA, delay: time.Hour},
		&mockAdapter{name: types.AdapterEngineB, results: fourCandidates(types.AdapterEngineB)[:3]},
		&mockAdapter{name: types.AdapterEngineC, results: fourCandidates(types.AdapterEngineC)[:3]},
	}
	r := New(adapters, ratelimit.New(nil), logging.NewNop())

	ctx, cancel := context.WithTimeout(context.Background(), adapterTimeout+2*time.Second)
	defer cancel()

	start := time.Now()
	results := r.Search(ctx, "go concurrency patterns", Options{})
	elapsed := time.Since(start)

	require.Less(t, elapsed, adapterTimeout+time.Second)
	require.GreaterOrEqual(t, len(results), 3)
	require.LessOrEqual(t, len(results), 6)
}

func TestSearchDropsPromotionalCandidates(t *testing.T) {
	adapters := []Adapter{
		&mockAdapter{name: types.AdapterEngineA, results: []types.RawCandidate{
			{
				Title:         "Promo",
				Content:       "Click here to learn everything about X — subscribe now!",
				SourceAdapter: types.AdapterEngineA,
				Confidence:    0.7,
			},
		}},
	}
	r := New(adapters, ratelimit.New(nil), logging.NewNop())

	results := r.Search(context.Background(), "x", Options{})
	require.Empty(t, results)
}

func TestIsComparisonQueryDetectsKnownPhrases(t *testing.T) {
	require.True(t, isComparisonQuery("what is the difference between tcp and udp"))
	require.True(t, isComparisonQuery("python vs javascript"))
	require.False(t, isComparisonQuery("what is a goroutine"))
}

func TestExtractTopicPair(t *testing.T) {
	a, b, ok := extractTopicPair("difference between tcp and udp")
	require.True(t, ok)
	require.Equal(t, "tcp", a)
	require.Equal(t, "udp", b)
}
