package retrieval

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/ayaan-rulhania/thor-acquisition/pkg/types"
)

func TestRerankIsDeterministicForFixedInputs(t *testing.T) {
	candidates := []types.RawCandidate{
		{Title: "A", Content: "javascript is a scripting language used widely on the web.", SourceAdapter: types.AdapterEngineA},
		{Title: "B", Content: "js frameworks like react are popular for building web apps.", SourceAdapter: types.AdapterEngineB},
	}

	first := rerank("javascript frameworks", candidates)
	second := rerank("javascript frameworks", candidates)

	require.Equal(t, first, second)
}

func TestRerankAppliesRecencyBonus(t *testing.T) {
	recent := time.Now().Add(-24 * time.Hour)
	old := time.Now().Add(-400 * 24 * time.Hour)

	candidates := []types.RawCandidate{
		{Title: "Recent", Content: "go concurrency with goroutines and channels explained in depth.", PublishedAt: &recent},
		{Title: "Old", Content: "go concurrency with goroutines and channels explained in depth.", PublishedAt: &old},
	}

	scored := rerank("go concurrency", candidates)
	require.Len(t, scored, 2)

	byTitle := make(map[string]float64)
	for _, c := range scored {
		byTitle[c.Title] = c.Score
	}
	require.Greater(t, byTitle["Recent"], byTitle["Old"])
}

func TestRerankAppliesPromotionalPenalty(t *testing.T) {
	candidates := []types.RawCandidate{
		{Title: "Clean", Content: "goroutines are lightweight threads managed by the go runtime scheduler."},
		{Title: "Promo", Content: "goroutines are lightweight threads, buy now and subscribe for more."},
	}

	scored := rerank("goroutines", candidates)
	byTitle := make(map[string]float64)
	for _, c := range scored {
		byTitle[c.Title] = c.Score
	}
	require.Greater(t, byTitle["Clean"], byTitle["Promo"])
}

func TestDiversifyIncludesAtLeastTwoAdaptersForComparisonQueries(t *testing.T) {
	scored := []types.ScoredCandidate{
		{RawCandidate: types.RawCandidate{Title: "A1", SourceAdapter: types.AdapterEngineA}, Score: 0.9},
		{RawCandidate: types.RawCandidate{Title: "A2", SourceAdapter: types.AdapterEngineA}, Score: 0.85},
		{RawCandidate: types.RawCandidate{Title: "A3", SourceAdapter: types.AdapterEngineA}, Score: 0.8},
		{RawCandidate: types.RawCandidate{Title: "B1", SourceAdapter: types.AdapterEngineB}, Score: 0.7},
	}

	out := diversify(scored, 3, true)
	require.Len(t, out, 3)

	seen := make(map[types.AdapterName]int)
	for _, c := range out {
		seen[c.SourceAdapter]++
	}
	require.LessOrEqual(t, seen[types.AdapterEngineA], perSourceCap)
	require.Contains(t, seen, types.AdapterEngineB)
}
