// Package retrieval implements the Multi-Engine Retriever: given a query,
// it fans out to several heterogeneous source adapters under rate limits,
// normalizes and reranks the results, and returns the top-K candidates.
package retrieval

import (
	"context"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/ayaan-rulhania/thor-acquisition/internal/logging"
	"github.com/ayaan-rulhania/thor-acquisition/internal/normalize"
	"github.com/ayaan-rulhania/thor-acquisition/internal/ratelimit"
	"github.com/ayaan-rulhania/thor-acquisition/pkg/types"
)

// Adapter is a per-source retrieval function. Implementations must be safe
// for concurrent use and must respect ctx cancellation.
type Adapter interface {
	Name() types.AdapterName
	Search(ctx context.Context, query string, n int) ([]types.RawCandidate, error)
}

const (
	defaultK       = 6
	comparisonK    = 8
	adapterTimeout = 10 * time.Second
	perSourceCap   = 2
)

var comparisonPhrases = []string{
	"relationship between", "relationship of", "connection between", "connection of",
	"difference between", "compare", "comparison between", "versus", " vs",
	"similarities between", "how does", "how do", "how are", "how is",
	"what is the relationship", "what is the connection",
}

// Retriever owns the adapter set and the shared rate limiter.
type Retriever struct {
	adapters []Adapter
	limiter  *ratelimit.Limiter
	log      *logging.Logger
}

// New builds a Retriever over the given adapters.
func New(adapters []Adapter, limiter *ratelimit.Limiter, log *logging.Logger) *Retriever {
	return &Retriever{adapters: adapters, limiter: limiter, log: log.With("retrieval")}
}

// Options controls a single Search call.
type Options struct {
	K               int  // 0 means use the default for the query shape
	ForceDiversity  bool
	ComparisonHint  bool
}

// Search fans out query to all adapters concurrently, normalizes and
// reranks the results, and returns up to K candidates. It never writes to
// the Knowledge Store; callers are responsible for persistence.
func (r *Retriever) Search(ctx context.Context, query string, opts Options) []types.ScoredCandidate {
	isComparison := opts.ComparisonHint || isComparisonQuery(query)
	k := opts.K
	if k == 0 {
		if isComparison {
			k = comparisonK
		} else {
			k = defaultK
		}
	}

	queries := []string{query}
	if isComparison {
		if a, b, ok := extractTopicPair(query); ok {
			queries = append(queries, a, b)
		}
	}

	var mu sync.Mutex
	var rawAll []types.RawCandidate

	// errgroup manages the fan-out goroutines; a failed or slow adapter
	// never aborts the group, since each adapter's goroutine logs the
	// adapter's errors and returns nil, contributing no results instead.
	var g errgroup.Group
	for _, adapter := range r.adapters {
		adapter := adapter
		n := perAdapterQuota(adapter.Name(), isComparison)

		g.Go(func() error {
			adapterCtx, cancel := context.WithTimeout(ctx, adapterTimeout)
			defer cancel()

			if r.limiter != nil {
				if err := r.limiter.Acquire(adapterCtx, string(adapter.Name())); err != nil {
					r.log.Debug("rate limiter canceled", "adapter", adapter.Name(), "error", err.Error())
					return nil
				}
			}

			var results []types.RawCandidate
			for _, q := range queries {
				out, err := adapter.Search(adapterCtx, q, n)
				if err != nil {
					r.log.Debug("adapter failed", "adapter", adapter.Name(), "query", q, "error", err.Error())
					continue
				}
				results = append(results, out...)
			}

			mu.Lock()
			rawAll = append(rawAll, results...)
			mu.Unlock()
			return nil
		})
	}
	g.Wait()

	accepted := make([]types.RawCandidate, 0, len(rawAll))
	for _, c := range rawAll {
		content := normalize.StripEncyclopediaArtifacts(normalize.StripPromotional(c.Content))
		title := normalize.StripPromotional(c.Title)
		if !normalize.Acceptable(content) {
			continue
		}
		c.Content = content
		c.Title = title
		accepted = append(accepted, c)
	}

	deduped := dedupe(accepted)
	scored := rerank(query, deduped)
	top := diversify(scored, k, isComparison || opts.ForceDiversity)

	for i := range top {
		top[i].Fingerprint = normalize.Fingerprint(top[i].Title, top[i].Content, top[i].SourceAdapter)
	}
	return top
}

func isComparisonQuery(query string) bool {
	lower := strings.ToLower(query)
	for _, phrase := range comparisonPhrases {
		if strings.Contains(lower, phrase) {
			return true
		}
	}
	return false
}

// extractTopicPair pulls "X and Y" out of a comparison query, anchored on
// the "between"/"of" keyword the way the relationship-query handling does,
// e.g. "difference between tcp and udp" -> ("tcp", "udp").
func extractTopicPair(query string) (string, string, bool) {
	words := strings.Fields(strings.ToLower(query))

	idx := -1
	for i, w := range words {
		if w == "between" || w == "of" {
			idx = i
			break
		}
	}
	if idx < 0 || idx+1 >= len(words) {
		return "", "", false
	}

	var topic1Words, topic2Words []string
	foundAnd := false
	for _, w := range words[idx+1:] {
		if w == "and" {
			foundAnd = true
			continue
		}
		if !foundAnd {
			topic1Words = append(topic1Words, w)
		} else {
			topic2Words = append(topic2Words, w)
		}
	}
	if len(topic1Words) == 0 || len(topic2Words) == 0 {
		return "", "", false
	}

	topic1 := strings.Trim(strings.Join(topic1Words, " "), ",.")
	topic2 := strings.Trim(strings.Join(topic2Words, " "), ",.")
	return topic1, topic2, true
}

func perAdapterQuota(name types.AdapterName, isComparison bool) int {
	switch name {
	case types.AdapterEncyclopedia:
		if isComparison {
			return 2
		}
		return 1
	default:
		if isComparison {
			return 6
		}
		return 4
	}
}

func dedupe(candidates []types.RawCandidate) []types.RawCandidate {
	seen := make(map[string]bool)
	out := make([]types.RawCandidate, 0, len(candidates))
	for _, c := range candidates {
		fp := normalize.Fingerprint(c.Title, c.Content, c.SourceAdapter)
		if seen[fp] {
			continue
		}
		seen[fp] = true
		out = append(out, c)
	}
	return out
}
