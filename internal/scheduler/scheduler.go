// Package scheduler implements the Topic Scheduler: it selects the next
// topic to research under a weighted mixture of sources and records
// status transitions through the Knowledge Store.
package scheduler

import (
	"context"
	"math/rand"
	"sync"

	"github.com/ayaan-rulhania/thor-acquisition/internal/logging"
	"github.com/ayaan-rulhania/thor-acquisition/internal/store"
	"github.com/ayaan-rulhania/thor-acquisition/pkg/types"
)

// TrendingProvider supplies candidate trending topic names. It is optional;
// a nil provider simply disables the trending bucket.
type TrendingProvider interface {
	FetchTrending(ctx context.Context, limit int) ([]string, error)
}

// Weights configures the mixed-source policy's bucket probabilities.
type Weights struct {
	Dictionary float64
	UserQuery  float64
	Trending   float64
	Discovered float64
}

// DefaultWeights matches the source system's mixed-source policy.
func DefaultWeights() Weights {
	return Weights{Dictionary: 0.50, UserQuery: 0.30, Trending: 0.15, Discovered: 0.05}
}

// Scheduler selects the next topic for a worker to research.
type Scheduler struct {
	store    *store.Store
	weights  Weights
	trending TrendingProvider
	log      *logging.Logger

	mu  sync.Mutex
	rng *rand.Rand
}

// New builds a Scheduler. trending may be nil.
func New(st *store.Store, weights Weights, trending TrendingProvider, log *logging.Logger) *Scheduler {
	return &Scheduler{
		store:    st,
		weights:  weights,
		trending: trending,
		log:      log.With("scheduler"),
		rng:      rand.New(rand.NewSource(1)),
	}
}

// Seed loads the bootstrap dictionary into the store. Idempotent: repeated
// calls add no duplicate topics.
func (s *Scheduler) Seed(ctx context.Context, dict Dictionary) error {
	items := make([]store.NewTopic, 0, len(dict.Topics))
	for _, topic := range dict.Topics {
		items = append(items, store.NewTopic{
			Name:     topic,
			Category: GuessCategory(topic, dict.Categories),
			Source:   types.SourceDictionary,
			Priority: 5,
		})
	}

	added, existing, err := s.store.AddTopicsBatch(ctx, items)
	if err != nil {
		return err
	}
	s.log.Info("seeded dictionary", "added", added, "existing", existing)
	return nil
}

type bucketPick struct {
	source types.TopicSource
	weight float64
}

// Next picks a source bucket by weighted roll, optionally promotes a
// candidate topic from that bucket, then atomically claims the next
// available pending topic across all buckets. Returns (nil, nil) when
// nothing is available.
func (s *Scheduler) Next(ctx context.Context) (*types.Topic, error) {
	bucket := s.rollBucket()

	switch bucket {
	case types.SourceUserQuery:
		s.promoteFromUserQueries(ctx)
	case types.SourceTrending:
		s.promoteFromTrending(ctx)
	case types.SourceDictionary, types.SourceDiscovered:
		// Dictionary topics are seeded at startup; discovered topics are
		// created lazily by KS.AddRelatedTopic. Neither needs promotion here.
	}

	return s.store.GetNextTopic(ctx)
}

func (s *Scheduler) rollBucket() types.TopicSource {
	picks := []bucketPick{
		{types.SourceDictionary, s.weights.Dictionary},
		{types.SourceUserQuery, s.weights.UserQuery},
		{types.SourceTrending, s.weights.Trending},
		{types.SourceDiscovered, s.weights.Discovered},
	}

	total := s.weights.Dictionary + s.weights.UserQuery + s.weights.Trending + s.weights.Discovered
	if total <= 0 {
		return types.SourceDictionary
	}

	s.mu.Lock()
	roll := s.rng.Float64() * total
	s.mu.Unlock()

	var cumulative float64
	for _, p := range picks {
		cumulative += p.weight
		if roll <= cumulative {
			return p.source
		}
	}
	return types.SourceDictionary
}

func (s *Scheduler) promoteFromUserQueries(ctx context.Context) {
	names, err := s.store.GetUnansweredTopics(ctx, 10)
	if err != nil {
		s.log.Debug("get unanswered topics failed", "error", err.Error())
		return
	}
	if len(names) == 0 {
		return
	}

	name := names[s.randIndex(len(names))]
	if _, _, err := s.store.AddTopicsBatch(ctx, []store.NewTopic{
		{Name: name, Source: types.SourceUserQuery, Priority: 8},
	}); err != nil {
		s.log.Debug("promote user query topic failed", "error", err.Error())
	}
}

func (s *Scheduler) promoteFromTrending(ctx context.Context) {
	if s.trending == nil {
		return
	}
	names, err := s.trending.FetchTrending(ctx, 10)
	if err != nil {
		s.log.Debug("fetch trending failed", "error", err.Error())
		return
	}
	if len(names) == 0 {
		return
	}

	name := names[s.randIndex(len(names))]
	if _, _, err := s.store.AddTopicsBatch(ctx, []store.NewTopic{
		{Name: name, Source: types.SourceTrending, Priority: 7},
	}); err != nil {
		s.log.Debug("promote trending topic failed", "error", err.Error())
	}
}

func (s *Scheduler) randIndex(n int) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rng.Intn(n)
}
