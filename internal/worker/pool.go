// Package worker implements the Learning Worker Pool: a fixed-size set of
// workers that each repeatedly pull a topic from the scheduler, invoke the
// retriever, and persist results through the Knowledge Store.
package worker

import (
	"context"
	"math"
	"regexp"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ayaan-rulhania/thor-acquisition/internal/logging"
	"github.com/ayaan-rulhania/thor-acquisition/internal/retrieval"
	"github.com/ayaan-rulhania/thor-acquisition/internal/scheduler"
	"github.com/ayaan-rulhania/thor-acquisition/internal/store"
	"github.com/ayaan-rulhania/thor-acquisition/pkg/types"
)

const maxRelatedTopicsPerItem = 5

var relatedTopicPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)also known as ([a-z0-9][a-z0-9 #+.]{1,40})`),
	regexp.MustCompile(`(?i)related to ([a-z0-9][a-z0-9 #+.]{1,40})`),
}

// Pool runs a fixed number of independent worker loops against a shared
// Scheduler, Retriever, and Knowledge Store.
type Pool struct {
	size                 int
	searchInterval       time.Duration
	maxConsecutiveErrors int

	sched     *scheduler.Scheduler
	retriever *retrieval.Retriever
	st        *store.Store
	log       *logging.Logger

	paused    atomic.Bool
	sessionID atomic.Value // string

	stopCh chan struct{}
	wg     sync.WaitGroup
}

// Config controls Pool sizing and backoff behavior.
type Config struct {
	Size                 int
	SearchInterval       time.Duration
	MaxConsecutiveErrors int
}

// New builds a Pool. Start must be called to begin processing.
func New(cfg Config, sched *scheduler.Scheduler, retriever *retrieval.Retriever, st *store.Store, log *logging.Logger) *Pool {
	if cfg.Size < 1 {
		cfg.Size = 4
	}
	if cfg.SearchInterval <= 0 {
		cfg.SearchInterval = 5 * time.Second
	}
	if cfg.MaxConsecutiveErrors < 1 {
		cfg.MaxConsecutiveErrors = 5
	}

	return &Pool{
		size:                 cfg.Size,
		searchInterval:       cfg.SearchInterval,
		maxConsecutiveErrors: cfg.MaxConsecutiveErrors,
		sched:                sched,
		retriever:            retriever,
		st:                   st,
		log:                  log.With("worker_pool"),
		stopCh:               make(chan struct{}),
	}
}

// Start launches the fixed-size worker loop set under sessionID. Call Stop
// to drain and exit.
func (p *Pool) Start(ctx context.Context, sessionID string) {
	p.sessionID.Store(sessionID)
	for i := 0; i < p.size; i++ {
		p.wg.Add(1)
		go p.runWorker(ctx, i)
	}
}

// Pause toggles a flag the workers read between tasks. In-flight tasks are
// not canceled.
func (p *Pool) Pause() { p.paused.Store(true) }

// Resume clears the pause flag.
func (p *Pool) Resume() { p.paused.Store(false) }

// Stop signals all workers to exit and waits up to shutdownTimeout for
// in-flight tasks to drain.
func (p *Pool) Stop(shutdownTimeout time.Duration) bool {
	close(p.stopCh)

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return true
	case <-time.After(shutdownTimeout):
		return false
	}
}

func (p *Pool) session() string {
	v := p.sessionID.Load()
	if v == nil {
		return ""
	}
	return v.(string)
}

func (p *Pool) runWorker(ctx context.Context, workerID int) {
	defer p.wg.Done()
	log := p.log.With("worker")
	consecutiveErrors := 0

	for {
		select {
		case <-p.stopCh:
			return
		default:
		}

		if p.paused.Load() {
			if !p.sleepOrStop(300 * time.Millisecond) {
				return
			}
			continue
		}

		topic, err := p.sched.Next(ctx)
		if err != nil {
			consecutiveErrors++
			log.Debug("scheduler error", "worker", workerID, "error", err.Error())
			if !p.backoffOrStop(consecutiveErrors) {
				return
			}
			continue
		}
		consecutiveErrors = 0

		if topic == nil {
			if !p.sleepOrStop(p.searchInterval) {
				return
			}
			continue
		}

		p.runTask(ctx, topic)
	}
}

func (p *Pool) sleepOrStop(d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return true
	case <-p.stopCh:
		return false
	}
}

func (p *Pool) backoffOrStop(consecutiveErrors int) bool {
	if consecutiveErrors <= p.maxConsecutiveErrors {
		return p.sleepOrStop(time.Second)
	}
	exp := consecutiveErrors - p.maxConsecutiveErrors
	wait := time.Duration(math.Min(300, 60*math.Pow(2, float64(exp)))) * time.Second
	return p.sleepOrStop(wait)
}

func (p *Pool) runTask(ctx context.Context, topic *types.Topic) {
	results := p.retriever.Search(ctx, topic.Name, retrieval.Options{})

	if len(results) == 0 {
		if err := p.st.UpdateTopicStatus(ctx, topic.ID, types.StatusNoResults, 0, ""); err != nil {
			p.log.Debug("update topic status failed", "topic", topic.ID, "error", err.Error())
		}
		return
	}

	items := make([]types.KnowledgeItem, 0, len(results))
	for _, r := range results {
		items = append(items, types.KnowledgeItem{
			TopicID:       topic.ID,
			Title:         r.Title,
			Content:       r.Content,
			SourceAdapter: r.SourceAdapter,
			URL:           r.URL,
			Confidence:    r.Confidence,
			Fingerprint:   r.Fingerprint,
		})
	}

	successful, _, err := p.st.AddKnowledgeBatch(ctx, items)
	if err != nil {
		if uerr := p.st.UpdateTopicStatus(ctx, topic.ID, types.StatusError, 0, truncateError(err)); uerr != nil {
			p.log.Debug("update topic status failed", "topic", topic.ID, "error", uerr.Error())
		}
		if sessionID := p.session(); sessionID != "" {
			p.st.UpdateLearningSession(ctx, sessionID, 0, 0, 1)
		}
		return
	}

	if successful == 0 {
		if err := p.st.UpdateTopicStatus(ctx, topic.ID, types.StatusNoResults, 0, ""); err != nil {
			p.log.Debug("update topic status failed", "topic", topic.ID, "error", err.Error())
		}
		return
	}

	if err := p.st.UpdateTopicStatus(ctx, topic.ID, types.StatusCrawled, successful, ""); err != nil {
		p.log.Debug("update topic status failed", "topic", topic.ID, "error", err.Error())
	}

	if sessionID := p.session(); sessionID != "" {
		p.st.UpdateLearningSession(ctx, sessionID, 1, successful, 0)
	}

	p.extractRelatedTopics(ctx, topic.ID, items)
}

func (p *Pool) extractRelatedTopics(ctx context.Context, topicID string, items []types.KnowledgeItem) {
	related := 0
	for _, item := range items {
		if related >= maxRelatedTopicsPerItem {
			break
		}
		for _, pattern := range relatedTopicPatterns {
			for _, m := range pattern.FindAllStringSubmatch(item.Content, -1) {
				if related >= maxRelatedTopicsPerItem {
					break
				}
				name := m[1]
				if err := p.st.AddRelatedTopic(ctx, topicID, name); err != nil {
					p.log.Debug("add related topic failed", "topic", topicID, "error", err.Error())
					continue
				}
				related++
			}
		}
	}
}

func truncateError(err error) string {
	msg := err.Error()
	const maxLen = 500
	if len(msg) > maxLen {
		return msg[:maxLen]
	}
	return msg
}
