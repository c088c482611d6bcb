// Package lifecycle implements the Session and Lifecycle Controller: it
// owns the worker pool, the start/pause/resume/stop state machine, signal
// handling, and the learning-session record.
package lifecycle

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/ayaan-rulhania/thor-acquisition/internal/logging"
	"github.com/ayaan-rulhania/thor-acquisition/internal/scheduler"
	"github.com/ayaan-rulhania/thor-acquisition/internal/store"
	"github.com/ayaan-rulhania/thor-acquisition/internal/worker"
	"github.com/ayaan-rulhania/thor-acquisition/pkg/types"
)

// State is a lifecycle state: stopped -> running <-> paused -> stopped.
type State string

const (
	StateStopped State = "stopped"
	StateRunning State = "running"
	StatePaused  State = "paused"
)

// Config controls stale-claim recovery and shutdown behavior.
type Config struct {
	ShutdownTimeout      time.Duration
	StaleClaimTimeout    time.Duration
	StaleSweepInterval   time.Duration
}

// Controller is the single owner of process lifecycle for the acquisition
// core.
type Controller struct {
	cfg   Config
	store *store.Store
	pool  *worker.Pool
	sched *scheduler.Scheduler
	log   *logging.Logger

	mu        sync.Mutex
	state     State
	sessionID string

	sweepStop chan struct{}
	sweepDone chan struct{}
}

// New builds a Controller in the stopped state.
func New(cfg Config, st *store.Store, sched *scheduler.Scheduler, pool *worker.Pool, log *logging.Logger) *Controller {
	if cfg.ShutdownTimeout <= 0 {
		cfg.ShutdownTimeout = 30 * time.Second
	}
	if cfg.StaleClaimTimeout <= 0 {
		cfg.StaleClaimTimeout = 30 * time.Minute
	}
	if cfg.StaleSweepInterval <= 0 {
		cfg.StaleSweepInterval = 5 * time.Minute
	}

	return &Controller{
		cfg:   cfg,
		store: st,
		pool:  pool,
		sched: sched,
		log:   log.With("lifecycle"),
		state: StateStopped,
	}
}

// Start moves stopped -> running: recovers any session left open by a
// crash, sweeps abandoned topic claims, opens a new session, and starts the
// worker pool.
func (c *Controller) Start(ctx context.Context, dict scheduler.Dictionary) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != StateStopped {
		return fmt.Errorf("cannot start: controller is %s", c.state)
	}

	if n, err := c.store.RecoverAbortedSessions(ctx); err != nil {
		return fmt.Errorf("recover aborted sessions: %w", err)
	} else if n > 0 {
		c.log.Info("recovered aborted sessions", "count", n)
	}

	if n, err := c.store.SweepStaleClaims(ctx, c.cfg.StaleClaimTimeout); err != nil {
		return fmt.Errorf("sweep stale claims: %w", err)
	} else if n > 0 {
		c.log.Info("swept stale topic claims", "count", n)
	}

	if err := c.sched.Seed(ctx, dict); err != nil {
		return fmt.Errorf("seed dictionary: %w", err)
	}

	sessionID, err := c.store.StartLearningSession(ctx)
	if err != nil {
		return fmt.Errorf("start learning session: %w", err)
	}

	c.sessionID = sessionID
	c.pool.Start(ctx, sessionID)
	c.startSweeper(ctx)
	c.state = StateRunning

	c.log.Info("learner started", "session", sessionID)
	return nil
}

// Pause toggles a flag the workers read between tasks; in-flight tasks are
// not canceled.
func (c *Controller) Pause() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != StateRunning {
		return fmt.Errorf("cannot pause: controller is %s", c.state)
	}
	c.pool.Pause()
	c.state = StatePaused
	return nil
}

// Resume clears the pause flag.
func (c *Controller) Resume() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != StatePaused {
		return fmt.Errorf("cannot resume: controller is %s", c.state)
	}
	c.pool.Resume()
	c.state = StateRunning
	return nil
}

// Stop signals all workers to exit, waits up to the shutdown deadline,
// closes the learning session, and closes the store's write handle.
func (c *Controller) Stop(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state == StateStopped {
		return nil
	}

	c.stopSweeper()

	drained := c.pool.Stop(c.cfg.ShutdownTimeout)
	if !drained {
		c.log.Warn("shutdown deadline exceeded, some tasks may not have drained")
	}

	if err := c.store.EndLearningSession(ctx, c.sessionID, !drained); err != nil {
		c.log.Error("failed to close learning session", "error", err.Error())
	}

	if err := c.store.Close(); err != nil {
		c.log.Error("failed to close store", "error", err.Error())
	}

	c.state = StateStopped
	c.log.Info("learner stopped")
	return nil
}

// GetStats returns the combined database and session status document.
func (c *Controller) GetStats(ctx context.Context) (types.Stats, error) {
	dbStats, err := c.store.GetDatabaseStats(ctx)
	if err != nil {
		return types.Stats{}, fmt.Errorf("get database stats: %w", err)
	}

	c.mu.Lock()
	sessionID := c.sessionID
	state := c.state
	c.mu.Unlock()

	session := types.SessionStats{
		Running: state == StateRunning,
		Paused:  state == StatePaused,
	}

	if sessionID != "" {
		sess, err := c.store.GetSession(ctx, sessionID)
		if err == nil {
			session.ID = sess.ID
			session.TopicsCrawled = sess.TopicsCrawled
			session.KnowledgeAdded = sess.KnowledgeItemsAdded
			session.ErrorsEncountered = sess.ErrorsEncountered
		}
	}

	return types.Stats{Database: dbStats, Session: session}, nil
}

// RunWithSignals starts the controller and blocks until SIGINT/SIGTERM is
// received, then stops cleanly.
func (c *Controller) RunWithSignals(ctx context.Context, dict scheduler.Dictionary) error {
	if err := c.Start(ctx, dict); err != nil {
		return err
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	shutdownCtx, cancel := context.WithTimeout(context.Background(), c.cfg.ShutdownTimeout)
	defer cancel()
	return c.Stop(shutdownCtx)
}

func (c *Controller) startSweeper(ctx context.Context) {
	c.sweepStop = make(chan struct{})
	c.sweepDone = make(chan struct{})

	go func() {
		defer close(c.sweepDone)
		ticker := time.NewTicker(c.cfg.StaleSweepInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				if n, err := c.store.SweepStaleClaims(ctx, c.cfg.StaleClaimTimeout); err != nil {
					c.log.Debug("periodic stale sweep failed", "error", err.Error())
				} else if n > 0 {
					c.log.Info("periodic sweep recovered stale claims", "count", n)
				}
			case <-c.sweepStop:
				return
			}
		}
	}()
}

func (c *Controller) stopSweeper() {
	if c.sweepStop == nil {
		return
	}
	close(c.sweepStop)
	<-c.sweepDone
	c.sweepStop = nil
	c.sweepDone = nil
}
