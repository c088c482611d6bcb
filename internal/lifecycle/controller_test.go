package lifecycle

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/ayaan-rulhania/thor-acquisition/internal/logging"
	"github.com/ayaan-rulhania/thor-acquisition/internal/ratelimit"
	"github.com/ayaan-rulhania/thor-acquisition/internal/retrieval"
	"github.com/ayaan-rulhania/thor-acquisition/internal/scheduler"
	"github.com/ayaan-rulhania/thor-acquisition/internal/store"
	"github.com/ayaan-rulhania/thor-acquisition/internal/worker"
	"github.com/ayaan-rulhania/thor-acquisition/pkg/types"
)

type emptyAdapter struct{}

func (emptyAdapter) Name() types.AdapterName { return types.AdapterEngineA }
func (emptyAdapter) Search(ctx context.Context, query string, n int) ([]types.RawCandidate, error) {
	return nil, nil
}

func newTestController(t *testing.T) (*Controller, *store.Store) {
	t.Helper()
	st, err := store.Open(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	log := logging.NewNop()
	sched := scheduler.New(st, scheduler.DefaultWeights(), nil, log)
	retriever := retrieval.New([]retrieval.Adapter{emptyAdapter{}}, ratelimit.New(nil), log)
	pool := worker.New(worker.Config{Size: 1, SearchInterval: 10 * time.Millisecond}, sched, retriever, st, log)

	ctrl := New(Config{ShutdownTimeout: time.Second}, st, sched, pool, log)
	return ctrl, st
}

func TestControllerStateTransitions(t *testing.T) {
	ctrl, _ := newTestController(t)
	ctx := context.Background()
	dict := scheduler.Dictionary{Topics: []string{"topic a"}}

	require.Error(t, ctrl.Pause())
	require.NoError(t, ctrl.Start(ctx, dict))
	require.Error(t, ctrl.Start(ctx, dict))

	require.NoError(t, ctrl.Pause())
	require.Error(t, ctrl.Pause())
	require.NoError(t, ctrl.Resume())

	require.NoError(t, ctrl.Stop(ctx))
	require.NoError(t, ctrl.Stop(ctx))
}

func TestGetStatsReflectsSessionAndDatabase(t *testing.T) {
	ctrl, _ := newTestController(t)
	ctx := context.Background()

	require.NoError(t, ctrl.Start(ctx, scheduler.Dictionary{Topics: []string{"topic a", "topic b"}}))

	stats, err := ctrl.GetStats(ctx)
	require.NoError(t, err)
	require.True(t, stats.Session.Running)
	require.Equal(t, 2, stats.Database.TotalTopics)

	require.NoError(t, ctrl.Stop(ctx))
}

func TestGracefulStopLeavesNoFurtherWrites(t *testing.T) {
	ctrl, st := newTestController(t)
	ctx := context.Background()

	require.NoError(t, ctrl.Start(ctx, scheduler.Dictionary{Topics: []string{"topic a"}}))
	require.NoError(t, ctrl.Stop(ctx))

	require.Error(t, st.Health()) // store is closed after Stop
}
