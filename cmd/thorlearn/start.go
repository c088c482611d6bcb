package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/ayaan-rulhania/thor-acquisition/internal/lifecycle"
	"github.com/ayaan-rulhania/thor-acquisition/internal/ratelimit"
	"github.com/ayaan-rulhania/thor-acquisition/internal/retrieval"
	"github.com/ayaan-rulhania/thor-acquisition/internal/retrieval/adapters"
	"github.com/ayaan-rulhania/thor-acquisition/internal/scheduler"
	"github.com/ayaan-rulhania/thor-acquisition/internal/store"
	"github.com/ayaan-rulhania/thor-acquisition/internal/worker"
)

func startCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the learner and run until interrupted",
		RunE:  runStart,
	}
}

func runStart(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	st, err := store.Open(cfg.DataDir)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}

	limiter := ratelimit.New(nil)
	limiter.SetMinInterval("default", time.Duration(cfg.RateLimit.DefaultMinIntervalMs)*time.Millisecond)
	for source, ms := range cfg.RateLimit.PerSourceMs {
		limiter.SetMinInterval(source, time.Duration(ms)*time.Millisecond)
	}

	client := &http.Client{Timeout: 15 * time.Second}
	adapterList := []retrieval.Adapter{
		adapters.NewEncyclopedia(client),
		adapters.NewEngineA(client),
		adapters.NewEngineB(client),
		adapters.NewEngineC(client),
	}

	paid := adapters.NewPaid(client, os.Getenv("BRAVE_SEARCH_API_KEY"), os.Getenv("SERPAPI_API_KEY"))
	if paid.Enabled() {
		adapterList = append(adapterList, paid)
	}

	defaultInterval := time.Duration(cfg.RateLimit.DefaultMinIntervalMs) * time.Millisecond
	for _, a := range adapterList {
		limiter.SetMinInterval(string(a.Name()), defaultInterval)
	}
	for source, ms := range cfg.RateLimit.PerSourceMs {
		limiter.SetMinInterval(source, time.Duration(ms)*time.Millisecond)
	}

	retriever := retrieval.New(adapterList, limiter, log)

	sched := scheduler.New(st, scheduler.Weights{
		Dictionary: cfg.Scheduler.WeightDictionary,
		UserQuery:  cfg.Scheduler.WeightUserQuery,
		Trending:   cfg.Scheduler.WeightTrending,
		Discovered: cfg.Scheduler.WeightDiscovered,
	}, nil, log)

	pool := worker.New(worker.Config{
		Size:                 cfg.Workers,
		SearchInterval:       time.Duration(cfg.Interval) * time.Second,
		MaxConsecutiveErrors: cfg.Lifecycle.MaxConsecutiveErrors,
	}, sched, retriever, st, log)

	ctrl := lifecycle.New(lifecycle.Config{
		ShutdownTimeout:   time.Duration(cfg.Lifecycle.ShutdownTimeoutSeconds) * time.Second,
		StaleClaimTimeout: time.Duration(cfg.Lifecycle.StaleClaimMinutes) * time.Minute,
	}, st, sched, pool, log)

	dict, err := scheduler.LoadDictionary(cfg.Scheduler.DictionaryPath)
	if err != nil {
		return fmt.Errorf("load dictionary: %w", err)
	}

	if err := writePIDFile(cfg.DataDir); err != nil {
		log.Warn("failed to write pid file", "error", err.Error())
	}
	defer removePIDFile(cfg.DataDir)

	return ctrl.RunWithSignals(context.Background(), dict)
}

func pidFilePath(dataDir string) string {
	return dataDir + "/thorlearn.pid"
}

func writePIDFile(dataDir string) error {
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return err
	}
	return os.WriteFile(pidFilePath(dataDir), []byte(strconv.Itoa(os.Getpid())), 0644)
}

func removePIDFile(dataDir string) {
	os.Remove(pidFilePath(dataDir))
}

func readPIDFile(dataDir string) (int, error) {
	data, err := os.ReadFile(pidFilePath(dataDir))
	if err != nil {
		return 0, err
	}
	return strconv.Atoi(string(data))
}
