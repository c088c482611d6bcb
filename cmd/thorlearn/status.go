package main

import (
	"context"
	"encoding/json"
	"fmt"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/ayaan-rulhania/thor-acquisition/internal/store"
	"github.com/ayaan-rulhania/thor-acquisition/pkg/types"
)

func statusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Print database and running-session statistics as JSON",
		RunE:  runStatus,
	}
}

func runStatus(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	st, err := store.Open(cfg.DataDir)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer st.Close()

	ctx := context.Background()
	dbStats, err := st.GetDatabaseStats(ctx)
	if err != nil {
		return fmt.Errorf("get database stats: %w", err)
	}

	report := struct {
		types.Stats
		ProcessRunning bool `json:"process_running"`
		PID            int  `json:"pid,omitempty"`
	}{
		Stats: types.Stats{Database: dbStats},
	}

	if pid, err := readPIDFile(cfg.DataDir); err == nil && processAlive(pid) {
		report.ProcessRunning = true
		report.PID = pid
	}

	out, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal status: %w", err)
	}

	fmt.Println(string(out))
	return nil
}

func processAlive(pid int) bool {
	return syscall.Kill(pid, syscall.Signal(0)) == nil
}
