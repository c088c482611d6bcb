package main

import (
	"fmt"
	"syscall"

	"github.com/spf13/cobra"
)

func stopCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stop",
		Short: "Signal a running learner to shut down gracefully",
		RunE:  runStop,
	}
}

func runStop(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	pid, err := readPIDFile(cfg.DataDir)
	if err != nil {
		return fmt.Errorf("no running instance found (pid file unreadable): %w", err)
	}

	if err := syscall.Kill(pid, syscall.SIGTERM); err != nil {
		return fmt.Errorf("signal pid %d: %w", pid, err)
	}

	fmt.Printf("sent shutdown signal to pid %d\n", pid)
	return nil
}
