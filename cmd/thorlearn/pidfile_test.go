package main

import (
	"os"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPIDFileRoundTrips(t *testing.T) {
	dir := t.TempDir()

	require.NoError(t, writePIDFile(dir))

	pid, err := readPIDFile(dir)
	require.NoError(t, err)
	require.Equal(t, os.Getpid(), pid)

	removePIDFile(dir)
	_, err = readPIDFile(dir)
	require.Error(t, err)
}

func TestProcessAliveReportsCurrentProcess(t *testing.T) {
	require.True(t, processAlive(os.Getpid()))
}
