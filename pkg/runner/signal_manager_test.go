//go:build unix

package runner

import (
	"context"
	"os"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSignalManager_Interrupt(t *testing.T) {
	sm := NewSignalManager(context.Background(), syscall.SIGUSR1)
	defer sm.Stop()

	assert.False(t, sm.Interrupted())
	require.NoError(t, syscall.Kill(os.Getpid(), syscall.SIGUSR1))

	assert.True(t, sm.AwaitInterrupt(time.Second))
	assert.True(t, sm.Interrupted())
}

func TestSignalManager_ParentIsNotAnInterrupt(t *testing.T) {
	parent, cancel := context.WithCancel(context.Background())
	sm := NewSignalManager(parent)
	defer sm.Stop()

	cancel()
	assert.ErrorIs(t, sm.Context().Err(), context.Canceled)
	assert.False(t, sm.Interrupted())
}

func TestSignalManager_AwaitTimesOut(t *testing.T) {
	sm := NewSignalManager(context.Background())
	defer sm.Stop()

	start := time.Now()
	assert.False(t, sm.AwaitInterrupt(20*time.Millisecond))
	assert.GreaterOrEqual(t, time.Since(start), 20*time.Millisecond)
}
