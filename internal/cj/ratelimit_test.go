package cj

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGateEnforcesSpacing(t *testing.T) {
	t.Parallel()

	const spacing = 30 * time.Millisecond
	gate := NewGate(spacing)

	start := time.Now()
	for i := 0; i < 4; i++ {
		require.NoError(t, gate.Wait(context.Background()))
	}

	// First call passes immediately, the next three each wait a full
	// interval.
	assert.GreaterOrEqual(t, time.Since(start), 3*spacing)
}

func TestGateWaitCancelled(t *testing.T) {
	t.Parallel()

	gate := NewGate(time.Hour)
	require.NoError(t, gate.Wait(context.Background()))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	assert.Error(t, gate.Wait(ctx))
}

func TestNewGateDefaultsInterval(t *testing.T) {
	t.Parallel()

	gate := NewGate(0)
	require.NotNil(t, gate)
	assert.NoError(t, gate.Wait(context.Background()))
}
