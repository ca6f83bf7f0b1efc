package store

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestAcquireSearchSlotBoundsConcurrency(t *testing.T) {
	f := newTestFacade(t)
	ctx := context.Background()

	for i := 0; i < defaultSearchPoolSize; i++ {
		require.NoError(t, f.AcquireSearchSlot(ctx))
	}

	acquired := int32(0)
	go func() {
		_ = f.AcquireSearchSlot(context.Background())
		atomic.AddInt32(&acquired, 1)
	}()

	time.Sleep(20 * time.Millisecond)
	require.Equal(t, int32(0), atomic.LoadInt32(&acquired), "slot should stay blocked while the pool is full")

	f.ReleaseSearchSlot()
	time.Sleep(20 * time.Millisecond)
	require.Equal(t, int32(1), atomic.LoadInt32(&acquired))
}

func TestAcquireSearchSlotRespectsContextCancellation(t *testing.T) {
	f := newTestFacade(t)
	for i := 0; i < defaultSearchPoolSize; i++ {
		require.NoError(t, f.AcquireSearchSlot(context.Background()))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	err := f.AcquireSearchSlot(ctx)
	require.Error(t, err)
}
