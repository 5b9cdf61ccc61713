package shutdown

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestShutdownRunsPhasesInOrderAndCompletes(t *testing.T) {
	var order []Phase
	var runningCalls int32

	c := New(Hooks{
		RunningSessionCount: func() int {
			atomic.AddInt32(&runningCalls, 1)
			return 0
		},
		RollbackTransactions: func(ctx context.Context) int {
			order = append(order, CleaningTransactions)
			return 2
		},
		ClosePool: func() error {
			order = append(order, ClosingConnections)
			return nil
		},
		FlushCaches: func() {
			order = append(order, FlushingCaches)
		},
	})

	c.Shutdown(context.Background(), time.Second)

	assert.Equal(t, []Phase{CleaningTransactions, ClosingConnections, FlushingCaches}, order)
	assert.Equal(t, Complete, c.CurrentPhase())

	select {
	case <-c.Done():
	default:
		t.Fatal("Done channel should be closed after Shutdown returns")
	}
}

func TestShutdownIsIdempotent(t *testing.T) {
	calls := 0
	c := New(Hooks{
		ClosePool: func() error {
			calls++
			return nil
		},
	})

	c.Shutdown(context.Background(), time.Millisecond)
	c.Shutdown(context.Background(), time.Millisecond)

	assert.Equal(t, 1, calls)
}

func TestDrainGivesUpAfterTimeout(t *testing.T) {
	c := New(Hooks{
		RunningSessionCount: func() int { return 1 },
	})

	start := time.Now()
	c.drain(50 * time.Millisecond)
	elapsed := time.Since(start)

	require.GreaterOrEqual(t, elapsed, 50*time.Millisecond)
}

func TestDrainReturnsAsSoonAsSessionsFinish(t *testing.T) {
	count := 3
	c := New(Hooks{
		RunningSessionCount: func() int {
			count--
			if count < 0 {
				count = 0
			}
			return count
		},
	})

	done := make(chan struct{})
	go func() {
		c.drain(time.Second)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("drain did not return once sessions finished")
	}
}
