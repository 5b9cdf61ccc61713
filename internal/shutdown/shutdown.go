// Package shutdown implements the gateway's phased graceful shutdown: an
// Initiated marker readable through CurrentPhase, a drain poll, transaction
// cleanup, pool teardown, and cache flush, each phase completing before the
// next starts. The controller refuses no requests itself, and the gateway
// does not consult the phase before admitting one. Grounded on
// SPEC_FULL.md §4.10 and the teacher's lifecycle-logging pattern in
// server/server.go/monitoring.go, restructured from a single Stop call
// into an explicit phase sequence.
package shutdown

import (
	"context"
	"os"
	"os/signal"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/praxiomlabs/mssql-mcp-server-sub000/internal/metrics"
)

// Phase is one step of the shutdown sequence, in the order it runs.
type Phase int

const (
	Initiated Phase = iota
	DrainingRequests
	CleaningTransactions
	ClosingConnections
	FlushingCaches
	Complete
)

func (p Phase) String() string {
	switch p {
	case Initiated:
		return "initiated"
	case DrainingRequests:
		return "draining_requests"
	case CleaningTransactions:
		return "cleaning_transactions"
	case ClosingConnections:
		return "closing_connections"
	case FlushingCaches:
		return "flushing_caches"
	case Complete:
		return "complete"
	default:
		return "unknown"
	}
}

const drainPollInterval = 500 * time.Millisecond

// Hooks are the component-specific actions run during each phase. All are
// optional; a nil hook is simply skipped.
type Hooks struct {
	// RunningSessionCount reports how many async sessions are still
	// running, polled during DrainingRequests.
	RunningSessionCount func() int
	// RollbackTransactions best-effort rolls back and closes every
	// active transaction, returning how many were cleaned up.
	RollbackTransactions func(ctx context.Context) int
	// ClosePool releases the connection pool.
	ClosePool func() error
	// FlushCaches runs during the FlushingCaches phase.
	FlushCaches func()
}

// Controller drives the shutdown phase sequence exactly once, whether
// triggered by a signal or an explicit Shutdown call.
type Controller struct {
	hooks Hooks

	once  sync.Once
	phase atomic.Int32

	done chan struct{}
}

func New(hooks Hooks) *Controller {
	return &Controller{hooks: hooks, done: make(chan struct{})}
}

// CurrentPhase reports the phase most recently entered, for
// internal/metrics to expose as a gauge.
func (c *Controller) CurrentPhase() Phase {
	return Phase(c.phase.Load())
}

// Done is closed once the controller reaches Complete.
func (c *Controller) Done() <-chan struct{} {
	return c.done
}

// ListenForSignals triggers Shutdown on SIGINT, SIGTERM, or SIGHUP. Returns
// a function to stop listening, for callers that want to tear down the
// signal handler independently of shutdown completing.
func (c *Controller) ListenForSignals(ctx context.Context, drainTimeout time.Duration) func() {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)

	go func() {
		select {
		case sig := <-sigCh:
			log.Info().Str("component", "shutdown").Str("signal", sig.String()).Msg("received shutdown signal")
			c.Shutdown(ctx, drainTimeout)
		case <-ctx.Done():
		}
	}()

	return func() { signal.Stop(sigCh) }
}

// Shutdown runs every phase in order, each completing before the next
// starts. Idempotent: a second call is a no-op, returning once the first
// call's sequence has completed.
func (c *Controller) Shutdown(ctx context.Context, drainTimeout time.Duration) {
	c.once.Do(func() {
		c.enter(Initiated)

		c.enter(DrainingRequests)
		c.drain(drainTimeout)

		c.enter(CleaningTransactions)
		if c.hooks.RollbackTransactions != nil {
			n := c.hooks.RollbackTransactions(ctx)
			log.Info().Str("component", "shutdown").Int("transactions_rolled_back", n).
				Msg("rolled back active transactions")
		}

		c.enter(ClosingConnections)
		if c.hooks.ClosePool != nil {
			if err := c.hooks.ClosePool(); err != nil {
				log.Warn().Str("component", "shutdown").Err(err).Msg("error closing connection pool")
			}
		}

		c.enter(FlushingCaches)
		if c.hooks.FlushCaches != nil {
			c.hooks.FlushCaches()
		}

		c.enter(Complete)
		close(c.done)
	})
	<-c.done
}

func (c *Controller) drain(drainTimeout time.Duration) {
	if c.hooks.RunningSessionCount == nil {
		return
	}

	deadline := time.Now().Add(drainTimeout)
	for {
		running := c.hooks.RunningSessionCount()
		if running == 0 {
			return
		}
		if time.Now().After(deadline) {
			log.Warn().Str("component", "shutdown").Int("still_running", running).
				Msg("drain timeout exceeded; proceeding with shutdown")
			return
		}
		time.Sleep(drainPollInterval)
	}
}

func (c *Controller) enter(p Phase) {
	c.phase.Store(int32(p))
	metrics.ShutdownPhase.Set(float64(p))
	log.Info().Str("component", "shutdown").Str("phase", p.String()).Msg("shutdown phase")
}
