// Package async runs long-lived queries on their own goroutine and tracks
// them in a session registry, so a client can poll progress or cancel a
// query that is still running. Grounded on SPEC_FULL.md §4.8 and restyled
// on the teacher's goroutine-lifecycle and panic-recovery shape in
// server/worker_pool.go, generalized from a fixed worker pool to one
// goroutine per async query with its own cancel token.
package async

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/praxiomlabs/mssql-mcp-server-sub000/internal/dberrors"
	"github.com/praxiomlabs/mssql-mcp-server-sub000/internal/executor"
	"github.com/praxiomlabs/mssql-mcp-server-sub000/internal/sqltypes"
)

// Status is an async session's lifecycle stage.
type Status int

const (
	StatusRunning Status = iota
	StatusCompleted
	StatusFailed
	StatusCancelled
)

func (s Status) String() string {
	switch s {
	case StatusRunning:
		return "running"
	case StatusCompleted:
		return "completed"
	case StatusFailed:
		return "failed"
	case StatusCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// Session is a snapshot of one async query's tracked state. Result and
// Err are only meaningful once Status is terminal; a Status of Completed
// is never observed before Result is populated (the executing goroutine
// writes Result before flipping Status).
type Session struct {
	ID         string
	Query      string
	Status     Status
	Progress   int
	StartedAt  time.Time
	FinishedAt time.Time
	Result     *sqltypes.QueryResult
	Err        error
}

type sessionEntry struct {
	mu     sync.Mutex
	info   Session
	cancel context.CancelFunc
}

// Registry tracks running and completed async query sessions, enforcing a
// cap on concurrently running queries.
type Registry struct {
	exec       *executor.Executor
	maxRunning int

	mu       sync.RWMutex
	sessions map[string]*sessionEntry
}

func New(exec *executor.Executor, maxRunning int) *Registry {
	return &Registry{
		exec:       exec,
		maxRunning: maxRunning,
		sessions:   make(map[string]*sessionEntry),
	}
}

func (r *Registry) runningCount() int {
	n := 0
	for _, e := range r.sessions {
		e.mu.Lock()
		if e.info.Status == StatusRunning {
			n++
		}
		e.mu.Unlock()
	}
	return n
}

// Execute allocates a session id, spawns a goroutine to run query, and
// returns immediately with the id. Fails with a Session error if the
// number of currently-running sessions already equals maxRunning.
func (r *Registry) Execute(ctx context.Context, query string, maxRows int, timeoutSeconds int) (string, error) {
	r.mu.Lock()
	if r.runningCount() >= r.maxRunning {
		r.mu.Unlock()
		return "", dberrors.Session(fmt.Sprintf("maximum concurrent async queries (%d) reached", r.maxRunning))
	}

	id := uuid.NewString()
	runCtx, cancel := context.WithCancel(context.Background())
	if timeoutSeconds > 0 {
		runCtx, cancel = context.WithTimeout(runCtx, time.Duration(timeoutSeconds)*time.Second)
	}

	e := &sessionEntry{
		info: Session{
			ID:        id,
			Query:     query,
			Status:    StatusRunning,
			Progress:  0,
			StartedAt: time.Now(),
		},
		cancel: cancel,
	}
	r.sessions[id] = e
	r.mu.Unlock()

	go r.run(runCtx, e, query, maxRows)

	log.Debug().Str("component", "async").Str("session_id", id).Msg("async query started")
	return id, nil
}

func (r *Registry) run(ctx context.Context, e *sessionEntry, query string, maxRows int) {
	defer func() {
		if rec := recover(); rec != nil {
			log.Error().Str("component", "async").Interface("panic", rec).Msg("async query goroutine panicked")
			e.mu.Lock()
			e.info.Status = StatusFailed
			e.info.Err = dberrors.Internal(fmt.Sprintf("async query panicked: %v", rec))
			e.info.FinishedAt = time.Now()
			e.mu.Unlock()
			r.clearCancel(e.info.ID)
		}
	}()

	e.mu.Lock()
	e.info.Progress = 0
	e.mu.Unlock()

	result, err := r.exec.ExecuteWithLimit(ctx, query, maxRows)

	e.mu.Lock()
	e.info.Progress = 50
	e.mu.Unlock()

	e.mu.Lock()
	defer e.mu.Unlock()

	if ctx.Err() == context.Canceled && e.info.Status == StatusCancelled {
		// Already transitioned by Cancel; nothing further to record.
		return
	}

	e.info.FinishedAt = time.Now()
	if err != nil {
		e.info.Status = StatusFailed
		e.info.Err = err
		log.Debug().Str("component", "async").Str("session_id", e.info.ID).Err(err).Msg("async query failed")
	} else {
		e.info.Result = &result
		e.info.Status = StatusCompleted
		e.info.Progress = 100
		log.Debug().Str("component", "async").Str("session_id", e.info.ID).Int("rows", len(result.Rows)).
			Msg("async query completed")
	}

	r.clearCancel(e.info.ID)
}

func (r *Registry) clearCancel(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if e, ok := r.sessions[id]; ok {
		e.cancel = nil
	}
}

// Get returns a snapshot of session id's state.
func (r *Registry) Get(id string) (*Session, error) {
	r.mu.RLock()
	e, ok := r.sessions[id]
	r.mu.RUnlock()
	if !ok {
		return nil, dberrors.SessionNotFound(id)
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	snapshot := e.info
	return &snapshot, nil
}

// Cancel stops a running session. Idempotent: cancelling a session that is
// not running just reports its current status rather than erroring. If a
// running session has no cancel function registered, it is still marked
// cancelled so any late status check reflects the caller's intent.
func (r *Registry) Cancel(id string) (*Session, error) {
	r.mu.RLock()
	e, ok := r.sessions[id]
	r.mu.RUnlock()
	if !ok {
		return nil, dberrors.SessionNotFound(id)
	}

	e.mu.Lock()
	if e.info.Status != StatusRunning {
		snapshot := e.info
		e.mu.Unlock()
		return &snapshot, nil
	}
	cancel := e.cancel
	e.mu.Unlock()

	if cancel != nil {
		cancel()
	}

	r.mu.Lock()
	e.mu.Lock()
	e.info.Status = StatusCancelled
	e.info.FinishedAt = time.Now()
	e.cancel = nil
	snapshot := e.info
	e.mu.Unlock()
	r.mu.Unlock()

	log.Debug().Str("component", "async").Str("session_id", id).Msg("async query cancelled")
	return &snapshot, nil
}

// List returns a snapshot of every tracked session, optionally filtered by
// status. Pass -1 to list all sessions regardless of status.
func (r *Registry) List(filter Status) []Session {
	r.mu.RLock()
	entries := make([]*sessionEntry, 0, len(r.sessions))
	for _, e := range r.sessions {
		entries = append(entries, e)
	}
	r.mu.RUnlock()

	out := make([]Session, 0, len(entries))
	for _, e := range entries {
		e.mu.Lock()
		info := e.info
		e.mu.Unlock()
		if filter == AnyStatus || info.Status == filter {
			out = append(out, info)
		}
	}
	return out
}

// AnyStatus matches every session in List regardless of status.
const AnyStatus Status = -1

// Cleanup removes terminal sessions older than maxAge, returning the
// number removed. Running sessions are never removed regardless of age.
func (r *Registry) Cleanup(maxAge time.Duration) int {
	now := time.Now()

	r.mu.Lock()
	defer r.mu.Unlock()

	removed := 0
	for id, e := range r.sessions {
		e.mu.Lock()
		terminal := e.info.Status != StatusRunning
		old := !e.info.FinishedAt.IsZero() && now.Sub(e.info.FinishedAt) > maxAge
		e.mu.Unlock()
		if terminal && old {
			delete(r.sessions, id)
			removed++
		}
	}
	return removed
}
