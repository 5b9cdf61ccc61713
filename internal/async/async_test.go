package async

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCleanupLeavesRunningSessionsAlone(t *testing.T) {
	r := &Registry{maxRunning: 1, sessions: make(map[string]*sessionEntry)}
	r.sessions["running"] = &sessionEntry{info: Session{ID: "running", Status: StatusRunning}}
	removed := r.Cleanup(0)
	assert.Equal(t, 0, removed)
	assert.True(t, r.Has("running"))
}

func TestCleanupRemovesOldTerminalSessions(t *testing.T) {
	r := &Registry{maxRunning: 1, sessions: make(map[string]*sessionEntry)}
	r.sessions["done"] = &sessionEntry{info: Session{
		ID: "done", Status: StatusCompleted, FinishedAt: time.Now().Add(-time.Hour),
	}}
	removed := r.Cleanup(time.Minute)
	assert.Equal(t, 1, removed)
	assert.False(t, r.Has("done"))
}

func TestCancelOnAlreadyTerminalSessionIsIdempotent(t *testing.T) {
	r := &Registry{maxRunning: 1, sessions: make(map[string]*sessionEntry)}
	r.sessions["done"] = &sessionEntry{info: Session{ID: "done", Status: StatusCompleted}}

	snapshot, err := r.Cancel("done")
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, snapshot.Status)
}

func TestCancelUnknownSessionErrors(t *testing.T) {
	r := &Registry{maxRunning: 1, sessions: make(map[string]*sessionEntry)}
	_, err := r.Cancel("missing")
	assert.Error(t, err)
}

func TestCancelRunningSessionTransitionsAndInvokesCancelFunc(t *testing.T) {
	called := false
	r := &Registry{maxRunning: 1, sessions: make(map[string]*sessionEntry)}
	r.sessions["running"] = &sessionEntry{
		info:   Session{ID: "running", Status: StatusRunning},
		cancel: func() { called = true },
	}

	snapshot, err := r.Cancel("running")
	require.NoError(t, err)
	assert.Equal(t, StatusCancelled, snapshot.Status)
	assert.True(t, called)
}

func TestListFiltersByStatus(t *testing.T) {
	r := &Registry{maxRunning: 2, sessions: make(map[string]*sessionEntry)}
	r.sessions["a"] = &sessionEntry{info: Session{ID: "a", Status: StatusRunning}}
	r.sessions["b"] = &sessionEntry{info: Session{ID: "b", Status: StatusCompleted}}

	assert.Len(t, r.List(AnyStatus), 2)
	assert.Len(t, r.List(StatusRunning), 1)
	assert.Len(t, r.List(StatusCompleted), 1)
}

func TestExecuteRejectsWhenAtMaxRunning(t *testing.T) {
	r := &Registry{maxRunning: 1, sessions: make(map[string]*sessionEntry)}
	r.sessions["a"] = &sessionEntry{info: Session{ID: "a", Status: StatusRunning}}

	_, err := r.Execute(context.Background(), "SELECT 1", 10, 0)
	assert.Error(t, err)
}

// Has is a small test-only helper mirroring the other managers' Has method.
func (r *Registry) Has(id string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.sessions[id]
	return ok
}
