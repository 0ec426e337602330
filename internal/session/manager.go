// Package session tracks asynchronous jobs by opaque session id. Jobs start
// running immediately; callers observe progress only by polling. Sessions
// live in memory for the life of the process and are lost on restart.
package session

import (
	"context"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/ledgerflow/ledgerflow/internal/common"
)

// Status is a session's lifecycle state. There is no pending state: the job
// begins running concurrently with Start returning the session id.
type Status string

// Session statuses. A session moves from processing to exactly one terminal
// state and is immutable afterward.
const (
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
)

// Snapshot is a point-in-time view of a session handed to pollers.
type Snapshot struct {
	Result any
	ID     string
	Status Status
	Errors []string
}

type record struct {
	result any
	status Status
	errors []string
}

// Manager owns the in-memory session table and the background goroutines
// that drive jobs to a terminal state.
type Manager struct {
	sessions map[string]*record
	mu       sync.RWMutex
}

// NewManager creates an empty session manager.
func NewManager() *Manager {
	return &Manager{
		sessions: make(map[string]*record),
	}
}

// Start registers a new session and runs the job in a background goroutine.
// The job's returned value becomes the session result on success; its error
// marks the session failed. There is no cancellation beyond the context the
// caller passes in; jobs run to completion whether or not anyone polls.
func (m *Manager) Start(ctx context.Context, run func(ctx context.Context) (any, error)) string {
	id := uuid.NewString()

	m.mu.Lock()
	m.sessions[id] = &record{status: StatusProcessing}
	m.mu.Unlock()

	go func() {
		result, err := run(ctx)

		m.mu.Lock()
		defer m.mu.Unlock()

		rec := m.sessions[id]
		if err != nil {
			rec.status = StatusFailed
			rec.errors = append(rec.errors, err.Error())
			slog.Error("Session failed", "session_id", id, "error", err)
			return
		}
		rec.status = StatusCompleted
		rec.result = result
		slog.Debug("Session completed", "session_id", id)
	}()

	return id
}

// Progress returns a snapshot of the session's current state.
func (m *Manager) Progress(id string) (Snapshot, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	rec, ok := m.sessions[id]
	if !ok {
		return Snapshot{}, common.ErrSessionNotFound
	}

	return Snapshot{
		ID:     id,
		Status: rec.status,
		Result: rec.result,
		Errors: append([]string(nil), rec.errors...),
	}, nil
}
