package store

import (
	"context"

	"github.com/pkg/errors"
)

var (
	// ErrTaskNotFound is returned when the task id is unknown.
	ErrTaskNotFound = errors.New("task not found")
	// ErrTaskFinalized is returned when a transition is requested from a
	// terminal state, or one the state machine does not permit.
	ErrTaskFinalized = errors.New("task is in a terminal state")
	// ErrDuplicateTask is returned when the task id already exists.
	ErrDuplicateTask = errors.New("task already exists")
)

// Store is the persistence contract for relay tasks. Implementations must be
// safe for concurrent use from multiple orchestrator replicas.
type Store interface {
	// Create persists a new task. The task must carry a unique id and an
	// initial PENDING status.
	Create(ctx context.Context, task *Task) error

	// Get returns the task by id or ErrTaskNotFound.
	Get(ctx context.Context, taskID string) (*Task, error)

	// UpdateStatus applies one forward transition. It fails with
	// ErrTaskFinalized if the current status does not permit the transition
	// and with ErrTaskNotFound for unknown ids.
	UpdateStatus(ctx context.Context, taskID string, update StatusUpdate) error

	// ListByUser returns up to limit tasks for a normalized user address,
	// newest first, optionally filtered by chain (chainID > 0).
	ListByUser(ctx context.Context, user string, chainID int64, limit int) ([]*Task, error)

	// HealthProbe reports whether the store is reachable.
	HealthProbe(ctx context.Context) bool

	// Close releases held resources.
	Close() error
}
