package store

import "time"

// Status is the lifecycle state of a relay task.
type Status string

const (
	StatusPending   Status = "PENDING"
	StatusSubmitted Status = "SUBMITTED"
	StatusSuccess   Status = "SUCCESS"
	StatusFailed    Status = "FAILED"
	StatusCancelled Status = "CANCELLED"
)

// IsTerminal reports whether no further transition is allowed.
func (s Status) IsTerminal() bool {
	switch s {
	case StatusSuccess, StatusFailed, StatusCancelled:
		return true
	default:
		return false
	}
}

// CanTransitionTo reports whether the forward-only state machine permits
// moving from s to next. Transitions never go backward.
func (s Status) CanTransitionTo(next Status) bool {
	switch s {
	case StatusPending:
		return next == StatusSubmitted || next == StatusFailed || next == StatusCancelled
	case StatusSubmitted:
		return next == StatusSuccess || next == StatusFailed
	default:
		return false
	}
}

// Task is one relay request and its full lifecycle record. The orchestrator
// is the only writer; the payload fields are immutable after creation and the
// gas fields become immutable once the task leaves PENDING.
type Task struct {
	TaskID  string
	ChainID int64
	Target  string
	Data    string
	User    string

	GasLimit             uint64
	GasPrice             string
	MaxFeePerGas         string
	MaxPriorityFeePerGas string

	Status            Status
	TransactionHash   string
	BlockNumber       int64
	GasUsed           uint64
	EffectiveGasPrice string
	Error             string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// StatusUpdate describes one state transition plus the metadata recorded with
// it. Zero-valued fields are left untouched by the store.
type StatusUpdate struct {
	Status Status

	GasLimit             uint64
	GasPrice             string
	MaxFeePerGas         string
	MaxPriorityFeePerGas string

	TransactionHash   string
	BlockNumber       int64
	GasUsed           uint64
	EffectiveGasPrice string
	Error             string
}
