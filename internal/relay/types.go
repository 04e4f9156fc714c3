package relay

import (
	"context"

	"github.com/pkg/errors"
	"github/chapool/gas-relay/internal/relay/store"
)

// ErrUnsupportedChain is returned for chain ids outside the configured set.
var ErrUnsupportedChain = errors.New("unsupported chain")

// SubmitRequest is one gasless relay submission. The gas fields are optional
// caller overrides as decimal wei strings; when absent the estimator decides.
type SubmitRequest struct {
	ChainID int64
	Target  string
	Data    string
	User    string

	GasLimit             uint64
	GasPrice             string
	MaxFeePerGas         string
	MaxPriorityFeePerGas string
}

// SubmitResult is the synchronous outcome of a submission. Failure past
// request validation is reported in-band, never as an error.
type SubmitResult struct {
	TaskID  string
	Success bool
	Message string
}

// Health is the per-component health snapshot. The service is healthy only
// when every component is.
type Health struct {
	Wallet       bool
	GasEstimator bool
	TaskTracker  bool
}

// Healthy reports the conjunction over all components.
func (h Health) Healthy() bool {
	return h.Wallet && h.GasEstimator && h.TaskTracker
}

// Service orchestrates the full relay lifecycle: accept, price, submit,
// monitor, settle.
type Service interface {
	SubmitTransaction(ctx context.Context, req *SubmitRequest) (*SubmitResult, error)
	GetTaskStatus(ctx context.Context, taskID string) (*store.Task, error)
	ListTasksByUser(ctx context.Context, user string, chainID int64, limit int) ([]*store.Task, error)
	CancelTask(ctx context.Context, taskID string) (bool, error)
	IsSupported(chainID int64) bool
	CheckHealth(ctx context.Context) Health
	Shutdown()
}
