package relay

import (
	"context"
	"math/big"
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"github/chapool/gas-relay/internal/config"
	"github/chapool/gas-relay/internal/metrics"
	"github/chapool/gas-relay/internal/relay/gas"
	"github/chapool/gas-relay/internal/relay/store"
	"github/chapool/gas-relay/internal/relay/submitter"
)

type service struct {
	cfg       config.Relay
	store     store.Store
	gas       gas.Service
	submitter submitter.Service
	metrics   *metrics.Metrics

	supported map[int64]bool

	monitorCtx    context.Context
	monitorCancel context.CancelFunc
	monitors      sync.WaitGroup
}

// NewService creates the relay orchestrator.
//
//nolint:ireturn // Returning interface is intentional for dependency injection
func NewService(cfg config.Relay, taskStore store.Store, gasService gas.Service, submitService submitter.Service, m *metrics.Metrics) Service {
	supported := make(map[int64]bool, len(cfg.SupportedChainIDs))
	for _, chainID := range cfg.SupportedChainIDs {
		supported[chainID] = true
	}

	monitorCtx, monitorCancel := context.WithCancel(context.Background())

	return &service{
		cfg:           cfg,
		store:         taskStore,
		gas:           gasService,
		submitter:     submitService,
		metrics:       m,
		supported:     supported,
		monitorCtx:    monitorCtx,
		monitorCancel: monitorCancel,
	}
}

// IsSupported reports whether the chain is in the configured set.
func (s *service) IsSupported(chainID int64) bool {
	return s.supported[chainID]
}

// SubmitTransaction accepts a relay request, prices it, broadcasts it and
// starts the confirmation monitor. Any failure after the task record exists
// marks the task FAILED and is reported in-band, so the task id always refers
// to a consistent record.
func (s *service) SubmitTransaction(ctx context.Context, req *SubmitRequest) (*SubmitResult, error) {
	if !s.IsSupported(req.ChainID) {
		return nil, errors.Wrapf(ErrUnsupportedChain, "chain %d", req.ChainID)
	}

	task := &store.Task{
		TaskID:  uuid.New().String(),
		ChainID: req.ChainID,
		Target:  req.Target,
		Data:    req.Data,
		User:    strings.ToLower(req.User),
		Status:  store.StatusPending,
	}
	if err := s.store.Create(ctx, task); err != nil {
		return nil, errors.Wrap(err, "failed to create task")
	}

	log.Info().
		Str("task_id", task.TaskID).
		Int64("chain_id", task.ChainID).
		Str("target", task.Target).
		Msg("Created relay task")

	params, err := s.resolveGasParams(ctx, req)
	if err != nil {
		return s.failTask(ctx, task.TaskID, err), nil
	}

	txHash, err := s.submitter.SubmitTransaction(ctx, params)
	if err != nil {
		return s.failTask(ctx, task.TaskID, err), nil
	}

	update := store.StatusUpdate{
		Status:          store.StatusSubmitted,
		GasLimit:        params.GasLimit,
		TransactionHash: txHash.Hex(),
	}
	if params.GasPrice != nil {
		update.GasPrice = params.GasPrice.String()
	}
	if params.MaxFeePerGas != nil {
		update.MaxFeePerGas = params.MaxFeePerGas.String()
	}
	if params.MaxPriorityFeePerGas != nil {
		update.MaxPriorityFeePerGas = params.MaxPriorityFeePerGas.String()
	}
	if err := s.store.UpdateStatus(ctx, task.TaskID, update); err != nil {
		// Cancel raced the broadcast. The transaction is on its way, the
		// record keeps its terminal state.
		log.Warn().Str("task_id", task.TaskID).Err(err).Msg("Failed to mark task submitted")
		return &SubmitResult{TaskID: task.TaskID, Success: false, Message: err.Error()}, nil
	}

	s.metrics.TaskSubmitted()

	s.monitors.Add(1)
	go func() {
		defer s.monitors.Done()
		s.monitorTransaction(s.monitorCtx, task.TaskID, req.ChainID, txHash)
	}()

	return &SubmitResult{
		TaskID:  task.TaskID,
		Success: true,
		Message: "Transaction submitted",
	}, nil
}

// resolveGasParams turns the request into fully priced submission parameters,
// preferring caller overrides over the estimator.
func (s *service) resolveGasParams(ctx context.Context, req *SubmitRequest) (*submitter.SubmitParams, error) {
	target := common.HexToAddress(req.Target)
	data := common.FromHex(req.Data)

	gasPrice, err := parseWei(req.GasPrice)
	if err != nil {
		return nil, errors.Wrap(err, "invalid gasPrice")
	}
	maxFee, err := parseWei(req.MaxFeePerGas)
	if err != nil {
		return nil, errors.Wrap(err, "invalid maxFeePerGas")
	}
	maxPriority, err := parseWei(req.MaxPriorityFeePerGas)
	if err != nil {
		return nil, errors.Wrap(err, "invalid maxPriorityFeePerGas")
	}
	if (maxFee == nil) != (maxPriority == nil) {
		return nil, errors.New("maxFeePerGas and maxPriorityFeePerGas must be set together")
	}

	gasLimit := req.GasLimit
	if gasLimit == 0 || (gasPrice == nil && maxFee == nil) {
		estimate, err := s.gas.EstimateGas(ctx, &gas.EstimateRequest{
			ChainID: req.ChainID,
			From:    s.submitter.SignerAddress(),
			To:      target,
			Data:    data,
		})
		if err != nil {
			return nil, errors.Wrap(err, "failed to estimate gas")
		}

		if gasLimit == 0 {
			gasLimit = estimate.GasLimit
		}
		if gasPrice == nil && maxFee == nil {
			if estimate.MaxFeePerGas != nil {
				maxFee = estimate.MaxFeePerGas
				maxPriority = estimate.MaxPriorityFeePerGas
			} else {
				gasPrice = estimate.GasPrice
			}
		}
	}

	if !s.gas.ValidateGasParams(req.ChainID, gasLimit, gasPrice, maxFee) {
		return nil, errors.New("gas parameters exceed configured limits")
	}

	return &submitter.SubmitParams{
		ChainID:              req.ChainID,
		Target:               target,
		Data:                 data,
		GasLimit:             gasLimit,
		GasPrice:             gasPrice,
		MaxFeePerGas:         maxFee,
		MaxPriorityFeePerGas: maxPriority,
	}, nil
}

// failTask settles a task as FAILED and reports the failure in-band.
func (s *service) failTask(ctx context.Context, taskID string, cause error) *SubmitResult {
	log.Warn().Str("task_id", taskID).Err(cause).Msg("Relay submission failed")

	update := store.StatusUpdate{Status: store.StatusFailed, Error: cause.Error()}
	if err := s.store.UpdateStatus(ctx, taskID, update); err != nil {
		log.Error().Str("task_id", taskID).Err(err).Msg("Failed to mark task failed")
	} else {
		s.metrics.TaskCompleted(string(store.StatusFailed))
	}

	return &SubmitResult{TaskID: taskID, Success: false, Message: cause.Error()}
}

// GetTaskStatus returns the task record by id.
func (s *service) GetTaskStatus(ctx context.Context, taskID string) (*store.Task, error) {
	return s.store.Get(ctx, taskID)
}

// ListTasksByUser returns the newest tasks for a user address, optionally
// filtered by chain.
func (s *service) ListTasksByUser(ctx context.Context, user string, chainID int64, limit int) ([]*store.Task, error) {
	return s.store.ListByUser(ctx, strings.ToLower(user), chainID, limit)
}

// CancelTask cancels a task that has not been broadcast yet. It returns false
// without error when the task is already past PENDING; the check and the
// transition are collapsed by the store's guarded update, so a racing
// broadcast cannot be cancelled.
func (s *service) CancelTask(ctx context.Context, taskID string) (bool, error) {
	task, err := s.store.Get(ctx, taskID)
	if err != nil {
		return false, err
	}
	if task.Status != store.StatusPending {
		return false, nil
	}

	err = s.store.UpdateStatus(ctx, taskID, store.StatusUpdate{Status: store.StatusCancelled})
	if errors.Is(err, store.ErrTaskFinalized) {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	s.metrics.TaskCompleted(string(store.StatusCancelled))
	log.Info().Str("task_id", taskID).Msg("Cancelled relay task")
	return true, nil
}

// CheckHealth probes every component.
func (s *service) CheckHealth(ctx context.Context) Health {
	return Health{
		Wallet:       s.submitter.CheckHealth(ctx),
		GasEstimator: s.gas.CheckHealth(ctx),
		TaskTracker:  s.store.HealthProbe(ctx),
	}
}

// Shutdown stops all confirmation monitors and waits for them to exit.
// Tasks left SUBMITTED are picked up by operators or a restarted replica.
func (s *service) Shutdown() {
	s.monitorCancel()
	s.monitors.Wait()
}

func parseWei(raw string) (*big.Int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}

	value, ok := new(big.Int).SetString(raw, 10)
	if !ok {
		return nil, errors.Errorf("not a decimal wei value: %q", raw)
	}
	return value, nil
}
