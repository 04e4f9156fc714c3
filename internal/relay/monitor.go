package relay

import (
	"context"
	"time"

	"github.com/ethereum/go-ethereum/common"
	coretypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github/chapool/gas-relay/internal/relay/store"
)

// monitorTransaction polls for the receipt of a broadcast transaction until
// it settles or the attempt budget runs out. Receipt lookup errors count as
// an absent receipt; the budget is the only thing that ends the loop early.
func (s *service) monitorTransaction(ctx context.Context, taskID string, chainID int64, txHash common.Hash) {
	logger := log.With().
		Str("task_id", taskID).
		Int64("chain_id", chainID).
		Str("tx_hash", txHash.Hex()).
		Logger()

	ticker := time.NewTicker(s.cfg.MonitorInterval)
	defer ticker.Stop()

	for attempt := 1; attempt <= s.cfg.MonitorMaxAttempts; attempt++ {
		select {
		case <-ctx.Done():
			logger.Info().Msg("Confirmation monitor stopped during shutdown")
			return
		case <-ticker.C:
		}

		receipt, err := s.submitter.GetTransactionReceipt(ctx, chainID, txHash)
		if err != nil {
			logger.Debug().Int("attempt", attempt).Err(err).Msg("Receipt lookup failed")
			continue
		}
		if receipt == nil {
			continue
		}

		s.settleTask(ctx, taskID, receipt, logger)
		return
	}

	logger.Warn().Int("attempts", s.cfg.MonitorMaxAttempts).Msg("Transaction confirmation timed out")
	s.finalizeTask(ctx, taskID, store.StatusUpdate{
		Status: store.StatusFailed,
		Error:  "Transaction confirmation timeout",
	})
}

// settleTask records the mined outcome, distinguishing success from revert.
func (s *service) settleTask(ctx context.Context, taskID string, receipt *coretypes.Receipt, logger zerolog.Logger) {
	update := store.StatusUpdate{
		GasUsed: receipt.GasUsed,
	}
	if receipt.BlockNumber != nil {
		update.BlockNumber = receipt.BlockNumber.Int64()
	}
	if receipt.EffectiveGasPrice != nil {
		update.EffectiveGasPrice = receipt.EffectiveGasPrice.String()
	}

	if receipt.Status == coretypes.ReceiptStatusSuccessful {
		update.Status = store.StatusSuccess
		logger.Info().Int64("block_number", update.BlockNumber).Msg("Transaction confirmed")
	} else {
		update.Status = store.StatusFailed
		update.Error = "Transaction reverted"
		logger.Warn().Int64("block_number", update.BlockNumber).Msg("Transaction reverted")
	}

	s.finalizeTask(ctx, taskID, update)
}

func (s *service) finalizeTask(ctx context.Context, taskID string, update store.StatusUpdate) {
	if err := s.store.UpdateStatus(ctx, taskID, update); err != nil {
		log.Error().Str("task_id", taskID).Err(err).Msg("Failed to finalize task")
		return
	}
	s.metrics.TaskCompleted(string(update.Status))
}
