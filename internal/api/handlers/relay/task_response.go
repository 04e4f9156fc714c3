package relay

import (
	"github.com/go-openapi/strfmt"
	"github.com/go-openapi/swag"
	"github/chapool/gas-relay/internal/relay/store"
	"github/chapool/gas-relay/internal/types"
)

// taskStatusResponse converts a task record into its public representation.
func taskStatusResponse(task *store.Task) *types.TaskStatusResponse {
	taskID := strfmt.UUID(task.TaskID)
	createdAt := strfmt.DateTime(task.CreatedAt)
	updatedAt := strfmt.DateTime(task.UpdatedAt)

	return &types.TaskStatusResponse{
		TaskID:            &taskID,
		ChainID:           swag.Int64(task.ChainID),
		Status:            swag.String(string(task.Status)),
		TransactionHash:   task.TransactionHash,
		BlockNumber:       task.BlockNumber,
		GasUsed:           int64(task.GasUsed),
		EffectiveGasPrice: task.EffectiveGasPrice,
		Error:             task.Error,
		CreatedAt:         &createdAt,
		UpdatedAt:         &updatedAt,
	}
}
