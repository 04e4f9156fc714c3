package submitter

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	coretypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/pkg/errors"
)

// ErrMissingGasParameters is returned when a submission carries neither a
// legacy gas price nor the fee-market pair.
var ErrMissingGasParameters = errors.New("missing gas parameters: need gasPrice or maxFeePerGas/maxPriorityFeePerGas")

// SubmitParams is one fully priced transaction to sign and broadcast. Exactly
// one of GasPrice (legacy) or MaxFeePerGas+MaxPriorityFeePerGas (fee market)
// must be set.
type SubmitParams struct {
	ChainID              int64
	Target               common.Address
	Data                 []byte
	Value                *big.Int
	GasLimit             uint64
	GasPrice             *big.Int
	MaxFeePerGas         *big.Int
	MaxPriorityFeePerGas *big.Int
}

// Service signs transactions with the relay's service key and broadcasts
// them through the provider pool.
type Service interface {
	SubmitTransaction(ctx context.Context, params *SubmitParams) (common.Hash, error)
	GetTransactionReceipt(ctx context.Context, chainID int64, txHash common.Hash) (*coretypes.Receipt, error)
	GetBalance(ctx context.Context, chainID int64) *big.Int
	SignerAddress() common.Address
	CheckHealth(ctx context.Context) bool
}
