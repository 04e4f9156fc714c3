package gas

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// EstimateRequest describes the call to be priced.
type EstimateRequest struct {
	ChainID int64
	From    common.Address
	To      common.Address
	Data    []byte
	Value   *big.Int
}

// Estimate is the full gas parameter set for one transaction. The fee-market
// fields are nil on legacy-only chains.
type Estimate struct {
	GasLimit             uint64
	GasPrice             *big.Int
	MaxFeePerGas         *big.Int
	MaxPriorityFeePerGas *big.Int
	EstimatedCost        *big.Int
}

// Prices are the three gas price tiers in wei.
type Prices struct {
	Slow     *big.Int
	Standard *big.Int
	Fast     *big.Int
}

// Service produces gas parameters sufficient to reliably include a
// transaction without overpaying.
type Service interface {
	EstimateGas(ctx context.Context, req *EstimateRequest) (*Estimate, error)
	GetGasPrices(ctx context.Context, chainID int64) (*Prices, error)
	ValidateGasParams(chainID int64, gasLimit uint64, gasPrice, maxFeePerGas *big.Int) bool
	CheckHealth(ctx context.Context) bool
}
