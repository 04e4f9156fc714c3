package provider

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	coretypes "github.com/ethereum/go-ethereum/core/types"
)

// EVMClient is the subset of ethclient.Client the relay needs. Operations
// passed to ExecuteWithFallback receive whichever endpoint's client answered.
type EVMClient interface {
	BlockNumber(ctx context.Context) (uint64, error)
	HeaderByNumber(ctx context.Context, number *big.Int) (*coretypes.Header, error)
	SuggestGasPrice(ctx context.Context) (*big.Int, error)
	SuggestGasTipCap(ctx context.Context) (*big.Int, error)
	EstimateGas(ctx context.Context, msg ethereum.CallMsg) (uint64, error)
	BalanceAt(ctx context.Context, account common.Address, blockNumber *big.Int) (*big.Int, error)
	PendingNonceAt(ctx context.Context, account common.Address) (uint64, error)
	SendTransaction(ctx context.Context, tx *coretypes.Transaction) error
	TransactionReceipt(ctx context.Context, txHash common.Hash) (*coretypes.Receipt, error)
	Close()
}

// DialFunc opens a client for one endpoint URL. Tests inject fakes here.
type DialFunc func(ctx context.Context, url string) (EVMClient, error)

// Operation is one unit of work executed against a single endpoint.
type Operation func(ctx context.Context, client EVMClient) error

// Stats is a read-only snapshot of one chain's endpoint set.
type Stats struct {
	ChainID   int64
	Count     int
	Current   string
	Endpoints []string
}
