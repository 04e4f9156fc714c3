// Package providertest provides configurable fake EVM clients for exercising
// the provider pool and everything layered on top of it without a node.
package providertest

import (
	"context"
	"math/big"
	"sync/atomic"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	coretypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/pkg/errors"
	"github/chapool/gas-relay/internal/config"
	"github/chapool/gas-relay/internal/relay/provider"
)

// Client is a fake provider.EVMClient. Unset function fields answer with
// zero values; set fields control the behavior per test.
type Client struct {
	BlockNumberFn        func(ctx context.Context) (uint64, error)
	HeaderByNumberFn     func(ctx context.Context, number *big.Int) (*coretypes.Header, error)
	SuggestGasPriceFn    func(ctx context.Context) (*big.Int, error)
	SuggestGasTipCapFn   func(ctx context.Context) (*big.Int, error)
	EstimateGasFn        func(ctx context.Context, msg ethereum.CallMsg) (uint64, error)
	BalanceAtFn          func(ctx context.Context, account common.Address, blockNumber *big.Int) (*big.Int, error)
	PendingNonceAtFn     func(ctx context.Context, account common.Address) (uint64, error)
	SendTransactionFn    func(ctx context.Context, tx *coretypes.Transaction) error
	TransactionReceiptFn func(ctx context.Context, txHash common.Hash) (*coretypes.Receipt, error)

	calls atomic.Int64
}

// Calls returns how many operations this client has served.
func (c *Client) Calls() int64 {
	return c.calls.Load()
}

func (c *Client) BlockNumber(ctx context.Context) (uint64, error) {
	c.calls.Add(1)
	if c.BlockNumberFn != nil {
		return c.BlockNumberFn(ctx)
	}
	return 0, nil
}

func (c *Client) HeaderByNumber(ctx context.Context, number *big.Int) (*coretypes.Header, error) {
	c.calls.Add(1)
	if c.HeaderByNumberFn != nil {
		return c.HeaderByNumberFn(ctx, number)
	}
	return &coretypes.Header{Number: big.NewInt(0)}, nil
}

func (c *Client) SuggestGasPrice(ctx context.Context) (*big.Int, error) {
	c.calls.Add(1)
	if c.SuggestGasPriceFn != nil {
		return c.SuggestGasPriceFn(ctx)
	}
	return big.NewInt(0), nil
}

func (c *Client) SuggestGasTipCap(ctx context.Context) (*big.Int, error) {
	c.calls.Add(1)
	if c.SuggestGasTipCapFn != nil {
		return c.SuggestGasTipCapFn(ctx)
	}
	return big.NewInt(0), nil
}

func (c *Client) EstimateGas(ctx context.Context, msg ethereum.CallMsg) (uint64, error) {
	c.calls.Add(1)
	if c.EstimateGasFn != nil {
		return c.EstimateGasFn(ctx, msg)
	}
	return 21000, nil
}

func (c *Client) BalanceAt(ctx context.Context, account common.Address, blockNumber *big.Int) (*big.Int, error) {
	c.calls.Add(1)
	if c.BalanceAtFn != nil {
		return c.BalanceAtFn(ctx, account, blockNumber)
	}
	return big.NewInt(0), nil
}

func (c *Client) PendingNonceAt(ctx context.Context, account common.Address) (uint64, error) {
	c.calls.Add(1)
	if c.PendingNonceAtFn != nil {
		return c.PendingNonceAtFn(ctx, account)
	}
	return 0, nil
}

func (c *Client) SendTransaction(ctx context.Context, tx *coretypes.Transaction) error {
	c.calls.Add(1)
	if c.SendTransactionFn != nil {
		return c.SendTransactionFn(ctx, tx)
	}
	return nil
}

func (c *Client) TransactionReceipt(ctx context.Context, txHash common.Hash) (*coretypes.Receipt, error) {
	c.calls.Add(1)
	if c.TransactionReceiptFn != nil {
		return c.TransactionReceiptFn(ctx, txHash)
	}
	return nil, ethereum.NotFound
}

func (c *Client) Close() {}

// DialerFor returns a provider.DialFunc resolving endpoint URLs to the given
// fake clients. Unknown URLs fail to dial.
func DialerFor(clients map[string]*Client) provider.DialFunc {
	return func(_ context.Context, url string) (provider.EVMClient, error) {
		client, ok := clients[url]
		if !ok {
			return nil, errors.Errorf("no fake client for %s", url)
		}
		return client, nil
	}
}

// Endpoints declares a chain's endpoint list with priorities following the
// given order, one URL per name.
func Endpoints(chainID int64, names ...string) map[int64][]config.RPCEndpoint {
	declared := make([]config.RPCEndpoint, 0, len(names))
	for i, name := range names {
		declared = append(declared, config.RPCEndpoint{
			Name:     name,
			URL:      "fake://" + name,
			Priority: i + 1,
		})
	}
	return map[int64][]config.RPCEndpoint{chainID: declared}
}
