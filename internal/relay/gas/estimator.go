package gas

import (
	"context"
	"encoding/json"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"github/chapool/gas-relay/internal/cache"
	"github/chapool/gas-relay/internal/config"
	"github/chapool/gas-relay/internal/relay/provider"
)

const (
	// gasLimitBufferNum/Den scale the raw simulation estimate by 1.2.
	gasLimitBufferNum = 12
	gasLimitBufferDen = 10

	// slowTierNum/Den scale the base fee by 0.8 for the slow tier.
	slowTierNum = 8
	slowTierDen = 10

	// fastTierNum/Den scale the standard tier by 1.5 for the fast tier.
	fastTierNum = 15
	fastTierDen = 10

	// defaultPriorityFeeWei is used when the chain reports no tip (2 gwei).
	defaultPriorityFeeWei = 2_000_000_000

	weiPerGwei = 1_000_000_000
)

// service implements Service over the provider pool with a shared
// read-through cache for the price tiers.
type service struct {
	cfg    config.Relay
	rpcCfg config.RPC
	pool   *provider.Pool
	cache  cache.Cache
}

// NewService creates the gas estimator.
//
//nolint:ireturn
func NewService(cfg config.Relay, rpcCfg config.RPC, pool *provider.Pool, sharedCache cache.Cache) Service {
	return &service{
		cfg:    cfg,
		rpcCfg: rpcCfg,
		pool:   pool,
		cache:  sharedCache,
	}
}

// cachedPrices is the cache wire format. Wei values are decimal strings to
// survive any 64-bit boundary.
type cachedPrices struct {
	Slow     string `json:"slow"`
	Standard string `json:"standard"`
	Fast     string `json:"fast"`
}

// EstimateGas simulates the call for a gas limit (with a 20% safety buffer,
// falling back to the configured default when simulation fails) and attaches
// the standard price tier, plus fee-market fields on EIP-1559 chains.
func (s *service) EstimateGas(ctx context.Context, req *EstimateRequest) (*Estimate, error) {
	prices, err := s.GetGasPrices(ctx, req.ChainID)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get gas prices")
	}

	value := req.Value
	if value == nil {
		value = big.NewInt(0)
	}
	msg := ethereum.CallMsg{
		From:  req.From,
		To:    &req.To,
		Data:  req.Data,
		Value: value,
	}

	var simulated uint64
	var baseFee, tipCap *big.Int
	err = s.pool.ExecuteWithFallback(ctx, req.ChainID, func(ctx context.Context, client provider.EVMClient) error {
		header, err := client.HeaderByNumber(ctx, nil)
		if err != nil {
			return err
		}
		baseFee = header.BaseFee

		if baseFee != nil {
			tip, err := client.SuggestGasTipCap(ctx)
			if err != nil {
				// fee-market chain without a tip oracle, fall back below
				tip = nil
			}
			tipCap = tip
		}

		estimated, err := client.EstimateGas(ctx, msg)
		if err != nil {
			// simulation failure is recoverable via the default limit, not
			// an endpoint failure
			log.Debug().
				Int64("chain_id", req.ChainID).
				Err(err).
				Msg("Gas simulation failed, using default gas limit")
			simulated = 0
			return nil
		}
		simulated = estimated
		return nil
	})
	if err != nil {
		return nil, err
	}

	gasLimit := s.cfg.DefaultGasLimit
	if simulated > 0 {
		gasLimit = simulated * gasLimitBufferNum / gasLimitBufferDen
	}

	estimate := &Estimate{
		GasLimit:      gasLimit,
		GasPrice:      prices.Standard,
		EstimatedCost: new(big.Int).Mul(new(big.Int).SetUint64(gasLimit), prices.Standard),
	}

	if baseFee != nil {
		if tipCap == nil {
			tipCap = big.NewInt(defaultPriorityFeeWei)
		}
		// maxFee = baseFee * 2 + tip, headroom for one full base fee bump
		estimate.MaxPriorityFeePerGas = tipCap
		estimate.MaxFeePerGas = new(big.Int).Add(new(big.Int).Mul(baseFee, big.NewInt(2)), tipCap)
	}

	return estimate, nil
}

// GetGasPrices returns the slow/standard/fast tiers derived from the chain's
// base fee, served from the shared cache within the configured TTL.
func (s *service) GetGasPrices(ctx context.Context, chainID int64) (*Prices, error) {
	cacheKey := fmt.Sprintf("gas:prices:%d", chainID)

	if cached, err := s.cache.Get(ctx, cacheKey); err == nil {
		if prices, ok := decodePrices(cached); ok {
			return prices, nil
		}
		log.Warn().Str("key", cacheKey).Msg("Discarding malformed cached gas prices")
	}

	var base *big.Int
	err := s.pool.ExecuteWithFallback(ctx, chainID, func(ctx context.Context, client provider.EVMClient) error {
		header, err := client.HeaderByNumber(ctx, nil)
		if err != nil {
			return err
		}
		if header.BaseFee != nil {
			base = header.BaseFee
			return nil
		}

		// legacy chain: the suggested gas price takes the base fee's role
		suggested, err := client.SuggestGasPrice(ctx)
		if err != nil {
			return err
		}
		base = suggested
		return nil
	})
	if err != nil {
		return nil, err
	}

	multiplierNum := big.NewInt(int64(s.cfg.GasPriceMultiplier * 100))
	multiplierDen := big.NewInt(100)

	standard := new(big.Int).Div(new(big.Int).Mul(base, multiplierNum), multiplierDen)
	prices := &Prices{
		Slow:     new(big.Int).Div(new(big.Int).Mul(base, big.NewInt(slowTierNum)), big.NewInt(slowTierDen)),
		Standard: standard,
		Fast:     new(big.Int).Div(new(big.Int).Mul(standard, big.NewInt(fastTierNum)), big.NewInt(fastTierDen)),
	}

	encoded, err := json.Marshal(cachedPrices{
		Slow:     prices.Slow.String(),
		Standard: prices.Standard.String(),
		Fast:     prices.Fast.String(),
	})
	if err == nil {
		if err := s.cache.Set(ctx, cacheKey, string(encoded), s.rpcCfg.GasPriceCacheTTL); err != nil {
			log.Warn().Err(err).Msg("Failed to cache gas prices")
		}
	}

	return prices, nil
}

// ValidateGasParams rejects a gas limit above the hard ceiling and any price
// above the configured gwei maximum. Pure validation, no side effects.
func (s *service) ValidateGasParams(chainID int64, gasLimit uint64, gasPrice, maxFeePerGas *big.Int) bool {
	if gasLimit > s.cfg.MaxGasLimit {
		log.Debug().
			Int64("chain_id", chainID).
			Uint64("gas_limit", gasLimit).
			Msg("Gas limit exceeds hard ceiling")
		return false
	}

	maxPrice := new(big.Int).Mul(big.NewInt(s.cfg.MaxGasPriceGwei), big.NewInt(weiPerGwei))
	if gasPrice != nil && gasPrice.Cmp(maxPrice) > 0 {
		log.Debug().
			Int64("chain_id", chainID).
			Str("gas_price", gasPrice.String()).
			Msg("Gas price exceeds configured maximum")
		return false
	}
	if maxFeePerGas != nil && maxFeePerGas.Cmp(maxPrice) > 0 {
		log.Debug().
			Int64("chain_id", chainID).
			Str("max_fee_per_gas", maxFeePerGas.String()).
			Msg("Max fee per gas exceeds configured maximum")
		return false
	}

	return true
}

// CheckHealth reports true if gas prices can be fetched for at least one
// supported chain (OR across chains).
func (s *service) CheckHealth(ctx context.Context) bool {
	for _, chainID := range s.cfg.SupportedChainIDs {
		if _, err := s.GetGasPrices(ctx, chainID); err == nil {
			return true
		}
	}

	return false
}

func decodePrices(raw string) (*Prices, bool) {
	var decoded cachedPrices
	if err := json.Unmarshal([]byte(raw), &decoded); err != nil {
		return nil, false
	}

	slow, okSlow := new(big.Int).SetString(decoded.Slow, 10)
	standard, okStandard := new(big.Int).SetString(decoded.Standard, 10)
	fast, okFast := new(big.Int).SetString(decoded.Fast, 10)
	if !okSlow || !okStandard || !okFast {
		return nil, false
	}

	return &Prices{Slow: slow, Standard: standard, Fast: fast}, true
}
