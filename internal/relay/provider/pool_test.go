package provider_test

import (
	"context"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
	"github/chapool/gas-relay/internal/cache"
	"github/chapool/gas-relay/internal/config"
	"github/chapool/gas-relay/internal/relay/provider"
	"github/chapool/gas-relay/internal/relay/provider/providertest"
)

func rpcConfig(endpoints map[int64][]config.RPCEndpoint) config.RPC {
	return config.RPC{
		Endpoints:      endpoints,
		AttemptTimeout: 100 * time.Millisecond,
		HealthTimeout:  50 * time.Millisecond,
		HealthCacheTTL: 300 * time.Second,
	}
}

func TestExecuteWithFallbackUsesPriorityOrder(t *testing.T) {
	ctx := t.Context()

	clients := map[string]*providertest.Client{
		"fake://primary": {BlockNumberFn: func(context.Context) (uint64, error) {
			return 100, nil
		}},
		"fake://secondary": {BlockNumberFn: func(context.Context) (uint64, error) {
			return 200, nil
		}},
	}
	pool := provider.NewPool(rpcConfig(providertest.Endpoints(31337, "primary", "secondary")), cache.NewMemory(), providertest.DialerFor(clients))

	var blockNumber uint64
	err := pool.ExecuteWithFallback(ctx, 31337, func(ctx context.Context, client provider.EVMClient) error {
		var err error
		blockNumber, err = client.BlockNumber(ctx)
		return err
	})
	require.NoError(t, err)
	require.EqualValues(t, 100, blockNumber)
	require.EqualValues(t, 0, clients["fake://secondary"].Calls())

	stats, err := pool.GetStats(31337)
	require.NoError(t, err)
	require.Equal(t, "primary", stats.Current)
}

func TestExecuteWithFallbackSkipsFailingEndpoints(t *testing.T) {
	ctx := t.Context()

	// endpoint 1 times out, endpoint 2 errors, endpoint 3 answers
	clients := map[string]*providertest.Client{
		"fake://one": {BlockNumberFn: func(ctx context.Context) (uint64, error) {
			<-ctx.Done()
			return 0, ctx.Err()
		}},
		"fake://two": {BlockNumberFn: func(context.Context) (uint64, error) {
			return 0, errors.New("rpc failure")
		}},
		"fake://three": {BlockNumberFn: func(context.Context) (uint64, error) {
			return 300, nil
		}},
	}
	pool := provider.NewPool(rpcConfig(providertest.Endpoints(31337, "one", "two", "three")), cache.NewMemory(), providertest.DialerFor(clients))

	var blockNumber uint64
	err := pool.ExecuteWithFallback(ctx, 31337, func(ctx context.Context, client provider.EVMClient) error {
		var err error
		blockNumber, err = client.BlockNumber(ctx)
		return err
	})
	require.NoError(t, err)
	require.EqualValues(t, 300, blockNumber)

	stats, err := pool.GetStats(31337)
	require.NoError(t, err)
	require.Equal(t, "three", stats.Current)
}

func TestExecuteWithFallbackExhaustion(t *testing.T) {
	ctx := t.Context()

	failing := func(context.Context) (uint64, error) {
		return 0, errors.New("rpc failure")
	}
	clients := map[string]*providertest.Client{
		"fake://one":   {BlockNumberFn: failing},
		"fake://two":   {BlockNumberFn: failing},
		"fake://three": {BlockNumberFn: failing},
	}
	pool := provider.NewPool(rpcConfig(providertest.Endpoints(31337, "one", "two", "three")), cache.NewMemory(), providertest.DialerFor(clients))

	err := pool.ExecuteWithFallback(ctx, 31337, func(ctx context.Context, client provider.EVMClient) error {
		_, err := client.BlockNumber(ctx)
		return err
	})
	require.ErrorIs(t, err, provider.ErrAllProvidersExhausted)
	require.Contains(t, err.Error(), "rpc failure")

	require.EqualValues(t, 1, clients["fake://one"].Calls())
	require.EqualValues(t, 1, clients["fake://two"].Calls())
	require.EqualValues(t, 1, clients["fake://three"].Calls())
}

func TestExecuteWithFallbackUnknownChain(t *testing.T) {
	pool := provider.NewPool(rpcConfig(providertest.Endpoints(31337, "one")), cache.NewMemory(), providertest.DialerFor(nil))

	err := pool.ExecuteWithFallback(t.Context(), 1, func(ctx context.Context, client provider.EVMClient) error {
		return nil
	})
	require.ErrorIs(t, err, provider.ErrNoEndpointsConfigured)
}

func TestCheckHealthCachesResult(t *testing.T) {
	ctx := t.Context()

	clients := map[string]*providertest.Client{
		"fake://up": {BlockNumberFn: func(context.Context) (uint64, error) {
			return 1, nil
		}},
		"fake://down": {BlockNumberFn: func(context.Context) (uint64, error) {
			return 0, errors.New("connection refused")
		}},
	}
	pool := provider.NewPool(rpcConfig(providertest.Endpoints(31337, "up", "down")), cache.NewMemory(), providertest.DialerFor(clients))

	health, err := pool.CheckHealth(ctx, 31337)
	require.NoError(t, err)
	require.Equal(t, map[string]bool{"up": true, "down": false}, health)

	// second check within the TTL is served from the cache
	health, err = pool.CheckHealth(ctx, 31337)
	require.NoError(t, err)
	require.Equal(t, map[string]bool{"up": true, "down": false}, health)
	require.EqualValues(t, 1, clients["fake://up"].Calls())
	require.EqualValues(t, 1, clients["fake://down"].Calls())
}

func TestFailoverInvalidatesHealthCache(t *testing.T) {
	ctx := t.Context()

	oneDown := false
	clients := map[string]*providertest.Client{
		"fake://one": {BlockNumberFn: func(context.Context) (uint64, error) {
			if oneDown {
				return 0, errors.New("connection refused")
			}
			return 1, nil
		}},
		"fake://two": {BlockNumberFn: func(context.Context) (uint64, error) {
			return 2, nil
		}},
	}
	pool := provider.NewPool(rpcConfig(providertest.Endpoints(31337, "one", "two")), cache.NewMemory(), providertest.DialerFor(clients))

	health, err := pool.CheckHealth(ctx, 31337)
	require.NoError(t, err)
	require.Equal(t, map[string]bool{"one": true, "two": true}, health)

	// endpoint one goes down; the resulting failover drops the cached result
	oneDown = true
	err = pool.ExecuteWithFallback(ctx, 31337, func(ctx context.Context, client provider.EVMClient) error {
		_, err := client.BlockNumber(ctx)
		return err
	})
	require.NoError(t, err)

	health, err = pool.CheckHealth(ctx, 31337)
	require.NoError(t, err)
	require.Equal(t, map[string]bool{"one": false, "two": true}, health)
}

func TestGetStats(t *testing.T) {
	pool := provider.NewPool(rpcConfig(providertest.Endpoints(31337, "one", "two")), cache.NewMemory(), providertest.DialerFor(nil))

	stats, err := pool.GetStats(31337)
	require.NoError(t, err)
	require.Equal(t, 2, stats.Count)
	require.Empty(t, stats.Current)
	require.Equal(t, []string{"one", "two"}, stats.Endpoints)
}

func TestBootstrapFailsWithoutEndpoints(t *testing.T) {
	pool := provider.NewPool(rpcConfig(providertest.Endpoints(31337, "one")), cache.NewMemory(), providertest.DialerFor(nil))

	require.NoError(t, pool.Bootstrap([]int64{31337}))
	require.ErrorIs(t, pool.Bootstrap([]int64{1}), provider.ErrNoEndpointsConfigured)
}
