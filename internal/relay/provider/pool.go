package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"

	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"github/chapool/gas-relay/internal/cache"
	"github/chapool/gas-relay/internal/config"
)

var (
	// ErrAllProvidersExhausted is returned when every endpoint for a chain
	// failed or timed out. The last underlying error is attached as context.
	ErrAllProvidersExhausted = errors.New("all providers exhausted")
	// ErrNoEndpointsConfigured is returned for chains without any declared
	// endpoint.
	ErrNoEndpointsConfigured = errors.New("no endpoints configured for chain")
)

// endpoint is one physical RPC connection, dialed lazily and kept for reuse.
// A failed dial is retried on the next use.
type endpoint struct {
	name     string
	url      string
	priority int

	mu     sync.Mutex
	client EVMClient
}

func (e *endpoint) connect(ctx context.Context, dial DialFunc) (EVMClient, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.client != nil {
		return e.client, nil
	}

	client, err := dial(ctx, e.url)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to dial endpoint %s", e.name)
	}

	e.client = client
	return client, nil
}

// chainSet is the per-chain endpoint list, immutable after build. Only the
// current-preferred pointer mutates; it is informational, every call walks
// the static priority order.
type chainSet struct {
	endpoints []*endpoint
	current   atomic.Pointer[string]
}

// Pool presents a single logical RPC endpoint per chain backed by N physical
// endpoints, tolerating the failure of any subset.
type Pool struct {
	cfg   config.RPC
	cache cache.Cache
	dial  DialFunc

	mu     sync.RWMutex
	chains map[int64]*chainSet

	failover func(chainID int64, endpoint string)
}

// NewPool creates a provider pool over the statically declared endpoints.
// A nil dial falls back to go-ethereum's HTTP client.
func NewPool(cfg config.RPC, sharedCache cache.Cache, dial DialFunc) *Pool {
	if dial == nil {
		dial = func(ctx context.Context, url string) (EVMClient, error) {
			return ethclient.DialContext(ctx, url)
		}
	}

	return &Pool{
		cfg:    cfg,
		cache:  sharedCache,
		dial:   dial,
		chains: make(map[int64]*chainSet),
	}
}

// OnFailover registers a callback invoked once per skipped endpoint. Set it
// before the pool is shared between goroutines.
func (p *Pool) OnFailover(fn func(chainID int64, endpoint string)) {
	p.failover = fn
}

// recordFailover notifies the callback and drops the chain's cached health
// snapshot, so the next CheckHealth re-probes instead of reporting stale
// state.
func (p *Pool) recordFailover(ctx context.Context, chainID int64, endpoint string) {
	if p.failover != nil {
		p.failover(chainID, endpoint)
	}

	if err := p.cache.Delete(ctx, healthCacheKey(chainID)); err != nil {
		log.Warn().Int64("chain_id", chainID).Err(err).Msg("Failed to invalidate cached health result")
	}
}

func healthCacheKey(chainID int64) string {
	return fmt.Sprintf("provider:health:%d", chainID)
}

// Bootstrap builds the endpoint sets for the given chains up front. Failing
// to resolve any chain is fatal for the caller.
func (p *Pool) Bootstrap(chainIDs []int64) error {
	for _, chainID := range chainIDs {
		if _, err := p.chainSetFor(chainID); err != nil {
			return err
		}
	}

	return nil
}

// chainSetFor returns the endpoint set for a chain, building it on first use.
// Building is idempotent.
func (p *Pool) chainSetFor(chainID int64) (*chainSet, error) {
	p.mu.RLock()
	set, ok := p.chains[chainID]
	p.mu.RUnlock()
	if ok {
		return set, nil
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if set, ok := p.chains[chainID]; ok {
		return set, nil
	}

	declared := p.cfg.Endpoints[chainID]
	if len(declared) == 0 {
		return nil, errors.Wrapf(ErrNoEndpointsConfigured, "chain %d", chainID)
	}

	endpoints := make([]*endpoint, 0, len(declared))
	for _, decl := range declared {
		endpoints = append(endpoints, &endpoint{
			name:     decl.Name,
			url:      decl.URL,
			priority: decl.Priority,
		})
	}
	sort.SliceStable(endpoints, func(i, j int) bool {
		return endpoints[i].priority < endpoints[j].priority
	})

	set = &chainSet{endpoints: endpoints}

	log.Info().
		Int64("chain_id", chainID).
		Int("endpoints", len(endpoints)).
		Msg("Built provider endpoint set")

	p.chains[chainID] = set
	return set, nil
}

// ExecuteWithFallback runs op against the first endpoint, in priority order,
// that answers within the per-attempt timeout without error. Individual
// endpoint failures are logged and swallowed; only total exhaustion surfaces.
func (p *Pool) ExecuteWithFallback(ctx context.Context, chainID int64, op Operation) error {
	set, err := p.chainSetFor(chainID)
	if err != nil {
		return err
	}

	var lastErr error
	for _, ep := range set.endpoints {
		client, err := ep.connect(ctx, p.dial)
		if err != nil {
			log.Warn().
				Int64("chain_id", chainID).
				Str("endpoint", ep.name).
				Err(err).
				Msg("Endpoint dial failed, falling back")
			p.recordFailover(ctx, chainID, ep.name)
			lastErr = err
			continue
		}

		attemptCtx, cancel := context.WithTimeout(ctx, p.cfg.AttemptTimeout)
		err = op(attemptCtx, client)
		cancel()

		if err == nil {
			name := ep.name
			set.current.Store(&name)
			return nil
		}

		// Timeouts and RPC errors are treated identically.
		log.Warn().
			Int64("chain_id", chainID).
			Str("endpoint", ep.name).
			Err(err).
			Msg("Endpoint operation failed, falling back")
		p.recordFailover(ctx, chainID, ep.name)
		lastErr = err
	}

	if lastErr != nil {
		return errors.Wrapf(ErrAllProvidersExhausted, "chain %d: last error: %v", chainID, lastErr)
	}
	return errors.Wrapf(ErrAllProvidersExhausted, "chain %d", chainID)
}

// CheckHealth probes every endpoint of a chain with a lightweight block
// number call. Results are served from the shared cache for the configured
// TTL to avoid health-check storms.
func (p *Pool) CheckHealth(ctx context.Context, chainID int64) (map[string]bool, error) {
	cacheKey := healthCacheKey(chainID)

	if cached, err := p.cache.Get(ctx, cacheKey); err == nil {
		health := make(map[string]bool)
		if err := json.Unmarshal([]byte(cached), &health); err == nil {
			return health, nil
		}
		log.Warn().Str("key", cacheKey).Msg("Discarding malformed cached health result")
	}

	set, err := p.chainSetFor(chainID)
	if err != nil {
		return nil, err
	}

	health := make(map[string]bool, len(set.endpoints))
	for _, ep := range set.endpoints {
		health[ep.name] = p.probeEndpoint(ctx, ep)
	}

	if encoded, err := json.Marshal(health); err == nil {
		if err := p.cache.Set(ctx, cacheKey, string(encoded), p.cfg.HealthCacheTTL); err != nil {
			log.Warn().Err(err).Msg("Failed to cache provider health result")
		}
	}

	return health, nil
}

func (p *Pool) probeEndpoint(ctx context.Context, ep *endpoint) bool {
	probeCtx, cancel := context.WithTimeout(ctx, p.cfg.HealthTimeout)
	defer cancel()

	client, err := ep.connect(probeCtx, p.dial)
	if err != nil {
		return false
	}

	_, err = client.BlockNumber(probeCtx)
	return err == nil
}

// GetStats returns an observability snapshot for a chain. No side effects
// beyond the lazy endpoint set build.
func (p *Pool) GetStats(chainID int64) (Stats, error) {
	set, err := p.chainSetFor(chainID)
	if err != nil {
		return Stats{}, err
	}

	names := make([]string, 0, len(set.endpoints))
	for _, ep := range set.endpoints {
		names = append(names, ep.name)
	}

	current := ""
	if name := set.current.Load(); name != nil {
		current = *name
	}

	return Stats{
		ChainID:   chainID,
		Count:     len(set.endpoints),
		Current:   current,
		Endpoints: names,
	}, nil
}

// Close releases all dialed clients.
func (p *Pool) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()

	for _, set := range p.chains {
		for _, ep := range set.endpoints {
			ep.mu.Lock()
			if ep.client != nil {
				ep.client.Close()
				ep.client = nil
			}
			ep.mu.Unlock()
		}
	}
}
