package test

import (
	"bytes"
	"context"
	"encoding/json"
	"math/big"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	coretypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"
	"github/chapool/gas-relay/internal/api"
	"github/chapool/gas-relay/internal/api/router"
	"github/chapool/gas-relay/internal/cache"
	"github/chapool/gas-relay/internal/config"
	"github/chapool/gas-relay/internal/metrics"
	"github/chapool/gas-relay/internal/relay"
	"github/chapool/gas-relay/internal/relay/gas"
	"github/chapool/gas-relay/internal/relay/provider"
	"github/chapool/gas-relay/internal/relay/provider/providertest"
	"github/chapool/gas-relay/internal/relay/store"
	"github/chapool/gas-relay/internal/relay/submitter"
)

// TestChainID is the chain every test server supports.
const TestChainID int64 = 31337

// well-known development key, address 0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266
const testSignerKey = "ac0974bec39a17e36ba4a6b4d238ff944bacb478cbed5efcae784d7bf4f2ff80"

// DefaultServiceConfig returns a server config suitable for in-process tests:
// memory-backed components, a single fake endpoint and a fast monitor loop.
func DefaultServiceConfig() config.Server {
	cfg := config.DefaultServiceConfigFromEnv()

	cfg.Relay.SupportedChainIDs = []int64{TestChainID}
	cfg.Relay.SignerPrivateKey = testSignerKey
	cfg.Relay.MonitorInterval = 10 * time.Millisecond
	cfg.Relay.MonitorMaxAttempts = 5
	cfg.RPC.Endpoints = providertest.Endpoints(TestChainID, "primary")
	cfg.RPC.AttemptTimeout = 100 * time.Millisecond
	cfg.RPC.HealthTimeout = 50 * time.Millisecond
	cfg.Redis.Enabled = false

	return cfg
}

// DefaultTestClient answers everything a full submission flow needs: a
// fee-market chain at 10 gwei base fee with confirmed receipts.
func DefaultTestClient() *providertest.Client {
	return &providertest.Client{
		HeaderByNumberFn: func(context.Context, *big.Int) (*coretypes.Header, error) {
			return &coretypes.Header{Number: big.NewInt(100), BaseFee: big.NewInt(10_000_000_000)}, nil
		},
		SuggestGasTipCapFn: func(context.Context) (*big.Int, error) {
			return big.NewInt(1_000_000_000), nil
		},
		TransactionReceiptFn: func(context.Context, common.Hash) (*coretypes.Receipt, error) {
			return &coretypes.Receipt{
				Status:            coretypes.ReceiptStatusSuccessful,
				BlockNumber:       big.NewInt(100),
				GasUsed:           21000,
				EffectiveGasPrice: big.NewInt(20_000_000_000),
			}, nil
		},
	}
}

// WithTestServer runs the closure against a fully routed in-process server
// backed by the default fake chain client.
func WithTestServer(t *testing.T, closure func(s *api.Server)) {
	t.Helper()
	WithTestServerClient(t, DefaultTestClient(), closure)
}

// WithTestServerClient is WithTestServer with a caller-controlled chain
// client.
func WithTestServerClient(t *testing.T, client *providertest.Client, closure func(s *api.Server)) {
	t.Helper()

	cfg := DefaultServiceConfig()
	s := api.NewServer(cfg)

	s.Store = store.NewMemory()
	s.Cache = cache.NewMemory()
	s.Metrics = metrics.New()
	s.Pool = provider.NewPool(cfg.RPC, s.Cache, providertest.DialerFor(map[string]*providertest.Client{
		"fake://primary": client,
	}))
	s.Pool.OnFailover(s.Metrics.ProviderFailover)
	s.Gas = gas.NewService(cfg.Relay, cfg.RPC, s.Pool, s.Cache)

	submitService, err := submitter.NewService(cfg.Relay, s.Pool)
	require.NoError(t, err)
	s.Submitter = submitService

	s.Relay = relay.NewService(cfg.Relay, s.Store, s.Gas, s.Submitter, s.Metrics)
	t.Cleanup(s.Relay.Shutdown)

	router.Init(s)

	closure(s)
}

// PerformRequest runs one request through the server's full middleware and
// routing stack. A non-nil body is sent as JSON.
func PerformRequest(t *testing.T, s *api.Server, method, path string, body interface{}, headers http.Header) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	for key, values := range headers {
		for _, value := range values {
			req.Header.Add(key, value)
		}
	}

	res := httptest.NewRecorder()
	s.Echo.ServeHTTP(res, req)

	return res
}

// ParseResponseAndValidate decodes the recorded JSON body into target.
func ParseResponseAndValidate(t *testing.T, res *httptest.ResponseRecorder, target interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(res.Body.Bytes(), target))
}
