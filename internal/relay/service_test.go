package relay_test

import (
	"context"
	"math/big"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	coretypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
	"github/chapool/gas-relay/internal/cache"
	"github/chapool/gas-relay/internal/config"
	"github/chapool/gas-relay/internal/relay"
	"github/chapool/gas-relay/internal/relay/gas"
	"github/chapool/gas-relay/internal/relay/provider"
	"github/chapool/gas-relay/internal/relay/provider/providertest"
	"github/chapool/gas-relay/internal/relay/store"
	"github/chapool/gas-relay/internal/relay/submitter"
)

// well-known development key, address 0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266
const testPrivateKey = "ac0974bec39a17e36ba4a6b4d238ff944bacb478cbed5efcae784d7bf4f2ff80"

const gwei = 1_000_000_000

func relayConfig() config.Relay {
	return config.Relay{
		SupportedChainIDs:  []int64{31337},
		SignerPrivateKey:   testPrivateKey,
		MonitorInterval:    10 * time.Millisecond,
		MonitorMaxAttempts: 60,
		DefaultGasLimit:    500000,
		MaxGasLimit:        10000000,
		GasPriceMultiplier: 1.1,
		MaxGasPriceGwei:    100,
	}
}

// healthyClient answers everything a full submission flow needs: fee-market
// chain at 10 gwei base fee, simulations at 21000 gas, broadcast accepted.
func healthyClient() *providertest.Client {
	return &providertest.Client{
		HeaderByNumberFn: func(context.Context, *big.Int) (*coretypes.Header, error) {
			return &coretypes.Header{Number: big.NewInt(100), BaseFee: big.NewInt(10 * gwei)}, nil
		},
		SuggestGasTipCapFn: func(context.Context) (*big.Int, error) {
			return big.NewInt(1 * gwei), nil
		},
	}
}

func minedReceipt(status uint64) *coretypes.Receipt {
	return &coretypes.Receipt{
		Status:            status,
		BlockNumber:       big.NewInt(100),
		GasUsed:           21000,
		EffectiveGasPrice: big.NewInt(20 * gwei),
	}
}

type fixture struct {
	svc   relay.Service
	store store.Store
}

func newFixture(t *testing.T, cfg config.Relay, client *providertest.Client) *fixture {
	t.Helper()

	rpcCfg := config.RPC{
		Endpoints:        providertest.Endpoints(31337, "primary"),
		AttemptTimeout:   100 * time.Millisecond,
		HealthTimeout:    50 * time.Millisecond,
		HealthCacheTTL:   300 * time.Second,
		GasPriceCacheTTL: 60 * time.Second,
	}
	pool := provider.NewPool(rpcCfg, cache.NewMemory(), providertest.DialerFor(map[string]*providertest.Client{
		"fake://primary": client,
	}))

	gasService := gas.NewService(cfg, rpcCfg, pool, cache.NewMemory())
	submitService, err := submitter.NewService(cfg, pool)
	require.NoError(t, err)

	taskStore := store.NewMemory()
	svc := relay.NewService(cfg, taskStore, gasService, submitService, nil)
	t.Cleanup(svc.Shutdown)

	return &fixture{svc: svc, store: taskStore}
}

func submitRequest() *relay.SubmitRequest {
	return &relay.SubmitRequest{
		ChainID: 31337,
		Target:  "0xAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAA1111",
		Data:    "0xa9059cbb",
		User:    "0xBBBBBBBBBBBBBBBBBBBBBBBBBBBBBBBBBBBB2222",
	}
}

func waitForStatus(t *testing.T, f *fixture, taskID string, want store.Status) *store.Task {
	t.Helper()

	var task *store.Task
	require.Eventually(t, func() bool {
		var err error
		task, err = f.store.Get(context.Background(), taskID)
		return err == nil && task.Status == want
	}, 5*time.Second, 5*time.Millisecond)

	return task
}

func TestSubmitTransactionConfirms(t *testing.T) {
	client := healthyClient()
	client.TransactionReceiptFn = func(context.Context, common.Hash) (*coretypes.Receipt, error) {
		return minedReceipt(coretypes.ReceiptStatusSuccessful), nil
	}
	f := newFixture(t, relayConfig(), client)

	result, err := f.svc.SubmitTransaction(t.Context(), submitRequest())
	require.NoError(t, err)
	require.True(t, result.Success)
	require.NotEmpty(t, result.TaskID)

	task := waitForStatus(t, f, result.TaskID, store.StatusSuccess)
	require.EqualValues(t, 100, task.BlockNumber)
	require.EqualValues(t, 21000, task.GasUsed)
	require.Equal(t, big.NewInt(20*gwei).String(), task.EffectiveGasPrice)
	require.NotEmpty(t, task.TransactionHash)
	require.Equal(t, "0xbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb2222", task.User)
	require.EqualValues(t, 25200, task.GasLimit) // 21000 * 1.2
	require.NotEmpty(t, task.MaxFeePerGas)
	require.NotEmpty(t, task.MaxPriorityFeePerGas)
}

func TestSubmitTransactionReverted(t *testing.T) {
	client := healthyClient()
	client.TransactionReceiptFn = func(context.Context, common.Hash) (*coretypes.Receipt, error) {
		return minedReceipt(coretypes.ReceiptStatusFailed), nil
	}
	f := newFixture(t, relayConfig(), client)

	result, err := f.svc.SubmitTransaction(t.Context(), submitRequest())
	require.NoError(t, err)
	require.True(t, result.Success)

	task := waitForStatus(t, f, result.TaskID, store.StatusFailed)
	require.Equal(t, "Transaction reverted", task.Error)
}

func TestSubmitTransactionConfirmationTimeout(t *testing.T) {
	cfg := relayConfig()
	cfg.MonitorMaxAttempts = 3

	// receipt never appears
	f := newFixture(t, cfg, healthyClient())

	result, err := f.svc.SubmitTransaction(t.Context(), submitRequest())
	require.NoError(t, err)
	require.True(t, result.Success)

	task := waitForStatus(t, f, result.TaskID, store.StatusFailed)
	require.Equal(t, "Transaction confirmation timeout", task.Error)
}

func TestSubmitTransactionUnsupportedChain(t *testing.T) {
	f := newFixture(t, relayConfig(), healthyClient())

	req := submitRequest()
	req.ChainID = 999
	_, err := f.svc.SubmitTransaction(t.Context(), req)
	require.ErrorIs(t, err, relay.ErrUnsupportedChain)
	require.False(t, f.svc.IsSupported(999))
	require.True(t, f.svc.IsSupported(31337))
}

func TestSubmitTransactionFailsInBand(t *testing.T) {
	client := healthyClient()
	client.SendTransactionFn = func(context.Context, *coretypes.Transaction) error {
		return errors.New("insufficient funds for gas * price + value")
	}
	f := newFixture(t, relayConfig(), client)

	result, err := f.svc.SubmitTransaction(t.Context(), submitRequest())
	require.NoError(t, err)
	require.False(t, result.Success)
	require.Contains(t, result.Message, "insufficient funds")

	task, err := f.store.Get(t.Context(), result.TaskID)
	require.NoError(t, err)
	require.Equal(t, store.StatusFailed, task.Status)
	require.Contains(t, task.Error, "insufficient funds")
}

func TestSubmitTransactionRejectsExcessiveGasOverrides(t *testing.T) {
	f := newFixture(t, relayConfig(), healthyClient())

	req := submitRequest()
	req.GasLimit = 21000
	req.GasPrice = big.NewInt(101 * gwei).String()

	result, err := f.svc.SubmitTransaction(t.Context(), req)
	require.NoError(t, err)
	require.False(t, result.Success)
	require.Contains(t, result.Message, "gas parameters exceed configured limits")

	task, err := f.store.Get(t.Context(), result.TaskID)
	require.NoError(t, err)
	require.Equal(t, store.StatusFailed, task.Status)
}

func TestSubmitTransactionHonorsLegacyOverride(t *testing.T) {
	var sent *coretypes.Transaction
	client := healthyClient()
	client.SendTransactionFn = func(_ context.Context, tx *coretypes.Transaction) error {
		sent = tx
		return nil
	}
	f := newFixture(t, relayConfig(), client)

	req := submitRequest()
	req.GasLimit = 30000
	req.GasPrice = big.NewInt(20 * gwei).String()

	result, err := f.svc.SubmitTransaction(t.Context(), req)
	require.NoError(t, err)
	require.True(t, result.Success)

	require.Equal(t, coretypes.LegacyTxType, int(sent.Type()))
	require.EqualValues(t, 30000, sent.Gas())
	require.Equal(t, big.NewInt(20*gwei), sent.GasPrice())
}

func TestCancelTaskPendingOnly(t *testing.T) {
	f := newFixture(t, relayConfig(), healthyClient())

	pending := &store.Task{
		TaskID:  "11111111-1111-1111-1111-111111111111",
		ChainID: 31337,
		Target:  "0xAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAA1111",
		User:    "0xbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb2222",
		Status:  store.StatusPending,
	}
	require.NoError(t, f.store.Create(t.Context(), pending))

	cancelled, err := f.svc.CancelTask(t.Context(), pending.TaskID)
	require.NoError(t, err)
	require.True(t, cancelled)

	task, err := f.store.Get(t.Context(), pending.TaskID)
	require.NoError(t, err)
	require.Equal(t, store.StatusCancelled, task.Status)

	// already terminal
	cancelled, err = f.svc.CancelTask(t.Context(), pending.TaskID)
	require.NoError(t, err)
	require.False(t, cancelled)
}

func TestCancelTaskAfterBroadcast(t *testing.T) {
	f := newFixture(t, relayConfig(), healthyClient())

	result, err := f.svc.SubmitTransaction(t.Context(), submitRequest())
	require.NoError(t, err)
	require.True(t, result.Success)

	cancelled, err := f.svc.CancelTask(t.Context(), result.TaskID)
	require.NoError(t, err)
	require.False(t, cancelled)
}

func TestCancelTaskUnknown(t *testing.T) {
	f := newFixture(t, relayConfig(), healthyClient())

	_, err := f.svc.CancelTask(t.Context(), "22222222-2222-2222-2222-222222222222")
	require.ErrorIs(t, err, store.ErrTaskNotFound)
}

func TestListTasksByUserNormalizesAddress(t *testing.T) {
	f := newFixture(t, relayConfig(), healthyClient())

	result, err := f.svc.SubmitTransaction(t.Context(), submitRequest())
	require.NoError(t, err)

	tasks, err := f.svc.ListTasksByUser(t.Context(), "0xBBBBBBBBBBBBBBBBBBBBBBBBBBBBBBBBBBBB2222", 0, 10)
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	require.Equal(t, result.TaskID, tasks[0].TaskID)

	tasks, err = f.svc.ListTasksByUser(t.Context(), "0xbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb2222", 31337, 10)
	require.NoError(t, err)
	require.Len(t, tasks, 1)
}

func TestCheckHealthConjunctive(t *testing.T) {
	f := newFixture(t, relayConfig(), healthyClient())

	health := f.svc.CheckHealth(t.Context())
	require.True(t, health.Wallet)
	require.True(t, health.GasEstimator)
	require.True(t, health.TaskTracker)
	require.True(t, health.Healthy())

	require.False(t, relay.Health{Wallet: true, GasEstimator: true}.Healthy())
}
