package relay_test

import (
	"context"
	"math/big"
	"net/http"
	"testing"

	coretypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/go-openapi/swag"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
	"github/chapool/gas-relay/internal/api"
	"github/chapool/gas-relay/internal/test"
	"github/chapool/gas-relay/internal/types"
)

func TestGetHealth(t *testing.T) {
	test.WithTestServer(t, func(s *api.Server) {
		res := test.PerformRequest(t, s, "GET", "/api/v1/relay/health", nil, nil)
		require.Equal(t, http.StatusOK, res.Result().StatusCode)

		var response types.GetHealthResponse
		test.ParseResponseAndValidate(t, res, &response)
		require.True(t, swag.BoolValue(response.Healthy))
		require.True(t, swag.BoolValue(response.Components.Wallet))
		require.True(t, swag.BoolValue(response.Components.GasEstimator))
		require.True(t, swag.BoolValue(response.Components.TaskTracker))
		require.Equal(t, []int64{test.TestChainID}, response.SupportedChains)
	})
}

func TestGetHealthDegraded(t *testing.T) {
	client := test.DefaultTestClient()
	client.HeaderByNumberFn = func(context.Context, *big.Int) (*coretypes.Header, error) {
		return nil, errors.New("connection refused")
	}

	test.WithTestServerClient(t, client, func(s *api.Server) {
		res := test.PerformRequest(t, s, "GET", "/api/v1/relay/health", nil, nil)
		require.Equal(t, http.StatusServiceUnavailable, res.Result().StatusCode)

		var response types.GetHealthResponse
		test.ParseResponseAndValidate(t, res, &response)
		require.False(t, swag.BoolValue(response.Healthy))
		require.False(t, swag.BoolValue(response.Components.GasEstimator))
		require.True(t, swag.BoolValue(response.Components.TaskTracker))
	})
}
