package relay_test

import (
	"context"
	"net/http"
	"testing"

	"github.com/go-openapi/swag"
	"github.com/stretchr/testify/require"
	"github/chapool/gas-relay/internal/api"
	"github/chapool/gas-relay/internal/relay/store"
	"github/chapool/gas-relay/internal/test"
	"github/chapool/gas-relay/internal/types"
)

func TestPostCancelTaskPending(t *testing.T) {
	test.WithTestServer(t, func(s *api.Server) {
		pending := &store.Task{
			TaskID:  "11111111-1111-1111-1111-111111111111",
			ChainID: test.TestChainID,
			Target:  "0xaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa1111",
			User:    "0xbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb2222",
			Status:  store.StatusPending,
		}
		require.NoError(t, s.Store.Create(context.Background(), pending))

		res := test.PerformRequest(t, s, "POST", "/api/v1/relay/cancel/"+pending.TaskID, nil, nil)
		require.Equal(t, http.StatusOK, res.Result().StatusCode)

		var response types.CancelTaskResponse
		test.ParseResponseAndValidate(t, res, &response)
		require.True(t, swag.BoolValue(response.Success))
	})
}

func TestPostCancelTaskAlreadySubmitted(t *testing.T) {
	test.WithTestServer(t, func(s *api.Server) {
		res := test.PerformRequest(t, s, "POST", "/api/v1/relay/submit", submitPayload(), nil)
		require.Equal(t, http.StatusOK, res.Result().StatusCode)

		var submitted types.SubmitTransactionResponse
		test.ParseResponseAndValidate(t, res, &submitted)

		res = test.PerformRequest(t, s, "POST", "/api/v1/relay/cancel/"+submitted.TaskID.String(), nil, nil)
		require.Equal(t, http.StatusOK, res.Result().StatusCode)

		var response types.CancelTaskResponse
		test.ParseResponseAndValidate(t, res, &response)
		require.False(t, swag.BoolValue(response.Success))
	})
}

func TestPostCancelTaskNotFound(t *testing.T) {
	test.WithTestServer(t, func(s *api.Server) {
		res := test.PerformRequest(t, s, "POST", "/api/v1/relay/cancel/22222222-2222-2222-2222-222222222222", nil, nil)
		require.Equal(t, http.StatusNotFound, res.Result().StatusCode)
	})
}
