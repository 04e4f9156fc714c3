package relay_test

import (
	"net/http"
	"testing"

	"github.com/go-openapi/swag"
	"github.com/stretchr/testify/require"
	"github/chapool/gas-relay/internal/api"
	"github/chapool/gas-relay/internal/test"
	"github/chapool/gas-relay/internal/types"
)

func TestGetTaskStatus(t *testing.T) {
	test.WithTestServer(t, func(s *api.Server) {
		res := test.PerformRequest(t, s, "POST", "/api/v1/relay/submit", submitPayload(), nil)
		require.Equal(t, http.StatusOK, res.Result().StatusCode)

		var submitted types.SubmitTransactionResponse
		test.ParseResponseAndValidate(t, res, &submitted)

		res = test.PerformRequest(t, s, "GET", "/api/v1/relay/status/"+submitted.TaskID.String(), nil, nil)
		require.Equal(t, http.StatusOK, res.Result().StatusCode)

		var status types.TaskStatusResponse
		test.ParseResponseAndValidate(t, res, &status)
		require.Equal(t, submitted.TaskID.String(), status.TaskID.String())
		require.EqualValues(t, test.TestChainID, swag.Int64Value(status.ChainID))
		require.NotEmpty(t, swag.StringValue(status.Status))
	})
}

func TestGetTaskStatusNotFound(t *testing.T) {
	test.WithTestServer(t, func(s *api.Server) {
		res := test.PerformRequest(t, s, "GET", "/api/v1/relay/status/11111111-1111-1111-1111-111111111111", nil, nil)
		require.Equal(t, http.StatusNotFound, res.Result().StatusCode)

		var response types.PublicHTTPError
		test.ParseResponseAndValidate(t, res, &response)
		require.Equal(t, types.PublicHTTPErrorTypeTaskNotFound, swag.StringValue(response.Type))
	})
}

func TestGetTaskStatusInvalidID(t *testing.T) {
	test.WithTestServer(t, func(s *api.Server) {
		res := test.PerformRequest(t, s, "GET", "/api/v1/relay/status/not-a-uuid", nil, nil)
		require.Equal(t, http.StatusBadRequest, res.Result().StatusCode)
	})
}
