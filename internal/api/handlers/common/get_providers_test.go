package common_test

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"
	"github/chapool/gas-relay/internal/api"
	"github/chapool/gas-relay/internal/test"
)

func TestGetProviders(t *testing.T) {
	test.WithTestServer(t, func(s *api.Server) {
		res := test.PerformRequest(t, s, "GET", "/-/providers", nil, nil)
		require.Equal(t, http.StatusOK, res.Result().StatusCode)

		var report []struct {
			ChainID   int64           `json:"chainId"`
			Count     int             `json:"count"`
			Endpoints []string        `json:"endpoints"`
			Health    map[string]bool `json:"health"`
		}
		require.NoError(t, json.Unmarshal(res.Body.Bytes(), &report))
		require.Len(t, report, 1)
		require.Equal(t, test.TestChainID, report[0].ChainID)
		require.Equal(t, []string{"primary"}, report[0].Endpoints)
		require.Equal(t, map[string]bool{"primary": true}, report[0].Health)
	})
}
