package common

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github/chapool/gas-relay/internal/api"
	"github/chapool/gas-relay/internal/util"
)

// providerChainStatus is the per-chain slice of the provider report.
type providerChainStatus struct {
	ChainID   int64           `json:"chainId"`
	Count     int             `json:"count"`
	Current   string          `json:"current,omitempty"`
	Endpoints []string        `json:"endpoints"`
	Health    map[string]bool `json:"health"`
}

func GetProvidersRoute(s *api.Server) *echo.Route {
	return s.Router.Management.GET("/providers", getProvidersHandler(s))
}

// getProvidersHandler reports endpoint inventory and per-endpoint health for
// every supported chain. Health results come from the shared cache within its
// TTL, so probing here is cheap.
func getProvidersHandler(s *api.Server) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()
		log := util.LogFromContext(ctx)

		report := make([]providerChainStatus, 0, len(s.Config.Relay.SupportedChainIDs))
		for _, chainID := range s.Config.Relay.SupportedChainIDs {
			stats, err := s.Pool.GetStats(chainID)
			if err != nil {
				log.Warn().Int64("chain_id", chainID).Err(err).Msg("Failed to get provider stats")
				continue
			}

			health, err := s.Pool.CheckHealth(ctx, chainID)
			if err != nil {
				log.Warn().Int64("chain_id", chainID).Err(err).Msg("Failed to check provider health")
				health = map[string]bool{}
			}

			report = append(report, providerChainStatus{
				ChainID:   stats.ChainID,
				Count:     stats.Count,
				Current:   stats.Current,
				Endpoints: stats.Endpoints,
				Health:    health,
			})
		}

		return c.JSON(http.StatusOK, report)
	}
}
