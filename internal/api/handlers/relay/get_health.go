package relay

import (
	"net/http"

	"github.com/go-openapi/swag"
	"github.com/labstack/echo/v4"
	"github/chapool/gas-relay/internal/api"
	"github/chapool/gas-relay/internal/types"
	"github/chapool/gas-relay/internal/util"
)

func GetHealthRoute(s *api.Server) *echo.Route {
	return s.Router.APIV1Relay.GET("/health", getHealthHandler(s))
}

// getHealthHandler reports per-component health. The service is healthy only
// when every component is; a degraded report answers 503 with the same body.
func getHealthHandler(s *api.Server) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()

		health := s.Relay.CheckHealth(ctx)

		response := &types.GetHealthResponse{
			Healthy: swag.Bool(health.Healthy()),
			Components: &types.HealthComponents{
				Wallet:       swag.Bool(health.Wallet),
				GasEstimator: swag.Bool(health.GasEstimator),
				TaskTracker:  swag.Bool(health.TaskTracker),
			},
			SupportedChains: s.Config.Relay.SupportedChainIDs,
		}

		code := http.StatusOK
		if !health.Healthy() {
			code = http.StatusServiceUnavailable
		}

		return util.ValidateAndReturn(c, code, response)
	}
}
