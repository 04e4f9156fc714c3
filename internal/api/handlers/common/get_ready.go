package common

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github/chapool/gas-relay/internal/api"
	"github/chapool/gas-relay/internal/util"
)

// statusNotReady follows the cloudflare convention for origin errors so load
// balancers can tell it apart from application 5xx responses.
const statusNotReady = 521

func GetReadyRoute(s *api.Server) *echo.Route {
	return s.Router.Management.GET("/ready", getReadyHandler(s))
}

// getReadyHandler reports readiness: all components initialized and the task
// store reachable.
func getReadyHandler(s *api.Server) echo.HandlerFunc {
	return func(c echo.Context) error {
		log := util.LogFromContext(c.Request().Context())

		if !s.Ready() {
			log.Warn().Msg("Readiness check failed")
			return c.String(statusNotReady, "Not ready.")
		}

		return c.String(http.StatusOK, "Ready.")
	}
}
