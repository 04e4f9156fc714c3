package handlers

import (
	"github.com/labstack/echo/v4"
	"github/chapool/gas-relay/internal/api"
	"github/chapool/gas-relay/internal/api/handlers/common"
	"github/chapool/gas-relay/internal/api/handlers/relay"
)

// AttachAllRoutes binds every route to the server's router groups.
func AttachAllRoutes(s *api.Server) {
	s.Router.Routes = []*echo.Route{
		common.GetHealthyRoute(s),
		common.GetProvidersRoute(s),
		common.GetReadyRoute(s),
		common.GetVersionRoute(s),
		relay.GetGasPricesRoute(s),
		relay.GetHealthRoute(s),
		relay.GetTaskStatusRoute(s),
		relay.GetTasksRoute(s),
		relay.PostCancelTaskRoute(s),
		relay.PostSubmitTransactionRoute(s),
	}
}
