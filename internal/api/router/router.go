package router

import (
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github/chapool/gas-relay/internal/api"
	"github/chapool/gas-relay/internal/api/handlers"
	"github/chapool/gas-relay/internal/api/httperrors"
	"github/chapool/gas-relay/internal/api/middleware"
)

// Init attaches the echo instance, the middleware stack and all routes to an
// initialized server.
func Init(s *api.Server) {
	s.Echo = echo.New()

	s.Echo.Debug = false
	s.Echo.HideBanner = true
	s.Echo.HidePort = true

	s.Echo.HTTPErrorHandler = httperrors.HandlerWithConfig(s.Config.Echo.HideInternalServerErrorDetails)

	s.Echo.Pre(echomiddleware.RemoveTrailingSlash())
	s.Echo.Use(echomiddleware.Recover())
	s.Echo.Use(echomiddleware.RequestID())
	s.Echo.Use(middleware.Logger(s.Config.Logger))

	if s.Config.Logger.LogRequestBody || s.Config.Logger.LogResponseBody {
		s.Echo.Use(echomiddleware.BodyDumpWithConfig(echomiddleware.BodyDumpConfig{
			Handler: middleware.BodyDumpHandler(s.Config.Logger),
		}))
	}

	if s.Metrics != nil {
		s.Echo.Use(echoprometheus.NewMiddlewareWithConfig(echoprometheus.MiddlewareConfig{
			Subsystem:  "gas_relay",
			Registerer: s.Metrics.Registry(),
		}))
	}

	s.Router = &api.Router{
		Root:       s.Echo.Group(""),
		Management: s.Echo.Group("/-"),
		APIV1Relay: s.Echo.Group("/api/v1/relay"),
	}

	if s.Metrics != nil {
		s.Router.Management.GET("/metrics", echoprometheus.NewHandlerWithConfig(echoprometheus.HandlerConfig{
			Gatherer: s.Metrics.Registry(),
		}))
	}

	handlers.AttachAllRoutes(s)
}
