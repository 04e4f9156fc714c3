package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
	"github/chapool/gas-relay/internal/cache"
	"github/chapool/gas-relay/internal/config"
	"github/chapool/gas-relay/internal/metrics"
	"github/chapool/gas-relay/internal/relay"
	"github/chapool/gas-relay/internal/relay/gas"
	"github/chapool/gas-relay/internal/relay/provider"
	"github/chapool/gas-relay/internal/relay/store"
	"github/chapool/gas-relay/internal/relay/submitter"

	// Import postgres driver for database/sql package
	_ "github.com/lib/pq"
)

type Router struct {
	Routes     []*echo.Route
	Root       *echo.Group
	Management *echo.Group
	APIV1Relay *echo.Group
}

// Server is a central struct keeping all the dependencies. Components are
// initialized by InitComponents in dependency order; the router is attached
// afterwards with router.Init(s).
type Server struct {
	// -> initialized with router.Init(s) function
	Echo   *echo.Echo
	Router *Router

	Config    config.Server
	Store     store.Store
	Cache     cache.Cache
	Pool      *provider.Pool
	Gas       gas.Service
	Submitter submitter.Service
	Relay     relay.Service
	Metrics   *metrics.Metrics
}

func NewServer(config config.Server) *Server {
	s := &Server{
		Config: config,
	}

	return s
}

// InitComponents initializes everything below the router. The provider pool
// is bootstrapped eagerly so a misconfigured chain fails startup, not the
// first request.
func (s *Server) InitComponents(ctx context.Context) error {
	taskStore, err := store.NewPostgres(ctx, s.Config.Database.ConnectionString())
	if err != nil {
		return err
	}
	s.Store = taskStore

	if s.Config.Redis.Enabled {
		redisCache, err := cache.NewRedis(ctx, s.Config.Redis)
		if err != nil {
			return err
		}
		s.Cache = redisCache
	} else {
		s.Cache = cache.NewMemory()
	}

	s.Metrics = metrics.New()

	s.Pool = provider.NewPool(s.Config.RPC, s.Cache, nil)
	s.Pool.OnFailover(s.Metrics.ProviderFailover)
	if err := s.Pool.Bootstrap(s.Config.Relay.SupportedChainIDs); err != nil {
		return err
	}

	s.Gas = gas.NewService(s.Config.Relay, s.Config.RPC, s.Pool, s.Cache)

	submitService, err := submitter.NewService(s.Config.Relay, s.Pool)
	if err != nil {
		return err
	}
	s.Submitter = submitService

	s.Relay = relay.NewService(s.Config.Relay, s.Store, s.Gas, s.Submitter, s.Metrics)

	return nil
}

func (s *Server) Ready() bool {
	if s.Echo == nil ||
		s.Router == nil ||
		s.Store == nil ||
		s.Cache == nil ||
		s.Pool == nil ||
		s.Gas == nil ||
		s.Submitter == nil ||
		s.Relay == nil ||
		s.Metrics == nil {
		log.Debug().Msg("Server is not fully initialized")
		return false
	}

	return s.Store.HealthProbe(context.Background())
}

func (s *Server) Start() error {
	if !s.Ready() {
		return errors.New("server is not ready")
	}

	return s.Echo.Start(s.Config.Echo.ListenAddress)
}

func (s *Server) Shutdown(ctx context.Context) []error {
	log.Warn().Msg("Shutting down server")

	var errs []error

	if s.Relay != nil {
		log.Debug().Msg("Stopping confirmation monitors")
		s.Relay.Shutdown()
	}

	if s.Echo != nil {
		log.Debug().Msg("Shutting down echo server")

		if err := s.Echo.Shutdown(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("Failed to shutdown echo server")
			errs = append(errs, err)
		}
	}

	if s.Pool != nil {
		log.Debug().Msg("Closing RPC clients")
		s.Pool.Close()
	}

	if s.Store != nil {
		log.Debug().Msg("Closing task store")

		if err := s.Store.Close(); err != nil {
			log.Error().Err(err).Msg("Failed to close task store")
			errs = append(errs, err)
		}
	}

	return errs
}
