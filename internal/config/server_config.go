package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/viper"
)

// EchoServer holds the HTTP listener settings.
type EchoServer struct {
	ListenAddress                  string
	HideInternalServerErrorDetails bool
	GracefulShutdownTimeout        time.Duration
}

// Database holds the Postgres connection settings for the task store.
type Database struct {
	Host     string
	Port     int
	Username string
	Password string `json:"-"` // sensitive
	Database string
	SSLMode  string
}

// ConnectionString builds a lib/pq compatible DSN.
func (d Database) ConnectionString() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.Username, d.Password, d.Database, d.SSLMode)
}

// Redis holds the shared cache connection settings.
type Redis struct {
	Enabled  bool
	Address  string
	Password string `json:"-"` // sensitive
	DB       int
}

// RPCEndpoint is one statically declared chain endpoint. Priority is
// ascending: lower numbers are preferred.
type RPCEndpoint struct {
	Name     string
	URL      string
	Priority int
}

// RPC holds the provider pool settings.
type RPC struct {
	Endpoints        map[int64][]RPCEndpoint
	AttemptTimeout   time.Duration
	HealthTimeout    time.Duration
	HealthCacheTTL   time.Duration
	GasPriceCacheTTL time.Duration
}

// Relay holds the orchestration and gas policy settings.
type Relay struct {
	SupportedChainIDs  []int64
	SignerPrivateKey   string `json:"-"` // sensitive
	MonitorInterval    time.Duration
	MonitorMaxAttempts int
	DefaultGasLimit    uint64
	MaxGasLimit        uint64
	GasPriceMultiplier float64
	MaxGasPriceGwei    int64
}

// Logger holds the zerolog settings.
type Logger struct {
	Level              zerolog.Level
	RequestLevel       zerolog.Level
	LogRequestBody     bool
	LogResponseBody    bool
	PrettyPrintConsole bool
}

// Server is the aggregated service configuration, loaded once from ENV.
type Server struct {
	Echo     EchoServer
	Database Database
	Redis    Redis
	RPC      RPC
	Relay    Relay
	Logger   Logger
}

// DefaultServiceConfigFromEnv returns the server config as parsed from the
// environment, applying defaults for everything that is not set.
func DefaultServiceConfigFromEnv() Server {
	v := viper.New()
	v.AutomaticEnv()

	v.SetDefault("SERVER_ECHO_LISTEN_ADDRESS", ":8080")
	v.SetDefault("SERVER_ECHO_HIDE_INTERNAL_SERVER_ERROR_DETAILS", true)
	v.SetDefault("SERVER_ECHO_GRACEFUL_SHUTDOWN_TIMEOUT_SECONDS", 10)

	v.SetDefault("PGHOST", "localhost")
	v.SetDefault("PGPORT", 5432)
	v.SetDefault("PGUSER", "dbuser")
	v.SetDefault("PGPASSWORD", "")
	v.SetDefault("PGDATABASE", "gas_relay")
	v.SetDefault("PGSSLMODE", "disable")

	v.SetDefault("REDIS_ENABLED", false)
	v.SetDefault("REDIS_ADDRESS", "localhost:6379")
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("RELAY_SUPPORTED_CHAIN_IDS", "1,11155111,31337")
	v.SetDefault("RELAY_SIGNER_PRIVATE_KEY", "")
	v.SetDefault("RELAY_MONITOR_INTERVAL_MS", 5000)
	v.SetDefault("RELAY_MONITOR_MAX_ATTEMPTS", 60)
	v.SetDefault("RELAY_DEFAULT_GAS_LIMIT", 500000)
	v.SetDefault("RELAY_MAX_GAS_LIMIT", 10000000)
	v.SetDefault("RELAY_GAS_PRICE_MULTIPLIER", 1.1)
	v.SetDefault("RELAY_MAX_GAS_PRICE_GWEI", 100)

	v.SetDefault("RPC_ATTEMPT_TIMEOUT_SECONDS", 8)
	v.SetDefault("RPC_HEALTH_TIMEOUT_SECONDS", 5)
	v.SetDefault("RPC_HEALTH_CACHE_TTL_SECONDS", 300)
	v.SetDefault("RPC_GAS_PRICE_CACHE_TTL_SECONDS", 60)

	v.SetDefault("LOGGER_LEVEL", "debug")
	v.SetDefault("LOGGER_REQUEST_LEVEL", "debug")
	v.SetDefault("LOGGER_LOG_REQUEST_BODY", false)
	v.SetDefault("LOGGER_LOG_RESPONSE_BODY", false)
	v.SetDefault("LOGGER_PRETTY_PRINT_CONSOLE", false)

	supportedChainIDs := parseChainIDList(v.GetString("RELAY_SUPPORTED_CHAIN_IDS"))

	endpoints := make(map[int64][]RPCEndpoint, len(supportedChainIDs))
	for _, chainID := range supportedChainIDs {
		key := fmt.Sprintf("RPC_ENDPOINTS_%d", chainID)
		v.SetDefault(key, "")
		if parsed := ParseEndpointSpec(v.GetString(key)); len(parsed) > 0 {
			endpoints[chainID] = parsed
		}
	}

	return Server{
		Echo: EchoServer{
			ListenAddress:                  v.GetString("SERVER_ECHO_LISTEN_ADDRESS"),
			HideInternalServerErrorDetails: v.GetBool("SERVER_ECHO_HIDE_INTERNAL_SERVER_ERROR_DETAILS"),
			GracefulShutdownTimeout:        time.Duration(v.GetInt64("SERVER_ECHO_GRACEFUL_SHUTDOWN_TIMEOUT_SECONDS")) * time.Second,
		},
		Database: Database{
			Host:     v.GetString("PGHOST"),
			Port:     v.GetInt("PGPORT"),
			Username: v.GetString("PGUSER"),
			Password: v.GetString("PGPASSWORD"),
			Database: v.GetString("PGDATABASE"),
			SSLMode:  v.GetString("PGSSLMODE"),
		},
		Redis: Redis{
			Enabled:  v.GetBool("REDIS_ENABLED"),
			Address:  v.GetString("REDIS_ADDRESS"),
			Password: v.GetString("REDIS_PASSWORD"),
			DB:       v.GetInt("REDIS_DB"),
		},
		RPC: RPC{
			Endpoints:        endpoints,
			AttemptTimeout:   time.Duration(v.GetInt64("RPC_ATTEMPT_TIMEOUT_SECONDS")) * time.Second,
			HealthTimeout:    time.Duration(v.GetInt64("RPC_HEALTH_TIMEOUT_SECONDS")) * time.Second,
			HealthCacheTTL:   time.Duration(v.GetInt64("RPC_HEALTH_CACHE_TTL_SECONDS")) * time.Second,
			GasPriceCacheTTL: time.Duration(v.GetInt64("RPC_GAS_PRICE_CACHE_TTL_SECONDS")) * time.Second,
		},
		Relay: Relay{
			SupportedChainIDs:  supportedChainIDs,
			SignerPrivateKey:   v.GetString("RELAY_SIGNER_PRIVATE_KEY"),
			MonitorInterval:    time.Duration(v.GetInt64("RELAY_MONITOR_INTERVAL_MS")) * time.Millisecond,
			MonitorMaxAttempts: v.GetInt("RELAY_MONITOR_MAX_ATTEMPTS"),
			DefaultGasLimit:    v.GetUint64("RELAY_DEFAULT_GAS_LIMIT"),
			MaxGasLimit:        v.GetUint64("RELAY_MAX_GAS_LIMIT"),
			GasPriceMultiplier: v.GetFloat64("RELAY_GAS_PRICE_MULTIPLIER"),
			MaxGasPriceGwei:    v.GetInt64("RELAY_MAX_GAS_PRICE_GWEI"),
		},
		Logger: Logger{
			Level:              parseLogLevel(v.GetString("LOGGER_LEVEL")),
			RequestLevel:       parseLogLevel(v.GetString("LOGGER_REQUEST_LEVEL")),
			LogRequestBody:     v.GetBool("LOGGER_LOG_REQUEST_BODY"),
			LogResponseBody:    v.GetBool("LOGGER_LOG_RESPONSE_BODY"),
			PrettyPrintConsole: v.GetBool("LOGGER_PRETTY_PRINT_CONSOLE"),
		},
	}
}

// ParseEndpointSpec parses an ordered endpoint declaration of the form
// "alchemy=https://a.example;infura=https://b.example". Priority follows
// declaration order. Entries without a name get a generated one.
func ParseEndpointSpec(spec string) []RPCEndpoint {
	spec = strings.TrimSpace(spec)
	if spec == "" {
		return nil
	}

	parts := strings.Split(spec, ";")
	endpoints := make([]RPCEndpoint, 0, len(parts))

	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}

		name, url, found := strings.Cut(part, "=")
		if !found {
			url = name
			name = ""
		}

		name = strings.TrimSpace(name)
		url = strings.TrimSpace(url)
		if url == "" {
			continue
		}
		if name == "" {
			name = fmt.Sprintf("endpoint-%d", len(endpoints)+1)
		}

		endpoints = append(endpoints, RPCEndpoint{
			Name:     name,
			URL:      url,
			Priority: len(endpoints) + 1,
		})
	}

	return endpoints
}

func parseChainIDList(raw string) []int64 {
	parts := strings.Split(raw, ",")
	ids := make([]int64, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		var id int64
		if _, err := fmt.Sscanf(part, "%d", &id); err == nil {
			ids = append(ids, id)
		}
	}
	return ids
}

func parseLogLevel(raw string) zerolog.Level {
	level, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(raw)))
	if err != nil {
		return zerolog.DebugLevel
	}
	return level
}
