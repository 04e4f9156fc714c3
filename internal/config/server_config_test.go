package config_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
	"github/chapool/gas-relay/internal/config"
)

func TestPrintServiceEnv(t *testing.T) {
	config := config.DefaultServiceConfigFromEnv()
	_, err := json.MarshalIndent(config, "", "  ")

	if err != nil {
		t.Fatal(err)
	}
}

func TestDefaultsCoverSupportedChains(t *testing.T) {
	cfg := config.DefaultServiceConfigFromEnv()

	require.ElementsMatch(t, []int64{1, 11155111, 31337}, cfg.Relay.SupportedChainIDs)
	require.Equal(t, 60, cfg.Relay.MonitorMaxAttempts)
	require.EqualValues(t, 10000000, cfg.Relay.MaxGasLimit)
}

func TestParseEndpointSpec(t *testing.T) {
	endpoints := config.ParseEndpointSpec("alchemy=https://a.example; infura=https://b.example;https://c.example")

	require.Len(t, endpoints, 3)
	require.Equal(t, "alchemy", endpoints[0].Name)
	require.Equal(t, "https://a.example", endpoints[0].URL)
	require.Equal(t, 1, endpoints[0].Priority)
	require.Equal(t, "infura", endpoints[1].Name)
	require.Equal(t, 2, endpoints[1].Priority)
	require.Equal(t, "endpoint-3", endpoints[2].Name)
	require.Equal(t, "https://c.example", endpoints[2].URL)
}

func TestParseEndpointSpecEmpty(t *testing.T) {
	require.Nil(t, config.ParseEndpointSpec(""))
	require.Nil(t, config.ParseEndpointSpec(" ; ;"))
}
