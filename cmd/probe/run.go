package probe

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github/chapool/gas-relay/internal/config"
)

const probeTimeout = 5 * time.Second

// runProbe hits a management endpoint of the locally listening server and
// exits non-zero unless it answers 200.
func runProbe(path string, verbose bool) {
	cfg := config.DefaultServiceConfigFromEnv()
	config.InitLogger(cfg.Logger)

	listen := cfg.Echo.ListenAddress
	if strings.HasPrefix(listen, ":") {
		listen = "localhost" + listen
	}
	url := fmt.Sprintf("http://%s%s", listen, path)

	client := &http.Client{Timeout: probeTimeout}
	res, err := client.Get(url)
	if err != nil {
		log.Error().Err(err).Str("url", url).Msg("Probe request failed")
		os.Exit(1)
	}
	defer res.Body.Close()

	body, err := io.ReadAll(res.Body)
	if err != nil {
		log.Error().Err(err).Str("url", url).Msg("Failed to read probe response")
		os.Exit(1)
	}

	if verbose {
		fmt.Println(string(body))
	}

	if res.StatusCode != http.StatusOK {
		log.Error().Int("status", res.StatusCode).Str("url", url).Msg("Probe failed")
		os.Exit(1)
	}
}
