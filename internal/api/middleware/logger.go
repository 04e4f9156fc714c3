package middleware

import (
	"time"

	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog/log"
	"github/chapool/gas-relay/internal/config"
)

// Logger attaches a request-scoped zerolog logger to the request context and
// emits one line per request at the configured level.
func Logger(cfg config.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			req := c.Request()

			requestID := req.Header.Get(echo.HeaderXRequestID)
			if requestID == "" {
				requestID = c.Response().Header().Get(echo.HeaderXRequestID)
			}

			logger := log.With().
				Str("request_id", requestID).
				Str("method", req.Method).
				Str("path", req.URL.Path).
				Logger()
			c.SetRequest(req.WithContext(logger.WithContext(req.Context())))

			err := next(c)
			if err != nil {
				c.Error(err)
			}

			logger.WithLevel(cfg.RequestLevel).
				Int("status", c.Response().Status).
				Int64("bytes_out", c.Response().Size).
				Dur("duration", time.Since(start)).
				Msg("Handled request")

			return err
		}
	}
}

// BodyDumpHandler logs request/response bodies at debug level, gated per
// direction by the logger config.
func BodyDumpHandler(cfg config.Logger) echomiddleware.BodyDumpHandler {
	return func(c echo.Context, reqBody, resBody []byte) {
		event := log.Debug().
			Str("method", c.Request().Method).
			Str("path", c.Request().URL.Path)

		if cfg.LogRequestBody {
			event = event.Bytes("request_body", reqBody)
		}
		if cfg.LogResponseBody {
			event = event.Bytes("response_body", resBody)
		}

		event.Msg("Request body dump")
	}
}
