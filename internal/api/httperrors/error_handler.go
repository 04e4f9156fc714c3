package httperrors

import (
	"net/http"

	"github.com/go-openapi/swag"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
	"github/chapool/gas-relay/internal/types"
)

// HandlerWithConfig returns the central echo error handler. Every error that
// escapes a handler is normalized into a PublicHTTPError payload here.
func HandlerWithConfig(hideInternalServerErrorDetails bool) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		var code int
		var payload interface{}

		switch e := err.(type) {
		case *HTTPError:
			code = int(swag.Int64Value(e.Code))
			if e.Internal != nil && !hideInternalServerErrorDetails && e.Detail == "" {
				e.Detail = e.Internal.Error()
			}
			payload = e.PublicHTTPError
		case *HTTPValidationError:
			code = int(swag.Int64Value(e.Code))
			payload = e.PublicHTTPValidationError
		case *echo.HTTPError:
			code = e.Code
			title := http.StatusText(e.Code)
			if msg, ok := e.Message.(string); ok && !hideInternalServerErrorDetails {
				title = msg
			}
			payload = types.PublicHTTPError{
				Code:  swag.Int64(int64(e.Code)),
				Type:  swag.String(types.PublicHTTPErrorTypeGeneric),
				Title: swag.String(title),
			}
		default:
			code = http.StatusInternalServerError
			publicErr := types.PublicHTTPError{
				Code:  swag.Int64(int64(http.StatusInternalServerError)),
				Type:  swag.String(types.PublicHTTPErrorTypeGeneric),
				Title: swag.String(http.StatusText(http.StatusInternalServerError)),
			}
			if !hideInternalServerErrorDetails {
				publicErr.Detail = err.Error()
			}
			payload = publicErr
		}

		if writeErr := c.JSON(code, payload); writeErr != nil {
			log.Ctx(c.Request().Context()).Error().Err(writeErr).Msg("Failed to write error response")
		}
	}
}
