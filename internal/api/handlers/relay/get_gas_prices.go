package relay

import (
	"net/http"
	"strconv"

	"github.com/go-openapi/swag"
	"github.com/labstack/echo/v4"
	"github/chapool/gas-relay/internal/api"
	"github/chapool/gas-relay/internal/api/httperrors"
	"github/chapool/gas-relay/internal/types"
	"github/chapool/gas-relay/internal/util"
)

func GetGasPricesRoute(s *api.Server) *echo.Route {
	return s.Router.APIV1Relay.GET("/gas-prices/:chainId", getGasPricesHandler(s))
}

func getGasPricesHandler(s *api.Server) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()
		log := util.LogFromContext(ctx)

		chainID, err := strconv.ParseInt(c.Param("chainId"), 10, 64)
		if err != nil {
			return httperrors.NewHTTPError(http.StatusBadRequest, types.PublicHTTPErrorTypeGeneric, "Invalid chain id")
		}
		if !s.Relay.IsSupported(chainID) {
			return httperrors.NewHTTPError(http.StatusBadRequest, types.PublicHTTPErrorTypeUnsupportedChain, "Chain is not supported")
		}

		prices, err := s.Gas.GetGasPrices(ctx, chainID)
		if err != nil {
			log.Error().Err(err).Int64("chain_id", chainID).Msg("Failed to get gas prices")
			return httperrors.NewHTTPError(http.StatusServiceUnavailable, types.PublicHTTPErrorTypeGeneric, "Failed to get gas prices")
		}

		response := &types.GasPricesResponse{
			ChainID:  swag.Int64(chainID),
			Slow:     swag.String(prices.Slow.String()),
			Standard: swag.String(prices.Standard.String()),
			Fast:     swag.String(prices.Fast.String()),
		}

		return util.ValidateAndReturn(c, http.StatusOK, response)
	}
}
