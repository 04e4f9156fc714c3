package relay

import (
	"net/http"

	"github.com/go-openapi/strfmt"
	"github.com/go-openapi/swag"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"github/chapool/gas-relay/internal/api"
	"github/chapool/gas-relay/internal/api/httperrors"
	"github/chapool/gas-relay/internal/relay"
	"github/chapool/gas-relay/internal/types"
	"github/chapool/gas-relay/internal/util"
)

func PostSubmitTransactionRoute(s *api.Server) *echo.Route {
	return s.Router.APIV1Relay.POST("/submit", postSubmitTransactionHandler(s))
}

func postSubmitTransactionHandler(s *api.Server) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()
		log := util.LogFromContext(ctx)

		var body types.PostSubmitTransactionPayload
		if err := util.BindAndValidateBody(c, &body); err != nil {
			return err
		}

		if body.GasLimit < 0 {
			return httperrors.NewHTTPValidationError(
				http.StatusBadRequest,
				types.PublicHTTPErrorTypeInvalidGasParams,
				"Invalid gas parameters",
				[]*types.HTTPValidationErrorDetail{
					{
						Key:   swag.String("gasLimit"),
						In:    swag.String("body"),
						Error: swag.String("must not be negative"),
					},
				},
			)
		}

		result, err := s.Relay.SubmitTransaction(ctx, &relay.SubmitRequest{
			ChainID:              *body.ChainID,
			Target:               *body.Target,
			Data:                 *body.Data,
			User:                 *body.User,
			GasLimit:             uint64(body.GasLimit),
			GasPrice:             body.GasPrice,
			MaxFeePerGas:         body.MaxFeePerGas,
			MaxPriorityFeePerGas: body.MaxPriorityFeePerGas,
		})
		if errors.Is(err, relay.ErrUnsupportedChain) {
			return httperrors.NewHTTPError(http.StatusBadRequest, types.PublicHTTPErrorTypeUnsupportedChain, "Chain is not supported")
		}
		if err != nil {
			log.Error().Err(err).Msg("Failed to submit transaction")
			return httperrors.NewHTTPError(http.StatusInternalServerError, types.PublicHTTPErrorTypeGeneric, "Failed to submit transaction")
		}

		taskID := strfmt.UUID(result.TaskID)
		response := &types.SubmitTransactionResponse{
			TaskID:  &taskID,
			Success: swag.Bool(result.Success),
			Message: result.Message,
		}

		return util.ValidateAndReturn(c, http.StatusOK, response)
	}
}
