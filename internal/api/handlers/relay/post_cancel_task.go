package relay

import (
	"net/http"

	"github.com/go-openapi/swag"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"github/chapool/gas-relay/internal/api"
	"github/chapool/gas-relay/internal/api/httperrors"
	"github/chapool/gas-relay/internal/relay/store"
	"github/chapool/gas-relay/internal/types"
	"github/chapool/gas-relay/internal/util"
)

func PostCancelTaskRoute(s *api.Server) *echo.Route {
	return s.Router.APIV1Relay.POST("/cancel/:taskId", postCancelTaskHandler(s))
}

// postCancelTaskHandler cancels a task that was not broadcast yet. Cancel is
// best effort: a task already on its way reports success=false, not an error.
func postCancelTaskHandler(s *api.Server) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()
		log := util.LogFromContext(ctx)

		taskID := c.Param("taskId")
		if _, err := uuid.Parse(taskID); err != nil {
			return httperrors.NewHTTPError(http.StatusBadRequest, types.PublicHTTPErrorTypeGeneric, "Invalid task id")
		}

		cancelled, err := s.Relay.CancelTask(ctx, taskID)
		if errors.Is(err, store.ErrTaskNotFound) {
			return httperrors.NewHTTPError(http.StatusNotFound, types.PublicHTTPErrorTypeTaskNotFound, "Task not found")
		}
		if err != nil {
			log.Error().Err(err).Str("task_id", taskID).Msg("Failed to cancel task")
			return httperrors.NewHTTPError(http.StatusInternalServerError, types.PublicHTTPErrorTypeGeneric, "Failed to cancel task")
		}

		response := &types.CancelTaskResponse{
			Success: swag.Bool(cancelled),
		}
		if cancelled {
			response.Message = "Task cancelled"
		} else {
			response.Message = "Task can no longer be cancelled"
		}

		return util.ValidateAndReturn(c, http.StatusOK, response)
	}
}
