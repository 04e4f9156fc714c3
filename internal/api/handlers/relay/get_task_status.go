package relay

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"github/chapool/gas-relay/internal/api"
	"github/chapool/gas-relay/internal/api/httperrors"
	"github/chapool/gas-relay/internal/relay/store"
	"github/chapool/gas-relay/internal/types"
	"github/chapool/gas-relay/internal/util"
)

func GetTaskStatusRoute(s *api.Server) *echo.Route {
	return s.Router.APIV1Relay.GET("/status/:taskId", getTaskStatusHandler(s))
}

func getTaskStatusHandler(s *api.Server) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()
		log := util.LogFromContext(ctx)

		taskID := c.Param("taskId")
		if _, err := uuid.Parse(taskID); err != nil {
			return httperrors.NewHTTPError(http.StatusBadRequest, types.PublicHTTPErrorTypeGeneric, "Invalid task id")
		}

		task, err := s.Relay.GetTaskStatus(ctx, taskID)
		if errors.Is(err, store.ErrTaskNotFound) {
			return httperrors.NewHTTPError(http.StatusNotFound, types.PublicHTTPErrorTypeTaskNotFound, "Task not found")
		}
		if err != nil {
			log.Error().Err(err).Str("task_id", taskID).Msg("Failed to get task status")
			return httperrors.NewHTTPError(http.StatusInternalServerError, types.PublicHTTPErrorTypeGeneric, "Failed to get task status")
		}

		return util.ValidateAndReturn(c, http.StatusOK, taskStatusResponse(task))
	}
}
