package relay

import (
	"net/http"
	"regexp"
	"strconv"

	"github.com/go-openapi/swag"
	"github.com/labstack/echo/v4"
	"github/chapool/gas-relay/internal/api"
	"github/chapool/gas-relay/internal/api/httperrors"
	"github/chapool/gas-relay/internal/types"
	"github/chapool/gas-relay/internal/util"
)

const (
	defaultTaskListLimit = 20
	maxTaskListLimit     = 100
)

var hexAddressRegex = regexp.MustCompile(`^0x[0-9a-fA-F]{40}$`)

func GetTasksRoute(s *api.Server) *echo.Route {
	return s.Router.APIV1Relay.GET("/tasks", getTasksHandler(s))
}

// getTasksHandler lists the newest tasks of one user address, optionally
// filtered by chain.
func getTasksHandler(s *api.Server) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()
		log := util.LogFromContext(ctx)

		user := c.QueryParam("user")
		if !hexAddressRegex.MatchString(user) {
			return httperrors.NewHTTPValidationError(
				http.StatusBadRequest,
				types.PublicHTTPErrorTypeGeneric,
				"Invalid query parameters",
				[]*types.HTTPValidationErrorDetail{
					{
						Key:   swag.String("user"),
						In:    swag.String("query"),
						Error: swag.String("must be a hex address"),
					},
				},
			)
		}

		var chainID int64
		if raw := c.QueryParam("chainId"); raw != "" {
			parsed, err := strconv.ParseInt(raw, 10, 64)
			if err != nil {
				return httperrors.NewHTTPError(http.StatusBadRequest, types.PublicHTTPErrorTypeGeneric, "Invalid chain id")
			}
			chainID = parsed
		}

		limit := defaultTaskListLimit
		if raw := c.QueryParam("limit"); raw != "" {
			parsed, err := strconv.Atoi(raw)
			if err != nil || parsed <= 0 {
				return httperrors.NewHTTPError(http.StatusBadRequest, types.PublicHTTPErrorTypeGeneric, "Invalid limit")
			}
			limit = min(parsed, maxTaskListLimit)
		}

		tasks, err := s.Relay.ListTasksByUser(ctx, user, chainID, limit)
		if err != nil {
			log.Error().Err(err).Str("user", user).Msg("Failed to list tasks")
			return httperrors.NewHTTPError(http.StatusInternalServerError, types.PublicHTTPErrorTypeGeneric, "Failed to list tasks")
		}

		response := &types.TaskListResponse{
			Tasks: make([]*types.TaskStatusResponse, 0, len(tasks)),
		}
		for _, task := range tasks {
			response.Tasks = append(response.Tasks, taskStatusResponse(task))
		}

		return util.ValidateAndReturn(c, http.StatusOK, response)
	}
}
