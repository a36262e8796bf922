package httpapi

import (
	"net/http"

	"turret-server/internal/actuation/usecases"
	"turret-server/internal/infra/httpserver"
)

func NewCommandLogController(recorder usecases.CommandRecorder) *CommandLogController {
	return &CommandLogController{
		recorder,
	}
}

var _ httpserver.Controller = &CommandLogController{}

// CommandLogController serves the audit trail of issued actuator commands.
type CommandLogController struct {
	recorder usecases.CommandRecorder
}

func (c *CommandLogController) AddRoutes(router *http.ServeMux) {
	router.Handle("GET /v1/commands", c.listCommands())
}

func (c *CommandLogController) listCommands() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		params := httpserver.ExtractPaginationParams(r)
		offset := (params.Page - 1) * params.Limit

		records, total, err := c.recorder.FindPage(r.Context(), params.Limit, offset)
		if err != nil {
			httpserver.ReplyWithError(w, http.StatusInternalServerError, "failed to list commands")
			return
		}

		httpserver.ReplyWithPaginatedData(w, http.StatusOK, records, total, params)
	}
}
