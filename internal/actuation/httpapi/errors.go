package httpapi

import (
	"errors"
	"net/http"

	"turret-server/internal/actuation/domain"
	"turret-server/internal/actuation/solenoid"
	"turret-server/internal/infra/cli"
	"turret-server/internal/infra/httpserver"
)

// replyDomainError maps the actuator error classes onto HTTP statuses:
// unknown axis is 404, other configuration errors are 409, command timeouts
// are 504, a dead daemon is 503, and subprocess failures are 502.
func replyDomainError(w http.ResponseWriter, err error) {
	httpserver.ReplyWithError(w, statusForError(err), err.Error())
}

func statusForError(err error) int {
	var cmdErr *cli.CommandError

	switch {
	case errors.Is(err, domain.ErrAxisUnknown):
		return http.StatusNotFound
	case domain.IsConfigurationError(err):
		return http.StatusConflict
	case errors.Is(err, cli.ErrTimeout), errors.Is(err, solenoid.ErrCommandTimeout):
		return http.StatusGatewayTimeout
	case errors.Is(err, solenoid.ErrDaemonUnavailable):
		return http.StatusServiceUnavailable
	case errors.As(err, &cmdErr):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
