package httpapi

import (
	"context"
	"net/http"

	"turret-server/internal/actuation/domain"
	"turret-server/internal/actuation/httpapi/internal"
	"turret-server/internal/actuation/usecases"
	"turret-server/internal/infra/httpserver"
)

const decodeSolenoidErrMessage = "failed to decode solenoid request"

func NewSolenoidController(service usecases.SolenoidService) *SolenoidController {
	return &SolenoidController{
		service,
	}
}

var _ httpserver.Controller = &SolenoidController{}

type SolenoidController struct {
	service usecases.SolenoidService
}

func (c *SolenoidController) AddRoutes(router *http.ServeMux) {
	router.Handle("GET /v1/solenoids", c.solenoidStatus())
	router.Handle("POST /v1/solenoids/alloff", c.allOff())
	router.Handle("POST /v1/solenoids/shoot", c.fire(c.service.Shoot))
	router.Handle("POST /v1/solenoids/release", c.fire(c.service.Release))
}

// solenoidStatus serves the cached daemon state; it never triggers a daemon
// round trip.
func (c *SolenoidController) solenoidStatus() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		httpserver.ReplyJSONResponse(w, http.StatusOK, c.service.Status())
	}
}

func (c *SolenoidController) allOff() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		status, err := c.service.AllOff(r.Context())
		if err != nil {
			replyDomainError(w, err)
			return
		}

		httpserver.ReplyJSONResponse(w, http.StatusOK, status)
	}
}

type solenoidAction func(ctx context.Context, action domain.SolenoidAction) (domain.SolenoidStatus, error)

func (c *SolenoidController) fire(action solenoidAction) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body internal.SolenoidActionRequest
		if r.ContentLength > 0 {
			if err := httpserver.DecodeJSONBody(r, &body); err != nil {
				httpserver.ReplyWithError(w, http.StatusBadRequest, decodeSolenoidErrMessage)
				return
			}
		}

		status, err := action(r.Context(), body.ToDomain())
		if err != nil {
			replyDomainError(w, err)
			return
		}

		httpserver.ReplyJSONResponse(w, http.StatusOK, status)
	}
}
