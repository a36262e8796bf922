package httpapi

import (
	"net/http"
	"time"

	"turret-server/internal/actuation/httpapi/internal"
	"turret-server/internal/actuation/usecases"
	"turret-server/internal/infra/cache"
	"turret-server/internal/infra/httpserver"
)

const (
	_statusCacheTTL      = 1 * time.Second
	_statusAllCacheKey   = "status:all"
	_statusAxisKeyPrefix = "status:axis:"

	decodeJogErrMessage = "failed to decode jog request"
)

func NewAxisController(service usecases.AxisService, statusCache cache.Cache) *AxisController {
	return &AxisController{
		service:     service,
		statusCache: statusCache,
	}
}

var _ httpserver.Controller = &AxisController{}

// AxisController exposes the stepper operations. Status reads go through a
// short-lived cache so a polling UI cannot fan out into concurrent
// subprocess invocations.
type AxisController struct {
	service     usecases.AxisService
	statusCache cache.Cache
}

func (c *AxisController) AddRoutes(router *http.ServeMux) {
	router.Handle("GET /v1/axes", c.listAxes())
	router.Handle("POST /v1/axes/stop", c.stopAll())
	router.Handle("GET /v1/axes/{axis}", c.axisStatus())
	router.Handle("POST /v1/axes/{axis}/enable", c.enableAxis())
	router.Handle("POST /v1/axes/{axis}/disable", c.disableAxis())
	router.Handle("POST /v1/axes/{axis}/jog", c.jogAxis())
	router.Handle("POST /v1/axes/{axis}/stop", c.stopAxis())
	router.Handle("POST /v1/axes/{axis}/zero", c.zeroAxis())
}

func (c *AxisController) listAxes() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		result, err := c.statusCache.GetOrSet(r.Context(), _statusAllCacheKey, _statusCacheTTL, func() (any, error) {
			return c.service.StatusAll(r.Context()), nil
		})
		if err != nil {
			httpserver.ReplyWithError(w, http.StatusInternalServerError, "failed to list axes")
			return
		}

		httpserver.ReplyJSONResponse(w, http.StatusOK, result)
	}
}

func (c *AxisController) axisStatus() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		axis := httpserver.GetPathParam(r, "axis")

		result, err := c.statusCache.GetOrSet(r.Context(), _statusAxisKeyPrefix+axis, _statusCacheTTL, func() (any, error) {
			snapshot, err := c.service.StatusAxis(r.Context(), axis)
			if err != nil {
				return nil, err
			}
			return snapshot, nil
		})
		if err != nil {
			replyDomainError(w, err)
			return
		}

		httpserver.ReplyJSONResponse(w, http.StatusOK, result)
	}
}

func (c *AxisController) enableAxis() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		axis := httpserver.GetPathParam(r, "axis")

		if err := c.service.Enable(r.Context(), axis); err != nil {
			replyDomainError(w, err)
			return
		}

		c.invalidateStatus(r, axis)
		httpserver.ReplyJSONResponse(w, http.StatusOK, map[string]string{"status": "success"})
	}
}

func (c *AxisController) disableAxis() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		axis := httpserver.GetPathParam(r, "axis")

		if err := c.service.Disable(r.Context(), axis); err != nil {
			replyDomainError(w, err)
			return
		}

		c.invalidateStatus(r, axis)
		httpserver.ReplyJSONResponse(w, http.StatusOK, map[string]string{"status": "success"})
	}
}

func (c *AxisController) jogAxis() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		axis := httpserver.GetPathParam(r, "axis")

		var body internal.JogRequest
		if err := httpserver.DecodeJSONBody(r, &body); err != nil {
			httpserver.ReplyWithError(w, http.StatusBadRequest, decodeJogErrMessage)
			return
		}

		result, err := c.service.Jog(r.Context(), body.ToDomain(axis))
		if err != nil {
			replyDomainError(w, err)
			return
		}

		c.invalidateStatus(r, axis)
		httpserver.ReplyJSONResponse(w, http.StatusOK, result)
	}
}

func (c *AxisController) stopAxis() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		axis := httpserver.GetPathParam(r, "axis")

		if err := c.service.Stop(r.Context(), axis); err != nil {
			replyDomainError(w, err)
			return
		}

		c.invalidateStatus(r, axis)
		httpserver.ReplyJSONResponse(w, http.StatusOK, map[string]string{"status": "success"})
	}
}

func (c *AxisController) stopAll() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		results := c.service.StopAll(r.Context())

		c.invalidateStatus(r, "")
		httpserver.ReplyJSONResponse(w, http.StatusOK, results)
	}
}

func (c *AxisController) zeroAxis() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		axis := httpserver.GetPathParam(r, "axis")

		if err := c.service.SetZero(r.Context(), axis); err != nil {
			replyDomainError(w, err)
			return
		}

		c.invalidateStatus(r, axis)
		httpserver.ReplyJSONResponse(w, http.StatusOK, map[string]string{"status": "success"})
	}
}

// invalidateStatus drops the cached snapshots after a mutating command so the
// next read reflects it.
func (c *AxisController) invalidateStatus(r *http.Request, axis string) {
	c.statusCache.Delete(r.Context(), _statusAllCacheKey)
	if axis != "" {
		c.statusCache.Delete(r.Context(), _statusAxisKeyPrefix+axis)
	}
}
