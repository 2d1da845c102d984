package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"boiler_collector/internal/service"

	"github.com/gin-gonic/gin"
)

const (
	statusOK = "ok"

	errListDevices  = "failed to load devices"
	errLoadLatest   = "failed to load latest report"
	errLoadReports  = "failed to load reports"
	errLoadConfig   = "failed to load configuration"
	errLoadSchedule = "failed to resolve schedule"
	errNoData       = "no data recorded for device"
	errAtInvalid    = "invalid 'at' time; use RFC3339 or 'YYYY-MM-DD HH:MM:SS'"
	errLimitInvalid = "invalid 'limit'; must be a positive integer"
)

// Centralized error logging and response.
func (h *Handler) logAndJSONError(c *gin.Context, httpCode int, userMsg, logKey string, err error, kv ...interface{}) {
	if h.log != nil && err != nil {
		fields := append([]interface{}{"err", err}, kv...)
		h.log.Errorw(logKey, fields...)
	}
	c.JSON(httpCode, gin.H{"error": userMsg})
}

// serviceError maps domain errors to status codes; anything else is a 500.
func (h *Handler) serviceError(c *gin.Context, userMsg, logKey string, err error, kv ...interface{}) {
	switch {
	case errors.Is(err, service.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": errNoData})
	case errors.Is(err, service.ErrInvalidTimeRange):
		c.JSON(http.StatusBadRequest, gin.H{"error": "'from' must be <= 'to'"})
	default:
		h.logAndJSONError(c, http.StatusInternalServerError, userMsg, logKey, err, kv...)
	}
}

// @Summary      Health check
// @Tags         system
// @Produce      json
// @Success      200  {object}  map[string]string
// @Router       /health [get]
func (h *Handler) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": statusOK,
	})
}

// @Summary      List devices
// @Description  Devices with at least one recorded report.
// @Tags         devices
// @Produce      json
// @Success      200  {object}  map[string]interface{}  "count, devices"
// @Failure      401  {object}  map[string]string
// @Failure      500  {object}  map[string]string
// @Router       /api/v1/devices [get]
// @Security     BearerAuth
func (h *Handler) listDevices(c *gin.Context) {
	devices, err := h.services.Monitoring.Devices(c.Request.Context())
	if err != nil {
		h.logAndJSONError(c, http.StatusInternalServerError, errListDevices, "devices_list_failed", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"count": len(devices), "devices": devices})
}

// @Summary      Latest snapshot
// @Tags         devices
// @Produce      json
// @Param        id   path      string  true  "Device id"
// @Success      200  {object}  models.Snapshot
// @Failure      401  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Failure      500  {object}  map[string]string
// @Router       /api/v1/devices/{id}/latest [get]
// @Security     BearerAuth
func (h *Handler) getLatest(c *gin.Context) {
	id := c.Param("id")
	snap, err := h.services.Monitoring.Latest(c.Request.Context(), id)
	if err != nil {
		h.serviceError(c, errLoadLatest, "latest_failed", err, "device", id)
		return
	}
	c.JSON(http.StatusOK, snap)
}

// @Summary      Report history
// @Description  Stored reports by device time. A date-only 'to' is treated as end of day.
// @Tags         devices
// @Produce      json
// @Param        id     path    string  true   "Device id"
// @Param        from   query   string  false  "Start of range (RFC3339, 'YYYY-MM-DD HH:MM:SS', or 'YYYY-MM-DD')"  example(2025-08-01)
// @Param        to     query   string  false  "End of range (RFC3339, 'YYYY-MM-DD HH:MM:SS', or 'YYYY-MM-DD')"  example(2025-08-31)
// @Param        limit  query   int     false  "Maximum rows, newest first"
// @Success      200    {object}  map[string]interface{}  "count, reports"
// @Failure      400    {object}  map[string]string
// @Failure      401    {object}  map[string]string
// @Failure      500    {object}  map[string]string
// @Router       /api/v1/devices/{id}/reports [get]
// @Security     BearerAuth
func (h *Handler) getReports(c *gin.Context) {
	id := c.Param("id")
	from, to, ok := parseRange(c)
	if !ok {
		return
	}
	limit := 0
	if qs := c.Query("limit"); qs != "" {
		v, err := strconv.Atoi(qs)
		if err != nil || v <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": errLimitInvalid})
			return
		}
		limit = v
	}

	points, err := h.services.Monitoring.Reports(c.Request.Context(), id, service.ReportQuery{From: from, To: to, Limit: limit})
	if err != nil {
		h.serviceError(c, errLoadReports, "reports_list_failed", err, "device", id, "from", from, "to", to)
		return
	}
	c.JSON(http.StatusOK, gin.H{"count": len(points), "reports": points})
}

// @Summary      Device configuration
// @Description  Latest configuration and weekly schedules.
// @Tags         devices
// @Produce      json
// @Param        id   path      string  true  "Device id"
// @Success      200  {object}  models.ConfigSnapshot
// @Failure      401  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Failure      500  {object}  map[string]string
// @Router       /api/v1/devices/{id}/config [get]
// @Security     BearerAuth
func (h *Handler) getConfig(c *gin.Context) {
	id := c.Param("id")
	cfg, err := h.services.Monitoring.Config(c.Request.Context(), id)
	if err != nil {
		h.serviceError(c, errLoadConfig, "config_failed", err, "device", id)
		return
	}
	c.JSON(http.StatusOK, cfg)
}

// @Summary      Active schedule
// @Description  Resolves the stored CH and DHW programs at 'at' (default now).
// @Tags         devices
// @Produce      json
// @Param        id   path      string  true   "Device id"
// @Param        at   query     string  false  "Instant (RFC3339 or 'YYYY-MM-DD HH:MM:SS')"
// @Success      200  {object}  models.ActiveSchedule
// @Failure      400  {object}  map[string]string
// @Failure      401  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Router       /api/v1/devices/{id}/schedule [get]
// @Security     BearerAuth
func (h *Handler) getSchedule(c *gin.Context) {
	id := c.Param("id")
	var at time.Time
	if qs := c.Query("at"); qs != "" {
		t, err := parseQueryTime(qs)
		if err != nil || isDateOnly(qs) {
			c.JSON(http.StatusBadRequest, gin.H{"error": errAtInvalid})
			return
		}
		at = t
	}
	as, err := h.services.Monitoring.ActiveSchedule(c.Request.Context(), id, at)
	if err != nil {
		h.serviceError(c, errLoadSchedule, "schedule_failed", err, "device", id)
		return
	}
	c.JSON(http.StatusOK, as)
}

// @Summary      Collector status
// @Tags         system
// @Produce      json
// @Success      200  {object}  map[string]interface{}  "count, collectors"
// @Failure      401  {object}  map[string]string
// @Router       /api/v1/collectors [get]
// @Security     BearerAuth
func (h *Handler) listCollectors(c *gin.Context) {
	st := h.services.Collectors.Status()
	c.JSON(http.StatusOK, gin.H{"count": len(st), "collectors": st})
}
