package api

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/mr1hm/go-emergency-alerts/internal/clock"
	"github.com/mr1hm/go-emergency-alerts/internal/config"
	"github.com/mr1hm/go-emergency-alerts/internal/connectivity"
	"github.com/mr1hm/go-emergency-alerts/internal/dispatch"
	"github.com/mr1hm/go-emergency-alerts/internal/emergency"
	"github.com/mr1hm/go-emergency-alerts/internal/firstaid"
	"github.com/mr1hm/go-emergency-alerts/internal/models"
	"github.com/mr1hm/go-emergency-alerts/internal/permission"
	"github.com/mr1hm/go-emergency-alerts/internal/reporting"
	"github.com/mr1hm/go-emergency-alerts/internal/source"
	"github.com/mr1hm/go-emergency-alerts/internal/state"
	"github.com/mr1hm/go-emergency-alerts/internal/ui"
)

// Deps are the components the page talks to.
type Deps struct {
	Config       *config.Config
	State        *state.AppState
	Gateway      *permission.Gateway
	Dispatcher   *dispatch.Dispatcher
	Presenter    *ui.Presenter
	Hub          *ui.Hub
	Reports      *reporting.Service
	Connectivity *connectivity.Watcher
	Scheduler    clock.Scheduler
	Alerts       AlertQueue
}

// AlertQueue accepts alerts from outside feeds for asynchronous dispatch.
type AlertQueue interface {
	Enqueue(a models.Alert) bool
}

type Handler struct {
	Deps
}

func NewHandler(deps Deps) *Handler {
	if deps.Scheduler == nil {
		deps.Scheduler = clock.Real{}
	}
	return &Handler{Deps: deps}
}

func (h *Handler) RegisterRoutes(r *gin.Engine) {
	r.GET("/health", h.health)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	r.POST("/api/debug/test-alert", h.createTestAlert)

	v1 := r.Group("/api/v1")
	v1.GET("/config", h.getConfig)
	v1.GET("/alerts", h.getAlerts)
	v1.POST("/alerts", h.postAlert)
	v1.GET("/location", h.getLocation)
	v1.PUT("/location", h.putLocation)
	v1.POST("/permissions/notification", h.postPermission)
	v1.GET("/emergencies", h.getEmergencies)
	v1.POST("/emergencies", h.postEmergency)
	v1.POST("/notifications", h.postNotification)
	v1.GET("/emergency-services", h.getEmergencyServices)
	v1.POST("/first-aid/timer", h.postFirstAidTimer)
	v1.POST("/messages", h.postMessage)
	v1.POST("/connectivity", h.postConnectivity)

	v1.GET("/ui/events", h.streamEvents)
	v1.GET("/ui/elements", h.getElements)
	v1.POST("/ui/elements/:id/dismiss", h.dismissElement)
	v1.POST("/ui/elements/:id/hidden", h.hiddenElement)
}

func (h *Handler) health(c *gin.Context) {
	online := true
	if h.Connectivity != nil {
		online = h.Connectivity.IsOnline()
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok", "online": online, "subscribers": h.Hub.SubscriberCount()})
}

func (h *Handler) getConfig(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"serviceWorker":       h.Config.Dispatch.ServiceWorkerPath,
		"pollIntervalSeconds": int(h.Config.Poller.Interval / time.Second),
		"bannerTTLSeconds":    int(h.Config.UI.BannerTTL / time.Second),
		"location": gin.H{
			"enableHighAccuracy": h.Config.Location.HighAccuracy,
			"timeout":            h.Config.Location.Timeout.Milliseconds(),
			"maximumAge":         h.Config.Location.MaximumAge.Milliseconds(),
		},
	})
}

func (h *Handler) getAlerts(c *gin.Context) {
	alerts := h.State.Alerts()
	c.JSON(http.StatusOK, gin.H{
		"alerts": alerts,
		"count":  len(alerts),
	})
}

type alertRequest struct {
	Kind     models.AlertKind     `json:"type"`
	Title    string               `json:"title"`
	Message  string               `json:"message"`
	Severity models.AlertSeverity `json:"severity"`
}

func (h *Handler) postAlert(c *gin.Context) {
	var req alertRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	if req.Kind != models.AlertKindFire && req.Kind != models.AlertKindWeather {
		c.JSON(http.StatusBadRequest, gin.H{"error": "type must be fire or weather"})
		return
	}
	if req.Severity != models.AlertSeverityMedium && req.Severity != models.AlertSeverityHigh {
		c.JSON(http.StatusBadRequest, gin.H{"error": "severity must be medium or high"})
		return
	}
	if strings.TrimSpace(req.Title) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "title is required"})
		return
	}

	if !h.Alerts.Enqueue(models.Alert{Kind: req.Kind, Title: req.Title, Message: req.Message, Severity: req.Severity}) {
		slog.Warn("alert queue full, rejecting alert", "type", req.Kind, "title", req.Title)
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "alert queue full"})
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"message": "alert queued"})
}

func (h *Handler) getLocation(c *gin.Context) {
	loc, ok := h.State.Location()
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "location unknown"})
		return
	}
	c.JSON(http.StatusOK, loc)
}

type locationRequest struct {
	Latitude  *float64 `json:"lat"`
	Longitude *float64 `json:"lng"`
	Accuracy  float64  `json:"accuracy"`
	ErrorCode int      `json:"error_code"` // geolocation failure reported instead of a position
}

func (h *Handler) putLocation(c *gin.Context) {
	var req locationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	if req.ErrorCode != 0 {
		code := permission.LocationErrorCode(req.ErrorCode)
		if code < permission.CodePermissionDenied || code > permission.CodeTimeout {
			c.JSON(http.StatusBadRequest, gin.H{"error": "unknown error_code"})
			return
		}
		msg := h.Gateway.SetLocationError(code)
		c.JSON(http.StatusOK, gin.H{"message": msg})
		return
	}

	if req.Latitude == nil || req.Longitude == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "lat and lng are required"})
		return
	}
	if *req.Latitude < -90 || *req.Latitude > 90 || *req.Longitude < -180 || *req.Longitude > 180 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "coordinates out of range"})
		return
	}

	loc := models.Coordinate{Latitude: *req.Latitude, Longitude: *req.Longitude, Accuracy: req.Accuracy}
	h.Gateway.SetLocation(loc)
	c.JSON(http.StatusOK, loc)
}

func (h *Handler) postPermission(c *gin.Context) {
	var req struct {
		Permission string `json:"permission"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	p, err := permission.ParsePermission(req.Permission)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	h.Gateway.SetPermission(p)
	c.JSON(http.StatusOK, gin.H{"permission": p, "enabled": h.State.NotificationPermission()})
}

func (h *Handler) getEmergencies(c *gin.Context) {
	limit := 20
	if l := c.Query("limit"); l != "" {
		if lim, err := strconv.Atoi(l); err == nil && lim > 0 && lim <= 500 {
			limit = lim
		}
	}

	records, err := h.Reports.Recent(c.Request.Context(), limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch reports"})
		return
	}
	if records == nil {
		records = []models.ReportRecord{}
	}
	c.JSON(http.StatusOK, gin.H{"reports": records})
}

func (h *Handler) postEmergency(c *gin.Context) {
	var data map[string]any
	if err := c.ShouldBindJSON(&data); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	res, err := h.Dispatcher.ReportEmergency(c.Request.Context(), data)
	if err != nil {
		status := http.StatusBadGateway
		if errors.Is(err, reporting.ErrRejected) {
			status = http.StatusUnprocessableEntity
		}
		c.JSON(status, gin.H{"error": "failed to report emergency", "id": res.ID})
		return
	}
	c.JSON(http.StatusCreated, res)
}

type notificationRequest struct {
	Title string `json:"title" binding:"required"`
	Body  string `json:"body"`
	Icon  string `json:"icon"`
}

func (h *Handler) postNotification(c *gin.Context) {
	var req notificationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "title is required"})
		return
	}

	h.Dispatcher.ShowNotification(c.Request.Context(), req.Title, req.Body, req.Icon)
	c.JSON(http.StatusAccepted, gin.H{"sent": h.State.NotificationPermission()})
}

func (h *Handler) getEmergencyServices(c *gin.Context) {
	choice, ok := c.GetQuery("choice")
	if !ok {
		c.JSON(http.StatusOK, gin.H{
			"prompt":   emergency.Prompt(),
			"services": emergency.Services(),
		})
		return
	}
	c.JSON(http.StatusOK, emergency.Choose(choice))
}

func (h *Handler) postFirstAidTimer(c *gin.Context) {
	var req struct {
		Duration *int `json:"duration"`
	}
	// An empty body starts the default timer.
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
			return
		}
	}

	duration := firstaid.DefaultDuration
	if req.Duration != nil {
		if *req.Duration <= 0 || *req.Duration > 600 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "duration must be between 1 and 600 seconds"})
			return
		}
		duration = *req.Duration
	}

	t := firstaid.Start(h.Presenter, h.Scheduler, duration, h.Config.UI.CueTTL)
	c.JSON(http.StatusCreated, gin.H{"id": t.ID(), "duration": duration})
}

func (h *Handler) postMessage(c *gin.Context) {
	var req struct {
		Kind    string `json:"kind"`
		Message string `json:"message" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "message is required"})
		return
	}

	var id string
	switch strings.ToLower(req.Kind) {
	case "success":
		id = h.Presenter.ShowSuccessMessage(req.Message)
	case "error":
		id = h.Presenter.ShowErrorMessage(req.Message)
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "kind must be success or error"})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"id": id})
}

func (h *Handler) postConnectivity(c *gin.Context) {
	var req struct {
		Online *bool `json:"online"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || req.Online == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "online is required"})
		return
	}

	changed := h.Connectivity.SetOnline(*req.Online)
	c.JSON(http.StatusOK, gin.H{"online": h.Connectivity.IsOnline(), "changed": changed})
}

func (h *Handler) streamEvents(c *gin.Context) {
	id, ch := h.Hub.Subscribe(c.ClientIP())
	defer h.Hub.Unsubscribe(id)

	slog.Info("page subscribed to ui events", "subscriber_id", id, "client", c.ClientIP())

	// Replay what is already on screen so a reconnecting page catches up.
	for _, el := range h.Presenter.Elements() {
		c.SSEvent(string(ui.EventShow), ui.Event{Type: ui.EventShow, Element: &el})
	}
	c.Writer.Flush()

	ctx := c.Request.Context()
	c.Stream(func(w io.Writer) bool {
		select {
		case <-ctx.Done():
			slog.Info("page disconnected from ui events", "subscriber_id", id)
			return false
		case ev, ok := <-ch:
			if !ok {
				return false
			}
			c.SSEvent(string(ev.Type), ev)
			return true
		}
	})
}

func (h *Handler) getElements(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"elements": h.Presenter.Elements()})
}

func (h *Handler) dismissElement(c *gin.Context) {
	removed := h.Presenter.Dismiss(c.Param("id"))
	c.JSON(http.StatusOK, gin.H{"removed": removed})
}

func (h *Handler) hiddenElement(c *gin.Context) {
	removed := h.Presenter.Hidden(c.Param("id"))
	c.JSON(http.StatusOK, gin.H{"removed": removed})
}

func (h *Handler) createTestAlert(c *gin.Context) {
	kind := models.AlertKind(strings.ToLower(c.DefaultQuery("type", string(models.AlertKindFire))))

	var alert *models.Alert
	for _, a := range source.Catalog {
		if a.Kind == kind {
			alert = &a
			break
		}
	}
	if alert == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "type must be fire or weather"})
		return
	}

	stored := h.Dispatcher.ShowEmergencyAlert(c.Request.Context(), *alert)
	c.JSON(http.StatusOK, gin.H{
		"message": "test alert dispatched",
		"alert":   stored,
	})
}
