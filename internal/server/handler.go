package server

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/solvaholic/teampulse/internal/analytics"
	"github.com/solvaholic/teampulse/internal/db"
	"github.com/solvaholic/teampulse/internal/normalize"
	"github.com/solvaholic/teampulse/internal/report"
	"github.com/solvaholic/teampulse/internal/week"
)

// SnapshotLister lists saved reports. *db.DB satisfies it.
type SnapshotLister interface {
	ListSnapshots(week string, limit int) ([]db.Snapshot, error)
}

type errorResponse struct {
	Error string `json:"error"`
}

// Handler serves the read-only analytics API.
type Handler struct {
	source    report.Source
	engine    *analytics.Engine
	snapshots SnapshotLister
	metrics   *Metrics
	gatherer  prometheus.Gatherer
}

// NewHandler builds a handler over source. snapshots may be nil, which
// disables the snapshot route.
func NewHandler(source report.Source, engine *analytics.Engine, snapshots SnapshotLister) (*Handler, error) {
	if engine == nil {
		engine = analytics.NewEngine(analytics.DefaultOptions())
	}
	reg := prometheus.NewRegistry()
	m, err := NewMetrics(reg)
	if err != nil {
		return nil, err
	}
	return &Handler{source: source, engine: engine, snapshots: snapshots, metrics: m, gatherer: reg}, nil
}

// RegisterRoutes mounts the health, metrics and /api/v1 routes on r.
func (h *Handler) RegisterRoutes(r *gin.Engine) {
	r.Use(h.observe)

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(h.gatherer, promhttp.HandlerOpts{})))

	api := r.Group("/api/v1")
	api.GET("/weeks", h.listWeeks)
	api.GET("/weeks/:week/report", h.weekReport)
	api.GET("/weeks/:week/metrics", h.weekMetrics)
	api.GET("/weeks/:week/insights", h.weekInsights)
	api.GET("/weeks/:week/recommendations", h.weekRecommendations)
	if h.snapshots != nil {
		api.GET("/snapshots", h.listSnapshots)
	}
}

// observe logs and counts every request by its route template.
func (h *Handler) observe(c *gin.Context) {
	start := time.Now()
	c.Next()

	route := c.FullPath()
	if route == "" {
		route = "unmatched"
	}
	status := c.Writer.Status()
	elapsed := time.Since(start)

	h.metrics.HTTPRequestsTotal.WithLabelValues(c.Request.Method, route, strconv.Itoa(status)).Inc()
	h.metrics.HTTPRequestDuration.WithLabelValues(route).Observe(elapsed.Seconds())
	slog.Info("http request",
		"method", c.Request.Method,
		"path", c.Request.URL.Path,
		"status", status,
		"duration", elapsed)
}

func (h *Handler) load(c *gin.Context) (*normalize.Dataset, bool) {
	start := time.Now()
	ds, err := h.source.Load(c.Request.Context())
	h.metrics.DatasetLoadDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		h.metrics.DatasetLoadErrors.Inc()
		slog.Error("failed to load dataset", "error", err)
		c.JSON(http.StatusInternalServerError, errorResponse{Error: "failed to load dataset: " + err.Error()})
		return nil, false
	}
	return ds, true
}

func (h *Handler) listWeeks(c *gin.Context) {
	ds, ok := h.load(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{"weeks": report.AvailableWeeks(ds)})
}

// build validates the week id before touching the source.
func (h *Handler) build(c *gin.Context) (*report.Report, bool) {
	id := c.Param("week")
	if _, err := week.Parse(id); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error()})
		return nil, false
	}
	ds, ok := h.load(c)
	if !ok {
		return nil, false
	}
	r, err := report.Build(ds, id, h.engine)
	if errors.Is(err, week.ErrInvalidWeekIdentifier) {
		c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error()})
		return nil, false
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, errorResponse{Error: err.Error()})
		return nil, false
	}
	h.metrics.ReportsTotal.WithLabelValues(string(r.Metrics.RiskLevel)).Inc()
	return r, true
}

func (h *Handler) weekReport(c *gin.Context) {
	if r, ok := h.build(c); ok {
		c.JSON(http.StatusOK, r)
	}
}

func (h *Handler) weekMetrics(c *gin.Context) {
	if r, ok := h.build(c); ok {
		c.JSON(http.StatusOK, r.Metrics)
	}
}

func (h *Handler) weekInsights(c *gin.Context) {
	if r, ok := h.build(c); ok {
		c.JSON(http.StatusOK, gin.H{
			"week":             r.Week,
			"insights":         r.Insights,
			"activityInsights": r.ActivityInsights,
		})
	}
}

func (h *Handler) weekRecommendations(c *gin.Context) {
	if r, ok := h.build(c); ok {
		c.JSON(http.StatusOK, gin.H{
			"week":            r.Week,
			"recommendations": r.Recommendations,
			"actions":         r.Actions,
		})
	}
}

func (h *Handler) listSnapshots(c *gin.Context) {
	limit := 0
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			c.JSON(http.StatusBadRequest, errorResponse{Error: "limit must be a non-negative integer"})
			return
		}
		limit = n
	}
	snaps, err := h.snapshots.ListSnapshots(c.Query("week"), limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, errorResponse{Error: err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"snapshots": snaps})
}
