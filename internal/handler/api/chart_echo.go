package api

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	"ChartFeed/internal/domain/models"
	apimetrics "ChartFeed/internal/service/metrics"
	"ChartFeed/internal/service/ratelimit"
	"ChartFeed/internal/services/export"
	xhttp "ChartFeed/pkg/http"
	xlogger "ChartFeed/pkg/logger"
)

// ChartService is what the chart endpoints need from the use case layer.
type ChartService interface {
	Bars(ctx context.Context, symbol, rng string) models.AcquisitionResult
	Indicators(ctx context.Context, symbol, rng string) (models.AcquisitionResult, []models.IndicatorPoint)
	Patterns(ctx context.Context, symbol, rng string) (models.AcquisitionResult, models.PatternTallies)
	Series(ctx context.Context, symbol, rng string) models.ChartSeries
}

// HealthCheck reports whether one dependency is usable.
type HealthCheck func(ctx context.Context) error

// ChartEchoHandler serves the chart REST endpoints, the chart websocket and /healthz.
type ChartEchoHandler struct {
	logger   *xlogger.Logger
	svc      ChartService
	rl       *ratelimit.Limiter
	capacity float64
	refill   float64
	metrics  *apimetrics.APIMetrics
	checks   map[string]HealthCheck
	upgrader websocket.Upgrader
}

type HandlerOption func(*ChartEchoHandler)

// WithRateLimit enables a per-client token bucket. capacity <= 0 disables it.
func WithRateLimit(rl *ratelimit.Limiter, capacity, refillPerSec float64) HandlerOption {
	return func(h *ChartEchoHandler) {
		h.rl = rl
		h.capacity = capacity
		h.refill = refillPerSec
	}
}

func WithAPIMetrics(m *apimetrics.APIMetrics) HandlerOption {
	return func(h *ChartEchoHandler) {
		h.metrics = m
	}
}

// WithHealthCheck adds a named dependency check to /healthz.
func WithHealthCheck(name string, check HealthCheck) HandlerOption {
	return func(h *ChartEchoHandler) {
		if check != nil {
			h.checks[name] = check
		}
	}
}

func NewChartEchoHandler(logger *xlogger.Logger, svc ChartService, opts ...HandlerOption) *ChartEchoHandler {
	if logger == nil {
		logger = xlogger.NewNop()
	}
	h := &ChartEchoHandler{
		logger: logger,
		svc:    svc,
		checks: make(map[string]HealthCheck),
		upgrader: websocket.Upgrader{
			CheckOrigin:       func(r *http.Request) bool { return true },
			EnableCompression: true,
		},
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

func (h *ChartEchoHandler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/api")
	g.GET("/bars", h.Bars)
	g.GET("/bars/export", h.Export)
	g.GET("/indicators", h.Indicators)
	g.GET("/patterns", h.Patterns)
	g.GET("/chart", h.Chart)
	e.GET("/ws/chart", h.Socket)
	e.GET("/healthz", h.Health)
}

// allow consumes one token for the caller's address.
func (h *ChartEchoHandler) allow(c echo.Context) bool {
	if h.rl == nil || h.capacity <= 0 {
		return true
	}
	return h.rl.Allow(c.RealIP(), h.capacity, h.refill)
}

func (h *ChartEchoHandler) rejectRate(c echo.Context, endpoint string) error {
	h.metrics.Fail(endpoint, "rate_limited")
	h.logger.Warn("chart request rate limited",
		xlogger.String("endpoint", endpoint),
		xlogger.String("remote", c.RealIP()),
	)
	return xhttp.AppErrorResponse(c, xhttp.TooManyRequestsError("rate limit exceeded, retry shortly"))
}

func (h *ChartEchoHandler) Bars(c echo.Context) error {
	const endpoint = "bars"
	defer h.metrics.Observe(endpoint, time.Now())
	if !h.allow(c) {
		return h.rejectRate(c, endpoint)
	}
	req := &models.ChartRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		h.metrics.Fail(endpoint, "validation")
		return xhttp.BadRequestResponse(c, verr)
	}

	res := h.svc.Bars(c.Request().Context(), req.Symbol, req.Range)
	return xhttp.SuccessResponse(c, newBarsResponse(res))
}

func (h *ChartEchoHandler) Indicators(c echo.Context) error {
	const endpoint = "indicators"
	defer h.metrics.Observe(endpoint, time.Now())
	if !h.allow(c) {
		return h.rejectRate(c, endpoint)
	}
	req := &models.ChartRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		h.metrics.Fail(endpoint, "validation")
		return xhttp.BadRequestResponse(c, verr)
	}

	res, points := h.svc.Indicators(c.Request().Context(), req.Symbol, req.Range)
	return xhttp.SuccessResponse(c, newIndicatorsResponse(res, points))
}

func (h *ChartEchoHandler) Patterns(c echo.Context) error {
	const endpoint = "patterns"
	defer h.metrics.Observe(endpoint, time.Now())
	if !h.allow(c) {
		return h.rejectRate(c, endpoint)
	}
	req := &models.ChartRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		h.metrics.Fail(endpoint, "validation")
		return xhttp.BadRequestResponse(c, verr)
	}

	res, tallies := h.svc.Patterns(c.Request().Context(), req.Symbol, req.Range)
	return xhttp.SuccessResponse(c, newPatternsResponse(res, tallies))
}

func (h *ChartEchoHandler) Chart(c echo.Context) error {
	const endpoint = "chart"
	defer h.metrics.Observe(endpoint, time.Now())
	if !h.allow(c) {
		return h.rejectRate(c, endpoint)
	}
	req := &models.ChartRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		h.metrics.Fail(endpoint, "validation")
		return xhttp.BadRequestResponse(c, verr)
	}

	series := h.svc.Series(c.Request().Context(), req.Symbol, req.Range)
	c.Response().Header().Set(echo.HeaderCacheControl, "private, max-age=60")
	return xhttp.SuccessResponse(c, newChartResponse(series))
}

// Export streams the bars as a file download in the requested format.
func (h *ChartEchoHandler) Export(c echo.Context) error {
	const endpoint = "export"
	defer h.metrics.Observe(endpoint, time.Now())
	if !h.allow(c) {
		return h.rejectRate(c, endpoint)
	}
	req := &models.ExportRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		h.metrics.Fail(endpoint, "validation")
		return xhttp.BadRequestResponse(c, verr)
	}
	enc := export.NewEncoder(req.Format)
	if enc == nil {
		h.metrics.Fail(endpoint, "validation")
		return xhttp.AppErrorResponse(c, xhttp.BadRequestErrorf("unsupported format %q", req.Format))
	}

	res := h.svc.Bars(c.Request().Context(), req.Symbol, req.Range)
	var buf bytes.Buffer
	if err := enc.Encode(&buf, res.Bars); err != nil {
		h.metrics.Fail(endpoint, "encode")
		h.logger.Error("export encode error",
			xlogger.String("symbol", res.Symbol),
			xlogger.String("format", req.Format),
			xlogger.Error(err),
		)
		return xhttp.AppErrorResponse(c, xhttp.InternalError("could not encode bars").WithError(err))
	}

	c.Response().Header().Set(echo.HeaderContentDisposition,
		fmt.Sprintf("attachment; filename=%q", export.Filename(res.Symbol, res.Range, enc)))
	c.Response().Header().Set("X-Data-Source", string(res.Source))
	return c.Blob(http.StatusOK, enc.ContentType(), buf.Bytes())
}

// Health runs every registered check and answers 503 if any fails.
func (h *ChartEchoHandler) Health(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
	defer cancel()

	status := http.StatusOK
	results := make(map[string]string, len(h.checks))
	for name, check := range h.checks {
		if err := check(ctx); err != nil {
			status = http.StatusServiceUnavailable
			results[name] = err.Error()
			continue
		}
		results[name] = "ok"
	}
	return xhttp.DataResponse(c, status, results)
}
