// Package api exposes the average and correlation computations over HTTP.
package api

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"StockLens/internal/analytics"
	"StockLens/internal/collector"
	"StockLens/internal/metrics"
	"StockLens/internal/model"
	"StockLens/internal/recorder"
)

// Handler serves the stock endpoints.
type Handler struct {
	engine   *analytics.Engine
	prices   *collector.PriceFetcher
	recorder recorder.Recorder
	log      zerolog.Logger
}

// NewHandler creates a Handler. A nil recorder disables query recording.
func NewHandler(engine *analytics.Engine, prices *collector.PriceFetcher, rec recorder.Recorder, log zerolog.Logger) *Handler {
	if rec == nil {
		rec = recorder.NewNoopRecorder()
	}
	return &Handler{
		engine:   engine,
		prices:   prices,
		recorder: rec,
		log:      log.With().Str("component", "api").Logger(),
	}
}

// NewRouter wires the handlers, middleware, health and metrics endpoints.
func NewRouter(h *Handler, log zerolog.Logger) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), RequestID(), AccessLog(log))

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(metrics.Handler()))

	r.GET("/stocks", h.ListStocks)
	r.GET("/stocks/:ticker", h.AveragePrice)
	r.GET("/stockcorrelation", h.Correlation)
	r.GET("/stockcorrelation/matrix", h.CorrelationMatrix)
	return r
}

// ListStocks returns the stock directory.
func (h *Handler) ListStocks(c *gin.Context) {
	dir, err := h.prices.ResolveDirectory(c.Request.Context())
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"stocks": dir})
}

// AveragePrice handles GET /stocks/:ticker?minutes=N&aggregation=average.
func (h *Handler) AveragePrice(c *gin.Context) {
	ticker := c.Param("ticker")
	minutes, err := parseMinutes(c)
	if err != nil {
		h.writeError(c, err)
		return
	}
	if agg := c.DefaultQuery("aggregation", "average"); agg != "average" {
		h.writeError(c, fmt.Errorf("%w: unsupported aggregation %q", model.ErrInvalidArgument, agg))
		return
	}

	stats, err := h.engine.AveragePrice(c.Request.Context(), ticker, minutes)
	if err != nil {
		h.writeError(c, err)
		return
	}

	if err := h.recorder.RecordAverage(&recorder.AverageQuery{
		Ticker: ticker, Minutes: minutes, Stats: stats, Answered: time.Now(),
	}); err != nil {
		h.log.Warn().Err(err).Msg("record average query")
	}
	c.JSON(http.StatusOK, stats)
}

// Correlation handles GET /stockcorrelation?minutes=N&ticker=A&ticker=B.
func (h *Handler) Correlation(c *gin.Context) {
	minutes, err := parseMinutes(c)
	if err != nil {
		h.writeError(c, err)
		return
	}
	tickers := c.QueryArray("ticker")
	if len(tickers) != 2 {
		h.writeError(c, fmt.Errorf("%w: exactly two tickers are required, got %d", model.ErrInvalidArgument, len(tickers)))
		return
	}

	res, err := h.engine.Correlate(c.Request.Context(), tickers[0], tickers[1], minutes)
	if err != nil {
		h.writeError(c, err)
		return
	}

	if err := h.recorder.RecordCorrelation(&recorder.CorrelationQuery{
		Minutes: minutes, Result: res, Answered: time.Now(),
	}); err != nil {
		h.log.Warn().Err(err).Msg("record correlation query")
	}
	c.JSON(http.StatusOK, res)
}

// CorrelationMatrix handles GET /stockcorrelation/matrix?minutes=N&ticker=A&ticker=B....
func (h *Handler) CorrelationMatrix(c *gin.Context) {
	minutes, err := parseMinutes(c)
	if err != nil {
		h.writeError(c, err)
		return
	}

	m, err := h.engine.Matrix(c.Request.Context(), c.QueryArray("ticker"), minutes)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, m)
}

func parseMinutes(c *gin.Context) (int, error) {
	raw, ok := c.GetQuery("minutes")
	if !ok || raw == "" {
		return 0, fmt.Errorf("%w: minutes parameter is required", model.ErrInvalidArgument)
	}
	minutes, err := strconv.Atoi(raw)
	if err != nil || minutes <= 0 {
		return 0, fmt.Errorf("%w: invalid minutes parameter %q", model.ErrInvalidArgument, raw)
	}
	return minutes, nil
}
