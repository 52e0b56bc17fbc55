package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	models "MarketWire/internal/domain/models"
	icache "MarketWire/internal/service/cache"
	"MarketWire/internal/service/metrics"
	"MarketWire/internal/service/ratelimit"
	"MarketWire/internal/services/ads"
	"MarketWire/internal/services/detect"
	"MarketWire/internal/usecase"
	xhttp "MarketWire/pkg/http"
	xlogger "MarketWire/pkg/logger"
	"MarketWire/pkg/util"
)

// NewsHandler serves the news API: ad-hoc detection, ad recommendation,
// recent bundles, and bar history.
type NewsHandler struct {
	logger      *xlogger.Logger
	detector    *detect.Detector
	recommender *ads.Recommender
	newsroom    *usecase.Newsroom
	bars        *usecase.BarsUseCase
	health      func() map[string]interface{}

	cache icache.BytesCache
	rl    *ratelimit.Limiter
	start time.Time
}

func NewNewsHandler(
	logger *xlogger.Logger,
	detector *detect.Detector,
	recommender *ads.Recommender,
	newsroom *usecase.Newsroom,
	bars *usecase.BarsUseCase,
) *NewsHandler {
	metrics.Register()
	return &NewsHandler{
		logger:      logger,
		detector:    detector,
		recommender: recommender,
		newsroom:    newsroom,
		bars:        bars,
		rl:          ratelimit.New(),
		start:       time.Now(),
	}
}

// SetCache injects a byte cache for GET responses.
func (h *NewsHandler) SetCache(c icache.BytesCache) { h.cache = c }

// SetHealthProbe adds extra fields to the health payload.
func (h *NewsHandler) SetHealthProbe(fn func() map[string]interface{}) { h.health = fn }

func (h *NewsHandler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/api")
	g.POST("/detect", h.Detect)
	g.POST("/ads/recommend", h.Recommend)
	g.GET("/events", h.Events)
	g.GET("/bars", h.Bars)
	g.GET("/health", h.Health)
}

// Detect runs event detection over a caller-supplied snapshot batch.
// This is the stateless entry point; the scanner drives the same
// detector internally.
func (h *NewsHandler) Detect(c echo.Context) error {
	start := time.Now()
	defer func() { metrics.APILatency.WithLabelValues("detect").Observe(time.Since(start).Seconds()) }()

	req := &models.DetectRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		metrics.APIErrors.WithLabelValues("detect").Inc()
		return xhttp.BadRequestResponse(c, verr)
	}
	if !h.rl.Allow(c.RealIP()+":detect", 10, 5) {
		return xhttp.TooManyRequestsResponse(c)
	}

	snapshots := make(map[string]models.MarketSnapshot, len(req.Snapshots))
	now := time.Now().UTC()
	for sym, p := range req.Snapshots {
		snapshots[sym] = models.MarketSnapshot{
			Symbol:        sym,
			Name:          p.Name,
			CurrentPrice:  p.CurrentPrice,
			PreviousPrice: p.PreviousPrice,
			ChangePercent: p.ChangePercent,
			Volume:        p.Volume,
			AverageVolume: p.AverageVolume,
			SMAShort:      p.SMAShort,
			SMALong:       p.SMALong,
			High52W:       p.High52W,
			Low52W:        p.Low52W,
			High24H:       p.High24H,
			Low24H:        p.Low24H,
			ObservedAt:    now,
		}
	}

	events := h.detector.Detect(snapshots)
	return xhttp.SuccessResponse(c, map[string]interface{}{
		"count":  len(events),
		"events": events,
	})
}

// Recommend scores the catalog against a caller-supplied article.
func (h *NewsHandler) Recommend(c echo.Context) error {
	start := time.Now()
	defer func() { metrics.APILatency.WithLabelValues("recommend").Observe(time.Since(start).Seconds()) }()

	req := &models.RecommendRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		metrics.APIErrors.WithLabelValues("recommend").Inc()
		return xhttp.BadRequestResponse(c, verr)
	}
	if !h.rl.Allow(c.RealIP()+":recommend", 10, 5) {
		return xhttp.TooManyRequestsResponse(c)
	}

	article := models.Article{
		Symbol: req.Event.Symbol,
		Title:  req.Article.Title,
		Body:   req.Article.Content,
		Tags:   req.Article.Tags,
	}
	event := models.Event{
		Symbol:   req.Event.Symbol,
		Type:     models.EventType(req.Event.Type),
		Severity: models.Severity(req.Event.Severity),
	}

	recs := h.recommender.RecommendK(article, event, req.K)
	return xhttp.SuccessResponse(c, map[string]interface{}{
		"count":           len(recs),
		"recommendations": recs,
	})
}

// Events returns the most recent published bundles, newest first.
func (h *NewsHandler) Events(c echo.Context) error {
	start := time.Now()
	defer func() { metrics.APILatency.WithLabelValues("events").Observe(time.Since(start).Seconds()) }()

	req := &models.EventsRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		metrics.APIErrors.WithLabelValues("events").Inc()
		return xhttp.BadRequestResponse(c, verr)
	}

	bundles := h.newsroom.Recent(req.Limit)
	return xhttp.SuccessResponse(c, map[string]interface{}{
		"count":   len(bundles),
		"bundles": bundles,
	})
}

// Bars serves bar history. Responses are cached briefly since history
// only changes once per scan.
func (h *NewsHandler) Bars(c echo.Context) error {
	start := time.Now()
	defer func() { metrics.APILatency.WithLabelValues("bars").Observe(time.Since(start).Seconds()) }()

	req := &models.BarsRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		metrics.APIErrors.WithLabelValues("bars").Inc()
		return xhttp.BadRequestResponse(c, verr)
	}
	if !h.rl.Allow(c.RealIP()+":bars", 5, 2) {
		return xhttp.TooManyRequestsResponse(c)
	}

	from, to, err := parseBarRange(req.From, req.To)
	if err != nil {
		metrics.APIErrors.WithLabelValues("bars").Inc()
		return xhttp.BadRequestResponse(c, err.Error())
	}

	cacheKey := fmt.Sprintf("bars:%s:%s:%s:%d", req.Symbol, req.From, req.To, req.Limit)
	if h.cache != nil {
		if b, ok, cerr := h.cache.GetBytes(cacheKey); cerr == nil && ok {
			return c.JSONBlob(http.StatusOK, b)
		}
	}

	res, err := h.bars.GetBars(c.Request().Context(), usecase.GetBarsParams{
		Symbol: req.Symbol,
		From:   from,
		To:     to,
		Limit:  req.Limit,
	})
	if err != nil {
		metrics.APIErrors.WithLabelValues("bars").Inc()
		if h.logger != nil {
			h.logger.Error("bars usecase error", xlogger.Error(err))
		}
		return xhttp.AppErrorResponse(c, err)
	}

	if h.cache != nil {
		// Cache the full envelope so hits and misses answer with the
		// same shape.
		envelope := xhttp.APIResponse{
			Status:  http.StatusOK,
			Message: http.StatusText(http.StatusOK),
			Data:    res,
		}
		if b, merr := json.Marshal(envelope); merr == nil {
			_ = h.cache.SetBytes(cacheKey, b, 30*time.Second)
		}
	}
	return xhttp.SuccessResponse(c, res)
}

// Health reports process liveness plus whatever the probe adds.
func (h *NewsHandler) Health(c echo.Context) error {
	payload := map[string]interface{}{
		"status":         "ok",
		"uptime_seconds": int(time.Since(h.start).Seconds()),
	}
	if h.health != nil {
		for k, v := range h.health() {
			payload[k] = v
		}
	}
	return xhttp.SuccessResponse(c, payload)
}

func parseBarRange(fromStr, toStr string) (time.Time, time.Time, error) {
	var from, to time.Time
	var err error
	if toStr != "" {
		if to, err = parseTimeArg(toStr); err != nil {
			return from, to, err
		}
	}
	if fromStr != "" {
		if from, err = parseTimeArg(fromStr); err != nil {
			return from, to, err
		}
	}
	return from, to, nil
}

// parseTimeArg accepts RFC3339, unix seconds, or a plain date.
func parseTimeArg(s string) (time.Time, error) {
	if t, ok := util.ParseTime(s); ok {
		return t, nil
	}
	return time.Parse("2006-01-02", s)
}
