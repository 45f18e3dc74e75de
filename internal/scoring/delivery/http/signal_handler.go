package http

import (
	"net/http"
	"strconv"

	"golang-headline-signal/internal/entity"
	"golang-headline-signal/internal/scoring/dto"
	"golang-headline-signal/internal/scoring/repository"
	"golang-headline-signal/internal/scoring/service"
	"golang-headline-signal/internal/scoring/strategy"
	"golang-headline-signal/pkg/logger"
	"golang-headline-signal/pkg/utils"

	"github.com/labstack/echo/v4"
)

// SignalHandler handles the scoring endpoints.
type SignalHandler struct {
	scoringService service.ScoringService
	historyService service.SignalHistoryService
	logger         *logger.Logger
}

// NewSignalHandler creates a new SignalHandler. historyService may be nil
// when no database is configured.
func NewSignalHandler(scoringService service.ScoringService, historyService service.SignalHistoryService, logger *logger.Logger) *SignalHandler {
	return &SignalHandler{scoringService: scoringService, historyService: historyService, logger: logger}
}

// RegisterRoutes registers the scoring routes to the Echo group.
func (h *SignalHandler) RegisterRoutes(g *echo.Group) {
	g.POST("/analyze", h.Analyze)
	g.POST("/analyze-batch", h.AnalyzeBatch)
	g.POST("/webhook", h.TradingView)
	if h.historyService != nil {
		g.GET("/signals", h.ListSignals)
	}
}

func thresholdsFrom(t *dto.ThresholdsDTO) *strategy.Thresholds {
	if t == nil {
		return nil
	}
	return &strategy.Thresholds{Buy: t.Buy, Sell: t.Sell}
}

// Analyze godoc
// @Summary Analyze a headline
// @Description Score one financial headline and derive a BUY/SELL/HOLD signal
// @Tags sentiment
// @Accept  json
// @Produce  json
// @Param   request  body    dto.AnalyzeRequest   true    "Headline to analyze"
// @Success 200 {object} dto.SuccessResponse{data=dto.SignalResponse}
// @Failure 400 {object} dto.ErrorResponse
// @Failure 502 {object} dto.ErrorResponse
// @Failure 504 {object} dto.ErrorResponse
// @Router /analyze [post]
func (h *SignalHandler) Analyze(c echo.Context) error {
	var req dto.AnalyzeRequest
	if err := c.Bind(&req); err != nil {
		return invalidPayload(c)
	}
	if err := c.Validate(&req); err != nil {
		return respondError(c, err)
	}

	res, err := h.scoringService.Score(c.Request().Context(), entity.ScoringRequest{
		Symbol:    req.Symbol,
		Headline:  req.Headline,
		RequestID: req.RequestID,
		Source:    "api",
	}, thresholdsFrom(req.Thresholds))
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(http.StatusOK, dto.Success(dto.NewSignalResponse(res)))
}

// AnalyzeBatch godoc
// @Summary Analyze a batch of headlines
// @Description Score up to 100 headlines. Results keep input order and each item succeeds or fails on its own.
// @Tags sentiment
// @Accept  json
// @Produce  json
// @Param   request  body    dto.AnalyzeBatchRequest   true    "Headlines to analyze"
// @Success 200 {object} dto.SuccessResponse{data=dto.BatchResponse}
// @Failure 400 {object} dto.ErrorResponse
// @Router /analyze-batch [post]
func (h *SignalHandler) AnalyzeBatch(c echo.Context) error {
	var req dto.AnalyzeBatchRequest
	if err := c.Bind(&req); err != nil {
		return invalidPayload(c)
	}
	if req.Thresholds != nil {
		if err := c.Validate(req.Thresholds); err != nil {
			return respondError(c, err)
		}
	}

	reqs := make([]entity.ScoringRequest, 0, len(req.Items)+len(req.Headlines))
	for _, item := range req.Items {
		reqs = append(reqs, entity.ScoringRequest{Symbol: item.Symbol, Headline: item.Headline, RequestID: item.RequestID, Source: "api"})
	}
	for _, headline := range req.Headlines {
		reqs = append(reqs, entity.ScoringRequest{Headline: headline, Source: "api"})
	}

	outcomes, err := h.scoringService.ProcessBatch(c.Request().Context(), reqs, thresholdsFrom(req.Thresholds))
	if err != nil {
		return respondError(c, err)
	}

	resp := dto.BatchResponse{
		Results: make([]dto.BatchItemResponse, len(outcomes)),
		Summary: dto.BatchSummary{Total: len(outcomes)},
	}
	for i, o := range outcomes {
		item := dto.BatchItemResponse{Index: o.Index}
		if o.OK() {
			data := dto.NewSignalResponse(*o.Result)
			item.Status = dto.StatusSuccess
			item.Data = &data
			resp.Summary.Succeeded++
		} else {
			detail := errorDetail(o.Err)
			item.Status = dto.StatusError
			item.Error = &detail
			resp.Summary.Failed++
		}
		resp.Results[i] = item
	}

	return c.JSON(http.StatusOK, dto.Success(resp))
}

// TradingView godoc
// @Summary TradingView alert webhook
// @Description Score a headline pushed by a TradingView alert
// @Tags trading
// @Accept  json
// @Produce  json
// @Param   request  body    dto.TradingViewRequest   true    "TradingView alert"
// @Success 200 {object} dto.SuccessResponse{data=dto.SignalResponse}
// @Failure 400 {object} dto.ErrorResponse
// @Failure 502 {object} dto.ErrorResponse
// @Failure 504 {object} dto.ErrorResponse
// @Router /webhook [post]
func (h *SignalHandler) TradingView(c echo.Context) error {
	var req dto.TradingViewRequest
	if err := c.Bind(&req); err != nil {
		return invalidPayload(c)
	}
	if err := c.Validate(&req); err != nil {
		return respondError(c, err)
	}
	alertTime, err := utils.ParseTimestamp(req.Timestamp)
	if err != nil {
		return respondError(c, entity.NewValidationError("timestamp", "invalid timestamp format, use RFC 3339"))
	}

	res, err := h.scoringService.Score(c.Request().Context(), entity.ScoringRequest{
		Symbol:   req.Symbol,
		Headline: req.Headline,
		Source:   "tradingview",
	}, nil)
	if err != nil {
		return respondError(c, err)
	}

	data := dto.NewSignalResponse(res)
	data.Timestamp = alertTime
	return c.JSON(http.StatusOK, dto.Success(data))
}

// ListSignals godoc
// @Summary List recent signals
// @Description Recent persisted signals, newest first
// @Tags trading
// @Produce  json
// @Param   symbol  query    string  false  "Filter by symbol"
// @Param   signal  query    string  false  "Filter by signal (BUY, SELL, HOLD)"
// @Param   limit   query    int     false  "Maximum rows (default 50, max 500)"
// @Success 200 {object} dto.SuccessResponse{data=[]dto.SignalRecordResponse}
// @Failure 400 {object} dto.ErrorResponse
// @Failure 500 {object} dto.ErrorResponse
// @Router /signals [get]
func (h *SignalHandler) ListSignals(c echo.Context) error {
	filter := repository.SignalFilter{
		Symbol: c.QueryParam("symbol"),
		Signal: c.QueryParam("signal"),
	}
	if raw := c.QueryParam("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 0 {
			return respondError(c, entity.NewValidationError("limit", "must be a non-negative integer"))
		}
		filter.Limit = limit
	}

	records, err := h.historyService.Recent(c.Request().Context(), filter)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, dto.Success(records))
}
