package http

import (
	"bytes"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/scrapedgit/backend/internal/domain"
	"github.com/scrapedgit/backend/internal/infrastructure/export"
	"github.com/scrapedgit/backend/internal/usecase"
)

// Response is the envelope every /api/v1 endpoint replies with
type Response struct {
	Success   bool   `json:"success"`
	Data      any    `json:"data,omitempty"`
	Error     string `json:"error,omitempty"`
	SessionID string `json:"sessionId,omitempty"`
}

// Handler holds dependencies for HTTP handlers
type Handler struct {
	chat        *usecase.ChatService
	accumulator *usecase.Accumulator
	scoring     *usecase.ScoringEngine
	shipping    *usecase.ShippingEstimator
}

// NewHandler creates a new HTTP handler
func NewHandler(
	chat *usecase.ChatService,
	accumulator *usecase.Accumulator,
	scoring *usecase.ScoringEngine,
	shipping *usecase.ShippingEstimator,
) *Handler {
	return &Handler{
		chat:        chat,
		accumulator: accumulator,
		scoring:     scoring,
		shipping:    shipping,
	}
}

// HealthCheck returns the health status of the API
func (h *Handler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": "scrapedgit-backend",
		"version": "1.0.0",
	})
}

// Chat handles one conversational turn
func (h *Handler) Chat(c *gin.Context) {
	var req usecase.ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.fail(c, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	resp, err := h.chat.HandleMessage(c.Request.Context(), req)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, Response{Success: true, Data: resp, SessionID: resp.SessionID})
}

// GetSession returns a stored conversation
func (h *Handler) GetSession(c *gin.Context) {
	id := c.Param("id")
	session, err := h.chat.GetSession(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, Response{Success: true, Data: session, SessionID: session.ID})
}

// DeleteSession clears a stored conversation
func (h *Handler) DeleteSession(c *gin.Context) {
	id := c.Param("id")
	if err := h.chat.DeleteSession(c.Request.Context(), id); err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, Response{Success: true, SessionID: id})
}

// Accumulate runs a single accumulator turn without touching any session
func (h *Handler) Accumulate(c *gin.Context) {
	var in domain.AccumulateInput
	if err := c.ShouldBindJSON(&in); err != nil {
		h.fail(c, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if strings.TrimSpace(in.Message) == "" {
		h.fail(c, http.StatusBadRequest, "message is required")
		return
	}

	turn := h.accumulator.Accumulate(c.Request.Context(), in)
	c.JSON(http.StatusOK, Response{Success: true, Data: turn})
}

// ScoreRequest is the body of POST /recommendations/score
type ScoreRequest struct {
	Products       []domain.RawProduct  `json:"products" binding:"required"`
	TargetLocation string               `json:"targetLocation"`
	Weights        *domain.Weights      `json:"weights,omitempty"`
	Filter         *usecase.ScoreFilter `json:"filter,omitempty"`
}

// ScoreResponse carries ranked products and their summary
type ScoreResponse struct {
	Products []domain.ScoredProduct `json:"products"`
	Summary  domain.ResultsSummary  `json:"summary"`
	Weights  domain.Weights         `json:"weights"`
}

// ScoreProducts ranks caller-supplied listings
func (h *Handler) ScoreProducts(c *gin.Context) {
	var req ScoreRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.fail(c, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	weights := h.scoring.Weights()
	if req.Weights != nil {
		if err := usecase.ValidateWeights(*req.Weights); err != nil {
			h.respondError(c, err)
			return
		}
		weights = *req.Weights
	}

	scored := h.scoring.Score(req.Products, req.TargetLocation, &weights)
	if req.Filter != nil {
		scored = usecase.FilterScored(scored, *req.Filter)
	}

	c.JSON(http.StatusOK, Response{Success: true, Data: ScoreResponse{
		Products: scored,
		Summary:  usecase.Summarize(scored),
		Weights:  weights,
	}})
}

// ShippingEstimate is the body returned by GET /shipping/estimate
type ShippingEstimate struct {
	From       string               `json:"from"`
	To         string               `json:"to"`
	WeightKg   float64              `json:"weightKg"`
	DistanceKm float64              `json:"distanceKm"`
	Fee        int64                `json:"fee"`
	Formatted  string               `json:"formatted"`
	Tier       usecase.ShippingTier `json:"tier"`
}

// EstimateShipping quotes a courier fee between two cities
func (h *Handler) EstimateShipping(c *gin.Context) {
	from := strings.TrimSpace(c.Query("from"))
	to := strings.TrimSpace(c.Query("to"))
	if from == "" || to == "" {
		h.fail(c, http.StatusBadRequest, "from and to are required")
		return
	}

	weight := 1.0
	if raw := c.Query("weight"); raw != "" {
		w, err := strconv.ParseFloat(raw, 64)
		if err != nil || w <= 0 {
			h.fail(c, http.StatusBadRequest, "weight must be a positive number")
			return
		}
		weight = w
	}

	fee := h.shipping.Estimate(from, to, weight)
	c.JSON(http.StatusOK, Response{Success: true, Data: ShippingEstimate{
		From:       from,
		To:         to,
		WeightKg:   weight,
		DistanceKm: h.shipping.Distance(from, to),
		Fee:        fee,
		Formatted:  usecase.FormatRupiah(fee),
		Tier:       usecase.Tier(fee),
	}})
}

// ShippingCities lists the cities the estimator knows distances for
func (h *Handler) ShippingCities(c *gin.Context) {
	c.JSON(http.StatusOK, Response{Success: true, Data: h.shipping.AvailableCities()})
}

// ExportRequest is the body of POST /export. Products win over SessionID when both are set.
type ExportRequest struct {
	Products  []domain.ScoredProduct `json:"products"`
	SessionID string                 `json:"sessionId"`
	Format    string                 `json:"format"`
	Filename  string                 `json:"filename"`
}

// Export renders ranked products as a spreadsheet download
func (h *Handler) Export(c *gin.Context) {
	var req ExportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.fail(c, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	format, err := export.ParseFormat(req.Format)
	if err != nil {
		h.respondError(c, err)
		return
	}

	products := req.Products
	if len(products) == 0 && req.SessionID != "" {
		session, err := h.chat.GetSession(c.Request.Context(), req.SessionID)
		if err != nil {
			h.respondError(c, err)
			return
		}
		products = session.LastResults
	}
	if len(products) == 0 {
		h.fail(c, http.StatusBadRequest, "no products to export")
		return
	}

	var buf bytes.Buffer
	if err := export.Write(&buf, format, products); err != nil {
		h.respondError(c, err)
		return
	}

	filename := format.Filename(req.Filename, time.Now())
	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
	c.Data(http.StatusOK, format.ContentType(), buf.Bytes())
}

// respondError maps a domain error to a status code and writes the envelope
func (h *Handler) respondError(c *gin.Context, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		zap.L().Error("request failed",
			zap.String("path", c.FullPath()),
			zap.Error(err),
		)
	}
	h.fail(c, status, err.Error())
}

func (h *Handler) fail(c *gin.Context, status int, message string) {
	c.JSON(status, Response{Success: false, Error: message})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrInvalidRequest),
		errors.Is(err, domain.ErrInvalidWeights),
		errors.Is(err, domain.ErrKeywordMissing):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrSessionNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrRateLimited):
		return http.StatusTooManyRequests
	case errors.Is(err, domain.ErrCacheUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
