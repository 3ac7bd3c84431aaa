package api

import (
	"bytes"
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/omegabytes/ecocode-sentinel/analyzer"
	"github.com/omegabytes/ecocode-sentinel/impact"
	"github.com/omegabytes/ecocode-sentinel/report"
	"github.com/omegabytes/ecocode-sentinel/request"
)

type Handler struct {
	analyzer *analyzer.Service
}

func NewHandler(svc *analyzer.Service) *Handler {
	return &Handler{analyzer: svc}
}

func (h *Handler) Estimate(c *gin.Context) {
	ctx := c.Request.Context()

	var req EstimateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		slog.WarnContext(ctx, "invalid request body", "error", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	est, err := h.analyzer.Calculator().Estimate(*req.ExecutionTimeMs, *req.MonthlyExecutions)
	if err != nil {
		if errors.Is(err, impact.ErrInvalidArgument) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to estimate impact"})
		return
	}

	c.JSON(http.StatusOK, est)
}

// Analyze runs one analysis. With ?format=html the result is rendered as an HTML report.
func (h *Handler) Analyze(c *gin.Context) {
	ctx := c.Request.Context()

	var req AnalysisRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		slog.WarnContext(ctx, "invalid request body", "error", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	res, err := h.analyzer.Analyze(ctx, req.toRequest())
	if err != nil {
		c.JSON(analysisStatus(err), gin.H{"error": err.Error()})
		return
	}

	totals := h.analyzer.Session().Snapshot()
	if c.Query("format") == "html" {
		var buf bytes.Buffer
		if err := report.WriteHTML(&buf, res, totals); err != nil {
			slog.ErrorContext(ctx, "failed to render report", "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to render report"})
			return
		}
		c.Data(http.StatusOK, "text/html; charset=utf-8", buf.Bytes())
		return
	}

	c.JSON(http.StatusOK, AnalysisResponse{Result: res, Session: totals})
}

func (h *Handler) Session(c *gin.Context) {
	c.JSON(http.StatusOK, h.analyzer.Session().Snapshot())
}

func analysisStatus(err error) int {
	switch {
	case errors.Is(err, request.ErrSourceTooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, request.ErrBinaryContent):
		return http.StatusUnsupportedMediaType
	case errors.Is(err, analyzer.ErrInvalidRequest):
		return http.StatusBadRequest
	case errors.Is(err, analyzer.ErrModelFailed):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
