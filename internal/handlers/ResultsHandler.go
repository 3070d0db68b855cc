package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"EquityPaperBot/internal/repositories"
)

// ResultsHandler serves run artifacts read-only: the run list, metrics
// summaries, trade logs, equity curves and rejection audit trails. This is
// the only channel dashboards read from; they never see engine internals.
type ResultsHandler struct {
	runs       *repositories.RunRepository
	positions  *repositories.PositionRepository
	equity     *repositories.EquityRepository
	rejections *repositories.RejectionRepository
}

func NewResultsHandler(runs *repositories.RunRepository, positions *repositories.PositionRepository, equity *repositories.EquityRepository, rejections *repositories.RejectionRepository) *ResultsHandler {
	return &ResultsHandler{
		runs:       runs,
		positions:  positions,
		equity:     equity,
		rejections: rejections,
	}
}

// Register mounts the read-only routes.
func (h *ResultsHandler) Register(r *gin.Engine) {
	api := r.Group("/api/v1")
	api.GET("/runs", h.ListRuns)
	api.GET("/runs/:id", h.GetRun)
	api.GET("/runs/:id/trades", h.GetTrades)
	api.GET("/runs/:id/equity", h.GetEquity)
	api.GET("/runs/:id/rejections", h.GetRejections)
}

// ListRuns handles GET /api/v1/runs
func (h *ResultsHandler) ListRuns(c *gin.Context) {
	runs, err := h.runs.FindRecent(50)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, runs)
}

// GetRun handles GET /api/v1/runs/:id
func (h *ResultsHandler) GetRun(c *gin.Context) {
	run, err := h.runs.FindByID(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if run == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "run not found"})
		return
	}
	c.JSON(http.StatusOK, run)
}

// GetTrades handles GET /api/v1/runs/:id/trades
func (h *ResultsHandler) GetTrades(c *gin.Context) {
	trades, err := h.positions.FindClosedByRun(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, trades)
}

// GetEquity handles GET /api/v1/runs/:id/equity
func (h *ResultsHandler) GetEquity(c *gin.Context) {
	curve, err := h.equity.GetCurve(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, curve)
}

// GetRejections handles GET /api/v1/runs/:id/rejections
func (h *ResultsHandler) GetRejections(c *gin.Context) {
	rejections, err := h.rejections.FindByRun(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, rejections)
}
