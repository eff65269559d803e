// internal/api/handlers/replenishment_handler.go
package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/andresuchdata/replenish/internal/policy"
	"github.com/andresuchdata/replenish/internal/repository"
	"github.com/andresuchdata/replenish/internal/service"
	"github.com/andresuchdata/replenish/internal/simulation"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

// MaxSweepRuns bounds service levels times replications for one request.
const MaxSweepRuns = simulation.MaxSweepRuns

type ReplenishmentHandler struct {
	service *service.ReplenishmentService
}

func NewReplenishmentHandler(service *service.ReplenishmentService) *ReplenishmentHandler {
	return &ReplenishmentHandler{service: service}
}

// EvaluatePolicy computes safety stock, reorder point and the cost comparison
func (h *ReplenishmentHandler) EvaluatePolicy(c *gin.Context) {
	var req service.PolicyRequest
	if !bindOptionalJSON(c, &req) {
		return
	}

	resp, err := h.service.Evaluate(c.Request.Context(), req)
	if err != nil {
		respondError(c, "failed to evaluate policy", err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Simulate runs one seeded or unseeded simulation
func (h *ReplenishmentHandler) Simulate(c *gin.Context) {
	var req service.SimulationRequest
	if !bindOptionalJSON(c, &req) {
		return
	}

	resp, err := h.service.Simulate(c.Request.Context(), req)
	if err != nil {
		respondError(c, "failed to run simulation", err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Sweep runs a Monte Carlo sweep over service levels
func (h *ReplenishmentHandler) Sweep(c *gin.Context) {
	var req service.SweepRequest
	if !bindOptionalJSON(c, &req) {
		return
	}

	levels := len(req.ServiceLevels)
	if levels == 0 {
		levels = 1
	}
	if req.Replications > MaxSweepRuns/levels {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "sweep too large",
			"details": fmt.Sprintf("service_levels x replications must not exceed %d", MaxSweepRuns),
		})
		return
	}

	resp, err := h.service.Sweep(c.Request.Context(), req)
	if err != nil {
		respondError(c, "failed to run sweep", err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// GetBaseline returns the stored baseline for an item
func (h *ReplenishmentHandler) GetBaseline(c *gin.Context) {
	item := strings.TrimSpace(c.Param("item"))
	if item == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "item is required"})
		return
	}

	baseline, err := h.service.GetBaseline(c.Request.Context(), item)
	if err != nil {
		respondError(c, "failed to fetch baseline", err)
		return
	}
	c.JSON(http.StatusOK, baseline)
}

// GetForecast returns a forecast series and its average weekly rate
func (h *ReplenishmentHandler) GetForecast(c *gin.Context) {
	forecast, err := h.service.GetForecast(c.Request.Context(), strings.TrimSpace(c.Query("ref")))
	if err != nil {
		respondError(c, "failed to fetch forecast", err)
		return
	}
	c.JSON(http.StatusOK, forecast)
}

// bindOptionalJSON decodes the body when one is present. An empty body means
// "use every default".
func bindOptionalJSON(c *gin.Context, dst any) bool {
	if c.Request.Body == nil || c.Request.ContentLength == 0 {
		return true
	}
	if err := c.ShouldBindJSON(dst); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "invalid request body",
			"details": err.Error(),
		})
		return false
	}
	return true
}

func respondError(c *gin.Context, message string, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, policy.ErrInvalidParameter):
		status = http.StatusBadRequest
	case errors.Is(err, repository.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, repository.ErrInvalidData):
		status = http.StatusUnprocessableEntity
	}

	if status == http.StatusInternalServerError {
		log.Error().Err(err).Str("path", c.Request.URL.Path).Msg(message)
	} else {
		log.Debug().Err(err).Int("status", status).Msg(message)
	}

	c.JSON(status, gin.H{
		"error":   message,
		"details": err.Error(),
	})
}
