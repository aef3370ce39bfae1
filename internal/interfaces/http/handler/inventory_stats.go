package handler

import (
	"github.com/Amit-Kumar22/hipro-comm-admin-sub001/internal/domain/inventory"
	"github.com/Amit-Kumar22/hipro-comm-admin-sub001/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// StatsSource refreshes and caches aggregate inventory statistics
type StatsSource interface {
	inventory.StatsRefresher
	LatestStats() *inventory.InventoryStats
}

// InventoryStatsHandler serves the cached inventory statistics
type InventoryStatsHandler struct {
	BaseHandler
	source StatsSource
	logger *zap.Logger
}

// NewInventoryStatsHandler creates a new InventoryStatsHandler
func NewInventoryStatsHandler(source StatsSource, logger *zap.Logger) *InventoryStatsHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &InventoryStatsHandler{source: source, logger: logger}
}

// Get godoc
// @ID           getInventoryStats
// @Summary      Get aggregate inventory statistics
// @Description  Returns the last fetched snapshot; refresh=true fetches a new one first
// @Tags         inventory
// @Produce      json
// @Param        refresh query bool false "Fetch fresh statistics first"
// @Success      200 {object} APIResponse[dto.InventoryStatsResponse]
// @Failure      404 {object} ErrorResponse
// @Failure      502 {object} ErrorResponse
// @Router       /inventory/stats [get]
func (h *InventoryStatsHandler) Get(c *gin.Context) {
	if c.Query("refresh") == "true" {
		if err := h.source.RefreshStats(c.Request.Context()); err != nil {
			h.logger.Warn("Inventory stats refresh failed", zap.Error(err))
			h.ErrorWithCode(c, dto.ErrCodeUpstream, "Failed to refresh inventory statistics")
			return
		}
	}

	stats := h.source.LatestStats()
	if stats == nil {
		h.NotFound(c, "Inventory statistics not available yet")
		return
	}
	h.Success(c, dto.ToInventoryStatsResponse(stats))
}
