package handler

import (
	"context"
	"errors"
	"strconv"

	"github.com/Amit-Kumar22/hipro-comm-admin-sub001/internal/domain/inventory"
	"github.com/Amit-Kumar22/hipro-comm-admin-sub001/internal/infrastructure/persistence"
	"github.com/Amit-Kumar22/hipro-comm-admin-sub001/internal/infrastructure/scheduler"
	"github.com/Amit-Kumar22/hipro-comm-admin-sub001/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	defaultRunListLimit = 20
)

// RunController drives the reconciliation scheduler
type RunController interface {
	RequestRun(source scheduler.TriggerSource) (bool, error)
	Status() scheduler.SchedulerStatus
	GetRunHistory(limit int) []*scheduler.ReconciliationRun
}

// RunStore reads persisted run history
type RunStore interface {
	ListRecent(ctx context.Context, limit int) ([]*scheduler.ReconciliationRun, error)
	FindByID(ctx context.Context, id uuid.UUID) (*scheduler.ReconciliationRun, error)
}

// ReconciliationHandler exposes manual triggering, status and run history
type ReconciliationHandler struct {
	BaseHandler
	controller RunController
	guard      inventory.AdjustmentGuard
	store      RunStore
	logger     *zap.Logger
}

// ReconciliationHandlerOption configures a ReconciliationHandler
type ReconciliationHandlerOption func(*ReconciliationHandler)

// WithRunStore reads history from persistent storage instead of memory
func WithRunStore(store RunStore) ReconciliationHandlerOption {
	return func(h *ReconciliationHandler) {
		h.store = store
	}
}

// WithHandlerLogger sets the logger
func WithHandlerLogger(logger *zap.Logger) ReconciliationHandlerOption {
	return func(h *ReconciliationHandler) {
		h.logger = logger
	}
}

// NewReconciliationHandler creates a new ReconciliationHandler
func NewReconciliationHandler(controller RunController, guard inventory.AdjustmentGuard, opts ...ReconciliationHandlerOption) *ReconciliationHandler {
	h := &ReconciliationHandler{
		controller: controller,
		guard:      guard,
		logger:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Trigger godoc
// @ID           triggerReconciliation
// @Summary      Request a reconciliation pass
// @Description  Queues a pass; requests made while one is already pending are merged into it
// @Tags         reconciliation
// @Produce      json
// @Success      202 {object} APIResponse[dto.TriggerRunResponse]
// @Failure      503 {object} ErrorResponse
// @Router       /inventory/reconcile [post]
func (h *ReconciliationHandler) Trigger(c *gin.Context) {
	queued, err := h.controller.RequestRun(scheduler.TriggerManual)
	if err != nil {
		if errors.Is(err, scheduler.ErrSchedulerNotRunning) {
			h.ErrorWithCode(c, dto.ErrCodeSchedulerStopped, "Reconciliation scheduler is not running")
			return
		}
		h.InternalError(c, "Failed to request reconciliation")
		return
	}

	note := "reconciliation run requested"
	if !queued {
		note = "a run is already pending; this request was merged into it"
	}
	h.Accepted(c, dto.TriggerRunResponse{Queued: queued, Note: note})
}

// Status godoc
// @ID           getReconciliationStatus
// @Summary      Get reconciliation scheduler status
// @Tags         reconciliation
// @Produce      json
// @Success      200 {object} APIResponse[dto.SchedulerStatusResponse]
// @Router       /inventory/reconcile/status [get]
func (h *ReconciliationHandler) Status(c *gin.Context) {
	h.Success(c, dto.ToSchedulerStatusResponse(h.controller.Status()))
}

// ListRuns godoc
// @ID           listReconciliationRuns
// @Summary      List recent reconciliation runs
// @Tags         reconciliation
// @Produce      json
// @Param        limit query int false "Maximum runs to return" default(20) minimum(1) maximum(500)
// @Success      200 {object} APIResponse[[]dto.RunResponse]
// @Failure      400 {object} ErrorResponse
// @Router       /inventory/reconcile/runs [get]
func (h *ReconciliationHandler) ListRuns(c *gin.Context) {
	limit := defaultRunListLimit
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > persistence.MaxListLimit {
			h.BadRequest(c, "limit must be between 1 and 500")
			return
		}
		limit = n
	}

	var runs []*scheduler.ReconciliationRun
	if h.store != nil {
		var err error
		runs, err = h.store.ListRecent(c.Request.Context(), limit)
		if err != nil {
			h.logger.Error("Failed to list reconciliation runs", zap.Error(err))
			h.InternalError(c, "Failed to list reconciliation runs")
			return
		}
	} else {
		runs = h.controller.GetRunHistory(limit)
	}

	items := dto.ToRunResponses(runs)
	h.List(c, items, len(items), limit)
}

// GetRun godoc
// @ID           getReconciliationRun
// @Summary      Get a reconciliation run
// @Tags         reconciliation
// @Produce      json
// @Param        id path string true "Run ID" format(uuid)
// @Success      200 {object} APIResponse[dto.RunResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Router       /inventory/reconcile/runs/{id} [get]
func (h *ReconciliationHandler) GetRun(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid run ID format")
		return
	}

	if h.store != nil {
		run, err := h.store.FindByID(c.Request.Context(), id)
		if err != nil {
			if errors.Is(err, persistence.ErrRunNotFound) {
				h.NotFound(c, "Reconciliation run not found")
				return
			}
			h.logger.Error("Failed to load reconciliation run", zap.String("run_id", id.String()), zap.Error(err))
			h.InternalError(c, "Failed to load reconciliation run")
			return
		}
		h.Success(c, dto.ToRunResponse(run))
		return
	}

	for _, run := range h.controller.GetRunHistory(0) {
		if run.ID == id {
			h.Success(c, dto.ToRunResponse(run))
			return
		}
	}
	h.NotFound(c, "Reconciliation run not found")
}

// ClearOrder godoc
// @ID           clearOrderAdjustments
// @Summary      Forget applied adjustments for an order
// @Description  Called when an order is archived so its idempotency keys stop taking space
// @Tags         reconciliation
// @Param        orderId path string true "Order ID"
// @Success      204
// @Failure      500 {object} ErrorResponse
// @Router       /inventory/reconcile/orders/{orderId} [delete]
func (h *ReconciliationHandler) ClearOrder(c *gin.Context) {
	orderID := c.Param("orderId")
	if err := h.guard.ClearOrder(c.Request.Context(), orderID); err != nil {
		h.logger.Error("Failed to clear order adjustments", zap.String("order_id", orderID), zap.Error(err))
		h.InternalError(c, "Failed to clear order adjustments")
		return
	}
	h.NoContent(c)
}
