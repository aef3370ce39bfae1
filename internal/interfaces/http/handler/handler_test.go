package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Amit-Kumar22/hipro-comm-admin-sub001/internal/domain/inventory"
	"github.com/Amit-Kumar22/hipro-comm-admin-sub001/internal/domain/notification"
	"github.com/Amit-Kumar22/hipro-comm-admin-sub001/internal/domain/order"
	"github.com/Amit-Kumar22/hipro-comm-admin-sub001/internal/infrastructure/cache"
	notificationbus "github.com/Amit-Kumar22/hipro-comm-admin-sub001/internal/infrastructure/notification"
	"github.com/Amit-Kumar22/hipro-comm-admin-sub001/internal/infrastructure/persistence"
	"github.com/Amit-Kumar22/hipro-comm-admin-sub001/internal/infrastructure/scheduler"
	"github.com/Amit-Kumar22/hipro-comm-admin-sub001/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *dto.ErrorInfo  `json:"error"`
	Meta    *dto.Meta       `json:"meta"`
}

func perform(t *testing.T, engine *gin.Engine, method, path string) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	req := httptest.NewRequest(method, path, nil)
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)

	var body envelope
	if w.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	}
	return w, body
}

func newBus(t *testing.T) *notificationbus.Bus {
	t.Helper()
	bus := notificationbus.NewBus(zap.NewNop())
	t.Cleanup(bus.Shutdown)
	return bus
}

// Notifications

func TestNotificationHandler_ListDismissClear(t *testing.T) {
	bus := newBus(t)
	h := NewNotificationHandler(bus)

	engine := gin.New()
	engine.GET("/notifications", h.List)
	engine.DELETE("/notifications/:id", h.Dismiss)
	engine.DELETE("/notifications", h.Clear)

	first := bus.Publish(notification.TypeInfo, "First", "one", time.Minute)
	bus.Publish(notification.TypeWarning, "Second", "two", time.Minute)

	w, body := perform(t, engine, http.MethodGet, "/notifications")
	require.Equal(t, http.StatusOK, w.Code)
	var items []dto.NotificationResponse
	require.NoError(t, json.Unmarshal(body.Data, &items))
	require.Len(t, items, 2)
	assert.Equal(t, "Second", items[0].Title)
	assert.Equal(t, int64(60000), items[0].Duration)
	require.NotNil(t, body.Meta)
	assert.Equal(t, 2, body.Meta.Total)

	w, _ = perform(t, engine, http.MethodDelete, "/notifications/"+first)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Len(t, bus.List(), 1)

	w, body = perform(t, engine, http.MethodDelete, "/notifications/"+first)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, dto.ErrCodeNotFound, body.Error.Code)

	w, _ = perform(t, engine, http.MethodDelete, "/notifications")
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Empty(t, bus.List())
}

func TestNotificationSSEHandler_Options(t *testing.T) {
	logger := zap.NewNop()
	h := NewNotificationSSEHandler(newBus(t),
		WithSSELogger(logger),
		WithSSEHeartbeat(10*time.Second),
		WithSSEMaxClients(5),
	)

	assert.Equal(t, 10*time.Second, h.heartbeat)
	assert.Equal(t, 5, h.maxClients)
	assert.Equal(t, logger, h.logger)
	assert.Equal(t, 0, h.ClientCount())
}

func TestNotificationSSEHandler_StreamsLatestList(t *testing.T) {
	bus := newBus(t)
	h := NewNotificationSSEHandler(bus, WithSSEHeartbeat(time.Hour))
	defer h.Stop()

	engine := gin.New()
	engine.GET("/stream", h.Stream)

	ctx, cancel := context.WithCancel(context.Background())
	req := httptest.NewRequest(http.MethodGet, "/stream", nil).WithContext(ctx)
	w := httptest.NewRecorder()

	done := make(chan struct{})
	go func() {
		defer close(done)
		engine.ServeHTTP(w, req)
	}()

	require.Eventually(t, func() bool { return h.ClientCount() == 1 }, time.Second, 5*time.Millisecond)
	bus.Publish(notification.TypeSuccess, "Stock updated", "Widget: 5 units", time.Minute)
	time.Sleep(100 * time.Millisecond)

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("stream did not return after client disconnect")
	}

	out := w.Body.String()
	assert.Equal(t, "text/event-stream", w.Header().Get("Content-Type"))
	assert.Contains(t, out, "event: connected")
	assert.Contains(t, out, "event: notifications")
	assert.Contains(t, out, "Stock updated")
	assert.Equal(t, 0, h.ClientCount())
}

func TestNotificationSSEHandler_MaxClients(t *testing.T) {
	h := NewNotificationSSEHandler(newBus(t), WithSSEMaxClients(1))
	h.clients.Store(1)

	engine := gin.New()
	engine.GET("/stream", h.Stream)

	w, body := perform(t, engine, http.MethodGet, "/stream")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Equal(t, dto.ErrCodeMaxConnections, body.Error.Code)
}

func TestNotificationSSEHandler_StoppedRejects(t *testing.T) {
	h := NewNotificationSSEHandler(newBus(t))
	h.Stop()
	h.Stop()

	engine := gin.New()
	engine.GET("/stream", h.Stream)

	w, body := perform(t, engine, http.MethodGet, "/stream")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Equal(t, dto.ErrCodeServiceUnavailable, body.Error.Code)
}

func TestOfferLatest_KeepsNewest(t *testing.T) {
	ch := make(chan []notification.Notification, 1)
	offerLatest(ch, []notification.Notification{{ID: "a"}})
	offerLatest(ch, []notification.Notification{{ID: "b"}})

	got := <-ch
	require.Len(t, got, 1)
	assert.Equal(t, "b", got[0].ID)
}

// Reconciliation

type fakeController struct {
	queued  bool
	err     error
	sources []scheduler.TriggerSource
	status  scheduler.SchedulerStatus
	history []*scheduler.ReconciliationRun
}

func (f *fakeController) RequestRun(source scheduler.TriggerSource) (bool, error) {
	f.sources = append(f.sources, source)
	return f.queued, f.err
}

func (f *fakeController) Status() scheduler.SchedulerStatus {
	return f.status
}

func (f *fakeController) GetRunHistory(limit int) []*scheduler.ReconciliationRun {
	if limit <= 0 || limit > len(f.history) {
		return f.history
	}
	return f.history[:limit]
}

type fakeRunStore struct {
	runs      map[uuid.UUID]*scheduler.ReconciliationRun
	err       error
	lastLimit int
}

func (f *fakeRunStore) ListRecent(_ context.Context, limit int) ([]*scheduler.ReconciliationRun, error) {
	f.lastLimit = limit
	if f.err != nil {
		return nil, f.err
	}
	out := make([]*scheduler.ReconciliationRun, 0, len(f.runs))
	for _, r := range f.runs {
		out = append(out, r)
	}
	return out, nil
}

func (f *fakeRunStore) FindByID(_ context.Context, id uuid.UUID) (*scheduler.ReconciliationRun, error) {
	if f.err != nil {
		return nil, f.err
	}
	run, ok := f.runs[id]
	if !ok {
		return nil, persistence.ErrRunNotFound
	}
	return run, nil
}

func newRun(status scheduler.RunStatus) *scheduler.ReconciliationRun {
	now := time.Now()
	return &scheduler.ReconciliationRun{
		ID:        uuid.New(),
		Trigger:   scheduler.TriggerTimer,
		Status:    status,
		StartedAt: now,
	}
}

func reconciliationEngine(h *ReconciliationHandler) *gin.Engine {
	engine := gin.New()
	engine.POST("/reconcile", h.Trigger)
	engine.GET("/reconcile/status", h.Status)
	engine.GET("/reconcile/runs", h.ListRuns)
	engine.GET("/reconcile/runs/:id", h.GetRun)
	engine.DELETE("/reconcile/orders/:orderId", h.ClearOrder)
	return engine
}

func TestReconciliationHandler_Trigger(t *testing.T) {
	tests := []struct {
		name       string
		queued     bool
		err        error
		wantStatus int
		wantQueued bool
		wantCode   string
	}{
		{name: "merged into pending run", wantStatus: http.StatusAccepted},
		{name: "queued", queued: true, wantStatus: http.StatusAccepted, wantQueued: true},
		{name: "scheduler stopped", err: scheduler.ErrSchedulerNotRunning, wantStatus: http.StatusServiceUnavailable, wantCode: dto.ErrCodeSchedulerStopped},
		{name: "other error", err: errors.New("boom"), wantStatus: http.StatusInternalServerError, wantCode: dto.ErrCodeInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := &fakeController{queued: tt.queued, err: tt.err}
			engine := reconciliationEngine(NewReconciliationHandler(ctrl, cache.NewInMemoryAdjustmentGuard()))

			w, body := perform(t, engine, http.MethodPost, "/reconcile")
			assert.Equal(t, tt.wantStatus, w.Code)
			assert.Equal(t, []scheduler.TriggerSource{scheduler.TriggerManual}, ctrl.sources)

			if tt.wantCode != "" {
				assert.Equal(t, tt.wantCode, body.Error.Code)
				return
			}
			var resp dto.TriggerRunResponse
			require.NoError(t, json.Unmarshal(body.Data, &resp))
			assert.Equal(t, tt.wantQueued, resp.Queued)
			assert.NotEmpty(t, resp.Note)
		})
	}
}

func TestReconciliationHandler_Status(t *testing.T) {
	last := newRun(scheduler.RunStatusSuccess)
	ctrl := &fakeController{status: scheduler.SchedulerStatus{
		Started:   true,
		State:     scheduler.StateIdle,
		Interval:  30 * time.Second,
		LastRun:   last,
		TotalRuns: 3,
	}}
	engine := reconciliationEngine(NewReconciliationHandler(ctrl, cache.NewInMemoryAdjustmentGuard()))

	w, body := perform(t, engine, http.MethodGet, "/reconcile/status")
	require.Equal(t, http.StatusOK, w.Code)

	var resp dto.SchedulerStatusResponse
	require.NoError(t, json.Unmarshal(body.Data, &resp))
	assert.True(t, resp.Started)
	assert.Equal(t, "30s", resp.Interval)
	assert.Equal(t, int64(3), resp.TotalRuns)
	require.NotNil(t, resp.LastRun)
	assert.Equal(t, last.ID.String(), resp.LastRun.ID)
	assert.Nil(t, resp.CurrentRun)
}

func TestReconciliationHandler_ListRuns_FromMemory(t *testing.T) {
	ctrl := &fakeController{history: []*scheduler.ReconciliationRun{
		newRun(scheduler.RunStatusSuccess),
		newRun(scheduler.RunStatusFailed),
		newRun(scheduler.RunStatusNoChanges),
	}}
	engine := reconciliationEngine(NewReconciliationHandler(ctrl, cache.NewInMemoryAdjustmentGuard()))

	w, body := perform(t, engine, http.MethodGet, "/reconcile/runs?limit=2")
	require.Equal(t, http.StatusOK, w.Code)
	var runs []dto.RunResponse
	require.NoError(t, json.Unmarshal(body.Data, &runs))
	assert.Len(t, runs, 2)
	assert.Equal(t, ctrl.history[0].ID.String(), runs[0].ID)

	for _, bad := range []string{"0", "501", "abc", "-3"} {
		w, body = perform(t, engine, http.MethodGet, "/reconcile/runs?limit="+bad)
		assert.Equal(t, http.StatusBadRequest, w.Code, bad)
		assert.Equal(t, dto.ErrCodeBadRequest, body.Error.Code)
	}
}

func TestReconciliationHandler_ListRuns_FromStore(t *testing.T) {
	run := newRun(scheduler.RunStatusPartial)
	store := &fakeRunStore{runs: map[uuid.UUID]*scheduler.ReconciliationRun{run.ID: run}}
	engine := reconciliationEngine(NewReconciliationHandler(&fakeController{}, cache.NewInMemoryAdjustmentGuard(), WithRunStore(store)))

	w, body := perform(t, engine, http.MethodGet, "/reconcile/runs")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, defaultRunListLimit, store.lastLimit)
	var runs []dto.RunResponse
	require.NoError(t, json.Unmarshal(body.Data, &runs))
	require.Len(t, runs, 1)
	assert.Equal(t, "PARTIAL", runs[0].Status)

	store.err = errors.New("db down")
	w, _ = perform(t, engine, http.MethodGet, "/reconcile/runs")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestReconciliationHandler_GetRun(t *testing.T) {
	run := newRun(scheduler.RunStatusSuccess)

	t.Run("memory history", func(t *testing.T) {
		ctrl := &fakeController{history: []*scheduler.ReconciliationRun{run}}
		engine := reconciliationEngine(NewReconciliationHandler(ctrl, cache.NewInMemoryAdjustmentGuard()))

		w, body := perform(t, engine, http.MethodGet, "/reconcile/runs/"+run.ID.String())
		require.Equal(t, http.StatusOK, w.Code)
		var resp dto.RunResponse
		require.NoError(t, json.Unmarshal(body.Data, &resp))
		assert.Equal(t, run.ID.String(), resp.ID)

		w, _ = perform(t, engine, http.MethodGet, "/reconcile/runs/"+uuid.NewString())
		assert.Equal(t, http.StatusNotFound, w.Code)

		w, _ = perform(t, engine, http.MethodGet, "/reconcile/runs/not-a-uuid")
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("store", func(t *testing.T) {
		store := &fakeRunStore{runs: map[uuid.UUID]*scheduler.ReconciliationRun{run.ID: run}}
		engine := reconciliationEngine(NewReconciliationHandler(&fakeController{}, cache.NewInMemoryAdjustmentGuard(), WithRunStore(store)))

		w, _ := perform(t, engine, http.MethodGet, "/reconcile/runs/"+run.ID.String())
		assert.Equal(t, http.StatusOK, w.Code)

		w, body := perform(t, engine, http.MethodGet, "/reconcile/runs/"+uuid.NewString())
		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.Equal(t, dto.ErrCodeNotFound, body.Error.Code)
	})
}

func TestReconciliationHandler_ClearOrder(t *testing.T) {
	ctx := context.Background()
	guard := cache.NewInMemoryAdjustmentGuard()
	key := inventory.AdjustmentKey{OrderID: "o-1", ProductID: "p-1", Status: order.StatusConfirmed}
	require.NoError(t, guard.MarkApplied(ctx, key))

	engine := reconciliationEngine(NewReconciliationHandler(&fakeController{}, guard))
	w, _ := perform(t, engine, http.MethodDelete, "/reconcile/orders/o-1")
	assert.Equal(t, http.StatusNoContent, w.Code)

	ok, err := guard.ShouldApply(ctx, key)
	require.NoError(t, err)
	assert.True(t, ok)
}

// Inventory stats

type fakeStats struct {
	stats      *inventory.InventoryStats
	refreshErr error
	refreshed  int
}

func (f *fakeStats) RefreshStats(context.Context) error {
	f.refreshed++
	if f.refreshErr != nil {
		return f.refreshErr
	}
	f.stats = &inventory.InventoryStats{TotalProducts: 7, TotalStock: 140, LowStockCount: 2, RefreshedAt: time.Now()}
	return nil
}

func (f *fakeStats) LatestStats() *inventory.InventoryStats {
	return f.stats
}

func TestInventoryStatsHandler_Get(t *testing.T) {
	src := &fakeStats{}
	engine := gin.New()
	engine.GET("/stats", NewInventoryStatsHandler(src, nil).Get)

	w, body := perform(t, engine, http.MethodGet, "/stats")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, dto.ErrCodeNotFound, body.Error.Code)

	w, body = perform(t, engine, http.MethodGet, "/stats?refresh=true")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1, src.refreshed)
	var resp dto.InventoryStatsResponse
	require.NoError(t, json.Unmarshal(body.Data, &resp))
	assert.Equal(t, 7, resp.TotalProducts)
	assert.Equal(t, 140, resp.TotalStock)

	src.refreshErr = errors.New("upstream 500")
	w, body = perform(t, engine, http.MethodGet, "/stats?refresh=true")
	assert.Equal(t, http.StatusBadGateway, w.Code)
	assert.Equal(t, dto.ErrCodeUpstream, body.Error.Code)
}

// Health

func TestHealthHandler_Check(t *testing.T) {
	t.Run("healthy", func(t *testing.T) {
		h := NewHealthHandler("1.2.3").AddCheck("redis", func(context.Context) error { return nil })
		engine := gin.New()
		engine.GET("/health", h.Check)

		w := httptest.NewRecorder()
		engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
		require.Equal(t, http.StatusOK, w.Code)

		var resp HealthResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, "healthy", resp.Status)
		assert.Equal(t, "1.2.3", resp.Version)
		assert.Equal(t, "ok", resp.Checks["redis"])
	})

	t.Run("degraded", func(t *testing.T) {
		h := NewHealthHandler("dev").
			AddCheck("redis", func(context.Context) error { return nil }).
			AddCheck("database", func(context.Context) error { return errors.New("connection refused") })
		engine := gin.New()
		engine.GET("/health", h.Check)

		w := httptest.NewRecorder()
		engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
		require.Equal(t, http.StatusServiceUnavailable, w.Code)

		var resp HealthResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, "degraded", resp.Status)
		assert.Equal(t, "connection refused", resp.Checks["database"])
		assert.Equal(t, "ok", resp.Checks["redis"])
	})
}
