package router

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Amit-Kumar22/hipro-comm-admin-sub001/internal/domain/notification"
	"github.com/Amit-Kumar22/hipro-comm-admin-sub001/internal/infrastructure/cache"
	notificationbus "github.com/Amit-Kumar22/hipro-comm-admin-sub001/internal/infrastructure/notification"
	"github.com/Amit-Kumar22/hipro-comm-admin-sub001/internal/infrastructure/scheduler"
	"github.com/Amit-Kumar22/hipro-comm-admin-sub001/internal/interfaces/http/handler"
	"github.com/Amit-Kumar22/hipro-comm-admin-sub001/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func serve(engine *gin.Engine, method, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(method, path, nil))
	return w
}

func TestNewRouter(t *testing.T) {
	r := NewRouter(gin.New())
	assert.Equal(t, "v1", r.apiVersion)
	assert.Empty(t, r.registrars)

	r = NewRouter(gin.New(), WithAPIVersion("v2"))
	assert.Equal(t, "v2", r.apiVersion)
}

func TestRouterSetup(t *testing.T) {
	engine := gin.New()
	r := NewRouter(engine)

	calls := 0
	r.Use(func(c *gin.Context) {
		calls++
		c.Next()
	})
	r.Register(NewDomainGroup("test", "/test").GET("/ping", func(c *gin.Context) {
		c.String(http.StatusOK, "pong")
	}))
	r.Setup()

	w := serve(engine, http.MethodGet, "/api/v1/test/ping")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "pong", w.Body.String())
	assert.Equal(t, 1, calls)
}

func TestDomainGroup(t *testing.T) {
	engine := gin.New()
	ok := func(body string) gin.HandlerFunc {
		return func(c *gin.Context) { c.String(http.StatusOK, body) }
	}

	g := NewDomainGroup("inventory", "/inventory")
	assert.Equal(t, "inventory", g.Name())
	assert.Equal(t, "/inventory", g.Prefix())

	g.Use(func(c *gin.Context) {
		c.Header("X-Group", "inventory")
		c.Next()
	})
	g.GET("/stats", ok("get")).POST("/stats", ok("post")).DELETE("/stats", ok("delete"))
	g.Group("reconcile", "/reconcile").GET("/status", ok("nested"))

	g.RegisterRoutes(engine.Group("/api"))

	tests := []struct {
		method string
		path   string
		body   string
	}{
		{http.MethodGet, "/api/inventory/stats", "get"},
		{http.MethodPost, "/api/inventory/stats", "post"},
		{http.MethodDelete, "/api/inventory/stats", "delete"},
		{http.MethodGet, "/api/inventory/reconcile/status", "nested"},
	}
	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			w := serve(engine, tt.method, tt.path)
			assert.Equal(t, http.StatusOK, w.Code)
			assert.Equal(t, tt.body, w.Body.String())
			assert.Equal(t, "inventory", w.Header().Get("X-Group"))
		})
	}
}

type stubController struct{}

func (stubController) RequestRun(scheduler.TriggerSource) (bool, error) { return false, nil }
func (stubController) Status() scheduler.SchedulerStatus {
	return scheduler.SchedulerStatus{Started: true, State: scheduler.StateIdle}
}
func (stubController) GetRunHistory(int) []*scheduler.ReconciliationRun { return nil }

func newTestEngine(t *testing.T) (*gin.Engine, *notificationbus.Bus) {
	t.Helper()
	bus := notificationbus.NewBus(zap.NewNop())
	t.Cleanup(bus.Shutdown)

	sse := handler.NewNotificationSSEHandler(bus)
	t.Cleanup(sse.Stop)

	h := Handlers{
		Notification:    handler.NewNotificationHandler(bus),
		NotificationSSE: sse,
		Reconciliation:  handler.NewReconciliationHandler(stubController{}, cache.NewInMemoryAdjustmentGuard()),
		Health:          handler.NewHealthHandler("test"),
	}
	return NewEngine(EngineConfig{ServiceName: "inventory-sync"}, h, zap.NewNop()), bus
}

func TestNewEngine_Routes(t *testing.T) {
	engine, bus := newTestEngine(t)
	id := bus.Publish(notification.TypeInfo, "Hello", "world", time.Minute)

	tests := []struct {
		method string
		path   string
		want   int
	}{
		{http.MethodGet, "/health", http.StatusOK},
		{http.MethodGet, "/api/v1/health", http.StatusOK},
		{http.MethodGet, "/api/v1/notifications", http.StatusOK},
		{http.MethodDelete, "/api/v1/notifications/" + id, http.StatusNoContent},
		{http.MethodDelete, "/api/v1/notifications", http.StatusNoContent},
		{http.MethodPost, "/api/v1/inventory/reconcile", http.StatusAccepted},
		{http.MethodGet, "/api/v1/inventory/reconcile/status", http.StatusOK},
		{http.MethodGet, "/api/v1/inventory/reconcile/runs", http.StatusOK},
		{http.MethodGet, "/api/v1/inventory/reconcile/runs/not-a-uuid", http.StatusBadRequest},
		{http.MethodDelete, "/api/v1/inventory/reconcile/orders/o-1", http.StatusNoContent},
		{http.MethodGet, "/api/v1/inventory/stats", http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			w := serve(engine, tt.method, tt.path)
			assert.Equal(t, tt.want, w.Code)
		})
	}
}

func TestNewEngine_SetsRequestID(t *testing.T) {
	engine, _ := newTestEngine(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/inventory/reconcile/runs/bad", nil)
	req.Header.Set(middleware.RequestIDHeader, "req-123")
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)

	assert.Equal(t, "req-123", w.Header().Get(middleware.RequestIDHeader))

	var body struct {
		Error struct {
			RequestID string `json:"request_id"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "req-123", body.Error.RequestID)
}
