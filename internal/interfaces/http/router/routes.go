package router

import (
	"github.com/Amit-Kumar22/hipro-comm-admin-sub001/internal/infrastructure/logger"
	"github.com/Amit-Kumar22/hipro-comm-admin-sub001/internal/interfaces/http/handler"
	"github.com/Amit-Kumar22/hipro-comm-admin-sub001/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// maxBodySize caps request bodies; the admin API accepts no large payloads
const maxBodySize = 1 << 20

// EngineConfig configures the gin engine
type EngineConfig struct {
	ServiceName    string
	Tracing        bool
	AllowOrigins   []string
	TrustedProxies []string
}

// Handlers groups the HTTP handlers mounted by NewEngine
type Handlers struct {
	Notification    *handler.NotificationHandler
	NotificationSSE *handler.NotificationSSEHandler
	Reconciliation  *handler.ReconciliationHandler
	InventoryStats  *handler.InventoryStatsHandler
	Health          *handler.HealthHandler
}

// NewEngine builds the gin engine with the middleware stack and every route.
// Middleware order:
// 1. Recovery
// 2. RequestID
// 3. Tracing and span attributes
// 4. Request logging
// 5. CORS
// 6. BodyLimit
func NewEngine(cfg EngineConfig, h Handlers, log *zap.Logger) *gin.Engine {
	engine := gin.New()

	if len(cfg.TrustedProxies) > 0 {
		if err := engine.SetTrustedProxies(cfg.TrustedProxies); err != nil {
			log.Warn("Failed to set trusted proxies", zap.Error(err))
		}
	}

	engine.Use(logger.Recovery(log))
	engine.Use(middleware.RequestID())
	engine.Use(middleware.Tracing(middleware.TracingConfig{ServiceName: cfg.ServiceName, Enabled: cfg.Tracing}))
	engine.Use(middleware.RequestSpanAttributes())
	engine.Use(logger.GinMiddleware(log))

	corsConfig := middleware.DefaultCORSConfig()
	if len(cfg.AllowOrigins) > 0 {
		corsConfig.AllowOrigins = cfg.AllowOrigins
	}
	engine.Use(middleware.CORSWithConfig(corsConfig))
	engine.Use(middleware.BodyLimit(maxBodySize))

	if h.Health != nil {
		engine.GET("/health", h.Health.Check)
	}

	r := NewRouter(engine, WithAPIVersion("v1"))
	if h.Health != nil {
		r.Register(NewDomainGroup("system", "/health").GET("", h.Health.Check))
	}
	if h.Notification != nil {
		r.Register(notificationRoutes(h.Notification, h.NotificationSSE))
	}
	if h.Reconciliation != nil || h.InventoryStats != nil {
		r.Register(inventoryRoutes(h.Reconciliation, h.InventoryStats))
	}
	r.Setup()

	return engine
}

func notificationRoutes(nh *handler.NotificationHandler, sse *handler.NotificationSSEHandler) *DomainGroup {
	routes := NewDomainGroup("notifications", "/notifications")
	routes.GET("", nh.List)
	routes.DELETE("", nh.Clear)
	if sse != nil {
		routes.GET("/stream", sse.Stream)
	}
	routes.DELETE("/:id", nh.Dismiss)
	return routes
}

func inventoryRoutes(rh *handler.ReconciliationHandler, sh *handler.InventoryStatsHandler) *DomainGroup {
	routes := NewDomainGroup("inventory", "/inventory")
	if sh != nil {
		routes.GET("/stats", sh.Get)
	}
	if rh != nil {
		reconcile := routes.Group("reconciliation", "/reconcile")
		reconcile.POST("", rh.Trigger)
		reconcile.GET("/status", rh.Status)
		reconcile.GET("/runs", rh.ListRuns)
		reconcile.GET("/runs/:id", rh.GetRun)
		reconcile.DELETE("/orders/:orderId", rh.ClearOrder)
	}
	return routes
}
