package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Amit-Kumar22/hipro-comm-admin-sub001/internal/domain/notification"
	"github.com/Amit-Kumar22/hipro-comm-admin-sub001/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// SSE event names
const (
	SSEEventConnected     = "connected"
	SSEEventNotifications = "notifications"
	SSEEventHeartbeat     = "heartbeat"
)

// SSEMessage is one server-sent event
type SSEMessage struct {
	Event string
	Data  string
	ID    string
}

// NotificationSSEHandler streams the notification list to dashboard clients.
// Every change on the bus sends the full current list; a slow client only
// ever receives the latest list.
type NotificationSSEHandler struct {
	BaseHandler
	center     NotificationCenter
	logger     *zap.Logger
	heartbeat  time.Duration
	maxClients int

	clients atomic.Int64
	ctx     context.Context
	cancel  context.CancelFunc
	stop    sync.Once
}

// NotificationSSEOption is a functional option for configuring the handler
type NotificationSSEOption func(*NotificationSSEHandler)

// WithSSELogger sets the logger for the handler
func WithSSELogger(logger *zap.Logger) NotificationSSEOption {
	return func(h *NotificationSSEHandler) {
		h.logger = logger
	}
}

// WithSSEHeartbeat sets the heartbeat interval
func WithSSEHeartbeat(interval time.Duration) NotificationSSEOption {
	return func(h *NotificationSSEHandler) {
		if interval > 0 {
			h.heartbeat = interval
		}
	}
}

// WithSSEMaxClients sets the maximum number of concurrent SSE clients
func WithSSEMaxClients(n int) NotificationSSEOption {
	return func(h *NotificationSSEHandler) {
		h.maxClients = n
	}
}

// NewNotificationSSEHandler creates a new SSE handler
func NewNotificationSSEHandler(center NotificationCenter, opts ...NotificationSSEOption) *NotificationSSEHandler {
	ctx, cancel := context.WithCancel(context.Background())
	h := &NotificationSSEHandler{
		center:     center,
		logger:     zap.NewNop(),
		heartbeat:  30 * time.Second,
		maxClients: 1000,
		ctx:        ctx,
		cancel:     cancel,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Stop disconnects every client. Safe to call more than once.
func (h *NotificationSSEHandler) Stop() {
	h.stop.Do(func() {
		h.cancel()
		h.logger.Info("Notification SSE handler stopped")
	})
}

// ClientCount returns the number of connected clients
func (h *NotificationSSEHandler) ClientCount() int {
	return int(h.clients.Load())
}

// Stream godoc
// @ID           streamNotifications
// @Summary      Subscribe to notifications via SSE
// @Description  Sends the full notification list on connect and after every change
// @Tags         notifications
// @Produce      text/event-stream
// @Success      200 {string} string "SSE stream"
// @Failure      503 {object} ErrorResponse
// @Router       /notifications/stream [get]
func (h *NotificationSSEHandler) Stream(c *gin.Context) {
	if h.ctx.Err() != nil {
		h.ErrorWithCode(c, dto.ErrCodeServiceUnavailable, "Notification stream is shutting down")
		return
	}
	if h.maxClients > 0 && h.ClientCount() >= h.maxClients {
		h.ErrorWithCode(c, dto.ErrCodeMaxConnections, "Maximum number of SSE connections reached")
		return
	}

	c.Writer.Header().Set("Content-Type", "text/event-stream")
	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Writer.Header().Set("Connection", "keep-alive")
	c.Writer.Header().Set("X-Accel-Buffering", "no")

	clientID := uuid.New().String()
	h.clients.Add(1)
	defer h.clients.Add(-1)

	// Holds at most the latest list
	updates := make(chan []notification.Notification, 1)
	unsubscribe := h.center.Subscribe(func(items []notification.Notification) {
		offerLatest(updates, items)
	})
	defer unsubscribe()

	h.logger.Info("SSE client connected", zap.String("client_id", clientID))

	h.sendEvent(c.Writer, SSEMessage{
		Event: SSEEventConnected,
		Data:  fmt.Sprintf(`{"client_id":%q,"timestamp":%d}`, clientID, time.Now().Unix()),
	})
	c.Writer.Flush()

	ticker := time.NewTicker(h.heartbeat)
	defer ticker.Stop()

	reqCtx := c.Request.Context()
	var seq uint64
	for {
		select {
		case <-reqCtx.Done():
			h.logger.Info("SSE client disconnected", zap.String("client_id", clientID))
			return
		case <-h.ctx.Done():
			return
		case <-ticker.C:
			h.sendEvent(c.Writer, SSEMessage{
				Event: SSEEventHeartbeat,
				Data:  fmt.Sprintf(`{"timestamp":%d}`, time.Now().Unix()),
			})
			c.Writer.Flush()
		case items := <-updates:
			data, err := json.Marshal(dto.ToNotificationResponses(items))
			if err != nil {
				h.logger.Error("Failed to marshal notifications", zap.Error(err))
				continue
			}
			seq++
			h.sendEvent(c.Writer, SSEMessage{
				Event: SSEEventNotifications,
				Data:  string(data),
				ID:    strconv.FormatUint(seq, 10),
			})
			c.Writer.Flush()
		}
	}
}

// offerLatest replaces any queued list with items without blocking
func offerLatest(ch chan []notification.Notification, items []notification.Notification) {
	for {
		select {
		case ch <- items:
			return
		default:
		}
		select {
		case <-ch:
		default:
		}
	}
}

// sendEvent writes an SSE event to the response writer
func (h *NotificationSSEHandler) sendEvent(w io.Writer, msg SSEMessage) {
	if msg.Event != "" {
		fmt.Fprintf(w, "event: %s\n", msg.Event)
	}
	if msg.ID != "" {
		fmt.Fprintf(w, "id: %s\n", msg.ID)
	}
	fmt.Fprintf(w, "data: %s\n\n", msg.Data)
}
