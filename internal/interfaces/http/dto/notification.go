package dto

import (
	"time"

	"github.com/Amit-Kumar22/hipro-comm-admin-sub001/internal/domain/notification"
)

// NotificationResponse is a notification as shown to dashboard clients
type NotificationResponse struct {
	ID        string    `json:"id"`
	Type      string    `json:"type"`
	Title     string    `json:"title"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
	Duration  int64     `json:"duration"` // milliseconds
}

// ToNotificationResponses converts bus items, keeping newest-first order
func ToNotificationResponses(items []notification.Notification) []NotificationResponse {
	out := make([]NotificationResponse, 0, len(items))
	for _, n := range items {
		out = append(out, NotificationResponse{
			ID:        n.ID,
			Type:      string(n.Type),
			Title:     n.Title,
			Message:   n.Message,
			Timestamp: n.Timestamp,
			Duration:  n.DurationMillis(),
		})
	}
	return out
}
