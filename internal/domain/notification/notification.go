package notification

import "time"

// Type is the severity of a notification
type Type string

const (
	TypeSuccess Type = "success"
	TypeWarning Type = "warning"
	TypeError   Type = "error"
	TypeInfo    Type = "info"
)

// IsValid reports whether the type is one of the known severities
func (t Type) IsValid() bool {
	switch t {
	case TypeSuccess, TypeWarning, TypeError, TypeInfo:
		return true
	default:
		return false
	}
}

// DefaultDuration is the display lifetime used when none is given
const DefaultDuration = 5 * time.Second

// Notification is a transient, user-visible message
type Notification struct {
	ID        string        `json:"id"`
	Type      Type          `json:"type"`
	Title     string        `json:"title"`
	Message   string        `json:"message"`
	Timestamp time.Time     `json:"timestamp"`
	Duration  time.Duration `json:"-"`
}

// DurationMillis returns the display lifetime in milliseconds
func (n Notification) DurationMillis() int64 {
	return n.Duration.Milliseconds()
}

// Listener receives the full current list, newest first, after every change
type Listener func([]Notification)

// Publisher accepts new notifications and returns their IDs
type Publisher interface {
	Publish(t Type, title, message string, duration time.Duration) string
}
