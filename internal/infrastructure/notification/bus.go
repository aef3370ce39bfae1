package notification

import (
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/Amit-Kumar22/hipro-comm-admin-sub001/internal/domain/notification"
)

// Default bus settings
const (
	DefaultCapacity = 5
)

// BusConfig holds notification bus settings
type BusConfig struct {
	Capacity        int
	DefaultDuration time.Duration
}

// DefaultBusConfig returns the default bus configuration
func DefaultBusConfig() BusConfig {
	return BusConfig{
		Capacity:        DefaultCapacity,
		DefaultDuration: notification.DefaultDuration,
	}
}

// Bus is an in-process notification list with auto-expiry and synchronous listeners.
// The list is bounded and ordered newest first. Listeners always receive a copy of the
// full list and are invoked outside the bus lock, so they may call back into the bus.
//
// Changes are delivered one at a time in the order they were made. When another
// goroutine is already delivering, a change is queued and that goroutine delivers it,
// so a listener never sees an older list after a newer one.
type Bus struct {
	mu          sync.Mutex
	items       []notification.Notification
	timers      map[string]*time.Timer
	listeners   map[uint64]notification.Listener
	listenerID  uint64
	closed      bool
	pending     []delivery
	dispatching bool

	seq    atomic.Uint64
	cfg    BusConfig
	logger *zap.Logger
}

type delivery struct {
	items     []notification.Notification
	listeners []notification.Listener
}

// BusOption configures a Bus
type BusOption func(*Bus)

// WithCapacity sets the maximum number of retained notifications
func WithCapacity(n int) BusOption {
	return func(b *Bus) {
		if n > 0 {
			b.cfg.Capacity = n
		}
	}
}

// WithDefaultDuration sets the lifetime used when Publish gets a non-positive duration
func WithDefaultDuration(d time.Duration) BusOption {
	return func(b *Bus) {
		if d > 0 {
			b.cfg.DefaultDuration = d
		}
	}
}

// NewBus creates a notification bus
func NewBus(logger *zap.Logger, opts ...BusOption) *Bus {
	b := &Bus{
		timers:    make(map[string]*time.Timer),
		listeners: make(map[uint64]notification.Listener),
		cfg:       DefaultBusConfig(),
		logger:    logger,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Publish adds a notification at the head of the list and returns its ID.
// Entries beyond capacity are evicted from the tail. A non-positive duration
// uses the default. After Shutdown, Publish does nothing and returns "".
func (b *Bus) Publish(t notification.Type, title, message string, duration time.Duration) string {
	if duration <= 0 {
		duration = b.cfg.DefaultDuration
	}
	if !t.IsValid() {
		t = notification.TypeInfo
	}

	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return ""
	}

	id := strconv.FormatUint(b.seq.Add(1), 10)
	n := notification.Notification{
		ID:        id,
		Type:      t,
		Title:     title,
		Message:   message,
		Timestamp: time.Now(),
		Duration:  duration,
	}

	b.items = append([]notification.Notification{n}, b.items...)
	if len(b.items) > b.cfg.Capacity {
		for _, evicted := range b.items[b.cfg.Capacity:] {
			b.stopTimerLocked(evicted.ID)
		}
		b.items = b.items[:b.cfg.Capacity]
	}

	b.timers[id] = time.AfterFunc(duration, func() {
		b.expire(id)
	})

	b.logger.Debug("notification published",
		zap.String("notification_id", id),
		zap.String("type", string(t)),
		zap.String("title", title),
	)

	b.enqueueLocked()
	b.dispatchAndUnlock()
	return id
}

// Dismiss removes a notification and cancels its expiry timer.
// It returns false, and notifies nobody, when the ID is not present.
func (b *Bus) Dismiss(id string) bool {
	b.mu.Lock()
	if !b.removeLocked(id) {
		b.mu.Unlock()
		return false
	}
	b.stopTimerLocked(id)
	b.enqueueLocked()
	b.dispatchAndUnlock()
	return true
}

// Clear removes every notification and cancels all expiry timers
func (b *Bus) Clear() {
	b.mu.Lock()
	for id := range b.timers {
		b.stopTimerLocked(id)
	}
	b.items = nil
	b.enqueueLocked()
	b.dispatchAndUnlock()
}

// List returns a copy of the current notifications, newest first
func (b *Bus) List() []notification.Notification {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.copyItemsLocked()
}

// Subscribe registers a listener and delivers the current list to it. The first
// delivery happens before Subscribe returns unless another goroutine is delivering.
// The returned function unsubscribes and is safe to call more than once.
func (b *Bus) Subscribe(fn notification.Listener) func() {
	b.mu.Lock()
	b.listenerID++
	lid := b.listenerID
	b.listeners[lid] = fn
	b.pending = append(b.pending, delivery{
		items:     b.copyItemsLocked(),
		listeners: []notification.Listener{fn},
	})
	b.dispatchAndUnlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.listeners, lid)
			b.mu.Unlock()
		})
	}
}

// Shutdown cancels all pending timers and drops listeners. The bus accepts no
// new notifications afterwards.
func (b *Bus) Shutdown() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.closed = true
	for id := range b.timers {
		b.stopTimerLocked(id)
	}
	b.listeners = make(map[uint64]notification.Listener)
	b.logger.Info("notification bus stopped")
}

func (b *Bus) expire(id string) {
	b.mu.Lock()
	delete(b.timers, id)
	if b.closed || !b.removeLocked(id) {
		b.mu.Unlock()
		return
	}
	b.enqueueLocked()
	b.dispatchAndUnlock()
}

func (b *Bus) removeLocked(id string) bool {
	for i, n := range b.items {
		if n.ID == id {
			b.items = append(b.items[:i:i], b.items[i+1:]...)
			return true
		}
	}
	return false
}

func (b *Bus) stopTimerLocked(id string) {
	if timer, ok := b.timers[id]; ok {
		timer.Stop()
		delete(b.timers, id)
	}
}

func (b *Bus) copyItemsLocked() []notification.Notification {
	out := make([]notification.Notification, len(b.items))
	copy(out, b.items)
	return out
}

// enqueueLocked queues the current list for every registered listener
func (b *Bus) enqueueLocked() {
	listeners := make([]notification.Listener, 0, len(b.listeners))
	for _, fn := range b.listeners {
		listeners = append(listeners, fn)
	}
	b.pending = append(b.pending, delivery{items: b.copyItemsLocked(), listeners: listeners})
}

// dispatchAndUnlock drains the pending queue in order and releases b.mu. It must be
// called with b.mu held. Only one goroutine drains at a time; the others return
// right after queueing.
func (b *Bus) dispatchAndUnlock() {
	if b.dispatching {
		b.mu.Unlock()
		return
	}
	b.dispatching = true
	for len(b.pending) > 0 {
		d := b.pending[0]
		b.pending[0] = delivery{}
		b.pending = b.pending[1:]
		b.mu.Unlock()
		b.notify(d)
		b.mu.Lock()
	}
	b.pending = nil
	b.dispatching = false
	b.mu.Unlock()
}

func (b *Bus) notify(d delivery) {
	for _, fn := range d.listeners {
		// each listener gets its own copy so one cannot mutate another's view
		view := make([]notification.Notification, len(d.items))
		copy(view, d.items)
		b.deliver(fn, view)
	}
}

// deliver invokes a listener, recovering from panics
func (b *Bus) deliver(fn notification.Listener, items []notification.Notification) {
	defer func() {
		if r := recover(); r != nil {
			b.logger.Error("notification listener panicked", zap.Any("panic", r))
		}
	}()
	fn(items)
}

// Ensure Bus implements Publisher
var _ notification.Publisher = (*Bus)(nil)
