// Package notify delivers user-facing outcomes and state updates to the dashboard UI.
package notify

import (
	"context"
	"log"
	"sync"

	"github.com/wailsapp/wails/v2/pkg/runtime"
)

// Level is the severity shown by the UI toast
type Level string

const (
	LevelSuccess Level = "success"
	LevelError   Level = "error"
	LevelInfo    Level = "info"
)

// Event names the frontend subscribes to
const (
	EventNotification   = "notification"
	EventTasksUpdated   = "tasks:updated"
	EventProfileUpdated = "profile:updated"
)

// Notification is a single message for the UI layer
type Notification struct {
	Level   Level  `json:"level"`
	Message string `json:"message"`
}

// Notifier accepts notifications; implementations must not block
type Notifier interface {
	Notify(n Notification)
}

// Publisher pushes arbitrary state payloads to the UI
type Publisher interface {
	Publish(event string, payload interface{})
}

// EmitFunc matches runtime.EventsEmit
type EmitFunc func(ctx context.Context, eventName string, optionalData ...interface{})

// EventNotifier forwards notifications and state updates as Wails frontend events
type EventNotifier struct {
	ctx  context.Context
	emit EmitFunc
}

// NewEventNotifier creates a notifier bound to the Wails application context
func NewEventNotifier(ctx context.Context) *EventNotifier {
	return &EventNotifier{ctx: ctx, emit: runtime.EventsEmit}
}

// NewEventNotifierWithEmitter creates a notifier using a custom emitter
func NewEventNotifierWithEmitter(ctx context.Context, emit EmitFunc) *EventNotifier {
	return &EventNotifier{ctx: ctx, emit: emit}
}

// Notify implements Notifier
func (n *EventNotifier) Notify(notification Notification) {
	n.emit(n.ctx, EventNotification, notification)
	log.Printf("[notify] %s: %s", notification.Level, notification.Message)
}

// Publish implements Publisher
func (n *EventNotifier) Publish(event string, payload interface{}) {
	n.emit(n.ctx, event, payload)
}

// LogNotifier only writes notifications to the log, used headless and in tools
type LogNotifier struct{}

// Notify implements Notifier
func (LogNotifier) Notify(notification Notification) {
	log.Printf("[notify] %s: %s", notification.Level, notification.Message)
}

// Publish implements Publisher
func (LogNotifier) Publish(event string, payload interface{}) {}

// Recorder keeps every notification and published event in memory
type Recorder struct {
	mu            sync.Mutex
	notifications []Notification
	events        map[string][]interface{}
}

// NewRecorder creates an empty Recorder
func NewRecorder() *Recorder {
	return &Recorder{events: make(map[string][]interface{})}
}

// Notify implements Notifier
func (r *Recorder) Notify(notification Notification) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.notifications = append(r.notifications, notification)
}

// Publish implements Publisher
func (r *Recorder) Publish(event string, payload interface{}) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events[event] = append(r.events[event], payload)
}

// Notifications returns a copy of everything received so far
func (r *Recorder) Notifications() []Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Notification, len(r.notifications))
	copy(out, r.notifications)
	return out
}

// Events returns a copy of the payloads published under event
func (r *Recorder) Events(event string) []interface{} {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]interface{}, len(r.events[event]))
	copy(out, r.events[event])
	return out
}
