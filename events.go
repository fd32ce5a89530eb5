package beatlab

import (
	"context"
	"fmt"
	"sync"
	"time"

	cloudevents "github.com/cloudevents/sdk-go/v2"
	"github.com/google/uuid"
)

// CloudEvent is an alias for the CloudEvents Event type for convenience.
type CloudEvent = cloudevents.Event

// Event names emitted by the Manager. These names and their payloads are
// a stable contract for any listener.
const (
	EventModuleRegistered    = "module:registered"
	EventModuleUnregistered  = "module:unregistered"
	EventModuleActivated     = "module:activated"
	EventModuleHealthUpdated = "module:health-updated"
	EventModulesInitialized  = "modules:initialized"
	EventModulesDestroyed    = "modules:destroyed"
)

// Event payloads, carried as JSON data inside the CloudEvents envelope.
type (
	// ModuleRegisteredPayload accompanies EventModuleRegistered.
	ModuleRegisteredPayload struct {
		ID   string     `json:"id"`
		Type ModuleType `json:"type"`
		Name string     `json:"name"`
	}

	// ModuleUnregisteredPayload accompanies EventModuleUnregistered.
	ModuleUnregisteredPayload struct {
		ID string `json:"id"`
	}

	// ModuleActivatedPayload accompanies EventModuleActivated.
	ModuleActivatedPayload struct {
		ID string `json:"id"`
	}

	// ModuleHealthUpdatedPayload accompanies EventModuleHealthUpdated.
	ModuleHealthUpdatedPayload struct {
		ID      string `json:"id"`
		Healthy bool   `json:"isHealthy"`
		Error   string `json:"error,omitempty"`
	}
)

// Listener receives events from the Manager. Listeners are identified by
// a stable ID; subscribing the same ID to the same event name twice is a
// safe no-op, and unsubscribing an unknown ID is a no-op too.
type Listener interface {
	// OnEvent is called synchronously for each matching event. A listener
	// that returns an error or panics is logged and does not prevent the
	// remaining listeners from running.
	OnEvent(ctx context.Context, event cloudevents.Event) error

	// ListenerID returns the stable identifier used for subscription
	// bookkeeping.
	ListenerID() string
}

// listenerFunc adapts a plain function to the Listener interface.
type listenerFunc struct {
	id      string
	handler func(ctx context.Context, event cloudevents.Event) error
}

// NewListenerFunc creates a Listener from a function. Convenient for
// application shells and tests that do not want a dedicated type.
func NewListenerFunc(id string, handler func(ctx context.Context, event cloudevents.Event) error) Listener {
	return &listenerFunc{id: id, handler: handler}
}

func (l *listenerFunc) OnEvent(ctx context.Context, event cloudevents.Event) error {
	return l.handler(ctx, event)
}

func (l *listenerFunc) ListenerID() string {
	return l.id
}

// NewEvent creates a CloudEvents envelope with a UUIDv7 id, the given
// type and source, and the payload encoded as JSON data.
func NewEvent(eventType, source string, payload any) cloudevents.Event {
	event := cloudevents.NewEvent()
	event.SetID(newEventID())
	event.SetSource(source)
	event.SetType(eventType)
	event.SetTime(time.Now())
	event.SetSpecVersion(cloudevents.VersionV1)
	if payload != nil {
		_ = event.SetData(cloudevents.ApplicationJSON, payload)
	}
	return event
}

// newEventID returns a UUIDv7 string; UUIDv7 carries a timestamp so event
// ids sort in emission order.
func newEventID() string {
	id, err := uuid.NewV7()
	if err != nil {
		id = uuid.New()
	}
	return id.String()
}

// eventBus relays named events to subscribed listeners. Delivery is
// synchronous and in subscription order; the listener set is snapshotted
// before dispatch so a listener that subscribes or unsubscribes during
// delivery never mutates the set being iterated.
type eventBus struct {
	mu        sync.RWMutex
	logger    Logger
	listeners map[string][]Listener
}

func newEventBus(logger Logger) *eventBus {
	if logger == nil {
		logger = NopLogger{}
	}
	return &eventBus{
		logger:    logger,
		listeners: make(map[string][]Listener),
	}
}

// subscribe adds the listener for the event name. Subscribing an already
// subscribed listener ID is a no-op.
func (b *eventBus) subscribe(event string, l Listener) error {
	if event == "" {
		return ErrEventNameEmpty
	}
	if l == nil {
		return ErrListenerNil
	}
	if l.ListenerID() == "" {
		return ErrListenerIDEmpty
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	for _, existing := range b.listeners[event] {
		if existing.ListenerID() == l.ListenerID() {
			return nil
		}
	}
	b.listeners[event] = append(b.listeners[event], l)
	return nil
}

// unsubscribe removes the listener from the event name. Unknown listeners
// are a no-op.
func (b *eventBus) unsubscribe(event string, l Listener) {
	if l == nil {
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	current := b.listeners[event]
	for i, existing := range current {
		if existing.ListenerID() == l.ListenerID() {
			b.listeners[event] = append(append([]Listener{}, current[:i]...), current[i+1:]...)
			if len(b.listeners[event]) == 0 {
				delete(b.listeners, event)
			}
			return
		}
	}
}

// emit delivers the event to every listener subscribed to its type, in
// subscription order. Listener errors and panics are logged per listener
// and never stop the remaining deliveries.
func (b *eventBus) emit(ctx context.Context, event cloudevents.Event) {
	b.mu.RLock()
	snapshot := make([]Listener, len(b.listeners[event.Type()]))
	copy(snapshot, b.listeners[event.Type()])
	b.mu.RUnlock()

	for _, l := range snapshot {
		b.deliver(ctx, l, event)
	}
}

func (b *eventBus) deliver(ctx context.Context, l Listener, event cloudevents.Event) {
	defer func() {
		if r := recover(); r != nil {
			b.logger.Error("listener panicked", "listenerID", l.ListenerID(), "event", event.Type(), "panic", fmt.Sprint(r))
		}
	}()
	if err := l.OnEvent(ctx, event); err != nil {
		b.logger.Error("listener error", "listenerID", l.ListenerID(), "event", event.Type(), "error", err)
	}
}
