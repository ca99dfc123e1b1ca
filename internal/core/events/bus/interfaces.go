package bus

import "time"

// WildcardType subscribes a handler to every event type.
const WildcardType = "*"

// EventBus is a thread-safe, in-process pub/sub bus for desk events.
//
// Delivery is synchronous in the publisher goroutine. Handler errors are
// joined and returned from Publish; a failing handler does not stop delivery
// to the others. Handlers should be quick or hand heavy work to their own
// goroutine.
type EventBus interface {
	// Publish delivers the event to subscribers of event.Type() and to wildcard subscribers.
	Publish(event Event) error
	// Subscribe registers a handler for eventType, or for every type with WildcardType.
	Subscribe(eventType string, handler EventHandler) (Subscription, error)
	// Unsubscribe cancels the given Subscription. It is safe to call with nil.
	Unsubscribe(Subscription) error
	// Metrics returns a snapshot of delivery counters.
	Metrics() Metrics
}

// Event is an immutable message transported by the EventBus.
type Event interface {
	Type() string
	Source() string
	Timestamp() time.Time
	Data() any
}

// EventHandler is invoked once per delivered event.
type EventHandler func(event Event) error

// Subscription represents a registered handler bound to an event type.
type Subscription interface {
	ID() string
	EventType() string
	IsActive() bool
	// Cancel de-registers the handler. Multiple calls are safe.
	Cancel() error
}

type Metrics struct {
	Published         uint64
	DeliveredHandlers uint64
	Errors            uint64
	SubscribersActive uint64
}
