package events

import (
	"encoding/json"
	"sync"
	"time"
)

const (
	EventBookingCreated      = "booking_created"
	EventBookingTransitioned = "booking_transitioned"
	EventTransitionFailed    = "transition_failed"
	EventBoardReloaded       = "board_reloaded"
)

// TransitionEventPayload is the booking snapshot event consumers receive.
type TransitionEventPayload struct {
	BookingID    string    `json:"booking_id"`
	CustomerName string    `json:"customer_name,omitempty"`
	CarPlate     string    `json:"car_plate,omitempty"`
	ServiceName  string    `json:"service_name,omitempty"`
	FromStatus   string    `json:"from_status,omitempty"`
	ToStatus     string    `json:"to_status"`
	Outcome      string    `json:"outcome,omitempty"`
	BusinessDate string    `json:"business_date"`
	Error        string    `json:"error,omitempty"`
	At           time.Time `json:"at"`
}

// Event represents a lightweight domain event.
type Event struct {
	Type      string
	Payload   []byte
	CreatedAt time.Time
}

// EventHandler reacts to an event.
type EventHandler func(event *Event) error

// EventBus provides in-process pub/sub for events.
type EventBus struct {
	subscribers map[string][]EventHandler
	mu          sync.RWMutex
}

// NewEventBus constructs an empty bus.
func NewEventBus() *EventBus {
	return &EventBus{subscribers: make(map[string][]EventHandler)}
}

// Subscribe registers a handler for a given event type.
func (b *EventBus) Subscribe(eventType string, handler EventHandler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subscribers[eventType] = append(b.subscribers[eventType], handler)
}

// Publish notifies subscribers of the event type.
func (b *EventBus) Publish(event *Event) {
	b.mu.RLock()
	handlers := append([]EventHandler(nil), b.subscribers[event.Type]...)
	b.mu.RUnlock()

	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now()
	}

	for _, handler := range handlers {
		// Handlers run synchronously; caller decides concurrency model.
		_ = handler(event)
	}
}

// PublishJSON serializes the payload and publishes an event.
func (b *EventBus) PublishJSON(eventType string, payload interface{}) error {
	if b == nil {
		return nil
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	b.Publish(&Event{Type: eventType, Payload: data})
	return nil
}
