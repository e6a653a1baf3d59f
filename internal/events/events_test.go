package events

import (
	"encoding/json"
	"testing"
)

func TestEventBusPublishSubscribe(t *testing.T) {
	bus := NewEventBus()

	received := make([]*Event, 0, 1)
	bus.Subscribe(EventBookingTransitioned, func(event *Event) error {
		received = append(received, event)
		return nil
	})

	payload := TransitionEventPayload{
		BookingID:  "abc123",
		FromStatus: "scheduled",
		ToStatus:   "stageOne",
	}
	if err := bus.PublishJSON(EventBookingTransitioned, payload); err != nil {
		t.Fatalf("PublishJSON: %v", err)
	}

	if len(received) != 1 {
		t.Fatalf("expected 1 event, got %d", len(received))
	}

	var got TransitionEventPayload
	if err := json.Unmarshal(received[0].Payload, &got); err != nil {
		t.Fatalf("unmarshal payload: %v", err)
	}
	if got.BookingID != "abc123" || got.ToStatus != "stageOne" {
		t.Errorf("unexpected payload: %+v", got)
	}
	if received[0].CreatedAt.IsZero() {
		t.Error("expected CreatedAt to be set")
	}
}

func TestEventBusMultipleSubscribers(t *testing.T) {
	bus := NewEventBus()

	var first, second int
	bus.Subscribe(EventBoardReloaded, func(*Event) error { first++; return nil })
	bus.Subscribe(EventBoardReloaded, func(*Event) error { second++; return nil })

	bus.Publish(&Event{Type: EventBoardReloaded})
	bus.Publish(&Event{Type: EventBoardReloaded})

	if first != 2 || second != 2 {
		t.Errorf("expected both subscribers to see 2 events, got %d and %d", first, second)
	}
}

func TestEventBusIgnoresUnsubscribedTypes(t *testing.T) {
	bus := NewEventBus()

	var calls int
	bus.Subscribe(EventBookingCreated, func(*Event) error { calls++; return nil })

	bus.Publish(&Event{Type: EventTransitionFailed})

	if calls != 0 {
		t.Errorf("expected no calls, got %d", calls)
	}
}

func TestNilBusPublishJSON(t *testing.T) {
	var bus *EventBus
	if err := bus.PublishJSON(EventBookingCreated, nil); err != nil {
		t.Fatalf("nil bus should be a no-op, got %v", err)
	}
}
