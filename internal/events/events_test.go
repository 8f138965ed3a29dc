package events

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEventBus(t *testing.T) {
	bus := NewEventBus()

	var received *Event
	var callCount int

	bus.Subscribe(EventBookingConfirmed, func(event *Event) error {
		received = event
		callCount++
		return nil
	})

	err := bus.PublishJSON(EventBookingConfirmed, BookingPayload{EventID: "E123", PromoterName: "Marco", PartySize: 4})
	require.NoError(t, err)

	assert.Equal(t, 1, callCount)
	require.NotNil(t, received)
	assert.Equal(t, EventBookingConfirmed, received.Type)
	assert.False(t, received.CreatedAt.IsZero())

	var decoded BookingPayload
	require.NoError(t, received.Decode(&decoded))
	assert.Equal(t, "E123", decoded.EventID)
	assert.Equal(t, "Marco", decoded.PromoterName)
	assert.Equal(t, 4, decoded.PartySize)
}

func TestEventBusMultipleSubscribers(t *testing.T) {
	bus := NewEventBus()
	var count1, count2 int

	bus.Subscribe("event", func(_ *Event) error { count1++; return nil })
	bus.Subscribe("event", func(_ *Event) error { count2++; return nil })

	require.NoError(t, bus.Publish(&Event{Type: "event"}))

	assert.Equal(t, 1, count1)
	assert.Equal(t, 1, count2)
}

func TestEventBusHandlerErrors(t *testing.T) {
	bus := NewEventBus()
	boom := errors.New("boom")
	var called bool

	bus.Subscribe("event", func(_ *Event) error { return boom })
	bus.Subscribe("event", func(_ *Event) error { called = true; return nil })

	err := bus.Publish(&Event{Type: "event"})
	assert.ErrorIs(t, err, boom)
	assert.True(t, called, "a failing handler must not stop the others")
}

func TestEventBusNoSubscribers(t *testing.T) {
	bus := NewEventBus()
	assert.NoError(t, bus.PublishJSON("nobody", map[string]int{"x": 1}))
}

func TestNilBus(t *testing.T) {
	var bus *EventBus
	assert.NoError(t, bus.PublishJSON(EventMessageSent, MessagePayload{}))
}

func TestPublishJSONMarshalError(t *testing.T) {
	bus := NewEventBus()
	assert.Error(t, bus.PublishJSON("bad", make(chan int)))
}
