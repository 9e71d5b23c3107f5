package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEventsDispatchOnPump(t *testing.T) {
	es := NewEventSystem()

	var got []EventType
	es.Register(EventResized, func(ctx EventContext) {
		got = append(got, ctx.Type)
	})

	es.Fire(EventContext{Type: EventResized, Data: &ResizeEvent{Width: 800, Height: 600}})
	assert.Empty(t, got, "listeners must not run before the pump")

	es.Pump()
	assert.Equal(t, []EventType{EventResized}, got)

	// A second pump does not redeliver.
	es.Pump()
	assert.Len(t, got, 1)
}

func TestEventsPreserveFireOrder(t *testing.T) {
	es := NewEventSystem()

	var order []int
	es.Register(EventKeyPressed, func(ctx EventContext) {
		order = append(order, ctx.Data.(*KeyEvent).KeyCode)
	})

	es.Fire(EventContext{Type: EventKeyPressed, Data: &KeyEvent{KeyCode: 1}})
	es.Fire(EventContext{Type: EventKeyPressed, Data: &KeyEvent{KeyCode: 2}})
	es.Fire(EventContext{Type: EventKeyPressed, Data: &KeyEvent{KeyCode: 3}})
	es.Pump()

	assert.Equal(t, []int{1, 2, 3}, order)
}

func TestEventsMultipleListeners(t *testing.T) {
	es := NewEventSystem()

	calls := 0
	es.Register(EventApplicationQuit, func(EventContext) { calls++ })
	es.Register(EventApplicationQuit, func(EventContext) { calls++ })

	es.Fire(EventContext{Type: EventApplicationQuit})
	es.Pump()
	assert.Equal(t, 2, calls)
}

func TestEventsUnregisteredTypeIsDropped(t *testing.T) {
	es := NewEventSystem()
	es.Fire(EventContext{Type: EventKeyReleased})
	es.Pump()
}
