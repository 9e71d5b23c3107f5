package core

import (
	"sync"

	"github.com/vireo3d/vireo/engine/containers"
)

type EventType int

const (
	// Shuts the application down on the next frame.
	EventApplicationQuit EventType = iota
	// The OS reported a new framebuffer size. Data is *ResizeEvent.
	EventResized
	// Keyboard state changed. Data is *KeyEvent.
	EventKeyPressed
	EventKeyReleased
)

type ResizeEvent struct {
	Width  uint32
	Height uint32
}

type KeyEvent struct {
	KeyCode int
}

type EventContext struct {
	Type EventType
	Data interface{}
}

type FnOnEvent func(context EventContext)

const eventBacklogSize = 1024

// EventSystem is a small code-indexed listener registry. Platform
// callbacks fire events from the main thread; Fire only queues, the
// engine drains the backlog once per loop iteration with Pump so
// listeners always run at a known point in the frame.
type EventSystem struct {
	mu        sync.Mutex
	listeners map[EventType][]FnOnEvent
	backlog   *containers.RingQueue[EventContext]
}

func NewEventSystem() *EventSystem {
	return &EventSystem{
		listeners: make(map[EventType][]FnOnEvent),
		backlog:   containers.NewRingQueue[EventContext](eventBacklogSize),
	}
}

func (es *EventSystem) Register(eventType EventType, onEvent FnOnEvent) {
	es.mu.Lock()
	defer es.mu.Unlock()
	es.listeners[eventType] = append(es.listeners[eventType], onEvent)
}

func (es *EventSystem) Fire(context EventContext) {
	es.mu.Lock()
	defer es.mu.Unlock()
	if err := es.backlog.Enqueue(context); err != nil {
		LogWarn("event backlog full, dropping event type %d", context.Type)
	}
}

// Pump dispatches every queued event to its listeners, in fire order.
func (es *EventSystem) Pump() {
	es.mu.Lock()
	var pending []EventContext
	for !es.backlog.IsEmpty() {
		context, err := es.backlog.Dequeue()
		if err != nil {
			break
		}
		pending = append(pending, context)
	}
	listeners := es.listeners
	es.mu.Unlock()

	for _, context := range pending {
		for _, fn := range listeners[context.Type] {
			fn(context)
		}
	}
}
