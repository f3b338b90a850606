//+build !release

package mocks

import (
	"sync"
	"time"

	"github.com/go-home-io/klyqa/providers"
)

type fakeListener struct {
	once    bool
	handler func(*providers.Event)
}

// FakeEventBus is a synchronous event bus which records fired events.
type FakeEventBus struct {
	sync.Mutex
	Fired     []*providers.Event
	listeners map[string]map[int]*fakeListener
	counter   int
}

// Listen registers a new listener.
func (f *FakeEventBus) Listen(eventType string, handler func(*providers.Event)) func() {
	return f.add(eventType, &fakeListener{handler: handler})
}

// ListenOnce registers a new one-shot listener.
func (f *FakeEventBus) ListenOnce(eventType string, handler func(*providers.Event)) func() {
	return f.add(eventType, &fakeListener{handler: handler, once: true})
}

// Fire invokes all listeners in the caller's goroutine.
func (f *FakeEventBus) Fire(eventType string, data interface{}) {
	e := &providers.Event{Type: eventType, Data: data, FiredAt: time.Now()}
	f.Lock()
	f.Fired = append(f.Fired, e)
	handlers := make([]func(*providers.Event), 0)
	for id, l := range f.listeners[eventType] {
		handlers = append(handlers, l.handler)
		if l.once {
			delete(f.listeners[eventType], id)
		}
	}
	f.Unlock()

	for _, h := range handlers {
		h(e)
	}
}

// ListenersCount returns number of active listeners for the event type.
func (f *FakeEventBus) ListenersCount(eventType string) int {
	f.Lock()
	defer f.Unlock()
	return len(f.listeners[eventType])
}

func (f *FakeEventBus) add(eventType string, l *fakeListener) func() {
	f.Lock()
	defer f.Unlock()
	f.counter++
	id := f.counter
	if _, ok := f.listeners[eventType]; !ok {
		f.listeners[eventType] = make(map[int]*fakeListener)
	}
	f.listeners[eventType][id] = l

	return func() {
		f.Lock()
		defer f.Unlock()
		delete(f.listeners[eventType], id)
	}
}

// FakeNewEventBus creates a fake event bus.
func FakeNewEventBus() *FakeEventBus {
	return &FakeEventBus{
		Fired:     make([]*providers.Event, 0),
		listeners: make(map[string]map[int]*fakeListener),
	}
}
