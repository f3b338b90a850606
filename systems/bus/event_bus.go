// Package bus contains named process-wide event bus.
package bus

import (
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/go-home-io/klyqa/plugins/common"
	"github.com/go-home-io/klyqa/providers"
	"github.com/go-home-io/klyqa/utils"
)

const (
	// Logs representation.
	logSystem = "event_bus"
)

// Single registered listener.
type listener struct {
	once    bool
	handler func(*providers.Event)
}

// Event bus provider.
type provider struct {
	sync.Mutex
	logger    common.ILoggerProvider
	listeners map[string]map[int64]*listener
}

// NewEventBus constructs a new event bus.
func NewEventBus(logger common.ILoggerProvider) providers.IEventBusProvider {
	return &provider{
		logger:    logger,
		listeners: make(map[string]map[int64]*listener),
	}
}

// Listen registers handler invoked on every fired event of the type.
func (p *provider) Listen(eventType string, handler func(*providers.Event)) func() {
	return p.add(eventType, &listener{handler: handler})
}

// ListenOnce registers handler invoked at most once.
func (p *provider) ListenOnce(eventType string, handler func(*providers.Event)) func() {
	return p.add(eventType, &listener{handler: handler, once: true})
}

// Fire sends event to all listeners.
// Every handler runs in its own goroutine.
func (p *provider) Fire(eventType string, data interface{}) {
	e := &providers.Event{
		Type:    eventType,
		Data:    data,
		FiredAt: time.Now().UTC(),
	}

	p.Lock()
	handlers := make([]func(*providers.Event), 0, len(p.listeners[eventType]))
	for id, l := range p.listeners[eventType] {
		handlers = append(handlers, l.handler)
		if l.once {
			delete(p.listeners[eventType], id)
		}
	}
	p.Unlock()

	p.logger.Debug(fmt.Sprintf("Firing event to %d listeners", len(handlers)),
		common.LogSystemToken, logSystem, common.LogEventToken, eventType)

	for _, h := range handlers {
		go p.invoke(h, e)
	}
}

// Registers a new listener and returns remove function.
func (p *provider) add(eventType string, l *listener) func() {
	p.Lock()
	defer p.Unlock()

	if _, ok := p.listeners[eventType]; !ok {
		p.listeners[eventType] = make(map[int64]*listener)
	}

	id := p.getID()
	for _, ok := p.listeners[eventType][id]; ok; _, ok = p.listeners[eventType][id] {
		id = p.getID()
	}
	p.listeners[eventType][id] = l

	return func() {
		p.Lock()
		defer p.Unlock()
		delete(p.listeners[eventType], id)
	}
}

// Invokes handler, recovering from panics.
func (p *provider) invoke(handler func(*providers.Event), e *providers.Event) {
	defer func() {
		if r := recover(); r != nil {
			p.logger.Error("Event handler panicked", fmt.Errorf("%v", r),
				common.LogSystemToken, logSystem, common.LogEventToken, e.Type)
		}
	}()

	handler(e)
}

// Returns random ID.
func (p *provider) getID() int64 {
	return utils.TimeNow() + rand.Int63()
}
