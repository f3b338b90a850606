// Package providers contains interfaces for internal system providers.
package providers

import "time"

const (
	// EventHomeStop is fired once the process is shutting down.
	EventHomeStop = "go_home_stop"
)

// Event describes single event fired into the event bus.
type Event struct {
	Type    string
	Data    interface{}
	FiredAt time.Time
}

// IEventBusProvider defines named process-wide event bus.
// Listen methods return a function which removes the listener.
type IEventBusProvider interface {
	Listen(eventType string, handler func(*Event)) func()
	ListenOnce(eventType string, handler func(*Event)) func()
	Fire(eventType string, data interface{})
}
