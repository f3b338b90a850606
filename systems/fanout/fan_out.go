// Package fanout contains implementation of pub-sub fanout channels.
package fanout

import (
	"fmt"
	"sync"

	"github.com/go-home-io/klyqa/plugins/common"
	"github.com/go-home-io/klyqa/providers"
)

const (
	// Logs representation.
	logSystem = "fan_out"

	// Buffer size of input and subscribers channels.
	bufferSize = 10
)

// Distributes entity state updates between API subscribers.
type provider struct {
	sync.Mutex
	logger common.ILoggerProvider

	lastID      int64
	in          chan *common.MsgDeviceUpdate
	subscribers map[int64]chan *common.MsgDeviceUpdate
}

// NewFanOut constructs new FanOut provider.
func NewFanOut(logger common.ILoggerProvider) providers.IInternalFanOutProvider {
	p := &provider{
		logger:      logger,
		in:          make(chan *common.MsgDeviceUpdate, bufferSize),
		subscribers: make(map[int64]chan *common.MsgDeviceUpdate),
	}

	go p.internalCycle()
	return p
}

// SubscribeDeviceUpdates allows to subscribe to the devices updates.
func (p *provider) SubscribeDeviceUpdates() (int64, chan *common.MsgDeviceUpdate) {
	p.Lock()
	defer p.Unlock()

	p.lastID++
	c := make(chan *common.MsgDeviceUpdate, bufferSize)
	p.subscribers[p.lastID] = c

	p.logger.Debug("New updates subscriber", common.LogSystemToken, logSystem,
		common.LogIDToken, fmt.Sprint(p.lastID))
	return p.lastID, c
}

// UnSubscribeDeviceUpdates allows to un-subscribe from the device updates.
// Subscriber's channel is closed.
func (p *provider) UnSubscribeDeviceUpdates(id int64) {
	p.Lock()
	defer p.Unlock()

	c, ok := p.subscribers[id]
	if !ok {
		return
	}

	close(c)
	delete(p.subscribers, id)
}

// ChannelInDeviceUpdates returns input channel for the device updates.
func (p *provider) ChannelInDeviceUpdates() chan *common.MsgDeviceUpdate {
	return p.in
}

func (p *provider) internalCycle() {
	for u := range p.in {
		p.broadcast(u)
	}
}

// Slow subscribers miss updates instead of blocking others.
func (p *provider) broadcast(update *common.MsgDeviceUpdate) {
	p.Lock()
	defer p.Unlock()

	for id, c := range p.subscribers {
		select {
		case c <- update:
		default:
			p.logger.Debug("Subscriber is too slow, dropping update", common.LogSystemToken, logSystem,
				common.LogIDToken, fmt.Sprint(id), common.LogEntityIDToken, update.ID)
		}
	}
}
