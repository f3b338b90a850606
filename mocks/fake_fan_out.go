//+build !release

package mocks

import (
	"github.com/go-home-io/klyqa/plugins/common"
	"github.com/go-home-io/klyqa/providers"
)

type fakeFanOut struct {
	inDeviceUpdates chan *common.MsgDeviceUpdate
}

func (f *fakeFanOut) SubscribeDeviceUpdates() (int64, chan *common.MsgDeviceUpdate) {
	return 1, f.inDeviceUpdates
}

func (f *fakeFanOut) UnSubscribeDeviceUpdates(int64) {
}

func (f *fakeFanOut) ChannelInDeviceUpdates() chan *common.MsgDeviceUpdate {
	return f.inDeviceUpdates
}

// FakeNewFanOut creates a fake fan-out provider.
// Input channel is the same as a subscription channel.
func FakeNewFanOut() providers.IInternalFanOutProvider {
	return &fakeFanOut{
		inDeviceUpdates: make(chan *common.MsgDeviceUpdate, 100),
	}
}
