package providers

import "github.com/go-home-io/klyqa/plugins/common"

// IInternalFanOutProvider defines internal interface for the fan-out channel.
// It extends regular IFanOutProvider with the input side.
type IInternalFanOutProvider interface {
	common.IFanOutProvider

	ChannelInDeviceUpdates() chan *common.MsgDeviceUpdate
}
