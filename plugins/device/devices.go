// Package device contains device entity definitions.
package device

import (
	"time"

	"github.com/go-home-io/klyqa/plugins/common"
	"github.com/go-home-io/klyqa/plugins/device/enums"
)

// IDevice defines generic device entity interface.
type IDevice interface {
	Init(*InitDataDevice) error
	Unload()
	GetID() string
	GetName() string
	GetSpec() *Spec
}

// IPlatformAware defines optional hook invoked once the entity
// was added to the platform.
type IPlatformAware interface {
	AddedToPlatform()
}

// Spec contains information about the device.
// Zero UpdatePeriod disables polling.
type Spec struct {
	UpdatePeriod        time.Duration
	SupportedCommands   []enums.Command
	SupportedProperties []enums.Property
}

// StateUpdateData contains updated state of the device.
type StateUpdateData struct {
	State interface{}
}

// InitDataDevice has data required for initializing a new device.
type InitDataDevice struct {
	Logger common.ILoggerProvider

	DeviceStateUpdateChan chan *StateUpdateData
}
