package providers

import (
	"github.com/go-home-io/klyqa/plugins/device"
	"github.com/go-home-io/klyqa/plugins/device/enums"
)

// EntityState describes current state of the loaded entity.
type EntityState struct {
	ID       string                 `json:"id"`
	Name     string                 `json:"name"`
	Type     enums.DeviceType       `json:"type"`
	State    map[string]interface{} `json:"state"`
	Commands []string               `json:"commands"`
}

// IEntityPlatformProvider defines host side of the loaded entities.
type IEntityPlatformProvider interface {
	AddEntities(entities []device.IDevice, updateBeforeAdd bool) error
	RemoveEntity(entityID string)
	InvokeCommand(entityID string, cmd enums.Command, params map[string]interface{}) error
	GetEntity(entityID string) (*EntityState, bool)
	GetEntities() []*EntityState
	Unload()
}
