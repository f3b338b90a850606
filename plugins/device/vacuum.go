package device

import (
	"reflect"

	"github.com/go-home-io/klyqa/plugins/common"
	"github.com/go-home-io/klyqa/plugins/device/enums"
)

// IVacuum defines vacuum device type.
type IVacuum interface {
	IDevice
	Load() (*VacuumState, error)
	Update() (*VacuumState, error)
	On() error
	Off() error
	Start() error
	Stop() error
	Pause() error
	Dock() error
	FindMe() error
	SetFanSpeed(common.String) error
}

// VacuumState describes vacuum state.
type VacuumState struct {
	VacStatus    enums.VacStatus `json:"vac_status"`
	BatteryLevel int             `json:"battery_level"`
	FanSpeed     string          `json:"fan_speed"`
	FanSpeedList []string        `json:"fan_speed_list"`
	On           bool            `json:"on"`
	AssumedState bool            `json:"assumed_state"`
}

// TypeVacuum is a syntax sugar around IVacuum type.
var TypeVacuum = reflect.TypeOf((*IVacuum)(nil)).Elem()
