// Package klyqa contains thin adapter around Klyqa cloud account and local device bridge.
package klyqa

import (
	"context"
	"encoding/json"
	"math"
	"strconv"
	"strings"
	"time"
)

const (
	// EventNewVacuum is fired once per newly discovered vacuum cleaner.
	// Event data is *DeviceSettings.
	EventNewVacuum = "klyqa_new_vc"

	// Manufacturer of the Klyqa devices.
	Manufacturer = "QConnex GmbH"
)

// Report types.
const (
	// TypeStatus describes regular status report.
	TypeStatus = "status"
	// TypeError describes device error report.
	TypeError = "error"
)

// WorkStatus describes physical state reported by vacuum cleaner.
type WorkStatus string

// Known vacuum work statuses.
const (
	WorkSleep          WorkStatus = "SLEEP"
	WorkStandby        WorkStatus = "STANDBY"
	WorkCleaning       WorkStatus = "CLEANING"
	WorkCleaningAuto   WorkStatus = "CLEANING_AUTO"
	WorkCleaningRandom WorkStatus = "CLEANING_RANDOM"
	WorkCleaningSRoom  WorkStatus = "CLEANING_SROOM"
	WorkCleaningEdge   WorkStatus = "CLEANING_EDGE"
	WorkCleaningSpot   WorkStatus = "CLEANING_SPOT"
	WorkCleaningComp   WorkStatus = "CLEANING_COMP"
	WorkDocking        WorkStatus = "DOCKING"
	WorkCharging       WorkStatus = "CHARGING"
	WorkChargingDC     WorkStatus = "CHARGING_DC"
	WorkChargingComp   WorkStatus = "CHARGING_COMP"
	WorkError          WorkStatus = "ERROR"
)

// SuctionStrengths lists fan speeds accepted by vacuum cleaners.
var SuctionStrengths = []string{"NULL", "SMALL", "NORMAL", "STRONG", "MAX"}

// WorkingModes lists working modes accepted by vacuum cleaners.
var WorkingModes = []string{"STANDBY", "RANDOM", "SMART", "WALL_FOLLOW", "MOP", "SPIRAL",
	"PARTIAL_BOW", "SROOM", "CHARGE_GO"}

// Battery describes battery level, reported either as a number or as a numeric string.
// Anything else decodes into zero.
type Battery int

// UnmarshalJSON implements json.Unmarshaler.
func (b *Battery) UnmarshalJSON(data []byte) error {
	*b = 0
	var raw interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil
	}

	var f float64
	switch v := raw.(type) {
	case float64:
		f = v
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return nil
		}
		f = parsed
	default:
		return nil
	}

	if math.IsNaN(f) || math.IsInf(f, 0) {
		return nil
	}

	*b = Battery(int(f))
	return nil
}

// Status describes decoded device report.
type Status struct {
	Type       string     `json:"type"`
	Battery    Battery    `json:"battery"`
	Workstatus WorkStatus `json:"workstatus"`
	Suction    string     `json:"suction"`
	Power      string     `json:"power"`
	Message    string     `json:"msg,omitempty"`
}

// DeviceSettings describes device record of the cloud account.
type DeviceSettings struct {
	LocalDeviceID    string `json:"localDeviceId"`
	Name             string `json:"name"`
	ProductID        string `json:"productId"`
	FirmwareVersion  string `json:"firmwareVersion"`
	HardwareRevision string `json:"hardwareRevision"`
}

// IsCleaner checks whether device is a vacuum cleaner.
func (s *DeviceSettings) IsCleaner() bool {
	return strings.Contains(strings.ToLower(s.ProductID), ".cleaner")
}

// Room describes room record of the cloud account.
type Room struct {
	ID      string   `json:"id"`
	Name    string   `json:"name"`
	Devices []string `json:"devices"`
}

// AccountSettings describes cloud account settings.
type AccountSettings struct {
	Devices []*DeviceSettings `json:"devices"`
	Rooms   []*Room           `json:"rooms"`
}

// FindDevice returns device settings by unit ID.
func (s *AccountSettings) FindDevice(uid string) (*DeviceSettings, bool) {
	if nil == s {
		return nil, false
	}

	for _, v := range s.Devices {
		if FormatUID(v.LocalDeviceID) == uid {
			return v, true
		}
	}

	return nil, false
}

// FindRoom returns room which contains device with unit ID.
func (s *AccountSettings) FindRoom(uid string) (*Room, bool) {
	if nil == s {
		return nil, false
	}

	for _, r := range s.Rooms {
		for _, d := range r.Devices {
			if FormatUID(d) == uid {
				return r, true
			}
		}
	}

	return nil, false
}

// Device describes known device state.
// Status is the latest decoded report of any type,
// consumers decide which reports to accept.
type Device struct {
	UID       string
	AccData   *DeviceSettings
	Status    *Status
	LastError *Status
	LastSeen  time.Time
}

// Message describes device answer.
type Message struct {
	UID        string
	Answer     *Status
	Payload    []byte
	ReceivedAt time.Time
}

// AnswerCallback is invoked once per addressed device.
// Nil message means device didn't answer in time or request was not delivered.
type AnswerCallback func(msg *Message, uid string)

// IAccount defines Klyqa account operations.
type IAccount interface {
	Devices() map[string]*Device
	Settings() *AccountSettings
	UpdateAccount(ctx context.Context) error
	RequestAccountSettings(ctx context.Context) error
	RequestAccountSettingsEco(ctx context.Context) error
	ProcessAccountSettings(ctx context.Context) error
	SendToDevices(ctx context.Context, req *Request, args []string, cb AnswerCallback, timeout time.Duration) error
	Start() error
	Stop()
	Shutdown()
}
