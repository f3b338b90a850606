package vacuum

import (
	"github.com/go-home-io/klyqa/klyqa"
	"github.com/go-home-io/klyqa/plugins/device"
	"github.com/go-home-io/klyqa/plugins/device/enums"
)

// Outcome describes how device report was handled by the projector.
type Outcome int

const (
	// OutcomeAbsent describes missing report.
	OutcomeAbsent Outcome = iota
	// OutcomeError describes error report.
	OutcomeError
	// OutcomeIgnored describes report of unknown type.
	OutcomeIgnored
	// OutcomeAccepted describes valid status report.
	OutcomeAccepted
)

var outcomeNames = map[Outcome]string{
	OutcomeAbsent:   "absent",
	OutcomeError:    "error",
	OutcomeIgnored:  "ignored",
	OutcomeAccepted: "accepted",
}

// String returns outcome name.
func (o Outcome) String() string {
	return outcomeNames[o]
}

// Work status to coarse state mapping.
// Statuses which are not listed here have no coarse state.
var workStatuses = map[klyqa.WorkStatus]enums.VacStatus{
	klyqa.WorkSleep:          enums.VacNone,
	klyqa.WorkStandby:        enums.VacNone,
	klyqa.WorkCleaning:       enums.VacCleaning,
	klyqa.WorkCleaningAuto:   enums.VacCleaning,
	klyqa.WorkCleaningRandom: enums.VacCleaning,
	klyqa.WorkCleaningSRoom:  enums.VacCleaning,
	klyqa.WorkCleaningEdge:   enums.VacCleaning,
	klyqa.WorkCleaningSpot:   enums.VacCleaning,
	klyqa.WorkCleaningComp:   enums.VacCleaning,
	klyqa.WorkDocking:        enums.VacReturning,
	klyqa.WorkCharging:       enums.VacDocked,
	klyqa.WorkChargingDC:     enums.VacDocked,
	klyqa.WorkChargingComp:   enums.VacDocked,
	klyqa.WorkError:          enums.VacError,
}

// CoarseState maps work status to the coarse lifecycle state.
func CoarseState(ws klyqa.WorkStatus) enums.VacStatus {
	if s, ok := workStatuses[ws]; ok {
		return s
	}

	return enums.VacNone
}

// Project derives observable state from the device report.
// Previous state is returned as is unless report is a valid status,
// except that missing report marks state as assumed.
func Project(prev device.VacuumState, status *klyqa.Status) (device.VacuumState, Outcome) {
	if nil == status {
		prev.AssumedState = true
		return prev, OutcomeAbsent
	}

	switch status.Type {
	case klyqa.TypeError:
		return prev, OutcomeError
	case klyqa.TypeStatus:
	default:
		return prev, OutcomeIgnored
	}

	battery := int(status.Battery)
	if battery < 0 {
		battery = 0
	}

	return device.VacuumState{
		VacStatus:    CoarseState(status.Workstatus),
		BatteryLevel: battery,
		FanSpeed:     status.Suction,
		FanSpeedList: prev.FanSpeedList,
		On:           status.Power == "on",
		AssumedState: false,
	}, OutcomeAccepted
}
