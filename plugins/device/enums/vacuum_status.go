package enums

import "fmt"

// VacStatus defines coarse vacuum lifecycle state.
type VacStatus int

const (
	// VacNone describes a vacuum without a mapped lifecycle state.
	VacNone VacStatus = iota
	// VacCleaning describes a vacuum in a cleaning stage.
	VacCleaning
	// VacReturning describes a vacuum returning to the dock.
	VacReturning
	// VacDocked describes a vacuum sitting in the dock.
	VacDocked
	// VacError describes a vacuum reporting an error.
	VacError
)

var vacStatusNames = map[VacStatus]string{
	VacNone:      "none",
	VacCleaning:  "cleaning",
	VacReturning: "returning",
	VacDocked:    "docked",
	VacError:     "error",
}

// String returns vacuum status name.
func (i VacStatus) String() string {
	if s, ok := vacStatusNames[i]; ok {
		return s
	}

	return fmt.Sprintf("VacStatus(%d)", int(i))
}

// MarshalJSON implements the json.Marshaler interface.
// VacNone is reported as null.
func (i VacStatus) MarshalJSON() ([]byte, error) {
	if i == VacNone {
		return []byte("null"), nil
	}
	return []byte(fmt.Sprintf(`"%s"`, i.String())), nil
}
