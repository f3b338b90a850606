package enums

import (
	"encoding/json"
	"fmt"
)

// DeviceType describes enum with known device types.
type DeviceType int

const (
	// DevUnknown describes unknown device type.
	DevUnknown DeviceType = iota
	// DevVacuum describes vacuum device type.
	DevVacuum
)

var deviceTypeNames = map[DeviceType]string{
	DevUnknown: "unknown",
	DevVacuum:  "vacuum",
}

// String returns device type name, which is also used as entity domain.
func (i DeviceType) String() string {
	if s, ok := deviceTypeNames[i]; ok {
		return s
	}

	return fmt.Sprintf("DeviceType(%d)", int(i))
}

// DeviceTypeString resolves device type from its name.
func DeviceTypeString(s string) (DeviceType, error) {
	for k, v := range deviceTypeNames {
		if v == s {
			return k, nil
		}
	}

	return 0, fmt.Errorf("%s does not belong to DeviceType values", s)
}

// MarshalJSON implements the json.Marshaler interface.
func (i DeviceType) MarshalJSON() ([]byte, error) {
	return []byte(fmt.Sprintf(`"%s"`, i.String())), nil
}

// UnmarshalJSON implements the json.Unmarshaler interface.
func (i *DeviceType) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("DeviceType should be a string, got %s", data)
	}

	var err error
	*i, err = DeviceTypeString(s)
	return err
}
