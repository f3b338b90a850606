package enums

import "fmt"

// Property describes enum with known devices' properties.
type Property int

const (
	// PropOn describes On/Off status of the device.
	PropOn Property = iota
	// PropBatteryLevel describes device battery level.
	PropBatteryLevel
	// PropVacStatus describes coarse status of the vacuum.
	PropVacStatus
	// PropFanSpeed describes fan speed.
	PropFanSpeed
	// PropFanSpeedList describes supported fan speeds.
	PropFanSpeedList
	// PropAssumedState describes whether state is assumed rather than reported.
	PropAssumedState
)

var propertyNames = map[Property]string{
	PropOn:           "on",
	PropBatteryLevel: "battery_level",
	PropVacStatus:    "vac_status",
	PropFanSpeed:     "fan_speed",
	PropFanSpeedList: "fan_speed_list",
	PropAssumedState: "assumed_state",
}

// AllowedProperties contains set of all possible allowed properties per device type.
var AllowedProperties = map[DeviceType][]Property{
	DevVacuum: {PropOn, PropBatteryLevel, PropVacStatus, PropFanSpeed, PropFanSpeedList, PropAssumedState},
}

// String returns snake_case property name.
func (i Property) String() string {
	if s, ok := propertyNames[i]; ok {
		return s
	}

	return fmt.Sprintf("Property(%d)", int(i))
}

// PropertyString resolves property from its name.
func PropertyString(s string) (Property, error) {
	for k, v := range propertyNames {
		if v == s {
			return k, nil
		}
	}

	return 0, fmt.Errorf("%s does not belong to Property values", s)
}

// MarshalText implements the encoding.TextMarshaler interface, so
// properties could be used as JSON map keys.
func (i Property) MarshalText() ([]byte, error) {
	return []byte(i.String()), nil
}

// SliceContainsProperty checks whether slice contains certain property.
func SliceContainsProperty(s []Property, e Property) bool {
	if nil == s {
		return false
	}
	for _, a := range s {
		if a == e {
			return true
		}
	}
	return false
}

// IsPropertyAllowed checks whether property is allowed to certain device type.
func (i Property) IsPropertyAllowed(deviceType DeviceType) bool {
	slice, ok := AllowedProperties[deviceType]
	if !ok {
		return false
	}

	return SliceContainsProperty(slice, i)
}
