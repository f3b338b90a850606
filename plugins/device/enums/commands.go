// Package enums contains various enumerations and rules for device entities.
package enums

import (
	"fmt"
	"strings"
)

// Command describes enum with known device commands.
type Command int

const (
	// CmdOn describes turning on command.
	CmdOn Command = iota
	// CmdOff describes turning off command.
	CmdOff
	// CmdStart describes start cleaning command.
	CmdStart
	// CmdStop describes stop cleaning command.
	CmdStop
	// CmdPause describes pausing the device.
	CmdPause
	// CmdDock describes sending device to a dock station.
	CmdDock
	// CmdFindMe describes sending find me command.
	CmdFindMe
	// CmdSetFanSpeed describes setting fan speed command.
	CmdSetFanSpeed
)

var commandNames = map[Command]string{
	CmdOn:          "on",
	CmdOff:         "off",
	CmdStart:       "start",
	CmdStop:        "stop",
	CmdPause:       "pause",
	CmdDock:        "dock",
	CmdFindMe:      "find-me",
	CmdSetFanSpeed: "set-fan-speed",
}

// commandAliases maps well-known vacuum service names onto commands.
var commandAliases = map[string]Command{
	"turn-on":        CmdOn,
	"turn-off":       CmdOff,
	"return-to-base": CmdDock,
	"locate":         CmdFindMe,
}

// AllowedCommands contains set of all possible allowed commands per device type.
var AllowedCommands = map[DeviceType][]Command{
	DevVacuum: {CmdOn, CmdOff, CmdStart, CmdStop, CmdPause, CmdDock, CmdFindMe, CmdSetFanSpeed},
}

// String returns kebab-case command name.
func (i Command) String() string {
	if s, ok := commandNames[i]; ok {
		return s
	}

	return fmt.Sprintf("Command(%d)", int(i))
}

// CommandString resolves command from its name.
// Underscores are treated as dashes, so "return_to_base" works as well.
func CommandString(s string) (Command, error) {
	s = strings.Replace(strings.ToLower(s), "_", "-", -1)
	for k, v := range commandNames {
		if v == s {
			return k, nil
		}
	}

	if c, ok := commandAliases[s]; ok {
		return c, nil
	}

	return 0, fmt.Errorf("%s does not belong to Command values", s)
}

// MarshalJSON implements the json.Marshaler interface.
func (i Command) MarshalJSON() ([]byte, error) {
	return []byte(fmt.Sprintf(`"%s"`, i.String())), nil
}

// SliceContainsCommand checks whether slice contains certain command.
func SliceContainsCommand(s []Command, e Command) bool {
	for _, a := range s {
		if a == e {
			return true
		}
	}
	return false
}

// IsCommandAllowed checks whether command is allowed for this device type.
func (i Command) IsCommandAllowed(deviceType DeviceType) bool {
	slice, ok := AllowedCommands[deviceType]
	if !ok {
		return false
	}

	return SliceContainsCommand(slice, i)
}

// GetCommandMethodName transforms string representation of the command into actual method name.
func (i Command) GetCommandMethodName() string {
	return transformCommandOrProperty(i.String(), "-")
}

// Transforms back from enum to method/property name.
func transformCommandOrProperty(i string, sep string) string {
	parts := strings.Split(i, sep)
	result := ""
	for _, v := range parts {
		if v == "" {
			continue
		}
		result += strings.ToUpper(v[:1]) + v[1:]
	}

	return result
}
