// Package vacuum contains Klyqa vacuum cleaner entities.
package vacuum

import "time"

const (
	// Domain is the integration name.
	Domain = "klyqa"
	// EntityDomain is the host domain of vacuum entities.
	EntityDomain = "vacuum"

	// Logs representation.
	logSystem = "klyqa_vacuum"

	// Time given to a device to acknowledge a command.
	sendTimeout = 11 * time.Second
	// Polling interval.
	scanInterval = 205 * time.Second
	// Time given to the background send to finish after acknowledgement.
	reapGrace = time.Millisecond
)

// Commands sent to the device.
var (
	tokensStart    = []string{"set", "--cleaning", "on"}
	tokensStop     = []string{"set", "--cleaning", "off"}
	tokensPause    = []string{"set", "--workingmode", "STANDBY"}
	tokensDock     = []string{"set", "--workingmode", "CHARGE_GO"}
	tokensFindMe   = []string{"set", "--beeping", "on"}
	tokensOn       = []string{"--power", "on"}
	tokensOff      = []string{"set", "--workingmode", "CHARGE_GO"}
	tokensRequest  = []string{"--request"}
	tokensFanSpeed = []string{"set", "--suction"}
)
