package server

import (
	"encoding/json"

	"github.com/go-home-io/klyqa/plugins/common"
	"github.com/go-home-io/klyqa/plugins/device/enums"
)

// Invokes entity command.
func (s *GoHomeServer) commandInvokeDeviceCommand(deviceID string, opName string, data []byte) error {
	if _, ok := s.Platform.GetEntity(deviceID); !ok {
		s.Logger.Warn("Failed to find device", common.LogSystemToken, logSystem,
			common.LogEntityIDToken, deviceID)
		return &ErrUnknownDevice{ID: deviceID}
	}

	command, err := enums.CommandString(opName)
	if err != nil {
		s.Logger.Warn("Received unknown command", common.LogSystemToken, logSystem,
			common.LogEntityIDToken, deviceID, common.LogDeviceCommandToken, opName)
		return &ErrUnknownCommand{Name: opName}
	}

	inputData := make(map[string]interface{})
	if len(data) > 0 {
		err := json.Unmarshal(data, &inputData)
		if err != nil {
			s.Logger.Error("Failed to unmarshal input request", err,
				common.LogSystemToken, logSystem)
			return &ErrBadRequest{}
		}
	}

	err = s.Platform.InvokeCommand(deviceID, command, inputData)
	if err != nil {
		s.Logger.Error("Command failed", err, common.LogSystemToken, logSystem,
			common.LogEntityIDToken, deviceID, common.LogDeviceCommandToken, opName)
	}

	return err
}
