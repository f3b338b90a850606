package server

import (
	"encoding/json"
	"net/http"
	"sync"

	"github.com/go-home-io/klyqa/plugins/common"
	"github.com/gorilla/websocket"
)

// Websocket connection with serialized writes.
type wsConnection struct {
	sync.Mutex
	*websocket.Conn
}

func (c *wsConnection) writeJSON(v interface{}) error {
	c.Lock()
	defer c.Unlock()
	return c.WriteJSON(v)
}

func (c *wsConnection) writeMessage(mt int, data []byte) error {
	c.Lock()
	defer c.Unlock()
	return c.WriteMessage(mt, data)
}

type wsCmd struct {
	ID  string      `json:"id"`
	Cmd string      `json:"cmd"`
	Val interface{} `json:"value"`
}

// Handles WS upgrade request.
func (s *GoHomeServer) handleWS(writer http.ResponseWriter, request *http.Request) {
	c, err := s.wsSettings.Upgrade(writer, request, nil)
	if err != nil {
		s.Logger.Error("Failed to establish a WS connection", err, common.LogSystemToken, logSystem)
		return
	}

	go s.processWSConnection(&wsConnection{Conn: c})
}

// Processes incoming WS connections.
// Every entity update is sent as a full entity state.
func (s *GoHomeServer) processWSConnection(conn *wsConnection) {
	stop := make(chan bool, 1)
	go s.processIncomingWSMessages(conn, stop)
	deviceSubID, deviceUpd := s.FanOut.SubscribeDeviceUpdates()
	defer s.FanOut.UnSubscribeDeviceUpdates(deviceSubID)

	for {
		select {
		case <-stop:
			return
		case msg, ok := <-deviceUpd:
			if !ok {
				return
			}

			state, found := s.Platform.GetEntity(msg.ID)
			if !found {
				continue
			}

			if err := conn.writeJSON(state); err != nil {
				s.Logger.Debug("Failed to send WS update", common.LogSystemToken, logSystem,
					common.LogEntityIDToken, msg.ID)
			}
		}
	}
}

// Processes incoming WS messages.
func (s *GoHomeServer) processIncomingWSMessages(conn *wsConnection, stop chan bool) {
	defer conn.Close() // nolint: errcheck
	for {
		mt, message, err := conn.ReadMessage()
		if err != nil {
			s.Logger.Info("Closing WS connection", common.LogSystemToken, logSystem)
			stop <- true
			return
		}

		// Ping request comes as a un-wrapped string
		if "ping" == string(message) {
			conn.writeMessage(mt, []byte("pong")) // nolint: gosec, errcheck
			continue
		}

		cmd := &wsCmd{}
		err = json.Unmarshal(message, cmd)
		if err != nil {
			s.Logger.Error("Failed to un-marshal WS command", err, common.LogSystemToken, logSystem)
			continue
		}

		var data []byte
		if cmd.Val != nil {
			data, err = json.Marshal(cmd.Val)
			if err != nil {
				s.Logger.Error("Failed to marshal WS command", err, common.LogSystemToken, logSystem)
				continue
			}
		}

		s.commandInvokeDeviceCommand(cmd.ID, cmd.Cmd, data) // nolint: gosec, errcheck
	}
}
