package server

import (
	"io/ioutil"
	"net/http"

	"github.com/gorilla/mux"
)

// Returns all loaded entities.
func (s *GoHomeServer) getDevices(writer http.ResponseWriter, _ *http.Request) {
	respond(writer, s.Platform.GetEntities())
}

// Returns single entity.
func (s *GoHomeServer) getDevice(writer http.ResponseWriter, request *http.Request) {
	id := mux.Vars(request)[string(urlDeviceID)]
	state, ok := s.Platform.GetEntity(id)
	if !ok {
		respondOkError(writer, &ErrUnknownDevice{ID: id})
		return
	}

	respond(writer, state)
}

// Executes entity command.
func (s *GoHomeServer) deviceCommand(writer http.ResponseWriter, request *http.Request) {
	vars := mux.Vars(request)
	b, err := ioutil.ReadAll(request.Body)
	if err != nil {
		respondOkError(writer, &ErrBadRequest{})
		return
	}

	respondOkError(writer, s.commandInvokeDeviceCommand(vars[string(urlDeviceID)], vars[string(urlCommandName)], b))
}
