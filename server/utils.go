package server

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/go-home-io/klyqa/plugins/common"
	"github.com/go-home-io/klyqa/systems/device"
	"github.com/pkg/errors"
)

// Plain HTTP_200 API response.
func respondOk(writer http.ResponseWriter) {
	writer.Header().Set("Content-Type", "application/json")
	writer.WriteHeader(http.StatusOK)
	io.WriteString(writer, `{ "status": "OK" }`) // nolint: errcheck
}

// Generic API respond.
func respond(writer http.ResponseWriter, data interface{}) {
	d, err := json.Marshal(data)
	if err != nil {
		respondError(writer, http.StatusInternalServerError, err.Error())
		return
	}

	writer.Header().Set("Content-Type", "application/json")
	writer.WriteHeader(http.StatusOK)
	writer.Write(d) // nolint: errcheck
}

// Validates whether error is not null and responds different status
// depending on it.
func respondOkError(writer http.ResponseWriter, err error) {
	if err != nil {
		respondError(writer, getErrorStatus(err), err.Error())
	} else {
		respondOk(writer)
	}
}

// Error API response.
func respondError(writer http.ResponseWriter, status int, problem string) {
	d, _ := json.Marshal(map[string]string{"status": "ERROR", "problem": problem})
	writer.Header().Set("Content-Type", "application/json")
	writer.WriteHeader(status)
	writer.Write(d) // nolint: errcheck
}

// Maps known errors to HTTP statuses.
func getErrorStatus(err error) int {
	switch errors.Cause(err).(type) {
	case *ErrUnknownDevice, *device.ErrEntityNotFound:
		return http.StatusNotFound
	case *ErrUnknownCommand, *ErrBadRequest, *device.ErrUnsupportedCommand, *device.ErrInvalidParams:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// Logger middleware for the API.
func (s *GoHomeServer) logMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.Logger.Debug("REST invocation", common.LogSystemToken, logSystem, common.LogURLToken, r.RequestURI)
		next.ServeHTTP(w, r)
	})
}

// Sends access log lines into the system logger.
type accessLogWriter struct {
	logger common.ILoggerProvider
}

func (w *accessLogWriter) Write(p []byte) (int, error) {
	w.logger.Debug(strings.TrimSpace(string(p)), common.LogSystemToken, logSystem)
	return len(p), nil
}

// Sends recovered panics into the system logger.
type recoveryLogger struct {
	logger common.ILoggerProvider
}

func (l *recoveryLogger) Println(v ...interface{}) {
	l.logger.Error("Recovered API panic", fmt.Errorf("%v", fmt.Sprint(v...)), common.LogSystemToken, logSystem)
}
