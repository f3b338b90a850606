package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io/ioutil"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/go-home-io/klyqa/mocks"
	"github.com/go-home-io/klyqa/plugins/device"
	"github.com/go-home-io/klyqa/plugins/device/enums"
	"github.com/go-home-io/klyqa/providers"
	deviceSystem "github.com/go-home-io/klyqa/systems/device"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type invocation struct {
	id     string
	cmd    enums.Command
	params map[string]interface{}
}

type fakePlatform struct {
	sync.Mutex
	entities    map[string]*providers.EntityState
	invocations []*invocation
	err         error
}

func (f *fakePlatform) AddEntities([]device.IDevice, bool) error {
	return nil
}

func (f *fakePlatform) RemoveEntity(string) {
}

func (f *fakePlatform) InvokeCommand(entityID string, cmd enums.Command, params map[string]interface{}) error {
	f.Lock()
	defer f.Unlock()
	f.invocations = append(f.invocations, &invocation{id: entityID, cmd: cmd, params: params})
	return f.err
}

func (f *fakePlatform) GetEntity(entityID string) (*providers.EntityState, bool) {
	f.Lock()
	defer f.Unlock()
	s, ok := f.entities[entityID]
	return s, ok
}

func (f *fakePlatform) GetEntities() []*providers.EntityState {
	f.Lock()
	defer f.Unlock()
	result := make([]*providers.EntityState, 0)
	for _, v := range []string{"vacuum.a", "vacuum.b"} {
		if s, ok := f.entities[v]; ok {
			result = append(result, s)
		}
	}
	return result
}

func (f *fakePlatform) Unload() {
}

func (f *fakePlatform) getInvocations() []*invocation {
	f.Lock()
	defer f.Unlock()
	return append([]*invocation{}, f.invocations...)
}

func getFakePlatform() *fakePlatform {
	return &fakePlatform{
		entities: map[string]*providers.EntityState{
			"vacuum.a": {ID: "vacuum.a", Name: "Bot", Type: enums.DevVacuum,
				State:    map[string]interface{}{"battery_level": 42},
				Commands: []string{"dock", "set-fan-speed"}},
			"vacuum.b": {ID: "vacuum.b", Name: "Other", Type: enums.DevVacuum},
		},
		invocations: make([]*invocation, 0),
	}
}

func getServer(p providers.IEntityPlatformProvider, logCallback func(string)) *GoHomeServer {
	return NewServer(&ConstructServer{
		Logger:   mocks.FakeNewLogger(logCallback),
		Platform: p,
		FanOut:   mocks.FakeNewFanOut(),
		Metrics:  prometheus.NewRegistry(),
	})
}

func readBody(t *testing.T, resp *http.Response) string {
	defer resp.Body.Close()
	b, err := ioutil.ReadAll(resp.Body)
	require.NoError(t, err)
	return string(b)
}

// Tests log middleware.
func TestLogMiddleware(t *testing.T) {
	in := []string{"/api/v1/test", "/pub/ping"}

	var mutex sync.Mutex
	nextCalled := false
	logCalled := false
	s := getServer(getFakePlatform(), func(string) {
		mutex.Lock()
		logCalled = true
		mutex.Unlock()
	})
	handler := http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		mutex.Lock()
		nextCalled = true
		mutex.Unlock()
	})
	ts := httptest.NewServer(s.logMiddleware(handler))
	defer ts.Close()

	for _, v := range in {
		mutex.Lock()
		nextCalled = false
		logCalled = false
		mutex.Unlock()

		resp, err := http.Get(ts.URL + v)
		require.NoError(t, err, "error %s", v)
		resp.Body.Close()

		mutex.Lock()
		assert.True(t, nextCalled, "next %s", v)
		assert.True(t, logCalled, "log %s", v)
		mutex.Unlock()
	}
}

// Tests entities listing.
func TestGetDevices(t *testing.T) {
	ts := httptest.NewServer(getServer(getFakePlatform(), nil).handler())
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/api/v1/device")
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))

	var data []*providers.EntityState
	require.NoError(t, json.Unmarshal([]byte(readBody(t, resp)), &data))
	require.Len(t, data, 2)
	assert.Equal(t, "vacuum.a", data[0].ID)
	assert.Equal(t, enums.DevVacuum, data[0].Type)
	assert.Equal(t, float64(42), data[0].State["battery_level"])
}

// Tests single entity.
func TestGetDevice(t *testing.T) {
	ts := httptest.NewServer(getServer(getFakePlatform(), nil).handler())
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/api/v1/device/vacuum.b")
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, readBody(t, resp), `"name":"Other"`)

	resp, err = http.Get(ts.URL + "/api/v1/device/vacuum.c")
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Contains(t, readBody(t, resp), "device vacuum.c is unknown")
}

// Tests commands invocation.
func TestDeviceCommand(t *testing.T) {
	data := []struct {
		url    string
		body   string
		status int
		invoke bool
	}{
		{url: "/api/v1/device/vacuum.a/dock", status: http.StatusOK, invoke: true},
		{url: "/api/v1/device/vacuum.a/set-fan-speed", body: `{"value":"MAX"}`, status: http.StatusOK, invoke: true},
		{url: "/api/v1/device/vacuum.c/dock", status: http.StatusNotFound},
		{url: "/api/v1/device/vacuum.a/fly", status: http.StatusBadRequest},
		{url: "/api/v1/device/vacuum.a/set-fan-speed", body: `{"value"`, status: http.StatusBadRequest},
	}

	for _, v := range data {
		p := getFakePlatform()
		ts := httptest.NewServer(getServer(p, nil).handler())

		resp, err := http.Post(ts.URL+v.url, "application/json", bytes.NewBufferString(v.body))
		require.NoError(t, err, v.url)
		resp.Body.Close()
		assert.Equal(t, v.status, resp.StatusCode, v.url)

		if v.invoke {
			assert.Len(t, p.getInvocations(), 1, v.url)
		} else {
			assert.Len(t, p.getInvocations(), 0, v.url)
		}

		ts.Close()
	}
}

// Tests command parameters routing.
func TestDeviceCommandParams(t *testing.T) {
	p := getFakePlatform()
	ts := httptest.NewServer(getServer(p, nil).handler())
	defer ts.Close()

	resp, err := http.Post(ts.URL+"/api/v1/device/vacuum.a/set-fan-speed", "application/json",
		bytes.NewBufferString(`{"value":"STRONG"}`))
	require.NoError(t, err)
	assert.Contains(t, readBody(t, resp), `"OK"`)

	inv := p.getInvocations()
	require.Len(t, inv, 1)
	assert.Equal(t, "vacuum.a", inv[0].id)
	assert.Equal(t, enums.CmdSetFanSpeed, inv[0].cmd)
	assert.Equal(t, map[string]interface{}{"value": "STRONG"}, inv[0].params)
}

// Tests entity errors propagation.
func TestDeviceCommandFailure(t *testing.T) {
	data := []struct {
		err    error
		status int
	}{
		{err: &deviceSystem.ErrUnsupportedCommand{Command: "dock"}, status: http.StatusBadRequest},
		{err: &deviceSystem.ErrInvalidParams{Command: "dock"}, status: http.StatusBadRequest},
		{err: &deviceSystem.ErrEntityNotFound{ID: "vacuum.a"}, status: http.StatusNotFound},
		{err: errors.New("stuck"), status: http.StatusInternalServerError},
	}

	for _, v := range data {
		p := getFakePlatform()
		p.err = v.err
		ts := httptest.NewServer(getServer(p, nil).handler())

		resp, err := http.Post(ts.URL+"/api/v1/device/vacuum.a/dock", "application/json", nil)
		require.NoError(t, err)
		assert.Equal(t, v.status, resp.StatusCode, v.err.Error())
		assert.Contains(t, readBody(t, resp), v.err.Error())

		ts.Close()
	}
}

// Tests public endpoints.
func TestPublicEndpoints(t *testing.T) {
	s := getServer(getFakePlatform(), nil)
	c := prometheus.NewCounter(prometheus.CounterOpts{Name: "klyqa_test_total", Help: "Test counter"})
	s.Metrics.MustRegister(c)
	c.Inc()

	ts := httptest.NewServer(s.handler())
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/pub/ping")
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, readBody(t, resp), `"OK"`)

	resp, err = http.Get(ts.URL + "/metrics")
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, readBody(t, resp), "klyqa_test_total 1")
}

// Tests server lifecycle.
func TestStartStop(t *testing.T) {
	s := getServer(getFakePlatform(), nil)
	require.NoError(t, s.Start())
	addr := s.Addr()
	require.NotEmpty(t, addr)

	port := addr[strings.LastIndex(addr, ":"):]
	resp, err := http.Get("http://127.0.0.1" + port + "/pub/ping")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	require.NoError(t, s.Stop(context.Background()))
	require.NoError(t, s.Stop(context.Background()))
}

// Tests errors mapping.
func TestGetErrorStatus(t *testing.T) {
	assert.Equal(t, http.StatusNotFound, getErrorStatus(&ErrUnknownDevice{}))
	assert.Equal(t, http.StatusBadRequest, getErrorStatus(&ErrUnknownCommand{}))
	assert.Equal(t, http.StatusBadRequest, getErrorStatus(&ErrBadRequest{}))
	assert.Equal(t, http.StatusInternalServerError, getErrorStatus(errors.New("test")))
}
