package device

import (
	"encoding/json"
	"fmt"
	"reflect"
	"sync"
	"time"

	"github.com/go-home-io/klyqa/plugins/common"
	"github.com/go-home-io/klyqa/plugins/device"
	"github.com/go-home-io/klyqa/plugins/device/enums"
	"github.com/go-home-io/klyqa/providers"
	"github.com/go-home-io/klyqa/utils"
)

// Minimal polling interval.
const minPollingInterval = 10

// Data required for a new wrapper.
type wrapperConstruct struct {
	DeviceType      enums.DeviceType
	DeviceInterface device.IDevice
	Logger          common.ILoggerProvider
	Cron            providers.ICronProvider
	Validator       providers.IValidatorProvider
	UpdatesChan     chan *device.StateUpdateData
	FanOut          providers.IInternalFanOutProvider
}

// Entity wrapper implementation.
// Wrapper owns polling schedule, commands routing and state snapshot.
type entityWrapper struct {
	sync.Mutex
	stateMutex sync.RWMutex

	Ctor *wrapperConstruct

	ID          string
	State       map[string]interface{}
	Spec        *device.Spec
	CommandsStr []string

	jobID        int
	updateMethod reflect.Value
	loadMethod   reflect.Value
	commands     map[enums.Command]reflect.Value

	isPolling bool
	stop      chan struct{}
	stopOnce  sync.Once
}

// Constructs a new entity wrapper.
func newEntityWrapper(ctor *wrapperConstruct) *entityWrapper {
	w := &entityWrapper{
		Ctor:      ctor,
		ID:        ctor.DeviceInterface.GetID(),
		State:     make(map[string]interface{}),
		isPolling: false,
		jobID:     -1,
		stop:      make(chan struct{}),
	}

	w.Spec = ctor.DeviceInterface.GetSpec()
	if nil == w.Spec {
		w.Spec = &device.Spec{
			SupportedProperties: make([]enums.Property, 0),
			SupportedCommands:   make([]enums.Command, 0),
			UpdatePeriod:        0,
		}
	}

	w.updateMethod = reflect.ValueOf(ctor.DeviceInterface).MethodByName("Update")
	w.loadMethod = reflect.ValueOf(ctor.DeviceInterface).MethodByName("Load")
	w.validateDeviceSpec()
	return w
}

// Starts polling and updates listener.
func (w *entityWrapper) start() {
	interval := int(w.Spec.UpdatePeriod / time.Second)
	if interval > 0 {
		w.isPolling = true
		if interval < minPollingInterval {
			interval = minPollingInterval
		}

		var err error
		w.jobID, err = w.Ctor.Cron.AddFunc(utils.EverySpec(time.Duration(interval)*time.Second), w.pullUpdate)
		if err != nil {
			w.jobID = -1
			w.Ctor.Logger.Warn("Failed to schedule device updates", w.logFields()...)
		}

		w.Ctor.Logger.Debug(fmt.Sprintf("Polling rate for the device is %d seconds", interval),
			w.logFields()...)
	}

	go w.startListener()
}

// Stops all background activities.
func (w *entityWrapper) unload() {
	w.Ctor.DeviceInterface.Unload()
	if w.jobID >= 0 {
		w.Ctor.Cron.RemoveFunc(w.jobID)
	}

	w.stopOnce.Do(func() {
		close(w.stop)
	})
}

// Performs a call to the device.
// Validates whether device actually reported this operation as supported.
func (w *entityWrapper) invokeCommand(cmdName enums.Command, param map[string]interface{}) error {
	w.Lock()
	defer w.Unlock()

	method, ok := w.commands[cmdName]
	if !ok {
		w.Ctor.Logger.Warn("Device doesn't support this command",
			append(w.logFields(), common.LogDeviceCommandToken, cmdName.String())...)
		return &ErrUnsupportedCommand{Command: cmdName.String()}
	}

	w.Ctor.Logger.Debug("Invoking device command",
		append(w.logFields(), common.LogDeviceCommandToken, cmdName.String())...)

	var results []reflect.Value

	if method.Type().NumIn() > 0 {
		obj, err := json.Marshal(param)
		if err != nil {
			return &ErrInvalidParams{Command: cmdName.String()}
		}

		objNew := reflect.New(method.Type().In(0)).Interface()
		if err := json.Unmarshal(obj, objNew); err != nil {
			return &ErrInvalidParams{Command: cmdName.String()}
		}

		if !w.Ctor.Validator.Validate(objNew) {
			w.Ctor.Logger.Warn("Received incorrect command params",
				append(w.logFields(), common.LogDeviceCommandToken, cmdName.String())...)
			return &ErrInvalidParams{Command: cmdName.String()}
		}

		results = method.Call([]reflect.Value{reflect.ValueOf(objNew).Elem()})
	} else {
		results = method.Call(nil)
	}

	if len(results) > 0 && !results[0].IsNil() {
		err := results[0].Interface().(error)
		w.Ctor.Logger.Error("Got error while invoking device command", err,
			append(w.logFields(), common.LogDeviceCommandToken, cmdName.String())...)
		return err
	}

	return nil
}

// Returns state snapshot.
func (w *entityWrapper) getState() *providers.EntityState {
	w.stateMutex.RLock()
	defer w.stateMutex.RUnlock()

	state := make(map[string]interface{}, len(w.State))
	for k, v := range w.State {
		state[k] = v
	}

	return &providers.EntityState{
		ID:       w.ID,
		Name:     w.Ctor.DeviceInterface.GetName(),
		Type:     w.Ctor.DeviceType,
		State:    state,
		Commands: w.CommandsStr,
	}
}

// Validates specification, returned by device and prepares
// supported commands.
func (w *entityWrapper) validateDeviceSpec() {
	w.CommandsStr = make([]string, 0)
	w.commands = make(map[enums.Command]reflect.Value)
	for _, v := range w.Spec.SupportedCommands {
		if !v.IsCommandAllowed(w.Ctor.DeviceType) {
			w.Ctor.Logger.Warn("Device claimed restricted command",
				append(w.logFields(), common.LogDeviceCommandToken, v.String())...)
			continue
		}

		method := reflect.ValueOf(w.Ctor.DeviceInterface).MethodByName(v.GetCommandMethodName())
		if !method.IsValid() {
			w.Ctor.Logger.Warn("Device claimed non-implemented command",
				append(w.logFields(), common.LogDeviceCommandToken, v.String())...)
			continue
		}

		if method.Type().NumIn() > 1 {
			w.Ctor.Logger.Warn("Device declared method with more than one param",
				append(w.logFields(), common.LogDeviceCommandToken, v.String())...)
			continue
		}

		w.commands[v] = method
		w.CommandsStr = append(w.CommandsStr, v.String())
	}
}

// Updates internal device state.
func (w *entityWrapper) setState(deviceState interface{}) bool {
	if nil == deviceState || reflect.ValueOf(deviceState).Kind() == reflect.Ptr && reflect.ValueOf(deviceState).IsNil() {
		return false
	}

	if _, ok := enums.AllowedProperties[w.Ctor.DeviceType]; !ok {
		w.Ctor.Logger.Warn("Received unknown device type", w.logFields()...)
		return false
	}

	rt, rv := reflect.TypeOf(deviceState), reflect.ValueOf(deviceState)
	if rt.Kind() == reflect.Ptr {
		rt = rt.Elem()
		rv = rv.Elem()
	}

	if rt.Kind() != reflect.Struct {
		return false
	}

	state := make(map[string]interface{}, rt.NumField())
	for ii := 0; ii < rt.NumField(); ii++ {
		field := rt.Field(ii)
		jsonKey := field.Tag.Get("json")
		if "" == jsonKey {
			continue
		}

		prop, err := enums.PropertyString(jsonKey)
		if err != nil {
			w.Ctor.Logger.Warn("Received unknown device property",
				append(w.logFields(), common.LogDevicePropertyToken, jsonKey)...)
			continue
		}

		if !enums.SliceContainsProperty(w.Spec.SupportedProperties, prop) {
			continue
		}

		if !prop.IsPropertyAllowed(w.Ctor.DeviceType) {
			continue
		}

		val := getFieldValueOrNil(rv.Field(ii))
		if val != nil {
			state[jsonKey] = val
		}
	}

	w.stateMutex.Lock()
	w.State = state
	w.stateMutex.Unlock()
	return true
}

// Returns actual value or nil.
func getFieldValueOrNil(valField reflect.Value) interface{} {
	val := valField.Interface()
	switch valField.Kind() {
	case reflect.Slice, reflect.Chan, reflect.Map, reflect.Array, reflect.String:
		if 0 == valField.Len() {
			return nil
		}
	default:
		if nil == val {
			return nil
		}
	}

	return val
}

// Performs data pull from the device.
func (w *entityWrapper) pullUpdate() {
	if !w.isPolling {
		return
	}

	w.Ctor.Logger.Debug("Fetching update for the device", w.logFields()...)
	w.fetch(w.updateMethod, false)
}

// Invokes Load or Update method and processes returned state.
func (w *entityWrapper) fetch(method reflect.Value, firstSeen bool) bool {
	if !method.IsValid() {
		return false
	}

	state := method.Call(nil)
	var err error
	if 0 == len(state) {
		err = &ErrNoDataFromPlugin{}
	}

	if len(state) > 1 && !state[1].IsNil() {
		err = state[1].Interface().(error)
	}

	if nil == err && state[0].Kind() == reflect.Ptr && state[0].IsNil() {
		err = &ErrNoDataFromPlugin{}
	}

	if err != nil {
		w.Ctor.Logger.Error("Failed to fetch device updates", err, w.logFields()...)
		return false
	}

	w.processUpdate(state[0].Interface(), firstSeen)
	return true
}

// Listens for updates pushed by the device.
func (w *entityWrapper) startListener() {
	for {
		select {
		case <-w.stop:
			return
		case update := <-w.Ctor.UpdatesChan:
			if update != nil {
				w.processUpdate(update.State, false)
			}
		}
	}
}

// Processing update message and distributing it.
func (w *entityWrapper) processUpdate(state interface{}, firstSeen bool) {
	w.Ctor.Logger.Debug("Received update for the device", w.logFields()...)

	if !w.setState(state) {
		return
	}

	msg := &common.MsgDeviceUpdate{
		ID:        w.ID,
		Name:      w.Ctor.DeviceInterface.GetName(),
		Type:      w.Ctor.DeviceType,
		FirstSeen: firstSeen,
		State:     make(map[enums.Property]interface{}),
	}

	w.stateMutex.RLock()
	for k, v := range w.State {
		if p, err := enums.PropertyString(k); err == nil {
			msg.State[p] = v
		}
	}
	w.stateMutex.RUnlock()

	select {
	case w.Ctor.FanOut.ChannelInDeviceUpdates() <- msg:
	default:
		w.Ctor.Logger.Warn("Device updates channel is full", w.logFields()...)
	}
}

func (w *entityWrapper) logFields() []string {
	return []string{common.LogDeviceTypeToken, w.Ctor.DeviceType.String(), common.LogEntityIDToken, w.ID}
}
