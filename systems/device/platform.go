// Package device contains host side of the loaded entities.
package device

import (
	"reflect"
	"sort"
	"sync"

	"github.com/go-home-io/klyqa/plugins/common"
	"github.com/go-home-io/klyqa/plugins/device"
	"github.com/go-home-io/klyqa/plugins/device/enums"
	"github.com/go-home-io/klyqa/providers"
	"github.com/pkg/errors"
)

const (
	// Logs representation.
	logSystem = "platform"

	updatesChanSize = 10
)

// Known device types and their interfaces.
var deviceTypes = map[enums.DeviceType]reflect.Type{
	enums.DevVacuum: device.TypeVacuum,
}

// Entity platform implementation.
type platform struct {
	sync.RWMutex
	ctor     *ConstructPlatform
	entities map[string]*entityWrapper
}

// ConstructPlatform has data required for a new entity platform.
type ConstructPlatform struct {
	Logger    common.ILoggerProvider
	Cron      providers.ICronProvider
	Validator providers.IValidatorProvider
	FanOut    providers.IInternalFanOutProvider
}

// NewPlatform constructs a new entity platform.
func NewPlatform(ctor *ConstructPlatform) providers.IEntityPlatformProvider {
	return &platform{
		ctor:     ctor,
		entities: make(map[string]*entityWrapper),
	}
}

// AddEntities loads entities and starts polling.
// If updateBeforeAdd is set, Update is invoked before entity is added,
// otherwise Load is used to fetch initial state.
func (p *platform) AddEntities(entities []device.IDevice, updateBeforeAdd bool) error {
	var result error
	for _, v := range entities {
		if err := p.addEntity(v, updateBeforeAdd); err != nil {
			p.ctor.Logger.Error("Failed to add entity", err, common.LogSystemToken, logSystem,
				common.LogEntityIDToken, v.GetID())
			result = err
		}
	}

	return result
}

// RemoveEntity unloads entity.
func (p *platform) RemoveEntity(entityID string) {
	p.Lock()
	w, ok := p.entities[entityID]
	delete(p.entities, entityID)
	p.Unlock()

	if !ok {
		return
	}

	w.unload()
	p.ctor.Logger.Info("Removed entity", common.LogSystemToken, logSystem, common.LogEntityIDToken, entityID)
}

// InvokeCommand routes command to the entity.
func (p *platform) InvokeCommand(entityID string, cmd enums.Command, params map[string]interface{}) error {
	p.RLock()
	w, ok := p.entities[entityID]
	p.RUnlock()

	if !ok {
		return &ErrEntityNotFound{ID: entityID}
	}

	return w.invokeCommand(cmd, params)
}

// GetEntity returns entity state.
func (p *platform) GetEntity(entityID string) (*providers.EntityState, bool) {
	p.RLock()
	w, ok := p.entities[entityID]
	p.RUnlock()

	if !ok {
		return nil, false
	}

	return w.getState(), true
}

// GetEntities returns states of all entities ordered by ID.
func (p *platform) GetEntities() []*providers.EntityState {
	p.RLock()
	wrappers := make([]*entityWrapper, 0, len(p.entities))
	for _, v := range p.entities {
		wrappers = append(wrappers, v)
	}
	p.RUnlock()

	result := make([]*providers.EntityState, 0, len(wrappers))
	for _, v := range wrappers {
		result = append(result, v.getState())
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].ID < result[j].ID
	})

	return result
}

// Unload removes all entities.
func (p *platform) Unload() {
	p.RLock()
	ids := make([]string, 0, len(p.entities))
	for k := range p.entities {
		ids = append(ids, k)
	}
	p.RUnlock()

	for _, v := range ids {
		p.RemoveEntity(v)
	}
}

// Loads a single entity.
func (p *platform) addEntity(d device.IDevice, updateBeforeAdd bool) error {
	id := d.GetID()

	p.RLock()
	_, exists := p.entities[id]
	p.RUnlock()
	if exists {
		return &ErrDuplicateEntity{ID: id}
	}

	deviceType := getDeviceType(d)
	if enums.DevUnknown == deviceType {
		return &ErrUnknownDeviceType{}
	}

	updates := make(chan *device.StateUpdateData, updatesChanSize)
	if err := d.Init(&device.InitDataDevice{
		Logger:                p.ctor.Logger,
		DeviceStateUpdateChan: updates,
	}); err != nil {
		return errors.Wrap(err, "init entity")
	}

	w := newEntityWrapper(&wrapperConstruct{
		DeviceType:      deviceType,
		DeviceInterface: d,
		Logger:          p.ctor.Logger,
		Cron:            p.ctor.Cron,
		Validator:       p.ctor.Validator,
		UpdatesChan:     updates,
		FanOut:          p.ctor.FanOut,
	})

	method := w.loadMethod
	if updateBeforeAdd {
		method = w.updateMethod
	}

	if !w.fetch(method, true) {
		p.ctor.Logger.Warn("Failed to fetch initial entity state", w.logFields()...)
	}

	p.Lock()
	if _, ok := p.entities[id]; ok {
		p.Unlock()
		d.Unload()
		return &ErrDuplicateEntity{ID: id}
	}
	p.entities[id] = w
	p.Unlock()

	w.start()

	if aware, ok := d.(device.IPlatformAware); ok {
		aware.AddedToPlatform()
	}

	p.ctor.Logger.Info("Added entity", append(w.logFields(), common.LogDeviceNameToken, d.GetName())...)
	return nil
}

// Detects device type by implemented interface.
func getDeviceType(d device.IDevice) enums.DeviceType {
	t := reflect.TypeOf(d)
	for k, v := range deviceTypes {
		if t.Implements(v) {
			return k
		}
	}

	return enums.DevUnknown
}
