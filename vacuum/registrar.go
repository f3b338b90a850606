package vacuum

import (
	"context"
	"sync"

	"github.com/go-home-io/klyqa/klyqa"
	"github.com/go-home-io/klyqa/plugins/common"
	"github.com/go-home-io/klyqa/plugins/device"
	"github.com/go-home-io/klyqa/providers"
	"github.com/go-home-io/klyqa/utils"
	"github.com/prometheus/client_golang/prometheus"
)

// IRegistrar defines Klyqa vacuum integration lifecycle.
type IRegistrar interface {
	Setup(ctx context.Context) error
	Unload()
}

// ConstructRegistrar has data required for a new registrar.
type ConstructRegistrar struct {
	Logger   common.ILoggerProvider
	Account  klyqa.IAccount
	Parser   klyqa.IParser
	Bus      providers.IEventBusProvider
	Platform providers.IEntityPlatformProvider
	Entities providers.IEntityRegistryProvider
	Devices  providers.IDeviceRegistryProvider
	Areas    providers.IAreaRegistryProvider
	Settings *providers.KlyqaSettings
	Metrics  prometheus.Registerer
}

// Registrar implementation.
type registrar struct {
	sync.Mutex
	ctor    *ConstructRegistrar
	metrics *metrics

	removeListeners []func()
	added           map[string]*klyqaVacuum
}

// NewRegistrar constructs a new Klyqa vacuum integration.
func NewRegistrar(ctor *ConstructRegistrar) IRegistrar {
	return &registrar{
		ctor:            ctor,
		metrics:         newMetrics(ctor.Metrics, ctor.Logger),
		removeListeners: make([]func(), 0),
		added:           make(map[string]*klyqaVacuum),
	}
}

// Setup subscribes to the events and loads account.
// New vacuum cleaners are added once account announces them.
func (r *registrar) Setup(ctx context.Context) error {
	r.Lock()
	r.removeListeners = append(r.removeListeners,
		r.ctor.Bus.ListenOnce(providers.EventHomeStop, r.onStop),
		r.ctor.Bus.Listen(klyqa.EventNewVacuum, r.addNewEntity))
	r.Unlock()

	return r.ctor.Account.UpdateAccount(ctx)
}

// Unload removes listeners and added entities.
func (r *registrar) Unload() {
	r.Lock()
	listeners := r.removeListeners
	r.removeListeners = make([]func(), 0)
	added := r.added
	r.added = make(map[string]*klyqaVacuum)
	r.Unlock()

	for _, v := range listeners {
		v()
	}

	for id := range added {
		r.ctor.Platform.RemoveEntity(id)
	}
}

// Stops account once host is shutting down.
func (r *registrar) onStop(*providers.Event) {
	r.ctor.Logger.Info("Stopping Klyqa account", common.LogSystemToken, logSystem)
	r.ctor.Account.Stop()
	r.ctor.Account.Shutdown()
}

// Adds announced vacuum cleaner to the platform.
func (r *registrar) addNewEntity(e *providers.Event) {
	ds, ok := e.Data.(*klyqa.DeviceSettings)
	if !ok || nil == ds {
		r.ctor.Logger.Warn("Received malformed device announcement", common.LogSystemToken, logSystem,
			common.LogEventToken, e.Type)
		return
	}

	uid := klyqa.FormatUID(ds.LocalDeviceID)
	entityID := utils.EntityID(EntityDomain, uid)

	var status *klyqa.Status
	if d, ok := r.ctor.Account.Devices()[uid]; ok {
		status = d.Status
	}

	if registered, ok := r.ctor.Entities.GetEntityID(EntityDomain, Domain, uid); ok && registered != entityID {
		r.ctor.Logger.Info("Removing stale entity", common.LogSystemToken, logSystem,
			common.LogEntityIDToken, registered)
		if err := r.ctor.Entities.Remove(registered); err != nil {
			r.ctor.Logger.Error("Failed to remove stale entity", err, common.LogSystemToken, logSystem,
				common.LogEntityIDToken, registered)
		}
	}

	r.ctor.Logger.Info("Add entity", common.LogSystemToken, logSystem,
		common.LogEntityIDToken, entityID, common.LogDeviceNameToken, ds.Name)

	v := newVacuum(&vacuumConstruct{
		Logger:   r.ctor.Logger,
		Account:  r.ctor.Account,
		Parser:   r.ctor.Parser,
		Entities: r.ctor.Entities,
		Devices:  r.ctor.Devices,
		Areas:    r.ctor.Areas,
		Settings: r.ctor.Settings,
		Metrics:  r.metrics,
		AccData:  ds,
	})

	if err := v.UpdateSettings(); err != nil {
		r.ctor.Logger.Error("Failed to update device settings", err, v.logFields()...)
	}
	v.applyStatus(status)

	r.ctor.Entities.GetOrCreate(EntityDomain, Domain, uid, uid, r.ctor.Settings.ConfigEntryID)

	if err := r.ctor.Platform.AddEntities([]device.IDevice{v}, true); err != nil {
		r.ctor.Logger.Error("Failed to add entity", err, v.logFields()...)
		return
	}

	r.Lock()
	r.added[v.GetID()] = v
	r.Unlock()
}
