package vacuum

import (
	"context"
	"sync"
	"time"

	"github.com/docker/docker/pkg/namesgenerator"
	"github.com/go-home-io/klyqa/klyqa"
	"github.com/go-home-io/klyqa/plugins/common"
	"github.com/go-home-io/klyqa/plugins/device"
	"github.com/go-home-io/klyqa/plugins/device/enums"
	"github.com/go-home-io/klyqa/providers"
	"github.com/go-home-io/klyqa/utils"
	"github.com/pkg/errors"
)

// Data required for a new vacuum entity.
type vacuumConstruct struct {
	Logger   common.ILoggerProvider
	Account  klyqa.IAccount
	Parser   klyqa.IParser
	Entities providers.IEntityRegistryProvider
	Devices  providers.IDeviceRegistryProvider
	Areas    providers.IAreaRegistryProvider
	Settings *providers.KlyqaSettings
	Metrics  *metrics

	AccData *klyqa.DeviceSettings
	Status  *klyqa.Status
}

// Klyqa vacuum cleaner entity.
type klyqaVacuum struct {
	sync.Mutex
	ctor *vacuumConstruct

	uid        string
	entityID   string
	uniqueID   string
	name       string
	accData    *klyqa.DeviceSettings
	deviceInfo *providers.DeviceInfo
	status     *klyqa.Status
	state      device.VacuumState

	added    bool
	unloaded bool
	updates  chan *device.StateUpdateData

	ctx    context.Context
	cancel context.CancelFunc

	sendTimeout time.Duration
	reapGrace   time.Duration
}

// Constructs a new vacuum entity.
func newVacuum(ctor *vacuumConstruct) *klyqaVacuum {
	uid := klyqa.FormatUID(ctor.AccData.LocalDeviceID)
	ctx, cancel := context.WithCancel(context.Background())
	v := &klyqaVacuum{
		ctor:     ctor,
		uid:      uid,
		uniqueID: uid,
		entityID: utils.EntityID(EntityDomain, uid),
		name:     ctor.AccData.Name,
		accData:  ctor.AccData,
		state: device.VacuumState{
			VacStatus:    enums.VacNone,
			FanSpeedList: append([]string{}, klyqa.SuctionStrengths...),
			AssumedState: true,
		},
		ctx:         ctx,
		cancel:      cancel,
		sendTimeout: sendTimeout,
		reapGrace:   reapGrace,
	}

	if v.name == "" {
		v.name = namesgenerator.GetRandomName(0)
	}

	return v
}

// Init stores state updates channel.
func (v *klyqaVacuum) Init(data *device.InitDataDevice) error {
	v.Lock()
	defer v.Unlock()
	v.updates = data.DeviceStateUpdateChan
	return nil
}

// Unload cancels all pending commands.
func (v *klyqaVacuum) Unload() {
	v.Lock()
	v.unloaded = true
	v.Unlock()

	v.cancel()
}

// GetID returns entity ID.
func (v *klyqaVacuum) GetID() string {
	return v.entityID
}

// GetName returns device name.
func (v *klyqaVacuum) GetName() string {
	v.Lock()
	defer v.Unlock()
	return v.name
}

// GetSpec returns device specification.
func (v *klyqaVacuum) GetSpec() *device.Spec {
	period := scanInterval
	if v.ctor.Settings.DisablePolling {
		period = 0
	}

	return &device.Spec{
		UpdatePeriod:        period,
		SupportedCommands:   enums.AllowedCommands[enums.DevVacuum],
		SupportedProperties: enums.AllowedProperties[enums.DevVacuum],
	}
}

// DeviceInfo returns device metadata.
func (v *klyqaVacuum) DeviceInfo() *providers.DeviceInfo {
	v.Lock()
	defer v.Unlock()
	if nil == v.deviceInfo {
		return nil
	}

	info := *v.deviceInfo
	return &info
}

// AddedToPlatform marks entity as added.
func (v *klyqaVacuum) AddedToPlatform() {
	v.Lock()
	v.added = true
	v.Unlock()

	if err := v.UpdateSettings(); err != nil {
		v.ctor.Logger.Error("Failed to update device settings", err, v.logFields()...)
	}
}

// Load returns current state.
func (v *klyqaVacuum) Load() (*device.VacuumState, error) {
	v.Lock()
	defer v.Unlock()
	return v.copyState(), nil
}

// Update refreshes settings and requests device status.
func (v *klyqaVacuum) Update() (*device.VacuumState, error) {
	v.ctor.Logger.Info("Updating device", v.logFields()...)

	if err := v.updateKlyqa(); err != nil {
		v.ctor.Logger.Error("Failed to refresh account settings", err, v.logFields()...)
	}

	if err := v.send(tokensRequest); err != nil {
		v.ctor.Logger.Error("Failed to request device status", err, v.logFields()...)
	}

	var status *klyqa.Status
	if d, ok := v.ctor.Account.Devices()[v.uid]; ok {
		status = d.Status
	}
	v.applyStatus(status)

	return v.Load()
}

// On turns device on.
func (v *klyqaVacuum) On() error {
	return v.send(tokensOn)
}

// Off sends device back to the dock.
func (v *klyqaVacuum) Off() error {
	return v.send(tokensOff)
}

// Start starts cleaning.
func (v *klyqaVacuum) Start() error {
	return v.send(tokensStart)
}

// Stop stops cleaning without returning to the dock.
func (v *klyqaVacuum) Stop() error {
	return v.send(tokensStop)
}

// Pause pauses cleaning.
func (v *klyqaVacuum) Pause() error {
	return v.send(tokensPause)
}

// Dock sends device back to the dock.
func (v *klyqaVacuum) Dock() error {
	return v.send(tokensDock)
}

// FindMe makes device beep.
func (v *klyqaVacuum) FindMe() error {
	return v.send(tokensFindMe)
}

// SetFanSpeed changes suction strength.
func (v *klyqaVacuum) SetFanSpeed(speed common.String) error {
	return v.send(append(append([]string{}, tokensFanSpeed...), speed.Value))
}

// UpdateSettings applies cloud settings of the device and
// binds it to the device registry.
func (v *klyqaVacuum) UpdateSettings() error {
	settings := v.ctor.Account.Settings()
	ds, ok := settings.FindDevice(v.uid)
	if !ok {
		return nil
	}

	info := &providers.DeviceInfo{
		Identifiers:  [][2]string{{Domain, klyqa.FormatUID(ds.LocalDeviceID)}},
		Name:         ds.Name,
		Manufacturer: klyqa.Manufacturer,
		Model:        ds.ProductID,
		SwVersion:    ds.FirmwareVersion,
		HwVersion:    ds.HardwareRevision,
	}

	if url, ok := v.ctor.Settings.ProductURLs[ds.ProductID]; ok {
		info.ConfigurationURL = url
	}

	v.Lock()
	v.accData = ds
	if ds.Name != "" {
		v.name = ds.Name
	}
	info.Name = v.name
	v.uniqueID = klyqa.FormatUID(ds.LocalDeviceID)
	v.Unlock()

	var entry *providers.EntityEntry
	if entityID, ok := v.ctor.Entities.GetEntityID(EntityDomain, Domain, v.uniqueID); ok {
		entry, _ = v.ctor.Entities.Get(entityID)
	}

	if v.ctor.Settings.ConfigEntryID != "" {
		dev := v.ctor.Devices.GetOrCreate(v.ctor.Settings.ConfigEntryID, info)
		if entry != nil && entry.DeviceID != dev.ID {
			if err := v.ctor.Entities.SetDevice(entry.EntityID, dev.ID); err != nil {
				return errors.Wrap(err, "bind device")
			}
		}
	}

	if entry != nil && v.ctor.Settings.SyncRooms {
		if room, ok := settings.FindRoom(v.uid); ok && room.Name != "" {
			area := v.ctor.Areas.GetOrCreate(room.Name)
			if entry.AreaID != area.ID {
				if err := v.ctor.Entities.SetArea(entry.EntityID, area.ID); err != nil {
					return errors.Wrap(err, "sync room")
				}
				entry.AreaID = area.ID
			}
		}
	}

	if entry != nil {
		info.SuggestedArea = entry.AreaID
	}

	v.Lock()
	v.deviceInfo = info
	v.Unlock()
	return nil
}

// Refreshes account settings.
func (v *klyqaVacuum) updateKlyqa() error {
	if err := v.ctor.Account.RequestAccountSettingsEco(v.ctx); err != nil {
		return err
	}

	v.Lock()
	added := v.added
	v.Unlock()

	if added {
		if err := v.ctor.Account.ProcessAccountSettings(v.ctx); err != nil {
			return err
		}
	}

	return v.UpdateSettings()
}

// Projects device report onto the observable state.
func (v *klyqaVacuum) applyStatus(status *klyqa.Status) {
	v.Lock()
	next, outcome := Project(v.state, status)
	v.state = next
	if OutcomeAccepted == outcome {
		v.status = status
	}
	v.Unlock()

	switch outcome {
	case OutcomeError:
		msg := ""
		if status != nil {
			msg = status.Message
		}
		v.ctor.Logger.Error("Device reported error", errors.New(msg), v.logFields()...)
	case OutcomeAccepted:
		v.ctor.Logger.Debug("Updated device state", v.logFields()...)
	}

	v.ctor.Metrics.projected(v.uid, outcome, next.BatteryLevel, next.On)
}

// Pushes current state to the platform.
func (v *klyqaVacuum) scheduleUpdate() {
	v.Lock()
	defer v.Unlock()

	if !v.added || v.unloaded || nil == v.updates {
		return
	}

	select {
	case v.updates <- &device.StateUpdateData{State: v.copyState()}:
	default:
		v.ctor.Logger.Warn("State updates channel is full", v.logFields()...)
	}
}

// Must be called under the lock.
func (v *klyqaVacuum) copyState() *device.VacuumState {
	s := v.state
	s.FanSpeedList = append([]string{}, v.state.FanSpeedList...)
	return &s
}

func (v *klyqaVacuum) logFields() []string {
	return []string{common.LogSystemToken, logSystem, common.LogEntityIDToken, v.entityID,
		common.LogDeviceUIDToken, v.uid}
}
