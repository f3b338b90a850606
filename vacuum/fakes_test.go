package vacuum

import (
	"context"
	"sync"
	"time"

	"github.com/go-home-io/klyqa/klyqa"
	"github.com/go-home-io/klyqa/mocks"
	"github.com/go-home-io/klyqa/plugins/device"
	"github.com/go-home-io/klyqa/plugins/device/enums"
	"github.com/go-home-io/klyqa/providers"
	"github.com/go-home-io/klyqa/systems/registry"
)

// Fake account. Answers are delivered according to the mode.
type fakeAccount struct {
	sync.Mutex
	settings *klyqa.AccountSettings
	devices  map[string]*klyqa.Device

	// Status stored for the device before callback is fired.
	answer *klyqa.Status
	// UID reported back into the callback. Empty means addressed UID.
	ackUID string
	// Skip callback and return immediately.
	noAck bool
	// Block until context is cancelled.
	hang bool
	// Delay returning after callback.
	lingering time.Duration

	requests       [][]string
	ecoCalls       int
	processCalls   int
	updateCalls    int
	stopCalls      int
	shutdownCalls  int
	ecoErr         error
	updateAccounts func()
}

func newFakeAccount() *fakeAccount {
	return &fakeAccount{
		settings: &klyqa.AccountSettings{
			Devices: []*klyqa.DeviceSettings{
				{
					LocalDeviceID:    "AB-CD",
					Name:             "Bot",
					ProductID:        "@klyqa.cleaner.vc1",
					FirmwareVersion:  "1.2",
					HardwareRevision: "A",
				},
			},
			Rooms: []*klyqa.Room{{ID: "r1", Name: "Kitchen", Devices: []string{"AB-CD"}}},
		},
		devices:  make(map[string]*klyqa.Device),
		requests: make([][]string, 0),
	}
}

func (f *fakeAccount) Devices() map[string]*klyqa.Device {
	f.Lock()
	defer f.Unlock()
	result := make(map[string]*klyqa.Device, len(f.devices))
	for k, v := range f.devices {
		d := *v
		result[k] = &d
	}
	return result
}

func (f *fakeAccount) Settings() *klyqa.AccountSettings {
	f.Lock()
	defer f.Unlock()
	return f.settings
}

func (f *fakeAccount) UpdateAccount(context.Context) error {
	f.Lock()
	f.updateCalls++
	fn := f.updateAccounts
	f.Unlock()

	if fn != nil {
		fn()
	}
	return nil
}

func (f *fakeAccount) RequestAccountSettings(context.Context) error {
	return nil
}

func (f *fakeAccount) RequestAccountSettingsEco(context.Context) error {
	f.Lock()
	defer f.Unlock()
	f.ecoCalls++
	return f.ecoErr
}

func (f *fakeAccount) ProcessAccountSettings(context.Context) error {
	f.Lock()
	defer f.Unlock()
	f.processCalls++
	return nil
}

func (f *fakeAccount) SendToDevices(ctx context.Context, req *klyqa.Request, args []string,
	cb klyqa.AnswerCallback, timeout time.Duration) error {
	f.Lock()
	f.requests = append(f.requests, args)
	answer := f.answer
	ackUID := f.ackUID
	noAck := f.noAck
	hang := f.hang
	lingering := f.lingering
	if answer != nil {
		for _, uid := range req.DeviceUnitIDs {
			f.devices[uid] = &klyqa.Device{UID: uid, Status: answer}
		}
	}
	f.Unlock()

	if hang {
		<-ctx.Done()
		return ctx.Err()
	}

	if noAck {
		return nil
	}

	for _, uid := range req.DeviceUnitIDs {
		if ackUID != "" {
			uid = ackUID
		}
		var msg *klyqa.Message
		if answer != nil {
			msg = &klyqa.Message{UID: uid, Answer: answer}
		}
		cb(msg, uid)
	}

	if lingering > 0 {
		time.Sleep(lingering)
	}

	return nil
}

func (f *fakeAccount) Start() error {
	return nil
}

func (f *fakeAccount) Stop() {
	f.Lock()
	defer f.Unlock()
	f.stopCalls++
}

func (f *fakeAccount) Shutdown() {
	f.Lock()
	defer f.Unlock()
	f.shutdownCalls++
}

func (f *fakeAccount) lastRequest() []string {
	f.Lock()
	defer f.Unlock()
	if 0 == len(f.requests) {
		return nil
	}
	return f.requests[len(f.requests)-1]
}

// Fake entity platform.
type fakePlatform struct {
	sync.Mutex
	added           []device.IDevice
	updateBeforeAdd bool
	removed         []string
}

func (f *fakePlatform) AddEntities(entities []device.IDevice, updateBeforeAdd bool) error {
	f.Lock()
	f.added = append(f.added, entities...)
	f.updateBeforeAdd = updateBeforeAdd
	f.Unlock()

	for _, v := range entities {
		if aware, ok := v.(device.IPlatformAware); ok {
			aware.AddedToPlatform()
		}
	}
	return nil
}

func (f *fakePlatform) RemoveEntity(entityID string) {
	f.Lock()
	defer f.Unlock()
	f.removed = append(f.removed, entityID)
	for _, v := range f.added {
		if v.GetID() == entityID {
			v.Unload()
		}
	}
}

func (f *fakePlatform) InvokeCommand(string, enums.Command, map[string]interface{}) error {
	return nil
}

func (f *fakePlatform) GetEntity(string) (*providers.EntityState, bool) {
	return nil, false
}

func (f *fakePlatform) GetEntities() []*providers.EntityState {
	return nil
}

func (f *fakePlatform) Unload() {
}

// Registries backed by a fake storage.
type registries struct {
	entities providers.IEntityRegistryProvider
	devices  providers.IDeviceRegistryProvider
	areas    providers.IAreaRegistryProvider
}

func newRegistries() *registries {
	ctor := &registry.ConstructRegistry{
		Logger:  mocks.FakeNewLogger(nil),
		Storage: mocks.FakeNewStorage(nil),
	}
	areas := registry.NewAreaRegistry(ctor)
	return &registries{
		entities: registry.NewEntityRegistry(ctor),
		devices:  registry.NewDeviceRegistry(ctor, areas),
		areas:    areas,
	}
}

func getKlyqaSettings() *providers.KlyqaSettings {
	return &providers.KlyqaSettings{
		ConfigEntryID: "entry",
		ProductURLs:   map[string]string{"@klyqa.cleaner.vc1": "http://example.com/vc1"},
	}
}

func getVacuum(acc klyqa.IAccount, r *registries, settings *providers.KlyqaSettings,
	logCallback func(string)) *klyqaVacuum {
	v := newVacuum(&vacuumConstruct{
		Logger:   mocks.FakeNewLogger(logCallback),
		Account:  acc,
		Parser:   klyqa.NewParser(),
		Entities: r.entities,
		Devices:  r.devices,
		Areas:    r.areas,
		Settings: settings,
		Metrics:  newMetrics(nil, mocks.FakeNewLogger(nil)),
		AccData:  &klyqa.DeviceSettings{LocalDeviceID: "AB-CD", Name: "Bot"},
	})
	v.sendTimeout = time.Second
	v.reapGrace = 50 * time.Millisecond
	return v
}

// Local bridge which answers every request with the next queued report.
type echoTransport struct {
	sync.Mutex
	handler func(string, []byte)
	answers []string
}

func (f *echoTransport) Connect() error {
	return nil
}

func (f *echoTransport) Publish(uid string, _ []byte) error {
	f.Lock()
	handler := f.handler
	if 0 == len(f.answers) || nil == handler {
		f.Unlock()
		return nil
	}
	answer := f.answers[0]
	f.answers = f.answers[1:]
	f.Unlock()

	go handler(uid, []byte(answer))
	return nil
}

func (f *echoTransport) Subscribe(handler func(string, []byte)) error {
	f.Lock()
	defer f.Unlock()
	f.handler = handler
	return nil
}

func (f *echoTransport) Close() {
}

// Cloud without devices.
type emptyCloud struct {
}

func (*emptyCloud) Login(context.Context) error {
	return nil
}

func (*emptyCloud) GetSettings(context.Context) (*klyqa.AccountSettings, error) {
	return &klyqa.AccountSettings{}, nil
}

// Constructs real account wired to the echo bridge.
func getEchoAccount(answers ...string) (klyqa.IAccount, error) {
	return klyqa.NewAccount(&klyqa.ConstructAccount{
		Logger:    mocks.FakeNewLogger(nil),
		Transport: &echoTransport{answers: answers},
		Cloud:     &emptyCloud{},
		Bus:       mocks.FakeNewEventBus(),
		Cron:      mocks.FakeNewCron(),
		Settings:  getKlyqaSettings(),
	})
}
