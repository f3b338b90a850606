package device

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/fortytw2/leaktest"
	"github.com/go-home-io/klyqa/mocks"
	"github.com/go-home-io/klyqa/plugins/common"
	"github.com/go-home-io/klyqa/plugins/device"
	"github.com/go-home-io/klyqa/plugins/device/enums"
	"github.com/go-home-io/klyqa/providers"
	"github.com/go-home-io/klyqa/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeVacuum struct {
	sync.Mutex
	id     string
	name   string
	spec   *device.Spec
	state  *device.VacuumState
	cmdErr error

	updates chan *device.StateUpdateData

	loadInvoked   int
	updateInvoked int
	unloadInvoked int
	addedInvoked  int
	commands      []string
	speed         string
}

func (f *fakeVacuum) Init(d *device.InitDataDevice) error {
	f.updates = d.DeviceStateUpdateChan
	return nil
}

func (f *fakeVacuum) Unload() {
	f.Lock()
	defer f.Unlock()
	f.unloadInvoked++
}

func (f *fakeVacuum) GetID() string {
	return f.id
}

func (f *fakeVacuum) GetName() string {
	return f.name
}

func (f *fakeVacuum) GetSpec() *device.Spec {
	return f.spec
}

func (f *fakeVacuum) AddedToPlatform() {
	f.Lock()
	defer f.Unlock()
	f.addedInvoked++
}

func (f *fakeVacuum) Load() (*device.VacuumState, error) {
	f.Lock()
	defer f.Unlock()
	f.loadInvoked++
	return f.state, nil
}

func (f *fakeVacuum) Update() (*device.VacuumState, error) {
	f.Lock()
	defer f.Unlock()
	f.updateInvoked++
	return f.state, nil
}

func (f *fakeVacuum) record(cmd string) error {
	f.Lock()
	defer f.Unlock()
	f.commands = append(f.commands, cmd)
	return f.cmdErr
}

func (f *fakeVacuum) On() error     { return f.record("on") }
func (f *fakeVacuum) Off() error    { return f.record("off") }
func (f *fakeVacuum) Start() error  { return f.record("start") }
func (f *fakeVacuum) Stop() error   { return f.record("stop") }
func (f *fakeVacuum) Pause() error  { return f.record("pause") }
func (f *fakeVacuum) Dock() error   { return f.record("dock") }
func (f *fakeVacuum) FindMe() error { return f.record("find-me") }

func (f *fakeVacuum) SetFanSpeed(s common.String) error {
	f.Lock()
	f.speed = s.Value
	f.Unlock()
	return f.record("set-fan-speed")
}

// Not a vacuum.
type fakeUnknown struct {
}

func (*fakeUnknown) Init(*device.InitDataDevice) error { return nil }
func (*fakeUnknown) Unload()                           {}
func (*fakeUnknown) GetID() string                     { return "unknown.device" }
func (*fakeUnknown) GetName() string                   { return "unknown" }
func (*fakeUnknown) GetSpec() *device.Spec             { return nil }

func getFakeVacuum(id string, period time.Duration) *fakeVacuum {
	return &fakeVacuum{
		id:   id,
		name: "Bot " + id,
		spec: &device.Spec{
			UpdatePeriod:        period,
			SupportedCommands:   enums.AllowedCommands[enums.DevVacuum],
			SupportedProperties: enums.AllowedProperties[enums.DevVacuum],
		},
		state: &device.VacuumState{
			VacStatus:    enums.VacDocked,
			BatteryLevel: 80,
			FanSpeed:     "MAX",
			FanSpeedList: []string{"NORMAL", "MAX"},
			On:           true,
		},
		commands: make([]string, 0),
	}
}

func getPlatform() (providers.IEntityPlatformProvider, *mocks.FakeCron, providers.IInternalFanOutProvider) {
	cron := mocks.FakeNewCron()
	fanOut := mocks.FakeNewFanOut()
	p := NewPlatform(&ConstructPlatform{
		Logger:    mocks.FakeNewLogger(nil),
		Cron:      cron,
		Validator: utils.NewValidator(mocks.FakeNewLogger(nil)),
		FanOut:    fanOut,
	})

	return p, cron, fanOut
}

// Tests entity loading with update before add.
func TestAddEntitiesWithUpdate(t *testing.T) {
	defer leaktest.Check(t)()

	p, cron, fanOut := getPlatform()
	v := getFakeVacuum("vacuum.a1", 205*time.Second)
	require.NoError(t, p.AddEntities([]device.IDevice{v}, true))
	defer p.Unload()

	assert.Equal(t, 1, v.updateInvoked)
	assert.Equal(t, 0, v.loadInvoked)
	assert.Equal(t, 1, v.addedInvoked)

	require.Len(t, cron.Specs, 1)
	for _, s := range cron.Specs {
		assert.Equal(t, "@every 205s", s)
	}

	s, ok := p.GetEntity("vacuum.a1")
	require.True(t, ok)
	assert.Equal(t, "Bot vacuum.a1", s.Name)
	assert.Equal(t, enums.DevVacuum, s.Type)
	assert.Equal(t, 80, s.State["battery_level"])
	assert.Equal(t, enums.VacDocked, s.State["vac_status"])
	assert.Equal(t, true, s.State["on"])
	assert.Equal(t, false, s.State["assumed_state"])
	assert.Len(t, s.Commands, len(enums.AllowedCommands[enums.DevVacuum]))

	_, ch := fanOut.SubscribeDeviceUpdates()
	select {
	case msg := <-ch:
		assert.Equal(t, "vacuum.a1", msg.ID)
		assert.True(t, msg.FirstSeen)
		assert.Equal(t, "MAX", msg.State[enums.PropFanSpeed])
	default:
		t.Fatal("no update was published")
	}
}

// Tests entity loading without update.
func TestAddEntitiesWithLoad(t *testing.T) {
	defer leaktest.Check(t)()

	p, cron, _ := getPlatform()
	v := getFakeVacuum("vacuum.a1", 0)
	require.NoError(t, p.AddEntities([]device.IDevice{v}, false))
	defer p.Unload()

	assert.Equal(t, 0, v.updateInvoked)
	assert.Equal(t, 1, v.loadInvoked)
	assert.Len(t, cron.Specs, 0)
}

// Tests polling interval limits.
func TestPolling(t *testing.T) {
	defer leaktest.Check(t)()

	p, cron, _ := getPlatform()
	v := getFakeVacuum("vacuum.a1", 3*time.Second)
	require.NoError(t, p.AddEntities([]device.IDevice{v}, true))

	for _, s := range cron.Specs {
		assert.Equal(t, "@every 10s", s)
	}

	cron.RunAll()
	cron.RunAll()
	v.Lock()
	assert.Equal(t, 3, v.updateInvoked)
	v.Unlock()

	p.RemoveEntity("vacuum.a1")
	assert.Len(t, cron.Specs, 0)
	assert.Equal(t, 1, v.unloadInvoked)
	_, ok := p.GetEntity("vacuum.a1")
	assert.False(t, ok)
}

// Tests rejected entities.
func TestAddEntitiesRejected(t *testing.T) {
	defer leaktest.Check(t)()

	p, _, _ := getPlatform()
	defer p.Unload()

	require.NoError(t, p.AddEntities([]device.IDevice{getFakeVacuum("vacuum.a1", 0)}, false))
	err := p.AddEntities([]device.IDevice{getFakeVacuum("vacuum.a1", 0)}, false)
	assert.IsType(t, &ErrDuplicateEntity{}, err)

	err = p.AddEntities([]device.IDevice{&fakeUnknown{}}, false)
	assert.IsType(t, &ErrUnknownDeviceType{}, err)
	assert.Len(t, p.GetEntities(), 1)
}

// Tests commands routing.
func TestInvokeCommand(t *testing.T) {
	defer leaktest.Check(t)()

	p, _, _ := getPlatform()
	v := getFakeVacuum("vacuum.a1", 0)
	require.NoError(t, p.AddEntities([]device.IDevice{v}, false))
	defer p.Unload()

	require.NoError(t, p.InvokeCommand("vacuum.a1", enums.CmdDock, nil))
	require.NoError(t, p.InvokeCommand("vacuum.a1", enums.CmdFindMe, nil))
	require.NoError(t, p.InvokeCommand("vacuum.a1", enums.CmdSetFanSpeed, map[string]interface{}{"value": "STRONG"}))
	assert.Equal(t, []string{"dock", "find-me", "set-fan-speed"}, v.commands)
	assert.Equal(t, "STRONG", v.speed)

	err := p.InvokeCommand("vacuum.a1", enums.CmdSetFanSpeed, map[string]interface{}{})
	assert.IsType(t, &ErrInvalidParams{}, err)

	err = p.InvokeCommand("vacuum.none", enums.CmdDock, nil)
	assert.IsType(t, &ErrEntityNotFound{}, err)

	v.cmdErr = errors.New("stuck")
	err = p.InvokeCommand("vacuum.a1", enums.CmdStart, nil)
	assert.EqualError(t, err, "stuck")
}

// Tests restricted specification.
func TestRestrictedSpec(t *testing.T) {
	defer leaktest.Check(t)()

	p, _, _ := getPlatform()
	v := getFakeVacuum("vacuum.a1", 0)
	v.spec.SupportedCommands = []enums.Command{enums.CmdDock}
	v.spec.SupportedProperties = []enums.Property{enums.PropBatteryLevel}
	require.NoError(t, p.AddEntities([]device.IDevice{v}, false))
	defer p.Unload()

	err := p.InvokeCommand("vacuum.a1", enums.CmdStart, nil)
	assert.IsType(t, &ErrUnsupportedCommand{}, err)

	s, _ := p.GetEntity("vacuum.a1")
	assert.Equal(t, map[string]interface{}{"battery_level": 80}, s.State)
	assert.Equal(t, []string{"dock"}, s.Commands)
}

// Tests updates pushed by the entity.
func TestPushedUpdates(t *testing.T) {
	defer leaktest.Check(t)()

	p, _, _ := getPlatform()
	v := getFakeVacuum("vacuum.a1", 0)
	require.NoError(t, p.AddEntities([]device.IDevice{v}, false))
	defer p.Unload()

	v.updates <- &device.StateUpdateData{State: &device.VacuumState{
		VacStatus:    enums.VacCleaning,
		BatteryLevel: 55,
		FanSpeed:     "NORMAL",
	}}

	require.Eventually(t, func() bool {
		s, _ := p.GetEntity("vacuum.a1")
		return s.State["battery_level"] == 55
	}, time.Second, 5*time.Millisecond)

	s, _ := p.GetEntity("vacuum.a1")
	assert.Equal(t, enums.VacCleaning, s.State["vac_status"])
	_, ok := s.State["fan_speed_list"]
	assert.False(t, ok, "empty values are skipped")
}

// Tests entities ordering.
func TestGetEntities(t *testing.T) {
	defer leaktest.Check(t)()

	p, _, _ := getPlatform()
	require.NoError(t, p.AddEntities([]device.IDevice{
		getFakeVacuum("vacuum.b", 0), getFakeVacuum("vacuum.a", 0)}, false))

	list := p.GetEntities()
	require.Len(t, list, 2)
	assert.Equal(t, "vacuum.a", list[0].ID)
	assert.Equal(t, "vacuum.b", list[1].ID)

	p.Unload()
	assert.Len(t, p.GetEntities(), 0)
}
