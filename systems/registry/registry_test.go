package registry

import (
	"testing"

	"github.com/go-home-io/klyqa/mocks"
	"github.com/go-home-io/klyqa/providers"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func getCtor(storage providers.IStorageProvider) *ConstructRegistry {
	return &ConstructRegistry{
		Logger:  mocks.FakeNewLogger(nil),
		Storage: storage,
	}
}

// Tests entity identities resolution.
func TestEntityRegistry(t *testing.T) {
	r := NewEntityRegistry(getCtor(mocks.FakeNewStorage(nil)))

	_, ok := r.GetEntityID("vacuum", "klyqa", "a1b2")
	assert.False(t, ok)

	e := r.GetOrCreate("vacuum", "klyqa", "a1b2", "a1b2", "entry")
	assert.Equal(t, "vacuum.a1b2", e.EntityID)
	assert.NotEmpty(t, e.ID)

	again := r.GetOrCreate("vacuum", "klyqa", "a1b2", "other", "entry")
	assert.Equal(t, e.ID, again.ID, "same unique ID must resolve to the same record")

	clash := r.GetOrCreate("vacuum", "other_platform", "a1b2", "a1b2", "")
	assert.Equal(t, "vacuum.a1b2_2", clash.EntityID)
	assert.Equal(t, "a1b2 2", clash.Name)

	id, ok := r.GetEntityID("vacuum", "klyqa", "a1b2")
	assert.True(t, ok)
	assert.Equal(t, "vacuum.a1b2", id)

	require.NoError(t, r.SetArea("vacuum.a1b2", "kitchen"))
	require.NoError(t, r.SetDevice("vacuum.a1b2", "dev"))
	got, ok := r.Get("vacuum.a1b2")
	require.True(t, ok)
	assert.Equal(t, "kitchen", got.AreaID)
	assert.Equal(t, "dev", got.DeviceID)

	assert.Len(t, r.List(), 2)

	require.NoError(t, r.Remove("vacuum.a1b2"))
	assert.IsType(t, &ErrEntityNotFound{}, r.Remove("vacuum.a1b2"))
	assert.IsType(t, &ErrEntityNotFound{}, r.SetArea("vacuum.a1b2", "x"))
	_, ok = r.GetEntityID("vacuum", "klyqa", "a1b2")
	assert.False(t, ok)
}

// Tests that returned records are copies.
func TestEntityRegistryCopies(t *testing.T) {
	r := NewEntityRegistry(getCtor(mocks.FakeNewStorage(nil)))
	e := r.GetOrCreate("vacuum", "klyqa", "a1b2", "a1b2", "")
	e.AreaID = "changed"

	got, _ := r.Get("vacuum.a1b2")
	assert.Empty(t, got.AreaID)
}

// Tests that registries survive restart.
func TestRegistriesPersistence(t *testing.T) {
	s := mocks.FakeNewStorage(nil)
	ctor := getCtor(s)

	areas := NewAreaRegistry(ctor)
	kitchen := areas.GetOrCreate("Kitchen")
	entities := NewEntityRegistry(ctor)
	entities.GetOrCreate("vacuum", "klyqa", "a1b2", "a1b2", "")
	require.NoError(t, entities.SetArea("vacuum.a1b2", kitchen.ID))
	devices := NewDeviceRegistry(ctor, areas)
	devices.GetOrCreate("entry", &providers.DeviceInfo{
		Identifiers: [][2]string{{"klyqa", "a1b2"}},
		Name:        "Bot",
	})

	areas = NewAreaRegistry(ctor)
	entities = NewEntityRegistry(ctor)
	devices = NewDeviceRegistry(ctor, areas)

	a, ok := areas.GetByName("kitchen")
	require.True(t, ok)
	assert.Equal(t, kitchen.ID, a.ID)

	e, ok := entities.Get("vacuum.a1b2")
	require.True(t, ok)
	assert.Equal(t, kitchen.ID, e.AreaID)

	d, ok := devices.GetDevice([2]string{"klyqa", "a1b2"})
	require.True(t, ok)
	assert.Equal(t, "Bot", d.Name)
	assert.Equal(t, []string{"entry"}, d.ConfigEntries)
}

// Tests devices registration and update.
func TestDeviceRegistry(t *testing.T) {
	ctor := getCtor(mocks.FakeNewStorage(nil))
	areas := NewAreaRegistry(ctor)
	r := NewDeviceRegistry(ctor, areas)

	info := &providers.DeviceInfo{
		Identifiers:   [][2]string{{"klyqa", "a1b2"}},
		Name:          "Bot",
		Manufacturer:  "QConnex GmbH",
		Model:         "@klyqa.cleaner.g1",
		SwVersion:     "1.0",
		SuggestedArea: "Hall",
	}

	d := r.GetOrCreate("entry1", info)
	assert.Equal(t, "Bot", d.Name)
	assert.Equal(t, "hall", d.AreaID)

	info.SwVersion = "1.1"
	r.GetOrCreate("entry2", info)
	d2 := r.GetOrCreate("entry2", info)
	assert.Equal(t, d.ID, d2.ID)
	assert.Equal(t, "1.1", d2.SwVersion)
	assert.Equal(t, []string{"entry1", "entry2"}, d2.ConfigEntries)
	assert.Len(t, r.List(), 1)

	_, ok := r.GetDevice([2]string{"klyqa", "missing"})
	assert.False(t, ok)
}

// Tests areas registration.
func TestAreaRegistry(t *testing.T) {
	r := NewAreaRegistry(getCtor(mocks.FakeNewStorage(nil)))

	a := r.GetOrCreate("Living Room")
	assert.Equal(t, "living_room", a.ID)
	assert.Equal(t, a.ID, r.GetOrCreate("living room").ID)

	b := r.GetOrCreate("living-room")
	assert.Equal(t, "living_room_2", b.ID)

	got, ok := r.Get("living_room")
	require.True(t, ok)
	assert.Equal(t, "Living Room", got.Name)

	_, ok = r.GetByName("garage")
	assert.False(t, ok)
	assert.Len(t, r.List(), 2)
}

// Tests that storage failures don't break registries.
func TestStorageFailures(t *testing.T) {
	logged := 0
	ctor := &ConstructRegistry{
		Logger: mocks.FakeNewLogger(func(string) {
			logged++
		}),
		Storage: mocks.FakeNewStorage(errors.New("disk is gone")),
	}

	r := NewAreaRegistry(ctor)
	a := r.GetOrCreate("Kitchen")
	assert.Equal(t, "kitchen", a.ID)
	assert.True(t, logged > 0)
}
