package registry

import (
	"sort"
	"sync"

	"github.com/go-home-io/klyqa/plugins/common"
	"github.com/go-home-io/klyqa/plugins/helpers"
	"github.com/go-home-io/klyqa/providers"
	"github.com/google/uuid"
)

// Device registry implementation.
type deviceRegistry struct {
	sync.RWMutex
	ctor    *ConstructRegistry
	areas   providers.IAreaRegistryProvider
	entries map[string]*providers.DeviceEntry
}

// NewDeviceRegistry constructs device registry and loads stored records.
// Area registry is used for resolving suggested areas of the new devices.
func NewDeviceRegistry(ctor *ConstructRegistry, areas providers.IAreaRegistryProvider) providers.IDeviceRegistryProvider {
	r := &deviceRegistry{
		ctor:    ctor,
		areas:   areas,
		entries: make(map[string]*providers.DeviceEntry),
	}

	restore(ctor, kindDevice, func() interface{} { return &providers.DeviceEntry{} }, func(v interface{}) {
		d := v.(*providers.DeviceEntry)
		r.entries[d.ID] = d
	})

	return r
}

// GetDevice looks up device by one of its identifiers.
func (r *deviceRegistry) GetDevice(identifier [2]string) (*providers.DeviceEntry, bool) {
	r.RLock()
	defer r.RUnlock()

	d := r.find(identifier)
	if nil == d {
		return nil, false
	}

	return copyDevice(d), true
}

// GetOrCreate updates existing device matching any of the identifiers or creates a new one.
func (r *deviceRegistry) GetOrCreate(configEntryID string, info *providers.DeviceInfo) *providers.DeviceEntry {
	r.Lock()
	defer r.Unlock()

	var d *providers.DeviceEntry
	for _, v := range info.Identifiers {
		if d = r.find(v); d != nil {
			break
		}
	}

	if nil == d {
		d = &providers.DeviceEntry{
			ID:            uuid.New().String(),
			ConfigEntries: make([]string, 0),
		}
		if info.SuggestedArea != "" && r.areas != nil {
			d.AreaID = r.areas.GetOrCreate(info.SuggestedArea).ID
		}
		r.entries[d.ID] = d
		r.ctor.Logger.Debug("Registered a new device", common.LogSystemToken, logSystem,
			common.LogDeviceNameToken, info.Name)
	}

	d.DeviceInfo = *info
	d.Identifiers = append([][2]string{}, info.Identifiers...)
	if configEntryID != "" && !helpers.SliceContainsString(d.ConfigEntries, configEntryID) {
		d.ConfigEntries = append(d.ConfigEntries, configEntryID)
	}

	persist(r.ctor, kindDevice, d.ID, d)
	return copyDevice(d)
}

// List returns all devices sorted by name.
func (r *deviceRegistry) List() []*providers.DeviceEntry {
	r.RLock()
	defer r.RUnlock()

	res := make([]*providers.DeviceEntry, 0, len(r.entries))
	for _, v := range r.entries {
		res = append(res, copyDevice(v))
	}

	sort.Slice(res, func(i, j int) bool { return res[i].Name < res[j].Name })
	return res
}

// Must be called under lock.
func (r *deviceRegistry) find(identifier [2]string) *providers.DeviceEntry {
	for _, d := range r.entries {
		for _, v := range d.Identifiers {
			if v == identifier {
				return d
			}
		}
	}

	return nil
}

func copyDevice(d *providers.DeviceEntry) *providers.DeviceEntry {
	c := *d
	c.Identifiers = append([][2]string{}, d.Identifiers...)
	c.ConfigEntries = append([]string{}, d.ConfigEntries...)
	return &c
}
