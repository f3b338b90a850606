package registry

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/go-home-io/klyqa/plugins/common"
	"github.com/go-home-io/klyqa/providers"
	"github.com/go-home-io/klyqa/utils"
)

// Area registry implementation.
type areaRegistry struct {
	sync.RWMutex
	ctor    *ConstructRegistry
	entries map[string]*providers.AreaEntry
}

// NewAreaRegistry constructs area registry and loads stored records.
func NewAreaRegistry(ctor *ConstructRegistry) providers.IAreaRegistryProvider {
	r := &areaRegistry{
		ctor:    ctor,
		entries: make(map[string]*providers.AreaEntry),
	}

	restore(ctor, kindArea, func() interface{} { return &providers.AreaEntry{} }, func(v interface{}) {
		a := v.(*providers.AreaEntry)
		r.entries[a.ID] = a
	})

	return r
}

// Get returns area by ID.
func (r *areaRegistry) Get(areaID string) (*providers.AreaEntry, bool) {
	r.RLock()
	defer r.RUnlock()

	a, ok := r.entries[areaID]
	if !ok {
		return nil, false
	}

	c := *a
	return &c, true
}

// GetByName returns area by its name, case insensitive.
func (r *areaRegistry) GetByName(name string) (*providers.AreaEntry, bool) {
	r.RLock()
	defer r.RUnlock()

	a := r.find(name)
	if nil == a {
		return nil, false
	}

	c := *a
	return &c, true
}

// GetOrCreate returns existing area or registers a new one.
// Area ID is derived from the name.
func (r *areaRegistry) GetOrCreate(name string) *providers.AreaEntry {
	r.Lock()
	defer r.Unlock()

	if a := r.find(name); a != nil {
		c := *a
		return &c
	}

	id := utils.NormalizeDeviceName(name)
	base := id
	for ii := 2; ; ii++ {
		if _, ok := r.entries[id]; !ok {
			break
		}
		id = fmt.Sprintf("%s_%d", base, ii)
	}

	a := &providers.AreaEntry{
		ID:   id,
		Name: name,
	}

	r.entries[id] = a
	persist(r.ctor, kindArea, id, a)
	r.ctor.Logger.Debug("Registered a new area", common.LogSystemToken, logSystem, common.LogNameToken, name)

	c := *a
	return &c
}

// List returns all areas sorted by name.
func (r *areaRegistry) List() []*providers.AreaEntry {
	r.RLock()
	defer r.RUnlock()

	res := make([]*providers.AreaEntry, 0, len(r.entries))
	for _, v := range r.entries {
		c := *v
		res = append(res, &c)
	}

	sort.Slice(res, func(i, j int) bool { return res[i].Name < res[j].Name })
	return res
}

// Must be called under lock.
func (r *areaRegistry) find(name string) *providers.AreaEntry {
	for _, v := range r.entries {
		if strings.EqualFold(v.Name, name) {
			return v
		}
	}

	return nil
}
