package registry

import (
	"fmt"
	"sort"
	"sync"

	"github.com/go-home-io/klyqa/plugins/common"
	"github.com/go-home-io/klyqa/plugins/helpers"
	"github.com/go-home-io/klyqa/providers"
	"github.com/go-home-io/klyqa/utils"
	"github.com/google/uuid"
)

// Entity registry implementation.
type entityRegistry struct {
	sync.RWMutex
	ctor    *ConstructRegistry
	entries map[string]*providers.EntityEntry
}

// NewEntityRegistry constructs entity registry and loads stored records.
func NewEntityRegistry(ctor *ConstructRegistry) providers.IEntityRegistryProvider {
	r := &entityRegistry{
		ctor:    ctor,
		entries: make(map[string]*providers.EntityEntry),
	}

	restore(ctor, kindEntity, func() interface{} { return &providers.EntityEntry{} }, func(v interface{}) {
		e := v.(*providers.EntityEntry)
		r.entries[e.EntityID] = e
	})

	return r
}

// GetEntityID resolves registered entity ID by its unique identity.
func (r *entityRegistry) GetEntityID(domain string, platform string, uniqueID string) (string, bool) {
	r.RLock()
	defer r.RUnlock()

	e := r.find(domain, platform, uniqueID)
	if nil == e {
		return "", false
	}

	return e.EntityID, true
}

// Get returns copy of the entity record.
func (r *entityRegistry) Get(entityID string) (*providers.EntityEntry, bool) {
	r.RLock()
	defer r.RUnlock()

	e, ok := r.entries[entityID]
	if !ok {
		return nil, false
	}

	c := *e
	return &c, true
}

// GetOrCreate returns existing record or registers a new one.
// If suggested entity ID is taken, numeric suffix is added.
func (r *entityRegistry) GetOrCreate(domain string, platform string, uniqueID string,
	suggestedObjectID string, configEntryID string) *providers.EntityEntry {
	r.Lock()
	defer r.Unlock()

	if e := r.find(domain, platform, uniqueID); e != nil {
		c := *e
		return &c
	}

	base := utils.EntityID(domain, suggestedObjectID)
	entityID := base
	for ii := 2; ; ii++ {
		if _, ok := r.entries[entityID]; !ok {
			break
		}
		entityID = fmt.Sprintf("%s_%d", base, ii)
	}

	e := &providers.EntityEntry{
		ID:            uuid.New().String(),
		EntityID:      entityID,
		Domain:        domain,
		Platform:      platform,
		UniqueID:      uniqueID,
		ConfigEntryID: configEntryID,
		Name:          helpers.GetNameFromID(entityID),
	}

	r.entries[entityID] = e
	persist(r.ctor, kindEntity, entityID, e)
	r.ctor.Logger.Debug("Registered a new entity", common.LogSystemToken, logSystem,
		common.LogEntityIDToken, entityID)

	c := *e
	return &c
}

// Remove deletes entity record.
func (r *entityRegistry) Remove(entityID string) error {
	r.Lock()
	defer r.Unlock()

	if _, ok := r.entries[entityID]; !ok {
		return &ErrEntityNotFound{EntityID: entityID}
	}

	delete(r.entries, entityID)
	forget(r.ctor, kindEntity, entityID)
	r.ctor.Logger.Debug("Removed entity", common.LogSystemToken, logSystem,
		common.LogEntityIDToken, entityID)
	return nil
}

// SetDevice binds entity to device registry record.
func (r *entityRegistry) SetDevice(entityID string, deviceID string) error {
	return r.update(entityID, func(e *providers.EntityEntry) {
		e.DeviceID = deviceID
	})
}

// SetArea binds entity to area registry record.
func (r *entityRegistry) SetArea(entityID string, areaID string) error {
	return r.update(entityID, func(e *providers.EntityEntry) {
		e.AreaID = areaID
	})
}

// List returns all records sorted by entity ID.
func (r *entityRegistry) List() []*providers.EntityEntry {
	r.RLock()
	defer r.RUnlock()

	res := make([]*providers.EntityEntry, 0, len(r.entries))
	for _, v := range r.entries {
		c := *v
		res = append(res, &c)
	}

	sort.Slice(res, func(i, j int) bool { return res[i].EntityID < res[j].EntityID })
	return res
}

// Applies update and persists the record.
func (r *entityRegistry) update(entityID string, fn func(*providers.EntityEntry)) error {
	r.Lock()
	defer r.Unlock()

	e, ok := r.entries[entityID]
	if !ok {
		return &ErrEntityNotFound{EntityID: entityID}
	}

	fn(e)
	persist(r.ctor, kindEntity, entityID, e)
	return nil
}

// Looks up record by unique identity. Must be called under lock.
func (r *entityRegistry) find(domain string, platform string, uniqueID string) *providers.EntityEntry {
	for _, v := range r.entries {
		if v.Domain == domain && v.Platform == platform && v.UniqueID == uniqueID {
			return v
		}
	}

	return nil
}
