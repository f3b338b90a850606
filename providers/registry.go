package providers

// EntityEntry describes entity registry record.
type EntityEntry struct {
	ID            string `json:"id"`
	EntityID      string `json:"entity_id"`
	Domain        string `json:"domain"`
	Platform      string `json:"platform"`
	UniqueID      string `json:"unique_id"`
	ConfigEntryID string `json:"config_entry_id"`
	DeviceID      string `json:"device_id"`
	AreaID        string `json:"area_id"`
	Name          string `json:"name"`
}

// DeviceInfo describes device metadata reported by the integration.
type DeviceInfo struct {
	Identifiers      [][2]string `json:"identifiers"`
	Name             string      `json:"name"`
	Manufacturer     string      `json:"manufacturer"`
	Model            string      `json:"model"`
	SwVersion        string      `json:"sw_version"`
	HwVersion        string      `json:"hw_version"`
	ConfigurationURL string      `json:"configuration_url"`
	SuggestedArea    string      `json:"suggested_area"`
}

// DeviceEntry describes device registry record.
type DeviceEntry struct {
	DeviceInfo

	ID            string   `json:"id"`
	ConfigEntries []string `json:"config_entries"`
	AreaID        string   `json:"area_id"`
}

// AreaEntry describes area registry record.
type AreaEntry struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// IEntityRegistryProvider defines entity identities registry.
type IEntityRegistryProvider interface {
	GetEntityID(domain string, platform string, uniqueID string) (string, bool)
	Get(entityID string) (*EntityEntry, bool)
	GetOrCreate(domain string, platform string, uniqueID string, suggestedObjectID string,
		configEntryID string) *EntityEntry
	Remove(entityID string) error
	SetDevice(entityID string, deviceID string) error
	SetArea(entityID string, areaID string) error
	List() []*EntityEntry
}

// IDeviceRegistryProvider defines devices registry.
type IDeviceRegistryProvider interface {
	GetDevice(identifier [2]string) (*DeviceEntry, bool)
	GetOrCreate(configEntryID string, info *DeviceInfo) *DeviceEntry
	List() []*DeviceEntry
}

// IAreaRegistryProvider defines areas registry.
type IAreaRegistryProvider interface {
	Get(areaID string) (*AreaEntry, bool)
	GetByName(name string) (*AreaEntry, bool)
	GetOrCreate(name string) *AreaEntry
	List() []*AreaEntry
}
