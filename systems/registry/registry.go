// Package registry contains entity, device and area registries.
package registry

import (
	"encoding/json"

	"github.com/go-home-io/klyqa/plugins/common"
	"github.com/go-home-io/klyqa/providers"
)

const (
	// Logs representation.
	logSystem = "registry"

	kindEntity = "entity"
	kindDevice = "device"
	kindArea   = "area"
)

// ConstructRegistry has data required for a new registry.
type ConstructRegistry struct {
	Logger  common.ILoggerProvider
	Storage providers.IStorageProvider
}

// Persists a single record, logging failures.
func persist(ctor *ConstructRegistry, kind string, id string, v interface{}) {
	data, err := json.Marshal(v)
	if err != nil {
		ctor.Logger.Error("Failed to marshal registry record", err, common.LogSystemToken, logSystem)
		return
	}

	if err := ctor.Storage.Save(kind, id, data); err != nil {
		ctor.Logger.Error("Failed to save registry record", err, common.LogSystemToken, logSystem)
	}
}

// Removes a single record, logging failures.
func forget(ctor *ConstructRegistry, kind string, id string) {
	if err := ctor.Storage.Delete(kind, id); err != nil {
		ctor.Logger.Error("Failed to delete registry record", err, common.LogSystemToken, logSystem)
	}
}

// Loads all records of the kind, calling fn for every decoded one.
func restore(ctor *ConstructRegistry, kind string, newRecord func() interface{}, fn func(interface{})) {
	data, err := ctor.Storage.Load(kind)
	if err != nil {
		ctor.Logger.Error("Failed to load registry records", err, common.LogSystemToken, logSystem)
		return
	}

	for _, v := range data {
		r := newRecord()
		if err := json.Unmarshal(v, r); err != nil {
			ctor.Logger.Warn("Skipping corrupted registry record", common.LogSystemToken, logSystem)
			continue
		}
		fn(r)
	}
}
