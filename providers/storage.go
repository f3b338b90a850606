package providers

// IStorageProvider defines registries persistence.
// Records are grouped by kind and keyed by ID.
type IStorageProvider interface {
	Save(kind string, id string, data []byte) error
	Delete(kind string, id string) error
	Load(kind string) (map[string][]byte, error)
	Close() error
}
