package registry

// ErrEntityNotFound defines missing entity registry record.
type ErrEntityNotFound struct {
	EntityID string
}

// Error formats output.
func (e *ErrEntityNotFound) Error() string {
	return "entity is not registered: " + e.EntityID
}
