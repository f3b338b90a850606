package device

// ErrUnknownDeviceType defines an unknown device type error.
type ErrUnknownDeviceType struct {
}

// Error formats output.
func (e *ErrUnknownDeviceType) Error() string {
	return "unknown device type"
}

// ErrNoDataFromPlugin defines an empty response from plugin error.
type ErrNoDataFromPlugin struct {
}

// Error formats output.
func (*ErrNoDataFromPlugin) Error() string {
	return "plugin didn't return any data"
}

// ErrUnsupportedCommand defines command which device doesn't support.
type ErrUnsupportedCommand struct {
	Command string
}

// Error formats output.
func (e *ErrUnsupportedCommand) Error() string {
	return "command " + e.Command + " is not supported"
}

// ErrInvalidParams defines incorrect command params.
type ErrInvalidParams struct {
	Command string
}

// Error formats output.
func (e *ErrInvalidParams) Error() string {
	return "incorrect params for command " + e.Command
}

// ErrEntityNotFound defines unknown entity.
type ErrEntityNotFound struct {
	ID string
}

// Error formats output.
func (e *ErrEntityNotFound) Error() string {
	return "entity " + e.ID + " is not found"
}

// ErrDuplicateEntity defines entity which was already added.
type ErrDuplicateEntity struct {
	ID string
}

// Error formats output.
func (e *ErrDuplicateEntity) Error() string {
	return "entity " + e.ID + " is already added"
}
