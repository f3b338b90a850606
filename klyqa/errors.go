package klyqa

import "fmt"

// ErrInvalidCommand defines command rejected by the grammar.
type ErrInvalidCommand struct {
	Reason string
}

// Error formats output.
func (e *ErrInvalidCommand) Error() string {
	return "invalid command: " + e.Reason
}

// ErrCloudNotSupported defines request which can't be delivered locally.
type ErrCloudNotSupported struct {
}

// Error formats output.
func (*ErrCloudNotSupported) Error() string {
	return "only local requests are supported"
}

// ErrCloudResponse defines unexpected cloud response.
type ErrCloudResponse struct {
	Status int
}

// Error formats output.
func (e *ErrCloudResponse) Error() string {
	return fmt.Sprintf("unexpected cloud response: %d", e.Status)
}

// ErrShutdown defines request sent to the stopped account.
type ErrShutdown struct {
}

// Error formats output.
func (*ErrShutdown) Error() string {
	return "account is shut down"
}
