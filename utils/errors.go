package utils

// ErrInvalidConfig defines wrong configuration error.
type ErrInvalidConfig struct {
}

// Error formats output.
func (*ErrInvalidConfig) Error() string {
	return "config validation error"
}

// ErrSchedulerStopped defines job added after scheduler shutdown.
type ErrSchedulerStopped struct {
}

// Error formats output.
func (*ErrSchedulerStopped) Error() string {
	return "scheduler is stopped"
}
