package domain

import "errors"

// Domain errors represent error conditions in the pinchctl domain.
// These errors are returned by the public API and can be checked with errors.Is.
var (
	// ErrAlreadyRunning is returned when Start() is called on a running instance.
	ErrAlreadyRunning = errors.New("pinchctl: already running")

	// ErrNotRunning is returned when Stop() is called on a stopped instance.
	ErrNotRunning = errors.New("pinchctl: not running")

	// ErrFaulted is returned when Start() is called on a faulted loop that
	// has not been explicitly reset.
	ErrFaulted = errors.New("pinchctl: faulted, reset required")

	// ErrShutdownTimeout is returned when graceful shutdown times out.
	ErrShutdownTimeout = errors.New("pinchctl: shutdown timeout")

	// ErrInvalidConfig is returned when configuration validation fails.
	ErrInvalidConfig = errors.New("pinchctl: invalid configuration")

	// ErrNoSample is returned by a weight source when no new sample is
	// available since the previous read. It is not a failure: the loop
	// treats it as stale data and holds the last output.
	ErrNoSample = errors.New("pinchctl: no new weight sample")

	// ErrSensorFault is returned by a weight source on a hard failure
	// (not mere staleness). The loop latches into the faulted state.
	ErrSensorFault = errors.New("pinchctl: weight sensor fault")

	// ErrCommandRejected is returned by a valve actuator that refused a
	// command. The loop latches into the faulted state.
	ErrCommandRejected = errors.New("pinchctl: valve command rejected")
)
