// Package relay drives the fan relay output with hardware abstraction.
// The real implementation uses the Linux GPIO character device.
// The fake implementation allows testing without hardware.
package relay

// Driver switches the fan relay.
type Driver interface {
	// Set energizes (true) or releases (false) the relay.
	Set(on bool) error

	// Close releases the relay and its GPIO resources.
	Close() error
}

// DefaultPin is the BCM pin number wired to the fan relay module.
const DefaultPin = 18
