package modem

import (
	"errors"

	"i4.energy/across/fakeril/device"
)

var (
	// ErrNoDialer is returned by ServeDialer when the Config carries no
	// Dialer.
	ErrNoDialer = errors.New("no dialer configured")

	// ErrAlreadyClosed is returned when Close is called on a Modem that has
	// already been closed, and by operations attempted after Close.
	ErrAlreadyClosed = errors.New("modem already closed")

	// ErrLoopRunning is returned when Loop is called while another Loop is
	// still running on the same Modem.
	ErrLoopRunning = errors.New("modem loop already running")

	// ErrNotRunning is returned by operations that need the event loop when
	// Loop has not been started.
	ErrNotRunning = errors.New("modem loop not running")

	// ErrUnknownCommand is returned by PostCommand for a command the
	// simulator does not implement.
	ErrUnknownCommand = errors.New("unknown command")

	// ErrInvalidProfile is returned by Build for a device profile that
	// cannot be simulated.
	ErrInvalidProfile = device.ErrInvalidProfile
)
