package modem

import (
	"context"
	"io"
)

//go:generate go tool mockgen -source=transport.go -destination=mock_transport.go -package=modem

// Transport represents an established, bidirectional byte stream to a RIL
// client.
//
// A Transport is assumed to be already connected and ready for use. Request
// frames are read from it and response and notification frames are written
// to it. Typical implementations include serial lines, pseudo-terminals, or
// in-memory fakes used for testing.
type Transport interface {
	io.ReadWriteCloser
}

// Dialer opens a Transport to a RIL client.
//
// Dialer abstracts how the connection is created (for example, via a serial
// port or a test double) and is used by ServeDialer only. Once a Transport
// is obtained, the Dialer is no longer needed.
type Dialer interface {
	// Dial is responsible for creating and returning a connected Transport. It may
	// perform blocking operations and should respect cancellation and deadlines
	// provided by the context. Dial returns an error if the transport cannot be
	// established.
	Dial(ctx context.Context) (Transport, error)
}
