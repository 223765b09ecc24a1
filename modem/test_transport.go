package modem

import (
	"io"
	"sync"
)

// TestTransport is a test helper that simulates a blocking transport using channels.
// This is needed because Serve's reader goroutine continuously reads from the transport,
// and we need reads to block until data is available (like a real serial line would).
type TestTransport struct {
	mu       sync.Mutex
	readChan chan []byte
	written  chan []byte
	closed   bool
}

// NewTestTransport creates a new test transport for testing.
// Exported for use in tests.
func NewTestTransport() *TestTransport {
	return &TestTransport{
		readChan: make(chan []byte, 10),
		written:  make(chan []byte, 64),
	}
}

// Write records p. Frames beyond the buffer of Written are discarded.
func (t *TestTransport) Write(p []byte) (n int, err error) {
	select {
	case t.written <- append([]byte(nil), p...):
	default:
	}
	return len(p), nil
}

func (t *TestTransport) Read(p []byte) (n int, err error) {
	data, ok := <-t.readChan
	if !ok {
		return 0, io.EOF
	}
	return copy(p, data), nil
}

func (t *TestTransport) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return nil
	}
	t.closed = true
	close(t.readChan)
	return nil
}

// SendData queues data to be read by the transport.
// This simulates receiving request frames from the client.
func (t *TestTransport) SendData(data []byte) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.closed {
		t.readChan <- data
	}
}

// Written returns the frames written by the modem, one per Write call.
func (t *TestTransport) Written() <-chan []byte {
	return t.written
}
