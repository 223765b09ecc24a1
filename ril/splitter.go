package ril

import (
	"bufio"
	"encoding/binary"
	"errors"
	"io"
)

// MaxFrameSize bounds the declared length of a single frame.
const MaxFrameSize = 64 * 1024

// ErrFrameTooLarge is returned by Splitter when a frame declares a length
// above MaxFrameSize. This typically means the stream lost framing.
var ErrFrameTooLarge = errors.New("ril: frame too large")

// Splitter cuts a byte stream into whole frames. It uses the signature of
// bufio.SplitFunc so it can be directly used with bufio.Scanner. Each token
// is a complete frame including its 4-byte big-endian length prefix, ready
// to be handed to the dispatcher.
//
// A trailing partial frame at EOF is dropped: the framing format has no way
// to complete it.
func Splitter(data []byte, atEOF bool) (advance int, token []byte, err error) {
	if len(data) < 4 {
		if atEOF && len(data) > 0 {
			return len(data), nil, nil
		}
		return 0, nil, nil
	}

	n := binary.BigEndian.Uint32(data)
	if n > MaxFrameSize {
		return 0, nil, ErrFrameTooLarge
	}

	size := 4 + int(n)
	if len(data) >= size {
		return size, data[:size], nil
	}

	if atEOF {
		return len(data), nil, nil
	}
	return 0, nil, nil
}

var _ bufio.SplitFunc = Splitter

// NewScanner returns a bufio.Scanner that yields whole frames.
func NewScanner(r io.Reader) *bufio.Scanner {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 4096), 4+MaxFrameSize)
	scanner.Split(Splitter)
	return scanner
}
