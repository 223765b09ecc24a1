package ril_test

import (
	"bytes"
	"errors"
	"slices"
	"testing"

	"i4.energy/across/fakeril/ril"
)

func TestSplitter(t *testing.T) {
	imei := ril.EncodeRequest(ril.RequestGetIMEI, 1, nil)
	dial := func() []byte {
		w := ril.NewWriter()
		w.WriteString("+33612345678")
		return ril.EncodeRequest(ril.RequestDial, 2, w.Bytes())
	}()

	tests := []struct {
		name     string
		input    []byte
		expected [][]byte
	}{
		{
			name:     "Single frame",
			input:    imei,
			expected: [][]byte{imei},
		},
		{
			name:     "Back to back frames",
			input:    slices.Concat(imei, dial, imei),
			expected: [][]byte{imei, dial, imei},
		},
		{
			name:     "Trailing partial frame at EOF",
			input:    slices.Concat(dial, imei[:7]),
			expected: [][]byte{dial},
		},
		{
			name:     "Partial length prefix at EOF",
			input:    slices.Concat(imei, []byte{0, 0}),
			expected: [][]byte{imei},
		},
		{
			name:     "Empty input",
			input:    nil,
			expected: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var frames [][]byte
			scanner := ril.NewScanner(bytes.NewReader(tt.input))

			for scanner.Scan() {
				frames = append(frames, slices.Clone(scanner.Bytes()))
			}

			if err := scanner.Err(); err != nil {
				t.Fatalf("Scanner error: %v", err)
			}

			if len(frames) != len(tt.expected) {
				t.Fatalf("Expected %d frames, got %d", len(tt.expected), len(frames))
			}

			for i, expected := range tt.expected {
				if !bytes.Equal(frames[i], expected) {
					t.Errorf("Frame %d: expected %x, got %x", i, expected, frames[i])
				}
			}
		})
	}
}

func TestSplitterIncomplete(t *testing.T) {
	imei := ril.EncodeRequest(ril.RequestGetIMEI, 1, nil)

	advance, token, err := ril.Splitter(imei[:10], false)
	if err != nil || advance != 0 || token != nil {
		t.Errorf("expected request for more data, got advance=%d token=%x err=%v", advance, token, err)
	}
}

func TestSplitterFrameTooLarge(t *testing.T) {
	_, _, err := ril.Splitter([]byte{0x7f, 0, 0, 0, 1, 2, 3, 4}, false)
	if !errors.Is(err, ril.ErrFrameTooLarge) {
		t.Errorf("expected ErrFrameTooLarge, got: %v", err)
	}
}
