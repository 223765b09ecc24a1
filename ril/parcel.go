package ril

import (
	"encoding/binary"
	"unicode/utf16"
)

// HeaderSize is the number of body bytes taken by the opcode and serial
// fields of a request frame.
const HeaderSize = 8

// Reader decodes parcel fields left to right. Every read advances the
// cursor. Reads past the end of the buffer never panic: they return zero
// values and mark the reader as short, leaving it to the caller to resync.
type Reader struct {
	buf   []byte
	off   int
	short bool
}

// NewReader returns a Reader positioned at the start of buf.
func NewReader(buf []byte) *Reader {
	return &Reader{buf: buf}
}

// Remaining reports how many bytes are left after the cursor.
func (r *Reader) Remaining() int {
	return len(r.buf) - r.off
}

// Consumed reports how many bytes have been read so far.
func (r *Reader) Consumed() int {
	return r.off
}

// Short reports whether any read ran past the end of the buffer.
func (r *Reader) Short() bool {
	return r.short
}

// Skip discards up to n bytes.
func (r *Reader) Skip(n int) {
	if n <= 0 {
		return
	}
	if n > r.Remaining() {
		r.short = true
		n = r.Remaining()
	}
	r.off += n
}

// Next returns the next n bytes and advances past them.
func (r *Reader) Next(n int) []byte {
	if n < 0 {
		n = 0
	}
	if n > r.Remaining() {
		r.short = true
		n = r.Remaining()
	}
	b := r.buf[r.off : r.off+n]
	r.off += n
	return b
}

func (r *Reader) take(n int) []byte {
	if r.Remaining() < n {
		r.short = true
		r.off = len(r.buf)
		return nil
	}
	b := r.buf[r.off : r.off+n]
	r.off += n
	return b
}

// ReadInt32BE reads a big-endian 32-bit integer (the frame length field).
func (r *Reader) ReadInt32BE() int32 {
	b := r.take(4)
	if b == nil {
		return 0
	}
	return int32(binary.BigEndian.Uint32(b))
}

// ReadInt32 reads a little-endian 32-bit integer.
func (r *Reader) ReadInt32() int32 {
	b := r.take(4)
	if b == nil {
		return 0
	}
	return int32(binary.LittleEndian.Uint32(b))
}

// ReadUint16 reads a little-endian 16-bit code unit.
func (r *Reader) ReadUint16() uint16 {
	b := r.take(2)
	if b == nil {
		return 0
	}
	return binary.LittleEndian.Uint16(b)
}

// ReadString reads a length-prefixed UTF-16 string and its delimiter.
// It returns ok == false for a null string: a negative length, or a length
// whose code units cannot fit in what is left of the buffer. In that case
// only the length field has been consumed.
func (r *Reader) ReadString() (string, bool) {
	n := r.ReadInt32()
	if n < 0 || int64(n)*2 > int64(r.Remaining()) {
		return "", false
	}
	units := make([]uint16, n)
	for i := range units {
		units[i] = r.ReadUint16()
	}
	r.readStringDelimiter(int(n))
	return string(utf16.Decode(units)), true
}

func (r *Reader) readStringDelimiter(n int) {
	r.ReadUint16()
	if n&1 == 0 {
		r.ReadUint16()
	}
}

// Writer accumulates parcel fields. Finalize prepends the frame length.
type Writer struct {
	buf []byte
}

// NewWriter returns an empty Writer.
func NewWriter() *Writer {
	return &Writer{}
}

// NewSolicited starts a response frame correlated to serial.
func NewSolicited(serial int32, code Error) *Writer {
	w := NewWriter()
	w.WriteInt32(ResponseSolicited, serial, int32(code))
	return w
}

// NewUnsolicited starts a notification frame of the given type.
func NewUnsolicited(kind Unsolicited) *Writer {
	w := NewWriter()
	w.WriteInt32(ResponseUnsolicited, int32(kind))
	return w
}

// WriteInt32 appends each value as a little-endian 32-bit integer.
func (w *Writer) WriteInt32(values ...int32) {
	for _, v := range values {
		w.buf = binary.LittleEndian.AppendUint32(w.buf, uint32(v))
	}
}

// WriteInt32List appends the values without a count prefix.
func (w *Writer) WriteInt32List(values []int32) {
	w.WriteInt32(values...)
}

// WriteUint16 appends each value as a little-endian 16-bit code unit.
func (w *Writer) WriteUint16(values ...uint16) {
	for _, v := range values {
		w.buf = binary.LittleEndian.AppendUint16(w.buf, v)
	}
}

// WriteString appends s as UTF-16 code units framed by a length and a
// zero delimiter, which is two units wide when the length is even.
func (w *Writer) WriteString(s string) {
	units := utf16.Encode([]rune(s))
	w.WriteInt32(int32(len(units)))
	w.WriteUint16(units...)
	w.WriteUint16(0)
	if len(units)&1 == 0 {
		w.WriteUint16(0)
	}
}

// WriteStringList appends a count followed by each string.
func (w *Writer) WriteStringList(values []string) {
	w.WriteInt32(int32(len(values)))
	for _, s := range values {
		w.WriteString(s)
	}
}

// Len reports the number of content bytes written so far.
func (w *Writer) Len() int {
	return len(w.buf)
}

// Bytes returns the content written so far, without the length prefix.
func (w *Writer) Bytes() []byte {
	return w.buf
}

// Finalize returns the complete frame: a big-endian length covering the
// content, followed by the content.
func (w *Writer) Finalize() []byte {
	frame := make([]byte, 4, 4+len(w.buf))
	binary.BigEndian.PutUint32(frame, uint32(len(w.buf)))
	return append(frame, w.buf...)
}

// EncodeRequest builds a complete request frame for opcode and serial with
// the given body. It is the client side of the framing and is used by tools
// and tests that talk to the simulator.
func EncodeRequest(opcode Request, serial int32, body []byte) []byte {
	w := NewWriter()
	w.WriteInt32(int32(opcode), serial)
	w.buf = append(w.buf, body...)
	return w.Finalize()
}
