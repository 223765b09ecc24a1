package ril_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"i4.energy/across/fakeril/ril"
)

func TestInt32RoundTrip(t *testing.T) {
	values := []int32{0, 1, -1, 1034, 0x7fffffff, -0x80000000}

	w := ril.NewWriter()
	w.WriteInt32(values...)
	require.Equal(t, 4*len(values), w.Len())

	r := ril.NewReader(w.Bytes())
	for _, want := range values {
		assert.Equal(t, want, r.ReadInt32())
	}
	assert.Zero(t, r.Remaining())
	assert.False(t, r.Short())
}

func TestInt32IsLittleEndian(t *testing.T) {
	w := ril.NewWriter()
	w.WriteInt32(0x01020304)
	assert.Equal(t, []byte{0x04, 0x03, 0x02, 0x01}, w.Bytes())
}

func TestStringEncoding(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []byte
	}{
		{
			name:  "odd length uses one delimiter unit",
			input: "abc",
			want: []byte{
				3, 0, 0, 0,
				'a', 0, 'b', 0, 'c', 0,
				0, 0,
			},
		},
		{
			name:  "even length uses two delimiter units",
			input: "ab",
			want: []byte{
				2, 0, 0, 0,
				'a', 0, 'b', 0,
				0, 0, 0, 0,
			},
		},
		{
			name:  "empty string is even",
			input: "",
			want: []byte{
				0, 0, 0, 0,
				0, 0, 0, 0,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := ril.NewWriter()
			w.WriteString(tt.input)
			assert.Equal(t, tt.want, w.Bytes())

			r := ril.NewReader(w.Bytes())
			got, ok := r.ReadString()
			require.True(t, ok)
			assert.Equal(t, tt.input, got)
			assert.Zero(t, r.Remaining(), "delimiter must be fully consumed")
		})
	}
}

func TestStringRoundTrip(t *testing.T) {
	inputs := []string{
		"49015420323751",
		"+33123456789",
		"sim:aa:0",
		"MozillaCorpMobile0",
		"héllo",
		"\U0001F4F1 call",
	}

	w := ril.NewWriter()
	for _, s := range inputs {
		w.WriteString(s)
	}
	w.WriteInt32(42)

	r := ril.NewReader(w.Bytes())
	for _, want := range inputs {
		got, ok := r.ReadString()
		require.True(t, ok)
		assert.Equal(t, want, got)
	}
	assert.Equal(t, int32(42), r.ReadInt32(), "trailing field must line up after strings")
}

func TestStringList(t *testing.T) {
	w := ril.NewWriter()
	w.WriteStringList([]string{"MozillaCorpMobile0", "MoCo0", "20801"})

	r := ril.NewReader(w.Bytes())
	require.Equal(t, int32(3), r.ReadInt32())
	for _, want := range []string{"MozillaCorpMobile0", "MoCo0", "20801"} {
		got, ok := r.ReadString()
		require.True(t, ok)
		assert.Equal(t, want, got)
	}
}

func TestReadStringNull(t *testing.T) {
	t.Run("negative length", func(t *testing.T) {
		w := ril.NewWriter()
		w.WriteInt32(-1, 7)

		r := ril.NewReader(w.Bytes())
		_, ok := r.ReadString()
		assert.False(t, ok)
		assert.Equal(t, int32(7), r.ReadInt32(), "only the length field is consumed")
	})

	t.Run("length beyond buffer", func(t *testing.T) {
		w := ril.NewWriter()
		w.WriteInt32(1000)
		w.WriteUint16('a', 'b')

		r := ril.NewReader(w.Bytes())
		_, ok := r.ReadString()
		assert.False(t, ok)
		assert.Equal(t, 4, r.Remaining())
	})
}

func TestShortReads(t *testing.T) {
	r := ril.NewReader([]byte{1, 2})

	assert.Zero(t, r.ReadInt32())
	assert.True(t, r.Short())
	assert.Zero(t, r.Remaining())
	assert.Zero(t, r.ReadUint16())
}

func TestFinalize(t *testing.T) {
	w := ril.NewSolicited(7, ril.GenericFailure)
	w.WriteInt32(1, 2)

	frame := w.Finalize()
	require.Len(t, frame, 4+20)

	r := ril.NewReader(frame)
	assert.Equal(t, int32(20), r.ReadInt32BE())
	assert.Equal(t, ril.ResponseSolicited, r.ReadInt32())
	assert.Equal(t, int32(7), r.ReadInt32())
	assert.Equal(t, int32(ril.GenericFailure), r.ReadInt32())
	assert.Equal(t, int32(1), r.ReadInt32())
	assert.Equal(t, int32(2), r.ReadInt32())
}

func TestUnsolicitedHeader(t *testing.T) {
	frame := ril.NewUnsolicited(ril.UnsolCallRing).Finalize()

	assert.Equal(t, []byte{
		0, 0, 0, 8,
		1, 0, 0, 0,
		0xfa, 0x03, 0, 0,
	}, frame)
}

func TestEncodeRequest(t *testing.T) {
	frame := ril.EncodeRequest(ril.RequestGetIMEI, 3, nil)

	r := ril.NewReader(frame)
	assert.Equal(t, int32(ril.HeaderSize), r.ReadInt32BE())
	assert.Equal(t, int32(ril.RequestGetIMEI), r.ReadInt32())
	assert.Equal(t, int32(3), r.ReadInt32())
	assert.Zero(t, r.Remaining())
}
