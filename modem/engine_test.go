package modem_test

import (
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"i4.energy/across/fakeril/device"
	"i4.energy/across/fakeril/modem"
	"i4.energy/across/fakeril/ril"
)

type frame struct {
	unsolicited bool
	serial      int32
	err         ril.Error
	kind        ril.Unsolicited
	body        *ril.Reader
	at          time.Duration
}

func parseFrame(t *testing.T, b []byte) frame {
	t.Helper()
	r := ril.NewReader(b)
	n := r.ReadInt32BE()
	require.Equal(t, int(n), r.Remaining(), "declared frame length")

	var f frame
	switch r.ReadInt32() {
	case ril.ResponseSolicited:
		f.serial = r.ReadInt32()
		f.err = ril.Error(r.ReadInt32())
	case ril.ResponseUnsolicited:
		f.unsolicited = true
		f.kind = ril.Unsolicited(r.ReadInt32())
	default:
		t.Fatalf("unexpected response type in %x", b)
	}
	f.body = r
	return f
}

type harness struct {
	t      *testing.T
	engine *modem.Engine
	frames []frame
	// onFrame runs after each frame is recorded.
	onFrame func(f frame)
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	dev, err := device.New(device.DefaultProfile(0))
	require.NoError(t, err)

	h := &harness{t: t, engine: modem.NewEngine(dev, slog.New(slog.DiscardHandler), 1)}
	h.engine.SetOutput(func(b []byte) {
		f := parseFrame(t, b)
		f.at = h.engine.Now()
		h.frames = append(h.frames, f)
		if h.onFrame != nil {
			h.onFrame(f)
		}
	})
	return h
}

// ready puts the device in service: radio on, card inserted and the PIN
// entered, with every notification that caused already flushed.
func (h *harness) ready() *harness {
	dev := h.engine.Device()
	dev.Radio.State = ril.RadioOn
	h.engine.SetCardPresent(true)
	ok, _ := dev.SIM.Unlock(device.LockPIN, dev.Profile.PIN)
	require.True(h.t, ok)
	h.engine.Advance(time.Second)
	h.frames = nil
	return h
}

func (h *harness) take() []frame {
	out := h.frames
	h.frames = nil
	return out
}

func (h *harness) request(opcode ril.Request, serial int32, body func(w *ril.Writer)) frame {
	h.t.Helper()
	w := ril.NewWriter()
	if body != nil {
		body(w)
	}
	h.engine.Submit(ril.EncodeRequest(opcode, serial, w.Bytes()))

	var resp []frame
	for _, f := range h.frames {
		if !f.unsolicited {
			resp = append(resp, f)
		}
	}
	require.Len(h.t, resp, 1, "one response to %v", opcode)
	require.Equal(h.t, serial, resp[0].serial)
	h.frames = nil
	return resp[0]
}

func readString(t *testing.T, r *ril.Reader) string {
	t.Helper()
	s, ok := r.ReadString()
	require.True(t, ok)
	return s
}

func TestEngineResyncAfterUnknownOpcode(t *testing.T) {
	h := newHarness(t)

	var data []byte
	data = append(data, ril.EncodeRequest(ril.Request(4242), 1, []byte{1, 2, 3, 4, 5, 6, 7, 8, 9})...)
	data = append(data, ril.EncodeRequest(ril.RequestGetIMEI, 2, nil)...)
	h.engine.Submit(data)

	frames := h.take()
	require.Len(t, frames, 1)
	assert.Equal(t, int32(2), frames[0].serial)
	assert.Equal(t, ril.Success, frames[0].err)
	assert.Equal(t, "490154203237510", readString(t, frames[0].body))
	assert.Zero(t, frames[0].body.Remaining())
}

func TestEngineResyncAfterUnderConsumption(t *testing.T) {
	h := newHarness(t)

	var data []byte
	data = append(data, ril.EncodeRequest(ril.RequestGetIMEI, 1, []byte{0xde, 0xad, 0xbe, 0xef})...)
	data = append(data, ril.EncodeRequest(ril.RequestGetIMEISV, 2, nil)...)
	h.engine.Submit(data)

	frames := h.take()
	require.Len(t, frames, 2)
	assert.Equal(t, "490154203237510", readString(t, frames[0].body))
	assert.Equal(t, int32(2), frames[1].serial)
	assert.Equal(t, "4901542032375100", readString(t, frames[1].body))
}

func TestEngineMalformedFrames(t *testing.T) {
	tests := []struct {
		name string
		data []byte
	}{
		{"length below header", []byte{0, 0, 0, 4, 38, 0, 0, 0}},
		{"length beyond buffer", []byte{0, 0, 0, 20, 38, 0, 0, 0, 1, 0, 0, 0}},
		{"truncated length", []byte{0, 0}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t)
			h.engine.Submit(tt.data)
			assert.Empty(t, h.take())
		})
	}
}

func TestEngineHandlerErrorIsGenericFailure(t *testing.T) {
	h := newHarness(t)

	resp := h.request(ril.RequestDial, 7, func(w *ril.Writer) {
		w.WriteInt32(-1)
	})
	assert.Equal(t, ril.GenericFailure, resp.err)
	assert.Zero(t, h.engine.Device().Calls.Len())
}

func TestEngineRadioGuard(t *testing.T) {
	guarded := []ril.Request{
		ril.RequestGetSIMStatus,
		ril.RequestVoiceRegistrationState,
		ril.RequestDataRegistrationState,
		ril.RequestOperator,
		ril.RequestBasebandVersion,
		ril.RequestVoiceRadioTech,
	}

	for _, op := range guarded {
		t.Run(op.String(), func(t *testing.T) {
			h := newHarness(t)
			require.False(t, h.engine.Device().Radio.On())

			resp := h.request(op, 3, nil)
			assert.Equal(t, ril.RadioNotAvailable, resp.err)
			assert.Zero(t, resp.body.Remaining())
		})
	}

	t.Run("SIM_IO consumes its arguments", func(t *testing.T) {
		h := newHarness(t)
		resp := h.request(ril.RequestSIMIO, 4, func(w *ril.Writer) {
			w.WriteInt32(ril.ICCCommandReadBinary, ril.EFICCID)
			w.WriteString("3F00")
			w.WriteInt32(0, 0, 10)
		})
		assert.Equal(t, ril.RadioNotAvailable, resp.err)
	})
}

func enterPIN(code string) func(w *ril.Writer) {
	return func(w *ril.Writer) {
		w.WriteInt32(0)
		w.WriteString(code)
	}
}

func TestEngineWrongPINThreeTimes(t *testing.T) {
	h := newHarness(t)
	h.engine.SetCardPresent(true)

	for i, want := range []int32{2, 1, 0} {
		resp := h.request(ril.RequestEnterSIMPIN, int32(i+1), enterPIN("0000"))
		assert.Equal(t, ril.GenericFailure, resp.err)
		assert.Equal(t, int32(1), resp.body.ReadInt32())
		assert.Equal(t, want, resp.body.ReadInt32())
	}

	snap := h.engine.Snapshot()
	assert.Equal(t, ril.AppStatePUK, snap.AppState)
	assert.Equal(t, 10, snap.PUKRetries)

	t.Run("PIN is no longer accepted", func(t *testing.T) {
		resp := h.request(ril.RequestEnterSIMPIN, 10, enterPIN("1230"))
		assert.Equal(t, ril.GenericFailure, resp.err)
	})

	t.Run("PUK unlocks and sets a new PIN", func(t *testing.T) {
		resp := h.request(ril.RequestEnterSIMPUK, 11, func(w *ril.Writer) {
			w.WriteInt32(1)
			w.WriteString("56789010")
			w.WriteString("9999")
			w.WriteString("sim:aa:0")
		})
		assert.Equal(t, ril.Success, resp.err)
		assert.Equal(t, int32(1), resp.body.ReadInt32())
		assert.Equal(t, int32(10), resp.body.ReadInt32())
		assert.Equal(t, ril.AppStateReady, h.engine.Snapshot().AppState)
		assert.Equal(t, "9999", h.engine.Device().SIM.Lock(device.LockPIN).Code)
	})
}

func TestEngineUnlockKeepsRemainingRetries(t *testing.T) {
	h := newHarness(t)
	h.engine.SetCardPresent(true)

	resp := h.request(ril.RequestEnterSIMPIN, 1, enterPIN("0000"))
	assert.Equal(t, ril.GenericFailure, resp.err)
	assert.Equal(t, int32(1), resp.body.ReadInt32())
	assert.Equal(t, int32(2), resp.body.ReadInt32())

	resp = h.request(ril.RequestEnterSIMPIN, 2, enterPIN("1230"))
	assert.Equal(t, ril.Success, resp.err)
	assert.Equal(t, int32(1), resp.body.ReadInt32())
	assert.Equal(t, int32(2), resp.body.ReadInt32())
	assert.Equal(t, 2, h.engine.Snapshot().PINRetries)
}

func TestEngineUnlockNotifiesSIMStatus(t *testing.T) {
	h := newHarness(t)
	h.engine.SetCardPresent(true)
	h.engine.Advance(time.Second)
	h.take()

	resp := h.request(ril.RequestEnterSIMPIN, 1, enterPIN("1230"))
	require.Equal(t, ril.Success, resp.err)

	h.engine.Advance(400 * time.Millisecond)
	assert.Empty(t, h.take())
	h.engine.Advance(100 * time.Millisecond)
	frames := h.take()
	require.Len(t, frames, 1)
	assert.Equal(t, ril.UnsolSIMStatusChanged, frames[0].kind)
}

func TestEngineSIMAbsent(t *testing.T) {
	h := newHarness(t)

	resp := h.request(ril.RequestEnterSIMPIN, 1, enterPIN("1230"))
	assert.Equal(t, ril.SIMAbsent, resp.err)

	resp = h.request(ril.RequestGetIMSI, 2, func(w *ril.Writer) {
		w.WriteInt32(1)
		w.WriteString("sim:aa:0")
	})
	assert.Equal(t, ril.SIMAbsent, resp.err)
}

func TestEngineDisabledPIN2(t *testing.T) {
	h := newHarness(t).ready()

	resp := h.request(ril.RequestEnterSIMPIN2, 1, enterPIN("0000"))
	assert.Equal(t, ril.GenericFailure, resp.err)
	assert.Equal(t, int32(1), resp.body.ReadInt32())
	assert.Equal(t, int32(-1), resp.body.ReadInt32())
	assert.Equal(t, ril.AppStateReady, h.engine.Snapshot().AppState)
}

func TestEngineSetCardPresentIsIdempotent(t *testing.T) {
	h := newHarness(t).ready()

	h.engine.SetCardPresent(true)
	h.engine.Advance(time.Second)

	assert.Empty(t, h.take())
	assert.Equal(t, ril.AppStateReady, h.engine.Snapshot().AppState)
}

func TestEngineDialNotifications(t *testing.T) {
	h := newHarness(t).ready()

	var observed []ril.CallState
	h.onFrame = func(f frame) {
		if f.kind == ril.UnsolCallStateChanged {
			calls := h.engine.Device().Calls.List()
			require.Len(t, calls, 1)
			observed = append(observed, calls[0].State)
		}
	}

	resp := h.request(ril.RequestDial, 1, func(w *ril.Writer) {
		w.WriteString("+33612345678")
		w.WriteInt32(0, 0)
	})
	assert.Equal(t, ril.Success, resp.err)

	h.engine.Advance(5 * time.Second)

	var notified []time.Duration
	for _, f := range h.take() {
		require.Equal(t, ril.UnsolCallStateChanged, f.kind)
		notified = append(notified, f.at)
	}
	assert.Equal(t, []ril.CallState{ril.CallDialing, ril.CallAlerting, ril.CallActive}, observed)
	start := notified[0]
	assert.Equal(t, []time.Duration{start, start + time.Second, start + 3*time.Second}, notified)
}

func TestEngineGetCurrentCalls(t *testing.T) {
	h := newHarness(t).ready()

	t.Run("empty list is header only", func(t *testing.T) {
		resp := h.request(ril.RequestGetCurrentCalls, 1, nil)
		assert.Equal(t, ril.Success, resp.err)
		assert.Zero(t, resp.body.Remaining())
	})

	t.Run("one record per call", func(t *testing.T) {
		h.request(ril.RequestDial, 2, func(w *ril.Writer) { w.WriteString("123") })
		h.engine.Advance(5 * time.Second)
		h.take()

		resp := h.request(ril.RequestGetCurrentCalls, 3, nil)
		body := resp.body
		assert.Equal(t, int32(1), body.ReadInt32())
		assert.Equal(t, int32(ril.CallActive), body.ReadInt32())
		assert.Equal(t, int32(1), body.ReadInt32())
		assert.Equal(t, ril.TOAInternational, body.ReadInt32())
		for _, want := range []int32{0, 0, 0, 1, 0} {
			assert.Equal(t, want, body.ReadInt32())
		}
		assert.Equal(t, "123", readString(t, body))
		assert.Equal(t, int32(0), body.ReadInt32())
		assert.Equal(t, "", readString(t, body))
		assert.Equal(t, int32(0), body.ReadInt32())
		assert.Equal(t, int32(0), body.ReadInt32())
		assert.Zero(t, body.Remaining())
		assert.False(t, body.Short())
	})

	t.Run("hangup without index ends call 1", func(t *testing.T) {
		resp := h.request(ril.RequestHangup, 4, nil)
		assert.Equal(t, ril.Success, resp.err)
		assert.Zero(t, h.engine.Device().Calls.Len())
	})
}

func TestEngineIncomingCall(t *testing.T) {
	h := newHarness(t).ready()

	require.NoError(t, h.engine.PostCommand(modem.CommandIncomingCall, modem.CommandOptions{Number: "+33699999999"}))
	frames := h.take()
	require.Len(t, frames, 1)
	assert.Equal(t, ril.UnsolCallRing, frames[0].kind)
	assert.Zero(t, h.engine.Device().Calls.Len())

	h.engine.Advance(device.IncomingCallDelay)
	calls := h.engine.Device().Calls.List()
	require.Len(t, calls, 1)
	assert.Equal(t, ril.CallIncoming, calls[0].State)
	assert.Equal(t, "+33699999999", calls[0].Number)

	t.Run("reject with UDUB", func(t *testing.T) {
		h.request(ril.RequestUDUB, 1, nil)
		assert.Zero(t, h.engine.Device().Calls.Len())

		resp := h.request(ril.RequestLastCallFailCause, 2, nil)
		assert.Equal(t, int32(1), resp.body.ReadInt32())
		assert.Equal(t, ril.CallFailBusy, resp.body.ReadInt32())
	})

	t.Run("unknown command", func(t *testing.T) {
		err := h.engine.PostCommand(modem.Command(99), modem.CommandOptions{})
		assert.ErrorIs(t, err, modem.ErrUnknownCommand)
	})
}

func TestEngineSIMIO(t *testing.T) {
	h := newHarness(t).ready()

	simIO := func(command, file int32) func(w *ril.Writer) {
		return func(w *ril.Writer) {
			w.WriteInt32(command, file)
			w.WriteString("3F007F20")
			w.WriteInt32(0, 0, 15)
		}
	}

	t.Run("known file", func(t *testing.T) {
		resp := h.request(ril.RequestSIMIO, 1, simIO(ril.ICCCommandReadBinary, ril.EFICCID))
		assert.Equal(t, ril.Success, resp.err)
		assert.Equal(t, ril.ICCStatusNormalEnding, resp.body.ReadInt32())
		assert.Equal(t, int32(0), resp.body.ReadInt32())
		assert.Equal(t, "8991101200003204510", readString(t, resp.body))
	})

	t.Run("unknown command", func(t *testing.T) {
		resp := h.request(ril.RequestSIMIO, 2, simIO(ril.ICCCommandReadRecord, ril.EFAD))
		assert.Equal(t, ril.RequestNotSupported, resp.err)
		assert.Equal(t, ril.ICCStatusErrorWrongParameters, resp.body.ReadInt32())
		assert.Equal(t, int32(0), resp.body.ReadInt32())
		assert.Zero(t, resp.body.Remaining())
	})
}

func TestEngineExitEmergencyCallbackMode(t *testing.T) {
	h := newHarness(t).ready()

	h.engine.Submit(ril.EncodeRequest(ril.RequestExitEmergencyCallbackMode, 9, nil))
	frames := h.take()
	require.Len(t, frames, 2)
	assert.Equal(t, ril.UnsolExitEmergencyCallbackMode, frames[0].kind)
	assert.Equal(t, int32(9), frames[1].serial)
	assert.False(t, h.engine.Snapshot().Emergency)
}

func TestEngineRadioPower(t *testing.T) {
	h := newHarness(t)

	resp := h.request(ril.RequestRadioPower, 1, func(w *ril.Writer) { w.WriteInt32(1, 1) })
	assert.Equal(t, ril.Success, resp.err)
	assert.True(t, h.engine.Device().Radio.On())

	h.engine.Advance(device.RadioNotifyDelay)
	frames := h.take()
	require.Len(t, frames, 1)
	assert.Equal(t, ril.UnsolRadioStateChanged, frames[0].kind)
	assert.Equal(t, int32(ril.RadioOn), frames[0].body.ReadInt32())

	resp = h.request(ril.RequestOperator, 2, nil)
	assert.Equal(t, ril.Success, resp.err)
	assert.Equal(t, int32(3), resp.body.ReadInt32())
	assert.Equal(t, "MozillaCorpMobile0", readString(t, resp.body))
}

func TestEngineSettings(t *testing.T) {
	h := newHarness(t)

	h.request(ril.RequestSetCLIR, 1, func(w *ril.Writer) { w.WriteInt32(1, 2) })
	resp := h.request(ril.RequestGetCLIR, 2, nil)
	assert.Equal(t, int32(1), resp.body.ReadInt32())
	assert.Equal(t, int32(2), resp.body.ReadInt32())

	h.request(ril.RequestSetPreferredNetworkType, 3, func(w *ril.Writer) { w.WriteInt32(1, 9) })
	resp = h.request(ril.RequestGetPreferredNetworkType, 4, nil)
	assert.Equal(t, int32(1), resp.body.ReadInt32())
	assert.Equal(t, int32(9), resp.body.ReadInt32())

	resp = h.request(ril.RequestQueryNetworkSelectionMode, 5, nil)
	assert.Equal(t, ril.NetworkSelectionModeAutomatic, resp.body.ReadInt32())
}

func TestEngineSignalStrength(t *testing.T) {
	h := newHarness(t)

	resp := h.request(ril.RequestSignalStrength, 1, nil)
	strength := resp.body.ReadInt32()
	ber := resp.body.ReadInt32()
	assert.GreaterOrEqual(t, strength, int32(0))
	assert.LessOrEqual(t, strength, int32(31))
	assert.GreaterOrEqual(t, ber, int32(0))
	assert.LessOrEqual(t, ber, int32(7))
	for i := 0; i < 5; i++ {
		assert.Equal(t, int32(0), resp.body.ReadInt32())
	}
	for i := 0; i < 5; i++ {
		assert.Equal(t, int32(-1), resp.body.ReadInt32())
	}
	assert.Zero(t, resp.body.Remaining())
}

func TestEngineStartup(t *testing.T) {
	h := newHarness(t)
	h.engine.SetCardPresent(true)
	h.engine.Start()
	h.engine.Start()

	h.engine.Advance(16 * time.Second)

	first := func(kind ril.Unsolicited, at time.Duration) frame {
		for _, f := range h.frames {
			if f.kind == kind && f.at == at {
				return f
			}
		}
		t.Fatalf("no %v at %v", kind, at)
		return frame{}
	}

	connected := first(ril.UnsolRILConnected, time.Second)
	assert.Equal(t, int32(1), connected.body.ReadInt32())
	assert.Equal(t, int32(6), connected.body.ReadInt32())

	assert.Equal(t, int32(ril.RadioUnavailable), first(ril.UnsolRadioStateChanged, 2*time.Second).body.ReadInt32())
	assert.Equal(t, int32(ril.RadioOff), first(ril.UnsolRadioStateChanged, 5*time.Second).body.ReadInt32())
	assert.Equal(t, int32(ril.RadioOn), first(ril.UnsolRadioStateChanged, 13*time.Second).body.ReadInt32())
	first(ril.UnsolVoiceNetworkStateChanged, 7*time.Second)
	first(ril.UnsolSIMStatusChanged, 10*time.Second)
	first(ril.UnsolSignalStrength, 10*time.Second)
	assert.Equal(t, "12/02/16,03:36:08-20,00,310410", readString(t, first(ril.UnsolNITZTimeReceived, 15*time.Second).body))

	// The PIN is still required: registration is limited to emergency calls.
	assert.Equal(t, ril.RegSearchingEmergency, h.engine.Snapshot().Registration)
	assert.Equal(t, ril.RadioOn, h.engine.Snapshot().RadioState)
}

func TestEngineSetOutput(t *testing.T) {
	dev, err := device.New(device.DefaultProfile(0))
	require.NoError(t, err)
	e := modem.NewEngine(dev, slog.New(slog.DiscardHandler), 1)

	// No output set: frames are discarded.
	e.Submit(ril.EncodeRequest(ril.RequestGetIMEI, 1, nil))

	var first, second int
	e.SetOutput(func([]byte) { first++ })
	e.Submit(ril.EncodeRequest(ril.RequestGetIMEI, 2, nil))
	e.SetOutput(func([]byte) { second++ })
	e.Submit(ril.EncodeRequest(ril.RequestGetIMEI, 3, nil))

	assert.Equal(t, 1, first)
	assert.Equal(t, 1, second)
}
