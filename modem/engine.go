package modem

import (
	"log/slog"
	"math/rand/v2"
	"time"

	"i4.energy/across/fakeril/device"
	"i4.energy/across/fakeril/ril"
	"i4.energy/across/fakeril/sched"
)

// Startup schedule of a freshly powered simulator, relative to Start.
const (
	connectedAt       = time.Second
	radioAnnouncedAt  = 2 * time.Second
	radioOffAt        = 4 * time.Second
	simAnnouncedAt    = 10 * time.Second
	radioOnAt         = 12 * time.Second
	nitzAt            = 15 * time.Second
	networkPollOffset = radioOffAt + device.NetworkPollPeriod
)

// Command identifies an externally triggered event.
type Command int

const (
	// CommandIncomingCall rings the device and then starts an incoming call
	// from CommandOptions.Number.
	CommandIncomingCall Command = iota
)

func (c Command) String() string {
	switch c {
	case CommandIncomingCall:
		return "incoming-call"
	default:
		return "unknown"
	}
}

// CommandOptions carries the arguments of a Command.
type CommandOptions struct {
	Number string `json:"number"`
}

// Engine is the protocol engine of one simulated slot. It decodes request
// frames, runs their handlers against the device, and emits responses and
// notifications to its output. Delayed work is queued on a virtual
// clock that only moves through Advance and AdvanceTo.
//
// An Engine is not safe for concurrent use. Modem serializes access to it.
type Engine struct {
	dev    *device.Device
	sched  *sched.Scheduler[device.Action]
	logger *slog.Logger
	rng    *rand.Rand

	// output receives every finalized frame
	output  func([]byte)
	started bool
}

// NewEngine returns an engine simulating dev. Signal strength reports are
// drawn from a generator seeded with seed.
func NewEngine(dev *device.Device, logger *slog.Logger, seed uint64) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{
		dev:    dev,
		sched:  sched.New[device.Action](),
		logger: logger.With("component", "engine", "slot", dev.Profile.Slot),
		rng:    rand.New(rand.NewPCG(seed, uint64(dev.Profile.Slot))),
	}
}

// Device returns the simulated device.
func (e *Engine) Device() *device.Device {
	return e.dev
}

// Now returns the engine's virtual time.
func (e *Engine) Now() time.Duration {
	return e.sched.Now()
}

// NextDue returns the virtual time of the next scheduled action.
func (e *Engine) NextDue() (time.Duration, bool) {
	return e.sched.NextDue()
}

// SetOutput directs every outbound frame to fn, replacing any previous
// output. Frames are delivered in emission order. A nil fn discards them.
func (e *Engine) SetOutput(fn func([]byte)) {
	e.output = fn
}

func (e *Engine) emit(frame []byte) {
	if e.output != nil {
		e.output(frame)
	}
}

// Start queues the power-up sequence: the connected notification, radio
// power off then on, network polling, SIM status, NITZ time and periodic
// signal strength reports. Calling Start again has no effect.
func (e *Engine) Start() {
	if e.started {
		return
	}
	e.started = true

	e.sched.After(connectedAt, device.Notify(ril.UnsolRILConnected))
	e.sched.After(radioAnnouncedAt, device.Notify(ril.UnsolRadioStateChanged))
	e.sched.After(radioOffAt, device.Action{Kind: device.ActionRadioPower, RadioState: ril.RadioOff})
	e.sched.Repeat(networkPollOffset, device.NetworkPollPeriod, device.Action{Kind: device.ActionNetworkUpdate})
	e.sched.After(simAnnouncedAt, device.Notify(ril.UnsolSIMStatusChanged))
	e.sched.After(radioOnAt, device.Action{Kind: device.ActionRadioPower, RadioState: ril.RadioOn})
	e.sched.After(nitzAt, device.Notify(ril.UnsolNITZTimeReceived))
	e.sched.Every(device.SignalReportPeriod, device.Notify(ril.UnsolSignalStrength))
}

// Advance moves the virtual clock forward by d and runs everything that
// falls due. It returns the number of actions run.
func (e *Engine) Advance(d time.Duration) int {
	return e.sched.Advance(d, e.run)
}

// AdvanceTo moves the virtual clock to t and runs everything that falls due.
func (e *Engine) AdvanceTo(t time.Duration) int {
	return e.sched.AdvanceTo(t, e.run)
}

// PostCommand injects an external event.
func (e *Engine) PostCommand(cmd Command, opts CommandOptions) error {
	switch cmd {
	case CommandIncomingCall:
		e.logger.Info("incoming call", "number", opts.Number)
		e.apply([]device.Effect{
			device.Now(device.Notify(ril.UnsolCallRing)),
			device.After(device.IncomingCallDelay, device.Action{
				Kind:   device.ActionIncomingCall,
				Number: opts.Number,
			}),
		})
		return nil
	default:
		return ErrUnknownCommand
	}
}

// SetCardPresent inserts or removes the virtual SIM card.
func (e *Engine) SetCardPresent(present bool) {
	state := ril.CardAbsent
	if present {
		state = ril.CardPresent
	}
	e.run(device.Action{Kind: device.ActionCardState, CardState: state})
}

// Snapshot returns a summary of the device state.
func (e *Engine) Snapshot() device.Snapshot {
	return e.dev.Snapshot()
}

// apply carries out the effects of a device mutation: synchronous effects
// run now, the others are queued on the scheduler.
func (e *Engine) apply(effects []device.Effect) {
	for _, ef := range effects {
		switch {
		case ef.Sync:
			e.run(ef.Action)
		case ef.Every > 0:
			e.sched.Repeat(ef.Delay, ef.Every, ef.Action)
		default:
			e.sched.After(ef.Delay, ef.Action)
		}
	}
}

func (e *Engine) run(a device.Action) {
	switch a.Kind {
	case device.ActionNotify:
		e.notify(a.Notification)
	case device.ActionCallProgress:
		if !e.dev.Calls.SetState(a.CallID, a.CallState) {
			e.logger.Debug("progress for ended call", "call", a.CallID, "state", a.CallState)
		}
		e.notify(ril.UnsolCallStateChanged)
	case device.ActionRadioPower:
		e.logger.Info("radio power", "from", e.dev.Radio.State, "to", a.RadioState)
		e.apply(e.dev.Radio.SetPowerState(a.RadioState))
	case device.ActionNetworkUpdate:
		from := e.dev.Network.RegistrationState()
		e.apply(e.dev.UpdateNetwork())
		if to := e.dev.Network.RegistrationState(); to != from {
			e.logger.Info("registration", "from", from, "to", to)
		}
	case device.ActionIncomingCall:
		_, effects := e.dev.Calls.Start(a.Number, ril.CallIncoming)
		e.apply(effects)
	case device.ActionCardState:
		effects, ok := e.dev.SIM.SetCardState(a.CardState)
		if !ok {
			e.logger.Warn("rejected card state", "state", a.CardState)
			return
		}
		e.apply(effects)
	default:
		e.logger.Error("unknown action", "kind", a.Kind)
	}
}

// notify emits the unsolicited notification u with its payload built from
// the current device state.
func (e *Engine) notify(u ril.Unsolicited) {
	out := ril.NewUnsolicited(u)
	switch u {
	case ril.UnsolRILConnected:
		out.WriteInt32(1, int32(e.dev.Radio.Version))
	case ril.UnsolRadioStateChanged:
		out.WriteInt32(int32(e.dev.Radio.State))
	case ril.UnsolNITZTimeReceived:
		out.WriteString(e.dev.Profile.NITZ)
	case ril.UnsolSignalStrength:
		e.writeSignalStrength(out)
	}
	e.logger.Debug("unsolicited", "type", u)
	e.emit(out.Finalize())
}

func (e *Engine) writeSignalStrength(out *ril.Writer) {
	out.WriteInt32(
		// GSM/WCDMA: signal strength and bit error rate
		e.rng.Int32N(32),
		e.rng.Int32N(8),
		// CDMA
		0, 0,
		// EVDO
		0, 0, 0,
	)
	if !e.dev.Radio.Legacy() {
		// LTE
		out.WriteInt32(-1, -1, -1, -1, -1)
	}
}

// Submit decodes every request frame in data and dispatches it. A frame
// whose declared length cannot be trusted ends processing of data; an
// unknown opcode is skipped without reply. Responses are emitted to the
// output before Submit returns.
func (e *Engine) Submit(data []byte) {
	in := ril.NewReader(data)
	for in.Remaining() > 0 {
		if in.Remaining() < 4 {
			e.logger.Warn("truncated frame header", "bytes", in.Remaining())
			return
		}
		n := int(in.ReadInt32BE())
		if n < ril.HeaderSize || n > in.Remaining() {
			e.logger.Warn("malformed frame, dropping input", "declared", n, "available", in.Remaining())
			return
		}
		frame := ril.NewReader(in.Next(n))
		opcode := ril.Request(frame.ReadInt32())
		serial := frame.ReadInt32()
		e.dispatch(opcode, serial, frame)
	}
}

func (e *Engine) dispatch(opcode ril.Request, serial int32, in *ril.Reader) {
	h, ok := handlers[opcode]
	if !ok {
		e.logger.Warn("unimplemented request", "opcode", int32(opcode), "serial", serial, "bytes", in.Remaining())
		return
	}

	e.logger.Debug("request", "request", opcode, "serial", serial)
	out, err := h(e, in, serial)
	if err != nil {
		e.logger.Error("request failed", "request", opcode, "serial", serial, "error", err)
		out = ril.NewSolicited(serial, ril.GenericFailure)
	}

	switch {
	case in.Short():
		e.logger.Warn("request read past its frame", "request", opcode, "serial", serial)
	case in.Remaining() > 0:
		e.logger.Warn("request did not consume its frame", "request", opcode, "serial", serial, "left", in.Remaining())
	}

	if out != nil {
		e.emit(out.Finalize())
	}
}
