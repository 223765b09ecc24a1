package modem

import (
	"errors"
	"fmt"

	"i4.energy/across/fakeril/device"
	"i4.energy/across/fakeril/ril"
)

// handler decodes the arguments of one request from in, applies it to the
// engine and returns the response. A nil response means no reply is sent.
type handler func(e *Engine, in *ril.Reader, serial int32) (*ril.Writer, error)

var errMissingString = errors.New("missing string argument")

var handlers = map[ril.Request]handler{
	ril.RequestGetSIMStatus:                     radioOn(getSIMStatus),
	ril.RequestEnterSIMPIN:                      enterPIN(device.LockPIN),
	ril.RequestEnterSIMPUK:                      enterPUK(device.LockPUK, device.LockPIN),
	ril.RequestEnterSIMPIN2:                     enterPIN(device.LockPIN2),
	ril.RequestEnterSIMPUK2:                     enterPUK(device.LockPUK2, device.LockPIN2),
	ril.RequestGetCurrentCalls:                  getCurrentCalls,
	ril.RequestDial:                             dial,
	ril.RequestGetIMSI:                          getIMSI,
	ril.RequestHangup:                           hangup,
	ril.RequestHangupWaitingOrBackground:        hangupWaitingOrBackground,
	ril.RequestSwitchWaitingOrHoldingAndActive:  switchWaitingOrHoldingAndActive,
	ril.RequestConference:                       conference,
	ril.RequestUDUB:                             udub,
	ril.RequestLastCallFailCause:                lastCallFailCause,
	ril.RequestSignalStrength:                   signalStrength,
	ril.RequestVoiceRegistrationState:           radioOn(voiceRegistrationState),
	ril.RequestDataRegistrationState:            radioOn(dataRegistrationState),
	ril.RequestOperator:                         radioOn(operator),
	ril.RequestRadioPower:                       radioPower,
	ril.RequestSIMIO:                            simIO,
	ril.RequestGetCLIR:                          getCLIR,
	ril.RequestSetCLIR:                          setCLIR,
	ril.RequestGetIMEI:                          getIMEI,
	ril.RequestGetIMEISV:                        getIMEISV,
	ril.RequestAnswer:                           answer,
	ril.RequestQueryNetworkSelectionMode:        queryNetworkSelectionMode,
	ril.RequestDTMFStart:                        dtmfStart,
	ril.RequestDTMFStop:                         success,
	ril.RequestBasebandVersion:                  radioOn(basebandVersion),
	ril.RequestSetPreferredNetworkType:          setPreferredNetworkType,
	ril.RequestGetPreferredNetworkType:          getPreferredNetworkType,
	ril.RequestCDMASetRoamingPreference:         readIntsThenSucceed,
	ril.RequestCDMASetPreferredVoicePrivacyMode: readIntsThenSucceed,
	ril.RequestExitEmergencyCallbackMode:        exitEmergencyCallbackMode,
	ril.RequestGetSMSCAddress:                   getSMSCAddress,
	ril.RequestVoiceRadioTech:                   radioOn(voiceRadioTech),
}

// radioOn guards h: while the radio is not on the request is answered with
// RADIO_NOT_AVAILABLE. Arguments are still decoded so the frame is consumed.
func radioOn(h handler) handler {
	return func(e *Engine, in *ril.Reader, serial int32) (*ril.Writer, error) {
		if e.dev.Radio.On() {
			return h(e, in, serial)
		}
		in.Skip(in.Remaining())
		return ril.NewSolicited(serial, ril.RadioNotAvailable), nil
	}
}

func success(_ *Engine, _ *ril.Reader, serial int32) (*ril.Writer, error) {
	return ril.NewSolicited(serial, ril.Success), nil
}

// readInts decodes a count-prefixed int list.
func readInts(in *ril.Reader) []int32 {
	n := in.ReadInt32()
	if n < 0 || int(n)*4 > in.Remaining() {
		in.Skip(in.Remaining())
		return nil
	}
	values := make([]int32, n)
	for i := range values {
		values[i] = in.ReadInt32()
	}
	return values
}

func readIntsThenSucceed(e *Engine, in *ril.Reader, serial int32) (*ril.Writer, error) {
	readInts(in)
	return success(e, in, serial)
}

func getSIMStatus(e *Engine, _ *ril.Reader, serial int32) (*ril.Writer, error) {
	sim := e.dev.SIM
	out := ril.NewSolicited(serial, ril.Success)
	out.WriteInt32List(sim.Status(e.dev.Radio.Legacy()))
	out.WriteString(sim.AID)
	out.WriteString(sim.Label)
	out.WriteInt32(0, 0, 0)
	return out, nil
}

// enterPIN answers ENTER_SIM_PIN style requests:
// [legacy flag][code] and, when the flag is 1, [aid].
func enterPIN(lock device.LockType) handler {
	return func(e *Engine, in *ril.Reader, serial int32) (*ril.Writer, error) {
		legacy := in.ReadInt32()
		code, ok := in.ReadString()
		if !ok {
			return nil, fmt.Errorf("%s code: %w", lock, errMissingString)
		}
		if legacy == 1 {
			in.ReadString()
		}
		return unlock(e, serial, lock, code, nil)
	}
}

// enterPUK answers ENTER_SIM_PUK style requests:
// [legacy flag][puk][new pin] and, when the flag is 1, [aid]. A successful
// unlock replaces the code of the lock it protects.
func enterPUK(lock, protects device.LockType) handler {
	return func(e *Engine, in *ril.Reader, serial int32) (*ril.Writer, error) {
		legacy := in.ReadInt32()
		code, ok := in.ReadString()
		if !ok {
			return nil, fmt.Errorf("%s code: %w", lock, errMissingString)
		}
		newPIN, ok := in.ReadString()
		if !ok {
			return nil, fmt.Errorf("new %s: %w", protects, errMissingString)
		}
		if legacy == 1 {
			in.ReadString()
		}
		return unlock(e, serial, lock, code, func() {
			e.dev.SIM.ChangeCode(protects, newPIN)
		})
	}
}

func unlock(e *Engine, serial int32, lock device.LockType, code string, onSuccess func()) (*ril.Writer, error) {
	sim := e.dev.SIM
	if !sim.Present() {
		return ril.NewSolicited(serial, ril.SIMAbsent), nil
	}

	unlocked, effects := sim.Unlock(lock, code)
	e.apply(effects)

	result := ril.GenericFailure
	if unlocked {
		if onSuccess != nil {
			onSuccess()
		}
		result = ril.Success
	}
	e.logger.Info("unlock", "lock", lock, "ok", unlocked, "retry", sim.Lock(lock).Retry, "app_state", sim.AppState)

	out := ril.NewSolicited(serial, result)
	out.WriteInt32(1, int32(sim.Lock(lock).Retry))
	return out, nil
}

func getIMSI(e *Engine, in *ril.Reader, serial int32) (*ril.Writer, error) {
	in.ReadInt32()
	in.ReadString() // aid
	if !e.dev.SIM.Present() {
		return ril.NewSolicited(serial, ril.SIMAbsent), nil
	}
	out := ril.NewSolicited(serial, ril.Success)
	out.WriteString(e.dev.SIM.IMSI)
	return out, nil
}

func stringResponse(serial int32, s string) *ril.Writer {
	out := ril.NewSolicited(serial, ril.Success)
	out.WriteString(s)
	return out
}

func getIMEI(e *Engine, _ *ril.Reader, serial int32) (*ril.Writer, error) {
	return stringResponse(serial, e.dev.Profile.IMEI), nil
}

func getIMEISV(e *Engine, _ *ril.Reader, serial int32) (*ril.Writer, error) {
	return stringResponse(serial, e.dev.Profile.IMEISV), nil
}

func getSMSCAddress(e *Engine, _ *ril.Reader, serial int32) (*ril.Writer, error) {
	return stringResponse(serial, e.dev.Network.SMSC), nil
}

func basebandVersion(e *Engine, _ *ril.Reader, serial int32) (*ril.Writer, error) {
	return stringResponse(serial, e.dev.Radio.BasebandVersion), nil
}

func voiceRadioTech(e *Engine, _ *ril.Reader, serial int32) (*ril.Writer, error) {
	out := ril.NewSolicited(serial, ril.Success)
	out.WriteInt32(1, e.dev.Network.RadioTech)
	return out, nil
}

// simIO answers reads of the virtual SIM's elementary files:
// [command][file id][path][p1][p2][p3].
func simIO(e *Engine, in *ril.Reader, serial int32) (*ril.Writer, error) {
	command := in.ReadInt32()
	fileID := in.ReadInt32()
	path, _ := in.ReadString()
	in.ReadInt32() // p1
	in.ReadInt32() // p2
	in.ReadInt32() // p3

	if !e.dev.Radio.On() {
		return ril.NewSolicited(serial, ril.RadioNotAvailable), nil
	}

	payload, ok := e.dev.SIM.ReadFile(fileID, command)
	if !ok {
		e.logger.Warn("unsupported SIM_IO", "command", fmt.Sprintf("%#x", command), "file", fmt.Sprintf("%#x", fileID), "path", path)
		out := ril.NewSolicited(serial, ril.RequestNotSupported)
		out.WriteInt32(ril.ICCStatusErrorWrongParameters, 0)
		return out, nil
	}

	out := ril.NewSolicited(serial, ril.Success)
	out.WriteInt32(ril.ICCStatusNormalEnding, 0)
	out.WriteString(payload)
	return out, nil
}

func radioPower(e *Engine, in *ril.Reader, serial int32) (*ril.Writer, error) {
	in.ReadInt32()
	state := ril.RadioOff
	if in.ReadInt32() == 1 {
		state = ril.RadioOn
	}
	e.logger.Info("radio power requested", "state", state)
	e.apply(e.dev.Radio.SetPowerState(state))
	return ril.NewSolicited(serial, ril.Success), nil
}

func setCLIR(e *Engine, in *ril.Reader, serial int32) (*ril.Writer, error) {
	in.ReadInt32()
	e.dev.Network.CLIRMode = in.ReadInt32()
	return ril.NewSolicited(serial, ril.Success), nil
}

func getCLIR(e *Engine, _ *ril.Reader, serial int32) (*ril.Writer, error) {
	out := ril.NewSolicited(serial, ril.Success)
	out.WriteInt32(1, e.dev.Network.CLIRMode)
	return out, nil
}

func queryNetworkSelectionMode(_ *Engine, _ *ril.Reader, serial int32) (*ril.Writer, error) {
	out := ril.NewSolicited(serial, ril.Success)
	out.WriteInt32(ril.NetworkSelectionModeAutomatic)
	return out, nil
}

func exitEmergencyCallbackMode(e *Engine, _ *ril.Reader, serial int32) (*ril.Writer, error) {
	e.apply(e.dev.Radio.ExitEmergencyCallbackMode())
	return ril.NewSolicited(serial, ril.Success), nil
}

func getCurrentCalls(e *Engine, _ *ril.Reader, serial int32) (*ril.Writer, error) {
	out := ril.NewSolicited(serial, ril.Success)
	calls := e.dev.Calls.List()
	if len(calls) == 0 {
		return out, nil
	}

	out.WriteInt32(int32(len(calls)))
	for _, c := range calls {
		multiparty := int32(0)
		if c.Multiparty {
			multiparty = 1
		}
		out.WriteInt32(
			int32(c.State),
			c.Index,
			ril.TOAInternational,
			multiparty,
			0, // mobile terminated
			0, // als
			1, // voice
			0, // voice privacy
		)
		out.WriteString(c.Number)
		out.WriteInt32(0) // number presentation
		out.WriteString("")
		out.WriteInt32(0) // name presentation
		out.WriteInt32(0) // no UUS info
	}
	return out, nil
}

func dial(e *Engine, in *ril.Reader, serial int32) (*ril.Writer, error) {
	number, ok := in.ReadString()
	if !ok {
		return nil, fmt.Errorf("dial address: %w", errMissingString)
	}
	// Optional CLIR mode and UUS info flag.
	for in.Remaining() >= 4 {
		in.ReadInt32()
	}

	call, effects := e.dev.Calls.Start(number, ril.CallDialing)
	e.apply(effects)
	e.logger.Info("dial", "number", number, "index", call.Index)
	return ril.NewSolicited(serial, ril.Success), nil
}

// hangup ends the call at [count][index], or call 1 when no index is sent.
func hangup(e *Engine, in *ril.Reader, serial int32) (*ril.Writer, error) {
	index := int32(1)
	if in.Remaining() > 0 {
		in.ReadInt32()
		index = in.ReadInt32()
	}
	e.apply(e.dev.Calls.Stop(index, ril.CallFailNormal))
	return ril.NewSolicited(serial, ril.Success), nil
}

func hangupWaitingOrBackground(e *Engine, _ *ril.Reader, serial int32) (*ril.Writer, error) {
	e.apply(e.dev.Calls.StopAll(ril.CallFailNormal))
	return ril.NewSolicited(serial, ril.Success), nil
}

func udub(e *Engine, _ *ril.Reader, serial int32) (*ril.Writer, error) {
	e.apply(e.dev.Calls.Stop(0, ril.CallFailBusy))
	return ril.NewSolicited(serial, ril.Success), nil
}

func answer(e *Engine, _ *ril.Reader, serial int32) (*ril.Writer, error) {
	e.apply(e.dev.Calls.Answer())
	return ril.NewSolicited(serial, ril.Success), nil
}

func switchWaitingOrHoldingAndActive(e *Engine, _ *ril.Reader, serial int32) (*ril.Writer, error) {
	e.apply(e.dev.Calls.Switch())
	return ril.NewSolicited(serial, ril.Success), nil
}

func conference(e *Engine, _ *ril.Reader, serial int32) (*ril.Writer, error) {
	e.apply(e.dev.Calls.Conference())
	return ril.NewSolicited(serial, ril.Success), nil
}

func lastCallFailCause(e *Engine, _ *ril.Reader, serial int32) (*ril.Writer, error) {
	out := ril.NewSolicited(serial, ril.Success)
	out.WriteInt32(1, e.dev.Calls.LastFailCause)
	return out, nil
}

func signalStrength(e *Engine, _ *ril.Reader, serial int32) (*ril.Writer, error) {
	out := ril.NewSolicited(serial, ril.Success)
	e.writeSignalStrength(out)
	return out, nil
}

func voiceRegistrationState(e *Engine, _ *ril.Reader, serial int32) (*ril.Writer, error) {
	out := ril.NewSolicited(serial, ril.Success)
	out.WriteStringList(e.dev.Network.VoiceRegistration())
	return out, nil
}

func dataRegistrationState(e *Engine, _ *ril.Reader, serial int32) (*ril.Writer, error) {
	out := ril.NewSolicited(serial, ril.Success)
	out.WriteStringList(e.dev.Network.DataRegistration())
	return out, nil
}

func operator(e *Engine, _ *ril.Reader, serial int32) (*ril.Writer, error) {
	out := ril.NewSolicited(serial, ril.Success)
	out.WriteStringList(e.dev.Network.Operator())
	return out, nil
}

// dtmfStart reads [count][tone].
func dtmfStart(e *Engine, in *ril.Reader, serial int32) (*ril.Writer, error) {
	in.ReadInt32()
	tone := in.ReadInt32()
	e.logger.Debug("dtmf", "tone", string(rune(tone)))
	return ril.NewSolicited(serial, ril.Success), nil
}

func setPreferredNetworkType(e *Engine, in *ril.Reader, serial int32) (*ril.Writer, error) {
	in.ReadInt32()
	e.dev.Radio.PreferredNetworkType = in.ReadInt32()
	return ril.NewSolicited(serial, ril.Success), nil
}

func getPreferredNetworkType(e *Engine, _ *ril.Reader, serial int32) (*ril.Writer, error) {
	out := ril.NewSolicited(serial, ril.Success)
	out.WriteInt32(1, e.dev.Radio.PreferredNetworkType)
	return out, nil
}
