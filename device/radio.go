package device

import "i4.energy/across/fakeril/ril"

// Radio is the power and capability state of the simulated baseband.
type Radio struct {
	State                 ril.RadioState
	Version               int
	PreferredNetworkType  int32
	BasebandVersion       string
	EmergencyCallbackMode bool
}

func newRadio(p Profile) *Radio {
	return &Radio{
		State:                 ril.RadioUnavailable,
		Version:               p.RadioVersion,
		PreferredNetworkType:  -1,
		BasebandVersion:       p.BasebandVersion,
		EmergencyCallbackMode: true,
	}
}

// Legacy reports whether responses use the pre-v5 shapes.
func (r *Radio) Legacy() bool {
	return r.Version < 5
}

// On reports whether the radio is powered on.
func (r *Radio) On() bool {
	return r.State == ril.RadioOn
}

// SetPowerState always succeeds. The power transition is reported to the
// client after RadioNotifyDelay.
func (r *Radio) SetPowerState(s ril.RadioState) []Effect {
	r.State = s
	return []Effect{After(RadioNotifyDelay, Notify(ril.UnsolRadioStateChanged))}
}

// ExitEmergencyCallbackMode clears the emergency callback flag.
func (r *Radio) ExitEmergencyCallbackMode() []Effect {
	r.EmergencyCallbackMode = false
	return []Effect{Now(Notify(ril.UnsolExitEmergencyCallbackMode))}
}
