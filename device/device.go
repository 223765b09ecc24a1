// Package device holds the state machines of a simulated modem slot: radio
// power, network registration, SIM card and locks, and the call list.
//
// Mutations never perform side effects themselves. They return the
// notifications and delayed follow-ups they cause as Effects, which the
// caller schedules or emits.
package device

import "i4.energy/across/fakeril/ril"

// Device is the aggregate state of one simulated slot.
type Device struct {
	Profile Profile

	Radio   *Radio
	Network *Network
	SIM     *SIM
	Calls   *Calls
}

// New builds a device in its power-on state from p.
func New(p Profile) (*Device, error) {
	p, err := p.Normalize()
	if err != nil {
		return nil, err
	}
	return &Device{
		Profile: p,
		Radio:   newRadio(p),
		Network: newNetwork(p),
		SIM:     newSIM(p),
		Calls:   newCalls(),
	}, nil
}

// UpdateNetwork runs one step of the registration machine.
func (d *Device) UpdateNetwork() []Effect {
	next := ResolveRegistrationState(
		d.Network.RegistrationState(),
		d.Radio.On(),
		d.SIM.CardState,
		d.SIM.Locked(),
	)
	return d.Network.SetRegistrationState(next)
}

// Snapshot is a read-only summary of the device.
type Snapshot struct {
	Slot          int            `json:"slot"`
	RadioState    ril.RadioState `json:"radio_state"`
	Registration  ril.RegState   `json:"registration"`
	CardState     ril.CardState  `json:"card_state"`
	AppState      ril.AppState   `json:"app_state"`
	PINRetries    int            `json:"pin_retries"`
	PUKRetries    int            `json:"puk_retries"`
	Calls         []Call         `json:"calls"`
	LastFailCause int32          `json:"last_fail_cause"`
	Emergency     bool           `json:"emergency_callback_mode"`
}

// Snapshot returns the current summary.
func (d *Device) Snapshot() Snapshot {
	return Snapshot{
		Slot:          d.Profile.Slot,
		RadioState:    d.Radio.State,
		Registration:  d.Network.RegistrationState(),
		CardState:     d.SIM.CardState,
		AppState:      d.SIM.AppState,
		PINRetries:    d.SIM.Lock(LockPIN).Retry,
		PUKRetries:    d.SIM.Lock(LockPUK).Retry,
		Calls:         d.Calls.List(),
		LastFailCause: d.Calls.LastFailCause,
		Emergency:     d.Radio.EmergencyCallbackMode,
	}
}
