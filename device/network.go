package device

import (
	"strconv"

	"i4.energy/across/fakeril/ril"
)

// Network is the registration and operator state of the simulated cell.
// Voice and data registration always move together.
type Network struct {
	VoiceRegState ril.RegState
	DataRegState  ril.RegState
	RadioTech     int32
	LAC           string
	CID           string
	ShortName     string
	LongName      string
	MCC           string
	MNC           string
	SMSC          string
	CLIRMode      int32
}

func newNetwork(p Profile) *Network {
	return &Network{
		VoiceRegState: ril.RegUnknown,
		DataRegState:  ril.RegUnknown,
		RadioTech:     p.RadioTech,
		LAC:           p.LAC,
		CID:           p.CID,
		ShortName:     p.OperatorShort,
		LongName:      p.OperatorLong,
		MCC:           p.MCC,
		MNC:           p.MNC,
		SMSC:          p.SMSC,
		CLIRMode:      ril.CLIRDefault,
	}
}

// RegistrationState returns the common voice and data registration state.
func (n *Network) RegistrationState() ril.RegState {
	return n.VoiceRegState
}

// SetRegistrationState updates voice and data registration together and
// reports the change immediately.
func (n *Network) SetRegistrationState(s ril.RegState) []Effect {
	n.VoiceRegState = s
	n.DataRegState = s
	return []Effect{Now(Notify(ril.UnsolVoiceNetworkStateChanged))}
}

// VoiceRegistration returns the string list answered to
// VOICE_REGISTRATION_STATE.
func (n *Network) VoiceRegistration() []string {
	return []string{
		strconv.Itoa(int(n.VoiceRegState)),
		n.LAC,
		n.CID,
		strconv.Itoa(int(n.RadioTech)),
		"", "", "", "", "", "", "", "", "",
		"0",
		"fff",
	}
}

// DataRegistration returns the string list answered to
// DATA_REGISTRATION_STATE.
func (n *Network) DataRegistration() []string {
	return []string{
		strconv.Itoa(int(n.DataRegState)),
		n.LAC,
		n.CID,
		strconv.Itoa(int(n.RadioTech)),
		"",
		"1",
	}
}

// Operator returns the long name, short name and numeric PLMN.
func (n *Network) Operator() []string {
	return []string{n.LongName, n.ShortName, n.MCC + n.MNC}
}

// NextRegistrationState is one step of the registration machine while the
// radio is on and a card is present.
func NextRegistrationState(current ril.RegState, simLocked bool) ril.RegState {
	switch current {
	case ril.RegNotSearching, ril.RegNotSearchingEmergency:
		if simLocked {
			return ril.RegSearchingEmergency
		}
		return ril.RegSearching
	case ril.RegSearching, ril.RegSearchingEmergency:
		if simLocked {
			return ril.RegSearchingEmergency
		}
		return ril.RegRegisteredHome
	case ril.RegRegisteredHome, ril.RegRegisteredRoaming:
		if simLocked {
			return ril.RegDenied
		}
		return current
	case ril.RegUnknown:
		if simLocked {
			return ril.RegNotSearchingEmergency
		}
		return ril.RegNotSearching
	default:
		// DENIED and anything unexpected restart from UNKNOWN.
		return ril.RegUnknown
	}
}

// ResolveRegistrationState applies the radio and card overrides on top of
// NextRegistrationState. A radio that is not on never searches; a missing
// card only allows emergency calls.
func ResolveRegistrationState(current ril.RegState, radioOn bool, cardState ril.CardState, simLocked bool) ril.RegState {
	if !radioOn {
		return ril.RegNotSearching
	}
	if cardState != ril.CardPresent {
		return ril.RegNotSearchingEmergency
	}
	return NextRegistrationState(current, simLocked)
}
