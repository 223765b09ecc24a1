package device

import (
	"strconv"

	"i4.energy/across/fakeril/ril"
)

// LockType names one of the SIM's code locks.
type LockType int

const (
	LockPIN LockType = iota
	LockPUK
	LockPIN2
	LockPUK2
)

func (t LockType) String() string {
	switch t {
	case LockPIN:
		return "pin"
	case LockPUK:
		return "puk"
	case LockPIN2:
		return "pin2"
	case LockPUK2:
		return "puk2"
	default:
		return "lock(" + strconv.Itoa(int(t)) + ")"
	}
}

// Lock is the code and retry accounting of one lock type.
type Lock struct {
	Code         string
	Retry        int
	DefaultRetry int
	// AppState is the application state while this lock is engaged.
	AppState ril.AppState
	// NextAppState is entered when Retry runs out.
	NextAppState ril.AppState
}

// Enabled reports whether the lock can ever be engaged.
func (l *Lock) Enabled() bool {
	return l.AppState != ril.AppStateNone
}

// FileKey addresses one canned SIM_IO answer.
type FileKey struct {
	FileID  int32
	Command int32
}

// SIM is the virtual card: presence, lock phase and elementary files.
type SIM struct {
	CardState ril.CardState
	AppState  ril.AppState

	IMSI  string
	AID   string
	Label string

	// Files maps (file id, SIM_IO command) to the hex payload returned.
	Files map[FileKey]string

	locks [4]*Lock
}

func newSIM(p Profile) *SIM {
	s := strconv.Itoa(p.Slot)
	return &SIM{
		CardState: ril.CardAbsent,
		AppState:  ril.AppStatePIN,
		IMSI:      p.IMSI,
		AID:       "sim:aa:" + s,
		Label:     "sim:bb:" + s,
		Files:     defaultFiles(p.ICCID),
		locks: [4]*Lock{
			LockPIN: {
				Code:         p.PIN,
				Retry:        p.PINRetries,
				DefaultRetry: p.PINRetries,
				AppState:     ril.AppStatePIN,
				NextAppState: ril.AppStatePUK,
			},
			LockPUK: {
				Code:         p.PUK,
				Retry:        p.PUKRetries,
				DefaultRetry: p.PUKRetries,
				AppState:     ril.AppStatePUK,
				NextAppState: ril.AppStateIllegal,
			},
			LockPIN2: disabledLock(),
			LockPUK2: disabledLock(),
		},
	}
}

func disabledLock() *Lock {
	return &Lock{
		Retry:        -1,
		DefaultRetry: -1,
		AppState:     ril.AppStateNone,
		NextAppState: ril.AppStateNone,
	}
}

func defaultFiles(iccid string) map[FileKey]string {
	return map[FileKey]string{
		{ril.EFICCID, ril.ICCCommandGetResponse}: "0000000a2fe2040000000005020000",
		{ril.EFICCID, ril.ICCCommandReadBinary}:  iccid,
		{ril.EFAD, ril.ICCCommandGetResponse}:    "000000046fad04000aa0aa01020000",
		{ril.EFAD, ril.ICCCommandReadBinary}:     "00000002",
		{ril.EFSST, ril.ICCCommandGetResponse}:   "0000000a6f38040000000005020000",
		// Enabled: 1..4, 7, 9..19, 25..27, 29, 30, 38, 51..56
		{ril.EFSST, ril.ICCCommandReadBinary}:   "ff30ffff3f003f0f000c0000f0ff00",
		{ril.EFMWIS, ril.ICCCommandGetResponse}: "000000196fca040000000005020105",
		// One voicemail
		{ril.EFMWIS, ril.ICCCommandReadRecord}: "ff0100000000000000000000000000",
	}
}

// Lock returns the lock record of type t, or nil for an unknown type.
func (s *SIM) Lock(t LockType) *Lock {
	if t < 0 || int(t) >= len(s.locks) {
		return nil
	}
	return s.locks[t]
}

// Present reports whether a card is inserted.
func (s *SIM) Present() bool {
	return s.CardState == ril.CardPresent
}

// Locked reports whether the application is waiting for any code.
func (s *SIM) Locked() bool {
	for _, l := range s.locks {
		if l.Enabled() && s.AppState == l.AppState {
			return true
		}
	}
	return false
}

func (s *SIM) setAppState(state ril.AppState) []Effect {
	s.AppState = state
	return []Effect{After(SIMNotifyDelay, Notify(ril.UnsolSIMStatusChanged))}
}

// Engage resets the retry counter of lock t and puts the application in
// the lock's state.
func (s *SIM) Engage(t LockType) []Effect {
	l := s.Lock(t)
	if l == nil || !l.Enabled() {
		return nil
	}
	l.Retry = l.DefaultRetry
	return s.setAppState(l.AppState)
}

// Unlock attempts to open lock t with code. Attempts against a lock that is
// not the one currently engaged fail without touching any counter. A
// matching code makes the application READY and leaves the retry counter
// as it is. A wrong code costs one retry; the last one escalates the
// application to the lock's NextAppState, engaging the next lock with its
// full retry count when there is one.
func (s *SIM) Unlock(t LockType, code string) (bool, []Effect) {
	l := s.Lock(t)
	if l == nil || !l.Enabled() || s.AppState != l.AppState {
		return false, nil
	}

	if code == l.Code {
		return true, s.setAppState(ril.AppStateReady)
	}

	l.Retry--
	if l.Retry > 0 {
		return false, s.setAppState(l.AppState)
	}

	l.Retry = 0
	for i, next := range s.locks {
		if next.Enabled() && next.AppState == l.NextAppState {
			return false, s.Engage(LockType(i))
		}
	}
	return false, s.setAppState(l.NextAppState)
}

// ChangeCode replaces the code of lock t and restores its retry counter.
func (s *SIM) ChangeCode(t LockType, code string) {
	if l := s.Lock(t); l != nil && l.Enabled() {
		l.Code = code
		l.Retry = l.DefaultRetry
	}
}

// SetCardState moves the card to state. Only ABSENT, PRESENT and ERROR are
// accepted, and setting the current state again is a no-op. Inserting a
// card re-arms the PIN lock. Accepted changes are reported as SIM status
// and network state notifications after SIMNotifyDelay.
func (s *SIM) SetCardState(state ril.CardState) ([]Effect, bool) {
	switch state {
	case ril.CardAbsent, ril.CardPresent, ril.CardError:
	default:
		return nil, false
	}
	if state == s.CardState {
		return nil, true
	}

	old := s.CardState
	s.CardState = state

	effects := []Effect{
		After(SIMNotifyDelay, Notify(ril.UnsolSIMStatusChanged)),
		After(SIMNotifyDelay, Notify(ril.UnsolVoiceNetworkStateChanged)),
	}
	if old == ril.CardAbsent && state == ril.CardPresent {
		effects = append(effects, s.Engage(LockPIN)...)
	}
	return effects, true
}

// Status returns the integer part of the GET_SIM_STATUS answer. The legacy
// layout has no IMS application index.
func (s *SIM) Status(legacy bool) []int32 {
	if legacy {
		return []int32{
			int32(s.CardState),
			ril.PINStateDisabled,
			0, // GSM/UMTS application index
			0, // CDMA application index
			1, // number of applications
			ril.AppTypeSIM,
			int32(s.AppState),
			ril.PersoSubstateReady,
		}
	}
	return []int32{
		int32(s.CardState),
		ril.PINStateDisabled,
		0, // GSM/UMTS application index
		0, // CDMA application index
		0, // IMS application index
		1, // number of applications
		ril.AppTypeSIM,
		int32(s.AppState),
		ril.PersoSubstateReady,
	}
}

// ReadFile returns the canned payload for a SIM_IO command on fileID.
func (s *SIM) ReadFile(fileID, command int32) (string, bool) {
	payload, ok := s.Files[FileKey{FileID: fileID, Command: command}]
	return payload, ok
}
