package device

import (
	"time"

	"i4.energy/across/fakeril/ril"
)

// Delays modelling hardware latency.
const (
	RadioNotifyDelay   = time.Second
	SIMNotifyDelay     = 500 * time.Millisecond
	CallAlertingDelay  = time.Second
	CallActiveDelay    = 3 * time.Second
	IncomingCallDelay  = 500 * time.Millisecond
	NetworkPollPeriod  = 3 * time.Second
	SignalReportPeriod = 10 * time.Second
)

// ActionKind selects what a scheduled Action does when it falls due.
type ActionKind int

const (
	// ActionNotify emits the unsolicited notification in Notification.
	ActionNotify ActionKind = iota
	// ActionCallProgress moves the call identified by CallID to CallState
	// and emits a call state notification.
	ActionCallProgress
	// ActionRadioPower sets the radio power state to RadioState.
	ActionRadioPower
	// ActionNetworkUpdate runs one step of the registration machine.
	ActionNetworkUpdate
	// ActionIncomingCall starts an incoming call from Number.
	ActionIncomingCall
	// ActionCardState sets the SIM card state to CardState.
	ActionCardState
)

func (k ActionKind) String() string {
	switch k {
	case ActionNotify:
		return "notify"
	case ActionCallProgress:
		return "call-progress"
	case ActionRadioPower:
		return "radio-power"
	case ActionNetworkUpdate:
		return "network-update"
	case ActionIncomingCall:
		return "incoming-call"
	case ActionCardState:
		return "card-state"
	default:
		return "unknown"
	}
}

// Action describes a unit of deferred work without capturing any state.
// Only the fields relevant to Kind are set.
type Action struct {
	Kind         ActionKind
	Notification ril.Unsolicited
	CallID       uint64
	CallState    ril.CallState
	RadioState   ril.RadioState
	CardState    ril.CardState
	Number       string
}

// Notify returns an action emitting the notification u.
func Notify(u ril.Unsolicited) Action {
	return Action{Kind: ActionNotify, Notification: u}
}

// Effect is a side effect requested by a state mutation. The caller owns
// the scheduler and decides how to carry it out.
type Effect struct {
	Action Action
	// Delay before the action fires.
	Delay time.Duration
	// Every, when positive, repeats the action at that interval.
	Every time.Duration
	// Sync requests the action be applied immediately, ahead of the
	// response to the request that caused it.
	Sync bool
}

// Now returns an effect applied synchronously.
func Now(a Action) Effect {
	return Effect{Action: a, Sync: true}
}

// After returns an effect scheduled d from now.
func After(d time.Duration, a Action) Effect {
	return Effect{Action: a, Delay: d}
}

// Every returns an effect first scheduled d from now and repeated every d.
func Every(d time.Duration, a Action) Effect {
	return Effect{Action: a, Delay: d, Every: d}
}
