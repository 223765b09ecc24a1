package device

import "i4.energy/across/fakeril/ril"

// Call is one entry of the active call list.
type Call struct {
	// ID identifies the call for scheduled progress updates. Unlike Index
	// it is never reused.
	ID         uint64        `json:"id"`
	Index      int32         `json:"index"`
	Number     string        `json:"number"`
	State      ril.CallState `json:"state"`
	Multiparty bool          `json:"multiparty"`
}

// Calls is the ordered set of active calls.
type Calls struct {
	calls         []*Call
	lastID        uint64
	LastFailCause int32
}

func newCalls() *Calls {
	return &Calls{LastFailCause: ril.CallFailNormal}
}

func callStateChanged() Effect {
	return After(0, Notify(ril.UnsolCallStateChanged))
}

func progress(id uint64, state ril.CallState) Action {
	return Action{Kind: ActionCallProgress, CallID: id, CallState: state}
}

// Len returns the number of active calls.
func (c *Calls) Len() int {
	return len(c.calls)
}

// List returns a copy of the active calls in creation order.
func (c *Calls) List() []Call {
	out := make([]Call, len(c.calls))
	for i, call := range c.calls {
		out[i] = *call
	}
	return out
}

// Find returns the call with the given ID.
func (c *Calls) Find(id uint64) (Call, bool) {
	for _, call := range c.calls {
		if call.ID == id {
			return *call, true
		}
	}
	return Call{}, false
}

// nextIndex is one more than the highest index in use, or 1.
func (c *Calls) nextIndex() int32 {
	index := int32(1)
	for _, call := range c.calls {
		if call.Index >= index {
			index = call.Index + 1
		}
	}
	return index
}

// Start adds a call from or to number in state. A DIALING call is walked
// through ALERTING to ACTIVE by the returned effects.
func (c *Calls) Start(number string, state ril.CallState) (Call, []Effect) {
	c.lastID++
	call := &Call{
		ID:     c.lastID,
		Index:  c.nextIndex(),
		Number: number,
		State:  state,
	}
	c.calls = append(c.calls, call)

	effects := []Effect{After(0, progress(call.ID, state))}
	if state == ril.CallDialing {
		effects = append(effects,
			After(CallAlertingDelay, progress(call.ID, ril.CallAlerting)),
			After(CallActiveDelay, progress(call.ID, ril.CallActive)),
		)
	}
	return *call, effects
}

// SetState moves the call with the given ID to state. It reports false when
// the call has ended in the meantime.
func (c *Calls) SetState(id uint64, state ril.CallState) bool {
	for _, call := range c.calls {
		if call.ID == id {
			call.State = state
			return true
		}
	}
	return false
}

// Stop removes the call at index, or the first incoming call when index is
// 0, and records cause as the last failure cause.
func (c *Calls) Stop(index int32, cause int32) []Effect {
	for i, call := range c.calls {
		if call.Index == index || (index == 0 && call.State == ril.CallIncoming) {
			c.calls = append(c.calls[:i], c.calls[i+1:]...)
			c.LastFailCause = cause
			break
		}
	}
	c.dissolveConference()
	return []Effect{callStateChanged()}
}

// StopAll removes every call with cause.
func (c *Calls) StopAll(cause int32) []Effect {
	if len(c.calls) > 0 {
		c.calls = nil
		c.LastFailCause = cause
	}
	return []Effect{callStateChanged()}
}

// A conference of one is a plain call.
func (c *Calls) dissolveConference() {
	if len(c.calls) == 1 {
		c.calls[0].Multiparty = false
	}
}

// Answer makes the first incoming call active.
func (c *Calls) Answer() []Effect {
	for _, call := range c.calls {
		if call.State == ril.CallIncoming {
			call.State = ril.CallActive
			break
		}
	}
	return []Effect{callStateChanged()}
}

// Switch puts active calls on hold and activates held and incoming ones.
func (c *Calls) Switch() []Effect {
	for _, call := range c.calls {
		switch call.State {
		case ril.CallActive:
			call.State = ril.CallHolding
		case ril.CallHolding, ril.CallIncoming:
			call.State = ril.CallActive
		}
	}
	return []Effect{callStateChanged()}
}

// Conference joins every call into one active multiparty call.
func (c *Calls) Conference() []Effect {
	for _, call := range c.calls {
		call.State = ril.CallActive
		call.Multiparty = true
	}
	c.dissolveConference()
	return []Effect{callStateChanged()}
}
