package session

import "github.com/keaganluttrell/lockbox/locker"

// State is the flow state of one kiosk visitor.
type State struct {
	PublicFlow        bool
	SelectedLocker    locker.ID
	RFIDAuthenticated bool
	PinVerified       bool
}

// Reset returns the state to the unauthenticated baseline.
func (s *State) Reset() {
	*s = State{}
}

// Empty reports whether no flag is set.
func (s State) Empty() bool {
	return s == State{}
}

// Phase is the flow position derived from the session flags.
type Phase int

const (
	Idle Phase = iota
	SelectingLocker
	PublicAwaitingTap
	PublicReadyToOpen
	PrivateAwaitingPin
	PrivateAwaitingFingerprint
	Opened
)

var phaseNames = [...]string{
	Idle:                       "idle",
	SelectingLocker:            "selecting_locker",
	PublicAwaitingTap:          "public_awaiting_tap",
	PublicReadyToOpen:          "public_ready_to_open",
	PrivateAwaitingPin:         "private_awaiting_pin",
	PrivateAwaitingFingerprint: "private_awaiting_fingerprint",
	Opened:                     "opened",
}

func (p Phase) String() string {
	if p < 0 || int(p) >= len(phaseNames) {
		return "unknown"
	}
	return phaseNames[p]
}

// Phase derives the flow position from the flags. Opened is never derived:
// the open transition clears the flags and reports it directly.
func (s State) Phase() Phase {
	switch {
	case s.PinVerified:
		return PrivateAwaitingFingerprint
	case s.PublicFlow && s.RFIDAuthenticated && s.SelectedLocker != 0:
		return PublicReadyToOpen
	case s.PublicFlow && s.RFIDAuthenticated:
		return SelectingLocker
	case s.PublicFlow:
		return PublicAwaitingTap
	case s.SelectedLocker != 0:
		return PrivateAwaitingPin
	default:
		return Idle
	}
}
