package rest

import "fmt"

// WorkState is the lifecycle state of a WorkUnit.
//
//	Pending -> InFlight -> Succeeded
//	                    -> FatallyFailed
//	                    -> RateLimitedWait -> InFlight
//	                    -> TransientWait   -> InFlight
type WorkState int

const (
	StatePending WorkState = iota
	StateInFlight
	StateRateLimitedWait
	StateTransientWait
	StateSucceeded
	StateFatallyFailed
)

func (s WorkState) String() string {
	switch s {
	case StatePending:
		return "pending"
	case StateInFlight:
		return "in_flight"
	case StateRateLimitedWait:
		return "rate_limited_wait"
	case StateTransientWait:
		return "transient_wait"
	case StateSucceeded:
		return "succeeded"
	case StateFatallyFailed:
		return "fatally_failed"
	default:
		return "unknown"
	}
}

// Terminal reports whether no further transition can happen.
func (s WorkState) Terminal() bool {
	return s == StateSucceeded || s == StateFatallyFailed
}

// Next returns the state following s for a classified outcome.
// It is the single place where transition guards live.
func Next(s WorkState, kind OutcomeKind) WorkState {
	if s != StateInFlight {
		return s
	}
	switch kind {
	case OutcomeSuccess:
		return StateSucceeded
	case OutcomeRateLimited:
		return StateRateLimitedWait
	case OutcomeClientError:
		return StateFatallyFailed
	default:
		return StateTransientWait
	}
}

// WorkUnit is one numbered task driven to completion before the next begins.
type WorkUnit struct {
	Operation string // metric label, e.g. "create_channel"
	Seq       int
	Subject   string // human readable target, e.g. "channel-7"
}

func (u WorkUnit) String() string {
	if u.Subject == "" {
		return fmt.Sprintf("%s #%d", u.Operation, u.Seq)
	}
	return fmt.Sprintf("%s #%d (%s)", u.Operation, u.Seq, u.Subject)
}
