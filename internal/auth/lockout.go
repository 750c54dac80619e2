package auth

import "time"

// LockoutAction is the outcome of evaluating a failed-attempt count
type LockoutAction int

const (
	LockoutContinue LockoutAction = iota
	LockoutTemporary
	LockoutPermanent
)

func (a LockoutAction) String() string {
	switch a {
	case LockoutTemporary:
		return "temporary_lock"
	case LockoutPermanent:
		return "permanent_block"
	default:
		return "continue"
	}
}

// LockoutDecision carries the action and, for lock actions, how long the
// temporary lock lasts. A permanent block also sets a temporary lock.
type LockoutDecision struct {
	Action       LockoutAction
	LockDuration time.Duration
}

// Locks reports whether the decision sets a temporary lock
func (d LockoutDecision) Locks() bool {
	return d.Action == LockoutTemporary || d.Action == LockoutPermanent
}

// Blocks reports whether the decision permanently blocks the account
func (d LockoutDecision) Blocks() bool {
	return d.Action == LockoutPermanent
}

// LockoutPolicy decides what a failed password comparison does to an account
type LockoutPolicy struct {
	LockThreshold  int
	BlockThreshold int
	LockDuration   time.Duration
}

// DefaultLockoutPolicy locks for 30 minutes at 5 failures and blocks at 10
func DefaultLockoutPolicy() LockoutPolicy {
	return LockoutPolicy{
		LockThreshold:  5,
		BlockThreshold: 10,
		LockDuration:   30 * time.Minute,
	}
}

// Decide evaluates attempts, the failure count including the current failure
func (p LockoutPolicy) Decide(attempts int) LockoutDecision {
	switch {
	case attempts >= p.BlockThreshold:
		return LockoutDecision{Action: LockoutPermanent, LockDuration: p.LockDuration}
	case attempts >= p.LockThreshold:
		return LockoutDecision{Action: LockoutTemporary, LockDuration: p.LockDuration}
	default:
		return LockoutDecision{Action: LockoutContinue}
	}
}
