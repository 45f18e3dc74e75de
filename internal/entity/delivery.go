package entity

import "time"

// DeliveryState is the state of one webhook delivery job.
type DeliveryState string

const (
	DeliveryPending  DeliveryState = "PENDING"
	DeliveryRetrying DeliveryState = "RETRYING"
	DeliverySuccess  DeliveryState = "SUCCESS"
	DeliveryFailed   DeliveryState = "FAILED"
)

// Terminal reports whether no further transition is allowed.
func (s DeliveryState) Terminal() bool {
	return s == DeliverySuccess || s == DeliveryFailed
}

// DeliveryTransition records one state change.
type DeliveryTransition struct {
	From    DeliveryState `json:"from"`
	To      DeliveryState `json:"to"`
	Attempt int           `json:"attempt"`
	At      time.Time     `json:"at"`
}

// DeliveryAttempt tracks the delivery of one Result to one endpoint.
type DeliveryAttempt struct {
	Result         Result
	Endpoint       string
	AttemptNumber  int
	IdempotencyKey string
	State          DeliveryState
	LastError      string
	Transitions    []DeliveryTransition
}

// NewDeliveryAttempt starts a delivery job in the Pending state.
func NewDeliveryAttempt(result Result, endpoint string) *DeliveryAttempt {
	return &DeliveryAttempt{
		Result:         result,
		Endpoint:       endpoint,
		IdempotencyKey: result.IdempotencyKey(),
		State:          DeliveryPending,
	}
}

// Transition moves the job to state. Transitions out of a terminal state are
// ignored and reported as false.
func (a *DeliveryAttempt) Transition(to DeliveryState, at time.Time) bool {
	if a.State.Terminal() {
		return false
	}
	switch a.State {
	case DeliveryPending:
		if to != DeliverySuccess && to != DeliveryRetrying && to != DeliveryFailed {
			return false
		}
	case DeliveryRetrying:
		if to != DeliveryPending {
			return false
		}
	}
	a.Transitions = append(a.Transitions, DeliveryTransition{From: a.State, To: to, Attempt: a.AttemptNumber, At: at})
	a.State = to
	return true
}

// CountTransitionsTo returns how many times the job entered state.
func (a *DeliveryAttempt) CountTransitionsTo(state DeliveryState) int {
	n := 0
	for _, t := range a.Transitions {
		if t.To == state {
			n++
		}
	}
	return n
}
