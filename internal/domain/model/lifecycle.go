package model

import "time"

// LifecyclePhase is the confirmation-side view of a payment in flight.
type LifecyclePhase string

const (
	PhaseLoading   LifecyclePhase = "loading"   // handoff parameters not resolved yet
	PhasePending   LifecyclePhase = "pending"   // awaiting settlement, countdown active
	PhaseConfirmed LifecyclePhase = "confirmed" // terminal success
	PhaseFailed    LifecyclePhase = "failed"    // terminal error, Reason set
)

// Terminal reports whether no further transitions are possible.
func (p LifecyclePhase) Terminal() bool {
	return p == PhaseConfirmed || p == PhaseFailed
}

// FailureReason classifies why a confirmation ended in PhaseFailed.
type FailureReason string

const (
	FailureNone              FailureReason = ""
	FailureMissingBillID     FailureReason = "missing_bill_id"
	FailureUnknownState      FailureReason = "unknown_state"
	FailureMalformedResponse FailureReason = "malformed_response"
	FailureCheckError        FailureReason = "check_error"
)

// LifecycleSnapshot is a point-in-time view of a confirmation watcher,
// consumed by the confirmation surface. It carries everything the UI needs
// to render a stage; the surface adds no decision logic of its own.
type LifecycleSnapshot struct {
	Phase              LifecyclePhase
	Reason             FailureReason
	BillID             string
	ServiceName        string
	Instrument         PaymentInstrument
	PaymentPhoneNumber string
	CountdownRemaining time.Duration // time left in the confirmation window
	ChecksIssued       int           // status checks performed so far
	Cancelled          bool          // user abandoned from Pending
}
