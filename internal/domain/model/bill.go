package model

import "time"

// BillState is the gateway's authoritative settlement status for a bill.
type BillState string

const (
	BillStateReady     BillState = "ready"     // bill exists, payer has not acted yet
	BillStatePending   BillState = "pending"   // payer confirmation in flight
	BillStatePaid      BillState = "paid"      // settled
	BillStateProcessed BillState = "processed" // settled and handed off downstream
	BillStateUnknown   BillState = "unknown"   // any token outside the known set
)

// Settled reports whether the state counts as a completed payment.
func (s BillState) Settled() bool {
	return s == BillStatePaid || s == BillStateProcessed
}

// Open reports whether the state means the payer can still complete the
// payment, i.e. polling should continue.
func (s BillState) Open() bool {
	return s == BillStateReady || s == BillStatePending
}

// ParseBillState maps a raw gateway token to a BillState. Tokens outside the
// known set collapse to BillStateUnknown rather than erroring here; the
// lifecycle decides what an unknown state means.
func ParseBillState(raw string) BillState {
	switch BillState(raw) {
	case BillStateReady, BillStatePending, BillStatePaid, BillStateProcessed:
		return BillState(raw)
	default:
		return BillStateUnknown
	}
}

// Bill is the gateway-side record of a requested payment. Everything except
// State is fixed at creation; State is refreshed by polling.
type Bill struct {
	BillID            string
	PayerEmail        string
	PayerMSISDN       string
	Amount            int64
	Currency          string
	State             BillState
	CreatedAt         time.Time
	ShortDescription  string
	DueDate           string
	ExternalReference string
	PayerName         string
	PayeeID           string
	PayeeName         string
}
