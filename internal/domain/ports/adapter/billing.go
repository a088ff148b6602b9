package adapter

import (
	"context"

	"github.com/EbenEzer-MOMBO/streaming-payment-gateway/internal/domain/model"
)

// BillingGateway is the hex port for the remote E-Billing provider.
type BillingGateway interface {
	Name() string

	// CreateBill registers a payment request with the provider and returns the
	// bill it assigned. Transport, parse and rejection failures are normalized
	// into the domain error taxonomy.
	CreateBill(ctx context.Context, intent *model.PurchaseIntent) (*model.Bill, error)

	// CheckBillStatus fetches the provider's current settlement state for a
	// bill. Unrecognized state tokens come back as model.BillStateUnknown.
	CheckBillStatus(ctx context.Context, billID string) (model.BillState, error)
}

// PaymentNotification is the payload sent to the downstream collector after a
// bill has been created.
type PaymentNotification struct {
	EventID       string                  `json:"event_id"`
	Bill          *model.Bill             `json:"bill"`
	ServiceID     string                  `json:"service_id"`
	ServiceName   string                  `json:"service_name"`
	BuyerName     string                  `json:"buyer_name"`
	BuyerPhone    string                  `json:"buyer_phone"`
	BuyerEmail    string                  `json:"buyer_email,omitempty"`
	Instrument    model.PaymentInstrument `json:"payment_method"`
	PaymentMSISDN string                  `json:"payment_phone_number"`
	Timestamp     string                  `json:"timestamp"` // ISO-8601
	Status        string                  `json:"status"`    // literal tag, e.g. "payment_initiated"
	SessionToken  string                  `json:"session_token"`
}

// NotificationSink receives best-effort notifications about created bills.
// Implementations must never let a delivery failure reach the caller.
type NotificationSink interface {
	// Notify dispatches the notification. The returned error is advisory only
	// (used for logging by the implementation itself); callers ignore it.
	Notify(ctx context.Context, n *PaymentNotification) error
}
