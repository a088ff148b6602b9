package model

// PaymentInstrument identifies the mobile-money provider the buyer pays with.
type PaymentInstrument string

const (
	InstrumentAirtelMoney PaymentInstrument = "airtel"
	InstrumentMoovMoney   PaymentInstrument = "moov"
)

// GatewayToken returns the payment_system identifier the billing gateway
// expects for this instrument.
func (p PaymentInstrument) GatewayToken() string {
	switch p {
	case InstrumentAirtelMoney:
		return "airtelmoney"
	case InstrumentMoovMoney:
		return "moovmoney1"
	default:
		return ""
	}
}

// DisplayName is the provider name shown to the buyer.
func (p PaymentInstrument) DisplayName() string {
	switch p {
	case InstrumentAirtelMoney:
		return "Airtel Money"
	case InstrumentMoovMoney:
		return "Moov Money"
	default:
		return string(p)
	}
}

// NumberPrefix is the mandatory two-digit prefix of a 9-digit payment number
// for this instrument.
func (p PaymentInstrument) NumberPrefix() string {
	switch p {
	case InstrumentAirtelMoney:
		return "07"
	case InstrumentMoovMoney:
		return "06"
	default:
		return ""
	}
}

// Known reports whether the instrument is one of the supported providers.
func (p PaymentInstrument) Known() bool {
	return p == InstrumentAirtelMoney || p == InstrumentMoovMoney
}

// PurchaseIntent is the fully validated input of a bill creation. It only
// exists once every form check has passed, and Amount is always the catalog
// price for ServiceID, never a value carried over from the page.
type PurchaseIntent struct {
	ServiceID          string
	ServiceName        string
	Amount             int64
	BuyerName          string
	PayerLastName      string // gateway convention: first word of the buyer name
	PayerFirstName     string // remainder, falling back to the whole name
	BuyerPhone         string
	BuyerEmail         string // optional
	Instrument         PaymentInstrument
	PaymentPhoneNumber string
	ExternalReference  string
}

// CheckoutSession carries the per-checkout anti-replay token. It is an
// explicit object passed to the gateway client and the webhook notifier
// rather than ambient storage, so a status check or webhook call can assert
// it matches the value that originated the bill.
type CheckoutSession struct {
	ID        string
	Token     string // signed anti-replay token minted at reference generation
	Reference string // external reference the token is embedded in
	BillID    string // set once the gateway has assigned one
}

// ConfirmationHandoff is the set of navigation parameters the checkout page
// passes to the confirmation page via the query string.
type ConfirmationHandoff struct {
	BillID        string `json:"bill_id"`
	ServiceName   string `json:"service_name"`
	PaymentMethod string `json:"payment_method"`
	PhoneNumber   string `json:"phone_number"`
}
