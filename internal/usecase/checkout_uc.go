package usecase

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/EbenEzer-MOMBO/streaming-payment-gateway/internal/domain"
	"github.com/EbenEzer-MOMBO/streaming-payment-gateway/internal/domain/model"
	"github.com/EbenEzer-MOMBO/streaming-payment-gateway/internal/domain/ports/adapter"
	"github.com/EbenEzer-MOMBO/streaming-payment-gateway/internal/domain/ports/repository"
)

// CheckoutInput is the raw form submission before any validation.
type CheckoutInput struct {
	ServiceID          string
	BuyerName          string
	BuyerPhone         string
	BuyerEmail         string
	PaymentMethod      string
	PaymentPhoneNumber string
	// DisplayedAmount is the price the page claims to have shown the buyer.
	// Zero means the client did not echo one back. A non-zero value that
	// disagrees with the catalog blocks the submission.
	DisplayedAmount int64
}

// CheckoutResult is what a successful submission hands back: the created bill
// and the parameters the confirmation page is navigated with.
type CheckoutResult struct {
	Bill    *model.Bill
	Session *model.CheckoutSession
	Handoff model.ConfirmationHandoff
}

// CheckoutUseCase validates buyer input, derives the authoritative amount from
// the catalog and drives bill creation against the billing gateway.
type CheckoutUseCase interface {
	Submit(ctx context.Context, in CheckoutInput) (*CheckoutResult, error)
}

var _ CheckoutUseCase = (*checkoutUC)(nil)

type checkoutUC struct {
	catalog     CatalogUseCase
	gateway     adapter.BillingGateway
	refs        adapter.ReferenceGenerator
	sessions    repository.SessionRepository
	notifier   adapter.NotificationSink
	clock      Clock
	payerEmail string // fallback when the buyer leaves email empty
	log        *zerolog.Logger
}

// NewCheckoutUseCase wires the checkout flow. notifier may be nil when no
// downstream collector is configured.
func NewCheckoutUseCase(
	catalog CatalogUseCase,
	gateway adapter.BillingGateway,
	refs adapter.ReferenceGenerator,
	sessions repository.SessionRepository,
	notifier adapter.NotificationSink,
	clock Clock,
	fallbackPayerEmail string,
	logger *zerolog.Logger,
) *checkoutUC {
	return &checkoutUC{
		catalog:    catalog,
		gateway:    gateway,
		refs:       refs,
		sessions:   sessions,
		notifier:   notifier,
		clock:      clock,
		payerEmail: fallbackPayerEmail,
		log:        logger,
	}
}

func (u *checkoutUC) Submit(ctx context.Context, in CheckoutInput) (*CheckoutResult, error) {
	instrument := model.PaymentInstrument(in.PaymentMethod)
	if err := validateInput(in, instrument); err != nil {
		return nil, err
	}

	entry, err := u.catalog.Get(in.ServiceID)
	if err != nil {
		// An unknown service can only mean tampered navigation state; surface
		// it the same way as a doctored price.
		u.log.Warn().Str("service_id", in.ServiceID).Msg("checkout for unknown service blocked")
		return nil, domain.ErrPriceMismatch
	}
	if in.DisplayedAmount != 0 && in.DisplayedAmount != entry.Price {
		u.log.Warn().
			Str("service_id", in.ServiceID).
			Int64("displayed", in.DisplayedAmount).
			Int64("official", entry.Price).
			Msg("price tampering attempt blocked")
		return nil, domain.ErrPriceMismatch
	}

	session := &model.CheckoutSession{ID: uuid.NewString()}
	reference, token, err := u.refs.Generate(session.ID)
	if err != nil {
		return nil, fmt.Errorf("generate external reference: %w", err)
	}
	session.Reference = reference
	session.Token = token

	lastName, firstName := splitBuyerName(in.BuyerName)
	intent := &model.PurchaseIntent{
		ServiceID:          entry.ID,
		ServiceName:        entry.Name,
		Amount:             entry.Price,
		BuyerName:          strings.TrimSpace(in.BuyerName),
		PayerLastName:      lastName,
		PayerFirstName:     firstName,
		BuyerPhone:         cleanPhone(in.BuyerPhone),
		BuyerEmail:         strings.TrimSpace(in.BuyerEmail),
		Instrument:         instrument,
		PaymentPhoneNumber: cleanPhone(in.PaymentPhoneNumber),
		ExternalReference:  reference,
	}
	if intent.BuyerEmail == "" {
		intent.BuyerEmail = u.payerEmail
	}

	bill, err := u.gateway.CreateBill(ctx, intent)
	if err != nil {
		return nil, err
	}
	// The gateway must never silently settle a different amount than the one
	// requested.
	if bill.Amount != intent.Amount {
		u.log.Error().
			Str("bill_id", bill.BillID).
			Int64("requested", intent.Amount).
			Int64("returned", bill.Amount).
			Msg("gateway returned a bill with a different amount")
		return nil, fmt.Errorf("%w: bill amount %d differs from requested %d",
			domain.ErrGatewayRejected, bill.Amount, intent.Amount)
	}

	session.BillID = bill.BillID
	if err := u.sessions.Save(ctx, session); err != nil {
		// The bill exists at the gateway; losing the session only weakens the
		// replay assertion, so log and continue.
		u.log.Error().Err(err).Str("session_id", session.ID).Msg("save checkout session failed")
	}

	u.notify(ctx, bill, entry, intent, session)

	u.log.Info().
		Str("bill_id", bill.BillID).
		Str("service_id", entry.ID).
		Str("reference", reference).
		Int64("amount", bill.Amount).
		Msg("bill created")

	return &CheckoutResult{
		Bill:    bill,
		Session: session,
		Handoff: model.ConfirmationHandoff{
			BillID:        bill.BillID,
			ServiceName:   entry.Name,
			PaymentMethod: string(instrument),
			PhoneNumber:   intent.PaymentPhoneNumber,
		},
	}, nil
}

// notify dispatches the best-effort downstream notification. Failures are the
// notifier's problem; nothing here may change the checkout outcome.
func (u *checkoutUC) notify(ctx context.Context, bill *model.Bill, entry *model.ServiceCatalogEntry, intent *model.PurchaseIntent, session *model.CheckoutSession) {
	if u.notifier == nil {
		return
	}
	n := &adapter.PaymentNotification{
		EventID:       uuid.NewString(),
		Bill:          bill,
		ServiceID:     entry.ID,
		ServiceName:   entry.Name,
		BuyerName:     intent.BuyerName,
		BuyerPhone:    intent.BuyerPhone,
		BuyerEmail:    intent.BuyerEmail,
		Instrument:    intent.Instrument,
		PaymentMSISDN: intent.PaymentPhoneNumber,
		Timestamp:     u.clock.Now().UTC().Format(time.RFC3339),
		Status:        "payment_initiated",
		SessionToken:  session.Token,
	}
	if err := u.notifier.Notify(ctx, n); err != nil {
		u.log.Warn().Err(err).Str("bill_id", bill.BillID).Msg("downstream notification failed")
	}
}

var nonPhoneChars = regexp.MustCompile(`[^\d+]`)

func cleanPhone(s string) string {
	return nonPhoneChars.ReplaceAllString(s, "")
}

func validateInput(in CheckoutInput, instrument model.PaymentInstrument) error {
	if strings.TrimSpace(in.BuyerName) == "" {
		return &domain.ValidationError{Field: "name", Reason: "name is required"}
	}

	phone := cleanPhone(in.BuyerPhone)
	if phone == "" {
		return &domain.ValidationError{Field: "phone", Reason: "phone number is required"}
	}
	if len(strings.TrimPrefix(phone, "+")) < 9 {
		return &domain.ValidationError{Field: "phone", Reason: "phone number must have at least 9 digits"}
	}
	if !strings.HasPrefix(phone, "0") && !strings.HasPrefix(phone, "+241") && !strings.HasPrefix(phone, "241") {
		return &domain.ValidationError{Field: "phone", Reason: "phone number must start with 0, +241 or 241"}
	}

	if email := strings.TrimSpace(in.BuyerEmail); email != "" && !strings.Contains(email, "@") {
		return &domain.ValidationError{Field: "email", Reason: "email address is invalid"}
	}

	if !instrument.Known() {
		return &domain.ValidationError{Field: "payment_method", Reason: "unsupported payment method"}
	}

	payNum := cleanPhone(in.PaymentPhoneNumber)
	if payNum == "" {
		return &domain.ValidationError{Field: "payment_phone_number", Reason: "payment number is required"}
	}
	if !validPaymentNumber(payNum, instrument) {
		return &domain.ValidationError{
			Field: "payment_phone_number",
			Reason: fmt.Sprintf("%s number must match the format %sXXXXXXX (9 digits)",
				instrument.DisplayName(), instrument.NumberPrefix()),
		}
	}
	return nil
}

// validPaymentNumber enforces the provider numbering plan: 9 digits starting
// with the instrument's mandatory prefix.
func validPaymentNumber(num string, instrument model.PaymentInstrument) bool {
	if len(num) != 9 || !strings.HasPrefix(num, instrument.NumberPrefix()) {
		return false
	}
	for _, r := range num {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// splitBuyerName mirrors the gateway payload convention: first word is the
// last name, the remainder the first name, falling back to the whole name.
func splitBuyerName(full string) (lastName, firstName string) {
	parts := strings.Fields(strings.TrimSpace(full))
	if len(parts) == 0 {
		return "", ""
	}
	lastName = parts[0]
	firstName = strings.Join(parts[1:], " ")
	if firstName == "" {
		firstName = lastName
	}
	return lastName, firstName
}
