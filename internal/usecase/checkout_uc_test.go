//go:build !integration

package usecase

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/EbenEzer-MOMBO/streaming-payment-gateway/internal/domain"
	"github.com/EbenEzer-MOMBO/streaming-payment-gateway/internal/domain/model"
)

type checkoutDeps struct {
	gateway  *MockBillingGateway
	sessions *memSessionRepo
	notifier *MockNotifier
	refs     *MockReferenceGenerator
}

func newCheckoutDeps() *checkoutDeps {
	return &checkoutDeps{
		gateway:  &MockBillingGateway{},
		sessions: newMemSessionRepo(),
		notifier: &MockNotifier{},
		refs:     &MockReferenceGenerator{},
	}
}

func (d *checkoutDeps) uc() CheckoutUseCase {
	return NewCheckoutUseCase(
		testCatalog(), d.gateway, d.refs, d.sessions, d.notifier,
		newFakeClock(), "fallback@example.com", newTestLogger(),
	)
}

func validInput() CheckoutInput {
	return CheckoutInput{
		ServiceID:          "netflix",
		BuyerName:          "Mombo Eben",
		BuyerPhone:         "074 12 34 56",
		PaymentMethod:      "airtel",
		PaymentPhoneNumber: "071234567",
	}
}

func TestCheckoutUseCase_Submit(t *testing.T) {
	ctx := context.Background()

	t.Run("creates a bill with the official catalog price", func(t *testing.T) {
		deps := newCheckoutDeps()

		var sentIntent *model.PurchaseIntent
		deps.gateway.CreateBillFunc = func(ctx context.Context, intent *model.PurchaseIntent) (*model.Bill, error) {
			sentIntent = intent
			return &model.Bill{BillID: "bill-42", Amount: intent.Amount, Currency: "XAF", State: model.BillStateReady}, nil
		}

		result, err := deps.uc().Submit(ctx, validInput())
		if err != nil {
			t.Fatalf("expected no error, got: %v", err)
		}
		if sentIntent == nil {
			t.Fatal("expected the gateway to receive an intent")
		}
		if sentIntent.Amount != 2500 {
			t.Errorf("intent amount = %d, want the official price 2500", sentIntent.Amount)
		}
		if sentIntent.PayerLastName != "Mombo" || sentIntent.PayerFirstName != "Eben" {
			t.Errorf("name split = (%q, %q), want (Mombo, Eben)", sentIntent.PayerLastName, sentIntent.PayerFirstName)
		}
		if sentIntent.BuyerEmail != "fallback@example.com" {
			t.Errorf("empty buyer email should fall back, got %q", sentIntent.BuyerEmail)
		}
		if result.Handoff.BillID != "bill-42" || result.Handoff.ServiceName != "Netflix" {
			t.Errorf("unexpected handoff: %+v", result.Handoff)
		}
	})

	t.Run("blocks a tampered displayed amount without any network call", func(t *testing.T) {
		deps := newCheckoutDeps()
		in := validInput()
		in.DisplayedAmount = 100 // the page claims a doctored price

		_, err := deps.uc().Submit(ctx, in)
		if !errors.Is(err, domain.ErrPriceMismatch) {
			t.Fatalf("expected ErrPriceMismatch, got %v", err)
		}
		if deps.gateway.CreateCalls() != 0 {
			t.Errorf("expected zero gateway calls, got %d", deps.gateway.CreateCalls())
		}
	})

	t.Run("blocks an unknown service id the same way as a doctored price", func(t *testing.T) {
		deps := newCheckoutDeps()
		in := validInput()
		in.ServiceID = "disney"

		_, err := deps.uc().Submit(ctx, in)
		if !errors.Is(err, domain.ErrPriceMismatch) {
			t.Fatalf("expected ErrPriceMismatch, got %v", err)
		}
		if deps.gateway.CreateCalls() != 0 {
			t.Errorf("expected zero gateway calls, got %d", deps.gateway.CreateCalls())
		}
	})

	t.Run("rejects a bill whose amount differs from the requested one", func(t *testing.T) {
		deps := newCheckoutDeps()
		deps.gateway.CreateBillFunc = func(ctx context.Context, intent *model.PurchaseIntent) (*model.Bill, error) {
			return &model.Bill{BillID: "bill-43", Amount: intent.Amount + 500}, nil
		}

		_, err := deps.uc().Submit(ctx, validInput())
		if !errors.Is(err, domain.ErrGatewayRejected) {
			t.Fatalf("expected ErrGatewayRejected, got %v", err)
		}
	})

	t.Run("propagates gateway failures untouched", func(t *testing.T) {
		deps := newCheckoutDeps()
		deps.gateway.CreateBillFunc = func(ctx context.Context, intent *model.PurchaseIntent) (*model.Bill, error) {
			return nil, &domain.TransportError{Status: 503}
		}

		_, err := deps.uc().Submit(ctx, validInput())
		var te *domain.TransportError
		if !errors.As(err, &te) || te.Status != 503 {
			t.Fatalf("expected TransportError{503}, got %v", err)
		}
	})

	t.Run("stores the session keyed by the new bill", func(t *testing.T) {
		deps := newCheckoutDeps()

		result, err := deps.uc().Submit(ctx, validInput())
		if err != nil {
			t.Fatalf("expected no error, got: %v", err)
		}
		stored, err := deps.sessions.FindByBillID(ctx, result.Bill.BillID)
		if err != nil {
			t.Fatalf("expected a stored session, got: %v", err)
		}
		if stored.Token != result.Session.Token {
			t.Error("stored session token differs from the returned one")
		}
	})

	t.Run("notifies the downstream collector with the session token", func(t *testing.T) {
		deps := newCheckoutDeps()

		result, err := deps.uc().Submit(ctx, validInput())
		if err != nil {
			t.Fatalf("expected no error, got: %v", err)
		}
		sent := deps.notifier.Sent()
		if len(sent) != 1 {
			t.Fatalf("expected 1 notification, got %d", len(sent))
		}
		n := sent[0]
		if n.Status != "payment_initiated" {
			t.Errorf("notification status = %q", n.Status)
		}
		if n.SessionToken != result.Session.Token {
			t.Error("notification carries a different session token")
		}
		if n.Bill == nil || n.Bill.BillID != result.Bill.BillID {
			t.Error("notification carries the wrong bill")
		}
	})

	t.Run("a failing notifier does not affect the checkout outcome", func(t *testing.T) {
		deps := newCheckoutDeps()
		deps.notifier.NotifyFn = func(ctx context.Context) error {
			return errors.New("collector down")
		}

		if _, err := deps.uc().Submit(ctx, validInput()); err != nil {
			t.Fatalf("expected no error despite notifier failure, got: %v", err)
		}
	})
}

func TestCheckoutUseCase_Validation(t *testing.T) {
	ctx := context.Background()

	cases := []struct {
		name   string
		mutate func(*CheckoutInput)
		field  string
	}{
		{"missing name", func(in *CheckoutInput) { in.BuyerName = " " }, "name"},
		{"missing phone", func(in *CheckoutInput) { in.BuyerPhone = "" }, "phone"},
		{"short phone", func(in *CheckoutInput) { in.BuyerPhone = "07412" }, "phone"},
		{"foreign phone", func(in *CheckoutInput) { in.BuyerPhone = "330612345678" }, "phone"},
		{"bad email", func(in *CheckoutInput) { in.BuyerEmail = "not-an-email" }, "email"},
		{"unknown instrument", func(in *CheckoutInput) { in.PaymentMethod = "orange" }, "payment_method"},
		{"missing payment number", func(in *CheckoutInput) { in.PaymentPhoneNumber = "" }, "payment_phone_number"},
		{"airtel number with moov prefix", func(in *CheckoutInput) { in.PaymentPhoneNumber = "061234567" }, "payment_phone_number"},
		{"payment number too long", func(in *CheckoutInput) { in.PaymentPhoneNumber = "0712345678" }, "payment_phone_number"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			deps := newCheckoutDeps()
			in := validInput()
			tc.mutate(&in)

			_, err := deps.uc().Submit(ctx, in)
			var ve *domain.ValidationError
			if !errors.As(err, &ve) {
				t.Fatalf("expected a ValidationError, got %v", err)
			}
			if ve.Field != tc.field {
				t.Errorf("validation field = %q, want %q", ve.Field, tc.field)
			}
			if deps.gateway.CreateCalls() != 0 {
				t.Errorf("validation failures must not reach the gateway, got %d calls", deps.gateway.CreateCalls())
			}
		})
	}

	t.Run("moov number with moov prefix passes", func(t *testing.T) {
		deps := newCheckoutDeps()
		in := validInput()
		in.PaymentMethod = "moov"
		in.PaymentPhoneNumber = "06 123 45 67"

		if _, err := deps.uc().Submit(ctx, in); err != nil {
			t.Fatalf("expected no error, got: %v", err)
		}
	})

	t.Run("instrument-specific message names the provider format", func(t *testing.T) {
		deps := newCheckoutDeps()
		in := validInput()
		in.PaymentMethod = "moov"
		in.PaymentPhoneNumber = "071234567"

		_, err := deps.uc().Submit(ctx, in)
		var ve *domain.ValidationError
		if !errors.As(err, &ve) {
			t.Fatalf("expected a ValidationError, got %v", err)
		}
		if !strings.Contains(ve.Reason, "Moov Money") || !strings.Contains(ve.Reason, "06") {
			t.Errorf("message should name the Moov format, got %q", ve.Reason)
		}
	})
}
