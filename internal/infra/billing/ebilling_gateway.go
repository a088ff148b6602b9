package billing

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/EbenEzer-MOMBO/streaming-payment-gateway/internal/config"
	"github.com/EbenEzer-MOMBO/streaming-payment-gateway/internal/domain"
	"github.com/EbenEzer-MOMBO/streaming-payment-gateway/internal/domain/model"
	"github.com/EbenEzer-MOMBO/streaming-payment-gateway/internal/domain/ports/adapter"
	"github.com/EbenEzer-MOMBO/streaming-payment-gateway/internal/infra/metrics"
)

// successMarker is the literal completion flag the gateway sets on a
// successful bill creation; anything else is a rejection.
const successMarker = "transaction_completed"

var _ adapter.BillingGateway = (*EBillingGateway)(nil)

// EBillingGateway talks to the E-Billing provider over its form-encoded HTTP
// API and normalizes transport, parse and rejection failures into the domain
// error taxonomy.
type EBillingGateway struct {
	baseURL    string
	createPath string
	statusPath string
	currency   string
	client     *http.Client
	log        *zerolog.Logger
}

func NewEBillingGateway(cfg config.BillingConfig, currency string, logger *zerolog.Logger) *EBillingGateway {
	return &EBillingGateway{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		createPath: cfg.CreatePath,
		statusPath: cfg.StatusPath,
		currency:   currency,
		client:     &http.Client{Timeout: cfg.RequestTimeout},
		log:        logger,
	}
}

func (g *EBillingGateway) Name() string { return "e-billing" }

// billRecord is the wire shape of one bill inside the creation envelope.
type billRecord struct {
	BillID            string      `json:"bill_id"`
	PayerEmail        string      `json:"payer_email"`
	PayerMSISDN       string      `json:"payer_msisdn"`
	Amount            json.Number `json:"amount"`
	Currency          string      `json:"currency"`
	State             string      `json:"state"`
	CreatedAt         string      `json:"created_at"`
	ShortDescription  string      `json:"short_description"`
	DueDate           string      `json:"due_date"`
	ExternalReference string      `json:"external_reference"`
	PayerName         string      `json:"payer_name"`
	PayeeID           string      `json:"payee_id"`
	PayeeName         string      `json:"payee_name"`
}

type createBillEnvelope struct {
	Success        string `json:"success"`
	SuccessMessage string `json:"success_message"`
	Response       struct {
		EBills []billRecord `json:"e_bills"`
	} `json:"response"`
}

type billStatusResponse struct {
	State string `json:"state"`
}

// CreateBill registers the purchase intent with the provider. The intent's
// amount has already been pinned to the catalog price by the checkout flow;
// this method only moves bytes and classifies failures.
func (g *EBillingGateway) CreateBill(ctx context.Context, intent *model.PurchaseIntent) (*model.Bill, error) {
	form := url.Values{}
	form.Set("payer_email", intent.BuyerEmail)
	form.Set("payer_msisdn", intent.PaymentPhoneNumber)
	form.Set("amount", strconv.FormatInt(intent.Amount, 10))
	form.Set("short_description", fmt.Sprintf("Abonnement %s", intent.ServiceName))
	form.Set("external_reference", intent.ExternalReference)
	form.Set("payer_last_name", intent.PayerLastName)
	form.Set("payer_first_name", intent.PayerFirstName)
	form.Set("payment_system", intent.Instrument.GatewayToken())

	start := time.Now()
	body, err := g.postForm(ctx, g.baseURL+g.createPath, form)
	if err != nil {
		metrics.ObserveGatewayRequest("create_bill", "transport_error", time.Since(start))
		return nil, err
	}

	var envelope createBillEnvelope
	if err := json.Unmarshal(body, &envelope); err != nil {
		metrics.ObserveGatewayRequest("create_bill", "malformed", time.Since(start))
		g.log.Error().Err(err).Str("body", truncate(body, 512)).Msg("unparseable bill creation response")
		return nil, fmt.Errorf("%w: %v", domain.ErrMalformedResponse, err)
	}
	if envelope.Success != successMarker {
		metrics.ObserveGatewayRequest("create_bill", "rejected", time.Since(start))
		g.log.Warn().Str("success", envelope.Success).Msg("bill creation rejected by gateway")
		return nil, fmt.Errorf("%w: success=%q", domain.ErrGatewayRejected, envelope.Success)
	}
	if len(envelope.Response.EBills) == 0 {
		metrics.ObserveGatewayRequest("create_bill", "malformed", time.Since(start))
		return nil, fmt.Errorf("%w: envelope carries no bill record", domain.ErrMalformedResponse)
	}
	metrics.ObserveGatewayRequest("create_bill", "ok", time.Since(start))

	return g.toBill(envelope.Response.EBills[0]), nil
}

// CheckBillStatus fetches the provider's settlement state for a bill.
// Unknown tokens come back as model.BillStateUnknown; deciding whether that
// is fatal belongs to the lifecycle, not the client.
func (g *EBillingGateway) CheckBillStatus(ctx context.Context, billID string) (model.BillState, error) {
	if billID == "" {
		return model.BillStateUnknown, domain.ErrMissingBillID
	}

	form := url.Values{}
	form.Set("bill_id", billID)

	start := time.Now()
	body, err := g.postForm(ctx, g.baseURL+g.statusPath, form)
	if err != nil {
		metrics.ObserveGatewayRequest("check_status", "transport_error", time.Since(start))
		return model.BillStateUnknown, err
	}

	var status billStatusResponse
	if err := json.Unmarshal(body, &status); err != nil {
		metrics.ObserveGatewayRequest("check_status", "malformed", time.Since(start))
		g.log.Error().Err(err).Str("bill_id", billID).Str("body", truncate(body, 512)).Msg("unparseable bill status response")
		return model.BillStateUnknown, fmt.Errorf("%w: %v", domain.ErrMalformedResponse, err)
	}
	if status.State == "" {
		metrics.ObserveGatewayRequest("check_status", "malformed", time.Since(start))
		return model.BillStateUnknown, fmt.Errorf("%w: state field missing", domain.ErrMalformedResponse)
	}
	metrics.ObserveGatewayRequest("check_status", "ok", time.Since(start))

	state := model.ParseBillState(status.State)
	metrics.IncStatusPoll(string(state))
	return state, nil
}

// postForm sends one form-encoded POST and returns the raw body of a 2xx
// response. Non-2xx responses become TransportError.
func (g *EBillingGateway) postForm(ctx context.Context, endpoint string, form url.Values) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("build gateway request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := g.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("send gateway request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read gateway response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		g.log.Error().Int("status", resp.StatusCode).Str("endpoint", endpoint).Msg("gateway returned non-2xx")
		return nil, &domain.TransportError{Status: resp.StatusCode}
	}
	return body, nil
}

func (g *EBillingGateway) toBill(rec billRecord) *model.Bill {
	amount, _ := rec.Amount.Int64()
	b := &model.Bill{
		BillID:            rec.BillID,
		PayerEmail:        rec.PayerEmail,
		PayerMSISDN:       rec.PayerMSISDN,
		Amount:            amount,
		Currency:          rec.Currency,
		State:             model.ParseBillState(rec.State),
		ShortDescription:  rec.ShortDescription,
		DueDate:           rec.DueDate,
		ExternalReference: rec.ExternalReference,
		PayerName:         rec.PayerName,
		PayeeID:           rec.PayeeID,
		PayeeName:         rec.PayeeName,
	}
	if b.Currency == "" {
		b.Currency = g.currency
	}
	if ts, err := time.Parse("2006-01-02 15:04:05", rec.CreatedAt); err == nil {
		b.CreatedAt = ts
	}
	return b
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
