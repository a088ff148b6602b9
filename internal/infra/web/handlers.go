package web

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/EbenEzer-MOMBO/streaming-payment-gateway/internal/domain"
	"github.com/EbenEzer-MOMBO/streaming-payment-gateway/internal/domain/model"
	"github.com/EbenEzer-MOMBO/streaming-payment-gateway/internal/infra/logging"
	"github.com/EbenEzer-MOMBO/streaming-payment-gateway/internal/infra/metrics"
	"github.com/EbenEzer-MOMBO/streaming-payment-gateway/internal/usecase"
)

// genericFailureMessage is what buyers see for every gateway-side failure.
// Price-integrity failures in particular never reveal the discrepancy.
const genericFailureMessage = "Payment could not be processed. Please try again."

type serviceResponse struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Price    int64  `json:"price"`
	Currency string `json:"currency"`
}

func (s *Server) handleListServices(w http.ResponseWriter, r *http.Request) {
	entries := s.catalog.List()
	out := make([]serviceResponse, 0, len(entries))
	for _, e := range entries {
		out = append(out, serviceResponse{ID: e.ID, Name: e.Name, Price: e.Price, Currency: e.Currency})
	}
	writeJSON(w, http.StatusOK, out)
}

type checkoutRequest struct {
	ServiceID          string `json:"service_id"`
	Name               string `json:"name"`
	Phone              string `json:"phone"`
	Email              string `json:"email,omitempty"`
	PaymentMethod      string `json:"payment_method"`
	PaymentPhoneNumber string `json:"payment_phone_number"`
	DisplayedAmount    int64  `json:"displayed_amount,omitempty"`
}

type checkoutResponse struct {
	BillID    string                    `json:"bill_id"`
	SessionID string                    `json:"session_id"`
	Token     string                    `json:"token"`
	Amount    int64                     `json:"amount"`
	Currency  string                    `json:"currency"`
	Handoff   model.ConfirmationHandoff `json:"handoff"`
}

type errorResponse struct {
	Error   string `json:"error"`
	Field   string `json:"field,omitempty"`
	Message string `json:"message"`
}

func (s *Server) handleSubmitCheckout(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	l := logging.With(ctx, s.log)

	var req checkoutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "bad_request", Message: "invalid request body"})
		return
	}

	result, err := s.checkout.Submit(ctx, usecase.CheckoutInput{
		ServiceID:          req.ServiceID,
		BuyerName:          req.Name,
		BuyerPhone:         req.Phone,
		BuyerEmail:         req.Email,
		PaymentMethod:      req.PaymentMethod,
		PaymentPhoneNumber: req.PaymentPhoneNumber,
		DisplayedAmount:    req.DisplayedAmount,
	})
	if err != nil {
		s.writeCheckoutError(w, l, err)
		return
	}

	metrics.IncBillCreated("created")
	metrics.AddBillRevenue(result.Bill.Currency, result.Bill.Amount)

	writeJSON(w, http.StatusCreated, checkoutResponse{
		BillID:    result.Bill.BillID,
		SessionID: result.Session.ID,
		Token:     result.Session.Token,
		Amount:    result.Bill.Amount,
		Currency:  result.Bill.Currency,
		Handoff:   result.Handoff,
	})
}

func (s *Server) writeCheckoutError(w http.ResponseWriter, l *zerolog.Logger, err error) {
	var ve *domain.ValidationError
	var te *domain.TransportError
	switch {
	case errors.As(err, &ve):
		metrics.IncBillCreated("validation_failed")
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "validation", Field: ve.Field, Message: ve.Reason})
	case errors.Is(err, domain.ErrPriceMismatch):
		metrics.IncBillCreated("rejected")
		// Deliberately generic: the discrepancy detail stays server-side.
		writeJSON(w, http.StatusConflict, errorResponse{Error: "price_mismatch", Message: genericFailureMessage})
	case errors.As(err, &te),
		errors.Is(err, domain.ErrGatewayRejected),
		errors.Is(err, domain.ErrMalformedResponse):
		metrics.IncBillCreated("rejected")
		l.Error().Err(err).Msg("bill creation failed at gateway")
		writeJSON(w, http.StatusBadGateway, errorResponse{Error: "payment_failed", Message: genericFailureMessage})
	default:
		metrics.IncBillCreated("rejected")
		l.Error().Err(err).Msg("bill creation failed")
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal", Message: genericFailureMessage})
	}
}

type snapshotResponse struct {
	Phase              string `json:"phase"`
	Reason             string `json:"reason,omitempty"`
	BillID             string `json:"bill_id,omitempty"`
	ServiceName        string `json:"service_name,omitempty"`
	PaymentMethod      string `json:"payment_method,omitempty"`
	PhoneNumber        string `json:"phone_number,omitempty"`
	CountdownRemaining int64  `json:"countdown_remaining_seconds"`
	Cancelled          bool   `json:"cancelled,omitempty"`
}

func toSnapshotResponse(snap model.LifecycleSnapshot) snapshotResponse {
	return snapshotResponse{
		Phase:              string(snap.Phase),
		Reason:             string(snap.Reason),
		BillID:             snap.BillID,
		ServiceName:        snap.ServiceName,
		PaymentMethod:      string(snap.Instrument),
		PhoneNumber:        snap.PaymentPhoneNumber,
		CountdownRemaining: int64(snap.CountdownRemaining.Seconds()),
		Cancelled:          snap.Cancelled,
	}
}

// handleConfirmation consumes the navigation handoff. A missing bill_id is a
// recoverable precondition and answers with the loading phase, not an error.
func (s *Server) handleConfirmation(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	handoff := model.ConfirmationHandoff{
		BillID:        q.Get("bill_id"),
		ServiceName:   q.Get("service_name"),
		PaymentMethod: q.Get("payment_method"),
		PhoneNumber:   q.Get("phone_number"),
	}

	if handoff.BillID == "" {
		writeJSON(w, http.StatusOK, snapshotResponse{Phase: string(model.PhaseLoading)})
		return
	}

	if !s.verifySessionToken(r, handoff.BillID) {
		writeJSON(w, http.StatusForbidden, errorResponse{Error: "invalid_token", Message: genericFailureMessage})
		return
	}

	watcher := s.watcherFor(handoff)
	writeJSON(w, http.StatusOK, toSnapshotResponse(watcher.Snapshot()))
}

func (s *Server) handleConfirmationStatus(w http.ResponseWriter, r *http.Request) {
	billID := r.URL.Query().Get("bill_id")
	if billID == "" {
		writeJSON(w, http.StatusOK, snapshotResponse{Phase: string(model.PhaseLoading)})
		return
	}
	watcher, ok := s.lookupWatcher(billID)
	if !ok {
		watcher = s.watcherFor(model.ConfirmationHandoff{BillID: billID})
	}
	writeJSON(w, http.StatusOK, toSnapshotResponse(watcher.Snapshot()))
}

func (s *Server) handleCancel(w http.ResponseWriter, r *http.Request) {
	billID := r.URL.Query().Get("bill_id")
	if billID == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "bad_request", Message: "bill_id is required"})
		return
	}
	watcher, ok := s.lookupWatcher(billID)
	if !ok {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "not_found", Message: "no confirmation in progress for this bill"})
		return
	}

	watcher.Cancel()
	s.removeWatcher(billID)
	metrics.IncConfirmation("cancelled")
	logging.With(r.Context(), s.log).Info().Str("bill_id", billID).Msg("confirmation cancelled by user")

	writeJSON(w, http.StatusOK, map[string]bool{"cancelled": true})
}

// verifySessionToken asserts that a token passed with the confirmation
// request was minted for the session that created the bill. Requests without
// a token pass: the token is a hardening layer, not a gate for the happy path.
func (s *Server) verifySessionToken(r *http.Request, billID string) bool {
	token := r.URL.Query().Get("token")
	if token == "" {
		return true
	}
	session, err := s.sessions.FindByBillID(r.Context(), billID)
	if err != nil {
		// Session expired or unknown bill: nothing to assert against.
		return true
	}
	return s.refs.Verify(session.ID, token) == nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
