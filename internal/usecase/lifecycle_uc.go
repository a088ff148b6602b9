package usecase

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/EbenEzer-MOMBO/streaming-payment-gateway/internal/domain"
	"github.com/EbenEzer-MOMBO/streaming-payment-gateway/internal/domain/model"
	"github.com/EbenEzer-MOMBO/streaming-payment-gateway/internal/domain/ports/adapter"
)

// WatcherConfig tunes the polling cadence of a confirmation watcher.
type WatcherConfig struct {
	PollInterval  time.Duration // gap between status checks while pending
	ConfirmWindow time.Duration // visible countdown given to the payer
	CheckTimeout  time.Duration // per-check bound on the gateway call
}

func (c WatcherConfig) withDefaults() WatcherConfig {
	if c.PollInterval <= 0 {
		c.PollInterval = 5 * time.Second
	}
	if c.ConfirmWindow <= 0 {
		c.ConfirmWindow = 3 * time.Minute
	}
	if c.CheckTimeout <= 0 {
		c.CheckTimeout = 10 * time.Second
	}
	return c
}

// ConfirmationWatcher owns the post-submission lifecycle of one bill:
// pending -> confirmed/failed, advanced by polling the billing gateway.
//
// The polling loop is a single goroutine, so there is never more than one
// status check in flight for the bill. Every exit path from pending
// (settlement, failure, cancellation, context teardown) stops the ticker and
// the countdown timer before the loop returns.
type ConfirmationWatcher struct {
	gateway adapter.BillingGateway
	clock   Clock
	cfg     WatcherConfig
	log     *zerolog.Logger

	mu           sync.Mutex
	snap         model.LifecycleSnapshot
	windowEndsAt time.Time
	started      bool
	quit         chan struct{}
	done         chan struct{}
}

// NewConfirmationWatcher builds a watcher from the navigation handoff. An
// absent bill id is a recoverable precondition: the watcher sits in the
// loading phase until Resolve supplies one.
func NewConfirmationWatcher(
	gateway adapter.BillingGateway,
	clock Clock,
	cfg WatcherConfig,
	handoff model.ConfirmationHandoff,
	logger *zerolog.Logger,
) *ConfirmationWatcher {
	w := &ConfirmationWatcher{
		gateway: gateway,
		clock:   clock,
		cfg:     cfg.withDefaults(),
		log:     logger,
		quit:    make(chan struct{}),
		done:    make(chan struct{}),
	}
	w.snap = model.LifecycleSnapshot{
		Phase:              model.PhaseLoading,
		BillID:             handoff.BillID,
		ServiceName:        handoff.ServiceName,
		Instrument:         model.PaymentInstrument(handoff.PaymentMethod),
		PaymentPhoneNumber: handoff.PhoneNumber,
	}
	if handoff.BillID != "" {
		w.snap.Phase = model.PhasePending
	}
	return w
}

// Start launches the polling loop. With no bill id yet the watcher stays in
// the loading phase and Start is a no-op; call Resolve first. Start is
// idempotent.
func (w *ConfirmationWatcher) Start(ctx context.Context) {
	w.mu.Lock()
	if w.started || w.snap.Cancelled || w.snap.BillID == "" || w.snap.Phase.Terminal() {
		w.mu.Unlock()
		return
	}
	w.started = true
	w.windowEndsAt = w.clock.Now().Add(w.cfg.ConfirmWindow)
	w.mu.Unlock()

	go w.loop(ctx)
}

// Resolve supplies the bill id once the handoff parameters become available,
// moving the watcher from loading to pending. It does not start polling;
// callers follow up with Start.
func (w *ConfirmationWatcher) Resolve(billID string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.snap.Phase != model.PhaseLoading || billID == "" {
		return
	}
	w.snap.BillID = billID
	w.snap.Phase = model.PhasePending
}

// Cancel is user abandonment from pending: polling stops immediately and the
// phase stays pending rather than failed. Safe to call more than once.
func (w *ConfirmationWatcher) Cancel() {
	w.mu.Lock()
	if w.snap.Cancelled || w.snap.Phase.Terminal() {
		w.mu.Unlock()
		return
	}
	w.snap.Cancelled = true
	started := w.started
	w.mu.Unlock()

	close(w.quit)
	if started {
		<-w.done
	}
}

// Snapshot returns a point-in-time copy of the lifecycle state for the
// confirmation surface.
func (w *ConfirmationWatcher) Snapshot() model.LifecycleSnapshot {
	w.mu.Lock()
	defer w.mu.Unlock()
	s := w.snap
	if s.Phase == model.PhasePending && w.started && !s.Cancelled {
		if rem := w.windowEndsAt.Sub(w.clock.Now()); rem > 0 {
			s.CountdownRemaining = rem
		}
	}
	return s
}

// Done is closed when the polling loop has fully stopped.
func (w *ConfirmationWatcher) Done() <-chan struct{} { return w.done }

func (w *ConfirmationWatcher) loop(ctx context.Context) {
	defer close(w.done)

	w.mu.Lock()
	billID := w.snap.BillID
	w.mu.Unlock()

	ticker := w.clock.NewTicker(w.cfg.PollInterval)
	defer ticker.Stop()
	window := w.clock.NewTimer(w.cfg.ConfirmWindow)
	defer window.Stop()

	// First check fires immediately; the payer may already have confirmed.
	if w.checkOnce(ctx) {
		return
	}

	for {
		select {
		case <-ctx.Done():
			w.log.Debug().Str("bill_id", billID).Msg("confirmation watcher torn down")
			return
		case <-w.quit:
			w.log.Info().Str("bill_id", billID).Msg("payment abandoned by user")
			return
		case <-ticker.C():
			if w.checkOnce(ctx) {
				return
			}
		case <-window.C():
			// Countdown elapsed with the bill still open: force a check and
			// give the payer a fresh window, matching the countdown UI.
			if w.checkOnce(ctx) {
				return
			}
			w.mu.Lock()
			w.windowEndsAt = w.clock.Now().Add(w.cfg.ConfirmWindow)
			w.mu.Unlock()
			window.Reset(w.cfg.ConfirmWindow)
		}
	}
}

// checkOnce performs one status check and applies the transition. It returns
// true when a terminal phase was reached and polling must stop.
func (w *ConfirmationWatcher) checkOnce(ctx context.Context) bool {
	w.mu.Lock()
	billID := w.snap.BillID
	w.snap.ChecksIssued++
	w.mu.Unlock()

	if billID == "" {
		w.fail(model.FailureMissingBillID)
		return true
	}

	checkCtx, cancel := context.WithTimeout(ctx, w.cfg.CheckTimeout)
	state, err := w.gateway.CheckBillStatus(checkCtx, billID)
	cancel()

	if err != nil {
		w.log.Error().Err(err).Str("bill_id", billID).Msg("bill status check failed")
		reason := model.FailureCheckError
		if errors.Is(err, domain.ErrMalformedResponse) {
			reason = model.FailureMalformedResponse
		}
		w.fail(reason)
		return true
	}

	switch {
	case state.Settled():
		w.mu.Lock()
		w.snap.Phase = model.PhaseConfirmed
		w.mu.Unlock()
		w.log.Info().Str("bill_id", billID).Str("state", string(state)).Msg("payment confirmed")
		return true
	case state.Open():
		w.log.Debug().Str("bill_id", billID).Str("state", string(state)).Msg("payment still open")
		return false
	default:
		w.log.Warn().Str("bill_id", billID).Str("state", string(state)).Msg("unrecognized settlement state")
		w.fail(model.FailureUnknownState)
		return true
	}
}

func (w *ConfirmationWatcher) fail(reason model.FailureReason) {
	w.mu.Lock()
	w.snap.Phase = model.PhaseFailed
	w.snap.Reason = reason
	w.mu.Unlock()
}
