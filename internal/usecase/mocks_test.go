//go:build !integration

package usecase

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/EbenEzer-MOMBO/streaming-payment-gateway/internal/domain"
	"github.com/EbenEzer-MOMBO/streaming-payment-gateway/internal/domain/model"
	"github.com/EbenEzer-MOMBO/streaming-payment-gateway/internal/domain/ports/adapter"
)

// MockBillingGateway is a hand-rolled gateway double. Tests override the Func
// fields; call counters let them assert exactly how many network calls were
// made (or that none were).
type MockBillingGateway struct {
	mu                  sync.Mutex
	CreateBillFunc      func(ctx context.Context, intent *model.PurchaseIntent) (*model.Bill, error)
	CheckBillStatusFunc func(ctx context.Context, billID string) (model.BillState, error)
	createCalls         int
	statusCalls         int
}

func (m *MockBillingGateway) Name() string { return "mock" }

func (m *MockBillingGateway) CreateBill(ctx context.Context, intent *model.PurchaseIntent) (*model.Bill, error) {
	m.mu.Lock()
	m.createCalls++
	m.mu.Unlock()
	if m.CreateBillFunc != nil {
		return m.CreateBillFunc(ctx, intent)
	}
	return &model.Bill{
		BillID:            "bill-1",
		Amount:            intent.Amount,
		Currency:          "XAF",
		State:             model.BillStateReady,
		ExternalReference: intent.ExternalReference,
	}, nil
}

func (m *MockBillingGateway) CheckBillStatus(ctx context.Context, billID string) (model.BillState, error) {
	m.mu.Lock()
	m.statusCalls++
	m.mu.Unlock()
	if m.CheckBillStatusFunc != nil {
		return m.CheckBillStatusFunc(ctx, billID)
	}
	return model.BillStateReady, nil
}

func (m *MockBillingGateway) CreateCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.createCalls
}

func (m *MockBillingGateway) StatusCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.statusCalls
}

// memSessionRepo is a small in-memory SessionRepository for unit tests.
type memSessionRepo struct {
	mu      sync.RWMutex
	store   map[string]*model.CheckoutSession
	saveErr error // used by tests to simulate save failures
}

func newMemSessionRepo() *memSessionRepo {
	return &memSessionRepo{store: make(map[string]*model.CheckoutSession)}
}

func (m *memSessionRepo) Save(ctx context.Context, s *model.CheckoutSession) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *s
	m.store[s.ID] = &cp
	return nil
}

func (m *memSessionRepo) Find(ctx context.Context, id string) (*model.CheckoutSession, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.store[id]
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	cp := *s
	return &cp, nil
}

func (m *memSessionRepo) FindByBillID(ctx context.Context, billID string) (*model.CheckoutSession, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, s := range m.store {
		if s.BillID == billID {
			cp := *s
			return &cp, nil
		}
	}
	return nil, domain.ErrSessionNotFound
}

func (m *memSessionRepo) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.store, id)
	return nil
}

// MockNotifier records notifications instead of delivering them.
type MockNotifier struct {
	mu       sync.Mutex
	sent     []*adapter.PaymentNotification
	NotifyFn func(ctx context.Context) error
}

func (m *MockNotifier) Notify(ctx context.Context, n *adapter.PaymentNotification) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, n)
	if m.NotifyFn != nil {
		return m.NotifyFn(ctx)
	}
	return nil
}

func (m *MockNotifier) Sent() []*adapter.PaymentNotification {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]*adapter.PaymentNotification(nil), m.sent...)
}

// MockReferenceGenerator returns deterministic references.
type MockReferenceGenerator struct {
	mu    sync.Mutex
	count int
}

func (m *MockReferenceGenerator) Generate(sessionID string) (string, string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.count++
	return "SPG00000001abc_testtoken", "signed-token-" + sessionID, nil
}

func (m *MockReferenceGenerator) Verify(sessionID, token string) error {
	if token == "signed-token-"+sessionID {
		return nil
	}
	return domain.ErrInvalidToken
}

// ---- virtual clock ----

// fakeTicker and fakeTimer expose their channels so tests drive ticks by
// hand; sends are non-blocking so a stopped loop never deadlocks the test.
type fakeTicker struct {
	ch      chan time.Time
	stopped bool
	mu      sync.Mutex
}

func (t *fakeTicker) C() <-chan time.Time { return t.ch }
func (t *fakeTicker) Stop() {
	t.mu.Lock()
	t.stopped = true
	t.mu.Unlock()
}

func (t *fakeTicker) tick(now time.Time) {
	select {
	case t.ch <- now:
	default:
	}
}

type fakeTimer struct {
	ch     chan time.Time
	mu     sync.Mutex
	resets int
}

func (t *fakeTimer) C() <-chan time.Time { return t.ch }
func (t *fakeTimer) Stop() bool          { return true }
func (t *fakeTimer) Reset(d time.Duration) bool {
	t.mu.Lock()
	t.resets++
	t.mu.Unlock()
	return true
}

func (t *fakeTimer) Resets() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.resets
}

func (t *fakeTimer) fire(now time.Time) {
	select {
	case t.ch <- now:
	default:
	}
}

type fakeClock struct {
	mu      sync.Mutex
	now     time.Time
	tickers []*fakeTicker
	timers  []*fakeTimer
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func (c *fakeClock) NewTicker(d time.Duration) Ticker {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := &fakeTicker{ch: make(chan time.Time, 1)}
	c.tickers = append(c.tickers, t)
	return t
}

func (c *fakeClock) NewTimer(d time.Duration) Timer {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := &fakeTimer{ch: make(chan time.Time, 1)}
	c.timers = append(c.timers, t)
	return t
}

func (c *fakeClock) ticker(i int) *fakeTicker {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.tickers[i]
}

func (c *fakeClock) timer(i int) *fakeTimer {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.timers[i]
}

// newTestLogger creates a silent zerolog.Logger for use in tests.
func newTestLogger() *zerolog.Logger {
	l := zerolog.Nop()
	return &l
}
