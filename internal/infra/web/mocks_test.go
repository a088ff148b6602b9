//go:build !integration

package web

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/EbenEzer-MOMBO/streaming-payment-gateway/internal/domain"
	"github.com/EbenEzer-MOMBO/streaming-payment-gateway/internal/domain/model"
	"github.com/EbenEzer-MOMBO/streaming-payment-gateway/internal/usecase"
)

func newTestLogger() *zerolog.Logger {
	l := zerolog.Nop()
	return &l
}

type mockCheckout struct {
	SubmitFunc func(ctx context.Context, in usecase.CheckoutInput) (*usecase.CheckoutResult, error)
}

func (m *mockCheckout) Submit(ctx context.Context, in usecase.CheckoutInput) (*usecase.CheckoutResult, error) {
	return m.SubmitFunc(ctx, in)
}

type mockGateway struct {
	mu          sync.Mutex
	StatusFunc  func(ctx context.Context, billID string) (model.BillState, error)
	statusCalls int
}

func (m *mockGateway) Name() string { return "mock" }

func (m *mockGateway) CreateBill(ctx context.Context, intent *model.PurchaseIntent) (*model.Bill, error) {
	return &model.Bill{BillID: "bill-1", Amount: intent.Amount, Currency: "XAF"}, nil
}

func (m *mockGateway) CheckBillStatus(ctx context.Context, billID string) (model.BillState, error) {
	m.mu.Lock()
	m.statusCalls++
	m.mu.Unlock()
	if m.StatusFunc != nil {
		return m.StatusFunc(ctx, billID)
	}
	return model.BillStateReady, nil
}

func (m *mockGateway) StatusCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.statusCalls
}

type memSessions struct {
	mu    sync.RWMutex
	store map[string]*model.CheckoutSession
}

func newMemSessions() *memSessions {
	return &memSessions{store: make(map[string]*model.CheckoutSession)}
}

func (m *memSessions) Save(ctx context.Context, s *model.CheckoutSession) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *s
	m.store[s.ID] = &cp
	return nil
}

func (m *memSessions) Find(ctx context.Context, id string) (*model.CheckoutSession, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if s, ok := m.store[id]; ok {
		cp := *s
		return &cp, nil
	}
	return nil, domain.ErrSessionNotFound
}

func (m *memSessions) FindByBillID(ctx context.Context, billID string) (*model.CheckoutSession, error) {
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

func (m *memSessions) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.store, id)
	return nil
}

type mockRefs struct{}

func (mockRefs) Generate(sessionID string) (string, string, error) {
	return "SPG00000001abc_testtoken", "signed-token-" + sessionID, nil
}

func (mockRefs) Verify(sessionID, token string) error {
	if token == "signed-token-"+sessionID {
		return nil
	}
	return domain.ErrInvalidToken
}

// quietWatcherConfig keeps the polling loop down to its immediate first check
// for the lifetime of a test.
func quietWatcherConfig() usecase.WatcherConfig {
	return usecase.WatcherConfig{
		PollInterval:  time.Hour,
		ConfirmWindow: time.Hour,
		CheckTimeout:  time.Second,
	}
}

func testCatalog() usecase.CatalogUseCase {
	return usecase.NewCatalogUseCase([]model.ServiceCatalogEntry{
		{ID: "netflix", Name: "Netflix", Price: 2500, Currency: "XAF"},
		{ID: "prime", Name: "Prime Video", Price: 2500, Currency: "XAF"},
	})
}
