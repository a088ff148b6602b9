package web

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/EbenEzer-MOMBO/streaming-payment-gateway/internal/domain/model"
	"github.com/EbenEzer-MOMBO/streaming-payment-gateway/internal/domain/ports/adapter"
	"github.com/EbenEzer-MOMBO/streaming-payment-gateway/internal/domain/ports/repository"
	"github.com/EbenEzer-MOMBO/streaming-payment-gateway/internal/infra/metrics"
	"github.com/EbenEzer-MOMBO/streaming-payment-gateway/internal/usecase"
)

// Server exposes the checkout flow as a JSON API. It owns the per-bill
// confirmation watchers; each watcher runs against the server's base context
// so polling survives the individual HTTP requests that observe it.
type Server struct {
	catalog    usecase.CatalogUseCase
	checkout   usecase.CheckoutUseCase
	gateway    adapter.BillingGateway
	sessions   repository.SessionRepository
	refs       adapter.ReferenceGenerator
	clock      usecase.Clock
	watcherCfg usecase.WatcherConfig
	timeout    time.Duration
	log        *zerolog.Logger

	baseCtx context.Context

	mu       sync.Mutex
	watchers map[string]*usecase.ConfirmationWatcher // keyed by bill id
}

func NewServer(
	catalog usecase.CatalogUseCase,
	checkout usecase.CheckoutUseCase,
	gateway adapter.BillingGateway,
	sessions repository.SessionRepository,
	refs adapter.ReferenceGenerator,
	clock usecase.Clock,
	watcherCfg usecase.WatcherConfig,
	requestTimeout time.Duration,
	logger *zerolog.Logger,
) *Server {
	return &Server{
		catalog:    catalog,
		checkout:   checkout,
		gateway:    gateway,
		sessions:   sessions,
		refs:       refs,
		clock:      clock,
		watcherCfg: watcherCfg,
		timeout:    requestTimeout,
		log:        logger,
		baseCtx:    context.Background(),
		watchers:   make(map[string]*usecase.ConfirmationWatcher),
	}
}

// SetBaseContext binds watcher lifetimes to ctx; cancelling it tears down
// every polling loop. Call before Router.
func (s *Server) SetBaseContext(ctx context.Context) { s.baseCtx = ctx }

// Router assembles the chi router with the full middleware chain.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/services", s.handleListServices)
		r.Post("/checkout", s.handleSubmitCheckout)
		r.Route("/checkout/confirmation", func(r chi.Router) {
			r.Get("/", s.handleConfirmation)
			r.Get("/status", s.handleConfirmationStatus)
			r.Post("/cancel", s.handleCancel)
		})
	})

	return Chain(r,
		TraceID(),
		RequestLog(s.log),
		Recover(s.log),
		Timeout(s.timeout),
	)
}

// watcherFor returns the confirmation watcher for a bill, creating and
// starting one from the handoff parameters on first sight.
func (s *Server) watcherFor(handoff model.ConfirmationHandoff) *usecase.ConfirmationWatcher {
	s.mu.Lock()
	defer s.mu.Unlock()

	if w, ok := s.watchers[handoff.BillID]; ok {
		return w
	}
	w := usecase.NewConfirmationWatcher(s.gateway, s.clock, s.watcherCfg, handoff, s.log)
	s.watchers[handoff.BillID] = w
	w.Start(s.baseCtx)

	// Count the outcome once the polling loop stops on its own; cancellation
	// is counted by the cancel handler.
	go func() {
		<-w.Done()
		snap := w.Snapshot()
		if snap.Phase.Terminal() {
			metrics.IncConfirmation(string(snap.Phase))
		}
	}()

	return w
}

// removeWatcher drops a bill's watcher from the registry. Terminal watchers
// are kept around so the confirmation surface can still read their snapshot;
// only cancellation removes them eagerly.
func (s *Server) removeWatcher(billID string) {
	s.mu.Lock()
	delete(s.watchers, billID)
	s.mu.Unlock()
}

func (s *Server) lookupWatcher(billID string) (*usecase.ConfirmationWatcher, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	w, ok := s.watchers[billID]
	return w, ok
}
