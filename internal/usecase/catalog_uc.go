package usecase

import (
	"sort"

	"github.com/EbenEzer-MOMBO/streaming-payment-gateway/internal/domain"
	"github.com/EbenEzer-MOMBO/streaming-payment-gateway/internal/domain/model"
)

// CatalogUseCase is the price authority: the sole source of truth for what a
// service costs. Amounts sent to the billing gateway are always re-derived
// here at submission time, never trusted from page state.
type CatalogUseCase interface {
	// PriceOf returns the official price for a service id, or
	// domain.ErrServiceNotFound.
	PriceOf(serviceID string) (int64, error)
	// Get returns the full catalog entry for a service id.
	Get(serviceID string) (*model.ServiceCatalogEntry, error)
	// List returns all entries ordered by id, for rendering the storefront.
	List() []*model.ServiceCatalogEntry
}

var _ CatalogUseCase = (*catalogUC)(nil)

type catalogUC struct {
	entries map[string]model.ServiceCatalogEntry
}

// NewCatalogUseCase builds the catalog from config-loaded entries. The slice
// is copied; the catalog is immutable after construction.
func NewCatalogUseCase(entries []model.ServiceCatalogEntry) *catalogUC {
	m := make(map[string]model.ServiceCatalogEntry, len(entries))
	for _, e := range entries {
		m[e.ID] = e
	}
	return &catalogUC{entries: m}
}

func (c *catalogUC) PriceOf(serviceID string) (int64, error) {
	e, ok := c.entries[serviceID]
	if !ok {
		return 0, domain.ErrServiceNotFound
	}
	return e.Price, nil
}

func (c *catalogUC) Get(serviceID string) (*model.ServiceCatalogEntry, error) {
	e, ok := c.entries[serviceID]
	if !ok {
		return nil, domain.ErrServiceNotFound
	}
	cp := e
	return &cp, nil
}

func (c *catalogUC) List() []*model.ServiceCatalogEntry {
	out := make([]*model.ServiceCatalogEntry, 0, len(c.entries))
	for _, e := range c.entries {
		cp := e
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
