package model

// ServiceCatalogEntry is one purchasable streaming service. Entries are loaded
// from config at process start and never change afterwards; Price is the only
// amount the gateway may ever be asked to bill for this service.
type ServiceCatalogEntry struct {
	ID       string
	Name     string // display name shown to the buyer
	Price    int64  // official price in minor units (FCFA has no subunit)
	Currency string
}
