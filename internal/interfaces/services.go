package interfaces

import (
	"context"

	"bargain-store-backend/internal/models"
)

// NegotiationService defines the contract for the bargaining state machine
type NegotiationService interface {
	// Session lifecycle
	Start(ctx context.Context, productID string, quantity int) (*models.SessionView, error)
	GetSession(ctx context.Context, sessionID string) (*models.SessionView, error)
	Close(ctx context.Context, sessionID string) error

	// Stage transitions
	AcceptListed(ctx context.Context, sessionID string) (*models.SessionView, error)
	BeginNegotiating(ctx context.Context, sessionID string) (*models.SessionView, error)
	Propose(ctx context.Context, sessionID string, price float64) (*models.SessionView, error)
	BrowseVendors(ctx context.Context, sessionID string) (*models.SessionView, error)
	RestartWithVendor(ctx context.Context, sessionID string, newListedPrice float64) (*models.SessionView, error)

	// Handoff produces the cart-ready line item for an accepted session
	Handoff(ctx context.Context, sessionID string) (*models.CartLineItem, error)
}

// CartService defines the contract for cart aggregation operations.
// Operations on an unknown item id are no-ops, tolerant of UI races.
type CartService interface {
	// Item mutation
	AddOrIncrement(ctx context.Context, item *models.CartLineItem, quantity int) error
	SetQuantity(ctx context.Context, itemID string, quantity int) error
	Remove(ctx context.Context, itemID string) error
	Restore(ctx context.Context, item *models.CartLineItem) error

	// Selection
	ToggleSelect(ctx context.Context, itemID string) error
	SelectAll(ctx context.Context) error
	DeselectAll(ctx context.Context) error

	// Reads
	Items(ctx context.Context) ([]models.CartLineItem, error)
	RemovedItems(ctx context.Context) ([]models.CartLineItem, error)
	SelectedIDs(ctx context.Context) ([]string, error)
	ComputeTotals(ctx context.Context) (*models.CartTotals, error)

	// Checkout support: removes and returns the selected items
	TakeSelected(ctx context.Context) ([]models.CartLineItem, error)
}

// CatalogService defines the contract for product retrieval
type CatalogService interface {
	GetProductByID(ctx context.Context, productID string) (*models.Product, error)
	GetAvailableProducts(ctx context.Context) ([]models.Product, error)
	ValidateProductID(productID string) error
	PreloadDemoProducts(ctx context.Context) error
}
