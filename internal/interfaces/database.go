package interfaces

import (
	"context"
	"database/sql"

	"bargain-store-backend/internal/models"
)

// DatabaseInterface defines the contract for catalog and order persistence
type DatabaseInterface interface {
	// Connection management
	Close() error
	Ping(ctx context.Context) error
	Stats() sql.DBStats

	// Product operations
	GetProductByID(ctx context.Context, productID string) (*models.Product, error)
	ListProducts(ctx context.Context, limit int) ([]models.Product, error)
	UpsertProduct(ctx context.Context, product *models.Product) error
	UpdateProductStock(ctx context.Context, productID string, inStock int) error

	// Order operations
	CreateOrder(ctx context.Context, order *models.Order) error
	GetOrdersByCode(ctx context.Context, code string) ([]models.Order, error)
	UpdateOrderStatus(ctx context.Context, code string, status string) error
}

// StockReservation is the outcome of an atomic stock reservation attempt
type StockReservation struct {
	Reserved  bool   `json:"reserved"`
	Remaining int    `json:"remaining"`
	Reason    string `json:"reason"` // "success", "insufficient_stock", "unknown_product"
}

// RedisInterface defines the contract for stock counters and caching
type RedisInterface interface {
	// Connection management
	Close() error
	Ping(ctx context.Context) error

	// Atomic stock operations
	SetupProductStock(ctx context.Context, productID string, available int) error
	GetStock(ctx context.Context, productID string) (int, error)
	ReserveStock(ctx context.Context, productID string, quantity int) (*StockReservation, error)
	ReleaseStock(ctx context.Context, productID string, quantity int) error

	// Order code caching
	CacheOrder(ctx context.Context, code string, payload []byte) error
	GetOrderPayload(ctx context.Context, code string) ([]byte, error)

	// Cart snapshot persistence
	SaveCartSnapshot(ctx context.Context, cartID string, payload []byte) error
	LoadCartSnapshot(ctx context.Context, cartID string) ([]byte, error)
}
