package models

import (
	"time"
)

// Product represents a storefront product with its bargaining price facts.
// ListedPrice is the advertised starting price; FloorPrice is the vendor's
// minimum acceptable price and must not exceed ListedPrice.
type Product struct {
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	Brand         string    `json:"brand"`
	Category      string    `json:"category"`
	Image         string    `json:"image"`
	Description   string    `json:"description"`
	OriginalPrice float64   `json:"original_price"`
	ListedPrice   float64   `json:"listed_price"`
	FloorPrice    float64   `json:"floor_price"`
	Rating        float64   `json:"rating"`
	Reviews       int       `json:"reviews"`
	InStock       int       `json:"in_stock"`
	MaxQuantity   int       `json:"max_quantity"`
	VendorName    string    `json:"vendor_name"`
	VendorRating  float64   `json:"vendor_rating"`
	CreatedAt     time.Time `json:"created_at"`
}

// RawVendor is the vendor block of a raw catalog payload
type RawVendor struct {
	Name       string  `json:"name"`
	Rating     float64 `json:"rating"`
	TotalSales int     `json:"totalSales"`
}

// RawProduct is the loose shape delivered by the remote catalog API before
// normalization. Field names mirror the upstream payload.
type RawProduct struct {
	ID            string     `json:"id"`
	Name          string     `json:"name"`
	Brand         string     `json:"brand"`
	Category      string     `json:"category"`
	Image         string     `json:"image"`
	Description   string     `json:"shipdt"`
	OriginalPrice float64    `json:"originalPrice"`
	Price         float64    `json:"price"`
	BargainPrice  float64    `json:"bargain_price"`
	Rating        float64    `json:"rating"`
	Reviews       int        `json:"reviews"`
	InStock       int        `json:"inStock"`
	MaxQuantity   int        `json:"maxQuantity"`
	Vendor        *RawVendor `json:"vendor"`
}

// Stage represents the lifecycle stage of a negotiation session
type Stage string

const (
	StageInitial         Stage = "initial"
	StageNegotiating     Stage = "negotiating"
	StageAccepted        Stage = "accepted"
	StageDenied          Stage = "denied"
	StageBrowsingVendors Stage = "browsing_vendors"
)

// EventKind identifies who produced a negotiation event and what it means
type EventKind string

const (
	EventCustomerOffer EventKind = "customer_offer"
	EventVendorCounter EventKind = "vendor_counter"
	EventVendorAccept  EventKind = "vendor_accept"
	EventVendorDeny    EventKind = "vendor_deny"
)

// NegotiationEvent is a single entry in a negotiation transcript.
// Price is present for all kinds except denials, which carry a message instead.
type NegotiationEvent struct {
	Kind      EventKind `json:"kind"`
	Price     float64   `json:"price,omitempty"`
	Message   string    `json:"message,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// SessionView is a read-only snapshot of a negotiation session handed to
// callers. ResponsePending is true while the vendor response to the latest
// offer is still in flight.
type SessionView struct {
	ID                 string             `json:"session_id"`
	ProductID          string             `json:"product_id"`
	ProductName        string             `json:"product_name"`
	VendorName         string             `json:"vendor_name"`
	Quantity           int                `json:"quantity"`
	Stage              Stage              `json:"stage"`
	ListedPrice        float64            `json:"listed_price"`
	FloorPrice         float64            `json:"floor_price"`
	CurrentVendorPrice float64            `json:"current_vendor_price"`
	ResponsePending    bool               `json:"response_pending"`
	Transcript         []NegotiationEvent `json:"transcript"`
}

// CartLineItem is one product entry in the cart with its own quantity and
// negotiated price. Quantity always satisfies 1 <= Quantity <= MaxQuantity.
type CartLineItem struct {
	ID              string  `json:"id"`
	Name            string  `json:"name"`
	Brand           string  `json:"brand"`
	Image           string  `json:"image"`
	VendorName      string  `json:"vendor_name"`
	OriginalPrice   float64 `json:"original_price"`
	NegotiatedPrice float64 `json:"negotiated_price"`
	Quantity        int     `json:"quantity"`
	MaxQuantity     int     `json:"max_quantity"`
	InStock         int     `json:"in_stock"`
}

// CartTotals holds the order summary computed over the selected cart items.
// All monetary values are rounded to 2 decimal places for display.
type CartTotals struct {
	Subtotal         float64 `json:"subtotal"`
	OriginalSubtotal float64 `json:"original_subtotal"`
	Savings          float64 `json:"savings"`
	Shipping         float64 `json:"shipping"`
	Tax              float64 `json:"tax"`
	Total            float64 `json:"total"`
	ItemCount        int     `json:"item_count"`
}

// Order represents one finalized checkout line awaiting bank-transfer payment
type Order struct {
	ID              int       `json:"id"`
	Code            string    `json:"code"`
	ProductID       string    `json:"product_id"`
	ProductName     string    `json:"product_name"`
	VendorName      string    `json:"vendor_name"`
	NegotiatedPrice float64   `json:"negotiated_price"`
	Quantity        int       `json:"quantity"`
	Status          string    `json:"status"`
	CreatedAt       time.Time `json:"created_at"`
}

// Order status progression for bank-transfer settlement
const (
	OrderStatusAwaitingPayment  = "awaiting_payment"
	OrderStatusPaymentSubmitted = "payment_submitted"
)

// CartSnapshot is the serialized form of a cart, persisted across restarts
type CartSnapshot struct {
	Items       []CartLineItem `json:"items"`
	SelectedIDs []string       `json:"selected_ids"`
}

// ErrorResponse represents a standard error response
type ErrorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

// HealthResponse represents health check response
type HealthResponse struct {
	Status    string            `json:"status"`
	Timestamp time.Time         `json:"timestamp"`
	Services  map[string]string `json:"services"`
}
