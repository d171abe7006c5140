package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"bargain-store-backend/internal/interfaces"
	"bargain-store-backend/internal/models"
	"bargain-store-backend/internal/services"

	"github.com/google/uuid"
)

// CheckoutHandler turns the selected cart items into a bank-transfer order
type CheckoutHandler struct {
	cart  interfaces.CartService
	db    interfaces.DatabaseInterface
	redis interfaces.RedisInterface
}

// NewCheckoutHandler creates a new checkout handler
func NewCheckoutHandler(
	cart interfaces.CartService,
	db interfaces.DatabaseInterface,
	redis interfaces.RedisInterface,
) *CheckoutHandler {
	return &CheckoutHandler{
		cart:  cart,
		db:    db,
		redis: redis,
	}
}

// CheckoutResponse represents the checkout response structure
type CheckoutResponse struct {
	Success   bool                  `json:"success"`
	OrderCode string                `json:"order_code,omitempty"`
	Status    string                `json:"status,omitempty"`
	Items     []models.CartLineItem `json:"items,omitempty"`
	Totals    *models.CartTotals    `json:"totals,omitempty"`
	Message   string                `json:"message,omitempty"`
	Error     string                `json:"error,omitempty"`
}

// HandleCheckout processes POST /checkout requests
func (ch *CheckoutHandler) HandleCheckout(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		ch.sendErrorResponse(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	w.Header().Set("Content-Type", "application/json")

	ctx := context.Background()
	response, statusCode := ch.processCheckout(ctx)

	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(response)
}

// processCheckout handles the core checkout logic
func (ch *CheckoutHandler) processCheckout(ctx context.Context) (*CheckoutResponse, int) {
	// 1. Compute totals over the current selection before taking the items
	totals, err := ch.cart.ComputeTotals(ctx)
	if err != nil {
		log.Printf("Error computing totals: %v", err)
		return &CheckoutResponse{
			Success: false,
			Error:   "Unable to process checkout at this time",
		}, http.StatusInternalServerError
	}

	// 2. Reserve stock per line atomically; roll back on partial failure
	selected, err := ch.cart.SelectedIDs(ctx)
	if err != nil {
		log.Printf("Error reading selection: %v", err)
		return &CheckoutResponse{
			Success: false,
			Error:   "Unable to process checkout at this time",
		}, http.StatusInternalServerError
	}
	if len(selected) == 0 {
		return &CheckoutResponse{
			Success: false,
			Message: "No items selected for checkout",
		}, http.StatusBadRequest
	}

	items, err := ch.cart.Items(ctx)
	if err != nil {
		log.Printf("Error reading cart: %v", err)
		return &CheckoutResponse{
			Success: false,
			Error:   "Unable to process checkout at this time",
		}, http.StatusInternalServerError
	}

	selectedSet := make(map[string]bool, len(selected))
	for _, id := range selected {
		selectedSet[id] = true
	}

	var reserved []models.CartLineItem
	if ch.redis != nil {
		for _, item := range items {
			if !selectedSet[item.ID] {
				continue
			}

			reservation, err := ch.redis.ReserveStock(ctx, item.ID, item.Quantity)
			if err != nil || (reservation != nil && !reservation.Reserved && reservation.Reason == "insufficient_stock") {
				ch.releaseReservations(ctx, reserved)

				if err != nil {
					log.Printf("Error reserving stock for %s: %v", item.ID, err)
					return &CheckoutResponse{
						Success: false,
						Error:   "Unable to process checkout at this time",
					}, http.StatusInternalServerError
				}
				return &CheckoutResponse{
					Success: false,
					Message: fmt.Sprintf("Insufficient stock for %s (%d left)", item.Name, reservation.Remaining),
				}, http.StatusConflict
			}
			// unknown_product means no counter was set up; the catalog is authoritative then
			if reservation != nil && reservation.Reserved {
				reserved = append(reserved, item)

				// Write-behind sync of the catalog row with the live counter
				if ch.db != nil {
					if err := ch.db.UpdateProductStock(ctx, item.ID, reservation.Remaining); err != nil {
						log.Printf("Warning: failed to sync stock for %s: %v", item.ID, err)
					}
				}
			}
		}
	}

	// 3. Take the selected items out of the cart
	taken, err := ch.cart.TakeSelected(ctx)
	if err != nil {
		ch.releaseReservations(ctx, reserved)
		if errors.Is(err, services.ErrEmptySelection) {
			return &CheckoutResponse{
				Success: false,
				Message: "No items selected for checkout",
			}, http.StatusBadRequest
		}
		log.Printf("Error taking selected items: %v", err)
		return &CheckoutResponse{
			Success: false,
			Error:   "Unable to process checkout at this time",
		}, http.StatusInternalServerError
	}

	// 4. Persist one order row per line under a shared order code
	orderCode := ch.generateOrderCode()

	if ch.db != nil {
		for _, item := range taken {
			order := &models.Order{
				Code:            orderCode,
				ProductID:       item.ID,
				ProductName:     item.Name,
				VendorName:      item.VendorName,
				NegotiatedPrice: item.NegotiatedPrice,
				Quantity:        item.Quantity,
				Status:          models.OrderStatusAwaitingPayment,
			}
			if err := ch.db.CreateOrder(ctx, order); err != nil {
				log.Printf("Warning: failed to persist order line %s/%s: %v", orderCode, item.ID, err)
				// Continue: the cached summary still lets payment reconciliation find the order
			}
		}
	}

	// 5. Cache the order summary in Redis for fast status lookups
	if ch.redis != nil {
		payload, err := json.Marshal(CheckoutResponse{
			Success:   true,
			OrderCode: orderCode,
			Status:    models.OrderStatusAwaitingPayment,
			Items:     taken,
			Totals:    totals,
		})
		if err == nil {
			if err := ch.redis.CacheOrder(ctx, orderCode, payload); err != nil {
				log.Printf("Warning: failed to cache order %s: %v", orderCode, err)
			}
		}
	}

	log.Printf("Created order %s with %d lines, total %.2f", orderCode, len(taken), totals.Total)

	return &CheckoutResponse{
		Success:   true,
		OrderCode: orderCode,
		Status:    models.OrderStatusAwaitingPayment,
		Items:     taken,
		Totals:    totals,
		Message:   "Order placed. Complete the bank transfer and upload your receipt to confirm.",
	}, http.StatusOK
}

// releaseReservations returns stock taken before a failed checkout
func (ch *CheckoutHandler) releaseReservations(ctx context.Context, reserved []models.CartLineItem) {
	for _, item := range reserved {
		if err := ch.redis.ReleaseStock(ctx, item.ID, item.Quantity); err != nil {
			log.Printf("Warning: failed to release stock for %s: %v", item.ID, err)
		}
	}
}

// generateOrderCode creates a unique, user-friendly order code
func (ch *CheckoutHandler) generateOrderCode() string {
	timestamp := time.Now().Unix() % 10000
	return fmt.Sprintf("ORD_%s_%d", uuid.New().String()[:8], timestamp)
}

// sendErrorResponse sends a standardized error response
func (ch *CheckoutHandler) sendErrorResponse(w http.ResponseWriter, statusCode int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	json.NewEncoder(w).Encode(CheckoutResponse{
		Success: false,
		Error:   message,
	})
}
