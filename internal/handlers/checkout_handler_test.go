package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"bargain-store-backend/internal/models"
	"bargain-store-backend/internal/services"
)

func newCheckoutHandler() (*CheckoutHandler, *services.CartServiceImpl) {
	cart := services.NewCartService(0)
	// No postgres/redis: checkout still works, without persistence or stock counters
	return NewCheckoutHandler(cart, nil, nil), cart
}

func TestCheckoutHandler_EmptySelection(t *testing.T) {
	handler, _ := newCheckoutHandler()

	req := httptest.NewRequest(http.MethodPost, "/checkout", nil)
	recorder := httptest.NewRecorder()
	handler.HandleCheckout(recorder, req)

	if recorder.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400 for empty selection, got: %d", recorder.Code)
	}
}

func TestCheckoutHandler_PlacesOrder(t *testing.T) {
	handler, cart := newCheckoutHandler()
	ctx := context.Background()

	cart.AddOrIncrement(ctx, &models.CartLineItem{
		ID: "prod_a", Name: "Headphones", VendorName: "TechGear Store",
		OriginalPrice: 129.99, NegotiatedPrice: 82.50, Quantity: 1, MaxQuantity: 10,
	}, 1)
	cart.AddOrIncrement(ctx, &models.CartLineItem{
		ID: "prod_b", Name: "T-Shirt", VendorName: "Fashion Hub",
		OriginalPrice: 45.00, NegotiatedPrice: 32.00, Quantity: 1, MaxQuantity: 5,
	}, 2)
	cart.SelectAll(ctx)

	req := httptest.NewRequest(http.MethodPost, "/checkout", nil)
	recorder := httptest.NewRecorder()
	handler.HandleCheckout(recorder, req)

	if recorder.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got: %d (%s)", recorder.Code, recorder.Body.String())
	}

	var response CheckoutResponse
	if err := json.NewDecoder(recorder.Body).Decode(&response); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}

	if !response.Success {
		t.Fatalf("Expected successful checkout, got: %+v", response)
	}
	if !strings.HasPrefix(response.OrderCode, "ORD_") {
		t.Errorf("Expected order code with ORD_ prefix, got: %q", response.OrderCode)
	}
	if response.Status != models.OrderStatusAwaitingPayment {
		t.Errorf("Expected status %q, got: %q", models.OrderStatusAwaitingPayment, response.Status)
	}
	if len(response.Items) != 2 {
		t.Errorf("Expected 2 order lines, got: %d", len(response.Items))
	}
	if response.Totals == nil || response.Totals.Total <= 0 {
		t.Errorf("Expected positive totals, got: %+v", response.Totals)
	}

	// Purchased items leave the cart
	items, _ := cart.Items(ctx)
	if len(items) != 0 {
		t.Errorf("Expected empty cart after checkout, got: %d items", len(items))
	}
}

func TestCheckoutHandler_PartialSelection(t *testing.T) {
	handler, cart := newCheckoutHandler()
	ctx := context.Background()

	cart.AddOrIncrement(ctx, &models.CartLineItem{
		ID: "prod_a", Name: "Headphones", NegotiatedPrice: 82.50, Quantity: 1, MaxQuantity: 10,
	}, 1)
	cart.AddOrIncrement(ctx, &models.CartLineItem{
		ID: "prod_b", Name: "T-Shirt", NegotiatedPrice: 32.00, Quantity: 1, MaxQuantity: 5,
	}, 1)
	cart.ToggleSelect(ctx, "prod_a")

	req := httptest.NewRequest(http.MethodPost, "/checkout", nil)
	recorder := httptest.NewRecorder()
	handler.HandleCheckout(recorder, req)

	if recorder.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got: %d", recorder.Code)
	}

	var response CheckoutResponse
	if err := json.NewDecoder(recorder.Body).Decode(&response); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if len(response.Items) != 1 || response.Items[0].ID != "prod_a" {
		t.Errorf("Expected only selected item in order, got: %+v", response.Items)
	}

	// The unselected item stays in the cart
	items, _ := cart.Items(ctx)
	if len(items) != 1 || items[0].ID != "prod_b" {
		t.Errorf("Expected t-shirt left in cart, got: %+v", items)
	}
}
