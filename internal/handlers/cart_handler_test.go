package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"bargain-store-backend/internal/models"
	"bargain-store-backend/internal/services"
)

func newCartHandler() (*CartHandler, *services.CartServiceImpl) {
	catalog := services.NewCatalogService(nil)
	cart := services.NewCartService(0)
	return NewCartHandler(cart, catalog), cart
}

func decodeCart(t *testing.T, recorder *httptest.ResponseRecorder) *CartResponse {
	t.Helper()

	var response CartResponse
	if err := json.NewDecoder(recorder.Body).Decode(&response); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	return &response
}

func TestCartHandler_AddAndGet(t *testing.T) {
	handler, _ := newCartHandler()

	recorder := postJSON(t, handler.HandleAdd, "/cart/add",
		CartItemRequest{ProductID: "prod_demo_1", Quantity: 2})
	if recorder.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got: %d (%s)", recorder.Code, recorder.Body.String())
	}

	response := decodeCart(t, recorder)
	if len(response.Items) != 1 {
		t.Fatalf("Expected 1 item, got: %d", len(response.Items))
	}
	if response.Items[0].Quantity != 2 {
		t.Errorf("Expected quantity 2, got: %d", response.Items[0].Quantity)
	}
	// Full-price add charges the listed price
	if response.Items[0].NegotiatedPrice <= 0 {
		t.Errorf("Expected positive negotiated price, got: %v", response.Items[0].NegotiatedPrice)
	}

	req := httptest.NewRequest(http.MethodGet, "/cart", nil)
	getRecorder := httptest.NewRecorder()
	handler.HandleGet(getRecorder, req)
	if getRecorder.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got: %d", getRecorder.Code)
	}
	if got := decodeCart(t, getRecorder); len(got.Items) != 1 {
		t.Errorf("Expected 1 item on read, got: %d", len(got.Items))
	}
}

func TestCartHandler_RemoveAndRestore(t *testing.T) {
	handler, _ := newCartHandler()

	added := decodeCart(t, postJSON(t, handler.HandleAdd, "/cart/add",
		CartItemRequest{ProductID: "prod_demo_1", Quantity: 1}))
	itemID := added.Items[0].ID

	removed := decodeCart(t, postJSON(t, handler.HandleRemove, "/cart/remove",
		CartItemRequest{ProductID: itemID}))
	if len(removed.Items) != 0 {
		t.Fatalf("Expected empty cart, got: %d items", len(removed.Items))
	}
	if len(removed.RemovedItems) != 1 {
		t.Fatalf("Expected 1 removed item, got: %d", len(removed.RemovedItems))
	}

	restored := decodeCart(t, postJSON(t, handler.HandleRestore, "/cart/restore",
		CartItemRequest{ProductID: itemID}))
	if len(restored.Items) != 1 {
		t.Fatalf("Expected 1 item after restore, got: %d", len(restored.Items))
	}
	if len(restored.RemovedItems) != 0 {
		t.Errorf("Expected no removed items after restore, got: %d", len(restored.RemovedItems))
	}

	// Restoring an unknown id is a tolerant no-op
	recorder := postJSON(t, handler.HandleRestore, "/cart/restore",
		CartItemRequest{ProductID: "no-such-item"})
	if recorder.Code != http.StatusOK {
		t.Errorf("Expected status 200 for unknown restore, got: %d", recorder.Code)
	}
}

func TestCartHandler_SelectionAndTotals(t *testing.T) {
	handler, cart := newCartHandler()
	ctx := context.Background()

	// Seed the cart with known prices to keep the math checkable
	cart.AddOrIncrement(ctx, &models.CartLineItem{
		ID: "prod_a", Name: "A", OriginalPrice: 129.99, NegotiatedPrice: 89.99,
		Quantity: 1, MaxQuantity: 10,
	}, 1)
	cart.AddOrIncrement(ctx, &models.CartLineItem{
		ID: "prod_b", Name: "B", OriginalPrice: 45.00, NegotiatedPrice: 32.00,
		Quantity: 1, MaxQuantity: 5,
	}, 2)

	req := httptest.NewRequest(http.MethodPost, "/cart/select-all", nil)
	recorder := httptest.NewRecorder()
	handler.HandleSelectAll(recorder, req)
	if recorder.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got: %d", recorder.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/cart/totals", nil)
	recorder = httptest.NewRecorder()
	handler.HandleTotals(recorder, req)
	if recorder.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got: %d", recorder.Code)
	}

	var response TotalsResponse
	if err := json.NewDecoder(recorder.Body).Decode(&response); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if response.Totals == nil {
		t.Fatal("Expected totals in response")
	}
	if response.Totals.Subtotal != 153.99 {
		t.Errorf("Expected subtotal 153.99, got: %v", response.Totals.Subtotal)
	}
	if response.Totals.Shipping != 0 {
		t.Errorf("Expected free shipping above cutoff, got: %v", response.Totals.Shipping)
	}
	if response.Totals.Total != 169.39 {
		t.Errorf("Expected total 169.39, got: %v", response.Totals.Total)
	}

	// Deselect everything: totals drop to zero
	req = httptest.NewRequest(http.MethodPost, "/cart/deselect-all", nil)
	recorder = httptest.NewRecorder()
	handler.HandleDeselectAll(recorder, req)
	if recorder.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got: %d", recorder.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/cart/totals", nil)
	recorder = httptest.NewRecorder()
	handler.HandleTotals(recorder, req)

	if err := json.NewDecoder(recorder.Body).Decode(&response); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if response.Totals.Total != 0 {
		t.Errorf("Expected zero total, got: %v", response.Totals.Total)
	}
}

func TestCartHandler_QuantityUpdate(t *testing.T) {
	handler, _ := newCartHandler()

	added := decodeCart(t, postJSON(t, handler.HandleAdd, "/cart/add",
		CartItemRequest{ProductID: "prod_demo_1", Quantity: 1}))
	itemID := added.Items[0].ID
	maxQuantity := added.Items[0].MaxQuantity

	// Over-large quantity clamps to the item's maximum
	updated := decodeCart(t, postJSON(t, handler.HandleQuantity, "/cart/quantity",
		CartItemRequest{ProductID: itemID, Quantity: 999}))
	if updated.Items[0].Quantity != maxQuantity {
		t.Errorf("Expected quantity clamped to %d, got: %d", maxQuantity, updated.Items[0].Quantity)
	}

	// Missing product id: 400
	recorder := postJSON(t, handler.HandleQuantity, "/cart/quantity", CartItemRequest{Quantity: 1})
	if recorder.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400, got: %d", recorder.Code)
	}
}
