package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"bargain-store-backend/internal/models"
)

func headphonesLine() *models.CartLineItem {
	return &models.CartLineItem{
		ID:              "prod_headphones",
		Name:            "Wireless Bluetooth Headphones",
		Brand:           "AudioTech Pro",
		VendorName:      "TechGear Store",
		OriginalPrice:   129.99,
		NegotiatedPrice: 89.99,
		MaxQuantity:     10,
		InStock:         15,
	}
}

func tshirtLine() *models.CartLineItem {
	return &models.CartLineItem{
		ID:              "prod_tshirt",
		Name:            "Organic Cotton T-Shirt",
		Brand:           "EcoWear",
		VendorName:      "Fashion Hub",
		OriginalPrice:   45.00,
		NegotiatedPrice: 32.00,
		MaxQuantity:     5,
		InStock:         8,
	}
}

func TestCartService_AddOrIncrement(t *testing.T) {
	cart := NewCartService(0)
	ctx := context.Background()

	if err := cart.AddOrIncrement(ctx, headphonesLine(), 2); err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	items, _ := cart.Items(ctx)
	if len(items) != 1 {
		t.Fatalf("Expected 1 item, got: %d", len(items))
	}
	if items[0].Quantity != 2 {
		t.Errorf("Expected quantity 2, got: %d", items[0].Quantity)
	}

	// Incrementing the same product merges quantities
	if err := cart.AddOrIncrement(ctx, headphonesLine(), 3); err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	items, _ = cart.Items(ctx)
	if len(items) != 1 {
		t.Fatalf("Expected 1 item after merge, got: %d", len(items))
	}
	if items[0].Quantity != 5 {
		t.Errorf("Expected quantity 5, got: %d", items[0].Quantity)
	}

	// Excess above MaxQuantity is silently dropped
	if err := cart.AddOrIncrement(ctx, headphonesLine(), 100); err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	items, _ = cart.Items(ctx)
	if items[0].Quantity != 10 {
		t.Errorf("Expected quantity clamped to 10, got: %d", items[0].Quantity)
	}
}

func TestCartService_QuantityBounds(t *testing.T) {
	cart := NewCartService(0)
	ctx := context.Background()

	cart.AddOrIncrement(ctx, headphonesLine(), 1)

	// Every sequence of quantity mutations keeps 1 <= qty <= max
	mutations := []int{5, 0, -3, 100, 10, 1, 42}
	for _, quantity := range mutations {
		if err := cart.SetQuantity(ctx, "prod_headphones", quantity); err != nil {
			t.Fatalf("SetQuantity(%d): expected no error, got: %v", quantity, err)
		}

		items, _ := cart.Items(ctx)
		got := items[0].Quantity
		if got < 1 || got > 10 {
			t.Errorf("SetQuantity(%d): quantity %d out of bounds [1, 10]", quantity, got)
		}
	}

	// Unknown id is a no-op, not an error
	if err := cart.SetQuantity(ctx, "no-such-item", 3); err != nil {
		t.Errorf("Expected no-op for unknown id, got: %v", err)
	}
}

func TestCartService_RemoveAndRestoreExactly(t *testing.T) {
	cart := NewCartService(time.Minute)
	ctx := context.Background()

	cart.AddOrIncrement(ctx, headphonesLine(), 3)
	cart.AddOrIncrement(ctx, tshirtLine(), 2)
	cart.SelectAll(ctx)

	before, _ := cart.Items(ctx)

	if err := cart.Remove(ctx, "prod_headphones"); err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	items, _ := cart.Items(ctx)
	if len(items) != 1 {
		t.Fatalf("Expected 1 item after removal, got: %d", len(items))
	}

	// Removal drops the item from the selection too
	selected, _ := cart.SelectedIDs(ctx)
	for _, id := range selected {
		if id == "prod_headphones" {
			t.Error("Expected removed item to leave the selection")
		}
	}

	removed, _ := cart.RemovedItems(ctx)
	if len(removed) != 1 || removed[0].ID != "prod_headphones" {
		t.Fatalf("Expected headphones in removed items, got: %+v", removed)
	}

	// Undo restores ids and quantities exactly
	if err := cart.Restore(ctx, &removed[0]); err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	after, _ := cart.Items(ctx)
	if len(after) != len(before) {
		t.Fatalf("Expected %d items after restore, got: %d", len(before), len(after))
	}

	quantities := make(map[string]int)
	for _, item := range after {
		quantities[item.ID] = item.Quantity
	}
	for _, item := range before {
		if quantities[item.ID] != item.Quantity {
			t.Errorf("Item %s: expected quantity %d after restore, got: %d",
				item.ID, item.Quantity, quantities[item.ID])
		}
	}

	cleared, _ := cart.RemovedItems(ctx)
	if len(cleared) != 0 {
		t.Errorf("Expected removed items empty after restore, got: %d", len(cleared))
	}
}

func TestCartService_AutoClearAfterUndoWindow(t *testing.T) {
	cart := NewCartService(40 * time.Millisecond)
	ctx := context.Background()

	cart.AddOrIncrement(ctx, headphonesLine(), 1)
	cart.AddOrIncrement(ctx, tshirtLine(), 1)

	cart.Remove(ctx, "prod_headphones")
	cart.Remove(ctx, "prod_tshirt")

	// Restoring one item cancels its timer without touching the other
	removed, _ := cart.RemovedItems(ctx)
	for i := range removed {
		if removed[i].ID == "prod_tshirt" {
			cart.Restore(ctx, &removed[i])
		}
	}

	time.Sleep(100 * time.Millisecond)

	removed, _ = cart.RemovedItems(ctx)
	if len(removed) != 0 {
		t.Errorf("Expected removed items cleared after undo window, got: %d", len(removed))
	}

	items, _ := cart.Items(ctx)
	if len(items) != 1 || items[0].ID != "prod_tshirt" {
		t.Errorf("Expected only restored t-shirt in cart, got: %+v", items)
	}
}

func TestCartService_Selection(t *testing.T) {
	cart := NewCartService(0)
	ctx := context.Background()

	cart.AddOrIncrement(ctx, headphonesLine(), 1)
	cart.AddOrIncrement(ctx, tshirtLine(), 1)

	// Toggle on, toggle off
	cart.ToggleSelect(ctx, "prod_headphones")
	selected, _ := cart.SelectedIDs(ctx)
	if len(selected) != 1 || selected[0] != "prod_headphones" {
		t.Errorf("Expected headphones selected, got: %v", selected)
	}

	cart.ToggleSelect(ctx, "prod_headphones")
	selected, _ = cart.SelectedIDs(ctx)
	if len(selected) != 0 {
		t.Errorf("Expected empty selection, got: %v", selected)
	}

	// Selecting an unknown id is a no-op, keeping selection a subset of the cart
	cart.ToggleSelect(ctx, "no-such-item")
	selected, _ = cart.SelectedIDs(ctx)
	if len(selected) != 0 {
		t.Errorf("Expected unknown id not selectable, got: %v", selected)
	}

	cart.SelectAll(ctx)
	selected, _ = cart.SelectedIDs(ctx)
	if len(selected) != 2 {
		t.Errorf("Expected 2 selected, got: %v", selected)
	}

	cart.DeselectAll(ctx)
	selected, _ = cart.SelectedIDs(ctx)
	if len(selected) != 0 {
		t.Errorf("Expected empty selection, got: %v", selected)
	}
}

func TestCartService_ComputeTotals(t *testing.T) {
	cart := NewCartService(0)
	ctx := context.Background()

	cart.AddOrIncrement(ctx, headphonesLine(), 1) // 89.99 x 1
	cart.AddOrIncrement(ctx, tshirtLine(), 2)     // 32.00 x 2
	cart.SelectAll(ctx)

	totals, err := cart.ComputeTotals(ctx)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	if !approxEqual(totals.Subtotal, 153.99) {
		t.Errorf("Expected subtotal 153.99, got: %v", totals.Subtotal)
	}
	if !approxEqual(totals.OriginalSubtotal, 219.99) {
		t.Errorf("Expected original subtotal 219.99, got: %v", totals.OriginalSubtotal)
	}
	if !approxEqual(totals.Savings, 66.00) {
		t.Errorf("Expected savings 66.00, got: %v", totals.Savings)
	}
	// Subtotal above the free-shipping cutoff
	if totals.Shipping != 0 {
		t.Errorf("Expected free shipping, got: %v", totals.Shipping)
	}
	if !approxEqual(totals.Tax, 15.40) {
		t.Errorf("Expected tax 15.40, got: %v", totals.Tax)
	}
	if !approxEqual(totals.Total, 169.39) {
		t.Errorf("Expected total 169.39, got: %v", totals.Total)
	}
	if totals.ItemCount != 3 {
		t.Errorf("Expected item count 3, got: %d", totals.ItemCount)
	}
}

func TestCartService_ShippingBoundaries(t *testing.T) {
	cart := NewCartService(0)
	ctx := context.Background()

	// Empty selection ships free
	totals, _ := cart.ComputeTotals(ctx)
	if totals.Shipping != 0 {
		t.Errorf("Expected no shipping on empty selection, got: %v", totals.Shipping)
	}
	if totals.Total != 0 {
		t.Errorf("Expected zero total on empty selection, got: %v", totals.Total)
	}

	// A subtotal at exactly the cutoff still pays the flat fee
	item := tshirtLine()
	item.NegotiatedPrice = 100.00
	cart.AddOrIncrement(ctx, item, 1)
	cart.SelectAll(ctx)

	totals, _ = cart.ComputeTotals(ctx)
	if !approxEqual(totals.Shipping, 10.0) {
		t.Errorf("Expected flat shipping at subtotal 100, got: %v", totals.Shipping)
	}

	// Unselected items do not contribute
	cart.DeselectAll(ctx)
	totals, _ = cart.ComputeTotals(ctx)
	if totals.Subtotal != 0 {
		t.Errorf("Expected zero subtotal with nothing selected, got: %v", totals.Subtotal)
	}
}

func TestCartService_TakeSelected(t *testing.T) {
	cart := NewCartService(0)
	ctx := context.Background()

	if _, err := cart.TakeSelected(ctx); !errors.Is(err, ErrEmptySelection) {
		t.Errorf("Expected ErrEmptySelection, got: %v", err)
	}

	cart.AddOrIncrement(ctx, headphonesLine(), 1)
	cart.AddOrIncrement(ctx, tshirtLine(), 2)
	cart.ToggleSelect(ctx, "prod_tshirt")

	taken, err := cart.TakeSelected(ctx)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if len(taken) != 1 || taken[0].ID != "prod_tshirt" {
		t.Fatalf("Expected t-shirt taken, got: %+v", taken)
	}
	if taken[0].Quantity != 2 {
		t.Errorf("Expected taken quantity 2, got: %d", taken[0].Quantity)
	}

	items, _ := cart.Items(ctx)
	if len(items) != 1 || items[0].ID != "prod_headphones" {
		t.Errorf("Expected headphones left in cart, got: %+v", items)
	}

	selected, _ := cart.SelectedIDs(ctx)
	if len(selected) != 0 {
		t.Errorf("Expected selection cleared, got: %v", selected)
	}
}

func TestCartService_SnapshotRoundTrip(t *testing.T) {
	cart := NewCartService(0)
	ctx := context.Background()

	cart.AddOrIncrement(ctx, headphonesLine(), 3)
	cart.AddOrIncrement(ctx, tshirtLine(), 1)
	cart.ToggleSelect(ctx, "prod_headphones")

	snapshot, err := cart.Snapshot(ctx)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if len(snapshot.Items) != 2 {
		t.Fatalf("Expected 2 items in snapshot, got: %d", len(snapshot.Items))
	}
	if len(snapshot.SelectedIDs) != 1 || snapshot.SelectedIDs[0] != "prod_headphones" {
		t.Errorf("Expected headphones selected in snapshot, got: %v", snapshot.SelectedIDs)
	}

	// A stale selection entry is dropped on restore
	snapshot.SelectedIDs = append(snapshot.SelectedIDs, "prod_gone")

	fresh := NewCartService(0)
	if err := fresh.RestoreSnapshot(ctx, snapshot); err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	items, _ := fresh.Items(ctx)
	if len(items) != 2 {
		t.Fatalf("Expected 2 items after restore, got: %d", len(items))
	}
	if items[0].ID != "prod_headphones" || items[0].Quantity != 3 {
		t.Errorf("Expected headphones x3 first, got: %+v", items[0])
	}

	selected, _ := fresh.SelectedIDs(ctx)
	if len(selected) != 1 || selected[0] != "prod_headphones" {
		t.Errorf("Expected only headphones selected after restore, got: %v", selected)
	}
}

func TestCartService_RemoveUnknownIsNoOp(t *testing.T) {
	cart := NewCartService(0)
	ctx := context.Background()

	if err := cart.Remove(ctx, "no-such-item"); err != nil {
		t.Errorf("Expected no-op for unknown id, got: %v", err)
	}

	removed, _ := cart.RemovedItems(ctx)
	if len(removed) != 0 {
		t.Errorf("Expected no removed items, got: %d", len(removed))
	}
}
