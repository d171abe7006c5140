package services

import (
	"context"
	"log"
	"sync"
	"time"

	"bargain-store-backend/internal/models"
)

// DefaultUndoWindow is how long a removed item can be restored before it is
// permanently cleared.
const DefaultUndoWindow = 10 * time.Second

// CartServiceImpl implements interfaces.CartService. The cart is a single
// buyer's, so one mutex guards all state; insertion order of items is
// preserved for display.
type CartServiceImpl struct {
	mu sync.Mutex

	items    []*models.CartLineItem
	removed  []*models.CartLineItem
	selected map[string]bool

	// One cancelable auto-clear timer per removed item
	clearTimers map[string]*time.Timer
	undoWindow  time.Duration
}

// NewCartService creates an empty cart. A non-positive undo window disables
// automatic clearing of removed items.
func NewCartService(undoWindow time.Duration) *CartServiceImpl {
	return &CartServiceImpl{
		selected:    make(map[string]bool),
		clearTimers: make(map[string]*time.Timer),
		undoWindow:  undoWindow,
	}
}

// AddOrIncrement inserts a line item, or increments the quantity of an
// existing one. Quantities are clamped to [1, MaxQuantity]; excess is silently
// dropped rather than treated as an error.
func (c *CartServiceImpl) AddOrIncrement(ctx context.Context, item *models.CartLineItem, quantity int) error {
	if item == nil {
		return nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if existing := c.findLocked(item.ID); existing != nil {
		existing.Quantity = clampQuantity(existing.Quantity+quantity, existing.MaxQuantity)
		return nil
	}

	added := *item
	if added.MaxQuantity < 1 {
		added.MaxQuantity = 1
	}
	added.Quantity = clampQuantity(quantity, added.MaxQuantity)
	c.items = append(c.items, &added)
	return nil
}

// SetQuantity sets an item's quantity, clamped to [1, MaxQuantity]. Setting
// below 1 does not remove the item; removal is a separate operation. Unknown
// ids are a no-op.
func (c *CartServiceImpl) SetQuantity(ctx context.Context, itemID string, quantity int) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	item := c.findLocked(itemID)
	if item == nil {
		return nil
	}

	item.Quantity = clampQuantity(quantity, item.MaxQuantity)
	return nil
}

// Remove moves an item into the removed holding area and drops it from the
// selection. The item clears permanently after the undo window unless
// restored. Unknown ids are a no-op.
func (c *CartServiceImpl) Remove(ctx context.Context, itemID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	idx := c.indexLocked(itemID)
	if idx < 0 {
		return nil
	}

	removed := c.items[idx]
	c.items = append(c.items[:idx], c.items[idx+1:]...)
	c.removed = append(c.removed, removed)
	delete(c.selected, itemID)

	if c.undoWindow > 0 {
		c.clearTimers[itemID] = time.AfterFunc(c.undoWindow, func() {
			c.clearRemoved(itemID)
		})
	}

	return nil
}

// clearRemoved permanently drops a removed item once its undo window expires
func (c *CartServiceImpl) clearRemoved(itemID string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	// Restore may have won the race with the timer
	if _, exists := c.clearTimers[itemID]; !exists {
		return
	}
	delete(c.clearTimers, itemID)

	for i, item := range c.removed {
		if item.ID == itemID {
			c.removed = append(c.removed[:i], c.removed[i+1:]...)
			log.Printf("Cleared removed cart item %s after undo window", itemID)
			return
		}
	}
}

// Restore re-inserts a previously removed item at the end of the cart and
// cancels its pending auto-clear. Other pending timers are unaffected.
func (c *CartServiceImpl) Restore(ctx context.Context, item *models.CartLineItem) error {
	if item == nil {
		return nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if timer, exists := c.clearTimers[item.ID]; exists {
		timer.Stop()
		delete(c.clearTimers, item.ID)
	}

	for i, removed := range c.removed {
		if removed.ID == item.ID {
			c.removed = append(c.removed[:i], c.removed[i+1:]...)
			break
		}
	}

	if existing := c.findLocked(item.ID); existing != nil {
		existing.Quantity = clampQuantity(existing.Quantity+item.Quantity, existing.MaxQuantity)
		return nil
	}

	restored := *item
	c.items = append(c.items, &restored)
	return nil
}

// ToggleSelect flips an item's checkout selection. Unknown ids are a no-op,
// which keeps the selection a subset of the cart.
func (c *CartServiceImpl) ToggleSelect(ctx context.Context, itemID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.findLocked(itemID) == nil {
		return nil
	}

	if c.selected[itemID] {
		delete(c.selected, itemID)
	} else {
		c.selected[itemID] = true
	}
	return nil
}

// SelectAll marks every cart item for checkout
func (c *CartServiceImpl) SelectAll(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, item := range c.items {
		c.selected[item.ID] = true
	}
	return nil
}

// DeselectAll clears the checkout selection
func (c *CartServiceImpl) DeselectAll(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.selected = make(map[string]bool)
	return nil
}

// Items returns the cart contents in insertion order
func (c *CartServiceImpl) Items(ctx context.Context) ([]models.CartLineItem, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]models.CartLineItem, 0, len(c.items))
	for _, item := range c.items {
		out = append(out, *item)
	}
	return out, nil
}

// RemovedItems returns the items still inside their undo window
func (c *CartServiceImpl) RemovedItems(ctx context.Context) ([]models.CartLineItem, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]models.CartLineItem, 0, len(c.removed))
	for _, item := range c.removed {
		out = append(out, *item)
	}
	return out, nil
}

// SelectedIDs returns the ids currently selected for checkout, in cart order
func (c *CartServiceImpl) SelectedIDs(ctx context.Context) ([]string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	ids := make([]string, 0, len(c.selected))
	for _, item := range c.items {
		if c.selected[item.ID] {
			ids = append(ids, item.ID)
		}
	}
	return ids, nil
}

// ComputeTotals aggregates the selected items into order figures. Shipping is
// free on an empty selection or a subtotal over the free-shipping cutoff,
// otherwise a flat fee. Accumulation is unrounded; outputs round to 2 decimals.
func (c *CartServiceImpl) ComputeTotals(ctx context.Context) (*models.CartTotals, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var subtotal, originalSubtotal float64
	itemCount := 0

	for _, item := range c.items {
		if !c.selected[item.ID] {
			continue
		}
		subtotal += item.NegotiatedPrice * float64(item.Quantity)
		originalSubtotal += item.OriginalPrice * float64(item.Quantity)
		itemCount += item.Quantity
	}

	var shipping float64
	if subtotal > 0 && subtotal <= freeShippingAbove {
		shipping = flatShippingFee
	}
	tax := subtotal * taxRate

	return &models.CartTotals{
		Subtotal:         round2(subtotal),
		OriginalSubtotal: round2(originalSubtotal),
		Savings:          round2(originalSubtotal - subtotal),
		Shipping:         round2(shipping),
		Tax:              round2(tax),
		Total:            round2(subtotal + shipping + tax),
		ItemCount:        itemCount,
	}, nil
}

// TakeSelected removes and returns the selected items, for handing to
// checkout. Returns ErrEmptySelection when nothing is selected.
func (c *CartServiceImpl) TakeSelected(ctx context.Context) ([]models.CartLineItem, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var taken []models.CartLineItem
	var remaining []*models.CartLineItem

	for _, item := range c.items {
		if c.selected[item.ID] {
			taken = append(taken, *item)
			delete(c.selected, item.ID)
		} else {
			remaining = append(remaining, item)
		}
	}

	if len(taken) == 0 {
		return nil, ErrEmptySelection
	}

	c.items = remaining
	return taken, nil
}

// Snapshot serializes the live cart for persistence. Removed items are not
// part of a snapshot; their undo windows do not survive a restart.
func (c *CartServiceImpl) Snapshot(ctx context.Context) (*models.CartSnapshot, error) {
	items, err := c.Items(ctx)
	if err != nil {
		return nil, err
	}
	selected, err := c.SelectedIDs(ctx)
	if err != nil {
		return nil, err
	}
	return &models.CartSnapshot{Items: items, SelectedIDs: selected}, nil
}

// RestoreSnapshot replaces the cart contents with a previously saved snapshot.
// Selection entries without a matching item are dropped.
func (c *CartServiceImpl) RestoreSnapshot(ctx context.Context, snapshot *models.CartSnapshot) error {
	if snapshot == nil {
		return nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.items = nil
	c.removed = nil
	c.selected = make(map[string]bool)

	for i := range snapshot.Items {
		restored := snapshot.Items[i]
		if restored.MaxQuantity < 1 {
			restored.MaxQuantity = 1
		}
		restored.Quantity = clampQuantity(restored.Quantity, restored.MaxQuantity)
		c.items = append(c.items, &restored)
	}

	for _, id := range snapshot.SelectedIDs {
		if c.findLocked(id) != nil {
			c.selected[id] = true
		}
	}

	return nil
}

// findLocked returns the live cart item with the given id, or nil
func (c *CartServiceImpl) findLocked(itemID string) *models.CartLineItem {
	if idx := c.indexLocked(itemID); idx >= 0 {
		return c.items[idx]
	}
	return nil
}

func (c *CartServiceImpl) indexLocked(itemID string) int {
	for i, item := range c.items {
		if item.ID == itemID {
			return i
		}
	}
	return -1
}

// clampQuantity bounds a quantity to [1, max]
func clampQuantity(quantity, max int) int {
	if quantity < 1 {
		return 1
	}
	if max >= 1 && quantity > max {
		return max
	}
	return quantity
}
