package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"bargain-store-backend/internal/interfaces"
	"bargain-store-backend/internal/models"
)

// CartHandler handles cart-related HTTP requests
type CartHandler struct {
	cart    interfaces.CartService
	catalog interfaces.CatalogService
}

// NewCartHandler creates a new cart handler
func NewCartHandler(cart interfaces.CartService, catalog interfaces.CatalogService) *CartHandler {
	return &CartHandler{
		cart:    cart,
		catalog: catalog,
	}
}

// CartItemRequest addresses a cart line item
type CartItemRequest struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

// CartResponse reports cart contents after a mutation
type CartResponse struct {
	Success      bool                  `json:"success"`
	Items        []models.CartLineItem `json:"items"`
	RemovedItems []models.CartLineItem `json:"removed_items,omitempty"`
	SelectedIDs  []string              `json:"selected_ids"`
	Error        string                `json:"error,omitempty"`
}

// TotalsResponse reports the computed order summary
type TotalsResponse struct {
	Success bool               `json:"success"`
	Totals  *models.CartTotals `json:"totals,omitempty"`
	Error   string             `json:"error,omitempty"`
}

// HandleAdd processes POST /cart/add requests: a full-price add straight from
// the catalog, without negotiation.
func (ch *CartHandler) HandleAdd(w http.ResponseWriter, r *http.Request) {
	req, ok := ch.parseItemRequest(w, r)
	if !ok {
		return
	}

	ctx := context.Background()

	product, err := ch.catalog.GetProductByID(ctx, req.ProductID)
	if err != nil {
		ch.sendErrorResponse(w, http.StatusBadRequest, "Invalid product")
		return
	}

	maxQuantity := product.MaxQuantity
	if maxQuantity < 1 {
		maxQuantity = 1
	}

	item := &models.CartLineItem{
		ID:              product.ID,
		Name:            product.Name,
		Brand:           product.Brand,
		Image:           product.Image,
		VendorName:      product.VendorName,
		OriginalPrice:   product.OriginalPrice,
		NegotiatedPrice: product.ListedPrice,
		MaxQuantity:     maxQuantity,
		InStock:         product.InStock,
	}

	quantity := req.Quantity
	if quantity == 0 {
		quantity = 1
	}

	if err := ch.cart.AddOrIncrement(ctx, item, quantity); err != nil {
		ch.sendErrorResponse(w, http.StatusInternalServerError, "Unable to add item to cart")
		return
	}

	ch.sendCartResponse(w, ctx)
}

// HandleQuantity processes POST /cart/quantity requests
func (ch *CartHandler) HandleQuantity(w http.ResponseWriter, r *http.Request) {
	req, ok := ch.parseItemRequest(w, r)
	if !ok {
		return
	}

	ctx := context.Background()
	if err := ch.cart.SetQuantity(ctx, req.ProductID, req.Quantity); err != nil {
		ch.sendErrorResponse(w, http.StatusInternalServerError, "Unable to update quantity")
		return
	}

	ch.sendCartResponse(w, ctx)
}

// HandleRemove processes POST /cart/remove requests
func (ch *CartHandler) HandleRemove(w http.ResponseWriter, r *http.Request) {
	req, ok := ch.parseItemRequest(w, r)
	if !ok {
		return
	}

	ctx := context.Background()
	if err := ch.cart.Remove(ctx, req.ProductID); err != nil {
		ch.sendErrorResponse(w, http.StatusInternalServerError, "Unable to remove item")
		return
	}

	ch.sendCartResponse(w, ctx)
}

// HandleRestore processes POST /cart/restore requests: undoes a removal while
// the item is still inside its undo window.
func (ch *CartHandler) HandleRestore(w http.ResponseWriter, r *http.Request) {
	req, ok := ch.parseItemRequest(w, r)
	if !ok {
		return
	}

	ctx := context.Background()

	removed, err := ch.cart.RemovedItems(ctx)
	if err != nil {
		ch.sendErrorResponse(w, http.StatusInternalServerError, "Unable to read removed items")
		return
	}

	for i := range removed {
		if removed[i].ID == req.ProductID {
			if err := ch.cart.Restore(ctx, &removed[i]); err != nil {
				ch.sendErrorResponse(w, http.StatusInternalServerError, "Unable to restore item")
				return
			}
			break
		}
	}
	// Unknown or already cleared ids fall through as a no-op

	ch.sendCartResponse(w, ctx)
}

// HandleSelect processes POST /cart/select requests (toggle)
func (ch *CartHandler) HandleSelect(w http.ResponseWriter, r *http.Request) {
	req, ok := ch.parseItemRequest(w, r)
	if !ok {
		return
	}

	ctx := context.Background()
	if err := ch.cart.ToggleSelect(ctx, req.ProductID); err != nil {
		ch.sendErrorResponse(w, http.StatusInternalServerError, "Unable to update selection")
		return
	}

	ch.sendCartResponse(w, ctx)
}

// HandleSelectAll processes POST /cart/select-all requests
func (ch *CartHandler) HandleSelectAll(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		ch.sendErrorResponse(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	ctx := context.Background()
	if err := ch.cart.SelectAll(ctx); err != nil {
		ch.sendErrorResponse(w, http.StatusInternalServerError, "Unable to update selection")
		return
	}

	ch.sendCartResponse(w, ctx)
}

// HandleDeselectAll processes POST /cart/deselect-all requests
func (ch *CartHandler) HandleDeselectAll(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		ch.sendErrorResponse(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	ctx := context.Background()
	if err := ch.cart.DeselectAll(ctx); err != nil {
		ch.sendErrorResponse(w, http.StatusInternalServerError, "Unable to update selection")
		return
	}

	ch.sendCartResponse(w, ctx)
}

// HandleGet processes GET /cart requests
func (ch *CartHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		ch.sendErrorResponse(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	ch.sendCartResponse(w, context.Background())
}

// HandleTotals processes GET /cart/totals requests
func (ch *CartHandler) HandleTotals(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		ch.sendErrorResponse(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	w.Header().Set("Content-Type", "application/json")

	totals, err := ch.cart.ComputeTotals(context.Background())
	if err != nil {
		ch.sendErrorResponse(w, http.StatusInternalServerError, "Unable to compute totals")
		return
	}

	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(TotalsResponse{Success: true, Totals: totals})
}

func (ch *CartHandler) parseItemRequest(w http.ResponseWriter, r *http.Request) (*CartItemRequest, bool) {
	if r.Method != http.MethodPost {
		ch.sendErrorResponse(w, http.StatusMethodNotAllowed, "Method not allowed")
		return nil, false
	}

	var req CartItemRequest

	if r.Header.Get("Content-Type") == "application/json" {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			ch.sendErrorResponse(w, http.StatusBadRequest, "Invalid JSON format")
			return nil, false
		}
	} else {
		// Parse from query parameters for easier testing
		req.ProductID = r.URL.Query().Get("product_id")
		req.Quantity, _ = strconv.Atoi(r.URL.Query().Get("quantity"))
	}

	if req.ProductID == "" {
		ch.sendErrorResponse(w, http.StatusBadRequest, "product_id is required")
		return nil, false
	}

	return &req, true
}

// sendCartResponse writes the cart's current contents
func (ch *CartHandler) sendCartResponse(w http.ResponseWriter, ctx context.Context) {
	w.Header().Set("Content-Type", "application/json")

	items, err := ch.cart.Items(ctx)
	if err != nil {
		ch.sendErrorResponse(w, http.StatusInternalServerError, "Unable to read cart")
		return
	}
	removed, _ := ch.cart.RemovedItems(ctx)
	selected, _ := ch.cart.SelectedIDs(ctx)

	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(CartResponse{
		Success:      true,
		Items:        items,
		RemovedItems: removed,
		SelectedIDs:  selected,
	})
}

// sendErrorResponse sends a standardized error response
func (ch *CartHandler) sendErrorResponse(w http.ResponseWriter, statusCode int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	json.NewEncoder(w).Encode(models.ErrorResponse{
		Success: false,
		Error:   message,
	})
}
