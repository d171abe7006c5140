package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"bargain-store-backend/internal/interfaces"
	"bargain-store-backend/internal/models"
	"bargain-store-backend/internal/services"
)

// BargainHandler handles negotiation-related HTTP requests
type BargainHandler struct {
	negotiation interfaces.NegotiationService
	cart        interfaces.CartService
}

// NewBargainHandler creates a new bargain handler
func NewBargainHandler(negotiation interfaces.NegotiationService, cart interfaces.CartService) *BargainHandler {
	return &BargainHandler{
		negotiation: negotiation,
		cart:        cart,
	}
}

// StartRequest opens a negotiation for a product
type StartRequest struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

// SessionRequest addresses an existing negotiation session
type SessionRequest struct {
	SessionID   string  `json:"session_id"`
	Price       float64 `json:"price,omitempty"`
	ListedPrice float64 `json:"listed_price,omitempty"`
}

// SessionResponse wraps a session snapshot
type SessionResponse struct {
	Success bool                `json:"success"`
	Session *models.SessionView `json:"session,omitempty"`
	Error   string              `json:"error,omitempty"`
}

// AddToCartResponse reports the cart handoff outcome
type AddToCartResponse struct {
	Success bool                 `json:"success"`
	Item    *models.CartLineItem `json:"item,omitempty"`
	Error   string               `json:"error,omitempty"`
}

// HandleStart processes POST /bargain/start requests
func (bh *BargainHandler) HandleStart(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		bh.sendErrorResponse(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	w.Header().Set("Content-Type", "application/json")

	var req StartRequest
	if r.Header.Get("Content-Type") == "application/json" {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			bh.sendErrorResponse(w, http.StatusBadRequest, "Invalid JSON format")
			return
		}
	} else {
		// Parse from query parameters for easier testing
		req.ProductID = r.URL.Query().Get("product_id")
		req.Quantity, _ = strconv.Atoi(r.URL.Query().Get("quantity"))
	}

	if req.ProductID == "" {
		bh.sendErrorResponse(w, http.StatusBadRequest, "product_id is required")
		return
	}
	if req.Quantity == 0 {
		req.Quantity = 1
	}

	session, err := bh.negotiation.Start(context.Background(), req.ProductID, req.Quantity)
	if err != nil {
		bh.sendErrorResponse(w, http.StatusBadRequest, fmt.Sprintf("Unable to start negotiation: %v", err))
		return
	}

	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(SessionResponse{Success: true, Session: session})
}

// HandleSession processes GET /bargain/session requests
func (bh *BargainHandler) HandleSession(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		bh.sendErrorResponse(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	w.Header().Set("Content-Type", "application/json")

	sessionID := r.URL.Query().Get("session_id")
	if sessionID == "" {
		bh.sendErrorResponse(w, http.StatusBadRequest, "session_id is required")
		return
	}

	session, err := bh.negotiation.GetSession(context.Background(), sessionID)
	if err != nil {
		bh.sendSessionError(w, err)
		return
	}

	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(SessionResponse{Success: true, Session: session})
}

// HandleAcceptListed processes POST /bargain/accept-listed requests
func (bh *BargainHandler) HandleAcceptListed(w http.ResponseWriter, r *http.Request) {
	bh.handleTransition(w, r, func(ctx context.Context, req *SessionRequest) (*models.SessionView, error) {
		return bh.negotiation.AcceptListed(ctx, req.SessionID)
	})
}

// HandleNegotiate processes POST /bargain/negotiate requests
func (bh *BargainHandler) HandleNegotiate(w http.ResponseWriter, r *http.Request) {
	bh.handleTransition(w, r, func(ctx context.Context, req *SessionRequest) (*models.SessionView, error) {
		return bh.negotiation.BeginNegotiating(ctx, req.SessionID)
	})
}

// HandlePropose processes POST /bargain/propose requests
func (bh *BargainHandler) HandlePropose(w http.ResponseWriter, r *http.Request) {
	bh.handleTransition(w, r, func(ctx context.Context, req *SessionRequest) (*models.SessionView, error) {
		return bh.negotiation.Propose(ctx, req.SessionID, req.Price)
	})
}

// HandleBrowse processes POST /bargain/browse requests
func (bh *BargainHandler) HandleBrowse(w http.ResponseWriter, r *http.Request) {
	bh.handleTransition(w, r, func(ctx context.Context, req *SessionRequest) (*models.SessionView, error) {
		return bh.negotiation.BrowseVendors(ctx, req.SessionID)
	})
}

// HandleRestart processes POST /bargain/restart requests
func (bh *BargainHandler) HandleRestart(w http.ResponseWriter, r *http.Request) {
	bh.handleTransition(w, r, func(ctx context.Context, req *SessionRequest) (*models.SessionView, error) {
		return bh.negotiation.RestartWithVendor(ctx, req.SessionID, req.ListedPrice)
	})
}

// HandleAddToCart processes POST /bargain/add-to-cart requests: hands an
// accepted negotiation off to the cart and closes the session.
func (bh *BargainHandler) HandleAddToCart(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		bh.sendErrorResponse(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	w.Header().Set("Content-Type", "application/json")

	req, ok := bh.parseSessionRequest(w, r)
	if !ok {
		return
	}

	ctx := context.Background()

	item, err := bh.negotiation.Handoff(ctx, req.SessionID)
	if err != nil {
		bh.sendSessionError(w, err)
		return
	}

	if err := bh.cart.AddOrIncrement(ctx, item, item.Quantity); err != nil {
		bh.sendErrorResponse(w, http.StatusInternalServerError, "Unable to add item to cart")
		return
	}

	// The accepted session is folded into the cart line item
	bh.negotiation.Close(ctx, req.SessionID)

	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(AddToCartResponse{Success: true, Item: item})
}

// handleTransition runs one session transition with shared parsing and
// error mapping.
func (bh *BargainHandler) handleTransition(w http.ResponseWriter, r *http.Request,
	transition func(ctx context.Context, req *SessionRequest) (*models.SessionView, error)) {

	if r.Method != http.MethodPost {
		bh.sendErrorResponse(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	w.Header().Set("Content-Type", "application/json")

	req, ok := bh.parseSessionRequest(w, r)
	if !ok {
		return
	}

	session, err := transition(context.Background(), req)
	if err != nil {
		bh.sendSessionError(w, err)
		return
	}

	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(SessionResponse{Success: true, Session: session})
}

func (bh *BargainHandler) parseSessionRequest(w http.ResponseWriter, r *http.Request) (*SessionRequest, bool) {
	var req SessionRequest

	if r.Header.Get("Content-Type") == "application/json" {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			bh.sendErrorResponse(w, http.StatusBadRequest, "Invalid JSON format")
			return nil, false
		}
	} else {
		req.SessionID = r.URL.Query().Get("session_id")
		req.Price, _ = strconv.ParseFloat(r.URL.Query().Get("price"), 64)
		req.ListedPrice, _ = strconv.ParseFloat(r.URL.Query().Get("listed_price"), 64)
	}

	if req.SessionID == "" {
		bh.sendErrorResponse(w, http.StatusBadRequest, "session_id is required")
		return nil, false
	}

	return &req, true
}

// sendSessionError maps engine errors onto HTTP status codes
func (bh *BargainHandler) sendSessionError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, services.ErrSessionNotFound):
		bh.sendErrorResponse(w, http.StatusNotFound, err.Error())
	case errors.Is(err, services.ErrInvalidPrice):
		bh.sendErrorResponse(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, services.ErrResponsePending), errors.Is(err, services.ErrInvalidTransition):
		bh.sendErrorResponse(w, http.StatusConflict, err.Error())
	default:
		bh.sendErrorResponse(w, http.StatusInternalServerError, "Unable to process negotiation request")
	}
}

// sendErrorResponse sends a standardized error response
func (bh *BargainHandler) sendErrorResponse(w http.ResponseWriter, statusCode int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	json.NewEncoder(w).Encode(models.ErrorResponse{
		Success: false,
		Error:   message,
	})
}
