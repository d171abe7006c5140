package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"bargain-store-backend/internal/interfaces"
	"bargain-store-backend/internal/models"
)

// OrderHandler serves order status lookups and bank-transfer confirmations
type OrderHandler struct {
	db    interfaces.DatabaseInterface
	redis interfaces.RedisInterface
}

// NewOrderHandler creates a new order handler
func NewOrderHandler(db interfaces.DatabaseInterface, redis interfaces.RedisInterface) *OrderHandler {
	return &OrderHandler{
		db:    db,
		redis: redis,
	}
}

// OrderStatusResponse reports the persisted order lines for a code
type OrderStatusResponse struct {
	Success   bool           `json:"success"`
	OrderCode string         `json:"order_code,omitempty"`
	Status    string         `json:"status,omitempty"`
	Orders    []models.Order `json:"orders,omitempty"`
	Error     string         `json:"error,omitempty"`
}

// StockResponse reports the live stock counter for a product
type StockResponse struct {
	Success   bool   `json:"success"`
	ProductID string `json:"product_id"`
	Stock     int    `json:"stock"`
	Error     string `json:"error,omitempty"`
}

// HandleStatus processes GET /order/status requests. The cached summary wins;
// the database is the fallback for codes that outlived the cache TTL.
func (oh *OrderHandler) HandleStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		oh.sendErrorResponse(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	code := r.URL.Query().Get("code")
	if code == "" {
		oh.sendErrorResponse(w, http.StatusBadRequest, "code is required")
		return
	}

	ctx := context.Background()

	if oh.redis != nil {
		if payload, err := oh.redis.GetOrderPayload(ctx, code); err == nil && payload != nil {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusOK)
			w.Write(payload)
			return
		}
	}

	if oh.db != nil {
		orders, err := oh.db.GetOrdersByCode(ctx, code)
		if err != nil {
			oh.sendErrorResponse(w, http.StatusInternalServerError, "Unable to look up order")
			return
		}
		if len(orders) > 0 {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusOK)
			json.NewEncoder(w).Encode(OrderStatusResponse{
				Success:   true,
				OrderCode: code,
				Status:    orders[0].Status,
				Orders:    orders,
			})
			return
		}
	}

	oh.sendErrorResponse(w, http.StatusNotFound, "Order not found")
}

// ConfirmPaymentRequest carries the order code of a submitted bank transfer
type ConfirmPaymentRequest struct {
	Code string `json:"code"`
}

// HandleConfirmPayment processes POST /order/confirm-payment requests: the
// buyer reports having completed the bank transfer, moving the order out of
// awaiting_payment. Settlement verification happens offline.
func (oh *OrderHandler) HandleConfirmPayment(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		oh.sendErrorResponse(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	var req ConfirmPaymentRequest
	if r.Header.Get("Content-Type") == "application/json" {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			oh.sendErrorResponse(w, http.StatusBadRequest, "Invalid JSON format")
			return
		}
	} else {
		req.Code = r.URL.Query().Get("code")
	}

	if req.Code == "" {
		oh.sendErrorResponse(w, http.StatusBadRequest, "code is required")
		return
	}

	if oh.db == nil {
		oh.sendErrorResponse(w, http.StatusServiceUnavailable, "Order persistence is not available")
		return
	}

	ctx := context.Background()

	orders, err := oh.db.GetOrdersByCode(ctx, req.Code)
	if err != nil {
		oh.sendErrorResponse(w, http.StatusInternalServerError, "Unable to look up order")
		return
	}
	if len(orders) == 0 {
		oh.sendErrorResponse(w, http.StatusNotFound, "Order not found")
		return
	}

	if err := oh.db.UpdateOrderStatus(ctx, req.Code, models.OrderStatusPaymentSubmitted); err != nil {
		oh.sendErrorResponse(w, http.StatusInternalServerError, "Unable to update order status")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(OrderStatusResponse{
		Success:   true,
		OrderCode: req.Code,
		Status:    models.OrderStatusPaymentSubmitted,
	})
}

// HandleStock processes GET /stock requests against the live redis counters
func (oh *OrderHandler) HandleStock(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		oh.sendErrorResponse(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	productID := r.URL.Query().Get("product_id")
	if productID == "" {
		oh.sendErrorResponse(w, http.StatusBadRequest, "product_id is required")
		return
	}

	if oh.redis == nil {
		oh.sendErrorResponse(w, http.StatusServiceUnavailable, "Stock counters are not available")
		return
	}

	stock, err := oh.redis.GetStock(context.Background(), productID)
	if err != nil {
		oh.sendErrorResponse(w, http.StatusInternalServerError, "Unable to read stock")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(StockResponse{
		Success:   true,
		ProductID: productID,
		Stock:     stock,
	})
}

// sendErrorResponse sends a standardized error response
func (oh *OrderHandler) sendErrorResponse(w http.ResponseWriter, statusCode int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	json.NewEncoder(w).Encode(models.ErrorResponse{
		Success: false,
		Error:   message,
	})
}
