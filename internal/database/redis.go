package database

import (
	"context"
	"fmt"
	"time"

	"bargain-store-backend/internal/interfaces"

	"github.com/redis/go-redis/v9"
)

// RedisClient implements interfaces.RedisInterface
type RedisClient struct {
	client *redis.Client

	// Lua script for atomic stock reservation
	reserveStockScript *redis.Script
}

// Lua script for atomically reserving stock with an availability check.
// A reservation either takes the full quantity or nothing.
const reserveStockLua = `
	local stock_key = "stock:" .. ARGV[1]
	local quantity = tonumber(ARGV[2])

	local stock = redis.call('GET', stock_key)
	if not stock then
		return {-1, 0}
	end

	stock = tonumber(stock)
	if stock < quantity then
		return {0, stock}
	end

	local remaining = redis.call('DECRBY', stock_key, quantity)
	redis.call('EXPIRE', stock_key, 86400)

	return {1, remaining}
`

// NewRedisClient creates a new Redis client connection
func NewRedisClient(addr, password string, db int) (*RedisClient, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,

		PoolSize:     50,
		MinIdleConns: 10,
		MaxRetries:   3,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  2 * time.Second,
		WriteTimeout: 2 * time.Second,
		PoolTimeout:  4 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &RedisClient{
		client:             client,
		reserveStockScript: redis.NewScript(reserveStockLua),
	}, nil
}

// Connection management

func (r *RedisClient) Close() error {
	return r.client.Close()
}

func (r *RedisClient) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

// Atomic stock operations

// SetupProductStock initializes the stock counter for a product
func (r *RedisClient) SetupProductStock(ctx context.Context, productID string, available int) error {
	key := fmt.Sprintf("stock:%s", productID)
	if err := r.client.Set(ctx, key, available, 24*time.Hour).Err(); err != nil {
		return fmt.Errorf("failed to setup stock for product %s: %w", productID, err)
	}
	return nil
}

// GetStock returns the current stock counter for a product, 0 when absent
func (r *RedisClient) GetStock(ctx context.Context, productID string) (int, error) {
	key := fmt.Sprintf("stock:%s", productID)

	stock, err := r.client.Get(ctx, key).Int()
	if err == redis.Nil {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to get stock for product %s: %w", productID, err)
	}

	return stock, nil
}

// ReserveStock atomically takes quantity units of a product's stock, or
// nothing when availability is insufficient.
func (r *RedisClient) ReserveStock(ctx context.Context, productID string, quantity int) (*interfaces.StockReservation, error) {
	result, err := r.reserveStockScript.Run(ctx, r.client, []string{}, productID, quantity).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to reserve stock for product %s: %w", productID, err)
	}

	values, ok := result.([]interface{})
	if !ok || len(values) < 2 {
		return nil, fmt.Errorf("unexpected reservation script result: %v", result)
	}

	status, _ := values[0].(int64)
	remaining, _ := values[1].(int64)

	reservation := &interfaces.StockReservation{Remaining: int(remaining)}
	switch status {
	case 1:
		reservation.Reserved = true
		reservation.Reason = "success"
	case 0:
		reservation.Reason = "insufficient_stock"
	default:
		reservation.Reason = "unknown_product"
	}

	return reservation, nil
}

// ReleaseStock returns previously reserved units, used when a multi-line
// checkout fails partway.
func (r *RedisClient) ReleaseStock(ctx context.Context, productID string, quantity int) error {
	key := fmt.Sprintf("stock:%s", productID)
	if err := r.client.IncrBy(ctx, key, int64(quantity)).Err(); err != nil {
		return fmt.Errorf("failed to release stock for product %s: %w", productID, err)
	}
	return nil
}

// Order code caching

// CacheOrder stores the serialized order summary under its code for fast
// status lookups (TTL: 24 hours).
func (r *RedisClient) CacheOrder(ctx context.Context, code string, payload []byte) error {
	key := fmt.Sprintf("order:%s", code)
	if err := r.client.Set(ctx, key, payload, 24*time.Hour).Err(); err != nil {
		return fmt.Errorf("failed to cache order %s: %w", code, err)
	}
	return nil
}

// GetOrderPayload returns the cached order summary, nil when absent
func (r *RedisClient) GetOrderPayload(ctx context.Context, code string) ([]byte, error) {
	key := fmt.Sprintf("order:%s", code)

	payload, err := r.client.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get order %s: %w", code, err)
	}

	return payload, nil
}

// Cart snapshot persistence

// SaveCartSnapshot stores a serialized cart so a buyer's cart survives a
// server restart (TTL: 7 days).
func (r *RedisClient) SaveCartSnapshot(ctx context.Context, cartID string, payload []byte) error {
	key := fmt.Sprintf("cart:%s", cartID)
	if err := r.client.Set(ctx, key, payload, 7*24*time.Hour).Err(); err != nil {
		return fmt.Errorf("failed to save cart snapshot %s: %w", cartID, err)
	}
	return nil
}

// LoadCartSnapshot returns a previously saved cart, nil when absent
func (r *RedisClient) LoadCartSnapshot(ctx context.Context, cartID string) ([]byte, error) {
	key := fmt.Sprintf("cart:%s", cartID)

	payload, err := r.client.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load cart snapshot %s: %w", cartID, err)
	}

	return payload, nil
}
