package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"bargain-store-backend/internal/models"

	_ "github.com/lib/pq"
)

// PostgresDB implements interfaces.DatabaseInterface
type PostgresDB struct {
	db *sql.DB

	// Prepared statements for the hot paths
	getProductByIDStmt  *sql.Stmt
	listProductsStmt    *sql.Stmt
	createOrderStmt     *sql.Stmt
	getOrdersByCodeStmt *sql.Stmt
}

// NewPostgresDB creates a new PostgreSQL database connection
func NewPostgresDB(connectionString string) (*PostgresDB, error) {
	db, err := sql.Open("postgres", connectionString)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(50)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(time.Hour)
	db.SetConnMaxIdleTime(15 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	pgDB := &PostgresDB{db: db}

	if err := pgDB.prepareStatements(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to prepare statements: %w", err)
	}

	return pgDB, nil
}

func (p *PostgresDB) prepareStatements() error {
	var err error

	p.getProductByIDStmt, err = p.db.Prepare(`
		SELECT id, name, brand, category, image, description,
		       original_price, listed_price, floor_price,
		       rating, reviews, in_stock, max_quantity,
		       vendor_name, vendor_rating, created_at
		FROM products
		WHERE id = $1`)
	if err != nil {
		return fmt.Errorf("failed to prepare getProductByID statement: %w", err)
	}

	p.listProductsStmt, err = p.db.Prepare(`
		SELECT id, name, brand, category, image, description,
		       original_price, listed_price, floor_price,
		       rating, reviews, in_stock, max_quantity,
		       vendor_name, vendor_rating, created_at
		FROM products
		WHERE in_stock > 0
		ORDER BY created_at DESC
		LIMIT $1`)
	if err != nil {
		return fmt.Errorf("failed to prepare listProducts statement: %w", err)
	}

	p.createOrderStmt, err = p.db.Prepare(`
		INSERT INTO orders (code, product_id, product_name, vendor_name, negotiated_price, quantity, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, NOW())
		RETURNING id, created_at`)
	if err != nil {
		return fmt.Errorf("failed to prepare createOrder statement: %w", err)
	}

	p.getOrdersByCodeStmt, err = p.db.Prepare(`
		SELECT id, code, product_id, product_name, vendor_name, negotiated_price, quantity, status, created_at
		FROM orders
		WHERE code = $1
		ORDER BY id`)
	if err != nil {
		return fmt.Errorf("failed to prepare getOrdersByCode statement: %w", err)
	}

	return nil
}

// Connection management

func (p *PostgresDB) Close() error {
	if p.getProductByIDStmt != nil {
		p.getProductByIDStmt.Close()
	}
	if p.listProductsStmt != nil {
		p.listProductsStmt.Close()
	}
	if p.createOrderStmt != nil {
		p.createOrderStmt.Close()
	}
	if p.getOrdersByCodeStmt != nil {
		p.getOrdersByCodeStmt.Close()
	}
	return p.db.Close()
}

func (p *PostgresDB) Ping(ctx context.Context) error {
	return p.db.PingContext(ctx)
}

func (p *PostgresDB) Stats() sql.DBStats {
	return p.db.Stats()
}

// Product operations

func (p *PostgresDB) GetProductByID(ctx context.Context, productID string) (*models.Product, error) {
	product := &models.Product{}

	err := p.getProductByIDStmt.QueryRowContext(ctx, productID).Scan(
		&product.ID, &product.Name, &product.Brand, &product.Category,
		&product.Image, &product.Description,
		&product.OriginalPrice, &product.ListedPrice, &product.FloorPrice,
		&product.Rating, &product.Reviews, &product.InStock, &product.MaxQuantity,
		&product.VendorName, &product.VendorRating, &product.CreatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil // Not found
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get product %s: %w", productID, err)
	}

	return product, nil
}

func (p *PostgresDB) ListProducts(ctx context.Context, limit int) ([]models.Product, error) {
	if limit <= 0 {
		limit = 50
	}

	rows, err := p.listProductsStmt.QueryContext(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}
	defer rows.Close()

	var products []models.Product
	for rows.Next() {
		var product models.Product
		if err := rows.Scan(
			&product.ID, &product.Name, &product.Brand, &product.Category,
			&product.Image, &product.Description,
			&product.OriginalPrice, &product.ListedPrice, &product.FloorPrice,
			&product.Rating, &product.Reviews, &product.InStock, &product.MaxQuantity,
			&product.VendorName, &product.VendorRating, &product.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan product row: %w", err)
		}
		products = append(products, product)
	}

	return products, rows.Err()
}

func (p *PostgresDB) UpsertProduct(ctx context.Context, product *models.Product) error {
	_, err := p.db.ExecContext(ctx, `
		INSERT INTO products (id, name, brand, category, image, description,
			original_price, listed_price, floor_price,
			rating, reviews, in_stock, max_quantity,
			vendor_name, vendor_rating, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, NOW())
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			brand = EXCLUDED.brand,
			category = EXCLUDED.category,
			image = EXCLUDED.image,
			description = EXCLUDED.description,
			original_price = EXCLUDED.original_price,
			listed_price = EXCLUDED.listed_price,
			floor_price = EXCLUDED.floor_price,
			rating = EXCLUDED.rating,
			reviews = EXCLUDED.reviews,
			in_stock = EXCLUDED.in_stock,
			max_quantity = EXCLUDED.max_quantity,
			vendor_name = EXCLUDED.vendor_name,
			vendor_rating = EXCLUDED.vendor_rating`,
		product.ID, product.Name, product.Brand, product.Category,
		product.Image, product.Description,
		product.OriginalPrice, product.ListedPrice, product.FloorPrice,
		product.Rating, product.Reviews, product.InStock, product.MaxQuantity,
		product.VendorName, product.VendorRating,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert product %s: %w", product.ID, err)
	}

	return nil
}

func (p *PostgresDB) UpdateProductStock(ctx context.Context, productID string, inStock int) error {
	result, err := p.db.ExecContext(ctx,
		`UPDATE products SET in_stock = $2 WHERE id = $1`, productID, inStock)
	if err != nil {
		return fmt.Errorf("failed to update stock for product %s: %w", productID, err)
	}

	if rows, err := result.RowsAffected(); err == nil && rows == 0 {
		return fmt.Errorf("product %s not found", productID)
	}

	return nil
}

// Order operations

func (p *PostgresDB) CreateOrder(ctx context.Context, order *models.Order) error {
	err := p.createOrderStmt.QueryRowContext(ctx,
		order.Code, order.ProductID, order.ProductName, order.VendorName,
		order.NegotiatedPrice, order.Quantity, order.Status,
	).Scan(&order.ID, &order.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create order %s: %w", order.Code, err)
	}

	return nil
}

func (p *PostgresDB) GetOrdersByCode(ctx context.Context, code string) ([]models.Order, error) {
	rows, err := p.getOrdersByCodeStmt.QueryContext(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("failed to get orders for code %s: %w", code, err)
	}
	defer rows.Close()

	var orders []models.Order
	for rows.Next() {
		var order models.Order
		if err := rows.Scan(
			&order.ID, &order.Code, &order.ProductID, &order.ProductName,
			&order.VendorName, &order.NegotiatedPrice, &order.Quantity,
			&order.Status, &order.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan order row: %w", err)
		}
		orders = append(orders, order)
	}

	return orders, rows.Err()
}

func (p *PostgresDB) UpdateOrderStatus(ctx context.Context, code string, status string) error {
	_, err := p.db.ExecContext(ctx,
		`UPDATE orders SET status = $2 WHERE code = $1`, code, status)
	if err != nil {
		return fmt.Errorf("failed to update status for order %s: %w", code, err)
	}

	return nil
}
