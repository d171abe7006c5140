package services

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"bargain-store-backend/internal/interfaces"
	"bargain-store-backend/internal/models"

	"github.com/google/uuid"
)

// CatalogServiceImpl implements interfaces.CatalogService. Products are cached
// in memory; the database is consulted on cache miss and is optional so the
// service can run against demo data alone.
type CatalogServiceImpl struct {
	db interfaces.DatabaseInterface

	mu           sync.RWMutex
	productCache map[string]*models.Product
}

// NewCatalogService creates a new catalog service. db may be nil.
func NewCatalogService(db interfaces.DatabaseInterface) *CatalogServiceImpl {
	return &CatalogServiceImpl{
		db:           db,
		productCache: make(map[string]*models.Product),
	}
}

// NormalizeProduct converts a loosely-shaped catalog payload into the single
// normalized product record the negotiation engine and cart operate on. This
// is the only place heterogeneous input shapes are handled.
func NormalizeProduct(raw *models.RawProduct) (*models.Product, error) {
	if raw == nil {
		return nil, fmt.Errorf("invalid product payload")
	}

	brand := raw.Brand
	if brand == "" {
		brand = "Unknown"
	}
	category := raw.Category
	if category == "" {
		category = "General"
	}
	description := raw.Description
	if description == "" {
		description = "No description"
	}

	vendorName := "Unknown Vendor"
	var vendorRating float64
	if raw.Vendor != nil {
		if raw.Vendor.Name != "" {
			vendorName = raw.Vendor.Name
		}
		vendorRating = raw.Vendor.Rating
	}

	inStock := raw.InStock
	if inStock < 0 {
		inStock = 0
	}
	maxQuantity := raw.MaxQuantity
	if maxQuantity < 1 {
		maxQuantity = inStock
		if maxQuantity < 1 {
			maxQuantity = 1
		}
	}

	listedPrice := raw.Price
	originalPrice := raw.OriginalPrice
	if originalPrice <= 0 {
		originalPrice = listedPrice
	}
	floorPrice := raw.BargainPrice
	if floorPrice > listedPrice {
		floorPrice = listedPrice
	}

	return &models.Product{
		ID:            raw.ID,
		Name:          raw.Name,
		Brand:         brand,
		Category:      category,
		Image:         raw.Image,
		Description:   description,
		OriginalPrice: originalPrice,
		ListedPrice:   listedPrice,
		FloorPrice:    floorPrice,
		Rating:        raw.Rating,
		Reviews:       raw.Reviews,
		InStock:       inStock,
		MaxQuantity:   maxQuantity,
		VendorName:    vendorName,
		VendorRating:  vendorRating,
		CreatedAt:     time.Now(),
	}, nil
}

// GetProductByID returns a product by id, consulting cache, then database,
// then falling back to deterministic demo generation.
func (c *CatalogServiceImpl) GetProductByID(ctx context.Context, productID string) (*models.Product, error) {
	if err := c.ValidateProductID(productID); err != nil {
		return nil, err
	}

	c.mu.RLock()
	cached, exists := c.productCache[productID]
	c.mu.RUnlock()
	if exists {
		return cached, nil
	}

	if c.db != nil {
		product, err := c.db.GetProductByID(ctx, productID)
		if err != nil {
			log.Printf("Warning: failed to load product %s from database: %v", productID, err)
		} else if product != nil {
			c.cacheProduct(product)
			return product, nil
		}
	}

	// Valid id format but unknown product: generate a consistent demo product
	return c.generateDemoProduct(productID), nil
}

// GetAvailableProducts returns every cached product, generating a default demo
// set when the cache is empty.
func (c *CatalogServiceImpl) GetAvailableProducts(ctx context.Context) ([]models.Product, error) {
	if c.db != nil {
		products, err := c.db.ListProducts(ctx, 100)
		if err != nil {
			log.Printf("Warning: failed to list products from database: %v", err)
		} else if len(products) > 0 {
			for i := range products {
				c.cacheProduct(&products[i])
			}
			return products, nil
		}
	}

	c.mu.RLock()
	products := make([]models.Product, 0, len(c.productCache))
	for _, product := range c.productCache {
		products = append(products, *product)
	}
	c.mu.RUnlock()

	if len(products) == 0 {
		if err := c.PreloadDemoProducts(ctx); err != nil {
			return nil, fmt.Errorf("failed to generate demo products: %w", err)
		}
		return c.GetAvailableProducts(ctx)
	}

	return products, nil
}

// ValidateProductID checks if a product ID has a valid format
func (c *CatalogServiceImpl) ValidateProductID(productID string) error {
	if productID == "" {
		return fmt.Errorf("product ID cannot be empty")
	}

	if len(productID) < 3 || len(productID) > 50 {
		return fmt.Errorf("product ID length must be between 3 and 50 characters")
	}

	for _, char := range productID {
		if !((char >= 'a' && char <= 'z') ||
			(char >= 'A' && char <= 'Z') ||
			(char >= '0' && char <= '9') ||
			char == '_' || char == '-') {
			return fmt.Errorf("product ID contains invalid characters: %s", productID)
		}
	}

	return nil
}

// productTemplate seeds demo product generation
type productTemplate struct {
	name       string
	brand      string
	category   string
	vendorName string
	original   float64
	listed     float64
	floor      float64
	inStock    int
	maxQty     int
}

var demoTemplates = []productTemplate{
	{"Wireless Bluetooth Headphones", "AudioTech Pro", "Electronics", "TechGear Store", 129.99, 89.99, 75.00, 15, 10},
	{"Organic Cotton T-Shirt", "EcoWear", "Fashion", "Fashion Hub", 45.00, 35.00, 28.00, 8, 5},
	{"Smart Fitness Tracker", "FitTech", "Electronics", "GadgetWorld", 199.99, 149.99, 120.00, 5, 3},
	{"Ceramic Pour-Over Kettle", "BrewCraft", "Home", "Kitchen Corner", 79.99, 59.99, 48.00, 12, 6},
	{"Trail Running Shoes", "StrideMax", "Sports", "Outdoor Outfitters", 159.99, 119.99, 95.00, 20, 4},
	{"Leather Messenger Bag", "UrbanCarry", "Accessories", "Craft & Carry", 189.99, 139.99, 110.00, 7, 2},
}

// PreloadDemoProducts generates and caches a demo catalog for standalone runs
func (c *CatalogServiceImpl) PreloadDemoProducts(ctx context.Context) error {
	for _, template := range demoTemplates {
		productID := fmt.Sprintf("prod_%s", uuid.New().String()[:8])
		product := productFromTemplate(productID, template)
		c.cacheProduct(product)

		if c.db != nil {
			if err := c.db.UpsertProduct(ctx, product); err != nil {
				log.Printf("Warning: failed to persist demo product %s: %v", productID, err)
			}
		}
	}

	log.Printf("Preloaded %d demo products", len(demoTemplates))
	return nil
}

// generateDemoProduct creates a product with properties derived consistently
// from its id, so repeated lookups agree.
func (c *CatalogServiceImpl) generateDemoProduct(productID string) *models.Product {
	hash := simpleHash(productID)
	template := demoTemplates[int(hash)%len(demoTemplates)]

	// Deterministic price variation between 0.8 and 1.2
	variation := 0.8 + float64(hash%40)/100.0
	template.original = float64(int(template.original*variation*100)) / 100
	template.listed = float64(int(template.listed*variation*100)) / 100
	template.floor = float64(int(template.floor*variation*100)) / 100

	product := productFromTemplate(productID, template)
	c.cacheProduct(product)
	return product
}

func productFromTemplate(productID string, template productTemplate) *models.Product {
	return &models.Product{
		ID:            productID,
		Name:          template.name,
		Brand:         template.brand,
		Category:      template.category,
		Description:   "Bargain-ready listing from a verified vendor",
		OriginalPrice: template.original,
		ListedPrice:   template.listed,
		FloorPrice:    template.floor,
		Rating:        4.5,
		Reviews:       120,
		InStock:       template.inStock,
		MaxQuantity:   template.maxQty,
		VendorName:    template.vendorName,
		VendorRating:  4.8,
		CreatedAt:     time.Now(),
	}
}

func (c *CatalogServiceImpl) cacheProduct(product *models.Product) {
	c.mu.Lock()
	c.productCache[product.ID] = product
	c.mu.Unlock()
}

// ClearCache clears the product cache (useful for testing)
func (c *CatalogServiceImpl) ClearCache() {
	c.mu.Lock()
	c.productCache = make(map[string]*models.Product)
	c.mu.Unlock()
}

// simpleHash creates a simple hash of a string for consistent randomization
func simpleHash(s string) uint32 {
	var hash uint32
	for _, char := range s {
		hash = hash*31 + uint32(char)
	}
	return hash
}
