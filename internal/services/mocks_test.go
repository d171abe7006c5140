package services

import (
	"context"
	"errors"
	"fmt"

	"bargain-store-backend/internal/models"
)

// MockCatalog implements interfaces.CatalogService for engine tests
type MockCatalog struct {
	products    map[string]*models.Product
	shouldError bool
}

func NewMockCatalog() *MockCatalog {
	return &MockCatalog{
		products: make(map[string]*models.Product),
	}
}

func (m *MockCatalog) AddProduct(product *models.Product) {
	m.products[product.ID] = product
}

func (m *MockCatalog) GetProductByID(ctx context.Context, productID string) (*models.Product, error) {
	if m.shouldError {
		return nil, errors.New("mock catalog error")
	}
	product, exists := m.products[productID]
	if !exists {
		return nil, fmt.Errorf("product %s not found", productID)
	}
	return product, nil
}

func (m *MockCatalog) GetAvailableProducts(ctx context.Context) ([]models.Product, error) {
	if m.shouldError {
		return nil, errors.New("mock catalog error")
	}
	products := make([]models.Product, 0, len(m.products))
	for _, product := range m.products {
		products = append(products, *product)
	}
	return products, nil
}

func (m *MockCatalog) ValidateProductID(productID string) error {
	if productID == "" {
		return errors.New("product ID cannot be empty")
	}
	return nil
}

func (m *MockCatalog) PreloadDemoProducts(ctx context.Context) error {
	return nil
}

// headphonesProduct returns the canonical test product: listed 89.99, floor 75.00
func headphonesProduct() *models.Product {
	return &models.Product{
		ID:            "prod_headphones",
		Name:          "Wireless Bluetooth Headphones",
		Brand:         "AudioTech Pro",
		Category:      "Electronics",
		OriginalPrice: 129.99,
		ListedPrice:   89.99,
		FloorPrice:    75.00,
		InStock:       15,
		MaxQuantity:   10,
		VendorName:    "TechGear Store",
		VendorRating:  4.8,
	}
}
