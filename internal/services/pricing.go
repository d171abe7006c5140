package services

import (
	"math"

	"bargain-store-backend/internal/models"
)

// Pricing policy constants. The counter threshold marks the price at which the
// vendor stops haggling: any offer at or above floor*1.1, once a counter has
// been issued, is accepted.
const (
	counterThresholdFactor = 1.1
	counterDecrement       = 2.0

	taxRate           = 0.10
	flatShippingFee   = 10.0
	freeShippingAbove = 100.0
)

// Floor returns the vendor's minimum acceptable price for a product
func Floor(product *models.Product) float64 {
	return product.FloorPrice
}

// CounterThreshold returns the price at or above which offers are
// auto-accepted after one vendor counter.
func CounterThreshold(product *models.Product) float64 {
	return CounterThresholdFor(product.FloorPrice)
}

// CounterThresholdFor derives the acceptance threshold from a floor price
func CounterThresholdFor(floorPrice float64) float64 {
	return floorPrice * counterThresholdFactor
}

// CounterOffer computes the vendor's single counter-offer: slightly under the
// price currently on the table, capped at the acceptance threshold.
func CounterOffer(threshold, currentVendorPrice float64) float64 {
	return math.Min(threshold, currentVendorPrice-counterDecrement)
}

// round2 rounds a monetary value to 2 decimal places for display. Internal
// accumulation always uses unrounded values.
func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
