package handlers

import (
	"fmt"

	"storefront/internal/models"
)

type discountUpdateInput struct {
	ActualPrice   *float64
	DiscountPrice *float64
}

type discountUpdateResult struct {
	ActualPrice     float64
	DiscountPrice   float64
	DiscountPercent int
}

// validateDiscount allows no discount (0) or a price strictly below actual.
func validateDiscount(actualPrice, discountPrice float64) error {
	if actualPrice <= 0 {
		return fmt.Errorf("actualPrice must be greater than 0")
	}
	if discountPrice < 0 {
		return fmt.Errorf("discountPrice must not be negative")
	}
	if discountPrice > 0 && discountPrice >= actualPrice {
		return fmt.Errorf("discountPrice must be less than actualPrice")
	}
	return nil
}

// resolveDiscountUpdate merges a partial price update into the stored prices
// and recomputes the derived percentage.
func resolveDiscountUpdate(existingActual, existingDiscount float64, input discountUpdateInput) (discountUpdateResult, error) {
	result := discountUpdateResult{
		ActualPrice:   existingActual,
		DiscountPrice: existingDiscount,
	}
	if input.ActualPrice != nil {
		result.ActualPrice = *input.ActualPrice
	}
	if input.DiscountPrice != nil {
		result.DiscountPrice = *input.DiscountPrice
	}

	if err := validateDiscount(result.ActualPrice, result.DiscountPrice); err != nil {
		return discountUpdateResult{}, err
	}

	result.DiscountPercent = models.DiscountPercent(result.ActualPrice, result.DiscountPrice)
	return result, nil
}
