package orders

import "storefront/internal/models"

// ValidateStock checks a requested quantity against the product's counter for
// size. It is advisory: the conditional decrement performed by the store is
// what actually prevents overselling.
func ValidateStock(product models.Product, size string, quantity int) error {
	if !product.Available() {
		return &ProductUnavailableError{ProductID: product.ID.Hex(), Title: product.Title}
	}

	entry, ok := product.SizeStock(size)
	if !ok {
		return &InsufficientStockError{
			ProductID: product.ID.Hex(),
			Title:     product.Title,
			Size:      size,
			Requested: quantity,
			Available: 0,
		}
	}
	if entry.Stock < quantity {
		return &InsufficientStockError{
			ProductID: product.ID.Hex(),
			Title:     product.Title,
			Size:      size,
			Requested: quantity,
			Available: entry.Stock,
		}
	}
	return nil
}
