package orders

import (
	"go.mongodb.org/mongo-driver/bson/primitive"

	"storefront/internal/models"
)

// Line is one cart entry as submitted by the customer.
type Line struct {
	ProductID string
	Size      string
	Quantity  int
	Price     float64
}

type pricedLine struct {
	Line
	productID primitive.ObjectID
	product   models.Product
}

// Assemble snapshots the catalog data of each line into order items and
// returns them with the order total. Prices come from the catalog; the
// client's figures only have to agree within tolerance.
func Assemble(lines []pricedLine, clientTotal, tolerance float64) ([]models.OrderItem, float64, error) {
	items := make([]models.OrderItem, 0, len(lines))
	lineTotals := make([]float64, 0, len(lines))

	for _, line := range lines {
		unit := models.EffectivePrice(line.product.ActualPrice, line.product.DiscountPrice)
		if !models.WithinTolerance(unit, line.Price, tolerance) {
			return nil, 0, &PriceMismatchError{
				ProductID: line.productID.Hex(),
				Expected:  unit,
				Got:       line.Price,
			}
		}

		total := models.LineTotal(unit, line.Quantity)
		items = append(items, models.OrderItem{
			ProductID:    line.productID,
			ProductTitle: line.product.Title,
			ProductImage: line.product.PrimaryImage(),
			ProductBrand: line.product.Brand,
			Size:         line.Size,
			Quantity:     line.Quantity,
			Price:        unit,
			TotalPrice:   total,
		})
		lineTotals = append(lineTotals, total)
	}

	total := models.SumAmounts(lineTotals...)
	if !models.WithinTolerance(total, clientTotal, tolerance) {
		return nil, 0, &PriceMismatchError{Expected: total, Got: clientTotal}
	}
	return items, total, nil
}
